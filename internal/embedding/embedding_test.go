package embedding

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/embeddings"

	"document-processor/internal/config"
	"document-processor/internal/models"
)

func lengthEmbedder(t *testing.T) *embeddings.EmbedderImpl {
	t.Helper()
	e, err := embeddings.NewEmbedder(embeddings.EmbedderClientFunc(func(_ context.Context, texts []string) ([][]float32, error) {
		out := make([][]float32, len(texts))
		for i, text := range texts {
			out[i] = []float32{float32(len(text)), 1}
		}
		return out, nil
	}))
	require.NoError(t, err)
	return e
}

func TestNewEmbedder(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.LLMConfig
		wantErr bool
	}{
		{name: "ollama", cfg: config.LLMConfig{Provider: "ollama", BaseURL: "http://localhost:11434", Model: "nomic-embed-text"}},
		{name: "openai", cfg: config.LLMConfig{Provider: "openai", APIKey: "Bearer sk-test", Model: "text-embedding-3-small"}},
		{name: "unknown", cfg: config.LLMConfig{Provider: "bard"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := NewEmbedder(&tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, e)
		})
	}
}

func TestEmbedChunks(t *testing.T) {
	chunks := []models.ChunkEmbedding{
		{ID: "a", ChunkID: 0, Content: "abc"},
		{ID: "b", ChunkID: 1, Content: "hello"},
	}
	out, err := EmbedChunks(context.Background(), lengthEmbedder(t), chunks)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, []float32{3, 1}, out[0].Embedding)
	assert.Equal(t, []float32{5, 1}, out[1].Embedding)
	assert.Equal(t, "b", out[1].ID)
	assert.Nil(t, chunks[0].Embedding)
}

func TestEmbedChunks_Empty(t *testing.T) {
	out, err := EmbedChunks(context.Background(), lengthEmbedder(t), nil)
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestEmbedChunks_ClientError(t *testing.T) {
	e, err := embeddings.NewEmbedder(embeddings.EmbedderClientFunc(func(context.Context, []string) ([][]float32, error) {
		return nil, errors.New("model not loaded")
	}))
	require.NoError(t, err)

	_, err = EmbedChunks(context.Background(), e, []models.ChunkEmbedding{{Content: "x"}})
	assert.ErrorContains(t, err, "model not loaded")
}
