package ingest

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/embeddings"

	"document-processor/internal/chromemdb"
	"document-processor/internal/chunker"
	"document-processor/internal/models"
	"document-processor/internal/tokenizer"
)

type memoryStore struct {
	chunks  []models.ChunkEmbedding
	records []models.ContentRecord
	err     error
}

func (m *memoryStore) AddChunks(_ context.Context, chunks []models.ChunkEmbedding) error {
	if m.err != nil {
		return m.err
	}
	m.chunks = append(m.chunks, chunks...)
	return nil
}

func (m *memoryStore) SaveRecords(_ context.Context, records []models.ContentRecord) error {
	m.records = append(m.records, records...)
	return nil
}

type countingEmbedder struct {
	calls int
	texts []string
}

func (c *countingEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	c.calls++
	c.texts = append(c.texts, texts...)
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = []float32{float32(len(text)), 1}
	}
	return out, nil
}

func (c *countingEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	return []float32{float32(len(text)), 1}, nil
}

var _ embeddings.Embedder = (*countingEmbedder)(nil)

func setup(t *testing.T, opts ...chunker.Option) (*chunker.Splitter, *tokenizer.Tokenizer) {
	t.Helper()
	splitter, err := chunker.New(opts...)
	require.NoError(t, err)
	tok, err := tokenizer.New()
	require.NoError(t, err)
	return splitter, tok
}

func longText(lines int) string {
	var b strings.Builder
	for i := 0; i < lines; i++ {
		b.WriteString("The pipeline splits long documents into overlapping chunks.\n")
	}
	return b.String()
}

func TestIngest(t *testing.T) {
	splitter, tok := setup(t)
	store := &memoryStore{}
	embedder := &countingEmbedder{}
	records := []models.ContentRecord{
		{ID: "doc-1", Title: "long.txt", URL: "file:///long.txt", PageContent: longText(50)},
		{ID: "doc-2", Title: "short.txt", URL: "file:///short.txt", PageContent: "short"},
	}

	stats, err := New(splitter, embedder, store, tok, WithRecordStore(store)).Ingest(context.Background(), records)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Records)
	assert.Equal(t, 0, stats.Skipped)
	assert.Equal(t, 1, embedder.calls)
	require.Equal(t, stats.Chunks, len(store.chunks))
	assert.Greater(t, stats.Chunks, 2)
	assert.Equal(t, records, store.records)

	var doc1 []models.ChunkEmbedding
	for _, c := range store.chunks {
		assert.NotEmpty(t, c.ID)
		assert.NotEmpty(t, c.Embedding)
		assert.LessOrEqual(t, len([]rune(c.Content)), models.DefaultChunkSize)
		if c.DocumentID == "doc-1" {
			doc1 = append(doc1, c)
		}
	}
	for i, c := range doc1 {
		assert.Equal(t, i, c.ChunkID)
		assert.Equal(t, "long.txt", c.Title)
		assert.Equal(t, "file:///long.txt", c.SourceURL)
	}
	last := store.chunks[len(store.chunks)-1]
	assert.Equal(t, "doc-2", last.DocumentID)
	assert.Equal(t, "short", last.Content)
	assert.Equal(t, 0, last.ChunkID)
}

func TestIngest_SkipsOversizedChunks(t *testing.T) {
	splitter, tok := setup(t, chunker.WithChunkSize(100_000), chunker.WithOverlap(0))
	store := &memoryStore{}
	huge := strings.Repeat(" cat", 9000)
	require.Greater(t, tok.Count(huge), models.MaxEmbeddingTokens)

	records := []models.ContentRecord{
		{ID: "huge", PageContent: huge},
		{ID: "small", PageContent: "fits easily"},
	}
	stats, err := New(splitter, &countingEmbedder{}, store, tok).Ingest(context.Background(), records)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Skipped)
	assert.Equal(t, 1, stats.Chunks)
	require.Len(t, store.chunks, 1)
	assert.Equal(t, "small", store.chunks[0].DocumentID)
}

func TestIngest_Empty(t *testing.T) {
	splitter, tok := setup(t)
	embedder := &countingEmbedder{}
	stats, err := New(splitter, embedder, &memoryStore{}, tok).Ingest(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, Stats{}, stats)
	assert.Equal(t, 0, embedder.calls)
}

func TestIngest_StoreError(t *testing.T) {
	splitter, tok := setup(t)
	store := &memoryStore{err: errors.New("disk full")}
	_, err := New(splitter, &countingEmbedder{}, store, tok).Ingest(context.Background(), []models.ContentRecord{{ID: "a", PageContent: "text"}})
	assert.ErrorContains(t, err, "disk full")
}

func TestIngest_ChromemStore(t *testing.T) {
	splitter, tok := setup(t)
	store, err := chromemdb.NewVectorDBManager(t.TempDir(), "docs", true, "")
	require.NoError(t, err)

	stats, err := New(splitter, &countingEmbedder{}, store, tok).Ingest(context.Background(), []models.ContentRecord{
		{ID: "doc", Title: "a.txt", PageContent: longText(40)},
	})
	require.NoError(t, err)
	assert.Equal(t, stats.Chunks, store.Count())
}
