package chromemdb

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"document-processor/internal/models"
)

const testKey = "0123456789abcdef0123456789abcdef"

func sampleChunks() []models.ChunkEmbedding {
	return []models.ChunkEmbedding{
		{ID: "doc-1-0", DocumentID: "doc-1", ChunkID: 0, Title: "a.txt", SourceURL: "file:///a.txt", Content: "apples", Embedding: []float32{1, 0, 0}},
		{ID: "doc-1-1", DocumentID: "doc-1", ChunkID: 1, Title: "a.txt", SourceURL: "file:///a.txt", Content: "bananas", Embedding: []float32{0, 1, 0}},
		{ID: "doc-2-0", DocumentID: "doc-2", ChunkID: 0, Title: "b.txt", SourceURL: "file:///b.txt", Content: "cherries", Embedding: []float32{0, 0, 1}},
	}
}

func TestAddChunksAndSearch(t *testing.T) {
	m, err := NewVectorDBManager(t.TempDir(), "docs", true, "")
	require.NoError(t, err)

	require.NoError(t, m.AddChunks(context.Background(), sampleChunks()))
	assert.Equal(t, 3, m.Count())

	results, err := m.Search(context.Background(), []float32{0, 1, 0}, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "doc-1-1", results[0].ID)
	assert.Equal(t, "bananas", results[0].Content)
	assert.Equal(t, "doc-1", results[0].Metadata[MetaDocumentID])
	assert.Equal(t, "1", results[0].Metadata[MetaChunkID])
	assert.Equal(t, "file:///a.txt", results[0].Metadata[MetaSourceURL])

	// asking for more than stored is capped
	results, err = m.Search(context.Background(), []float32{1, 0, 0}, 10)
	require.NoError(t, err)
	assert.Len(t, results, 3)
}

func TestAddChunks_MissingEmbedding(t *testing.T) {
	m, err := NewVectorDBManager(t.TempDir(), "docs", true, "")
	require.NoError(t, err)

	err = m.AddChunks(context.Background(), []models.ChunkEmbedding{{ID: "x", Content: "no vector"}})
	assert.Error(t, err)
	assert.Equal(t, 0, m.Count())
}

func TestPersistentDB(t *testing.T) {
	dir := t.TempDir()
	m, err := NewVectorDBManager(dir, "docs", false, "")
	require.NoError(t, err)
	require.NoError(t, m.AddChunks(context.Background(), sampleChunks()))

	reopened, err := NewVectorDBManager(dir, "docs", false, "")
	require.NoError(t, err)
	assert.Equal(t, 3, reopened.Count())
}

func TestExportImport(t *testing.T) {
	dir := t.TempDir()
	m, err := NewVectorDBManager(dir, "docs", true, testKey)
	require.NoError(t, err)
	require.NoError(t, m.AddChunks(context.Background(), sampleChunks()))

	path, err := m.Export()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "docs.chromem"), path)
	assert.FileExists(t, path)

	fresh, err := NewVectorDBManager(dir, "docs", true, testKey)
	require.NoError(t, err)
	require.Equal(t, 0, fresh.Count())
	require.NoError(t, fresh.Import())
	assert.Equal(t, 3, fresh.Count())
}

func TestExport_RequiresKey(t *testing.T) {
	m, err := NewVectorDBManager(t.TempDir(), "docs", true, "")
	require.NoError(t, err)
	_, err = m.Export()
	assert.Error(t, err)
}

func TestDeleteCollection(t *testing.T) {
	m, err := NewVectorDBManager(t.TempDir(), "docs", true, "")
	require.NoError(t, err)
	require.NoError(t, m.AddChunks(context.Background(), sampleChunks()))
	require.NoError(t, m.DeleteCollection())

	_, err = m.GetOrCreateCollection("docs")
	require.NoError(t, err)
	assert.Equal(t, 0, m.Count())
}

func TestSearchChunks(t *testing.T) {
	m, err := NewVectorDBManager(t.TempDir(), "docs", true, "")
	require.NoError(t, err)
	require.NoError(t, m.AddChunks(context.Background(), sampleChunks()))

	chunks, err := m.SearchChunks(context.Background(), []float32{0, 0, 1}, 2)
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, "doc-2-0", chunks[0].ID)
	assert.Equal(t, "doc-2", chunks[0].DocumentID)
	assert.Equal(t, 0, chunks[0].ChunkID)
	assert.Equal(t, "b.txt", chunks[0].Title)
	assert.Equal(t, "cherries", chunks[0].Content)
}

func TestReset(t *testing.T) {
	m, err := NewVectorDBManager(t.TempDir(), "docs", true, "")
	require.NoError(t, err)
	require.NoError(t, m.AddChunks(context.Background(), sampleChunks()))

	require.NoError(t, m.Reset(context.Background()))
	assert.Equal(t, 0, m.Count())

	require.NoError(t, m.AddChunks(context.Background(), sampleChunks()[:1]))
	assert.Equal(t, 1, m.Count())
}
