package chromemdb

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"strconv"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"

	"document-processor/internal/models"
)

// metadata keys stored with every chunk
const (
	MetaDocumentID = "document_id"
	MetaChunkID    = "chunk_id"
	MetaTitle      = "title"
	MetaSourceURL  = "source_url"
)

const (
	compress = false
)

// VectorDBManager encapsulates the chromem-go database operations
type VectorDBManager struct {
	db            *chromem.DB
	collection    *chromem.Collection
	dbPath        string
	compress      bool
	encryptionKey string
	filePath      string
}

// NewVectorDBManager opens (or creates) the database and its collection.
// In-memory databases are only persisted through Export.
func NewVectorDBManager(dbPath, collectionName string, inMemory bool, encryptionKey string) (*VectorDBManager, error) {
	var db *chromem.DB
	var err error
	if inMemory {
		db = chromem.NewDB()
	} else {
		db, err = chromem.NewPersistentDB(dbPath, compress)
		if err != nil {
			return nil, fmt.Errorf("failed to create database: %v", err)
		}
	}

	m := &VectorDBManager{
		db:            db,
		dbPath:        dbPath,
		compress:      compress,
		encryptionKey: encryptionKey,
		filePath:      filepath.Join(dbPath, collectionName+".chromem"),
	}
	if _, err := m.GetOrCreateCollection(collectionName); err != nil {
		return nil, err
	}
	return m, nil
}

// create or read collection
func (m *VectorDBManager) GetOrCreateCollection(collectionName string) (*chromem.Collection, error) {
	// embeddings are always computed up front, so no embedding func
	c, err := m.db.GetOrCreateCollection(collectionName, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create/get collection: %v", err)
	}
	m.collection = c
	return c, nil
}

// AddChunks stores embedded chunks with their provenance as metadata.
func (m *VectorDBManager) AddChunks(ctx context.Context, chunks []models.ChunkEmbedding) error {
	if len(chunks) == 0 {
		return nil
	}
	docs := make([]chromem.Document, 0, len(chunks))
	for _, c := range chunks {
		if len(c.Embedding) == 0 {
			return fmt.Errorf("chunk %s has no embedding", c.ID)
		}
		docs = append(docs, chromem.Document{
			ID:      c.ID,
			Content: c.Content,
			Metadata: map[string]string{
				MetaDocumentID: c.DocumentID,
				MetaChunkID:    strconv.Itoa(c.ChunkID),
				MetaTitle:      c.Title,
				MetaSourceURL:  c.SourceURL,
			},
			Embedding: c.Embedding,
		})
	}

	log.Debug().Str("collection", m.collection.Name).Int("chunks", len(docs)).Msg("adding chunks")
	if err := m.collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("failed to add documents: %v", err)
	}
	return nil
}

// Count returns the number of chunks in the collection.
func (m *VectorDBManager) Count() int {
	return m.collection.Count()
}

// Search returns the n chunks closest to embedding.
func (m *VectorDBManager) Search(ctx context.Context, embedding []float32, n int) ([]chromem.Result, error) {
	if len(embedding) == 0 {
		return nil, fmt.Errorf("embedding must be provided")
	}
	if count := m.collection.Count(); n > count {
		n = count
	}
	if n == 0 {
		return nil, nil
	}
	results, err := m.collection.QueryEmbedding(ctx, embedding, n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query by similarity: %v", err)
	}
	return results, nil
}

// SearchChunks is Search with the results mapped back to chunks.
func (m *VectorDBManager) SearchChunks(ctx context.Context, embedding []float32, n int) ([]models.ChunkEmbedding, error) {
	results, err := m.Search(ctx, embedding, n)
	if err != nil {
		return nil, err
	}
	chunks := make([]models.ChunkEmbedding, 0, len(results))
	for _, r := range results {
		chunkID, _ := strconv.Atoi(r.Metadata[MetaChunkID])
		chunks = append(chunks, models.ChunkEmbedding{
			ID:         r.ID,
			DocumentID: r.Metadata[MetaDocumentID],
			ChunkID:    chunkID,
			Title:      r.Metadata[MetaTitle],
			SourceURL:  r.Metadata[MetaSourceURL],
			Content:    r.Content,
			Embedding:  r.Embedding,
		})
	}
	return chunks, nil
}

// Reset drops every chunk by recreating the collection.
func (m *VectorDBManager) Reset(_ context.Context) error {
	name := m.collection.Name
	if err := m.DeleteCollection(); err != nil {
		return err
	}
	_, err := m.GetOrCreateCollection(name)
	return err
}

// delete collection
func (m *VectorDBManager) DeleteCollection() error {
	err := m.db.DeleteCollection(m.collection.Name)
	if err != nil {
		return fmt.Errorf("failed to drop collection: %v", err)
	}
	return nil
}

// Export writes the collection to <dbPath>/<collection>.chromem, encrypted
// with the configured key.
func (m *VectorDBManager) Export() (string, error) {
	if m.encryptionKey == "" {
		return "", fmt.Errorf("encryption key is required")
	}
	if m.dbPath == "" {
		return "", fmt.Errorf("db path is required")
	}

	log.Debug().Str("collection", m.collection.Name).Str("file", m.filePath).Bool("compress", m.compress).Msg("exporting")
	err := m.db.ExportToFile(m.filePath, m.compress, m.encryptionKey, m.collection.Name)
	if err != nil {
		return "", fmt.Errorf("failed to export database: %v", err)
	}
	return m.filePath, nil
}

// Import loads a file written by Export.
func (m *VectorDBManager) Import() error {
	err := m.db.ImportFromFile(m.filePath, m.encryptionKey, m.collection.Name)
	if err != nil {
		return fmt.Errorf("failed to import database: %v", err)
	}
	// the import replaces the collection object
	if _, err := m.GetOrCreateCollection(m.collection.Name); err != nil {
		return err
	}
	return nil
}
