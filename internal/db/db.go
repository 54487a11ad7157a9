package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"document-processor/internal/config"
	"document-processor/internal/models"
)

// Document is a processed ContentRecord.
type Document struct {
	bun.BaseModel      `bun:"table:documents,alias:d"`
	ID                 string    `bun:"id,pk"`
	URL                string    `bun:"url,notnull"`
	Title              string    `bun:"title,notnull"`
	Description        string    `bun:"description"`
	Published          string    `bun:"published"`
	WordCount          int       `bun:"word_count"`
	PageContent        string    `bun:"page_content,notnull"`
	TokenCountEstimate int       `bun:"token_count_estimate"`
	CreatedAt          time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

// DocumentVector is one embedded chunk of a Document.
type DocumentVector struct {
	bun.BaseModel `bun:"table:document_vectors,alias:dv"`
	ID            string          `bun:"id,pk"`
	DocumentID    string          `bun:"document_id,notnull"`
	ChunkID       int             `bun:"chunk_id,notnull"`
	Title         string          `bun:"title"`
	SourceURL     string          `bun:"source_url"`
	Content       string          `bun:"content,notnull"`
	Embedding     pgvector.Vector `bun:"embedding,notnull,type:vector"`
}

func NewDB(sqldb *sql.DB, debug bool) *bun.DB {
	db := bun.NewDB(sqldb, pgdialect.New())
	if debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	return db
}

// ConnectDB opens the database with the configured driver. No connection is
// made until first use.
func ConnectDB(cfg *config.DatabaseConfig) (*sql.DB, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("database url is required")
	}
	switch cfg.Driver {
	case "pq":
		return sql.Open("postgres", cfg.URL)
	case "pgdriver", "":
		opts := []pgdriver.Option{pgdriver.WithDSN(cfg.URL)}
		if cfg.Password != "" {
			opts = append(opts, pgdriver.WithPassword(cfg.Password))
		}
		return sql.OpenDB(pgdriver.NewConnector(opts...)), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}
}

// InitDB installs pgvector and creates the tables. A positive vectorSize pins
// the embedding column dimension.
func InitDB(ctx context.Context, db *bun.DB, vectorSize int) error {
	if _, err := db.ExecContext(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("failed to create vector extension: %v", err)
	}
	for _, model := range []interface{}{(*Document)(nil), (*DocumentVector)(nil)} {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("failed to create table: %v", err)
		}
	}
	if vectorSize > 0 {
		_, err := db.ExecContext(ctx, fmt.Sprintf("ALTER TABLE document_vectors ALTER COLUMN embedding TYPE vector(%d)", vectorSize))
		if err != nil {
			return fmt.Errorf("failed to set vector size: %v", err)
		}
	}
	return nil
}

// drop tables documents and document_vectors
func DropDocuments(ctx context.Context, db *bun.DB) error {
	for _, model := range []interface{}{(*DocumentVector)(nil), (*Document)(nil)} {
		if _, err := db.NewDropTable().Model(model).IfExists().Exec(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Store persists records and their vectors.
type Store struct {
	db         *bun.DB
	vectorSize int
}

func NewStore(db *bun.DB, vectorSize int) *Store {
	return &Store{db: db, vectorSize: vectorSize}
}

func (s *Store) Close() error {
	return s.db.Close()
}

func documentRows(records []models.ContentRecord) []Document {
	docs := make([]Document, len(records))
	for i, r := range records {
		docs[i] = Document{
			ID:                 r.ID,
			URL:                r.URL,
			Title:              r.Title,
			Description:        r.Description,
			Published:          r.Published,
			WordCount:          r.WordCount,
			PageContent:        r.PageContent,
			TokenCountEstimate: r.TokenCountEstimate,
		}
	}
	return docs
}

func (s *Store) vectorRows(chunks []models.ChunkEmbedding) ([]DocumentVector, error) {
	rows := make([]DocumentVector, len(chunks))
	for i, c := range chunks {
		if s.vectorSize > 0 && len(c.Embedding) != s.vectorSize {
			return nil, fmt.Errorf("chunk %s has %d dimensions, want %d", c.ID, len(c.Embedding), s.vectorSize)
		}
		rows[i] = DocumentVector{
			ID:         c.ID,
			DocumentID: c.DocumentID,
			ChunkID:    c.ChunkID,
			Title:      c.Title,
			SourceURL:  c.SourceURL,
			Content:    c.Content,
			Embedding:  pgvector.NewVector(c.Embedding),
		}
	}
	return rows, nil
}

// SaveRecords upserts records by id.
func (s *Store) SaveRecords(ctx context.Context, records []models.ContentRecord) error {
	if len(records) == 0 {
		return nil
	}
	docs := documentRows(records)
	_, err := s.db.NewInsert().Model(&docs).On("CONFLICT (id) DO UPDATE").
		Set("page_content = EXCLUDED.page_content").
		Set("token_count_estimate = EXCLUDED.token_count_estimate").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to save documents: %v", err)
	}
	return nil
}

// AddChunks inserts embedded chunks in one statement.
func (s *Store) AddChunks(ctx context.Context, chunks []models.ChunkEmbedding) error {
	if len(chunks) == 0 {
		return nil
	}
	rows, err := s.vectorRows(chunks)
	if err != nil {
		return err
	}
	if _, err := s.db.NewInsert().Model(&rows).Exec(ctx); err != nil {
		return fmt.Errorf("failed to store vectors: %v", err)
	}
	return nil
}

// Search returns the limit chunks nearest to embedding by L2 distance.
func (s *Store) Search(ctx context.Context, embedding []float32, limit int) ([]DocumentVector, error) {
	var rows []DocumentVector
	err := s.db.NewSelect().
		Model(&rows).
		OrderExpr("embedding <-> ?", pgvector.NewVector(embedding)).
		Limit(limit).
		Scan(ctx)
	return rows, err
}

// SearchChunks is Search with the rows mapped back to chunks.
func (s *Store) SearchChunks(ctx context.Context, embedding []float32, limit int) ([]models.ChunkEmbedding, error) {
	rows, err := s.Search(ctx, embedding, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search vectors: %v", err)
	}
	chunks := make([]models.ChunkEmbedding, 0, len(rows))
	for _, r := range rows {
		chunks = append(chunks, models.ChunkEmbedding{
			ID:         r.ID,
			DocumentID: r.DocumentID,
			ChunkID:    r.ChunkID,
			Title:      r.Title,
			SourceURL:  r.SourceURL,
			Content:    r.Content,
			Embedding:  r.Embedding.Slice(),
		})
	}
	return chunks, nil
}

// Reset drops and recreates both tables.
func (s *Store) Reset(ctx context.Context) error {
	if err := DropDocuments(ctx, s.db); err != nil {
		return fmt.Errorf("failed to drop tables: %v", err)
	}
	return InitDB(ctx, s.db, s.vectorSize)
}
