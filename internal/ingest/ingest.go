// Package ingest chunks ContentRecords, embeds the chunks and hands them to a
// vector store.
package ingest

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/textsplitter"

	"document-processor/internal/embedding"
	"document-processor/internal/helper"
	"document-processor/internal/models"
	"document-processor/internal/tokenizer"
)

const (
	metaDocumentID = "document_id"
	metaTitle      = "title"
	metaSourceURL  = "source_url"
)

// VectorStore receives embedded chunks.
type VectorStore interface {
	AddChunks(ctx context.Context, chunks []models.ChunkEmbedding) error
}

// RecordStore keeps the full records next to their chunks.
type RecordStore interface {
	SaveRecords(ctx context.Context, records []models.ContentRecord) error
}

// Stats summarizes one Ingest call.
type Stats struct {
	Records int
	Chunks  int
	Skipped int
	Tokens  int
}

type Ingester struct {
	splitter textsplitter.TextSplitter
	embedder embeddings.Embedder
	store    VectorStore
	tok      *tokenizer.Tokenizer
	records  RecordStore
}

type Option func(*Ingester)

// WithRecordStore also saves the records themselves before their chunks.
func WithRecordStore(rs RecordStore) Option {
	return func(i *Ingester) {
		i.records = rs
	}
}

func New(splitter textsplitter.TextSplitter, embedder embeddings.Embedder, store VectorStore, tok *tokenizer.Tokenizer, opts ...Option) *Ingester {
	i := &Ingester{
		splitter: splitter,
		embedder: embedder,
		store:    store,
		tok:      tok,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Ingest splits every record, drops chunks too large for the embedding model,
// embeds the rest in one batch and stores them.
func (i *Ingester) Ingest(ctx context.Context, records []models.ContentRecord) (Stats, error) {
	stats := Stats{Records: len(records)}
	if len(records) == 0 {
		return stats, nil
	}

	texts := make([]string, len(records))
	metadatas := make([]map[string]any, len(records))
	for n, rec := range records {
		texts[n] = rec.PageContent
		metadatas[n] = map[string]any{
			metaDocumentID: rec.ID,
			metaTitle:      rec.Title,
			metaSourceURL:  rec.URL,
		}
	}
	docs, err := textsplitter.CreateDocuments(i.splitter, texts, metadatas)
	if err != nil {
		return stats, fmt.Errorf("failed to split records: %w", err)
	}

	chunkIndex := make(map[string]int)
	chunks := make([]models.ChunkEmbedding, 0, len(docs))
	for _, doc := range docs {
		docID, _ := doc.Metadata[metaDocumentID].(string)
		index := chunkIndex[docID]
		chunkIndex[docID]++

		tokens, ok := i.tok.ValidEmbedding(doc.PageContent, models.EmbeddingBuffer)
		if !ok {
			log.Warn().Str("document", docID).Int("chunk", index).Int("tokens", tokens).Msg("chunk exceeds embedding limit, skipping")
			stats.Skipped++
			continue
		}
		stats.Tokens += tokens

		id, err := helper.GenerateUUID()
		if err != nil {
			return stats, err
		}
		title, _ := doc.Metadata[metaTitle].(string)
		url, _ := doc.Metadata[metaSourceURL].(string)
		chunks = append(chunks, models.ChunkEmbedding{
			ID:         id,
			DocumentID: docID,
			ChunkID:    index,
			Title:      title,
			SourceURL:  url,
			Content:    doc.PageContent,
		})
	}

	if i.records != nil {
		if err := i.records.SaveRecords(ctx, records); err != nil {
			return stats, err
		}
	}
	if len(chunks) == 0 {
		log.Warn().Int("records", len(records)).Msg("nothing to embed")
		return stats, nil
	}

	log.Info().Int("chunks", len(chunks)).Int("tokens", stats.Tokens).
		Str("estimated_cost", tokenizer.CostEstimate(stats.Tokens)).Msg("embedding chunks")
	embedded, err := embedding.EmbedChunks(ctx, i.embedder, chunks)
	if err != nil {
		return stats, err
	}
	if err := i.store.AddChunks(ctx, embedded); err != nil {
		return stats, fmt.Errorf("failed to store chunks: %w", err)
	}
	stats.Chunks = len(embedded)
	return stats, nil
}
