package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"document-processor/internal/chromemdb"
	"document-processor/internal/chunker"
	"document-processor/internal/config"
	"document-processor/internal/db"
	"document-processor/internal/embedding"
	"document-processor/internal/helper"
	"document-processor/internal/ingest"
	"document-processor/internal/llmservice"
	"document-processor/internal/models"
	"document-processor/internal/processor"
	"document-processor/internal/scraper"
	"document-processor/internal/storage"
	"document-processor/internal/tokenizer"
)

func newTokenizer() *tokenizer.Tokenizer {
	tok, err := tokenizer.New()
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading tokenizer")
	}
	return tok
}

func newProcessor(cfg *config.Config, tok *tokenizer.Tokenizer) *processor.Processor {
	if err := helper.CreateFolder(cfg.Hotdir.Dir); err != nil {
		log.Fatal().Err(err).Msg("Error creating hotdir")
	}
	return processor.New(tok, processor.WithRemoveOnComplete(cfg.Hotdir.RemoveOnComplete))
}

func newSplitter(cfg *config.Config) *chunker.Splitter {
	splitter, err := chunker.New(
		chunker.WithChunkSize(cfg.Chunking.ChunkSize),
		chunker.WithOverlap(cfg.Chunking.ChunkOverlap),
		chunker.WithSeparator(cfg.Chunking.Separator),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("Error creating chunker")
	}
	return splitter
}

func newScraper(ctx context.Context, cfg *config.Config, tok *tokenizer.Tokenizer) *scraper.Scraper {
	var opts []scraper.Option
	if cfg.Search.APIKey != "" && cfg.Search.EngineID != "" {
		summarizer, err := scraper.NewGoogleSummarizer(ctx, cfg.Search.APIKey, cfg.Search.EngineID)
		if err != nil {
			log.Fatal().Err(err).Msg("Error creating search client")
		}
		opts = append(opts, scraper.WithSummarizer(summarizer))
	} else if cfg.SummaryLLM.Provider != "" {
		client, err := llmservice.New(&cfg.SummaryLLM)
		if err != nil {
			log.Fatal().Err(err).Msg("Error creating llm client")
		}
		opts = append(opts, scraper.WithSummarizer(client))
	}
	return scraper.New(tok, opts...)
}

// vectorBackend is the configured chunk store, either chromem or postgres.
type vectorBackend struct {
	chromem *chromemdb.VectorDBManager
	pg      *db.Store
	persist bool
}

func openBackend(ctx context.Context, cfg *config.Config) (*vectorBackend, error) {
	switch cfg.VectorStore.Backend {
	case "chromem":
		if !cfg.VectorStore.InMemory {
			if err := helper.CreateFolder(cfg.VectorStore.Path); err != nil {
				return nil, err
			}
		}
		m, err := chromemdb.NewVectorDBManager(cfg.VectorStore.Path, cfg.VectorStore.Collection, cfg.VectorStore.InMemory, cfg.VectorStore.EncryptionKey)
		if err != nil {
			return nil, err
		}
		if cfg.VectorStore.InMemory && cfg.VectorStore.EncryptionKey != "" {
			if err := m.Import(); err != nil {
				log.Warn().Err(err).Msg("no previous export to import")
			}
		}
		return &vectorBackend{chromem: m, persist: cfg.VectorStore.InMemory && cfg.VectorStore.EncryptionKey != ""}, nil
	case "postgres":
		sqldb, err := db.ConnectDB(&cfg.Database)
		if err != nil {
			return nil, err
		}
		bunDB := db.NewDB(sqldb, cfg.Database.Debug)
		if err := db.InitDB(ctx, bunDB, cfg.Database.VectorSize); err != nil {
			bunDB.Close()
			return nil, err
		}
		return &vectorBackend{pg: db.NewStore(bunDB, cfg.Database.VectorSize)}, nil
	default:
		return nil, fmt.Errorf("vector store backend %q does not store chunks", cfg.VectorStore.Backend)
	}
}

// chunkStore is implemented by both backends.
type chunkStore interface {
	ingest.VectorStore
	SearchChunks(ctx context.Context, embedding []float32, n int) ([]models.ChunkEmbedding, error)
	Reset(ctx context.Context) error
}

func (b *vectorBackend) store() chunkStore {
	if b.pg != nil {
		return b.pg
	}
	return b.chromem
}

func (b *vectorBackend) reset(ctx context.Context) error {
	return b.store().Reset(ctx)
}

func (b *vectorBackend) search(ctx context.Context, embedding []float32, n int) ([]models.ChunkEmbedding, error) {
	return b.store().SearchChunks(ctx, embedding, n)
}

// Close exports in-memory chromem databases and releases postgres connections.
func (b *vectorBackend) Close() {
	if b.pg != nil {
		if err := b.pg.Close(); err != nil {
			log.Warn().Err(err).Msg("Error closing database")
		}
		return
	}
	if b.persist {
		path, err := b.chromem.Export()
		if err != nil {
			log.Error().Err(err).Msg("Error exporting vector database")
			return
		}
		log.Info().Str("path", path).Msg("Exported vector database")
	}
}

func newIngester(cfg *config.Config, tok *tokenizer.Tokenizer, backend *vectorBackend) (*ingest.Ingester, error) {
	embedder, err := embedding.NewEmbedder(&cfg.EmbedLLM)
	if err != nil {
		return nil, fmt.Errorf("error initializing embedder: %w", err)
	}
	var opts []ingest.Option
	if backend.pg != nil {
		opts = append(opts, ingest.WithRecordStore(backend.pg))
	}
	return ingest.New(newSplitter(cfg), embedder, backend.store(), tok, opts...), nil
}

// recordSink writes every record to the documents folder and, when an
// ingester is given, embeds it.
func recordSink(cfg *config.Config, ing *ingest.Ingester) func(ctx context.Context, records []models.ContentRecord) error {
	writer := storage.NewJSONWriter(cfg.Storage.DocumentsDir)
	return func(ctx context.Context, records []models.ContentRecord) error {
		paths, err := writer.Write(records)
		if err != nil {
			return err
		}
		log.Debug().Strs("paths", paths).Msg("Wrote documents")
		if ing == nil {
			return nil
		}
		stats, err := ing.Ingest(ctx, records)
		if err != nil {
			return err
		}
		log.Info().Int("chunks", stats.Chunks).Int("skipped", stats.Skipped).Msg("Ingested records")
		return nil
	}
}
