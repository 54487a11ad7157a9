package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"document-processor/internal/config"
	"document-processor/internal/embedding"
	"document-processor/internal/models"
	"document-processor/internal/storage"
)

var (
	ingestReset     bool
	ingestDocuments bool
	searchLimit     int
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [file...]",
	Short: "Process hotdir files, then chunk, embed and store the records",
	Long: "Processes the named hotdir files, or every file in the hotdir when none are given.\n" +
		"With --documents the stored JSON records are embedded again instead.",
	Run: func(cmd *cobra.Command, args []string) {
		if err := runIngest(cmd.Context(), loadConfig(), args); err != nil {
			log.Fatal().Err(err).Msg("Ingest failed")
		}
	},
}

// runIngest returns instead of exiting so the backend is closed, and an
// in-memory chromem database exported, on every path.
func runIngest(ctx context.Context, cfg *config.Config, args []string) error {
	tok := newTokenizer()
	proc := newProcessor(cfg, tok)

	backend, err := openBackend(ctx, cfg)
	if err != nil {
		return fmt.Errorf("error opening vector store: %w", err)
	}
	defer backend.Close()

	if ingestReset {
		if err := backend.reset(ctx); err != nil {
			return fmt.Errorf("error clearing vector store: %w", err)
		}
	}

	ing, err := newIngester(cfg, tok, backend)
	if err != nil {
		return err
	}
	if ingestDocuments {
		records, err := storage.ReadDir(cfg.Storage.DocumentsDir)
		if err != nil {
			return fmt.Errorf("error reading stored documents: %w", err)
		}
		if len(records) == 0 {
			log.Info().Str("dir", cfg.Storage.DocumentsDir).Msg("Nothing to ingest")
			return nil
		}
		log.Info().Int("records", len(records)).Msg("Re-ingesting stored documents")
		stats, err := ing.Ingest(ctx, records)
		if err != nil {
			return fmt.Errorf("error ingesting records: %w", err)
		}
		log.Info().Int("chunks", stats.Chunks).Int("skipped", stats.Skipped).Msg("Ingested records")
		return nil
	}

	names := args
	if len(names) == 0 {
		if names, err = pendingFiles(cfg.Hotdir.Dir); err != nil {
			return err
		}
	}

	var records []models.ContentRecord
	for _, name := range names {
		result, err := proc.Process(cfg.Hotdir.Dir, name)
		if err != nil {
			return fmt.Errorf("error relocating source file: %w", err)
		}
		if result.Success {
			records = append(records, result.Metadata...)
		}
	}
	if len(records) == 0 {
		log.Info().Msg("Nothing to ingest")
		return nil
	}

	log.Info().Int("records", len(records)).Msg("Ingesting")
	if err := recordSink(cfg, ing)(ctx, records); err != nil {
		return fmt.Errorf("error ingesting records: %w", err)
	}
	return nil
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Find the stored chunks closest to a query",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := runSearch(cmd.Context(), loadConfig(), args[0]); err != nil {
			log.Fatal().Err(err).Msg("Search failed")
		}
	},
}

func runSearch(ctx context.Context, cfg *config.Config, query string) error {
	backend, err := openBackend(ctx, cfg)
	if err != nil {
		return fmt.Errorf("error opening vector store: %w", err)
	}
	defer backend.Close()

	embedder, err := embedding.NewEmbedder(&cfg.EmbedLLM)
	if err != nil {
		return fmt.Errorf("error initializing embedder: %w", err)
	}
	vec, err := embedder.EmbedQuery(ctx, query)
	if err != nil {
		return fmt.Errorf("error embedding query: %w", err)
	}

	hits, err := backend.search(ctx, vec, searchLimit)
	if err != nil {
		return fmt.Errorf("error searching: %w", err)
	}
	for i, h := range hits {
		fmt.Printf("%d. %s (chunk %d) %s\n%s\n\n", i+1, h.Title, h.ChunkID, h.SourceURL, h.Content)
	}
	return nil
}

// pendingFiles lists the regular files at the top level of the hotdir.
func pendingFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("error reading hotdir %s: %w", dir, err)
	}
	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() && filepath.Ext(e.Name()) != "" {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

func init() {
	ingestCmd.Flags().BoolVar(&ingestReset, "reset", false, "drop stored chunks before ingesting")
	ingestCmd.Flags().BoolVar(&ingestDocuments, "documents", false, "embed the stored JSON records instead of hotdir files")
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 5, "number of chunks to return")
	rootCmd.AddCommand(ingestCmd, searchCmd)
}
