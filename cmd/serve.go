package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"document-processor/internal/api"
	"document-processor/internal/config"
	"document-processor/internal/models"
	"document-processor/internal/tokenizer"
	"document-processor/internal/watcher"
)

var (
	serveAddr     string
	watchExisting bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		cfg := loadConfig()
		if serveAddr != "" {
			cfg.Server.Addr = serveAddr
		}
		if err := runServe(cmd.Context(), cfg); err != nil {
			log.Fatal().Err(err).Msg("Server failed")
		}
	},
}

func runServe(ctx context.Context, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	tok := newTokenizer()
	proc := newProcessor(cfg, tok)
	sc := newScraper(ctx, cfg, tok)

	sink, closeSink, err := newSink(ctx, cfg, tok)
	if err != nil {
		return err
	}
	defer closeSink()

	srv := api.NewServer(&cfg.Server, cfg.Hotdir.Dir, proc,
		api.WithRecordHandler(sink),
		api.WithScraper(sc),
	)

	errc := make(chan error, 1)
	go func() { errc <- srv.Start() }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Error shutting down server")
		}
		return nil
	}
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Process files as they are dropped into the hotdir",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		if err := runWatch(cmd.Context(), loadConfig()); err != nil {
			log.Fatal().Err(err).Msg("Watcher failed")
		}
	},
}

func runWatch(ctx context.Context, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	tok := newTokenizer()
	proc := newProcessor(cfg, tok)

	sink, closeSink, err := newSink(ctx, cfg, tok)
	if err != nil {
		return err
	}
	defer closeSink()

	w := watcher.New(cfg.Hotdir.Dir, proc,
		watcher.WithSettleDelay(cfg.Hotdir.SettleDelay),
		watcher.WithScanExisting(watchExisting),
		watcher.WithHandler(func(result models.Result, err error) {
			if err != nil {
				log.Error().Err(err).Str("file", result.Filename).Msg("Error relocating source file")
				return
			}
			if !result.Success {
				return
			}
			if err := sink(ctx, result.Metadata); err != nil {
				log.Error().Err(err).Str("file", result.Filename).Msg("Error handling records")
			}
		}),
	)
	return w.Run(ctx)
}

// newSink builds the record handler for long running commands. Records are
// always written as JSON and also ingested unless the vector store is "none".
// The returned func closes the vector store.
func newSink(ctx context.Context, cfg *config.Config, tok *tokenizer.Tokenizer) (api.RecordHandler, func(), error) {
	if cfg.VectorStore.Backend == "none" {
		return recordSink(cfg, nil), func() {}, nil
	}
	backend, err := openBackend(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("error opening vector store: %w", err)
	}
	ing, err := newIngester(cfg, tok, backend)
	if err != nil {
		backend.Close()
		return nil, nil, err
	}
	return recordSink(cfg, ing), backend.Close, nil
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (defaults to server.addr)")
	watchCmd.Flags().BoolVar(&watchExisting, "existing", false, "also process files already in the hotdir")
	rootCmd.AddCommand(serveCmd, watchCmd)
}
