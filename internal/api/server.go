// Package api exposes the processor over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"

	"document-processor/internal/config"
	"document-processor/internal/models"
	"document-processor/internal/processor"
)

const usage = "Use POST /process with a filename in the hotdir to convert it, POST /upload with a multipart file field to send one, GET /accepts for supported types."

// RecordHandler receives the records of every successful conversion.
type RecordHandler func(ctx context.Context, records []models.ContentRecord) error

// Scraper turns a URL into a record.
type Scraper interface {
	Scrape(ctx context.Context, url string) (models.ContentRecord, error)
}

// Server wraps the HTTP server instance and its handlers.
type Server struct {
	httpServer *http.Server
	proc       *processor.Processor
	hotdir     string
	onRecords  RecordHandler
	scraper    Scraper

	// files in the hotdir are processed one at a time
	mu sync.Mutex
}

type Option func(*Server)

func WithRecordHandler(h RecordHandler) Option {
	return func(s *Server) {
		s.onRecords = h
	}
}

// WithScraper enables POST /scrape.
func WithScraper(sc Scraper) Option {
	return func(s *Server) {
		s.scraper = sc
	}
}

// NewServer builds and wires all routes.
func NewServer(cfg *config.ServerConfig, hotdir string, proc *processor.Processor, opts ...Option) *Server {
	s := &Server{
		proc:   proc,
		hotdir: hotdir,
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(5 * time.Minute))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/", s.index)
	r.Get("/accepts", s.accepts)
	r.Post("/process", s.process)
	r.Post("/upload", s.upload)
	if s.scraper != nil {
		r.Post("/scrape", s.scrape)
	}

	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start runs the HTTP server until Shutdown is called.
func (s *Server) Start() error {
	log.Info().Str("addr", s.httpServer.Addr).Msg("HTTP server listening")
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("Shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("failed to write response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		log.Debug().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("took", time.Since(start)).
			Msg("request")
	})
}
