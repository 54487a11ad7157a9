// Package scraper turns a web page into a ContentRecord.
package scraper

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"document-processor/internal/htmltext"
	"document-processor/internal/models"
	"document-processor/internal/parser"
	"document-processor/internal/tokenizer"
)

const defaultTimeout = 30 * time.Second

// Summarizer adds a short external summary about subject to a scraped page.
type Summarizer interface {
	Summarize(ctx context.Context, subject string) (string, error)
}

type Scraper struct {
	client     *http.Client
	tok        *tokenizer.Tokenizer
	summarizer Summarizer
	userAgent  string
}

type Option func(*Scraper)

func WithHTTPClient(client *http.Client) Option {
	return func(s *Scraper) {
		s.client = client
	}
}

// WithSummarizer enables the best-effort summary appended after the page text.
func WithSummarizer(summarizer Summarizer) Option {
	return func(s *Scraper) {
		s.summarizer = summarizer
	}
}

func WithUserAgent(agent string) Option {
	return func(s *Scraper) {
		s.userAgent = agent
	}
}

func New(tok *tokenizer.Tokenizer, opts ...Option) *Scraper {
	s := &Scraper{
		client:    &http.Client{Timeout: defaultTimeout},
		tok:       tok,
		userAgent: "document-processor/1.0",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scrape fetches url and returns its visible text as a record. A failing
// summarizer is logged and otherwise ignored.
func (s *Scraper) Scrape(ctx context.Context, url string) (models.ContentRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return models.ContentRecord{}, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return models.ContentRecord{}, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return models.ContentRecord{}, fmt.Errorf("failed to fetch %s: status %s", url, resp.Status)
	}

	title, text, err := htmltext.Extract(resp.Body)
	if err != nil {
		return models.ContentRecord{}, fmt.Errorf("failed to parse %s: %w", url, err)
	}
	if title == "" {
		title = url
	}

	if s.summarizer != nil && text != "" {
		summary, err := s.summarizer.Summarize(ctx, url)
		switch {
		case err != nil:
			log.Warn().Err(err).Str("url", url).Msg("summary unavailable")
		case strings.TrimSpace(summary) != "":
			text += "\n" + strings.TrimSpace(summary)
		}
	}

	log.Info().Str("url", url).Int("chars", len(text)).Msg("scraped")
	return parser.NewRecord(s.tok, url, title, models.WebDescription, text)
}
