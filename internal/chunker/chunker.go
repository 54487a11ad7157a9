// Package chunker splits long text into overlapping, size-bounded chunks for
// embedding.
package chunker

import (
	"errors"
	"fmt"

	"github.com/tmc/langchaingo/textsplitter"

	"document-processor/internal/models"
)

// ErrInvalidConfig is returned when the chunk size and overlap cannot produce
// progress.
var ErrInvalidConfig = errors.New("invalid chunker configuration")

var _ textsplitter.TextSplitter = (*Splitter)(nil)

// Splitter cuts text on separator boundaries where possible and at character
// boundaries otherwise. Sizes are measured in characters (runes).
type Splitter struct {
	chunkSize int
	overlap   int
	separator []rune
}

// Option configures a Splitter.
type Option func(*Splitter)

// WithChunkSize sets the maximum chunk size in characters.
func WithChunkSize(size int) Option {
	return func(s *Splitter) {
		s.chunkSize = size
	}
}

// WithOverlap sets the maximum overlap between consecutive chunks.
func WithOverlap(overlap int) Option {
	return func(s *Splitter) {
		s.overlap = overlap
	}
}

// WithSeparator sets the preferred break string. An empty separator disables
// boundary snapping.
func WithSeparator(sep string) Option {
	return func(s *Splitter) {
		s.separator = []rune(sep)
	}
}

// New builds a Splitter, defaulting to 1000 characters, 200 overlap and a
// newline separator.
func New(opts ...Option) (*Splitter, error) {
	s := &Splitter{
		chunkSize: models.DefaultChunkSize,
		overlap:   models.DefaultChunkOverlap,
		separator: []rune(models.DefaultSeparator),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.chunkSize <= 0 {
		return nil, fmt.Errorf("%w: chunk size %d must be positive", ErrInvalidConfig, s.chunkSize)
	}
	if s.overlap < 0 || s.overlap >= s.chunkSize {
		return nil, fmt.Errorf("%w: overlap %d must be in [0, %d)", ErrInvalidConfig, s.overlap, s.chunkSize)
	}
	return s, nil
}

// Split is a convenience for New(opts...).Split(text).
func Split(text string, opts ...Option) ([]models.TextChunk, error) {
	s, err := New(opts...)
	if err != nil {
		return nil, err
	}
	return s.Split(text), nil
}

// Split returns the chunks of text in order. Every chunk is a contiguous
// substring of text of at most chunkSize characters, and each one starts
// between 1 and overlap characters before its predecessor ends.
func (s *Splitter) Split(text string) []models.TextChunk {
	runes := []rune(text)
	n := len(runes)
	if n == 0 {
		return nil
	}
	if n <= s.chunkSize {
		return []models.TextChunk{{Index: 0, Start: 0, End: n, Text: text}}
	}

	var chunks []models.TextChunk
	start := 0
	for {
		end := start + s.chunkSize
		if end >= n {
			end = n
		} else if cut := s.lastBoundary(runes, start+s.overlap+1, end); cut > 0 {
			end = cut
		}

		chunks = append(chunks, models.TextChunk{
			Index: len(chunks),
			Start: start,
			End:   end,
			Text:  string(runes[start:end]),
		})
		if end == n {
			return chunks
		}

		next := end - s.overlap
		if s.overlap > 0 {
			if snap := s.firstBoundary(runes, next, end-1); snap > 0 {
				next = snap
			}
		}
		start = next
	}
}

// SplitText implements textsplitter.TextSplitter.
func (s *Splitter) SplitText(text string) ([]string, error) {
	chunks := s.Split(text)
	out := make([]string, len(chunks))
	for i, c := range chunks {
		out[i] = c.Text
	}
	return out, nil
}

// lastBoundary returns the largest position p in [lo, hi] that directly
// follows a separator, or 0.
func (s *Splitter) lastBoundary(runes []rune, lo, hi int) int {
	if len(s.separator) == 0 {
		return 0
	}
	for p := hi; p >= lo; p-- {
		if s.endsWithSeparator(runes, p) {
			return p
		}
	}
	return 0
}

// firstBoundary returns the smallest position p in [lo, hi] that directly
// follows a separator, or 0.
func (s *Splitter) firstBoundary(runes []rune, lo, hi int) int {
	if len(s.separator) == 0 {
		return 0
	}
	for p := lo; p <= hi; p++ {
		if s.endsWithSeparator(runes, p) {
			return p
		}
	}
	return 0
}

func (s *Splitter) endsWithSeparator(runes []rune, p int) bool {
	k := len(s.separator)
	if p < k || p > len(runes) {
		return false
	}
	for i := 0; i < k; i++ {
		if runes[p-k+i] != s.separator[i] {
			return false
		}
	}
	return true
}
