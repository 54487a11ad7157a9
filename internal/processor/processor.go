// Package processor dispatches hotdir files to the matching parser and
// reports the outcome.
package processor

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"document-processor/internal/models"
	"document-processor/internal/parser"
	"document-processor/internal/tokenizer"
)

type Processor struct {
	tok              *tokenizer.Tokenizer
	removeOnComplete bool
}

type Option func(*Processor)

// WithRemoveOnComplete deletes successfully processed sources instead of
// moving them to processed/.
func WithRemoveOnComplete(remove bool) Option {
	return func(p *Processor) {
		p.removeOnComplete = remove
	}
}

func New(tok *tokenizer.Tokenizer, opts ...Option) *Processor {
	p := &Processor{tok: tok}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process converts directory/filename. Content problems (unsupported type,
// missing file, corrupt or empty source, traversal attempts) come back as an
// unsuccessful Result with no metadata; the returned error is reserved for
// operational faults such as a failed relocation.
func (p *Processor) Process(directory, filename string) (models.Result, error) {
	result := models.Result{Filename: filename}

	src, err := resolve(directory, filename)
	if err == nil {
		src.RemoveOnComplete = p.removeOnComplete
		var records []models.ContentRecord
		records, err = parser.Parse(p.tok, src)
		if err == nil {
			log.Info().Str("file", filename).Int("records", len(records)).Msg("processed")
			result.Success = true
			result.Metadata = records
			return result, nil
		}
	}

	if !models.IsContentError(err) {
		log.Error().Err(err).Str("file", filename).Msg("failed to process")
		return result, err
	}

	reason := err.Error()
	log.Warn().Str("file", filename).Str("reason", reason).Msg("not processed")
	result.Reason = &reason
	return result, nil
}

// Accepts returns the MIME type to extensions mapping of supported formats.
func (p *Processor) Accepts() map[string][]string {
	return parser.AcceptedMIMEs()
}

// Validate runs the name and extension checks of Process without touching
// the filesystem.
func (p *Processor) Validate(filename string) error {
	_, err := resolve("", filename)
	return err
}

// resolve validates filename without touching the filesystem.
func resolve(directory, filename string) (models.SourceFile, error) {
	clean := filepath.Clean(filename)
	if filename == "" || !filepath.IsLocal(clean) || filepath.Base(clean) != clean {
		return models.SourceFile{}, fmt.Errorf("%w: %s", models.ErrPathTraversal, filename)
	}

	ext := filepath.Ext(clean)
	if _, ok := parser.KindForExtension(ext); !ok {
		return models.SourceFile{}, fmt.Errorf("%w: %s", models.ErrUnsupportedType, strings.ToLower(ext))
	}

	return models.SourceFile{
		Directory: directory,
		Filename:  strings.TrimSuffix(clean, ext),
		Extension: ext,
	}, nil
}
