// Package parser turns source files from the hotdir into ContentRecords.
//
// The set of formats is closed: every supported extension maps to exactly one
// Kind, and each Kind knows how to extract text from its container format.
// Parse owns the record bookkeeping (identity, provenance, token counts) and
// the relocation of the source once the outcome is known.
package parser

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"document-processor/internal/helper"
	"document-processor/internal/hotdir"
	"document-processor/internal/models"
	"document-processor/internal/tokenizer"
)

// section is one unit of text pulled out of a source file. Empty metadata
// fields are filled from the source file by Parse.
type section struct {
	title       string
	description string
	published   string
	content     string
}

// Parse extracts src into one or more records and relocates the source:
// successes go to processed/ (or are deleted when RemoveOnComplete is set),
// content failures go to failed/. A missing file is reported as ErrNotFound
// and nothing is moved. Relocation faults are returned as
// *models.RelocationError.
func Parse(tok *tokenizer.Tokenizer, src models.SourceFile) ([]models.ContentRecord, error) {
	kind, ok := KindForExtension(src.Extension)
	if !ok {
		return nil, fmt.Errorf("%w: %s", models.ErrUnsupportedType, src.Extension)
	}

	name := src.Name()
	path := src.Path()
	if !hotdir.Exists(path) {
		return nil, fmt.Errorf("%w: %s", models.ErrNotFound, name)
	}

	log.Info().Str("file", path).Str("kind", kind.String()).Msg("working")

	sections, err := kind.extract(path)
	if err != nil {
		err = fmt.Errorf("%w: %s: %v", models.ErrCorruptSource, name, err)
	} else if sections = nonEmpty(sections); len(sections) == 0 {
		err = fmt.Errorf("%w: %s has no extractable text", models.ErrEmptyContent, name)
	}
	if err != nil {
		log.Error().Err(err).Str("file", name).Msg("failed to convert")
		if relErr := hotdir.Relocate(src.Directory, name, false, false); relErr != nil {
			return nil, relErr
		}
		return nil, err
	}

	published := hotdir.CreatedAt(path)
	url := hotdir.ProcessedURL(src.Directory, name)

	records := make([]models.ContentRecord, 0, len(sections))
	for _, s := range sections {
		rec, err := newRecord(tok, s)
		if err != nil {
			return nil, err
		}
		rec.URL = url
		if rec.Title == "" {
			rec.Title = name
		}
		if rec.Published == "" {
			rec.Published = published
		}
		records = append(records, rec)
	}

	if err := hotdir.Relocate(src.Directory, name, true, src.RemoveOnComplete); err != nil {
		return nil, err
	}
	log.Info().Str("file", name).Int("records", len(records)).Msg("converted & ready for embedding")
	return records, nil
}

// ExtractFile returns the text of the file at path without creating records
// or moving it. Multi-section sources are joined with blank lines.
func ExtractFile(path string) (string, error) {
	ext := filepath.Ext(path)
	kind, ok := KindForExtension(ext)
	if !ok {
		return "", fmt.Errorf("%w: %s", models.ErrUnsupportedType, ext)
	}
	if !hotdir.Exists(path) {
		return "", fmt.Errorf("%w: %s", models.ErrNotFound, path)
	}
	sections, err := kind.extract(path)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", models.ErrCorruptSource, path, err)
	}
	sections = nonEmpty(sections)
	if len(sections) == 0 {
		return "", fmt.Errorf("%w: %s has no extractable text", models.ErrEmptyContent, path)
	}
	parts := make([]string, len(sections))
	for i, s := range sections {
		parts[i] = s.content
	}
	return strings.Join(parts, "\n\n"), nil
}

// NewRecord builds a record for free text that did not come from the hotdir,
// such as a scraped page.
func NewRecord(tok *tokenizer.Tokenizer, url, title, description, content string) (models.ContentRecord, error) {
	if strings.TrimSpace(content) == "" {
		return models.ContentRecord{}, fmt.Errorf("%w: %s", models.ErrEmptyContent, url)
	}
	rec, err := newRecord(tok, section{
		title:       title,
		description: description,
		published:   time.Now().Format(models.PublishedLayout),
		content:     content,
	})
	if err != nil {
		return models.ContentRecord{}, err
	}
	rec.URL = url
	return rec, nil
}

func newRecord(tok *tokenizer.Tokenizer, s section) (models.ContentRecord, error) {
	id, err := helper.GenerateUUID()
	if err != nil {
		return models.ContentRecord{}, err
	}
	description := s.description
	if description == "" {
		description = models.DefaultDescription
	}
	return models.ContentRecord{
		ID:                 id,
		Title:              s.title,
		Description:        description,
		Published:          s.published,
		WordCount:          utf8.RuneCountInString(s.content),
		PageContent:        s.content,
		TokenCountEstimate: tok.Count(s.content),
	}, nil
}

func nonEmpty(sections []section) []section {
	kept := sections[:0]
	for _, s := range sections {
		if strings.TrimSpace(s.content) == "" {
			if s.title != "" {
				log.Warn().Str("section", s.title).Msg("skipping section without text")
			}
			continue
		}
		kept = append(kept, s)
	}
	return kept
}
