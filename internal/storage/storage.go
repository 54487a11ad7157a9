// Package storage keeps a JSON copy of every processed record on disk.
package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"document-processor/internal/helper"
	"document-processor/internal/models"
)

type JSONWriter struct {
	Dir string
}

func NewJSONWriter(dir string) *JSONWriter {
	return &JSONWriter{Dir: dir}
}

// FileName returns the name a record is stored under: <slug(title)>-<id>.json.
func FileName(rec models.ContentRecord) string {
	slug := helper.Slugify(rec.Title)
	if slug == "" {
		return rec.ID + ".json"
	}
	return slug + "-" + rec.ID + ".json"
}

// Write stores each record in its own file and returns the written paths.
func (w *JSONWriter) Write(records []models.ContentRecord) ([]string, error) {
	if err := helper.CreateFolder(w.Dir); err != nil {
		return nil, err
	}

	paths := make([]string, 0, len(records))
	for _, rec := range records {
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetIndent("", "    ")
		enc.SetEscapeHTML(false)
		if err := enc.Encode(rec); err != nil {
			return paths, fmt.Errorf("failed to encode record %s: %v", rec.ID, err)
		}

		path := filepath.Join(w.Dir, FileName(rec))
		if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
			return paths, fmt.Errorf("failed to write %s: %w", path, err)
		}
		log.Debug().Str("file", path).Msg("record written")
		paths = append(paths, path)
	}
	return paths, nil
}

// Read loads a record written by Write.
func Read(path string) (models.ContentRecord, error) {
	var rec models.ContentRecord
	data, err := os.ReadFile(path)
	if err != nil {
		return rec, err
	}
	if err := json.Unmarshal(data, &rec); err != nil {
		return rec, fmt.Errorf("failed to decode %s: %v", path, err)
	}
	return rec, nil
}

// ReadDir loads every record stored in dir, in file name order.
func ReadDir(dir string) ([]models.ContentRecord, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, err
	}
	records := make([]models.ContentRecord, 0, len(paths))
	for _, path := range paths {
		rec, err := Read(path)
		if err != nil {
			return records, err
		}
		records = append(records, rec)
	}
	return records, nil
}
