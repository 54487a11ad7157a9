// Package hotdir moves source files out of the watched directory once they
// have been handled. A pending file ends in exactly one of processed/, failed/
// or deleted.
package hotdir

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"document-processor/internal/models"
)

const (
	ProcessedDir = "processed"
	FailedDir    = "failed"
)

// Relocate ends the pending state of directory/name. When remove is set and
// the file exists it is deleted regardless of the outcome; otherwise it is
// moved into processed/ or failed/. Callers invoke it once per file.
func Relocate(directory, name string, succeeded, remove bool) error {
	src := filepath.Join(directory, name)

	if remove {
		if _, err := os.Stat(src); err == nil {
			if err := os.Remove(src); err != nil {
				return &models.RelocationError{Op: "remove", Path: src, Err: err}
			}
			log.Info().Str("file", name).Msg("deleted from filesystem")
			return nil
		}
	}

	dest := filepath.Join(directory, FailedDir)
	if succeeded {
		dest = filepath.Join(directory, ProcessedDir)
	}
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return &models.RelocationError{Op: "mkdir", Path: dest, Err: err}
	}

	target := filepath.Join(dest, name)
	if err := os.Rename(src, target); err != nil {
		return &models.RelocationError{Op: "move", Path: src, Err: err}
	}
	log.Debug().Str("file", name).Str("dest", dest).Msg("relocated source")
	return nil
}

// ProcessedURL is the file:// locator of name once it sits in processed/.
func ProcessedURL(directory, name string) string {
	p := filepath.Join(directory, ProcessedDir, name)
	if abs, err := filepath.Abs(p); err == nil {
		p = abs
	}
	return models.FileScheme + filepath.ToSlash(p)
}

// Exists reports whether path is present. Errors other than not-exist count
// as present so that the parser surfaces them as read failures.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return !errors.Is(err, fs.ErrNotExist)
}
