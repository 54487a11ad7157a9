package hotdir

import (
	"time"

	"document-processor/internal/models"
)

// CreatedAt returns the creation time of path formatted for a ContentRecord.
// Platforms without a birth time, and any stat failure, fall back to now.
func CreatedAt(path string) string {
	t, ok := birthTime(path)
	if !ok {
		t = time.Now()
	}
	return t.Local().Format(models.PublishedLayout)
}
