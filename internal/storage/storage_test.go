package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"document-processor/internal/models"
)

func record(id, title string) models.ContentRecord {
	return models.ContentRecord{
		ID:                 id,
		URL:                "file:///hotdir/processed/" + title,
		Title:              title,
		Description:        models.DefaultDescription,
		Published:          "2024-01-02 03:04:05",
		WordCount:          11,
		PageContent:        "Hello\nWorld",
		TokenCountEstimate: 3,
	}
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "quarterly-report-pdf-abc.json", FileName(record("abc", "Quarterly Report.pdf")))
	assert.Equal(t, "abc.json", FileName(record("abc", "!!!")))
}

func TestWrite(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "custom-documents")
	w := NewJSONWriter(dir)

	paths, err := w.Write([]models.ContentRecord{record("id-1", "a.txt"), record("id-2", "b.txt")})
	require.NoError(t, err)
	require.Len(t, paths, 2)
	assert.Equal(t, filepath.Join(dir, "a-txt-id-1.json"), paths[0])

	data, err := os.ReadFile(paths[0])
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "{\n    \"id\": \"id-1\",\n"), string(data))
	assert.Contains(t, string(data), `"token_count_estimate": 3`)
	assert.Contains(t, string(data), `"wordCount": 11`)

	rec, err := Read(paths[1])
	require.NoError(t, err)
	assert.Equal(t, record("id-2", "b.txt"), rec)
}

func TestRead_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0o644))
	_, err := Read(path)
	assert.Error(t, err)
}

func TestReadDir(t *testing.T) {
	dir := t.TempDir()
	_, err := NewJSONWriter(dir).Write([]models.ContentRecord{record("id-2", "b.txt"), record("id-1", "a.txt")})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.md"), []byte("ignored"), 0o644))

	records, err := ReadDir(dir)
	require.NoError(t, err)
	assert.Equal(t, []models.ContentRecord{record("id-1", "a.txt"), record("id-2", "b.txt")}, records)
}

func TestReadDir_Missing(t *testing.T) {
	records, err := ReadDir(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestReadDir_Invalid(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.json"), []byte("{"), 0o644))
	_, err := ReadDir(dir)
	assert.Error(t, err)
}
