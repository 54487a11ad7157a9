package processor

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"document-processor/internal/fixtures"
	"document-processor/internal/hotdir"
	"document-processor/internal/models"
	"document-processor/internal/tokenizer"
)

func newProcessor(t *testing.T, opts ...Option) *Processor {
	t.Helper()
	tok, err := tokenizer.New()
	require.NoError(t, err)
	return New(tok, opts...)
}

func entries(t *testing.T, dir string) []string {
	t.Helper()
	list, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(list))
	for _, e := range list {
		names = append(names, e.Name())
	}
	return names
}

func TestProcess_EverySupportedExtension(t *testing.T) {
	p := newProcessor(t)
	for _, exts := range p.Accepts() {
		for _, ext := range exts {
			t.Run(ext, func(t *testing.T) {
				dir := t.TempDir()
				name := "fixture" + ext
				fixtures.Write(t, dir, name, fixtures.ForExtension(t, ext, "Pack my box with five dozen liquor jugs"))

				result, err := p.Process(dir, name)
				require.NoError(t, err)
				assert.True(t, result.Success)
				assert.Nil(t, result.Reason)
				assert.Equal(t, name, result.Filename)
				require.NotEmpty(t, result.Metadata)
				for _, rec := range result.Metadata {
					assert.NotEmpty(t, rec.PageContent)
				}
			})
		}
	}
}

func TestProcess_Lifecycle(t *testing.T) {
	tests := []struct {
		name      string
		remove    bool
		processed bool
	}{
		{name: "moved to processed", remove: false, processed: true},
		{name: "removed on complete", remove: true, processed: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			fixtures.Write(t, dir, "a.txt", []byte("Hello\nWorld"))

			result, err := newProcessor(t, WithRemoveOnComplete(tt.remove)).Process(dir, "a.txt")
			require.NoError(t, err)
			require.True(t, result.Success)
			require.Len(t, result.Metadata, 1)
			assert.Equal(t, "Hello\nWorld", result.Metadata[0].PageContent)
			assert.Equal(t, 11, result.Metadata[0].WordCount)

			assert.NoFileExists(t, filepath.Join(dir, "a.txt"))
			if tt.processed {
				assert.FileExists(t, filepath.Join(dir, hotdir.ProcessedDir, "a.txt"))
			} else {
				assert.NoFileExists(t, filepath.Join(dir, hotdir.ProcessedDir, "a.txt"))
			}
		})
	}
}

func TestProcess_PathTraversal(t *testing.T) {
	for _, name := range []string{"../../etc/passwd", "../secret.txt", "/etc/passwd.txt", "nested/a.txt", ""} {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			result, err := newProcessor(t).Process(dir, name)
			require.NoError(t, err)
			assert.False(t, result.Success)
			require.NotNil(t, result.Reason)
			assert.True(t, strings.HasPrefix(*result.Reason, models.ErrPathTraversal.Error()), *result.Reason)
			assert.Nil(t, result.Metadata)
			assert.Empty(t, entries(t, dir))
		})
	}
}

func TestProcess_UnsupportedType(t *testing.T) {
	dir := t.TempDir()
	fixtures.Write(t, dir, "setup.exe", []byte("MZ"))

	result, err := newProcessor(t).Process(dir, "setup.exe")
	require.NoError(t, err)
	assert.False(t, result.Success)
	require.NotNil(t, result.Reason)
	assert.True(t, strings.HasPrefix(*result.Reason, models.ErrUnsupportedType.Error()))
	assert.Equal(t, []string{"setup.exe"}, entries(t, dir))
}

func TestProcess_NotFound(t *testing.T) {
	dir := t.TempDir()
	result, err := newProcessor(t).Process(dir, "ghost.pdf")
	require.NoError(t, err)
	assert.False(t, result.Success)
	require.NotNil(t, result.Reason)
	assert.True(t, strings.HasPrefix(*result.Reason, models.ErrNotFound.Error()))
	assert.Empty(t, entries(t, dir))
}

func TestProcess_PresentationWithoutText(t *testing.T) {
	dir := t.TempDir()
	fixtures.Write(t, dir, "blank.pptx", fixtures.Presentation(t, []string{}))

	result, err := newProcessor(t).Process(dir, "blank.pptx")
	require.NoError(t, err)
	assert.False(t, result.Success)
	require.NotNil(t, result.Reason)
	assert.True(t, strings.HasPrefix(*result.Reason, models.ErrEmptyContent.Error()))
	assert.FileExists(t, filepath.Join(dir, hotdir.FailedDir, "blank.pptx"))
}

func TestProcess_MboxRecords(t *testing.T) {
	dir := t.TempDir()
	fixtures.Write(t, dir, "digest.mbox", fixtures.Mbox(
		fixtures.Message{Subject: "one", Body: "first"},
		fixtures.Message{Subject: "two", Body: "second"},
		fixtures.Message{Subject: "three", Body: "third"},
	))

	result, err := newProcessor(t).Process(dir, "digest.mbox")
	require.NoError(t, err)
	require.True(t, result.Success)
	require.Len(t, result.Metadata, 3)
	ids := map[string]bool{}
	for _, rec := range result.Metadata {
		ids[rec.ID] = true
	}
	assert.Len(t, ids, 3)
}

func TestProcess_FailureHasNullMetadata(t *testing.T) {
	result, err := newProcessor(t).Process(t.TempDir(), "x.exe")
	require.NoError(t, err)
	assert.Nil(t, result.Metadata)

	data, err := json.Marshal(result)
	require.NoError(t, err)
	assert.JSONEq(t, `{"filename":"x.exe","success":false,"reason":"UnsupportedType: .exe","metadata":null}`, string(data))
}

func TestProcess_RelocationError(t *testing.T) {
	dir := t.TempDir()
	fixtures.Write(t, dir, "a.txt", []byte("content"))
	require.NoError(t, os.WriteFile(filepath.Join(dir, hotdir.ProcessedDir), nil, 0o644))

	_, err := newProcessor(t).Process(dir, "a.txt")
	require.Error(t, err)
	assert.False(t, models.IsContentError(err))
}

func TestAccepts_Idempotent(t *testing.T) {
	p := newProcessor(t)
	first := p.Accepts()
	first["text/plain"] = nil
	second := p.Accepts()
	assert.Equal(t, []string{".txt", ".md"}, second["text/plain"])
	assert.Equal(t, second, p.Accepts())
}
