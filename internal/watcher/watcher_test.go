package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"document-processor/internal/hotdir"
	"document-processor/internal/models"
	"document-processor/internal/processor"
	"document-processor/internal/tokenizer"
)

type collector struct {
	mu      sync.Mutex
	results []models.Result
}

func (c *collector) handle(r models.Result, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err == nil {
		c.results = append(c.results, r)
	}
}

func (c *collector) snapshot() []models.Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.Result(nil), c.results...)
}

func start(t *testing.T, dir string, opts ...Option) *collector {
	t.Helper()
	tok, err := tokenizer.New()
	require.NoError(t, err)

	c := &collector{}
	opts = append([]Option{WithHandler(c.handle), WithSettleDelay(50 * time.Millisecond)}, opts...)
	w := New(dir, processor.New(tok), opts...)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		assert.NoError(t, <-done)
	})
	return c
}

func TestWatcher_ProcessesNewFiles(t *testing.T) {
	dir := t.TempDir()
	c := start(t, dir)

	// let the watch register before writing
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("Hello\nWorld"), 0o644))

	require.Eventually(t, func() bool {
		return len(c.snapshot()) == 1
	}, 5*time.Second, 20*time.Millisecond)

	got := c.snapshot()[0]
	assert.True(t, got.Success)
	assert.Equal(t, "notes.txt", got.Filename)
	assert.FileExists(t, filepath.Join(dir, hotdir.ProcessedDir, "notes.txt"))
	assert.NoFileExists(t, filepath.Join(dir, "notes.txt"))
}

func TestWatcher_ScanExisting(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("first"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.md"), []byte("# Second"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".hidden.txt"), []byte("skip"), 0o644))

	c := start(t, dir, WithScanExisting(true))

	require.Eventually(t, func() bool {
		return len(c.snapshot()) == 2
	}, 5*time.Second, 20*time.Millisecond)

	got := c.snapshot()
	assert.Equal(t, "a.txt", got[0].Filename)
	assert.Equal(t, "b.md", got[1].Filename)
	assert.FileExists(t, filepath.Join(dir, ".hidden.txt"))
}

func TestWatcher_FailedFilesReported(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "empty.txt"), nil, 0o644))

	c := start(t, dir, WithScanExisting(true))

	require.Eventually(t, func() bool {
		return len(c.snapshot()) == 1
	}, 5*time.Second, 20*time.Millisecond)

	got := c.snapshot()[0]
	assert.False(t, got.Success)
	require.NotNil(t, got.Reason)
	assert.FileExists(t, filepath.Join(dir, hotdir.FailedDir, "empty.txt"))
}

func TestDue(t *testing.T) {
	now := time.Now()
	pending := map[string]time.Time{
		"c.txt": now.Add(-time.Second),
		"a.txt": now,
		"b.txt": now.Add(time.Second),
	}
	assert.Equal(t, []string{"a.txt", "c.txt"}, due(pending, now))
}

func TestIgnored(t *testing.T) {
	assert.True(t, ignored(hotdir.ProcessedDir))
	assert.True(t, ignored(hotdir.FailedDir))
	assert.True(t, ignored(".swp"))
	assert.False(t, ignored("report.pdf"))
}
