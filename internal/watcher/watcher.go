// Package watcher feeds files dropped into the hotdir to the processor.
// Events are coalesced per file name and files are handled one at a time.
package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"

	"document-processor/internal/helper"
	"document-processor/internal/hotdir"
	"document-processor/internal/models"
)

const DefaultSettleDelay = 500 * time.Millisecond

type Processor interface {
	Process(directory, filename string) (models.Result, error)
}

// Handler receives the outcome of every processed file.
type Handler func(models.Result, error)

type Watcher struct {
	dir          string
	proc         Processor
	handler      Handler
	settle       time.Duration
	scanExisting bool
}

type Option func(*Watcher)

func WithHandler(h Handler) Option {
	return func(w *Watcher) {
		w.handler = h
	}
}

// WithSettleDelay sets how long a file must stay quiet before it is processed.
func WithSettleDelay(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.settle = d
		}
	}
}

// WithScanExisting queues files already present when Run starts.
func WithScanExisting(scan bool) Option {
	return func(w *Watcher) {
		w.scanExisting = scan
	}
}

func New(dir string, proc Processor, opts ...Option) *Watcher {
	w := &Watcher{
		dir:     dir,
		proc:    proc,
		handler: func(models.Result, error) {},
		settle:  DefaultSettleDelay,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run blocks until ctx is done or the underlying watcher fails.
func (w *Watcher) Run(ctx context.Context) error {
	if err := helper.CreateFolder(w.dir); err != nil {
		return err
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}
	log.Info().Str("dir", w.dir).Dur("settle", w.settle).Msg("watching hotdir")

	pending := make(map[string]time.Time)
	if w.scanExisting {
		entries, err := os.ReadDir(w.dir)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", w.dir, err)
		}
		now := time.Now()
		for _, e := range entries {
			if e.Type().IsRegular() && !ignored(e.Name()) {
				pending[e.Name()] = now
			}
		}
	}

	timer := time.NewTimer(0)
	if len(pending) == 0 {
		timer.Stop()
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			name := filepath.Base(ev.Name)
			if filepath.Clean(filepath.Dir(ev.Name)) != filepath.Clean(w.dir) || ignored(name) {
				continue
			}
			switch {
			case ev.Has(fsnotify.Create), ev.Has(fsnotify.Write):
				pending[name] = time.Now().Add(w.settle)
			case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
				delete(pending, name)
			default:
				continue
			}
			w.reschedule(timer, pending)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Str("dir", w.dir).Msg("watcher error")

		case <-timer.C:
			for _, name := range due(pending, time.Now()) {
				delete(pending, name)
				w.handle(name)
			}
			w.reschedule(timer, pending)
		}
	}
}

func (w *Watcher) handle(name string) {
	info, err := os.Stat(filepath.Join(w.dir, name))
	if err != nil || !info.Mode().IsRegular() {
		return
	}
	log.Debug().Str("file", name).Msg("settled")
	result, err := w.proc.Process(w.dir, name)
	w.handler(result, err)
}

func (w *Watcher) reschedule(timer *time.Timer, pending map[string]time.Time) {
	timer.Stop()
	if len(pending) == 0 {
		return
	}
	var next time.Time
	for _, at := range pending {
		if next.IsZero() || at.Before(next) {
			next = at
		}
	}
	timer.Reset(time.Until(next))
}

// due returns the settled names in lexical order.
func due(pending map[string]time.Time, now time.Time) []string {
	var names []string
	for name, at := range pending {
		if !at.After(now) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

func ignored(name string) bool {
	return name == hotdir.ProcessedDir || name == hotdir.FailedDir || strings.HasPrefix(name, ".")
}
