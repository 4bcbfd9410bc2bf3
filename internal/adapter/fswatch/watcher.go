// Package fswatch re-indexes prompt files edited outside the server.
package fswatch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Sink receives one call per settled file change.
type Sink interface {
	RefreshFile(ctx context.Context, path string) error
}

const (
	defaultDebounce = 300 * time.Millisecond
	tickInterval    = 100 * time.Millisecond
)

// Watcher watches prompt directories recursively. Bursts of events on one
// path (editors often write, chmod and rename in quick succession) collapse
// into a single RefreshFile call once the path has been quiet for the
// debounce interval.
type Watcher struct {
	watcher  *fsnotify.Watcher
	sink     Sink
	ext      string
	debounce time.Duration

	mu      sync.Mutex
	pending map[string]time.Time
}

type Option func(*Watcher)

// WithDebounce overrides the quiet period before a change is delivered.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

func New(sink Sink, ext string, opts ...Option) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	w := &Watcher{
		watcher:  fw,
		sink:     sink,
		ext:      ext,
		debounce: defaultDebounce,
		pending:  make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Add watches dir and every non-hidden directory below it.
func (w *Watcher) Add(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

// Run delivers changes until ctx is cancelled, then closes the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handle(ctx, ev)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			slog.ErrorContext(ctx, "file watcher error", "error", err)

		case now := <-ticker.C:
			w.flush(ctx, now)
		}
	}
}

func (w *Watcher) handle(ctx context.Context, ev fsnotify.Event) {
	if ev.Op&fsnotify.Create != 0 && w.isDir(ev.Name) {
		if err := w.Add(ev.Name); err != nil {
			slog.WarnContext(ctx, "watch new directory failed", "path", ev.Name, "error", err)
		}
		return
	}
	if !strings.HasSuffix(ev.Name, w.ext) || strings.HasPrefix(filepath.Base(ev.Name), ".") {
		return
	}
	if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}

	w.mu.Lock()
	w.pending[ev.Name] = time.Now()
	w.mu.Unlock()
}

func (w *Watcher) flush(ctx context.Context, now time.Time) {
	var ready []string
	w.mu.Lock()
	for path, last := range w.pending {
		if now.Sub(last) >= w.debounce {
			ready = append(ready, path)
			delete(w.pending, path)
		}
	}
	w.mu.Unlock()

	for _, path := range ready {
		if err := w.sink.RefreshFile(ctx, path); err != nil {
			slog.WarnContext(ctx, "refresh prompt file failed", "path", path, "error", err)
		}
	}
}

func (w *Watcher) isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
