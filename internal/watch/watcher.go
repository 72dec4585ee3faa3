// Package watch runs plan files as they are dropped into a directory.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gobwas/glob"

	"github.com/hollis-m/relay/internal/logging"
)

// DefaultSettle is how long a file must be quiet before it is picked up.
// Editors and script writers produce several events for one save; waiting
// out the burst avoids parsing half-written files.
const DefaultSettle = 250 * time.Millisecond

// Runner is invoked for each settled plan file.
type Runner func(ctx context.Context, path string)

// Watcher watches a directory for new or modified plan files and hands
// matching paths to a Runner.
type Watcher struct {
	dir     string
	pattern glob.Glob
	settle  time.Duration
	run     Runner
	logger  *logging.Logger

	mu      sync.Mutex
	pending map[string]*time.Timer
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithLogger wires a structured logger.
func WithLogger(logger *logging.Logger) Option {
	return func(w *Watcher) { w.logger = logger }
}

// WithSettle overrides the settle delay.
func WithSettle(d time.Duration) Option {
	return func(w *Watcher) {
		if d >= 0 {
			w.settle = d
		}
	}
}

// New creates a Watcher for dir. pattern is a glob matched against file
// names, e.g. "*.{json,yaml,yml}".
func New(dir, pattern string, run Runner, opts ...Option) (*Watcher, error) {
	if dir == "" {
		return nil, fmt.Errorf("watch: directory is required")
	}
	if run == nil {
		return nil, fmt.Errorf("watch: runner is required")
	}
	g, err := glob.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("watch: invalid pattern %q: %w", pattern, err)
	}

	w := &Watcher{
		dir:     dir,
		pattern: g,
		settle:  DefaultSettle,
		run:     run,
		pending: make(map[string]*time.Timer),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logging.NopLogger()
	}
	return w, nil
}

// Run watches until ctx is cancelled. Matching files already present in
// the directory are picked up first, then filesystem events take over.
func (w *Watcher) Run(ctx context.Context) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("watch: creating %s: %w", w.dir, err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(w.dir); err != nil {
		return fmt.Errorf("watch: watching %s: %w", w.dir, err)
	}

	if err := w.runExisting(ctx); err != nil {
		return err
	}

	w.logger.Info("watching for plan files", "dir", w.dir)

	for {
		select {
		case <-ctx.Done():
			w.cancelPending()
			return ctx.Err()

		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if !w.matches(ev.Name) {
				continue
			}
			w.schedule(ctx, ev.Name)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", "error", err)
		}
	}
}

// runExisting processes matching files already in the directory.
func (w *Watcher) runExisting(ctx context.Context) error {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return fmt.Errorf("watch: reading %s: %w", w.dir, err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !w.matches(entry.Name()) {
			continue
		}
		w.logger.Info("plan file found", "file", entry.Name())
		w.run(ctx, filepath.Join(w.dir, entry.Name()))
	}
	return nil
}

func (w *Watcher) matches(path string) bool {
	return w.pattern.Match(filepath.Base(path))
}

// schedule arms, or re-arms, the settle timer for path. The runner fires
// once the file has been quiet for the settle window.
func (w *Watcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, ok := w.pending[path]; ok {
		timer.Reset(w.settle)
		return
	}
	w.pending[path] = time.AfterFunc(w.settle, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()

		if ctx.Err() != nil {
			return
		}
		w.logger.Info("plan file settled", "file", filepath.Base(path))
		w.run(ctx, path)
	})
}

func (w *Watcher) cancelPending() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, timer := range w.pending {
		timer.Stop()
		delete(w.pending, path)
	}
}
