// Package configwatch reports changes to configuration files.
package configwatch

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bft-labs/caseledger/internal/adapters/log"
	"github.com/bft-labs/caseledger/internal/ports"
)

// DefaultDebounce coalesces the burst of events an editor save produces.
const DefaultDebounce = 100 * time.Millisecond

// Watcher monitors a set of files via fsnotify and calls OnChange once per
// burst of writes.
type Watcher struct {
	paths    map[string]bool
	dirs     []string
	onChange func(path string)
	delay    time.Duration
	logger   ports.Logger

	mu       sync.Mutex
	debounce *time.Timer
}

// New creates a watcher for paths. Empty paths are ignored.
func New(onChange func(path string), logger ports.Logger, paths ...string) *Watcher {
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	w := &Watcher{
		paths:    make(map[string]bool),
		onChange: onChange,
		delay:    DefaultDebounce,
		logger:   logger,
	}
	seen := make(map[string]bool)
	for _, p := range paths {
		if p == "" {
			continue
		}
		p = filepath.Clean(p)
		w.paths[p] = true
		// Watch the directory so atomic rename-on-save is seen.
		dir := filepath.Dir(p)
		if !seen[dir] {
			seen[dir] = true
			w.dirs = append(w.dirs, dir)
		}
	}
	return w
}

// SetDebounce overrides the debounce delay.
func (w *Watcher) SetDebounce(d time.Duration) {
	w.delay = d
}

// Run watches until ctx is done. It returns immediately when no paths were given.
func (w *Watcher) Run(ctx context.Context) error {
	if len(w.paths) == 0 {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	for _, dir := range w.dirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}
	defer w.stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !w.paths[filepath.Clean(event.Name)] {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.schedule(event.Name)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("config watcher error", ports.Err(err))
		}
	}
}

func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.debounce != nil {
		w.debounce.Stop()
	}
	w.debounce = time.AfterFunc(w.delay, func() {
		w.logger.Info("configuration changed", ports.String("path", path))
		w.onChange(path)
	})
}

func (w *Watcher) stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.debounce != nil {
		w.debounce.Stop()
	}
}
