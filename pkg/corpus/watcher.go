package corpus

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// WatcherConfig contains configuration for the rulebook watcher.
type WatcherConfig struct {
	// Path is the rulebook file to watch.
	Path string

	// DebounceInterval is the time to wait after a change before
	// triggering a reload, so editors that write in several steps cause
	// one rebuild instead of a storm. Default: 250ms
	DebounceInterval time.Duration
}

// DefaultWatcherConfig returns the default watcher configuration.
func DefaultWatcherConfig(path string) *WatcherConfig {
	return &WatcherConfig{
		Path:             path,
		DebounceInterval: 250 * time.Millisecond,
	}
}

// Watcher watches the rulebook file and invokes a reload callback when it
// changes. The callback typically reloads the rules, rebuilds the Corpus,
// and swaps it in between audit runs; the corpus itself stays immutable.
type Watcher struct {
	watcher *fsnotify.Watcher
	config  *WatcherConfig
	logger  *slog.Logger

	mu      sync.Mutex
	timer   *time.Timer
	running bool
}

// NewWatcher creates a rulebook watcher.
func NewWatcher(config *WatcherConfig) (*Watcher, error) {
	if config == nil || config.Path == "" {
		return nil, fmt.Errorf("watcher requires a rulebook path")
	}
	if config.DebounceInterval <= 0 {
		config.DebounceInterval = DefaultWatcherConfig(config.Path).DebounceInterval
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &Watcher{
		watcher: fsw,
		config:  config,
		logger:  slog.Default().With("component", "corpus.watcher"),
	}, nil
}

// Watch blocks, invoking onReload after each debounced change to the
// rulebook, until the context is cancelled. Reload failures are logged and
// watching continues with the previous corpus still in service.
func (w *Watcher) Watch(ctx context.Context, onReload func() error) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("watcher already running")
	}
	w.running = true
	w.mu.Unlock()

	// Watch the containing directory: editors replace files by rename,
	// which drops a watch on the file itself.
	dir := filepath.Dir(w.config.Path)
	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %q: %w", dir, err)
	}

	w.logger.Info("rulebook watcher started",
		"path", w.config.Path,
		"debounce_ms", w.config.DebounceInterval.Milliseconds(),
	)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("rulebook watcher stopped")
			return w.watcher.Close()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.config.Path) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}

			w.logger.Debug("rulebook change detected", "op", event.Op.String())
			w.trigger(onReload)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			w.logger.Error("rulebook watcher error", "error", err)
		}
	}
}

// trigger debounces reload callbacks.
func (w *Watcher) trigger(onReload func() error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.config.DebounceInterval, func() {
		w.logger.Info("reloading rulebook", "path", w.config.Path)
		if err := onReload(); err != nil {
			w.logger.Error("rulebook reload failed, keeping previous corpus", "error", err)
		}
	})
}
