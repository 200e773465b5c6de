package watcher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"pixel-basket/internal/filesystem"
	"pixel-basket/internal/logging"
	"pixel-basket/internal/metrics"
)

// DefaultDebounce is how long the watcher waits for events to settle.
const DefaultDebounce = 2 * time.Second

// Config wires a Watcher to the catalog.
type Config struct {
	// Roots lists the directories to watch. Subdirectories created later
	// are added as they appear.
	Roots func(ctx context.Context) ([]string, error)
	// Flush receives the created or written paths of one debounce window.
	Flush    func(ctx context.Context, paths []string) error
	Debounce time.Duration
}

// Watcher batches filesystem events under basket folders.
type Watcher struct {
	cfg Config
	fs  *fsnotify.Watcher
	log *logging.Logger

	mu      sync.Mutex
	watched map[string]bool
	pending map[string]struct{}
}

// New creates a watcher. Call Sync to register directories and Run to
// process events.
func New(cfg Config) (*Watcher, error) {
	if cfg.Roots == nil || cfg.Flush == nil {
		return nil, errors.New("watcher: Roots and Flush are required")
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	return &Watcher{
		cfg:     cfg,
		fs:      fw,
		log:     logging.With("watcher"),
		watched: make(map[string]bool),
		pending: make(map[string]struct{}),
	}, nil
}

// Sync watches every root not watched yet and returns how many were added.
func (w *Watcher) Sync(ctx context.Context) (int, error) {
	roots, err := w.cfg.Roots(ctx)
	if err != nil {
		return 0, fmt.Errorf("list watch roots: %w", err)
	}
	added := 0
	for _, r := range roots {
		if w.add(r) {
			added++
		}
	}
	return added, nil
}

func (w *Watcher) add(dir string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.watched[dir] {
		return false
	}
	if err := w.fs.Add(dir); err != nil {
		w.log.Warn("Failed to watch %s: %v", dir, err)
		return false
	}
	w.watched[dir] = true
	metrics.WatchedDirectories.Set(float64(len(w.watched)))
	return true
}

// addTree watches dir and its visible subdirectories.
func (w *Watcher) addTree(dir string) {
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			w.log.Debug("Skipping %s: %v", path, err)
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && hidden(path) {
			return filepath.SkipDir
		}
		w.add(path)
		return nil
	})
	if err != nil {
		w.log.Warn("Failed to watch tree %s: %v", dir, err)
	}
}

// Watched returns the number of watched directories.
func (w *Watcher) Watched() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.watched)
}

// Run processes events until ctx is done, then closes the watcher. Paths
// seen during the last debounce window are flushed before returning.
func (w *Watcher) Run(ctx context.Context) error {
	defer func() {
		if err := w.fs.Close(); err != nil {
			w.log.Error("Failed to close file watcher: %v", err)
		}
	}()

	var (
		timer  *time.Timer
		timerC <-chan time.Time
	)
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			w.flush(context.WithoutCancel(ctx))
			return nil

		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if !w.handle(ev) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.cfg.Debounce)
			} else {
				timer.Reset(w.cfg.Debounce)
			}
			timerC = timer.C

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			metrics.WatcherEvents.WithLabelValues("error").Inc()
			w.log.Error("Watcher error: %v", err)

		case <-timerC:
			timerC = nil
			w.flush(ctx)
		}
	}
}

// handle records one event and reports whether it is pending.
func (w *Watcher) handle(ev fsnotify.Event) bool {
	if hidden(ev.Name) {
		return false
	}

	switch {
	case ev.Op&fsnotify.Create != 0:
		metrics.WatcherEvents.WithLabelValues("create").Inc()
		if isDir(ev.Name) {
			w.addTree(ev.Name)
		}
	case ev.Op&fsnotify.Write != 0:
		metrics.WatcherEvents.WithLabelValues("write").Inc()
	case ev.Op&fsnotify.Remove != 0:
		metrics.WatcherEvents.WithLabelValues("remove").Inc()
		w.forget(ev.Name)
		return false
	default:
		return false
	}

	w.mu.Lock()
	w.pending[ev.Name] = struct{}{}
	w.mu.Unlock()
	return true
}

func (w *Watcher) forget(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.pending, path)
	if w.watched[path] {
		// fsnotify drops the watch of a removed directory by itself
		delete(w.watched, path)
		metrics.WatchedDirectories.Set(float64(len(w.watched)))
	}
}

func (w *Watcher) flush(ctx context.Context) {
	w.mu.Lock()
	paths := make([]string, 0, len(w.pending))
	for p := range w.pending {
		paths = append(paths, p)
	}
	clear(w.pending)
	w.mu.Unlock()

	if len(paths) == 0 {
		return
	}
	sort.Strings(paths)
	w.log.Debug("Flushing %d changed paths", len(paths))
	if err := w.cfg.Flush(ctx, paths); err != nil {
		w.log.Error("Failed to ingest %d changed paths: %v", len(paths), err)
	}
}

func hidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}

func isDir(path string) bool {
	info, err := filesystem.StatWithRetry(path, filesystem.DefaultRetryConfig())
	return err == nil && info.IsDir()
}
