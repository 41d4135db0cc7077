package filestore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the watcher waits for a burst of file events
// to settle before checking the content.
const DefaultDebounce = 200 * time.Millisecond

// Deliverer receives change signals for writes made by other processes.
type Deliverer interface {
	Deliver()
}

// Watcher signals a Deliverer when the slot file changes on disk with
// content this process did not write itself.
type Watcher struct {
	slot     *Slot
	target   Deliverer
	debounce time.Duration
	watcher  *fsnotify.Watcher
	logger   *slog.Logger

	pendingMu sync.Mutex
	pending   bool
}

// NewWatcher watches the directory holding slot's file. The directory is
// watched rather than the file so atomic renames are observed.
func NewWatcher(slot *Slot, target Deliverer, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	dir := filepath.Dir(slot.Path())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create %s: %w", dir, err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}

	return &Watcher{
		slot:     slot,
		target:   target,
		debounce: DefaultDebounce,
		watcher:  fsw,
		logger:   logger,
	}, nil
}

// SetDebounce overrides DefaultDebounce. Call before Run.
func (w *Watcher) SetDebounce(d time.Duration) {
	if d > 0 {
		w.debounce = d
	}
}

// Run processes file events until ctx is done or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.debounce)
	defer ticker.Stop()

	w.logger.Info("slot file watcher started", "path", w.slot.Path())
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.slot.Path()) {
				continue
			}
			if event.Has(fsnotify.Create) || event.Has(fsnotify.Write) || event.Has(fsnotify.Rename) {
				w.pendingMu.Lock()
				w.pending = true
				w.pendingMu.Unlock()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("slot file watcher error", "error", err)

		case <-ticker.C:
			w.flush()
		}
	}
}

func (w *Watcher) flush() {
	w.pendingMu.Lock()
	pending := w.pending
	w.pending = false
	w.pendingMu.Unlock()
	if !pending {
		return
	}

	data, err := os.ReadFile(w.slot.Path())
	if errors.Is(err, fs.ErrNotExist) {
		return
	}
	if err != nil {
		w.logger.Warn("slot file unreadable after change", "path", w.slot.Path(), "error", err)
		return
	}
	if w.slot.seen(data) {
		return
	}

	w.logger.Debug("slot file changed externally", "path", w.slot.Path())
	w.target.Deliver()
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}
