package checklist

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const defaultDebounce = 300 * time.Millisecond

// Watcher reloads a Table whenever its override file changes on disk.
// The parent directory is watched so that editors which write via rename
// are picked up.
type Watcher struct {
	path     string
	table    *Table
	debounce time.Duration
	onReload func(error)

	mu    sync.Mutex
	timer *time.Timer
}

// NewWatcher creates a watcher for path feeding table. onReload, if set, is
// called after every reload attempt with its result.
func NewWatcher(path string, table *Table, onReload func(error)) *Watcher {
	return &Watcher{
		path:     filepath.Clean(path),
		table:    table,
		debounce: defaultDebounce,
		onReload: onReload,
	}
}

// Run blocks until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		return err
	}
	slog.Info("watching checklist override", "path", w.path)

	for {
		select {
		case <-ctx.Done():
			w.mu.Lock()
			if w.timer != nil {
				w.timer.Stop()
			}
			w.mu.Unlock()
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write) || ev.Has(fsnotify.Rename) {
				w.schedule()
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			slog.Warn("checklist watcher error", "error", err)
		}
	}
}

func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.reload)
}

func (w *Watcher) reload() {
	raw, err := os.ReadFile(w.path)
	if err == nil {
		err = w.table.Replace(raw)
	}
	if err != nil {
		slog.Warn("checklist reload failed, keeping previous table", "path", w.path, "error", err)
	} else {
		slog.Info("checklist reloaded", "path", w.path)
	}
	if w.onReload != nil {
		w.onReload(err)
	}
}
