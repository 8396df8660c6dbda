package adapter

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	m "scadtest.dev/pkg/scadtest/internal/model"
)

// Watcher reports changes to a set of files.
type Watcher interface {
	// Watch blocks until ctx is done, calling onChange once per debounced burst
	// of write/create/rename events on any of the files.
	Watch(ctx context.Context, files []m.Path, onChange func(changed m.Path)) error
}

// FSNotifyWatcher implements Watcher with fsnotify. Directories are watched
// rather than files so editors that replace files on save are still seen.
type FSNotifyWatcher struct {
	debounce time.Duration
}

// NewFSNotifyWatcher constructs a watcher that coalesces events arriving within debounce.
func NewFSNotifyWatcher(debounce time.Duration) *FSNotifyWatcher {
	return &FSNotifyWatcher{debounce: debounce}
}

// Watch implements Watcher.
func (w *FSNotifyWatcher) Watch(ctx context.Context, files []m.Path, onChange func(changed m.Path)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}

	defer func() { _ = watcher.Close() }()

	wanted := make(map[string]bool, len(files))
	dirs := make(map[string]bool)

	for _, f := range files {
		abs, err := filepath.Abs(string(f))
		if err != nil {
			return err
		}

		wanted[abs] = true
		dirs[filepath.Dir(abs)] = true
	}

	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			slog.Error("Failed to watch directory", "dir", dir, "error", err)
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}

	var (
		timer   *time.Timer
		timerC  <-chan time.Time
		pending m.Path
	)

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}

			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			abs, err := filepath.Abs(event.Name)
			if err != nil || !wanted[abs] {
				continue
			}

			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}

			slog.Debug("File changed", "path", abs, "op", event.Op.String())

			pending = m.Path(abs)

			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}

			timerC = timer.C
		case <-timerC:
			timerC = nil

			onChange(pending)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}

			slog.Warn("Watcher error", "error", err)
		}
	}
}
