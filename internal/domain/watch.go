package domain

import (
	"context"
	"fmt"
	"log/slog"

	"scadtest.dev/pkg/scadtest/internal/controller"
	m "scadtest.dev/pkg/scadtest/internal/model"
)

// Watch runs the suite, then reruns it whenever the manifest or a file it
// references changes, until ctx is done.
func (w *workflow) Watch(ctx context.Context, args WatchArgs) error {
	if err := w.ui.Start(ctx, controller.WithWatchMode()); err != nil {
		return err
	}

	defer w.ui.Close(ctx)

	sources := []m.Path{args.Suite}

	for {
		suite, _, err := w.runSuite(ctx, args.RunArgs)
		if suite != nil {
			sources = suite.Sources
		}

		if err != nil {
			w.ui.DisplayText(ctx, err.Error())
		}

		changed, err := w.waitForChange(ctx, sources)
		if err != nil {
			return err
		}

		if changed == "" {
			return nil
		}

		w.ui.DisplayChange(ctx, changed)
	}
}

// waitForChange blocks until one of files changes and returns it, or returns
// an empty path when ctx is done.
func (w *workflow) waitForChange(ctx context.Context, files []m.Path) (m.Path, error) {
	watchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var changed m.Path

	err := w.watcher.Watch(watchCtx, files, func(path m.Path) {
		changed = path

		cancel()
	})
	if err != nil {
		slog.Error("Watch failed", "error", err)
		return "", fmt.Errorf("watch: %w", err)
	}

	return changed, nil
}
