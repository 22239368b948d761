package session

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"subgrab/internal/logging"
)

// WatchFile calls onChange whenever the file at path is written, created,
// renamed, or removed. The parent directory is watched so replacements by
// rename are seen. It blocks until ctx ends.
func WatchFile(ctx context.Context, path string, onChange func(), logger *slog.Logger) error {
	logger = logging.NewComponentLogger(logger, "session")
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve watch path: %w", err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}
	defer w.Close()

	if err := w.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}
	logger.Debug("watching page snapshot", logging.String("page_path", abs))

	const relevant = fsnotify.Write | fsnotify.Create | fsnotify.Rename | fsnotify.Remove
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs || ev.Op&relevant == 0 {
				continue
			}
			onChange()
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logging.WarnWithContext(logger, "page watcher error", "watcher",
				logging.String(logging.FieldErrorHint, "check the page snapshot directory"),
				logging.String(logging.FieldImpact, "item changes are picked up on the next poll"),
				logging.Error(err),
			)
		}
	}
}
