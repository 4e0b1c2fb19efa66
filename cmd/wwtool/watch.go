package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/Faultbox/wwcull/internal/logger"
)

// watchFile calls rebuild each time path is written or replaced, until ctx
// is done. Events closer together than debounce collapse into one call.
// Rebuild errors are logged and do not stop the watch.
func watchFile(ctx context.Context, path string, debounce time.Duration, rebuild func() error) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer w.Close()

	// Editors often save by renaming a temp file over the target, which
	// drops a watch on the file itself.
	target := filepath.Clean(path)
	if err := w.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watching %s: %w", path, err)
	}

	log := logger.Named("watch")
	log.Info("watching", zap.String("path", target))

	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			fire = time.After(debounce)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn("watch error", zap.Error(err))
		case <-fire:
			fire = nil
			if err := rebuild(); err != nil {
				log.Error("rebuild failed", zap.String("path", target), zap.Error(err))
			}
		}
	}
}
