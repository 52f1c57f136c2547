package config

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	pas "github.com/RTMecha/ParallelAnimationSystem"
)

// Watch calls fn with the reloaded file every time path is written or
// replaced, until ctx is done. A file that fails to load is logged and
// skipped; the previous settings stay in effect.
//
// The parent directory is watched rather than the file itself so that
// editors which save by renaming a temporary file are seen.
func Watch(ctx context.Context, path string, fn func(*File)) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("config: watch %s: %w", path, err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("config: watch %s: %w", path, err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("config: watch %s: %w", path, err)
	}

	log := pas.Logger()
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			f, err := Load(abs)
			if err != nil {
				log.Warn("config reload failed", "path", abs, "err", err)
				continue
			}
			log.Info("config reloaded", "path", abs)
			fn(f)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn("config watcher error", "path", abs, "err", err)
		}
	}
}
