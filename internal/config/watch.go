package config

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce collapses the burst of events a single save produces.
const DefaultDebounce = 200 * time.Millisecond

// Watch reloads the file at path whenever it changes and passes every config
// that loads and validates to onReload. Invalid configs are logged and skipped.
// The watcher stops when ctx is canceled.
func Watch(ctx context.Context, path string, logger *slog.Logger, onReload func(*Config)) error {
	return watch(ctx, path, DefaultDebounce, logger, onReload)
}

func watch(ctx context.Context, path string, debounce time.Duration, logger *slog.Logger, onReload func(*Config)) error {
	if logger == nil {
		logger = slog.Default().WithGroup("config.Watch")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	// Editors often save through a rename, so the directory is watched.
	dir, file := filepath.Split(filepath.Clean(path))
	if dir == "" {
		dir = "."
	}
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return err
	}

	var (
		timer *time.Timer
		mu    sync.Mutex
	)
	trigger := func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(debounce, func() {
			if ctx.Err() != nil {
				return
			}
			cfg, err := Load(path)
			if err != nil {
				logger.Error("Failed to reload config", "path", path, "error", err)
				return
			}
			logger.Info("Config reloaded", "path", path, "uploads", len(cfg.Uploads))
			onReload(cfg)
		})
	}

	go func() {
		logger.Debug("Config watcher started", "path", path)
		defer func() {
			_ = watcher.Close()
			mu.Lock()
			if timer != nil {
				timer.Stop()
			}
			mu.Unlock()
			logger.Debug("Config watcher stopped", "path", path)
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Base(ev.Name) != file {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
					trigger()
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("Config watcher error", "error", err)
			}
		}
	}()

	return nil
}
