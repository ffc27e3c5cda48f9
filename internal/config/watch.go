package config

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/nguyentantai21042004/meeting-flow/internal/logger"
)

// Watcher reloads the config file when it changes on disk and hands every
// valid new version to a callback. Invalid edits are logged and skipped, the
// previous config stays active.
type Watcher struct {
	path    string
	logger  logger.Logger
	onLoad  func(*Config)
	watcher *fsnotify.Watcher
}

// NewWatcher creates a Watcher for the given config file. The parent
// directory is watched rather than the file itself, because most editors
// replace the file on save.
func NewWatcher(path string, log logger.Logger, onLoad func(*Config)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	if err := fw.Add(filepath.Dir(path)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("add watch path: %w", err)
	}

	return &Watcher{
		path:    path,
		logger:  log,
		onLoad:  onLoad,
		watcher: fw,
	}, nil
}

// Start blocks processing file events until ctx is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	w.logger.Info(ctx, "Config watcher started: %s", w.path)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info(ctx, "Config watcher stopped")
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			cfg, err := Load(w.path)
			if err != nil {
				w.logger.Warn(ctx, "Config reload skipped: %v", err)
				continue
			}
			w.logger.Info(ctx, "Config reloaded: %s", w.path)
			w.onLoad(cfg)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			w.logger.Error(ctx, "Watcher error: %v", err)
		}
	}
}

// Stop closes the underlying file watcher.
func (w *Watcher) Stop() error {
	return w.watcher.Close()
}
