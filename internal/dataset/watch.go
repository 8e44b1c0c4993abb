package dataset

import (
	"context"
	"fmt"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watch reloads a dataset whenever its file is written, created, renamed or
// removed. It blocks until ctx is cancelled. onReload, if non-nil, is called
// after each reload with the dataset name.
func (c *Catalog) Watch(ctx context.Context, onReload func(name string)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(c.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", c.dir, err)
	}
	c.logger.Info("watching data directory", zap.String("dir", c.dir))

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			name, ok := c.nameForFile(event.Name)
			if !ok {
				continue
			}
			c.logger.Info("dataset changed on disk",
				zap.String("dataset", name),
				zap.String("op", event.Op.String()))
			_ = c.Reload(name)
			if onReload != nil {
				onReload(name)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			c.logger.Warn("watcher error", zap.Error(err))
		}
	}
}
