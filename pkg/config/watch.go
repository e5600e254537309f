package config

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the global configuration whenever the config file is
// written or replaced, until ctx is cancelled. The directory is watched
// rather than the file so that atomic renames (as done by config management
// tools and Kubernetes ConfigMaps) are picked up. onReload is called after
// every reload attempt with the new config or the error that kept the
// previous one in place.
func Watch(ctx context.Context, onReload func(*Config, error)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	dir := Path()
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	target := filepath.Join(dir, ConfigFileName)

	go func() {
		defer func() { _ = watcher.Close() }()
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
					continue
				}
				err := Reload()
				if onReload != nil {
					onReload(Get(), err)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				if onReload != nil {
					onReload(nil, fmt.Errorf("watcher error: %w", err))
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}
