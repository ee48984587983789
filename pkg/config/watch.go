package config

import (
	"context"
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watch watches path (the same JSON file LoadConfig reads) for changes and
// calls onReload with the freshly reloaded, validated Config each time it is
// written, debounced the way the teacher's file_watcher.go debounces rapid
// fsnotify events on one path. onReload receives a non-nil error instead of a
// config if the reload fails validation or parsing; the previously loaded
// Config is left in place by the caller in that case. Watch returns once the
// watcher is set up; the caller must cancel ctx to stop it.
func Watch(ctx context.Context, path string, onReload func(*Config, error)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("config: create watcher: %w", err)
	}
	if err := watcher.Add(path); err != nil {
		watcher.Close()
		return fmt.Errorf("config: watch %s: %w", path, err)
	}

	go watchLoop(ctx, watcher, path, onReload)
	return nil
}

func watchLoop(ctx context.Context, watcher *fsnotify.Watcher, path string, onReload func(*Config, error)) {
	defer watcher.Close()

	var debounce *time.Timer
	reload := func() {
		cfg, err := LoadConfig(path)
		onReload(cfg, err)
	}

	for {
		select {
		case <-ctx.Done():
			if debounce != nil {
				debounce.Stop()
			}
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(100*time.Millisecond, reload)

		case _, ok := <-watcher.Errors:
			if !ok {
				return
			}
		}
	}
}
