package config

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/cadence-music/cadence/internal/logger"
	"github.com/cadence-music/cadence/internal/structures"
)

// Watch reloads the config whenever the file changes and hands the result to
// onChange. It returns a stop function.
func Watch(path string, onChange func(*structures.Config)) (stop func(), err error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	// Watch the directory: watching the file itself breaks on atomic saves.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, err
	}

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Name != path {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				cfg, err := Load(path)
				if err != nil {
					logger.Warn("Config reload failed: %v", err)
					continue
				}
				logger.Info("Config reloaded from %s", path)
				onChange(cfg)

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("Config watcher error: %v", err)
			}
		}
	}()

	return func() { watcher.Close() }, nil
}
