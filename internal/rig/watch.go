package rig

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"stagelights/internal/logger"
)

// settle is how long the watcher waits for a burst of editor writes to end.
const settle = 150 * time.Millisecond

// Watch calls onChange after path has been written, created or renamed
// into place, until ctx is done. The parent directory is watched so that
// editors replacing the file are noticed.
func Watch(ctx context.Context, log *logger.Log, path string, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("rig watcher: %w", err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		_ = watcher.Close()
		return fmt.Errorf("rig watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("rig watcher: %w", err)
	}

	log = log.Module("rig").With(logger.Fields{"path": abs})
	go func() {
		defer watcher.Close()

		var pending <-chan time.Time
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != abs {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				log.Debugf("rig file event: %s", ev.Op)
				pending = time.After(settle)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Errorf("rig watcher: %v", err)
			case <-pending:
				pending = nil
				onChange()
			}
		}
	}()
	return nil
}

// Reload loads path and swaps it into m. Registration errors are logged,
// the rest of the rig is still applied.
func Reload(m *Manager, log *logger.Log, path string) error {
	fixtures, err := LoadFile(path)
	if err != nil {
		log.Module("rig").Errorf("rig not reloaded: %v", err)
		return err
	}
	errs := m.Replace(fixtures)
	for _, e := range errs {
		log.Module("rig").Warnf("fixture skipped: %v", e)
	}
	log.Module("rig").With(logger.Fields{"fixtures": m.Len(), "skipped": len(errs)}).Info("rig loaded")
	return nil
}
