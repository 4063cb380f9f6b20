package settings

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/runegard/runegard/internal/config"
	"github.com/runegard/runegard/internal/logging"
)

const reloadDebounce = 300 * time.Millisecond

// watchConfig reloads the form whenever the config file changes on disk (for
// example after "runegard settings set"). The directory is watched because
// Save replaces the file by rename.
func (s *Surface) watchConfig(path string) (stop func(), err error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, err
	}

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.watchLoop(watcher, filepath.Clean(path), done)
	}()

	return func() {
		close(done)
		watcher.Close()
		wg.Wait()
	}, nil
}

func (s *Surface) watchLoop(watcher *fsnotify.Watcher, path string, done <-chan struct{}) {
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-done:
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(reloadDebounce, func() { s.reload(path) })
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logging.Warn("[settings] config watcher error: %v", err)
		}
	}
}

// reload picks up an external edit. A malformed or missing file keeps the
// current settings.
func (s *Surface) reload(path string) {
	if _, err := os.Stat(path); err != nil {
		return
	}
	cfg, err := config.Load(path)
	if err != nil {
		logging.Warn("[settings] ignoring config change: %v", err)
		return
	}
	s.setConfig(cfg)
	logging.Info("[settings] reloaded %s", path)
}
