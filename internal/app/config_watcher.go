package app

import (
	"context"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const reloadDebounce = 300 * time.Millisecond

// configWatcher calls onChange once a burst of writes to the config file
// settles. The parent directory is watched so editors that replace the
// file on save are still seen.
type configWatcher struct {
	path     string
	onChange func()

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	cancel  context.CancelFunc
	timer   *time.Timer
}

func newConfigWatcher(path string, onChange func()) *configWatcher {
	return &configWatcher{path: path, onChange: onChange}
}

// Start begins watching. Failures are logged; the app keeps running on the
// config it already has.
func (w *configWatcher) Start(ctx context.Context) {
	absPath, err := filepath.Abs(w.path)
	if err != nil {
		log.Printf("config watcher: bad path %q: %v", w.path, err)
		return
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Printf("config watcher: failed to create watcher: %v", err)
		return
	}
	if err := watcher.Add(filepath.Dir(absPath)); err != nil {
		log.Printf("config watcher: failed to watch dir %q: %v", filepath.Dir(absPath), err)
		watcher.Close()
		return
	}

	watchCtx, cancel := context.WithCancel(ctx)
	w.mu.Lock()
	w.watcher = watcher
	w.cancel = cancel
	w.mu.Unlock()

	go func() {
		for {
			select {
			case <-watchCtx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				if name, _ := filepath.Abs(event.Name); name != absPath {
					continue
				}
				w.schedule()
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Printf("config watcher: error: %v", err)
			}
		}
	}()

	log.Printf("config watcher: watching %s", absPath)
}

func (w *configWatcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(reloadDebounce, w.onChange)
}

// Stop tears the watcher down. A pending reload is dropped.
func (w *configWatcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cancel != nil {
		w.cancel()
		w.cancel = nil
	}
	if w.watcher != nil {
		w.watcher.Close()
		w.watcher = nil
	}
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
}
