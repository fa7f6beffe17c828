package store

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const (
	// debounceWindow coalesces event bursts (editors write several times,
	// atomic renames fire create+rename pairs) into one reload.
	debounceWindow = 500 * time.Millisecond
	sweepInterval  = 100 * time.Millisecond
)

// Watcher reloads persisted state when the data files change on disk behind
// the service's back. It watches the containing directories rather than the
// files themselves, so atomic rename-replace writes keep being seen.
type Watcher struct {
	log      *zap.Logger
	fsw      *fsnotify.Watcher
	files    map[string]bool
	onReload func()

	mu      sync.Mutex
	pending map[string]time.Time

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewWatcher prepares a watcher over the given files. onReload runs on the
// watcher goroutine after changes settle; keep it fast.
func NewWatcher(files []string, onReload func(), log *zap.Logger) (*Watcher, error) {
	if log == nil {
		log = zap.NewNop()
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	w := &Watcher{
		log:      log,
		fsw:      fsw,
		files:    make(map[string]bool, len(files)),
		onReload: onReload,
		pending:  make(map[string]time.Time),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	dirs := make(map[string]bool)
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			fsw.Close()
			return nil, fmt.Errorf("resolve %s: %w", f, err)
		}
		w.files[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := fsw.Add(dir); err != nil {
			fsw.Close()
			return nil, fmt.Errorf("watch %s: %w", dir, err)
		}
	}
	return w, nil
}

// Start begins watching on a background goroutine.
func (w *Watcher) Start() {
	go w.loop()
}

// Stop ends the watch and waits for the goroutine to exit.
func (w *Watcher) Stop() {
	close(w.stopCh)
	<-w.doneCh
	w.fsw.Close()
}

func (w *Watcher) loop() {
	defer close(w.doneCh)
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			abs, err := filepath.Abs(ev.Name)
			if err != nil || !w.files[abs] {
				continue
			}
			w.mu.Lock()
			w.pending[abs] = time.Now()
			w.mu.Unlock()
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Warn("watch error", zap.Error(err))
		case <-ticker.C:
			w.sweep()
		}
	}
}

// sweep fires the reload callback once for every batch of changes older
// than the debounce window.
func (w *Watcher) sweep() {
	now := time.Now()
	fire := false
	w.mu.Lock()
	for path, t := range w.pending {
		if now.Sub(t) >= debounceWindow {
			delete(w.pending, path)
			fire = true
		}
	}
	w.mu.Unlock()
	if fire {
		w.log.Info("data files changed on disk, reloading")
		w.onReload()
	}
}
