package props

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/mobile-next/gestures/utils"
)

const defaultDebounce = 100 * time.Millisecond

// ReloadFunc receives the decoded contents of the watched file every time
// it changes.
type ReloadFunc func(values map[string]interface{})

// Watcher re-reads a property override file whenever it is written.
type Watcher struct {
	path     string
	debounce time.Duration
	onReload ReloadFunc
	watcher  *fsnotify.Watcher
	ctx      context.Context
	cancel   context.CancelFunc
	errChan  chan error
	mu       sync.Mutex
	timer    *time.Timer
}

// NewWatcher creates a watcher for path. Call Start to begin watching.
func NewWatcher(path string, onReload ReloadFunc) *Watcher {
	ctx, cancel := context.WithCancel(context.Background())
	return &Watcher{
		path:     path,
		debounce: defaultDebounce,
		onReload: onReload,
		ctx:      ctx,
		cancel:   cancel,
		errChan:  make(chan error, 1),
	}
}

// WatchRegistry is a convenience that applies every reload to reg.
func WatchRegistry(reg *Registry, path string) *Watcher {
	return NewWatcher(path, func(values map[string]interface{}) {
		if _, err := Apply(reg, values); err != nil {
			utils.Warn("failed to apply %s: %v", path, err)
		}
	})
}

// SetDebounce changes the quiet period between the last write and the
// reload. Must be called before Start.
func (w *Watcher) SetDebounce(d time.Duration) {
	w.debounce = d
}

// Start begins watching. The parent directory is watched so that a file
// replaced by rename is picked up too.
func (w *Watcher) Start() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}

	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		watcher.Close()
		return fmt.Errorf("watch directory: %w", err)
	}
	w.watcher = watcher

	go w.loop()
	return nil
}

func (w *Watcher) loop() {
	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filepath.Base(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			w.mu.Lock()
			if w.timer != nil {
				w.timer.Stop()
			}
			w.timer = time.AfterFunc(w.debounce, w.reload)
			w.mu.Unlock()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.report(err)
		}
	}
}

func (w *Watcher) reload() {
	if w.ctx.Err() != nil {
		return
	}

	data, err := os.ReadFile(w.path)
	if err != nil {
		w.report(err)
		return
	}

	values, err := Decode(filepath.Ext(w.path), data)
	if err != nil {
		w.report(fmt.Errorf("reload %s: %w", w.path, err))
		return
	}

	utils.Verbose("reloaded property file %s (%d values)", w.path, len(values))
	w.onReload(values)
}

func (w *Watcher) report(err error) {
	select {
	case w.errChan <- err:
	default:
		utils.Warn("property watcher: %v", err)
	}
}

// Errors returns watch and reload failures. Errors are dropped (and logged)
// when nobody reads them.
func (w *Watcher) Errors() <-chan error {
	return w.errChan
}

// Done is closed once the watcher has been closed
func (w *Watcher) Done() <-chan struct{} {
	return w.ctx.Done()
}

// Close stops watching.
func (w *Watcher) Close() error {
	w.cancel()

	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()

	if w.watcher != nil {
		return w.watcher.Close()
	}
	return nil
}
