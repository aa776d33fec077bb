// Hot reloading of cache tunables in development. Watches the overlay
// file and re-applies TTLs without a restart.
package config

import (
	"fmt"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher watches the YAML overlay for changes and notifies subscribers
// with the reloaded configuration. Only cache TTLs are expected to change
// at runtime; anything else still requires a restart.
type Watcher struct {
	path      string
	config    *Config
	callbacks []func(*Config)
	mu        sync.RWMutex
	logger    *zap.Logger
	watcher   *fsnotify.Watcher
	stopCh    chan struct{}
}

// NewWatcher starts watching path. The initial config is served until the
// first successful reload.
func NewWatcher(path string, initial *Config, logger *zap.Logger) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}
	if err := fsWatcher.Add(path); err != nil {
		fsWatcher.Close()
		return nil, fmt.Errorf("watch %s: %w", path, err)
	}

	w := &Watcher{
		path:    path,
		config:  initial,
		logger:  logger,
		watcher: fsWatcher,
		stopCh:  make(chan struct{}),
	}
	go w.watchLoop()

	logger.Info("configuration hot reloading enabled", zap.String("file", path))
	return w, nil
}

// OnReload registers a callback invoked with each successfully reloaded
// configuration.
func (w *Watcher) OnReload(fn func(*Config)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, fn)
}

// Current returns the most recently loaded configuration.
func (w *Watcher) Current() *Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.config
}

// Stop terminates the watch loop.
func (w *Watcher) Stop() {
	close(w.stopCh)
	w.watcher.Close()
}

func (w *Watcher) watchLoop() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				w.reload()
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("config watcher error", zap.Error(err))
		case <-w.stopCh:
			return
		}
	}
}

func (w *Watcher) reload() {
	fresh, err := Load()
	if err != nil {
		w.logger.Warn("config reload failed, keeping previous configuration",
			zap.String("file", w.path),
			zap.Error(err),
		)
		return
	}

	w.mu.Lock()
	w.config = fresh
	callbacks := append([]func(*Config){}, w.callbacks...)
	w.mu.Unlock()

	w.logger.Info("configuration reloaded",
		zap.Duration("product_ttl", fresh.Cache.ProductTTL),
		zap.Duration("search_ttl", fresh.Cache.SearchTTL),
	)
	for _, fn := range callbacks {
		fn(fresh)
	}
}
