package config

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"wayfinder-backend/application/services"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher hot-reloads the routing YAML. On a valid change it hands the new
// defaults to its listeners (the navigation service registers one); an
// invalid file keeps the current defaults and logs the error.
type Watcher struct {
	path    string
	watcher *fsnotify.Watcher
	logger  *zap.Logger
	stopCh  chan struct{}

	mu       sync.RWMutex
	current  services.RoutingDefaults
	onChange []func(services.RoutingDefaults)
}

// NewWatcher loads the routing file at path and starts watching it. The
// directory is watched too, so editors that save via rename still trigger
// a reload.
func NewWatcher(path string, logger *zap.Logger) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	current, err := LoadRoutingDefaults(path)
	if err != nil {
		return nil, fmt.Errorf("load initial routing config: %w", err)
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}
	if err := fsWatcher.Add(path); err != nil {
		fsWatcher.Close()
		return nil, fmt.Errorf("watch routing config: %w", err)
	}
	if err := fsWatcher.Add(filepath.Dir(path)); err != nil {
		logger.Warn("failed to watch routing config directory", zap.Error(err))
	}

	return &Watcher{
		path:    path,
		watcher: fsWatcher,
		logger:  logger,
		stopCh:  make(chan struct{}),
		current: current,
	}, nil
}

// Start begins watching for changes.
func (w *Watcher) Start() {
	go w.watchLoop()
	w.logger.Info("routing config watcher started", zap.String("path", w.path))
}

// Stop stops the watcher.
func (w *Watcher) Stop() {
	close(w.stopCh)
	w.watcher.Close()
}

// Current returns the routing defaults as of the last successful load.
func (w *Watcher) Current() services.RoutingDefaults {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// OnChange registers a callback invoked after each successful reload.
func (w *Watcher) OnChange(handler func(services.RoutingDefaults)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = append(w.onChange, handler)
}

func (w *Watcher) watchLoop() {
	// Debounce so an editor's write burst reloads once.
	var debounce *time.Timer
	const debounceDelay = 100 * time.Millisecond

	for {
		select {
		case <-w.stopCh:
			if debounce != nil {
				debounce.Stop()
			}
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filepath.Base(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				if debounce != nil {
					debounce.Stop()
				}
				debounce = time.AfterFunc(debounceDelay, w.reload)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("routing config watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) reload() {
	defaults, err := LoadRoutingDefaults(w.path)
	if err != nil {
		w.logger.Error("routing config reload failed, keeping current",
			zap.String("path", w.path),
			zap.Error(err),
		)
		return
	}

	w.mu.Lock()
	w.current = defaults
	handlers := append(([]func(services.RoutingDefaults))(nil), w.onChange...)
	w.mu.Unlock()

	for _, handler := range handlers {
		go handler(defaults)
	}

	w.logger.Info("routing config reloaded",
		zap.String("path", w.path),
		zap.Any("policyOrder", defaults.Router.PolicyOrder),
	)
}
