package config

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher reloads the dynamic configuration whenever its file changes.
// A reload that fails to parse or validate keeps the current config.
type Watcher struct {
	path     string
	watcher  *fsnotify.Watcher
	current  *DynamicConfig
	mu       sync.RWMutex
	onChange []func(*DynamicConfig)
	logger   *zap.Logger
	stopCh   chan struct{}
}

// NewWatcher loads the file once and prepares a watcher on it. The
// parent directory is watched too, so atomic save-and-rename edits are
// picked up.
func NewWatcher(path string, logger *zap.Logger) (*Watcher, error) {
	cfg, err := loadDynamicFromFile(path)
	if err != nil {
		return nil, err
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(path); err != nil {
		fw.Close()
		return nil, err
	}
	if err := fw.Add(filepath.Dir(path)); err != nil {
		logger.Warn("failed to watch config directory", zap.Error(err))
	}

	return &Watcher{
		path:    path,
		watcher: fw,
		current: cfg,
		logger:  logger,
		stopCh:  make(chan struct{}),
	}, nil
}

var _ Limiter = (*Watcher)(nil)

// Current returns the active dynamic configuration.
func (w *Watcher) Current() *DynamicConfig {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// OnChange registers a handler invoked after every successful reload.
func (w *Watcher) OnChange(handler func(*DynamicConfig)) {
	w.onChange = append(w.onChange, handler)
}

// Start begins watching for file changes.
func (w *Watcher) Start() {
	go w.watchLoop()
	w.logger.Info("configuration watcher started", zap.String("path", w.path))
}

// Stop stops watching.
func (w *Watcher) Stop() {
	close(w.stopCh)
	w.watcher.Close()
}

func (w *Watcher) watchLoop() {
	// Editors fire several events per save; debounce into one reload.
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
			w.logger.Error("config watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := loadDynamicFromFile(w.path)
	if err != nil {
		w.logger.Error("failed to reload dynamic config, keeping current", zap.Error(err))
		return
	}

	w.mu.Lock()
	w.current = cfg
	w.mu.Unlock()

	for _, handler := range w.onChange {
		go handler(cfg)
	}
	w.logger.Info("dynamic config reloaded",
		zap.String("version", cfg.Metadata.Version))
}
