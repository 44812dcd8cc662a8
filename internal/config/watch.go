package config

import (
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher hot-reloads a narrow set of non-secret tunables (LOG_LEVEL,
// forensic thresholds) from path on write, without a process restart.
// Everything else in Config is fixed at Load time.
type Watcher struct {
	mu       sync.RWMutex
	path     string
	log      *zap.Logger
	logLevel string
	forensic ForensicConfig
}

// NewWatcher starts watching path, seeded from cfg's current values.
func NewWatcher(path string, cfg *Config, log *zap.Logger) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(path); err != nil {
		watcher.Close()
		return nil, err
	}

	w := &Watcher{path: path, log: log, logLevel: cfg.Logging.Level, forensic: cfg.Forensic}
	go w.run(watcher)
	return w, nil
}

func (w *Watcher) run(watcher *fsnotify.Watcher) {
	defer watcher.Close()
	var lastReload time.Time
	for event := range watcher.Events {
		if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
			continue
		}
		if time.Since(lastReload) < debounce {
			continue
		}
		lastReload = time.Now()

		reloaded, err := Load(w.path)
		if err != nil {
			w.log.Warn("config: hot-reload failed, keeping previous values", zap.String("path", w.path), zap.Error(err))
			continue
		}
		w.mu.Lock()
		w.logLevel = reloaded.Logging.Level
		w.forensic = reloaded.Forensic
		w.mu.Unlock()
		w.log.Info("config: hot-reloaded tunables", zap.String("path", w.path), zap.String("log_level", reloaded.Logging.Level))
	}
}

// LogLevel returns the current hot-reloadable log level.
func (w *Watcher) LogLevel() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.logLevel
}

// Forensic returns the current hot-reloadable forensic thresholds.
func (w *Watcher) Forensic() ForensicConfig {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.forensic
}

// debounce is the minimum spacing fsnotify events are allowed before
// triggering another reload, guarding against editors that emit several
// write events per save.
const debounce = 100 * time.Millisecond
