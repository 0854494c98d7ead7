package config

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// ChangeKind tells listeners which watched file changed
type ChangeKind string

const (
	ConfigChanged ChangeKind = "config"
	PapersChanged ChangeKind = "papers"
)

// ChangeEvent is delivered to OnChange handlers after a debounced change.
// Config is the configuration current after the change.
type ChangeEvent struct {
	Kind   ChangeKind
	Path   string
	Config *Config
}

// Watcher watches the config file and the paper list for changes.
// A changed config file is reloaded and validated before listeners hear
// about it; an invalid file keeps the current configuration.
type Watcher struct {
	configPath string
	papersPath string
	watcher    *fsnotify.Watcher
	current    *Config
	mu         sync.RWMutex
	handlersMu sync.RWMutex
	onChange   []func(ChangeEvent)
	debounce   time.Duration
	logger     *zap.Logger
	stopCh     chan struct{}
	stopOnce   sync.Once
}

// NewWatcher watches cfg.ConfigFile and cfg.PapersPath, whichever are set
func NewWatcher(cfg *Config, logger *zap.Logger) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	configPath, err := absPath(cfg.ConfigFile)
	if err != nil {
		return nil, err
	}
	papersPath, err := absPath(cfg.PapersPath)
	if err != nil {
		return nil, err
	}
	if configPath == "" && papersPath == "" {
		return nil, fmt.Errorf("nothing to watch: neither config file nor papers path is set")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	// Watch directories so atomic saves (write to temp, rename) are seen
	dirs := map[string]struct{}{}
	for _, p := range []string{configPath, papersPath} {
		if p != "" {
			dirs[filepath.Dir(p)] = struct{}{}
		}
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			watcher.Close()
			return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}

	return &Watcher{
		configPath: configPath,
		papersPath: papersPath,
		watcher:    watcher,
		current:    cfg,
		debounce:   100 * time.Millisecond,
		logger:     logger,
		stopCh:     make(chan struct{}),
	}, nil
}

// OnChange registers a handler; handlers run on their own goroutine
func (w *Watcher) OnChange(handler func(ChangeEvent)) {
	w.handlersMu.Lock()
	defer w.handlersMu.Unlock()
	w.onChange = append(w.onChange, handler)
}

// Current returns the latest valid configuration
func (w *Watcher) Current() *Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// Start begins watching for changes
func (w *Watcher) Start() {
	go w.watchLoop()
	w.logger.Info("File watcher started",
		zap.String("config", w.configPath),
		zap.String("papers", w.papersPath),
	)
}

// Stop stops watching; safe to call more than once
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		w.watcher.Close()
		w.logger.Info("File watcher stopped")
	})
}

func (w *Watcher) watchLoop() {
	timers := map[string]*time.Timer{}
	defer func() {
		for _, t := range timers {
			t.Stop()
		}
	}()

	for {
		select {
		case <-w.stopCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}

			name := filepath.Clean(event.Name)
			kind, watched := w.kindOf(name)
			if !watched {
				continue
			}

			if t, exists := timers[name]; exists {
				t.Stop()
			}
			timers[name] = time.AfterFunc(w.debounce, func() {
				w.handleChange(kind, name)
			})

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("File watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) kindOf(name string) (ChangeKind, bool) {
	switch name {
	case "":
		return "", false
	case w.configPath:
		return ConfigChanged, true
	case w.papersPath:
		return PapersChanged, true
	}
	return "", false
}

func (w *Watcher) handleChange(kind ChangeKind, path string) {
	select {
	case <-w.stopCh:
		return
	default:
	}

	if kind == ConfigChanged {
		w.logger.Info("Configuration file changed, reloading", zap.String("path", path))

		next, err := LoadConfig(path)
		if err != nil {
			w.logger.Error("Invalid configuration, keeping current", zap.Error(err))
			return
		}

		w.mu.Lock()
		previous := w.current
		w.current = next
		w.mu.Unlock()

		w.logConfigChanges(previous, next)
	} else {
		w.logger.Info("Paper list changed", zap.String("path", path))
	}

	event := ChangeEvent{Kind: kind, Path: path, Config: w.Current()}

	w.handlersMu.RLock()
	defer w.handlersMu.RUnlock()
	for _, handler := range w.onChange {
		go handler(event)
	}
}

// logConfigChanges logs the settings that differ between two configurations
func (w *Watcher) logConfigChanges(previous, next *Config) {
	changes := []string{}

	if previous.LogLevel != next.LogLevel {
		changes = append(changes, fmt.Sprintf("LogLevel: %s -> %s", previous.LogLevel, next.LogLevel))
	}
	if previous.PapersPath != next.PapersPath {
		changes = append(changes, fmt.Sprintf("PapersPath: %s -> %s", previous.PapersPath, next.PapersPath))
	}
	if previous.Provider.ChatModel != next.Provider.ChatModel {
		changes = append(changes, fmt.Sprintf("ChatModel: %s -> %s", previous.Provider.ChatModel, next.Provider.ChatModel))
	}

	pd, nd := previous.Domain, next.Domain
	if pd.SimilarityThreshold != nd.SimilarityThreshold {
		changes = append(changes, fmt.Sprintf("SimilarityThreshold: %.2f -> %.2f", pd.SimilarityThreshold, nd.SimilarityThreshold))
	}
	if pd.MaxConnections != nd.MaxConnections {
		changes = append(changes, fmt.Sprintf("MaxConnections: %d -> %d", pd.MaxConnections, nd.MaxConnections))
	}
	if pd.CentralityAlgorithm != nd.CentralityAlgorithm {
		changes = append(changes, fmt.Sprintf("CentralityAlgorithm: %s -> %s", pd.CentralityAlgorithm, nd.CentralityAlgorithm))
	}

	if len(changes) > 0 {
		w.logger.Info("Configuration changes detected", zap.Strings("changes", changes))
	}
}

func absPath(p string) (string, error) {
	if p == "" {
		return "", nil
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", p, err)
	}
	return filepath.Clean(abs), nil
}
