package config

import (
	"log/slog"
	"sync"
	"time"

	"github.com/dshills/cutline/internal/config/loader"
	"github.com/dshills/cutline/internal/config/watcher"
	"github.com/dshills/cutline/internal/logging"
)

// Observer receives the previous and the new settings after a reload.
type Observer func(old, cur *Config)

// Manager holds the current settings and reloads them when the file
// changes. It is safe for concurrent use.
type Manager struct {
	mu        sync.RWMutex
	cur       *Config
	path      string
	env       loader.Loader
	observers []Observer
	watcher   *watcher.Watcher
	logger    *slog.Logger
}

// NewManager loads path and returns a manager for it.
func NewManager(path string, logger *slog.Logger) (*Manager, error) {
	m := &Manager{
		path:   path,
		env:    loader.NewEnvLoader(loader.DefaultEnvPrefix),
		logger: logging.WithComponent(logger, "config"),
	}
	cfg, err := m.load()
	if err != nil {
		return nil, err
	}
	m.cur = cfg
	return m, nil
}

func (m *Manager) load() (*Config, error) {
	var file loader.Loader
	if m.path != "" {
		file = loader.NewTOMLLoader(m.path)
	}
	return LoadFrom(file, m.env)
}

// Current returns the active settings. Callers must not modify them.
func (m *Manager) Current() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cur
}

// Subscribe registers an observer for successful reloads.
func (m *Manager) Subscribe(o Observer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observers = append(m.observers, o)
}

// Reload re-reads the sources. On error the active settings are kept.
func (m *Manager) Reload() error {
	cfg, err := m.load()
	if err != nil {
		m.logger.Warn("config reload failed", "path", m.path, "error", err)
		return err
	}

	m.mu.Lock()
	old := m.cur
	m.cur = cfg
	observers := append([]Observer(nil), m.observers...)
	m.mu.Unlock()

	m.logger.Info("config reloaded", "path", m.path)
	for _, o := range observers {
		o(old, cfg)
	}
	return nil
}

// Watch reloads whenever the file changes, after debounce of quiet.
func (m *Manager) Watch(debounce time.Duration) error {
	if m.path == "" {
		return nil
	}
	w, err := watcher.New(func(ev watcher.Event) {
		m.logger.Debug("config file changed", "path", ev.Path, "op", ev.Op.String())
		_ = m.Reload()
	}, watcher.WithDebounce(debounce), watcher.WithLogger(m.logger))
	if err != nil {
		return err
	}
	if err := w.Watch(m.path); err != nil {
		w.Close()
		return err
	}

	m.mu.Lock()
	m.watcher = w
	m.mu.Unlock()
	return nil
}

// Close stops watching.
func (m *Manager) Close() error {
	m.mu.Lock()
	w := m.watcher
	m.watcher = nil
	m.mu.Unlock()
	if w == nil {
		return nil
	}
	return w.Close()
}
