// SPDX-License-Identifier: Apache-2.0

package config

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"
)

// Watcher polls the config file and reloads on change. Feature flags
// and rate limits can flip at runtime without a restart.
type Watcher struct {
	mu          sync.RWMutex
	path        string
	interval    time.Duration
	lastModTime time.Time
	config      *Config
	listeners   []func(*Config)
	stopCh      chan struct{}
	doneCh      chan struct{}
	logger      *slog.Logger
}

// WatcherOption configures the watcher.
type WatcherOption func(*Watcher)

// WithWatchInterval sets the polling interval.
func WithWatchInterval(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.interval = d
		}
	}
}

// WithWatchLogger sets the watcher's logger.
func WithWatchLogger(logger *slog.Logger) WatcherOption {
	return func(w *Watcher) {
		w.logger = logger
	}
}

// NewWatcher loads the initial config from path and prepares to watch it.
func NewWatcher(path string, opts ...WatcherOption) (*Watcher, error) {
	w := &Watcher{
		path:     path,
		interval: time.Second,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}

	if info, err := os.Stat(path); err == nil {
		w.lastModTime = info.ModTime()
	}

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	w.config = cfg
	return w, nil
}

// OnChange registers a callback invoked after each successful reload.
func (w *Watcher) OnChange(fn func(*Config)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.listeners = append(w.listeners, fn)
}

// Config returns the current configuration.
func (w *Watcher) Config() *Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.config
}

// Start begins watching for changes until ctx is canceled or Stop is
// called.
func (w *Watcher) Start(ctx context.Context) {
	go w.watch(ctx)
}

// Stop stops the watcher and waits for the poll loop to exit.
func (w *Watcher) Stop() {
	close(w.stopCh)
	<-w.doneCh
}

func (w *Watcher) watch(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			if w.changed() {
				w.reload()
			}
		}
	}
}

func (w *Watcher) changed() bool {
	info, err := os.Stat(w.path)
	if err != nil {
		return false
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if info.ModTime().After(w.lastModTime) {
		w.lastModTime = info.ModTime()
		return true
	}
	return false
}

func (w *Watcher) reload() {
	cfg, err := Load(w.path)
	if err != nil {
		w.logger.Error("failed to reload config", "error", err, "path", w.path)
		return
	}

	w.mu.Lock()
	w.config = cfg
	listeners := make([]func(*Config), len(w.listeners))
	copy(listeners, w.listeners)
	w.mu.Unlock()

	w.logger.Info("config reloaded", "path", w.path)
	for _, fn := range listeners {
		fn(cfg)
	}
}
