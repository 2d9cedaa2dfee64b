// Copyright 2026 © The Ergon Authors
// SPDX-License-Identifier: Apache-2.0

package functions

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Watcher polls the functions root for added, removed, or edited functions
// and notifies listeners, so the semantic index follows the directory
// without manual reindex runs.
type Watcher struct {
	mu        sync.Mutex
	root      string
	interval  time.Duration
	snapshot  map[string]time.Time
	listeners []func(context.Context)
	stopCh    chan struct{}
	doneCh    chan struct{}
	logger    *slog.Logger
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

// WithWatchLogger sets the logger for the watcher.
func WithWatchLogger(logger *slog.Logger) WatcherOption {
	return func(w *Watcher) { w.logger = logger }
}

// NewWatcher creates a watcher over the functions root. The initial state
// is snapshotted so existing functions do not fire a change.
func NewWatcher(root string, opts ...WatcherOption) *Watcher {
	w := &Watcher{
		root:     root,
		interval: 2 * time.Second,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.snapshot = w.scan()
	return w
}

// OnChange registers a callback invoked after each detected change.
func (w *Watcher) OnChange(fn func(context.Context)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.listeners = append(w.listeners, fn)
}

// Start begins polling in the background.
func (w *Watcher) Start(ctx context.Context) {
	go w.watch(ctx)
}

// Stop ends polling and waits for the background goroutine to exit.
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
			if w.checkForChanges() {
				w.notify(ctx)
			}
		}
	}
}

func (w *Watcher) checkForChanges() bool {
	current := w.scan()

	w.mu.Lock()
	defer w.mu.Unlock()

	changed := len(current) != len(w.snapshot)
	if !changed {
		for path, mod := range current {
			last, ok := w.snapshot[path]
			if !ok || mod.After(last) {
				changed = true
				break
			}
		}
	}
	w.snapshot = current
	return changed
}

// scan maps every function directory and its metadata file to a mod time.
// Metadata files are tracked separately because editing one does not touch
// the parent directory's mod time.
func (w *Watcher) scan() map[string]time.Time {
	snapshot := make(map[string]time.Time)
	src := filepath.Join(w.root, "src")
	entries, err := os.ReadDir(src)
	if err != nil {
		return snapshot
	}
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		dir := filepath.Join(src, entry.Name())
		if info, err := entry.Info(); err == nil {
			snapshot[dir] = info.ModTime()
		}
		metaPath := filepath.Join(dir, entry.Name()+".meta.json")
		if info, err := os.Stat(metaPath); err == nil {
			snapshot[metaPath] = info.ModTime()
		}
	}
	return snapshot
}

func (w *Watcher) notify(ctx context.Context) {
	w.mu.Lock()
	listeners := make([]func(context.Context), len(w.listeners))
	copy(listeners, w.listeners)
	w.mu.Unlock()

	w.logger.Info("ergon.functions.changed", "root", w.root)
	for _, fn := range listeners {
		fn(ctx)
	}
}
