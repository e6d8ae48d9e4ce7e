// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package corpus

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/poiesic/waypoint/core"
)

// DefaultDebounce is how long the watcher waits for writes to settle.
const DefaultDebounce = 200 * time.Millisecond

// ErrWatcherStopped is returned when starting a stopped watcher.
var ErrWatcherStopped = errors.New("watcher stopped")

// ReloadFunc receives a freshly decoded corpus.
type ReloadFunc func(routes []*core.Route) error

// Watcher reloads a corpus file whenever it changes on disk. Bursts of
// events are coalesced, and content whose fingerprint matches the last
// applied corpus is ignored.
type Watcher struct {
	path     string
	onReload ReloadFunc
	debounce time.Duration
	logger   *slog.Logger

	fw       *fsnotify.Watcher
	done     chan struct{}
	inflight sync.WaitGroup // pending or running reloads
	mu       sync.Mutex
	timer   *time.Timer
	last    core.ID
	started bool
	stopped bool
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher) error

// WithDebounce sets the settle interval.
// Default is DefaultDebounce.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) error {
		if d <= 0 {
			return fmt.Errorf("debounce must be positive, got %v", d)
		}
		w.debounce = d
		return nil
	}
}

// WithWatcherLogger sets a custom logger.
// Default is slog.Default().
func WithWatcherLogger(logger *slog.Logger) WatcherOption {
	return func(w *Watcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		w.logger = logger
		return nil
	}
}

// NewWatcher creates a watcher for the corpus at path.
func NewWatcher(path string, onReload ReloadFunc, opts ...WatcherOption) (*Watcher, error) {
	if onReload == nil {
		return nil, errors.New("reload function required")
	}
	if _, err := FormatFromPath(path); err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		path:     abs,
		onReload: onReload,
		debounce: DefaultDebounce,
		logger:   slog.Default(),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		if err := opt(w); err != nil {
			return nil, err
		}
	}
	w.logger = w.logger.With("component", "corpus-watcher", "path", abs)
	return w, nil
}

// Prime records routes as the currently applied corpus, so an unchanged
// file does not trigger a reload.
func (w *Watcher) Prime(routes []*core.Route) {
	w.mu.Lock()
	w.last = core.Fingerprint(routes)
	w.mu.Unlock()
}

// Start begins watching. The containing directory is watched so editors
// that replace the file by rename are handled.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return ErrWatcherStopped
	}
	if w.started {
		return nil
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		fw.Close()
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(w.path), err)
	}
	w.fw = fw
	w.started = true

	go w.loop()
	w.logger.Info("watching corpus")
	return nil
}

func (w *Watcher) loop() {
	for {
		select {
		case event, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				w.schedule()
			}

		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", "err", err)

		case <-w.done:
			return
		}
	}
}

// schedule restarts the debounce timer.
func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}
	if w.timer != nil && w.timer.Stop() {
		w.inflight.Done()
	}
	w.inflight.Add(1)
	w.timer = time.AfterFunc(w.debounce, func() {
		defer w.inflight.Done()
		w.reload()
	})
}

func (w *Watcher) reload() {
	routes, err := LoadFile(w.path)
	if err != nil {
		w.logger.Warn("corpus reload skipped", "err", err)
		return
	}

	fingerprint := core.Fingerprint(routes)
	w.mu.Lock()
	if w.stopped || fingerprint == w.last {
		w.mu.Unlock()
		w.logger.Debug("corpus unchanged")
		return
	}
	w.mu.Unlock()

	if err := w.onReload(routes); err != nil {
		w.logger.Error("corpus reload failed", "err", err)
		return
	}

	w.mu.Lock()
	w.last = fingerprint
	w.mu.Unlock()
	w.logger.Info("corpus reloaded", "routes", len(routes))
}

// Stop ends watching and waits for a reload already under way to finish,
// so the reload function is never running once Stop returns. It must not
// be called from the reload function. Safe to call multiple times.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return nil
	}
	w.stopped = true
	close(w.done)
	if w.timer != nil && w.timer.Stop() {
		w.inflight.Done()
	}
	var err error
	if w.fw != nil {
		err = w.fw.Close()
	}
	w.mu.Unlock()

	w.inflight.Wait()
	return err
}
