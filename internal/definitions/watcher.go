// Copyright 2025 Tom Barlow
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

package definitions

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// WatcherConfig configures a Watcher.
type WatcherConfig struct {
	// Catalog is rescanned on change.
	Catalog *Catalog

	// OnChange runs after each rescan with the new definitions.
	OnChange func([]Definition)

	Logger *slog.Logger

	// DebounceDelay coalesces bursts of events. Defaults to 200ms.
	DebounceDelay time.Duration
}

// Watcher rescans a catalog when files under its root change.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	cfg       WatcherConfig
	logger    *slog.Logger

	mu      sync.Mutex
	pending *time.Timer

	wg sync.WaitGroup
}

// NewWatcher watches the catalog root and every directory below it.
func NewWatcher(cfg WatcherConfig) (*Watcher, error) {
	if cfg.Catalog == nil {
		return nil, fmt.Errorf("catalog is required")
	}
	if cfg.DebounceDelay == 0 {
		cfg.DebounceDelay = 200 * time.Millisecond
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	w := &Watcher{fsWatcher: fsw, cfg: cfg, logger: logger.With("component", "definitions")}
	if err := w.addTree(cfg.Catalog.Root()); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

// Start processes events in the background until ctx is done or Close
// is called.
func (w *Watcher) Start(ctx context.Context) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.loop(ctx)
	}()
}

func (w *Watcher) loop(ctx context.Context) {
	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Create) {
				// New subdirectories need their own watch.
				_ = w.addTree(event.Name)
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
				event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				w.schedule()
			}
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("file watcher error", "error", err)
		case <-ctx.Done():
			return
		}
	}
}

// Close stops the watcher and any pending rescan.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.pending != nil {
		w.pending.Stop()
	}
	w.mu.Unlock()
	err := w.fsWatcher.Close()
	w.wg.Wait()
	return err
}

func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.pending != nil {
		w.pending.Stop()
	}
	w.pending = time.AfterFunc(w.cfg.DebounceDelay, w.rescan)
}

func (w *Watcher) rescan() {
	defs, err := w.cfg.Catalog.Scan()
	if err != nil {
		w.logger.Warn("definition rescan failed", "error", err)
		return
	}
	w.logger.Info("definitions changed", "count", len(defs))
	if w.cfg.OnChange != nil {
		w.cfg.OnChange(defs)
	}
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.fsWatcher.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}
