// Copyright (C) 2025 Verdanta Labs (oss@verdanta.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package scorecache

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// snapshotDebounce batches the burst of events an atomic snapshot
// replacement produces (write, rename, chmod) into one purge.
const snapshotDebounce = 500 * time.Millisecond

// Watcher purges a Cache when watched data files are replaced on disk.
//
// # Description
//
// Deployments swap the tree snapshot and reference database by writing
// a new file and renaming it over the old one. The watcher observes the
// containing directories and debounces the event burst so one swap
// triggers exactly one purge.
//
// # Thread Safety
//
// Safe for concurrent use. Stop is idempotent.
type Watcher struct {
	cache   *Cache
	watcher *fsnotify.Watcher
	paths   map[string]struct{}
	log     *slog.Logger

	stopOnce sync.Once
	done     chan struct{}
}

// Watch starts watching the given files' directories and purges cache
// on any change to the files themselves.
func Watch(ctx context.Context, cache *Cache, paths ...string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		cache:   cache,
		watcher: fsw,
		paths:   make(map[string]struct{}, len(paths)),
		log:     slog.Default().With("component", "scorecache.watcher"),
		done:    make(chan struct{}),
	}

	dirs := make(map[string]struct{})
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			fsw.Close()
			return nil, err
		}
		w.paths[abs] = struct{}{}
		dirs[filepath.Dir(abs)] = struct{}{}
	}
	for dir := range dirs {
		if err := fsw.Add(dir); err != nil {
			fsw.Close()
			return nil, err
		}
	}

	go w.run(ctx)
	return w, nil
}

func (w *Watcher) run(ctx context.Context) {
	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			abs, err := filepath.Abs(event.Name)
			if err != nil {
				continue
			}
			if _, watched := w.paths[abs]; !watched {
				continue
			}
			if !event.Has(fsnotify.Write | fsnotify.Create | fsnotify.Rename | fsnotify.Remove) {
				continue
			}
			w.log.Info("watched data file changed", "path", abs, "op", event.Op.String())
			if timer == nil {
				timer = time.NewTimer(snapshotDebounce)
				timerC = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(snapshotDebounce)
			}
		case <-timerC:
			timer = nil
			timerC = nil
			w.cache.Purge()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn("file watcher error", "error", err)
		}
	}
}

// Stop stops watching and releases the underlying watcher.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		w.watcher.Close()
	})
}
