// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package project

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/time/rate"

	"github.com/AleutianAI/tsboundary/services/boundary/ast"
)

// ChangeOp is the kind of a file change.
type ChangeOp int

const (
	OpCreate ChangeOp = iota
	OpWrite
	OpRemove
	OpRename
)

// String returns the lower-case name of the operation.
func (op ChangeOp) String() string {
	switch op {
	case OpCreate:
		return "create"
	case OpWrite:
		return "write"
	case OpRemove:
		return "remove"
	case OpRename:
		return "rename"
	default:
		return "unknown"
	}
}

// Change is a change to a project file.
type Change struct {
	// Path is relative to the project root, slash-separated.
	Path string

	Op   ChangeOp
	Time time.Time

	// Settings is true for tsboundary.yaml and package.json.
	Settings bool
}

// ChangeHandler receives a debounced batch of changes, one per path, sorted
// by path. It is called from a single goroutine.
type ChangeHandler func(ctx context.Context, changes []Change)

// WatcherOptions configures a Watcher.
type WatcherOptions struct {
	// Debounce is how long the watcher waits for more changes before
	// delivering a batch.
	Debounce time.Duration

	// MinInterval is the minimum time between two batches. Zero disables
	// the limit.
	MinInterval time.Duration

	// BufferSize is the capacity of the pending change channel.
	BufferSize int

	// Ignore adds gitignore-style patterns on top of the root .gitignore.
	Ignore []string
}

// DefaultWatcherOptions returns the options used by the watch command.
func DefaultWatcherOptions() WatcherOptions {
	return WatcherOptions{
		Debounce:    150 * time.Millisecond,
		MinInterval: 500 * time.Millisecond,
		BufferSize:  1000,
	}
}

// Watcher reports changes to the sources and settings of a project.
//
// Description:
//
//	Watches the project directories recursively, skipping what Discover
//	skips. Events for TypeScript sources and settings files are collected
//	until Debounce passes without new events; the batch is then handed to
//	the handler, no more often than once per MinInterval.
//
// Thread Safety:
//
//	Start and Stop are safe for concurrent use. The handler is called
//	from a single goroutine.
type Watcher struct {
	root     string
	match    *matcher
	watcher  *fsnotify.Watcher
	handler  ChangeHandler
	debounce time.Duration
	limiter  *rate.Limiter
	logger   *slog.Logger

	changes  chan Change
	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	mu       sync.RWMutex
	watching bool
}

// NewWatcher creates a watcher for root. Nil opts uses the defaults; a nil
// logger uses slog.Default().
func NewWatcher(root string, handler ChangeHandler, opts *WatcherOptions, logger *slog.Logger) (*Watcher, error) {
	if opts == nil {
		defaults := DefaultWatcherOptions()
		opts = &defaults
	}
	if logger == nil {
		logger = slog.Default()
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve project root: %w", err)
	}
	match, err := newMatcher(abs, ast.NewParser(), opts.Ignore)
	if err != nil {
		return nil, err
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	limit := rate.Inf
	if opts.MinInterval > 0 {
		limit = rate.Every(opts.MinInterval)
	}
	buffer := opts.BufferSize
	if buffer <= 0 {
		buffer = DefaultWatcherOptions().BufferSize
	}

	return &Watcher{
		root:     abs,
		match:    match,
		watcher:  fw,
		handler:  handler,
		debounce: opts.Debounce,
		limiter:  rate.NewLimiter(limit, 1),
		logger:   logger,
		changes:  make(chan Change, buffer),
		done:     make(chan struct{}),
	}, nil
}

// Start adds the project directories and begins delivering changes. It
// returns immediately; watching stops on Stop or when ctx is canceled.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.watching {
		w.mu.Unlock()
		return nil
	}
	w.watching = true
	w.mu.Unlock()

	if err := w.addRecursive(w.root); err != nil {
		return err
	}

	w.wg.Add(2)
	go w.processEvents(ctx)
	go w.debounceLoop(ctx)
	return nil
}

// Stop stops watching and waits for a batch in progress to finish.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		w.watcher.Close()
		w.wg.Wait()

		w.mu.Lock()
		w.watching = false
		w.mu.Unlock()
	})
}

// IsWatching reports whether the watcher is running.
func (w *Watcher) IsWatching() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.watching
}

func (w *Watcher) addRecursive(dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		rel, ok := w.match.rel(p)
		if !ok || w.match.skipDir(rel) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(p); err != nil {
			return fmt.Errorf("watch %s: %w", rel, err)
		}
		return nil
	})
}

func (w *Watcher) processEvents(ctx context.Context) {
	defer w.wg.Done()
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
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("file watcher error", slog.Any("error", err))
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	rel, ok := w.match.rel(event.Name)
	if !ok {
		return
	}

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if !w.match.skipDir(rel) {
				if err := w.addRecursive(event.Name); err != nil {
					w.logger.Warn("cannot watch new directory", slog.String("dir", rel), slog.Any("error", err))
				}
			}
			return
		}
	}

	settings := w.match.settings(rel)
	if !settings && !w.match.source(rel) {
		return
	}
	change := Change{Path: rel, Op: convertOp(event.Op), Time: time.Now(), Settings: settings}
	select {
	case w.changes <- change:
	default:
		w.logger.Warn("change buffer full, dropping event", slog.String("file", rel))
	}
}

func convertOp(op fsnotify.Op) ChangeOp {
	switch {
	case op.Has(fsnotify.Create):
		return OpCreate
	case op.Has(fsnotify.Remove):
		return OpRemove
	case op.Has(fsnotify.Rename):
		return OpRename
	default:
		return OpWrite
	}
}

func (w *Watcher) debounceLoop(ctx context.Context) {
	defer w.wg.Done()

	// Stop must also release a batch waiting on the limiter.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-w.done:
			cancel()
		case <-ctx.Done():
		}
	}()

	var batch []Change
	var timer *time.Timer
	var timerC <-chan time.Time

	flush := func() {
		if timer != nil {
			timer.Stop()
			timer, timerC = nil, nil
		}
		if len(batch) == 0 {
			return
		}
		changes := dedupe(batch)
		batch = batch[:0]
		if err := w.limiter.Wait(ctx); err != nil {
			return
		}
		recordWatchBatch(ctx, len(changes))
		if w.handler != nil {
			w.handler(ctx, changes)
		}
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case change := <-w.changes:
			batch = append(batch, change)
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				timer.Reset(w.debounce)
			}
		case <-timerC:
			timer, timerC = nil, nil
			flush()
		}
	}
}

// dedupe keeps the last change per path, sorted by path.
func dedupe(batch []Change) []Change {
	last := make(map[string]Change, len(batch))
	for _, c := range batch {
		last[c.Path] = c
	}
	out := make([]Change, 0, len(last))
	for _, c := range last {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}
