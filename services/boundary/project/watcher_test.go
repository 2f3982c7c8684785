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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startWatcher(t *testing.T, root string) <-chan []Change {
	t.Helper()
	batches := make(chan []Change, 16)
	w, err := NewWatcher(root, func(ctx context.Context, changes []Change) {
		batches <- changes
	}, &WatcherOptions{Debounce: 50 * time.Millisecond}, discardLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, w.Start(ctx))
	assert.True(t, w.IsWatching())
	t.Cleanup(func() {
		cancel()
		w.Stop()
		assert.False(t, w.IsWatching())
	})
	return batches
}

func nextBatch(t *testing.T, batches <-chan []Change) []Change {
	t.Helper()
	select {
	case b := <-batches:
		return b
	case <-time.After(5 * time.Second):
		require.FailNow(t, "no change batch delivered")
		return nil
	}
}

func TestWatcher_DebouncesSourceChanges(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"src/main.ts":               "export {};\n",
		"node_modules/pkg/index.ts": "export {};\n",
	})
	batches := startWatcher(t, root)

	main := filepath.Join(root, "src", "main.ts")
	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(main, []byte("export const v = 1;\n"), 0o644))
	}
	require.NoError(t, os.WriteFile(filepath.Join(root, "node_modules", "pkg", "index.ts"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "src", "notes.md"), []byte("x"), 0o644))

	batch := nextBatch(t, batches)
	require.Len(t, batch, 1, "one change per path")
	assert.Equal(t, "src/main.ts", batch[0].Path)
	assert.False(t, batch[0].Settings)
}

func TestWatcher_SettingsAndNewDirectories(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"src/main.ts": "export {};\n"})
	batches := startWatcher(t, root)

	require.NoError(t, os.WriteFile(filepath.Join(root, "tsboundary.yaml"), []byte("diagnosticsMode: error\n"), 0o644))
	batch := nextBatch(t, batches)
	require.Len(t, batch, 1)
	assert.Equal(t, "tsboundary.yaml", batch[0].Path)
	assert.True(t, batch[0].Settings)

	require.NoError(t, os.MkdirAll(filepath.Join(root, "src", "server"), 0o755))
	// Give the watcher time to pick up the new directory.
	time.Sleep(200 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(root, "src", "server", "db.ts"), []byte("export {};\n"), 0o644))

	assert.Eventually(t, func() bool {
		select {
		case b := <-batches:
			for _, c := range b {
				if c.Path == "src/server/db.ts" {
					return true
				}
			}
		default:
		}
		return false
	}, 5*time.Second, 20*time.Millisecond)
}

func TestWatcher_StopReleasesThrottledBatch(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"src/main.ts": "export {};\n"})
	batches := make(chan []Change, 4)
	w, err := NewWatcher(root, func(ctx context.Context, changes []Change) {
		batches <- changes
	}, &WatcherOptions{Debounce: 20 * time.Millisecond, MinInterval: time.Hour}, discardLogger())
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))

	main := filepath.Join(root, "src", "main.ts")
	require.NoError(t, os.WriteFile(main, []byte("export const v = 1;\n"), 0o644))
	nextBatch(t, batches)

	require.NoError(t, os.WriteFile(main, []byte("export const v = 2;\n"), 0o644))
	// Let the second batch reach the limiter.
	time.Sleep(300 * time.Millisecond)

	stopped := make(chan struct{})
	go func() {
		w.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		require.FailNow(t, "Stop blocked on the rate limiter")
	}
	assert.Empty(t, batches, "the throttled batch is dropped")
}

func TestDedupe(t *testing.T) {
	now := time.Now()
	out := dedupe([]Change{
		{Path: "b.ts", Op: OpCreate, Time: now},
		{Path: "a.ts", Op: OpWrite, Time: now},
		{Path: "b.ts", Op: OpWrite, Time: now.Add(time.Millisecond)},
	})
	require.Len(t, out, 2)
	assert.Equal(t, "a.ts", out[0].Path)
	assert.Equal(t, "b.ts", out[1].Path)
	assert.Equal(t, OpWrite, out[1].Op, "the last change wins")
}

func TestChangeOp_String(t *testing.T) {
	assert.Equal(t, "create", OpCreate.String())
	assert.Equal(t, "write", OpWrite.String())
	assert.Equal(t, "remove", OpRemove.String())
	assert.Equal(t, "rename", OpRename.String())
	assert.Equal(t, "unknown", ChangeOp(42).String())
}
