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
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/AleutianAI/tsboundary/services/boundary/ast"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLoader_Load(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"src/server/db.ts": "export function query(): void {}\n",
		"src/client/ui.ts": "import { query } from \"../server/db\";\nquery();\n",
		"types/env.d.ts":   "declare const $SERVER: boolean;\n",
	})

	l, err := NewLoader(root, WithConcurrency(2), WithLoaderLogger(discardLogger()))
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(l.Root()))

	snap, err := l.Load(context.Background())
	require.NoError(t, err)
	require.NotNil(t, snap.Program)
	assert.Empty(t, snap.Skipped)
	assert.Len(t, snap.Program.Files(), 3)

	ui, err := snap.Program.File("src/client/ui.ts")
	require.NoError(t, err)
	assert.Equal(t, "src/client/ui.ts", ui.Path, "paths are root-relative")

	c := snap.Program.Checker()
	mod := c.ResolveModule("../server/db", ui)
	require.NotNil(t, mod, "imports resolve between loaded files")

	_, ok := snap.Program.Globals().Symbols["$SERVER"]
	assert.True(t, ok)
}

func TestLoader_SkipsUnparseableFiles(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"small.ts": "export const a = 1;\n",
		"large.ts": "export const b = \"" + strings.Repeat("x", 64) + "\";\n",
	})

	l, err := NewLoader(root,
		WithParser(ast.NewParser(ast.WithMaxFileSize(48))),
		WithLoaderLogger(discardLogger()),
	)
	require.NoError(t, err)

	snap, err := l.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, snap.Skipped, 1)
	assert.Equal(t, "large.ts", snap.Skipped[0].Path)
	assert.ErrorIs(t, snap.Skipped[0].Err, ast.ErrFileTooLarge)
	assert.Len(t, snap.Program.Files(), 1)
}

func TestLoader_Canceled(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a.ts": "export {};\n"})

	l, err := NewLoader(root, WithLoaderLogger(discardLogger()))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = l.Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoader_MissingFile(t *testing.T) {
	l, err := NewLoader(t.TempDir(), WithLoaderLogger(discardLogger()))
	require.NoError(t, err)

	_, err = l.LoadFiles(context.Background(), []string{"gone.ts"})
	assert.Error(t, err)
}

func TestLoader_IgnorePatterns(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"src/a.ts":        "export {};\n",
		"src/legacy/b.ts": "export {};\n",
	})
	l, err := NewLoader(root, WithIgnore("legacy/"), WithLoaderLogger(discardLogger()))
	require.NoError(t, err)

	files, err := l.Discover()
	require.NoError(t, err)
	assert.Equal(t, []string{"src/a.ts"}, files)
}
