// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.True(t, cfg.ShowCompilerErrors)
	assert.Equal(t, ModeWarning, cfg.NetworkBoundaryCheck)
	assert.True(t, cfg.NetworkBoundaryInfo)
	assert.False(t, cfg.HideDeprecated)
	assert.Equal(t, ModeWarning, cfg.DiagnosticsMode)
	assert.Equal(t, CompletionPrefix, cfg.CompletionMode)
	assert.NoError(t, cfg.Validate())
}

func TestParse_Partial(t *testing.T) {
	cfg, err := Parse([]byte(`
hideDeprecated: true
diagnosticsMode: error
serverDirectories: [src/server]
someFutureOption: 3
`))
	require.NoError(t, err)
	assert.True(t, cfg.HideDeprecated)
	assert.Equal(t, ModeError, cfg.DiagnosticsMode)
	assert.Equal(t, []string{"src/server"}, cfg.ServerDirectories)
	assert.True(t, cfg.ShowCompilerErrors, "unset fields keep their default")
	assert.Equal(t, ModeWarning, cfg.NetworkBoundaryCheck)
}

func TestParse_JSON(t *testing.T) {
	cfg, err := Parse([]byte(`{"networkBoundaryCheck": "off", "networkBoundaryInfo": false}`))
	require.NoError(t, err)
	assert.Equal(t, ModeOff, cfg.NetworkBoundaryCheck)
	assert.False(t, cfg.NetworkBoundaryInfo)
}

func TestParse_InvalidFallsBackToDefaults(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"bad enum", "hideDeprecated: true\ndiagnosticsMode: loud\n"},
		{"bad type", "hideDeprecated: true\nshowCompilerErrors: sometimes\n"},
		{"empty directory", "hideDeprecated: true\nclientDirectories: ['']\n"},
		{"not yaml", "hideDeprecated: [true\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Parse([]byte(tt.raw))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidConfig))
			assert.Equal(t, Default(), cfg, "the whole input is discarded")
		})
	}
}

func TestParse_Symbols(t *testing.T) {
	cfg, err := Parse([]byte(`
symbols:
  serverDirective: IS_SERVER
  modules: ["@Easy/Core"]
`))
	require.NoError(t, err)
	assert.Equal(t, "IS_SERVER", cfg.Symbols.ServerDirective)
	assert.Empty(t, cfg.Symbols.ClientDirective)
	assert.Equal(t, []string{"@Easy/Core"}, cfg.Symbols.Modules)

	for _, raw := range []string{
		"symbols:\n  serverDecorator: \"Server()\"\n",
		"symbols:\n  modules: ['']\n",
	} {
		cfg, err := Parse([]byte(raw))
		assert.True(t, errors.Is(err, ErrInvalidConfig), raw)
		assert.Equal(t, Default(), cfg)
	}
}

func TestMerge_Symbols(t *testing.T) {
	base := Default()
	base.Symbols = SymbolNames{Environment: "World", Modules: []string{"@Easy/Core"}}

	got := Merge(base, Patch{Symbols: &SymbolNames{HostDecorator: "Owner"}})
	assert.Equal(t, "World", got.Symbols.Environment, "unset names are kept")
	assert.Equal(t, "Owner", got.Symbols.HostDecorator)
	assert.Equal(t, []string{"@Easy/Core"}, got.Symbols.Modules)

	got = Merge(base, Patch{Symbols: &SymbolNames{Modules: []string{}}})
	assert.Empty(t, got.Symbols.Modules)
	assert.Equal(t, []string{"@Easy/Core"}, base.Symbols.Modules, "base is not modified")
}

func TestMerge(t *testing.T) {
	off := ModeOff
	yes := true
	base := Default()
	got := Merge(base, Patch{DiagnosticsMode: &off, HideDeprecated: &yes, ClientDirectories: []string{"src/client"}})

	assert.Equal(t, ModeOff, got.DiagnosticsMode)
	assert.True(t, got.HideDeprecated)
	assert.Equal(t, []string{"src/client"}, got.ClientDirectories)
	assert.Equal(t, base.CompletionMode, got.CompletionMode)
	assert.Equal(t, ModeWarning, base.DiagnosticsMode, "base is not modified")
	assert.Equal(t, base, Merge(base, Patch{}))
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(filepath.Join(dir, DefaultFileName))
	require.NoError(t, err, "missing file yields defaults")
	assert.Equal(t, Default(), cfg)

	path := filepath.Join(dir, DefaultFileName)
	require.NoError(t, os.WriteFile(path, []byte("completionMode: remove\n"), 0o644))
	cfg, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, CompletionRemove, cfg.CompletionMode)

	require.NoError(t, os.WriteFile(path, []byte("completionMode: hide\n"), 0o644))
	cfg, err = Load(path)
	assert.True(t, errors.Is(err, ErrInvalidConfig))
	assert.Equal(t, Default(), cfg)
}
