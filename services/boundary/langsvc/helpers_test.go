// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package langsvc

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"strings"
	"testing"

	"github.com/AleutianAI/tsboundary/services/boundary/ast"
	"github.com/AleutianAI/tsboundary/services/boundary/checker"
	"github.com/AleutianAI/tsboundary/services/boundary/config"
	"github.com/stretchr/testify/require"
)

const airshipTypes = `declare const $SERVER: boolean;
declare const $CLIENT: boolean;
declare function Server(): MethodDecorator;
declare function Client(): MethodDecorator;
declare function Host(): MethodDecorator;
declare namespace Game {
	function IsServer(): boolean;
	function IsClient(): boolean;
}
declare abstract class AirshipBehaviour {}
`

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestProgram binds sources together with the Airship declarations.
func newTestProgram(t *testing.T, sources map[string]string) *checker.Program {
	t.Helper()
	all := map[string]string{"types/airship.d.ts": airshipTypes}
	for p, s := range sources {
		all[p] = s
	}
	paths := make([]string, 0, len(all))
	for p := range all {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	parser := ast.NewParser()
	files := make([]*ast.SourceFile, 0, len(paths))
	for _, p := range paths {
		f, err := parser.ParseString(context.Background(), p, all[p])
		require.NoError(t, err)
		files = append(files, f)
	}
	prog, err := checker.NewProgram(files...)
	require.NoError(t, err)
	return prog
}

// newTestPlugin decorates a native service over sources.
func newTestPlugin(t *testing.T, cfg config.PluginConfig, sources map[string]string) (LanguageService, *Plugin) {
	t.Helper()
	prog := newTestProgram(t, sources)
	p := NewPlugin(cfg, WithPluginLogger(discardLogger()))
	svc, err := p.Create(NewNativeService(prog, WithNativeLogger(discardLogger())))
	require.NoError(t, err)
	return svc, p
}

// offsetOf returns the offset just after the first occurrence of marker in
// the source, minus back bytes.
func offsetOf(t *testing.T, src, marker string, back int) int {
	t.Helper()
	i := strings.Index(src, marker)
	require.GreaterOrEqual(t, i, 0, "marker %q not found", marker)
	return i + len(marker) - back
}

func entryNames(info *CompletionInfo) []string {
	if info == nil {
		return nil
	}
	out := make([]string, len(info.Entries))
	for i, e := range info.Entries {
		out[i] = e.Name
	}
	return out
}

func findEntry(t *testing.T, info *CompletionInfo, name string) CompletionEntry {
	t.Helper()
	require.NotNil(t, info)
	for _, e := range info.Entries {
		if e.Name == name {
			return e
		}
	}
	require.Failf(t, "entry not found", "%s not in %v", name, entryNames(info))
	return CompletionEntry{}
}
