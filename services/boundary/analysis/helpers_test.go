// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package analysis

import (
	"context"
	"sort"
	"testing"

	"github.com/AleutianAI/tsboundary/services/boundary/ast"
	"github.com/AleutianAI/tsboundary/services/boundary/checker"
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

// newTestAnalyzer binds sources together with the Airship declarations and
// returns an analyzer over them.
func newTestAnalyzer(t *testing.T, sources map[string]string, opts ...AnalyzerOption) (*Analyzer, *checker.Program) {
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

	c := prog.Checker()
	symbols := NewSymbolDirectory(DefaultDirectoryNames())
	symbols.Refresh(c)
	return NewAnalyzer(c, symbols, opts...), prog
}

func mustFile(t *testing.T, prog *checker.Program, path string) *ast.SourceFile {
	t.Helper()
	f, err := prog.File(path)
	require.NoError(t, err)
	return f
}

// findNode returns the first node of kind whose text is exactly text.
func findNode(t *testing.T, f *ast.SourceFile, kind, text string) *ast.Node {
	t.Helper()
	var found *ast.Node
	f.Root.Walk(func(n *ast.Node) bool {
		if found == nil && n.Kind == kind && n.Text() == text {
			found = n
		}
		return found == nil
	})
	require.NotNil(t, found, "no %s with text %q", kind, text)
	return found
}

// findCall returns the call expression with the given text.
func findCall(t *testing.T, f *ast.SourceFile, text string) *ast.Node {
	t.Helper()
	return findNode(t, f, ast.KindCallExpression, text)
}

func codes(diags []Diagnostic) []int {
	out := make([]int, len(diags))
	for i, d := range diags {
		out[i] = d.Code
	}
	return out
}
