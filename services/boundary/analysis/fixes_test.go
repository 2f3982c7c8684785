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
	"errors"
	"testing"

	"github.com/AleutianAI/tsboundary/services/boundary/ast"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixNames(fixes []CodeFix) []string {
	out := make([]string, len(fixes))
	for i, f := range fixes {
		out[i] = f.FixName
	}
	return out
}

// applyFix applies a single-file fix to the file content.
func applyFix(t *testing.T, f *ast.SourceFile, fix CodeFix) string {
	t.Helper()
	require.Len(t, fix.Changes, 1)
	require.Equal(t, f.Path, fix.Changes[0].FileName)
	out, err := ApplyTextChanges(f.Content, fix.Changes[0].TextChanges)
	require.NoError(t, err)
	return string(out)
}

func findFix(t *testing.T, fixes []CodeFix, name string) CodeFix {
	t.Helper()
	for _, f := range fixes {
		if f.FixName == name {
			return f
		}
	}
	require.Failf(t, "fix not found", "%s not in %v", name, fixNames(fixes))
	return CodeFix{}
}

func TestCodeFixes_SharedMethod(t *testing.T) {
	a, prog := newTestAnalyzer(t, map[string]string{"src/store.ts": storeSource})
	f := mustFile(t, prog, "src/store.ts")
	diags := a.Diagnose(context.Background(), f)
	require.NotEmpty(t, diags)

	fixes := a.CodeFixes(context.Background(), diags[0])
	assert.Equal(t, []string{FixBoundaryMethod, FixBoundaryWithDirectiveWrap}, fixNames(fixes))

	method := fixes[0]
	assert.Equal(t, "Set method 'Load' to Server-only", method.Description)
	assert.Contains(t, applyFix(t, f, method), "@Server() Load(): void {")

	wrap := fixes[1]
	assert.Equal(t, "Add Server check before statement", wrap.Description)
	assert.Contains(t, applyFix(t, f, wrap), "if ($SERVER) this.Save();")

	assert.Empty(t, a.CodeFixes(context.Background(), diags[1]), "no fixes outside a Shared context")
}

func TestCodeFixes_WrapIsIdempotent(t *testing.T) {
	src := `/** @server */
function saveAll(): void {}
saveAll();
`
	a, prog := newTestAnalyzer(t, map[string]string{"src/main.ts": src})
	f := mustFile(t, prog, "src/main.ts")
	diags := a.Diagnose(context.Background(), f)
	require.Len(t, diags, 1)

	wrap := findFix(t, a.CodeFixes(context.Background(), diags[0]), FixBoundaryWithDirectiveWrap)
	edited := applyFix(t, f, wrap)
	assert.Contains(t, edited, "if ($SERVER) saveAll();")

	a, prog = newTestAnalyzer(t, map[string]string{"src/main.ts": edited})
	assert.Empty(t, a.Diagnose(context.Background(), mustFile(t, prog, "src/main.ts")))
}

func TestCodeFixes_NullableCall(t *testing.T) {
	src := `/** @server */
declare function findPlayer(): Player | undefined;
const player = findPlayer();
print(findPlayer());
const name = findPlayer().name;
`
	a, prog := newTestAnalyzer(t, map[string]string{"src/main.ts": src})
	f := mustFile(t, prog, "src/main.ts")
	diags := a.Diagnose(context.Background(), f)
	require.Len(t, diags, 3)

	fixes := a.CodeFixes(context.Background(), diags[0])
	assert.Equal(t, []string{FixBoundaryWithConditional}, fixNames(fixes), "declarations are not wrapped in guards")
	assert.Contains(t, applyFix(t, f, fixes[0]), "const player = $SERVER ? findPlayer() : undefined;")

	fixes = a.CodeFixes(context.Background(), diags[1])
	assert.Equal(t, []string{FixBoundaryWithConditional, FixBoundaryWithDirectiveWrap}, fixNames(fixes))
	assert.Contains(t, applyFix(t, f, fixes[0]), "print($SERVER ? findPlayer() : undefined);")

	fixes = a.CodeFixes(context.Background(), diags[2])
	assert.Contains(t, applyFix(t, f, findFix(t, fixes, FixBoundaryWithConditional)),
		"const name = ($SERVER ? findPlayer() : undefined).name;")

	edited := applyFix(t, f, a.CodeFixes(context.Background(), diags[0])[0])
	a, prog = newTestAnalyzer(t, map[string]string{"src/main.ts": edited})
	assert.Len(t, a.Diagnose(context.Background(), mustFile(t, prog, "src/main.ts")), 2,
		"the rewritten call is no longer reported")
}

func TestCodeFixes_ReturnAndDeclaration(t *testing.T) {
	src := `/** @server */
declare function load(): number;
function read(): number {
	return load();
}
function first(mode: number): void {
	switch (mode) {
		case 1:
			throw load();
	}
	const x = load();
}
`
	a, prog := newTestAnalyzer(t, map[string]string{"src/main.ts": src})
	f := mustFile(t, prog, "src/main.ts")
	diags := a.Diagnose(context.Background(), f)
	require.Len(t, diags, 3)

	fixes := a.CodeFixes(context.Background(), diags[0])
	assert.Equal(t, []string{FixBoundaryWithDirectiveWrap}, fixNames(fixes))
	assert.Contains(t, applyFix(t, f, fixes[0]), "\tif ($SERVER) return load();\n")

	fixes = a.CodeFixes(context.Background(), diags[1])
	assert.Equal(t, []string{FixBoundaryWithDirectiveWrap}, fixNames(fixes))
	assert.Contains(t, applyFix(t, f, fixes[0]), "\t\t\tif ($SERVER) throw load();\n")

	assert.Empty(t, a.CodeFixes(context.Background(), diags[2]),
		"a declaration is not wrapped and a non-nullable call gets no conditional")
}

func TestCodeFixes_Conjunction(t *testing.T) {
	src := `declare const ready: boolean;
/** @client */
declare function hasFocus(): boolean;
if (hasFocus()) {}
if (ready || hasFocus()) {}
`
	a, prog := newTestAnalyzer(t, map[string]string{"src/main.ts": src})
	f := mustFile(t, prog, "src/main.ts")
	diags := a.Diagnose(context.Background(), f)
	require.Len(t, diags, 2)

	fixes := a.CodeFixes(context.Background(), diags[0])
	assert.Equal(t, []string{FixBoundaryWithConjunction, FixBoundaryWithDirectiveWrap}, fixNames(fixes))
	assert.Equal(t, "Add Client check to condition", fixes[0].Description)
	edited := applyFix(t, f, fixes[0])
	assert.Contains(t, edited, "if ($CLIENT && hasFocus()) {}")

	fixes = a.CodeFixes(context.Background(), diags[1])
	assert.Contains(t, applyFix(t, f, findFix(t, fixes, FixBoundaryWithConjunction)),
		"if ($CLIENT && (ready || hasFocus())) {}")

	a, prog = newTestAnalyzer(t, map[string]string{"src/main.ts": edited})
	assert.Len(t, a.Diagnose(context.Background(), mustFile(t, prog, "src/main.ts")), 1)
}

func TestCodeFixes_Behaviour(t *testing.T) {
	src := `class Base extends AirshipBehaviour {}
export class Lamp extends Base {}
`
	a, prog := newTestAnalyzer(t, map[string]string{"src/lamp.ts": src})
	f := mustFile(t, prog, "src/lamp.ts")
	diags := a.CheckBehaviours(f)
	require.Len(t, diags, 2)

	base := a.CodeFixes(context.Background(), diags[0])
	assert.Equal(t, []string{FixExportAsComponent, FixExportAsAbstract}, fixNames(base))
	assert.Equal(t, "Mark all AirshipBehaviours as component (export default)", base[0].FixAllDescription)
	assert.Contains(t, applyFix(t, f, base[0]), "export default class Base extends AirshipBehaviour {}")
	assert.Contains(t, applyFix(t, f, base[1]), "\nexport class Lamp")
	assert.Contains(t, applyFix(t, f, base[1]), "abstract class Base extends")

	lamp := a.CodeFixes(context.Background(), diags[1])
	require.Len(t, lamp, 2)
	assert.Contains(t, applyFix(t, f, lamp[0]), "export default class Lamp extends Base {}")
	assert.Contains(t, applyFix(t, f, lamp[1]), "export abstract class Lamp extends Base {}")

	edited := applyFix(t, f, lamp[1])
	a, prog = newTestAnalyzer(t, map[string]string{"src/lamp.ts": edited})
	assert.Len(t, a.CheckBehaviours(mustFile(t, prog, "src/lamp.ts")), 1)
}

func TestApplyTextChanges(t *testing.T) {
	content := []byte("abcdef")

	out, err := ApplyTextChanges(content, []TextChange{
		{Span: ast.Span{Start: 4, End: 6}, NewText: "XY"},
		{Span: ast.Span{Start: 0, End: 0}, NewText: "<"},
		{Span: ast.Span{Start: 0, End: 0}, NewText: "<<"},
		{Span: ast.Span{Start: 2, End: 3}, NewText: ""},
	})
	require.NoError(t, err)
	assert.Equal(t, "<<<abdXY", string(out))

	_, err = ApplyTextChanges(content, []TextChange{
		{Span: ast.Span{Start: 1, End: 4}},
		{Span: ast.Span{Start: 3, End: 5}},
	})
	assert.True(t, errors.Is(err, ErrOverlappingChanges))

	_, err = ApplyTextChanges(content, []TextChange{{Span: ast.Span{Start: 5, End: 9}}})
	assert.True(t, errors.Is(err, ErrSpanOutOfRange))

	out, err = ApplyTextChanges(content, nil)
	require.NoError(t, err)
	assert.Equal(t, "abcdef", string(out))
}
