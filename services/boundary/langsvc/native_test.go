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
	"testing"

	"github.com/AleutianAI/tsboundary/services/boundary/analysis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scopeSource = `/** Says alpha. */
export function alpha(): void {}
function outer(beta: number) {
	const gamma = 1;
	gam;
}
`

const memberSource = `export class Player {
	Name = "";
	Kick(): void {}
	static Create(): Player { return new Player(); }
}
const player = new Player();
player.Ki;
`

func TestNativeService_SyntaxDiagnostics(t *testing.T) {
	prog := newTestProgram(t, map[string]string{
		"src/broken.ts": "const x = ;\n",
		"src/fine.ts":   "const y = 1;\n",
	})
	svc := NewNativeService(prog)

	diags, err := svc.GetSemanticDiagnostics(context.Background(), "src/broken.ts")
	require.NoError(t, err)
	require.NotEmpty(t, diags)
	for _, d := range diags {
		assert.Equal(t, CodeSyntaxError, d.Code)
		assert.Equal(t, analysis.CategoryError, d.Category)
		assert.Equal(t, "src/broken.ts", d.File)
		assert.NotEmpty(t, d.Message)
	}

	diags, err = svc.GetSemanticDiagnostics(context.Background(), "src/fine.ts")
	require.NoError(t, err)
	assert.Empty(t, diags)

	_, err = svc.GetSemanticDiagnostics(context.Background(), "src/missing.ts")
	assert.ErrorIs(t, err, ErrNotAnalyzable)
}

func TestNativeService_ScopeCompletions(t *testing.T) {
	prog := newTestProgram(t, map[string]string{
		"src/main.ts": scopeSource,
		"src/util.ts": "export function helper(): void {}\nexport default class Thing {}\n",
	})
	svc := NewNativeService(prog)

	info, err := svc.GetCompletionsAtPosition(context.Background(), "src/main.ts", offsetOf(t, scopeSource, "\tgam", 0))
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.False(t, info.IsMemberCompletion)

	names := entryNames(info)
	for _, want := range []string{"alpha", "outer", "beta", "gamma", "$SERVER", "helper"} {
		assert.Contains(t, names, want)
	}
	assert.NotContains(t, names, "default")

	gamma := findEntry(t, info, "gamma")
	assert.Equal(t, sortLocal, gamma.SortText)
	assert.Equal(t, "const", gamma.Kind)
	assert.Empty(t, gamma.Source)

	assert.Equal(t, sortGlobal, findEntry(t, info, "$SERVER").SortText)

	helper := findEntry(t, info, "helper")
	assert.Equal(t, sortAutoImport, helper.SortText)
	assert.Equal(t, "src/util.ts", helper.Source)
	assert.Equal(t, "function", helper.Kind)
	require.NotNil(t, helper.Symbol)
}

func TestNativeService_MemberCompletions(t *testing.T) {
	prog := newTestProgram(t, map[string]string{"src/player.ts": memberSource})
	svc := NewNativeService(prog)

	info, err := svc.GetCompletionsAtPosition(context.Background(), "src/player.ts", offsetOf(t, memberSource, "player.Ki", 0))
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.True(t, info.IsMemberCompletion)

	names := entryNames(info)
	assert.Contains(t, names, "Kick")
	assert.Contains(t, names, "Name")
	assert.NotContains(t, names, "Create", "static members are not instance members")
	assert.Equal(t, "method", findEntry(t, info, "Kick").Kind)
}

func TestNativeService_CompletionEntryDetails(t *testing.T) {
	prog := newTestProgram(t, map[string]string{"src/main.ts": scopeSource})
	svc := NewNativeService(prog)
	pos := offsetOf(t, scopeSource, "\tgam", 0)

	details, err := svc.GetCompletionEntryDetails(context.Background(), "src/main.ts", pos, "alpha")
	require.NoError(t, err)
	require.NotNil(t, details)
	assert.Equal(t, "alpha", details.Name)
	assert.Equal(t, "(function) alpha", details.Display)
	assert.Equal(t, "Says alpha.", details.Documentation)

	details, err = svc.GetCompletionEntryDetails(context.Background(), "src/main.ts", pos, "nothing")
	require.NoError(t, err)
	assert.Nil(t, details)
}

func TestNativeService_QuickInfo(t *testing.T) {
	src := `/**
 * Saves everything.
 * @server
 */
export function saveAll(): void {}
saveAll();
`
	prog := newTestProgram(t, map[string]string{"src/main.ts": src})
	svc := NewNativeService(prog)

	info, err := svc.GetQuickInfoAtPosition(context.Background(), "src/main.ts", offsetOf(t, src, "}\nsave", 0))
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.Equal(t, "function", info.Kind)
	assert.Equal(t, "(function) saveAll", info.Display)
	assert.Equal(t, "Saves everything.", info.Documentation)
	assert.Equal(t, []TagInfo{{Name: "server"}}, info.Tags)
	assert.Equal(t, "saveAll", src[info.Span.Start:info.Span.End])

	info, err = svc.GetQuickInfoAtPosition(context.Background(), "src/main.ts", 0)
	require.NoError(t, err)
	assert.Nil(t, info, "nothing to describe inside a comment")
}

func TestNativeService_NoCodeFixes(t *testing.T) {
	prog := newTestProgram(t, map[string]string{"src/main.ts": scopeSource})
	svc := NewNativeService(prog)

	fixes, err := svc.GetCodeFixesAtPosition(context.Background(), "src/main.ts", 0, 1, nil)
	require.NoError(t, err)
	assert.Empty(t, fixes)

	_, err = svc.GetCodeFixesAtPosition(context.Background(), "src/other.ts", 0, 1, nil)
	assert.ErrorIs(t, err, ErrNotAnalyzable)
}
