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
	"testing"

	"github.com/AleutianAI/tsboundary/services/boundary/ast"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const resolverSource = `declare function work(name: string): void;
declare const ready: boolean;

function serverGuard() {
	if ($SERVER) return;
	work("after server guard");
}

function clientGuard() {
	if ($CLIENT) {
		throw "client";
	}
	work("after client guard");
}

function bothGuards() {
	if ($SERVER) return;
	if (!$SERVER) return;
	work("unreachable");
}

function complexGuard() {
	if ($SERVER && ready) return;
	work("after complex guard");
}

function guardWithElse() {
	if ($SERVER) return; else work("else of guard");
	work("after guard with else");
}

function guardWithBlockElse() {
	if ($SERVER) {
		return;
	} else {
		work("prepare");
	}
	work("after guard with block else");
}

function guardInSwitch(mode: number) {
	switch (mode) {
		case 1:
			if ($SERVER) return;
			work("after guard in case");
			break;
		default:
			if ($CLIENT) {
				throw "server only";
			}
			work("after guard in default");
	}
}

if ($SERVER) {
	work("server branch");
} else {
	work("client branch");
}

if ($SERVER && ready) {
	work("complex branch");
} else {
	work("complex else");
}

if ($SERVER && $CLIENT) {
	work("contradiction");
}

const t1 = $CLIENT ? work("ternary true") : work("ternary false");
const t2 = $CLIENT && ready ? work("complex true") : work("complex false");
const s1 = $SERVER && work("and right");
const s2 = $SERVER || work("or right");

/** @client */
function render() {
	work("in client function");
}

class Door {
	@Server()
	Open() {
		work("in server method");
		if ($CLIENT) {
			work("client inside server method");
		}
	}

	Close() {
		work("in shared method");
	}
}

work("top level");
`

func resolveCall(t *testing.T, a *Analyzer, f *ast.SourceFile, arg string) ContainingBoundaryInfo {
	t.Helper()
	return a.ResolveContainingBoundary(findCall(t, f, `work("`+arg+`")`))
}

func TestResolveContainingBoundary(t *testing.T) {
	a, prog := newTestAnalyzer(t, map[string]string{"src/main.ts": resolverSource})
	f := mustFile(t, prog, "src/main.ts")

	tests := []struct {
		arg      string
		want     NetworkBoundary
		nodeKind string
	}{
		{"after server guard", Client, ast.KindIfStatement},
		{"after client guard", Server, ast.KindIfStatement},
		{"unreachable", Invalid, ast.KindIfStatement},
		{"after complex guard", Shared, ""},
		{"else of guard", Client, ast.KindIfStatement},
		{"after guard with else", Client, ast.KindIfStatement},
		{"prepare", Client, ast.KindIfStatement},
		{"after guard with block else", Client, ast.KindIfStatement},
		{"after guard in case", Client, ast.KindIfStatement},
		{"after guard in default", Server, ast.KindIfStatement},
		{"server branch", Server, ast.KindIfStatement},
		{"client branch", Client, ast.KindIfStatement},
		{"complex branch", Server, ast.KindIfStatement},
		{"complex else", Shared, ""},
		{"contradiction", Invalid, ast.KindIfStatement},
		{"ternary true", Client, ast.KindTernaryExpression},
		{"ternary false", Server, ast.KindTernaryExpression},
		{"complex true", Client, ast.KindTernaryExpression},
		{"complex false", Shared, ""},
		{"and right", Server, ast.KindBinaryExpression},
		{"or right", Client, ast.KindBinaryExpression},
		{"in client function", Client, ast.KindFunctionDeclaration},
		{"in server method", Server, ast.KindMethodDefinition},
		{"client inside server method", Client, ast.KindIfStatement},
		{"in shared method", Shared, ast.KindMethodDefinition},
		{"top level", Shared, ""},
	}
	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			info := resolveCall(t, a, f, tt.arg)
			assert.Equal(t, tt.want, info.Boundary)
			if tt.nodeKind == "" {
				assert.Nil(t, info.Node)
			} else {
				require.NotNil(t, info.Node)
				assert.Equal(t, tt.nodeKind, info.Node.Kind)
			}
		})
	}
}

func TestResolveContainingBoundary_Deterministic(t *testing.T) {
	a, prog := newTestAnalyzer(t, map[string]string{"src/main.ts": resolverSource})
	f := mustFile(t, prog, "src/main.ts")

	f.Root.Walk(func(n *ast.Node) bool {
		first := a.ResolveContainingBoundary(n)
		second := a.ResolveContainingBoundary(n)
		assert.Equal(t, first, second)
		assert.Contains(t, []NetworkBoundary{Shared, Server, Client, Invalid}, first.Boundary)
		return true
	})
}

func TestResolveContainingBoundary_GuardNodeIsNearest(t *testing.T) {
	a, prog := newTestAnalyzer(t, map[string]string{"src/main.ts": `declare function work(): void;
if ($CLIENT) return;
if ($CLIENT) return;
work();
`})
	f := mustFile(t, prog, "src/main.ts")

	info := a.ResolveContainingBoundary(findCall(t, f, "work()"))
	assert.Equal(t, Server, info.Boundary)
	require.NotNil(t, info.Node)
	assert.Equal(t, 3, f.PositionOf(info.Node.Start).Line+1, "nearest guard")
}

func TestResolveContainingBoundary_FileDefault(t *testing.T) {
	cache := NewFileBoundaryCache([]string{"src/server"}, []string{"src/client"})
	a, prog := newTestAnalyzer(t, map[string]string{
		"src/server/db.ts": `declare function work(): void;
class Db {
	Flush() { work(); }
}
work();
`,
		"src/client/ui.ts": "declare function work(): void;\nif ($SERVER) { work(); }\n",
	}, WithFileBoundaries(cache))

	db := mustFile(t, prog, "src/server/db.ts")
	var calls []*ast.Node
	db.Root.Walk(func(n *ast.Node) bool {
		if n.Is(ast.KindCallExpression) {
			calls = append(calls, n)
		}
		return true
	})
	require.Len(t, calls, 2)

	inMethod := a.ResolveContainingBoundary(calls[0])
	assert.Equal(t, Server, inMethod.Boundary, "Shared method falls back to the file default")
	assert.True(t, inMethod.Node.Is(ast.KindMethodDefinition))

	topLevel := a.ResolveContainingBoundary(calls[1])
	assert.Equal(t, Server, topLevel.Boundary)
	assert.Nil(t, topLevel.Node)

	ui := mustFile(t, prog, "src/client/ui.ts")
	assert.Equal(t, Server, a.ResolveContainingBoundary(findCall(t, ui, "work()")).Boundary,
		"a directive is more specific than the file default")
	assert.Equal(t, Client, a.FileBoundary("src/client/ui.ts"))
}

func TestResolveContainingBoundary_NilNode(t *testing.T) {
	a, _ := newTestAnalyzer(t, nil)
	info := a.ResolveContainingBoundary(nil)
	assert.Equal(t, Shared, info.Boundary)
	assert.Nil(t, info.Node)
}

func TestClassifyMethod(t *testing.T) {
	a, prog := newTestAnalyzer(t, map[string]string{
		"src/deco.ts": "export { Client as OnClient };\n",
		"src/main.ts": `import { OnClient } from "./deco";
function Server() { return (target: unknown) => {}; }

class Panel {
	@OnClient()
	Aliased() {}

	@Server()
	Shadowed() {}

	/** @server */
	Documented() {}

	/**
	 * Runs through the host executor.
	 * @host
	 */
	Hosted() {}

	Plain() {}
}
`,
	})
	f := mustFile(t, prog, "src/main.ts")

	method := func(name string) *ast.Node {
		id := findNode(t, f, ast.KindPropertyIdentifier, name)
		require.True(t, id.Parent.Is(ast.KindMethodDefinition))
		return id.Parent
	}

	assert.Equal(t, Client, a.ClassifyMethod(method("Aliased")), "aliased decorator resolves by identity")
	assert.Equal(t, Shared, a.ClassifyMethod(method("Shadowed")), "local function named Server is not the decorator")
	assert.Equal(t, Server, a.ClassifyMethod(method("Documented")))
	assert.Equal(t, Host, a.ClassifyMethod(method("Hosted")))
	assert.Equal(t, Shared, a.ClassifyMethod(method("Plain")))
}

func TestSymbolBoundary(t *testing.T) {
	cache := NewFileBoundaryCache([]string{"src/server"}, nil)
	a, prog := newTestAnalyzer(t, map[string]string{
		"src/server/api.ts": `export function Persist() {}
/** @shared */
export function Format() {}
`,
		"src/main.ts": `import { Persist, Format } from "./server/api";
/** @client */
export const draw = () => {};
Persist();
Format();
draw();
`,
	}, WithFileBoundaries(cache))
	f := mustFile(t, prog, "src/main.ts")

	sym := func(call string) NetworkBoundary {
		return a.SymbolBoundary(a.CalleeOf(findCall(t, f, call)))
	}
	assert.Equal(t, Server, sym("Persist()"), "declaring file default")
	assert.Equal(t, Shared, sym("Format()"), "explicit @shared wins")
	assert.Equal(t, Client, sym("draw()"))
	assert.Equal(t, Shared, a.SymbolBoundary(nil))
}
