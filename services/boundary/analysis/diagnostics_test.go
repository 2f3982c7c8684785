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
	"testing"

	"github.com/AleutianAI/tsboundary/services/boundary/ast"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const storeSource = `class Store {
	@Server()
	Save(): void {}

	@Host()
	Sync(): void {}

	Load(): void {
		this.Save();
	}

	@Server()
	Flush(): void {
		this.Save();
		this.Sync();
	}

	@Host()
	Replicate(): void {
		this.Save();
		this.Sync();
	}
}
`

func TestDiagnose_MethodMismatch(t *testing.T) {
	a, prog := newTestAnalyzer(t, map[string]string{"src/store.ts": storeSource})
	f := mustFile(t, prog, "src/store.ts")

	diags := a.Diagnose(context.Background(), f)
	require.Len(t, diags, 2)

	load := diags[0]
	assert.Equal(t, CodeNetworkBoundaryMismatch, load.Code)
	assert.Equal(t, CategoryWarning, load.Category)
	assert.Equal(t, "src/store.ts", load.File)
	assert.Equal(t, "this.Save()", string(f.Content[load.Start:load.End()]))
	assert.Equal(t, "Server-only method 'Save' cannot be called from a Shared context", load.Message)
	require.NotNil(t, load.NetworkBoundary)
	assert.Equal(t, Server, load.NetworkBoundary.Node)
	assert.Equal(t, Shared, load.NetworkBoundary.Parent)
	assert.True(t, load.NetworkBoundary.ParentNode.Is(ast.KindMethodDefinition))

	flush := diags[1]
	assert.Equal(t, "Host-only method 'Sync' cannot be called from a Server context", flush.Message)
	assert.Equal(t, Host, flush.NetworkBoundary.Node)
	assert.Equal(t, Server, flush.NetworkBoundary.Parent)
}

func TestDiagnose_EndToEndWrapClearsMismatch(t *testing.T) {
	before := `/** @server */
function saveAll(): void {}
saveAll();
`
	after := `/** @server */
function saveAll(): void {}
if ($SERVER) {
	saveAll();
}
`
	a, prog := newTestAnalyzer(t, map[string]string{"src/main.ts": before})
	diags := a.Diagnose(context.Background(), mustFile(t, prog, "src/main.ts"))
	require.Len(t, diags, 1)
	assert.Equal(t, "saveAll()", diags[0].Node.Text())
	assert.Equal(t, "Server-only function 'saveAll' cannot be called from a Shared context", diags[0].Message)

	a, prog = newTestAnalyzer(t, map[string]string{"src/main.ts": after})
	assert.Empty(t, a.Diagnose(context.Background(), mustFile(t, prog, "src/main.ts")))
}

func TestDiagnose_ImplicitDirectiveGuards(t *testing.T) {
	a, prog := newTestAnalyzer(t, map[string]string{"src/main.ts": `/** @client */
declare function draw(): void;
function frame() {
	if (Game.IsServer()) return;
	draw();
}
if (!Game.IsClient()) {
	draw();
}
`})
	diags := a.Diagnose(context.Background(), mustFile(t, prog, "src/main.ts"))
	require.Len(t, diags, 1)
	assert.Equal(t, "Client-only function 'draw' cannot be called from a Server context", diags[0].Message)
}

func TestDiagnose_GuardsWithElseAndSwitchClauses(t *testing.T) {
	a, prog := newTestAnalyzer(t, map[string]string{"src/main.ts": `/** @client */
declare function render(): void;
declare function prepare(): void;
function frame() {
	if ($SERVER) {
		return;
	} else {
		prepare();
	}
	render();
}
function step(mode: number) {
	switch (mode) {
		case 1:
			if ($SERVER) return;
			render();
			break;
		default:
			if ($CLIENT) return;
			render();
	}
}
`})
	f := mustFile(t, prog, "src/main.ts")
	diags := a.Diagnose(context.Background(), f)
	require.Len(t, diags, 1, "only the call after the client guard in default is reported")
	assert.Equal(t, "Client-only function 'render' cannot be called from a Server context", diags[0].Message)
	assert.Equal(t, 20, f.PositionOf(diags[0].Start).Line+1)
}

func TestDiagnose_UnreachableDirectiveCheck(t *testing.T) {
	a, prog := newTestAnalyzer(t, map[string]string{"src/main.ts": `if ($SERVER) {
	if ($CLIENT) {}
	if (!$CLIENT) {}
}
`})
	f := mustFile(t, prog, "src/main.ts")
	diags := a.Diagnose(context.Background(), f)
	require.Len(t, diags, 1)

	d := diags[0]
	assert.Equal(t, CodeNetworkBoundaryMismatch, d.Code)
	assert.Equal(t, "Client check can never pass in a Server context", d.Message)
	assert.Equal(t, "($CLIENT)", string(f.Content[d.Start:d.End()]))
	assert.True(t, d.Node.Is(ast.KindIfStatement))
	assert.Equal(t, Client, d.NetworkBoundary.Node)
	assert.Equal(t, Server, d.NetworkBoundary.Parent)
}

func TestDiagnose_Contradictions(t *testing.T) {
	a, prog := newTestAnalyzer(t, map[string]string{"src/main.ts": `/** @server */
declare function persist(): void;
if ($SERVER && $CLIENT) {
	persist();
}
const mode = $CLIENT && !$CLIENT ? 1 : 2;
`})
	diags := a.Diagnose(context.Background(), mustFile(t, prog, "src/main.ts"))
	assert.Equal(t, []int{CodeDirectiveContradiction, CodeDirectiveContradiction}, codes(diags),
		"calls inside a contradiction are not reported again")
}

func TestDiagnose_UnresolvedCalleesAreIgnored(t *testing.T) {
	a, prog := newTestAnalyzer(t, map[string]string{"src/main.ts": `missing();
const obj = {} as any;
obj.thing();
(() => 1)();
`})
	assert.Empty(t, a.Diagnose(context.Background(), mustFile(t, prog, "src/main.ts")))
}

func TestCheckImports(t *testing.T) {
	cache := NewFileBoundaryCache([]string{"src/server"}, []string{"src/client"})
	a, prog := newTestAnalyzer(t, map[string]string{
		"src/server/db.ts":  "export const db = 1;\nexport type Row = number;\n",
		"src/shared/fmt.ts": "export const fmt = 1;\n",
		"src/client/ui.ts": `import { db } from "../server/db";
import type { Row } from "../server/db";
import { fmt } from "../shared/fmt";
import { nothing } from "./missing";
`,
	}, WithFileBoundaries(cache))

	diags := a.CheckImports(mustFile(t, prog, "src/client/ui.ts"))
	require.Len(t, diags, 1)
	assert.Equal(t, CodeImportBoundary, diags[0].Code)
	assert.Equal(t, "Cannot import Server module from Client", diags[0].Message)
	assert.Equal(t, 0, diags[0].Start)

	assert.Empty(t, a.CheckImports(mustFile(t, prog, "src/server/db.ts")))
}

func TestCheckBehaviours(t *testing.T) {
	a, prog := newTestAnalyzer(t, map[string]string{"src/door.ts": `class Base extends AirshipBehaviour {}
export default class Door extends AirshipBehaviour {}
export abstract class Prop extends AirshipBehaviour {}
export class Lamp extends Base {}
export class Plain {}
`})
	f := mustFile(t, prog, "src/door.ts")

	behaviours := a.Behaviours(f)
	names := make([]string, len(behaviours))
	for i, b := range behaviours {
		names[i] = b.Name
	}
	assert.Equal(t, []string{"Base", "Door", "Prop", "Lamp"}, names)

	diags := a.CheckBehaviours(f)
	require.Len(t, diags, 2)
	assert.Equal(t, CodeBehaviourDeclaration, diags[0].Code)
	assert.Equal(t, CategoryError, diags[0].Category)
	assert.Equal(t, "AirshipBehaviour 'Base' must have a default or abstract modifier", diags[0].Message)
	assert.Equal(t, "Base", string(f.Content[diags[0].Start:diags[0].End()]))
	assert.Equal(t, "AirshipBehaviour 'Lamp' must have a default or abstract modifier", diags[1].Message)
}

func TestCheckBehaviours_UnrelatedBaseClass(t *testing.T) {
	a, prog := newTestAnalyzer(t, map[string]string{"src/door.ts": "class Door extends Unknown {}\n"})
	assert.Empty(t, a.CheckBehaviours(mustFile(t, prog, "src/door.ts")))
}
