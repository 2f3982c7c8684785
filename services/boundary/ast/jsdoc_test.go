// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJSDoc(t *testing.T) {
	doc := ParseJSDoc(`/**
 * Spawns the player.
 * Runs once.
 * @server
 * @deprecated use SpawnAll
 *   instead
 */`)
	require.NotNil(t, doc)
	assert.Equal(t, "Spawns the player.\nRuns once.", doc.Description)
	require.Len(t, doc.Tags, 2)
	assert.Equal(t, JSDocTag{Name: "server"}, doc.Tags[0])
	assert.Equal(t, JSDocTag{Name: "deprecated", Text: "use SpawnAll instead"}, doc.Tags[1])
	assert.True(t, doc.HasTag("Server"))
	assert.False(t, doc.HasTag("client"))
}

func TestParseJSDoc_NotDocComment(t *testing.T) {
	assert.Nil(t, ParseJSDoc("// @server"))
	assert.Nil(t, ParseJSDoc("/* @server */"))
}

func TestLeadingJSDoc_ExportedFunction(t *testing.T) {
	file := mustParse(t, "src/net.ts", `/** @client */
export function render() {}
`)
	fn := findFirst(file.Root, KindFunctionDeclaration)
	require.NotNil(t, fn)

	doc := DocOf(fn)
	require.NotNil(t, doc)
	assert.True(t, doc.HasTag("client"))
}

func TestLeadingJSDoc_ConstDeclarator(t *testing.T) {
	file := mustParse(t, "src/net.ts", `/** @server */
const save = () => {};
`)
	decl := findFirst(file.Root, KindVariableDeclarator)
	require.NotNil(t, decl)
	assert.True(t, DocOf(decl).HasTag("server"))
}

func TestLeadingJSDoc_LineCommentIgnored(t *testing.T) {
	file := mustParse(t, "src/net.ts", `// @server
function save() {}
`)
	fn := findFirst(file.Root, KindFunctionDeclaration)
	assert.Nil(t, LeadingJSDoc(fn))
}

func TestDecorators_MethodAndDocSkipping(t *testing.T) {
	file := mustParse(t, "src/Player.ts", `class Player {
	/** @client */
	@Server()
	@Other
	Save() {}

	Load() {}
}
`)
	var save, load *Node
	file.Root.Walk(func(n *Node) bool {
		if n.Is(KindMethodDefinition) {
			switch n.Field("name").Text() {
			case "Save":
				save = n
			case "Load":
				load = n
			}
		}
		return true
	})
	require.NotNil(t, save)
	require.NotNil(t, load)

	decs := Decorators(save)
	require.Len(t, decs, 2)
	assert.Equal(t, "Server", DecoratorName(decs[0]))
	assert.Equal(t, "Server", DecoratorCallee(decs[0]).Text())
	assert.Equal(t, "Other", DecoratorName(decs[1]))
	assert.Nil(t, DecoratorCallee(decs[1]), "bare decorator has no call")

	assert.True(t, DocOf(save).HasTag("client"))
	assert.Empty(t, Decorators(load))
}
