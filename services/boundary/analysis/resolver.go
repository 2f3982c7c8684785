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
	"github.com/AleutianAI/tsboundary/services/boundary/ast"
)

// ContainingBoundaryInfo is the result of resolving the boundary around a
// node.
type ContainingBoundaryInfo struct {
	// Boundary is the most specific enclosing boundary.
	Boundary NetworkBoundary

	// Node established the boundary: a guard statement, conditional,
	// if-statement, or method declaration. Nil for the file default.
	Node *ast.Node

	// Depth is the number of ancestors visited.
	Depth int
}

// ResolveContainingBoundary determines the boundary node is guaranteed to
// run in.
//
// Description:
//
//	Walks the parent chain outward, each ancestor exactly once, and
//	returns at the first one that establishes a boundary:
//
//	  - ternary "c ? x : y": x runs in c's boundary; y runs in the opposite
//	    boundary when c is a simple directive.
//	  - "c && x": x runs in c's boundary. "c || x": x runs in the opposite
//	    boundary when c is a simple directive.
//	  - block or file: earlier early-exit guards such as
//	    "if ($SERVER) return;" exclude their boundary from the rest of
//	    the block.
//	  - if-statement: the consequence runs in the condition's boundary,
//	    Invalid when it asserts both; the else branch runs in the opposite
//	    boundary when the condition is a simple directive.
//	  - method declaration: its classified boundary, or the file default
//	    when Shared. The walk always stops at a method.
//	  - function declaration: its classified boundary when not Shared.
//
//	When nothing matches the file default applies, which is Shared unless
//	the file lives in a configured server or client directory.
//
// Inputs:
//   - node: Any node of a parsed file. Nil yields Shared.
//
// Outputs:
//   - ContainingBoundaryInfo: Never carries an unknown boundary.
func (a *Analyzer) ResolveContainingBoundary(node *ast.Node) ContainingBoundaryInfo {
	if node == nil {
		return ContainingBoundaryInfo{Boundary: Shared}
	}

	depth := 0
	prev := node
	for cur := node.Parent; cur != nil; prev, cur = cur, cur.Parent {
		depth++
		var (
			b     NetworkBoundary
			setBy *ast.Node
			ok    bool
		)
		switch {
		case cur.Is(ast.KindTernaryExpression):
			b, ok = a.branchBoundary(cur.Field("condition"), prev, cur.Field("consequence"), cur.Field("alternative"))
			setBy = cur
		case cur.Is(ast.KindBinaryExpression):
			b, ok = a.shortCircuitBoundary(cur, prev)
			setBy = cur
		case cur.Is(ast.KindStatementBlock, ast.KindProgram, ast.KindSwitchCase, ast.KindSwitchDefault):
			b, setBy, ok = a.guardBoundary(prev)
		case cur.Is(ast.KindIfStatement):
			b, ok = a.branchBoundary(cur.Field("condition"), prev, cur.Field("consequence"), cur.Field("alternative"))
			setBy = cur
		case cur.Is(ast.KindMethodDefinition):
			b = a.ClassifyMethod(cur)
			if b == Shared {
				b = a.fileBoundary(node)
			}
			return ContainingBoundaryInfo{Boundary: b, Node: cur, Depth: depth}
		case cur.Is(ast.KindFunctionDeclaration, ast.KindGeneratorFunctionDeclaration):
			b = a.ClassifyFunction(cur)
			ok = b != Shared
			setBy = cur
		}
		if ok {
			return ContainingBoundaryInfo{Boundary: b, Node: setBy, Depth: depth}
		}
	}

	return ContainingBoundaryInfo{Boundary: a.fileBoundary(node), Depth: depth}
}

func (a *Analyzer) fileBoundary(n *ast.Node) NetworkBoundary {
	if n.File == nil {
		return Shared
	}
	return a.files.BoundaryOf(n.File.Path)
}

// branchBoundary handles the consequence and alternative of an if or a
// ternary. A node inside the condition itself is not constrained.
func (a *Analyzer) branchBoundary(cond, prev, consequence, alternative *ast.Node) (NetworkBoundary, bool) {
	if cond == nil || prev == cond {
		return Shared, false
	}
	switch {
	case consequence != nil && prev == consequence:
		r := a.ParseDirectives(cond, true, true)
		if r == nil {
			return Shared, false
		}
		return r.Boundary(), true
	case alternative != nil && prev == alternative:
		r := a.ParseDirectives(cond, true, true)
		if r == nil || !r.IsSimple() {
			return Shared, false
		}
		return r.Boundary().Opposite(), true
	}
	return Shared, false
}

func (a *Analyzer) shortCircuitBoundary(bin, prev *ast.Node) (NetworkBoundary, bool) {
	if prev != bin.Field("right") {
		return Shared, false
	}
	left := bin.Field("left")
	switch bin.Operator() {
	case "&&":
		r := a.ParseDirectives(left, true, true)
		if r == nil {
			return Shared, false
		}
		return r.Boundary(), true
	case "||":
		r := a.ParseDirectives(left, true, true)
		if r == nil || !r.IsSimple() {
			return Shared, false
		}
		return r.Boundary().Opposite(), true
	}
	return Shared, false
}

// guardBoundary scans the statements preceding stmt in its block or
// switch clause for early-exit guards. The nearest guard is reported as the establishing
// node.
func (a *Analyzer) guardBoundary(stmt *ast.Node) (NetworkBoundary, *ast.Node, bool) {
	var (
		excludedServer bool
		excludedClient bool
		nearest        *ast.Node
	)
	for s := stmt.PrevSibling(); s != nil; s = s.PrevSibling() {
		if !isEarlyExitGuard(s) {
			continue
		}
		r := a.ParseDirectives(s.Field("condition"), true, true)
		if r == nil || !r.IsSimple() {
			continue
		}
		if nearest == nil {
			nearest = s
		}
		excludedServer = excludedServer || r.IsServer
		excludedClient = excludedClient || r.IsClient
	}
	switch {
	case excludedServer && excludedClient:
		return Invalid, nearest, true
	case excludedServer:
		return Client, nearest, true
	case excludedClient:
		return Server, nearest, true
	}
	return Shared, nil, false
}

// isEarlyExitGuard matches "if (c) return;", "if (c) throw e;" and the
// same with a block whose last statement exits. An else branch does not
// matter: whatever it does, code after the if only runs when c is false.
func isEarlyExitGuard(n *ast.Node) bool {
	if !n.Is(ast.KindIfStatement) {
		return false
	}
	body := n.Field("consequence")
	if body.Is(ast.KindStatementBlock) {
		stmts := body.NamedChildren()
		if len(stmts) == 0 {
			return false
		}
		body = stmts[len(stmts)-1]
	}
	return body.Is(ast.KindReturnStatement, ast.KindThrowStatement)
}

// BoundaryAt resolves the boundary at a byte offset of a file.
func (a *Analyzer) BoundaryAt(file *ast.SourceFile, offset int) ContainingBoundaryInfo {
	n := file.NodeAt(offset)
	if n == nil {
		return ContainingBoundaryInfo{Boundary: a.files.BoundaryOf(file.Path)}
	}
	return a.ResolveContainingBoundary(n)
}
