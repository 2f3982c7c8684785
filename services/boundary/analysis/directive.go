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
	"strings"

	"github.com/AleutianAI/tsboundary/services/boundary/ast"
)

// CompilerDirective is a recognized directive form at an expression site.
type CompilerDirective int

const (
	DirectiveServer CompilerDirective = iota
	DirectiveNotServer
	DirectiveClient
	DirectiveNotClient
)

// String returns the directive name.
func (d CompilerDirective) String() string {
	switch d {
	case DirectiveServer:
		return "SERVER"
	case DirectiveNotServer:
		return "NOT_SERVER"
	case DirectiveClient:
		return "CLIENT"
	case DirectiveNotClient:
		return "NOT_CLIENT"
	}
	return "UNKNOWN"
}

// AssertsServer is true for SERVER and NOT_CLIENT.
func (d CompilerDirective) AssertsServer() bool {
	return d == DirectiveServer || d == DirectiveNotClient
}

// AssertsClient is true for CLIENT and NOT_SERVER.
func (d CompilerDirective) AssertsClient() bool {
	return d == DirectiveClient || d == DirectiveNotServer
}

// DirectivesAnalysisResult describes the directives found in a condition.
type DirectivesAnalysisResult struct {
	// Directives holds the matched directives in source order.
	Directives []CompilerDirective

	// IsComplexDirectiveCheck is set when directive terms are mixed with
	// other boolean terms in a conjunction.
	IsComplexDirectiveCheck bool

	IsServer bool
	IsClient bool
}

// Boundary collapses the result into a single boundary: Invalid when both
// server and client are asserted.
func (r *DirectivesAnalysisResult) Boundary() NetworkBoundary {
	switch {
	case r.IsServer && r.IsClient:
		return Invalid
	case r.IsServer:
		return Server
	case r.IsClient:
		return Client
	}
	return Shared
}

// IsSimple reports whether the condition is exactly directive terms
// asserting a single boundary. Only simple conditions support reasoning
// about the negated branch.
func (r *DirectivesAnalysisResult) IsSimple() bool {
	return !r.IsComplexDirectiveCheck && r.IsServer != r.IsClient
}

// String renders the result for logs.
func (r *DirectivesAnalysisResult) String() string {
	parts := make([]string, len(r.Directives))
	for i, d := range r.Directives {
		parts[i] = d.String()
	}
	s := strings.Join(parts, " && ")
	if r.IsComplexDirectiveCheck {
		s += " (complex)"
	}
	return s
}

// ClassifyDirective determines the directive form of a single leaf.
//
// Description:
//
//	Recognizes Identifier, !Identifier, Call and !Call leaves. Identifiers
//	and callees are resolved through the checker and compared by symbol
//	identity against the directory, so imported or re-exported directives
//	are recognized. Calls are only considered when includeImplicitCalls
//	is set. Resolution order is server-positive, client-positive,
//	client-negative, server-negative.
//
// Outputs:
//   - CompilerDirective: The matched directive.
//   - bool: False when the leaf is not a directive.
func (a *Analyzer) ClassifyDirective(expr *ast.Node, includeImplicitCalls bool) (CompilerDirective, bool) {
	expr = ast.Unparen(expr)
	if expr == nil {
		return 0, false
	}

	negated := false
	operand := expr
	if expr.Is(ast.KindUnaryExpression) && expr.Operator() == "!" {
		negated = true
		operand = ast.Unparen(expr.Field("argument"))
	}

	var isServer, isClient bool
	switch {
	case operand.Is(ast.KindIdentifier):
		sym := a.checker.SkipAlias(a.checker.SymbolAtLocation(operand))
		if sym == nil {
			return 0, false
		}
		isServer = is(sym, a.symbols.ServerDirective())
		isClient = is(sym, a.symbols.ClientDirective())
	case operand.Is(ast.KindCallExpression) && includeImplicitCalls:
		callee := a.checker.SkipAlias(a.checker.SymbolAtLocation(operand.Field("function")))
		if callee == nil {
			return 0, false
		}
		isServer = is(callee, a.symbols.IsServerMethod())
		isClient = is(callee, a.symbols.IsClientMethod())
	default:
		return 0, false
	}

	switch {
	case !negated && isServer:
		return DirectiveServer, true
	case !negated && isClient:
		return DirectiveClient, true
	case negated && isClient:
		return DirectiveNotClient, true
	case negated && isServer:
		return DirectiveNotServer, true
	}
	return 0, false
}

// ParseDirectives analyzes a boolean condition for directives.
//
// Description:
//
//	A lone leaf is classified directly. When allowComplex is set,
//	conjunctions are decomposed iteratively with an explicit stack: every
//	"&&" chain, including parenthesized nested chains, is unwound and its
//	leaves are classified left to right in source order. Leaves that are
//	not directives are skipped and mark the result complex.
//
// Inputs:
//   - expr: The condition expression.
//   - allowComplex: Decompose "&&" conjunctions.
//   - includeImplicitCalls: Recognize IsServer()/IsClient() calls.
//
// Outputs:
//   - *DirectivesAnalysisResult: nil when no directive was found.
func (a *Analyzer) ParseDirectives(expr *ast.Node, allowComplex, includeImplicitCalls bool) *DirectivesAnalysisResult {
	root := ast.Unparen(expr)
	if root == nil {
		return nil
	}

	if !allowComplex || !isAnd(root) {
		d, ok := a.ClassifyDirective(root, includeImplicitCalls)
		if !ok {
			return nil
		}
		return newResult([]CompilerDirective{d}, false)
	}

	var directives []CompilerDirective
	mixed := false
	stack := []*ast.Node{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n = ast.Unparen(n)
		if isAnd(n) {
			stack = append(stack, n.Field("right"), n.Field("left"))
			continue
		}
		if d, ok := a.ClassifyDirective(n, includeImplicitCalls); ok {
			directives = append(directives, d)
		} else {
			mixed = true
		}
	}
	if len(directives) == 0 {
		return nil
	}
	return newResult(directives, mixed)
}

func newResult(directives []CompilerDirective, complex bool) *DirectivesAnalysisResult {
	r := &DirectivesAnalysisResult{
		Directives:              directives,
		IsComplexDirectiveCheck: complex,
	}
	for _, d := range directives {
		r.IsServer = r.IsServer || d.AssertsServer()
		r.IsClient = r.IsClient || d.AssertsClient()
	}
	return r
}

func isAnd(n *ast.Node) bool {
	return n.Is(ast.KindBinaryExpression) && n.Operator() == "&&" &&
		n.Field("left") != nil && n.Field("right") != nil
}
