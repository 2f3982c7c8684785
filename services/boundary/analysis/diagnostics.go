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
	"fmt"
	"time"

	"github.com/AleutianAI/tsboundary/services/boundary/ast"
	"github.com/AleutianAI/tsboundary/services/boundary/checker"
)

// Diagnostic codes reported by the analysis.
const (
	CodeNetworkBoundaryMismatch = 1800000
	CodeBehaviourDeclaration    = 1800001
	CodeDirectiveContradiction  = 1800003
	CodeImportBoundary          = 1800004
)

// DiagnosticSource is the source label of every analysis diagnostic.
const DiagnosticSource = "airship"

// DiagnosticCategory is the severity of a diagnostic.
type DiagnosticCategory int

const (
	CategoryWarning DiagnosticCategory = iota
	CategoryError
	CategorySuggestion
	CategoryMessage
)

// String returns the lower-case category name.
func (c DiagnosticCategory) String() string {
	switch c {
	case CategoryWarning:
		return "warning"
	case CategoryError:
		return "error"
	case CategorySuggestion:
		return "suggestion"
	case CategoryMessage:
		return "message"
	}
	return "unknown"
}

// MarshalText encodes the category by name.
func (c DiagnosticCategory) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// BoundaryMismatch is the structured payload of a mismatch diagnostic.
type BoundaryMismatch struct {
	// Node is the boundary declared by the callee, or asserted by the
	// directive of an if-statement.
	Node NetworkBoundary `json:"node"`

	// Parent is the boundary of the enclosing scope.
	Parent NetworkBoundary `json:"parent"`

	// ParentNode established Parent. Nil for the file default.
	ParentNode *ast.Node `json:"-"`
}

// Diagnostic is a problem report anchored to a byte span of a file.
type Diagnostic struct {
	File     string             `json:"file"`
	Start    int                `json:"start"`
	Length   int                `json:"length"`
	Code     int                `json:"code"`
	Category DiagnosticCategory `json:"category"`
	Message  string             `json:"message"`
	Source   string             `json:"source,omitempty"`

	// NetworkBoundary is set on boundary mismatch diagnostics.
	NetworkBoundary *BoundaryMismatch `json:"networkBoundary,omitempty"`

	// Node is the syntax node the diagnostic was raised for.
	Node *ast.Node `json:"-"`
}

// End returns the exclusive end offset.
func (d Diagnostic) End() int {
	return d.Start + d.Length
}

// Covers reports whether [start, end] lies within the diagnostic span.
func (d Diagnostic) Covers(start, end int) bool {
	return start >= d.Start && end <= d.End()
}

func newDiagnostic(n *ast.Node, code int, category DiagnosticCategory, msg string) Diagnostic {
	d := Diagnostic{
		Start:    n.Start,
		Length:   n.End - n.Start,
		Code:     code,
		Category: category,
		Message:  msg,
		Source:   DiagnosticSource,
		Node:     n,
	}
	if n.File != nil {
		d.File = n.File.Path
	}
	return d
}

// =============================================================================
// BOUNDARY DIAGNOSTICS
// =============================================================================

// Diagnose reports network boundary problems in a file.
//
// Description:
//
//	Every call expression whose callee is declared non-Shared is checked
//	against the boundary of the call site; every if-statement whose
//	condition is a directive is checked against its enclosing boundary.
//	Conditions asserting both Server and Client are reported as
//	contradictions. Call sites inside an Invalid context are skipped
//	because the contradiction is already reported.
//
// Inputs:
//   - ctx: Used for tracing only; analysis is not interrupted.
//   - file: A file of the program the analyzer is bound to.
//
// Outputs:
//   - []Diagnostic: In source order. Categories are Warning.
func (a *Analyzer) Diagnose(ctx context.Context, file *ast.SourceFile) []Diagnostic {
	ctx, span := startDiagnoseSpan(ctx, file.Path)
	defer span.End()
	start := time.Now()

	var (
		out      []Diagnostic
		maxDepth int
	)
	file.Root.Walk(func(n *ast.Node) bool {
		switch n.Kind {
		case ast.KindCallExpression:
			if d, depth, ok := a.checkCall(n); ok {
				out = append(out, d)
				maxDepth = max(maxDepth, depth)
			}
		case ast.KindIfStatement:
			if d, ok := a.checkIf(n); ok {
				out = append(out, d)
			}
		case ast.KindTernaryExpression:
			if d, ok := a.checkContradiction(n.Field("condition")); ok {
				out = append(out, d)
			}
		}
		return true
	})

	recordDiagnoseMetrics(ctx, time.Since(start), maxDepth, out)
	setDiagnoseSpanResult(span, len(out))
	a.logger.Debug("boundary diagnostics",
		"file", file.Path,
		"count", len(out),
		"duration", time.Since(start))
	return out
}

func (a *Analyzer) checkCall(call *ast.Node) (Diagnostic, int, bool) {
	callee := a.CalleeOf(call)
	if callee == nil {
		return Diagnostic{}, 0, false
	}
	declared := a.DeclaredBoundary(callee)
	if declared == Shared {
		return Diagnostic{}, 0, false
	}
	info := a.ResolveContainingBoundary(call)
	if info.Boundary == Invalid || Satisfies(info.Boundary, declared) {
		return Diagnostic{}, info.Depth, false
	}

	msg := fmt.Sprintf("%s-only %s '%s' cannot be called from a %s context",
		declared, calleeKind(callee), callee.Name, info.Boundary)
	d := newDiagnostic(call, CodeNetworkBoundaryMismatch, CategoryWarning, msg)
	d.NetworkBoundary = &BoundaryMismatch{Node: declared, Parent: info.Boundary, ParentNode: info.Node}
	return d, info.Depth, true
}

func (a *Analyzer) checkIf(stmt *ast.Node) (Diagnostic, bool) {
	cond := stmt.Field("condition")
	if d, ok := a.checkContradiction(cond); ok {
		return d, true
	}
	r := a.ParseDirectives(cond, true, true)
	if r == nil {
		return Diagnostic{}, false
	}
	asserted := r.Boundary()
	info := a.ResolveContainingBoundary(stmt)
	if info.Boundary == Shared || info.Boundary == Invalid || Satisfies(info.Boundary, asserted) {
		return Diagnostic{}, false
	}

	msg := fmt.Sprintf("%s check can never pass in a %s context", asserted, info.Boundary)
	d := newDiagnostic(cond, CodeNetworkBoundaryMismatch, CategoryWarning, msg)
	d.Node = stmt
	d.NetworkBoundary = &BoundaryMismatch{Node: asserted, Parent: info.Boundary, ParentNode: info.Node}
	return d, true
}

func (a *Analyzer) checkContradiction(cond *ast.Node) (Diagnostic, bool) {
	if cond == nil {
		return Diagnostic{}, false
	}
	r := a.ParseDirectives(cond, true, true)
	if r == nil || r.Boundary() != Invalid {
		return Diagnostic{}, false
	}
	return newDiagnostic(cond, CodeDirectiveContradiction, CategoryWarning,
		"Condition asserts both Server and Client and can never be true"), true
}

// CalleeOf resolves the symbol a call expression invokes, looking
// through parentheses and non-null assertions. Nil when unresolvable.
func (a *Analyzer) CalleeOf(call *ast.Node) *checker.Symbol {
	fn := call.Field("function")
	for fn.Is(ast.KindParenthesizedExpression, ast.KindNonNullExpression) {
		kids := fn.NamedChildren()
		if len(kids) != 1 {
			break
		}
		fn = kids[0]
	}
	if fn == nil {
		return nil
	}
	return a.checker.SkipAlias(a.checker.SymbolAtLocation(fn))
}

func calleeKind(sym *checker.Symbol) string {
	if sym.Flags.Has(checker.SymbolMethod) {
		return "method"
	}
	return "function"
}

// =============================================================================
// IMPORT BOUNDARY
// =============================================================================

// CheckImports reports value imports of modules whose file boundary the
// importing file cannot see, such as a client file importing a module
// from a server directory. Type-only imports are allowed.
func (a *Analyzer) CheckImports(file *ast.SourceFile) []Diagnostic {
	from := a.files.BoundaryOf(file.Path)
	var out []Diagnostic
	for _, stmt := range file.Root.NamedChildren() {
		if !stmt.Is(ast.KindImportStatement) || stmt.HasChildToken("type") {
			continue
		}
		source := stmt.Field("source")
		if source == nil {
			continue
		}
		mod := a.checker.ResolveModule(unquoteSpecifier(source.Text()), file)
		target := a.checker.FileOfModule(mod)
		if target == nil {
			continue
		}
		to := a.files.BoundaryOf(target.Path)
		if CanSee(from, to) {
			continue
		}
		msg := fmt.Sprintf("Cannot import %s module from %s", to, from)
		out = append(out, newDiagnostic(stmt, CodeImportBoundary, CategoryWarning, msg))
	}
	return out
}

func unquoteSpecifier(s string) string {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}
