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
	"bytes"
	"context"
	"fmt"
	"sort"

	"github.com/AleutianAI/tsboundary/services/boundary/ast"
)

// Fix names.
const (
	FixBoundaryMethod            = "fixBoundaryMethod"
	FixBoundaryWithDirectiveWrap = "fixBoundaryWithDirectiveWrap"
	FixBoundaryWithConditional   = "fixBoundaryWithConditional"
	FixBoundaryWithConjunction   = "fixBoundaryWithConjunction"
	FixExportAsComponent         = "exportAsComponent"
	FixExportAsAbstract          = "exportAsAbstract"
)

// TextChange replaces the bytes of Span with NewText. An empty span is an
// insertion.
type TextChange struct {
	Span    ast.Span `json:"span"`
	NewText string   `json:"newText"`
}

// FileTextChanges groups the changes of one file.
type FileTextChanges struct {
	FileName    string       `json:"fileName"`
	TextChanges []TextChange `json:"textChanges"`
}

// CodeFix is a named edit resolving a diagnostic.
type CodeFix struct {
	FixName           string            `json:"fixName"`
	Description       string            `json:"description"`
	FixAllDescription string            `json:"fixAllDescription,omitempty"`
	Changes           []FileTextChanges `json:"changes"`
}

func singleChange(name, description, file string, span ast.Span, text string) CodeFix {
	return CodeFix{
		FixName:     name,
		Description: description,
		Changes: []FileTextChanges{{
			FileName:    file,
			TextChanges: []TextChange{{Span: span, NewText: text}},
		}},
	}
}

// CodeFixes synthesizes the fixes for an analysis diagnostic.
//
// Description:
//
//	Boundary mismatches get, when applicable and in this order: a
//	decorator on the enclosing Shared method, a directive conjoined into
//	the enclosing if condition, a directive-gated conditional around a
//	nullable call, and a directive guard before the statement.
//	Behaviour declaration errors get the default export and abstract
//	fixes. All fixes are text edits against the analyzed content; the
//	syntax tree is never modified.
//
// Outputs:
//   - []CodeFix: Empty when nothing applies.
func (a *Analyzer) CodeFixes(ctx context.Context, d Diagnostic) []CodeFix {
	var fixes []CodeFix
	switch d.Code {
	case CodeNetworkBoundaryMismatch:
		fixes = a.boundaryFixes(d)
	case CodeBehaviourDeclaration:
		if d.Node != nil && d.Node.File != nil {
			if b, ok := a.FindBehaviour(d.Node.File, d.Start); ok {
				fixes = BehaviourFixes(b)
			}
		}
	}
	recordFixMetrics(ctx, d.Code, len(fixes))
	return fixes
}

func (a *Analyzer) boundaryFixes(d Diagnostic) []CodeFix {
	mm := d.NetworkBoundary
	if mm == nil || d.Node == nil || mm.Parent != Shared {
		return nil
	}
	names := a.symbols.Names()
	var fixes []CodeFix

	if mm.ParentNode.Is(ast.KindMethodDefinition) {
		if decorator := decoratorName(names, mm.Node); decorator != "" {
			method := mm.ParentNode
			name := method.Field("name").Text()
			fixes = append(fixes, singleChange(FixBoundaryMethod,
				fmt.Sprintf("Set method '%s' to %s-only", name, mm.Node),
				d.File, ast.Span{Start: method.Start, End: method.Start},
				"@"+decorator+"() "))
		}
	}

	directive := directiveName(names, mm.Node)
	if directive == "" {
		return fixes
	}

	if cond := enclosingCondition(d.Node); cond != nil {
		fixes = append(fixes, conjunctionFix(d.File, cond, directive, mm.Node))
	}

	if d.Node.Is(ast.KindCallExpression) && a.checker.IsNullableCall(d.Node) {
		fixes = append(fixes, conditionalFix(d.File, d.Node, directive, mm.Node))
	}

	if stmt := enclosingStatement(d.Node); stmt != nil {
		fixes = append(fixes, singleChange(FixBoundaryWithDirectiveWrap,
			fmt.Sprintf("Add %s check before statement", mm.Node),
			d.File, ast.Span{Start: stmt.Start, End: stmt.Start},
			"if ("+directive+") "))
	}
	return fixes
}

func decoratorName(names DirectoryNames, b NetworkBoundary) string {
	switch b {
	case Server:
		return names.ServerDecorator
	case Client:
		return names.ClientDecorator
	case Host:
		return names.HostDecorator
	}
	return ""
}

func directiveName(names DirectoryNames, b NetworkBoundary) string {
	switch b {
	case Server:
		return names.ServerDirective
	case Client:
		return names.ClientDirective
	}
	return ""
}

// enclosingStatement returns the expression, if, return or throw
// statement containing n that can be prefixed with a guard without
// changing scoping. Declarations are never wrapped: "if (c) const x = f();"
// would hide x from the rest of the block, so calls inside them only get
// the conditional fix, and none at all when the call is not nullable.
func enclosingStatement(n *ast.Node) *ast.Node {
	for cur := n; cur != nil; cur = cur.Parent {
		if ast.IsFunctionLike(cur.Kind) || ast.IsClassLike(cur.Kind) {
			return nil
		}
		if cur.Parent.Is(ast.KindStatementBlock, ast.KindProgram, ast.KindSwitchCase, ast.KindSwitchDefault) {
			if cur.Is(ast.KindExpressionStatement, ast.KindIfStatement, ast.KindReturnStatement, ast.KindThrowStatement) {
				return cur
			}
			return nil
		}
	}
	return nil
}

// enclosingCondition returns the condition of the if-statement whose test
// contains n, without crossing a function boundary.
func enclosingCondition(n *ast.Node) *ast.Node {
	prev := n
	for cur := n.Parent; cur != nil; prev, cur = cur, cur.Parent {
		if ast.IsFunctionLike(cur.Kind) {
			return nil
		}
		if cur.Is(ast.KindIfStatement) {
			if cond := cur.Field("condition"); cond == prev {
				return cond
			}
			return nil
		}
		if cur.Is(ast.KindStatementBlock, ast.KindExpressionStatement) {
			return nil
		}
	}
	return nil
}

func conjunctionFix(file string, cond *ast.Node, directive string, b NetworkBoundary) CodeFix {
	inner := ast.Unparen(cond)
	desc := fmt.Sprintf("Add %s check to condition", b)
	if needsParens(inner) {
		return singleChange(FixBoundaryWithConjunction, desc, file, inner.Span(),
			directive+" && ("+inner.Text()+")")
	}
	return singleChange(FixBoundaryWithConjunction, desc, file,
		ast.Span{Start: inner.Start, End: inner.Start}, directive+" && ")
}

// needsParens reports whether an expression binds looser than "&&".
func needsParens(n *ast.Node) bool {
	switch n.Kind {
	case ast.KindTernaryExpression, ast.KindAssignmentExpression,
		ast.KindAugmentedAssignment, ast.KindSequenceExpression, ast.KindArrowFunction:
		return true
	case ast.KindBinaryExpression:
		op := n.Operator()
		return op == "||" || op == "??"
	}
	return false
}

func conditionalFix(file string, call *ast.Node, directive string, b NetworkBoundary) CodeFix {
	text := directive + " ? " + call.Text() + " : undefined"
	if !conditionalNeedsNoParens(call) {
		text = "(" + text + ")"
	}
	return singleChange(FixBoundaryWithConditional,
		fmt.Sprintf("Wrap call in %s conditional", b),
		file, call.Span(), text)
}

// conditionalNeedsNoParens lists positions where a conditional expression
// can replace the call verbatim.
func conditionalNeedsNoParens(call *ast.Node) bool {
	p := call.Parent
	switch {
	case p.Is(ast.KindVariableDeclarator):
		return p.Field("value") == call
	case p.Is(ast.KindAssignmentExpression):
		return p.Field("right") == call
	case p.Is(ast.KindArrowFunction):
		return p.Field("body") == call
	case p.Is(ast.KindArguments, ast.KindParenthesizedExpression,
		ast.KindReturnStatement, ast.KindExpressionStatement):
		return true
	}
	return false
}

// BehaviourFixes returns the declaration fixes for a component class.
func BehaviourFixes(b Behaviour) []CodeFix {
	file := ""
	if b.Class.File != nil {
		file = b.Class.File.Path
	}

	var component CodeFix
	if b.Exported {
		kw := b.Statement.ChildOfKind("export")
		span := ast.Span{Start: b.Statement.Start, End: b.Statement.Start}
		text := "export default "
		if kw != nil {
			span = kw.Span()
			text = "export default"
		}
		component = singleChange(FixExportAsComponent,
			"Use AirshipBehaviour as component (export default)", file, span, text)
	} else {
		component = singleChange(FixExportAsComponent,
			"Use AirshipBehaviour as component (export default)", file,
			ast.Span{Start: b.Class.Start, End: b.Class.Start}, "export default ")
	}
	component.FixAllDescription = "Mark all AirshipBehaviours as component (export default)"

	classKw := b.Class.ChildOfKind("class")
	at := b.Class.Start
	if classKw != nil {
		at = classKw.Start
	}
	abstract := singleChange(FixExportAsAbstract,
		"Use AirshipBehaviour as base component logic (export abstract)", file,
		ast.Span{Start: at, End: at}, "abstract ")

	return []CodeFix{component, abstract}
}

// ApplyTextChanges applies non-overlapping changes to content.
//
// Changes may be given in any order. Insertions at the same offset are
// applied in the order given.
func ApplyTextChanges(content []byte, changes []TextChange) ([]byte, error) {
	sorted := make([]TextChange, len(changes))
	copy(sorted, changes)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Span.Start < sorted[j].Span.Start
	})

	for i, c := range sorted {
		if c.Span.Start < 0 || c.Span.End < c.Span.Start || c.Span.End > len(content) {
			return nil, fmt.Errorf("%w: [%d, %d) in %d bytes", ErrSpanOutOfRange, c.Span.Start, c.Span.End, len(content))
		}
		if i > 0 && sorted[i-1].Span.End > c.Span.Start {
			return nil, fmt.Errorf("%w: [%d, %d) and [%d, %d)", ErrOverlappingChanges,
				sorted[i-1].Span.Start, sorted[i-1].Span.End, c.Span.Start, c.Span.End)
		}
	}

	var buf bytes.Buffer
	buf.Grow(len(content))
	last := 0
	for _, c := range sorted {
		buf.Write(content[last:c.Span.Start])
		buf.WriteString(c.NewText)
		last = c.Span.End
	}
	buf.Write(content[last:])
	return buf.Bytes(), nil
}
