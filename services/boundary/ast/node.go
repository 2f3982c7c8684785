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
	"sort"
	"strings"
)

// =============================================================================
// POSITIONS
// =============================================================================

// Position is a zero-indexed line/column pair. Column counts bytes.
type Position struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

// Span is a half-open byte range [Start, End) in a source file.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Length returns the number of bytes covered by the span.
func (s Span) Length() int {
	return s.End - s.Start
}

// Contains reports whether offset lies inside the span.
func (s Span) Contains(offset int) bool {
	return offset >= s.Start && offset < s.End
}

// =============================================================================
// NODE
// =============================================================================

// Node is a syntax node converted from tree-sitter.
//
// Description:
//
//	Node mirrors the tree-sitter node it was built from but owns its data,
//	so the originating tree can be released. Parent is a back-reference
//	only; children are owned through Children.
//
// Thread Safety:
//
//	Nodes are immutable after Parse returns.
type Node struct {
	// Kind is the tree-sitter node type, e.g. "call_expression".
	Kind string

	// Start and End are byte offsets into File.Content.
	Start int
	End   int

	// Named is false for anonymous tokens such as "(" or "&&".
	Named bool

	// Missing marks a zero-width node inserted by error recovery.
	Missing bool

	Parent   *Node
	Children []*Node
	File     *SourceFile

	index  int
	field  string
	fields map[string]*Node
}

// Text returns the source text covered by the node.
func (n *Node) Text() string {
	if n == nil || n.File == nil {
		return ""
	}
	return string(n.File.Content[n.Start:n.End])
}

// Span returns the byte range of the node.
func (n *Node) Span() Span {
	return Span{Start: n.Start, End: n.End}
}

// Is reports whether the node is non-nil and of one of the given kinds.
func (n *Node) Is(kinds ...string) bool {
	if n == nil {
		return false
	}
	for _, k := range kinds {
		if n.Kind == k {
			return true
		}
	}
	return false
}

// Field returns the child stored under the given grammar field, or nil.
func (n *Node) Field(name string) *Node {
	if n == nil {
		return nil
	}
	return n.fields[name]
}

// FieldName returns the grammar field under which this node is stored in
// its parent, or "" when it has none.
func (n *Node) FieldName() string {
	return n.field
}

// NamedChildren returns the named children, skipping comments.
func (n *Node) NamedChildren() []*Node {
	out := make([]*Node, 0, len(n.Children))
	for _, c := range n.Children {
		if c.Named && c.Kind != KindComment {
			out = append(out, c)
		}
	}
	return out
}

// ChildOfKind returns the first direct child with one of the given kinds.
func (n *Node) ChildOfKind(kinds ...string) *Node {
	if n == nil {
		return nil
	}
	for _, c := range n.Children {
		if c.Is(kinds...) {
			return c
		}
	}
	return nil
}

// HasChildToken reports whether a direct child has the given kind. Used for
// keyword tokens such as "default", "static" or "abstract".
func (n *Node) HasChildToken(kind string) bool {
	return n.ChildOfKind(kind) != nil
}

// PrevSibling returns the previous sibling, or nil.
func (n *Node) PrevSibling() *Node {
	if n == nil || n.Parent == nil || n.index == 0 {
		return nil
	}
	return n.Parent.Children[n.index-1]
}

// NextSibling returns the next sibling, or nil.
func (n *Node) NextSibling() *Node {
	if n == nil || n.Parent == nil || n.index+1 >= len(n.Parent.Children) {
		return nil
	}
	return n.Parent.Children[n.index+1]
}

// Index returns the position of the node among its parent's children.
func (n *Node) Index() int {
	return n.index
}

// Contains reports whether other lies within n's subtree.
func (n *Node) Contains(other *Node) bool {
	for cur := other; cur != nil; cur = cur.Parent {
		if cur == n {
			return true
		}
	}
	return false
}

// Ancestor returns the nearest proper ancestor with one of the given kinds.
func (n *Node) Ancestor(kinds ...string) *Node {
	for cur := n.Parent; cur != nil; cur = cur.Parent {
		if cur.Is(kinds...) {
			return cur
		}
	}
	return nil
}

// Walk visits the subtree in pre-order. Returning false from fn skips the
// children of the visited node. Uses an explicit stack so deep trees do not
// grow the goroutine stack.
func (n *Node) Walk(fn func(*Node) bool) {
	if n == nil {
		return
	}
	stack := []*Node{n}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !fn(cur) {
			continue
		}
		for i := len(cur.Children) - 1; i >= 0; i-- {
			stack = append(stack, cur.Children[i])
		}
	}
}

// Unparen strips enclosing parenthesized expressions.
func Unparen(n *Node) *Node {
	for n.Is(KindParenthesizedExpression) {
		inner := n.NamedChildren()
		if len(inner) != 1 {
			return n
		}
		n = inner[0]
	}
	return n
}

// Operator returns the operator token of a binary or unary expression.
func (n *Node) Operator() string {
	if op := n.Field("operator"); op != nil {
		return op.Kind
	}
	return ""
}

// =============================================================================
// SOURCE FILE
// =============================================================================

// SourceFile is a parsed TypeScript file.
type SourceFile struct {
	// Path is the file path as given to Parse, using forward slashes.
	Path string

	// Content is the raw source.
	Content []byte

	// Root is the "program" node.
	Root *Node

	// TSX is true when the file was parsed with the TSX grammar.
	TSX bool

	lineStarts []int
}

func (f *SourceFile) computeLines() {
	f.lineStarts = []int{0}
	for i, b := range f.Content {
		if b == '\n' {
			f.lineStarts = append(f.lineStarts, i+1)
		}
	}
}

// PositionOf converts a byte offset into a zero-indexed Position.
func (f *SourceFile) PositionOf(offset int) Position {
	line := sort.Search(len(f.lineStarts), func(i int) bool { return f.lineStarts[i] > offset }) - 1
	if line < 0 {
		line = 0
	}
	return Position{Line: line, Character: offset - f.lineStarts[line]}
}

// OffsetOf converts a zero-indexed Position into a byte offset, clamped to
// the file bounds.
func (f *SourceFile) OffsetOf(pos Position) int {
	if pos.Line < 0 {
		return 0
	}
	if pos.Line >= len(f.lineStarts) {
		return len(f.Content)
	}
	off := f.lineStarts[pos.Line] + pos.Character
	if off > len(f.Content) {
		return len(f.Content)
	}
	return off
}

// NodeAt returns the innermost named node whose span contains offset.
// An offset equal to a node's end is treated as inside the node so that a
// cursor placed right after an identifier still finds it.
func (f *SourceFile) NodeAt(offset int) *Node {
	cur := f.Root
	for {
		var next, touching *Node
		for _, c := range cur.Children {
			if !c.Named || c.Kind == KindComment || c.End <= c.Start {
				continue
			}
			if offset >= c.Start && offset < c.End {
				next = c
				break
			}
			if offset == c.End {
				touching = c
			}
		}
		if touching != nil && (next == nil || isWord(touching)) {
			next = touching
		}
		if next == nil {
			return cur
		}
		cur = next
	}
}

func isWord(n *Node) bool {
	return strings.HasSuffix(n.Kind, "identifier") || n.Kind == KindThis
}

// SyntaxErrors returns ERROR and missing nodes in document order.
func (f *SourceFile) SyntaxErrors() []*Node {
	var out []*Node
	f.Root.Walk(func(n *Node) bool {
		if n.Kind == KindError || n.Missing {
			out = append(out, n)
			return false
		}
		return true
	})
	return out
}

// LineText returns the text of the zero-indexed line without its newline.
func (f *SourceFile) LineText(line int) string {
	if line < 0 || line >= len(f.lineStarts) {
		return ""
	}
	start := f.lineStarts[line]
	end := len(f.Content)
	if line+1 < len(f.lineStarts) {
		end = f.lineStarts[line+1]
	}
	return strings.TrimRight(string(f.Content[start:end]), "\r\n")
}

// IsDeclarationFile reports whether the file is a .d.ts declaration file.
func (f *SourceFile) IsDeclarationFile() bool {
	return strings.HasSuffix(f.Path, ".d.ts")
}
