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
	"strings"
)

// JSDocTag is a single "@name text" entry of a documentation comment.
type JSDocTag struct {
	Name string `json:"name"`
	Text string `json:"text,omitempty"`
}

// JSDoc is a parsed "/** ... */" comment.
type JSDoc struct {
	Description string     `json:"description,omitempty"`
	Tags        []JSDocTag `json:"tags,omitempty"`
}

// HasTag reports whether the comment carries the tag (case-insensitive).
func (d *JSDoc) HasTag(name string) bool {
	if d == nil {
		return false
	}
	for _, t := range d.Tags {
		if strings.EqualFold(t.Name, name) {
			return true
		}
	}
	return false
}

// ParseJSDoc parses the text of a JSDoc comment. Returns nil when text is
// not a "/**" comment.
func ParseJSDoc(text string) *JSDoc {
	if !strings.HasPrefix(text, "/**") || !strings.HasSuffix(text, "*/") || len(text) < 5 {
		return nil
	}
	body := text[3 : len(text)-2]

	doc := &JSDoc{}
	var desc []string
	var current *JSDocTag
	for _, raw := range strings.Split(body, "\n") {
		line := strings.TrimSpace(raw)
		line = strings.TrimPrefix(line, "*")
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "@") {
			name, rest, _ := strings.Cut(line[1:], " ")
			doc.Tags = append(doc.Tags, JSDocTag{Name: name, Text: strings.TrimSpace(rest)})
			current = &doc.Tags[len(doc.Tags)-1]
			continue
		}
		if line == "" {
			continue
		}
		if current != nil {
			current.Text = strings.TrimSpace(current.Text + " " + line)
		} else {
			desc = append(desc, line)
		}
	}
	doc.Description = strings.Join(desc, "\n")
	return doc
}

// LeadingJSDoc returns the JSDoc comment attached to a declaration.
//
// Description:
//
//	Looks at the previous siblings of decl, skipping decorators, for a
//	comment starting with "/**". When decl is wrapped by an export
//	statement, ambient declaration, or variable declaration, the comment
//	is looked up in front of the outermost wrapper instead.
//
// Outputs:
//   - *Node: The comment node, or nil.
func LeadingJSDoc(decl *Node) *Node {
	if decl == nil {
		return nil
	}
	target := decl
	if target.Is(KindVariableDeclarator) {
		target = target.Parent
	}
	for target.Parent.Is(KindExportStatement, KindAmbientDeclaration) {
		if c := precedingDocComment(target); c != nil {
			return c
		}
		target = target.Parent
	}
	return precedingDocComment(target)
}

func precedingDocComment(n *Node) *Node {
	for prev := n.PrevSibling(); prev != nil; prev = prev.PrevSibling() {
		switch prev.Kind {
		case KindDecorator:
			continue
		case KindComment:
			if strings.HasPrefix(prev.Text(), "/**") {
				return prev
			}
			return nil
		default:
			return nil
		}
	}
	return nil
}

// DocOf parses the leading JSDoc of a declaration, or returns nil.
func DocOf(decl *Node) *JSDoc {
	c := LeadingJSDoc(decl)
	if c == nil {
		return nil
	}
	return ParseJSDoc(c.Text())
}

// Decorators returns the decorators attached to a class member or class.
//
// tree-sitter places member decorators either as children of the member or
// as preceding siblings in the class body; both placements are collected in
// source order.
func Decorators(decl *Node) []*Node {
	if decl == nil {
		return nil
	}
	var before []*Node
	if decl.Parent.Is(KindClassBody) {
		for prev := decl.PrevSibling(); prev != nil; prev = prev.PrevSibling() {
			if prev.Is(KindComment) {
				continue
			}
			if !prev.Is(KindDecorator) {
				break
			}
			before = append([]*Node{prev}, before...)
		}
	}
	if decl.Parent.Is(KindExportStatement) {
		for _, c := range decl.Parent.Children {
			if c.Is(KindDecorator) {
				before = append(before, c)
			}
		}
	}
	for _, c := range decl.Children {
		if c.Is(KindDecorator) {
			before = append(before, c)
		}
	}
	return before
}

// DecoratorCallee returns the identifier invoked by a decorator of the form
// "@Name(...)", or nil for any other shape.
func DecoratorCallee(dec *Node) *Node {
	inner := dec.NamedChildren()
	if len(inner) != 1 {
		return nil
	}
	call := inner[0]
	if !call.Is(KindCallExpression) {
		return nil
	}
	fn := call.Field("function")
	if !fn.Is(KindIdentifier) {
		return nil
	}
	return fn
}

// DecoratorName returns the textual name of a decorator, e.g. "Server" for
// "@Server()" or "@Server", and "a.b" for "@a.b()".
func DecoratorName(dec *Node) string {
	inner := dec.NamedChildren()
	if len(inner) != 1 {
		return ""
	}
	expr := inner[0]
	if expr.Is(KindCallExpression) {
		expr = expr.Field("function")
	}
	if expr == nil {
		return ""
	}
	return expr.Text()
}
