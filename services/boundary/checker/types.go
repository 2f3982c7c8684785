// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package checker

import (
	"strings"

	"github.com/AleutianAI/tsboundary/services/boundary/ast"
)

// TypeRef is the declared shape of a value: the symbol whose members apply
// to it, and whether those are static members (namespaces, enums, class
// constructors, modules) or instance members.
type TypeRef struct {
	Symbol *Symbol
	Static bool
}

// IsZero reports whether the type could not be determined.
func (t TypeRef) IsZero() bool {
	return t.Symbol == nil
}

// TypeOfExpression infers the declared type of an expression.
//
// Inference only follows explicit annotations, "new X()" initializers,
// identifier initializers and call return annotations. Anything else yields
// a zero TypeRef.
func (c *Checker) TypeOfExpression(expr *ast.Node) TypeRef {
	return c.typeOfExpression(expr, 0)
}

func (c *Checker) typeOfExpression(expr *ast.Node, depth int) TypeRef {
	if depth > maxResolveDepth {
		return TypeRef{}
	}
	expr = unwrapExpression(expr)
	if expr == nil {
		return TypeRef{}
	}
	switch expr.Kind {
	case ast.KindIdentifier:
		return c.typeOfSymbol(c.SkipAlias(c.SymbolAtLocation(expr)), depth+1)
	case ast.KindThis:
		if cls := c.ContainingClass(expr); cls != nil {
			return TypeRef{Symbol: cls}
		}
	case ast.KindMemberExpression:
		prop := expr.Field("property")
		if prop == nil {
			return TypeRef{}
		}
		member := c.memberOfExpression(expr.Field("object"), prop.Text(), depth+1)
		return c.typeOfSymbol(c.SkipAlias(member), depth+1)
	case ast.KindCallExpression:
		callee := c.SkipAlias(c.SymbolAtLocation(expr.Field("function")))
		return c.returnTypeOf(callee, depth+1)
	case ast.KindNewExpression:
		cls := c.SkipAlias(c.SymbolAtLocation(expr.Field("constructor")))
		if cls != nil && cls.Flags.Has(SymbolClass) {
			return TypeRef{Symbol: cls}
		}
	case ast.KindAsExpression:
		kids := expr.NamedChildren()
		if len(kids) == 2 {
			return c.resolveTypeNode(kids[1], depth+1)
		}
	}
	return TypeRef{}
}

// typeOfSymbol returns the type of a value symbol.
func (c *Checker) typeOfSymbol(sym *Symbol, depth int) TypeRef {
	if sym == nil || depth > maxResolveDepth {
		return TypeRef{}
	}
	if sym.Flags.Has(SymbolModule | SymbolNamespace | SymbolEnum) {
		return TypeRef{Symbol: sym, Static: true}
	}
	if sym.Flags.Has(SymbolVariable | SymbolProperty | SymbolParameter) {
		for _, d := range sym.Declarations {
			if t := d.Field("type"); t != nil {
				if ref := c.resolveTypeNode(t, depth+1); !ref.IsZero() {
					return ref
				}
			}
			if v := d.Field("value"); v != nil {
				if ref := c.typeOfExpression(v, depth+1); !ref.IsZero() {
					return ref
				}
			}
		}
	}
	if sym.Flags.Has(SymbolClass) {
		return TypeRef{Symbol: sym, Static: true}
	}
	return TypeRef{}
}

func (c *Checker) returnTypeOf(callee *Symbol, depth int) TypeRef {
	if callee == nil {
		return TypeRef{}
	}
	for _, d := range callee.Declarations {
		fn := functionOf(d)
		if fn == nil {
			continue
		}
		if rt := fn.Field("return_type"); rt != nil {
			if ref := c.resolveTypeNode(rt, depth+1); !ref.IsZero() {
				return ref
			}
		}
	}
	return TypeRef{}
}

// resolveTypeNode maps a type annotation to the symbol that carries its
// members. Nullable unions resolve to their single non-null member.
func (c *Checker) resolveTypeNode(t *ast.Node, depth int) TypeRef {
	if t == nil || depth > maxResolveDepth {
		return TypeRef{}
	}
	switch t.Kind {
	case ast.KindTypeAnnotation, ast.KindParenthesizedType:
		kids := t.NamedChildren()
		if len(kids) == 0 {
			return TypeRef{}
		}
		return c.resolveTypeNode(kids[0], depth+1)
	case ast.KindObjectType:
		if sym, ok := c.p.typeLiterals[t]; ok {
			return TypeRef{Symbol: sym}
		}
	case ast.KindGenericType:
		return c.resolveTypeNode(t.Field("name"), depth+1)
	case ast.KindTypeIdentifier, ast.KindIdentifier:
		sym := c.SkipAlias(c.ResolveName(t.Text(), t))
		return c.instanceTypeOf(sym, depth+1)
	case ast.KindNestedTypeIdent:
		left := c.SkipAlias(c.SymbolAtLocation(firstIdentifier(t.Field("module"))))
		name := t.Field("name")
		if left == nil || name == nil {
			return TypeRef{}
		}
		return c.instanceTypeOf(c.SkipAlias(c.staticMember(left, name.Text())), depth+1)
	case ast.KindUnionType:
		var members []*ast.Node
		for _, m := range flattenUnion(t) {
			if !isNullishType(m) {
				members = append(members, m)
			}
		}
		if len(members) == 1 {
			return c.resolveTypeNode(members[0], depth+1)
		}
	}
	return TypeRef{}
}

func (c *Checker) instanceTypeOf(sym *Symbol, depth int) TypeRef {
	if sym == nil {
		return TypeRef{}
	}
	if sym.Flags.Has(SymbolTypeAlias) {
		for _, d := range sym.Declarations {
			if v := d.Field("value"); v != nil {
				return c.resolveTypeNode(v, depth+1)
			}
		}
		return TypeRef{}
	}
	if sym.Flags.Has(SymbolClass | SymbolInterface | SymbolTypeLiteral) {
		return TypeRef{Symbol: sym}
	}
	if sym.Flags.Has(SymbolEnum) {
		return TypeRef{Symbol: sym, Static: true}
	}
	return TypeRef{}
}

// memberOfExpression resolves "obj.name".
func (c *Checker) memberOfExpression(obj *ast.Node, name string, depth int) *Symbol {
	ref := c.typeOfExpression(obj, depth)
	return c.MemberOfType(ref, name)
}

// MemberOfType looks up a member on a type, through base types for
// instance members and through re-exports for modules.
func (c *Checker) MemberOfType(ref TypeRef, name string) *Symbol {
	if ref.IsZero() {
		return nil
	}
	if ref.Static {
		return c.staticMember(ref.Symbol, name)
	}
	return c.GetMember(ref.Symbol, name)
}

// PropertyOf resolves "sym.name" for a value symbol, e.g. a namespace
// export or a method of a variable's declared type.
func (c *Checker) PropertyOf(sym *Symbol, name string) *Symbol {
	return c.MemberOfType(c.typeOfSymbol(c.SkipAlias(sym), 0), name)
}

func (c *Checker) staticMember(sym *Symbol, name string) *Symbol {
	if sym == nil {
		return nil
	}
	if sym.Flags.Has(SymbolModule) {
		return c.moduleExport(sym, name, make(map[*Symbol]bool))
	}
	visited := make(map[*Symbol]bool)
	for cur := []*Symbol{sym}; len(cur) > 0; {
		s := cur[0]
		cur = cur[1:]
		if s == nil || visited[s] {
			continue
		}
		visited[s] = true
		if m, ok := s.Exports[name]; ok {
			return m
		}
		if s.Flags.Has(SymbolClass) {
			cur = append(cur, c.BaseTypes(s)...)
		}
	}
	return nil
}

// GetMember returns an instance member, searching base types breadth-first.
func (c *Checker) GetMember(sym *Symbol, name string) *Symbol {
	visited := make(map[*Symbol]bool)
	for queue := []*Symbol{sym}; len(queue) > 0; {
		s := queue[0]
		queue = queue[1:]
		if s == nil || visited[s] {
			continue
		}
		visited[s] = true
		if m, ok := s.Members[name]; ok {
			return m
		}
		queue = append(queue, c.BaseTypes(s)...)
	}
	return nil
}

// MembersOf lists the instance members of a type including inherited ones.
// Overridden members appear once, from the most derived type.
func (c *Checker) MembersOf(ref TypeRef) []*Symbol {
	if ref.IsZero() {
		return nil
	}
	if ref.Static && ref.Symbol.Flags.Has(SymbolModule) {
		return c.ExportsOf(ref.Symbol)
	}
	table := make(map[string]*Symbol)
	visited := make(map[*Symbol]bool)
	for queue := []*Symbol{ref.Symbol}; len(queue) > 0; {
		s := queue[0]
		queue = queue[1:]
		if s == nil || visited[s] {
			continue
		}
		visited[s] = true
		members := s.Members
		if ref.Static {
			members = s.Exports
		}
		for name, m := range members {
			if _, ok := table[name]; !ok {
				table[name] = m
			}
		}
		if s.Flags.Has(SymbolClass | SymbolInterface) {
			queue = append(queue, c.BaseTypes(s)...)
		}
	}
	return sortedSymbols(table)
}

// BaseTypes returns the classes and interfaces a class or interface extends.
func (c *Checker) BaseTypes(sym *Symbol) []*Symbol {
	if sym == nil {
		return nil
	}
	var out []*Symbol
	seen := make(map[*Symbol]bool)
	add := func(s *Symbol) {
		if s != nil && s != sym && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	for _, d := range sym.Declarations {
		switch {
		case ast.IsClassLike(d.Kind):
			heritage := d.ChildOfKind(ast.KindClassHeritage)
			if heritage == nil {
				continue
			}
			ext := heritage.ChildOfKind(ast.KindExtendsClause)
			if ext == nil {
				continue
			}
			if v := ext.Field("value"); v != nil {
				add(c.SkipAlias(c.SymbolAtLocation(v)))
			} else {
				for _, v := range ext.NamedChildren() {
					add(c.SkipAlias(c.SymbolAtLocation(v)))
				}
			}
		case d.Is(ast.KindInterfaceDeclaration):
			ext := d.ChildOfKind(ast.KindExtendsTypeClause)
			if ext == nil {
				continue
			}
			for _, t := range ext.NamedChildren() {
				ref := c.resolveTypeNode(t, 0)
				add(ref.Symbol)
			}
		}
	}
	return out
}

// InheritsFrom reports whether the class sym extends base, directly or
// through any number of base classes.
func (c *Checker) InheritsFrom(sym, base *Symbol) bool {
	if sym == nil || base == nil {
		return false
	}
	visited := make(map[*Symbol]bool)
	for queue := c.BaseTypes(sym); len(queue) > 0; {
		s := queue[0]
		queue = queue[1:]
		if s == base {
			return true
		}
		if visited[s] {
			continue
		}
		visited[s] = true
		queue = append(queue, c.BaseTypes(s)...)
	}
	return false
}

// =============================================================================
// NULLABILITY
// =============================================================================

// IsNullableCall reports whether the resolved return type of a call
// includes undefined or null.
//
// Optional methods ("foo?(): T") count as nullable. Type aliases are
// followed. A callee that cannot be resolved is not nullable.
func (c *Checker) IsNullableCall(call *ast.Node) bool {
	if !call.Is(ast.KindCallExpression) {
		return false
	}
	callee := c.SkipAlias(c.SymbolAtLocation(call.Field("function")))
	if callee == nil {
		return false
	}
	for _, d := range callee.Declarations {
		if d.Is(ast.KindMethodSignature, ast.KindMethodDefinition, ast.KindPropertySignature) && d.HasChildToken("?") {
			return true
		}
		fn := functionOf(d)
		if fn == nil {
			continue
		}
		if c.typeIsNullable(fn.Field("return_type"), 0) {
			return true
		}
	}
	return false
}

func (c *Checker) typeIsNullable(t *ast.Node, depth int) bool {
	if t == nil || depth > maxResolveDepth {
		return false
	}
	switch t.Kind {
	case ast.KindTypeAnnotation, ast.KindParenthesizedType:
		kids := t.NamedChildren()
		return len(kids) > 0 && c.typeIsNullable(kids[0], depth+1)
	case ast.KindUnionType:
		for _, m := range flattenUnion(t) {
			if isNullishType(m) || c.typeIsNullable(m, depth+1) {
				return true
			}
		}
		return false
	case ast.KindTypeIdentifier:
		sym := c.SkipAlias(c.ResolveName(t.Text(), t))
		if sym == nil || !sym.Flags.Has(SymbolTypeAlias) {
			return false
		}
		for _, d := range sym.Declarations {
			if c.typeIsNullable(d.Field("value"), depth+1) {
				return true
			}
		}
		return false
	}
	return isNullishType(t)
}

// functionOf returns the node carrying parameters and return type for a
// callable declaration, looking through "const f = () => ..." declarators.
func functionOf(d *ast.Node) *ast.Node {
	switch d.Kind {
	case ast.KindFunctionDeclaration, ast.KindGeneratorFunctionDeclaration, ast.KindFunctionSignature,
		ast.KindMethodDefinition, ast.KindMethodSignature, ast.KindAbstractMethodSignature,
		ast.KindFunctionExpression, ast.KindFunction, ast.KindArrowFunction:
		return d
	case ast.KindVariableDeclarator, ast.KindPublicFieldDefinition:
		if v := d.Field("value"); v != nil && ast.IsFunctionLike(v.Kind) {
			return v
		}
	}
	return nil
}

func flattenUnion(t *ast.Node) []*ast.Node {
	var out []*ast.Node
	stack := []*ast.Node{t}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n.Is(ast.KindUnionType) {
			kids := n.NamedChildren()
			for i := len(kids) - 1; i >= 0; i-- {
				stack = append(stack, kids[i])
			}
			continue
		}
		out = append(out, n)
	}
	return out
}

func isNullishType(t *ast.Node) bool {
	text := strings.TrimSpace(t.Text())
	return text == "undefined" || text == "null"
}

func firstIdentifier(n *ast.Node) *ast.Node {
	if n == nil {
		return nil
	}
	if n.Is(ast.KindIdentifier) {
		return n
	}
	var found *ast.Node
	n.Walk(func(x *ast.Node) bool {
		if found == nil && x.Is(ast.KindIdentifier) {
			found = x
		}
		return found == nil
	})
	return found
}
