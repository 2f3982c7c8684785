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
	"sort"

	"github.com/AleutianAI/tsboundary/services/boundary/ast"
)

// SymbolFlags classifies what a symbol declares. Declaration merging ORs
// the flags of every merged declaration.
type SymbolFlags uint32

const (
	SymbolVariable SymbolFlags = 1 << iota
	SymbolParameter
	SymbolFunction
	SymbolClass
	SymbolInterface
	SymbolEnum
	SymbolEnumMember
	SymbolTypeAlias
	SymbolNamespace
	SymbolModule
	SymbolMethod
	SymbolProperty
	SymbolAlias
	SymbolTypeLiteral
)

// Has reports whether any of the given flags are set.
func (f SymbolFlags) Has(flags SymbolFlags) bool {
	return f&flags != 0
}

// aliasTarget records where an import or re-export points.
type aliasTarget struct {
	// local aliases name a symbol in scope (export { a as b }).
	local bool
	scope *Scope

	file      *ast.SourceFile
	specifier string

	// name is the exported name, "*" for the module itself, or "default".
	name string
}

// Symbol is a named entity produced by the binder.
//
// Symbols are compared by pointer identity. A Program never creates two
// symbols for the same merged declaration set.
type Symbol struct {
	Name  string
	Flags SymbolFlags

	// Declarations holds every declaration node merged into the symbol.
	Declarations []*ast.Node

	// Members holds instance members of classes, interfaces and type literals.
	Members map[string]*Symbol

	// Exports holds static class members, enum members, and namespace or
	// module exports.
	Exports map[string]*Symbol

	// Parent is the class, interface or namespace that owns the symbol.
	Parent *Symbol

	alias     *aliasTarget
	reexports []aliasTarget
}

// ValueDeclaration returns the first declaration, or nil.
func (s *Symbol) ValueDeclaration() *ast.Node {
	if s == nil || len(s.Declarations) == 0 {
		return nil
	}
	return s.Declarations[0]
}

// IsAlias reports whether the symbol is an import or re-export alias.
func (s *Symbol) IsAlias() bool {
	return s != nil && s.Flags.Has(SymbolAlias)
}

// KindString returns a completion-style kind label.
func (s *Symbol) KindString() string {
	switch {
	case s.Flags.Has(SymbolMethod):
		return "method"
	case s.Flags.Has(SymbolFunction):
		return "function"
	case s.Flags.Has(SymbolClass):
		return "class"
	case s.Flags.Has(SymbolInterface):
		return "interface"
	case s.Flags.Has(SymbolEnum):
		return "enum"
	case s.Flags.Has(SymbolEnumMember):
		return "enum member"
	case s.Flags.Has(SymbolNamespace | SymbolModule):
		return "module"
	case s.Flags.Has(SymbolTypeAlias):
		return "type"
	case s.Flags.Has(SymbolProperty):
		return "property"
	case s.Flags.Has(SymbolParameter):
		return "parameter"
	case s.Flags.Has(SymbolAlias):
		return "alias"
	case s.Flags.Has(SymbolVariable):
		if d := s.ValueDeclaration(); d != nil && d.Parent.Is(ast.KindLexicalDeclaration) {
			if kw := d.Parent.Children[0]; kw.Kind == "const" || kw.Kind == "let" {
				return kw.Kind
			}
		}
		return "var"
	}
	return "unknown"
}

func (s *Symbol) addDeclaration(decl *ast.Node, flags SymbolFlags) {
	s.Flags |= flags
	if decl != nil {
		s.Declarations = append(s.Declarations, decl)
	}
}

// =============================================================================
// SCOPES
// =============================================================================

// ScopeKind identifies what introduced a scope.
type ScopeKind int

const (
	ScopeGlobal ScopeKind = iota
	ScopeModule
	ScopeNamespace
	ScopeFunction
	ScopeBlock
)

// Scope is a lexical name table with a parent chain.
type Scope struct {
	Kind    ScopeKind
	Node    *ast.Node
	Parent  *Scope
	Symbols map[string]*Symbol
}

func newScope(kind ScopeKind, node *ast.Node, parent *Scope) *Scope {
	return &Scope{
		Kind:    kind,
		Node:    node,
		Parent:  parent,
		Symbols: make(map[string]*Symbol),
	}
}

// Lookup resolves name in this scope or the nearest enclosing one.
func (s *Scope) Lookup(name string) *Symbol {
	for cur := s; cur != nil; cur = cur.Parent {
		if sym, ok := cur.Symbols[name]; ok {
			return sym
		}
	}
	return nil
}

// declare adds or merges a symbol in this scope.
func (s *Scope) declare(name string, flags SymbolFlags, decl *ast.Node) *Symbol {
	return declareIn(s.Symbols, name, flags, decl, nil)
}

func declareIn(table map[string]*Symbol, name string, flags SymbolFlags, decl *ast.Node, parent *Symbol) *Symbol {
	if sym, ok := table[name]; ok {
		sym.addDeclaration(decl, flags)
		return sym
	}
	sym := &Symbol{Name: name, Parent: parent}
	sym.addDeclaration(decl, flags)
	table[name] = sym
	return sym
}

// sortedSymbols returns the table's symbols ordered by name.
func sortedSymbols(table map[string]*Symbol) []*Symbol {
	out := make([]*Symbol, 0, len(table))
	for _, sym := range table {
		out = append(out, sym)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
