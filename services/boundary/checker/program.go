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
	"fmt"
	"path"
	"strings"

	"github.com/AleutianAI/tsboundary/services/boundary/ast"
)

// Program is a bound set of source files.
//
// Description:
//
//	NewProgram binds every file once: it builds scopes, merges
//	declarations, records imports and exports, and collects global and
//	ambient module declarations. A Program is immutable afterwards; an
//	edit produces a new Program rather than updating this one.
//
// Thread Safety:
//
//	Safe for concurrent reads once constructed.
type Program struct {
	files   []*ast.SourceFile
	byPath  map[string]*ast.SourceFile
	globals *Scope

	modules map[*ast.SourceFile]*Symbol
	ambient map[string]*Symbol

	scopes       map[*ast.Node]*Scope
	nameOf       map[*ast.Node]*Symbol
	declared     map[*ast.Node]*Symbol
	typeLiterals map[*ast.Node]*Symbol
}

// NewProgram binds the given files into a Program.
//
// Files are bound in the given order. Duplicate paths are rejected.
func NewProgram(files ...*ast.SourceFile) (*Program, error) {
	p := &Program{
		byPath:       make(map[string]*ast.SourceFile, len(files)),
		globals:      newScope(ScopeGlobal, nil, nil),
		modules:      make(map[*ast.SourceFile]*Symbol),
		ambient:      make(map[string]*Symbol),
		scopes:       make(map[*ast.Node]*Scope),
		nameOf:       make(map[*ast.Node]*Symbol),
		declared:     make(map[*ast.Node]*Symbol),
		typeLiterals: make(map[*ast.Node]*Symbol),
	}
	for _, f := range files {
		key := normalizePath(f.Path)
		if _, dup := p.byPath[key]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateFile, f.Path)
		}
		p.byPath[key] = f
		p.files = append(p.files, f)
	}
	for _, f := range p.files {
		b := &binder{p: p, file: f}
		b.bindFile()
	}
	return p, nil
}

// Files returns the program's files in binding order.
func (p *Program) Files() []*ast.SourceFile {
	return p.files
}

// File returns the file with the given path.
func (p *Program) File(filePath string) (*ast.SourceFile, error) {
	f, ok := p.byPath[normalizePath(filePath)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, filePath)
	}
	return f, nil
}

// Globals returns the global scope.
func (p *Program) Globals() *Scope {
	return p.globals
}

// IsModule reports whether the file is an ES module (has imports or exports).
func (p *Program) IsModule(f *ast.SourceFile) bool {
	_, ok := p.modules[f]
	return ok
}

// Checker returns a type-checker over the program.
func (p *Program) Checker() *Checker {
	return &Checker{p: p}
}

func normalizePath(p string) string {
	return path.Clean(strings.ReplaceAll(p, "\\", "/"))
}

// =============================================================================
// BINDER
// =============================================================================

type binder struct {
	p    *Program
	file *ast.SourceFile
}

// container describes where declarations of a statement list land.
type container struct {
	scope *Scope

	// exports receives exported declarations; nil outside modules and
	// namespaces.
	exports *Symbol

	// implicit exports every declaration, as in ambient modules and
	// declare namespace bodies.
	implicit bool

	ambient bool
}

func (b *binder) bindFile() {
	root := b.file.Root
	if isExternalModule(root) {
		mod := &Symbol{
			Name:    fmt.Sprintf("%q", strings.TrimSuffix(b.file.Path, path.Ext(b.file.Path))),
			Flags:   SymbolModule,
			Exports: make(map[string]*Symbol),
		}
		b.p.modules[b.file] = mod
		scope := newScope(ScopeModule, root, b.p.globals)
		b.p.scopes[root] = scope
		b.bindStatements(root.Children, container{scope: scope, exports: mod, ambient: b.file.IsDeclarationFile()})
		return
	}
	// Script files contribute directly to the global scope.
	b.p.scopes[root] = b.p.globals
	b.bindStatements(root.Children, container{scope: b.p.globals, ambient: b.file.IsDeclarationFile()})
}

func isExternalModule(root *ast.Node) bool {
	for _, c := range root.Children {
		if c.Is(ast.KindImportStatement, ast.KindExportStatement) {
			return true
		}
	}
	return false
}

func (b *binder) bindStatements(stmts []*ast.Node, c container) {
	for _, stmt := range stmts {
		b.bindStatement(stmt, c)
	}
}

func (b *binder) bindStatement(stmt *ast.Node, c container) {
	switch stmt.Kind {
	case ast.KindComment:
		return
	case ast.KindImportStatement:
		b.bindImport(stmt, c)
	case ast.KindExportStatement:
		b.bindExport(stmt, c)
	case ast.KindAmbientDeclaration:
		b.bindAmbient(stmt, c)
	default:
		syms := b.bindDeclaration(stmt, c)
		if c.implicit && c.exports != nil {
			for _, s := range syms {
				c.exports.Exports[s.Name] = s
			}
		}
	}
}

// bindDeclaration binds a statement and returns the symbols it declares in
// the container scope.
func (b *binder) bindDeclaration(n *ast.Node, c container) []*Symbol {
	switch n.Kind {
	case ast.KindFunctionDeclaration, ast.KindGeneratorFunctionDeclaration, ast.KindFunctionSignature:
		name := n.Field("name")
		if name == nil {
			b.bindFunction(n, c.scope)
			return nil
		}
		sym := b.declare(c.scope, name, SymbolFunction, n)
		if n.Kind != ast.KindFunctionSignature {
			b.bindFunction(n, c.scope)
		}
		return []*Symbol{sym}

	case ast.KindClassDeclaration, ast.KindAbstractClassDeclaration, ast.KindClass:
		var sym *Symbol
		if name := n.Field("name"); name != nil {
			sym = b.declare(c.scope, name, SymbolClass, n)
		} else {
			sym = &Symbol{Name: "default"}
			sym.addDeclaration(n, SymbolClass)
			b.p.declared[n] = sym
		}
		b.bindHeritage(n, c.scope)
		b.bindClassBody(sym, n.Field("body"), c.scope)
		return []*Symbol{sym}

	case ast.KindInterfaceDeclaration:
		name := n.Field("name")
		if name == nil {
			return nil
		}
		sym := b.declare(c.scope, name, SymbolInterface, n)
		b.bindTypeMembers(sym, n.Field("body"))
		return []*Symbol{sym}

	case ast.KindEnumDeclaration:
		name := n.Field("name")
		if name == nil {
			return nil
		}
		sym := b.declare(c.scope, name, SymbolEnum, n)
		if sym.Exports == nil {
			sym.Exports = make(map[string]*Symbol)
		}
		if body := n.Field("body"); body != nil {
			for _, m := range body.NamedChildren() {
				nameNode := m
				if m.Is(ast.KindEnumAssignment) {
					nameNode = m.Field("name")
				}
				if nameNode == nil {
					continue
				}
				member := declareIn(sym.Exports, unquote(nameNode.Text()), SymbolEnumMember, m, sym)
				b.p.nameOf[nameNode] = member
				b.p.declared[m] = member
			}
		}
		return []*Symbol{sym}

	case ast.KindTypeAliasDeclaration:
		name := n.Field("name")
		if name == nil {
			return nil
		}
		b.bindTypeLiterals(n.Field("value"))
		return []*Symbol{b.declare(c.scope, name, SymbolTypeAlias, n)}

	case ast.KindLexicalDeclaration, ast.KindVariableDeclaration:
		var out []*Symbol
		for _, d := range n.Children {
			if !d.Is(ast.KindVariableDeclarator) {
				continue
			}
			out = append(out, b.bindVariable(d, c.scope)...)
		}
		return out

	case ast.KindInternalModule, ast.KindModule:
		return b.bindNamespace(n, c)
	}

	b.bindNested(n, c.scope)
	return nil
}

func (b *binder) bindVariable(d *ast.Node, scope *Scope) []*Symbol {
	var out []*Symbol
	name := d.Field("name")
	if name.Is(ast.KindIdentifier) {
		out = append(out, b.declare(scope, name, SymbolVariable, d))
	} else if name != nil {
		for _, id := range patternIdentifiers(name) {
			out = append(out, b.declare(scope, id, SymbolVariable, d))
		}
	}
	if t := d.Field("type"); t != nil {
		b.bindTypeLiterals(t)
	}
	if v := d.Field("value"); v != nil {
		b.bindNested(v, scope)
	}
	return out
}

func (b *binder) bindNamespace(n *ast.Node, c container) []*Symbol {
	name := n.Field("name")
	body := n.Field("body")
	if name == nil {
		return nil
	}

	if name.Is(ast.KindString) {
		modPath := unquote(name.Text())
		mod, ok := b.p.ambient[modPath]
		if !ok {
			mod = &Symbol{Name: fmt.Sprintf("%q", modPath), Flags: SymbolModule, Exports: make(map[string]*Symbol)}
			b.p.ambient[modPath] = mod
		}
		mod.addDeclaration(n, SymbolModule)
		b.p.declared[n] = mod
		if body != nil {
			scope := newScope(ScopeNamespace, body, b.p.globals)
			b.p.scopes[body] = scope
			b.bindStatements(body.Children, container{scope: scope, exports: mod, implicit: true, ambient: true})
		}
		return nil
	}

	// "namespace A.B {}" declares the innermost name only.
	nameNode := name
	if name.Is(ast.KindNestedIdentifier) {
		parts := name.NamedChildren()
		nameNode = parts[len(parts)-1]
	}
	sym := b.declare(c.scope, nameNode, SymbolNamespace, n)
	if sym.Exports == nil {
		sym.Exports = make(map[string]*Symbol)
	}
	if body != nil {
		scope := newScope(ScopeNamespace, body, c.scope)
		b.p.scopes[body] = scope
		b.bindStatements(body.Children, container{scope: scope, exports: sym, implicit: c.ambient, ambient: c.ambient})
		for _, child := range scope.Symbols {
			if child.Parent == nil {
				child.Parent = sym
			}
		}
	}
	return []*Symbol{sym}
}

func (b *binder) bindAmbient(n *ast.Node, c container) {
	if n.HasChildToken("global") {
		if block := n.ChildOfKind(ast.KindStatementBlock); block != nil {
			b.p.scopes[block] = b.p.globals
			b.bindStatements(block.Children, container{scope: b.p.globals, ambient: true})
		}
		return
	}
	inner := container{scope: c.scope, exports: c.exports, implicit: c.implicit, ambient: true}
	for _, child := range n.NamedChildren() {
		b.bindStatement(child, inner)
	}
}

func (b *binder) bindImport(n *ast.Node, c container) {
	source := n.Field("source")
	if source == nil {
		return
	}
	modPath := unquote(source.Text())
	clause := n.ChildOfKind(ast.KindImportClause)
	if clause == nil {
		if req := n.ChildOfKind(ast.KindImportRequire); req != nil {
			if id := req.ChildOfKind(ast.KindIdentifier); id != nil {
				b.declareAlias(c.scope, id, id, &aliasTarget{file: b.file, specifier: modPath, name: "*"})
			}
		}
		return
	}
	for _, part := range clause.NamedChildren() {
		switch part.Kind {
		case ast.KindIdentifier:
			b.declareAlias(c.scope, part, part, &aliasTarget{file: b.file, specifier: modPath, name: "default"})
		case ast.KindNamespaceImport:
			if id := part.ChildOfKind(ast.KindIdentifier); id != nil {
				b.declareAlias(c.scope, id, part, &aliasTarget{file: b.file, specifier: modPath, name: "*"})
			}
		case ast.KindNamedImports:
			for _, s := range part.NamedChildren() {
				if !s.Is(ast.KindImportSpecifier) {
					continue
				}
				imported := s.Field("name")
				local := s.Field("alias")
				if local == nil {
					local = imported
				}
				if imported == nil {
					continue
				}
				b.declareAlias(c.scope, local, s, &aliasTarget{file: b.file, specifier: modPath, name: unquote(imported.Text())})
			}
		}
	}
}

func (b *binder) bindExport(n *ast.Node, c container) {
	isDefault := n.HasChildToken("default")

	if decl := n.Field("declaration"); decl != nil {
		var syms []*Symbol
		if decl.Is(ast.KindAmbientDeclaration) {
			b.bindAmbient(decl, container{scope: c.scope, exports: c.exports, implicit: true, ambient: true})
			return
		}
		syms = b.bindDeclaration(decl, c)
		if c.exports == nil {
			return
		}
		for _, s := range syms {
			c.exports.Exports[s.Name] = s
		}
		if isDefault && len(syms) > 0 {
			c.exports.Exports["default"] = syms[0]
		}
		return
	}

	if value := n.Field("value"); value != nil && isDefault {
		if value.Is(ast.KindClass) {
			syms := b.bindDeclaration(value, c)
			if c.exports != nil && len(syms) > 0 {
				c.exports.Exports["default"] = syms[0]
			}
			return
		}
		b.bindNested(value, c.scope)
		if c.exports == nil {
			return
		}
		if value.Is(ast.KindIdentifier) {
			c.exports.Exports["default"] = &Symbol{
				Name:         "default",
				Flags:        SymbolAlias,
				Declarations: []*ast.Node{n},
				alias:        &aliasTarget{local: true, scope: c.scope, name: value.Text()},
			}
			return
		}
		flags := SymbolVariable
		if ast.IsFunctionLike(value.Kind) {
			flags = SymbolFunction
		}
		sym := &Symbol{Name: "default"}
		sym.addDeclaration(value, flags)
		b.p.declared[value] = sym
		c.exports.Exports["default"] = sym
		return
	}

	if c.exports == nil {
		return
	}

	var modPath string
	if source := n.Field("source"); source != nil {
		modPath = unquote(source.Text())
	}

	if ns := n.ChildOfKind(ast.KindNamespaceExport); ns != nil {
		if id := ns.ChildOfKind(ast.KindIdentifier, ast.KindString); id != nil && modPath != "" {
			name := unquote(id.Text())
			c.exports.Exports[name] = &Symbol{
				Name:         name,
				Flags:        SymbolAlias,
				Declarations: []*ast.Node{ns},
				alias:        &aliasTarget{file: b.file, specifier: modPath, name: "*"},
			}
		}
		return
	}

	clause := n.ChildOfKind(ast.KindExportClause)
	if clause == nil {
		if modPath != "" {
			c.exports.reexports = append(c.exports.reexports, aliasTarget{file: b.file, specifier: modPath, name: "*"})
		}
		return
	}
	for _, s := range clause.NamedChildren() {
		if !s.Is(ast.KindExportSpecifier) {
			continue
		}
		local := s.Field("name")
		if local == nil {
			continue
		}
		exported := local
		if a := s.Field("alias"); a != nil {
			exported = a
		}
		target := &aliasTarget{local: true, scope: c.scope, name: unquote(local.Text())}
		if modPath != "" {
			target = &aliasTarget{file: b.file, specifier: modPath, name: unquote(local.Text())}
		}
		name := unquote(exported.Text())
		sym := &Symbol{Name: name, Flags: SymbolAlias, Declarations: []*ast.Node{s}, alias: target}
		c.exports.Exports[name] = sym
		b.p.declared[s] = sym
	}
}

// bindNested walks an arbitrary subtree, creating scopes for functions,
// blocks and class expressions found inside it.
func (b *binder) bindNested(n *ast.Node, scope *Scope) {
	if n == nil {
		return
	}
	switch {
	case ast.IsFunctionLike(n.Kind):
		b.bindFunction(n, scope)
		return
	case n.Is(ast.KindClass):
		b.bindDeclaration(n, container{scope: newScope(ScopeBlock, n, scope)})
		return
	case n.Is(ast.KindStatementBlock):
		block := newScope(ScopeBlock, n, scope)
		b.p.scopes[n] = block
		b.bindStatements(n.Children, container{scope: block})
		return
	case n.Is(ast.KindLexicalDeclaration, ast.KindVariableDeclaration, ast.KindFunctionDeclaration,
		ast.KindClassDeclaration, ast.KindAbstractClassDeclaration, ast.KindInterfaceDeclaration,
		ast.KindEnumDeclaration, ast.KindTypeAliasDeclaration):
		b.bindDeclaration(n, container{scope: scope})
		return
	}
	for _, child := range n.Children {
		b.bindNested(child, scope)
	}
}

func (b *binder) bindFunction(fn *ast.Node, scope *Scope) {
	fs := newScope(ScopeFunction, fn, scope)
	b.p.scopes[fn] = fs
	if fn.Is(ast.KindFunctionExpression, ast.KindFunction) {
		if name := fn.Field("name"); name != nil {
			b.declare(fs, name, SymbolFunction, fn)
		}
	}
	if params := fn.Field("parameters"); params != nil {
		for _, p := range params.NamedChildren() {
			pattern := p.Field("pattern")
			if pattern == nil {
				continue
			}
			if pattern.Is(ast.KindIdentifier) {
				b.declare(fs, pattern, SymbolParameter, p)
			} else {
				for _, id := range patternIdentifiers(pattern) {
					b.declare(fs, id, SymbolParameter, p)
				}
			}
			if t := p.Field("type"); t != nil {
				b.bindTypeLiterals(t)
			}
		}
	} else if id := fn.Field("parameter"); id != nil {
		// Single bare arrow parameter: x => ...
		b.declare(fs, id, SymbolParameter, id)
	}
	if rt := fn.Field("return_type"); rt != nil {
		b.bindTypeLiterals(rt)
	}
	body := fn.Field("body")
	if body == nil {
		return
	}
	if body.Is(ast.KindStatementBlock) {
		block := newScope(ScopeBlock, body, fs)
		b.p.scopes[body] = block
		b.bindStatements(body.Children, container{scope: block})
		return
	}
	b.bindNested(body, fs)
}

func (b *binder) bindHeritage(class *ast.Node, scope *Scope) {
	if h := class.ChildOfKind(ast.KindClassHeritage); h != nil {
		b.bindNested(h, scope)
	}
}

func (b *binder) bindClassBody(sym *Symbol, body *ast.Node, scope *Scope) {
	if sym.Members == nil {
		sym.Members = make(map[string]*Symbol)
	}
	if sym.Exports == nil {
		sym.Exports = make(map[string]*Symbol)
	}
	if body == nil {
		return
	}
	for _, m := range body.Children {
		switch m.Kind {
		case ast.KindMethodDefinition, ast.KindMethodSignature, ast.KindAbstractMethodSignature:
			name := m.Field("name")
			if name != nil && name.Text() != "constructor" {
				b.declareMember(sym, name, SymbolMethod, m, m.HasChildToken("static"))
			}
			if m.Is(ast.KindMethodDefinition) {
				b.bindFunction(m, scope)
			}
		case ast.KindPublicFieldDefinition:
			name := m.Field("name")
			if name != nil {
				b.declareMember(sym, name, SymbolProperty, m, m.HasChildToken("static"))
			}
			if t := m.Field("type"); t != nil {
				b.bindTypeLiterals(t)
			}
			if v := m.Field("value"); v != nil {
				b.bindNested(v, scope)
			}
		}
	}
}

// bindTypeMembers binds interface or type literal members.
func (b *binder) bindTypeMembers(sym *Symbol, body *ast.Node) {
	if sym.Members == nil {
		sym.Members = make(map[string]*Symbol)
	}
	if body == nil {
		return
	}
	for _, m := range body.Children {
		switch m.Kind {
		case ast.KindMethodSignature:
			if name := m.Field("name"); name != nil {
				b.declareMember(sym, name, SymbolMethod, m, false)
			}
			if rt := m.Field("return_type"); rt != nil {
				b.bindTypeLiterals(rt)
			}
		case ast.KindPropertySignature:
			if name := m.Field("name"); name != nil {
				b.declareMember(sym, name, SymbolProperty, m, false)
			}
			if t := m.Field("type"); t != nil {
				b.bindTypeLiterals(t)
			}
		}
	}
}

// bindTypeLiterals gives every object type literal under n an anonymous
// symbol so member access on values typed with it can be resolved.
func (b *binder) bindTypeLiterals(n *ast.Node) {
	if n == nil {
		return
	}
	n.Walk(func(t *ast.Node) bool {
		if t.Is(ast.KindObjectType) {
			if _, done := b.p.typeLiterals[t]; done {
				return false
			}
			sym := &Symbol{Name: "__type"}
			sym.addDeclaration(t, SymbolTypeLiteral)
			b.p.typeLiterals[t] = sym
			b.bindTypeMembers(sym, t)
			return false
		}
		return true
	})
}

func (b *binder) declare(scope *Scope, name *ast.Node, flags SymbolFlags, decl *ast.Node) *Symbol {
	sym := scope.declare(unquote(name.Text()), flags, decl)
	b.p.nameOf[name] = sym
	if _, ok := b.p.declared[decl]; !ok {
		b.p.declared[decl] = sym
	}
	return sym
}

func (b *binder) declareAlias(scope *Scope, name, decl *ast.Node, target *aliasTarget) {
	sym := &Symbol{Name: name.Text(), Flags: SymbolAlias, Declarations: []*ast.Node{decl}, alias: target}
	scope.Symbols[sym.Name] = sym
	b.p.nameOf[name] = sym
	b.p.declared[decl] = sym
}

func (b *binder) declareMember(owner *Symbol, name *ast.Node, flags SymbolFlags, decl *ast.Node, static bool) {
	table := owner.Members
	if static {
		table = owner.Exports
	}
	sym := declareIn(table, unquote(name.Text()), flags, decl, owner)
	b.p.nameOf[name] = sym
	b.p.declared[decl] = sym
}

// patternIdentifiers returns the identifiers bound by a destructuring pattern.
func patternIdentifiers(pattern *ast.Node) []*ast.Node {
	var out []*ast.Node
	pattern.Walk(func(n *ast.Node) bool {
		switch n.Kind {
		case ast.KindShorthandPatternIdent:
			out = append(out, n)
			return false
		case ast.KindIdentifier:
			out = append(out, n)
			return false
		case ast.KindPropertyIdentifier:
			// Keys of "{ a: b }" are not bound.
			return false
		}
		return true
	})
	return out
}

func unquote(s string) string {
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if (first == '"' || first == '\'' || first == '`') && first == last {
			return s[1 : len(s)-1]
		}
	}
	return s
}
