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
	"path"
	"strings"

	"github.com/AleutianAI/tsboundary/services/boundary/ast"
)

// maxResolveDepth bounds alias chains and type inference recursion.
const maxResolveDepth = 32

// Checker answers symbol and type queries over a Program.
//
// Description:
//
//	Checker is the subset of a TypeScript type-checker that the boundary
//	analysis needs: name resolution through lexical scopes and module
//	imports, symbol lookup at a syntax location, alias stripping, member
//	lookup through declared types and base classes, and return type
//	nullability.
//
//	Unresolvable names are reported as nil symbols, never as errors.
//
// Thread Safety:
//
//	Checker holds no mutable state and is safe for concurrent use.
type Checker struct {
	p *Program
}

// Program returns the program being checked.
func (c *Checker) Program() *Program {
	return c.p
}

// ScopeAt returns the innermost scope enclosing n. A nil node yields the
// global scope.
func (c *Checker) ScopeAt(n *ast.Node) *Scope {
	for cur := n; cur != nil; cur = cur.Parent {
		if s, ok := c.p.scopes[cur]; ok {
			return s
		}
	}
	return c.p.globals
}

// ResolveName resolves a name as seen from location. A nil location
// resolves against the global scope only.
func (c *Checker) ResolveName(name string, location *ast.Node) *Symbol {
	return c.ScopeAt(location).Lookup(name)
}

// SymbolOfDeclaration returns the symbol a declaration node introduced.
func (c *Checker) SymbolOfDeclaration(decl *ast.Node) *Symbol {
	return c.p.declared[decl]
}

// SymbolAtLocation returns the symbol an expression or name refers to.
//
// Description:
//
//	Handles identifiers (including declaration names and import bindings),
//	property names of member expressions, member expressions themselves,
//	and declaration names of class and interface members. Parentheses and
//	non-null assertions are looked through. Aliases are not stripped;
//	use SkipAlias for that.
//
// Outputs:
//   - *Symbol: The referenced symbol, or nil when it cannot be resolved.
func (c *Checker) SymbolAtLocation(n *ast.Node) *Symbol {
	n = unwrapExpression(n)
	if n == nil {
		return nil
	}
	if sym, ok := c.p.nameOf[n]; ok {
		return sym
	}
	switch n.Kind {
	case ast.KindIdentifier, ast.KindTypeIdentifier, ast.KindShorthandPropertyIdent:
		return c.ResolveName(n.Text(), n)
	case ast.KindPropertyIdentifier, ast.KindPrivatePropertyIdent:
		if n.Parent.Is(ast.KindMemberExpression) && n.FieldName() == "property" {
			return c.memberOfExpression(n.Parent.Field("object"), n.Text(), 0)
		}
	case ast.KindMemberExpression:
		return c.SymbolAtLocation(n.Field("property"))
	case ast.KindThis:
		return c.ContainingClass(n)
	}
	return nil
}

// SkipAlias follows import and re-export aliases to the symbol they name.
// Returns nil when an alias cannot be resolved. Non-alias symbols are
// returned unchanged.
func (c *Checker) SkipAlias(sym *Symbol) *Symbol {
	seen := make(map[*Symbol]bool)
	for sym != nil && sym.IsAlias() {
		if seen[sym] || len(seen) > maxResolveDepth {
			return nil
		}
		seen[sym] = true
		sym = c.resolveAlias(sym)
	}
	return sym
}

func (c *Checker) resolveAlias(sym *Symbol) *Symbol {
	t := sym.alias
	if t == nil {
		return nil
	}
	if t.local {
		// A local export alias must not resolve to itself.
		found := t.scope.Lookup(t.name)
		if found == sym {
			return nil
		}
		return found
	}
	mod := c.ResolveModule(t.specifier, t.file)
	if mod == nil {
		return nil
	}
	if t.name == "*" {
		return mod
	}
	return c.moduleExport(mod, t.name, make(map[*Symbol]bool))
}

// ResolveModule resolves an import specifier relative to the importing file.
//
// Relative specifiers are tried with .ts, .tsx, .d.ts and index suffixes.
// Bare specifiers match ambient "declare module" blocks first, then any
// program file whose extensionless path ends with the specifier.
func (c *Checker) ResolveModule(specifier string, from *ast.SourceFile) *Symbol {
	if strings.HasPrefix(specifier, ".") || strings.HasPrefix(specifier, "/") {
		base := specifier
		if from != nil && !strings.HasPrefix(specifier, "/") {
			base = path.Join(path.Dir(normalizePath(from.Path)), specifier)
		}
		return c.moduleAtBase(path.Clean(base))
	}
	if mod, ok := c.p.ambient[specifier]; ok {
		return mod
	}
	for _, f := range c.p.files {
		mod, ok := c.p.modules[f]
		if !ok {
			continue
		}
		trimmed := trimTSExtension(normalizePath(f.Path))
		if trimmed == specifier || strings.HasSuffix(trimmed, "/"+specifier) {
			return mod
		}
	}
	return nil
}

// FileOfModule returns the source file a module symbol was bound from, or
// nil for ambient modules.
func (c *Checker) FileOfModule(mod *Symbol) *ast.SourceFile {
	if mod == nil {
		return nil
	}
	for f, m := range c.p.modules {
		if m == mod {
			return f
		}
	}
	return nil
}

// ModuleOf returns the module symbol of a file, or nil for scripts.
func (c *Checker) ModuleOf(f *ast.SourceFile) *Symbol {
	return c.p.modules[f]
}

func (c *Checker) moduleAtBase(base string) *Symbol {
	base = strings.TrimSuffix(base, ".js")
	candidates := []string{
		base,
		base + ".ts",
		base + ".tsx",
		base + ".d.ts",
		base + "/index.ts",
		base + "/index.tsx",
		base + "/index.d.ts",
	}
	for _, cand := range candidates {
		if f, ok := c.p.byPath[cand]; ok {
			if mod, ok := c.p.modules[f]; ok {
				return mod
			}
		}
	}
	return nil
}

func trimTSExtension(p string) string {
	for _, ext := range []string{".d.ts", ".tsx", ".ts", ".mts", ".cts"} {
		if strings.HasSuffix(p, ext) {
			return strings.TrimSuffix(p, ext)
		}
	}
	return p
}

// moduleExport finds an export by name, following "export *" re-exports.
func (c *Checker) moduleExport(mod *Symbol, name string, visited map[*Symbol]bool) *Symbol {
	if mod == nil || visited[mod] {
		return nil
	}
	visited[mod] = true
	if sym, ok := mod.Exports[name]; ok {
		return sym
	}
	if name == "default" {
		return nil
	}
	for _, re := range mod.reexports {
		if found := c.moduleExport(c.ResolveModule(re.specifier, re.file), name, visited); found != nil {
			return found
		}
	}
	return nil
}

// ExportsOf lists the exports of a module or namespace, including names
// re-exported with "export *".
func (c *Checker) ExportsOf(mod *Symbol) []*Symbol {
	table := make(map[string]*Symbol)
	visited := make(map[*Symbol]bool)
	var collect func(m *Symbol)
	collect = func(m *Symbol) {
		if m == nil || visited[m] {
			return
		}
		visited[m] = true
		for name, sym := range m.Exports {
			if _, ok := table[name]; !ok {
				table[name] = sym
			}
		}
		for _, re := range m.reexports {
			collect(c.ResolveModule(re.specifier, re.file))
		}
	}
	collect(mod)
	return sortedSymbols(table)
}

// ContainingClass returns the symbol of the nearest enclosing class.
func (c *Checker) ContainingClass(n *ast.Node) *Symbol {
	cls := n.Ancestor(ast.KindClassDeclaration, ast.KindAbstractClassDeclaration, ast.KindClass)
	if cls == nil {
		return nil
	}
	return c.p.declared[cls]
}

// SymbolsInScope lists every name visible at location, innermost first
// for shadowed names, ordered by name.
func (c *Checker) SymbolsInScope(location *ast.Node) []*Symbol {
	table := make(map[string]*Symbol)
	for s := c.ScopeAt(location); s != nil; s = s.Parent {
		for name, sym := range s.Symbols {
			if _, shadowed := table[name]; !shadowed {
				table[name] = sym
			}
		}
	}
	return sortedSymbols(table)
}

// JSDocTags returns the documentation tags of every declaration of sym.
func (c *Checker) JSDocTags(sym *Symbol) []ast.JSDocTag {
	if sym == nil {
		return nil
	}
	var tags []ast.JSDocTag
	for _, d := range sym.Declarations {
		if doc := ast.DocOf(d); doc != nil {
			tags = append(tags, doc.Tags...)
		}
	}
	return tags
}

// Documentation returns the description of the first documented
// declaration of sym.
func (c *Checker) Documentation(sym *Symbol) string {
	if sym == nil {
		return ""
	}
	for _, d := range sym.Declarations {
		if doc := ast.DocOf(d); doc != nil && doc.Description != "" {
			return doc.Description
		}
	}
	return ""
}

func unwrapExpression(n *ast.Node) *ast.Node {
	for {
		n = ast.Unparen(n)
		if n.Is(ast.KindNonNullExpression) {
			inner := n.NamedChildren()
			if len(inner) == 0 {
				return n
			}
			n = inner[0]
			continue
		}
		return n
	}
}
