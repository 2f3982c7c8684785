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
	"github.com/AleutianAI/tsboundary/services/boundary/checker"
)

// ClassifyMethod returns the declared boundary of a method.
//
// Description:
//
//	Decorators are inspected first: "@Server()", "@Client()" and "@Host()"
//	match when the invoked name resolves to the well-known factory, so
//	aliased imports work and same-named local functions do not. When no
//	decorator matches, "@server", "@client" and "@host" documentation tags
//	apply. Anything else is Shared.
func (a *Analyzer) ClassifyMethod(decl *ast.Node) NetworkBoundary {
	if b, ok := a.decoratorBoundary(decl); ok {
		return b
	}
	return docBoundary(decl)
}

// ClassifyFunction returns the declared boundary of a plain function.
// Functions cannot carry decorators, so only documentation tags apply.
func (a *Analyzer) ClassifyFunction(decl *ast.Node) NetworkBoundary {
	return docBoundary(decl)
}

// DeclaredBoundary returns the boundary a callable symbol is declared
// with. The first declaration with a non-Shared boundary wins.
func (a *Analyzer) DeclaredBoundary(sym *checker.Symbol) NetworkBoundary {
	if sym == nil {
		return Shared
	}
	for _, d := range sym.Declarations {
		var b NetworkBoundary
		switch d.Kind {
		case ast.KindMethodDefinition:
			b = a.ClassifyMethod(d)
		case ast.KindFunctionDeclaration, ast.KindGeneratorFunctionDeclaration, ast.KindFunctionSignature:
			b = a.ClassifyFunction(d)
		case ast.KindMethodSignature, ast.KindAbstractMethodSignature,
			ast.KindPublicFieldDefinition, ast.KindPropertySignature, ast.KindVariableDeclarator:
			b = docBoundary(d)
		}
		if b != Shared {
			return b
		}
	}
	return Shared
}

// SymbolBoundary returns the boundary used to annotate completion entries.
//
// Explicit "@server", "@client" and "@shared" tags win, then decorators,
// then the default boundary of the declaring file.
func (a *Analyzer) SymbolBoundary(sym *checker.Symbol) NetworkBoundary {
	if sym == nil {
		return Shared
	}
	for _, d := range sym.Declarations {
		doc := ast.DocOf(d)
		if doc == nil {
			continue
		}
		switch {
		case doc.HasTag("server"):
			return Server
		case doc.HasTag("client"):
			return Client
		case doc.HasTag("host"):
			return Host
		case doc.HasTag("shared"):
			return Shared
		}
	}
	if b := a.DeclaredBoundary(sym); b != Shared {
		return b
	}
	for _, d := range sym.Declarations {
		if d.File != nil {
			return a.files.BoundaryOf(d.File.Path)
		}
	}
	return Shared
}

func (a *Analyzer) decoratorBoundary(decl *ast.Node) (NetworkBoundary, bool) {
	for _, dec := range ast.Decorators(decl) {
		callee := ast.DecoratorCallee(dec)
		if callee == nil {
			continue
		}
		sym := a.checker.SkipAlias(a.checker.SymbolAtLocation(callee))
		switch {
		case is(sym, a.symbols.ServerDecorator()):
			return Server, true
		case is(sym, a.symbols.ClientDecorator()):
			return Client, true
		case is(sym, a.symbols.HostDecorator()):
			return Host, true
		}
	}
	return Shared, false
}

func docBoundary(decl *ast.Node) NetworkBoundary {
	doc := ast.DocOf(decl)
	if doc == nil {
		return Shared
	}
	switch {
	case doc.HasTag("server"):
		return Server
	case doc.HasTag("client"):
		return Client
	case doc.HasTag("host"):
		return Host
	}
	return Shared
}
