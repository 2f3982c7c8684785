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
	"fmt"

	"github.com/AleutianAI/tsboundary/services/boundary/ast"
)

// Behaviour is a top-level class deriving from the component base class.
type Behaviour struct {
	Name string

	// Class is the class declaration; Statement is the export statement
	// wrapping it, or the class itself when not exported.
	Class     *ast.Node
	Statement *ast.Node

	Exported bool
	Default  bool
	Abstract bool
}

// Valid reports whether the behaviour is a default export or abstract.
func (b Behaviour) Valid() bool {
	return b.Default || b.Abstract
}

// Behaviours lists the top-level component classes of a file.
func (a *Analyzer) Behaviours(file *ast.SourceFile) []Behaviour {
	base := a.symbols.Behaviour()
	if base == nil {
		return nil
	}
	var out []Behaviour
	for _, stmt := range file.Root.NamedChildren() {
		b, ok := a.behaviourOf(stmt)
		if ok {
			out = append(out, b)
		}
	}
	return out
}

func (a *Analyzer) behaviourOf(stmt *ast.Node) (Behaviour, bool) {
	class := stmt
	exported := false
	if stmt.Is(ast.KindExportStatement) {
		class = stmt.Field("declaration")
		exported = true
	}
	if !class.Is(ast.KindClassDeclaration, ast.KindAbstractClassDeclaration) {
		return Behaviour{}, false
	}
	name := class.Field("name")
	if name == nil {
		return Behaviour{}, false
	}
	sym := a.checker.SymbolOfDeclaration(class)
	if sym == nil || !a.checker.InheritsFrom(sym, a.symbols.Behaviour()) {
		return Behaviour{}, false
	}
	return Behaviour{
		Name:      name.Text(),
		Class:     class,
		Statement: stmt,
		Exported:  exported,
		Default:   exported && stmt.HasChildToken("default"),
		Abstract:  class.Is(ast.KindAbstractClassDeclaration),
	}, true
}

// CheckBehaviours reports component classes that are neither exported
// as default nor abstract. The span covers the class name.
func (a *Analyzer) CheckBehaviours(file *ast.SourceFile) []Diagnostic {
	var out []Diagnostic
	for _, b := range a.Behaviours(file) {
		if b.Valid() {
			continue
		}
		msg := fmt.Sprintf("AirshipBehaviour '%s' must have a default or abstract modifier", b.Name)
		d := newDiagnostic(b.Class.Field("name"), CodeBehaviourDeclaration, CategoryError, msg)
		d.Node = b.Class
		out = append(out, d)
	}
	return out
}

// FindBehaviour returns the component class containing offset.
func (a *Analyzer) FindBehaviour(file *ast.SourceFile, offset int) (Behaviour, bool) {
	n := file.NodeAt(offset)
	if n == nil {
		return Behaviour{}, false
	}
	class := n
	if !class.Is(ast.KindClassDeclaration, ast.KindAbstractClassDeclaration) {
		class = n.Ancestor(ast.KindClassDeclaration, ast.KindAbstractClassDeclaration)
	}
	if class == nil || a.symbols.Behaviour() == nil {
		return Behaviour{}, false
	}
	stmt := class
	if class.Parent.Is(ast.KindExportStatement) {
		stmt = class.Parent
	}
	if stmt.Parent == nil || !stmt.Parent.Is(ast.KindProgram) {
		return Behaviour{}, false
	}
	return a.behaviourOf(stmt)
}
