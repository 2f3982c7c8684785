// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package langsvc

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/AleutianAI/tsboundary/services/boundary/analysis"
	"github.com/AleutianAI/tsboundary/services/boundary/ast"
	"github.com/AleutianAI/tsboundary/services/boundary/checker"
)

// CodeSyntaxError is the diagnostic code of parse errors.
const CodeSyntaxError = 1005

// Sort text buckets, lowest first.
const (
	sortLocal      = "11"
	sortGlobal     = "15"
	sortAutoImport = "16"
)

// NativeOption configures a NativeService.
type NativeOption func(*NativeService)

// WithNativeLogger sets the logger. Nil is ignored.
func WithNativeLogger(logger *slog.Logger) NativeOption {
	return func(s *NativeService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NativeService answers language service requests from a program alone.
//
// Description:
//
//	Diagnostics are syntax errors only. Completions list the names in
//	scope at the position, members of the expression before a ".", and
//	the exports of other modules as auto-import candidates. There are no
//	native code fixes.
//
// Thread Safety:
//
//	Safe for concurrent use; the program is read-only.
type NativeService struct {
	prog   *checker.Program
	logger *slog.Logger
}

// NewNativeService creates a service over prog.
func NewNativeService(prog *checker.Program, opts ...NativeOption) *NativeService {
	s := &NativeService{prog: prog, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Program returns the program.
func (s *NativeService) Program() *checker.Program {
	return s.prog
}

func (s *NativeService) file(fileName string) (*ast.SourceFile, error) {
	f, err := s.prog.File(fileName)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotAnalyzable, err)
	}
	return f, nil
}

// GetSemanticDiagnostics reports the file's syntax errors.
func (s *NativeService) GetSemanticDiagnostics(_ context.Context, fileName string) ([]analysis.Diagnostic, error) {
	f, err := s.file(fileName)
	if err != nil {
		return nil, err
	}
	var out []analysis.Diagnostic
	for _, n := range f.SyntaxErrors() {
		msg := "Syntax error."
		if n.Missing {
			msg = fmt.Sprintf("'%s' expected.", n.Kind)
		}
		out = append(out, analysis.Diagnostic{
			File:     f.Path,
			Start:    n.Start,
			Length:   n.End - n.Start,
			Code:     CodeSyntaxError,
			Category: analysis.CategoryError,
			Message:  msg,
			Node:     n,
		})
	}
	return out, nil
}

// GetCompletionsAtPosition lists the candidates at position.
func (s *NativeService) GetCompletionsAtPosition(_ context.Context, fileName string, position int) (*CompletionInfo, error) {
	f, err := s.file(fileName)
	if err != nil {
		return nil, err
	}
	c := s.prog.Checker()

	if obj := memberTarget(f, position); obj != nil {
		info := &CompletionInfo{IsMemberCompletion: true}
		for _, sym := range c.MembersOf(c.TypeOfExpression(obj)) {
			info.Entries = append(info.Entries, entryOf(c, sym, sortLocal, ""))
		}
		return info, nil
	}

	info := &CompletionInfo{}
	location := f.NodeAt(position)
	seen := make(map[string]bool)
	globals := s.prog.Globals()
	for _, sym := range c.SymbolsInScope(location) {
		seen[sym.Name] = true
		sort := sortLocal
		if globals.Symbols[sym.Name] == sym {
			sort = sortGlobal
		}
		info.Entries = append(info.Entries, entryOf(c, sym, sort, ""))
	}

	for _, other := range s.prog.Files() {
		if other == f || other.IsDeclarationFile() {
			continue
		}
		mod := c.ModuleOf(other)
		if mod == nil {
			continue
		}
		for _, sym := range c.ExportsOf(mod) {
			if seen[sym.Name] || sym.Name == "default" {
				continue
			}
			info.Entries = append(info.Entries, entryOf(c, sym, sortAutoImport, other.Path))
		}
	}
	return info, nil
}

func entryOf(c *checker.Checker, sym *checker.Symbol, sortText, source string) CompletionEntry {
	target := c.SkipAlias(sym)
	if target == nil {
		target = sym
	}
	return CompletionEntry{
		Name:          sym.Name,
		Kind:          target.KindString(),
		KindModifiers: kindModifiers(c, target),
		SortText:      sortText,
		Source:        source,
		Symbol:        target,
	}
}

func kindModifiers(c *checker.Checker, sym *checker.Symbol) string {
	for _, tag := range c.JSDocTags(sym) {
		if strings.EqualFold(tag.Name, KindModifierDeprecated) {
			return KindModifierDeprecated
		}
	}
	return ""
}

// memberTarget returns the object expression when position completes a
// property access such as "player.Na|".
func memberTarget(f *ast.SourceFile, position int) *ast.Node {
	i := min(position, len(f.Content))
	for i > 0 && isIdentByte(f.Content[i-1]) {
		i--
	}
	for i > 0 && (f.Content[i-1] == ' ' || f.Content[i-1] == '\t') {
		i--
	}
	if i == 0 || f.Content[i-1] != '.' {
		return nil
	}
	dot := i - 1
	if dot == 0 {
		return nil
	}
	n := f.NodeAt(dot - 1)
	if n == nil || n == f.Root || n.End > dot {
		return nil
	}
	for n.Parent != nil && n.Parent.End == dot && n.Parent.Is(
		ast.KindMemberExpression, ast.KindCallExpression, ast.KindParenthesizedExpression,
		ast.KindNonNullExpression) {
		n = n.Parent
	}
	return n
}

func isIdentByte(b byte) bool {
	return b == '_' || b == '$' || b >= '0' && b <= '9' || b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z'
}

// GetCompletionEntryDetails describes the entry called name at position.
func (s *NativeService) GetCompletionEntryDetails(ctx context.Context, fileName string, position int, name string) (*CompletionEntryDetails, error) {
	info, err := s.GetCompletionsAtPosition(ctx, fileName, position)
	if err != nil {
		return nil, err
	}
	c := s.prog.Checker()
	for _, e := range info.Entries {
		if e.Name != name || e.Symbol == nil {
			continue
		}
		return &CompletionEntryDetails{
			Name:          e.Name,
			Kind:          e.Kind,
			KindModifiers: e.KindModifiers,
			Display:       displayOf(e.Symbol),
			Documentation: c.Documentation(e.Symbol),
			Tags:          tagsOf(c, e.Symbol),
		}, nil
	}
	return nil, nil
}

// GetQuickInfoAtPosition describes the symbol under position.
func (s *NativeService) GetQuickInfoAtPosition(_ context.Context, fileName string, position int) (*QuickInfo, error) {
	f, err := s.file(fileName)
	if err != nil {
		return nil, err
	}
	c := s.prog.Checker()
	n := f.NodeAt(position)
	sym := c.SymbolAtLocation(n)
	if sym == nil {
		return nil, nil
	}
	if target := c.SkipAlias(sym); target != nil {
		sym = target
	}
	return &QuickInfo{
		Kind:          sym.KindString(),
		KindModifiers: kindModifiers(c, sym),
		Span:          n.Span(),
		Display:       displayOf(sym),
		Documentation: c.Documentation(sym),
		Tags:          tagsOf(c, sym),
	}, nil
}

// GetCodeFixesAtPosition returns no fixes.
func (s *NativeService) GetCodeFixesAtPosition(_ context.Context, fileName string, _, _ int, _ []int) ([]analysis.CodeFix, error) {
	if _, err := s.file(fileName); err != nil {
		return nil, err
	}
	return nil, nil
}

func displayOf(sym *checker.Symbol) string {
	name := sym.Name
	if sym.Parent != nil && sym.Flags.Has(checker.SymbolMethod|checker.SymbolProperty) {
		name = sym.Parent.Name + "." + name
	}
	return "(" + sym.KindString() + ") " + name
}

func tagsOf(c *checker.Checker, sym *checker.Symbol) []TagInfo {
	tags := c.JSDocTags(sym)
	if len(tags) == 0 {
		return nil
	}
	out := make([]TagInfo, len(tags))
	for i, t := range tags {
		out[i] = TagInfo{Name: t.Name, Text: t.Text}
	}
	return out
}

var _ LanguageService = (*NativeService)(nil)
