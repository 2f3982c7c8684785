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

	"github.com/AleutianAI/tsboundary/services/boundary/analysis"
	"github.com/AleutianAI/tsboundary/services/boundary/ast"
	"github.com/AleutianAI/tsboundary/services/boundary/checker"
)

// Method names used in logs, metrics and PluginError.
const (
	MethodSemanticDiagnostics = "getSemanticDiagnostics"
	MethodCompletions         = "getCompletionsAtPosition"
	MethodCompletionDetails   = "getCompletionEntryDetails"
	MethodQuickInfo           = "getQuickInfoAtPosition"
	MethodCodeFixes           = "getCodeFixesAtPosition"
)

// KindModifierDeprecated marks a deprecated completion entry.
const KindModifierDeprecated = "deprecated"

// LanguageService is the request surface the plugin augments.
//
// Positions are byte offsets into the file content. Methods never modify
// the program.
type LanguageService interface {
	// Program returns the program requests are answered against.
	Program() *checker.Program

	GetSemanticDiagnostics(ctx context.Context, fileName string) ([]analysis.Diagnostic, error)
	GetCompletionsAtPosition(ctx context.Context, fileName string, position int) (*CompletionInfo, error)
	GetCompletionEntryDetails(ctx context.Context, fileName string, position int, name string) (*CompletionEntryDetails, error)
	GetQuickInfoAtPosition(ctx context.Context, fileName string, position int) (*QuickInfo, error)
	GetCodeFixesAtPosition(ctx context.Context, fileName string, start, end int, errorCodes []int) ([]analysis.CodeFix, error)
}

// CompletionEntry is one completion candidate.
type CompletionEntry struct {
	Name          string `json:"name"`
	Kind          string `json:"kind"`
	KindModifiers string `json:"kindModifiers,omitempty"`
	SortText      string `json:"sortText"`

	// InsertText replaces Name when inserting. Empty means Name.
	InsertText string `json:"insertText,omitempty"`

	// Source is the file an auto-import entry would be imported from.
	Source string `json:"source,omitempty"`

	// Symbol is the entry's symbol when known.
	Symbol *checker.Symbol `json:"-"`
}

// CompletionInfo is the result of a completion request.
type CompletionInfo struct {
	IsMemberCompletion bool              `json:"isMemberCompletion"`
	Entries            []CompletionEntry `json:"entries"`
}

// TagInfo is a documentation tag shown in hovers and details.
type TagInfo struct {
	Name string `json:"name"`
	Text string `json:"text,omitempty"`
}

// CompletionEntryDetails describes a single completion entry.
type CompletionEntryDetails struct {
	Name          string    `json:"name"`
	Kind          string    `json:"kind"`
	KindModifiers string    `json:"kindModifiers,omitempty"`
	Display       string    `json:"display"`
	Documentation string    `json:"documentation,omitempty"`
	Tags          []TagInfo `json:"tags,omitempty"`
}

// QuickInfo is the hover result for a position.
type QuickInfo struct {
	Kind          string    `json:"kind"`
	KindModifiers string    `json:"kindModifiers,omitempty"`
	Span          ast.Span  `json:"span"`
	Display       string    `json:"display"`
	Documentation string    `json:"documentation,omitempty"`
	Tags          []TagInfo `json:"tags,omitempty"`
}
