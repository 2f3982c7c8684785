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
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

const (
	// DefaultMaxFileSize is the largest file Parse accepts by default.
	DefaultMaxFileSize int64 = 10 * 1024 * 1024

	// WarnFileSize triggers a warning log for files above this size.
	WarnFileSize = 1024 * 1024
)

// ParserOption configures a Parser instance.
type ParserOption func(*Parser)

// WithMaxFileSize sets the maximum file size the parser will accept.
//
// Parameters:
//   - bytes: Maximum file size in bytes. Non-positive values are ignored.
func WithMaxFileSize(bytes int64) ParserOption {
	return func(p *Parser) {
		if bytes > 0 {
			p.maxFileSize = bytes
		}
	}
}

// WithLogger sets the logger used for size warnings.
func WithLogger(logger *slog.Logger) ParserOption {
	return func(p *Parser) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// Parser converts TypeScript source into SourceFile trees.
//
// Description:
//
//	Parser uses tree-sitter with the TypeScript grammar, or the TSX grammar
//	for .tsx files. Each Parse call creates its own tree-sitter parser so
//	a single Parser can be shared between goroutines.
//
// Thread Safety:
//
//	Parser instances are safe for concurrent use.
type Parser struct {
	maxFileSize int64
	logger      *slog.Logger
}

// NewParser creates a Parser with the given options.
func NewParser(opts ...ParserOption) *Parser {
	p := &Parser{
		maxFileSize: DefaultMaxFileSize,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Extensions returns the file extensions this parser handles.
func (p *Parser) Extensions() []string {
	return []string{".ts", ".tsx", ".mts", ".cts"}
}

// Supports reports whether the path has a TypeScript extension.
func (p *Parser) Supports(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range p.Extensions() {
		if e == ext {
			return true
		}
	}
	return false
}

// Parse builds a SourceFile from TypeScript source.
//
// Description:
//
//	Parses content with tree-sitter and converts the resulting tree into
//	owned Nodes with parent back-references. The parser is error-tolerant:
//	syntactically broken code still yields a tree with ERROR nodes.
//
// Inputs:
//   - ctx: Context for cancellation. Checked before and after parsing.
//   - path: File path, used to select the grammar and for error reporting.
//   - content: Raw source bytes. Must be valid UTF-8.
//
// Outputs:
//   - *SourceFile: The converted tree. Never nil on success.
//   - error: ErrUnsupportedLanguage, ErrFileTooLarge, ErrInvalidContent,
//     ErrParseFailed (wrapped in a ParseError), or a context error.
//
// Thread Safety:
//
//	This method is safe for concurrent use.
func (p *Parser) Parse(ctx context.Context, path string, content []byte) (*SourceFile, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("parse canceled before start: %w", err)
	}
	if !p.Supports(path) {
		return nil, WrapParseError(fmt.Errorf("%w: %s", ErrUnsupportedLanguage, filepath.Ext(path)), path)
	}
	if int64(len(content)) > p.maxFileSize {
		return nil, WrapParseError(fmt.Errorf("%w: size %d exceeds limit %d", ErrFileTooLarge, len(content), p.maxFileSize), path)
	}
	if len(content) > WarnFileSize {
		p.logger.Warn("parsing large file",
			slog.String("file", path),
			slog.Int("size_bytes", len(content)))
	}
	if !utf8.Valid(content) {
		line, col := invalidUTF8Position(content)
		return nil, &ParseError{
			FilePath: path,
			Line:     line,
			Column:   col,
			Message:  "content is not valid UTF-8",
			Cause:    ErrInvalidContent,
		}
	}

	isTSX := strings.HasSuffix(strings.ToLower(path), ".tsx")
	language := "typescript"
	if isTSX {
		language = "tsx"
	}

	ctx, span := startParseSpan(ctx, language, path, len(content))
	defer span.End()
	start := time.Now()

	parser := sitter.NewParser()
	if isTSX {
		parser.SetLanguage(tsx.GetLanguage())
	} else {
		parser.SetLanguage(typescript.GetLanguage())
	}

	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		recordParseMetrics(ctx, language, time.Since(start), 0, false)
		return nil, &ParseError{FilePath: path, Message: "tree-sitter parse failed", Cause: fmt.Errorf("%w: %v", ErrParseFailed, err)}
	}
	defer tree.Close()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("parse canceled after tree-sitter: %w", err)
	}

	rootNode := tree.RootNode()
	if rootNode == nil {
		recordParseMetrics(ctx, language, time.Since(start), 0, false)
		return nil, &ParseError{FilePath: path, Message: "tree-sitter returned nil root node", Cause: ErrParseFailed}
	}

	file := &SourceFile{
		Path:    filepath.ToSlash(path),
		Content: content,
		TSX:     isTSX,
	}
	file.computeLines()

	count := 0
	file.Root = convert(rootNode, nil, file, &count)

	errCount := 0
	if rootNode.HasError() {
		errCount = len(file.SyntaxErrors())
	}
	setParseSpanResult(span, count, errCount)
	recordParseMetrics(ctx, language, time.Since(start), count, true)
	return file, nil
}

// ParseString is a convenience wrapper for tests and tooling.
func (p *Parser) ParseString(ctx context.Context, path, content string) (*SourceFile, error) {
	return p.Parse(ctx, path, []byte(content))
}

type fieldKey struct {
	start, end uint32
	kind       string
}

// convert copies a tree-sitter subtree into owned Nodes.
func convert(sn *sitter.Node, parent *Node, file *SourceFile, count *int) *Node {
	*count++
	n := &Node{
		Kind:    sn.Type(),
		Start:   int(sn.StartByte()),
		End:     int(sn.EndByte()),
		Named:   sn.IsNamed(),
		Missing: sn.IsMissing(),
		Parent:  parent,
		File:    file,
	}

	childCount := int(sn.ChildCount())
	if childCount == 0 {
		return n
	}

	// tree-sitter only exposes fields by name, so build a reverse index
	// from the child's identity to the field it occupies.
	var byKey map[fieldKey]string
	for _, name := range knownFields {
		fc := sn.ChildByFieldName(name)
		if fc == nil {
			continue
		}
		if byKey == nil {
			byKey = make(map[fieldKey]string, 4)
		}
		key := fieldKey{fc.StartByte(), fc.EndByte(), fc.Type()}
		if _, exists := byKey[key]; !exists {
			byKey[key] = name
		}
	}

	n.Children = make([]*Node, 0, childCount)
	for i := 0; i < childCount; i++ {
		sc := sn.Child(i)
		if sc == nil {
			continue
		}
		child := convert(sc, n, file, count)
		child.index = len(n.Children)
		if byKey != nil {
			key := fieldKey{sc.StartByte(), sc.EndByte(), sc.Type()}
			if name, ok := byKey[key]; ok {
				child.field = name
				if n.fields == nil {
					n.fields = make(map[string]*Node, len(byKey))
				}
				n.fields[name] = child
				delete(byKey, key)
			}
		}
		n.Children = append(n.Children, child)
	}
	return n
}

// invalidUTF8Position returns the 1-indexed line and byte column of the
// first invalid UTF-8 sequence in content.
func invalidUTF8Position(content []byte) (int, int) {
	line, lineStart := 1, 0
	for i := 0; i < len(content); {
		r, size := utf8.DecodeRune(content[i:])
		if r == utf8.RuneError && size <= 1 {
			return line, i - lineStart + 1
		}
		if r == '\n' {
			line++
			lineStart = i + 1
		}
		i += size
	}
	return 0, 0
}
