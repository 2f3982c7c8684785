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
	"errors"
	"fmt"
)

// Sentinel errors for parse failures.
//
// These errors can be checked using errors.Is() to determine the
// category of failure without inspecting error messages.
var (
	// ErrUnsupportedLanguage indicates the file extension is not a
	// TypeScript dialect handled by Parser.
	ErrUnsupportedLanguage = errors.New("unsupported language")

	// ErrParseFailed indicates tree-sitter produced no tree at all.
	//
	// Syntax errors inside the file are not reported this way; they are
	// kept in the tree as ERROR nodes and surfaced by SourceFile.SyntaxErrors.
	ErrParseFailed = errors.New("parse failed")

	// ErrInvalidContent indicates the content is not valid UTF-8.
	ErrInvalidContent = errors.New("invalid content")

	// ErrFileTooLarge indicates the content exceeds the parser's size limit.
	ErrFileTooLarge = errors.New("file too large")
)

// ParseError provides detailed information about a parse failure.
//
// Example:
//
//	file, err := parser.Parse(ctx, "src/Player.ts", content)
//	if err != nil {
//	    var parseErr *ParseError
//	    if errors.As(err, &parseErr) {
//	        fmt.Printf("%s:%d: %s\n", parseErr.FilePath, parseErr.Line, parseErr.Message)
//	    }
//	}
type ParseError struct {
	// FilePath is the path to the file where the error occurred.
	FilePath string

	// Line is the 1-indexed line number, 0 if unknown.
	Line int

	// Column is the 1-indexed column, 0 if unknown.
	Column int

	// Message describes the error in human-readable form.
	Message string

	// Cause is the underlying error, may be nil.
	Cause error
}

// Error returns a formatted error message including file location.
func (e *ParseError) Error() string {
	if e.Line > 0 && e.Column > 0 {
		return fmt.Sprintf("%s:%d:%d: %s", e.FilePath, e.Line, e.Column, e.Message)
	}
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", e.FilePath, e.Line, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.FilePath, e.Message)
}

// Unwrap returns the underlying cause error.
func (e *ParseError) Unwrap() error {
	return e.Cause
}

// WrapParseError wraps an error with file context.
//
// If the error is already a ParseError it is returned unchanged. Returns nil
// if err is nil.
func WrapParseError(err error, filePath string) error {
	if err == nil {
		return nil
	}

	var parseErr *ParseError
	if errors.As(err, &parseErr) {
		return err
	}

	return &ParseError{
		FilePath: filePath,
		Message:  err.Error(),
		Cause:    err,
	}
}
