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
	"log/slog"

	"github.com/AleutianAI/tsboundary/services/boundary/checker"
)

// AnalyzerOption configures an Analyzer.
type AnalyzerOption func(*Analyzer)

// WithFileBoundaries sets the per-file default boundaries used as the
// resolver's root fallback. Without it every file defaults to Shared.
func WithFileBoundaries(cache *FileBoundaryCache) AnalyzerOption {
	return func(a *Analyzer) {
		a.files = cache
	}
}

// WithAnalyzerLogger sets the logger.
func WithAnalyzerLogger(logger *slog.Logger) AnalyzerOption {
	return func(a *Analyzer) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// Analyzer answers network boundary questions about one program.
//
// Description:
//
//	An Analyzer is bound to the checker of a single Program and to a
//	SymbolDirectory that has been refreshed against that checker. Create
//	a new Analyzer for every request; construction is cheap.
//
// Thread Safety:
//
//	Safe for concurrent use as long as the directory is not refreshed
//	against another program meanwhile.
type Analyzer struct {
	checker *checker.Checker
	symbols *SymbolDirectory
	files   *FileBoundaryCache
	logger  *slog.Logger
}

// NewAnalyzer creates an Analyzer. The caller refreshes symbols against c
// beforehand.
func NewAnalyzer(c *checker.Checker, symbols *SymbolDirectory, opts ...AnalyzerOption) *Analyzer {
	a := &Analyzer{
		checker: c,
		symbols: symbols,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Checker returns the checker the analyzer resolves symbols with.
func (a *Analyzer) Checker() *checker.Checker {
	return a.checker
}

// Symbols returns the well-known symbol directory.
func (a *Analyzer) Symbols() *SymbolDirectory {
	return a.symbols
}

// FileBoundary returns the default boundary of a file path.
func (a *Analyzer) FileBoundary(file string) NetworkBoundary {
	return a.files.BoundaryOf(file)
}
