// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package project

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/tsboundary/services/boundary/ast"
	"github.com/AleutianAI/tsboundary/services/boundary/checker"
)

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithParser sets the parser. Nil is ignored.
func WithParser(p *ast.Parser) LoaderOption {
	return func(l *Loader) {
		if p != nil {
			l.parser = p
		}
	}
}

// WithConcurrency bounds the number of files parsed at once. Values below
// one are ignored.
func WithConcurrency(n int) LoaderOption {
	return func(l *Loader) {
		if n > 0 {
			l.concurrency = n
		}
	}
}

// WithIgnore adds gitignore-style patterns on top of the root .gitignore.
func WithIgnore(patterns ...string) LoaderOption {
	return func(l *Loader) {
		l.extraIgnores = append(l.extraIgnores, patterns...)
	}
}

// WithLoaderLogger sets the logger. Nil is ignored.
func WithLoaderLogger(logger *slog.Logger) LoaderOption {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// SkippedFile is a source that could not be parsed.
type SkippedFile struct {
	Path string
	Err  error
}

// Snapshot is one load of a project.
type Snapshot struct {
	// Root is the absolute project root.
	Root string

	// Program binds every parsed file.
	Program *checker.Program

	// Skipped lists files left out because they could not be parsed.
	Skipped []SkippedFile

	// Duration is the wall time of the load.
	Duration time.Duration
}

// Loader parses a project directory into a checker.Program.
//
// Thread Safety:
//
//	Safe for concurrent use; every Load works on its own state.
type Loader struct {
	root         string
	parser       *ast.Parser
	concurrency  int
	extraIgnores []string
	logger       *slog.Logger
}

// NewLoader creates a loader for root.
func NewLoader(root string, opts ...LoaderOption) (*Loader, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve project root: %w", err)
	}
	l := &Loader{
		root:        abs,
		parser:      ast.NewParser(),
		concurrency: runtime.GOMAXPROCS(0),
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Root returns the absolute project root.
func (l *Loader) Root() string {
	return l.root
}

// Discover lists the project's sources.
func (l *Loader) Discover() ([]string, error) {
	return discover(l.root, l.parser, l.extraIgnores)
}

// Load discovers and parses every source and binds them into a Program.
//
// Description:
//
//	Files are parsed in parallel, bounded by the configured concurrency.
//	Files the parser rejects (too large, not UTF-8) are skipped and
//	reported in the snapshot; read failures and cancellation abort the
//	load.
//
// Outputs:
//   - *Snapshot: The loaded program. Nil on error.
//   - error: Discovery, read, bind or context errors.
func (l *Loader) Load(ctx context.Context) (*Snapshot, error) {
	files, err := l.Discover()
	if err != nil {
		return nil, err
	}
	return l.LoadFiles(ctx, files)
}

// LoadFiles parses the given root-relative files into a Program.
func (l *Loader) LoadFiles(ctx context.Context, files []string) (*Snapshot, error) {
	ctx, span := startLoadSpan(ctx, l.root, len(files))
	defer span.End()
	start := time.Now()

	parsed := make([]*ast.SourceFile, len(files))
	skipped := make([]error, len(files))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(l.concurrency)
	for i, rel := range files {
		g.Go(func() error {
			content, err := os.ReadFile(filepath.Join(l.root, filepath.FromSlash(rel)))
			if err != nil {
				return fmt.Errorf("read %s: %w", rel, err)
			}
			f, err := l.parser.Parse(gCtx, rel, content)
			switch {
			case err == nil:
				parsed[i] = f
			case errors.Is(err, ast.ErrFileTooLarge), errors.Is(err, ast.ErrInvalidContent),
				errors.Is(err, ast.ErrUnsupportedLanguage):
				skipped[i] = err
			default:
				return err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		recordLoad(ctx, time.Since(start), 0, 0, false)
		return nil, err
	}

	snap := &Snapshot{Root: l.root}
	sources := make([]*ast.SourceFile, 0, len(files))
	for i, f := range parsed {
		if f != nil {
			sources = append(sources, f)
			continue
		}
		if skipped[i] != nil {
			l.logger.Warn("skipping unparseable file", slog.String("file", files[i]), slog.Any("error", skipped[i]))
			snap.Skipped = append(snap.Skipped, SkippedFile{Path: files[i], Err: skipped[i]})
		}
	}

	prog, err := checker.NewProgram(sources...)
	if err != nil {
		recordLoad(ctx, time.Since(start), 0, 0, false)
		return nil, fmt.Errorf("bind program: %w", err)
	}
	snap.Program = prog
	snap.Duration = time.Since(start)

	recordLoad(ctx, snap.Duration, len(sources), len(snap.Skipped), true)
	setLoadSpanResult(span, len(sources), len(snap.Skipped))
	l.logger.Debug("project loaded",
		slog.String("root", l.root),
		slog.Int("files", len(sources)),
		slog.Int("skipped", len(snap.Skipped)),
		slog.Duration("duration", snap.Duration),
	)
	return snap, nil
}
