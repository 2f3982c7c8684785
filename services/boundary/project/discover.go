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
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"

	"github.com/AleutianAI/tsboundary/services/boundary/ast"
	"github.com/AleutianAI/tsboundary/services/boundary/config"
)

// ErrNotDirectory is returned when the project root is not a directory.
var ErrNotDirectory = errors.New("project root is not a directory")

// skipDirs are never descended into.
var skipDirs = map[string]struct{}{
	"node_modules": {},
	".git":         {},
	".hg":          {},
	".svn":         {},
	"out":          {},
	"dist":         {},
	"build":        {},
	".idea":        {},
	".vscode":      {},
}

// matcher decides which paths below a root belong to the project.
type matcher struct {
	root   string
	parser *ast.Parser
	ignore *ignore.GitIgnore
}

// newMatcher compiles the root .gitignore together with extra patterns.
// A missing .gitignore is not an error.
func newMatcher(root string, parser *ast.Parser, extra []string) (*matcher, error) {
	var lines []string
	data, err := os.ReadFile(filepath.Join(root, ".gitignore"))
	switch {
	case err == nil:
		lines = strings.Split(string(data), "\n")
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, fmt.Errorf("read .gitignore: %w", err)
	}
	lines = append(lines, extra...)
	return &matcher{
		root:   root,
		parser: parser,
		ignore: ignore.CompileIgnoreLines(lines...),
	}, nil
}

// rel converts an absolute path below root to a slash-separated relative
// path. The second result is false for paths outside root.
func (m *matcher) rel(abs string) (string, bool) {
	r, err := filepath.Rel(m.root, abs)
	if err != nil || r == ".." || strings.HasPrefix(r, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(r), true
}

// skipDir reports whether a directory is excluded.
func (m *matcher) skipDir(rel string) bool {
	if rel == "." {
		return false
	}
	name := path.Base(rel)
	if _, skip := skipDirs[name]; skip || strings.HasPrefix(name, ".") {
		return true
	}
	return m.ignore.MatchesPath(rel + "/")
}

// source reports whether a file is a TypeScript source of the project.
func (m *matcher) source(rel string) bool {
	if !m.parser.Supports(rel) || strings.HasPrefix(path.Base(rel), ".") {
		return false
	}
	for dir := path.Dir(rel); dir != "."; dir = path.Dir(dir) {
		if m.skipDir(dir) {
			return false
		}
	}
	return !m.ignore.MatchesPath(rel)
}

// settings reports whether a file changes the analysis configuration.
func (m *matcher) settings(rel string) bool {
	return rel == config.DefaultFileName || rel == "package.json"
}

// Discover lists the TypeScript sources below root.
//
// Description:
//
//	Walks root, skipping dependency, build and hidden directories and
//	everything matched by the root .gitignore or the extra patterns
//	(gitignore syntax). Symlinks are not followed.
//
// Outputs:
//   - []string: Slash-separated paths relative to root, sorted.
//   - error: ErrNotDirectory, or a walk error.
func Discover(root string, extra ...string) ([]string, error) {
	return discover(root, ast.NewParser(), extra)
}

func discover(root string, parser *ast.Parser, extra []string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat project root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotDirectory, root)
	}
	m, err := newMatcher(root, parser, extra)
	if err != nil {
		return nil, err
	}

	var files []string
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable entries are skipped
		}
		rel, ok := m.rel(p)
		if !ok {
			return nil
		}
		if d.IsDir() {
			if m.skipDir(rel) {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type()&fs.ModeSymlink != 0 {
			return nil
		}
		if m.source(rel) {
			files = append(files, rel)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	sort.Strings(files)
	return files, nil
}
