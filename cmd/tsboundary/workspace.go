// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/AleutianAI/tsboundary/services/boundary/analysis"
	"github.com/AleutianAI/tsboundary/services/boundary/ast"
	"github.com/AleutianAI/tsboundary/services/boundary/config"
	"github.com/AleutianAI/tsboundary/services/boundary/langsvc"
	"github.com/AleutianAI/tsboundary/services/boundary/project"
	"github.com/AleutianAI/tsboundary/services/boundary/report"
)

// workspace is a loaded project with its decorated language service.
type workspace struct {
	root    string
	log     *slog.Logger
	force   bool
	loader  *project.Loader
	plugin  *langsvc.Plugin
	snap    *project.Snapshot
	service langsvc.LanguageService
}

func dirArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return "."
}

// openWorkspace loads the project at dir.
func (a *app) openWorkspace(ctx context.Context, dir string) (*workspace, error) {
	loader, err := project.NewLoader(dir, project.WithLoaderLogger(a.log))
	if err != nil {
		return nil, err
	}
	ws := &workspace{
		root:   loader.Root(),
		log:    a.log,
		force:  a.force,
		loader: loader,
	}
	ws.plugin = langsvc.NewPlugin(a.loadConfig(ws.root), langsvc.WithPluginLogger(a.log))
	if err := ws.reload(ctx); err != nil {
		return nil, err
	}
	return ws, nil
}

func (a *app) configFile(root string) string {
	if a.configPath != "" {
		return a.configPath
	}
	return filepath.Join(root, config.DefaultFileName)
}

// loadConfig reads the plugin configuration. Invalid files fall back to
// the defaults with a warning.
func (a *app) loadConfig(root string) config.PluginConfig {
	path := a.configFile(root)
	cfg, err := config.Load(path)
	if err != nil {
		a.log.Warn("using default plugin configuration", slog.String("path", path), slog.Any("error", err))
	}
	return cfg
}

// reload parses the project again and decorates a fresh native service.
func (ws *workspace) reload(ctx context.Context) error {
	snap, err := ws.loader.Load(ctx)
	if err != nil {
		return fmt.Errorf("load %s: %w", ws.root, err)
	}
	native := langsvc.NewNativeService(snap.Program, langsvc.WithNativeLogger(ws.log))

	var svc langsvc.LanguageService
	if ws.force {
		svc, err = ws.plugin.Create(native)
	} else {
		svc, err = ws.plugin.CreateForProject(ws.root, native)
	}
	if err != nil {
		return err
	}
	ws.snap = snap
	ws.service = svc
	return nil
}

// sources returns the non-declaration files in program order.
func (ws *workspace) sources() []*ast.SourceFile {
	var out []*ast.SourceFile
	for _, f := range ws.snap.Program.Files() {
		if !f.IsDeclarationFile() {
			out = append(out, f)
		}
	}
	return out
}

func (ws *workspace) file(path string) *ast.SourceFile {
	f, err := ws.snap.Program.File(path)
	if err != nil {
		return nil
	}
	return f
}

func (ws *workspace) content(path string) ([]byte, error) {
	f, err := ws.snap.Program.File(path)
	if err != nil {
		return nil, err
	}
	return f.Content, nil
}

// relPath converts a command line path to a project-relative one.
func (ws *workspace) relPath(path string) (string, error) {
	if filepath.IsAbs(path) {
		rel, err := filepath.Rel(ws.root, path)
		if err != nil {
			return "", err
		}
		path = rel
	}
	return filepath.ToSlash(filepath.Clean(path)), nil
}

// diagnostics collects the diagnostics of every source file.
func (ws *workspace) diagnostics(ctx context.Context) ([]analysis.Diagnostic, error) {
	var all []analysis.Diagnostic
	for _, f := range ws.sources() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		diags, err := ws.service.GetSemanticDiagnostics(ctx, f.Path)
		if err != nil {
			return nil, fmt.Errorf("diagnose %s: %w", f.Path, err)
		}
		all = append(all, diags...)
	}
	return all, nil
}

// jsonDiagnostic adds one-based line and column to a diagnostic.
type jsonDiagnostic struct {
	analysis.Diagnostic
	Line   int `json:"line"`
	Column int `json:"column"`
}

type checkResult struct {
	RunID       string           `json:"runId"`
	Root        string           `json:"root"`
	Diagnostics []jsonDiagnostic `json:"diagnostics"`
	Summary     report.Summary   `json:"summary"`
}

// printDiagnostics writes diagnostics as a styled report or as JSON.
func (a *app) printDiagnostics(w io.Writer, ws *workspace, diags []analysis.Diagnostic) error {
	if !a.jsonOut {
		return report.NewRenderer(w).Diagnostics(ws.file, diags)
	}
	res := checkResult{
		RunID:       a.runID,
		Root:        ws.root,
		Diagnostics: make([]jsonDiagnostic, 0, len(diags)),
		Summary:     report.Summarize(diags),
	}
	for _, d := range diags {
		jd := jsonDiagnostic{Diagnostic: d}
		if f := ws.file(d.File); f != nil {
			pos := f.PositionOf(d.Start)
			jd.Line, jd.Column = pos.Line+1, pos.Character+1
		}
		res.Diagnostics = append(res.Diagnostics, jd)
	}
	return writeJSON(w, res)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// parsePosition parses a one-based "LINE:COL" into a byte offset of f.
func parsePosition(f *ast.SourceFile, s string) (int, error) {
	line, col, ok := strings.Cut(s, ":")
	if !ok {
		return 0, fmt.Errorf("position %q is not LINE:COL", s)
	}
	l, err := strconv.Atoi(line)
	if err != nil || l < 1 {
		return 0, fmt.Errorf("invalid line in %q", s)
	}
	c, err := strconv.Atoi(col)
	if err != nil || c < 1 {
		return 0, fmt.Errorf("invalid column in %q", s)
	}
	return f.OffsetOf(ast.Position{Line: l - 1, Character: c - 1}), nil
}
