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
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/AleutianAI/tsboundary/services/boundary/analysis"
	"github.com/AleutianAI/tsboundary/services/boundary/ast"
	"github.com/AleutianAI/tsboundary/services/boundary/checker"
	"github.com/AleutianAI/tsboundary/services/boundary/config"
)

// PluginOption configures a Plugin.
type PluginOption func(*Plugin)

// WithPluginLogger sets the logger. Nil is ignored.
func WithPluginLogger(logger *slog.Logger) PluginOption {
	return func(p *Plugin) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// DirectoryNamesFor returns the Airship symbol names with the configured
// renames applied.
func DirectoryNamesFor(cfg config.PluginConfig) analysis.DirectoryNames {
	names := analysis.DefaultDirectoryNames()
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	s := cfg.Symbols
	set(&names.ServerDirective, s.ServerDirective)
	set(&names.ClientDirective, s.ClientDirective)
	set(&names.ServerDecorator, s.ServerDecorator)
	set(&names.ClientDecorator, s.ClientDecorator)
	set(&names.HostDecorator, s.HostDecorator)
	set(&names.Environment, s.Environment)
	set(&names.IsServerMethod, s.IsServerMethod)
	set(&names.IsClientMethod, s.IsClientMethod)
	set(&names.Behaviour, s.Behaviour)
	names.Modules = slices.Clone(s.Modules)
	return names
}

// =============================================================================
// PLUGIN
// =============================================================================

// Plugin augments a host language service with boundary analysis.
//
// Description:
//
//	Create decorates a host so that diagnostics gain behaviour declaration
//	errors and boundary mismatches, completions are filtered and
//	annotated by boundary, quick info carries boundary tags, and code
//	fixes include the synthesized boundary and behaviour fixes. Each
//	request refreshes the symbol directory against the host's current
//	program.
//
// Thread Safety:
//
//	Configuration changes are safe at any time. Requests are expected to
//	be serialized per plugin, as hosts serialize requests per project.
type Plugin struct {
	logger *slog.Logger
	files  *analysis.FileBoundaryCache

	mu      sync.RWMutex
	cfg     config.PluginConfig
	symbols *analysis.SymbolDirectory
	host    *MethodTable
}

// NewPlugin creates a plugin with the given configuration.
func NewPlugin(cfg config.PluginConfig, opts ...PluginOption) *Plugin {
	p := &Plugin{
		logger:  slog.Default(),
		cfg:     cfg,
		symbols: analysis.NewSymbolDirectory(DirectoryNamesFor(cfg)),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.files = analysis.NewFileBoundaryCache(cfg.ServerDirectories, cfg.ClientDirectories)
	return p
}

// Config returns the current configuration.
func (p *Plugin) Config() config.PluginConfig {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.cfg
}

// FileBoundaries returns the file boundary cache.
func (p *Plugin) FileBoundaries() *analysis.FileBoundaryCache {
	return p.files
}

// OnConfigurationChanged applies a partial configuration and clears the
// file boundary cache. Renamed symbols take effect on the next request.
func (p *Plugin) OnConfigurationChanged(patch config.Patch) {
	p.mu.Lock()
	p.cfg = config.Merge(p.cfg, patch)
	cfg := p.cfg
	if patch.Symbols != nil {
		p.symbols = analysis.NewSymbolDirectory(DirectoryNamesFor(cfg))
	}
	p.mu.Unlock()

	p.files.Reset(cfg.ServerDirectories, cfg.ClientDirectories)
	p.logger.Info("plugin configuration changed",
		slog.String("diagnostics_mode", cfg.DiagnosticsMode),
		slog.String("network_boundary_check", cfg.NetworkBoundaryCheck),
		slog.String("completion_mode", cfg.CompletionMode),
	)
}

// Create decorates host with the plugin.
//
// Outputs:
//   - LanguageService: The decorated service. On error, host itself.
//   - error: ErrAlreadyDecorated when host is already decorated.
func (p *Plugin) Create(host LanguageService) (LanguageService, error) {
	table := TableOf(host)
	decorated, err := Decorate(table, p.overrides(), p.logger)
	if err != nil {
		p.logger.Warn("language service is already decorated, leaving it unchanged")
		return host, err
	}

	p.mu.Lock()
	p.host = table
	p.mu.Unlock()

	p.logger.Info("network boundary extensions loaded")
	return decorated.Service(), nil
}

// CreateForProject decorates host only when dir belongs to an Airship
// project. Other projects get host back unchanged and a nil error.
func (p *Plugin) CreateForProject(dir string, host LanguageService) (LanguageService, error) {
	proj, err := config.DetectProject(dir)
	if errors.Is(err, config.ErrNotAirshipProject) {
		p.logger.Info("skipping network boundary extensions, not an airship project", slog.String("dir", dir))
		return host, nil
	}
	if err != nil {
		return host, fmt.Errorf("detect project: %w", err)
	}
	if !proj.Supported {
		p.logger.Warn("compiler version is older than supported",
			slog.String("version", proj.CompilerVersion),
			slog.String("minimum", config.MinimumCompilerVersion),
		)
	}
	return p.Create(host)
}

func (p *Plugin) overrides() *MethodTable {
	return &MethodTable{
		GetSemanticDiagnostics:    p.getSemanticDiagnostics,
		GetCompletionsAtPosition:  p.getCompletionsAtPosition,
		GetCompletionEntryDetails: p.getCompletionEntryDetails,
		GetQuickInfoAtPosition:    p.getQuickInfoAtPosition,
		GetCodeFixesAtPosition:    p.getCodeFixesAtPosition,
	}
}

func (p *Plugin) hostTable() *MethodTable {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.host
}

// analyze refreshes the symbol directory and returns an analyzer for the
// host's current program.
func (p *Plugin) analyze(fileName string) (*analysis.Analyzer, *ast.SourceFile, error) {
	host := p.hostTable()
	if host == nil || host.Program == nil {
		return nil, nil, fmt.Errorf("%w: no program", ErrNotAnalyzable)
	}
	prog := host.Program()
	if prog == nil {
		return nil, nil, fmt.Errorf("%w: no program", ErrNotAnalyzable)
	}
	f, err := prog.File(fileName)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrNotAnalyzable, err)
	}
	p.mu.RLock()
	symbols := p.symbols
	p.mu.RUnlock()

	c := prog.Checker()
	symbols.Refresh(c)
	a := analysis.NewAnalyzer(c, symbols,
		analysis.WithFileBoundaries(p.files),
		analysis.WithAnalyzerLogger(p.logger),
	)
	return a, f, nil
}

// =============================================================================
// DIAGNOSTICS
// =============================================================================

func (p *Plugin) getSemanticDiagnostics(ctx context.Context, fileName string) ([]analysis.Diagnostic, error) {
	ctx, span := startRequestSpan(ctx, MethodSemanticDiagnostics, fileName)
	defer span.End()
	start := time.Now()
	defer func() { recordRequest(ctx, MethodSemanticDiagnostics, time.Since(start)) }()

	orig, err := p.hostTable().GetSemanticDiagnostics(ctx, fileName)
	if err != nil {
		return nil, err
	}
	a, f, err := p.analyze(fileName)
	if err != nil {
		return nil, err
	}
	return p.diagnose(ctx, a, f, orig), nil
}

// diagnose appends the plugin diagnostics to a copy of orig.
func (p *Plugin) diagnose(ctx context.Context, a *analysis.Analyzer, f *ast.SourceFile, orig []analysis.Diagnostic) []analysis.Diagnostic {
	cfg := p.Config()
	out := slices.Clone(orig)

	if cfg.ShowCompilerErrors {
		for i := range out {
			if msg, ok := ClarifyMessage(out[i].Message); ok {
				out[i].Message = msg
			}
		}
		out = append(out, a.CheckBehaviours(f)...)
	}

	category, ok := categoryOf(cfg.DiagnosticsMode)
	if !ok || cfg.NetworkBoundaryCheck == config.ModeOff {
		return out
	}
	boundary := a.Diagnose(ctx, f)
	boundary = append(boundary, a.CheckImports(f)...)
	for i := range boundary {
		boundary[i].Category = category
	}
	return append(out, boundary...)
}

func categoryOf(mode string) (analysis.DiagnosticCategory, bool) {
	switch mode {
	case config.ModeWarning:
		return analysis.CategoryWarning, true
	case config.ModeError:
		return analysis.CategoryError, true
	case config.ModeMessage:
		return analysis.CategoryMessage, true
	}
	return 0, false
}

// =============================================================================
// COMPLETIONS
// =============================================================================

func (p *Plugin) getCompletionsAtPosition(ctx context.Context, fileName string, position int) (*CompletionInfo, error) {
	ctx, span := startRequestSpan(ctx, MethodCompletions, fileName)
	defer span.End()
	start := time.Now()
	defer func() { recordRequest(ctx, MethodCompletions, time.Since(start)) }()

	orig, err := p.hostTable().GetCompletionsAtPosition(ctx, fileName, position)
	if err != nil || orig == nil {
		return orig, err
	}
	a, f, err := p.analyze(fileName)
	if err != nil {
		return nil, err
	}

	cfg := p.Config()
	c := a.Checker()
	fileBoundary := a.FileBoundary(f.Path)
	scopeBoundary := a.BoundaryAt(f, position).Boundary

	out := &CompletionInfo{
		IsMemberCompletion: orig.IsMemberCompletion,
		Entries:            make([]CompletionEntry, 0, len(orig.Entries)),
	}
	var renamed, removed int
	for _, e := range orig.Entries {
		if cfg.HideDeprecated && strings.Contains(e.KindModifiers, KindModifierDeprecated) {
			removed++
			continue
		}
		if hasTag(c, e.Symbol, "hidden") {
			removed++
			continue
		}

		// Auto-imports are checked against the file, not the position.
		at := scopeBoundary
		if e.Source != "" {
			at = fileBoundary
		}
		b := entryBoundary(a, e)
		if !analysis.CanSee(at, b) {
			switch cfg.CompletionMode {
			case config.CompletionPrefix:
				e.InsertText = e.Name
				e.Name = b.String() + ": " + e.Name
				renamed++
			case config.CompletionRemove:
				removed++
				continue
			}
		}
		out.Entries = append(out.Entries, e)
	}
	recordCompletionAdjustments(ctx, renamed, removed)
	return out, nil
}

func entryBoundary(a *analysis.Analyzer, e CompletionEntry) analysis.NetworkBoundary {
	if e.Symbol != nil {
		return a.SymbolBoundary(e.Symbol)
	}
	if e.Source != "" {
		return a.FileBoundary(e.Source)
	}
	return analysis.Shared
}

func hasTag(c *checker.Checker, sym *checker.Symbol, name string) bool {
	for _, tag := range c.JSDocTags(sym) {
		if strings.EqualFold(tag.Name, name) {
			return true
		}
	}
	return false
}

// stripBoundaryPrefix undoes the renaming of prefixed completion entries.
func stripBoundaryPrefix(name string) string {
	for _, b := range []analysis.NetworkBoundary{analysis.Server, analysis.Client, analysis.Host} {
		if rest, ok := strings.CutPrefix(name, b.String()+": "); ok {
			return rest
		}
	}
	return name
}

func (p *Plugin) getCompletionEntryDetails(ctx context.Context, fileName string, position int, name string) (*CompletionEntryDetails, error) {
	bare := stripBoundaryPrefix(name)
	details, err := p.hostTable().GetCompletionEntryDetails(ctx, fileName, position, bare)
	if err != nil || details == nil {
		return details, err
	}
	out := *details
	out.Name = name
	return &out, nil
}

// =============================================================================
// QUICK INFO
// =============================================================================

func (p *Plugin) getQuickInfoAtPosition(ctx context.Context, fileName string, position int) (*QuickInfo, error) {
	ctx, span := startRequestSpan(ctx, MethodQuickInfo, fileName)
	defer span.End()
	start := time.Now()
	defer func() { recordRequest(ctx, MethodQuickInfo, time.Since(start)) }()

	info, err := p.hostTable().GetQuickInfoAtPosition(ctx, fileName, position)
	if err != nil || info == nil || !p.Config().NetworkBoundaryInfo {
		return info, err
	}
	a, f, err := p.analyze(fileName)
	if err != nil {
		return nil, err
	}

	c := a.Checker()
	sym := c.SkipAlias(c.SymbolAtLocation(f.NodeAt(position)))
	if sym == nil || !sym.Flags.Has(checker.SymbolMethod|checker.SymbolFunction) {
		return info, nil
	}
	b := a.DeclaredBoundary(sym)
	if b == analysis.Shared || b == analysis.Invalid {
		return info, nil
	}

	kind := "function"
	if sym.Flags.Has(checker.SymbolMethod) {
		kind = "method"
	}
	tag := strings.ToLower(b.String())
	out := *info
	out.Tags = append(slices.Clone(info.Tags), TagInfo{
		Name: tag,
		Text: fmt.Sprintf("declared as a %s-only %s", tag, kind),
	})
	return &out, nil
}

// =============================================================================
// CODE FIXES
// =============================================================================

func (p *Plugin) getCodeFixesAtPosition(ctx context.Context, fileName string, start, end int, errorCodes []int) ([]analysis.CodeFix, error) {
	ctx, span := startRequestSpan(ctx, MethodCodeFixes, fileName)
	defer span.End()
	began := time.Now()
	defer func() { recordRequest(ctx, MethodCodeFixes, time.Since(began)) }()

	orig, err := p.hostTable().GetCodeFixesAtPosition(ctx, fileName, start, end, errorCodes)
	if err != nil {
		return nil, err
	}
	a, f, err := p.analyze(fileName)
	if err != nil {
		return nil, err
	}

	// Behaviour fixes come before the host's, boundary fixes after.
	var before, after []analysis.CodeFix
	for _, d := range p.diagnose(ctx, a, f, nil) {
		if !d.Covers(start, end) {
			continue
		}
		if len(errorCodes) > 0 && !slices.Contains(errorCodes, d.Code) {
			continue
		}
		fixes := a.CodeFixes(ctx, d)
		if d.Code == analysis.CodeBehaviourDeclaration {
			before = append(before, fixes...)
		} else {
			after = append(after, fixes...)
		}
	}

	out := make([]analysis.CodeFix, 0, len(before)+len(orig)+len(after))
	out = append(out, before...)
	out = append(out, orig...)
	return append(out, after...), nil
}
