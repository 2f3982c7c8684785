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
	"log/slog"
	"runtime"

	"github.com/AleutianAI/tsboundary/services/boundary/analysis"
	"github.com/AleutianAI/tsboundary/services/boundary/checker"
)

// MethodTable holds a language service as replaceable functions.
//
// A nil entry is not implemented. Service adapts a table back into a
// LanguageService; unimplemented methods return zero values.
type MethodTable struct {
	Program                   func() *checker.Program
	GetSemanticDiagnostics    func(ctx context.Context, fileName string) ([]analysis.Diagnostic, error)
	GetCompletionsAtPosition  func(ctx context.Context, fileName string, position int) (*CompletionInfo, error)
	GetCompletionEntryDetails func(ctx context.Context, fileName string, position int, name string) (*CompletionEntryDetails, error)
	GetQuickInfoAtPosition    func(ctx context.Context, fileName string, position int) (*QuickInfo, error)
	GetCodeFixesAtPosition    func(ctx context.Context, fileName string, start, end int, errorCodes []int) ([]analysis.CodeFix, error)

	decorated bool
}

// TableOf returns the method table of a service. Tables of decorated
// services keep their decoration marker.
func TableOf(svc LanguageService) *MethodTable {
	if ts, ok := svc.(*tableService); ok {
		t := *ts.t
		return &t
	}
	return &MethodTable{
		Program:                   svc.Program,
		GetSemanticDiagnostics:    svc.GetSemanticDiagnostics,
		GetCompletionsAtPosition:  svc.GetCompletionsAtPosition,
		GetCompletionEntryDetails: svc.GetCompletionEntryDetails,
		GetQuickInfoAtPosition:    svc.GetQuickInfoAtPosition,
		GetCodeFixesAtPosition:    svc.GetCodeFixesAtPosition,
	}
}

// Decorated reports whether the table was produced by Decorate.
func (t *MethodTable) Decorated() bool {
	return t.decorated
}

// Service adapts the table to the LanguageService interface.
func (t *MethodTable) Service() LanguageService {
	return &tableService{t: t}
}

// Decorate wraps host with overrides.
//
// Description:
//
//	For every method present in both tables, the result calls the
//	override inside a recover boundary. If the override returns an error
//	or panics, the failure is logged and counted, and the host method is
//	called once with the same arguments; its result is returned as is.
//	Methods without an override are the host's. Overrides for methods
//	the host does not implement are ignored.
//
// Inputs:
//   - host: The table to wrap. Not modified.
//   - overrides: Replacement methods; nil entries keep the host's.
//   - logger: Receives fallback reports. Nil uses slog.Default().
//
// Outputs:
//   - *MethodTable: The decorated table.
//   - error: ErrAlreadyDecorated if host was already decorated.
func Decorate(host, overrides *MethodTable, logger *slog.Logger) (*MethodTable, error) {
	if host.decorated {
		return nil, ErrAlreadyDecorated
	}
	if logger == nil {
		logger = slog.Default()
	}
	out := *host
	out.decorated = true

	if o, h := overrides.GetSemanticDiagnostics, host.GetSemanticDiagnostics; o != nil && h != nil {
		out.GetSemanticDiagnostics = func(ctx context.Context, fileName string) ([]analysis.Diagnostic, error) {
			return guarded(ctx, logger, MethodSemanticDiagnostics,
				func() ([]analysis.Diagnostic, error) { return o(ctx, fileName) },
				func() ([]analysis.Diagnostic, error) { return h(ctx, fileName) })
		}
	}
	if o, h := overrides.GetCompletionsAtPosition, host.GetCompletionsAtPosition; o != nil && h != nil {
		out.GetCompletionsAtPosition = func(ctx context.Context, fileName string, position int) (*CompletionInfo, error) {
			return guarded(ctx, logger, MethodCompletions,
				func() (*CompletionInfo, error) { return o(ctx, fileName, position) },
				func() (*CompletionInfo, error) { return h(ctx, fileName, position) })
		}
	}
	if o, h := overrides.GetCompletionEntryDetails, host.GetCompletionEntryDetails; o != nil && h != nil {
		out.GetCompletionEntryDetails = func(ctx context.Context, fileName string, position int, name string) (*CompletionEntryDetails, error) {
			return guarded(ctx, logger, MethodCompletionDetails,
				func() (*CompletionEntryDetails, error) { return o(ctx, fileName, position, name) },
				func() (*CompletionEntryDetails, error) { return h(ctx, fileName, position, name) })
		}
	}
	if o, h := overrides.GetQuickInfoAtPosition, host.GetQuickInfoAtPosition; o != nil && h != nil {
		out.GetQuickInfoAtPosition = func(ctx context.Context, fileName string, position int) (*QuickInfo, error) {
			return guarded(ctx, logger, MethodQuickInfo,
				func() (*QuickInfo, error) { return o(ctx, fileName, position) },
				func() (*QuickInfo, error) { return h(ctx, fileName, position) })
		}
	}
	if o, h := overrides.GetCodeFixesAtPosition, host.GetCodeFixesAtPosition; o != nil && h != nil {
		out.GetCodeFixesAtPosition = func(ctx context.Context, fileName string, start, end int, errorCodes []int) ([]analysis.CodeFix, error) {
			return guarded(ctx, logger, MethodCodeFixes,
				func() ([]analysis.CodeFix, error) { return o(ctx, fileName, start, end, errorCodes) },
				func() ([]analysis.CodeFix, error) { return h(ctx, fileName, start, end, errorCodes) })
		}
	}
	return &out, nil
}

// guarded runs override and falls back to original on failure.
func guarded[T any](ctx context.Context, logger *slog.Logger, method string, override, original func() (T, error)) (T, error) {
	result, err := protect(method, override)
	if err == nil {
		return result, nil
	}

	var perr *PluginError
	switch {
	case errors.Is(err, ErrNotAnalyzable):
		logger.Debug("plugin skipped request", slog.String("method", method), slog.Any("error", err))
		return original()
	case errors.As(err, &perr) && perr.Panic != nil:
		logger.Error("plugin method panicked, falling back to host",
			slog.String("method", method),
			slog.Any("panic", perr.Panic),
			slog.String("stack", perr.Stack),
		)
	default:
		logger.Error("plugin method failed, falling back to host",
			slog.String("method", method),
			slog.Any("error", err),
		)
	}
	recordFallback(ctx, method)
	return original()
}

// protect converts a panic or error of fn into a *PluginError.
func protect[T any](method string, fn func() (T, error)) (result T, err error) {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			var zero T
			result = zero
			err = &PluginError{Method: method, Panic: r, Stack: string(buf[:n])}
		}
	}()
	result, err = fn()
	if err != nil {
		return result, &PluginError{Method: method, Cause: err}
	}
	return result, nil
}

// tableService implements LanguageService over a MethodTable.
type tableService struct {
	t *MethodTable
}

func (s *tableService) Program() *checker.Program {
	if s.t.Program == nil {
		return nil
	}
	return s.t.Program()
}

func (s *tableService) GetSemanticDiagnostics(ctx context.Context, fileName string) ([]analysis.Diagnostic, error) {
	if s.t.GetSemanticDiagnostics == nil {
		return nil, nil
	}
	return s.t.GetSemanticDiagnostics(ctx, fileName)
}

func (s *tableService) GetCompletionsAtPosition(ctx context.Context, fileName string, position int) (*CompletionInfo, error) {
	if s.t.GetCompletionsAtPosition == nil {
		return nil, nil
	}
	return s.t.GetCompletionsAtPosition(ctx, fileName, position)
}

func (s *tableService) GetCompletionEntryDetails(ctx context.Context, fileName string, position int, name string) (*CompletionEntryDetails, error) {
	if s.t.GetCompletionEntryDetails == nil {
		return nil, nil
	}
	return s.t.GetCompletionEntryDetails(ctx, fileName, position, name)
}

func (s *tableService) GetQuickInfoAtPosition(ctx context.Context, fileName string, position int) (*QuickInfo, error) {
	if s.t.GetQuickInfoAtPosition == nil {
		return nil, nil
	}
	return s.t.GetQuickInfoAtPosition(ctx, fileName, position)
}

func (s *tableService) GetCodeFixesAtPosition(ctx context.Context, fileName string, start, end int, errorCodes []int) ([]analysis.CodeFix, error) {
	if s.t.GetCodeFixesAtPosition == nil {
		return nil, nil
	}
	return s.t.GetCodeFixesAtPosition(ctx, fileName, start, end, errorCodes)
}
