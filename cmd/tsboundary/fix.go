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
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/tsboundary/services/boundary/analysis"
	"github.com/AleutianAI/tsboundary/services/boundary/report"
)

func (a *app) newFixCmd() *cobra.Command {
	var write bool
	cmd := &cobra.Command{
		Use:   "fix [dir]",
		Short: "Show or apply the first fix of every fixable diagnostic",
		Long: `fix prints a unified diff of the first code fix offered for each
diagnostic. Fixes whose edits overlap an earlier fix are skipped; run fix
again to pick them up. With --write the files are rewritten in place.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := a.openWorkspace(cmd.Context(), dirArg(args))
			if err != nil {
				return err
			}
			diags, err := ws.diagnostics(cmd.Context())
			if err != nil {
				return err
			}
			combined, applied := collectFixes(cmd.Context(), ws, diags)
			out := cmd.OutOrStdout()
			if applied == 0 {
				_, err := fmt.Fprintln(out, "No fixes available.")
				return err
			}

			patch, err := report.FixDiff(combined, ws.content)
			if err != nil {
				return err
			}
			if err := report.NewRenderer(out).Diff(patch); err != nil {
				return err
			}
			if !write {
				return nil
			}
			if err := writeFix(ws, combined); err != nil {
				return err
			}
			a.log.Info("fixes written", slog.Int("fixes", applied), slog.Int("files", len(combined.Changes)))
			_, err = fmt.Fprintf(out, "Applied %d fixes to %d files.\n", applied, len(combined.Changes))
			return err
		},
	}
	cmd.Flags().BoolVarP(&write, "write", "w", false, "rewrite files in place")
	return cmd
}

// collectFixes takes the first fix of each diagnostic and merges the
// non-conflicting ones into a single fix, one change set per file.
func collectFixes(ctx context.Context, ws *workspace, diags []analysis.Diagnostic) (analysis.CodeFix, int) {
	byFile := make(map[string][]analysis.TextChange)
	applied := 0
	for _, d := range diags {
		fixes, err := ws.service.GetCodeFixesAtPosition(ctx, d.File, d.Start, d.End(), []int{d.Code})
		if err != nil {
			ws.log.Warn("code fixes failed", slog.String("file", d.File), slog.Any("error", err))
			continue
		}
		if len(fixes) == 0 {
			continue
		}
		fix := fixes[0]
		if conflicts(byFile, fix) {
			ws.log.Debug("skipping overlapping fix", slog.String("file", d.File), slog.String("fix", fix.FixName))
			continue
		}
		for _, fc := range fix.Changes {
			byFile[fc.FileName] = append(byFile[fc.FileName], fc.TextChanges...)
		}
		applied++
	}

	files := make([]string, 0, len(byFile))
	for f := range byFile {
		files = append(files, f)
	}
	sort.Strings(files)
	combined := analysis.CodeFix{FixName: "fixAll", Description: "Apply all boundary fixes"}
	for _, f := range files {
		combined.Changes = append(combined.Changes, analysis.FileTextChanges{FileName: f, TextChanges: byFile[f]})
	}
	return combined, applied
}

// conflicts reports whether any change of fix touches a span already
// edited. Insertions at the same offset conflict too.
func conflicts(byFile map[string][]analysis.TextChange, fix analysis.CodeFix) bool {
	for _, fc := range fix.Changes {
		for _, c := range fc.TextChanges {
			for _, prev := range byFile[fc.FileName] {
				if c.Span.Start == prev.Span.Start ||
					(c.Span.Start < prev.Span.End && prev.Span.Start < c.Span.End) {
					return true
				}
			}
		}
	}
	return false
}

func writeFix(ws *workspace, fix analysis.CodeFix) error {
	for _, fc := range fix.Changes {
		before, err := ws.content(fc.FileName)
		if err != nil {
			return err
		}
		after, err := analysis.ApplyTextChanges(before, fc.TextChanges)
		if err != nil {
			return fmt.Errorf("apply fixes to %s: %w", fc.FileName, err)
		}
		if err := writeFilePreservingMode(filepath.Join(ws.root, filepath.FromSlash(fc.FileName)), after); err != nil {
			return err
		}
	}
	return nil
}

func writeFilePreservingMode(path string, data []byte) error {
	mode := os.FileMode(0644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}
	return os.WriteFile(path, data, mode)
}
