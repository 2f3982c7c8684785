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
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/tsboundary/services/boundary/analysis"
)

// Values of --fail-on.
const (
	failOnError   = "error"
	failOnWarning = "warning"
	failOnAny     = "any"
	failOnNone    = "none"
)

func (a *app) newCheckCmd() *cobra.Command {
	var failOn string
	cmd := &cobra.Command{
		Use:   "check [dir]",
		Short: "Report network boundary diagnostics for a project",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validFailOn(failOn); err != nil {
				return err
			}
			ws, err := a.openWorkspace(cmd.Context(), dirArg(args))
			if err != nil {
				return err
			}
			diags, err := ws.diagnostics(cmd.Context())
			if err != nil {
				return err
			}
			a.log.Info("check finished",
				slog.String("root", ws.root),
				slog.Int("files", len(ws.sources())),
				slog.Int("diagnostics", len(diags)),
			)
			if err := a.printDiagnostics(cmd.OutOrStdout(), ws, diags); err != nil {
				return err
			}
			if failing(failOn, diags) {
				return &exitError{code: ExitProblems}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&failOn, "fail-on", failOnError,
		"exit with status 1 on diagnostics of this category or worse: error, warning, any, none")
	return cmd
}

func validFailOn(v string) error {
	switch v {
	case failOnError, failOnWarning, failOnAny, failOnNone:
		return nil
	}
	return fmt.Errorf("invalid --fail-on %q", v)
}

// failing reports whether diags should fail the run under the given
// --fail-on threshold.
func failing(failOn string, diags []analysis.Diagnostic) bool {
	for _, d := range diags {
		switch failOn {
		case failOnAny:
			return true
		case failOnWarning:
			if d.Category == analysis.CategoryError || d.Category == analysis.CategoryWarning {
				return true
			}
		case failOnError:
			if d.Category == analysis.CategoryError {
				return true
			}
		}
	}
	return false
}
