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
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/tsboundary/services/boundary/ast"
	"github.com/AleutianAI/tsboundary/services/boundary/langsvc"
)

// positionArgs opens the workspace and resolves FILE LINE:COL.
func (a *app) positionArgs(cmd *cobra.Command, dir string, args []string) (*workspace, *ast.SourceFile, int, error) {
	ws, err := a.openWorkspace(cmd.Context(), dir)
	if err != nil {
		return nil, nil, 0, err
	}
	rel, err := ws.relPath(args[0])
	if err != nil {
		return nil, nil, 0, err
	}
	f, err := ws.snap.Program.File(rel)
	if err != nil {
		return nil, nil, 0, err
	}
	pos, err := parsePosition(f, args[1])
	if err != nil {
		return nil, nil, 0, err
	}
	return ws, f, pos, nil
}

func (a *app) newCompleteCmd() *cobra.Command {
	var dir, details string
	cmd := &cobra.Command{
		Use:   "complete FILE LINE:COL",
		Short: "List completions at a position",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, f, pos, err := a.positionArgs(cmd, dir, args)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if details != "" {
				d, err := ws.service.GetCompletionEntryDetails(cmd.Context(), f.Path, pos, details)
				if err != nil {
					return err
				}
				if a.jsonOut {
					return writeJSON(out, d)
				}
				return printDetails(out, d)
			}

			info, err := ws.service.GetCompletionsAtPosition(cmd.Context(), f.Path, pos)
			if err != nil {
				return err
			}
			if a.jsonOut {
				return writeJSON(out, info)
			}
			return printCompletions(out, info)
		},
	}
	cmd.Flags().StringVarP(&dir, "project", "p", ".", "project directory")
	cmd.Flags().StringVar(&details, "details", "", "show details of the named entry instead")
	return cmd
}

func printCompletions(w io.Writer, info *langsvc.CompletionInfo) error {
	if info == nil || len(info.Entries) == 0 {
		_, err := fmt.Fprintln(w, "No completions.")
		return err
	}
	for _, e := range info.Entries {
		line := e.Name + "\t" + e.Kind
		if e.Source != "" {
			line += "\t(import from " + e.Source + ")"
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func printDetails(w io.Writer, d *langsvc.CompletionEntryDetails) error {
	if d == nil {
		_, err := fmt.Fprintln(w, "No details.")
		return err
	}
	return printDoc(w, d.Display, d.Documentation, d.Tags)
}

func printDoc(w io.Writer, display, doc string, tags []langsvc.TagInfo) error {
	var b strings.Builder
	b.WriteString(display + "\n")
	if doc != "" {
		b.WriteString("\n" + doc + "\n")
	}
	for _, t := range tags {
		b.WriteString("@" + t.Name)
		if t.Text != "" {
			b.WriteString(" " + t.Text)
		}
		b.WriteString("\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func (a *app) newInfoCmd() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "info FILE LINE:COL",
		Short: "Show quick info, including the declared boundary, at a position",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, f, pos, err := a.positionArgs(cmd, dir, args)
			if err != nil {
				return err
			}
			qi, err := ws.service.GetQuickInfoAtPosition(cmd.Context(), f.Path, pos)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if a.jsonOut {
				return writeJSON(out, qi)
			}
			if qi == nil {
				_, err := fmt.Fprintln(out, "No information at this position.")
				return err
			}
			return printDoc(out, qi.Display, qi.Documentation, qi.Tags)
		},
	}
	cmd.Flags().StringVarP(&dir, "project", "p", ".", "project directory")
	return cmd
}
