// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package report

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/AleutianAI/tsboundary/services/boundary/analysis"
	"github.com/AleutianAI/tsboundary/services/boundary/ast"
)

// RendererOption configures a Renderer.
type RendererOption func(*Renderer)

// WithColor forces styling on or off.
func WithColor(enabled bool) RendererOption {
	return func(r *Renderer) {
		r.color = enabled
	}
}

// Renderer writes human-readable reports.
//
// Thread Safety:
//
//	Not safe for concurrent use; writes are not serialized.
type Renderer struct {
	w      io.Writer
	color  bool
	styles styles
}

// NewRenderer creates a renderer for w. Styling is on when w is a
// terminal and NO_COLOR is unset.
func NewRenderer(w io.Writer, opts ...RendererOption) *Renderer {
	r := &Renderer{
		w:      w,
		color:  ColorEnabled(w),
		styles: newStyles(lipgloss.NewRenderer(w)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ColorEnabled reports whether w is a terminal that should get colors.
func ColorEnabled(w io.Writer) bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (r *Renderer) style(s lipgloss.Style, text string) string {
	if !r.color {
		return text
	}
	return s.Render(text)
}

func (r *Renderer) categoryStyle(c analysis.DiagnosticCategory) lipgloss.Style {
	switch c {
	case analysis.CategoryError:
		return r.styles.error
	case analysis.CategoryWarning:
		return r.styles.warning
	default:
		return r.styles.message
	}
}

// Diagnostic writes one diagnostic. The source line is shown when f is
// non-nil.
//
// Output looks like:
//
//	src/main.ts:3:1 - warning TS1800000: Server-only function 'save' cannot be called from a Shared context
//
//	3 save();
//	  ~~~~~~
func (r *Renderer) Diagnostic(f *ast.SourceFile, d analysis.Diagnostic) error {
	var b strings.Builder

	location := d.File
	var pos ast.Position
	if f != nil {
		pos = f.PositionOf(d.Start)
		location = fmt.Sprintf("%s:%d:%d", d.File, pos.Line+1, pos.Character+1)
	}
	b.WriteString(r.style(r.styles.location, location))
	b.WriteString(" - ")
	b.WriteString(r.style(r.categoryStyle(d.Category), d.Category.String()))
	b.WriteString(" ")
	b.WriteString(r.style(r.styles.code, "TS"+strconv.Itoa(d.Code)))
	b.WriteString(": ")
	b.WriteString(d.Message)
	b.WriteString("\n")

	if f != nil {
		line := f.LineText(pos.Line)
		number := strconv.Itoa(pos.Line + 1)
		b.WriteString("\n")
		b.WriteString(r.style(r.styles.gutter, number))
		b.WriteString(" ")
		b.WriteString(line)
		b.WriteString("\n")

		width := max(1, min(d.Length, len(line)-pos.Character))
		b.WriteString(strings.Repeat(" ", len(number)+1+pos.Character))
		b.WriteString(r.style(r.styles.underline, strings.Repeat("~", width)))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	_, err := io.WriteString(r.w, b.String())
	return err
}

// Diagnostics writes every diagnostic followed by a summary line. lookup
// returns the source of a file, or nil.
func (r *Renderer) Diagnostics(lookup func(path string) *ast.SourceFile, diags []analysis.Diagnostic) error {
	for _, d := range diags {
		var f *ast.SourceFile
		if lookup != nil {
			f = lookup(d.File)
		}
		if err := r.Diagnostic(f, d); err != nil {
			return err
		}
	}
	return r.Summary(Summarize(diags))
}

// Summary counts diagnostics by category.
type Summary struct {
	Errors   int `json:"errors"`
	Warnings int `json:"warnings"`
	Messages int `json:"messages"`
	Files    int `json:"files"`
}

// Total returns the number of diagnostics counted.
func (s Summary) Total() int {
	return s.Errors + s.Warnings + s.Messages
}

// Summarize counts diagnostics. Suggestions count as messages.
func Summarize(diags []analysis.Diagnostic) Summary {
	var s Summary
	files := make(map[string]struct{})
	for _, d := range diags {
		files[d.File] = struct{}{}
		switch d.Category {
		case analysis.CategoryError:
			s.Errors++
		case analysis.CategoryWarning:
			s.Warnings++
		default:
			s.Messages++
		}
	}
	s.Files = len(files)
	return s
}

// Summary writes a one-line summary.
func (r *Renderer) Summary(s Summary) error {
	var text string
	if s.Total() == 0 {
		text = "No network boundary problems found."
	} else {
		var parts []string
		if s.Errors > 0 {
			parts = append(parts, plural(s.Errors, "error"))
		}
		if s.Warnings > 0 {
			parts = append(parts, plural(s.Warnings, "warning"))
		}
		if s.Messages > 0 {
			parts = append(parts, plural(s.Messages, "message"))
		}
		text = fmt.Sprintf("Found %s in %s.", strings.Join(parts, ", "), plural(s.Files, "file"))
	}
	_, err := fmt.Fprintln(r.w, r.style(r.styles.summary, text))
	return err
}

func plural(n int, word string) string {
	if n == 1 {
		return "1 " + word
	}
	return strconv.Itoa(n) + " " + word + "s"
}

// Diff writes a unified diff, coloring added and removed lines.
func (r *Renderer) Diff(patch string) error {
	if !r.color {
		_, err := io.WriteString(r.w, patch)
		return err
	}
	var b strings.Builder
	for _, line := range strings.SplitAfter(patch, "\n") {
		text := strings.TrimSuffix(line, "\n")
		nl := line[len(text):]
		switch {
		case strings.HasPrefix(text, "+++"), strings.HasPrefix(text, "---"):
			b.WriteString(r.style(r.styles.summary, text))
		case strings.HasPrefix(text, "@@"):
			b.WriteString(r.style(r.styles.hunkHeader, text))
		case strings.HasPrefix(text, "+"):
			b.WriteString(r.style(r.styles.added, text))
		case strings.HasPrefix(text, "-"):
			b.WriteString(r.style(r.styles.removed, text))
		default:
			b.WriteString(text)
		}
		b.WriteString(nl)
	}
	_, err := io.WriteString(r.w, b.String())
	return err
}
