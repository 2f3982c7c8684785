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

import "github.com/charmbracelet/lipgloss"

// Palette.
var (
	colorTeal    = lipgloss.Color("#20B9B4")
	colorTealDim = lipgloss.Color("#16858E")
	colorSlate   = lipgloss.Color("#2C4A54")
	colorWarning = lipgloss.Color("#F4D03F")
	colorError   = lipgloss.Color("#E74C3C")
	colorAdded   = lipgloss.Color("#2CD7C7")
)

// styles holds the styles of one Renderer. They are built from the
// renderer's lipgloss.Renderer so the color profile follows the output.
type styles struct {
	location   lipgloss.Style
	error      lipgloss.Style
	warning    lipgloss.Style
	message    lipgloss.Style
	code       lipgloss.Style
	gutter     lipgloss.Style
	underline  lipgloss.Style
	summary    lipgloss.Style
	added      lipgloss.Style
	removed    lipgloss.Style
	hunkHeader lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		location:   r.NewStyle().Foreground(colorTeal),
		error:      r.NewStyle().Bold(true).Foreground(colorError),
		warning:    r.NewStyle().Bold(true).Foreground(colorWarning),
		message:    r.NewStyle().Bold(true).Foreground(colorTealDim),
		code:       r.NewStyle().Foreground(colorSlate),
		gutter:     r.NewStyle().Foreground(colorSlate),
		underline:  r.NewStyle().Foreground(colorError),
		summary:    r.NewStyle().Bold(true),
		added:      r.NewStyle().Foreground(colorAdded),
		removed:    r.NewStyle().Foreground(colorError),
		hunkHeader: r.NewStyle().Foreground(colorTealDim),
	}
}
