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
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/sourcegraph/go-diff/diff"

	"github.com/AleutianAI/tsboundary/services/boundary/analysis"
)

// ErrInvalidDiff is returned by ValidateDiff for malformed diffs.
var ErrInvalidDiff = errors.New("invalid unified diff")

const (
	// contextLines is the number of unchanged lines around each change.
	contextLines = 3

	noNewlineMarker = `\ No newline at end of file`
)

// UnifiedDiff returns the unified diff from before to after, or "" when
// they are equal. Headers name the file "a/<path>" and "b/<path>".
func UnifiedDiff(path string, before, after []byte) (string, error) {
	if bytes.Equal(before, after) {
		return "", nil
	}
	fd := &diff.FileDiff{
		OrigName: "a/" + path,
		NewName:  "b/" + path,
		Hunks:    buildHunks(splitLines(before), splitLines(after)),
	}
	out, err := diff.PrintFileDiff(fd)
	if err != nil {
		return "", fmt.Errorf("print diff of %s: %w", path, err)
	}
	return string(out), nil
}

// FixDiff applies a code fix and returns the diff of every file it
// changes. content returns the current content of a file.
func FixDiff(fix analysis.CodeFix, content func(file string) ([]byte, error)) (string, error) {
	var b strings.Builder
	for _, fc := range fix.Changes {
		before, err := content(fc.FileName)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", fc.FileName, err)
		}
		after, err := analysis.ApplyTextChanges(before, fc.TextChanges)
		if err != nil {
			return "", fmt.Errorf("apply %s to %s: %w", fix.FixName, fc.FileName, err)
		}
		d, err := UnifiedDiff(fc.FileName, before, after)
		if err != nil {
			return "", err
		}
		b.WriteString(d)
	}
	if b.Len() == 0 {
		return "", nil
	}
	if _, err := ValidateDiff(b.String()); err != nil {
		return "", err
	}
	return b.String(), nil
}

// ValidateDiff parses a unified diff and checks that every hunk's line
// counts match its body.
func ValidateDiff(patch string) ([]*diff.FileDiff, error) {
	files, err := diff.ParseMultiFileDiff([]byte(patch))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDiff, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no files", ErrInvalidDiff)
	}
	for _, fd := range files {
		for i, h := range fd.Hunks {
			var orig, neu int32
			for _, line := range strings.Split(string(h.Body), "\n") {
				if line == "" {
					continue
				}
				switch line[0] {
				case ' ':
					orig++
					neu++
				case '-':
					orig++
				case '+':
					neu++
				}
			}
			if orig != h.OrigLines || neu != h.NewLines {
				return nil, fmt.Errorf("%w: %s hunk %d has %d/%d lines, header says %d/%d",
					ErrInvalidDiff, fd.NewName, i+1, orig, neu, h.OrigLines, h.NewLines)
			}
		}
	}
	return files, nil
}

// splitLines splits content after each newline. The last line has no
// newline when the content does not end with one.
func splitLines(content []byte) []string {
	if len(content) == 0 {
		return nil
	}
	lines := strings.SplitAfter(string(content), "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// buildHunks matches a against b and groups the changes into hunks with
// contextLines of context. Changes separated by at most twice that share
// a hunk.
func buildHunks(a, b []string) []*diff.Hunk {
	m := difflib.NewMatcherWithJunk(a, b, false, nil)
	groups := m.GetGroupedOpCodes(contextLines)
	hunks := make([]*diff.Hunk, 0, len(groups))
	for _, group := range groups {
		h := &diff.Hunk{}
		var body bytes.Buffer
		for _, op := range group {
			if op.Tag == 'e' {
				writeLines(&body, ' ', a[op.I1:op.I2])
				continue
			}
			if op.Tag == 'r' || op.Tag == 'd' {
				writeLines(&body, '-', a[op.I1:op.I2])
			}
			if op.Tag == 'r' || op.Tag == 'i' {
				writeLines(&body, '+', b[op.J1:op.J2])
			}
		}
		first, last := group[0], group[len(group)-1]
		h.OrigLines = int32(last.I2 - first.I1)
		h.NewLines = int32(last.J2 - first.J1)
		h.OrigStartLine = int32(first.I1)
		if h.OrigLines > 0 {
			h.OrigStartLine++
		}
		h.NewStartLine = int32(first.J1)
		if h.NewLines > 0 {
			h.NewStartLine++
		}
		h.Body = body.Bytes()
		hunks = append(hunks, h)
	}
	return hunks
}

func writeLines(body *bytes.Buffer, kind byte, lines []string) {
	for _, l := range lines {
		body.WriteByte(kind)
		body.WriteString(l)
		if !strings.HasSuffix(l, "\n") {
			body.WriteString("\n" + noNewlineMarker + "\n")
		}
	}
}
