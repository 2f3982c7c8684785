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
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/AleutianAI/tsboundary/services/boundary/analysis"
	"github.com/AleutianAI/tsboundary/services/boundary/ast"
	"github.com/AleutianAI/tsboundary/services/boundary/project"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const airshipTypes = `declare const $SERVER: boolean;
declare const $CLIENT: boolean;
declare function Server(): MethodDecorator;
declare function Client(): MethodDecorator;
declare function Host(): MethodDecorator;
declare abstract class AirshipBehaviour {}
`

const mainSource = `/** @server */
function saveAll(): void {}
/** @client */
function draw(): void {}
saveAll();
`

const packageJSON = `{"devDependencies": {"@easy-games/unity-ts": "^3.1.0"}}`

// writeProject creates an Airship project in a temp directory.
func writeProject(t *testing.T, withManifest bool) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"types/airship.d.ts": airshipTypes,
		"src/main.ts":        mainSource,
	}
	if withManifest {
		files["package.json"] = packageJSON
	}
	for rel, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestCheck(t *testing.T) {
	dir := writeProject(t, true)

	code, out, _ := runCLI(t, "check", dir)
	assert.Equal(t, ExitSuccess, code, "warnings do not fail by default")
	assert.Contains(t, out, "src/main.ts:5:1 - warning TS1800000: Server-only function 'saveAll' cannot be called from a Shared context")
	assert.Contains(t, out, "5 saveAll();\n  ~~~~~~~~~")
	assert.Contains(t, out, "Found 1 warning in 1 file.")

	code, _, _ = runCLI(t, "check", "--fail-on", "warning", dir)
	assert.Equal(t, ExitProblems, code)
}

func TestCheck_JSON(t *testing.T) {
	dir := writeProject(t, true)

	code, out, _ := runCLI(t, "check", "--json", dir)
	require.Equal(t, ExitSuccess, code)

	var res struct {
		RunID       string `json:"runId"`
		Diagnostics []struct {
			File     string `json:"file"`
			Code     int    `json:"code"`
			Category string `json:"category"`
			Line     int    `json:"line"`
			Column   int    `json:"column"`
		} `json:"diagnostics"`
		Summary struct {
			Warnings int `json:"warnings"`
		} `json:"summary"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Len(t, res.RunID, 36)
	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, "src/main.ts", res.Diagnostics[0].File)
	assert.Equal(t, analysis.CodeNetworkBoundaryMismatch, res.Diagnostics[0].Code)
	assert.Equal(t, "warning", res.Diagnostics[0].Category)
	assert.Equal(t, 5, res.Diagnostics[0].Line)
	assert.Equal(t, 1, res.Diagnostics[0].Column)
	assert.Equal(t, 1, res.Summary.Warnings)
}

func TestCheck_NotAirshipProject(t *testing.T) {
	dir := writeProject(t, false)

	_, out, _ := runCLI(t, "check", dir)
	assert.Contains(t, out, "No network boundary problems found.")

	_, out, _ = runCLI(t, "check", "--force", dir)
	assert.Contains(t, out, "Found 1 warning in 1 file.")
}

func TestCheck_Errors(t *testing.T) {
	code, _, stderr := runCLI(t, "check", filepath.Join(t.TempDir(), "missing"))
	assert.Equal(t, ExitError, code)
	assert.Contains(t, stderr, "Error:")

	code, _, _ = runCLI(t, "check", "--fail-on", "sometimes", writeProject(t, true))
	assert.Equal(t, ExitError, code)

	code, _, _ = runCLI(t, "check", "--telemetry", "zipkin", writeProject(t, true))
	assert.Equal(t, ExitError, code)

	code, _, _ = runCLI(t, "check", "--log-level", "loud", writeProject(t, true))
	assert.Equal(t, ExitError, code)
}

func TestCheck_ConfigFile(t *testing.T) {
	dir := writeProject(t, true)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tsboundary.yaml"), []byte("diagnosticsMode: error\n"), 0o644))

	code, out, _ := runCLI(t, "check", dir)
	assert.Equal(t, ExitProblems, code)
	assert.Contains(t, out, "error TS1800000")
}

func TestCheck_SymbolModules(t *testing.T) {
	dir := writeProject(t, true)
	files := map[string]string{
		"types/airship.d.ts": "declare const $SERVER: boolean;\ndeclare const $CLIENT: boolean;\ndeclare module \"@Easy/Core\" {\n\texport function Server(): MethodDecorator;\n}\n",
		"src/store.ts":       "import { Server as OnServer } from \"@Easy/Core\";\nexport class Store {\n\t@OnServer()\n\tSave(): void {}\n\tLoad(): void {\n\t\tthis.Save();\n\t}\n}\n",
	}
	for rel, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, filepath.FromSlash(rel)), []byte(content), 0o644))
	}

	_, out, _ := runCLI(t, "check", dir)
	assert.NotContains(t, out, "'Save'")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "tsboundary.yaml"), []byte("symbols:\n  modules: [\"@Easy/Core\"]\n"), 0o644))
	code, out, _ := runCLI(t, "check", dir)
	assert.Equal(t, ExitSuccess, code)
	assert.Contains(t, out, "src/store.ts:6:")
	assert.Contains(t, out, "Server-only method 'Save' cannot be called from a Shared context")
}

func TestFix(t *testing.T) {
	dir := writeProject(t, true)

	code, out, _ := runCLI(t, "fix", dir)
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, out, "--- a/src/main.ts\n+++ b/src/main.ts\n")
	assert.Contains(t, out, "-saveAll();\n+if ($SERVER) saveAll();\n")

	content, err := os.ReadFile(filepath.Join(dir, "src", "main.ts"))
	require.NoError(t, err)
	assert.Equal(t, mainSource, string(content), "dry run leaves files alone")

	code, out, _ = runCLI(t, "fix", "--write", dir)
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, out, "Applied 1 fixes to 1 files.")

	content, err = os.ReadFile(filepath.Join(dir, "src", "main.ts"))
	require.NoError(t, err)
	assert.Contains(t, string(content), "if ($SERVER) saveAll();")

	_, out, _ = runCLI(t, "check", dir)
	assert.Contains(t, out, "No network boundary problems found.")

	_, out, _ = runCLI(t, "fix", dir)
	assert.Equal(t, "No fixes available.\n", out)
}

func TestInfo(t *testing.T) {
	dir := writeProject(t, true)

	code, out, _ := runCLI(t, "info", "-p", dir, "src/main.ts", "5:2")
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, out, "@server declared as a server-only function")

	code, _, _ = runCLI(t, "info", "-p", dir, "src/main.ts", "five")
	assert.Equal(t, ExitError, code)
}

func TestComplete(t *testing.T) {
	dir := writeProject(t, true)

	code, out, _ := runCLI(t, "complete", "-p", dir, "src/main.ts", "5:1")
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, out, "Server: saveAll\tfunction")
	assert.Contains(t, out, "Client: draw\tfunction")

	code, out, _ = runCLI(t, "complete", "-p", dir, "--details", "Server: saveAll", "src/main.ts", "5:1")
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, out, "saveAll")
	assert.Contains(t, out, "@server")
}

func TestWatchHandler(t *testing.T) {
	dir := writeProject(t, true)
	a := &app{log: slog.New(slog.NewTextHandler(io.Discard, nil))}
	ws, err := a.openWorkspace(context.Background(), dir)
	require.NoError(t, err)

	var out bytes.Buffer
	handler := a.watchHandler(ws, &out)
	handler(context.Background(), nil)
	assert.Contains(t, out.String(), "Found 1 warning in 1 file.")

	out.Reset()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tsboundary.yaml"), []byte("networkBoundaryCheck: \"off\"\n"), 0o644))
	handler(context.Background(), []project.Change{{Path: "tsboundary.yaml", Op: project.OpCreate, Settings: true}})
	assert.Contains(t, out.String(), "No network boundary problems found.")

	out.Reset()
	require.NoError(t, os.Remove(filepath.Join(dir, "tsboundary.yaml")))
	fixed := strings.Replace(mainSource, "saveAll();\n", "if ($SERVER) saveAll();\nsaveAll();\n", 1)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "src", "main.ts"), []byte(fixed), 0o644))
	handler(context.Background(), []project.Change{
		{Path: "tsboundary.yaml", Op: project.OpRemove, Settings: true},
		{Path: "src/main.ts", Op: project.OpWrite},
	})
	assert.Contains(t, out.String(), "src/main.ts:6:1")
	assert.Contains(t, out.String(), "Found 1 warning in 1 file.")
}

func TestFailing(t *testing.T) {
	warn := []analysis.Diagnostic{{Category: analysis.CategoryWarning}}
	msg := []analysis.Diagnostic{{Category: analysis.CategoryMessage}}
	errs := []analysis.Diagnostic{{Category: analysis.CategoryError}}

	assert.False(t, failing(failOnError, warn))
	assert.True(t, failing(failOnError, errs))
	assert.True(t, failing(failOnWarning, warn))
	assert.False(t, failing(failOnWarning, msg))
	assert.True(t, failing(failOnAny, msg))
	assert.False(t, failing(failOnNone, errs))
	assert.False(t, failing(failOnAny, nil))
}

func TestConflicts(t *testing.T) {
	change := func(start, end int) analysis.CodeFix {
		return analysis.CodeFix{Changes: []analysis.FileTextChanges{{
			FileName:    "a.ts",
			TextChanges: []analysis.TextChange{{Span: ast.Span{Start: start, End: end}}},
		}}}
	}
	byFile := map[string][]analysis.TextChange{
		"a.ts": {{Span: ast.Span{Start: 10, End: 20}}},
	}
	assert.True(t, conflicts(byFile, change(15, 25)))
	assert.True(t, conflicts(byFile, change(10, 10)), "insertion at the same offset")
	assert.False(t, conflicts(byFile, change(20, 20)))
	assert.False(t, conflicts(byFile, change(0, 5)))
}

func TestParsePosition(t *testing.T) {
	f, err := ast.NewParser().ParseString(context.Background(), "src/main.ts", mainSource)
	require.NoError(t, err)

	off, err := parsePosition(f, "5:1")
	require.NoError(t, err)
	assert.Equal(t, strings.Index(mainSource, "saveAll();"), off)

	for _, bad := range []string{"5", "x:1", "1:0", "0:1"} {
		_, err := parsePosition(f, bad)
		assert.Error(t, err, bad)
	}
}
