// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/mod/semver"
)

// CompilerPackage is the dependency that marks an Airship project.
const CompilerPackage = "@easy-games/unity-ts"

// MinimumCompilerVersion is the oldest compiler release whose directive
// and decorator globals this analysis understands.
const MinimumCompilerVersion = "v3.0.0"

// Project describes a detected Airship project.
type Project struct {
	// Root is the directory containing package.json.
	Root string

	// PackageJSON is the path of the manifest that matched.
	PackageJSON string

	// CompilerRange is the raw version range of the compiler dependency.
	CompilerRange string

	// CompilerVersion is the canonical semver parsed from CompilerRange, or
	// empty when the range is not a plain version.
	CompilerVersion string

	// Supported is false when CompilerVersion is known and older than
	// MinimumCompilerVersion.
	Supported bool
}

type packageManifest struct {
	Dependencies    map[string]string `json:"dependencies"`
	DevDependencies map[string]string `json:"devDependencies"`
}

// DetectProject finds the nearest package.json at or above dir and reports
// whether it depends on the compiler.
//
// Description:
//
//	The manifest is Airship when either dependencies or devDependencies
//	contains CompilerPackage. The version range is normalized
//	("^3.1.0" becomes "v3.1.0") and compared against
//	MinimumCompilerVersion; an old version is reported, not rejected.
//
// Outputs:
//   - Project: The detected project.
//   - error: ErrNotAirshipProject when no manifest matches; read and
//     decode errors are wrapped.
func DetectProject(dir string) (Project, error) {
	manifest, err := findPackageJSON(dir)
	if err != nil {
		return Project{}, err
	}
	data, err := os.ReadFile(manifest)
	if err != nil {
		return Project{}, fmt.Errorf("read %s: %w", manifest, err)
	}
	var pkg packageManifest
	if err := json.Unmarshal(data, &pkg); err != nil {
		return Project{}, fmt.Errorf("decode %s: %w", manifest, err)
	}

	rng, ok := pkg.DevDependencies[CompilerPackage]
	if !ok {
		rng, ok = pkg.Dependencies[CompilerPackage]
	}
	if !ok {
		return Project{}, fmt.Errorf("%w: %s does not depend on %s", ErrNotAirshipProject, manifest, CompilerPackage)
	}

	p := Project{
		Root:          filepath.Dir(manifest),
		PackageJSON:   manifest,
		CompilerRange: rng,
		Supported:     true,
	}
	if v := NormalizeVersion(rng); v != "" {
		p.CompilerVersion = v
		p.Supported = semver.Compare(v, MinimumCompilerVersion) >= 0
	}
	return p, nil
}

func findPackageJSON(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", dir, err)
	}
	for {
		candidate := filepath.Join(abs, "package.json")
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("stat %s: %w", candidate, err)
		}
		parent := filepath.Dir(abs)
		if parent == abs {
			return "", fmt.Errorf("%w: no package.json above %s", ErrNotAirshipProject, dir)
		}
		abs = parent
	}
}

// NormalizeVersion turns an npm version range into a canonical semver
// string. Ranges that are not a single lower bound return "".
func NormalizeVersion(rng string) string {
	v := strings.TrimSpace(rng)
	if v == "" || strings.ContainsAny(v, " |*xX") {
		return ""
	}
	v = strings.TrimLeft(v, "^~>=v")
	if v == "" {
		return ""
	}
	v = "v" + v
	if !semver.IsValid(v) {
		return ""
	}
	return semver.Canonical(v)
}
