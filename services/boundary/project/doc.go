// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package project turns a directory into a checker.Program.
//
// Discover lists the TypeScript files of a project honoring .gitignore,
// Loader parses them in parallel and binds them into a Program, and
// Watcher reports debounced file changes so callers can reload.
//
// File paths handed to the parser are relative to the project root and
// use forward slashes, so they line up with the serverDirectories and
// clientDirectories settings.
package project
