// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package analysis implements network boundary analysis for Airship
// TypeScript.
//
// Code runs on the server, the client, or both (Shared). Directives such
// as "$SERVER" and "Game.IsClient()", method decorators such as
// "@Server()", and documentation tags such as "@client" narrow the
// boundary. The package answers three questions:
//
//	Which boundary does this node run in?   ResolveContainingBoundary
//	Which boundary is this callable for?    ClassifyMethod, DeclaredBoundary
//	Where do the two disagree?              Diagnose, CodeFixes
//
// Data flow for one request:
//
//	checker.Program ──► SymbolDirectory.Refresh ──► NewAnalyzer
//	                                                    │
//	          ┌─────────────────┬───────────────────────┤
//	          ▼                 ▼                       ▼
//	  ParseDirectives   ResolveContainingBoundary   ClassifyMethod
//	          └─────────────────┴──────► Diagnose ──► CodeFixes
//
// Symbols are always compared by identity, never by name, so imported
// and aliased directives are recognized.
package analysis
