// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package langsvc exposes the boundary analysis as a language service.
//
// A LanguageService answers the editor requests the analysis augments:
// semantic diagnostics, completions, completion details, quick info and
// code fixes. NativeService answers them from a checker.Program alone.
// Plugin wraps any LanguageService: Decorate builds a MethodTable whose
// entries run the plugin's override and fall back to the host method when
// the override fails or panics.
//
//	editor ──► decorated MethodTable ──► Plugin override ──► host method
//	                    │                      │
//	                    └── on error/panic ────┴──► host method (once)
package langsvc
