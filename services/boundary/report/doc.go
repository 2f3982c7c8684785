// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package report renders analysis results for terminals and patches.
//
// Renderer prints diagnostics with the offending source line underlined,
// styled when the output is a terminal. UnifiedDiff and FixDiff turn
// code fixes into unified diffs; ValidateDiff re-parses a diff and checks
// its hunks before it is written anywhere.
package report
