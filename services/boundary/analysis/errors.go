// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package analysis

import "errors"

var (
	// ErrOverlappingChanges is returned when two text changes of the same
	// edit overlap.
	ErrOverlappingChanges = errors.New("overlapping text changes")

	// ErrSpanOutOfRange is returned when a text change lies outside the
	// content it is applied to.
	ErrSpanOutOfRange = errors.New("text change out of range")
)
