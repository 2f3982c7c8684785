// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package checker

import "errors"

var (
	// ErrFileNotFound indicates the requested path is not part of the program.
	ErrFileNotFound = errors.New("file not found in program")

	// ErrDuplicateFile indicates two files with the same normalized path
	// were passed to NewProgram.
	ErrDuplicateFile = errors.New("duplicate file in program")
)
