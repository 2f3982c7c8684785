// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package langsvc

import (
	"errors"
	"fmt"
)

var (
	// ErrAlreadyDecorated is returned when a method table that was already
	// decorated is decorated again.
	ErrAlreadyDecorated = errors.New("language service already decorated")

	// ErrNotAnalyzable indicates the requested file is not part of the
	// program. The proxy falls back to the host without logging an error.
	ErrNotAnalyzable = errors.New("file is not analyzable")
)

// PluginError records a failed override.
//
// Exactly one of Cause and Panic is set.
type PluginError struct {
	// Method is the failing method, e.g. "getSemanticDiagnostics".
	Method string

	// Cause is the error the override returned.
	Cause error

	// Panic is the recovered panic value.
	Panic any

	// Stack is the goroutine stack captured on panic.
	Stack string
}

// Error implements the error interface.
func (e *PluginError) Error() string {
	if e.Panic != nil {
		return fmt.Sprintf("%s: panic: %v", e.Method, e.Panic)
	}
	return fmt.Sprintf("%s: %v", e.Method, e.Cause)
}

// Unwrap returns the underlying error.
func (e *PluginError) Unwrap() error {
	return e.Cause
}
