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
	"errors"
	"fmt"
)

// Process exit codes.
const (
	ExitAccepted = 0
	ExitRejected = 1
	ExitUsage    = 2
)

// ExitError carries a process exit code through cobra's error return.
//
// Silent errors have already been reported to the user and only set the
// exit code.
type ExitError struct {
	// Code is the process exit code.
	Code int

	// Silent suppresses printing by main.
	Silent bool

	// Wrapped is the underlying error.
	Wrapped error
}

// Error returns a formatted error message.
func (e *ExitError) Error() string {
	if e.Wrapped != nil {
		return e.Wrapped.Error()
	}
	return fmt.Sprintf("exit %d", e.Code)
}

// Unwrap returns the underlying error.
func (e *ExitError) Unwrap() error {
	return e.Wrapped
}

// errRejected reports that at least one snippet was rejected.
var errRejected = &ExitError{Code: ExitRejected, Silent: true}

// usageError wraps err with ExitUsage.
func usageError(err error) error {
	return &ExitError{Code: ExitUsage, Wrapped: err}
}

// exitCode maps an Execute error to a process exit code.
func exitCode(err error) int {
	if err == nil {
		return ExitAccepted
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitUsage
}

// isSilent reports whether err was already shown to the user.
func isSilent(err error) bool {
	var exitErr *ExitError
	return errors.As(err, &exitErr) && exitErr.Silent
}
