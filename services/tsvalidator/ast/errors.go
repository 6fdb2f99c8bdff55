// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ast

import (
	"errors"
	"fmt"
)

// Sentinel errors, matched with errors.Is.
var (
	// ErrFileTooLarge indicates the source exceeds the configured size limit.
	// The parser is never invoked for such input.
	ErrFileTooLarge = errors.New("source exceeds maximum size limit")

	// ErrParseFailed matches every *EngineError.
	ErrParseFailed = errors.New("parse failed")

	// ErrContextCanceled is returned when ctx is already done before the
	// engine starts.
	ErrContextCanceled = errors.New("parse canceled")
)

// EngineStep names where tree-sitter gave up.
type EngineStep string

const (
	// StepParse means ParseCtx itself returned an error.
	StepParse EngineStep = "parse"

	// StepTree means ParseCtx returned neither a tree nor an error.
	StepTree EngineStep = "tree"

	// StepRoot means the tree had no root node.
	StepRoot EngineStep = "root"
)

// EngineError explains why a ParseOutcome has Panicked set. It is logged,
// never shown to users, and always matches ErrParseFailed.
//
// Example:
//
//	var engineErr *EngineError
//	if errors.As(outcome.Cause, &engineErr) && engineErr.TimedOut {
//	    slog.Warn("parse budget exhausted", "input_len", engineErr.InputLen)
//	}
type EngineError struct {
	Step EngineStep

	// InputLen is the byte length of the text handed to the engine.
	InputLen int

	// TimedOut is set when the parse budget ran out first.
	TimedOut bool

	// Cause is the engine's own error, if it returned one.
	Cause error
}

func (e *EngineError) Error() string {
	msg := fmt.Sprintf("tree-sitter %s step failed on %d bytes", e.Step, e.InputLen)
	if e.TimedOut {
		msg += " (timed out)"
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *EngineError) Unwrap() error {
	return e.Cause
}

// Is reports ErrParseFailed as matching every EngineError.
func (e *EngineError) Is(target error) bool {
	return target == ErrParseFailed
}

// IsParseFailed reports whether err is an engine failure.
func IsParseFailed(err error) bool {
	return errors.Is(err, ErrParseFailed)
}
