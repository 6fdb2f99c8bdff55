// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package validate

import (
	"fmt"
	"strings"
)

// Fixed diagnostic text.
const (
	// SyntaxErrorLabel prefixes every rejection that lists diagnostics.
	SyntaxErrorLabel = "TypeScript syntax error: "

	// UnrecoverableMessage is the whole rejection text for an engine fault.
	UnrecoverableMessage = "TypeScript parser encountered an unrecoverable error"

	// DiagnosticSeparator joins multiple diagnostics.
	DiagnosticSeparator = "; "
)

// Kind classifies how a validation ended.
type Kind string

const (
	// KindAccepted means the snippet passed every stage.
	KindAccepted Kind = "accepted"

	// KindSyntaxError means the structural parse reported diagnostics.
	KindSyntaxError Kind = "syntax_error"

	// KindEngineFault means the structural parser failed internally.
	KindEngineFault Kind = "engine_fault"

	// KindSemanticError means genuine semantic diagnostics survived filtering.
	KindSemanticError Kind = "semantic_error"

	// KindBenignSemanticFault means the semantic pass failed after a clean
	// parse. The snippet is accepted.
	KindBenignSemanticFault Kind = "benign_semantic_fault"

	// KindInvalidInput means the snippet was refused before parsing.
	KindInvalidInput Kind = "invalid_input"
)

// IsAccepted reports whether the kind is an accepting outcome.
func (k Kind) IsAccepted() bool {
	return k == KindAccepted || k == KindBenignSemanticFault
}

// Result is the outcome of one validation. Exactly one of Source and Error
// is meaningful, selected by Accepted.
type Result struct {
	// Accepted reports whether the snippet is valid.
	Accepted bool `json:"accepted"`

	// Source is the input exactly as received, set when Accepted.
	Source string `json:"source,omitempty"`

	// Error is the single diagnostic message, set when not Accepted.
	Error string `json:"error,omitempty"`

	// Kind classifies the outcome.
	Kind Kind `json:"kind"`
}

// Accept builds an accepting result around the original input.
func Accept(original string) Result {
	return Result{Accepted: true, Source: original, Kind: KindAccepted}
}

// Reject builds a rejecting result with one message.
func Reject(kind Kind, message string) Result {
	return Result{Accepted: false, Error: message, Kind: kind}
}

// joinDiagnostics renders diagnostics as one labeled message.
func joinDiagnostics(msgs []string) string {
	return SyntaxErrorLabel + strings.Join(msgs, DiagnosticSeparator)
}

// RejectionError is the error form of a rejecting Result.
type RejectionError struct {
	Kind    Kind
	Message string
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Err returns nil for an accepting result and a *RejectionError otherwise.
func (r Result) Err() error {
	if r.Accepted {
		return nil
	}
	return &RejectionError{Kind: r.Kind, Message: r.Error}
}
