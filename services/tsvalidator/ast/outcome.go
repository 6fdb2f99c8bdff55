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
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/AleutianAI/tsvalidator/services/tsvalidator/normalize"
)

// DiagnosticKind categorizes a syntax diagnostic.
type DiagnosticKind string

const (
	// DiagnosticUnexpected marks text the grammar could not place.
	DiagnosticUnexpected DiagnosticKind = "unexpected"

	// DiagnosticMissing marks a token the parser inserted to recover.
	DiagnosticMissing DiagnosticKind = "missing"
)

// Diagnostic is one syntax complaint, positioned in the original input.
type Diagnostic struct {
	// Line is the 1-indexed line in the original input.
	Line int `json:"line"`

	// Column is the 1-indexed byte column in the original input.
	Column int `json:"column"`

	// Message describes the problem.
	Message string `json:"message"`

	// Kind categorizes the diagnostic.
	Kind DiagnosticKind `json:"kind"`

	// Suggestion provides a fix recommendation, if any.
	Suggestion string `json:"suggestion,omitempty"`
}

// String renders the diagnostic as "<message> at <line>:<column>".
func (d Diagnostic) String() string {
	return fmt.Sprintf("%s at %d:%d", d.Message, d.Line, d.Column)
}

// ParseOutcome is the result of one structural parse.
//
// Exactly one of these holds:
//   - Panicked is true: the engine failed; Diagnostics must be ignored.
//   - len(Diagnostics) > 0: the input has syntax errors.
//   - otherwise: Tree holds a clean syntax tree.
//
// The outcome owns the tree. Callers must call Close when done.
type ParseOutcome struct {
	// Source is the normalized input that was parsed.
	Source normalize.Source

	// Content is the byte form of Source.Text that the tree indexes into.
	Content []byte

	// Tree is the syntax tree. Nil when Panicked is true.
	Tree *sitter.Tree

	// Diagnostics are the syntax errors found, in document order.
	Diagnostics []Diagnostic

	// Panicked reports an unrecoverable engine condition.
	Panicked bool

	// Cause explains why Panicked was set.
	Cause error
}

// Root returns the root node of the tree, or nil.
func (o *ParseOutcome) Root() *sitter.Node {
	if o == nil || o.Tree == nil {
		return nil
	}
	return o.Tree.RootNode()
}

// Clean reports whether the parse produced a tree with no syntax errors.
func (o *ParseOutcome) Clean() bool {
	return o != nil && !o.Panicked && o.Tree != nil && len(o.Diagnostics) == 0
}

// Messages returns the rendered diagnostics.
func (o *ParseOutcome) Messages() []string {
	msgs := make([]string, 0, len(o.Diagnostics))
	for _, d := range o.Diagnostics {
		msgs = append(msgs, d.String())
	}
	return msgs
}

// Close releases the syntax tree. Safe to call more than once and on nil.
func (o *ParseOutcome) Close() {
	if o == nil || o.Tree == nil {
		return
	}
	o.Tree.Close()
	o.Tree = nil
}
