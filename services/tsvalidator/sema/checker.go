// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package sema runs the best-effort semantic pass over a clean syntax tree.
//
// The checker builds a scope model for the snippet (module, function, block,
// class, namespace and type-parameter scopes) and reports the errors that the
// grammar accepts but strict ES module code forbids: redeclarations, illegal
// control flow, strict-mode violations. It also reports names and imports
// that cannot be resolved inside the snippet. Those resolution diagnostics are
// expected for isolated snippets and callers usually filter them out.
//
// The checker has no knowledge of other files and never loads anything.
//
// Thread Safety: Checker is immutable after construction and safe for
// concurrent use. Every Check call owns its scope model.
package sema

import (
	"cmp"
	"context"
	"errors"
	"slices"

	"github.com/AleutianAI/tsvalidator/services/tsvalidator/ast"
)

var (
	// ErrNestingTooDeep indicates the tree is deeper than the checker walks.
	ErrNestingTooDeep = errors.New("syntax tree nesting exceeds checker limit")

	// ErrNoTree indicates Check was handed an outcome without a clean tree.
	ErrNoTree = errors.New("semantic check requires a clean syntax tree")
)

// DefaultMaxDepth is the default nesting limit of the tree walk.
const DefaultMaxDepth = 2048

// Outcome is the result of one semantic pass.
type Outcome struct {
	// Diagnostics are the semantic errors found, sorted by position.
	Diagnostics []Diagnostic
}

// Success reports whether the pass found nothing.
func (o *Outcome) Success() bool {
	return o == nil || len(o.Diagnostics) == 0
}

// Messages returns the rendered diagnostics.
func (o *Outcome) Messages() []string {
	if o == nil {
		return nil
	}
	msgs := make([]string, 0, len(o.Diagnostics))
	for _, d := range o.Diagnostics {
		msgs = append(msgs, d.String())
	}
	return msgs
}

// Option configures a Checker.
type Option func(*Checker)

// WithMaxDepth sets the nesting limit. Trees deeper than this make Check
// return ErrNestingTooDeep.
func WithMaxDepth(depth int) Option {
	return func(c *Checker) {
		if depth > 0 {
			c.maxDepth = depth
		}
	}
}

// WithSyntaxChecks toggles the strict syntax rules. When disabled only the
// resolution diagnostics are produced. Enabled by default.
func WithSyntaxChecks(enabled bool) Option {
	return func(c *Checker) {
		c.syntaxChecks = enabled
	}
}

// Checker performs the semantic pass.
type Checker struct {
	maxDepth     int
	syntaxChecks bool
}

// NewChecker creates a Checker with strict syntax checks enabled.
//
// Example:
//
//	checker := sema.NewChecker(sema.WithMaxDepth(512))
//	outcome, err := checker.Check(ctx, parsed)
func NewChecker(opts ...Option) *Checker {
	c := &Checker{
		maxDepth:     DefaultMaxDepth,
		syntaxChecks: true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Check runs the semantic pass over a clean parse.
//
// Description:
//
//	Declarations of every scope are hoisted before the scope body is
//	walked, so forward references resolve. Diagnostics come back sorted by
//	position in the original input.
//
// Inputs:
//
//	ctx - Checked once before the walk starts.
//	parsed - A clean ParseOutcome. The tree must stay open during Check.
//
// Outputs:
//
//	*Outcome - Diagnostics found. Never nil when error is nil.
//	error - ErrNoTree, ErrNestingTooDeep, or the context error.
func (c *Checker) Check(ctx context.Context, parsed *ast.ParseOutcome) (*Outcome, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !parsed.Clean() {
		return nil, ErrNoTree
	}

	run := &checkRun{
		src:          parsed.Source,
		content:      parsed.Content,
		syntaxChecks: c.syntaxChecks,
		maxDepth:     c.maxDepth,
		module:       newScope(scopeModule, nil),
		exports:      make(map[string]struct{}),
		seen:         make(map[string]struct{}),
	}

	root := parsed.Root()
	run.hoist(root, run.module)
	if err := run.walkChildren(root, walkState{scope: run.module}, 1); err != nil {
		return nil, err
	}

	slices.SortStableFunc(run.diags, func(a, b Diagnostic) int {
		if n := cmp.Compare(a.Line, b.Line); n != 0 {
			return n
		}
		return cmp.Compare(a.Column, b.Column)
	})
	return &Outcome{Diagnostics: run.diags}, nil
}
