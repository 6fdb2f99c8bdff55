// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package ast provides the structural TypeScript parse for snippet validation.
//
// Parsing uses the tree-sitter TypeScript grammar, which parses ES module
// syntax (import/export) unconditionally. Grammar-level problems are returned
// as Diagnostics; engine failures set ParseOutcome.Panicked.
//
// Thread Safety: All exported types are safe for concurrent use. Every Parse
// call owns a fresh tree-sitter parser and tree.
package ast

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/AleutianAI/tsvalidator/services/tsvalidator/normalize"
)

// Parser defines the contract for a structural parse of normalized source.
//
// Description:
//
//	Implementations turn a normalize.Source into a ParseOutcome. Syntax
//	errors are data (ParseOutcome.Diagnostics), never a returned error.
//	Engine failures are reported through ParseOutcome.Panicked.
//
// Inputs:
//
//	ctx - Context for tracing and optional engine budget.
//	src - Normalized source to parse.
//
// Outputs:
//
//	*ParseOutcome - Never nil when error is nil. Caller must Close it.
//	error - Non-nil only when the input was refused before parsing
//	        (ErrFileTooLarge, ErrContextCanceled).
//
// Thread Safety:
//
//	Implementations must be safe for concurrent use.
type Parser interface {
	Parse(ctx context.Context, src normalize.Source) (*ParseOutcome, error)

	// Language returns the canonical language name, "typescript".
	Language() string
}

// WarnFileSize is the input size above which a warning is logged.
const WarnFileSize = 1 * 1024 * 1024

// TypeScriptParserOption configures a TypeScriptParser instance.
type TypeScriptParserOption func(*TypeScriptParser)

// WithMaxInputSize sets the maximum input size in bytes. Zero or negative
// disables the limit.
//
// Example:
//
//	parser := NewTypeScriptParser(WithMaxInputSize(5 * 1024 * 1024)) // 5MB limit
func WithMaxInputSize(bytes int64) TypeScriptParserOption {
	return func(p *TypeScriptParser) {
		p.maxInputSize = bytes
	}
}

// WithParseTimeout bounds the engine run. Zero disables the bound.
// A parse that hits the bound is reported as an engine failure.
func WithParseTimeout(d time.Duration) TypeScriptParserOption {
	return func(p *TypeScriptParser) {
		if d >= 0 {
			p.timeout = d
		}
	}
}

// WithMaxErrors caps the syntax diagnostics collected per parse.
func WithMaxErrors(n int) TypeScriptParserOption {
	return func(p *TypeScriptParser) {
		if n > 0 {
			p.maxErrors = n
		}
	}
}

// TypeScriptParser implements Parser with tree-sitter.
//
// Description:
//
//	TypeScriptParser holds configuration only. Each Parse call creates its
//	own tree-sitter parser so no engine state is ever shared between calls.
//
// Thread Safety:
//
//	TypeScriptParser instances are safe for concurrent use.
//
// Example:
//
//	parser := NewTypeScriptParser()
//	outcome, err := parser.Parse(ctx, normalize.Normalize("5"))
//	if err != nil {
//	    return err
//	}
//	defer outcome.Close()
type TypeScriptParser struct {
	maxInputSize int64
	timeout      time.Duration
	maxErrors    int
}

// NewTypeScriptParser creates a TypeScriptParser with the given options.
//
// Defaults: no size limit, no timeout, DefaultMaxErrors diagnostics.
func NewTypeScriptParser(opts ...TypeScriptParserOption) *TypeScriptParser {
	p := &TypeScriptParser{
		maxErrors: DefaultMaxErrors,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Language returns the canonical language name for this parser.
func (p *TypeScriptParser) Language() string {
	return "typescript"
}

// Parse runs the tree-sitter TypeScript grammar over src.Text.
//
// Description:
//
//	Produces a ParseOutcome holding either the tree, the syntax diagnostics
//	(positioned in src.Original), or the Panicked flag when tree-sitter
//	returned no tree. Panics inside the engine are not recovered here; the
//	caller owns the fault barrier.
//
// Inputs:
//
//	ctx - Context; checked before parsing and used for the engine budget.
//	src - Normalized source.
//
// Outputs:
//
//	*ParseOutcome - The parse result; caller must Close it.
//	error - ErrFileTooLarge or ErrContextCanceled; nil otherwise.
//
// Thread Safety:
//
//	This method is safe for concurrent use.
func (p *TypeScriptParser) Parse(ctx context.Context, src normalize.Source) (*ParseOutcome, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrContextCanceled, err)
	}

	if p.maxInputSize > 0 && int64(len(src.Original)) > p.maxInputSize {
		return nil, fmt.Errorf("%w: size %d exceeds limit %d", ErrFileTooLarge, len(src.Original), p.maxInputSize)
	}

	if len(src.Original) > WarnFileSize {
		slog.Warn("parsing large snippet",
			slog.Int("size_bytes", len(src.Original)))
	}

	start := time.Now()
	ctx, span := startParseSpan(ctx, src)
	defer span.End()

	content := []byte(src.Text)
	outcome := &ParseOutcome{
		Source:      src,
		Content:     content,
		Diagnostics: make([]Diagnostic, 0),
	}

	parseCtx := ctx
	if p.timeout > 0 {
		var cancel context.CancelFunc
		parseCtx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	// New instance per call for thread safety
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(typescript.GetLanguage())

	tree, err := parser.ParseCtx(parseCtx, nil, content)
	fail := func(step EngineStep, cause error) {
		outcome.Panicked = true
		outcome.Cause = &EngineError{
			Step:     step,
			InputLen: len(content),
			TimedOut: parseCtx.Err() != nil,
			Cause:    cause,
		}
	}
	switch {
	case err != nil:
		fail(StepParse, err)
	case tree == nil:
		fail(StepTree, nil)
	case tree.RootNode() == nil:
		tree.Close()
		fail(StepRoot, nil)
	default:
		outcome.Tree = tree
		outcome.Diagnostics = collectSyntaxErrors(tree.RootNode(), src, content, p.maxErrors)
	}

	finishParse(ctx, span, start, outcome)
	return outcome, nil
}
