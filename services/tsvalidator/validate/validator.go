// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package validate decides whether a TypeScript snippet is valid.
//
// A snippet flows through four stages:
//
//  1. normalize: bare type expressions are wrapped in a synthetic alias.
//  2. structural parse: syntax errors reject immediately.
//  3. semantic pass: strict-mode and scope errors found on the clean tree.
//  4. filter: diagnostics caused by missing project context are dropped.
//
// Both engine call sites sit behind a fault barrier. A parser fault rejects
// with a fixed message; a semantic fault accepts the snippet, because the
// structural parse already succeeded.
//
// Thread Safety: Validator is safe for concurrent use. Every call owns its
// parser, tree and scope model.
package validate

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel/attribute"

	"github.com/AleutianAI/tsvalidator/services/tsvalidator/ast"
	"github.com/AleutianAI/tsvalidator/services/tsvalidator/filter"
	"github.com/AleutianAI/tsvalidator/services/tsvalidator/normalize"
	"github.com/AleutianAI/tsvalidator/services/tsvalidator/sema"
)

// SemanticChecker is the semantic engine contract.
type SemanticChecker interface {
	Check(ctx context.Context, parsed *ast.ParseOutcome) (*sema.Outcome, error)
}

// Option configures a Validator.
type Option func(*Validator)

// WithParser replaces the structural parser.
func WithParser(p ast.Parser) Option {
	return func(v *Validator) { v.parser = p }
}

// WithChecker replaces the semantic checker.
func WithChecker(c SemanticChecker) Option {
	return func(v *Validator) { v.checker = c }
}

// WithSemanticCheck toggles the semantic pass. Enabled by default.
func WithSemanticCheck(enabled bool) Option {
	return func(v *Validator) { v.semantic = enabled }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(v *Validator) {
		if logger != nil {
			v.logger = logger
		}
	}
}

// WithCache stores finished results in c. Fault outcomes are never stored.
func WithCache(c ResultCache) Option {
	return func(v *Validator) { v.cache = c }
}

// WithMaxInputSize limits the input size in bytes. Zero disables the limit.
// Ignored when WithParser is used.
func WithMaxInputSize(bytes int64) Option {
	return func(v *Validator) { v.cfg.MaxInputSize = bytes }
}

// WithParseTimeout bounds the structural parse. Ignored when WithParser is used.
func WithParseTimeout(d time.Duration) Option {
	return func(v *Validator) { v.cfg.ParseTimeout = d }
}

// WithMaxErrors caps the syntax diagnostics in one rejection. Ignored when
// WithParser is used.
func WithMaxErrors(n int) Option {
	return func(v *Validator) { v.cfg.MaxErrors = n }
}

// WithMaxDepth sets the semantic walk nesting limit. Ignored when
// WithChecker is used.
func WithMaxDepth(n int) Option {
	return func(v *Validator) { v.cfg.MaxDepth = n }
}

// Validator runs the validation pipeline.
type Validator struct {
	parser   ast.Parser
	checker  SemanticChecker
	semantic bool
	logger   *slog.Logger
	cache    ResultCache
	cfg      Config
}

// New creates a Validator. Without options it uses the tree-sitter parser
// and the strict semantic checker with no input size limit.
//
// Example:
//
//	v := validate.New(validate.WithMaxInputSize(1 << 20))
//	result := v.Validate(ctx, "string | number")
func New(opts ...Option) *Validator {
	v := &Validator{
		semantic: true,
		logger:   slog.Default(),
		cfg:      DefaultConfig(),
	}
	for _, opt := range opts {
		opt(v)
	}

	if v.parser == nil {
		v.parser = ast.NewTypeScriptParser(
			ast.WithMaxInputSize(v.cfg.MaxInputSize),
			ast.WithParseTimeout(v.cfg.ParseTimeout),
			ast.WithMaxErrors(v.cfg.MaxErrors),
		)
	}
	if v.checker == nil {
		v.checker = sema.NewChecker(sema.WithMaxDepth(v.cfg.MaxDepth))
	}
	return v
}

// Language reports the language of the configured parser.
func (v *Validator) Language() string {
	return v.parser.Language()
}

var defaultValidator = sync.OnceValue(func() *Validator { return New() })

// Validate checks text with the default Validator.
func Validate(text string) Result {
	return defaultValidator().Validate(context.Background(), text)
}

// Validate checks one snippet.
//
// Description:
//
//	Returns Accepted with text unchanged, or a rejection carrying exactly one
//	message. Never panics and never returns a partial result.
//
// Inputs:
//
//	ctx - Used for tracing and the optional parse timeout.
//	text - The snippet as received.
//
// Outputs:
//
//	Result - The outcome.
func (v *Validator) Validate(ctx context.Context, text string) Result {
	start := time.Now()
	ctx, span := startValidateSpan(ctx, len(text))
	defer span.End()

	// Cached results are JSON, which cannot carry invalid UTF-8 byte for
	// byte. Such inputs bypass the cache.
	useCache := v.cache != nil && utf8.ValidString(text)
	var key string
	if useCache {
		key = v.cacheKey(text)
		if cached, ok := v.cache.Get(ctx, key); ok {
			span.SetAttributes(attribute.Bool("cache_hit", true))
			recordValidateMetrics(ctx, time.Since(start), cached.Kind)
			return cached
		}
	}

	result := v.run(ctx, text)
	if useCache && cacheable(result.Kind) {
		v.cache.Put(ctx, key, result)
	}

	duration := time.Since(start)
	setValidateSpanResult(span, result)
	recordValidateMetrics(ctx, duration, result.Kind)
	v.logger.Debug("validation finished",
		slog.String("kind", string(result.Kind)),
		slog.Int("input_len", len(text)),
		slog.Duration("duration", duration),
	)
	return result
}

func (v *Validator) run(ctx context.Context, text string) Result {
	src := normalize.Normalize(text)
	v.logger.Debug("normalized input",
		slog.Bool("wrapped", src.Wrapped),
		slog.Int("input_len", len(text)),
	)

	parsed, rejection, ok := v.parse(ctx, src)
	if !ok {
		return rejection
	}
	defer parsed.Close()

	if len(parsed.Diagnostics) > 0 {
		v.logger.Debug("syntax errors found", slog.Int("count", len(parsed.Diagnostics)))
		return Reject(KindSyntaxError, joinDiagnostics(parsed.Messages()))
	}

	if !v.semantic {
		return Accept(text)
	}
	return v.checkSemantics(ctx, parsed, text)
}

// parse runs the structural parser behind its fault barrier. It returns
// ok=false together with the terminal rejection when parsing cannot go on.
func (v *Validator) parse(ctx context.Context, src normalize.Source) (*ast.ParseOutcome, Result, bool) {
	ctx, span := startStageSpan(ctx, "Parse")
	defer span.End()

	parsed, err := protect("parser", func() (*ast.ParseOutcome, error) {
		return v.parser.Parse(ctx, src)
	})

	var fault *FaultError
	switch {
	case errors.As(err, &fault):
		recordFault(ctx, fault.Stage)
		v.logger.Error("panic in structural parser",
			slog.Any("panic", fault.Value),
			slog.String("stack", string(fault.Stack)),
		)
		return nil, Reject(KindEngineFault, UnrecoverableMessage), false

	case errors.Is(err, ast.ErrFileTooLarge):
		return nil, Reject(KindInvalidInput, err.Error()), false

	case err != nil:
		v.logger.Warn("structural parse refused", slog.String("error", err.Error()))
		return nil, Reject(KindEngineFault, UnrecoverableMessage), false

	case parsed == nil:
		v.logger.Error("structural parser returned no outcome")
		return nil, Reject(KindEngineFault, UnrecoverableMessage), false

	case parsed.Panicked:
		parsed.Close()
		recordFault(ctx, "parser")
		v.logger.Error("structural parser failed", slog.Any("cause", parsed.Cause))
		return nil, Reject(KindEngineFault, UnrecoverableMessage), false
	}
	return parsed, Result{}, true
}

// checkSemantics runs the semantic pass behind its fault barrier and
// filters what it reports.
func (v *Validator) checkSemantics(ctx context.Context, parsed *ast.ParseOutcome, text string) Result {
	ctx, span := startStageSpan(ctx, "Check")
	defer span.End()

	outcome, err := protect("semantic", func() (*sema.Outcome, error) {
		return v.checker.Check(ctx, parsed)
	})
	if err != nil {
		var fault *FaultError
		if errors.As(err, &fault) {
			recordFault(ctx, fault.Stage)
			v.logger.Warn("panic in semantic checker, accepting snippet",
				slog.Any("panic", fault.Value),
				slog.String("stack", string(fault.Stack)),
			)
		} else {
			v.logger.Warn("semantic checker failed, accepting snippet",
				slog.String("error", err.Error()),
			)
		}
		return Result{Accepted: true, Source: text, Kind: KindBenignSemanticFault}
	}

	msgs := outcome.Messages()
	for _, msg := range msgs {
		if pattern, ok := filter.Explain(msg); ok {
			recordArtifact(ctx, pattern)
			v.logger.Debug("dropping context artifact", slog.String("pattern", pattern))
		}
	}

	genuine := filter.Genuine(msgs)
	if len(genuine) == 0 {
		return Accept(text)
	}
	return Reject(KindSemanticError, joinDiagnostics(genuine))
}
