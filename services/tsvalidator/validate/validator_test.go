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
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/tsvalidator/services/tsvalidator/ast"
	"github.com/AleutianAI/tsvalidator/services/tsvalidator/normalize"
	"github.com/AleutianAI/tsvalidator/services/tsvalidator/sema"
)

// =============================================================================
// Test engines
// =============================================================================

type panicParser struct{}

func (panicParser) Parse(context.Context, normalize.Source) (*ast.ParseOutcome, error) {
	panic("parser exploded")
}

func (panicParser) Language() string { return "typescript" }

// failedParser reports an engine failure together with partial diagnostics.
type failedParser struct{}

func (failedParser) Parse(_ context.Context, src normalize.Source) (*ast.ParseOutcome, error) {
	return &ast.ParseOutcome{
		Source:      src,
		Panicked:    true,
		Cause:       errors.New("budget exhausted"),
		Diagnostics: []ast.Diagnostic{{Line: 1, Column: 1, Message: "partial"}},
	}, nil
}

func (failedParser) Language() string { return "typescript" }

type panicChecker struct{}

func (panicChecker) Check(context.Context, *ast.ParseOutcome) (*sema.Outcome, error) {
	panic("checker exploded")
}

type errChecker struct{ err error }

func (c errChecker) Check(context.Context, *ast.ParseOutcome) (*sema.Outcome, error) {
	return nil, c.err
}

type fixedChecker struct{ diags []sema.Diagnostic }

func (c fixedChecker) Check(context.Context, *ast.ParseOutcome) (*sema.Outcome, error) {
	return &sema.Outcome{Diagnostics: c.diags}, nil
}

type trapChecker struct{ t *testing.T }

func (c trapChecker) Check(context.Context, *ast.ParseOutcome) (*sema.Outcome, error) {
	c.t.Error("semantic checker ran after syntax errors")
	return &sema.Outcome{}, nil
}

// recordingCache is an in-memory ResultCache that records every call.
type recordingCache struct {
	mu      sync.Mutex
	entries map[string]Result
	gets    int
	puts    int
}

func newRecordingCache() *recordingCache {
	return &recordingCache{entries: make(map[string]Result)}
}

func (c *recordingCache) Get(_ context.Context, key string) (Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	r, ok := c.entries[key]
	return r, ok
}

func (c *recordingCache) Put(_ context.Context, key string, r Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.puts++
	c.entries[key] = r
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestValidator(opts ...Option) *Validator {
	return New(append([]Option{WithLogger(quietLogger())}, opts...)...)
}

// =============================================================================
// Scenarios
// =============================================================================

func TestValidator_AcceptsBareLiteral(t *testing.T) {
	result := newTestValidator().Validate(context.Background(), "5")
	assert.Equal(t, Accept("5"), result)
}

func TestValidator_AcceptsDeclarationUnchanged(t *testing.T) {
	input := "interface Foo { bar: string }"
	result := newTestValidator().Validate(context.Background(), input)
	assert.True(t, result.Accepted)
	assert.Equal(t, input, result.Source)
	assert.Equal(t, KindAccepted, result.Kind)
}

func TestValidator_RejectsSyntaxError(t *testing.T) {
	result := newTestValidator(WithChecker(trapChecker{t})).Validate(context.Background(), "{{{")
	assert.False(t, result.Accepted)
	assert.Equal(t, KindSyntaxError, result.Kind)
	assert.True(t, strings.HasPrefix(result.Error, SyntaxErrorLabel), "Error = %q", result.Error)
	assert.Greater(t, len(result.Error), len(SyntaxErrorLabel))
	assert.NotContains(t, result.Error, normalize.WrapperAlias)
	assert.Empty(t, result.Source)
}

func TestValidator_ParserPanic(t *testing.T) {
	result := newTestValidator(WithParser(panicParser{})).Validate(context.Background(), "5")
	assert.Equal(t, Reject(KindEngineFault, UnrecoverableMessage), result)
}

func TestValidator_ParserFailureIgnoresPartialDiagnostics(t *testing.T) {
	result := newTestValidator(WithParser(failedParser{})).Validate(context.Background(), "5")
	assert.Equal(t, UnrecoverableMessage, result.Error)
	assert.Equal(t, KindEngineFault, result.Kind)
}

func TestValidator_SemanticPanicIsBenign(t *testing.T) {
	input := "Foo<Bar>"
	result := newTestValidator(WithChecker(panicChecker{})).Validate(context.Background(), input)
	assert.True(t, result.Accepted)
	assert.Equal(t, input, result.Source)
	assert.Equal(t, KindBenignSemanticFault, result.Kind)
}

func TestValidator_SemanticErrorIsBenign(t *testing.T) {
	result := newTestValidator(WithChecker(errChecker{sema.ErrNestingTooDeep})).Validate(context.Background(), "5")
	assert.True(t, result.Accepted)
	assert.Equal(t, KindBenignSemanticFault, result.Kind)
}

func TestValidator_DeepNestingAccepted(t *testing.T) {
	input := strings.Repeat("Array<", 40) + "string" + strings.Repeat(">", 40)
	result := newTestValidator(WithMaxDepth(8)).Validate(context.Background(), input)
	assert.True(t, result.Accepted)
	assert.Equal(t, input, result.Source)
	assert.Equal(t, KindBenignSemanticFault, result.Kind)
}

func TestValidator_RejectsGenuineSemanticError(t *testing.T) {
	result := newTestValidator().Validate(context.Background(), "export let a = 1;\nlet a = 2;")
	assert.Equal(t, Reject(KindSemanticError,
		"TypeScript syntax error: Identifier `a` has already been declared at 2:5"), result)
}

func TestValidator_FiltersContextArtifacts(t *testing.T) {
	inputs := []string{
		"Promise<UnknownThing>",
		"export type A = Missing;",
		"export * from './elsewhere';",
		"export const y = 1;\nimport { x } from 'lib';",
	}
	v := newTestValidator()
	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			result := v.Validate(context.Background(), input)
			assert.True(t, result.Accepted, "Error = %q", result.Error)
			assert.Equal(t, input, result.Source)
		})
	}
}

func TestValidator_MixedDiagnosticsKeepOnlyGenuine(t *testing.T) {
	checker := fixedChecker{diags: []sema.Diagnostic{
		{Line: 1, Column: 1, Message: "Cannot find name 'X'."},
		{Line: 1, Column: 2, Message: "Illegal break statement"},
		{Line: 1, Column: 3, Message: "Cannot find module 'y' or its corresponding type declarations."},
		{Line: 2, Column: 1, Message: "Identifier `z` has already been declared"},
	}}
	result := newTestValidator(WithChecker(checker)).Validate(context.Background(), "5")

	require.False(t, result.Accepted)
	assert.Equal(t, KindSemanticError, result.Kind)
	assert.Equal(t,
		"TypeScript syntax error: Illegal break statement at 1:2; Identifier `z` has already been declared at 2:1",
		result.Error)
	assert.NotContains(t, result.Error, "Cannot find")
	assert.NotContains(t, result.Error, "module")
}

func TestValidator_RejectsStrictModeErrors(t *testing.T) {
	inputs := []string{
		"export const x;",
		"export const a = 1 ++;",
		"export let let = 1;",
		"export const yield = 1;",
		"export class A extends B, C {}",
		"export function f(...a, b) {}",
		"export class A { constructor() {} constructor() {} }",
		"export function f() { super(); }",
		"export const a = (b?.c = 1);",
		"export class A { m() { this.#b; } }",
		"export function f(a = 1) { 'use strict'; }",
		"export function f({ a }) { 'use strict'; return a; }",
		"export const t = new.target;",
		"export const await = 1;",
		"export function f(await) {}",
		`export const s = '\8';`,
		`export const s = '\9';`,
		`export const s = '\012';`,
	}
	v := newTestValidator()
	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			result := v.Validate(context.Background(), input)
			require.False(t, result.Accepted, "accepted %q", input)
			assert.Contains(t, []Kind{KindSyntaxError, KindSemanticError}, result.Kind)
			assert.True(t, strings.HasPrefix(result.Error, SyntaxErrorLabel), "Error = %q", result.Error)
			assert.Empty(t, result.Source)
		})
	}
}

func TestValidator_RejectsUndefinedLocalExport(t *testing.T) {
	result := newTestValidator().Validate(context.Background(), "export { x };")
	assert.Equal(t, Reject(KindSemanticError, "TypeScript syntax error: Export 'x' is not defined at 1:10"), result)

	declared := newTestValidator().Validate(context.Background(), "export const y = 1;\nconst x = 2;\nexport { x };")
	assert.True(t, declared.Accepted, "Error = %q", declared.Error)
}

func TestValidator_InvalidUTF8BypassesCache(t *testing.T) {
	c := newRecordingCache()
	v := newTestValidator(WithCache(c))
	input := "export type A = 'caf\xe9';"

	first := v.Validate(context.Background(), input)
	second := v.Validate(context.Background(), input)
	assert.Equal(t, first, second)
	assert.Zero(t, c.gets)
	assert.Zero(t, c.puts)

	v.Validate(context.Background(), "string")
	assert.Equal(t, 1, c.gets)
	assert.Equal(t, 1, c.puts)
}

func TestValidator_SemanticCheckDisabled(t *testing.T) {
	result := newTestValidator(WithSemanticCheck(false)).Validate(context.Background(), "export let a = 1;\nlet a = 2;")
	assert.True(t, result.Accepted)
}

func TestValidator_MaxInputSize(t *testing.T) {
	result := newTestValidator(WithMaxInputSize(8)).Validate(context.Background(), "string | number | boolean")
	assert.False(t, result.Accepted)
	assert.Equal(t, KindInvalidInput, result.Kind)
	assert.Contains(t, result.Error, "exceeds")
}

func TestValidator_Idempotent(t *testing.T) {
	inputs := []string{"5", "  string | number  ", "interface Foo { bar: string }", "export type A = Missing;"}
	v := newTestValidator()
	for _, input := range inputs {
		first := v.Validate(context.Background(), input)
		require.True(t, first.Accepted, "input %q: %s", input, first.Error)
		assert.Equal(t, input, first.Source, "accepted text must be byte-identical")

		second := v.Validate(context.Background(), first.Source)
		assert.Equal(t, first, second)
	}
}

func TestValidate_PackageLevel(t *testing.T) {
	assert.True(t, Validate("string").Accepted)
	assert.False(t, Validate("type A = ;").Accepted)
}

// =============================================================================
// Results and barrier
// =============================================================================

func TestResult_Err(t *testing.T) {
	assert.NoError(t, Accept("5").Err())

	err := Reject(KindSyntaxError, "TypeScript syntax error: x").Err()
	var rejection *RejectionError
	require.ErrorAs(t, err, &rejection)
	assert.Equal(t, KindSyntaxError, rejection.Kind)
	assert.Equal(t, "syntax_error: TypeScript syntax error: x", err.Error())
}

func TestKind_IsAccepted(t *testing.T) {
	tests := []struct {
		kind Kind
		want bool
	}{
		{KindAccepted, true},
		{KindBenignSemanticFault, true},
		{KindSyntaxError, false},
		{KindEngineFault, false},
		{KindSemanticError, false},
		{KindInvalidInput, false},
	}
	for _, tt := range tests {
		if got := tt.kind.IsAccepted(); got != tt.want {
			t.Errorf("%s.IsAccepted() = %v, want %v", tt.kind, got, tt.want)
		}
	}
}

func TestProtect(t *testing.T) {
	got, err := protect("parser", func() (int, error) { return 7, nil })
	if got != 7 || err != nil {
		t.Errorf("protect() = (%v, %v), want (7, nil)", got, err)
	}

	sentinel := errors.New("plain")
	_, err = protect("parser", func() (int, error) { return 0, sentinel })
	if !errors.Is(err, sentinel) {
		t.Errorf("protect() error = %v, want %v", err, sentinel)
	}

	got, err = protect("semantic", func() (int, error) { panic("boom") })
	var fault *FaultError
	if !errors.As(err, &fault) {
		t.Fatalf("protect() error = %v, want *FaultError", err)
	}
	if got != 0 {
		t.Errorf("protect() value after panic = %v, want 0", got)
	}
	if fault.Stage != "semantic" || fault.Value != "boom" {
		t.Errorf("fault = %+v, want stage semantic and value boom", fault)
	}
	if len(fault.Stack) == 0 {
		t.Error("fault.Stack is empty")
	}
}

// =============================================================================
// Config
// =============================================================================

func TestNewFromConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, ast.DefaultMaxErrors, cfg.MaxErrors)
	assert.Equal(t, sema.DefaultMaxDepth, cfg.MaxDepth)
	assert.True(t, cfg.SemanticCheck)
	assert.Zero(t, cfg.MaxInputSize, "input size is unlimited by default")

	cfg.SemanticCheck = false
	cfg.MaxInputSize = 4
	v := NewFromConfig(cfg, WithLogger(quietLogger()))

	assert.Equal(t, KindInvalidInput, v.Validate(context.Background(), "string").Kind)
	assert.True(t, v.Validate(context.Background(), "5").Accepted)
}
