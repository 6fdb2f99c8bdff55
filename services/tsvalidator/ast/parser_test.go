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
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/AleutianAI/tsvalidator/services/tsvalidator/normalize"
)

func parse(t *testing.T, input string) *ParseOutcome {
	t.Helper()
	outcome, err := NewTypeScriptParser().Parse(context.Background(), normalize.Normalize(input))
	if err != nil {
		t.Fatalf("Parse(%q) error = %v", input, err)
	}
	t.Cleanup(outcome.Close)
	return outcome
}

func TestTypeScriptParser_Language(t *testing.T) {
	if got := NewTypeScriptParser().Language(); got != "typescript" {
		t.Errorf("Language() = %v, want typescript", got)
	}
}

func TestTypeScriptParser_Parse_Valid(t *testing.T) {
	inputs := []string{
		"5",
		"string | number",
		"{ a: string; b?: number }",
		"Array<Record<string, number>>",
		"interface Foo { bar: string }",
		"type A<T> = T extends string ? 'yes' : 'no';",
		"export const x: number = 1;",
		"export interface User {\n  id: number;\n  name: string;\n}",
		"export type B = typeof a;\nimport { a } from './a';",
		"declare function f(x: number): string;",
		"export default class Foo {}",
	}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			outcome := parse(t, input)
			if outcome.Panicked {
				t.Fatalf("Parse(%q).Panicked = true, cause = %v", input, outcome.Cause)
			}
			if !outcome.Clean() {
				t.Errorf("Parse(%q) diagnostics = %v, want none", input, outcome.Messages())
			}
			if outcome.Root() == nil {
				t.Error("Root() = nil, want tree")
			}
		})
	}
}

func TestTypeScriptParser_Parse_Invalid(t *testing.T) {
	inputs := []string{
		"{{{",
		"type A = ;",
		"interface Foo { bar: }",
		"export const = 1;",
		"",
	}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			outcome := parse(t, input)
			if outcome.Panicked {
				t.Fatalf("Parse(%q).Panicked = true, want syntax diagnostics", input)
			}
			if len(outcome.Diagnostics) == 0 {
				t.Fatalf("Parse(%q) diagnostics = none, want at least one", input)
			}
			for _, d := range outcome.Diagnostics {
				if d.Line < 1 || d.Column < 1 {
					t.Errorf("diagnostic %q has position %d:%d, want 1-indexed", d.Message, d.Line, d.Column)
				}
				if strings.Contains(d.String(), normalize.WrapperAlias) {
					t.Errorf("diagnostic %q leaks wrapper alias", d.String())
				}
			}
		})
	}
}

func TestTypeScriptParser_Parse_WrappedPositionsAreOriginal(t *testing.T) {
	outcome := parse(t, "{{{")
	for _, d := range outcome.Diagnostics {
		if d.Line != 1 {
			t.Errorf("diagnostic %q line = %d, want 1", d.Message, d.Line)
		}
		if d.Column > len("{{{")+1 {
			t.Errorf("diagnostic %q column = %d, want within original input", d.Message, d.Column)
		}
	}
}

func TestTypeScriptParser_Parse_MaxInputSize(t *testing.T) {
	parser := NewTypeScriptParser(WithMaxInputSize(4))
	_, err := parser.Parse(context.Background(), normalize.Normalize("string | number"))
	if !errors.Is(err, ErrFileTooLarge) {
		t.Errorf("Parse() error = %v, want ErrFileTooLarge", err)
	}

	outcome, err := parser.Parse(context.Background(), normalize.Normalize("5"))
	if err != nil {
		t.Fatalf("Parse() under limit error = %v", err)
	}
	outcome.Close()
}

func TestTypeScriptParser_Parse_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewTypeScriptParser().Parse(ctx, normalize.Normalize("5"))
	if !errors.Is(err, ErrContextCanceled) {
		t.Errorf("Parse() error = %v, want ErrContextCanceled", err)
	}
}

func TestTypeScriptParser_Parse_MaxErrors(t *testing.T) {
	input := strings.Repeat("interface { ] ", 40)
	outcome, err := NewTypeScriptParser(WithMaxErrors(3)).Parse(context.Background(), normalize.Normalize(input))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	defer outcome.Close()

	if len(outcome.Diagnostics) == 0 || len(outcome.Diagnostics) > 3 {
		t.Errorf("len(Diagnostics) = %d, want 1..3", len(outcome.Diagnostics))
	}
}

func TestTypeScriptParser_Parse_Concurrent(t *testing.T) {
	parser := NewTypeScriptParser()
	inputs := []string{"5", "{{{", "interface A { b: string }", "type X = ;"}

	var wg sync.WaitGroup
	errs := make(chan string, 64)
	for i := 0; i < 16; i++ {
		for _, input := range inputs {
			wg.Add(1)
			go func(input string) {
				defer wg.Done()
				outcome, err := parser.Parse(context.Background(), normalize.Normalize(input))
				if err != nil {
					errs <- err.Error()
					return
				}
				defer outcome.Close()
				wantClean := input == "5" || strings.HasPrefix(input, "interface")
				if outcome.Clean() != wantClean {
					errs <- input
				}
			}(input)
		}
	}
	wg.Wait()
	close(errs)

	for e := range errs {
		t.Errorf("concurrent parse mismatch: %s", e)
	}
}

func TestParseOutcome_CloseIdempotent(t *testing.T) {
	outcome, err := NewTypeScriptParser().Parse(context.Background(), normalize.Normalize("5"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	outcome.Close()
	outcome.Close()

	var nilOutcome *ParseOutcome
	nilOutcome.Close()
	if nilOutcome.Root() != nil {
		t.Error("nil outcome Root() != nil")
	}
}

func TestEngineError(t *testing.T) {
	tests := []struct {
		err  *EngineError
		want string
	}{
		{&EngineError{Step: StepTree, InputLen: 12}, "tree-sitter tree step failed on 12 bytes"},
		{&EngineError{Step: StepParse, InputLen: 3, TimedOut: true, Cause: errors.New("limit")}, "tree-sitter parse step failed on 3 bytes (timed out): limit"},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
		if !IsParseFailed(tt.err) {
			t.Errorf("IsParseFailed(%v) = false, want true", tt.err)
		}
	}

	cause := errors.New("limit")
	if !errors.Is(&EngineError{Step: StepParse, Cause: cause}, cause) {
		t.Error("EngineError should unwrap to its cause")
	}
	if IsParseFailed(ErrFileTooLarge) {
		t.Error("IsParseFailed(ErrFileTooLarge) = true, want false")
	}
}

func TestDiagnostic_String(t *testing.T) {
	d := Diagnostic{Line: 2, Column: 5, Message: `Unexpected token "{"`}
	if got, want := d.String(), `Unexpected token "{" at 2:5`; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
