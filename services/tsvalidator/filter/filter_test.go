// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package filter

import (
	"reflect"
	"strings"
	"testing"
)

func TestExplain(t *testing.T) {
	tests := []struct {
		msg      string
		wantName string
		wantOK   bool
	}{
		{"Cannot find name 'Foo'. at 1:1", "unresolved-reference", true},
		{"Cannot find module './x' or its corresponding type declarations.", "unresolved-reference", true},
		{"Relative module path not allowed", "module-resolution", true},
		{"submodule import", "module-resolution", true},
		{"Identifier `a` has already been declared", "", false},
		{"Module resolution failed", "", false},
		{"cannot find name 'x'", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		name, ok := Explain(tt.msg)
		if name != tt.wantName || ok != tt.wantOK {
			t.Errorf("Explain(%q) = (%q, %v), want (%q, %v)", tt.msg, name, ok, tt.wantName, tt.wantOK)
		}
	}
}

func TestGenuine(t *testing.T) {
	msgs := []string{
		"Identifier `a` has already been declared at 2:5",
		"Cannot find name 'Foo'. at 1:1",
		"Illegal break statement at 3:1",
		"import of module 'x' failed",
	}
	want := []string{
		"Identifier `a` has already been declared at 2:5",
		"Illegal break statement at 3:1",
	}

	got := Genuine(msgs)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Genuine() = %v, want %v", got, want)
	}
	if len(msgs) != 4 {
		t.Errorf("Genuine() modified input, len = %d", len(msgs))
	}
}

func TestGenuine_AllArtifacts(t *testing.T) {
	got := Genuine([]string{"Cannot find name 'A'.", "module not found"})
	if len(got) != 0 {
		t.Errorf("Genuine() = %v, want empty", got)
	}
	if got := Genuine(nil); len(got) != 0 {
		t.Errorf("Genuine(nil) = %v, want empty", got)
	}
}

func TestGenuine_NeverKeepsArtifactSubstrings(t *testing.T) {
	inputs := []string{
		"x module y", "Cannot find", "modules", "ok", "Cannot find module", "fine; Cannot find z",
	}
	for _, msg := range Genuine(inputs) {
		if strings.Contains(msg, "Cannot find") || strings.Contains(msg, "module") {
			t.Errorf("Genuine() kept artifact %q", msg)
		}
	}
}
