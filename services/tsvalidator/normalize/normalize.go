// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package normalize decides how a TypeScript snippet is fed to the parser.
//
// A snippet is either a complete top-level declaration, which is parsed as-is,
// or a bare type expression, which is wrapped in a synthetic type alias so the
// statement-oriented parser can accept it.
//
// Thread Safety: All functions are pure and safe for concurrent use.
package normalize

import (
	"strings"
	"unicode"
)

// WrapperAlias is the reserved alias name bound to bare type expressions.
const WrapperAlias = "__ValidationType"

// wrapperPrefix is everything the wrapper places before the input.
const wrapperPrefix = "type " + WrapperAlias + " = "

// wrapperSuffix terminates the synthetic alias declaration.
const wrapperSuffix = ";"

// DeclarationPrefixes are the leading keywords that mark a snippet as an
// already complete declaration. Matching is a plain prefix check on the
// snippet with leading whitespace removed.
//
// "export" deliberately carries no trailing space so that "export{...}" and
// "export default" both match.
var DeclarationPrefixes = []string{
	"export",
	"type ",
	"interface ",
	"declare ",
}

// Source is the text actually handed to the structural parser.
type Source struct {
	// Original is the request text exactly as received.
	Original string

	// Text is the parser input. Equal to Original unless Wrapped is true.
	Text string

	// Wrapped reports whether Text is Original inside the synthetic alias.
	Wrapped bool
}

// IsDeclaration reports whether text already looks like a top-level
// declaration. It does not parse the text; a wrong guess surfaces later as
// a syntax error.
func IsDeclaration(text string) bool {
	trimmed := strings.TrimLeftFunc(text, unicode.IsSpace)
	for _, prefix := range DeclarationPrefixes {
		if strings.HasPrefix(trimmed, prefix) {
			return true
		}
	}
	return false
}

// Wrap binds text to WrapperAlias as `type __ValidationType = <text>;`.
func Wrap(text string) string {
	return wrapperPrefix + text + wrapperSuffix
}

// Normalize classifies text and returns the parser input for it.
//
// Example:
//
//	src := normalize.Normalize("5")
//	// src.Text == "type __ValidationType = 5;"
//	// src.Original == "5"
func Normalize(text string) Source {
	if IsDeclaration(text) {
		return Source{Original: text, Text: text}
	}
	return Source{Original: text, Text: Wrap(text), Wrapped: true}
}

// PrefixLen returns the number of bytes the wrapper inserted before the
// original text, or 0 when the source was passed through.
func (s Source) PrefixLen() int {
	if !s.Wrapped {
		return 0
	}
	return len(wrapperPrefix)
}

// Position maps a 0-indexed row and byte column in Text back to a 1-indexed
// line and column in Original.
//
// Positions that fall inside the synthetic prefix clamp to column 1 of the
// first line, and positions inside the synthetic suffix clamp to the end of
// the last line. Only the first row is shifted because the wrapper never
// adds line breaks.
func (s Source) Position(row, column int) (line, col int) {
	if row < 0 {
		row = 0
	}
	if column < 0 {
		column = 0
	}
	if s.Wrapped {
		if row == 0 {
			column -= s.PrefixLen()
			if column < 0 {
				column = 0
			}
		}
		lines := strings.Split(s.Original, "\n")
		if row >= len(lines) {
			row = len(lines) - 1
		}
		if width := len(lines[row]); column > width {
			column = width
		}
	}
	return row + 1, column + 1
}

// IsSynthetic reports whether the byte range [start, end) of Text lies
// entirely inside wrapper-inserted text.
func (s Source) IsSynthetic(start, end int) bool {
	if !s.Wrapped {
		return false
	}
	prefix := s.PrefixLen()
	if end <= prefix {
		return true
	}
	suffixStart := prefix + len(s.Original)
	return start >= suffixStart
}
