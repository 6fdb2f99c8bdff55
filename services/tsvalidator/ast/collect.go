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
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/AleutianAI/tsvalidator/services/tsvalidator/normalize"
)

// DefaultMaxErrors caps the diagnostics collected from one parse.
const DefaultMaxErrors = 50

// maxCollectDepth prevents stack overflow on deeply nested trees.
const maxCollectDepth = 1000

// maxContextLen bounds the offending text quoted in a diagnostic.
const maxContextLen = 50

// syntaxCollector walks a tree and gathers ERROR and MISSING nodes.
type syntaxCollector struct {
	src       normalize.Source
	content   []byte
	maxErrors int
	seen      map[string]struct{}
	out       []Diagnostic
}

// collectSyntaxErrors returns the syntax diagnostics under root.
//
// If the root reports an error but no ERROR/MISSING node was reachable
// (depth cap, error budget), a single positionless diagnostic is returned
// so that a broken tree is never mistaken for a clean one.
func collectSyntaxErrors(root *sitter.Node, src normalize.Source, content []byte, maxErrors int) []Diagnostic {
	if maxErrors <= 0 {
		maxErrors = DefaultMaxErrors
	}
	c := &syntaxCollector{
		src:       src,
		content:   content,
		maxErrors: maxErrors,
		seen:      make(map[string]struct{}),
		out:       make([]Diagnostic, 0),
	}
	c.walk(root, 0)

	if len(c.out) == 0 && root.HasError() {
		line, col := src.Position(int(root.StartPoint().Row), int(root.StartPoint().Column))
		c.out = append(c.out, Diagnostic{
			Line:    line,
			Column:  col,
			Message: "Invalid syntax",
			Kind:    DiagnosticUnexpected,
		})
	}
	return c.out
}

func (c *syntaxCollector) walk(node *sitter.Node, depth int) {
	if node == nil || depth > maxCollectDepth || len(c.out) >= c.maxErrors {
		return
	}

	// Subtrees without errors cannot contain ERROR or MISSING nodes.
	if !node.HasError() && !node.IsMissing() {
		return
	}

	if node.IsError() || node.IsMissing() {
		c.add(node)
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		c.walk(node.Child(i), depth+1)
	}
}

func (c *syntaxCollector) add(node *sitter.Node) {
	start := node.StartByte()
	end := node.EndByte()

	// Clamp end to content length
	if end > uint32(len(c.content)) {
		end = uint32(len(c.content))
	}
	if start > end {
		start = end
	}

	point := node.StartPoint()
	line, col := c.src.Position(int(point.Row), int(point.Column))

	var d Diagnostic
	if node.IsMissing() {
		d = Diagnostic{
			Line:       line,
			Column:     col,
			Message:    fmt.Sprintf("Expected %q", node.Type()),
			Kind:       DiagnosticMissing,
			Suggestion: generateSuggestion(node),
		}
	} else {
		msg := "Invalid syntax"
		if c.src.IsSynthetic(int(start), int(end)) {
			msg = "Unexpected end of input"
		} else if text := strings.TrimSpace(c.originalText(start, end)); text != "" {
			msg = fmt.Sprintf("Unexpected token %q", truncate(text, maxContextLen))
		}
		d = Diagnostic{
			Line:    line,
			Column:  col,
			Message: msg,
			Kind:    DiagnosticUnexpected,
		}
	}

	key := d.String()
	if _, dup := c.seen[key]; dup {
		return
	}
	c.seen[key] = struct{}{}
	c.out = append(c.out, d)
}

// originalText returns content[start:end] with any wrapper-inserted bytes cut off.
func (c *syntaxCollector) originalText(start, end uint32) string {
	if c.src.Wrapped {
		lo := uint32(c.src.PrefixLen())
		hi := lo + uint32(len(c.src.Original))
		if start < lo {
			start = lo
		}
		if end > hi {
			end = hi
		}
		if start >= end {
			return ""
		}
	}
	return string(c.content[start:end])
}

// generateSuggestion provides a fix hint for a MISSING node.
func generateSuggestion(node *sitter.Node) string {
	nodeType := node.Type()
	switch nodeType {
	case "}", "]", ")", ">":
		return fmt.Sprintf("Add missing closing '%s'", nodeType)
	case "{", "[", "(", "<":
		return fmt.Sprintf("Add missing opening '%s'", nodeType)
	case ";":
		return "Add missing semicolon"
	case ":":
		return "Add missing colon"
	default:
		return fmt.Sprintf("Add missing '%s'", nodeType)
	}
}

// truncate shortens a string to the given length.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
