// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package filter separates genuine semantic diagnostics from the noise that
// comes from checking a snippet outside of its project.
package filter

import "strings"

// Artifact is a named predicate over diagnostic text.
type Artifact struct {
	// Name identifies the pattern in logs.
	Name string

	// Substring marks a message as an artifact when present. Matching is
	// case-sensitive.
	Substring string
}

// Matches reports whether msg is an instance of the artifact.
func (a Artifact) Matches(msg string) bool {
	return strings.Contains(msg, a.Substring)
}

// ContextArtifacts are the diagnostics an isolated snippet always produces.
// Additions here widen what is silently accepted.
var ContextArtifacts = []Artifact{
	{Name: "unresolved-reference", Substring: "Cannot find"},
	{Name: "module-resolution", Substring: "module"},
}

// Explain returns the name of the first artifact msg matches.
func Explain(msg string) (string, bool) {
	for _, a := range ContextArtifacts {
		if a.Matches(msg) {
			return a.Name, true
		}
	}
	return "", false
}

// IsArtifact reports whether msg matches any context artifact.
func IsArtifact(msg string) bool {
	_, ok := Explain(msg)
	return ok
}

// Genuine returns the messages that are not context artifacts, in order.
// The input is not modified.
func Genuine(msgs []string) []string {
	var kept []string
	for _, msg := range msgs {
		if !IsArtifact(msg) {
			kept = append(kept, msg)
		}
	}
	return kept
}
