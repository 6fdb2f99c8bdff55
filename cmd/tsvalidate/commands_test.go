// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/tsvalidator/services/tsvalidator/validate"
)

type cliRun struct {
	stdout string
	stderr string
	err    error
}

// runCLI executes the root command with a quiet temp config.
func runCLI(t *testing.T, stdin string, args ...string) cliRun {
	t.Helper()
	return runCLIConfig(t, "logging:\n  level: error\n", stdin, args...)
}

func runCLIConfig(t *testing.T, cfgYAML, stdin string, args ...string) cliRun {
	t.Helper()
	cfgPath := filepath.Join(t.TempDir(), "tsvalidate.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfgYAML), 0o600))

	var stdout, stderr bytes.Buffer
	root := newRootCmd()
	root.SetArgs(append([]string{"--config", cfgPath}, args...))
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&stdout)
	root.SetErr(&stderr)

	err := root.Execute()
	return cliRun{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

func writeSnippet(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestCheck_Stdin(t *testing.T) {
	run := runCLI(t, "string | number", "check")
	require.NoError(t, run.err)
	assert.Equal(t, "OK\t<stdin>\n", run.stdout)
}

func TestCheck_SyntaxErrorExitsOne(t *testing.T) {
	run := runCLI(t, "", "check", "-s", "{{{")
	require.Error(t, run.err)
	assert.Equal(t, ExitRejected, exitCode(run.err))
	assert.True(t, isSilent(run.err))
	assert.Contains(t, run.stdout, "FAIL\t<source>\t"+validate.SyntaxErrorLabel)
}

func TestCheck_File(t *testing.T) {
	path := writeSnippet(t, t.TempDir(), "a.ts", "interface Point { x: number; y: number }")
	run := runCLI(t, "", "check", path)
	require.NoError(t, run.err)
	assert.Equal(t, "OK\t"+path+"\n", run.stdout)
}

func TestCheck_EchoReturnsOriginal(t *testing.T) {
	src := "Record<string, Missing>"
	run := runCLI(t, "", "check", "--echo", "-s", src)
	require.NoError(t, run.err)
	assert.Equal(t, src, run.stdout)
}

func TestCheck_EchoRejectedWritesStderr(t *testing.T) {
	run := runCLI(t, "", "check", "--echo", "-s", "export let a = 1;\nlet a = 2;")
	require.Error(t, run.err)
	assert.Empty(t, run.stdout)
	assert.Contains(t, run.stderr, "Identifier `a` has already been declared")
}

func TestCheck_JSON(t *testing.T) {
	run := runCLI(t, "", "check", "--json", "-s", "type X = ;")
	require.Error(t, run.err)

	var got fileResult
	require.NoError(t, json.Unmarshal([]byte(run.stdout), &got))
	assert.Equal(t, "<source>", got.File)
	assert.False(t, got.Accepted)
	assert.Equal(t, validate.KindSyntaxError, got.Kind)
	assert.True(t, strings.HasPrefix(got.Error, validate.SyntaxErrorLabel))
}

func TestCheck_NoSemantic(t *testing.T) {
	run := runCLI(t, "", "check", "--no-semantic", "-s", "export let a = 1;\nlet a = 2;")
	require.NoError(t, run.err)
}

func TestCheck_UsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"missing file", []string{"check", filepath.Join(t.TempDir(), "nope.ts")}},
		{"source and file", []string{"check", "-s", "1", "a.ts"}},
		{"echo and json", []string{"check", "--echo", "--json", "-s", "1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			run := runCLI(t, "", tt.args...)
			require.Error(t, run.err)
			assert.Equal(t, ExitUsage, exitCode(run.err))
		})
	}
}

func TestBatch(t *testing.T) {
	dir := t.TempDir()
	files := []string{
		writeSnippet(t, dir, "a.ts", "string[]"),
		writeSnippet(t, dir, "b.ts", "{{{"),
		writeSnippet(t, dir, "c.ts", "export const y = 1;\nimport { x } from './x';"),
	}

	run := runCLI(t, "", append([]string{"batch", "-c", "2"}, files...)...)
	require.Error(t, run.err)
	assert.Equal(t, ExitRejected, exitCode(run.err))

	lines := strings.Split(strings.TrimSpace(run.stdout), "\n")
	require.Len(t, lines, 4, run.stdout)
	assert.True(t, strings.HasPrefix(lines[0], "OK\t"+files[0]))
	assert.True(t, strings.HasPrefix(lines[1], "FAIL\t"+files[1]))
	assert.True(t, strings.HasPrefix(lines[2], "OK\t"+files[2]))
	assert.Equal(t, "SUMMARY: accepted=2 rejected=1 total=3", lines[3])
}

func TestBatch_JSONAllAccepted(t *testing.T) {
	dir := t.TempDir()
	files := []string{
		writeSnippet(t, dir, "a.ts", "number"),
		writeSnippet(t, dir, "b.ts", "export enum E { A, B }"),
	}

	run := runCLI(t, "", append([]string{"batch", "--json"}, files...)...)
	require.NoError(t, run.err)

	var got []fileResult
	require.NoError(t, json.Unmarshal([]byte(run.stdout), &got))
	require.Len(t, got, 2)
	for i, r := range got {
		assert.Equal(t, files[i], r.File)
		assert.True(t, r.Accepted)
	}
}

func TestBatch_BadConcurrency(t *testing.T) {
	path := writeSnippet(t, t.TempDir(), "a.ts", "number")
	run := runCLI(t, "", "batch", "-c", "0", path)
	assert.Equal(t, ExitUsage, exitCode(run.err))
}

func TestConfigShowAndInit(t *testing.T) {
	run := runCLI(t, "", "config", "show")
	require.NoError(t, run.err)
	assert.Contains(t, run.stdout, "level: error")
	assert.Contains(t, run.stdout, "semantic_check: true")

	path := filepath.Join(t.TempDir(), "new", "tsvalidate.yaml")
	run = runCLI(t, "", "config", "init", path)
	require.NoError(t, run.err)
	_, err := os.Stat(path)
	assert.NoError(t, err)

	run = runCLI(t, "", "config", "init", path)
	assert.Equal(t, ExitUsage, exitCode(run.err))
}

func TestCache_StatsAndPurge(t *testing.T) {
	cfgYAML := "logging:\n  level: error\ncache:\n  enabled: true\n  dir: " + filepath.Join(t.TempDir(), "cache") + "\n"

	require.NoError(t, runCLIConfig(t, cfgYAML, "", "check", "-s", "string").err)
	require.Error(t, runCLIConfig(t, cfgYAML, "", "check", "-s", "{{{").err)

	run := runCLIConfig(t, cfgYAML, "", "cache", "stats")
	require.NoError(t, run.err)
	assert.Contains(t, run.stdout, "2 entries")

	require.NoError(t, runCLIConfig(t, cfgYAML, "", "cache", "purge").err)
	run = runCLIConfig(t, cfgYAML, "", "cache", "stats")
	require.NoError(t, run.err)
	assert.Contains(t, run.stdout, "0 entries")
}

func TestInvalidConfigIsUsageError(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("validator:\n  max_errors: 0\n"), 0o600))

	root := newRootCmd()
	root.SetArgs([]string{"--config", cfgPath, "check", "-s", "1"})
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	err := root.Execute()
	assert.Equal(t, ExitUsage, exitCode(err))
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, ExitAccepted, exitCode(nil))
	assert.Equal(t, ExitRejected, exitCode(errRejected))
	assert.Equal(t, ExitUsage, exitCode(errors.New("boom")))
	assert.Equal(t, ExitUsage, exitCode(usageError(errors.New("bad flag"))))
	assert.False(t, isSilent(usageError(errors.New("bad flag"))))
}
