// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDefaultConfig_IsValid(t *testing.T) {
	require.NoError(t, Validate(DefaultConfig()))
}

func TestParse_OverlaysDefaults(t *testing.T) {
	data := []byte(`
server:
  addr: "0.0.0.0:9000"
  shutdown_timeout: 3s
validator:
  max_input_size: 65536
  parse_timeout: 250ms
logging:
  level: debug
`)
	cfg, err := Parse(data)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9000", cfg.Server.Addr)
	assert.Equal(t, 3*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, int64(65536), cfg.Validator.MaxInputSize)
	assert.Equal(t, 250*time.Millisecond, cfg.Validator.ParseTimeout)
	assert.Equal(t, "debug", cfg.Logging.Level)

	// Untouched fields keep defaults.
	def := DefaultConfig()
	assert.Equal(t, def.Server.RateLimit, cfg.Server.RateLimit)
	assert.Equal(t, def.Validator.MaxErrors, cfg.Validator.MaxErrors)
	assert.True(t, cfg.Validator.SemanticCheck)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"bad yaml", "server: [unterminated"},
		{"bad addr", "server:\n  addr: not-an-address\n"},
		{"negative size", "validator:\n  max_input_size: -1\n"},
		{"zero max errors", "validator:\n  max_errors: 0\n"},
		{"unknown level", "logging:\n  level: loud\n"},
		{"unknown exporter", "telemetry:\n  trace_exporter: zipkin\n"},
		{"sample rate", "telemetry:\n  sample_rate: 2\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoad_ExplicitPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tsvalidate.yaml")
	require.NoError(t, os.WriteFile(path, []byte("validator:\n  semantic_check: false\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.False(t, cfg.Validator.SemanticCheck)
}

func TestLoad_ExplicitPathMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoad_EnvPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "env.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  burst: 7\n"), 0o600))
	t.Setenv(EnvConfigPath, path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Server.Burst)
}

func TestLoad_EnvOverridesTelemetry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tsvalidate.yaml")
	require.NoError(t, os.WriteFile(path, []byte("telemetry:\n  trace_exporter: none\n"), 0o600))
	t.Setenv("OTEL_TRACES_EXPORTER", "stdout")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "stdout", cfg.Telemetry.TraceExporter)
}

func TestLoad_EnvOverrideIsValidated(t *testing.T) {
	t.Setenv(EnvConfigPath, "")
	t.Setenv("HOME", t.TempDir())
	t.Setenv("OTEL_METRICS_EXPORTER", "graphite")

	_, err := Load("")
	assert.Error(t, err)
}

func TestLoad_NoFileUsesDefaults(t *testing.T) {
	t.Setenv(EnvConfigPath, "")
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Server.Addr, cfg.Server.Addr)
}

func TestWriteDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deep", "nested", "tsvalidate.yaml")
	require.NoError(t, WriteDefault(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var cfg Config
	require.NoError(t, yaml.Unmarshal(data, &cfg))
	assert.Equal(t, DefaultConfig().Server, cfg.Server)
	assert.Equal(t, DefaultConfig().Validator, cfg.Validator)

	assert.Error(t, WriteDefault(path), "second write must not overwrite")
}
