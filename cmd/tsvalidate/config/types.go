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
	"time"

	"github.com/AleutianAI/tsvalidator/services/tsvalidator/telemetry"
	"github.com/AleutianAI/tsvalidator/services/tsvalidator/validate"
)

// Config is the tsvalidate.yaml file.
type Config struct {
	Server    ServerConfig     `yaml:"server"`
	Validator validate.Config  `yaml:"validator"`
	Logging   LoggingConfig    `yaml:"logging"`
	Telemetry telemetry.Config `yaml:"telemetry"`
	Cache     CacheConfig      `yaml:"cache"`
}

// ServerConfig configures `tsvalidate serve`.
type ServerConfig struct {
	// Addr is the listen address, host:port.
	Addr string `yaml:"addr" validate:"required,hostname_port"`

	// RateLimit is requests per second across all clients. 0 disables it.
	RateLimit float64 `yaml:"rate_limit" validate:"gte=0"`

	// Burst is the token bucket size for RateLimit.
	Burst int `yaml:"burst" validate:"gte=0"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" validate:"gte=0"`
}

// LoggingConfig configures the process logger.
type LoggingConfig struct {
	Level  string `yaml:"level" validate:"omitempty,oneof=debug info warn warning error"`
	JSON   bool   `yaml:"json"`
	LogDir string `yaml:"log_dir"`
}

// CacheConfig configures the on-disk result cache.
type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	Dir     string        `yaml:"dir" validate:"required_if=Enabled true"`
	TTL     time.Duration `yaml:"ttl" validate:"gte=0"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Addr:            "127.0.0.1:8089",
			RateLimit:       50,
			Burst:           100,
			ShutdownTimeout: 10 * time.Second,
		},
		Validator: validate.DefaultConfig(),
		Logging:   LoggingConfig{Level: "info"},
		Telemetry: telemetry.DefaultConfig(),
		Cache: CacheConfig{
			Dir: "~/.tsvalidator/cache",
			TTL: 7 * 24 * time.Hour,
		},
	}
}
