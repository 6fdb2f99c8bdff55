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
	"time"

	"github.com/AleutianAI/tsvalidator/services/tsvalidator/ast"
	"github.com/AleutianAI/tsvalidator/services/tsvalidator/sema"
)

// Config is the file form of the Validator options.
type Config struct {
	// MaxInputSize is the largest accepted snippet in bytes. 0 = unlimited.
	MaxInputSize int64 `yaml:"max_input_size" validate:"gte=0"`

	// ParseTimeout bounds the structural parse. 0 = unbounded.
	ParseTimeout time.Duration `yaml:"parse_timeout" validate:"gte=0"`

	// MaxErrors caps syntax diagnostics per rejection.
	MaxErrors int `yaml:"max_errors" validate:"gte=1,lte=1000"`

	// MaxDepth is the semantic walk nesting limit.
	MaxDepth int `yaml:"max_depth" validate:"gte=1"`

	// SemanticCheck enables the semantic pass.
	SemanticCheck bool `yaml:"semantic_check"`
}

// DefaultConfig returns the library defaults.
func DefaultConfig() Config {
	return Config{
		MaxErrors:     ast.DefaultMaxErrors,
		MaxDepth:      sema.DefaultMaxDepth,
		SemanticCheck: true,
	}
}

// Options converts the config into Validator options.
func (c Config) Options() []Option {
	return []Option{
		WithMaxInputSize(c.MaxInputSize),
		WithParseTimeout(c.ParseTimeout),
		WithMaxErrors(c.MaxErrors),
		WithMaxDepth(c.MaxDepth),
		WithSemanticCheck(c.SemanticCheck),
	}
}

// NewFromConfig creates a Validator from cfg. Extra options apply last.
func NewFromConfig(cfg Config, opts ...Option) *Validator {
	return New(append(cfg.Options(), opts...)...)
}
