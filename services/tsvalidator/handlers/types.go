// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package handlers

import (
	"github.com/go-playground/validator/v10"

	"github.com/AleutianAI/tsvalidator/services/tsvalidator/validate"
)

const (
	// MaxSnippetBytes bounds a single snippet in a request body.
	MaxSnippetBytes = 1 << 20

	// MaxBatchSnippets bounds the number of snippets in a batch request.
	MaxBatchSnippets = 256

	// MaxBatchConcurrency bounds the per-request worker count.
	MaxBatchConcurrency = 64
)

// requestValidate checks request bodies after binding.
var requestValidate *validator.Validate

func init() {
	requestValidate = validator.New()
	_ = requestValidate.RegisterValidation("maxbytes", validateMaxBytes)
}

// validateMaxBytes checks byte length, not rune count.
func validateMaxBytes(fl validator.FieldLevel) bool {
	return len(fl.Field().String()) <= MaxSnippetBytes
}

// ValidateRequest is the body of POST /v1/tsvalidate/validate.
//
// Source may be empty; the empty snippet is validated like any other.
type ValidateRequest struct {
	Source string `json:"source" validate:"maxbytes"`
}

// Validate checks field constraints.
func (r *ValidateRequest) Validate() error {
	return requestValidate.Struct(r)
}

// BatchRequest is the body of POST /v1/tsvalidate/batch.
type BatchRequest struct {
	Sources     []string `json:"sources" validate:"required,min=1,max=256,dive,maxbytes"`
	Concurrency int      `json:"concurrency,omitempty" validate:"gte=0,lte=64"`
}

// Validate checks field constraints.
func (r *BatchRequest) Validate() error {
	return requestValidate.Struct(r)
}

// ValidateResponse wraps a single result with the request ID.
type ValidateResponse struct {
	RequestID string `json:"request_id"`
	validate.Result
}

// BatchResponse holds results in request order.
type BatchResponse struct {
	RequestID string            `json:"request_id"`
	Results   []validate.Result `json:"results"`
	Accepted  int               `json:"accepted"`
	Rejected  int               `json:"rejected"`
}

// HealthResponse is returned by GET /v1/tsvalidate/health.
type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	Language string `json:"language"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	// Error is the error message.
	Error string `json:"error"`

	// Code is the error code (optional).
	Code string `json:"code,omitempty"`

	// Details provides additional error context (optional).
	Details string `json:"details,omitempty"`
}
