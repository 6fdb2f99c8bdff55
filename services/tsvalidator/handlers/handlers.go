// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package handlers exposes the validator over HTTP with gin.
//
// A rejected snippet is a successful request: validation endpoints answer
// 200 with the result body and reserve 4xx for malformed requests.
package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/AleutianAI/tsvalidator/services/tsvalidator/telemetry"
	"github.com/AleutianAI/tsvalidator/services/tsvalidator/validate"
)

// ServiceVersion is reported by the health endpoint.
const ServiceVersion = "0.1.0"

// Handlers serves the /v1/tsvalidate endpoints.
type Handlers struct {
	validator *validate.Validator
	logger    *slog.Logger
}

// NewHandlers creates Handlers around v. A nil logger uses slog.Default().
func NewHandlers(v *validate.Validator, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{validator: v, logger: logger}
}

// HandleValidate handles POST /v1/tsvalidate/validate.
//
// Response:
//
//	200 OK: ValidateResponse, accepted or rejected
//	400 Bad Request: malformed body or snippet too large
func (h *Handlers) HandleValidate(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	ctx := c.Request.Context()
	logger := telemetry.LoggerWithTrace(ctx, h.logger).With("request_id", requestID, "handler", "HandleValidate")

	var req ValidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Invalid request body",
			Code:  "INVALID_REQUEST",
		})
		return
	}
	if err := req.Validate(); err != nil {
		logger.Warn("Request failed validation", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Snippet exceeds size limit",
			Code:    "SNIPPET_TOO_LARGE",
			Details: err.Error(),
		})
		return
	}

	result := h.validator.Validate(ctx, req.Source)
	logger.Info("Snippet validated", "kind", string(result.Kind), "input_len", len(req.Source))

	c.JSON(http.StatusOK, ValidateResponse{RequestID: requestID, Result: result})
}

// HandleBatch handles POST /v1/tsvalidate/batch.
//
// Response:
//
//	200 OK: BatchResponse with results in request order
//	400 Bad Request: malformed body, empty batch, or limits exceeded
func (h *Handlers) HandleBatch(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	ctx := c.Request.Context()
	logger := telemetry.LoggerWithTrace(ctx, h.logger).With("request_id", requestID, "handler", "HandleBatch")

	var req BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Invalid request body",
			Code:  "INVALID_REQUEST",
		})
		return
	}
	if err := req.Validate(); err != nil {
		logger.Warn("Request failed validation", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid batch request",
			Code:    "INVALID_BATCH",
			Details: err.Error(),
		})
		return
	}

	results := h.validator.ValidateBatch(ctx, req.Sources, req.Concurrency)
	resp := BatchResponse{RequestID: requestID, Results: results}
	for _, r := range results {
		if r.Accepted {
			resp.Accepted++
		} else {
			resp.Rejected++
		}
	}

	logger.Info("Batch validated",
		"snippets", len(results),
		"accepted", resp.Accepted,
		"rejected", resp.Rejected)

	c.JSON(http.StatusOK, resp)
}

// HandleHealth handles GET /v1/tsvalidate/health.
func (h *Handlers) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:   "healthy",
		Version:  ServiceVersion,
		Language: h.validator.Language(),
	})
}

// getOrCreateRequestID echoes X-Request-ID or generates one.
func getOrCreateRequestID(c *gin.Context) string {
	requestID := c.GetHeader("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Header("X-Request-ID", requestID)
	return requestID
}
