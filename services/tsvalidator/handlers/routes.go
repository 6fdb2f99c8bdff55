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
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/AleutianAI/tsvalidator/services/tsvalidator/telemetry"
)

// RegisterRoutes registers the /v1/tsvalidate endpoints on rg.
//
// Endpoints:
//
//	POST /v1/tsvalidate/validate - Validate one snippet
//	POST /v1/tsvalidate/batch    - Validate many snippets, results in order
//	GET  /v1/tsvalidate/health   - Liveness and version
//	GET  /v1/tsvalidate/stream   - Websocket, one result per snippet frame
func RegisterRoutes(rg *gin.RouterGroup, h *Handlers) {
	ts := rg.Group("/tsvalidate")
	ts.POST("/validate", h.HandleValidate)
	ts.POST("/batch", h.HandleBatch)
	ts.GET("/health", h.HandleHealth)
	ts.GET("/stream", h.HandleStream)
}

// RouterConfig configures NewRouter.
type RouterConfig struct {
	// ServiceName names the server spans.
	ServiceName string

	// RateLimit is the sustained request rate per second. Zero disables
	// rate limiting.
	RateLimit float64

	// Burst is the number of requests allowed above RateLimit at once.
	Burst int
}

// NewRouter builds a gin engine with recovery, tracing, optional rate
// limiting, the validation routes, and GET /metrics.
func NewRouter(h *Handlers, cfg RouterConfig) *gin.Engine {
	if cfg.ServiceName == "" {
		cfg.ServiceName = "tsvalidator"
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(cfg.ServiceName))
	if cfg.RateLimit > 0 {
		router.Use(RateLimit(cfg.RateLimit, cfg.Burst))
	}

	RegisterRoutes(router.Group("/v1"), h)
	router.GET("/metrics", handleMetrics)
	return router
}

// handleMetrics serves Prometheus metrics when that exporter is active.
func handleMetrics(c *gin.Context) {
	handler := telemetry.MetricsHandler()
	if handler == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error: "Metrics exporter is not enabled",
			Code:  "METRICS_DISABLED",
		})
		return
	}
	handler.ServeHTTP(c.Writer, c.Request)
}
