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
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/tsvalidator/services/tsvalidator/validate"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupTestRouter(cfg RouterConfig) *gin.Engine {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewHandlers(validate.New(validate.WithLogger(logger)), logger)
	return NewRouter(h, cfg)
}

func postJSON(t *testing.T, router http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHandlers_HandleHealth(t *testing.T) {
	router := setupTestRouter(RouterConfig{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/tsvalidate/health", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	var resp HealthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if resp.Status != "healthy" || resp.Version != ServiceVersion || resp.Language != "typescript" {
		t.Errorf("unexpected health response: %+v", resp)
	}
}

func TestHandlers_HandleValidate(t *testing.T) {
	router := setupTestRouter(RouterConfig{})

	tests := []struct {
		name       string
		source     string
		accepted   bool
		kind       validate.Kind
		errPrefix  string
		wantSource string
	}{
		{"type expression", "string | number", true, validate.KindAccepted, "", "string | number"},
		{"declaration", "interface A { b: string }", true, validate.KindAccepted, "", "interface A { b: string }"},
		{"unresolved name is an artifact", "Missing<string>", true, validate.KindAccepted, "", "Missing<string>"},
		{"syntax error", "{{{", false, validate.KindSyntaxError, validate.SyntaxErrorLabel, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postJSON(t, router, "/v1/tsvalidate/validate", ValidateRequest{Source: tt.source})
			if w.Code != http.StatusOK {
				t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
			}

			var resp ValidateResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("failed to unmarshal response: %v", err)
			}
			if resp.Accepted != tt.accepted || resp.Kind != tt.kind {
				t.Errorf("got accepted=%v kind=%s error=%q", resp.Accepted, resp.Kind, resp.Error)
			}
			if resp.Source != tt.wantSource {
				t.Errorf("source = %q, want %q", resp.Source, tt.wantSource)
			}
			if tt.errPrefix != "" && !strings.HasPrefix(resp.Error, tt.errPrefix) {
				t.Errorf("error = %q, want prefix %q", resp.Error, tt.errPrefix)
			}
			if resp.RequestID == "" {
				t.Error("expected a generated request ID")
			}
		})
	}
}

func TestHandlers_HandleValidate_EchoesRequestID(t *testing.T) {
	router := setupTestRouter(RouterConfig{})

	req := httptest.NewRequest(http.MethodPost, "/v1/tsvalidate/validate", strings.NewReader(`{"source":"number"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", "req-42")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if got := w.Header().Get("X-Request-ID"); got != "req-42" {
		t.Errorf("X-Request-ID header = %q, want req-42", got)
	}
	var resp ValidateResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if resp.RequestID != "req-42" {
		t.Errorf("request_id = %q, want req-42", resp.RequestID)
	}
}

func TestHandlers_HandleValidate_BadRequests(t *testing.T) {
	router := setupTestRouter(RouterConfig{})

	tests := []struct {
		name string
		body string
		code string
	}{
		{"malformed json", `{"source":`, "INVALID_REQUEST"},
		{"wrong type", `{"source":42}`, "INVALID_REQUEST"},
		{"too large", `{"source":"` + strings.Repeat("a", MaxSnippetBytes+1) + `"}`, "SNIPPET_TOO_LARGE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/v1/tsvalidate/validate", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected status 400, got %d", w.Code)
			}
			var resp ErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("failed to unmarshal response: %v", err)
			}
			if resp.Code != tt.code {
				t.Errorf("code = %q, want %q", resp.Code, tt.code)
			}
		})
	}
}

func TestHandlers_HandleBatch(t *testing.T) {
	router := setupTestRouter(RouterConfig{})

	sources := []string{"5", "{{{", "type A = { a: string }", "string[]"}
	w := postJSON(t, router, "/v1/tsvalidate/batch", BatchRequest{Sources: sources, Concurrency: 2})
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp BatchResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if len(resp.Results) != len(sources) {
		t.Fatalf("got %d results, want %d", len(resp.Results), len(sources))
	}
	want := []bool{true, false, true, true}
	for i, r := range resp.Results {
		if r.Accepted != want[i] {
			t.Errorf("results[%d].Accepted = %v, want %v (%q)", i, r.Accepted, want[i], r.Error)
		}
	}
	if resp.Accepted != 3 || resp.Rejected != 1 {
		t.Errorf("accepted=%d rejected=%d, want 3 and 1", resp.Accepted, resp.Rejected)
	}
}

func TestHandlers_HandleBatch_Invalid(t *testing.T) {
	router := setupTestRouter(RouterConfig{})

	tests := []struct {
		name string
		req  BatchRequest
	}{
		{"empty", BatchRequest{}},
		{"too many", BatchRequest{Sources: make([]string, MaxBatchSnippets+1)}},
		{"negative concurrency", BatchRequest{Sources: []string{"1"}, Concurrency: -1}},
		{"concurrency too high", BatchRequest{Sources: []string{"1"}, Concurrency: MaxBatchConcurrency + 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postJSON(t, router, "/v1/tsvalidate/batch", tt.req)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected status 400, got %d", w.Code)
			}
			var resp ErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("failed to unmarshal response: %v", err)
			}
			if resp.Code != "INVALID_BATCH" {
				t.Errorf("code = %q, want INVALID_BATCH", resp.Code)
			}
		})
	}
}

func TestRateLimit(t *testing.T) {
	router := setupTestRouter(RouterConfig{RateLimit: 0.001, Burst: 2})

	var codes []int
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/tsvalidate/health", nil))
		codes = append(codes, w.Code)
	}

	if codes[0] != http.StatusOK || codes[1] != http.StatusOK {
		t.Errorf("first requests within burst should pass: %v", codes)
	}
	if codes[2] != http.StatusTooManyRequests {
		t.Errorf("third request should be limited, got %d", codes[2])
	}
}

func TestMetrics_DisabledByDefault(t *testing.T) {
	router := setupTestRouter(RouterConfig{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if w.Code != http.StatusNotFound {
		t.Errorf("expected status 404 without prometheus exporter, got %d", w.Code)
	}
}
