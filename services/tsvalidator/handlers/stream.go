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
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/AleutianAI/tsvalidator/services/tsvalidator/telemetry"
	"github.com/AleutianAI/tsvalidator/services/tsvalidator/validate"
)

const (
	// streamFrameOverhead leaves room for the JSON envelope around a
	// snippet of MaxSnippetBytes.
	streamFrameOverhead = 64 << 10

	streamWriteTimeout = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  64 << 10,
	WriteBufferSize: 64 << 10,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// StreamRequest is one client frame on the stream endpoint.
type StreamRequest struct {
	// ID is echoed on the matching response so clients can pipeline.
	ID     string `json:"id,omitempty"`
	Source string `json:"source" validate:"maxbytes"`
}

// StreamResponse answers one StreamRequest. Result is set unless the
// frame itself was malformed, in which case Code and Error are set.
type StreamResponse struct {
	ID     string           `json:"id,omitempty"`
	Result *validate.Result `json:"result,omitempty"`
	Code   string           `json:"code,omitempty"`
	Error  string           `json:"error,omitempty"`
}

// StreamHello is the first frame the server sends after the upgrade.
type StreamHello struct {
	Action    string `json:"action"`
	SessionID string `json:"session_id"`
	Language  string `json:"language"`
}

// HandleStream handles GET /v1/tsvalidate/stream.
//
// After the upgrade the server sends a StreamHello, then answers every
// StreamRequest frame with one StreamResponse, in order. A malformed frame
// gets an error response and the session continues.
func (h *Handlers) HandleStream(c *gin.Context) {
	ctx := c.Request.Context()
	sessionID := uuid.NewString()
	logger := telemetry.LoggerWithTrace(ctx, h.logger).With("session_id", sessionID, "handler", "HandleStream")

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn("Websocket upgrade failed", "error", err)
		return
	}
	defer ws.Close()
	ws.SetReadLimit(MaxSnippetBytes + streamFrameOverhead)

	send := func(v any) bool {
		_ = ws.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
		if err := ws.WriteJSON(v); err != nil {
			logger.Warn("Failed to write websocket frame", "error", err)
			return false
		}
		return true
	}

	if !send(StreamHello{Action: "session_created", SessionID: sessionID, Language: h.validator.Language()}) {
		return
	}
	logger.Info("Stream session started")

	frames := 0
	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Warn("Stream closed unexpectedly", "error", err, "frames", frames)
			} else {
				logger.Info("Stream session ended", "frames", frames)
			}
			return
		}
		frames++

		var req StreamRequest
		if err := json.Unmarshal(data, &req); err != nil {
			if !send(StreamResponse{Code: "INVALID_REQUEST", Error: "Invalid frame"}) {
				return
			}
			continue
		}
		if err := requestValidate.Struct(&req); err != nil {
			if !send(StreamResponse{ID: req.ID, Code: "SNIPPET_TOO_LARGE", Error: err.Error()}) {
				return
			}
			continue
		}

		result := h.validator.Validate(ctx, req.Source)
		logger.Debug("Stream snippet validated", "id", req.ID, "kind", string(result.Kind))
		if !send(StreamResponse{ID: req.ID, Result: &result}) {
			return
		}
	}
}
