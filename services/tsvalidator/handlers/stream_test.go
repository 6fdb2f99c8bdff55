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
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/AleutianAI/tsvalidator/services/tsvalidator/validate"
)

func dialStream(t *testing.T) *websocket.Conn {
	t.Helper()
	server := httptest.NewServer(setupTestRouter(RouterConfig{}))
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/v1/tsvalidate/stream"
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	t.Cleanup(func() { ws.Close() })
	_ = ws.SetReadDeadline(time.Now().Add(5 * time.Second))

	var hello StreamHello
	if err := ws.ReadJSON(&hello); err != nil {
		t.Fatalf("read hello: %v", err)
	}
	if hello.Action != "session_created" || hello.SessionID == "" {
		t.Fatalf("unexpected hello: %+v", hello)
	}
	if hello.Language != "typescript" {
		t.Errorf("language = %q, want typescript", hello.Language)
	}
	return ws
}

func TestHandleStream_ValidatesFramesInOrder(t *testing.T) {
	ws := dialStream(t)

	frames := []StreamRequest{
		{ID: "1", Source: "string | number"},
		{ID: "2", Source: "{{{"},
		{ID: "3", Source: "export interface A { b: string }"},
	}
	for _, f := range frames {
		if err := ws.WriteJSON(f); err != nil {
			t.Fatalf("write frame %s: %v", f.ID, err)
		}
	}

	want := []struct {
		accepted bool
		kind     validate.Kind
	}{
		{true, validate.KindAccepted},
		{false, validate.KindSyntaxError},
		{true, validate.KindAccepted},
	}
	for i, w := range want {
		var resp StreamResponse
		if err := ws.ReadJSON(&resp); err != nil {
			t.Fatalf("read response %d: %v", i, err)
		}
		if resp.ID != frames[i].ID {
			t.Errorf("response %d id = %q, want %q", i, resp.ID, frames[i].ID)
		}
		if resp.Result == nil {
			t.Fatalf("response %d has no result: %+v", i, resp)
		}
		if resp.Result.Accepted != w.accepted || resp.Result.Kind != w.kind {
			t.Errorf("response %d: accepted=%v kind=%s error=%q", i, resp.Result.Accepted, resp.Result.Kind, resp.Result.Error)
		}
	}
}

func TestHandleStream_MalformedFrameKeepsSession(t *testing.T) {
	ws := dialStream(t)

	if err := ws.WriteMessage(websocket.TextMessage, []byte("not json")); err != nil {
		t.Fatalf("write: %v", err)
	}
	var bad StreamResponse
	if err := ws.ReadJSON(&bad); err != nil {
		t.Fatalf("read: %v", err)
	}
	if bad.Code != "INVALID_REQUEST" || bad.Result != nil {
		t.Errorf("unexpected response to malformed frame: %+v", bad)
	}

	if err := ws.WriteJSON(StreamRequest{ID: "ok", Source: "boolean"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	var good StreamResponse
	if err := ws.ReadJSON(&good); err != nil {
		t.Fatalf("read: %v", err)
	}
	if good.Result == nil || !good.Result.Accepted {
		t.Errorf("expected accepted result after malformed frame, got %+v", good)
	}
}

func TestHandleStream_OversizeSnippet(t *testing.T) {
	ws := dialStream(t)

	big := strings.Repeat("a", MaxSnippetBytes+1)
	if err := ws.WriteJSON(StreamRequest{ID: "big", Source: big}); err != nil {
		t.Fatalf("write: %v", err)
	}
	var resp StreamResponse
	if err := ws.ReadJSON(&resp); err != nil {
		t.Fatalf("read: %v", err)
	}
	if resp.ID != "big" || resp.Code != "SNIPPET_TOO_LARGE" {
		t.Errorf("unexpected response: %+v", resp)
	}
}
