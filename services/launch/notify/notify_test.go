// Copyright (C) 2026 Lumenware (launchcontrol@lumenware.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebhookNotifier_Send(t *testing.T) {
	var received Event
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &received))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(srv.URL)
	err := n.Send(context.Background(), Event{
		Type:     EventPhaseAdvanced,
		Severity: "info",
		Message:  "advanced to soft-launch",
		Payload:  map[string]any{"phase": "soft-launch"},
	})
	require.NoError(t, err)
	assert.Equal(t, EventPhaseAdvanced, received.Type)
	assert.Equal(t, "advanced to soft-launch", received.Message)
}

func TestWebhookNotifier_Non2xxIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(srv.URL)
	err := n.Send(context.Background(), Event{Type: EventAlertFired, Message: "x"})
	assert.Error(t, err)
}

func TestDispatch_SwallowsErrors(t *testing.T) {
	n := NewWebhookNotifier("http://127.0.0.1:1") // nothing listens here
	// Must not panic or propagate.
	Dispatch(context.Background(), n, nil, Event{Type: EventAlertFired, Message: "x"})
}

func TestDispatch_NilNotifier(t *testing.T) {
	Dispatch(context.Background(), nil, nil, Event{Type: EventAlertFired})
}

func TestLogNotifier_Send(t *testing.T) {
	n := &LogNotifier{}
	assert.NoError(t, n.Send(context.Background(), Event{Type: EventStatusReport, Message: "ok"}))
}
