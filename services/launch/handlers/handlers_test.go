// Copyright (C) 2026 Lumenware (launchcontrol@lumenware.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenware/launchcontrol/services/launch/datatypes"
	"github.com/lumenware/launchcontrol/services/launch/feedback"
	"github.com/lumenware/launchcontrol/services/launch/metrics"
	"github.com/lumenware/launchcontrol/services/launch/phase"
	"github.com/lumenware/launchcontrol/services/launch/rollout"
	"github.com/lumenware/launchcontrol/services/launch/tickets"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testDeps(t *testing.T) Deps {
	t.Helper()
	flags := rollout.NewEngine(rollout.NewMemoryStore(), nil, nil)
	collector := metrics.NewCollector(metrics.Config{}, nil, nil)
	ticketEngine := tickets.NewEngine(tickets.NewMemoryTicketStore(), tickets.Config{}, nil, nil, nil)
	feedbackStore := feedback.NewStore(nil)
	controller := phase.NewController(phase.Config{}, collector, ticketEngine, feedbackStore, flags, nil, nil)
	return Deps{
		Flags:     flags,
		Collector: collector,
		Tickets:   ticketEngine,
		Feedback:  feedbackStore,
		Phase:     controller,
		StartedAt: time.Now(),
	}
}

func testRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.GET("/health", HealthCheck)
	r.GET("/status", Status(d))
	r.GET("/v1/flags/:name/evaluate", EvaluateFlag(d))
	r.GET("/v1/flags", ListFlags(d))
	r.POST("/v1/flags", UpsertFlag(d))
	r.PATCH("/v1/flags/:name", PatchFlag(d))
	r.POST("/v1/feedback", SubmitFeedback(d))
	r.POST("/v1/issues", SubmitIssue(d))
	r.PATCH("/v1/tickets/:id", PatchTicket(d))
	r.POST("/v1/telemetry", IngestTelemetry(d))
	r.GET("/v1/dashboard", Dashboard(d))
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	w := httptest.NewRecorder()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	r.ServeHTTP(w, req)

	parsed := map[string]any{}
	if w.Body.Len() > 0 {
		_ = json.Unmarshal(w.Body.Bytes(), &parsed)
	}
	return w, parsed
}

// =============================================================================
// Flags
// =============================================================================

func TestEvaluateFlag(t *testing.T) {
	d := testDeps(t)
	require.NoError(t, d.Flags.SetFlag(datatypes.FeatureFlag{
		Name: "new_checkout", Enabled: true, RolloutPercentage: 100,
	}))
	r := testRouter(d)

	w, body := doJSON(t, r, http.MethodGet, "/v1/flags/new_checkout/evaluate?identifier=user@example.com", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["enabled"])
}

func TestEvaluateFlag_UnknownFlagFailsClosed(t *testing.T) {
	r := testRouter(testDeps(t))
	w, body := doJSON(t, r, http.MethodGet, "/v1/flags/no_such_flag/evaluate?identifier=u1", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, body["enabled"])
}

func TestEvaluateFlag_MissingIdentifier(t *testing.T) {
	r := testRouter(testDeps(t))
	w, _ := doJSON(t, r, http.MethodGet, "/v1/flags/some_flag/evaluate", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEvaluateFlag_OverlongIdentifier(t *testing.T) {
	r := testRouter(testDeps(t))
	id := strings.Repeat("a", 300)
	w, body := doJSON(t, r, http.MethodGet, "/v1/flags/some_flag/evaluate?identifier="+id, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, body["error"], "too long")
}

func TestEvaluateFlag_BadName(t *testing.T) {
	r := testRouter(testDeps(t))
	w, _ := doJSON(t, r, http.MethodGet, "/v1/flags/Bad%20Name!/evaluate?identifier=u1", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpsertFlag(t *testing.T) {
	d := testDeps(t)
	r := testRouter(d)

	w, _ := doJSON(t, r, http.MethodPost, "/v1/flags", `{
		"name": "dark_mode", "enabled": true, "rollout_percentage": 25,
		"target_segments": ["beta"]
	}`)
	require.Equal(t, http.StatusCreated, w.Code)

	flag, err := d.Flags.GetFlag("dark_mode")
	require.NoError(t, err)
	assert.Equal(t, 25.0, flag.RolloutPercentage)
}

func TestUpsertFlag_RejectsBadPercentage(t *testing.T) {
	r := testRouter(testDeps(t))
	w, _ := doJSON(t, r, http.MethodPost, "/v1/flags", `{"name": "x_flag", "rollout_percentage": 120}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPatchFlag(t *testing.T) {
	d := testDeps(t)
	require.NoError(t, d.Flags.SetFlag(datatypes.FeatureFlag{Name: "patchme", RolloutPercentage: 10}))
	r := testRouter(d)

	w, body := doJSON(t, r, http.MethodPatch, "/v1/flags/patchme", `{"rollout_percentage": 70}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 70.0, body["rollout_percentage"])

	w, _ = doJSON(t, r, http.MethodPatch, "/v1/flags/ghost", `{"enabled": true}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// =============================================================================
// Submission Endpoints
// =============================================================================

func TestSubmitIssue(t *testing.T) {
	d := testDeps(t)
	r := testRouter(d)

	w, body := doJSON(t, r, http.MethodPost, "/v1/issues", `{
		"category": "data_loss",
		"subject": "results vanished",
		"description": "my assessment results are gone"
	}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.NotEmpty(t, body["ticket_id"])
	assert.Equal(t, "high", body["priority"])
	assert.Equal(t, "4h0m0s", body["expected_response"])
}

func TestSubmitIssue_RejectsBadCategory(t *testing.T) {
	r := testRouter(testDeps(t))
	w, body := doJSON(t, r, http.MethodPost, "/v1/issues", `{
		"category": "gossip", "subject": "s", "description": "d"
	}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "validation failed", body["error"])
}

func TestSubmitFeedback(t *testing.T) {
	d := testDeps(t)
	r := testRouter(d)

	w, body := doJSON(t, r, http.MethodPost, "/v1/feedback", `{"rating": 5, "comment": "love it"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "received", body["status"])
	assert.Equal(t, 1, d.Feedback.Count())
}

func TestSubmitFeedback_RejectsBadRating(t *testing.T) {
	r := testRouter(testDeps(t))
	w, _ := doJSON(t, r, http.MethodPost, "/v1/feedback", `{"rating": 9}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPatchTicket(t *testing.T) {
	d := testDeps(t)
	ticket, err := d.Tickets.Create(datatypes.IssueReportRequest{
		Category: "bug", Subject: "s", Description: "d",
	})
	require.NoError(t, err)
	r := testRouter(d)

	w, body := doJSON(t, r, http.MethodPatch, "/v1/tickets/"+ticket.ID, `{"status": "resolved"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "resolved", body["status"])

	w, _ = doJSON(t, r, http.MethodPatch, "/v1/tickets/nope", `{"assignee": "casey"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestIngestTelemetry(t *testing.T) {
	d := testDeps(t)
	r := testRouter(d)

	w, _ := doJSON(t, r, http.MethodPost, "/v1/telemetry", `{"type": "response_time", "value": 123}`)
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, 1, d.Collector.SampleCount(datatypes.MetricResponseTime))
}

func TestIngestTelemetry_RejectsMissingType(t *testing.T) {
	r := testRouter(testDeps(t))
	w, _ := doJSON(t, r, http.MethodPost, "/v1/telemetry", `{"value": 1}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// =============================================================================
// Dashboard & Status
// =============================================================================

func TestDashboard(t *testing.T) {
	d := testDeps(t)
	d.Collector.Record(datatypes.MetricSample{Type: datatypes.MetricResponseTime, Value: 100})
	d.Feedback.Record(datatypes.FeedbackRequest{Rating: 4})
	r := testRouter(d)

	w, body := doJSON(t, r, http.MethodGet, "/v1/dashboard?range=1h", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1h", body["range"])
	assert.Equal(t, "beta", body["phase"])

	tstats, ok := body["tickets"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 0.0, tstats["open"])

	fb, ok := body["feedback"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 1.0, fb["count"])
}

func TestDashboard_RejectsBadRange(t *testing.T) {
	r := testRouter(testDeps(t))
	w, _ := doJSON(t, r, http.MethodGet, "/v1/dashboard?range=7d", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStatus_PublicShape(t *testing.T) {
	r := testRouter(testDeps(t))
	w, body := doJSON(t, r, http.MethodGet, "/status", "")
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, "beta", body["phase"])
	assert.NotEmpty(t, body["health_bucket"])
	assert.NotEmpty(t, body["uptime"])
	// Only the three public fields, nothing sensitive.
	assert.Len(t, body, 3)
}

func TestHealthCheck(t *testing.T) {
	r := testRouter(testDeps(t))
	w, body := doJSON(t, r, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", body["status"])
}
