// Copyright (C) 2026 Lumenware (launchcontrol@lumenware.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package routes

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/lumenware/launchcontrol/services/launch/feedback"
	"github.com/lumenware/launchcontrol/services/launch/handlers"
	"github.com/lumenware/launchcontrol/services/launch/metrics"
	"github.com/lumenware/launchcontrol/services/launch/middleware"
	"github.com/lumenware/launchcontrol/services/launch/phase"
	"github.com/lumenware/launchcontrol/services/launch/rollout"
	"github.com/lumenware/launchcontrol/services/launch/tickets"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(adminKey string) *gin.Engine {
	flags := rollout.NewEngine(rollout.NewMemoryStore(), nil, nil)
	collector := metrics.NewCollector(metrics.Config{}, nil, nil)
	ticketEngine := tickets.NewEngine(tickets.NewMemoryTicketStore(), tickets.Config{}, nil, nil, nil)
	feedbackStore := feedback.NewStore(nil)
	controller := phase.NewController(phase.Config{}, collector, ticketEngine, feedbackStore, flags, nil, nil)

	router := gin.New()
	SetupRoutes(router, adminKey, handlers.Deps{
		Flags:     flags,
		Collector: collector,
		Tickets:   ticketEngine,
		Feedback:  feedbackStore,
		Phase:     controller,
		StartedAt: time.Now(),
	})
	return router
}

func get(router *gin.Engine, path string, headers map[string]string) int {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	router.ServeHTTP(w, req)
	return w.Code
}

func TestPublicEndpointsOpen(t *testing.T) {
	router := newTestRouter("key")
	assert.Equal(t, http.StatusOK, get(router, "/health", nil))
	assert.Equal(t, http.StatusOK, get(router, "/status", nil))
	assert.Equal(t, http.StatusOK, get(router, "/metrics", nil))
	assert.Equal(t, http.StatusOK,
		get(router, "/v1/flags/some_flag/evaluate?identifier=u1", nil))
}

func TestAdminEndpointsGated(t *testing.T) {
	router := newTestRouter("key")

	adminPaths := []string{"/v1/flags", "/v1/dashboard"}
	for _, path := range adminPaths {
		assert.Equal(t, http.StatusUnauthorized, get(router, path, nil), path)
		assert.Equal(t, http.StatusOK,
			get(router, path, map[string]string{middleware.AdminKeyHeader: "key"}), path)
	}
}

func TestAdminDisabledWithoutKey(t *testing.T) {
	router := newTestRouter("")
	assert.Equal(t, http.StatusServiceUnavailable,
		get(router, "/v1/flags", map[string]string{middleware.AdminKeyHeader: "anything"}))
}
