// Copyright (C) 2026 Lumenware (launchcontrol@lumenware.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package handlers implements the HTTP surface of the launch service.
//
// Handlers are gin closures over their dependencies. Validation is
// done at the binding layer via struct tags; handlers translate
// domain errors to status codes and never leak internals in response
// bodies.
package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lumenware/launchcontrol/services/launch/datatypes"
	"github.com/lumenware/launchcontrol/services/launch/feedback"
	"github.com/lumenware/launchcontrol/services/launch/metrics"
	"github.com/lumenware/launchcontrol/services/launch/observability"
	"github.com/lumenware/launchcontrol/services/launch/phase"
	"github.com/lumenware/launchcontrol/services/launch/rollout"
	"github.com/lumenware/launchcontrol/services/launch/tickets"
)

// Deps bundles the collaborators the handlers close over. Metrics may
// be nil (tests); everything else is required.
type Deps struct {
	Flags     *rollout.Engine
	Collector *metrics.Collector
	Tickets   *tickets.Engine
	Feedback  *feedback.Store
	Phase     *phase.Controller
	Metrics   *observability.LaunchMetrics
	Logger    *slog.Logger
	StartedAt time.Time
}

// timeNow is swappable in tests.
var timeNow = time.Now

func (d Deps) logger() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return slog.Default()
}

// HealthCheck is the liveness probe.
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Status is the public, unauthenticated summary: phase, health
// bucket, and uptime. Nothing sensitive.
func Status(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		currentPhase, _ := d.Phase.Phase()
		health := d.Phase.LastHealth()
		c.JSON(http.StatusOK, gin.H{
			"phase":         currentPhase,
			"health_bucket": health.Bucket,
			"uptime":        time.Since(d.StartedAt).Round(time.Second).String(),
		})
	}
}

// badRequest writes a structured 400 from a binding error.
func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   "validation failed",
		"details": datatypes.ValidationErrorList(err),
	})
}
