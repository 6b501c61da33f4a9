// Copyright (C) 2026 Lumenware (launchcontrol@lumenware.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/lumenware/launchcontrol/services/launch/handlers"
	"github.com/lumenware/launchcontrol/services/launch/middleware"
)

// SetupRoutes wires the HTTP surface onto the router.
//
// Three access tiers: public probes (/health, /status, /metrics),
// rate-limited submission endpoints (feedback, issues, telemetry,
// flag evaluation), and admin-key-gated management endpoints (flag
// CRUD, ticket updates, dashboard).
func SetupRoutes(router *gin.Engine, adminKey string, d handlers.Deps) {
	router.Use(otelgin.Middleware("launchcontrol"))
	router.Use(middleware.RequestTiming(d.Metrics))

	router.GET("/health", handlers.HealthCheck)
	router.GET("/status", handlers.Status(d))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/v1")
	{
		v1.GET("/flags/:name/evaluate",
			middleware.PerClientRateLimit(middleware.ReadLimit),
			handlers.EvaluateFlag(d))

		v1.POST("/feedback",
			middleware.PerClientRateLimit(middleware.SubmitLimit),
			handlers.SubmitFeedback(d))
		v1.POST("/issues",
			middleware.PerClientRateLimit(middleware.SubmitLimit),
			handlers.SubmitIssue(d))
		v1.POST("/telemetry",
			middleware.PerClientRateLimit(middleware.TelemetryLimit),
			handlers.IngestTelemetry(d))

		admin := v1.Group("", middleware.RequireAdminKey(adminKey, d.Logger))
		{
			admin.GET("/flags", handlers.ListFlags(d))
			admin.POST("/flags", handlers.UpsertFlag(d))
			admin.PATCH("/flags/:name", handlers.PatchFlag(d))
			admin.PATCH("/tickets/:id", handlers.PatchTicket(d))
			admin.GET("/dashboard",
				middleware.PerClientRateLimit(middleware.ReadLimit),
				handlers.Dashboard(d))
			admin.GET("/dashboard/live", handlers.DashboardLive(d))
		}
	}
}
