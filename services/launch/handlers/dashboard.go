// Copyright (C) 2026 Lumenware (launchcontrol@lumenware.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/lumenware/launchcontrol/services/launch/datatypes"
)

// DashboardSnapshot is the aggregated operator view for one time
// range.
type DashboardSnapshot struct {
	GeneratedAt  time.Time                  `json:"generated_at"`
	Range        string                     `json:"range"`
	Metrics      []datatypes.WindowStats    `json:"metrics"`
	ActiveAlerts []datatypes.Alert          `json:"active_alerts"`
	RecentAlerts []datatypes.Alert          `json:"recent_alerts"`
	Tickets      TicketStats                `json:"tickets"`
	Feedback     datatypes.FeedbackSummary  `json:"feedback"`
	Phase        datatypes.LaunchPhase      `json:"phase"`
	PhaseStart   time.Time                  `json:"phase_start"`
	Health       datatypes.HealthSnapshot   `json:"health"`
}

// TicketStats is the support-load slice of the dashboard.
type TicketStats struct {
	Open    int `json:"open"`
	Overdue int `json:"overdue"`
}

// dashboardRanges maps the accepted range parameter to a window.
var dashboardRanges = map[string]time.Duration{
	"1h":  time.Hour,
	"24h": 24 * time.Hour,
}

func buildSnapshot(d Deps, rangeName string, window time.Duration) DashboardSnapshot {
	now := timeNow().UTC()
	snap := DashboardSnapshot{GeneratedAt: now, Range: rangeName}

	// The sources are independent and each takes its own lock; gather
	// them concurrently so a slow one does not serialize the rest.
	var g errgroup.Group
	g.Go(func() error {
		snap.Metrics = d.Collector.AggregateAll(now, window)
		return nil
	})
	g.Go(func() error {
		snap.ActiveAlerts = d.Collector.ActiveAlerts()
		snap.RecentAlerts = d.Collector.RecentAlerts()
		return nil
	})
	g.Go(func() error {
		snap.Tickets = TicketStats{
			Open:    d.Tickets.OpenCount(),
			Overdue: d.Tickets.OverdueCount(now),
		}
		return nil
	})
	g.Go(func() error {
		snap.Feedback = d.Feedback.Summary(window)
		return nil
	})
	g.Go(func() error {
		snap.Phase, snap.PhaseStart = d.Phase.Phase()
		snap.Health = d.Phase.LastHealth()
		return nil
	})
	_ = g.Wait()
	return snap
}

// Dashboard returns the aggregated snapshot for ?range=1h|24h
// (default 1h). Admin only.
func Dashboard(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		rangeName := c.DefaultQuery("range", "1h")
		window, ok := dashboardRanges[rangeName]
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "range must be 1h or 24h"})
			return
		}
		c.JSON(http.StatusOK, buildSnapshot(d, rangeName, window))
	}
}

var dashboardUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 8192,
	// Admin-key middleware has already run; the socket carries no
	// user-supplied commands, so cross-origin reads gain nothing.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// livePushInterval is the cadence of websocket snapshot pushes.
const livePushInterval = 5 * time.Second

// DashboardLive upgrades to a websocket and pushes a fresh 1h
// snapshot every few seconds until the client goes away. Admin only.
func DashboardLive(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := dashboardUpgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			d.logger().Warn("dashboard websocket upgrade failed", "error", err)
			return
		}
		defer conn.Close()

		// Drain control frames so pings and close get processed.
		go func() {
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		ticker := time.NewTicker(livePushInterval)
		defer ticker.Stop()

		push := func() error {
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			return conn.WriteJSON(buildSnapshot(d, "1h", time.Hour))
		}
		if err := push(); err != nil {
			return
		}
		for {
			select {
			case <-c.Request.Context().Done():
				return
			case <-ticker.C:
				if err := push(); err != nil {
					return
				}
			}
		}
	}
}
