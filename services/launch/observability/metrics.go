// Copyright (C) 2026 Lumenware (launchcontrol@lumenware.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package observability provides Prometheus instrumentation for the
// launch service.
//
// # Description
//
// Metrics cover the four operational surfaces:
//   - Flag evaluation counters (by flag and decision)
//   - Telemetry ingestion and alert state
//   - Ticket lifecycle (created, escalated, open/overdue gauges)
//   - Launch phase and composite health score gauges
//
// # Integration
//
// Metrics are exposed via the /metrics endpoint. Scrape with
// Prometheus; the phase and health gauges are the ones worth paging
// on.
//
// # Thread Safety
//
// All metric operations are thread-safe via Prometheus's internal
// locking.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace for all metrics
const metricsNamespace = "launchcontrol"

// LaunchMetrics holds all Prometheus metrics for the launch service.
// Initialize once at startup via InitMetrics().
type LaunchMetrics struct {
	// FlagEvaluationsTotal counts IsEnabled decisions.
	// Labels: flag, decision (enabled, disabled)
	FlagEvaluationsTotal *prometheus.CounterVec

	// SamplesIngestedTotal counts telemetry samples by metric type.
	SamplesIngestedTotal *prometheus.CounterVec

	// ActiveAlerts tracks currently firing alerts by metric type.
	ActiveAlerts *prometheus.GaugeVec

	// TicketsCreatedTotal counts created tickets by priority.
	TicketsCreatedTotal *prometheus.CounterVec

	// TicketsEscalatedTotal counts escalations.
	TicketsEscalatedTotal prometheus.Counter

	// OpenTickets and OverdueTickets are refreshed by the status
	// report task.
	OpenTickets    prometheus.Gauge
	OverdueTickets prometheus.Gauge

	// LaunchPhase exposes the phase index (beta=0, soft-launch=1,
	// full-launch=2).
	LaunchPhase prometheus.Gauge

	// HealthScore is the latest composite 0-100 score.
	HealthScore prometheus.Gauge

	// RequestDurationSeconds measures handler latency.
	// Labels: endpoint, status
	RequestDurationSeconds *prometheus.HistogramVec
}

// DefaultMetrics is the singleton instance. Initialized by InitMetrics().
var DefaultMetrics *LaunchMetrics

// InitMetrics creates and registers all metrics on the default
// registry. Call once at startup; a second call panics on duplicate
// registration.
func InitMetrics() *LaunchMetrics {
	DefaultMetrics = &LaunchMetrics{
		FlagEvaluationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "rollout",
				Name:      "flag_evaluations_total",
				Help:      "Flag evaluation decisions by flag and outcome",
			},
			[]string{"flag", "decision"},
		),

		SamplesIngestedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "telemetry",
				Name:      "samples_ingested_total",
				Help:      "Telemetry samples ingested by metric type",
			},
			[]string{"metric_type"},
		),

		ActiveAlerts: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Subsystem: "telemetry",
				Name:      "active_alerts",
				Help:      "Currently firing alerts by metric type",
			},
			[]string{"metric_type"},
		),

		TicketsCreatedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "tickets",
				Name:      "created_total",
				Help:      "Support tickets created by derived priority",
			},
			[]string{"priority"},
		),

		TicketsEscalatedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "tickets",
				Name:      "escalated_total",
				Help:      "Tickets escalated past their SLA deadline",
			},
		),

		OpenTickets: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Subsystem: "tickets",
				Name:      "open",
				Help:      "Open tickets at the last status report",
			},
		),

		OverdueTickets: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Subsystem: "tickets",
				Name:      "overdue",
				Help:      "Open tickets past their response deadline",
			},
		),

		LaunchPhase: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Subsystem: "phase",
				Name:      "current",
				Help:      "Launch phase index: beta=0, soft-launch=1, full-launch=2",
			},
		),

		HealthScore: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Subsystem: "phase",
				Name:      "health_score",
				Help:      "Latest composite health score (0-100)",
			},
		),

		RequestDurationSeconds: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "Handler latency by endpoint and status",
				Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
			},
			[]string{"endpoint", "status"},
		),
	}
	return DefaultMetrics
}
