// Copyright (C) 2026 Lumenware (launchcontrol@lumenware.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package datatypes

import "time"

// MetricType tags a telemetry sample stream. Each type has its own
// retention, aggregation, and alert threshold.
type MetricType string

const (
	MetricResponseTime MetricType = "response_time"
	MetricErrorRate    MetricType = "error_rate"
	MetricMemory       MetricType = "memory"
	MetricAbandonment  MetricType = "assessment_abandonment"
)

// KnownMetricTypes lists the metric types the collector aggregates and
// alerts on. Unknown types are recorded but never alert.
var KnownMetricTypes = []MetricType{
	MetricResponseTime, MetricErrorRate, MetricMemory, MetricAbandonment,
}

// RateMetric reports whether the type is aggregated as a rate
// (fraction of samples with Value > 0) rather than a mean of values.
func (m MetricType) RateMetric() bool {
	return m == MetricErrorRate || m == MetricAbandonment
}

// MetricSample is one time-stamped telemetry observation. Samples are
// append-only; the collector never mutates them after Record.
type MetricSample struct {
	Type      MetricType        `json:"type"`
	Timestamp time.Time         `json:"timestamp"`
	Value     float64           `json:"value"`
	Tags      map[string]string `json:"tags,omitempty"`
}

// WindowStats is the aggregate of one metric type over a trailing
// window. Rate is only meaningful for rate metrics; P95/P99 only for
// value metrics.
type WindowStats struct {
	Type  MetricType `json:"type"`
	From  time.Time  `json:"from"`
	To    time.Time  `json:"to"`
	Count int        `json:"count"`
	Mean  float64    `json:"mean"`
	P95   float64    `json:"p95"`
	P99   float64    `json:"p99"`
	Rate  float64    `json:"rate"`
}

// AlertSeverity orders alert urgency.
type AlertSeverity string

const (
	SeverityLow      AlertSeverity = "low"
	SeverityMedium   AlertSeverity = "medium"
	SeverityHigh     AlertSeverity = "high"
	SeverityCritical AlertSeverity = "critical"
)

// AlertStatus tracks the alert state machine. Alerts are created
// active by threshold evaluation and resolve when a later check finds
// the condition cleared.
type AlertStatus string

const (
	AlertActive   AlertStatus = "active"
	AlertResolved AlertStatus = "resolved"
)

// Alert is a threshold breach on one metric type. Only the monitor
// creates alerts; callers never do.
type Alert struct {
	ID         string        `json:"id"`
	Type       MetricType    `json:"type"`
	Severity   AlertSeverity `json:"severity"`
	Status     AlertStatus   `json:"status"`
	FiredAt    time.Time     `json:"fired_at"`
	ResolvedAt time.Time     `json:"resolved_at,omitzero"`
	Value      float64       `json:"value"`
	Threshold  float64       `json:"threshold"`
	Message    string        `json:"message"`
}
