// Copyright (C) 2026 Lumenware (launchcontrol@lumenware.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package metrics implements the telemetry collector: sample
// ingestion, sliding-window aggregation, threshold alerting with
// de-duplication, and retention sweeps.
package metrics

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lumenware/launchcontrol/services/launch/datatypes"
	"github.com/lumenware/launchcontrol/services/launch/notify"
)

// Config tunes the collector.
type Config struct {
	// AlertWindow is the trailing window alert checks evaluate.
	// Default: 5 minutes.
	AlertWindow time.Duration

	// Retention is how long raw samples are kept. Default: 30 days.
	Retention time.Duration

	// ResolvedAlertRetention is how long resolved alerts are kept for
	// the dashboard. Default: 7 days.
	ResolvedAlertRetention time.Duration

	// Rules are the alert thresholds. Default: DefaultAlertRules.
	Rules []AlertRule
}

// withDefaults fills zero fields.
func (c Config) withDefaults() Config {
	if c.AlertWindow == 0 {
		c.AlertWindow = 5 * time.Minute
	}
	if c.Retention == 0 {
		c.Retention = 30 * 24 * time.Hour
	}
	if c.ResolvedAlertRetention == 0 {
		c.ResolvedAlertRetention = 7 * 24 * time.Hour
	}
	if c.Rules == nil {
		c.Rules = DefaultAlertRules()
	}
	return c
}

// Collector ingests time-stamped samples, aggregates them over
// trailing windows, and maintains the alert state machine.
//
// Alerts are keyed by metric type. A rule breach fires at most one
// alert; while that alert is active the rule does not re-fire, and
// when a later check finds the condition cleared the alert resolves.
// Only state transitions notify, so a persisting condition cannot
// cause an alert storm.
//
// Thread Safety: safe for concurrent use.
type Collector struct {
	mu      sync.RWMutex
	samples map[datatypes.MetricType][]datatypes.MetricSample
	active  map[datatypes.MetricType]*datatypes.Alert
	history []datatypes.Alert

	config   Config
	notifier notify.Notifier
	logger   *slog.Logger
	sink     SampleSink
}

// CollectorOption configures a Collector.
type CollectorOption func(*Collector)

// WithSink mirrors recorded samples to an external sink (InfluxDB).
func WithSink(sink SampleSink) CollectorOption {
	return func(c *Collector) { c.sink = sink }
}

// NewCollector creates a collector. Notifier may be nil (no outbound
// notifications).
func NewCollector(config Config, notifier notify.Notifier, logger *slog.Logger, opts ...CollectorOption) *Collector {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Collector{
		samples:  make(map[datatypes.MetricType][]datatypes.MetricSample),
		active:   make(map[datatypes.MetricType]*datatypes.Alert),
		config:   config.withDefaults(),
		notifier: notifier,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Record appends a sample to its type's stream. Never blocks on the
// sink; mirroring is best effort.
func (c *Collector) Record(sample datatypes.MetricSample) {
	if sample.Timestamp.IsZero() {
		sample.Timestamp = time.Now()
	}
	c.mu.Lock()
	c.samples[sample.Type] = append(c.samples[sample.Type], sample)
	c.mu.Unlock()

	if c.sink != nil {
		c.sink.Write(sample)
	}
}

// Aggregate computes window stats for one metric type ending now.
func (c *Collector) Aggregate(metricType datatypes.MetricType, now time.Time, window time.Duration) datatypes.WindowStats {
	c.mu.RLock()
	samples := c.samples[metricType]
	c.mu.RUnlock()
	return computeWindow(metricType, samples, now, window)
}

// AggregateAll computes window stats for every known metric type.
func (c *Collector) AggregateAll(now time.Time, window time.Duration) []datatypes.WindowStats {
	out := make([]datatypes.WindowStats, 0, len(datatypes.KnownMetricTypes))
	for _, mt := range datatypes.KnownMetricTypes {
		out = append(out, c.Aggregate(mt, now, window))
	}
	return out
}

// CheckAlerts evaluates every rule against the alert window ending at
// now, firing and resolving alerts as conditions change.
func (c *Collector) CheckAlerts(ctx context.Context, now time.Time) {
	for _, rule := range c.config.Rules {
		stats := c.Aggregate(rule.Type, now, c.config.AlertWindow)
		breached := rule.breached(stats)

		c.mu.Lock()
		current := c.active[rule.Type]
		switch {
		case breached && current == nil:
			alert := &datatypes.Alert{
				ID:        uuid.NewString(),
				Type:      rule.Type,
				Severity:  rule.Severity,
				Status:    datatypes.AlertActive,
				FiredAt:   now,
				Value:     rule.observed(stats),
				Threshold: rule.Threshold,
				Message:   rule.message(stats),
			}
			c.active[rule.Type] = alert
			c.mu.Unlock()

			c.logger.Warn("alert fired",
				"alert_id", alert.ID,
				"metric_type", string(alert.Type),
				"severity", string(alert.Severity),
				"value", alert.Value,
				"threshold", alert.Threshold,
			)
			notify.Dispatch(ctx, c.notifier, c.logger, notify.Event{
				Type:     notify.EventAlertFired,
				Severity: string(alert.Severity),
				Message:  alert.Message,
				Payload:  map[string]any{"alert_id": alert.ID, "metric_type": string(alert.Type)},
			})

		case !breached && current != nil:
			resolved := *current
			resolved.Status = datatypes.AlertResolved
			resolved.ResolvedAt = now
			delete(c.active, rule.Type)
			c.history = append(c.history, resolved)
			c.mu.Unlock()

			c.logger.Info("alert resolved",
				"alert_id", resolved.ID,
				"metric_type", string(resolved.Type),
				"active_for", now.Sub(resolved.FiredAt).String(),
			)
			notify.Dispatch(ctx, c.notifier, c.logger, notify.Event{
				Type:     notify.EventAlertResolved,
				Severity: string(resolved.Severity),
				Message:  string(resolved.Type) + " recovered",
				Payload:  map[string]any{"alert_id": resolved.ID, "metric_type": string(resolved.Type)},
			})

		default:
			// Breach persisting on an active alert, or no breach and
			// no alert: nothing to do.
			c.mu.Unlock()
		}
	}
}

// ActiveAlerts returns a copy of the currently active alerts.
func (c *Collector) ActiveAlerts() []datatypes.Alert {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]datatypes.Alert, 0, len(c.active))
	for _, a := range c.active {
		out = append(out, *a)
	}
	return out
}

// RecentAlerts returns resolved alerts still inside the retention
// window, newest last.
func (c *Collector) RecentAlerts() []datatypes.Alert {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]datatypes.Alert, len(c.history))
	copy(out, c.history)
	return out
}

// SampleCount returns the number of retained samples for a type.
func (c *Collector) SampleCount(metricType datatypes.MetricType) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.samples[metricType])
}

// Cleanup drops samples past retention and prunes resolved alert
// history. Runs on the daily sweep.
func (c *Collector) Cleanup(now time.Time) {
	sampleCutoff := now.Add(-c.config.Retention)
	alertCutoff := now.Add(-c.config.ResolvedAlertRetention)

	c.mu.Lock()
	defer c.mu.Unlock()

	var dropped int
	for mt, samples := range c.samples {
		kept := samples[:0]
		for _, s := range samples {
			if s.Timestamp.After(sampleCutoff) {
				kept = append(kept, s)
			}
		}
		dropped += len(samples) - len(kept)
		c.samples[mt] = kept
	}

	keptAlerts := c.history[:0]
	for _, a := range c.history {
		if a.ResolvedAt.After(alertCutoff) {
			keptAlerts = append(keptAlerts, a)
		}
	}
	c.history = keptAlerts

	if dropped > 0 {
		c.logger.Info("metric retention sweep", "samples_dropped", dropped)
	}
}
