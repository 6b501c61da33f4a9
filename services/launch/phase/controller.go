// Copyright (C) 2026 Lumenware (launchcontrol@lumenware.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package phase drives launch progression: it composes the collector,
// ticket engine, and feedback store into a single health score, gates
// forward-only phase transitions on that score, and pushes each
// phase's rollout percentage onto the launch-managed flags.
package phase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/lumenware/launchcontrol/services/launch/datatypes"
	"github.com/lumenware/launchcontrol/services/launch/notify"
)

// =============================================================================
// Collaborator Contracts
// =============================================================================

// MetricsSource supplies windowed performance stats. Satisfied by
// *metrics.Collector.
type MetricsSource interface {
	Aggregate(metricType datatypes.MetricType, now time.Time, window time.Duration) datatypes.WindowStats
}

// TicketSource supplies the support-load signal. Satisfied by
// *tickets.Engine.
type TicketSource interface {
	OverdueCount(now time.Time) int
	OpenCount() int
}

// FeedbackSource supplies the satisfaction aggregate. Satisfied by
// *feedback.Store.
type FeedbackSource interface {
	Summary(window time.Duration) datatypes.FeedbackSummary
}

// FlagUpdater applies phase policy to flags. Satisfied by
// *rollout.Engine.
type FlagUpdater interface {
	ListFlags() ([]datatypes.FeatureFlag, error)
	UpdateFlag(name string, patch datatypes.FlagPatch) (datatypes.FeatureFlag, error)
}

// =============================================================================
// Configuration
// =============================================================================

// Config parameterizes the controller.
type Config struct {
	// InitialPhase is where the machine starts. Defaults to beta.
	InitialPhase datatypes.LaunchPhase

	// Criteria gates leaving each non-terminal phase.
	Criteria map[datatypes.LaunchPhase]datatypes.PhaseCriteria

	// Policy is the rollout percentage applied to launch-managed
	// flags on entering each phase.
	Policy datatypes.PhasePolicy

	Health HealthConfig
}

// DefaultCriteria is the stock gate set: leaving beta needs three
// days of healthy signals, leaving soft-launch needs a week of
// slightly stronger ones.
func DefaultCriteria() map[datatypes.LaunchPhase]datatypes.PhaseCriteria {
	return map[datatypes.LaunchPhase]datatypes.PhaseCriteria{
		datatypes.PhaseBeta: {
			MinHealthBucket:      datatypes.HealthHealthy,
			MinSatisfactionScore: 70,
			MinPerformanceScore:  70,
			MinDwell:             72 * time.Hour,
		},
		datatypes.PhaseSoftLaunch: {
			MinHealthBucket:      datatypes.HealthHealthy,
			MinSatisfactionScore: 75,
			MinPerformanceScore:  75,
			MinDwell:             7 * 24 * time.Hour,
		},
	}
}

func (c Config) withDefaults() Config {
	if c.InitialPhase == "" {
		c.InitialPhase = datatypes.PhaseBeta
	}
	if c.Criteria == nil {
		c.Criteria = DefaultCriteria()
	}
	if c.Policy == nil {
		c.Policy = datatypes.DefaultPhasePolicy()
	}
	c.Health = c.Health.withDefaults()
	return c
}

// =============================================================================
// Controller
// =============================================================================

// Controller owns the phase state machine. Collaborators may be nil;
// the controller then runs degraded, substituting neutral defaults
// for the missing signals, and records which ones were absent in
// every snapshot it produces.
type Controller struct {
	mu         sync.RWMutex
	phase      datatypes.LaunchPhase
	phaseStart time.Time
	lastHealth datatypes.HealthSnapshot

	config   Config
	metrics  MetricsSource
	tickets  TicketSource
	feedback FeedbackSource
	flags    FlagUpdater
	notifier notify.Notifier
	logger   *slog.Logger
	now      func() time.Time
}

// Option customizes Controller construction.
type Option func(*Controller)

// WithClock overrides the time source. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// NewController wires the controller. Nil collaborators are accepted
// and logged; construction never fails.
func NewController(config Config, metrics MetricsSource, tickets TicketSource, feedback FeedbackSource, flags FlagUpdater, notifier notify.Notifier, logger *slog.Logger, opts ...Option) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Controller{
		config:   config.withDefaults(),
		metrics:  metrics,
		tickets:  tickets,
		feedback: feedback,
		flags:    flags,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.phase = c.config.InitialPhase
	c.phaseStart = c.now().UTC()

	if missing := c.missingCollaborators(); len(missing) > 0 {
		logger.Warn("phase controller running degraded", "missing", missing)
	}
	return c
}

func (c *Controller) missingCollaborators() []string {
	var missing []string
	if c.metrics == nil {
		missing = append(missing, "metrics")
	}
	if c.tickets == nil {
		missing = append(missing, "tickets")
	}
	if c.feedback == nil {
		missing = append(missing, "feedback")
	}
	return missing
}

// Phase returns the current phase and when it started.
func (c *Controller) Phase() (datatypes.LaunchPhase, time.Time) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.phase, c.phaseStart
}

// LastHealth returns the most recent snapshot, or a fresh one when no
// evaluation has run yet.
func (c *Controller) LastHealth() datatypes.HealthSnapshot {
	c.mu.RLock()
	last := c.lastHealth
	c.mu.RUnlock()
	if last.EvaluatedAt.IsZero() {
		return c.Health()
	}
	return last
}

// Health recomputes the composite score from whatever collaborators
// are available. Missing collaborators contribute neutral defaults:
// full performance score, 70 satisfaction, no ticket penalty.
func (c *Controller) Health() datatypes.HealthSnapshot {
	now := c.now().UTC()
	window := c.config.Health.Window

	snapshot := datatypes.HealthSnapshot{
		EvaluatedAt: now,
		Degraded:    c.missingCollaborators(),
	}

	snapshot.PerformanceScore = 100
	if c.metrics != nil {
		snapshot.PerformanceScore = performanceScore(
			c.metrics.Aggregate(datatypes.MetricResponseTime, now, window),
			c.metrics.Aggregate(datatypes.MetricErrorRate, now, window),
			c.metrics.Aggregate(datatypes.MetricMemory, now, window),
		)
	}

	snapshot.SatisfactionScore = 70
	if c.feedback != nil {
		snapshot.SatisfactionScore = satisfactionScore(c.feedback.Summary(DefaultFeedbackWindow))
	}

	if c.tickets != nil {
		penalty := float64(c.tickets.OverdueCount(now)) * c.config.Health.OverdueTicketPenalty
		if penalty > c.config.Health.OverduePenaltyCap {
			penalty = c.config.Health.OverduePenaltyCap
		}
		snapshot.OverduePenalty = penalty
	}

	snapshot.Score = clampScore(
		snapshot.PerformanceScore*c.config.Health.PerformanceWeight +
			snapshot.SatisfactionScore*c.config.Health.SatisfactionWeight -
			snapshot.OverduePenalty)
	snapshot.Bucket = datatypes.BucketForScore(snapshot.Score)

	c.mu.Lock()
	c.lastHealth = snapshot
	c.mu.Unlock()
	return snapshot
}

// DefaultFeedbackWindow is the satisfaction lookback. Feedback is far
// sparser than telemetry, so it gets a day rather than minutes.
const DefaultFeedbackWindow = 24 * time.Hour

// Evaluate runs one progression check: recompute health, and when the
// current phase's criteria all hold simultaneously, advance. Returns
// the snapshot it evaluated against and whether the phase advanced.
// Terminal phases never advance.
func (c *Controller) Evaluate(ctx context.Context) (datatypes.HealthSnapshot, bool) {
	snapshot := c.Health()

	c.mu.Lock()
	phase := c.phase
	dwell := snapshot.EvaluatedAt.Sub(c.phaseStart)
	c.mu.Unlock()

	if phase.Terminal() {
		return snapshot, false
	}
	criteria, ok := c.config.Criteria[phase]
	if !ok {
		c.logger.Warn("no criteria for phase, holding", "phase", string(phase))
		return snapshot, false
	}
	if !c.criteriaMet(snapshot, criteria, dwell) {
		return snapshot, false
	}

	next := phase.Next()
	c.mu.Lock()
	// Re-check under the lock so concurrent evaluations cannot
	// double-advance.
	if c.phase != phase {
		c.mu.Unlock()
		return snapshot, false
	}
	c.phase = next
	c.phaseStart = snapshot.EvaluatedAt
	c.mu.Unlock()

	c.logger.Info("phase advanced",
		"from", string(phase),
		"to", string(next),
		"health_score", snapshot.Score,
		"health_bucket", string(snapshot.Bucket))

	c.applyPolicy(next)

	notify.Dispatch(ctx, c.notifier, c.logger, notify.Event{
		Type:    notify.EventPhaseAdvanced,
		Message: fmt.Sprintf("launch advanced from %s to %s", phase, next),
		Payload: map[string]any{
			"from":          string(phase),
			"to":            string(next),
			"health_score":  snapshot.Score,
			"health_bucket": string(snapshot.Bucket),
		},
		Timestamp: snapshot.EvaluatedAt,
	})
	return snapshot, true
}

func (c *Controller) criteriaMet(snapshot datatypes.HealthSnapshot, criteria datatypes.PhaseCriteria, dwell time.Duration) bool {
	if dwell < criteria.MinDwell {
		return false
	}
	if criteria.MinHealthBucket != "" && !snapshot.Bucket.AtLeast(criteria.MinHealthBucket) {
		return false
	}
	if snapshot.SatisfactionScore < criteria.MinSatisfactionScore {
		return false
	}
	if snapshot.PerformanceScore < criteria.MinPerformanceScore {
		return false
	}
	return true
}

// applyPolicy pushes the phase's rollout percentage onto every
// launch-managed flag. Failures are logged per flag and do not block
// the transition; the phase has already advanced.
func (c *Controller) applyPolicy(phase datatypes.LaunchPhase) {
	if c.flags == nil {
		return
	}
	pct, ok := c.config.Policy[phase]
	if !ok {
		return
	}
	flags, err := c.flags.ListFlags()
	if err != nil {
		c.logger.Error("phase policy: list flags failed", "error", err)
		return
	}
	for _, f := range flags {
		if !f.LaunchManaged {
			continue
		}
		if _, err := c.flags.UpdateFlag(f.Name, datatypes.FlagPatch{RolloutPercentage: &pct}); err != nil {
			c.logger.Error("phase policy: flag update failed",
				"flag", f.Name, "percentage", pct, "error", err)
		}
	}
}
