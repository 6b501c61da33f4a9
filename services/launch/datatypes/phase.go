// Copyright (C) 2026 Lumenware (launchcontrol@lumenware.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package datatypes

import "time"

// LaunchPhase is the overall rollout stage. Transitions are forward
// only: beta -> soft-launch -> full-launch, with full-launch terminal.
type LaunchPhase string

const (
	PhaseBeta       LaunchPhase = "beta"
	PhaseSoftLaunch LaunchPhase = "soft-launch"
	PhaseFullLaunch LaunchPhase = "full-launch"
)

// phaseOrder indexes phases for monotonicity checks.
var phaseOrder = map[LaunchPhase]int{
	PhaseBeta:       0,
	PhaseSoftLaunch: 1,
	PhaseFullLaunch: 2,
}

// Order returns the phase index (beta=0, soft-launch=1, full-launch=2).
func (p LaunchPhase) Order() int {
	return phaseOrder[p]
}

// Next returns the following phase, or the phase itself when terminal.
func (p LaunchPhase) Next() LaunchPhase {
	switch p {
	case PhaseBeta:
		return PhaseSoftLaunch
	case PhaseSoftLaunch:
		return PhaseFullLaunch
	default:
		return p
	}
}

// Terminal reports whether no further automatic transition occurs.
func (p LaunchPhase) Terminal() bool {
	return p == PhaseFullLaunch
}

// HealthBucket classifies a composite health score.
type HealthBucket string

const (
	HealthExcellent HealthBucket = "excellent"
	HealthHealthy   HealthBucket = "healthy"
	HealthWarning   HealthBucket = "warning"
	HealthDegraded  HealthBucket = "degraded"
	HealthCritical  HealthBucket = "critical"
)

// bucketOrder indexes buckets best to worst for criteria comparison.
var bucketOrder = map[HealthBucket]int{
	HealthExcellent: 4,
	HealthHealthy:   3,
	HealthWarning:   2,
	HealthDegraded:  1,
	HealthCritical:  0,
}

// AtLeast reports whether the bucket is at least as good as min.
func (b HealthBucket) AtLeast(min HealthBucket) bool {
	return bucketOrder[b] >= bucketOrder[min]
}

// BucketForScore maps a 0-100 composite score to its bucket using the
// descending thresholds 90/75/60/40.
func BucketForScore(score float64) HealthBucket {
	switch {
	case score >= 90:
		return HealthExcellent
	case score >= 75:
		return HealthHealthy
	case score >= 60:
		return HealthWarning
	case score >= 40:
		return HealthDegraded
	default:
		return HealthCritical
	}
}

// HealthSnapshot is the derived health view recomputed each
// evaluation tick. It is never stored; callers get a fresh one.
type HealthSnapshot struct {
	Score             float64      `json:"score"`
	Bucket            HealthBucket `json:"bucket"`
	PerformanceScore  float64      `json:"performance_score"`
	SatisfactionScore float64      `json:"satisfaction_score"`
	OverduePenalty    float64      `json:"overdue_penalty"`
	EvaluatedAt       time.Time    `json:"evaluated_at"`

	// Degraded lists collaborators that were unavailable and
	// contributed neutral defaults instead of real signals.
	Degraded []string `json:"degraded,omitempty"`
}

// PhaseCriteria gates one phase transition. All criteria must hold
// simultaneously during a periodic evaluation for the phase to
// advance.
type PhaseCriteria struct {
	MinHealthBucket      HealthBucket  `json:"min_health_bucket"`
	MinSatisfactionScore float64       `json:"min_satisfaction_score"`
	MinPerformanceScore  float64       `json:"min_performance_score"`
	MinDwell             time.Duration `json:"min_dwell"`
}

// PhasePolicy maps each phase to the rollout percentage applied to
// launch-managed flags on entering it.
type PhasePolicy map[LaunchPhase]float64

// DefaultPhasePolicy is the canary ladder: 10% in beta, 50% in
// soft-launch, 100% at full launch.
func DefaultPhasePolicy() PhasePolicy {
	return PhasePolicy{
		PhaseBeta:       10,
		PhaseSoftLaunch: 50,
		PhaseFullLaunch: 100,
	}
}
