// Copyright (C) 2026 Lumenware (launchcontrol@lumenware.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package metrics

import (
	"fmt"

	"github.com/lumenware/launchcontrol/services/launch/datatypes"
)

// AlertRule binds one metric type to a threshold. Value metrics
// compare the window mean; rate metrics compare the window rate.
type AlertRule struct {
	Type      datatypes.MetricType
	Threshold float64
	Severity  datatypes.AlertSeverity

	// MinSamples suppresses alerting on windows too small to trust.
	MinSamples int
}

// DefaultAlertRules returns the per-type thresholds: 2s mean response
// time, 5% error rate, 512MB memory, 30% assessment abandonment.
func DefaultAlertRules() []AlertRule {
	return []AlertRule{
		{Type: datatypes.MetricResponseTime, Threshold: 2000, Severity: datatypes.SeverityHigh, MinSamples: 5},
		{Type: datatypes.MetricErrorRate, Threshold: 0.05, Severity: datatypes.SeverityCritical, MinSamples: 10},
		{Type: datatypes.MetricMemory, Threshold: 512, Severity: datatypes.SeverityMedium, MinSamples: 3},
		{Type: datatypes.MetricAbandonment, Threshold: 0.30, Severity: datatypes.SeverityMedium, MinSamples: 10},
	}
}

// observed picks the rule's comparison value from the window.
func (r AlertRule) observed(stats datatypes.WindowStats) float64 {
	if r.Type.RateMetric() {
		return stats.Rate
	}
	return stats.Mean
}

// breached reports whether the window violates the rule.
func (r AlertRule) breached(stats datatypes.WindowStats) bool {
	if stats.Count < r.MinSamples {
		return false
	}
	return r.observed(stats) > r.Threshold
}

// message renders the alert text for a breach.
func (r AlertRule) message(stats datatypes.WindowStats) string {
	if r.Type.RateMetric() {
		return fmt.Sprintf("%s at %.1f%% exceeds %.1f%% over %s window",
			r.Type, r.observed(stats)*100, r.Threshold*100, stats.To.Sub(stats.From))
	}
	return fmt.Sprintf("%s mean %.1f exceeds %.1f over %s window",
		r.Type, r.observed(stats), r.Threshold, stats.To.Sub(stats.From))
}
