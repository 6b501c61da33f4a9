// Copyright (C) 2026 Lumenware (launchcontrol@lumenware.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package phase

import (
	"time"

	"github.com/lumenware/launchcontrol/services/launch/datatypes"
)

// HealthConfig holds the banded deductions and weights that turn raw
// signals into the composite 0-100 score. Zero values take defaults.
type HealthConfig struct {
	// Window is the trailing window sampled from the collector and
	// feedback store per evaluation.
	Window time.Duration

	// PerformanceWeight and SatisfactionWeight split the composite
	// between the two positive signals; they should sum to 1.
	PerformanceWeight  float64
	SatisfactionWeight float64

	// OverdueTicketPenalty is deducted per overdue open ticket,
	// capped at OverduePenaltyCap.
	OverdueTicketPenalty float64
	OverduePenaltyCap    float64
}

func (c HealthConfig) withDefaults() HealthConfig {
	if c.Window <= 0 {
		c.Window = 5 * time.Minute
	}
	if c.PerformanceWeight <= 0 && c.SatisfactionWeight <= 0 {
		c.PerformanceWeight = 0.6
		c.SatisfactionWeight = 0.4
	}
	if c.OverdueTicketPenalty <= 0 {
		c.OverdueTicketPenalty = 5
	}
	if c.OverduePenaltyCap <= 0 {
		c.OverduePenaltyCap = 30
	}
	return c
}

// Deduction bands for the performance score. Each signal contributes
// its worst matching band; the score is 100 minus the deductions,
// floored at zero.
type perfBand struct {
	threshold float64
	deduction float64
}

var (
	responseTimeBands = []perfBand{
		{2000, 40},
		{1000, 25},
		{500, 10},
	}
	errorRateBands = []perfBand{
		{0.05, 40},
		{0.02, 25},
		{0.01, 10},
	}
	memoryBands = []perfBand{
		{512, 30},
		{400, 15},
	}
)

func bandDeduction(value float64, bands []perfBand) float64 {
	for _, b := range bands {
		if value > b.threshold {
			return b.deduction
		}
	}
	return 0
}

// performanceScore turns window stats into a 0-100 value. Windows
// with no samples contribute no deduction: absence of traffic is not
// evidence of a problem.
func performanceScore(responseTime, errorRate, memory datatypes.WindowStats) float64 {
	score := 100.0
	if responseTime.Count > 0 {
		score -= bandDeduction(responseTime.Mean, responseTimeBands)
	}
	if errorRate.Count > 0 {
		score -= bandDeduction(errorRate.Rate, errorRateBands)
	}
	if memory.Count > 0 {
		score -= bandDeduction(memory.Mean, memoryBands)
	}
	return clampScore(score)
}

// satisfactionScore scales the average rating to 0-100 and shifts it
// by the sentiment ratio: a fully positive ratio adds 10 points, a
// fully negative one removes 10, neutral (0.5) leaves it untouched.
// An empty summary is the neutral default of 70.
func satisfactionScore(summary datatypes.FeedbackSummary) float64 {
	if summary.Count == 0 {
		return 70
	}
	score := summary.AverageRating * 20
	score += (summary.SentimentRatio - 0.5) * 20
	return clampScore(score)
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
