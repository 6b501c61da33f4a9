// Copyright (C) 2026 Lumenware (launchcontrol@lumenware.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package metrics

import (
	"math"
	"sort"
	"time"

	"github.com/lumenware/launchcontrol/services/launch/datatypes"
)

// computeWindow aggregates samples falling inside (to-window, to].
//
// For value metrics Mean/P95/P99 summarize the sample values. For rate
// metrics Rate is the fraction of samples with Value > 0 (a sample is
// one observation, positive value means the bad outcome occurred).
func computeWindow(metricType datatypes.MetricType, samples []datatypes.MetricSample, to time.Time, window time.Duration) datatypes.WindowStats {
	from := to.Add(-window)
	stats := datatypes.WindowStats{
		Type: metricType,
		From: from,
		To:   to,
	}

	var values []float64
	var sum float64
	var positive int
	for _, s := range samples {
		if s.Timestamp.After(from) && !s.Timestamp.After(to) {
			values = append(values, s.Value)
			sum += s.Value
			if s.Value > 0 {
				positive++
			}
		}
	}
	stats.Count = len(values)
	if stats.Count == 0 {
		return stats
	}

	stats.Mean = sum / float64(stats.Count)
	stats.Rate = float64(positive) / float64(stats.Count)

	sort.Float64s(values)
	stats.P95 = percentile(values, 0.95)
	stats.P99 = percentile(values, 0.99)
	return stats
}

// percentile reads the p-th percentile from sorted values using the
// nearest-rank method.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	rank := int(math.Ceil(p*float64(len(sorted)))) - 1
	if rank < 0 {
		rank = 0
	}
	if rank >= len(sorted) {
		rank = len(sorted) - 1
	}
	return sorted[rank]
}
