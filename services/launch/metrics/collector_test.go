// Copyright (C) 2026 Lumenware (launchcontrol@lumenware.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package metrics

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenware/launchcontrol/services/launch/datatypes"
	"github.com/lumenware/launchcontrol/services/launch/notify"
)

// recordingNotifier captures dispatched events for assertions.
type recordingNotifier struct {
	mu     sync.Mutex
	events []notify.Event
}

func (n *recordingNotifier) Send(ctx context.Context, event notify.Event) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	return nil
}

func (n *recordingNotifier) byType(t notify.EventType) []notify.Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []notify.Event
	for _, e := range n.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

func recordAt(c *Collector, mt datatypes.MetricType, at time.Time, values ...float64) {
	for _, v := range values {
		c.Record(datatypes.MetricSample{Type: mt, Timestamp: at, Value: v})
	}
}

func TestAggregate_MeanAndPercentiles(t *testing.T) {
	c := NewCollector(Config{}, nil, nil)
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	for i := 1; i <= 100; i++ {
		c.Record(datatypes.MetricSample{
			Type:      datatypes.MetricResponseTime,
			Timestamp: now.Add(-time.Duration(i) * time.Second),
			Value:     float64(i * 10), // 10..1000
		})
	}

	stats := c.Aggregate(datatypes.MetricResponseTime, now, 5*time.Minute)
	assert.Equal(t, 100, stats.Count)
	assert.InDelta(t, 505, stats.Mean, 0.001)
	assert.InDelta(t, 950, stats.P95, 0.001)
	assert.InDelta(t, 990, stats.P99, 0.001)
}

func TestAggregate_WindowExcludesOldSamples(t *testing.T) {
	c := NewCollector(Config{}, nil, nil)
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	recordAt(c, datatypes.MetricResponseTime, now.Add(-10*time.Minute), 9999)
	recordAt(c, datatypes.MetricResponseTime, now.Add(-1*time.Minute), 100)

	stats := c.Aggregate(datatypes.MetricResponseTime, now, 5*time.Minute)
	assert.Equal(t, 1, stats.Count)
	assert.InDelta(t, 100, stats.Mean, 0.001)
}

func TestAggregate_RateMetric(t *testing.T) {
	c := NewCollector(Config{}, nil, nil)
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	// 3 errors out of 10 requests.
	recordAt(c, datatypes.MetricErrorRate, now.Add(-time.Minute), 1, 1, 1, 0, 0, 0, 0, 0, 0, 0)

	stats := c.Aggregate(datatypes.MetricErrorRate, now, 5*time.Minute)
	assert.InDelta(t, 0.3, stats.Rate, 0.001)
}

func TestCheckAlerts_FiresOnceWhileActive(t *testing.T) {
	n := &recordingNotifier{}
	c := NewCollector(Config{}, n, nil)
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	// 10 response-time samples of 2500ms against the 2000ms threshold.
	for i := 0; i < 10; i++ {
		recordAt(c, datatypes.MetricResponseTime, now.Add(-time.Duration(i)*time.Second), 2500)
	}

	c.CheckAlerts(context.Background(), now)
	require.Len(t, c.ActiveAlerts(), 1, "breach should fire exactly one alert")
	alert := c.ActiveAlerts()[0]
	assert.Equal(t, datatypes.MetricResponseTime, alert.Type)
	assert.Equal(t, datatypes.SeverityHigh, alert.Severity)
	assert.Equal(t, datatypes.AlertActive, alert.Status)

	// Condition persists: the check must not re-fire.
	c.CheckAlerts(context.Background(), now.Add(time.Minute))
	c.CheckAlerts(context.Background(), now.Add(2*time.Minute))
	assert.Len(t, c.ActiveAlerts(), 1)
	assert.Len(t, n.byType(notify.EventAlertFired), 1, "persisting condition re-notified")
}

func TestCheckAlerts_NoAlertBelowThreshold(t *testing.T) {
	c := NewCollector(Config{}, nil, nil)
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 10; i++ {
		recordAt(c, datatypes.MetricResponseTime, now.Add(-time.Duration(i)*time.Second), 500)
	}

	c.CheckAlerts(context.Background(), now)
	assert.Empty(t, c.ActiveAlerts())
}

func TestCheckAlerts_MinSamplesSuppresses(t *testing.T) {
	c := NewCollector(Config{}, nil, nil)
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	// Two huge samples, below the rule's 5-sample floor.
	recordAt(c, datatypes.MetricResponseTime, now.Add(-time.Second), 99999, 99999)

	c.CheckAlerts(context.Background(), now)
	assert.Empty(t, c.ActiveAlerts())
}

func TestCheckAlerts_ResolvesOnClear(t *testing.T) {
	n := &recordingNotifier{}
	c := NewCollector(Config{}, n, nil)
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 10; i++ {
		recordAt(c, datatypes.MetricResponseTime, now.Add(-time.Duration(i)*time.Second), 3000)
	}
	c.CheckAlerts(context.Background(), now)
	require.Len(t, c.ActiveAlerts(), 1)

	// Ten minutes later the breaching samples have left the window.
	later := now.Add(10 * time.Minute)
	c.CheckAlerts(context.Background(), later)

	assert.Empty(t, c.ActiveAlerts())
	resolved := c.RecentAlerts()
	require.Len(t, resolved, 1)
	assert.Equal(t, datatypes.AlertResolved, resolved[0].Status)
	assert.Equal(t, later, resolved[0].ResolvedAt)
	assert.Len(t, n.byType(notify.EventAlertResolved), 1)
}

func TestCheckAlerts_RefiresAfterResolution(t *testing.T) {
	n := &recordingNotifier{}
	c := NewCollector(Config{}, n, nil)
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 10; i++ {
		recordAt(c, datatypes.MetricResponseTime, now.Add(-time.Duration(i)*time.Second), 3000)
	}
	c.CheckAlerts(context.Background(), now)
	c.CheckAlerts(context.Background(), now.Add(10*time.Minute)) // resolves

	// A fresh breach is a new alert.
	for i := 0; i < 10; i++ {
		recordAt(c, datatypes.MetricResponseTime, now.Add(20*time.Minute), 3000)
	}
	c.CheckAlerts(context.Background(), now.Add(21*time.Minute))

	assert.Len(t, c.ActiveAlerts(), 1)
	assert.Len(t, n.byType(notify.EventAlertFired), 2)
}

func TestCleanup_DropsExpiredSamples(t *testing.T) {
	c := NewCollector(Config{Retention: 24 * time.Hour}, nil, nil)
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	recordAt(c, datatypes.MetricMemory, now.Add(-48*time.Hour), 100)
	recordAt(c, datatypes.MetricMemory, now.Add(-time.Hour), 200)

	require.Equal(t, 2, c.SampleCount(datatypes.MetricMemory))
	c.Cleanup(now)
	assert.Equal(t, 1, c.SampleCount(datatypes.MetricMemory))
}

func TestRecord_DefaultsTimestamp(t *testing.T) {
	c := NewCollector(Config{}, nil, nil)
	c.Record(datatypes.MetricSample{Type: datatypes.MetricMemory, Value: 1})

	stats := c.Aggregate(datatypes.MetricMemory, time.Now().Add(time.Second), time.Minute)
	assert.Equal(t, 1, stats.Count)
}

func TestRecord_ConcurrentCallers(t *testing.T) {
	c := NewCollector(Config{}, nil, nil)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 250; j++ {
				c.Record(datatypes.MetricSample{Type: datatypes.MetricResponseTime, Value: 100})
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 2000, c.SampleCount(datatypes.MetricResponseTime))
}
