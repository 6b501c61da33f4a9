// Copyright (C) 2026 Lumenware (launchcontrol@lumenware.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrigger_RunsTask(t *testing.T) {
	s := New(nil)
	var calls atomic.Int64
	s.Add("sweep", time.Hour, func(ctx context.Context) { calls.Add(1) })

	require.True(t, s.Trigger(context.Background(), "sweep"))
	require.True(t, s.Trigger(context.Background(), "sweep"))
	assert.Equal(t, int64(2), calls.Load())
	assert.Equal(t, int64(2), s.Runs("sweep"))
}

func TestTrigger_UnknownTask(t *testing.T) {
	s := New(nil)
	assert.False(t, s.Trigger(context.Background(), "nope"))
}

func TestReentrancyGuard(t *testing.T) {
	s := New(nil)
	release := make(chan struct{})
	entered := make(chan struct{})
	var calls atomic.Int64
	s.Add("slow", time.Hour, func(ctx context.Context) {
		calls.Add(1)
		close(entered)
		<-release
	})

	done := make(chan struct{})
	go func() {
		s.Trigger(context.Background(), "slow")
		close(done)
	}()
	<-entered

	// Second trigger while the first is in flight must be skipped.
	assert.True(t, s.Trigger(context.Background(), "slow"))
	assert.Equal(t, int64(1), calls.Load())
	assert.Equal(t, int64(1), s.Skipped("slow"))

	close(release)
	<-done
	assert.Equal(t, int64(1), s.Runs("slow"))
}

func TestPanicContained(t *testing.T) {
	s := New(nil)
	var after atomic.Bool
	s.Add("explode", time.Hour, func(ctx context.Context) { panic("boom") })
	s.Add("fine", time.Hour, func(ctx context.Context) { after.Store(true) })

	assert.NotPanics(t, func() { s.Trigger(context.Background(), "explode") })
	// A panicked task releases its guard and can run again.
	assert.NotPanics(t, func() { s.Trigger(context.Background(), "explode") })
	s.Trigger(context.Background(), "fine")
	assert.True(t, after.Load())
}

func TestAdd_DuplicatePanics(t *testing.T) {
	s := New(nil)
	s.Add("once", time.Hour, func(ctx context.Context) {})
	assert.Panics(t, func() { s.Add("once", time.Hour, func(ctx context.Context) {}) })
	assert.Panics(t, func() { s.Add("bad", 0, func(ctx context.Context) {}) })
}

func TestStartStop(t *testing.T) {
	s := New(nil)
	var ticks atomic.Int64
	s.Add("fast", 5*time.Millisecond, func(ctx context.Context) { ticks.Add(1) })

	s.Start()
	assert.Eventually(t, func() bool { return ticks.Load() >= 3 },
		2*time.Second, 5*time.Millisecond)
	s.Stop()

	settled := ticks.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, settled, ticks.Load(), "tasks ran after Stop")
}

func TestStop_CancelsTaskContext(t *testing.T) {
	s := New(nil)
	started := make(chan struct{})
	var cancelled atomic.Bool
	var once sync.Once
	s.Add("ctx", 5*time.Millisecond, func(ctx context.Context) {
		once.Do(func() { close(started) })
		select {
		case <-ctx.Done():
			cancelled.Store(true)
		case <-time.After(2 * time.Second):
		}
	})

	s.Start()
	<-started
	s.Stop()
	assert.True(t, cancelled.Load())
}

func TestTaskNames_RegistrationOrder(t *testing.T) {
	s := New(nil)
	s.Add("a", time.Hour, func(ctx context.Context) {})
	s.Add("b", time.Hour, func(ctx context.Context) {})
	s.Add("c", time.Hour, func(ctx context.Context) {})
	assert.Equal(t, []string{"a", "b", "c"}, s.TaskNames())
}
