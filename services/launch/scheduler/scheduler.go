// Copyright (C) 2026 Lumenware (launchcontrol@lumenware.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package scheduler runs the maintenance loop: a small set of named
// periodic tasks (aggregation, alert checks, ticket sweeps, cleanup,
// phase evaluation, status reports), each on its own cadence, each
// guarded against re-entrancy. A task still running when its next
// tick fires is skipped, never run concurrently with itself.
package scheduler

import (
	"context"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"
)

// TaskFunc is one maintenance task body. The context is cancelled on
// scheduler shutdown; tasks should honor it on long operations but
// are otherwise fire-and-forget per tick.
type TaskFunc func(ctx context.Context)

type task struct {
	name     string
	interval time.Duration
	fn       TaskFunc

	// running guards against overlapping executions of the same task.
	running atomic.Bool
	skipped atomic.Int64
	runs    atomic.Int64
}

// Scheduler owns the periodic tasks. Add tasks before Start; Stop
// waits for in-flight ticks to finish.
//
// Thread Safety: Start and Stop must be called at most once each.
// Trigger is safe from any goroutine.
type Scheduler struct {
	mu     sync.Mutex
	tasks  []*task
	byName map[string]*task

	stopCh  chan struct{}
	wg      sync.WaitGroup
	started atomic.Bool
	cancel  context.CancelFunc
	logger  *slog.Logger
}

// New returns an empty scheduler.
func New(logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		byName: make(map[string]*task),
		stopCh: make(chan struct{}),
		logger: logger,
	}
}

// Add registers a named periodic task. Panics on a duplicate name or
// non-positive interval; both are wiring bugs, not runtime conditions.
func (s *Scheduler) Add(name string, interval time.Duration, fn TaskFunc) {
	if interval <= 0 {
		panic("scheduler: non-positive interval for task " + name)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.byName[name]; dup {
		panic("scheduler: duplicate task " + name)
	}
	t := &task{name: name, interval: interval, fn: fn}
	s.tasks = append(s.tasks, t)
	s.byName[name] = t
}

// Start launches one goroutine per task. Returns immediately.
func (s *Scheduler) Start() {
	if !s.started.CompareAndSwap(false, true) {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.mu.Lock()
	tasks := append([]*task(nil), s.tasks...)
	s.mu.Unlock()

	for _, t := range tasks {
		s.wg.Add(1)
		go s.runLoop(ctx, t)
	}
	s.logger.Info("scheduler started", "tasks", len(tasks))
}

func (s *Scheduler) runLoop(ctx context.Context, t *task) {
	defer s.wg.Done()

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	s.logger.Debug("task loop started", "task", t.name, "interval", t.interval)

	for {
		select {
		case <-s.stopCh:
			s.logger.Debug("task loop stopped", "task", t.name)
			return
		case <-ticker.C:
			s.runTask(ctx, t)
		}
	}
}

// runTask executes one tick with the re-entrancy guard and panic
// containment. A panicking task logs and releases its guard; the
// scheduler keeps running.
func (s *Scheduler) runTask(ctx context.Context, t *task) {
	if !t.running.CompareAndSwap(false, true) {
		t.skipped.Add(1)
		s.logger.Warn("tick skipped, previous run still active", "task", t.name)
		return
	}
	defer t.running.Store(false)
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("task panicked",
				"task", t.name,
				"panic", r,
				"stack", string(debug.Stack()))
		}
	}()

	start := time.Now()
	t.fn(ctx)
	t.runs.Add(1)
	if elapsed := time.Since(start); elapsed > t.interval {
		s.logger.Warn("task overran its interval",
			"task", t.name,
			"elapsed", elapsed,
			"interval", t.interval)
	}
}

// Trigger runs a task by name immediately, subject to the same
// re-entrancy guard as a timer tick. Reports whether the task exists.
// Used by tests and the admin surface.
func (s *Scheduler) Trigger(ctx context.Context, name string) bool {
	s.mu.Lock()
	t, ok := s.byName[name]
	s.mu.Unlock()
	if !ok {
		return false
	}
	s.runTask(ctx, t)
	return true
}

// TaskNames lists registered tasks in registration order.
func (s *Scheduler) TaskNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, len(s.tasks))
	for i, t := range s.tasks {
		names[i] = t.name
	}
	return names
}

// Runs reports how many times the named task has completed.
func (s *Scheduler) Runs(name string) int64 {
	s.mu.Lock()
	t, ok := s.byName[name]
	s.mu.Unlock()
	if !ok {
		return 0
	}
	return t.runs.Load()
}

// Skipped reports how many ticks the named task has skipped to the
// re-entrancy guard.
func (s *Scheduler) Skipped(name string) int64 {
	s.mu.Lock()
	t, ok := s.byName[name]
	s.mu.Unlock()
	if !ok {
		return 0
	}
	return t.skipped.Load()
}

// Stop signals all task loops, cancels in-flight task contexts, and
// waits for the loops to exit.
func (s *Scheduler) Stop() {
	if !s.started.Load() {
		return
	}
	close(s.stopCh)
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
	s.logger.Info("scheduler stopped")
}
