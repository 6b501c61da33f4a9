// Copyright (C) 2026 Lumenware (launchcontrol@lumenware.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package tickets

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lumenware/launchcontrol/services/launch/datatypes"
	"github.com/lumenware/launchcontrol/services/launch/notify"
)

// Config tunes priority derivation and SLA timing.
type Config struct {
	// SLA maps each priority to its first-response window.
	// Default: critical 1h, high 4h, medium 24h, low 72h.
	SLA map[datatypes.TicketPriority]time.Duration

	// HighPriorityCategories force at least high priority.
	// Default: data_loss, billing, security.
	HighPriorityCategories []string

	// UrgencyKeywords in the description force critical priority.
	// Default: "urgent", "blocked", "down", "outage", "cannot access".
	UrgencyKeywords []string

	// CriticalResponseGrace is how long an unanswered critical ticket
	// waits before escalating even inside its SLA. Default: 30m.
	CriticalResponseGrace time.Duration

	// ResolvedRetention is how long resolved tickets are kept before
	// the cleanup sweep removes them. Default: 30 days.
	ResolvedRetention time.Duration
}

// withDefaults fills zero fields.
func (c Config) withDefaults() Config {
	if c.SLA == nil {
		c.SLA = map[datatypes.TicketPriority]time.Duration{
			datatypes.PriorityCritical: time.Hour,
			datatypes.PriorityHigh:     4 * time.Hour,
			datatypes.PriorityMedium:   24 * time.Hour,
			datatypes.PriorityLow:      72 * time.Hour,
		}
	}
	if c.HighPriorityCategories == nil {
		c.HighPriorityCategories = []string{"data_loss", "billing", "security"}
	}
	if c.UrgencyKeywords == nil {
		c.UrgencyKeywords = []string{"urgent", "blocked", "down", "outage", "cannot access"}
	}
	if c.CriticalResponseGrace == 0 {
		c.CriticalResponseGrace = 30 * time.Minute
	}
	if c.ResolvedRetention == 0 {
		c.ResolvedRetention = 30 * 24 * time.Hour
	}
	return c
}

// Engine creates, updates, and escalates support tickets.
//
// Thread Safety: safe for concurrent use. Escalation is idempotent:
// Escalated only transitions false to true, and the store's Mutate
// makes each escalation a single transaction, so overlapping sweeps
// cannot double-bump a ticket.
type Engine struct {
	store      TicketStore
	config     Config
	allowlists *datatypes.Allowlists
	notifier   notify.Notifier
	logger     *slog.Logger
	now        func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the engine's time source for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine creates a ticket engine. Allowlists and notifier may be
// nil.
func NewEngine(store TicketStore, config Config, allowlists *datatypes.Allowlists, notifier notify.Notifier, logger *slog.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{
		store:      store,
		config:     config.withDefaults(),
		allowlists: allowlists,
		notifier:   notifier,
		logger:     logger,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Create derives priority, stamps the SLA deadline, and stores the
// ticket.
func (e *Engine) Create(req datatypes.IssueReportRequest) (datatypes.SupportTicket, error) {
	now := e.now()
	priority := e.derivePriority(req)
	ticket := datatypes.SupportTicket{
		ID:               uuid.NewString(),
		Category:         req.Category,
		Subject:          req.Subject,
		Description:      req.Description,
		RequesterEmail:   req.RequesterEmail,
		ErrorMessages:    req.ErrorMessages,
		Priority:         priority,
		Status:           datatypes.TicketOpen,
		CreatedAt:        now,
		ResponseDeadline: now.Add(e.slaFor(priority)),
	}
	if err := e.store.Put(ticket); err != nil {
		return datatypes.SupportTicket{}, fmt.Errorf("store ticket: %w", err)
	}
	e.logger.Info("ticket created",
		"ticket_id", ticket.ID,
		"category", ticket.Category,
		"priority", string(ticket.Priority),
		"response_deadline", ticket.ResponseDeadline,
	)
	return ticket, nil
}

// Get returns the ticket by id.
func (e *Engine) Get(id string) (datatypes.SupportTicket, error) {
	return e.store.Get(id)
}

// List returns all tickets, oldest first.
func (e *Engine) List() ([]datatypes.SupportTicket, error) {
	return e.store.List()
}

// Update applies a patch. Responses append to the ordered log;
// resolving stamps ResolvedAt exactly once and later updates cannot
// reset it.
func (e *Engine) Update(id string, patch datatypes.TicketPatch) (datatypes.SupportTicket, error) {
	now := e.now()
	return e.store.Mutate(id, func(t *datatypes.SupportTicket) error {
		if patch.Assignee != nil {
			t.Assignee = *patch.Assignee
		}
		if patch.Response != nil {
			resp := *patch.Response
			if resp.CreatedAt.IsZero() {
				resp.CreatedAt = now
			}
			t.Responses = append(t.Responses, resp)
		}
		if patch.Status != nil {
			switch *patch.Status {
			case datatypes.TicketResolved:
				t.Status = datatypes.TicketResolved
				if t.ResolvedAt.IsZero() {
					t.ResolvedAt = now
				}
			case datatypes.TicketOpen:
				// Reopening keeps the original ResolvedAt history.
				t.Status = datatypes.TicketOpen
			default:
				return fmt.Errorf("invalid ticket status %q", *patch.Status)
			}
		}
		return nil
	})
}

// Sweep escalates every overdue ticket. Safe to run concurrently with
// itself and repeatedly: already-escalated tickets are skipped.
func (e *Engine) Sweep(ctx context.Context) int {
	now := e.now()
	all, err := e.store.List()
	if err != nil {
		e.logger.Error("escalation sweep list failed", "error", err)
		return 0
	}

	escalated := 0
	for _, t := range all {
		if !e.needsEscalation(t, now) {
			continue
		}
		updated, err := e.escalate(t.ID, now)
		if err != nil {
			e.logger.Error("escalation failed", "ticket_id", t.ID, "error", err)
			continue
		}
		if updated.Escalated && !t.Escalated {
			escalated++
			notify.Dispatch(ctx, e.notifier, e.logger, notify.Event{
				Type:     notify.EventTicketEscalated,
				Severity: string(updated.Priority),
				Message:  fmt.Sprintf("ticket %s escalated to %s", updated.ID, updated.Priority),
				Payload: map[string]any{
					"ticket_id":    updated.ID,
					"priority":     string(updated.Priority),
					"new_deadline": updated.ResponseDeadline,
				},
			})
		}
	}
	if escalated > 0 {
		e.logger.Warn("escalation sweep", "tickets_escalated", escalated)
	}
	return escalated
}

// Cleanup removes resolved tickets past retention.
func (e *Engine) Cleanup(now time.Time) int {
	all, err := e.store.List()
	if err != nil {
		e.logger.Error("ticket cleanup list failed", "error", err)
		return 0
	}
	cutoff := now.Add(-e.config.ResolvedRetention)
	removed := 0
	for _, t := range all {
		if t.Status == datatypes.TicketResolved && !t.ResolvedAt.IsZero() && t.ResolvedAt.Before(cutoff) {
			if err := e.store.Delete(t.ID); err == nil {
				removed++
			}
		}
	}
	return removed
}

// OverdueCount returns open tickets past their deadline. The health
// score uses this as its support-signal penalty input.
func (e *Engine) OverdueCount(now time.Time) int {
	all, err := e.store.List()
	if err != nil {
		return 0
	}
	n := 0
	for _, t := range all {
		if t.Overdue(now) {
			n++
		}
	}
	return n
}

// OpenCount returns tickets currently open.
func (e *Engine) OpenCount() int {
	all, err := e.store.List()
	if err != nil {
		return 0
	}
	n := 0
	for _, t := range all {
		if t.Status == datatypes.TicketOpen {
			n++
		}
	}
	return n
}

// SLAFor exposes the response window for a priority, used by the
// submission endpoint's response-time estimate.
func (e *Engine) SLAFor(priority datatypes.TicketPriority) time.Duration {
	return e.slaFor(priority)
}

// needsEscalation implements the escalation predicate: past the SLA
// deadline and still open, or critical with no response after the
// grace period. Already-escalated tickets never re-escalate.
func (e *Engine) needsEscalation(t datatypes.SupportTicket, now time.Time) bool {
	if t.Escalated || t.Status != datatypes.TicketOpen {
		return false
	}
	if now.After(t.ResponseDeadline) {
		return true
	}
	if t.Priority == datatypes.PriorityCritical && len(t.Responses) == 0 &&
		now.After(t.CreatedAt.Add(e.config.CriticalResponseGrace)) {
		return true
	}
	return false
}

// escalate bumps priority one level, marks the ticket escalated, and
// recomputes the deadline from the new priority. The whole step runs
// inside one store mutation; the re-check of the predicate inside fn
// makes concurrent sweeps idempotent.
func (e *Engine) escalate(id string, now time.Time) (datatypes.SupportTicket, error) {
	return e.store.Mutate(id, func(t *datatypes.SupportTicket) error {
		if !e.needsEscalation(*t, now) {
			return nil
		}
		t.Priority = t.Priority.Bump()
		t.Escalated = true
		t.ResponseDeadline = now.Add(e.slaFor(t.Priority))
		e.logger.Warn("ticket escalated",
			"ticket_id", t.ID,
			"priority", string(t.Priority),
			"new_deadline", t.ResponseDeadline,
		)
		return nil
	})
}

// derivePriority computes the ticket priority as a max of signals,
// never a sum:
//
//   - start at medium
//   - high when the category is high-priority or error messages were
//     captured
//   - critical when urgency keywords appear in the description
//   - a VIP requester bumps one level only; VIP alone never yields
//     critical unless the ticket is already high
func (e *Engine) derivePriority(req datatypes.IssueReportRequest) datatypes.TicketPriority {
	priority := datatypes.PriorityMedium

	if e.isHighPriorityCategory(req.Category) || len(req.ErrorMessages) > 0 {
		priority = datatypes.PriorityHigh
	}
	if e.hasUrgencyKeyword(req.Description) {
		priority = datatypes.PriorityCritical
	}
	if e.allowlists.IsVIP(req.RequesterEmail) && priority != datatypes.PriorityCritical {
		priority = priority.Bump()
	}
	return priority
}

func (e *Engine) isHighPriorityCategory(category string) bool {
	for _, c := range e.config.HighPriorityCategories {
		if c == category {
			return true
		}
	}
	return false
}

func (e *Engine) hasUrgencyKeyword(description string) bool {
	lower := strings.ToLower(description)
	for _, kw := range e.config.UrgencyKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func (e *Engine) slaFor(priority datatypes.TicketPriority) time.Duration {
	if d, ok := e.config.SLA[priority]; ok {
		return d
	}
	return e.config.SLA[datatypes.PriorityMedium]
}
