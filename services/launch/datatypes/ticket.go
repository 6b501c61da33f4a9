// Copyright (C) 2026 Lumenware (launchcontrol@lumenware.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package datatypes

import "time"

// TicketPriority enumerates SLA urgency, low to critical.
type TicketPriority string

const (
	PriorityLow      TicketPriority = "low"
	PriorityMedium   TicketPriority = "medium"
	PriorityHigh     TicketPriority = "high"
	PriorityCritical TicketPriority = "critical"
)

// priorityRank orders priorities for bump/cap arithmetic.
var priorityRank = map[TicketPriority]int{
	PriorityLow:      0,
	PriorityMedium:   1,
	PriorityHigh:     2,
	PriorityCritical: 3,
}

// Rank returns the numeric order of the priority (low=0 .. critical=3).
// Unknown priorities rank as medium.
func (p TicketPriority) Rank() int {
	if r, ok := priorityRank[p]; ok {
		return r
	}
	return priorityRank[PriorityMedium]
}

// Bump returns the next priority up, capped at critical.
func (p TicketPriority) Bump() TicketPriority {
	switch p {
	case PriorityLow:
		return PriorityMedium
	case PriorityMedium:
		return PriorityHigh
	default:
		return PriorityCritical
	}
}

// TicketStatus enumerates lifecycle states.
type TicketStatus string

const (
	TicketOpen     TicketStatus = "open"
	TicketResolved TicketStatus = "resolved"
)

// TicketResponse is one entry in a ticket's append-only response log.
type TicketResponse struct {
	Author    string    `json:"author"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// SupportTicket is the aggregate for a user-reported issue.
//
// Escalated only ever transitions false to true, which makes the
// periodic escalation sweep idempotent. ResolvedAt is stamped exactly
// once when the status first becomes resolved.
type SupportTicket struct {
	ID               string           `json:"id"`
	Category         string           `json:"category"`
	Subject          string           `json:"subject"`
	Description      string           `json:"description"`
	RequesterEmail   string           `json:"requester_email,omitempty"`
	ErrorMessages    []string         `json:"error_messages,omitempty"`
	Priority         TicketPriority   `json:"priority"`
	Status           TicketStatus     `json:"status"`
	Assignee         string           `json:"assignee,omitempty"`
	Escalated        bool             `json:"escalated"`
	Responses        []TicketResponse `json:"responses,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	ResponseDeadline time.Time        `json:"response_deadline"`
	ResolvedAt       time.Time        `json:"resolved_at,omitzero"`
}

// Overdue reports whether the ticket has missed its SLA deadline.
func (t SupportTicket) Overdue(now time.Time) bool {
	return t.Status == TicketOpen && now.After(t.ResponseDeadline)
}

// TicketPatch is a partial ticket update. Response, when set, is
// appended to the response log; the log itself is never rewritten.
type TicketPatch struct {
	Status   *TicketStatus   `json:"status,omitempty"`
	Assignee *string         `json:"assignee,omitempty"`
	Response *TicketResponse `json:"response,omitempty"`
}

// Sentiment classifies a feedback entry.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

// FeedbackEntry is one user-satisfaction report. Entries are
// append-only and feed the health score's satisfaction component.
type FeedbackEntry struct {
	ID        string    `json:"id"`
	Rating    int       `json:"rating"`
	Sentiment Sentiment `json:"sentiment"`
	Comment   string    `json:"comment,omitempty"`
	Email     string    `json:"email,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// FeedbackSummary is the aggregate the health score consumes.
type FeedbackSummary struct {
	Count          int     `json:"count"`
	AverageRating  float64 `json:"average_rating"`
	SentimentRatio float64 `json:"sentiment_ratio"`
}
