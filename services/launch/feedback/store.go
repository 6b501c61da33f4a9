// Copyright (C) 2026 Lumenware (launchcontrol@lumenware.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package feedback collects user-satisfaction reports and distills
// them into the aggregate the health score and dashboard consume.
//
// The store is append-only in memory. Entries past the retention
// horizon are dropped by the periodic cleanup task, mirroring the
// metrics retention sweep; everything inside the horizon stays
// available for windowed summaries.
package feedback

import (
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lumenware/launchcontrol/services/launch/datatypes"
)

const (
	// DefaultRetention matches the metrics sample retention: sweep
	// away entries older than this during cleanup.
	DefaultRetention = 30 * 24 * time.Hour

	// DefaultSummaryWindow bounds Summary when the caller does not
	// supply a window. Health scoring cares about recent sentiment,
	// not the all-time average.
	DefaultSummaryWindow = 24 * time.Hour
)

// Store holds feedback entries and serves windowed aggregates.
type Store struct {
	mu      sync.RWMutex
	entries []datatypes.FeedbackEntry

	retention time.Duration
	logger    *slog.Logger
	now       func() time.Time
}

// Option customizes Store construction.
type Option func(*Store)

// WithClock overrides the time source. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithRetention overrides the cleanup horizon.
func WithRetention(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.retention = d
		}
	}
}

// NewStore returns an empty feedback store.
func NewStore(logger *slog.Logger, opts ...Option) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{
		retention: DefaultRetention,
		logger:    logger,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Record validates nothing beyond what the request binding already
// enforced: it assigns an ID, fills in a missing sentiment from the
// rating, and appends the entry.
//
// Rating-derived sentiment follows the obvious mapping: 4-5 positive,
// 3 neutral, 1-2 negative.
func (s *Store) Record(req datatypes.FeedbackRequest) datatypes.FeedbackEntry {
	entry := datatypes.FeedbackEntry{
		ID:        uuid.NewString(),
		Rating:    req.Rating,
		Sentiment: datatypes.Sentiment(req.Sentiment),
		Comment:   strings.TrimSpace(req.Comment),
		Email:     strings.TrimSpace(strings.ToLower(req.Email)),
		CreatedAt: s.now().UTC(),
	}
	if entry.Sentiment == "" {
		entry.Sentiment = sentimentForRating(req.Rating)
	}

	s.mu.Lock()
	s.entries = append(s.entries, entry)
	s.mu.Unlock()

	s.logger.Debug("feedback recorded",
		"id", entry.ID,
		"rating", entry.Rating,
		"sentiment", string(entry.Sentiment))
	return entry
}

// Summary aggregates entries from the trailing window ending now. A
// zero window falls back to DefaultSummaryWindow. With no entries in
// the window the aggregate is the neutral default: zero count, zero
// average, sentiment ratio 0.5.
func (s *Store) Summary(window time.Duration) datatypes.FeedbackSummary {
	if window <= 0 {
		window = DefaultSummaryWindow
	}
	cutoff := s.now().Add(-window)

	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		count     int
		ratingSum int
		positive  int
		negative  int
	)
	for _, e := range s.entries {
		if e.CreatedAt.Before(cutoff) {
			continue
		}
		count++
		ratingSum += e.Rating
		switch e.Sentiment {
		case datatypes.SentimentPositive:
			positive++
		case datatypes.SentimentNegative:
			negative++
		}
	}

	summary := datatypes.FeedbackSummary{Count: count, SentimentRatio: 0.5}
	if count > 0 {
		summary.AverageRating = float64(ratingSum) / float64(count)
	}
	if positive+negative > 0 {
		summary.SentimentRatio = float64(positive) / float64(positive+negative)
	}
	return summary
}

// Recent returns up to limit entries, newest first, for the dashboard.
func (s *Store) Recent(limit int) []datatypes.FeedbackEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 || limit > len(s.entries) {
		limit = len(s.entries)
	}
	out := make([]datatypes.FeedbackEntry, 0, limit)
	for i := len(s.entries) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.entries[i])
	}
	return out
}

// Count returns the total number of retained entries.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Cleanup drops entries older than the retention horizon and reports
// how many were removed.
func (s *Store) Cleanup(now time.Time) int {
	cutoff := now.Add(-s.retention)

	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.entries[:0]
	for _, e := range s.entries {
		if !e.CreatedAt.Before(cutoff) {
			kept = append(kept, e)
		}
	}
	removed := len(s.entries) - len(kept)
	s.entries = kept

	if removed > 0 {
		s.logger.Info("feedback cleanup", "removed", removed, "kept", len(kept))
	}
	return removed
}

func sentimentForRating(rating int) datatypes.Sentiment {
	switch {
	case rating >= 4:
		return datatypes.SentimentPositive
	case rating <= 2:
		return datatypes.SentimentNegative
	default:
		return datatypes.SentimentNeutral
	}
}
