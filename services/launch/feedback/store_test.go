// Copyright (C) 2026 Lumenware (launchcontrol@lumenware.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package feedback

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenware/launchcontrol/services/launch/datatypes"
)

func fixedClock(start time.Time) (func() time.Time, func(time.Duration)) {
	var mu sync.Mutex
	now := start
	return func() time.Time {
			mu.Lock()
			defer mu.Unlock()
			return now
		}, func(d time.Duration) {
			mu.Lock()
			defer mu.Unlock()
			now = now.Add(d)
		}
}

func TestRecord_FillsDefaults(t *testing.T) {
	now, _ := fixedClock(time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC))
	s := NewStore(nil, WithClock(now))

	entry := s.Record(datatypes.FeedbackRequest{Rating: 5, Email: "  User@Example.COM "})
	assert.NotEmpty(t, entry.ID)
	assert.Equal(t, datatypes.SentimentPositive, entry.Sentiment)
	assert.Equal(t, "user@example.com", entry.Email)
	assert.Equal(t, now(), entry.CreatedAt)
}

func TestRecord_SentimentFromRating(t *testing.T) {
	s := NewStore(nil)
	tests := []struct {
		rating int
		want   datatypes.Sentiment
	}{
		{1, datatypes.SentimentNegative},
		{2, datatypes.SentimentNegative},
		{3, datatypes.SentimentNeutral},
		{4, datatypes.SentimentPositive},
		{5, datatypes.SentimentPositive},
	}
	for _, tt := range tests {
		entry := s.Record(datatypes.FeedbackRequest{Rating: tt.rating})
		assert.Equal(t, tt.want, entry.Sentiment, "rating %d", tt.rating)
	}
}

func TestRecord_ExplicitSentimentWins(t *testing.T) {
	s := NewStore(nil)
	entry := s.Record(datatypes.FeedbackRequest{Rating: 5, Sentiment: "negative"})
	assert.Equal(t, datatypes.SentimentNegative, entry.Sentiment)
}

func TestSummary(t *testing.T) {
	s := NewStore(nil)
	s.Record(datatypes.FeedbackRequest{Rating: 5, Sentiment: "positive"})
	s.Record(datatypes.FeedbackRequest{Rating: 4, Sentiment: "positive"})
	s.Record(datatypes.FeedbackRequest{Rating: 1, Sentiment: "negative"})
	s.Record(datatypes.FeedbackRequest{Rating: 3, Sentiment: "neutral"})

	got := s.Summary(0)
	assert.Equal(t, 4, got.Count)
	assert.InDelta(t, 3.25, got.AverageRating, 1e-9)
	// Neutral entries do not count toward the ratio.
	assert.InDelta(t, 2.0/3.0, got.SentimentRatio, 1e-9)
}

func TestSummary_EmptyIsNeutral(t *testing.T) {
	s := NewStore(nil)
	got := s.Summary(time.Hour)
	assert.Equal(t, 0, got.Count)
	assert.Zero(t, got.AverageRating)
	assert.InDelta(t, 0.5, got.SentimentRatio, 1e-9)
}

func TestSummary_WindowExcludesOldEntries(t *testing.T) {
	now, advance := fixedClock(time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC))
	s := NewStore(nil, WithClock(now))

	s.Record(datatypes.FeedbackRequest{Rating: 1, Sentiment: "negative"})
	advance(25 * time.Hour)
	s.Record(datatypes.FeedbackRequest{Rating: 5, Sentiment: "positive"})

	got := s.Summary(24 * time.Hour)
	assert.Equal(t, 1, got.Count)
	assert.InDelta(t, 5.0, got.AverageRating, 1e-9)
	assert.InDelta(t, 1.0, got.SentimentRatio, 1e-9)
}

func TestRecent_NewestFirst(t *testing.T) {
	s := NewStore(nil)
	first := s.Record(datatypes.FeedbackRequest{Rating: 3})
	second := s.Record(datatypes.FeedbackRequest{Rating: 4})
	third := s.Record(datatypes.FeedbackRequest{Rating: 5})

	got := s.Recent(2)
	require.Len(t, got, 2)
	assert.Equal(t, third.ID, got[0].ID)
	assert.Equal(t, second.ID, got[1].ID)
	assert.NotEqual(t, first.ID, got[1].ID)
}

func TestCleanup(t *testing.T) {
	now, advance := fixedClock(time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC))
	s := NewStore(nil, WithClock(now), WithRetention(7*24*time.Hour))

	s.Record(datatypes.FeedbackRequest{Rating: 2})
	advance(8 * 24 * time.Hour)
	s.Record(datatypes.FeedbackRequest{Rating: 4})

	removed := s.Cleanup(now())
	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, s.Count())
}

func TestStore_ConcurrentAccess(t *testing.T) {
	s := NewStore(nil)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				s.Record(datatypes.FeedbackRequest{Rating: 1 + j%5})
				s.Summary(time.Hour)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 800, s.Count())
}
