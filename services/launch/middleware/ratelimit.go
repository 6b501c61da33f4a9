// Copyright (C) 2026 Lumenware (launchcontrol@lumenware.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimit describes one endpoint class's budget: r events per
// second with a burst allowance, tracked per client IP.
type RateLimit struct {
	PerSecond rate.Limit
	Burst     int
}

// Endpoint-class defaults. Submission endpoints are tight because
// they create durable state; reads get more headroom.
var (
	SubmitLimit    = RateLimit{PerSecond: 1, Burst: 5}
	TelemetryLimit = RateLimit{PerSecond: 50, Burst: 200}
	ReadLimit      = RateLimit{PerSecond: 5, Burst: 20}
)

// ipLimiter tracks one limiter per client IP, with idle eviction so
// the map does not grow without bound.
type ipLimiter struct {
	mu       sync.Mutex
	limiters map[string]*ipEntry
	limit    RateLimit
	maxIdle  time.Duration
}

type ipEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newIPLimiter(limit RateLimit) *ipLimiter {
	return &ipLimiter{
		limiters: make(map[string]*ipEntry),
		limit:    limit,
		maxIdle:  10 * time.Minute,
	}
}

func (l *ipLimiter) allow(ip string) bool {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.limiters[ip]
	if !ok {
		if len(l.limiters) > 1024 {
			l.evictIdle(now)
		}
		entry = &ipEntry{limiter: rate.NewLimiter(l.limit.PerSecond, l.limit.Burst)}
		l.limiters[ip] = entry
	}
	entry.lastSeen = now
	return entry.limiter.Allow()
}

// evictIdle drops limiters idle past maxIdle. Called under the lock.
func (l *ipLimiter) evictIdle(now time.Time) {
	for ip, entry := range l.limiters {
		if now.Sub(entry.lastSeen) > l.maxIdle {
			delete(l.limiters, ip)
		}
	}
}

// PerClientRateLimit applies the given budget per client IP and
// answers 429 once it is exhausted.
func PerClientRateLimit(limit RateLimit) gin.HandlerFunc {
	limiter := newIPLimiter(limit)
	return func(c *gin.Context) {
		if !limiter.allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded",
			})
			return
		}
		c.Next()
	}
}
