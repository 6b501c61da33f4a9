// Copyright (C) 2026 Lumenware (launchcontrol@lumenware.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package rollout

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/lumenware/launchcontrol/services/launch/datatypes"
)

// bucketHashVersion tags the bucketing function. Changing the hash
// reshuffles every user's bucket, which breaks rollout monotonicity,
// so any change must bump this version and be treated as a migration.
const bucketHashVersion = "v1"

// Engine answers enable/disable decisions for feature flags.
//
// Decisions are deterministic: identical (flag config, user) input
// always produces the same answer. Raising a flag's rollout
// percentage never disables a previously-enabled user, because the
// decision is a single inequality against a stable per-(flag,user)
// bucket value.
//
// Thread Safety: safe for concurrent use; the store serializes writes.
type Engine struct {
	store      FlagStore
	allowlists *datatypes.Allowlists
	logger     *slog.Logger
	now        func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the engine's time source. Tests use this to pin
// the time-of-day condition window.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine creates a rollout engine over the given store.
// Allowlists may be nil; segmentation then never yields vip or beta.
func NewEngine(store FlagStore, allowlists *datatypes.Allowlists, logger *slog.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{
		store:      store,
		allowlists: allowlists,
		logger:     logger,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SetFlag creates or replaces a flag definition.
func (e *Engine) SetFlag(flag datatypes.FeatureFlag) error {
	if flag.CreatedAt.IsZero() {
		flag.CreatedAt = e.now()
	}
	flag.UpdatedAt = e.now()
	if err := e.store.Put(flag); err != nil {
		return fmt.Errorf("set flag: %w", err)
	}
	e.logger.Info("flag set",
		"flag", flag.Name,
		"enabled", flag.Enabled,
		"rollout_percentage", flag.RolloutPercentage,
	)
	return nil
}

// UpdateFlag applies a partial update and returns the updated flag.
func (e *Engine) UpdateFlag(name string, patch datatypes.FlagPatch) (datatypes.FeatureFlag, error) {
	flag, err := e.store.Patch(name, patch, e.now())
	if err != nil {
		return datatypes.FeatureFlag{}, err
	}
	e.logger.Info("flag updated",
		"flag", flag.Name,
		"enabled", flag.Enabled,
		"rollout_percentage", flag.RolloutPercentage,
	)
	return flag, nil
}

// GetFlag returns a flag definition by name.
func (e *Engine) GetFlag(name string) (datatypes.FeatureFlag, error) {
	return e.store.Get(name)
}

// ListFlags returns all flag definitions sorted by name.
func (e *Engine) ListFlags() ([]datatypes.FeatureFlag, error) {
	return e.store.List()
}

// IsEnabled decides whether the named flag is active for the user.
//
// Checks run in order and the first failing one disables:
//  1. unknown flag or globally disabled (fail closed, unknown warns)
//  2. target segments, when set, must contain the user's segment
//  3. the user's bucket must fall inside the rollout percentage
//  4. structured conditions must all hold
func (e *Engine) IsEnabled(name string, user datatypes.UserContext) bool {
	flag, err := e.store.Get(name)
	if err != nil {
		if errors.Is(err, ErrFlagNotFound) {
			e.logger.Warn("flag check for unknown flag", "flag", name)
		} else {
			e.logger.Error("flag store read failed", "flag", name, "error", err)
		}
		return false
	}
	if !flag.Enabled {
		return false
	}

	if len(flag.TargetSegments) > 0 {
		seg := e.allowlists.SegmentFor(user)
		if !flag.TargetsSegment(seg) {
			return false
		}
	}

	if flag.RolloutPercentage < 100 {
		if Bucket(flag.Name, user.Identifier) >= flag.RolloutPercentage/100 {
			return false
		}
	}

	if !flag.Conditions.Empty() && !e.conditionsHold(flag.Conditions, user) {
		return false
	}

	return true
}

// conditionsHold evaluates the structured condition set; all present
// conditions must pass.
func (e *Engine) conditionsHold(c datatypes.FlagConditions, user datatypes.UserContext) bool {
	if c.MinHistoryCount > 0 && user.HistoryCount < c.MinHistoryCount {
		return false
	}
	if len(c.Industries) > 0 {
		match := false
		for _, ind := range c.Industries {
			if ind == user.Industry {
				match = true
				break
			}
		}
		if !match {
			return false
		}
	}
	if c.ActiveHoursStart != 0 || c.ActiveHoursEnd != 0 {
		hour := e.now().UTC().Hour()
		if c.ActiveHoursStart <= c.ActiveHoursEnd {
			if hour < c.ActiveHoursStart || hour >= c.ActiveHoursEnd {
				return false
			}
		} else {
			// Window wraps midnight, e.g. [22, 6).
			if hour < c.ActiveHoursStart && hour >= c.ActiveHoursEnd {
				return false
			}
		}
	}
	return true
}

// Bucket maps (flagName, identifier) to a stable pseudo-random value
// in [0,1). The hash covers both the flag name and the identifier so
// a user's percentile differs per flag; hashing the identifier alone
// would put the user in the same bucket for every flag.
func Bucket(flagName, identifier string) float64 {
	h := xxhash.Sum64String(bucketHashVersion + ":" + flagName + ":" + identifier)
	return float64(h) / float64(1<<64)
}
