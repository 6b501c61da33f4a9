// Copyright (C) 2026 Lumenware (launchcontrol@lumenware.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package datatypes holds the domain types and HTTP DTOs shared by the
// launch-control packages.
package datatypes

import (
	"fmt"
	"time"
)

// Segment classifies a user for flag targeting. Segments are computed
// from UserContext in priority order; a user belongs to exactly one.
type Segment string

const (
	SegmentVIP      Segment = "vip"
	SegmentBeta     Segment = "beta"
	SegmentIndustry Segment = "industry"
	SegmentRole     Segment = "role"
	SegmentHistory  Segment = "returning"
	SegmentGeneral  Segment = "general"
)

// FlagConditions are the structured predicates a flag may carry beyond
// percentage rollout and segment targeting. All present conditions
// must hold for the flag to be enabled.
type FlagConditions struct {
	// MinHistoryCount requires at least this many prior assessments.
	MinHistoryCount int `json:"min_history_count,omitempty" yaml:"min_history_count"`

	// Industries restricts the flag to users in one of these
	// industries. Empty means no restriction.
	Industries []string `json:"industries,omitempty" yaml:"industries"`

	// ActiveHours restricts the flag to a daily time window in UTC,
	// expressed as hours [Start, End). Zero values mean always active.
	ActiveHoursStart int `json:"active_hours_start,omitempty" yaml:"active_hours_start"`
	ActiveHoursEnd   int `json:"active_hours_end,omitempty" yaml:"active_hours_end"`
}

// Empty reports whether no condition is set.
func (c FlagConditions) Empty() bool {
	return c.MinHistoryCount == 0 && len(c.Industries) == 0 &&
		c.ActiveHoursStart == 0 && c.ActiveHoursEnd == 0
}

// FeatureFlag is a progressive-rollout flag definition.
//
// Name is the unique key. RolloutPercentage is the fraction of users
// (0-100) the flag is active for; values outside that range are
// rejected at the store boundary. TargetSegments, when non-empty,
// restrict the flag to users whose computed segment is in the set.
type FeatureFlag struct {
	Name              string         `json:"name" yaml:"name"`
	Description       string         `json:"description,omitempty" yaml:"description"`
	Enabled           bool           `json:"enabled" yaml:"enabled"`
	RolloutPercentage float64        `json:"rollout_percentage" yaml:"rollout_percentage"`
	TargetSegments    []Segment      `json:"target_segments,omitempty" yaml:"target_segments"`
	Conditions        FlagConditions `json:"conditions,omitempty" yaml:"conditions"`

	// LaunchManaged marks the flag as governed by the phase
	// controller's rollout policy. Phase advances overwrite
	// RolloutPercentage on managed flags only.
	LaunchManaged bool `json:"launch_managed,omitempty" yaml:"launch_managed"`

	CreatedAt time.Time `json:"created_at" yaml:"-"`
	UpdatedAt time.Time `json:"updated_at" yaml:"-"`
}

// Validate checks flag invariants.
func (f FeatureFlag) Validate() error {
	if f.Name == "" {
		return fmt.Errorf("flag name is required")
	}
	if f.RolloutPercentage < 0 || f.RolloutPercentage > 100 {
		return fmt.Errorf("rollout percentage %.2f outside [0,100]", f.RolloutPercentage)
	}
	if f.Conditions.ActiveHoursStart < 0 || f.Conditions.ActiveHoursStart > 23 ||
		f.Conditions.ActiveHoursEnd < 0 || f.Conditions.ActiveHoursEnd > 24 {
		return fmt.Errorf("active hours window [%d,%d) invalid",
			f.Conditions.ActiveHoursStart, f.Conditions.ActiveHoursEnd)
	}
	return nil
}

// TargetsSegment reports whether seg is in the flag's target set.
func (f FeatureFlag) TargetsSegment(seg Segment) bool {
	for _, s := range f.TargetSegments {
		if s == seg {
			return true
		}
	}
	return false
}

// FlagPatch is a partial flag update. Nil fields are left unchanged.
type FlagPatch struct {
	Description       *string         `json:"description,omitempty"`
	Enabled           *bool           `json:"enabled,omitempty"`
	RolloutPercentage *float64        `json:"rollout_percentage,omitempty"`
	TargetSegments    *[]Segment      `json:"target_segments,omitempty"`
	Conditions        *FlagConditions `json:"conditions,omitempty"`
	LaunchManaged     *bool           `json:"launch_managed,omitempty"`
}

// Apply merges the patch into the flag and bumps UpdatedAt.
func (p FlagPatch) Apply(f *FeatureFlag, now time.Time) {
	if p.Description != nil {
		f.Description = *p.Description
	}
	if p.Enabled != nil {
		f.Enabled = *p.Enabled
	}
	if p.RolloutPercentage != nil {
		f.RolloutPercentage = *p.RolloutPercentage
	}
	if p.TargetSegments != nil {
		f.TargetSegments = *p.TargetSegments
	}
	if p.Conditions != nil {
		f.Conditions = *p.Conditions
	}
	if p.LaunchManaged != nil {
		f.LaunchManaged = *p.LaunchManaged
	}
	f.UpdatedAt = now
}

// UserContext carries the attributes used for segmentation. Identifier
// is a stable email or session id; it is only ever hashed, never used
// as identity beyond that.
type UserContext struct {
	Identifier   string `json:"identifier"`
	Industry     string `json:"industry,omitempty"`
	Role         string `json:"role,omitempty"`
	HistoryCount int    `json:"history_count,omitempty"`
}
