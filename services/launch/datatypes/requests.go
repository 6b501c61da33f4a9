// Copyright (C) 2026 Lumenware (launchcontrol@lumenware.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package datatypes

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// IssueReportRequest creates a support ticket.
type IssueReportRequest struct {
	Category       string   `json:"category" binding:"required,oneof=bug billing account assessment data_loss security other"`
	Subject        string   `json:"subject" binding:"required,max=200"`
	Description    string   `json:"description" binding:"required,max=4000"`
	RequesterEmail string   `json:"requester_email" binding:"omitempty,email,max=254"`
	ErrorMessages  []string `json:"error_messages" binding:"omitempty,max=20,dive,max=2000"`
}

// FeedbackRequest records a satisfaction report.
type FeedbackRequest struct {
	Rating    int    `json:"rating" binding:"required,min=1,max=5"`
	Sentiment string `json:"sentiment" binding:"omitempty,oneof=positive neutral negative"`
	Comment   string `json:"comment" binding:"omitempty,max=4000"`
	Email     string `json:"email" binding:"omitempty,email,max=254"`
}

// TelemetryRequest ingests one metric sample. Timestamp defaults to
// the server clock when omitted; ingestion is at-least-once with no
// dedup key.
type TelemetryRequest struct {
	Type      string            `json:"type" binding:"required,max=64"`
	Value     float64           `json:"value"`
	Timestamp *time.Time        `json:"timestamp,omitempty"`
	Tags      map[string]string `json:"tags" binding:"omitempty,max=10"`
}

// FlagUpsertRequest creates or replaces a flag definition.
type FlagUpsertRequest struct {
	Name              string         `json:"name" binding:"required,max=64"`
	Description       string         `json:"description" binding:"omitempty,max=500"`
	Enabled           bool           `json:"enabled"`
	RolloutPercentage float64        `json:"rollout_percentage" binding:"min=0,max=100"`
	TargetSegments    []Segment      `json:"target_segments" binding:"omitempty,dive,oneof=vip beta industry role returning general"`
	Conditions        FlagConditions `json:"conditions"`
	LaunchManaged     bool           `json:"launch_managed"`
}

// Flag converts the request into a domain flag stamped at now.
func (r FlagUpsertRequest) Flag(now time.Time) FeatureFlag {
	return FeatureFlag{
		Name:              r.Name,
		Description:       r.Description,
		Enabled:           r.Enabled,
		RolloutPercentage: r.RolloutPercentage,
		TargetSegments:    r.TargetSegments,
		Conditions:        r.Conditions,
		LaunchManaged:     r.LaunchManaged,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

// ValidationErrorList maps validator errors to a caller-facing list of
// field problems. Non-validator errors collapse to a single entry.
func ValidationErrorList(err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}
	}
	out := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, fmt.Sprintf("%s: failed %q constraint", strings.ToLower(fe.Field()), fe.Tag()))
	}
	return out
}
