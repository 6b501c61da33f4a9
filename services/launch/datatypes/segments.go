// Copyright (C) 2026 Lumenware (launchcontrol@lumenware.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package datatypes

import "strings"

// Allowlists holds the VIP and beta membership sets used by flag
// segmentation and ticket priority derivation. Lookups are
// case-insensitive on the identifier.
type Allowlists struct {
	vip  map[string]struct{}
	beta map[string]struct{}
}

// NewAllowlists builds Allowlists from raw identifier slices.
func NewAllowlists(vip, beta []string) *Allowlists {
	a := &Allowlists{
		vip:  make(map[string]struct{}, len(vip)),
		beta: make(map[string]struct{}, len(beta)),
	}
	for _, id := range vip {
		a.vip[strings.ToLower(strings.TrimSpace(id))] = struct{}{}
	}
	for _, id := range beta {
		a.beta[strings.ToLower(strings.TrimSpace(id))] = struct{}{}
	}
	return a
}

// IsVIP reports VIP allow-list membership.
func (a *Allowlists) IsVIP(identifier string) bool {
	if a == nil {
		return false
	}
	_, ok := a.vip[strings.ToLower(strings.TrimSpace(identifier))]
	return ok
}

// IsBeta reports beta allow-list membership.
func (a *Allowlists) IsBeta(identifier string) bool {
	if a == nil {
		return false
	}
	_, ok := a.beta[strings.ToLower(strings.TrimSpace(identifier))]
	return ok
}

// SegmentFor computes the user's segment in priority order: VIP
// allow-list, beta allow-list, industry tag, role tag, prior
// assessment history, general. A user belongs to exactly one segment,
// the highest-priority one that matches.
func (a *Allowlists) SegmentFor(user UserContext) Segment {
	switch {
	case a.IsVIP(user.Identifier):
		return SegmentVIP
	case a.IsBeta(user.Identifier):
		return SegmentBeta
	case user.Industry != "":
		return SegmentIndustry
	case user.Role != "":
		return SegmentRole
	case user.HistoryCount > 0:
		return SegmentHistory
	default:
		return SegmentGeneral
	}
}
