// Copyright (C) 2026 Lumenware (launchcontrol@lumenware.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package validation provides input validators for user-submitted data.
//
// These validators guard values that end up in store keys, log lines,
// or outbound notifications. Structured request bodies use
// go-playground/validator tags in the datatypes package; the functions
// here cover the cases tags cannot express (normalization, re-usable
// single-value checks).
package validation

import (
	"fmt"
	"regexp"
	"strings"
)

// flagNamePattern matches valid feature-flag names.
// Allows: lowercase letters, digits, underscores, hyphens, dots.
// Must start with a letter. Max length: 64 characters.
var flagNamePattern = regexp.MustCompile(`^[a-z][a-z0-9_.\-]{0,63}$`)

// emailPattern is a pragmatic email shape check, not an RFC 5322
// parser. Deliverability is the notifier's problem.
var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// MaxTextLength bounds free-text fields (ticket descriptions, feedback
// comments) to keep store entries and notification payloads small.
const MaxTextLength = 4000

// ValidateFlagName validates a feature-flag name.
//
// Valid names are 1-64 characters, start with a lowercase letter, and
// contain only lowercase letters, digits, underscores, hyphens, or
// dots.
func ValidateFlagName(name string) error {
	if name == "" {
		return fmt.Errorf("flag name cannot be empty")
	}
	if !flagNamePattern.MatchString(name) {
		return fmt.Errorf("invalid flag name: %q (must be 1-64 lowercase alphanumeric chars, underscores, hyphens, or dots, starting with a letter)", name)
	}
	return nil
}

// SanitizeFlagName normalizes and validates a flag name. Returns the
// lowercase trimmed name if valid.
func SanitizeFlagName(name string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	if err := ValidateFlagName(normalized); err != nil {
		return "", err
	}
	return normalized, nil
}

// ValidateEmail validates an optional contact email. Empty is allowed;
// the field is optional on feedback and issue submissions.
func ValidateEmail(email string) error {
	if email == "" {
		return nil
	}
	if len(email) > 254 {
		return fmt.Errorf("email too long (%d chars, max 254)", len(email))
	}
	if !emailPattern.MatchString(email) {
		return fmt.Errorf("invalid email format: %q", email)
	}
	return nil
}

// ValidateText validates a bounded free-text field.
func ValidateText(field, text string) error {
	if len(text) > MaxTextLength {
		return fmt.Errorf("%s too long (%d chars, max %d)", field, len(text), MaxTextLength)
	}
	return nil
}

// SanitizeIdentifier normalizes a user identifier (email or session
// id) for bucketing. Identifiers are case-folded and trimmed so the
// same user cannot land in two buckets by capitalization.
func SanitizeIdentifier(id string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(id))
	if normalized == "" {
		return "", fmt.Errorf("identifier cannot be empty")
	}
	if len(normalized) > 254 {
		return "", fmt.Errorf("identifier too long (%d chars, max 254)", len(normalized))
	}
	return normalized, nil
}
