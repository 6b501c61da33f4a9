// Copyright (C) 2026 Lumenware (launchcontrol@lumenware.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package validation

import (
	"strings"
	"testing"
)

func TestValidateFlagName(t *testing.T) {
	valid := []string{"assessment_v2", "launch.beta", "x", "flag-name-1"}
	for _, name := range valid {
		if err := ValidateFlagName(name); err != nil {
			t.Errorf("ValidateFlagName(%q) = %v, want nil", name, err)
		}
	}

	invalid := []string{"", "Upper", "1leading", "-leading", "has space", strings.Repeat("a", 65)}
	for _, name := range invalid {
		if err := ValidateFlagName(name); err == nil {
			t.Errorf("ValidateFlagName(%q) = nil, want error", name)
		}
	}
}

func TestSanitizeFlagName(t *testing.T) {
	got, err := SanitizeFlagName("  Assessment_V2 ")
	if err != nil {
		t.Fatalf("SanitizeFlagName: %v", err)
	}
	if got != "assessment_v2" {
		t.Errorf("got %q, want %q", got, "assessment_v2")
	}

	if _, err := SanitizeFlagName("  "); err == nil {
		t.Error("expected error for blank name")
	}
}

func TestValidateEmail(t *testing.T) {
	if err := ValidateEmail(""); err != nil {
		t.Errorf("empty email should be allowed: %v", err)
	}
	if err := ValidateEmail("user@example.com"); err != nil {
		t.Errorf("ValidateEmail(user@example.com) = %v", err)
	}
	for _, bad := range []string{"nope", "a@b", "two@@example.com", "spaces in@example.com"} {
		if err := ValidateEmail(bad); err == nil {
			t.Errorf("ValidateEmail(%q) = nil, want error", bad)
		}
	}
}

func TestValidateText(t *testing.T) {
	if err := ValidateText("description", strings.Repeat("x", MaxTextLength)); err != nil {
		t.Errorf("text at the limit should pass: %v", err)
	}
	if err := ValidateText("description", strings.Repeat("x", MaxTextLength+1)); err == nil {
		t.Error("text over the limit should fail")
	}
}

func TestSanitizeIdentifier(t *testing.T) {
	got, err := SanitizeIdentifier("  User@Example.COM ")
	if err != nil {
		t.Fatalf("SanitizeIdentifier: %v", err)
	}
	if got != "user@example.com" {
		t.Errorf("got %q", got)
	}

	if _, err := SanitizeIdentifier("   "); err == nil {
		t.Error("expected error for blank identifier")
	}
}
