// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package cert

import (
	"testing"
)

func TestFormTypeUnmarshalText(t *testing.T) {
	var f FormType
	if err := f.UnmarshalText([]byte("TX_01_339")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f != FormTX01339 {
		t.Errorf("got %s, want %s", f, FormTX01339)
	}
	if err := f.UnmarshalText([]byte("NOT_A_FORM")); err == nil {
		t.Error("expected error for unknown form type")
	}
}

func TestFormTypeDisplay(t *testing.T) {
	if got := FormFLDR14.Display(); got != "Florida Form DR-14 Consumer's Certificate of Exemption" {
		t.Errorf("unexpected display name: %q", got)
	}
	// Unknown values fall back to the raw string.
	if got := FormType("WEIRD").Display(); got != "WEIRD" {
		t.Errorf("unexpected fallback: %q", got)
	}
}

func TestEntityTypeIsGovernment(t *testing.T) {
	tests := []struct {
		entity EntityType
		want   bool
	}{
		{EntityFederalGovernment, true},
		{EntityStateGovernment, true},
		{EntityLocalGovernment, true},
		{EntityTribal, true},
		{EntityNonprofit501c3, false},
		{EntityForProfit, false},
		{EntityUnknown, false},
	}
	for _, tt := range tests {
		if got := tt.entity.IsGovernment(); got != tt.want {
			t.Errorf("%s.IsGovernment() = %v, want %v", tt.entity, got, tt.want)
		}
	}
}

func TestResaleTierUnmarshalText(t *testing.T) {
	var tier ResaleTier
	if err := tier.UnmarshalText([]byte("STRONG")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tier != TierStrong {
		t.Errorf("got %s, want %s", tier, TierStrong)
	}
	// The empty tier marks results without a resale judgment.
	if err := tier.UnmarshalText([]byte("")); err != nil {
		t.Errorf("empty tier should round-trip: %v", err)
	}
	if err := tier.UnmarshalText([]byte("MAYBE")); err == nil {
		t.Error("expected error for unknown tier")
	}
}

func TestValidationResultFailedChecks(t *testing.T) {
	r := &ValidationResult{
		Checks: []CheckResult{
			{Name: "a", Passed: true, Severity: SeverityInfo},
			{Name: "b", Passed: false, Severity: SeveritySoftFlag},
			{Name: "c", Passed: false, Severity: SeverityHardFail},
		},
	}
	failed := r.FailedChecks()
	if len(failed) != 2 {
		t.Fatalf("expected 2 failed checks, got %d", len(failed))
	}
	hard := r.HardFailures()
	if len(hard) != 1 || hard[0].Name != "c" {
		t.Errorf("expected one hard failure named c, got %+v", hard)
	}
}
