// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package classify

import (
	"testing"

	"cert-scan/internal/cert"
	"cert-scan/internal/rules"
)

func testRules(t *testing.T) *rules.RuleSet {
	t.Helper()
	rs, err := rules.Default()
	if err != nil {
		t.Fatalf("loading rules: %v", err)
	}
	return rs
}

func TestRouteToPathway(t *testing.T) {
	tests := []struct {
		form    cert.FormType
		pathway cert.ValidationPathway
	}{
		{cert.FormFederalSF1094, cert.PathwayFederalExemption},
		{cert.FormFederalGSACard, cert.PathwayFederalExemption},
		{cert.FormMDGov1, cert.PathwayGovCardNoExpiry},
		{cert.FormMDNonGov1, cert.PathwayGovCardWithExpiry},
		{cert.FormFLDR14, cert.PathwayGovCardWithExpiry},
		{cert.FormTNGov, cert.PathwayStateIssuedCert},
		{cert.FormOHDirectPay, cert.PathwaySpecialPermit},
		{cert.FormWAReseller, cert.PathwaySpecialPermit},
		{cert.FormMTCUniform, cert.PathwayMultiStateUniform},
		{cert.FormSSTF0003, cert.PathwayMultiStateUniform},
		{cert.FormTX01339, cert.PathwayStandardSelfComplete},
		{cert.FormUnknown, cert.PathwayStandardSelfComplete},
	}
	for _, tt := range tests {
		if got := RouteToPathway(tt.form); got != tt.pathway {
			t.Errorf("RouteToPathway(%s) = %s, want %s", tt.form, got, tt.pathway)
		}
	}
}

func TestSellerProtection(t *testing.T) {
	rs := testRules(t)

	if got := SellerProtection(cert.FormFederalSF1094, cert.PathwayFederalExemption, "TX", rs); got != cert.ProtectionFederalSupremacy {
		t.Errorf("federal pathway protection = %s", got)
	}
	if got := SellerProtection(cert.FormSSTF0003, cert.PathwayMultiStateUniform, "OH", rs); got != cert.ProtectionSSTFourCorners {
		t.Errorf("F0003 in a member state = %s, want four corners", got)
	}
	// F0003 outside the agreement drops to good faith.
	if got := SellerProtection(cert.FormSSTF0003, cert.PathwayMultiStateUniform, "TX", rs); got != cert.ProtectionGoodFaith {
		t.Errorf("F0003 in TX = %s, want good faith", got)
	}
	if got := SellerProtection(cert.FormTX01339, cert.PathwayStandardSelfComplete, "TX", rs); got != cert.ProtectionGoodFaith {
		t.Errorf("standard form = %s, want good faith", got)
	}
}

func TestCheckCompatibility(t *testing.T) {
	rs := testRules(t)

	// New York does not issue ST-119.1 to governments.
	result := CheckCompatibility(cert.EntityLocalGovernment, cert.FormNYST1191, "NY", rs)
	if result == nil {
		t.Fatal("expected an incompatibility for a government on ST-119.1")
	}
	if result.Severity != cert.SeverityHardFail {
		t.Errorf("severity = %s, want HARD_FAIL", result.Severity)
	}
	if result.Name != "form_correctness.entity_form_compatibility" {
		t.Errorf("check name = %q", result.Name)
	}

	// An exempt organization on the same form is fine.
	if result := CheckCompatibility(cert.EntityNonprofit501c3, cert.FormNYST1191, "NY", rs); result != nil {
		t.Errorf("unexpected incompatibility: %+v", result)
	}
	// The rule is keyed to New York; the same pairing elsewhere is ignored.
	if result := CheckCompatibility(cert.EntityLocalGovernment, cert.FormNYST1191, "TX", rs); result != nil {
		t.Errorf("unexpected incompatibility outside NY: %+v", result)
	}
}
