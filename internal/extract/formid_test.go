// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package extract

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

func TestIdentifyFormStrongSignals(t *testing.T) {
	rs := testRules(t)
	tests := []struct {
		name string
		text string
		form cert.FormType
	}{
		{
			name: "texas 01-339",
			text: "01-339 (Back)\nTexas Sales and Use Tax Exemption Certification",
			form: cert.FormTX01339,
		},
		{
			name: "florida dr-14",
			text: "Florida Department of Revenue\nConsumer's Certificate of Exemption DR-14",
			form: cert.FormFLDR14,
		},
		{
			name: "pennsylvania rev-1220",
			text: "REV-1220 AS+ (3-96)\nPennsylvania Exemption Certificate",
			form: cert.FormPAREV1220,
		},
		{
			name: "ny st-119.1",
			text: "New York State Department of Taxation and Finance\nST-119.1 Exempt Organization Certification",
			form: cert.FormNYST1191,
		},
		{
			name: "sst f0003",
			text: "Streamlined Sales Tax Agreement Certificate of Exemption F0003",
			form: cert.FormSSTF0003,
		},
		{
			name: "federal sf-1094",
			text: "Standard Form 1094\nUnited States Tax Exemption Form",
			form: cert.FormFederalSF1094,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IdentifyForm(tt.text, rs)
			if got.FormType != tt.form {
				t.Errorf("form = %s, want %s", got.FormType, tt.form)
			}
			if got.Confidence < 0.95 {
				t.Errorf("confidence = %v, want >= 0.95 for a printed form code", got.Confidence)
			}
		})
	}
}

func TestIdentifyFormUnknown(t *testing.T) {
	rs := testRules(t)
	got := IdentifyForm("quarterly sales report for fiscal year 2023", rs)
	if got.FormType != cert.FormUnknown {
		t.Errorf("form = %s, want UNKNOWN", got.FormType)
	}
	if got.Confidence != 0 {
		t.Errorf("confidence = %v, want 0", got.Confidence)
	}
}

func TestIdentifyFormGenericPhraseIsWeak(t *testing.T) {
	rs := testRules(t)
	// "exemption certificate" alone matches several profiles on one
	// identifier; confidence must be capped low.
	got := IdentifyForm("please find our exemption certificate attached", rs)
	if got.FormType == cert.FormUnknown {
		t.Fatal("expected some identification from the generic phrase")
	}
	if got.Confidence > 0.45 {
		t.Errorf("confidence = %v, want <= 0.45 for a single generic hit", got.Confidence)
	}
}

func TestIdentifyFormTieIsStable(t *testing.T) {
	rs := testRules(t)
	// Both Tennessee profiles score two identifiers on this text. The tie
	// must resolve the same way on every call.
	text := "Certificate of Exemption\nExempt Organization\nTennessee Department of Revenue"
	for i := 0; i < 50; i++ {
		got := IdentifyForm(text, rs)
		if got.FormType != cert.FormTNExemptOrg {
			t.Fatalf("run %d: form = %s, want %s", i, got.FormType, cert.FormTNExemptOrg)
		}
	}
}

func TestContainsIdentifierWordBoundaries(t *testing.T) {
	// A form code inside a longer number must not count.
	if containsIdentifier("invoice 901-3390", "01-339") {
		t.Error("01-339 inside 901-3390 should not match")
	}
	if !containsIdentifier("form 01-339 (back)", "01-339") {
		t.Error("standalone 01-339 should match")
	}
	// Prose identifiers stay substring matches.
	if !containsIdentifier("the multistate tax commission uniform certificate", "multistate tax commission") {
		t.Error("prose identifier should match as substring")
	}
}
