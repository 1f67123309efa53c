// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package report

import (
	"strings"
	"testing"

	"cert-scan/internal/cert"
)

func correctionResult() *cert.ValidationResult {
	return &cert.ValidationResult{
		CertificateID: "cert-9",
		SourceFile:    "certs/acme.pdf",
		FormType:      cert.FormTX01339,
		EntityType:    cert.EntityForProfit,
		Fields:        cert.FieldSet{PurchaserName: "Acme Corp", ExemptionStates: []string{"TX"}},
		Checks: []cert.CheckResult{
			{Name: "completeness.signature", Passed: false, Severity: cert.SeverityHardFail,
				Message: "Signature is missing.", Recommendation: "Obtain a signed certificate."},
			{Name: "expiration.cert_age", Passed: false, Severity: cert.SeveritySoftFlag,
				Message: "Certificate is over 3 years old."},
		},
		Disposition: cert.DispositionNeedsCorrection,
		Confidence:  70,
	}
}

func TestCorrectionEmail(t *testing.T) {
	email := CorrectionEmail(correctionResult())
	for _, want := range []string{
		"Subject: Action needed",
		"Dear Acme Corp,",
		"1. Signature is missing.",
		"Obtain a signed certificate.",
	} {
		if !strings.Contains(email, want) {
			t.Errorf("email missing %q:\n%s", want, email)
		}
	}
	// Soft flags are not correction demands.
	if strings.Contains(email, "3 years old") {
		t.Error("soft flags do not belong in a correction email")
	}
}

func TestCorrectionEmailNoHardFailures(t *testing.T) {
	r := correctionResult()
	r.Checks = r.Checks[1:]
	if email := CorrectionEmail(r); email != "" {
		t.Errorf("expected no email without hard failures, got:\n%s", email)
	}
}

func TestCorrectionEmailUnnamedPurchaser(t *testing.T) {
	r := correctionResult()
	r.Fields.PurchaserName = ""
	if !strings.Contains(CorrectionEmail(r), "Dear Customer,") {
		t.Error("unnamed purchaser should fall back to a generic salutation")
	}
}

func TestReviewRequest(t *testing.T) {
	r := correctionResult()
	r.Checks = append(r.Checks, cert.CheckResult{
		Name: "reasonableness.entity_exemption_match", Passed: false,
		Severity: cert.SeverityReasonableness,
		Message:  "A for-profit business rarely qualifies for this exemption.",
	})
	out := ReviewRequest(r)
	for _, want := range []string{
		"Review request for certificate cert-9",
		"Purchaser: Acme Corp",
		"Needs a judgment call on:",
		"reasonableness.entity_exemption_match",
		"Other findings:",
		"completeness.signature",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("review request missing %q:\n%s", want, out)
		}
	}
}

func TestReviewRequestWithoutReasonablenessFailures(t *testing.T) {
	out := ReviewRequest(correctionResult())
	if !strings.Contains(out, "review was requested for another reason") {
		t.Errorf("expected the no-judgment-call note:\n%s", out)
	}
}
