// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package report renders the follow-up documents a validation run
// produces: correction requests for certificates that failed hard checks,
// and review requests for certificates routed to a human.
package report

import (
	"fmt"
	"strings"

	"cert-scan/internal/cert"
)

// CorrectionEmail drafts the email a collections team sends when a
// certificate needs correction. Returns "" when the result has no hard
// failures to correct.
func CorrectionEmail(r *cert.ValidationResult) string {
	hard := r.HardFailures()
	if len(hard) == 0 {
		return ""
	}

	name := r.Fields.PurchaserName
	if name == "" {
		name = "Customer"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Subject: Action needed: your %s\n\n", r.FormType.Display()))
	sb.WriteString(fmt.Sprintf("Dear %s,\n\n", name))
	sb.WriteString("Thank you for providing your tax exemption certificate. ")
	sb.WriteString("During review we found the following issues that prevent us from accepting it:\n\n")
	for i, c := range hard {
		sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, c.Message))
		if c.Recommendation != "" {
			sb.WriteString(fmt.Sprintf("   %s\n", c.Recommendation))
		}
	}
	sb.WriteString("\nPlease send a corrected certificate at your earliest convenience. ")
	sb.WriteString("Until we receive it, applicable sales tax will be charged on your purchases.\n\n")
	sb.WriteString("Kind regards,\nTax Compliance Team\n")
	return sb.String()
}

// ReviewRequest summarizes a certificate for a human reviewer, leading
// with the judgment calls the rules could not make.
func ReviewRequest(r *cert.ValidationResult) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Review request for certificate %s\n", r.CertificateID))
	if r.SourceFile != "" {
		sb.WriteString(fmt.Sprintf("Source: %s\n", r.SourceFile))
	}
	sb.WriteString(fmt.Sprintf("Purchaser: %s (%s)\n", orUnknown(r.Fields.PurchaserName), r.EntityType.Display()))
	sb.WriteString(fmt.Sprintf("Form: %s (confidence %.2f)\n", r.FormType.Display(), r.FormConfidence))
	if len(r.Fields.ExemptionStates) > 0 {
		sb.WriteString(fmt.Sprintf("Exemption state(s): %s\n", strings.Join(r.Fields.ExemptionStates, ", ")))
	}
	sb.WriteString(fmt.Sprintf("Disposition: %s (confidence %d)\n\n", r.Disposition, r.Confidence))

	sb.WriteString("Needs a judgment call on:\n")
	found := false
	for _, c := range r.FailedChecks() {
		if c.Severity == cert.SeverityReasonableness {
			sb.WriteString(fmt.Sprintf("- %s: %s\n", c.Name, c.Message))
			found = true
		}
	}
	if !found {
		sb.WriteString("- (no reasonableness failures; review was requested for another reason)\n")
	}

	var other []cert.CheckResult
	for _, c := range r.FailedChecks() {
		if c.Severity != cert.SeverityReasonableness {
			other = append(other, c)
		}
	}
	if len(other) > 0 {
		sb.WriteString("\nOther findings:\n")
		for _, c := range other {
			sb.WriteString(fmt.Sprintf("- [%s] %s: %s\n", c.Severity, c.Name, c.Message))
		}
	}
	return sb.String()
}

func orUnknown(s string) string {
	if s == "" {
		return "(unknown)"
	}
	return s
}
