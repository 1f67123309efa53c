// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package disposition folds a certificate's check results into a final
// disposition and a confidence score.
package disposition

import (
	"cert-scan/internal/cert"
)

// Aggregate applies severity precedence: any hard failure demands
// correction; otherwise any reasonableness failure demands human review;
// otherwise soft flags validate with notes; otherwise the certificate is
// validated.
func Aggregate(checks []cert.CheckResult) cert.Disposition {
	hard, reason, soft := tally(checks)
	switch {
	case hard > 0:
		return cert.DispositionNeedsCorrection
	case reason > 0:
		return cert.DispositionNeedsReview
	case soft > 0:
		return cert.DispositionValidatedNotes
	}
	return cert.DispositionValidated
}

// Confidence scores the validation from 0 to 100. Soft flags cost 3
// points, reasonableness failures 10; weak extraction, an unidentified
// form, and an unclassified entity cost 15, 20, and 10.
func Confidence(checks []cert.CheckResult, extractionConfidence float64, form cert.FormType, entity cert.EntityType) int {
	score := 100
	_, reason, soft := tally(checks)
	score -= 3 * soft
	score -= 10 * reason
	if extractionConfidence < 0.8 {
		score -= 15
	}
	if form == cert.FormUnknown {
		score -= 20
	}
	if entity == cert.EntityUnknown {
		score -= 10
	}
	if score < 0 {
		score = 0
	}
	return score
}

func tally(checks []cert.CheckResult) (hard, reason, soft int) {
	for _, c := range checks {
		if c.Passed {
			continue
		}
		switch c.Severity {
		case cert.SeverityHardFail:
			hard++
		case cert.SeverityReasonableness:
			reason++
		case cert.SeveritySoftFlag:
			soft++
		}
	}
	return
}
