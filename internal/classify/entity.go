// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package classify determines what kind of organization a purchaser is,
// whether that organization may use the identified form, and which
// validation pathway governs the certificate.
package classify

import (
	"regexp"
	"strings"

	"cert-scan/internal/cert"
)

var federalIndicators = []string{
	"united states", "u.s. government", "us government", "federal government",
	"department of defense", "department of justice", "department of energy",
	"department of state", "department of the interior",
	"department of the treasury", "department of agriculture",
	"department of commerce", "department of education",
	"department of transportation", "department of veterans affairs",
	"veterans affairs", "general services administration",
	"internal revenue service", "social security administration",
	"u.s. army", "u.s. navy", "u.s. air force", "u.s. marine corps",
	"u.s. coast guard", "army corps of engineers",
	"federal bureau of investigation", "national aeronautics",
	"national institutes of health", "centers for disease control",
	"environmental protection agency", "u.s. postal service",
	"smithsonian", "federal reserve", "bureau of land management",
	"fort ", "naval base",
}

var stateIndicators = []string{
	"state of ", "commonwealth of", "state department of", "state agency",
	"office of the governor", "state comptroller", "secretary of state",
	"state police", "department of motor vehicles", "state highway",
}

var localIndicators = []string{
	"city of", "county of", "town of", "village of", "borough of",
	"township", "municipal", "municipality", "school district",
	"independent school district", "isd", "emergency services district",
	"esd", "fire district", "water district", "utility district",
	"housing authority", "transit authority", "port authority",
	"county sheriff", "public library", "county ",
}

var tribalIndicators = []string{
	"tribe", "tribal", "nation", "band of", "pueblo", "rancheria",
	"indian community",
}

var educationalIndicators = []string{
	"university", "college", "school", "academy", "community college",
	"institute of technology",
}

var nonprofitIndicators = []string{
	"501(c)(3)", "501c3", "501(c)3", "nonprofit", "non-profit",
	"charitable", "foundation", "charity",
}

var religiousIndicators = []string{
	"church", "ministry", "ministries", "synagogue", "temple", "mosque",
	"diocese", "archdiocese", "convent", "monastery", "congregation",
}

// forProfitRe matches corporate suffixes as whole words so "Innovation"
// does not read as "Inc".
var forProfitRe = regexp.MustCompile(`\b(llc|l\.l\.c\.?|inc\.?|incorporated|corp\.?|corporation|ltd\.?|limited|co\.|company|enterprises|holdings|partners|lp|llp|pllc|group)\b`)

// ClassifyEntity derives the purchaser's entity type from its name, the
// stated exemption reason, and the full document text, whose letterheads
// and stamps often carry signals the extracted fields miss. Order matters:
// more specific public-sector signals are checked before the generic ones,
// and unmatched text is EntityUnknown rather than an error.
func ClassifyEntity(purchaserName, exemptionReason, docText string) cert.EntityType {
	text := strings.ToLower(purchaserName + " " + exemptionReason + " " + docText)
	if strings.TrimSpace(text) == "" {
		return cert.EntityUnknown
	}

	if containsAny(text, federalIndicators) {
		return cert.EntityFederalGovernment
	}
	// State universities are instrumentalities of their state and buy
	// under the state's exemption.
	if strings.Contains(text, "state university") {
		return cert.EntityStateGovernment
	}
	if containsAny(text, stateIndicators) {
		return cert.EntityStateGovernment
	}
	// Louisiana civil parishes are local government, church parishes are
	// not; "Parish of" is the civil usage.
	if strings.Contains(text, "parish of") {
		return cert.EntityLocalGovernment
	}
	if containsAny(text, localIndicators) {
		return cert.EntityLocalGovernment
	}
	if isTribal(text) {
		return cert.EntityTribal
	}
	if containsAny(text, educationalIndicators) {
		return cert.EntityEducational
	}
	if containsAny(text, nonprofitIndicators) {
		if strings.Contains(text, "501") {
			return cert.EntityNonprofit501c3
		}
		return cert.EntityExemptOrgOther
	}
	if strings.Contains(text, "parish") {
		return cert.EntityReligious
	}
	if containsAny(text, religiousIndicators) {
		return cert.EntityReligious
	}
	if forProfitRe.MatchString(text) {
		return cert.EntityForProfit
	}
	return cert.EntityUnknown
}

// isTribal requires more than the bare word "nation", which appears in
// plenty of commercial names.
func isTribal(text string) bool {
	for _, ind := range tribalIndicators {
		if !strings.Contains(text, ind) {
			continue
		}
		if ind == "nation" && !strings.Contains(text, "tribal") {
			continue
		}
		return true
	}
	return false
}

func containsAny(text string, indicators []string) bool {
	for _, ind := range indicators {
		if strings.Contains(text, ind) {
			return true
		}
	}
	return false
}
