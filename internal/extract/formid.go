// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package extract turns raw certificate text into structured data: it
// identifies the form and pulls the labeled fields the rule engine needs.
package extract

import (
	"regexp"
	"sort"
	"strings"

	"cert-scan/internal/cert"
	"cert-scan/internal/rules"
)

// Identification is the outcome of form identification.
type Identification struct {
	FormType   cert.FormType
	Confidence float64
}

// strongSignal maps an unambiguous phrase combination to a form. These
// shortcut identifier scoring because state form codes printed on the
// document are near-definitive.
type strongSignal struct {
	form       cert.FormType
	confidence float64
	// all tokens must be present
	tokens []string
	// anyOf is an alternative trigger: any one token suffices when
	// tokens is empty.
	anyOf []string
}

var strongSignals = []strongSignal{
	{form: cert.FormFLDR14, confidence: 0.98, tokens: []string{"dr-14", "florida"}},
	{form: cert.FormFLDR14, confidence: 0.98, tokens: []string{"dr 14", "florida"}},
	{form: cert.FormPAREV1220, confidence: 0.98, anyOf: []string{"rev-1220", "rev 1220"}},
	{form: cert.FormTX01339, confidence: 0.98, anyOf: []string{"01-339"}},
	{form: cert.FormOHSTECB, confidence: 0.98, anyOf: []string{"stec-b", "stec b"}},
	{form: cert.FormALSTE1, confidence: 0.96, tokens: []string{"ste-1", "alabama"}},
	{form: cert.FormNYST1191, confidence: 0.96, anyOf: []string{"st-119.1", "st 119.1"}},
	{form: cert.FormNYST121, confidence: 0.96, tokens: []string{"st-121", "new york"}},
	{form: cert.FormNYST121, confidence: 0.96, tokens: []string{"exempt use certificate", "new york"}},
	{form: cert.FormNYGovLetter, confidence: 0.97, tokens: []string{"governmental purchase", "new york"}},
	{form: cert.FormSSTF0003, confidence: 0.95, anyOf: []string{"f0003"}},
	{form: cert.FormFederalSF1094, confidence: 0.95, anyOf: []string{"sf-1094", "standard form 1094"}},
	{form: cert.FormMDGov1, confidence: 0.95, tokens: []string{"gov-1", "maryland"}},
}

// formCodeRe matches identifiers that look like printed form codes
// ("01-339", "st-119.1", "rev-1220") so substring hits inside longer
// numbers do not count.
var formCodeRe = regexp.MustCompile(`^[a-z]{0,4}-?\d[\d.a-z-]*$`)

// preferredOnTie lists state-specific forms that win ties against the
// multi-state certificates, whose identifier lists share generic phrases.
var preferredOnTie = map[cert.FormType]bool{
	cert.FormTX01339:  true,
	cert.FormMDGov1:   true,
	cert.FormNYST1191: true,
}

// IdentifyForm determines the form type of a certificate from its text.
// Unidentifiable text yields FormUnknown with confidence 0; this is a
// normal outcome, not an error.
func IdentifyForm(text string, rs *rules.RuleSet) Identification {
	lower := strings.ToLower(text)

	for _, sig := range strongSignals {
		if sig.matches(lower) {
			return Identification{FormType: sig.form, Confidence: sig.confidence}
		}
	}

	// Iterate profiles in name order so equal scores always resolve to
	// the same form regardless of map layout.
	names := make([]string, 0, len(rs.Forms))
	for name := range rs.Forms {
		names = append(names, name)
	}
	sort.Strings(names)

	best := cert.FormUnknown
	bestCount := 0
	bestTotal := 0
	for _, name := range names {
		profile := rs.Forms[name]
		count := 0
		for _, id := range profile.Identifiers {
			if containsIdentifier(lower, id) {
				count++
			}
		}
		if count == 0 {
			continue
		}
		form := cert.FormType(name)
		// ST-119.1 shares every generic identifier with the other New
		// York forms; require its code before it can win on counts.
		if form == cert.FormNYST1191 && !strings.Contains(lower, "119.1") {
			continue
		}
		switch {
		case count > bestCount:
			best, bestCount, bestTotal = form, count, len(profile.Identifiers)
		case count == bestCount && preferredOnTie[form] && !preferredOnTie[best]:
			best, bestTotal = form, len(profile.Identifiers)
		}
	}

	if best == cert.FormUnknown {
		return Identification{FormType: cert.FormUnknown, Confidence: 0}
	}

	confidence := float64(bestCount) / float64(bestTotal)
	for _, token := range []string{"01-339", "gov-1", "f0003", "sf-1094"} {
		if strings.Contains(lower, token) && confidence < 0.95 {
			confidence = 0.95
		}
	}
	// A single generic identifier hit is weak evidence; "exemption
	// certificate" appears on nearly every form.
	if bestCount == 1 && strings.Contains(lower, "exemption certificate") && confidence > 0.45 {
		confidence = 0.45
	}
	return Identification{FormType: best, Confidence: confidence}
}

func (s strongSignal) matches(lower string) bool {
	if len(s.tokens) > 0 {
		for _, t := range s.tokens {
			if !strings.Contains(lower, t) {
				return false
			}
		}
		return true
	}
	for _, t := range s.anyOf {
		if strings.Contains(lower, t) {
			return true
		}
	}
	return false
}

// containsIdentifier checks for an identifier phrase. Codes are matched on
// word boundaries; prose phrases as plain substrings.
func containsIdentifier(lower, id string) bool {
	if !formCodeRe.MatchString(id) {
		return strings.Contains(lower, id)
	}
	idx := 0
	for {
		i := strings.Index(lower[idx:], id)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(id)
		beforeOK := start == 0 || !isWordChar(lower[start-1])
		afterOK := end == len(lower) || !isWordChar(lower[end])
		if beforeOK && afterOK {
			return true
		}
		idx = start + 1
	}
}

func isWordChar(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= '0' && b <= '9'
}
