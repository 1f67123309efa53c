// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package dedupe finds duplicate certificates within a validated batch.
// Detection runs after every certificate has been validated, because the
// fingerprint depends on extracted fields.
package dedupe

import (
	"sort"
	"strings"

	"cert-scan/internal/cert"
)

// Fingerprint produces the duplicate-detection key for a result. Dated
// certificates key on purchaser, state, category, and date; undated ones
// fall back to purchaser, state, and form type.
func Fingerprint(r *cert.ValidationResult) string {
	name := normalizeName(r.Fields.PurchaserName)
	state := strings.ToUpper(primaryState(r))
	if r.Fields.CertDate != nil {
		category := string(r.Fields.ExemptionCategory)
		if category == "" {
			category = "UNSPECIFIED"
		}
		return strings.Join([]string{name, state, category, r.Fields.CertDate.Format("2006-01-02")}, "|")
	}
	return strings.Join([]string{name, state, string(r.FormType)}, "|")
}

// MarkDuplicates groups results by fingerprint and marks every group
// member after the canonical one as a duplicate of it. The canonical
// certificate is the earliest by certificate date, falling back to
// validation time. Results are modified in place.
func MarkDuplicates(results []*cert.ValidationResult) {
	groups := make(map[string][]*cert.ValidationResult)
	for _, r := range results {
		if r.Fields.PurchaserName == "" {
			// An unnamed certificate matches nothing reliably.
			continue
		}
		fp := Fingerprint(r)
		groups[fp] = append(groups[fp], r)
	}
	for _, group := range groups {
		if len(group) < 2 {
			continue
		}
		sort.SliceStable(group, func(i, j int) bool {
			return sortKey(group[i]) < sortKey(group[j])
		})
		canonical := group[0]
		for _, dup := range group[1:] {
			dup.Disposition = cert.DispositionDuplicate
			dup.DuplicateOf = canonical.CertificateID
		}
	}
}

func sortKey(r *cert.ValidationResult) string {
	if r.Fields.CertDate != nil {
		return r.Fields.CertDate.Format("2006-01-02")
	}
	return r.ValidatedAt.Format("2006-01-02T15:04:05.000000000")
}

// primaryState prefers the state the pipeline resolved, which reflects
// any caller override; extracted fields are the fallback for results
// built without one.
func primaryState(r *cert.ValidationResult) string {
	if r.State != "" {
		return r.State
	}
	if len(r.Fields.ExemptionStates) > 0 {
		return r.Fields.ExemptionStates[0]
	}
	return r.Fields.PurchaserState
}

// normalizeName lowercases, strips punctuation, and collapses whitespace
// so "ACME Corp." and "Acme Corp" fingerprint identically.
func normalizeName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '\t':
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
