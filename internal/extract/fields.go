// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package extract

import (
	"regexp"
	"strings"
	"time"

	"cert-scan/internal/cert"
	"cert-scan/internal/jurisdiction"
	"cert-scan/internal/rules"
)

// defaultLabels maps each field to the label phrases that introduce it on
// typical certificate forms. Form profiles may add their own labels.
var defaultLabels = map[string][]string{
	"purchaser_name": {
		"purchaser name", "name of purchaser", "buyer name", "purchaser", "buyer",
	},
	"seller_name": {
		"seller name", "name of seller", "vendor name", "seller", "vendor", "supplier",
	},
	"purchaser_address": {
		"purchaser address", "street address", "mailing address", "address",
	},
	"exemption_reason": {
		"reason for exemption", "exemption reason", "basis for exemption",
		"exemption claimed", "describe the exemption",
	},
	"business_type": {
		"type of business", "business type", "nature of business", "principal business",
	},
	"tax_id": {
		"taxpayer number", "tax identification number", "tax id",
	},
	"fein": {
		"federal employer identification", "federal id", "fein", "ein",
	},
	"permit_number": {
		"permit number", "license number", "registration number",
	},
	"account_number": {
		"account number", "exemption number", "certificate number",
	},
	"cert_date": {
		"date signed", "signature date", "effective date", "dated", "date",
	},
	"expiration_date": {
		"expiration date", "expires", "valid through", "valid until",
	},
	"signature": {
		"authorized signature", "signature of purchaser", "signature", "title",
	},
}

// labelKeywords decide whether a line is a bare label waiting for its value
// on the following line.
var labelKeywords = []string{
	"name", "address", "signature", "date", "reason", "number", "title",
	"business", "exemption", "seller", "purchaser", "vendor", "buyer",
}

var (
	datePatterns = []*regexp.Regexp{
		regexp.MustCompile(`\b\d{1,2}/\d{1,2}/\d{4}\b`),
		regexp.MustCompile(`\b\d{1,2}-\d{1,2}-\d{4}\b`),
		regexp.MustCompile(`\b[A-Z][a-z]+ \d{1,2}, \d{4}\b`),
		regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`),
		regexp.MustCompile(`\b\d{1,2}/\d{1,2}/\d{2}\b`),
	}
	taxIDRe      = regexp.MustCompile(`\b(\d{2}-\d{7}|[0-9A-Z][0-9A-Z-]{5,})\b`)
	cityStateZIP = regexp.MustCompile(`^(.+?), ([A-Za-z]{2}) (\d{5}(-\d{4})?)$`)
	checkedBoxRe = regexp.MustCompile(`[\[(]\s*[xX]\s*[\])]\s*([A-Za-z]{2})\b`)
)

// Extractor pulls structured fields from certificate text using label
// matching. It has no model behind it; everything is positional.
type Extractor struct {
	rules *rules.RuleSet
	// Now supplies the clock for date-window validation.
	Now func() time.Time
}

// NewExtractor creates a field extractor over the given rule set.
func NewExtractor(rs *rules.RuleSet) *Extractor {
	return &Extractor{rules: rs, Now: time.Now}
}

// Extract parses the certificate text into a FieldSet. The identified form
// contributes extra labels and, for state forms, the exemption state.
func (e *Extractor) Extract(text string, form cert.FormType) cert.FieldSet {
	labels := e.mergedLabels(form)
	lines := splitLines(text)
	now := e.Now()

	var fs cert.FieldSet
	fs.PurchaserName = firstValue(lines, labels["purchaser_name"])
	fs.SellerName = firstValue(lines, labels["seller_name"])
	fs.ExemptionReason = firstValue(lines, labels["exemption_reason"])
	fs.BusinessType = firstValue(lines, labels["business_type"])
	fs.TaxID = idValue(lines, labels["tax_id"])
	fs.FEIN = idValue(lines, labels["fein"])
	fs.PermitNumber = idValue(lines, labels["permit_number"])
	fs.AccountNumber = idValue(lines, labels["account_number"])

	e.extractAddress(lines, labels, &fs)
	e.extractDates(lines, labels, now, &fs)
	e.extractSignature(lines, labels, &fs)
	e.extractStates(text, form, &fs)

	fs.ExtractionConfidence = e.confidence(&fs)
	return fs
}

func (e *Extractor) mergedLabels(form cert.FormType) map[string][]string {
	merged := make(map[string][]string, len(defaultLabels))
	profile, ok := e.rules.Forms[string(form)]
	for field, defaults := range defaultLabels {
		if ok {
			// Form-specific labels are checked before the generic ones.
			merged[field] = append(append([]string{}, profile.FieldLabels[field]...), defaults...)
		} else {
			merged[field] = defaults
		}
	}
	return merged
}

func (e *Extractor) extractAddress(lines []string, labels map[string][]string, fs *cert.FieldSet) {
	idx := labelIndex(lines, labels["purchaser_address"])
	if idx < 0 {
		return
	}
	var parts []string
	if v := sameLineValue(lines[idx], labels["purchaser_address"]); v != "" {
		parts = append(parts, v)
	}
	// Street and city/state/zip usually continue on the following lines;
	// stop at a blank or the next labeled field.
	for i := idx + 1; i < len(lines) && len(parts) < 3; i++ {
		line := strings.TrimSpace(lines[i])
		if line == "" || isLabelLine(line) {
			break
		}
		parts = append(parts, line)
	}
	for _, p := range parts {
		if m := cityStateZIP.FindStringSubmatch(p); m != nil {
			fs.PurchaserCity = m[1]
			fs.PurchaserState = strings.ToUpper(m[2])
			fs.PurchaserZIP = m[3]
		}
	}
	fs.PurchaserAddress = strings.Join(parts, ", ")
	if fs.PurchaserState == "" {
		fs.PurchaserState = jurisdiction.StateFromAddress(fs.PurchaserAddress)
	}
}

func (e *Extractor) extractDates(lines []string, labels map[string][]string, now time.Time, fs *cert.FieldSet) {
	fs.CertDate = e.findDate(lines, labels["cert_date"], now, false)
	fs.ExpirationDate = e.findDate(lines, labels["expiration_date"], now, true)
}

// findDate looks for a date near the given labels first, then anywhere in
// the document. Certificate dates outside 2010..now are treated as
// extraction noise; expirations may be in the future.
func (e *Extractor) findDate(lines []string, labels []string, now time.Time, future bool) *time.Time {
	check := func(s string) *time.Time {
		for _, re := range datePatterns {
			for _, raw := range re.FindAllString(s, -1) {
				t, ok := jurisdiction.ParseDate(raw, now)
				if !ok {
					continue
				}
				if future {
					return &t
				}
				if t.Year() >= 2010 && !t.After(now) {
					return &t
				}
			}
		}
		return nil
	}

	for i, line := range lines {
		if !matchesAnyLabel(line, labels) {
			continue
		}
		if t := check(line); t != nil {
			return t
		}
		if i+1 < len(lines) {
			if t := check(lines[i+1]); t != nil {
				return t
			}
		}
	}
	// Labels are unreliable on scans; a lone parseable date is still
	// better than nothing, but only for the signing date.
	if !future {
		for _, line := range lines {
			if t := check(line); t != nil {
				return t
			}
		}
	}
	return nil
}

func (e *Extractor) extractSignature(lines []string, labels map[string][]string, fs *cert.FieldSet) {
	signed := false
	for _, line := range lines {
		if v := sameLineValue(line, labels["signature"]); v != "" {
			signed = true
			break
		}
	}
	// A dated certificate with a signature block counts as signed even
	// when the scan loses the ink.
	if !signed && fs.CertDate != nil && labelIndex(lines, labels["signature"]) >= 0 {
		signed = true
	}
	fs.HasSignature = &signed
}

func (e *Extractor) extractStates(text string, form cert.FormType, fs *cert.FieldSet) {
	if profile, ok := e.rules.Forms[string(form)]; ok && profile.State != "" {
		fs.ExemptionStates = []string{profile.State}
		return
	}
	// Multi-state certificates list states with checkboxes.
	seen := make(map[string]bool)
	for _, m := range checkedBoxRe.FindAllStringSubmatch(text, -1) {
		code := strings.ToUpper(m[1])
		if jurisdiction.IsPostalCode(code) && !seen[code] {
			seen[code] = true
			fs.ExemptionStates = append(fs.ExemptionStates, code)
		}
	}
}

// confidence estimates extraction fidelity as coverage of the core fields.
func (e *Extractor) confidence(fs *cert.FieldSet) float64 {
	total := 8.0
	found := 0.0
	if fs.PurchaserName != "" {
		found++
	}
	if fs.PurchaserAddress != "" {
		found++
	}
	if fs.SellerName != "" {
		found++
	}
	if fs.ExemptionReason != "" {
		found++
	}
	if fs.CertDate != nil {
		found++
	}
	if fs.HasSignature != nil && *fs.HasSignature {
		found++
	}
	if fs.TaxID != "" || fs.FEIN != "" || fs.PermitNumber != "" || fs.AccountNumber != "" {
		found++
	}
	if len(fs.ExemptionStates) > 0 {
		found++
	}
	return found / total
}

func splitLines(text string) []string {
	raw := strings.Split(text, "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		lines = append(lines, strings.TrimRight(l, " \t"))
	}
	return lines
}

// sameLineValue returns the value following "label: value" or
// "label - value" on one line.
func sameLineValue(line string, labels []string) string {
	lower := strings.ToLower(line)
	for _, label := range labels {
		i := strings.Index(lower, label)
		if i < 0 {
			continue
		}
		rest := strings.TrimSpace(line[i+len(label):])
		rest = strings.TrimLeft(rest, ":-")
		rest = strings.TrimSpace(rest)
		if rest != "" {
			return rest
		}
	}
	return ""
}

// firstValue finds the first occurrence of any label and returns its value,
// looking on the same line first and then on the next non-empty line.
func firstValue(lines []string, labels []string) string {
	for i, line := range lines {
		if !matchesAnyLabel(line, labels) {
			continue
		}
		if v := sameLineValue(line, labels); v != "" {
			return v
		}
		for j := i + 1; j < len(lines); j++ {
			next := strings.TrimSpace(lines[j])
			if next == "" {
				continue
			}
			if isLabelLine(next) {
				break
			}
			return next
		}
	}
	return ""
}

// idValue extracts an identifier-shaped token from a labeled value.
func idValue(lines []string, labels []string) string {
	v := firstValue(lines, labels)
	if v == "" {
		return ""
	}
	if m := taxIDRe.FindString(strings.ToUpper(v)); m != "" {
		return m
	}
	return v
}

func labelIndex(lines []string, labels []string) int {
	for i, line := range lines {
		if matchesAnyLabel(line, labels) {
			return i
		}
	}
	return -1
}

func matchesAnyLabel(line string, labels []string) bool {
	lower := strings.ToLower(line)
	for _, label := range labels {
		if strings.Contains(lower, label) {
			return true
		}
	}
	return false
}

// isLabelLine guesses whether a line is a form label rather than a value:
// short lines ending in a colon, or short lines built from label keywords.
func isLabelLine(line string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return false
	}
	if len(trimmed) <= 40 && strings.HasSuffix(trimmed, ":") {
		return true
	}
	if len(trimmed) > 30 {
		return false
	}
	lower := strings.ToLower(trimmed)
	for _, kw := range labelKeywords {
		if strings.Contains(lower, kw) && strings.Contains(lower, ":") {
			return true
		}
	}
	return false
}
