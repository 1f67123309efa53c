// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package checks

import (
	"fmt"
	"time"

	"cert-scan/internal/cert"
	"cert-scan/internal/rules"
)

// expirationFormKeys maps form types to the keys used by form_specific
// expiration rules.
var expirationFormKeys = map[cert.FormType]string{
	cert.FormMDGov1:      "GOV-1",
	cert.FormMDNonGov1:   "NONGOV-1",
	cert.FormMAST2:       "ST-2",
	cert.FormMAST5:       "ST-5",
	cert.FormTNGov:       "gov",
	cert.FormTNExemptOrg: "exempt_org",
}

// checkExpiration resolves and applies the expiration rule for the
// certificate's state and form.
func (e *Engine) checkExpiration(in Input) cert.CheckResult {
	const name = "expiration.state_rule"
	now := e.Now()

	if in.Pathway == cert.PathwayFederalExemption {
		return pass(name, "Federal exemptions do not expire.")
	}
	if in.State == "" {
		return pass(name, "No expiration rule without an exemption state.")
	}

	rule := e.ResolveExpiration(in.State, in.Form)

	withNote := func(msg string) string {
		if rule.Note != "" {
			return msg + " (" + rule.Note + ")"
		}
		return msg
	}

	switch rule.Type {
	case "never":
		return pass(name, withNote("Certificate does not expire in "+in.State+"."))

	case "fixed_years", "annual":
		years := rule.Years
		if rule.Type == "annual" {
			years = 1
		}
		if in.Fields.CertDate == nil {
			return fail(name, cert.SeveritySoftFlag,
				withNote(fmt.Sprintf("%s certificates expire after %d year(s), but the certificate date is missing.", in.State, years)),
				"cert_date",
				"Obtain a dated certificate so the expiration window can be computed.")
		}
		expiry := addYearsClamped(*in.Fields.CertDate, years)
		return e.judgeExpiry(name, expiry, now, withNote)

	case "state_printed", "period_cert":
		if in.Fields.ExpirationDate == nil {
			return fail(name, cert.SeveritySoftFlag,
				withNote("An expiration date should appear on this document but was not found."),
				"expiration_date",
				"Locate the printed expiration date or request a current document.")
		}
		return e.judgeExpiry(name, *in.Fields.ExpirationDate, now, withNote)
	}
	return pass(name, "No expiration rule on file for "+in.State+".")
}

// ResolveExpiration returns the expiration rule governing the given state
// and form, unwrapping form_specific tables down to the concrete rule.
func (e *Engine) ResolveExpiration(state string, form cert.FormType) rules.ExpirationRule {
	rule := e.rules.ExpirationFor(state)
	if rule.Type == "form_specific" {
		if nested, ok := rule.Forms[expirationFormKeys[form]]; ok {
			return nested
		}
		return e.rules.DefaultExpiration
	}
	return rule
}

// RenewalActionFor describes what keeps a certificate current under the
// given expiration rule.
func RenewalActionFor(rule rules.ExpirationRule) string {
	switch rule.Type {
	case "never":
		return "No renewal required."
	case "annual":
		return "Collect a new certificate every year."
	case "fixed_years":
		return fmt.Sprintf("Collect a new certificate every %d year(s).", rule.Years)
	case "state_printed", "period_cert":
		return "Track the printed expiration date and request a renewal before it lapses."
	}
	return "Follow the standard renewal cycle."
}

// judgeExpiry grades a resolved expiration date: past is a hard failure,
// within 90 days a soft flag, otherwise informational.
func (e *Engine) judgeExpiry(name string, expiry, now time.Time, withNote func(string) string) cert.CheckResult {
	switch {
	case expiry.Before(now):
		return fail(name, cert.SeverityHardFail,
			withNote(fmt.Sprintf("Certificate expired on %s.", expiry.Format("2006-01-02"))),
			"expiration_date",
			"Request a current certificate.")
	case expiry.Before(now.AddDate(0, 0, 90)):
		return fail(name, cert.SeveritySoftFlag,
			withNote(fmt.Sprintf("Certificate expires on %s, within 90 days.", expiry.Format("2006-01-02"))),
			"expiration_date",
			"Request a renewal before the certificate lapses.")
	}
	return pass(name, withNote(fmt.Sprintf("Certificate is valid through %s.", expiry.Format("2006-01-02"))))
}

// addYearsClamped adds whole years, clamping Feb 29 anniversaries to
// Feb 28 instead of letting them roll into March.
func addYearsClamped(t time.Time, years int) time.Time {
	if t.Month() == time.February && t.Day() == 29 {
		return time.Date(t.Year()+years, time.February, 28, t.Hour(), t.Minute(), t.Second(), 0, t.Location())
	}
	return t.AddDate(years, 0, 0)
}

func (e *Engine) checkFutureDate(in Input) cert.CheckResult {
	const name = "expiration.future_date"
	if in.Fields.CertDate == nil {
		return pass(name, "No certificate date to evaluate.")
	}
	if in.Fields.CertDate.After(e.Now()) {
		return fail(name, cert.SeverityHardFail,
			fmt.Sprintf("Certificate is dated %s, in the future.", in.Fields.CertDate.Format("2006-01-02")),
			"cert_date",
			"A future date usually indicates a data-entry or extraction error; verify against the source document.")
	}
	return pass(name, "Certificate date is not in the future.")
}

// checkCertAge applies the advisory age buckets to the certificate date.
func (e *Engine) checkCertAge(in Input) cert.CheckResult {
	const name = "expiration.cert_age"
	if in.Fields.CertDate == nil {
		return pass(name, "No certificate date to evaluate.")
	}
	now := e.Now()
	if in.Fields.CertDate.After(now) {
		return pass(name, "Future-dated certificate; age does not apply.")
	}
	years := yearsBetween(*in.Fields.CertDate, now)
	for _, b := range e.rules.AgeBuckets {
		if years < b.MinYears {
			continue
		}
		if b.MaxYears != 0 && years >= b.MaxYears {
			continue
		}
		if b.Severity == string(cert.SeveritySoftFlag) {
			return fail(name, cert.SeveritySoftFlag,
				fmt.Sprintf("Certificate is %d year(s) old: %s.", years, b.Note),
				"cert_date",
				"Request a refreshed certificate.")
		}
		return pass(name, fmt.Sprintf("Certificate is %d year(s) old: %s.", years, b.Note))
	}
	return pass(name, fmt.Sprintf("Certificate is %d year(s) old.", years))
}

// yearsBetween counts whole years elapsed from a to b.
func yearsBetween(a, b time.Time) int {
	years := b.Year() - a.Year()
	anniversary := addYearsClamped(a, years)
	if anniversary.After(b) {
		years--
	}
	if years < 0 {
		return 0
	}
	return years
}
