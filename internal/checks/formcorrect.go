// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package checks

import (
	"fmt"
	"regexp"
	"strings"

	"cert-scan/internal/cert"
)

// checkFormForState verifies that a state-specific form is used in its own
// state and that multi-state certificates actually cover the claimed state.
func (e *Engine) checkFormForState(in Input) cert.CheckResult {
	const name = "form_correctness.form_for_state"
	if in.State == "" || in.Form == cert.FormUnknown {
		return pass(name, "Form and state could not be cross-checked.")
	}
	profile, ok := e.rules.Forms[string(in.Form)]
	if ok && profile.State != "" {
		if !strings.EqualFold(profile.State, in.State) {
			return fail(name, cert.SeverityHardFail,
				fmt.Sprintf("%s is a %s form, but the exemption is claimed in %s.", in.Form.Display(), profile.State, in.State),
				"form_type",
				fmt.Sprintf("Obtain the exemption certificate %s prescribes.", in.State))
		}
		return pass(name, "Form matches the exemption state.")
	}
	if in.Pathway == cert.PathwayMultiStateUniform && len(in.Fields.ExemptionStates) > 0 {
		for _, s := range in.Fields.ExemptionStates {
			if strings.EqualFold(s, in.State) {
				return pass(name, "Claimed state is marked on the multi-state certificate.")
			}
		}
		return fail(name, cert.SeveritySoftFlag,
			fmt.Sprintf("%s is not among the states marked on the certificate.", in.State),
			"exemption_states",
			"Confirm the purchaser intended to claim exemption in this state.")
	}
	return pass(name, "No state restriction applies to this form.")
}

// checkMTCResaleOnly enforces the states that accept the MTC Uniform
// certificate for resale claims only.
func (e *Engine) checkMTCResaleOnly(in Input) cert.CheckResult {
	const name = "form_correctness.mtc_resale_only"
	if in.Form != cert.FormMTCUniform || in.State == "" {
		return pass(name, "Check applies only to the MTC Uniform certificate.")
	}
	restr, ok := e.rules.RestrictionsFor(in.State)
	if !ok || !containsForm(restr.ResaleOnly, cert.FormMTCUniform) {
		return pass(name, "State accepts the MTC Uniform certificate for this claim.")
	}
	category := deriveCategory(in.Fields)
	if category == cert.CategoryResale {
		return pass(name, "Resale claim on the MTC Uniform certificate is accepted here.")
	}
	msg := fmt.Sprintf("%s accepts the MTC Uniform certificate for resale claims only; this certificate claims %s.", in.State, category)
	rec := "Obtain the state's own exemption certificate for non-resale claims."
	if len(restr.AlternativeForms) > 0 {
		names := make([]string, len(restr.AlternativeForms))
		for i, f := range restr.AlternativeForms {
			names[i] = cert.FormType(f).Display()
		}
		rec = fmt.Sprintf("Obtain one of: %s.", strings.Join(names, "; "))
	}
	return fail(name, cert.SeverityHardFail, msg, "form_type", rec)
}

// checkSSTMember rejects Form F0003 in states outside the Streamlined
// Sales Tax agreement.
func (e *Engine) checkSSTMember(in Input) cert.CheckResult {
	const name = "form_correctness.sst_member"
	if in.Form != cert.FormSSTF0003 || in.State == "" {
		return pass(name, "Check applies only to Streamlined Sales Tax Form F0003.")
	}
	if e.rules.IsSSTMember(in.State) {
		return pass(name, fmt.Sprintf("%s is a Streamlined Sales Tax member state.", in.State))
	}
	return fail(name, cert.SeverityHardFail,
		fmt.Sprintf("%s is not a Streamlined Sales Tax member state; Form F0003 is not valid there.", in.State),
		"form_type",
		fmt.Sprintf("Obtain the exemption certificate %s prescribes.", in.State))
}

var stateRegistrationRes = map[string]*regexp.Regexp{
	"PA": regexp.MustCompile(`\bPA\s*[-#:]?\s*[A-Z0-9]{4,}\b`),
	"MD": regexp.MustCompile(`\bMD\s*[-#:]?\s*[A-Z0-9]{4,}\b`),
}

var genericRegistrationRe = regexp.MustCompile(`\b[A-Z0-9-]{6,}\b`)

// checkStateRequirements applies the per-state quirks that do not fit the
// generic tables. May emit zero or more results.
func (e *Engine) checkStateRequirements(in Input) []cert.CheckResult {
	const name = "form_correctness.state_requirements"
	var out []cert.CheckResult

	if restr, ok := e.rules.RestrictionsFor(in.State); ok && containsForm(restr.RegistrationRequired, in.Form) {
		if e.hasStateRegistration(in) {
			out = append(out, pass(name, fmt.Sprintf("%s registration number is present.", in.State)))
		} else {
			out = append(out, fail(name, cert.SeverityHardFail,
				fmt.Sprintf("%s requires the purchaser's %s sales tax registration number on this certificate.", in.State, in.State),
				"tax_id",
				fmt.Sprintf("Obtain the purchaser's %s registration number or the state's own certificate.", in.State)))
		}
	}

	if in.Form == cert.FormMAST5 {
		if hasST5Support(in.RawText) {
			out = append(out, pass(name, "Form ST-5 references the purchaser's Form ST-2 or IRS determination letter."))
		} else {
			out = append(out, fail(name, cert.SeveritySoftFlag,
				"Form ST-5 must be supported by the purchaser's Form ST-2 or IRS determination letter.",
				"form_type",
				"Request a copy of the purchaser's Form ST-2 or determination letter."))
		}
	}

	if strings.EqualFold(in.State, "TX") && in.Entity.IsGovernment() && in.Fields.TaxID == "" && in.Fields.PermitNumber == "" {
		out = append(out, pass(name, "Texas does not require a taxpayer number for government purchasers."))
	}

	if len(out) == 0 {
		out = append(out, pass(name, "No state-specific requirements apply."))
	}
	return out
}

// st5SupportRe finds a reference to the purchaser's Form ST-2 anywhere in
// the document text.
var st5SupportRe = regexp.MustCompile(`\bst-?2\b`)

// hasST5Support reports whether the document text references the ST-2 or
// an IRS determination letter backing an ST-5 claim.
func hasST5Support(rawText string) bool {
	lower := strings.ToLower(rawText)
	return st5SupportRe.MatchString(lower) || strings.Contains(lower, "determination letter")
}

// hasStateRegistration looks for a state-prefixed registration number in
// the identifier fields or the document text, then for any
// identifier-shaped token plus license language in the reason text.
func (e *Engine) hasStateRegistration(in Input) bool {
	ids := strings.ToUpper(strings.Join([]string{
		in.Fields.TaxID, in.Fields.PermitNumber, in.Fields.AccountNumber, in.Fields.FEIN,
	}, " "))
	if re, ok := stateRegistrationRes[strings.ToUpper(in.State)]; ok {
		if re.MatchString(ids) || re.MatchString(strings.ToUpper(in.RawText)) {
			return true
		}
	}
	reason := strings.ToUpper(in.Fields.ExemptionReason)
	if strings.Contains(reason, "SALES AND USE TAX LICENSE") {
		return true
	}
	return genericRegistrationRe.MatchString(ids) && strings.Contains(ids, strings.ToUpper(in.State))
}

func containsForm(forms []string, form cert.FormType) bool {
	for _, f := range forms {
		if f == string(form) {
			return true
		}
	}
	return false
}
