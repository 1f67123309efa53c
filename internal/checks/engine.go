// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package checks implements the ordered battery of rules applied to every
// certificate. Checks never error: a check that does not apply to the
// certificate's pathway abstains and contributes no result.
package checks

import (
	"strings"
	"time"

	"cert-scan/internal/cert"
	"cert-scan/internal/rules"
)

// Input is everything the battery needs to judge one certificate.
type Input struct {
	Form    cert.FormType
	Entity  cert.EntityType
	Pathway cert.ValidationPathway
	// State is the primary exemption state postal code, possibly empty.
	State  string
	Fields cert.FieldSet
	// RawText is the full document text; some checks search it for
	// evidence that never lands in a structured field.
	RawText string
}

// issuedDocument reports whether the certificate is a government-issued
// document rather than a form the purchaser fills in. Issued documents
// carry no seller name, signature, or reason, so those checks relax.
func (in Input) issuedDocument() bool {
	switch in.Pathway {
	case cert.PathwayFederalExemption, cert.PathwayGovCardNoExpiry,
		cert.PathwayGovCardWithExpiry, cert.PathwayStateIssuedCert,
		cert.PathwaySpecialPermit:
		return true
	}
	return false
}

// Engine runs the check battery against a rule set.
type Engine struct {
	rules *rules.RuleSet
	// Now supplies the clock for all temporal checks.
	Now func() time.Time
}

// NewEngine creates an engine over the given rule set.
func NewEngine(rs *rules.RuleSet) *Engine {
	return &Engine{rules: rs, Now: time.Now}
}

// RunAll executes every check in its fixed order and returns one result
// per check. The order is part of the contract: the compound-failure check
// counts hard failures among the completeness checks that precede it.
func (e *Engine) RunAll(in Input) []cert.CheckResult {
	var out []cert.CheckResult

	out = append(out, e.checkPurchaserName(in))
	out = append(out, e.checkPurchaserNameIsEntity(in))
	if r := e.checkPurchaserAddress(in); r != nil {
		out = append(out, *r)
	}
	if r := e.checkSellerName(in); r != nil {
		out = append(out, *r)
	}
	if r := e.checkExemptionReason(in); r != nil {
		out = append(out, *r)
	}
	if r := e.checkSignature(in); r != nil {
		out = append(out, *r)
	}
	if r := e.checkDate(in); r != nil {
		out = append(out, *r)
	}
	out = append(out, e.checkExemptionState(in))
	out = append(out, e.checkCompoundFailure(out))

	out = append(out, e.checkFormForState(in))
	out = append(out, e.checkMTCResaleOnly(in))
	out = append(out, e.checkSSTMember(in))
	out = append(out, e.checkStateRequirements(in)...)

	out = append(out, e.checkExpiration(in))
	out = append(out, e.checkFutureDate(in))
	out = append(out, e.checkCertAge(in))

	out = append(out, e.checkExemptionForProduct(in))
	if tier := e.checkResaleTier(in); tier != nil {
		out = append(out, *tier)
	}
	out = append(out, e.checkEntityExemptionMatch(in))
	out = append(out, e.checkProductTaxability(in))

	return out
}

// deriveCategory resolves the exemption category: the explicit field wins,
// then keywords in the stated reason, then OTHER.
func deriveCategory(fs cert.FieldSet) cert.ExemptionCategory {
	if fs.ExemptionCategory != "" {
		return fs.ExemptionCategory
	}
	reason := strings.ToLower(fs.ExemptionReason)
	switch {
	case strings.Contains(reason, "resale") || strings.Contains(reason, "resell"):
		return cert.CategoryResale
	case strings.Contains(reason, "government") || strings.Contains(reason, "gov"):
		return cert.CategoryGovernment
	case strings.Contains(reason, "nonprofit") || strings.Contains(reason, "non-profit") || strings.Contains(reason, "501"):
		return cert.CategoryNonprofit
	}
	return cert.CategoryOther
}

func pass(name, message string) cert.CheckResult {
	return cert.CheckResult{Name: name, Passed: true, Severity: cert.SeverityInfo, Message: message}
}

func fail(name string, sev cert.CheckSeverity, message, field, rec string) cert.CheckResult {
	return cert.CheckResult{
		Name:           name,
		Passed:         false,
		Severity:       sev,
		Message:        message,
		Field:          field,
		Recommendation: rec,
	}
}
