// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package checks

import (
	"fmt"
	"strings"

	"cert-scan/internal/cert"
)

// checkExemptionForProduct judges whether the claimed exemption category
// can plausibly cover the seller's product category.
func (e *Engine) checkExemptionForProduct(in Input) cert.CheckResult {
	const name = "reasonableness.exemption_for_product"
	category := deriveCategory(in.Fields)
	rule, ok := e.rules.Reasonableness[string(category)]
	if !ok || rule.Passes {
		return pass(name, fmt.Sprintf("%s is a plausible exemption basis for this purchase.", category))
	}
	msg := rule.Note
	// Ohio extends its carrier exemption more broadly than most states;
	// elsewhere the claim is almost never colorable for this product.
	if category == cert.CategoryCommonCarrier && !strings.EqualFold(in.State, "OH") {
		msg = "Common-carrier exemptions outside Ohio are limited to rolling stock and equipment used directly in interstate transportation."
	}
	if rule.Citation != "" {
		msg = msg + " " + rule.Citation + "."
	}
	return fail(name, cert.SeverityReasonableness, msg, "exemption_reason",
		"Route to a reviewer to confirm the claimed category covers this purchase.")
}

// checkResaleTier grades the plausibility of a resale claim against the
// purchaser's line of business. Returns nil when the claim is not resale.
func (e *Engine) checkResaleTier(in Input) *cert.CheckResult {
	const name = "reasonableness.resale_tier"
	if deriveCategory(in.Fields) != cert.CategoryResale {
		return nil
	}
	subject := in.Fields.BusinessType
	if strings.TrimSpace(subject) == "" {
		subject = in.Fields.PurchaserName
	}
	tier := e.matchTier(strings.ToLower(subject))

	var result cert.CheckResult
	switch tier {
	case cert.TierStrong:
		result = pass(name, fmt.Sprintf("Resale claim is strongly plausible for %q.", subject))
	case cert.TierPlausible:
		result = pass(name, fmt.Sprintf("Resale claim is plausible for %q.", subject))
	case cert.TierImplausible:
		result = fail(name, cert.SeverityReasonableness,
			fmt.Sprintf("Resale claim is implausible for %q; this line of business does not resell the product.", subject),
			"business_type",
			"Route to a reviewer; the purchaser likely intended a different exemption basis.")
	default:
		result = fail(name, cert.SeverityReasonableness,
			fmt.Sprintf("Resale claim is weakly supported for %q.", subject),
			"business_type",
			"Confirm the purchaser resells the product before accepting the claim.")
	}
	result.Tier = tier
	return &result
}

// matchTier returns the first tier whose patterns match, defaulting to
// TierWeak when nothing matches.
func (e *Engine) matchTier(subject string) cert.ResaleTier {
	for _, tp := range e.rules.ResaleTiers {
		for _, p := range tp.Patterns {
			if strings.Contains(subject, strings.ToLower(p)) {
				switch tp.Tier {
				case "STRONG":
					return cert.TierStrong
				case "PLAUSIBLE":
					return cert.TierPlausible
				case "WEAK":
					return cert.TierWeak
				case "IMPLAUSIBLE":
					return cert.TierImplausible
				}
			}
		}
	}
	return cert.TierWeak
}

// checkEntityExemptionMatch cross-checks the classified entity type
// against the claimed exemption category.
func (e *Engine) checkEntityExemptionMatch(in Input) cert.CheckResult {
	const name = "reasonableness.entity_exemption_match"
	category := deriveCategory(in.Fields)

	if in.Entity.IsGovernment() && (category == cert.CategoryManufacturing || category == cert.CategoryAgriculture) {
		return pass(name, fmt.Sprintf("Government entity claiming %s is unusual but not disqualifying.", category))
	}

	nonprofitish := in.Entity == cert.EntityNonprofit501c3 ||
		in.Entity == cert.EntityExemptOrgOther ||
		in.Entity == cert.EntityReligious ||
		in.Entity == cert.EntityEducational

	mismatch := ""
	switch {
	case nonprofitish && category == cert.CategoryResale:
		mismatch = fmt.Sprintf("%s claiming resale is unusual; exempt organizations rarely resell the product.", in.Entity.Display())
	case in.Entity == cert.EntityForProfit && category == cert.CategoryGovernment:
		mismatch = "A for-profit business cannot claim a government exemption in its own right."
	}
	if mismatch == "" {
		return pass(name, "Entity type is consistent with the claimed exemption.")
	}
	// Four-corners states bind the seller to the face of the form, so a
	// facially complete certificate only warrants a note.
	severity := cert.SeverityReasonableness
	if e.rules.IsSSTMember(in.State) {
		severity = cert.SeveritySoftFlag
	}
	return fail(name, severity, mismatch, "exemption_reason",
		"Verify the purchaser's eligibility for the claimed exemption basis.")
}

// checkProductTaxability is purely informational: it records how the
// product category is taxed in the exemption state.
func (e *Engine) checkProductTaxability(in Input) cert.CheckResult {
	const name = "info.product_taxability"
	if note, ok := e.rules.ProductTaxability[strings.ToUpper(in.State)]; ok {
		return pass(name, fmt.Sprintf("%s: %s.", in.State, note))
	}
	if in.State == "" {
		return pass(name, "No exemption state; taxability not evaluated.")
	}
	return pass(name, fmt.Sprintf("No taxability note on file for %s.", in.State))
}
