// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package checks

import (
	"fmt"
	"strings"
	"unicode"

	"cert-scan/internal/cert"
)

// entityIndicators are substrings that mark a purchaser name as an
// organization rather than an individual.
var entityIndicators = []string{
	"llc", "l.l.c", "inc", "incorporated", "corp", "corporation", "ltd",
	"limited", "company", "co.", "enterprises", "holdings", "partners",
	"university", "college", "school", "district", "church", "ministries",
	"city of", "county of", "state of", "department", "bureau", "agency",
	"authority", "commission", "board", "foundation", "association",
	"institute", "center", "centre", "society", "trust", "club",
	"services", "solutions", "systems", "group", "stores", "supply",
	"tribe", "nation",
}

func (e *Engine) checkPurchaserName(in Input) cert.CheckResult {
	const name = "completeness.purchaser_name"
	if strings.TrimSpace(in.Fields.PurchaserName) == "" {
		return fail(name, cert.SeverityHardFail,
			"Purchaser name is missing.",
			"purchaser_name",
			"Obtain the purchaser's legal business name.")
	}
	return pass(name, "Purchaser name is present.")
}

// checkPurchaserNameIsEntity flags certificates issued to what looks like
// a private individual. Exemptions belong to organizations; a certificate
// naming a person is almost always filled out wrong.
func (e *Engine) checkPurchaserNameIsEntity(in Input) cert.CheckResult {
	const name = "completeness.purchaser_name_is_entity"
	purchaser := strings.TrimSpace(in.Fields.PurchaserName)
	if purchaser == "" {
		return pass(name, "No purchaser name to evaluate.")
	}
	lower := strings.ToLower(purchaser)
	for _, ind := range entityIndicators {
		if strings.Contains(lower, ind) {
			return pass(name, "Purchaser name identifies a business entity.")
		}
	}
	if looksLikePersonalName(purchaser) {
		return fail(name, cert.SeverityHardFail,
			fmt.Sprintf("Purchaser name %q appears to be a personal name, not a business entity.", purchaser),
			"purchaser_name",
			"Certificates must name the exempt organization. Request a corrected certificate in the entity's legal name.")
	}
	return fail(name, cert.SeveritySoftFlag,
		fmt.Sprintf("Cannot confirm that %q names a business entity.", purchaser),
		"purchaser_name",
		"Verify the purchaser is an organization, not an individual.")
}

// looksLikePersonalName matches two or three capitalized alphabetic words,
// the shape of "Donna Miller" or "John Q Public".
func looksLikePersonalName(s string) bool {
	parts := strings.Fields(s)
	if len(parts) < 2 || len(parts) > 3 {
		return false
	}
	for _, p := range parts {
		runes := []rune(p)
		if !unicode.IsUpper(runes[0]) {
			return false
		}
		for _, r := range runes {
			if !unicode.IsLetter(r) {
				return false
			}
		}
	}
	return true
}

// checkPurchaserAddress applies only to forms the purchaser fills in;
// state-issued documents are validated on their own terms and the check
// abstains for them.
func (e *Engine) checkPurchaserAddress(in Input) *cert.CheckResult {
	const name = "completeness.purchaser_address"
	if in.issuedDocument() {
		return nil
	}
	var result cert.CheckResult
	if strings.TrimSpace(in.Fields.PurchaserAddress) != "" {
		result = pass(name, "Purchaser address is present.")
	} else {
		result = fail(name, cert.SeverityHardFail,
			"Purchaser address is missing.",
			"purchaser_address",
			"Obtain the purchaser's business address.")
	}
	return &result
}

// placeholderSellers are seller-name entries that identify nobody.
var placeholderSellers = []string{"customer", "various", "all vendors", "any", "n/a", "na", "-"}

// checkSellerName abstains for state-issued documents, which carry no
// seller name at all.
func (e *Engine) checkSellerName(in Input) *cert.CheckResult {
	const name = "completeness.seller_name"
	if in.issuedDocument() {
		return nil
	}
	seller := strings.TrimSpace(in.Fields.SellerName)
	if seller == "" {
		result := fail(name, cert.SeverityHardFail,
			"Seller name is missing.",
			"seller_name",
			"The certificate must name the seller it covers.")
		return &result
	}
	lower := strings.ToLower(seller)
	for _, p := range placeholderSellers {
		if lower == p {
			result := fail(name, cert.SeveritySoftFlag,
				fmt.Sprintf("Seller name %q is a placeholder, not a specific seller.", seller),
				"seller_name",
				"Request a certificate naming the seller explicitly.")
			return &result
		}
	}
	if len(e.rules.SellerNameVariants) > 0 {
		for _, v := range e.rules.SellerNameVariants {
			if strings.Contains(lower, strings.ToLower(v)) {
				result := pass(name, "Seller name matches a configured variant.")
				return &result
			}
		}
		result := fail(name, cert.SeverityHardFail,
			fmt.Sprintf("Seller name %q does not match any accepted rendering of the seller's legal name.", seller),
			"seller_name",
			"Request a corrected certificate naming the seller.")
		return &result
	}
	result := pass(name, "Seller name is present.")
	return &result
}

// checkExemptionReason abstains for state-issued documents, where the
// exemption basis is established by issuance.
func (e *Engine) checkExemptionReason(in Input) *cert.CheckResult {
	const name = "completeness.exemption_reason"
	if in.issuedDocument() {
		return nil
	}
	var result cert.CheckResult
	if strings.TrimSpace(in.Fields.ExemptionReason) == "" {
		result = fail(name, cert.SeverityHardFail,
			"Exemption reason is missing.",
			"exemption_reason",
			"The certificate must state the basis for exemption.")
	} else {
		result = pass(name, "Exemption reason is present.")
	}
	return &result
}

// checkSignature abstains for state-issued documents, which the purchaser
// does not sign.
func (e *Engine) checkSignature(in Input) *cert.CheckResult {
	const name = "completeness.signature"
	if in.issuedDocument() {
		return nil
	}
	var result cert.CheckResult
	if in.Fields.HasSignature == nil || !*in.Fields.HasSignature {
		result = fail(name, cert.SeverityHardFail,
			"Certificate is not signed.",
			"signature",
			"Obtain a signed certificate; unsigned certificates provide no protection.")
	} else {
		result = pass(name, "Certificate is signed.")
	}
	return &result
}

// checkDate abstains for state-issued documents; their currency is judged
// by the expiration checks instead.
func (e *Engine) checkDate(in Input) *cert.CheckResult {
	const name = "completeness.date"
	if in.issuedDocument() {
		return nil
	}
	var result cert.CheckResult
	if in.Fields.CertDate == nil {
		result = fail(name, cert.SeverityHardFail,
			"Certificate date is missing.",
			"cert_date",
			"Obtain a dated certificate.")
	} else {
		result = pass(name, "Certificate date is present.")
	}
	return &result
}

func (e *Engine) checkExemptionState(in Input) cert.CheckResult {
	const name = "completeness.exemption_state"
	if in.State == "" && len(in.Fields.ExemptionStates) == 0 {
		return fail(name, cert.SeverityHardFail,
			"Cannot determine which state the exemption is claimed in.",
			"exemption_states",
			"Identify the exemption state from the form or the purchaser's ship-to address.")
	}
	return pass(name, "Exemption state is identified.")
}

// checkCompoundFailure adds one more hard failure when the completeness
// checks already produced three or more: at that point the document is
// likely blank, illegible, or not a certificate at all.
func (e *Engine) checkCompoundFailure(completed []cert.CheckResult) cert.CheckResult {
	const name = "completeness.compound_failure"
	hard := 0
	for _, c := range completed {
		if !c.Passed && c.Severity == cert.SeverityHardFail {
			hard++
		}
	}
	if hard >= 3 {
		return fail(name, cert.SeverityHardFail,
			fmt.Sprintf("Certificate has %d hard completeness failures; the document may be blank, illegible, or not an exemption certificate.", hard),
			"",
			"Review the source document and request a complete certificate.")
	}
	return pass(name, "No compound completeness failure.")
}
