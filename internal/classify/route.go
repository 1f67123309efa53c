// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package classify

import (
	"strings"

	"cert-scan/internal/cert"
	"cert-scan/internal/rules"
)

// CheckCompatibility reports whether the identified entity type may use
// this form in this state. A nil result means no incompatibility rule
// applies; a non-nil result is a HARD_FAIL check.
func CheckCompatibility(entity cert.EntityType, form cert.FormType, state string, rs *rules.RuleSet) *cert.CheckResult {
	state = strings.ToUpper(strings.TrimSpace(state))
	for _, rule := range rs.Incompatibilities {
		if !strings.EqualFold(rule.State, state) || rule.Form != string(form) {
			continue
		}
		for _, e := range rule.Entities {
			if e == string(entity) {
				return &cert.CheckResult{
					Name:           "form_correctness.entity_form_compatibility",
					Passed:         false,
					Severity:       cert.SeverityHardFail,
					Message:        rule.Reason,
					Field:          "form_type",
					Recommendation: "Obtain the correct certificate type for this purchaser.",
				}
			}
		}
	}
	return nil
}

// pathwayByForm routes forms with dedicated handling; everything else is
// a standard self-completed certificate.
var pathwayByForm = map[cert.FormType]cert.ValidationPathway{
	cert.FormFederalSF1094:     cert.PathwayFederalExemption,
	cert.FormFederalGSACard:    cert.PathwayFederalExemption,
	cert.FormFederalLetterhead: cert.PathwayFederalExemption,
	cert.FormMDGov1:            cert.PathwayGovCardNoExpiry,
	cert.FormMDNonGov1:         cert.PathwayGovCardWithExpiry,
	cert.FormFLDR14:            cert.PathwayGovCardWithExpiry,
	cert.FormILE99:             cert.PathwayStateIssuedCert,
	cert.FormILSTAX70:          cert.PathwayStateIssuedCert,
	cert.FormTNGov:             cert.PathwayStateIssuedCert,
	cert.FormTNExemptOrg:       cert.PathwayStateIssuedCert,
	cert.FormNYGovLetter:       cert.PathwayStateIssuedCert,
	cert.FormOHDirectPay:       cert.PathwaySpecialPermit,
	cert.FormWAReseller:        cert.PathwaySpecialPermit,
	cert.FormMTCUniform:        cert.PathwayMultiStateUniform,
	cert.FormSSTF0003:          cert.PathwayMultiStateUniform,
}

// RouteToPathway selects the validation pathway for a form.
func RouteToPathway(form cert.FormType) cert.ValidationPathway {
	if p, ok := pathwayByForm[form]; ok {
		return p
	}
	return cert.PathwayStandardSelfComplete
}

// SellerProtection names the legal standard protecting the seller when it
// accepts a certificate in the given state.
func SellerProtection(form cert.FormType, pathway cert.ValidationPathway, state string, rs *rules.RuleSet) cert.SellerProtectionStandard {
	if pathway == cert.PathwayFederalExemption {
		return cert.ProtectionFederalSupremacy
	}
	if form == cert.FormSSTF0003 && rs.IsSSTMember(state) {
		return cert.ProtectionSSTFourCorners
	}
	return cert.ProtectionGoodFaith
}
