// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package vision

import (
	"strings"

	"cert-scan/internal/cert"
)

// MapFormHint converts the provider's free-text form hint to a catalog
// form type. Unmappable hints are FormUnknown.
func MapFormHint(hint string) cert.FormType {
	var form cert.FormType
	if err := form.UnmarshalText([]byte(strings.ToUpper(strings.TrimSpace(hint)))); err == nil {
		return form
	}
	lower := strings.ToLower(hint)
	switch {
	case strings.Contains(lower, "01-339"):
		return cert.FormTX01339
	case strings.Contains(lower, "multistate") || strings.Contains(lower, "mtc"):
		return cert.FormMTCUniform
	case strings.Contains(lower, "streamlined") || strings.Contains(lower, "f0003"):
		return cert.FormSSTF0003
	case strings.Contains(lower, "dr-14"):
		return cert.FormFLDR14
	case strings.Contains(lower, "rev-1220"):
		return cert.FormPAREV1220
	case strings.Contains(lower, "st-119.1"):
		return cert.FormNYST1191
	case strings.Contains(lower, "sf-1094") || strings.Contains(lower, "1094"):
		return cert.FormFederalSF1094
	case strings.Contains(lower, "smartpay") || strings.Contains(lower, "gsa"):
		return cert.FormFederalGSACard
	}
	return cert.FormUnknown
}

// MapEntityHint converts the provider's free-text entity hint to an
// entity type. Unmappable hints are EntityUnknown.
func MapEntityHint(hint string) cert.EntityType {
	var entity cert.EntityType
	if err := entity.UnmarshalText([]byte(strings.ToUpper(strings.TrimSpace(hint)))); err == nil {
		return entity
	}
	lower := strings.ToLower(hint)
	switch {
	case strings.Contains(lower, "federal"):
		return cert.EntityFederalGovernment
	case strings.Contains(lower, "tribal") || strings.Contains(lower, "tribe"):
		return cert.EntityTribal
	case strings.Contains(lower, "local") || strings.Contains(lower, "city") || strings.Contains(lower, "county"):
		return cert.EntityLocalGovernment
	case strings.Contains(lower, "state"):
		return cert.EntityStateGovernment
	case strings.Contains(lower, "501"):
		return cert.EntityNonprofit501c3
	case strings.Contains(lower, "nonprofit") || strings.Contains(lower, "non-profit"):
		return cert.EntityExemptOrgOther
	case strings.Contains(lower, "school") || strings.Contains(lower, "university") || strings.Contains(lower, "education"):
		return cert.EntityEducational
	case strings.Contains(lower, "church") || strings.Contains(lower, "religio"):
		return cert.EntityReligious
	case strings.Contains(lower, "profit") || strings.Contains(lower, "business") || strings.Contains(lower, "company"):
		return cert.EntityForProfit
	}
	return cert.EntityUnknown
}
