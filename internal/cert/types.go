// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package cert defines the core data model for tax-exemption certificate
// validation: the categorical types (form, entity, pathway, disposition),
// the extracted field set, and the check/result structures produced by the
// rule engine.
package cert

import (
	"fmt"
	"time"
)

// FormType identifies a known certificate form. The catalog is closed; text
// that cannot be mapped to a known form is FormUnknown, never an error.
type FormType string

const (
	FormMTCUniform        FormType = "MTC_UNIFORM"
	FormSSTF0003          FormType = "SST_F0003"
	FormTX01339           FormType = "TX_01_339"
	FormNYST120           FormType = "NY_ST_120"
	FormNYST121           FormType = "NY_ST_121"
	FormNYST1191          FormType = "NY_ST_119_1"
	FormNYGovLetter       FormType = "NY_GOV_LETTER"
	FormOHSTECB           FormType = "OH_STEC_B"
	FormOHDirectPay       FormType = "OH_DIRECT_PAY"
	FormPAREV1220         FormType = "PA_REV_1220"
	FormIA31014A          FormType = "IA_31_014A"
	FormMAST2             FormType = "MA_ST_2"
	FormMAST5             FormType = "MA_ST_5"
	FormTNGov             FormType = "TN_GOV"
	FormTNExemptOrg       FormType = "TN_EXEMPT_ORG"
	FormCTCert119         FormType = "CT_CERT_119"
	FormCTCert100         FormType = "CT_CERT_100"
	FormMDGov1            FormType = "MD_GOV_1"
	FormMDNonGov1         FormType = "MD_NONGOV_1"
	FormFLDR14            FormType = "FL_DR_14"
	FormILE99             FormType = "IL_E99"
	FormILSTAX70          FormType = "IL_STAX_70"
	FormALSTE1            FormType = "AL_STE_1"
	FormWAReseller        FormType = "WA_RESELLER"
	FormVTS3              FormType = "VT_S_3"
	FormAZ5000            FormType = "AZ_5000"
	FormKY51A126          FormType = "KY_51A126"
	FormFederalSF1094     FormType = "FEDERAL_SF_1094"
	FormFederalGSACard    FormType = "FEDERAL_GSA_CARD"
	FormFederalLetterhead FormType = "FEDERAL_LETTERHEAD"
	FormGovernmentCard    FormType = "GOVERNMENT_ISSUED_CARD"
	FormStateIssuedCert   FormType = "STATE_ISSUED_CERT"
	FormCustomLetter      FormType = "CUSTOM_LETTER"
	FormUnknown           FormType = "UNKNOWN"
)

var formDisplayNames = map[FormType]string{
	FormMTCUniform:        "MTC Uniform Sales & Use Tax Certificate",
	FormSSTF0003:          "Streamlined Sales Tax Form F0003",
	FormTX01339:           "Texas Form 01-339 Sales and Use Tax Exemption Certification",
	FormNYST120:           "New York Form ST-120 Resale Certificate",
	FormNYST121:           "New York Form ST-121 Exempt Use Certificate",
	FormNYST1191:          "New York Form ST-119.1 Exempt Organization Certification",
	FormNYGovLetter:       "New York Governmental Purchase Letter",
	FormOHSTECB:           "Ohio Form STEC B Sales and Use Tax Blanket Exemption Certificate",
	FormOHDirectPay:       "Ohio Direct Pay Permit",
	FormPAREV1220:         "Pennsylvania Form REV-1220 Exemption Certificate",
	FormIA31014A:          "Iowa Form 31-014a Sales Tax Exemption Certificate",
	FormMAST2:             "Massachusetts Form ST-2 Certificate of Exemption",
	FormMAST5:             "Massachusetts Form ST-5 Exempt Purchaser Certificate",
	FormTNGov:             "Tennessee Government Certificate of Exemption",
	FormTNExemptOrg:       "Tennessee Exempt Organization Certificate",
	FormCTCert119:         "Connecticut CERT-119 Exempt Organization Certificate",
	FormCTCert100:         "Connecticut CERT-100 Materials Certificate",
	FormMDGov1:            "Maryland Form GOV-1 Government Exemption Certificate",
	FormMDNonGov1:         "Maryland Non-Government Exemption Certificate",
	FormFLDR14:            "Florida Form DR-14 Consumer's Certificate of Exemption",
	FormILE99:             "Illinois Form E99 Exemption Certificate",
	FormILSTAX70:          "Illinois Form STAX-70 Exemption Letter",
	FormALSTE1:            "Alabama Form STE-1 Sales and Use Tax Certificate of Exemption",
	FormWAReseller:        "Washington Reseller Permit",
	FormVTS3:              "Vermont Form S-3 Resale and Exempt Organization Certificate",
	FormAZ5000:            "Arizona Form 5000 Transaction Privilege Tax Exemption Certificate",
	FormKY51A126:          "Kentucky Form 51A126 Purchase Exemption Certificate",
	FormFederalSF1094:     "Federal Standard Form 1094 Tax Exemption Certificate",
	FormFederalGSACard:    "Federal GSA SmartPay Card",
	FormFederalLetterhead: "Federal Agency Letterhead",
	FormGovernmentCard:    "Government-Issued Exemption Card",
	FormStateIssuedCert:   "State-Issued Exemption Certificate",
	FormCustomLetter:      "Custom Exemption Letter",
	FormUnknown:           "Unknown Form",
}

// Display returns a human-readable name for the form type.
func (f FormType) Display() string {
	if name, ok := formDisplayNames[f]; ok {
		return name
	}
	return string(f)
}

func (f FormType) MarshalText() ([]byte, error) { return []byte(f), nil }

func (f *FormType) UnmarshalText(b []byte) error {
	v := FormType(b)
	if _, ok := formDisplayNames[v]; !ok {
		return fmt.Errorf("unknown form type %q", b)
	}
	*f = v
	return nil
}

// EntityType classifies the purchaser organization.
type EntityType string

const (
	EntityFederalGovernment EntityType = "FEDERAL_GOVERNMENT"
	EntityStateGovernment   EntityType = "STATE_GOVERNMENT"
	EntityLocalGovernment   EntityType = "LOCAL_GOVERNMENT"
	EntityTribal            EntityType = "TRIBAL_GOVERNMENT"
	EntityNonprofit501c3    EntityType = "NONPROFIT_501C3"
	EntityExemptOrgOther    EntityType = "EXEMPT_ORG_OTHER"
	EntityForProfit         EntityType = "FOR_PROFIT"
	EntityEducational       EntityType = "EDUCATIONAL"
	EntityReligious         EntityType = "RELIGIOUS"
	EntityUnknown           EntityType = "UNKNOWN"
)

var entityDisplayNames = map[EntityType]string{
	EntityFederalGovernment: "Federal Government",
	EntityStateGovernment:   "State Government",
	EntityLocalGovernment:   "Local Government",
	EntityTribal:            "Tribal Government",
	EntityNonprofit501c3:    "501(c)(3) Nonprofit",
	EntityExemptOrgOther:    "Other Exempt Organization",
	EntityForProfit:         "For-Profit Business",
	EntityEducational:       "Educational Institution",
	EntityReligious:         "Religious Organization",
	EntityUnknown:           "Unknown Entity",
}

// Display returns a human-readable name for the entity type.
func (e EntityType) Display() string {
	if name, ok := entityDisplayNames[e]; ok {
		return name
	}
	return string(e)
}

// IsGovernment reports whether the entity is a federal, state, local, or
// tribal government body.
func (e EntityType) IsGovernment() bool {
	switch e {
	case EntityFederalGovernment, EntityStateGovernment, EntityLocalGovernment, EntityTribal:
		return true
	}
	return false
}

func (e EntityType) MarshalText() ([]byte, error) { return []byte(e), nil }

func (e *EntityType) UnmarshalText(b []byte) error {
	v := EntityType(b)
	if _, ok := entityDisplayNames[v]; !ok {
		return fmt.Errorf("unknown entity type %q", b)
	}
	*e = v
	return nil
}

// ValidationPathway selects which family of rules governs a certificate.
type ValidationPathway string

const (
	PathwayFederalExemption     ValidationPathway = "FEDERAL_EXEMPTION"
	PathwayGovCardNoExpiry      ValidationPathway = "GOV_CARD_NO_EXPIRY"
	PathwayGovCardWithExpiry    ValidationPathway = "GOV_CARD_WITH_EXPIRY"
	PathwayStateIssuedCert      ValidationPathway = "STATE_ISSUED_CERT"
	PathwaySpecialPermit        ValidationPathway = "SPECIAL_PERMIT"
	PathwayMultiStateUniform    ValidationPathway = "MULTI_STATE_UNIFORM"
	PathwayStandardSelfComplete ValidationPathway = "STANDARD_SELF_COMPLETED"
)

var pathwayNames = map[ValidationPathway]bool{
	PathwayFederalExemption:     true,
	PathwayGovCardNoExpiry:      true,
	PathwayGovCardWithExpiry:    true,
	PathwayStateIssuedCert:      true,
	PathwaySpecialPermit:        true,
	PathwayMultiStateUniform:    true,
	PathwayStandardSelfComplete: true,
}

func (p ValidationPathway) MarshalText() ([]byte, error) { return []byte(p), nil }

func (p *ValidationPathway) UnmarshalText(b []byte) error {
	v := ValidationPathway(b)
	if !pathwayNames[v] {
		return fmt.Errorf("unknown validation pathway %q", b)
	}
	*p = v
	return nil
}

// ExemptionCategory is the claimed basis for exemption.
type ExemptionCategory string

const (
	CategoryGovernment    ExemptionCategory = "GOVERNMENT"
	CategoryResale        ExemptionCategory = "RESALE"
	CategoryNonprofit     ExemptionCategory = "NONPROFIT"
	CategoryManufacturing ExemptionCategory = "MANUFACTURING"
	CategoryAgriculture   ExemptionCategory = "AGRICULTURE"
	CategoryCommonCarrier ExemptionCategory = "COMMON_CARRIER"
	CategoryIndustrialRD  ExemptionCategory = "INDUSTRIAL_RD"
	CategoryConstruction  ExemptionCategory = "CONSTRUCTION"
	CategoryDirectPay     ExemptionCategory = "DIRECT_PAY"
	CategoryDiplomatic    ExemptionCategory = "DIPLOMATIC"
	CategoryOther         ExemptionCategory = "OTHER"
)

var categoryNames = map[ExemptionCategory]bool{
	CategoryGovernment: true, CategoryResale: true, CategoryNonprofit: true,
	CategoryManufacturing: true, CategoryAgriculture: true,
	CategoryCommonCarrier: true, CategoryIndustrialRD: true,
	CategoryConstruction: true, CategoryDirectPay: true,
	CategoryDiplomatic: true, CategoryOther: true,
}

func (c ExemptionCategory) MarshalText() ([]byte, error) { return []byte(c), nil }

func (c *ExemptionCategory) UnmarshalText(b []byte) error {
	v := ExemptionCategory(b)
	if !categoryNames[v] {
		return fmt.Errorf("unknown exemption category %q", b)
	}
	*c = v
	return nil
}

// ResaleTier grades how plausible a resale claim is for the purchaser's line
// of business.
type ResaleTier string

const (
	TierStrong      ResaleTier = "STRONG"
	TierPlausible   ResaleTier = "PLAUSIBLE"
	TierWeak        ResaleTier = "WEAK"
	TierImplausible ResaleTier = "IMPLAUSIBLE"
	// TierNone marks check results that carry no resale-tier judgment.
	TierNone ResaleTier = ""
)

func (t ResaleTier) MarshalText() ([]byte, error) { return []byte(t), nil }

func (t *ResaleTier) UnmarshalText(b []byte) error {
	switch v := ResaleTier(b); v {
	case TierStrong, TierPlausible, TierWeak, TierImplausible, TierNone:
		*t = v
		return nil
	}
	return fmt.Errorf("unknown resale tier %q", b)
}

// Disposition is the final outcome of validating one certificate.
type Disposition string

const (
	DispositionValidated       Disposition = "VALIDATED"
	DispositionValidatedNotes  Disposition = "VALIDATED_WITH_NOTES"
	DispositionNeedsReview     Disposition = "NEEDS_HUMAN_REVIEW"
	DispositionNeedsCorrection Disposition = "NEEDS_CORRECTION"
	DispositionDuplicate       Disposition = "DUPLICATE"
)

var dispositionNames = map[Disposition]bool{
	DispositionValidated: true, DispositionValidatedNotes: true,
	DispositionNeedsReview: true, DispositionNeedsCorrection: true,
	DispositionDuplicate: true,
}

func (d Disposition) MarshalText() ([]byte, error) { return []byte(d), nil }

func (d *Disposition) UnmarshalText(b []byte) error {
	v := Disposition(b)
	if !dispositionNames[v] {
		return fmt.Errorf("unknown disposition %q", b)
	}
	*d = v
	return nil
}

// SellerProtectionStandard names the legal standard shielding the seller when
// it accepts the certificate.
type SellerProtectionStandard string

const (
	ProtectionSSTFourCorners   SellerProtectionStandard = "SST_FOUR_CORNERS"
	ProtectionGoodFaith        SellerProtectionStandard = "GOOD_FAITH"
	ProtectionFederalSupremacy SellerProtectionStandard = "FEDERAL_SUPREMACY"
)

func (s SellerProtectionStandard) MarshalText() ([]byte, error) { return []byte(s), nil }

func (s *SellerProtectionStandard) UnmarshalText(b []byte) error {
	switch v := SellerProtectionStandard(b); v {
	case ProtectionSSTFourCorners, ProtectionGoodFaith, ProtectionFederalSupremacy:
		*s = v
		return nil
	}
	return fmt.Errorf("unknown seller protection standard %q", b)
}

// CheckSeverity grades a failed check. Passed checks carry SeverityInfo.
type CheckSeverity string

const (
	SeverityHardFail       CheckSeverity = "HARD_FAIL"
	SeverityReasonableness CheckSeverity = "REASONABLENESS"
	SeveritySoftFlag       CheckSeverity = "SOFT_FLAG"
	SeverityInfo           CheckSeverity = "INFO"
)

var severityNames = map[CheckSeverity]bool{
	SeverityHardFail: true, SeverityReasonableness: true,
	SeveritySoftFlag: true, SeverityInfo: true,
}

func (s CheckSeverity) MarshalText() ([]byte, error) { return []byte(s), nil }

func (s *CheckSeverity) UnmarshalText(b []byte) error {
	v := CheckSeverity(b)
	if !severityNames[v] {
		return fmt.Errorf("unknown check severity %q", b)
	}
	*s = v
	return nil
}

// CheckResult is the outcome of a single rule applied to a certificate.
type CheckResult struct {
	Name           string        `json:"name" yaml:"name"`
	Passed         bool          `json:"passed" yaml:"passed"`
	Severity       CheckSeverity `json:"severity" yaml:"severity"`
	Message        string        `json:"message" yaml:"message"`
	Field          string        `json:"field,omitempty" yaml:"field,omitempty"`
	Recommendation string        `json:"recommendation,omitempty" yaml:"recommendation,omitempty"`
	// Tier is set only by the resale-tier reasonableness check.
	Tier ResaleTier `json:"tier,omitempty" yaml:"tier,omitempty"`
}

// FieldSet holds the structured fields extracted from one certificate.
// Pointer fields distinguish absent from zero.
type FieldSet struct {
	PurchaserName    string `json:"purchaser_name,omitempty"`
	PurchaserAddress string `json:"purchaser_address,omitempty"`
	PurchaserCity    string `json:"purchaser_city,omitempty"`
	PurchaserState   string `json:"purchaser_state,omitempty"`
	PurchaserZIP     string `json:"purchaser_zip,omitempty"`
	SellerName       string `json:"seller_name,omitempty"`
	SellerAddress    string `json:"seller_address,omitempty"`

	ExemptionReason   string            `json:"exemption_reason,omitempty"`
	ExemptionCategory ExemptionCategory `json:"exemption_category,omitempty"`
	ExemptionStates   []string          `json:"exemption_states,omitempty"`
	BusinessType      string            `json:"business_type,omitempty"`

	TaxID         string `json:"tax_id,omitempty"`
	FEIN          string `json:"fein,omitempty"`
	PermitNumber  string `json:"permit_number,omitempty"`
	AccountNumber string `json:"account_number,omitempty"`

	CertDate       *time.Time `json:"cert_date,omitempty"`
	ExpirationDate *time.Time `json:"expiration_date,omitempty"`
	HasSignature   *bool      `json:"has_signature,omitempty"`

	// ExtractionConfidence is the extractor's own 0..1 estimate of field
	// fidelity, not a judgment on the certificate.
	ExtractionConfidence float64 `json:"extraction_confidence"`
}

// ValidationResult is the full outcome for one certificate.
type ValidationResult struct {
	CertificateID string `json:"certificate_id"`
	SourceFile    string `json:"source_file,omitempty"`

	FormType       FormType   `json:"form_type"`
	FormConfidence float64    `json:"form_confidence"`
	EntityType     EntityType `json:"entity_type"`

	Pathway          ValidationPathway        `json:"pathway"`
	SellerProtection SellerProtectionStandard `json:"seller_protection"`

	// State is the resolved exemption state all jurisdiction rules keyed
	// on, including any caller override. Empty when none could be derived.
	State string `json:"state,omitempty"`
	// ExpirationRule names the expiration rule type that governs this
	// certificate in the resolved state.
	ExpirationRule string `json:"expiration_rule,omitempty"`
	// RenewalAction describes what keeps the certificate current.
	RenewalAction string `json:"renewal_action,omitempty"`

	Fields FieldSet      `json:"fields"`
	Checks []CheckResult `json:"checks"`

	Disposition Disposition `json:"disposition"`
	Confidence  int         `json:"confidence"`

	// DuplicateOf is the canonical certificate ID when this result was
	// marked DUPLICATE by the batch duplicate pass.
	DuplicateOf string `json:"duplicate_of,omitempty"`

	ValidatedAt time.Time `json:"validated_at"`
}

// FailedChecks returns the subset of checks that did not pass.
func (r *ValidationResult) FailedChecks() []CheckResult {
	var failed []CheckResult
	for _, c := range r.Checks {
		if !c.Passed {
			failed = append(failed, c)
		}
	}
	return failed
}

// HardFailures returns failed checks with HARD_FAIL severity.
func (r *ValidationResult) HardFailures() []CheckResult {
	var out []CheckResult
	for _, c := range r.Checks {
		if !c.Passed && c.Severity == SeverityHardFail {
			out = append(out, c)
		}
	}
	return out
}
