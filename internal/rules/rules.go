// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package rules loads the jurisdiction rule tables that drive certificate
// validation. Defaults are embedded; a YAML file can override individual
// tables. The loaded RuleSet is immutable and shared by every component.
package rules

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// FormProfile describes one known certificate form for identification and
// routing.
type FormProfile struct {
	// Identifiers are lowercase phrases whose presence in document text
	// counts toward identifying this form.
	Identifiers []string `yaml:"identifiers"`
	// State is the issuing state postal code, empty for multi-state and
	// federal forms.
	State string `yaml:"state,omitempty"`
	// FieldLabels supplement the default extraction labels for this form.
	FieldLabels map[string][]string `yaml:"field_labels,omitempty"`
}

// ExpirationRule controls how long a certificate remains valid in a state.
type ExpirationRule struct {
	// Type is one of: never, fixed_years, annual, state_printed,
	// period_cert, form_specific.
	Type string `yaml:"type"`
	// Years applies to fixed_years rules.
	Years int `yaml:"years,omitempty"`
	// Forms maps a form key to a nested rule for form_specific types.
	Forms map[string]ExpirationRule `yaml:"forms,omitempty"`
	// Note is appended to check messages for this rule.
	Note string `yaml:"note,omitempty"`
}

// IncompatibilityRule bars an entity type from using a form in a state.
type IncompatibilityRule struct {
	State    string   `yaml:"state"`
	Form     string   `yaml:"form"`
	Entities []string `yaml:"entities"`
	Reason   string   `yaml:"reason"`
}

// ReasonablenessRule grades an exemption category claim.
type ReasonablenessRule struct {
	Passes   bool   `yaml:"passes"`
	Note     string `yaml:"note,omitempty"`
	Citation string `yaml:"citation,omitempty"`
}

// TierPattern maps business-type or purchaser-name substrings to a resale
// plausibility tier.
type TierPattern struct {
	Tier     string   `yaml:"tier"`
	Patterns []string `yaml:"patterns"`
}

// AgeBucket attaches advisory text to certificates of a given age in years.
type AgeBucket struct {
	MinYears int    `yaml:"min_years"`
	MaxYears int    `yaml:"max_years,omitempty"`
	Severity string `yaml:"severity"`
	Note     string `yaml:"note"`
}

// StateRestrictions carries per-state form restrictions for multi-state
// uniform certificates.
type StateRestrictions struct {
	ResaleOnly           []string `yaml:"resale_only,omitempty"`
	RegistrationRequired []string `yaml:"registration_required,omitempty"`
	AlternativeForms     []string `yaml:"alternative_forms,omitempty"`
}

// RuleSet is the complete rule configuration. Treat as read-only after Load.
type RuleSet struct {
	Forms map[string]FormProfile `yaml:"forms"`

	Expiration        map[string]ExpirationRule `yaml:"expiration"`
	DefaultExpiration ExpirationRule            `yaml:"default_expiration"`

	SSTMembers []string `yaml:"sst_members"`

	MTCRestrictions map[string]StateRestrictions `yaml:"mtc_restrictions"`

	Incompatibilities []IncompatibilityRule `yaml:"incompatibilities"`

	Reasonableness map[string]ReasonablenessRule `yaml:"reasonableness"`

	ResaleTiers []TierPattern `yaml:"resale_tiers"`

	AgeBuckets []AgeBucket `yaml:"age_buckets"`

	// ProductTaxability summarizes how the seller's product category is
	// taxed per state, keyed by postal code.
	ProductTaxability map[string]string `yaml:"product_taxability"`

	// SellerNameVariants are acceptable renderings of the seller's legal
	// name. Empty means any non-placeholder seller name passes.
	SellerNameVariants []string `yaml:"seller_name_variants"`

	sstMemberSet map[string]bool
}

// Default returns the embedded rule set.
func Default() (*RuleSet, error) {
	return parse(defaultsYAML)
}

// Load returns the embedded defaults with tables from path layered on top.
// An empty path returns the defaults unchanged.
func Load(path string) (*RuleSet, error) {
	rs, err := Default()
	if err != nil {
		return nil, err
	}
	if path == "" {
		return rs, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rules file: %w", err)
	}
	if err := yaml.Unmarshal(data, rs); err != nil {
		return nil, fmt.Errorf("parsing rules file %s: %w", path, err)
	}
	rs.index()
	return rs, nil
}

func parse(data []byte) (*RuleSet, error) {
	rs := &RuleSet{}
	if err := yaml.Unmarshal(data, rs); err != nil {
		return nil, fmt.Errorf("parsing embedded rules: %w", err)
	}
	rs.index()
	return rs, nil
}

func (rs *RuleSet) index() {
	rs.sstMemberSet = make(map[string]bool, len(rs.SSTMembers))
	for _, s := range rs.SSTMembers {
		rs.sstMemberSet[strings.ToUpper(s)] = true
	}
}

// IsSSTMember reports whether the state participates in the Streamlined
// Sales Tax agreement.
func (rs *RuleSet) IsSSTMember(state string) bool {
	return rs.sstMemberSet[strings.ToUpper(state)]
}

// ExpirationFor resolves the expiration rule for a state, falling back to
// the default rule.
func (rs *RuleSet) ExpirationFor(state string) ExpirationRule {
	if r, ok := rs.Expiration[strings.ToUpper(state)]; ok {
		return r
	}
	return rs.DefaultExpiration
}

// RestrictionsFor returns the multi-state certificate restrictions for a
// state, if any.
func (rs *RuleSet) RestrictionsFor(state string) (StateRestrictions, bool) {
	r, ok := rs.MTCRestrictions[strings.ToUpper(state)]
	return r, ok
}
