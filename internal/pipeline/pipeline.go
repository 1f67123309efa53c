// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package pipeline orchestrates single-certificate validation: form
// identification, field extraction, entity classification, pathway
// routing, the check battery, and disposition aggregation. Batch scope
// (worker pool plus duplicate detection) lives in batch.go.
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"

	"cert-scan/internal/cert"
	"cert-scan/internal/checks"
	"cert-scan/internal/classify"
	"cert-scan/internal/disposition"
	"cert-scan/internal/extract"
	"cert-scan/internal/jurisdiction"
	"cert-scan/internal/observability"
	"cert-scan/internal/rules"
	"cert-scan/internal/vision"
)

// VisionProvider is the external extraction provider the pipeline may
// consult when local extraction is weak.
type VisionProvider interface {
	ExtractFields(ctx context.Context, text string) (*vision.Extraction, error)
}

// Options adjust validation of a single certificate.
type Options struct {
	// StateOverride forces the exemption state regardless of what the
	// document says.
	StateOverride string
	SourceFile    string
	// CertificateID is assigned when empty.
	CertificateID string
}

// Pipeline validates certificates against a rule set.
type Pipeline struct {
	rules     *rules.RuleSet
	extractor *extract.Extractor
	engine    *checks.Engine
	observer  *observability.Observer

	// Vision is optional; nil disables external extraction.
	Vision VisionProvider
	// MinVisionConfidence gates provider results.
	MinVisionConfidence float64

	// Now supplies the clock; tests inject a fixed time.
	Now func() time.Time
}

// New creates a pipeline over the given rule set.
func New(rs *rules.RuleSet, observer *observability.Observer) *Pipeline {
	return &Pipeline{
		rules:               rs,
		extractor:           extract.NewExtractor(rs),
		engine:              checks.NewEngine(rs),
		observer:            observer,
		MinVisionConfidence: vision.DefaultMinConfidence,
		Now:                 time.Now,
	}
}

// ValidateText runs the full pipeline over raw certificate text. Content
// problems never error: an unidentifiable form or empty field set flows
// through the checks and surfaces in the disposition.
func (p *Pipeline) ValidateText(ctx context.Context, text string, opts Options) *cert.ValidationResult {
	finish := p.observer.StartTiming("pipeline", "validate", opts.SourceFile)

	p.engine.Now = p.Now
	p.extractor.Now = p.Now

	ident := extract.IdentifyForm(text, p.rules)
	fields := p.extractor.Extract(text, ident.FormType)

	// The provider is consulted only when local extraction is shaky, and
	// its answer is used only when it clears the confidence gate.
	var entityHint string
	if p.Vision != nil && (fields.ExtractionConfidence < 0.8 || ident.FormType == cert.FormUnknown) {
		if ext, err := p.Vision.ExtractFields(ctx, text); err == nil && ext.Confidence >= p.MinVisionConfidence {
			fields = ext.Fields
			entityHint = ext.EntityTypeHint
			if ident.FormType == cert.FormUnknown {
				if hinted := vision.MapFormHint(ext.FormTypeHint); hinted != cert.FormUnknown {
					ident = extract.Identification{FormType: hinted, Confidence: ext.Confidence}
					p.fillFormState(hinted, &fields)
				}
			}
		} else if err != nil {
			p.observer.Step("pipeline", "vision_fallback", opts.SourceFile, map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	entity := classify.ClassifyEntity(fields.PurchaserName, fields.ExemptionReason, text)
	if entity == cert.EntityUnknown && entityHint != "" {
		if hinted := vision.MapEntityHint(entityHint); hinted != cert.EntityUnknown {
			entity = hinted
		}
	}
	state := p.primaryState(opts.StateOverride, fields)
	pathway := classify.RouteToPathway(ident.FormType)
	protection := classify.SellerProtection(ident.FormType, pathway, state, p.rules)

	checkResults := p.engine.RunAll(checks.Input{
		Form:    ident.FormType,
		Entity:  entity,
		Pathway: pathway,
		State:   state,
		Fields:  fields,
		RawText: text,
	})
	// Compatibility leads the check list so readers see the entity/form
	// verdict first.
	if compat := classify.CheckCompatibility(entity, ident.FormType, state, p.rules); compat != nil {
		checkResults = append([]cert.CheckResult{*compat}, checkResults...)
	}

	var expirationRule, renewalAction string
	if state != "" {
		rule := p.engine.ResolveExpiration(state, ident.FormType)
		expirationRule = rule.Type
		renewalAction = checks.RenewalActionFor(rule)
	}

	result := &cert.ValidationResult{
		CertificateID:    opts.CertificateID,
		SourceFile:       opts.SourceFile,
		FormType:         ident.FormType,
		FormConfidence:   ident.Confidence,
		EntityType:       entity,
		Pathway:          pathway,
		SellerProtection: protection,
		State:            state,
		ExpirationRule:   expirationRule,
		RenewalAction:    renewalAction,
		Fields:           fields,
		Checks:           checkResults,
		Disposition:      disposition.Aggregate(checkResults),
		Confidence:       disposition.Confidence(checkResults, fields.ExtractionConfidence, ident.FormType, entity),
		ValidatedAt:      p.Now().UTC(),
	}
	if result.CertificateID == "" {
		result.CertificateID = uuid.NewString()
	}

	finish(true, map[string]interface{}{
		"form":        string(result.FormType),
		"disposition": string(result.Disposition),
		"confidence":  result.Confidence,
	})
	return result
}

// ReviewResult builds the NEEDS_HUMAN_REVIEW result used when a document
// cannot be processed at all (unreadable file, encrypted PDF, image scan
// with no provider). Boundary failures become reviewable results instead
// of halting the batch.
func (p *Pipeline) ReviewResult(sourceFile, why string) *cert.ValidationResult {
	check := cert.CheckResult{
		Name:           "ingest.document_readable",
		Passed:         false,
		Severity:       cert.SeverityReasonableness,
		Message:        why,
		Recommendation: "Review the source document manually.",
	}
	return &cert.ValidationResult{
		CertificateID:    uuid.NewString(),
		SourceFile:       sourceFile,
		FormType:         cert.FormUnknown,
		EntityType:       cert.EntityUnknown,
		Pathway:          cert.PathwayStandardSelfComplete,
		SellerProtection: cert.ProtectionGoodFaith,
		Checks:           []cert.CheckResult{check},
		Disposition:      cert.DispositionNeedsReview,
		Confidence:       0,
		ValidatedAt:      p.Now().UTC(),
	}
}

// primaryState picks the state all jurisdiction rules key on: the caller's
// override, then the first claimed exemption state, then the purchaser's
// address state.
func (p *Pipeline) primaryState(override string, fields cert.FieldSet) string {
	if s := jurisdiction.NormalizeState(override); s != "" {
		return s
	}
	if len(fields.ExemptionStates) > 0 {
		return fields.ExemptionStates[0]
	}
	return fields.PurchaserState
}

// fillFormState sets the exemption state from the form profile when the
// vision path identified a state-specific form after local extraction
// found no state.
func (p *Pipeline) fillFormState(form cert.FormType, fields *cert.FieldSet) {
	if len(fields.ExemptionStates) > 0 {
		return
	}
	if profile, ok := p.rules.Forms[string(form)]; ok && profile.State != "" {
		fields.ExemptionStates = []string{profile.State}
	}
}
