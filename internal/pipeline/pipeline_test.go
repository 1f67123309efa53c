// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"cert-scan/internal/cert"
	"cert-scan/internal/ingest"
	"cert-scan/internal/observability"
	"cert-scan/internal/rules"
	"cert-scan/internal/vision"
)

const texasCertText = `01-339 (Back)
Texas Sales and Use Tax Exemption Certification

Name of purchaser, firm or agency: Lone Star Distribution LLC
Address: 4500 Commerce Street
Dallas, TX 75201

Seller: Acme Software Inc
Taxpayer number: 12-3456789
Reason for exemption: Purchase for resale in the normal course of business
Authorized signature: Maria Gonzalez
Date signed: 3/15/2023
`

func testPipeline(t *testing.T) *Pipeline {
	t.Helper()
	rs, err := rules.Default()
	if err != nil {
		t.Fatalf("loading rules: %v", err)
	}
	p := New(rs, observability.NewObserver(observability.LevelOff, io.Discard))
	p.Now = func() time.Time { return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC) }
	return p
}

func TestValidateTextTexasCertificate(t *testing.T) {
	p := testPipeline(t)
	result := p.ValidateText(context.Background(), texasCertText, Options{SourceFile: "cert.txt"})

	if result.FormType != cert.FormTX01339 {
		t.Errorf("form = %s", result.FormType)
	}
	if result.EntityType != cert.EntityForProfit {
		t.Errorf("entity = %s", result.EntityType)
	}
	if result.Pathway != cert.PathwayStandardSelfComplete {
		t.Errorf("pathway = %s", result.Pathway)
	}
	if result.SellerProtection != cert.ProtectionGoodFaith {
		t.Errorf("protection = %s", result.SellerProtection)
	}
	if result.Disposition != cert.DispositionValidated {
		t.Errorf("disposition = %s, failed checks: %+v", result.Disposition, result.FailedChecks())
	}
	if result.Confidence != 100 {
		t.Errorf("confidence = %d, want 100", result.Confidence)
	}
	if result.CertificateID == "" {
		t.Error("certificate ID should be assigned")
	}
	if result.SourceFile != "cert.txt" {
		t.Errorf("source file = %q", result.SourceFile)
	}
	if result.State != "TX" {
		t.Errorf("state = %q, want TX", result.State)
	}
	if result.ExpirationRule != "never" {
		t.Errorf("expiration rule = %q, want never", result.ExpirationRule)
	}
	if result.RenewalAction != "No renewal required." {
		t.Errorf("renewal action = %q", result.RenewalAction)
	}
}

func TestValidateTextStateOverride(t *testing.T) {
	p := testPipeline(t)
	// Forcing New York makes the Texas form the wrong paper.
	result := p.ValidateText(context.Background(), texasCertText, Options{StateOverride: "New York"})
	if result.Disposition != cert.DispositionNeedsCorrection {
		t.Errorf("disposition = %s, want NEEDS_CORRECTION", result.Disposition)
	}
	found := false
	for _, c := range result.HardFailures() {
		if c.Name == "form_correctness.form_for_state" {
			found = true
		}
	}
	if !found {
		t.Error("expected a form_for_state hard failure under the override")
	}
	// The override is the state of record, not the extracted one.
	if result.State != "NY" {
		t.Errorf("state = %q, want NY", result.State)
	}
}

func TestCompatibilityCheckLeadsResults(t *testing.T) {
	p := testPipeline(t)
	text := `New York State Department of Taxation and Finance
ST-119.1 Exempt Organization Certification
Name of organization: City of Albany Parks Department
`
	result := p.ValidateText(context.Background(), text, Options{StateOverride: "NY"})

	if len(result.Checks) == 0 {
		t.Fatal("no checks ran")
	}
	if result.Checks[0].Name != "form_correctness.entity_form_compatibility" {
		t.Errorf("first check = %s, want the compatibility verdict", result.Checks[0].Name)
	}
	if result.Disposition != cert.DispositionNeedsCorrection {
		t.Errorf("disposition = %s, want NEEDS_CORRECTION", result.Disposition)
	}
}

func TestValidateTextUnreadableContent(t *testing.T) {
	p := testPipeline(t)
	result := p.ValidateText(context.Background(), "lorem ipsum quarterly report", Options{})
	if result.FormType != cert.FormUnknown {
		t.Errorf("form = %s, want UNKNOWN", result.FormType)
	}
	if result.Disposition != cert.DispositionNeedsCorrection {
		t.Errorf("disposition = %s, want NEEDS_CORRECTION for a blank field set", result.Disposition)
	}
}

func TestReviewResult(t *testing.T) {
	p := testPipeline(t)
	result := p.ReviewResult("scan.pdf", "Document is an encrypted PDF and cannot be read.")
	if result.Disposition != cert.DispositionNeedsReview {
		t.Errorf("disposition = %s", result.Disposition)
	}
	if result.Confidence != 0 {
		t.Errorf("confidence = %d", result.Confidence)
	}
	if len(result.Checks) != 1 || result.Checks[0].Name != "ingest.document_readable" {
		t.Errorf("checks = %+v", result.Checks)
	}
}

// fakeVision returns a canned extraction, recording whether it was asked.
type fakeVision struct {
	extraction *vision.Extraction
	err        error
	called     bool
}

func (f *fakeVision) ExtractFields(ctx context.Context, text string) (*vision.Extraction, error) {
	f.called = true
	return f.extraction, f.err
}

func TestVisionConsultedOnlyWhenWeak(t *testing.T) {
	p := testPipeline(t)
	fake := &fakeVision{extraction: &vision.Extraction{Confidence: 0.9}}
	p.Vision = fake

	p.ValidateText(context.Background(), texasCertText, Options{})
	if fake.called {
		t.Error("provider consulted despite strong local extraction")
	}
}

func TestVisionResultAboveGate(t *testing.T) {
	p := testPipeline(t)
	sig := true
	p.Vision = &fakeVision{extraction: &vision.Extraction{
		Fields: cert.FieldSet{
			PurchaserName:        "Lone Star Distribution LLC",
			SellerName:           "Acme Software Inc",
			ExemptionReason:      "Purchase for resale",
			ExemptionStates:      []string{"TX"},
			HasSignature:         &sig,
			ExtractionConfidence: 0.9,
		},
		FormTypeHint: "Texas 01-339 exemption certification",
		Confidence:   0.9,
	}}

	result := p.ValidateText(context.Background(), "an unreadable photocopy", Options{})
	if result.Fields.PurchaserName != "Lone Star Distribution LLC" {
		t.Errorf("provider fields not adopted: %+v", result.Fields)
	}
	if result.FormType != cert.FormTX01339 {
		t.Errorf("form hint not mapped, got %s", result.FormType)
	}
}

func TestVisionResultBelowGate(t *testing.T) {
	p := testPipeline(t)
	p.Vision = &fakeVision{extraction: &vision.Extraction{
		Fields:     cert.FieldSet{PurchaserName: "Guessed Name LLC", ExtractionConfidence: 0.3},
		Confidence: 0.3,
	}}

	result := p.ValidateText(context.Background(), "an unreadable photocopy", Options{})
	if result.Fields.PurchaserName == "Guessed Name LLC" {
		t.Error("a low-confidence provider answer must not displace local extraction")
	}
}

func TestVisionEntityHintAdopted(t *testing.T) {
	p := testPipeline(t)
	sig := true
	p.Vision = &fakeVision{extraction: &vision.Extraction{
		Fields: cert.FieldSet{
			PurchaserName:        "Greenfield Ventures",
			ExemptionReason:      "Exempt purchase",
			ExtractionConfidence: 0.9,
			HasSignature:         &sig,
		},
		EntityTypeHint: "501(c)(3) nonprofit organization",
		Confidence:     0.9,
	}}

	result := p.ValidateText(context.Background(), "an unreadable photocopy", Options{})
	if result.EntityType != cert.EntityNonprofit501c3 {
		t.Errorf("entity = %s, want the provider hint to resolve NONPROFIT_501C3", result.EntityType)
	}
}

func TestVisionEntityHintDoesNotOverrideLocal(t *testing.T) {
	p := testPipeline(t)
	p.Vision = &fakeVision{extraction: &vision.Extraction{
		Fields: cert.FieldSet{
			PurchaserName:        "First Baptist Church",
			ExtractionConfidence: 0.9,
		},
		EntityTypeHint: "for-profit business",
		Confidence:     0.9,
	}}

	result := p.ValidateText(context.Background(), "an unreadable photocopy", Options{})
	if result.EntityType != cert.EntityReligious {
		t.Errorf("entity = %s; a hint must not displace a confident local classification", result.EntityType)
	}
}

func TestVisionErrorFallsBack(t *testing.T) {
	p := testPipeline(t)
	p.Vision = &fakeVision{err: errors.New("api unavailable")}

	result := p.ValidateText(context.Background(), "an unreadable photocopy", Options{})
	if result.Disposition != cert.DispositionNeedsCorrection {
		t.Errorf("disposition = %s; a provider error should leave local results standing", result.Disposition)
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestCollectFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.txt", "x")
	writeFile(t, dir, "a.pdf", "x")
	writeFile(t, dir, "notes.md", "x")
	sub := filepath.Join(dir, "sub")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, sub, "c.txt", "x")

	files, err := CollectFiles(dir, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 2 {
		t.Fatalf("non-recursive files = %v", files)
	}

	files, err = CollectFiles(dir, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 3 {
		t.Fatalf("recursive files = %v", files)
	}

	single, err := CollectFiles(files[0], false)
	if err != nil {
		t.Fatal(err)
	}
	if len(single) != 1 || single[0] != files[0] {
		t.Errorf("single file = %v", single)
	}
}

func TestValidateBatchMarksDuplicates(t *testing.T) {
	p := testPipeline(t)
	dir := t.TempDir()
	first := writeFile(t, dir, "cert-a.txt", texasCertText)
	second := writeFile(t, dir, "cert-b.txt", texasCertText)

	results := p.ValidateBatch(context.Background(), []string{second, first}, 2, Options{})
	if len(results) != 2 {
		t.Fatalf("got %d results", len(results))
	}
	// Ordered by source file regardless of submission order.
	if results[0].SourceFile != first || results[1].SourceFile != second {
		t.Errorf("order = %q, %q", results[0].SourceFile, results[1].SourceFile)
	}

	dups := 0
	for _, r := range results {
		if r.Disposition == cert.DispositionDuplicate {
			dups++
			if r.DuplicateOf == "" {
				t.Error("duplicate missing its canonical ID")
			}
		}
	}
	if dups != 1 {
		t.Errorf("duplicates = %d, want exactly 1", dups)
	}
}

func TestMergeTextLayerConfidence(t *testing.T) {
	doc := &ingest.Document{Source: ingest.SourceTextLayer, Confidence: 0.95}
	result := &cert.ValidationResult{Fields: cert.FieldSet{ExtractionConfidence: 0.6}}
	mergeTextLayerConfidence(doc, result)
	if result.Fields.ExtractionConfidence != 0.95 {
		t.Errorf("confidence = %v, want the text layer to lift a weak extraction", result.Fields.ExtractionConfidence)
	}

	// The layer never drags a stronger extraction down.
	doc = &ingest.Document{Source: ingest.SourceTextLayer, Confidence: 0.5}
	result = &cert.ValidationResult{Fields: cert.FieldSet{ExtractionConfidence: 0.9}}
	mergeTextLayerConfidence(doc, result)
	if result.Fields.ExtractionConfidence != 0.9 {
		t.Errorf("confidence = %v, want 0.9", result.Fields.ExtractionConfidence)
	}

	// Only text-layer documents participate.
	doc = &ingest.Document{Source: ingest.SourcePlainFile, Confidence: 1.0}
	result = &cert.ValidationResult{Fields: cert.FieldSet{ExtractionConfidence: 0.6}}
	mergeTextLayerConfidence(doc, result)
	if result.Fields.ExtractionConfidence != 0.6 {
		t.Errorf("confidence = %v, want 0.6", result.Fields.ExtractionConfidence)
	}
}

func TestValidateBatchMissingFile(t *testing.T) {
	p := testPipeline(t)
	dir := t.TempDir()
	good := writeFile(t, dir, "cert.txt", texasCertText)
	missing := filepath.Join(dir, "gone.txt")

	results := p.ValidateBatch(context.Background(), []string{good, missing}, 1, Options{})
	if len(results) != 2 {
		t.Fatalf("got %d results", len(results))
	}
	var reviewed *cert.ValidationResult
	for _, r := range results {
		if r.SourceFile == missing {
			reviewed = r
		}
	}
	if reviewed == nil {
		t.Fatal("missing file produced no result")
	}
	if reviewed.Disposition != cert.DispositionNeedsReview {
		t.Errorf("disposition = %s, want NEEDS_HUMAN_REVIEW", reviewed.Disposition)
	}
}
