// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"path/filepath"
	"testing"
	"time"

	"cert-scan/internal/cert"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "results.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func storedResult(id string, d cert.Disposition, at time.Time) *cert.ValidationResult {
	return &cert.ValidationResult{
		CertificateID: id,
		SourceFile:    "certs/" + id + ".txt",
		FormType:      cert.FormTX01339,
		EntityType:    cert.EntityForProfit,
		Pathway:       cert.PathwayStandardSelfComplete,
		Fields: cert.FieldSet{
			PurchaserName:   "Acme Corp",
			ExemptionStates: []string{"TX"},
		},
		Disposition: d,
		Confidence:  90,
		ValidatedAt: at,
	}
}

func TestSaveAndRecent(t *testing.T) {
	s := openTestStore(t)
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	if err := s.SaveResult(storedResult("cert-1", cert.DispositionValidated, base)); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveResult(storedResult("cert-2", cert.DispositionNeedsCorrection, base.Add(time.Hour))); err != nil {
		t.Fatal(err)
	}

	recent, err := s.Recent(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 2 {
		t.Fatalf("got %d results", len(recent))
	}
	// Newest first.
	if recent[0].CertificateID != "cert-2" {
		t.Errorf("first result = %s", recent[0].CertificateID)
	}
	if recent[0].Fields.PurchaserName != "Acme Corp" {
		t.Errorf("payload round-trip lost fields: %+v", recent[0].Fields)
	}
}

func TestSaveResultUpserts(t *testing.T) {
	s := openTestStore(t)
	at := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	if err := s.SaveResult(storedResult("cert-1", cert.DispositionNeedsReview, at)); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveResult(storedResult("cert-1", cert.DispositionValidated, at.Add(time.Hour))); err != nil {
		t.Fatal(err)
	}

	recent, err := s.Recent(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 1 {
		t.Fatalf("got %d results, want the upsert to replace", len(recent))
	}
	if recent[0].Disposition != cert.DispositionValidated {
		t.Errorf("disposition = %s", recent[0].Disposition)
	}
}

func TestSaveBatchAndCountByDisposition(t *testing.T) {
	s := openTestStore(t)
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	batch := []*cert.ValidationResult{
		storedResult("cert-1", cert.DispositionValidated, base),
		storedResult("cert-2", cert.DispositionValidated, base),
		storedResult("cert-3", cert.DispositionNeedsCorrection, base),
		storedResult("cert-old", cert.DispositionValidated, base.AddDate(-1, 0, 0)),
	}
	if err := s.SaveBatch(batch); err != nil {
		t.Fatal(err)
	}

	counts, err := s.CountByDisposition(base.AddDate(0, -1, 0))
	if err != nil {
		t.Fatal(err)
	}
	if counts[cert.DispositionValidated] != 2 {
		t.Errorf("validated = %d, want 2 within the window", counts[cert.DispositionValidated])
	}
	if counts[cert.DispositionNeedsCorrection] != 1 {
		t.Errorf("needs correction = %d", counts[cert.DispositionNeedsCorrection])
	}
}
