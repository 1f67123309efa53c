// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package extract

import (
	"testing"
	"time"

	"cert-scan/internal/cert"
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

func fixedNow() time.Time {
	return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
}

func TestExtractTexasCertificate(t *testing.T) {
	rs := testRules(t)
	e := NewExtractor(rs)
	e.Now = fixedNow

	fs := e.Extract(texasCertText, cert.FormTX01339)

	if fs.PurchaserName != "Lone Star Distribution LLC" {
		t.Errorf("purchaser name = %q", fs.PurchaserName)
	}
	if fs.SellerName != "Acme Software Inc" {
		t.Errorf("seller name = %q", fs.SellerName)
	}
	if fs.ExemptionReason == "" {
		t.Error("expected an exemption reason")
	}
	if fs.PurchaserState != "TX" {
		t.Errorf("purchaser state = %q, want TX", fs.PurchaserState)
	}
	if fs.PurchaserZIP != "75201" {
		t.Errorf("purchaser zip = %q, want 75201", fs.PurchaserZIP)
	}
	if fs.TaxID != "12-3456789" {
		t.Errorf("tax id = %q", fs.TaxID)
	}
	if fs.CertDate == nil || fs.CertDate.Format("2006-01-02") != "2023-03-15" {
		t.Errorf("cert date = %v, want 2023-03-15", fs.CertDate)
	}
	if fs.HasSignature == nil || !*fs.HasSignature {
		t.Error("expected a signature")
	}
	// The form profile pins the exemption state to Texas.
	if len(fs.ExemptionStates) != 1 || fs.ExemptionStates[0] != "TX" {
		t.Errorf("exemption states = %v, want [TX]", fs.ExemptionStates)
	}
	if fs.ExtractionConfidence < 0.8 {
		t.Errorf("extraction confidence = %v, want >= 0.8 for a clean document", fs.ExtractionConfidence)
	}
}

func TestExtractEmptyDocument(t *testing.T) {
	rs := testRules(t)
	e := NewExtractor(rs)
	e.Now = fixedNow

	fs := e.Extract("", cert.FormUnknown)
	if fs.PurchaserName != "" || fs.SellerName != "" {
		t.Error("empty text should yield empty fields")
	}
	if fs.ExtractionConfidence != 0 {
		t.Errorf("extraction confidence = %v, want 0", fs.ExtractionConfidence)
	}
	if fs.HasSignature == nil {
		t.Error("HasSignature pointer should always be set")
	}
}

func TestExtractCheckedStateBoxes(t *testing.T) {
	rs := testRules(t)
	e := NewExtractor(rs)
	e.Now = fixedNow

	text := `Uniform Sales & Use Tax Certificate - Multijurisdiction
Issued to Seller: Acme Software Inc
[X] TX   [ ] OK   (x) NM
`
	fs := e.Extract(text, cert.FormMTCUniform)
	if len(fs.ExemptionStates) != 2 {
		t.Fatalf("exemption states = %v, want TX and NM", fs.ExemptionStates)
	}
	if fs.ExemptionStates[0] != "TX" || fs.ExemptionStates[1] != "NM" {
		t.Errorf("exemption states = %v, want [TX NM]", fs.ExemptionStates)
	}
}

func TestExtractRejectsStaleDates(t *testing.T) {
	rs := testRules(t)
	e := NewExtractor(rs)
	e.Now = fixedNow

	// A 1998 date is outside the certificate-date window and must not be
	// picked up as the signing date.
	fs := e.Extract("Date signed: 5/10/1998\nPurchaser: Acme Corp", cert.FormUnknown)
	if fs.CertDate != nil {
		t.Errorf("cert date = %v, want nil for pre-2010 dates", fs.CertDate)
	}
}
