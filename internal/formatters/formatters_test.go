// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package formatters_test

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cert-scan/internal/cert"
	"cert-scan/internal/formatters"
	_ "cert-scan/internal/formatters/csv"
	_ "cert-scan/internal/formatters/json"
	_ "cert-scan/internal/formatters/markdown"
	_ "cert-scan/internal/formatters/text"
)

func sampleResults() []*cert.ValidationResult {
	return []*cert.ValidationResult{
		{
			CertificateID:    "cert-1",
			SourceFile:       "certs/acme.txt",
			FormType:         cert.FormTX01339,
			FormConfidence:   0.95,
			EntityType:       cert.EntityForProfit,
			Pathway:          cert.PathwayStandardSelfComplete,
			SellerProtection: cert.ProtectionGoodFaith,
			Fields: cert.FieldSet{
				PurchaserName:        "Acme Corp",
				ExemptionStates:      []string{"TX"},
				ExtractionConfidence: 0.9,
			},
			Checks: []cert.CheckResult{
				{Name: "completeness.purchaser_name", Passed: true, Severity: cert.SeverityInfo, Message: "Purchaser name is present."},
			},
			Disposition: cert.DispositionValidated,
			Confidence:  100,
			ValidatedAt: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
		},
		{
			CertificateID: "cert-2",
			SourceFile:    "certs/blank.txt",
			FormType:      cert.FormUnknown,
			EntityType:    cert.EntityUnknown,
			Pathway:       cert.PathwayStandardSelfComplete,
			Checks: []cert.CheckResult{
				{Name: "completeness.signature", Passed: false, Severity: cert.SeverityHardFail,
					Message: "Signature is missing.", Recommendation: "Obtain a signed certificate."},
			},
			Disposition: cert.DispositionNeedsCorrection,
			Confidence:  30,
			ValidatedAt: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
		},
	}
}

func TestRegistryHasAllFormats(t *testing.T) {
	for _, name := range []string{"text", "json", "csv", "markdown"} {
		f, ok := formatters.Get(name)
		require.True(t, ok, "format %s not registered", name)
		assert.Equal(t, name, f.Name())
		assert.NotEmpty(t, f.FileExtension())
	}
}

func TestExportJSON(t *testing.T) {
	out, err := formatters.Export("json", sampleResults(), formatters.Options{})
	require.NoError(t, err)

	var doc struct {
		Summary struct {
			Total        int            `json:"total"`
			Dispositions map[string]int `json:"dispositions"`
		} `json:"summary"`
		Results []cert.ValidationResult `json:"results"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, 2, doc.Summary.Total)
	assert.Equal(t, 1, doc.Summary.Dispositions["VALIDATED"])
	assert.Equal(t, 1, doc.Summary.Dispositions["NEEDS_CORRECTION"])
	require.Len(t, doc.Results, 2)
	assert.Equal(t, "cert-1", doc.Results[0].CertificateID)
}

func TestExportJSONEmptyBatch(t *testing.T) {
	out, err := formatters.Export("json", nil, formatters.Options{})
	require.NoError(t, err)
	assert.Contains(t, out, `"results": []`)
}

func TestExportText(t *testing.T) {
	out, err := formatters.Export("text", sampleResults(), formatters.Options{NoColor: true})
	require.NoError(t, err)

	assert.Contains(t, out, "Acme Corp")
	assert.Contains(t, out, "Processed 2 certificate(s)")
	// Failures print for non-validated results even without verbose.
	assert.Contains(t, out, "completeness.signature")
	// Passed checks stay hidden unless requested.
	assert.NotContains(t, out, "completeness.purchaser_name")
}

func TestExportTextVerbose(t *testing.T) {
	out, err := formatters.Export("text", sampleResults(), formatters.Options{
		NoColor: true, Verbose: true, IncludePassed: true,
	})
	require.NoError(t, err)
	assert.Contains(t, out, "completeness.purchaser_name")
	assert.Contains(t, out, "Obtain a signed certificate.")
}

func TestExportCSV(t *testing.T) {
	out, err := formatters.Export("csv", sampleResults(), formatters.Options{})
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	// Header plus one row per result.
	require.GreaterOrEqual(t, len(lines), 3)
	assert.Contains(t, lines[0], "certificate_id")
}

func TestExportUnknownFormat(t *testing.T) {
	_, err := formatters.Export("yaml", sampleResults(), formatters.Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported format")
}

func TestMimeType(t *testing.T) {
	assert.Equal(t, "application/json", formatters.MimeType("json"))
	assert.Equal(t, "text/csv", formatters.MimeType("csv"))
	assert.Equal(t, "application/octet-stream", formatters.MimeType("unknown"))
}
