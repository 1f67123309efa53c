// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package csv provides spreadsheet-friendly CSV output, one row per
// certificate.
package csv

import (
	"bytes"
	stdcsv "encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"cert-scan/internal/cert"
	"cert-scan/internal/formatters"
)

type CSVFormatter struct{}

func init() {
	formatters.Register(&CSVFormatter{})
}

var header = []string{
	"certificate_id", "source_file", "purchaser_name", "exemption_state",
	"form_type", "form_confidence", "entity_type", "pathway",
	"disposition", "confidence", "cert_date", "expiration_date",
	"failed_checks", "duplicate_of",
}

func (f *CSVFormatter) Format(results []*cert.ValidationResult, options formatters.Options) (string, error) {
	var buf bytes.Buffer
	w := stdcsv.NewWriter(&buf)

	if err := w.Write(header); err != nil {
		return "", fmt.Errorf("writing CSV header: %w", err)
	}
	for _, r := range results {
		var failed []string
		for _, c := range r.FailedChecks() {
			failed = append(failed, c.Name)
		}
		row := []string{
			r.CertificateID,
			r.SourceFile,
			r.Fields.PurchaserName,
			primaryState(r),
			string(r.FormType),
			strconv.FormatFloat(r.FormConfidence, 'f', 2, 64),
			string(r.EntityType),
			string(r.Pathway),
			string(r.Disposition),
			strconv.Itoa(r.Confidence),
			dateOrEmpty(r, false),
			dateOrEmpty(r, true),
			strings.Join(failed, "; "),
			r.DuplicateOf,
		}
		if err := w.Write(row); err != nil {
			return "", fmt.Errorf("writing CSV row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func primaryState(r *cert.ValidationResult) string {
	if len(r.Fields.ExemptionStates) > 0 {
		return r.Fields.ExemptionStates[0]
	}
	return r.Fields.PurchaserState
}

func dateOrEmpty(r *cert.ValidationResult, expiration bool) string {
	t := r.Fields.CertDate
	if expiration {
		t = r.Fields.ExpirationDate
	}
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}

func (f *CSVFormatter) Name() string { return "csv" }

func (f *CSVFormatter) Description() string {
	return "CSV with one row per certificate for spreadsheet review"
}

func (f *CSVFormatter) FileExtension() string { return ".csv" }
