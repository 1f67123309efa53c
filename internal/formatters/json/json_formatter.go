// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package json provides machine-readable JSON output.
package json

import (
	"encoding/json"
	"fmt"

	"cert-scan/internal/cert"
	"cert-scan/internal/formatters"
)

type JSONFormatter struct{}

func init() {
	formatters.Register(&JSONFormatter{})
}

// document is the envelope around the result list.
type document struct {
	Summary summary                  `json:"summary"`
	Results []*cert.ValidationResult `json:"results"`
}

type summary struct {
	Total        int            `json:"total"`
	Dispositions map[string]int `json:"dispositions"`
}

func (f *JSONFormatter) Format(results []*cert.ValidationResult, options formatters.Options) (string, error) {
	doc := document{
		Summary: summary{
			Total:        len(results),
			Dispositions: make(map[string]int),
		},
		Results: results,
	}
	if doc.Results == nil {
		doc.Results = []*cert.ValidationResult{}
	}
	for _, r := range results {
		doc.Summary.Dispositions[string(r.Disposition)]++
	}

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling results: %w", err)
	}
	return string(out), nil
}

func (f *JSONFormatter) Name() string { return "json" }

func (f *JSONFormatter) Description() string {
	return "Machine-readable JSON with a disposition summary"
}

func (f *JSONFormatter) FileExtension() string { return ".json" }
