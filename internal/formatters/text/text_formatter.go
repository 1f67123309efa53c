// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package text provides human-readable colored console output.
package text

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"cert-scan/internal/cert"
	"cert-scan/internal/formatters"
)

type TextFormatter struct{}

func init() {
	formatters.Register(&TextFormatter{})
}

var dispositionColors = map[cert.Disposition]*color.Color{
	cert.DispositionValidated:       color.New(color.FgGreen),
	cert.DispositionValidatedNotes:  color.New(color.FgCyan),
	cert.DispositionNeedsReview:     color.New(color.FgYellow),
	cert.DispositionNeedsCorrection: color.New(color.FgRed),
	cert.DispositionDuplicate:       color.New(color.FgMagenta),
}

var severityColors = map[cert.CheckSeverity]*color.Color{
	cert.SeverityHardFail:       color.New(color.FgRed, color.Bold),
	cert.SeverityReasonableness: color.New(color.FgYellow),
	cert.SeveritySoftFlag:       color.New(color.FgCyan),
	cert.SeverityInfo:           color.New(color.FgWhite),
}

func (f *TextFormatter) Format(results []*cert.ValidationResult, options formatters.Options) (string, error) {
	if options.NoColor {
		color.NoColor = true
	}

	var sb strings.Builder
	counts := make(map[cert.Disposition]int)

	for _, r := range results {
		counts[r.Disposition]++
		f.writeResult(&sb, r, options)
	}

	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Processed %d certificate(s): ", len(results)))
	var parts []string
	for _, d := range []cert.Disposition{
		cert.DispositionValidated, cert.DispositionValidatedNotes,
		cert.DispositionNeedsReview, cert.DispositionNeedsCorrection,
		cert.DispositionDuplicate,
	} {
		if counts[d] > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", counts[d], d))
		}
	}
	sb.WriteString(strings.Join(parts, ", "))
	sb.WriteString("\n")
	return sb.String(), nil
}

func (f *TextFormatter) writeResult(sb *strings.Builder, r *cert.ValidationResult, options formatters.Options) {
	c, ok := dispositionColors[r.Disposition]
	if !ok {
		c = color.New(color.FgWhite)
	}

	name := r.Fields.PurchaserName
	if name == "" {
		name = "(no purchaser name)"
	}
	state := "??"
	if len(r.Fields.ExemptionStates) > 0 {
		state = r.Fields.ExemptionStates[0]
	} else if r.Fields.PurchaserState != "" {
		state = r.Fields.PurchaserState
	}

	sb.WriteString(fmt.Sprintf("%s  %s [%s] %s (%s, confidence %d)",
		c.Sprintf("%-20s", r.Disposition), name, state, r.FormType.Display(),
		r.EntityType.Display(), r.Confidence))
	if r.DuplicateOf != "" {
		sb.WriteString(fmt.Sprintf("  duplicate of %s", r.DuplicateOf))
	}
	sb.WriteString("\n")

	if r.Disposition == cert.DispositionValidated && !options.Verbose {
		return
	}
	for _, check := range r.Checks {
		if check.Passed && !options.IncludePassed {
			continue
		}
		sc, ok := severityColors[check.Severity]
		if !ok {
			sc = color.New(color.FgWhite)
		}
		status := "FAIL"
		if check.Passed {
			status = "PASS"
		}
		sb.WriteString(fmt.Sprintf("    %s %s %s: %s\n",
			sc.Sprint(status), sc.Sprintf("%-14s", check.Severity), check.Name, check.Message))
		if !check.Passed && check.Recommendation != "" && options.Verbose {
			sb.WriteString(fmt.Sprintf("         -> %s\n", check.Recommendation))
		}
	}
}

func (f *TextFormatter) Name() string { return "text" }

func (f *TextFormatter) Description() string {
	return "Colored console summary, one line per certificate"
}

func (f *TextFormatter) FileExtension() string { return ".txt" }
