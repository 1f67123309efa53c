// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package markdown renders a portfolio compliance report suitable for
// sharing with a tax team.
package markdown

import (
	"fmt"
	"sort"
	"strings"

	"cert-scan/internal/cert"
	"cert-scan/internal/formatters"
)

type MarkdownFormatter struct{}

func init() {
	formatters.Register(&MarkdownFormatter{})
}

func (f *MarkdownFormatter) Format(results []*cert.ValidationResult, options formatters.Options) (string, error) {
	var sb strings.Builder

	sb.WriteString("# Exemption Certificate Portfolio Report\n\n")
	f.writeExecutiveSummary(&sb, results)
	f.writeDispositionBreakdown(&sb, results)
	f.writeTopIssues(&sb, results)
	f.writeExpirationAlerts(&sb, results)
	f.writeDuplicates(&sb, results)
	f.writeStateBreakdown(&sb, results)
	f.writeEntityBreakdown(&sb, results)
	f.writeNeedsAttention(&sb, results)

	return sb.String(), nil
}

func (f *MarkdownFormatter) writeExecutiveSummary(sb *strings.Builder, results []*cert.ValidationResult) {
	total := len(results)
	valid := 0
	confidenceSum := 0
	for _, r := range results {
		if r.Disposition == cert.DispositionValidated || r.Disposition == cert.DispositionValidatedNotes {
			valid++
		}
		confidenceSum += r.Confidence
	}
	sb.WriteString("## Executive Summary\n\n")
	sb.WriteString(fmt.Sprintf("- Certificates processed: %d\n", total))
	if total > 0 {
		sb.WriteString(fmt.Sprintf("- Validated (with or without notes): %d (%.0f%%)\n", valid, 100*float64(valid)/float64(total)))
		sb.WriteString(fmt.Sprintf("- Average confidence: %d\n", confidenceSum/total))
	}
	sb.WriteString("\n")
}

func (f *MarkdownFormatter) writeDispositionBreakdown(sb *strings.Builder, results []*cert.ValidationResult) {
	counts := make(map[cert.Disposition]int)
	for _, r := range results {
		counts[r.Disposition]++
	}
	sb.WriteString("## Disposition Breakdown\n\n")
	sb.WriteString("| Disposition | Count |\n|---|---|\n")
	for _, d := range []cert.Disposition{
		cert.DispositionValidated, cert.DispositionValidatedNotes,
		cert.DispositionNeedsReview, cert.DispositionNeedsCorrection,
		cert.DispositionDuplicate,
	} {
		sb.WriteString(fmt.Sprintf("| %s | %d |\n", d, counts[d]))
	}
	sb.WriteString("\n")
}

func (f *MarkdownFormatter) writeTopIssues(sb *strings.Builder, results []*cert.ValidationResult) {
	counts := make(map[string]int)
	for _, r := range results {
		for _, c := range r.FailedChecks() {
			counts[c.Name]++
		}
	}
	sb.WriteString("## Top Issues\n\n")
	if len(counts) == 0 {
		sb.WriteString("No failed checks across the portfolio.\n\n")
		return
	}
	type issue struct {
		name  string
		count int
	}
	issues := make([]issue, 0, len(counts))
	for name, count := range counts {
		issues = append(issues, issue{name, count})
	}
	sort.Slice(issues, func(i, j int) bool {
		if issues[i].count != issues[j].count {
			return issues[i].count > issues[j].count
		}
		return issues[i].name < issues[j].name
	})
	if len(issues) > 10 {
		issues = issues[:10]
	}
	for _, is := range issues {
		sb.WriteString(fmt.Sprintf("- `%s`: %d certificate(s)\n", is.name, is.count))
	}
	sb.WriteString("\n")
}

func (f *MarkdownFormatter) writeExpirationAlerts(sb *strings.Builder, results []*cert.ValidationResult) {
	sb.WriteString("## Expiration Alerts\n\n")
	any := false
	for _, r := range results {
		for _, c := range r.Checks {
			if !c.Passed && strings.HasPrefix(c.Name, "expiration.") {
				sb.WriteString(fmt.Sprintf("- %s (%s): %s\n", r.Fields.PurchaserName, r.CertificateID, c.Message))
				any = true
				break
			}
		}
	}
	if !any {
		sb.WriteString("No expiration issues.\n")
	}
	sb.WriteString("\n")
}

func (f *MarkdownFormatter) writeDuplicates(sb *strings.Builder, results []*cert.ValidationResult) {
	sb.WriteString("## Duplicates\n\n")
	any := false
	for _, r := range results {
		if r.Disposition == cert.DispositionDuplicate {
			sb.WriteString(fmt.Sprintf("- %s (%s) duplicates %s\n", r.Fields.PurchaserName, r.CertificateID, r.DuplicateOf))
			any = true
		}
	}
	if !any {
		sb.WriteString("No duplicates detected.\n")
	}
	sb.WriteString("\n")
}

func (f *MarkdownFormatter) writeStateBreakdown(sb *strings.Builder, results []*cert.ValidationResult) {
	counts := make(map[string]int)
	for _, r := range results {
		state := "(unknown)"
		if len(r.Fields.ExemptionStates) > 0 {
			state = r.Fields.ExemptionStates[0]
		} else if r.Fields.PurchaserState != "" {
			state = r.Fields.PurchaserState
		}
		counts[state]++
	}
	sb.WriteString("## State Breakdown\n\n")
	states := make([]string, 0, len(counts))
	for s := range counts {
		states = append(states, s)
	}
	sort.Strings(states)
	for _, s := range states {
		sb.WriteString(fmt.Sprintf("- %s: %d\n", s, counts[s]))
	}
	sb.WriteString("\n")
}

func (f *MarkdownFormatter) writeEntityBreakdown(sb *strings.Builder, results []*cert.ValidationResult) {
	counts := make(map[cert.EntityType]int)
	for _, r := range results {
		counts[r.EntityType]++
	}
	sb.WriteString("## Entity Breakdown\n\n")
	entities := make([]string, 0, len(counts))
	byName := make(map[string]int, len(counts))
	for e, n := range counts {
		entities = append(entities, string(e))
		byName[string(e)] = n
	}
	sort.Strings(entities)
	for _, e := range entities {
		sb.WriteString(fmt.Sprintf("- %s: %d\n", cert.EntityType(e).Display(), byName[e]))
	}
	sb.WriteString("\n")
}

func (f *MarkdownFormatter) writeNeedsAttention(sb *strings.Builder, results []*cert.ValidationResult) {
	sb.WriteString("## Needs Attention\n\n")
	any := false
	for _, r := range results {
		if r.Disposition == cert.DispositionNeedsCorrection || r.Disposition == cert.DispositionNeedsReview {
			reasons := make([]string, 0, 3)
			for _, c := range r.FailedChecks() {
				if c.Severity == cert.SeverityHardFail || c.Severity == cert.SeverityReasonableness {
					reasons = append(reasons, c.Name)
				}
			}
			sb.WriteString(fmt.Sprintf("- **%s** (%s, %s): %s\n",
				r.Fields.PurchaserName, r.CertificateID, r.Disposition, strings.Join(reasons, ", ")))
			any = true
		}
	}
	if !any {
		sb.WriteString("Nothing outstanding.\n")
	}
	sb.WriteString("\n")
}

func (f *MarkdownFormatter) Name() string { return "markdown" }

func (f *MarkdownFormatter) Description() string {
	return "Portfolio compliance report in Markdown"
}

func (f *MarkdownFormatter) FileExtension() string { return ".md" }
