// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package notify posts review alerts to Slack so certificates needing a
// human land in the tax team's channel instead of a log file.
package notify

import (
	"fmt"

	"github.com/slack-go/slack"

	"cert-scan/internal/cert"
	"cert-scan/internal/report"
)

// Notifier posts messages to a Slack channel.
type Notifier struct {
	client  *slack.Client
	channel string
}

// NewNotifier creates a notifier for the given bot token and channel.
func NewNotifier(token, channel string) *Notifier {
	return &Notifier{
		client:  slack.New(token),
		channel: channel,
	}
}

// NotifyReview posts a review request for one certificate.
func (n *Notifier) NotifyReview(r *cert.ValidationResult) error {
	text := fmt.Sprintf(":mag: Certificate needs human review\n```%s```", report.ReviewRequest(r))
	_, _, err := n.client.PostMessage(n.channel, slack.MsgOptionText(text, false))
	if err != nil {
		return fmt.Errorf("posting review alert for %s: %w", r.CertificateID, err)
	}
	return nil
}

// NotifyBatchSummary posts a one-message summary after a batch run.
func (n *Notifier) NotifyBatchSummary(results []*cert.ValidationResult) error {
	counts := make(map[cert.Disposition]int)
	for _, r := range results {
		counts[r.Disposition]++
	}
	text := fmt.Sprintf("Certificate batch complete: %d processed, %d validated, %d with notes, %d need review, %d need correction, %d duplicates",
		len(results),
		counts[cert.DispositionValidated],
		counts[cert.DispositionValidatedNotes],
		counts[cert.DispositionNeedsReview],
		counts[cert.DispositionNeedsCorrection],
		counts[cert.DispositionDuplicate])
	_, _, err := n.client.PostMessage(n.channel, slack.MsgOptionText(text, false))
	if err != nil {
		return fmt.Errorf("posting batch summary: %w", err)
	}
	return nil
}
