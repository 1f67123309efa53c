// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package vision extracts certificate fields through an external model
// provider. The pipeline treats it as an alternative extractor: its result
// is used only when the provider's own confidence clears the configured
// gate, otherwise the local extractor's output stands.
package vision

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"cert-scan/internal/cert"
	"cert-scan/internal/jurisdiction"
	"cert-scan/internal/resilience"
)

// DefaultMinConfidence gates provider results when no value is configured.
const DefaultMinConfidence = 0.5

const systemPrompt = `You extract structured data from US sales tax exemption certificates.
Respond with a single JSON object and nothing else. Use null for fields you cannot find.
Fields: purchaser_name, purchaser_address, purchaser_city, purchaser_state (2-letter),
purchaser_zip, seller_name, exemption_reason, exemption_category (one of GOVERNMENT,
RESALE, NONPROFIT, MANUFACTURING, AGRICULTURE, COMMON_CARRIER, INDUSTRIAL_RD,
CONSTRUCTION, DIRECT_PAY, DIPLOMATIC, OTHER), exemption_states (array of 2-letter codes),
business_type, tax_id, fein, permit_number, account_number, cert_date (YYYY-MM-DD),
expiration_date (YYYY-MM-DD), has_signature (boolean), form_type_hint, entity_type_hint,
confidence (0.0-1.0, your own estimate of extraction fidelity).`

// Extraction is the provider's answer, with its self-reported confidence.
type Extraction struct {
	Fields         cert.FieldSet
	FormTypeHint   string
	EntityTypeHint string
	Confidence     float64
}

// Provider calls the Anthropic API for field extraction.
type Provider struct {
	client anthropic.Client
	model  string
	retry  resilience.RetryConfig
}

// NewProvider creates a provider for the given model.
func NewProvider(apiKey, model string) *Provider {
	return &Provider{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
		retry:  resilience.DefaultRetryConfig(),
	}
}

// wireFields mirrors the JSON the model returns; dates arrive as strings.
type wireFields struct {
	PurchaserName     string   `json:"purchaser_name"`
	PurchaserAddress  string   `json:"purchaser_address"`
	PurchaserCity     string   `json:"purchaser_city"`
	PurchaserState    string   `json:"purchaser_state"`
	PurchaserZIP      string   `json:"purchaser_zip"`
	SellerName        string   `json:"seller_name"`
	ExemptionReason   string   `json:"exemption_reason"`
	ExemptionCategory string   `json:"exemption_category"`
	ExemptionStates   []string `json:"exemption_states"`
	BusinessType      string   `json:"business_type"`
	TaxID             string   `json:"tax_id"`
	FEIN              string   `json:"fein"`
	PermitNumber      string   `json:"permit_number"`
	AccountNumber     string   `json:"account_number"`
	CertDate          string   `json:"cert_date"`
	ExpirationDate    string   `json:"expiration_date"`
	HasSignature      *bool    `json:"has_signature"`
	FormTypeHint      string   `json:"form_type_hint"`
	EntityTypeHint    string   `json:"entity_type_hint"`
	Confidence        float64  `json:"confidence"`
}

// ExtractFields asks the model to read the certificate text. Transport
// failures are retried with backoff; an unparseable answer is returned
// with confidence capped below the gate so it can never displace the
// local extraction.
func (p *Provider) ExtractFields(ctx context.Context, text string) (*Extraction, error) {
	answer, err := resilience.RetryWithResult(ctx, p.retry, func(ctx context.Context) (string, error) {
		return p.complete(ctx, text)
	})
	if err != nil {
		return nil, fmt.Errorf("vision extraction: %w", err)
	}
	return p.parse(answer), nil
}

func (p *Provider) complete(ctx context.Context, text string) (string, error) {
	message, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: 2048,
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock("Certificate text:\n\n" + text)),
		},
	})
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return sb.String(), nil
}

func (p *Provider) parse(answer string) *Extraction {
	var wire wireFields
	payload := extractJSON(answer)
	if err := json.Unmarshal([]byte(payload), &wire); err != nil {
		// The answer was not the requested JSON; whatever partial data
		// it held is not trustworthy enough to displace local extraction.
		return &Extraction{Confidence: 0.0}
	}

	fs := cert.FieldSet{
		PurchaserName:    wire.PurchaserName,
		PurchaserAddress: wire.PurchaserAddress,
		PurchaserCity:    wire.PurchaserCity,
		PurchaserState:   strings.ToUpper(wire.PurchaserState),
		PurchaserZIP:     wire.PurchaserZIP,
		SellerName:       wire.SellerName,
		ExemptionReason:  wire.ExemptionReason,
		BusinessType:     wire.BusinessType,
		TaxID:            wire.TaxID,
		FEIN:             wire.FEIN,
		PermitNumber:     wire.PermitNumber,
		AccountNumber:    wire.AccountNumber,
		HasSignature:     wire.HasSignature,
	}
	if wire.ExemptionCategory != "" {
		var category cert.ExemptionCategory
		if err := category.UnmarshalText([]byte(wire.ExemptionCategory)); err == nil {
			fs.ExemptionCategory = category
		}
	}
	for _, s := range wire.ExemptionStates {
		if code := jurisdiction.NormalizeState(s); code != "" {
			fs.ExemptionStates = append(fs.ExemptionStates, code)
		}
	}
	now := time.Now()
	if t, ok := jurisdiction.ParseDate(wire.CertDate, now); ok {
		fs.CertDate = &t
	}
	if t, ok := jurisdiction.ParseDate(wire.ExpirationDate, now); ok {
		fs.ExpirationDate = &t
	}

	confidence := wire.Confidence
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}
	fs.ExtractionConfidence = confidence

	return &Extraction{
		Fields:         fs,
		FormTypeHint:   wire.FormTypeHint,
		EntityTypeHint: wire.EntityTypeHint,
		Confidence:     confidence,
	}
}

// extractJSON pulls the first JSON object out of an answer that may be
// wrapped in prose or a code fence.
func extractJSON(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return s
	}
	return s[start : end+1]
}
