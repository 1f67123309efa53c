// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package certrepo is a client for the certificate repository API that
// tax compliance platforms expose: it lists stored certificates and
// fetches their scanned attachments for validation.
package certrepo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"cert-scan/internal/resilience"
)

// Certificate is one repository record. The repository's own validity
// flag is advisory; the pipeline judges the attachment for itself.
type Certificate struct {
	ID              int    `json:"id"`
	CustomerName    string `json:"customerName"`
	ExposureZone    string `json:"exposureZone"`
	ExemptionReason string `json:"exemptionReason"`
	SignedDate      string `json:"signedDate"`
	ExpirationDate  string `json:"expirationDate"`
	Valid           bool   `json:"valid"`
	PageCount       int    `json:"pageCount"`
}

// HasAttachment reports whether the repository holds a scanned document
// for this certificate.
func (c Certificate) HasAttachment() bool { return c.PageCount > 0 }

type listEnvelope struct {
	Count int           `json:"@recordsetCount"`
	Value []Certificate `json:"value"`
}

// Client talks to the repository with HTTP Basic auth.
type Client struct {
	baseURL    string
	username   string
	password   string
	pageSize   int
	httpClient *http.Client
	retry      resilience.RetryConfig
}

// NewClient creates a repository client. pageSize bounds each list page.
func NewClient(baseURL, username, password string, pageSize int) *Client {
	if pageSize < 1 {
		pageSize = 100
	}
	return &Client{
		baseURL:    baseURL,
		username:   username,
		password:   password,
		pageSize:   pageSize,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		retry:      resilience.DefaultRetryConfig(),
	}
}

// ListCertificates fetches all certificates matching the repository
// filter expression, following pagination until the recordset is
// exhausted. An empty filter lists everything.
func (c *Client) ListCertificates(ctx context.Context, filter string) ([]Certificate, error) {
	var all []Certificate
	skip := 0
	for {
		page, total, err := c.listPage(ctx, filter, skip)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		skip += len(page)
		if len(page) == 0 || skip >= total {
			return all, nil
		}
	}
}

func (c *Client) listPage(ctx context.Context, filter string, skip int) ([]Certificate, int, error) {
	q := url.Values{}
	q.Set("$top", strconv.Itoa(c.pageSize))
	q.Set("$skip", strconv.Itoa(skip))
	if filter != "" {
		q.Set("$filter", filter)
	}
	endpoint := fmt.Sprintf("%s/certificates?%s", c.baseURL, q.Encode())

	body, err := resilience.RetryWithResult(ctx, c.retry, func(ctx context.Context) ([]byte, error) {
		return c.get(ctx, endpoint)
	})
	if err != nil {
		return nil, 0, fmt.Errorf("listing certificates: %w", err)
	}

	var envelope listEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, 0, fmt.Errorf("decoding certificate list: %w", err)
	}
	return envelope.Value, envelope.Count, nil
}

// GetAttachment downloads the scanned document behind a certificate.
func (c *Client) GetAttachment(ctx context.Context, certificateID int) ([]byte, error) {
	endpoint := fmt.Sprintf("%s/certificates/%d/attachment", c.baseURL, certificateID)
	body, err := resilience.RetryWithResult(ctx, c.retry, func(ctx context.Context) ([]byte, error) {
		return c.get(ctx, endpoint)
	})
	if err != nil {
		return nil, fmt.Errorf("fetching attachment for certificate %d: %w", certificateID, err)
	}
	return body, nil
}

func (c *Client) get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.SetBasicAuth(c.username, c.password)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 50<<20))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &resilience.HTTPError{StatusCode: resp.StatusCode, Body: truncate(string(body), 200)}
	}
	return body, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
