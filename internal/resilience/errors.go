// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package resilience

import (
	"errors"
	"fmt"
	"net"
	"strings"
)

// HTTPError carries an upstream status code so retry logic can distinguish
// rate limits and server faults from permanent request errors.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("upstream returned %d: %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("upstream returned %d", e.StatusCode)
}

// IsRetryable reports whether an error is worth retrying: network faults,
// timeouts, rate limits, and 5xx responses are; everything else is not.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == 429 || httpErr.StatusCode >= 500
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range []string{
		"timeout", "timed out", "connection refused", "connection reset",
		"rate limit", "throttl", "overloaded", "service unavailable",
		"internal server error", "temporarily",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
