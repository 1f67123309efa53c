// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package resilience

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func fastConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:      3,
		InitialInterval: time.Millisecond,
		MaxInterval:     5 * time.Millisecond,
		Multiplier:      2.0,
	}
}

func TestRetrySucceedsAfterTransientFailures(t *testing.T) {
	attempts := 0
	err := RetryWithBackoff(context.Background(), fastConfig(), func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return &HTTPError{StatusCode: 503}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestRetryStopsOnPermanentError(t *testing.T) {
	attempts := 0
	err := RetryWithBackoff(context.Background(), fastConfig(), func(ctx context.Context) error {
		attempts++
		return &HTTPError{StatusCode: 400}
	})
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != 400 {
		t.Fatalf("error = %v", err)
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1 for a client error", attempts)
	}
}

func TestRetryExhaustsAndReturnsLastError(t *testing.T) {
	attempts := 0
	var retries []int
	cfg := fastConfig()
	cfg.OnRetry = func(attempt int, err error) { retries = append(retries, attempt) }

	err := RetryWithBackoff(context.Background(), cfg, func(ctx context.Context) error {
		attempts++
		return &HTTPError{StatusCode: 429, Body: "rate limited"}
	})
	if err == nil {
		t.Fatal("expected an error after exhausting retries")
	}
	if attempts != 4 {
		t.Errorf("attempts = %d, want initial try plus 3 retries", attempts)
	}
	if len(retries) != 3 {
		t.Errorf("OnRetry calls = %v", retries)
	}
}

func TestRetryHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := fastConfig()
	cfg.InitialInterval = time.Minute

	done := make(chan error, 1)
	go func() {
		done <- RetryWithBackoff(ctx, cfg, func(ctx context.Context) error {
			return &HTTPError{StatusCode: 500}
		})
	}()
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("error = %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("retry did not observe cancellation")
	}
}

func TestRetryWithResult(t *testing.T) {
	attempts := 0
	got, err := RetryWithResult(context.Background(), fastConfig(), func(ctx context.Context) (string, error) {
		attempts++
		if attempts == 1 {
			return "", errors.New("connection reset by peer")
		}
		return "payload", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "payload" {
		t.Errorf("result = %q", got)
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"rate limit status", &HTTPError{StatusCode: 429}, true},
		{"server fault", &HTTPError{StatusCode: 502}, true},
		{"bad request", &HTTPError{StatusCode: 400}, false},
		{"not found", &HTTPError{StatusCode: 404}, false},
		{"wrapped http error", fmt.Errorf("listing certificates: %w", &HTTPError{StatusCode: 500}), true},
		{"timeout message", errors.New("dial tcp: i/o timeout"), true},
		{"throttle message", errors.New("request throttled by upstream"), true},
		{"parse error", errors.New("invalid character in JSON"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
