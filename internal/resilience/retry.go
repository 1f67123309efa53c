// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package resilience provides retry with exponential backoff for the
// external calls the validator depends on: the certificate repository API
// and the vision extraction provider.
package resilience

import (
	"context"
	"math/rand"
	"time"
)

// RetryConfig holds retry configuration.
type RetryConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	// Multiplier grows the delay each attempt; 2.0 doubles it.
	Multiplier float64
	// Jitter adds up to 25% random noise to spread concurrent retries.
	Jitter  bool
	OnRetry func(attempt int, err error)
}

// DefaultRetryConfig returns sensible defaults for HTTP API calls.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:      3,
		InitialInterval: 1 * time.Second,
		MaxInterval:     30 * time.Second,
		Multiplier:      2.0,
		Jitter:          true,
	}
}

// RetryableOperation represents an operation that can be retried.
type RetryableOperation func(ctx context.Context) error

// RetryWithBackoff executes an operation with exponential backoff. The
// delay before attempt n is InitialInterval * Multiplier^(n-1), capped at
// MaxInterval. Non-retryable errors return immediately.
func RetryWithBackoff(ctx context.Context, config RetryConfig, operation RetryableOperation) error {
	var lastErr error

	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := float64(config.InitialInterval)
			for i := 1; i < attempt; i++ {
				delay *= config.Multiplier
			}
			if config.Jitter {
				delay += delay * 0.25 * rand.Float64()
			}
			capped := min(time.Duration(delay), config.MaxInterval)

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(capped):
			}

			if config.OnRetry != nil {
				config.OnRetry(attempt, lastErr)
			}
		}

		err := operation(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if !IsRetryable(err) {
			return err
		}
	}

	return lastErr
}

// RetryableFunc is a retryable function that returns a value.
type RetryableFunc[T any] func(ctx context.Context) (T, error)

// RetryWithResult executes a value-returning function with retry logic.
func RetryWithResult[T any](ctx context.Context, config RetryConfig, fn RetryableFunc[T]) (T, error) {
	var result T
	err := RetryWithBackoff(ctx, config, func(ctx context.Context) error {
		var e error
		result, e = fn(ctx)
		return e
	})
	return result, err
}
