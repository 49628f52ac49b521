// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package retry runs an operation a bounded number of times with linear
// backoff. It is opt-in per call site; the gateway never retries on its own.
package retry

import (
	"context"
	"time"
)

const (
	// DefaultMaxAttempts is the attempt budget when none is given.
	DefaultMaxAttempts = 3

	// DefaultDelay is the base delay when none is given.
	DefaultDelay = time.Second
)

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Policy configures Do.
type Policy struct {
	// MaxAttempts is the total number of calls, including the first.
	// Values below 1 mean DefaultMaxAttempts.
	MaxAttempts int

	// Delay is the base delay. The wait after attempt n is Delay*n.
	Delay time.Duration

	// Sleep defaults to a timer that honors ctx.
	Sleep Sleeper

	// OnRetry is called after a failed attempt that will be retried.
	OnRetry func(attempt int, err error, wait time.Duration)
}

// DefaultPolicy returns 3 attempts with a 1s base delay.
func DefaultPolicy() Policy {
	return Policy{MaxAttempts: DefaultMaxAttempts, Delay: DefaultDelay}
}

// WithRetry calls op up to maxAttempts times, waiting delay*attempt after
// each failure.
//
// # Description
//
// Attempts run sequentially. The first success is returned immediately.
// When every attempt fails, the error of the last attempt is returned
// unchanged so callers can still match it with errors.As.
//
// # Inputs
//
//   - ctx: Cancels both the waits and, through op, the attempts.
//   - op: The operation.
//   - maxAttempts: Total calls. Values below 1 mean 3.
//   - delay: Base delay. Negative means 1s.
//
// # Outputs
//
//   - T: The first successful result.
//   - error: The last attempt's error, or ctx.Err() if cancelled while
//     waiting.
//
// # Example
//
//	leads, err := retry.WithRetry(ctx, func(ctx context.Context) ([]models.Lead, error) {
//	    return client.Leads.GetAll(ctx)
//	}, 3, time.Second)
func WithRetry[T any](ctx context.Context, op func(context.Context) (T, error), maxAttempts int, delay time.Duration) (T, error) {
	if delay < 0 {
		delay = DefaultDelay
	}
	return Do(ctx, Policy{MaxAttempts: maxAttempts, Delay: delay}, op)
}

// Do runs op under policy p. See WithRetry.
func Do[T any](ctx context.Context, p Policy, op func(context.Context) (T, error)) (T, error) {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = DefaultMaxAttempts
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	var zero T
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		result, err := op(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if attempt == attempts {
			break
		}
		wait := p.Delay * time.Duration(attempt)
		if p.OnRetry != nil {
			p.OnRetry(attempt, err, wait)
		}
		if err := sleep(ctx, wait); err != nil {
			return zero, err
		}
	}
	return zero, lastErr
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
