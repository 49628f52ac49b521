// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSleeper records requested waits without sleeping.
type fakeSleeper struct {
	waits []time.Duration
}

func (f *fakeSleeper) sleep(ctx context.Context, d time.Duration) error {
	f.waits = append(f.waits, d)
	return ctx.Err()
}

func failTimes(n int, result string) (func(context.Context) (string, error), *int) {
	calls := 0
	return func(context.Context) (string, error) {
		calls++
		if calls <= n {
			return "", errors.New("transient")
		}
		return result, nil
	}, &calls
}

func TestDo_FailTwiceThenSucceed(t *testing.T) {
	sleeper := &fakeSleeper{}
	op, calls := failTimes(2, "ok")

	got, err := Do(context.Background(), Policy{MaxAttempts: 3, Delay: time.Second, Sleep: sleeper.sleep}, op)
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 3, *calls)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, sleeper.waits)
}

func TestDo_ReturnsLastErrorWhenExhausted(t *testing.T) {
	sleeper := &fakeSleeper{}
	calls := 0
	op := func(context.Context) (int, error) {
		calls++
		return 0, errors.New("attempt " + string(rune('0'+calls)))
	}

	_, err := Do(context.Background(), Policy{MaxAttempts: 3, Delay: 10 * time.Millisecond, Sleep: sleeper.sleep}, op)
	require.Error(t, err)
	assert.Equal(t, "attempt 3", err.Error())
	assert.Equal(t, 3, calls)
	assert.Len(t, sleeper.waits, 2)
}

func TestDo_SucceedsFirstTimeWithoutWaiting(t *testing.T) {
	sleeper := &fakeSleeper{}
	op, calls := failTimes(0, "first")

	got, err := Do(context.Background(), Policy{Sleep: sleeper.sleep}, op)
	require.NoError(t, err)
	assert.Equal(t, "first", got)
	assert.Equal(t, 1, *calls)
	assert.Empty(t, sleeper.waits)
}

func TestDo_DefaultsAttempts(t *testing.T) {
	sleeper := &fakeSleeper{}
	op, calls := failTimes(10, "never")

	_, err := Do(context.Background(), Policy{Sleep: sleeper.sleep}, op)
	require.Error(t, err)
	assert.Equal(t, DefaultMaxAttempts, *calls)
}

func TestDo_OnRetryReportsAttempts(t *testing.T) {
	sleeper := &fakeSleeper{}
	var seen []int
	op, _ := failTimes(2, "ok")

	_, err := Do(context.Background(), Policy{
		MaxAttempts: 3,
		Delay:       time.Millisecond,
		Sleep:       sleeper.sleep,
		OnRetry:     func(attempt int, err error, wait time.Duration) { seen = append(seen, attempt) },
	}, op)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, seen)
}

func TestDo_StopsWhenContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	op := func(context.Context) (string, error) {
		calls++
		cancel()
		return "", errors.New("boom")
	}

	_, err := Do(ctx, Policy{MaxAttempts: 5, Delay: time.Hour}, op)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestWithRetry_RealTimerLinearBackoff(t *testing.T) {
	op, calls := failTimes(2, "ok")

	start := time.Now()
	got, err := WithRetry(context.Background(), op, 3, 20*time.Millisecond)
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 3, *calls)
	assert.GreaterOrEqual(t, elapsed, 60*time.Millisecond)
}

func TestDefaultPolicy(t *testing.T) {
	p := DefaultPolicy()
	assert.Equal(t, 3, p.MaxAttempts)
	assert.Equal(t, time.Second, p.Delay)
}
