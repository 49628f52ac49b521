// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package connectivity

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTracker_StartsOnline(t *testing.T) {
	snap := NewTracker().Snapshot()
	assert.True(t, snap.Reachable)
	assert.False(t, snap.UsingFallback)
	assert.Equal(t, ModeOnline, snap.Mode())
}

func TestTracker_FailFailSucceedIsOnline(t *testing.T) {
	tracker := NewTracker()

	tracker.RecordFailure()
	tracker.RecordFailure()
	snap := tracker.Snapshot()
	assert.False(t, snap.Reachable)
	assert.True(t, snap.UsingFallback)
	assert.Equal(t, 2, snap.ConsecutiveFailures)
	assert.False(t, snap.LastFailure.IsZero())

	tracker.RecordSuccess()
	snap = tracker.Snapshot()
	assert.True(t, snap.Reachable)
	assert.False(t, snap.UsingFallback)
	assert.Equal(t, 0, snap.ConsecutiveFailures)
	assert.Equal(t, ModeOnline, snap.Mode())
}

func TestTracker_SetFallbackMode(t *testing.T) {
	tracker := NewTracker()
	tracker.SetFallbackMode(true)
	assert.True(t, tracker.UsingFallback())
	assert.True(t, tracker.Reachable())

	tracker.SetFallbackMode(false)
	assert.False(t, tracker.UsingFallback())
}

func TestTracker_OnChangeFiresOnTransitionsOnly(t *testing.T) {
	tracker := NewTracker()

	var transitions [][2]Mode
	tracker.OnChange(func(from, to Mode) {
		transitions = append(transitions, [2]Mode{from, to})
	})

	tracker.RecordFailure()
	tracker.RecordFailure()
	require.Len(t, transitions, 1)

	tracker.RecordSuccess()
	tracker.RecordSuccess()
	tracker.SetFallbackMode(true)
	tracker.SetFallbackMode(true)
	tracker.SetFallbackMode(false)

	assert.Equal(t, [][2]Mode{
		{ModeOnline, ModeFallback},
		{ModeFallback, ModeOnline},
		{ModeOnline, ModeFallback},
		{ModeFallback, ModeOnline},
	}, transitions)
}

func TestTracker_OnChangeMayReadTracker(t *testing.T) {
	tracker := NewTracker()

	var seen []Snapshot
	tracker.OnChange(func(_, _ Mode) {
		seen = append(seen, tracker.Snapshot())
	})

	tracker.RecordFailure()
	tracker.RecordSuccess()

	require.Len(t, seen, 2)
	assert.True(t, seen[0].UsingFallback)
	assert.Equal(t, 1, seen[0].ConsecutiveFailures)
	assert.False(t, seen[1].UsingFallback)
	assert.True(t, seen[1].Reachable)
}

func TestTracker_ConcurrentUse(t *testing.T) {
	tracker := NewTracker()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				tracker.RecordFailure()
			} else {
				tracker.RecordSuccess()
			}
			_ = tracker.Snapshot()
		}(i)
	}
	wg.Wait()

	tracker.RecordSuccess()
	assert.Equal(t, ModeOnline, tracker.Snapshot().Mode())
}

func TestMode_String(t *testing.T) {
	assert.Equal(t, "ONLINE", ModeOnline.String())
	assert.Equal(t, "FALLBACK", ModeFallback.String())
}
