// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package connectivity tracks whether the CRM backend is reachable and
// whether calls are being served from fallback data.
package connectivity

import (
	"sync"
	"time"
)

// Mode is the coarse connectivity state.
//
// # State Diagram
//
//	ONLINE ──[network/5xx failure]──► FALLBACK
//	   ▲                                 │
//	   └──────────[any success]──────────┘
type Mode int

const (
	// ModeOnline means the last completed call reached the backend.
	ModeOnline Mode = iota

	// ModeFallback means reads and writes are being served locally.
	ModeFallback
)

// String returns "ONLINE" or "FALLBACK".
func (m Mode) String() string {
	if m == ModeFallback {
		return "FALLBACK"
	}
	return "ONLINE"
}

// Snapshot is a point-in-time copy of the tracker state.
type Snapshot struct {
	// Reachable is true when the last completed call reached the backend.
	Reachable bool

	// UsingFallback is true when calls are served from fallback data.
	UsingFallback bool

	// ConsecutiveFailures counts failures since the last success.
	ConsecutiveFailures int

	LastSuccess time.Time
	LastFailure time.Time
}

// Mode derives the coarse state from the flags.
func (s Snapshot) Mode() Mode {
	if s.UsingFallback {
		return ModeFallback
	}
	return ModeOnline
}

// Tracker holds the process-wide connectivity flags.
//
// # Description
//
// Tracker replaces module-level globals with an injectable object. The
// gateway records every outcome; banners and health monitors read
// Snapshot. Calls resolve in whatever order the network delivers them,
// so a fast success can flip the state back to online while a slower
// failed call is still being answered from fallback data. That window is
// accepted; the mutex only guards memory.
//
// # Thread Safety
//
// Tracker is safe for concurrent use.
//
// # Example
//
//	tracker := connectivity.NewTracker()
//	tracker.OnChange(func(from, to connectivity.Mode) {
//	    logger.Warn("connectivity changed", "from", from, "to", to)
//	})
type Tracker struct {
	mu       sync.RWMutex
	state    Snapshot
	onChange func(from, to Mode)
	now      func() time.Time
}

// NewTracker returns a tracker in the reachable state.
func NewTracker() *Tracker {
	return &Tracker{
		state: Snapshot{Reachable: true},
		now:   time.Now,
	}
}

// OnChange registers fn to be called when the Mode changes.
//
// fn runs synchronously on the goroutine that caused the transition, after
// the tracker's lock is released, so it may read the tracker. Transitions
// from one goroutine are delivered in order. Concurrent callers may deliver
// theirs in either order. fn should return quickly because it delays the
// request that triggered it.
func (t *Tracker) OnChange(fn func(from, to Mode)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onChange = fn
}

// RecordSuccess marks the backend reachable and leaves fallback mode.
func (t *Tracker) RecordSuccess() {
	t.update(func(s *Snapshot) {
		s.Reachable = true
		s.UsingFallback = false
		s.ConsecutiveFailures = 0
		s.LastSuccess = t.now()
	})
}

// RecordFailure marks the backend unreachable and enters fallback mode.
// Only network-class and 5xx failures should be recorded.
func (t *Tracker) RecordFailure() {
	t.update(func(s *Snapshot) {
		s.Reachable = false
		s.UsingFallback = true
		s.ConsecutiveFailures++
		s.LastFailure = t.now()
	})
}

// SetFallbackMode forces fallback mode on or off without touching
// reachability. Used to run against canned data deliberately.
func (t *Tracker) SetFallbackMode(enabled bool) {
	t.update(func(s *Snapshot) {
		s.UsingFallback = enabled
	})
}

// Snapshot returns a copy of the current state.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state
}

// UsingFallback reports whether fallback mode is active.
func (t *Tracker) UsingFallback() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state.UsingFallback
}

// Reachable reports whether the backend was reachable on the last call.
func (t *Tracker) Reachable() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state.Reachable
}

// update applies mutate under the lock and reports a Mode change to the
// OnChange callback once the lock is released.
func (t *Tracker) update(mutate func(*Snapshot)) {
	t.mu.Lock()
	old := t.state.Mode()
	mutate(&t.state)
	current := t.state.Mode()
	fn := t.onChange
	t.mu.Unlock()

	if current != old && fn != nil {
		fn(old, current)
	}
}
