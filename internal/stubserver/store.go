// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package stubserver

import (
	"sync"
)

// table is an insertion-ordered set of records keyed by id.
//
// # Thread Safety
//
// All methods lock; values are copied in and out.
type table[T any] struct {
	mu    sync.RWMutex
	order []string
	rows  map[string]T
	idOf  func(T) string
}

func newTable[T any](idOf func(T) string, seed []T) *table[T] {
	t := &table[T]{rows: make(map[string]T, len(seed)), idOf: idOf}
	for _, row := range seed {
		t.put(row)
	}
	return t
}

func (t *table[T]) put(row T) {
	id := t.idOf(row)
	if _, exists := t.rows[id]; !exists {
		t.order = append(t.order, id)
	}
	t.rows[id] = row
}

// Insert adds or replaces row.
func (t *table[T]) Insert(row T) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.put(row)
}

// Get returns the row with id.
func (t *table[T]) Get(id string) (T, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	row, ok := t.rows[id]
	return row, ok
}

// List returns the rows that pass keep, in insertion order. A nil keep
// returns everything.
func (t *table[T]) List(keep func(T) bool) []T {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]T, 0, len(t.order))
	for _, id := range t.order {
		row := t.rows[id]
		if keep == nil || keep(row) {
			out = append(out, row)
		}
	}
	return out
}

// Update applies fn to the row with id and stores the result.
func (t *table[T]) Update(id string, fn func(*T)) (T, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	row, ok := t.rows[id]
	if !ok {
		var zero T
		return zero, false
	}
	fn(&row)
	t.rows[id] = row
	return row, true
}

// Delete removes the row with id and reports whether it existed.
func (t *table[T]) Delete(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.rows[id]; !ok {
		return false
	}
	delete(t.rows, id)
	for i, v := range t.order {
		if v == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
	return true
}

// Len returns the number of rows.
func (t *table[T]) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.rows)
}
