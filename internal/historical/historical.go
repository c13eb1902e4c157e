// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package historical keeps one snapshot of protocol state per observed
// slot, so a chain-sync rollback can discard everything after a given
// point without losing the snapshots that remain valid.
package historical

import (
	"fmt"
	"sort"
)

// State[T] tracks a snapshot per slot. New(s) is derived by cloning the
// snapshot at the largest already-stored slot below s, so callers only pay
// clone cost once per new block rather than once per read.
type State[T any] struct {
	snapshots map[uint64]T
	order     []uint64 // ascending; always in sync with the map's keys
	defaultFn func() T
	cloneFn   func(T) T
}

// New returns an empty history. defaultFn produces the snapshot installed
// the first time UpdateSlot is called on an empty history; cloneFn produces
// an independent copy of a snapshot to seed a new slot from.
func New[T any](defaultFn func() T, cloneFn func(T) T) *State[T] {
	return &State[T]{
		snapshots: make(map[uint64]T),
		defaultFn: defaultFn,
		cloneFn:   cloneFn,
	}
}

func (h *State[T]) latestSlot() (uint64, bool) {
	if len(h.order) == 0 {
		return 0, false
	}
	return h.order[len(h.order)-1], true
}

// UpdateSlot returns the snapshot at slot s, creating it if necessary by
// cloning the snapshot at the nearest lower stored slot. It errors if s is
// strictly behind the latest stored slot -- history only ever moves
// forward except through an explicit rollback.
func (h *State[T]) UpdateSlot(s uint64) (T, error) {
	latest, ok := h.latestSlot()
	if !ok {
		v := h.defaultFn()
		h.snapshots[s] = v
		h.order = append(h.order, s)
		return v, nil
	}
	if s == latest {
		return h.snapshots[s], nil
	}
	if s < latest {
		var zero T
		return zero, fmt.Errorf("historical: update_slot %d is behind latest stored slot %d", s, latest)
	}
	cloned := h.cloneFn(h.snapshots[latest])
	h.snapshots[s] = cloned
	h.order = append(h.order, s)
	return cloned, nil
}

// RollbackToSlot discards every snapshot stored above s and returns the
// discarded snapshots, highest slot first.
func (h *State[T]) RollbackToSlot(s uint64) []T {
	cut := sort.Search(len(h.order), func(i int) bool { return h.order[i] > s })
	removed := make([]T, 0, len(h.order)-cut)
	for i := len(h.order) - 1; i >= cut; i-- {
		slot := h.order[i]
		removed = append(removed, h.snapshots[slot])
		delete(h.snapshots, slot)
	}
	h.order = h.order[:cut]
	return removed
}

// RollbackToOrigin discards every stored snapshot.
func (h *State[T]) RollbackToOrigin() {
	h.snapshots = make(map[uint64]T)
	h.order = nil
}

// PruneHistory drops the lowest-keyed snapshot until at most n remain. It
// reports whether anything was removed.
func (h *State[T]) PruneHistory(n int) bool {
	pruned := false
	for len(h.order) > n {
		lowest := h.order[0]
		delete(h.snapshots, lowest)
		h.order = h.order[1:]
		pruned = true
	}
	return pruned
}

// Latest returns the most recently stored snapshot, or a fresh default one
// if history is empty.
func (h *State[T]) Latest() T {
	if len(h.order) == 0 {
		return h.defaultFn()
	}
	return h.snapshots[h.order[len(h.order)-1]]
}

// Len reports how many slots are currently stored.
func (h *State[T]) Len() int {
	return len(h.order)
}
