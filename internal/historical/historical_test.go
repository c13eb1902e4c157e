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

package historical_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/blinklabs-io/sundaescoop/internal/historical"
)

type counter struct {
	n int
}

func newHistory() *historical.State[*counter] {
	return historical.New(
		func() *counter { return &counter{} },
		func(c *counter) *counter { cp := *c; return &cp },
	)
}

func TestUpdateSlotCreatesAndReturnsLatest(t *testing.T) {
	h := newHistory()
	v, err := h.UpdateSlot(10)
	require.NoError(t, err)
	require.Same(t, v, h.Latest())
}

func TestUpdateSlotSameSlotReturnsExisting(t *testing.T) {
	h := newHistory()
	v1, err := h.UpdateSlot(10)
	require.NoError(t, err)
	v1.n = 5
	v2, err := h.UpdateSlot(10)
	require.NoError(t, err)
	require.Equal(t, 5, v2.n)
}

func TestUpdateSlotClonesForward(t *testing.T) {
	h := newHistory()
	v1, _ := h.UpdateSlot(10)
	v1.n = 7
	v2, err := h.UpdateSlot(20)
	require.NoError(t, err)
	require.Equal(t, 7, v2.n)

	v2.n = 99
	require.Equal(t, 7, v1.n, "clone must be independent of the source snapshot")
}

func TestUpdateSlotErrorsGoingBackward(t *testing.T) {
	h := newHistory()
	_, _ = h.UpdateSlot(20)
	_, err := h.UpdateSlot(10)
	require.Error(t, err)
}

func TestRollbackToSlot(t *testing.T) {
	h := newHistory()
	_, _ = h.UpdateSlot(10)
	_, _ = h.UpdateSlot(20)
	v30, _ := h.UpdateSlot(30)
	v30.n = 3

	removed := h.RollbackToSlot(20)
	require.Len(t, removed, 1)
	require.Equal(t, 3, removed[0].n)
	require.Equal(t, 2, h.Len())

	latest := h.Latest()
	require.Equal(t, 0, latest.n) // slot 20's snapshot, never mutated
}

func TestRollbackToOrigin(t *testing.T) {
	h := newHistory()
	_, _ = h.UpdateSlot(10)
	_, _ = h.UpdateSlot(20)
	h.RollbackToOrigin()
	require.Equal(t, 0, h.Len())
	require.NotNil(t, h.Latest())
}

func TestPruneHistory(t *testing.T) {
	h := newHistory()
	for s := uint64(1); s <= 5; s++ {
		_, _ = h.UpdateSlot(s * 10)
	}
	require.True(t, h.PruneHistory(3))
	require.Equal(t, 3, h.Len())
	require.False(t, h.PruneHistory(3))
}
