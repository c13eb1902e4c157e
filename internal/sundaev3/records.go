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

package sundaev3

import (
	"fmt"

	"github.com/blinklabs-io/gouroboros/ledger"

	"github.com/blinklabs-io/sundaescoop/internal/common"
)

// InputKey identifies a UTxO as "txIdHex#index", the same string-keyed
// identity the rest of this codebase's storage layer already uses (see
// storage.AddUtxo's utxoId). Matching on this key, rather than on a live
// ledger.TransactionInput object, lets a snapshot rebuilt from persisted
// records after a restart participate in spend-matching exactly like one
// built live from chain-sync events.
func InputKey(txIdHex string, index uint32) string {
	return fmt.Sprintf("%s#%d", txIdHex, index)
}

func inputKeyOf(input ledger.TransactionInput) string {
	return InputKey(input.Id().String(), input.Index())
}

// Pool is a pool UTxO's datum together with the provenance of its creating
// transaction: which input it lives at, its total output value, and the
// slot it was created in.
type Pool struct {
	Input ledger.TransactionInput
	Key   string
	Value *common.Value
	Datum PoolDatum
	Slot  uint64
}

// LiveOrder is an order UTxO's datum together with its provenance.
type LiveOrder struct {
	Input ledger.TransactionInput
	Key   string
	Value *common.Value
	Datum OrderDatum
	Slot  uint64
}

// Settings is the settings UTxO's datum together with its provenance.
type Settings struct {
	Input ledger.TransactionInput
	Key   string
	Datum SettingsDatum
	Slot  uint64
}

// NewPool builds a Pool from a live chain-sync input, deriving its key.
func NewPool(input ledger.TransactionInput, value *common.Value, datum PoolDatum, slot uint64) Pool {
	return Pool{Input: input, Key: inputKeyOf(input), Value: value, Datum: datum, Slot: slot}
}

// NewLiveOrder builds a LiveOrder from a live chain-sync input.
func NewLiveOrder(input ledger.TransactionInput, value *common.Value, datum OrderDatum, slot uint64) LiveOrder {
	return LiveOrder{Input: input, Key: inputKeyOf(input), Value: value, Datum: datum, Slot: slot}
}

// NewSettings builds a Settings from a live chain-sync input.
func NewSettings(input ledger.TransactionInput, datum SettingsDatum, slot uint64) Settings {
	return Settings{Input: input, Key: inputKeyOf(input), Datum: datum, Slot: slot}
}

// State is a single per-slot snapshot of the whole protocol instance: every
// live pool keyed by ident, every live order in arrival order, and the
// current settings UTxO (absent before the first settings output is seen).
type State struct {
	Pools    map[string]Pool
	Orders   []LiveOrder
	Settings *Settings
}

// NewState returns an empty snapshot.
func NewState() *State {
	return &State{Pools: make(map[string]Pool)}
}

// Clone returns a deep-enough copy for the historical state engine: a new
// top-level map and order slice, sharing the immutable datum/value leaves.
func (s *State) Clone() *State {
	out := &State{
		Pools:  make(map[string]Pool, len(s.Pools)),
		Orders: append([]LiveOrder(nil), s.Orders...),
	}
	for k, v := range s.Pools {
		out.Pools[k] = v
	}
	if s.Settings != nil {
		settings := *s.Settings
		out.Settings = &settings
	}
	return out
}

// PoolByIdent returns the pool with the given ident, if present.
func (s *State) PoolByIdent(ident Ident) (Pool, bool) {
	p, ok := s.Pools[ident.String()]
	return p, ok
}

// PutPool records or replaces a pool snapshot.
func (s *State) PutPool(p Pool) {
	s.Pools[p.Datum.Ident.String()] = p
}

// RemovePool drops a pool by ident (it was spent).
func (s *State) RemovePool(ident Ident) {
	delete(s.Pools, ident.String())
}

// AppendOrder records a newly observed order, preserving arrival order.
func (s *State) AppendOrder(o LiveOrder) {
	s.Orders = append(s.Orders, o)
}

// RemoveOrderByInput drops the order created at the given input (it was
// spent), if present.
func (s *State) RemoveOrderByInput(input ledger.TransactionInput) {
	s.RemoveOrderByKey(inputKeyOf(input))
}

// RemoveOrderByKey is RemoveOrderByInput for callers that only have the
// string identity of the spent input (e.g. a snapshot rebuilt from
// storage, which carries no live ledger.TransactionInput).
func (s *State) RemoveOrderByKey(key string) {
	for i, o := range s.Orders {
		if o.Key == key {
			s.Orders = append(s.Orders[:i], s.Orders[i+1:]...)
			return
		}
	}
}

// PoolByKey finds a pool by its UTxO identity rather than its ident, for
// matching a spent input against the live set.
func (s *State) PoolByKey(key string) (Pool, bool) {
	for _, p := range s.Pools {
		if p.Key == key {
			return p, true
		}
	}
	return Pool{}, false
}

// OrderByKey finds a live order by its UTxO identity.
func (s *State) OrderByKey(key string) (LiveOrder, bool) {
	for _, o := range s.Orders {
		if o.Key == key {
			return o, true
		}
	}
	return LiveOrder{}, false
}
