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

package common

import (
	"github.com/blinklabs-io/gouroboros/cbor"
	"github.com/blinklabs-io/gouroboros/ledger"

	"github.com/blinklabs-io/sundaescoop/internal/bigint"
)

// Value is a multi-asset amount map, keyed by policy then by token name.
// Zero-amount entries and empty inner maps are pruned after every mutating
// operation so structural equality can be decided by comparing the pruned
// representation directly.
type Value struct {
	assets map[string]map[string]bigint.Int
	// classByKey recovers the AssetClass for a given inner key, since the
	// map above is keyed by hex strings for fast, content-based lookup.
	classByKey map[string]AssetClass
}

// NewValue returns an empty Value.
func NewValue() *Value {
	return &Value{
		assets:     make(map[string]map[string]bigint.Int),
		classByKey: make(map[string]AssetClass),
	}
}

func keyFor(ac AssetClass) (policyKey, nameKey string) {
	return hexOf(ac.PolicyId), hexOf(ac.Name)
}

func hexOf(b []byte) string {
	const hextable = "0123456789abcdef"
	out := make([]byte, len(b)*2)
	for i, c := range b {
		out[i*2] = hextable[c>>4]
		out[i*2+1] = hextable[c&0x0f]
	}
	return string(out)
}

// Get returns the amount of ac in v, or zero if absent.
func (v *Value) Get(ac AssetClass) bigint.Int {
	if v == nil {
		return bigint.Zero()
	}
	pk, nk := keyFor(ac)
	inner, ok := v.assets[pk]
	if !ok {
		return bigint.Zero()
	}
	amt, ok := inner[nk]
	if !ok {
		return bigint.Zero()
	}
	return amt
}

// Insert sets the amount of ac to amt; an amount of zero removes the
// entry (and the inner map, if it becomes empty).
func (v *Value) Insert(ac AssetClass, amt bigint.Int) {
	pk, nk := keyFor(ac)
	if amt.IsZero() {
		if inner, ok := v.assets[pk]; ok {
			delete(inner, nk)
			delete(v.classByKey, pk+"\x00"+nk)
			if len(inner) == 0 {
				delete(v.assets, pk)
			}
		}
		return
	}
	inner, ok := v.assets[pk]
	if !ok {
		inner = make(map[string]bigint.Int)
		v.assets[pk] = inner
	}
	inner[nk] = amt
	v.classByKey[pk+"\x00"+nk] = ac
}

// Add adds amt of ac to the existing amount.
func (v *Value) Add(ac AssetClass, amt bigint.Int) {
	v.Insert(ac, v.Get(ac).Add(amt))
}

// Subtract subtracts amt of ac from the existing amount. The result may be
// negative; callers that must not allow that check explicitly.
func (v *Value) Subtract(ac AssetClass, amt bigint.Int) {
	v.Insert(ac, v.Get(ac).Sub(amt))
}

// Clone returns a deep copy.
func (v *Value) Clone() *Value {
	out := NewValue()
	for pk, inner := range v.assets {
		newInner := make(map[string]bigint.Int, len(inner))
		for nk, amt := range inner {
			newInner[nk] = amt
			out.classByKey[pk+"\x00"+nk] = v.classByKey[pk+"\x00"+nk]
		}
		out.assets[pk] = newInner
	}
	return out
}

// Entries returns every (AssetClass, amount) pair with a non-zero amount.
// Order is unspecified.
func (v *Value) Entries() []AssetAmount {
	var out []AssetAmount
	for pk, inner := range v.assets {
		for nk, amt := range inner {
			out = append(out, AssetAmount{
				Class:  v.classByKey[pk+"\x00"+nk],
				Amount: amt,
			})
		}
	}
	return out
}

// Equal reports whether v and o compare equal after canonical pruning --
// i.e. they contain exactly the same non-zero (AssetClass, amount) pairs.
func (v *Value) Equal(o *Value) bool {
	if v == nil || o == nil {
		return (v == nil || len(v.Entries()) == 0) && (o == nil || len(o.Entries()) == 0)
	}
	a, b := v.Entries(), o.Entries()
	if len(a) != len(b) {
		return false
	}
	for _, e := range a {
		if !o.Get(e.Class).Equal(e.Amount) {
			return false
		}
	}
	return true
}

// FromOutput reads the full multi-asset value locked in a transaction
// output: lovelace from Amount(), every native asset from Assets().
func FromOutput(output ledger.TransactionOutput) *Value {
	v := NewValue()
	v.Insert(Lovelace(), bigint.NewFromUint64(output.Amount().Uint64()))
	if assets := output.Assets(); assets != nil {
		for _, policy := range assets.Policies() {
			for _, name := range assets.Assets(policy) {
				amt := assets.Asset(policy, name)
				v.Insert(AssetClass{PolicyId: append([]byte(nil), policy[:]...), Name: append([]byte(nil), name...)}, bigint.NewFromUint64(amt.Uint64()))
			}
		}
	}
	return v
}

// AssetAmount pairs an AssetClass with a BigInt amount.
type AssetAmount struct {
	Class  AssetClass
	Amount bigint.Int
}

// SingletonValue is the spec's `(policy, token, BigInt)` wire shape used in
// order actions (Swap gives/takes, Deposit a/b, Withdrawal lp, Donation a/b).
type SingletonValue struct {
	Class  AssetClass
	Amount bigint.Int
}

type singletonValueFields struct {
	cbor.StructAsArray
	Policy []byte
	Token  []byte
	Amount bigint.Int
}

// UnmarshalCBOR decodes a SingletonValue from its flat (policy, token,
// amount) tuple -- not a (AssetClass, amount) pair, since that is how order
// actions carry it on-chain.
func (s *SingletonValue) UnmarshalCBOR(data []byte) error {
	var f singletonValueFields
	if err := cbor.DecodeGeneric(data, &f); err != nil {
		return err
	}
	s.Class = AssetClass{PolicyId: f.Policy, Name: f.Token}
	s.Amount = f.Amount
	return nil
}

// MarshalCBOR encodes a SingletonValue as its flat (policy, token, amount)
// tuple.
func (s SingletonValue) MarshalCBOR() ([]byte, error) {
	return cbor.Encode(&singletonValueFields{
		Policy: s.Class.PolicyId,
		Token:  s.Class.Name,
		Amount: s.Amount,
	})
}
