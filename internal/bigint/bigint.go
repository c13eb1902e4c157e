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

// Package bigint provides an arbitrary-precision signed integer that
// round-trips through the Plutus CBOR integer encoding used by on-chain
// datums: small ints as CBOR major type 0/1, and big positive/negative
// integers as CBOR tag 2/3 byte strings.
package bigint

import (
	"fmt"
	"math/big"

	"github.com/blinklabs-io/gouroboros/cbor"
)

// Int wraps math/big.Int to give it Plutus-datum CBOR semantics and a
// value-typed API (nil receivers behave as zero).
type Int struct {
	v *big.Int
}

// New returns an Int from an int64.
func New(n int64) Int {
	return Int{v: big.NewInt(n)}
}

// NewFromBig returns an Int holding a copy of b (zero if b is nil), so the
// caller may keep mutating b afterward.
func NewFromBig(b *big.Int) Int {
	if b == nil {
		return Int{v: big.NewInt(0)}
	}
	return Int{v: new(big.Int).Set(b)}
}

// NewFromUint64 returns an Int from a uint64, the shape ledger amount
// accessors hand back.
func NewFromUint64(n uint64) Int {
	return Int{v: new(big.Int).SetUint64(n)}
}

// Zero returns the additive identity.
func Zero() Int { return New(0) }

func (i Int) big() *big.Int {
	if i.v == nil {
		return big.NewInt(0)
	}
	return i.v
}

// Big returns a copy of the underlying math/big.Int.
func (i Int) Big() *big.Int {
	return new(big.Int).Set(i.big())
}

// Int64 returns the value truncated to int64; callers in the scoop builder
// only use this for magnitudes already known to be hardware-sized (fee
// counts, batch sizes), never for token amounts.
func (i Int) Int64() int64 {
	return i.big().Int64()
}

// Uint64 returns the value as a uint64; behaviour is undefined for negative
// values, same caveat as Int64.
func (i Int) Uint64() uint64 {
	return i.big().Uint64()
}

func (i Int) Add(o Int) Int {
	return NewFromBig(new(big.Int).Add(i.big(), o.big()))
}

func (i Int) Sub(o Int) Int {
	return NewFromBig(new(big.Int).Sub(i.big(), o.big()))
}

func (i Int) Mul(o Int) Int {
	return NewFromBig(new(big.Int).Mul(i.big(), o.big()))
}

// Div performs truncated (toward zero) division, matching the floor
// division used throughout the scoop arithmetic when both operands are
// non-negative, which is always the case in this codebase.
func (i Int) Div(o Int) Int {
	return NewFromBig(new(big.Int).Quo(i.big(), o.big()))
}

// DivFloor performs Euclidean floor division, as required by `⌊x/y⌋`
// formulas in the scoop builder when intermediate values could otherwise
// round toward zero incorrectly for negative numerators.
func (i Int) DivFloor(o Int) Int {
	a, b := i.big(), o.big()
	q, r := new(big.Int), new(big.Int)
	q.QuoRem(a, b, r)
	if r.Sign() != 0 && (r.Sign() < 0) != (b.Sign() < 0) {
		q.Sub(q, big.NewInt(1))
	}
	return NewFromBig(q)
}

func (i Int) Mod(o Int) Int {
	return NewFromBig(new(big.Int).Mod(i.big(), o.big()))
}

func (i Int) Neg() Int {
	return NewFromBig(new(big.Int).Neg(i.big()))
}

func (i Int) Cmp(o Int) int {
	return i.big().Cmp(o.big())
}

func (i Int) Equal(o Int) bool {
	return i.Cmp(o) == 0
}

func (i Int) Sign() int {
	return i.big().Sign()
}

func (i Int) IsZero() bool {
	return i.Sign() == 0
}

// Positive reports whether the value is strictly greater than zero.
func (i Int) Positive() bool {
	return i.Sign() > 0
}

// Negative reports whether the value is strictly less than zero.
func (i Int) Negative() bool {
	return i.Sign() < 0
}

func (i Int) String() string {
	return i.big().String()
}

// CeilDiv computes ⌈a/b⌉ for non-negative a and positive b, the shape
// needed to amortize the per-batch base fee across N orders:
// `(base_fee + N - 1) / N`.
func CeilDiv(a, b Int) Int {
	one := New(1)
	return a.Add(b).Sub(one).Div(b)
}

// MarshalCBOR encodes the integer using the library's native big.Int
// support, which already emits CBOR major type 0/1 for values that fit in
// a machine word and tag 2/3 (positive/negative bignum) otherwise -- the
// exact variants the Plutus integer encoding uses.
func (i Int) MarshalCBOR() ([]byte, error) {
	return cbor.Encode(i.big())
}

// UnmarshalCBOR decodes any of the Plutus integer encodings into i.
func (i *Int) UnmarshalCBOR(data []byte) error {
	var v big.Int
	if _, err := cbor.Decode(data, &v); err != nil {
		return fmt.Errorf("bigint: decode: %w", err)
	}
	i.v = &v
	return nil
}
