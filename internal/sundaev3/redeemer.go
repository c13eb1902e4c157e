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
	"github.com/blinklabs-io/gouroboros/cbor"

	"github.com/blinklabs-io/sundaescoop/internal/bigint"
	"github.com/blinklabs-io/sundaescoop/internal/plutus"
)

// PoolRedeemerKind enumerates the two ways a pool UTxO can be spent.
type PoolRedeemerKind uint8

const (
	PoolRedeemerScoop  PoolRedeemerKind = 0
	PoolRedeemerManage PoolRedeemerKind = 1
)

// InputOrderEntry names, for one order consumed by a scoop, its index among
// the transaction's inputs, the optional raw signed-strategy-execution
// bytes, and the scoop fee it contributes.
type InputOrderEntry struct {
	cbor.StructAsArray
	InputIndex   uint64
	SignedStrategyExecution plutus.Option[[]byte]
	ScoopFee     bigint.Int
}

type inputOrderEntryFields struct {
	cbor.StructAsArray
	InputIndex              uint64
	SignedStrategyExecution cbor.RawMessage
	ScoopFee                bigint.Int
}

func decodeBytesOption(data []byte) ([]byte, error) {
	var b []byte
	_, err := cbor.Decode(data, &b)
	return b, err
}

func encodeBytesOption(b []byte) ([]byte, error) {
	return cbor.Encode(b)
}

func (e *InputOrderEntry) UnmarshalCBOR(data []byte) error {
	var f inputOrderEntryFields
	if err := cbor.DecodeGeneric(data, &f); err != nil {
		return err
	}
	sse, err := plutus.DecodeOption(f.SignedStrategyExecution, decodeBytesOption)
	if err != nil {
		return err
	}
	e.InputIndex = f.InputIndex
	e.SignedStrategyExecution = sse
	e.ScoopFee = f.ScoopFee
	return nil
}

func (e InputOrderEntry) MarshalCBOR() ([]byte, error) {
	sse, err := plutus.EncodeOption(e.SignedStrategyExecution, encodeBytesOption)
	if err != nil {
		return nil, err
	}
	return cbor.Encode(&inputOrderEntryFields{
		InputIndex:              e.InputIndex,
		SignedStrategyExecution: cbor.RawMessage(sse),
		ScoopFee:                e.ScoopFee,
	})
}

// PoolRedeemer is the redeemer a pool UTxO is spent with.
type PoolRedeemer struct {
	Kind           PoolRedeemerKind
	SignatoryIndex uint64
	ScooperIndex   uint64
	InputOrder     []InputOrderEntry
}

type poolScoopFields struct {
	cbor.StructAsArray
	SignatoryIndex uint64
	ScooperIndex   uint64
	InputOrder     []cbor.RawMessage
}

func (r *PoolRedeemer) UnmarshalCBOR(data []byte) error {
	tag, fields, err := plutus.PeekConstrTag(data)
	if err != nil {
		return err
	}
	switch PoolRedeemerKind(tag) {
	case PoolRedeemerScoop:
		var w poolScoopFields
		if err := plutus.DecodeFields(fields, &w); err != nil {
			return err
		}
		entries := make([]InputOrderEntry, len(w.InputOrder))
		for i, raw := range w.InputOrder {
			if err := entries[i].UnmarshalCBOR(raw); err != nil {
				return err
			}
		}
		r.Kind = PoolRedeemerScoop
		r.SignatoryIndex = w.SignatoryIndex
		r.ScooperIndex = w.ScooperIndex
		r.InputOrder = entries
		return nil
	case PoolRedeemerManage:
		r.Kind = PoolRedeemerManage
		return nil
	default:
		return decodeErrf("pool redeemer: unexpected constructor index %d", tag)
	}
}

func (r PoolRedeemer) MarshalCBOR() ([]byte, error) {
	switch r.Kind {
	case PoolRedeemerScoop:
		entries := make([]cbor.RawMessage, len(r.InputOrder))
		for i, e := range r.InputOrder {
			enc, err := e.MarshalCBOR()
			if err != nil {
				return nil, err
			}
			entries[i] = cbor.RawMessage(enc)
		}
		return plutus.EncodeConstr(uint64(PoolRedeemerScoop), cbor.IndefLengthList{
			r.SignatoryIndex, r.ScooperIndex, entries,
		})
	case PoolRedeemerManage:
		return plutus.EncodeConstr(uint64(PoolRedeemerManage), cbor.IndefLengthList{})
	default:
		return nil, decodeErrf("pool redeemer: unknown kind %d", r.Kind)
	}
}

// OrderRedeemerKind enumerates the two ways an order UTxO can be spent.
type OrderRedeemerKind uint8

const (
	OrderRedeemerScoop  OrderRedeemerKind = 0
	OrderRedeemerCancel OrderRedeemerKind = 1
)

// OrderRedeemer is the redeemer an order UTxO is spent with.
type OrderRedeemer struct {
	Kind OrderRedeemerKind
}

func (r *OrderRedeemer) UnmarshalCBOR(data []byte) error {
	tag, _, err := plutus.PeekConstrTag(data)
	if err != nil {
		return err
	}
	switch OrderRedeemerKind(tag) {
	case OrderRedeemerScoop, OrderRedeemerCancel:
		r.Kind = OrderRedeemerKind(tag)
		return nil
	default:
		return decodeErrf("order redeemer: unexpected constructor index %d", tag)
	}
}

func (r OrderRedeemer) MarshalCBOR() ([]byte, error) {
	return plutus.EncodeConstr(uint64(r.Kind), cbor.IndefLengthList{})
}
