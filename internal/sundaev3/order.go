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

	"github.com/blinklabs-io/sundaescoop/internal/common"
	"github.com/blinklabs-io/sundaescoop/internal/plutus"
)

// StrategyAuthorizationKind distinguishes how a Strategy order is signed.
type StrategyAuthorizationKind uint8

const (
	StrategyAuthSignature StrategyAuthorizationKind = 0
	StrategyAuthScript    StrategyAuthorizationKind = 1
)

// StrategyAuthorization carries the witness a strategy execution must
// present; verifying it is out of scope (the indexer never re-checks
// signatures or scripts), this is just the shape the field decodes to.
type StrategyAuthorization struct {
	Kind  StrategyAuthorizationKind
	Bytes []byte
}

func (s *StrategyAuthorization) UnmarshalCBOR(data []byte) error {
	tag, fields, err := plutus.PeekConstrTag(data)
	if err != nil {
		return err
	}
	var w struct {
		cbor.StructAsArray
		Bytes []byte
	}
	if err := plutus.DecodeFields(fields, &w); err != nil {
		return err
	}
	s.Kind = StrategyAuthorizationKind(tag)
	s.Bytes = w.Bytes
	return nil
}

func (s StrategyAuthorization) MarshalCBOR() ([]byte, error) {
	return plutus.EncodeConstr(uint64(s.Kind), cbor.IndefLengthList{s.Bytes})
}

// OrderKind enumerates the Order action's constructor indices (§4.C).
type OrderKind uint8

const (
	OrderStrategy   OrderKind = 0
	OrderSwap       OrderKind = 1
	OrderDeposit    OrderKind = 2
	OrderWithdrawal OrderKind = 3
	OrderDonation   OrderKind = 4
	OrderRecord     OrderKind = 5
)

// Order is the action an order datum requests the scooper perform.
//
// Swap carries its two singleton values as separate constructor fields;
// Deposit and Donation carry theirs as a single field holding a plain
// (A, B) tuple, matching the wire shapes fixed by the validator script.
type Order struct {
	Kind OrderKind

	Strategy StrategyAuthorization // OrderStrategy

	Gives common.SingletonValue // OrderSwap
	Takes common.SingletonValue // OrderSwap

	A common.SingletonValue // OrderDeposit, OrderDonation
	B common.SingletonValue // OrderDeposit, OrderDonation

	LP common.SingletonValue // OrderWithdrawal

	Asset common.AssetClass // OrderRecord
}

type singletonPairFields struct {
	cbor.StructAsArray
	A cbor.RawMessage
	B cbor.RawMessage
}

func decodeSingletonPair(data []byte) (common.SingletonValue, common.SingletonValue, error) {
	var f singletonPairFields
	if err := cbor.DecodeGeneric(data, &f); err != nil {
		return common.SingletonValue{}, common.SingletonValue{}, err
	}
	var a, b common.SingletonValue
	if err := a.UnmarshalCBOR(f.A); err != nil {
		return common.SingletonValue{}, common.SingletonValue{}, err
	}
	if err := b.UnmarshalCBOR(f.B); err != nil {
		return common.SingletonValue{}, common.SingletonValue{}, err
	}
	return a, b, nil
}

func encodeSingletonPair(a, b common.SingletonValue) ([]byte, error) {
	ae, err := a.MarshalCBOR()
	if err != nil {
		return nil, err
	}
	be, err := b.MarshalCBOR()
	if err != nil {
		return nil, err
	}
	return cbor.Encode(&singletonPairFields{A: cbor.RawMessage(ae), B: cbor.RawMessage(be)})
}

func (o *Order) UnmarshalCBOR(data []byte) error {
	tag, fields, err := plutus.PeekConstrTag(data)
	if err != nil {
		return err
	}
	switch OrderKind(tag) {
	case OrderStrategy:
		var w struct {
			cbor.StructAsArray
			Auth cbor.RawMessage
		}
		if err := plutus.DecodeFields(fields, &w); err != nil {
			return err
		}
		var auth StrategyAuthorization
		if err := auth.UnmarshalCBOR(w.Auth); err != nil {
			return err
		}
		o.Kind, o.Strategy = OrderStrategy, auth
		return nil
	case OrderSwap:
		var w struct {
			cbor.StructAsArray
			Gives cbor.RawMessage
			Takes cbor.RawMessage
		}
		if err := plutus.DecodeFields(fields, &w); err != nil {
			return err
		}
		var gives, takes common.SingletonValue
		if err := gives.UnmarshalCBOR(w.Gives); err != nil {
			return err
		}
		if err := takes.UnmarshalCBOR(w.Takes); err != nil {
			return err
		}
		o.Kind, o.Gives, o.Takes = OrderSwap, gives, takes
		return nil
	case OrderDeposit:
		var w struct {
			cbor.StructAsArray
			Pair cbor.RawMessage
		}
		if err := plutus.DecodeFields(fields, &w); err != nil {
			return err
		}
		a, b, err := decodeSingletonPair(w.Pair)
		if err != nil {
			return err
		}
		o.Kind, o.A, o.B = OrderDeposit, a, b
		return nil
	case OrderWithdrawal:
		var w struct {
			cbor.StructAsArray
			LP cbor.RawMessage
		}
		if err := plutus.DecodeFields(fields, &w); err != nil {
			return err
		}
		var lp common.SingletonValue
		if err := lp.UnmarshalCBOR(w.LP); err != nil {
			return err
		}
		o.Kind, o.LP = OrderWithdrawal, lp
		return nil
	case OrderDonation:
		var w struct {
			cbor.StructAsArray
			Pair cbor.RawMessage
		}
		if err := plutus.DecodeFields(fields, &w); err != nil {
			return err
		}
		a, b, err := decodeSingletonPair(w.Pair)
		if err != nil {
			return err
		}
		o.Kind, o.A, o.B = OrderDonation, a, b
		return nil
	case OrderRecord:
		var w struct {
			cbor.StructAsArray
			Asset cbor.RawMessage
		}
		if err := plutus.DecodeFields(fields, &w); err != nil {
			return err
		}
		var asset common.AssetClass
		if err := asset.UnmarshalCBOR(w.Asset); err != nil {
			return err
		}
		o.Kind, o.Asset = OrderRecord, asset
		return nil
	default:
		return decodeErrf("order: unexpected constructor index %d", tag)
	}
}

func (o Order) MarshalCBOR() ([]byte, error) {
	switch o.Kind {
	case OrderStrategy:
		auth, err := o.Strategy.MarshalCBOR()
		if err != nil {
			return nil, err
		}
		return plutus.EncodeConstr(uint64(OrderStrategy), cbor.IndefLengthList{cbor.RawMessage(auth)})
	case OrderSwap:
		gives, err := o.Gives.MarshalCBOR()
		if err != nil {
			return nil, err
		}
		takes, err := o.Takes.MarshalCBOR()
		if err != nil {
			return nil, err
		}
		return plutus.EncodeConstr(uint64(OrderSwap), cbor.IndefLengthList{
			cbor.RawMessage(gives), cbor.RawMessage(takes),
		})
	case OrderDeposit:
		pair, err := encodeSingletonPair(o.A, o.B)
		if err != nil {
			return nil, err
		}
		return plutus.EncodeConstr(uint64(OrderDeposit), cbor.IndefLengthList{cbor.RawMessage(pair)})
	case OrderWithdrawal:
		lp, err := o.LP.MarshalCBOR()
		if err != nil {
			return nil, err
		}
		return plutus.EncodeConstr(uint64(OrderWithdrawal), cbor.IndefLengthList{cbor.RawMessage(lp)})
	case OrderDonation:
		pair, err := encodeSingletonPair(o.A, o.B)
		if err != nil {
			return nil, err
		}
		return plutus.EncodeConstr(uint64(OrderDonation), cbor.IndefLengthList{cbor.RawMessage(pair)})
	case OrderRecord:
		asset, err := o.Asset.MarshalCBOR()
		if err != nil {
			return nil, err
		}
		return plutus.EncodeConstr(uint64(OrderRecord), cbor.IndefLengthList{cbor.RawMessage(asset)})
	default:
		return nil, decodeErrf("order: unknown kind %d", o.Kind)
	}
}
