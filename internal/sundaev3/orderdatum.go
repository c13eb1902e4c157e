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

// OrderDatum is the inline datum an order UTxO carries.
type OrderDatum struct {
	Ident       plutus.Option[Ident]
	Owner       Multisig
	ScoopFee    bigint.Int
	Destination Destination
	Action      Order
	Extra       plutus.Any
}

type orderDatumFields struct {
	cbor.StructAsArray
	Ident       cbor.RawMessage
	Owner       cbor.RawMessage
	ScoopFee    bigint.Int
	Destination cbor.RawMessage
	Action      cbor.RawMessage
	Extra       cbor.RawMessage
}

func decodeIdent(data []byte) (Ident, error) {
	var i Ident
	err := i.UnmarshalCBOR(data)
	return i, err
}

func encodeIdent(i Ident) ([]byte, error) {
	return i.MarshalCBOR()
}

// UnmarshalCBOR decodes an OrderDatum from its inline-datum CBOR.
func (o *OrderDatum) UnmarshalCBOR(data []byte) error {
	var f orderDatumFields
	if err := plutus.DecodeConstr(data, 0, &f); err != nil {
		return err
	}
	ident, err := plutus.DecodeOption(f.Ident, decodeIdent)
	if err != nil {
		return err
	}
	var owner Multisig
	if err := owner.UnmarshalCBOR(f.Owner); err != nil {
		return err
	}
	var dest Destination
	if err := dest.UnmarshalCBOR(f.Destination); err != nil {
		return err
	}
	var action Order
	if err := action.UnmarshalCBOR(f.Action); err != nil {
		return err
	}
	var extra plutus.Any
	if err := extra.UnmarshalCBOR(f.Extra); err != nil {
		return err
	}
	o.Ident = ident
	o.Owner = owner
	o.ScoopFee = f.ScoopFee
	o.Destination = dest
	o.Action = action
	o.Extra = extra
	return nil
}

// MarshalCBOR encodes an OrderDatum.
func (o OrderDatum) MarshalCBOR() ([]byte, error) {
	ident, err := plutus.EncodeOption(o.Ident, encodeIdent)
	if err != nil {
		return nil, err
	}
	owner, err := o.Owner.MarshalCBOR()
	if err != nil {
		return nil, err
	}
	dest, err := o.Destination.MarshalCBOR()
	if err != nil {
		return nil, err
	}
	action, err := o.Action.MarshalCBOR()
	if err != nil {
		return nil, err
	}
	extra, err := o.Extra.MarshalCBOR()
	if err != nil {
		return nil, err
	}
	return plutus.EncodeConstr(0, cbor.IndefLengthList{
		cbor.RawMessage(ident),
		cbor.RawMessage(owner),
		o.ScoopFee,
		cbor.RawMessage(dest),
		cbor.RawMessage(action),
		cbor.RawMessage(extra),
	})
}
