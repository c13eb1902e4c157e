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
	"github.com/blinklabs-io/sundaescoop/internal/common"
	"github.com/blinklabs-io/sundaescoop/internal/plutus"
)

// AssetPair is the pool's (asset0, asset1) coin pair. It is a plain
// two-element tuple on the wire, not a constructor -- like AssetClass
// itself, Aiken erases built-in tuples to bare arrays.
type AssetPair struct {
	cbor.StructAsArray
	Asset0 common.AssetClass
	Asset1 common.AssetClass
}

// PoolDatum is the inline datum a pool UTxO carries.
type PoolDatum struct {
	Ident             Ident
	Assets            AssetPair
	CirculatingLP     bigint.Int
	BidFeesPer10Thousand bigint.Int
	AskFeesPer10Thousand bigint.Int
	FeeManager        plutus.Option[Multisig]
	MarketOpen        bigint.Int
	ProtocolFees      bigint.Int
}

type poolDatumFields struct {
	cbor.StructAsArray
	Ident                cbor.RawMessage
	Assets               AssetPair
	CirculatingLP        bigint.Int
	BidFeesPer10Thousand bigint.Int
	AskFeesPer10Thousand bigint.Int
	FeeManager           cbor.RawMessage
	MarketOpen           bigint.Int
	ProtocolFees         bigint.Int
}

func decodeMultisig(data []byte) (Multisig, error) {
	var m Multisig
	err := m.UnmarshalCBOR(data)
	return m, err
}

func encodeMultisig(m Multisig) ([]byte, error) {
	return m.MarshalCBOR()
}

// UnmarshalCBOR decodes a PoolDatum from its inline-datum CBOR.
func (p *PoolDatum) UnmarshalCBOR(data []byte) error {
	var f poolDatumFields
	if err := plutus.DecodeConstr(data, 0, &f); err != nil {
		return err
	}
	ident, err := decodeIdent(f.Ident)
	if err != nil {
		return err
	}
	feeManager, err := plutus.DecodeOption(f.FeeManager, decodeMultisig)
	if err != nil {
		return err
	}
	p.Ident = ident
	p.Assets = f.Assets
	p.CirculatingLP = f.CirculatingLP
	p.BidFeesPer10Thousand = f.BidFeesPer10Thousand
	p.AskFeesPer10Thousand = f.AskFeesPer10Thousand
	p.FeeManager = feeManager
	p.MarketOpen = f.MarketOpen
	p.ProtocolFees = f.ProtocolFees
	return nil
}

// MarshalCBOR encodes a PoolDatum.
func (p PoolDatum) MarshalCBOR() ([]byte, error) {
	ident, err := encodeIdent(p.Ident)
	if err != nil {
		return nil, err
	}
	feeManager, err := plutus.EncodeOption(p.FeeManager, encodeMultisig)
	if err != nil {
		return nil, err
	}
	return plutus.EncodeConstr(0, cbor.IndefLengthList{
		cbor.RawMessage(ident),
		&p.Assets,
		p.CirculatingLP,
		p.BidFeesPer10Thousand,
		p.AskFeesPer10Thousand,
		cbor.RawMessage(feeManager),
		p.MarketOpen,
		p.ProtocolFees,
	})
}

// Valid checks the structural invariants §3 states for a pool datum:
// non-negative circulating LP and protocol fees, and the coin pair held in
// canonical (lower, higher) AssetClass order.
func (p PoolDatum) Valid() bool {
	return !p.CirculatingLP.Negative() &&
		!p.ProtocolFees.Negative() &&
		p.Assets.Asset0.Less(p.Assets.Asset1)
}
