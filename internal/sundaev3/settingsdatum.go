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

// Rational is a governance ratio expressed as (numerator, denominator).
type Rational struct {
	cbor.StructAsArray
	Num bigint.Int
	Den bigint.Int
}

// SettingsDatum carries the governance parameters shared by every pool of
// this protocol instance.
type SettingsDatum struct {
	SettingsAdmin         Multisig
	MetadataAdmin         PlutusAddress
	TreasuryAdmin         Multisig
	TreasuryAddress       PlutusAddress
	TreasuryAllowance     Rational
	AuthorizedScoopers    plutus.Option[[][]byte]
	AuthorizedStakingKeys []Credential
	BaseFee               bigint.Int
	SimpleFee             bigint.Int
	StrategyFee           bigint.Int
	PoolCreationFee       bigint.Int
	Extensions            plutus.Any
}

type settingsDatumFields struct {
	cbor.StructAsArray
	SettingsAdmin         cbor.RawMessage
	MetadataAdmin         cbor.RawMessage
	TreasuryAdmin         cbor.RawMessage
	TreasuryAddress       cbor.RawMessage
	TreasuryAllowance     Rational
	AuthorizedScoopers    cbor.RawMessage
	AuthorizedStakingKeys []cbor.RawMessage
	BaseFee               bigint.Int
	SimpleFee             bigint.Int
	StrategyFee           bigint.Int
	PoolCreationFee       bigint.Int
	Extensions            cbor.RawMessage
}

func decodeByteList(data []byte) ([][]byte, error) {
	var out [][]byte
	if err := cbor.DecodeGeneric(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func encodeByteList(v [][]byte) ([]byte, error) {
	return cbor.Encode(v)
}

// UnmarshalCBOR decodes a SettingsDatum from its inline-datum CBOR.
func (s *SettingsDatum) UnmarshalCBOR(data []byte) error {
	var f settingsDatumFields
	if err := plutus.DecodeConstr(data, 0, &f); err != nil {
		return err
	}
	settingsAdmin, err := decodeMultisig(f.SettingsAdmin)
	if err != nil {
		return err
	}
	treasuryAdmin, err := decodeMultisig(f.TreasuryAdmin)
	if err != nil {
		return err
	}
	var metadataAdmin, treasuryAddress PlutusAddress
	if err := metadataAdmin.UnmarshalCBOR(f.MetadataAdmin); err != nil {
		return err
	}
	if err := treasuryAddress.UnmarshalCBOR(f.TreasuryAddress); err != nil {
		return err
	}
	authorizedScoopers, err := plutus.DecodeOption(f.AuthorizedScoopers, decodeByteList)
	if err != nil {
		return err
	}
	stakingKeys := make([]Credential, len(f.AuthorizedStakingKeys))
	for i, raw := range f.AuthorizedStakingKeys {
		if err := stakingKeys[i].UnmarshalCBOR(raw); err != nil {
			return err
		}
	}
	var extensions plutus.Any
	if err := extensions.UnmarshalCBOR(f.Extensions); err != nil {
		return err
	}
	s.SettingsAdmin = settingsAdmin
	s.MetadataAdmin = metadataAdmin
	s.TreasuryAdmin = treasuryAdmin
	s.TreasuryAddress = treasuryAddress
	s.TreasuryAllowance = f.TreasuryAllowance
	s.AuthorizedScoopers = authorizedScoopers
	s.AuthorizedStakingKeys = stakingKeys
	s.BaseFee = f.BaseFee
	s.SimpleFee = f.SimpleFee
	s.StrategyFee = f.StrategyFee
	s.PoolCreationFee = f.PoolCreationFee
	s.Extensions = extensions
	return nil
}

// MarshalCBOR encodes a SettingsDatum.
func (s SettingsDatum) MarshalCBOR() ([]byte, error) {
	settingsAdmin, err := s.SettingsAdmin.MarshalCBOR()
	if err != nil {
		return nil, err
	}
	treasuryAdmin, err := s.TreasuryAdmin.MarshalCBOR()
	if err != nil {
		return nil, err
	}
	metadataAdmin, err := s.MetadataAdmin.MarshalCBOR()
	if err != nil {
		return nil, err
	}
	treasuryAddress, err := s.TreasuryAddress.MarshalCBOR()
	if err != nil {
		return nil, err
	}
	authorizedScoopers, err := plutus.EncodeOption(s.AuthorizedScoopers, encodeByteList)
	if err != nil {
		return nil, err
	}
	stakingKeys := make([]cbor.RawMessage, len(s.AuthorizedStakingKeys))
	for i, c := range s.AuthorizedStakingKeys {
		enc, err := c.MarshalCBOR()
		if err != nil {
			return nil, err
		}
		stakingKeys[i] = cbor.RawMessage(enc)
	}
	extensions, err := s.Extensions.MarshalCBOR()
	if err != nil {
		return nil, err
	}
	return plutus.EncodeConstr(0, cbor.IndefLengthList{
		cbor.RawMessage(settingsAdmin),
		cbor.RawMessage(metadataAdmin),
		cbor.RawMessage(treasuryAdmin),
		cbor.RawMessage(treasuryAddress),
		&s.TreasuryAllowance,
		cbor.RawMessage(authorizedScoopers),
		stakingKeys,
		s.BaseFee,
		s.SimpleFee,
		s.StrategyFee,
		s.PoolCreationFee,
		cbor.RawMessage(extensions),
	})
}
