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

// CredentialKind distinguishes the two address-credential shapes.
type CredentialKind uint8

const (
	CredentialVerificationKey CredentialKind = 0
	CredentialScript          CredentialKind = 1
)

// Credential is a payment or staking credential: a verification-key hash or
// a script hash, distinguished by constructor index.
type Credential struct {
	Kind CredentialKind
	Hash []byte
}

type credentialWrapper struct {
	cbor.StructAsArray
	Hash []byte
}

func (c *Credential) UnmarshalCBOR(data []byte) error {
	tag, fields, err := plutus.PeekConstrTag(data)
	if err != nil {
		return err
	}
	var w credentialWrapper
	if err := plutus.DecodeFields(fields, &w); err != nil {
		return err
	}
	c.Kind = CredentialKind(tag)
	c.Hash = w.Hash
	return nil
}

func (c Credential) MarshalCBOR() ([]byte, error) {
	return plutus.EncodeConstr(uint64(c.Kind), cbor.IndefLengthList{c.Hash})
}

// StakePointer addresses a stake registration certificate by its chain
// position, for the rarely used Referenced.Pointer variant.
type StakePointer struct {
	SlotNumber       bigint.Int
	TransactionIndex bigint.Int
	CertificateIndex bigint.Int
}

type stakePointerFields struct {
	cbor.StructAsArray
	SlotNumber       bigint.Int
	TransactionIndex bigint.Int
	CertificateIndex bigint.Int
}

func (s *StakePointer) UnmarshalCBOR(data []byte) error {
	var w stakePointerFields
	if err := plutus.DecodeConstr(data, 0, &w); err != nil {
		return err
	}
	*s = StakePointer(w)
	return nil
}

func (s StakePointer) MarshalCBOR() ([]byte, error) {
	return plutus.EncodeConstr(0, cbor.IndefLengthList{
		s.SlotNumber, s.TransactionIndex, s.CertificateIndex,
	})
}

// Referenced is the generic `Inline(T) | Pointer(slot,ix,cert)` wrapper used
// for stake credentials.
type Referenced[T any] struct {
	IsPointer bool
	Inline    T
	Pointer   StakePointer
}

// DecodeReferenced decodes a Referenced<T>, delegating the inline payload to
// decodeInner.
func DecodeReferenced[T any](data []byte, decodeInner func([]byte) (T, error)) (Referenced[T], error) {
	tag, fields, err := plutus.PeekConstrTag(data)
	if err != nil {
		return Referenced[T]{}, err
	}
	switch tag {
	case 0:
		var w struct {
			cbor.StructAsArray
			V cbor.RawMessage
		}
		if err := plutus.DecodeFields(fields, &w); err != nil {
			return Referenced[T]{}, err
		}
		v, err := decodeInner(w.V)
		if err != nil {
			return Referenced[T]{}, err
		}
		return Referenced[T]{Inline: v}, nil
	case 1:
		var pf stakePointerFields
		if err := plutus.DecodeFields(fields, &pf); err != nil {
			return Referenced[T]{}, err
		}
		return Referenced[T]{IsPointer: true, Pointer: StakePointer(pf)}, nil
	default:
		return Referenced[T]{}, decodeErrf("referenced: unexpected constructor index %d", tag)
	}
}

// EncodeReferenced encodes a Referenced<T>, delegating the inline payload to
// encodeInner.
func EncodeReferenced[T any](r Referenced[T], encodeInner func(T) ([]byte, error)) ([]byte, error) {
	if r.IsPointer {
		return plutus.EncodeConstr(1, cbor.IndefLengthList{
			r.Pointer.SlotNumber, r.Pointer.TransactionIndex, r.Pointer.CertificateIndex,
		})
	}
	inner, err := encodeInner(r.Inline)
	if err != nil {
		return nil, err
	}
	return plutus.EncodeConstr(0, cbor.IndefLengthList{cbor.RawMessage(inner)})
}

func decodeCredential(data []byte) (Credential, error) {
	var c Credential
	err := c.UnmarshalCBOR(data)
	return c, err
}

func encodeCredential(c Credential) ([]byte, error) {
	return c.MarshalCBOR()
}

// PlutusAddress is the on-chain address shape: a payment credential and an
// optional staking credential.
type PlutusAddress struct {
	PaymentCredential Credential
	StakeCredential   plutus.Option[Referenced[Credential]]
}

type plutusAddressFields struct {
	cbor.StructAsArray
	PaymentCredential cbor.RawMessage
	StakeCredential   cbor.RawMessage
}

func (a *PlutusAddress) UnmarshalCBOR(data []byte) error {
	var w plutusAddressFields
	if err := plutus.DecodeConstr(data, 0, &w); err != nil {
		return err
	}
	var pc Credential
	if err := pc.UnmarshalCBOR(w.PaymentCredential); err != nil {
		return err
	}
	sc, err := plutus.DecodeOption(w.StakeCredential, func(d []byte) (Referenced[Credential], error) {
		return DecodeReferenced(d, decodeCredential)
	})
	if err != nil {
		return err
	}
	a.PaymentCredential = pc
	a.StakeCredential = sc
	return nil
}

func (a PlutusAddress) MarshalCBOR() ([]byte, error) {
	pc, err := a.PaymentCredential.MarshalCBOR()
	if err != nil {
		return nil, err
	}
	sc, err := plutus.EncodeOption(a.StakeCredential, func(r Referenced[Credential]) ([]byte, error) {
		return EncodeReferenced(r, encodeCredential)
	})
	if err != nil {
		return nil, err
	}
	return plutus.EncodeConstr(0, cbor.IndefLengthList{
		cbor.RawMessage(pc), cbor.RawMessage(sc),
	})
}

// AikenDatumKind enumerates the three ways an output can carry a datum.
type AikenDatumKind uint8

const (
	AikenNoDatum     AikenDatumKind = 0
	AikenDatumHash   AikenDatumKind = 1
	AikenInlineDatum AikenDatumKind = 2
)

// AikenDatum is the datum-option shape a Destination can request for the
// output it fixes.
type AikenDatum struct {
	Kind AikenDatumKind
	Hash []byte     // AikenDatumHash
	Data plutus.Any // AikenInlineDatum
}

func (d *AikenDatum) UnmarshalCBOR(data []byte) error {
	tag, fields, err := plutus.PeekConstrTag(data)
	if err != nil {
		return err
	}
	switch AikenDatumKind(tag) {
	case AikenNoDatum:
		d.Kind = AikenNoDatum
		return nil
	case AikenDatumHash:
		var w struct {
			cbor.StructAsArray
			Hash []byte
		}
		if err := plutus.DecodeFields(fields, &w); err != nil {
			return err
		}
		d.Kind = AikenDatumHash
		d.Hash = w.Hash
		return nil
	case AikenInlineDatum:
		var w struct {
			cbor.StructAsArray
			Data cbor.RawMessage
		}
		if err := plutus.DecodeFields(fields, &w); err != nil {
			return err
		}
		var any plutus.Any
		if err := any.UnmarshalCBOR(w.Data); err != nil {
			return err
		}
		d.Kind = AikenInlineDatum
		d.Data = any
		return nil
	default:
		return decodeErrf("aiken datum: unexpected constructor index %d", tag)
	}
}

func (d AikenDatum) MarshalCBOR() ([]byte, error) {
	switch d.Kind {
	case AikenNoDatum:
		return plutus.EncodeConstr(uint64(AikenNoDatum), cbor.IndefLengthList{})
	case AikenDatumHash:
		return plutus.EncodeConstr(uint64(AikenDatumHash), cbor.IndefLengthList{d.Hash})
	case AikenInlineDatum:
		inner, err := d.Data.MarshalCBOR()
		if err != nil {
			return nil, err
		}
		return plutus.EncodeConstr(uint64(AikenInlineDatum), cbor.IndefLengthList{cbor.RawMessage(inner)})
	default:
		return nil, decodeErrf("aiken datum: unknown kind %d", d.Kind)
	}
}

// DestinationKind enumerates the two places a scoop output can be sent.
type DestinationKind uint8

const (
	DestinationFixed DestinationKind = 0
	DestinationSelf  DestinationKind = 1
)

// Destination says where an order's settled value should be sent: a fixed
// address with an optional accompanying datum, or back to the order's own
// address ("self").
type Destination struct {
	Kind    DestinationKind
	Address PlutusAddress
	Datum   AikenDatum
}

func (d *Destination) UnmarshalCBOR(data []byte) error {
	tag, fields, err := plutus.PeekConstrTag(data)
	if err != nil {
		return err
	}
	switch DestinationKind(tag) {
	case DestinationFixed:
		var w struct {
			cbor.StructAsArray
			Address cbor.RawMessage
			Datum   cbor.RawMessage
		}
		if err := plutus.DecodeFields(fields, &w); err != nil {
			return err
		}
		var addr PlutusAddress
		if err := addr.UnmarshalCBOR(w.Address); err != nil {
			return err
		}
		var datum AikenDatum
		if err := datum.UnmarshalCBOR(w.Datum); err != nil {
			return err
		}
		d.Kind = DestinationFixed
		d.Address = addr
		d.Datum = datum
		return nil
	case DestinationSelf:
		d.Kind = DestinationSelf
		return nil
	default:
		return decodeErrf("destination: unexpected constructor index %d", tag)
	}
}

func (d Destination) MarshalCBOR() ([]byte, error) {
	switch d.Kind {
	case DestinationFixed:
		addr, err := d.Address.MarshalCBOR()
		if err != nil {
			return nil, err
		}
		datum, err := d.Datum.MarshalCBOR()
		if err != nil {
			return nil, err
		}
		return plutus.EncodeConstr(uint64(DestinationFixed), cbor.IndefLengthList{
			cbor.RawMessage(addr), cbor.RawMessage(datum),
		})
	case DestinationSelf:
		return plutus.EncodeConstr(uint64(DestinationSelf), cbor.IndefLengthList{})
	default:
		return nil, decodeErrf("destination: unknown kind %d", d.Kind)
	}
}
