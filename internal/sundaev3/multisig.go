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

// MultisigKind enumerates the Multisig constructor indices. The numbering
// is the wire contract (§4.C) and must not change.
type MultisigKind uint8

const (
	MultisigSignature MultisigKind = 0
	MultisigAllOf     MultisigKind = 1
	MultisigAnyOf     MultisigKind = 2
	MultisigAtLeast   MultisigKind = 3
	MultisigBefore    MultisigKind = 4
	MultisigAfter     MultisigKind = 5
	MultisigScript    MultisigKind = 6
)

// Multisig is the recursive authorization predicate tree used for pool/order
// owners and settings admins.
type Multisig struct {
	Kind MultisigKind

	// Signature / Script
	KeyHash []byte

	// AllOf / AnyOf / AtLeast
	Members []Multisig

	// AtLeast
	Required bigint.Int

	// Before / After
	Slot bigint.Int
}

type multisigSignature struct {
	cbor.StructAsArray
	KeyHash []byte
}

type multisigList struct {
	cbor.StructAsArray
	Members []cbor.RawMessage
}

type multisigAtLeast struct {
	cbor.StructAsArray
	Required bigint.Int
	Members  []cbor.RawMessage
}

type multisigSlot struct {
	cbor.StructAsArray
	Slot bigint.Int
}

// UnmarshalCBOR decodes a Multisig from its tagged constructor form.
func (m *Multisig) UnmarshalCBOR(data []byte) error {
	tag, fields, err := plutus.PeekConstrTag(data)
	if err != nil {
		return err
	}
	switch MultisigKind(tag) {
	case MultisigSignature, MultisigScript:
		var w multisigSignature
		if err := plutus.DecodeFields(fields, &w); err != nil {
			return err
		}
		m.Kind = MultisigKind(tag)
		m.KeyHash = w.KeyHash
		return nil
	case MultisigAllOf, MultisigAnyOf:
		var w multisigList
		if err := plutus.DecodeFields(fields, &w); err != nil {
			return err
		}
		members, err := decodeMultisigList(w.Members)
		if err != nil {
			return err
		}
		m.Kind = MultisigKind(tag)
		m.Members = members
		return nil
	case MultisigAtLeast:
		var w multisigAtLeast
		if err := plutus.DecodeFields(fields, &w); err != nil {
			return err
		}
		members, err := decodeMultisigList(w.Members)
		if err != nil {
			return err
		}
		m.Kind = MultisigAtLeast
		m.Required = w.Required
		m.Members = members
		return nil
	case MultisigBefore, MultisigAfter:
		var w multisigSlot
		if err := plutus.DecodeFields(fields, &w); err != nil {
			return err
		}
		m.Kind = MultisigKind(tag)
		m.Slot = w.Slot
		return nil
	default:
		return plutus.DecodeFields(fields, &struct{ cbor.StructAsArray }{})
	}
}

func decodeMultisigList(raw []cbor.RawMessage) ([]Multisig, error) {
	out := make([]Multisig, len(raw))
	for i, r := range raw {
		if err := out[i].UnmarshalCBOR(r); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// MarshalCBOR encodes a Multisig as its tagged constructor form.
func (m Multisig) MarshalCBOR() ([]byte, error) {
	switch m.Kind {
	case MultisigSignature, MultisigScript:
		return plutus.EncodeConstr(uint64(m.Kind), cbor.IndefLengthList{m.KeyHash})
	case MultisigAllOf, MultisigAnyOf:
		members, err := encodeMultisigList(m.Members)
		if err != nil {
			return nil, err
		}
		return plutus.EncodeConstr(uint64(m.Kind), cbor.IndefLengthList{members})
	case MultisigAtLeast:
		members, err := encodeMultisigList(m.Members)
		if err != nil {
			return nil, err
		}
		return plutus.EncodeConstr(uint64(MultisigAtLeast), cbor.IndefLengthList{m.Required, members})
	case MultisigBefore, MultisigAfter:
		return plutus.EncodeConstr(uint64(m.Kind), cbor.IndefLengthList{m.Slot})
	default:
		return nil, decodeErrf("multisig: unknown kind %d", m.Kind)
	}
}

func encodeMultisigList(members []Multisig) ([]cbor.RawMessage, error) {
	out := make([]cbor.RawMessage, len(members))
	for i, mm := range members {
		enc, err := mm.MarshalCBOR()
		if err != nil {
			return nil, err
		}
		out[i] = cbor.RawMessage(enc)
	}
	return out, nil
}

// IsSatisfiedBy reports whether the signer set and current slot satisfy this
// predicate tree. This is a pure evaluation helper used only to answer "is
// this authorized", it enforces nothing on its own; the indexer does not
// reject transactions that fail it, since verifying signatures and script
// witnesses against the chain is out of scope.
func (m Multisig) IsSatisfiedBy(signers map[string]bool, currentSlot uint64) bool {
	switch m.Kind {
	case MultisigSignature:
		return signers[string(m.KeyHash)]
	case MultisigScript:
		// Script-authorized multisig branches require evaluating the
		// referenced script, which is out of scope; treat as unsatisfied.
		return false
	case MultisigAllOf:
		for _, mm := range m.Members {
			if !mm.IsSatisfiedBy(signers, currentSlot) {
				return false
			}
		}
		return true
	case MultisigAnyOf:
		for _, mm := range m.Members {
			if mm.IsSatisfiedBy(signers, currentSlot) {
				return true
			}
		}
		return false
	case MultisigAtLeast:
		n := m.Required.Int64()
		var count int64
		for _, mm := range m.Members {
			if mm.IsSatisfiedBy(signers, currentSlot) {
				count++
				if count >= n {
					return true
				}
			}
		}
		return count >= n
	case MultisigBefore:
		return currentSlot < uint64(m.Slot.Int64())
	case MultisigAfter:
		return currentSlot >= uint64(m.Slot.Int64())
	default:
		return false
	}
}
