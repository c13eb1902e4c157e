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

// Package plutus implements the generic Plutus-datum CBOR codec: decoding
// and encoding the recursive tagged sum-of-products wire format (CBOR tags
// 121..127 for constructor indices 0..6, tag 102 for the general form
// covering indices 7 and up) to and from typed Go values, on top of
// gouroboros/cbor's constructor and struct-as-array primitives.
//
// Every domain datum type (pool, order, settings, multisig, ...) is built
// from the helpers here rather than hand-rolling CBOR walking per type:
// DecodeConstr/EncodeConstr derive product types from plain structs,
// PeekConstrTag drives sum-type dispatch, and DecodeOption/EncodeOption
// derive Option<T>.
package plutus

import (
	"github.com/blinklabs-io/gouroboros/cbor"
)

// DecodeConstr decodes data as a Plutus constructor, verifies its tag
// equals wantTag, and decodes the field array positionally into out. out
// must be a pointer to a struct embedding cbor.StructAsArray whose
// exported fields, in declaration order, correspond to the constructor's
// fields -- this is the product-type derivation the spec calls for.
func DecodeConstr(data []byte, wantTag uint64, out any) error {
	var c cbor.Constructor
	if _, err := cbor.Decode(data, &c); err != nil {
		return decodeErr(0, "not a Plutus constructor: %s", err)
	}
	if uint64(c.Constructor()) != wantTag {
		return decodeErr(
			0,
			"expected constructor index %d, got %d",
			wantTag,
			c.Constructor(),
		)
	}
	if err := cbor.DecodeGeneric(c.FieldsCbor(), out); err != nil {
		return decodeErr(0, "decoding fields of constructor %d: %s", wantTag, err)
	}
	return nil
}

// EncodeConstr encodes fields (a struct embedding cbor.StructAsArray, or a
// cbor.IndefLengthList of values) as a Plutus constructor with the given
// tag, choosing the 121..127 short form for tag < 7 and the general
// [index, fields] form (tag 102) above that, exactly as gouroboros/cbor's
// Constructor type already does on encode.
func EncodeConstr(tag uint64, fields any) ([]byte, error) {
	c := cbor.NewConstructor(int(tag), fields)
	return cbor.Encode(&c)
}

// PeekConstrTag decodes just the constructor envelope, returning the tag
// and the raw (still-encoded) field array, for sum-type dispatch: callers
// switch on tag and decode FieldsCbor into the matching variant type.
func PeekConstrTag(data []byte) (tag uint64, fieldsCbor []byte, err error) {
	var c cbor.Constructor
	if _, decErr := cbor.Decode(data, &c); decErr != nil {
		return 0, nil, decodeErr(0, "not a Plutus constructor: %s", decErr)
	}
	return uint64(c.Constructor()), c.FieldsCbor(), nil
}

// DecodeFields decodes a raw field-array (as returned by PeekConstrTag)
// positionally into out, same convention as DecodeConstr.
func DecodeFields(fieldsCbor []byte, out any) error {
	if err := cbor.DecodeGeneric(fieldsCbor, out); err != nil {
		return decodeErr(0, "decoding constructor fields: %s", err)
	}
	return nil
}
