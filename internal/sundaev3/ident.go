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

// Package sundaev3 implements the on-chain datum and redeemer types of the
// pool/order/settings protocol: the product and sum shapes in the comment
// block of each type name the constructor index each variant carries, since
// that index is the wire contract and must never be reordered.
package sundaev3

import (
	"encoding/hex"

	"github.com/blinklabs-io/gouroboros/cbor"
)

// Ident is an opaque pool identifier, compared and hashed by content.
type Ident []byte

func (i Ident) String() string {
	return hex.EncodeToString(i)
}

// Equal reports whether two idents carry the same bytes.
func (i Ident) Equal(o Ident) bool {
	return hex.EncodeToString(i) == hex.EncodeToString(o)
}

// UnmarshalCBOR decodes an Ident from a Plutus byte string.
func (i *Ident) UnmarshalCBOR(data []byte) error {
	var b []byte
	if _, err := cbor.Decode(data, &b); err != nil {
		return err
	}
	*i = b
	return nil
}

// MarshalCBOR encodes an Ident as a Plutus byte string.
func (i Ident) MarshalCBOR() ([]byte, error) {
	return cbor.Encode([]byte(i))
}
