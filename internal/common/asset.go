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

// Package common holds the low-level Cardano value types shared by the
// Plutus codec, the datum types, and the scoop builder: asset classes and
// multi-asset values.
package common

import (
	"bytes"
	"encoding/hex"
	"fmt"

	"github.com/blinklabs-io/gouroboros/cbor"
)

// AssetClass identifies a Cardano native asset by policy ID and token
// name. Lovelace/ada is the distinguished empty pair.
type AssetClass struct {
	PolicyId []byte
	Name     []byte
}

// Lovelace returns the AssetClass representing ADA.
func Lovelace() AssetClass {
	return AssetClass{}
}

// IsLovelace reports whether this is the ADA asset class.
func (a AssetClass) IsLovelace() bool {
	return len(a.PolicyId) == 0 && len(a.Name) == 0
}

// Equal reports structural equality.
func (a AssetClass) Equal(o AssetClass) bool {
	return bytes.Equal(a.PolicyId, o.PolicyId) && bytes.Equal(a.Name, o.Name)
}

// Compare orders AssetClass lexicographically on (policy, name); ada
// compares less than every native asset.
func (a AssetClass) Compare(o AssetClass) int {
	if c := bytes.Compare(a.PolicyId, o.PolicyId); c != 0 {
		return c
	}
	return bytes.Compare(a.Name, o.Name)
}

// Less reports whether a sorts before o under Compare.
func (a AssetClass) Less(o AssetClass) bool {
	return a.Compare(o) < 0
}

// Key returns a value usable as a Go map key that uniquely identifies the
// asset class by content.
func (a AssetClass) Key() string {
	return hex.EncodeToString(a.PolicyId) + "." + hex.EncodeToString(a.Name)
}

func (a AssetClass) String() string {
	if a.IsLovelace() {
		return "lovelace"
	}
	return fmt.Sprintf("%s.%s", hex.EncodeToString(a.PolicyId), hex.EncodeToString(a.Name))
}

// PolicyIdHex returns the policy ID as a hex string.
func (a AssetClass) PolicyIdHex() string {
	return hex.EncodeToString(a.PolicyId)
}

// NameHex returns the asset name as a hex string.
func (a AssetClass) NameHex() string {
	return hex.EncodeToString(a.Name)
}

// cborPair is the on-chain shape of an AssetClass: a plain two-element
// array of byte strings, not a Plutus constructor -- Aiken tuples of
// builtin types erase to bare arrays.
type cborPair struct {
	cbor.StructAsArray
	PolicyId []byte
	Name     []byte
}

// UnmarshalCBOR decodes an AssetClass from its on-chain (policy, name)
// tuple representation.
func (a *AssetClass) UnmarshalCBOR(data []byte) error {
	var p cborPair
	if err := cbor.DecodeGeneric(data, &p); err != nil {
		return err
	}
	a.PolicyId = p.PolicyId
	a.Name = p.Name
	return nil
}

// MarshalCBOR encodes an AssetClass as its on-chain (policy, name) tuple.
func (a AssetClass) MarshalCBOR() ([]byte, error) {
	return cbor.Encode(&cborPair{PolicyId: a.PolicyId, Name: a.Name})
}

// NewAssetClass builds an AssetClass from hex-encoded policy/name.
func NewAssetClass(policyHex, nameHex string) (AssetClass, error) {
	policy, err := hex.DecodeString(policyHex)
	if err != nil {
		return AssetClass{}, fmt.Errorf("invalid policy hex: %w", err)
	}
	name, err := hex.DecodeString(nameHex)
	if err != nil {
		return AssetClass{}, fmt.Errorf("invalid name hex: %w", err)
	}
	return AssetClass{PolicyId: policy, Name: name}, nil
}
