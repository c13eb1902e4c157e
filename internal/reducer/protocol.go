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

// Package reducer turns chain-sync transaction and rollback events into
// per-slot snapshots of pools, orders, and settings: the indexing half of
// the protocol, distinct from the off-chain scoop builder.
package reducer

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/blinklabs-io/sundaescoop/internal/common"
)

// ProtocolConfig names the three script hashes the reducer watches for, and
// the NFT that identifies the live settings UTxO among outputs at the
// settings script address.
type ProtocolConfig struct {
	PoolScriptHash     []byte
	OrderScriptHash    []byte
	SettingsScriptHash []byte
	SettingsNFT        common.AssetClass
}

type protocolConfigFile struct {
	OrderScriptHash    string `json:"order_script_hash"`
	PoolScriptHash     string `json:"pool_script_hash"`
	SettingsScriptHash string `json:"settings_script_hash"`
	SettingsNFT        string `json:"settings_nft"`
}

// LoadProtocolConfig reads the protocol description handed to
// --protocol: script hashes in hex, and the settings NFT as a
// "<policy-hex>.<token-hex>" pair.
func LoadProtocolConfig(path string) (ProtocolConfig, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return ProtocolConfig{}, fmt.Errorf("reducer: reading protocol config: %w", err)
	}
	var f protocolConfigFile
	if err := json.Unmarshal(buf, &f); err != nil {
		return ProtocolConfig{}, fmt.Errorf("reducer: parsing protocol config: %w", err)
	}

	orderHash, err := hex.DecodeString(f.OrderScriptHash)
	if err != nil {
		return ProtocolConfig{}, fmt.Errorf("reducer: order_script_hash: %w", err)
	}
	poolHash, err := hex.DecodeString(f.PoolScriptHash)
	if err != nil {
		return ProtocolConfig{}, fmt.Errorf("reducer: pool_script_hash: %w", err)
	}
	settingsHash, err := hex.DecodeString(f.SettingsScriptHash)
	if err != nil {
		return ProtocolConfig{}, fmt.Errorf("reducer: settings_script_hash: %w", err)
	}

	policyHex, tokenHex, found := strings.Cut(f.SettingsNFT, ".")
	if !found {
		return ProtocolConfig{}, fmt.Errorf("reducer: settings_nft %q is not \"policy.token\"", f.SettingsNFT)
	}
	nft, err := common.NewAssetClass(policyHex, tokenHex)
	if err != nil {
		return ProtocolConfig{}, fmt.Errorf("reducer: settings_nft: %w", err)
	}

	return ProtocolConfig{
		OrderScriptHash:    orderHash,
		PoolScriptHash:     poolHash,
		SettingsScriptHash: settingsHash,
		SettingsNFT:        nft,
	}, nil
}
