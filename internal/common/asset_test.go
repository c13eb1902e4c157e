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

package common_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/blinklabs-io/sundaescoop/internal/common"
)

func TestAssetClassIsLovelace(t *testing.T) {
	require.True(t, common.Lovelace().IsLovelace())
	require.True(t, common.AssetClass{}.IsLovelace())
	require.False(t, common.AssetClass{PolicyId: []byte{0x01}}.IsLovelace())
}

func TestAssetClassOrdering(t *testing.T) {
	// Matches the original reference ordering fixture: ada sorts first,
	// then lexicographically by (policy, name).
	rberry := common.AssetClass{PolicyId: []byte{0x66, 0x67}, Name: []byte{0x66, 0x66}}
	sberry := common.AssetClass{PolicyId: []byte{0x66, 0x67}, Name: []byte{0x66, 0x67}}
	foobar := common.AssetClass{PolicyId: []byte{0x99, 0x99}, Name: []byte{0x01, 0x01}}

	require.True(t, common.Lovelace().Less(rberry))
	require.True(t, rberry.Less(sberry))
	require.True(t, sberry.Less(foobar))
}

func TestNewAssetClass(t *testing.T) {
	asset, err := common.NewAssetClass("abcdef0123456789", "1234")
	require.NoError(t, err)
	require.Equal(t, "abcdef0123456789", asset.PolicyIdHex())
	require.Equal(t, "1234", asset.NameHex())

	_, err = common.NewAssetClass("not-hex", "1234")
	require.Error(t, err)

	lovelace, err := common.NewAssetClass("", "")
	require.NoError(t, err)
	require.True(t, lovelace.IsLovelace())
}

func TestAssetClassCBORRoundTrip(t *testing.T) {
	asset := common.AssetClass{PolicyId: []byte{0xde, 0xad}, Name: []byte("TOKEN")}
	encoded, err := asset.MarshalCBOR()
	require.NoError(t, err)

	var decoded common.AssetClass
	require.NoError(t, decoded.UnmarshalCBOR(encoded))
	require.True(t, asset.Equal(decoded))
}
