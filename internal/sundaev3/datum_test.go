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
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/blinklabs-io/sundaescoop/internal/bigint"
	"github.com/blinklabs-io/sundaescoop/internal/common"
)

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	return b
}

func TestDecodeSingletonValue(t *testing.T) {
	data := mustHex(t, "9f4100410102ff")
	var sv common.SingletonValue
	require.NoError(t, sv.UnmarshalCBOR(data))
	require.Equal(t, int64(2), sv.Amount.Int64())
	require.Equal(t, []byte{0x00}, sv.Class.PolicyId)
	require.Equal(t, []byte{0x01}, sv.Class.Name)
}

func TestDecodeSwapOrder(t *testing.T) {
	data := mustHex(t, "d87a9f9f4100410102ff9f4103410405ffff")
	var o Order
	require.NoError(t, o.UnmarshalCBOR(data))
	require.Equal(t, OrderSwap, o.Kind)
	require.Equal(t, int64(2), o.Gives.Amount.Int64())
	require.Equal(t, []byte{0x00}, o.Gives.Class.PolicyId)
	require.Equal(t, int64(5), o.Takes.Amount.Int64())
	require.Equal(t, []byte{0x03}, o.Takes.Class.PolicyId)
}

func TestDecodeOrderDatum(t *testing.T) {
	data := mustHex(t, "d8799fd8799f581c99999999999999999999999999999999999999999999999999999999ffd8799f581c88888888888888888888888888888888888888888888888888888888ff0ad8799fd8799fd8799f581c77777777777777777777777777777777777777777777777777777777ffd87a80ffd87980ffd87a9f9f4100410102ff9f4103410405ffffd87980ff")
	var od OrderDatum
	require.NoError(t, od.UnmarshalCBOR(data))

	require.True(t, od.Ident.Valid)
	require.Equal(t, "99999999999999999999999999999999999999999999999999999999", od.Ident.Value.String())
	require.Equal(t, MultisigSignature, od.Owner.Kind)
	require.Equal(t, "88888888888888888888888888888888888888888888888888888888", hex.EncodeToString(od.Owner.KeyHash))
	require.Equal(t, int64(10), od.ScoopFee.Int64())

	require.Equal(t, DestinationFixed, od.Destination.Kind)
	require.Equal(t, CredentialVerificationKey, od.Destination.Address.PaymentCredential.Kind)
	require.Equal(t, "77777777777777777777777777777777777777777777777777777777", hex.EncodeToString(od.Destination.Address.PaymentCredential.Hash))
	require.False(t, od.Destination.Address.StakeCredential.Valid)
	require.Equal(t, AikenNoDatum, od.Destination.Datum.Kind)

	require.Equal(t, OrderSwap, od.Action.Kind)
	require.Equal(t, int64(2), od.Action.Gives.Amount.Int64())
	require.Equal(t, int64(5), od.Action.Takes.Amount.Int64())
}

func TestDecodePoolDatum(t *testing.T) {
	data := mustHex(t, "d8799f581cba228444515fbefd2c8725338e49589f206c7f18a33e002b157aac3c9f9f4040ff9f581c99b071ce8580d6a3a11b4902145adb8bfd0d2a03935af8cf66403e1546534245525259ffff1a01c9c3801901f41901f4d8799fd87f9f581ce8dc0595c8d3a7e2c0323a11f5519c32d3b3fb7a994519e38b698b5dffff001a003d0900ff")
	var pd PoolDatum
	require.NoError(t, pd.UnmarshalCBOR(data))

	require.Equal(t, "ba228444515fbefd2c8725338e49589f206c7f18a33e002b157aac3c", pd.Ident.String())
	require.True(t, pd.Assets.Asset0.IsLovelace())
	require.False(t, pd.Assets.Asset1.IsLovelace())
	require.Equal(t, int64(30000000), pd.CirculatingLP.Int64())
	require.Equal(t, int64(500), pd.BidFeesPer10Thousand.Int64())
	require.Equal(t, int64(500), pd.AskFeesPer10Thousand.Int64())
	require.True(t, pd.FeeManager.Valid)
	require.Equal(t, MultisigScript, pd.FeeManager.Value.Kind)
	require.Equal(t, int64(0), pd.MarketOpen.Int64())
	require.Equal(t, int64(4000000), pd.ProtocolFees.Int64())
}

func TestMultisigSatisfiedBy(t *testing.T) {
	sig := Multisig{Kind: MultisigSignature, KeyHash: []byte("alice")}
	require.True(t, sig.IsSatisfiedBy(map[string]bool{"alice": true}, 0))
	require.False(t, sig.IsSatisfiedBy(map[string]bool{"bob": true}, 0))

	allOf := Multisig{Kind: MultisigAllOf, Members: []Multisig{
		{Kind: MultisigSignature, KeyHash: []byte("alice")},
		{Kind: MultisigSignature, KeyHash: []byte("bob")},
	}}
	require.True(t, allOf.IsSatisfiedBy(map[string]bool{"alice": true, "bob": true}, 0))
	require.False(t, allOf.IsSatisfiedBy(map[string]bool{"alice": true}, 0))

	atLeast := Multisig{Kind: MultisigAtLeast, Required: bigint.New(1), Members: []Multisig{
		{Kind: MultisigSignature, KeyHash: []byte("a")},
		{Kind: MultisigSignature, KeyHash: []byte("b")},
		{Kind: MultisigSignature, KeyHash: []byte("c")},
	}}
	require.True(t, atLeast.IsSatisfiedBy(map[string]bool{"a": true}, 0))
	require.False(t, atLeast.IsSatisfiedBy(map[string]bool{}, 0))
}
