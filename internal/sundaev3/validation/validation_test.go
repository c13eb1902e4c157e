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

package validation_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/blinklabs-io/sundaescoop/internal/bigint"
	"github.com/blinklabs-io/sundaescoop/internal/common"
	"github.com/blinklabs-io/sundaescoop/internal/plutus"
	"github.com/blinklabs-io/sundaescoop/internal/sundaev3"
	"github.com/blinklabs-io/sundaescoop/internal/sundaev3/validation"
)

func sberry() common.AssetClass {
	ac, _ := common.NewAssetClass("aaaa", "534245525259")
	return ac
}

func swapDatum(givesAmt int64, scoopFee int64) sundaev3.OrderDatum {
	return sundaev3.OrderDatum{
		ScoopFee: bigint.New(scoopFee),
		Action: sundaev3.Order{
			Kind:  sundaev3.OrderSwap,
			Gives: common.SingletonValue{Class: common.Lovelace(), Amount: bigint.New(givesAmt)},
			Takes: common.SingletonValue{Class: sberry(), Amount: bigint.New(1)},
		},
	}
}

func TestValidateOrderValueSwapOk(t *testing.T) {
	scoopFee := int64(100_000)
	gives := int64(5_000_000)
	v := common.NewValue()
	v.Insert(common.Lovelace(), bigint.New(gives+2_000_000+scoopFee))

	err := validation.ValidateOrderValue(swapDatum(gives, scoopFee), v)
	require.NoError(t, err)
}

func TestValidateOrderValueSwapInsufficientAda(t *testing.T) {
	scoopFee := int64(100_000)
	gives := int64(5_000_000)
	v := common.NewValue()
	v.Insert(common.Lovelace(), bigint.New(gives+2_000_000+scoopFee-1))

	err := validation.ValidateOrderValue(swapDatum(gives, scoopFee), v)
	require.Error(t, err)
	var ve *validation.ValueError
	require.ErrorAs(t, err, &ve)
	require.True(t, ve.Asset.IsLovelace())
}

func TestValidateOrderValueSwapGivesZero(t *testing.T) {
	v := common.NewValue()
	v.Insert(common.Lovelace(), bigint.New(10_000_000))

	err := validation.ValidateOrderValue(swapDatum(0, 0), v)
	require.Error(t, err)
	var ve *validation.ValueError
	require.ErrorAs(t, err, &ve)
}

func TestValidateOrderForPoolIdentMismatch(t *testing.T) {
	pool := sundaev3.PoolDatum{Ident: sundaev3.Ident("pool-a")}
	datum := sundaev3.OrderDatum{
		Ident: plutus.Some(sundaev3.Ident("pool-b")),
		Action: sundaev3.Order{
			Kind:  sundaev3.OrderSwap,
			Gives: common.SingletonValue{Class: common.Lovelace()},
			Takes: common.SingletonValue{Class: sberry()},
		},
	}
	err := validation.ValidateOrderForPool(datum, pool)
	require.Error(t, err)
}

func TestValidateOrderForPoolCoinPairMismatch(t *testing.T) {
	other, _ := common.NewAssetClass("bbbb", "524245525259")
	pool := sundaev3.PoolDatum{
		Ident:  sundaev3.Ident("pool-a"),
		Assets: sundaev3.AssetPair{Asset0: common.Lovelace(), Asset1: sberry()},
	}
	datum := sundaev3.OrderDatum{
		Action: sundaev3.Order{
			Kind:  sundaev3.OrderSwap,
			Gives: common.SingletonValue{Class: common.Lovelace()},
			Takes: common.SingletonValue{Class: other},
		},
	}
	err := validation.ValidateOrderForPool(datum, pool)
	require.Error(t, err)
}

func TestGetPoolPrice(t *testing.T) {
	pool := sundaev3.PoolDatum{
		Assets:       sundaev3.AssetPair{Asset0: common.Lovelace(), Asset1: sberry()},
		ProtocolFees: bigint.New(3_668_000),
	}
	v := common.NewValue()
	v.Insert(common.Lovelace(), bigint.New(33_668_000))
	v.Insert(sberry(), bigint.New(66_733_401))

	price, ok := validation.GetPoolPrice(pool, v)
	require.True(t, ok)
	require.InDelta(t, 30_000_000.0/66_733_401.0, price, 1e-9)
}

func TestGetPoolPriceEmpty(t *testing.T) {
	pool := sundaev3.PoolDatum{Assets: sundaev3.AssetPair{Asset0: common.Lovelace(), Asset1: sberry()}}
	v := common.NewValue()
	_, ok := validation.GetPoolPrice(pool, v)
	require.False(t, ok)
}
