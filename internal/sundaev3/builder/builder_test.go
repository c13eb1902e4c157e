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

package builder_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/blinklabs-io/sundaescoop/internal/bigint"
	"github.com/blinklabs-io/sundaescoop/internal/common"
	"github.com/blinklabs-io/sundaescoop/internal/sundaev3"
	"github.com/blinklabs-io/sundaescoop/internal/sundaev3/builder"
)

func asset(policyHex, nameHex string) common.AssetClass {
	ac, err := common.NewAssetClass(policyHex, nameHex)
	if err != nil {
		panic(err)
	}
	return ac
}

var (
	sberryAsset = asset("aaaa", "534245525259")
	testAsset   = asset("bbbb", "54455354")
	rberryAsset = asset("cccc", "524245525259")
	tindyAsset  = asset("dddd", "54494e4459")
)

func canonicalSettings() sundaev3.SettingsDatum {
	return sundaev3.SettingsDatum{
		BaseFee:   bigint.New(332_000),
		SimpleFee: bigint.New(168_000),
	}
}

// S1: simple swap, bid side.
func TestScoopBuilderSimpleSwapBidSide(t *testing.T) {
	pool := sundaev3.PoolDatum{
		Ident:                sundaev3.Ident{},
		Assets:               sundaev3.AssetPair{Asset0: common.Lovelace(), Asset1: sberryAsset},
		CirculatingLP:        bigint.New(141_421),
		BidFeesPer10Thousand: bigint.New(30),
		AskFeesPer10Thousand: bigint.New(50),
		ProtocolFees:         bigint.New(3_668_000),
	}
	value := common.NewValue()
	value.Insert(common.Lovelace(), bigint.New(33_668_000))
	value.Insert(sberryAsset, bigint.New(66_733_401))

	b := builder.New(pool, value, 1, canonicalSettings())

	datum := sundaev3.OrderDatum{
		Action: sundaev3.Order{
			Kind:  sundaev3.OrderSwap,
			Gives: common.SingletonValue{Class: common.Lovelace(), Amount: bigint.New(10_000_000)},
			Takes: common.SingletonValue{Class: sberryAsset, Amount: bigint.New(16_146_411)},
		},
	}
	require.NoError(t, b.ApplyOrder(datum, nil))
	require.NoError(t, b.Validate())

	require.Equal(t, int64(44_168_000), value.Get(common.Lovelace()).Int64())
	require.Equal(t, int64(50_087_617), value.Get(sberryAsset).Int64())
}

// S2: donation then swap in a two-order batch.
func TestScoopBuilderDonationThenSwap(t *testing.T) {
	pool := sundaev3.PoolDatum{
		Assets:               sundaev3.AssetPair{Asset0: common.Lovelace(), Asset1: sberryAsset},
		BidFeesPer10Thousand: bigint.New(30),
		AskFeesPer10Thousand: bigint.New(50),
		ProtocolFees:         bigint.New(3_000_000),
	}
	value := common.NewValue()
	value.Insert(common.Lovelace(), bigint.New(23_000_000))
	value.Insert(sberryAsset, bigint.New(1_000))

	b := builder.New(pool, value, 2, canonicalSettings())

	donation := sundaev3.OrderDatum{
		Action: sundaev3.Order{
			Kind: sundaev3.OrderDonation,
			A:    common.SingletonValue{Class: common.Lovelace(), Amount: bigint.New(0)},
			B:    common.SingletonValue{Class: sberryAsset, Amount: bigint.New(99_999_000)},
		},
	}
	require.NoError(t, b.ApplyOrder(donation, nil))

	swap := sundaev3.OrderDatum{
		Action: sundaev3.Order{
			Kind:  sundaev3.OrderSwap,
			Gives: common.SingletonValue{Class: common.Lovelace(), Amount: bigint.New(10_000_000)},
			Takes: common.SingletonValue{Class: sberryAsset, Amount: bigint.New(323)},
		},
	}
	require.NoError(t, b.ApplyOrder(swap, nil))
	require.NoError(t, b.Validate())

	require.Equal(t, int64(33_668_000), value.Get(common.Lovelace()).Int64())
	require.Equal(t, int64(66_733_401), value.Get(sberryAsset).Int64())
}

// S3: swap then withdrawal.
func TestScoopBuilderSwapThenWithdrawal(t *testing.T) {
	pool := sundaev3.PoolDatum{
		Assets:               sundaev3.AssetPair{Asset0: common.Lovelace(), Asset1: testAsset},
		CirculatingLP:        bigint.New(1_000_000),
		BidFeesPer10Thousand: bigint.New(100),
		AskFeesPer10Thousand: bigint.New(100),
		ProtocolFees:         bigint.New(2_004_001),
	}
	value := common.NewValue()
	value.Insert(common.Lovelace(), bigint.New(71_996_522))
	value.Insert(testAsset, bigint.New(14_517))

	b := builder.New(pool, value, 2, canonicalSettings())

	swap := sundaev3.OrderDatum{
		Action: sundaev3.Order{
			Kind:  sundaev3.OrderSwap,
			Gives: common.SingletonValue{Class: testAsset, Amount: bigint.New(10)},
			Takes: common.SingletonValue{Class: common.Lovelace(), Amount: bigint.New(157)},
		},
	}
	require.NoError(t, b.ApplyOrder(swap, nil))

	withdrawal := sundaev3.OrderDatum{
		Action: sundaev3.Order{
			Kind: sundaev3.OrderWithdrawal,
			LP:   common.SingletonValue{Class: asset("eeee", "4c50"), Amount: bigint.New(1_000_000)},
		},
	}
	require.NoError(t, b.ApplyOrder(withdrawal, nil))
	require.NoError(t, b.Validate())

	require.Equal(t, int64(2_672_001), value.Get(common.Lovelace()).Int64())
	require.True(t, value.Get(testAsset).IsZero())
}

// S4: two-asset-token deposit (pool pair excludes ada; fees still in ada).
func TestScoopBuilderDepositTwoAssetPool(t *testing.T) {
	pool := sundaev3.PoolDatum{
		Assets:               sundaev3.AssetPair{Asset0: rberryAsset, Asset1: sberryAsset},
		CirculatingLP:        bigint.New(97_000_000),
		BidFeesPer10Thousand: bigint.New(50),
		AskFeesPer10Thousand: bigint.New(30),
		ProtocolFees:         bigint.New(96_344_040),
	}
	value := common.NewValue()
	value.Insert(common.Lovelace(), bigint.New(96_344_040))
	value.Insert(rberryAsset, bigint.New(152_640_608))
	value.Insert(sberryAsset, bigint.New(66_301_789))

	b := builder.New(pool, value, 1, canonicalSettings())

	orderValue := common.NewValue()
	orderValue.Insert(common.Lovelace(), bigint.New(3_100_000))
	orderValue.Insert(rberryAsset, bigint.New(1_000_000))
	orderValue.Insert(sberryAsset, bigint.New(1_000_000))

	deposit := sundaev3.OrderDatum{
		Action: sundaev3.Order{
			Kind: sundaev3.OrderDeposit,
			A:    common.SingletonValue{Class: rberryAsset, Amount: bigint.New(1_000_000)},
			B:    common.SingletonValue{Class: sberryAsset, Amount: bigint.New(1_000_000)},
		},
	}
	require.NoError(t, b.ApplyOrder(deposit, orderValue))
	require.NoError(t, b.Validate())

	require.Equal(t, int64(96_844_040), value.Get(common.Lovelace()).Int64())
	require.Equal(t, int64(153_640_608), value.Get(rberryAsset).Int64())
	require.Equal(t, int64(66_736_155), value.Get(sberryAsset).Int64())
}

// S5: deposit where the user over-offers one side and gets a refund in the
// form of simply not taking the excess -- the builder only ever records
// what it actually keeps.
func TestScoopBuilderDepositWithRefund(t *testing.T) {
	pool := sundaev3.PoolDatum{
		Assets:        sundaev3.AssetPair{Asset0: common.Lovelace(), Asset1: tindyAsset},
		CirculatingLP: bigint.New(20_000_000),
		BidFeesPer10Thousand: bigint.New(5),
		AskFeesPer10Thousand: bigint.New(5),
	}
	value := common.NewValue()
	value.Insert(common.Lovelace(), bigint.New(20_000_000))
	value.Insert(tindyAsset, bigint.New(20_000_000))

	b := builder.New(pool, value, 1, canonicalSettings())

	orderValue := common.NewValue()
	orderValue.Insert(common.Lovelace(), bigint.New(99_999_998+2_000_000))
	orderValue.Insert(tindyAsset, bigint.New(20_510_929))

	deposit := sundaev3.OrderDatum{
		Action: sundaev3.Order{
			Kind: sundaev3.OrderDeposit,
			A:    common.SingletonValue{Class: common.Lovelace(), Amount: bigint.New(99_999_998)},
			B:    common.SingletonValue{Class: tindyAsset, Amount: bigint.New(20_510_929)},
		},
	}
	require.NoError(t, b.ApplyOrder(deposit, orderValue))
	require.NoError(t, b.Validate())

	require.Equal(t, int64(41_010_929), value.Get(common.Lovelace()).Int64())
	require.Equal(t, int64(40_510_929), value.Get(tindyAsset).Int64())
}

func TestScoopBuilderValidateWrongOrderCount(t *testing.T) {
	pool := sundaev3.PoolDatum{Assets: sundaev3.AssetPair{Asset0: common.Lovelace(), Asset1: sberryAsset}}
	b := builder.New(pool, common.NewValue(), 2, canonicalSettings())

	require.NoError(t, b.ApplyOrder(sundaev3.OrderDatum{Action: sundaev3.Order{Kind: sundaev3.OrderRecord}}, nil))

	err := b.Validate()
	require.Error(t, err)
	var se *builder.ScoopError
	require.ErrorAs(t, err, &se)
	require.Equal(t, 2, se.Expected)
	require.Equal(t, 1, se.Actual)
}
