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

package validation

import (
	"math"
	"math/big"

	"github.com/blinklabs-io/sundaescoop/internal/bigint"
	"github.com/blinklabs-io/sundaescoop/internal/common"
	"github.com/blinklabs-io/sundaescoop/internal/sundaev3"
)

func adaMinFor(scoopFee bigint.Int) bigint.Int {
	return bigint.New(2_000_000).Add(scoopFee)
}

// ValidateOrder runs the full pre-scoop check on a live order against the
// pool it targets: value sufficiency, ident/coin-pair agreement, and (for
// swaps) whether the order's implied price is currently in range. It stops
// at the first failing stage.
func ValidateOrder(datum sundaev3.OrderDatum, orderValue *common.Value, pool sundaev3.PoolDatum, poolValue *common.Value) error {
	if err := ValidateOrderValue(datum, orderValue); err != nil {
		return err
	}
	if err := ValidateOrderForPool(datum, pool); err != nil {
		return err
	}
	if datum.Action.Kind == sundaev3.OrderSwap {
		if err := EstimateWhetherInRange(datum.Action, pool, poolValue); err != nil {
			return err
		}
	}
	return nil
}

// ValidateOrderValue checks that an order UTxO's value can actually satisfy
// the action its datum claims, before the order is ever handed to the scoop
// builder.
func ValidateOrderValue(datum sundaev3.OrderDatum, utxoValue *common.Value) error {
	adaMin := adaMinFor(datum.ScoopFee)
	switch datum.Action.Kind {
	case sundaev3.OrderSwap:
		gives := datum.Action.Gives
		if !gives.Amount.Positive() {
			return errGivesZeroTokens()
		}
		available := utxoValue.Get(gives.Class)
		if gives.Class.IsLovelace() {
			available = available.Sub(adaMin)
		}
		if available.Cmp(gives.Amount) < 0 {
			return errInsufficientTokens(gives.Class, gives.Amount, available)
		}
		return nil

	case sundaev3.OrderDeposit:
		for _, side := range [2]common.SingletonValue{datum.Action.A, datum.Action.B} {
			if !side.Amount.Positive() {
				return errGivesZeroTokens()
			}
			available := utxoValue.Get(side.Class)
			if side.Class.IsLovelace() {
				available = available.Sub(adaMin)
			}
			if available.Cmp(side.Amount) < 0 {
				return errInsufficientTokens(side.Class, side.Amount, available)
			}
		}
		return nil

	case sundaev3.OrderWithdrawal:
		lp := datum.Action.LP
		if !lp.Amount.Positive() {
			return errGivesZeroTokens()
		}
		available := utxoValue.Get(lp.Class)
		if available.Cmp(lp.Amount) < 0 {
			return errInsufficientTokens(lp.Class, lp.Amount, available)
		}
		adaAvailable := utxoValue.Get(common.Lovelace())
		if adaAvailable.Cmp(adaMin) < 0 {
			return errInsufficientTokens(common.Lovelace(), adaMin, adaAvailable)
		}
		return nil

	default: // Strategy, Donation, Record
		return nil
	}
}

func unorderedPairMatches(x, y, pa, pb common.AssetClass) bool {
	return (x.Equal(pa) && y.Equal(pb)) || (x.Equal(pb) && y.Equal(pa))
}

// ValidateOrderForPool checks that an order's claims (ident, coin pair) are
// consistent with the pool it is about to be scooped against.
func ValidateOrderForPool(datum sundaev3.OrderDatum, pool sundaev3.PoolDatum) error {
	if datum.Ident.Valid && !datum.Ident.Value.Equal(pool.Ident) {
		return errIdentMismatch()
	}
	switch datum.Action.Kind {
	case sundaev3.OrderSwap:
		if !unorderedPairMatches(datum.Action.Gives.Class, datum.Action.Takes.Class,
			pool.Assets.Asset0, pool.Assets.Asset1) {
			return errCoinPairMismatch()
		}
	case sundaev3.OrderDeposit:
		if !unorderedPairMatches(datum.Action.A.Class, datum.Action.B.Class,
			pool.Assets.Asset0, pool.Assets.Asset1) {
			return errCoinPairMismatch()
		}
	}
	return nil
}

func toFloat64(i bigint.Int) float64 {
	f, _ := new(big.Float).SetInt(i.Big()).Float64()
	return f
}

// GetPoolPrice returns the pool's current marginal price of asset0 in terms
// of asset1 (reserves net of any ada-side protocol fees), or false if the
// net asset0 reserve is negative or the asset1 reserve is not positive. An
// empty asset0 side yields a price of 0.
func GetPoolPrice(pool sundaev3.PoolDatum, poolValue *common.Value) (float64, bool) {
	a, b := pool.Assets.Asset0, pool.Assets.Asset1
	qa := poolValue.Get(a)
	if a.IsLovelace() {
		qa = qa.Sub(pool.ProtocolFees)
	}
	qb := poolValue.Get(b)
	if qa.Negative() || !qb.Positive() {
		return 0, false
	}
	return toFloat64(qa) / toFloat64(qb), true
}

// EstimateWhetherInRange reports whether a swap order's implied marginal
// price is at least as good for the pool as the pool's current price in the
// swap's direction.
func EstimateWhetherInRange(order sundaev3.Order, pool sundaev3.PoolDatum, poolValue *common.Value) error {
	poolPriceAB, ok := GetPoolPrice(pool, poolValue)
	if !ok {
		return errEmpty()
	}

	atoB := order.Gives.Class.Less(order.Takes.Class)
	directionalPoolPrice := poolPriceAB
	if !atoB {
		if poolPriceAB == 0 {
			directionalPoolPrice = math.MaxFloat64
		} else {
			directionalPoolPrice = 1 / poolPriceAB
		}
	}

	var swapPrice float64
	if order.Takes.Amount.IsZero() {
		swapPrice = math.MaxFloat64
	} else {
		swapPrice = toFloat64(order.Gives.Amount) / toFloat64(order.Takes.Amount)
	}

	if swapPrice > directionalPoolPrice {
		return errOutOfRange(swapPrice, directionalPoolPrice)
	}
	return nil
}
