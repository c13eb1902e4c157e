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

package builder

import (
	"github.com/blinklabs-io/sundaescoop/internal/bigint"
	"github.com/blinklabs-io/sundaescoop/internal/common"
	"github.com/blinklabs-io/sundaescoop/internal/sundaev3"
)

// ScoopBuilder accumulates the effect of a batch of orders on a single pool
// snapshot, one order at a time, mirroring the on-chain scoop validator's
// own bookkeeping so the off-chain transaction can be assembled to match.
type ScoopBuilder struct {
	Pool         sundaev3.PoolDatum
	Value        *common.Value
	ExpectedSize int
	ActualSize   int
	Settings     sundaev3.SettingsDatum
}

// New returns a builder seeded from a pool snapshot and the batch size the
// scoop transaction is expected to carry.
func New(pool sundaev3.PoolDatum, value *common.Value, expectedSize int, settings sundaev3.SettingsDatum) *ScoopBuilder {
	return &ScoopBuilder{
		Pool:         pool,
		Value:        value,
		ExpectedSize: expectedSize,
		Settings:     settings,
	}
}

func (b *ScoopBuilder) qty(asset common.AssetClass) bigint.Int {
	v := b.Value.Get(asset)
	if asset.IsLovelace() {
		v = v.Sub(b.Pool.ProtocolFees)
	}
	return v
}

// fee is the per-order simple fee: the base fee amortized across the whole
// expected batch, plus the flat per-order simple fee.
func (b *ScoopBuilder) fee() bigint.Int {
	n := bigint.New(int64(b.ExpectedSize))
	amortizedBase := bigint.CeilDiv(b.Settings.BaseFee, n)
	return amortizedBase.Add(b.Settings.SimpleFee)
}

func (b *ScoopBuilder) applyFeeShare() {
	fee := b.fee()
	b.Pool.ProtocolFees = b.Pool.ProtocolFees.Add(fee)
	b.Value.Add(common.Lovelace(), fee)
}

// ApplyOrder applies a single order to the running pool snapshot.
// orderValue is the value carried by the order's own UTxO, used only by
// Deposit to clamp the user's offered amounts to what was actually locked.
// On success the order counts toward ActualSize; on failure the builder is
// left unmodified and the caller must drop the order from the batch.
func (b *ScoopBuilder) ApplyOrder(datum sundaev3.OrderDatum, orderValue *common.Value) error {
	switch datum.Action.Kind {
	case sundaev3.OrderStrategy:
		b.ActualSize++
		return nil
	case sundaev3.OrderSwap:
		if err := b.applySwap(datum.Action); err != nil {
			return err
		}
	case sundaev3.OrderDeposit:
		if err := b.applyDeposit(datum, orderValue); err != nil {
			return err
		}
	case sundaev3.OrderWithdrawal:
		b.applyWithdrawal(datum.Action)
	case sundaev3.OrderDonation:
		b.applyDonation(datum.Action)
	case sundaev3.OrderRecord:
		// fee share only, no value change
	}
	b.applyFeeShare()
	b.ActualSize++
	return nil
}

func (b *ScoopBuilder) applySwap(action sundaev3.Order) error {
	gives := action.Gives

	var poolGives, poolTakes common.AssetClass
	var feePer10k bigint.Int
	switch {
	case gives.Class.Equal(b.Pool.Assets.Asset0):
		poolGives, poolTakes = b.Pool.Assets.Asset0, b.Pool.Assets.Asset1
		feePer10k = b.Pool.BidFeesPer10Thousand
	case gives.Class.Equal(b.Pool.Assets.Asset1):
		poolGives, poolTakes = b.Pool.Assets.Asset1, b.Pool.Assets.Asset0
		feePer10k = b.Pool.AskFeesPer10Thousand
	default:
		return errCoinPairMismatch()
	}

	pg := b.qty(poolGives)
	pt := b.qty(poolTakes)
	tenThousand := bigint.New(10_000)
	diff := tenThousand.Sub(feePer10k)

	takes := pt.Mul(gives.Amount).Mul(diff).Div(pg.Mul(tenThousand).Add(gives.Amount.Mul(diff)))

	floorTakes := func(og bigint.Int) bigint.Int {
		denom := pg.Mul(tenThousand).Add(og.Mul(diff))
		if !denom.Positive() {
			return bigint.New(-1)
		}
		return pt.Mul(diff).Mul(og).Div(denom)
	}
	efficient := func(og bigint.Int) bool {
		if !og.Positive() {
			return false
		}
		return floorTakes(og.Sub(bigint.New(1))).Cmp(floorTakes(og)) < 0
	}

	one := bigint.New(1)
	g0 := bigint.Zero()
	remaining := pt.Sub(takes)
	if remaining.Positive() {
		g0 = takes.Mul(pg).Mul(tenThousand).Div(remaining.Mul(diff))
	}
	candidates := []bigint.Int{g0.Add(one), g0, g0.Sub(one)}

	var chosen bigint.Int
	found := false
	for _, og := range candidates {
		if og.Cmp(gives.Amount) <= 0 && efficient(og) {
			chosen = og
			found = true
			break
		}
	}
	if !found {
		return errNoEfficientOrderGive()
	}

	b.Value.Add(poolGives, chosen)
	b.Value.Subtract(poolTakes, takes)
	return nil
}

func (b *ScoopBuilder) clampToUtxo(side common.SingletonValue, orderValue *common.Value, adaMin bigint.Int) bigint.Int {
	available := orderValue.Get(side.Class)
	if side.Class.IsLovelace() {
		available = available.Sub(adaMin)
	}
	if available.Cmp(side.Amount) < 0 {
		return available
	}
	return side.Amount
}

func (b *ScoopBuilder) applyDeposit(datum sundaev3.OrderDatum, orderValue *common.Value) error {
	action := datum.Action
	adaMin := bigint.New(2_000_000).Add(datum.ScoopFee)

	userA := b.clampToUtxo(action.A, orderValue, adaMin)
	userB := b.clampToUtxo(action.B, orderValue, adaMin)
	if !userA.Positive() {
		return errNegativeDeposit(userA)
	}

	tokenA := b.qty(action.A.Class)
	tokenB := b.qty(action.B.Class)

	bInA := userB.Mul(tokenA).Div(tokenB)

	var actualA, actualB bigint.Int
	if bInA.Cmp(userA) > 0 {
		one := bigint.New(1)
		bKept := tokenB.Mul(userA).Sub(one).Div(tokenA).Add(one)
		actualA = userA
		actualB = bKept
	} else {
		actualA = bInA
		actualB = userB
	}

	newLP := actualA.Mul(b.Pool.CirculatingLP).Div(tokenA)
	if !newLP.Positive() {
		return errNoLiquidity()
	}

	b.Pool.CirculatingLP = b.Pool.CirculatingLP.Add(newLP)
	b.Value.Add(action.A.Class, actualA)
	b.Value.Add(action.B.Class, actualB)
	return nil
}

func (b *ScoopBuilder) applyWithdrawal(action sundaev3.Order) {
	lp := action.LP
	tokenA := b.qty(b.Pool.Assets.Asset0)
	tokenB := b.qty(b.Pool.Assets.Asset1)

	wa := tokenA.Mul(lp.Amount).Div(b.Pool.CirculatingLP)
	wb := tokenB.Mul(lp.Amount).Div(b.Pool.CirculatingLP)

	b.Value.Subtract(b.Pool.Assets.Asset0, wa)
	b.Value.Subtract(b.Pool.Assets.Asset1, wb)
	b.Pool.CirculatingLP = b.Pool.CirculatingLP.Sub(lp.Amount)
}

func (b *ScoopBuilder) applyDonation(action sundaev3.Order) {
	b.Value.Add(action.A.Class, action.A.Amount)
	b.Value.Add(action.B.Class, action.B.Amount)
}

// Validate reports WrongOrderCount if the number of orders actually applied
// doesn't match the batch size the builder was constructed to expect.
func (b *ScoopBuilder) Validate() error {
	if b.ActualSize != b.ExpectedSize {
		return &ScoopError{Expected: b.ExpectedSize, Actual: b.ActualSize}
	}
	return nil
}
