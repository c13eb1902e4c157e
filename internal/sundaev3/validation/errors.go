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

// Package validation checks an order UTxO's value against what its action
// claims, and an order's claims against the pool it targets, before the
// scoop builder ever touches it.
package validation

import (
	"fmt"

	"github.com/blinklabs-io/sundaescoop/internal/bigint"
	"github.com/blinklabs-io/sundaescoop/internal/common"
)

// ValueError reports that an order UTxO's value is inconsistent with the
// action its datum claims to perform.
type ValueError struct {
	Reason   string
	Asset    common.AssetClass
	Expected bigint.Int
	Actual   bigint.Int
}

func (e *ValueError) Error() string {
	switch e.Reason {
	case "insufficient_tokens":
		return fmt.Sprintf("order value: insufficient %s: expected %s, have %s",
			e.Asset, e.Expected, e.Actual)
	default:
		return "order value: " + e.Reason
	}
}

func errGivesZeroTokens() error {
	return &ValueError{Reason: "gives_zero_tokens"}
}

func errInsufficientTokens(asset common.AssetClass, expected, actual bigint.Int) error {
	return &ValueError{Reason: "insufficient_tokens", Asset: asset, Expected: expected, Actual: actual}
}

// PoolError reports that an order is inconsistent with the pool it targets.
type PoolError struct {
	Reason    string
	SwapPrice float64
	PoolPrice float64
}

func (e *PoolError) Error() string {
	switch e.Reason {
	case "out_of_range":
		return fmt.Sprintf("order vs pool: out of range: swap price %g worse than pool price %g",
			e.SwapPrice, e.PoolPrice)
	default:
		return "order vs pool: " + e.Reason
	}
}

func errIdentMismatch() error   { return &PoolError{Reason: "ident_mismatch"} }
func errCoinPairMismatch() error { return &PoolError{Reason: "coin_pair_mismatch"} }
func errEmpty() error           { return &PoolError{Reason: "empty"} }

func errOutOfRange(swapPrice, poolPrice float64) error {
	return &PoolError{Reason: "out_of_range", SwapPrice: swapPrice, PoolPrice: poolPrice}
}
