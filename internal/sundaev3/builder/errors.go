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

// Package builder implements the scoop transaction's per-order arithmetic:
// swap, deposit, withdrawal, donation and record, applied one order at a
// time against a running pool snapshot.
package builder

import (
	"fmt"

	"github.com/blinklabs-io/sundaescoop/internal/bigint"
)

// ApplyOrderError reports that a single order could not be applied to the
// pool and must be dropped from the batch without mutating pool state.
type ApplyOrderError struct {
	Reason string
	N      bigint.Int
}

func (e *ApplyOrderError) Error() string {
	switch e.Reason {
	case "negative_deposit":
		return fmt.Sprintf("apply order: negative deposit: %s", e.N)
	default:
		return "apply order: " + e.Reason
	}
}

func errNoEfficientOrderGive() error { return &ApplyOrderError{Reason: "no_efficient_order_give"} }
func errNegativeDeposit(n bigint.Int) error {
	return &ApplyOrderError{Reason: "negative_deposit", N: n}
}
func errNoLiquidity() error      { return &ApplyOrderError{Reason: "no_liquidity"} }
func errCoinPairMismatch() error { return &ApplyOrderError{Reason: "coin_pair_mismatch"} }

// ScoopError reports a batch-level failure after every order has been
// applied or dropped.
type ScoopError struct {
	Expected int
	Actual   int
}

func (e *ScoopError) Error() string {
	return fmt.Sprintf("scoop: wrong order count: expected %d, applied %d", e.Expected, e.Actual)
}
