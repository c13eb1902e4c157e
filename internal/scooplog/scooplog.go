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

// Package scooplog watches a reducer's snapshot change-feed and appends a
// deduplicated diff -- pool summaries and per-order validity -- to a
// dated JSON-lines file, so an operator can tail a human-legible record of
// what a scooper would see without re-deriving it from the raw chain.
package scooplog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/blinklabs-io/sundaescoop/internal/logging"
	"github.com/blinklabs-io/sundaescoop/internal/sundaev3"
	"github.com/blinklabs-io/sundaescoop/internal/sundaev3/validation"
)

const defaultCoalesce = 250 * time.Millisecond

// Consumer observes a snapshot change-feed, coalesces bursts of updates, and
// appends the diff against the previously reported state to logs/YYYY-MM-DD.jsonl.
type Consumer struct {
	changes   <-chan *sundaev3.State
	dir       string
	coalesce  time.Duration
	stopChan  chan struct{}
	stopOnce  sync.Once
	doneChan  chan struct{}

	lastPools  map[string]poolSummary
	lastOrders map[string]orderStatus
}

// New returns a Consumer reading from changes and writing under dir
// ("logs" in production). A coalesce of zero selects the default 250ms.
func New(changes <-chan *sundaev3.State, dir string, coalesce time.Duration) *Consumer {
	if coalesce <= 0 {
		coalesce = defaultCoalesce
	}
	return &Consumer{
		changes:    changes,
		dir:        dir,
		coalesce:   coalesce,
		stopChan:   make(chan struct{}),
		doneChan:   make(chan struct{}),
		lastPools:  make(map[string]poolSummary),
		lastOrders: make(map[string]orderStatus),
	}
}

// Run blocks, processing changes until Stop is called. Intended to run in
// its own goroutine for the life of the process.
func (c *Consumer) Run() {
	defer close(c.doneChan)
	logger := logging.GetLogger()
	for {
		select {
		case <-c.stopChan:
			return
		case state, ok := <-c.changes:
			if !ok {
				return
			}
			timer := time.NewTimer(c.coalesce)
		drain:
			for {
				select {
				case next, ok := <-c.changes:
					if !ok {
						break drain
					}
					state = next
				case <-timer.C:
					break drain
				case <-c.stopChan:
					timer.Stop()
					return
				}
			}
			timer.Stop()
			if state == nil {
				continue
			}
			if err := c.reportChange(state); err != nil {
				logger.Warn("scooplog: reporting change", "error", err)
			}
		}
	}
}

// Stop signals Run to exit and waits for it to return.
func (c *Consumer) Stop() {
	c.stopOnce.Do(func() { close(c.stopChan) })
	<-c.doneChan
}

type poolSummary struct {
	Assets        [2]string `json:"assets"`
	CirculatingLP string    `json:"circulating_lp"`
	ProtocolFees  string    `json:"protocol_fees"`
}

func summarizePool(p sundaev3.Pool) poolSummary {
	return poolSummary{
		Assets:        [2]string{p.Datum.Assets.Asset0.String(), p.Datum.Assets.Asset1.String()},
		CirculatingLP: p.Datum.CirculatingLP.String(),
		ProtocolFees:  p.Datum.ProtocolFees.String(),
	}
}

func (a poolSummary) equal(b poolSummary) bool {
	return a == b
}

// orderStatus is the validity classification a scooper would compute for a
// live order against the current pool set: either it validates cleanly
// against one or more pools, or it fails for a reason worth recording.
type orderStatus struct {
	Valid         []string          `json:"valid_pools,omitempty"`
	ValueError    string            `json:"value_error,omitempty"`
	NoPools       bool              `json:"no_pools,omitempty"`
	PoolErrors    map[string]string `json:"pool_errors,omitempty"`
	OutOfRangeIds map[string]bool   `json:"-"` // idents whose failure is strictly OutOfRange, for suppression
}

func classifyOrder(o sundaev3.LiveOrder, pools map[string]sundaev3.Pool) orderStatus {
	if err := validation.ValidateOrderValue(o.Datum, o.Value); err != nil {
		return orderStatus{ValueError: err.Error()}
	}
	if len(pools) == 0 {
		return orderStatus{NoPools: true}
	}
	var valid []string
	poolErrors := make(map[string]string)
	outOfRange := make(map[string]bool)
	for identStr, pool := range pools {
		err := validation.ValidateOrderForPool(o.Datum, pool.Datum)
		if err == nil && o.Datum.Action.Kind == sundaev3.OrderSwap {
			err = validation.EstimateWhetherInRange(o.Datum.Action, pool.Datum, pool.Value)
		}
		if err == nil {
			valid = append(valid, identStr)
			continue
		}
		poolErrors[identStr] = err.Error()
		if pe, ok := err.(*validation.PoolError); ok && pe.Reason == "out_of_range" {
			outOfRange[identStr] = true
		}
	}
	if len(valid) > 0 {
		// Map iteration order is random; sort so statuses compare by position.
		sort.Strings(valid)
		return orderStatus{Valid: valid}
	}
	return orderStatus{PoolErrors: poolErrors, OutOfRangeIds: outOfRange}
}

// equalIgnoringOutOfRangePrice reports whether two statuses differ only in
// the swap_price/pool_price fields carried by an OutOfRange pool error --
// a pool's price drifting block to block is not itself news.
func (a orderStatus) equalIgnoringOutOfRangePrice(b orderStatus) bool {
	if len(a.Valid) != len(b.Valid) || a.NoPools != b.NoPools || a.ValueError != b.ValueError {
		return false
	}
	for i := range a.Valid {
		if a.Valid[i] != b.Valid[i] {
			return false
		}
	}
	if len(a.PoolErrors) != len(b.PoolErrors) {
		return false
	}
	for ident, aErr := range a.PoolErrors {
		bErr, ok := b.PoolErrors[ident]
		if !ok {
			return false
		}
		if a.OutOfRangeIds[ident] && b.OutOfRangeIds[ident] {
			continue // both out of range: price drift alone is not a change
		}
		if aErr != bErr {
			return false
		}
	}
	return true
}

type logLine struct {
	Slot   uint64      `json:"slot"`
	Pool   string      `json:"pool,omitempty"`
	Order  string      `json:"order,omitempty"`
	Action logAction   `json:"action"`
}

type logAction struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

func (c *Consumer) reportChange(state *sundaev3.State) error {
	pools := make(map[string]poolSummary, len(state.Pools))
	for identStr, p := range state.Pools {
		pools[identStr] = summarizePool(p)
	}

	orders := make(map[string]orderStatus, len(state.Orders))
	for _, o := range state.Orders {
		orders[o.Key] = classifyOrder(o, state.Pools)
	}

	var lines []logLine
	slot := latestSlot(state)

	for identStr, summary := range pools {
		prev, existed := c.lastPools[identStr]
		switch {
		case !existed:
			lines = append(lines, logLine{Slot: slot, Pool: identStr, Action: logAction{Type: "Added", Data: summary}})
		case !prev.equal(summary):
			lines = append(lines, logLine{Slot: slot, Pool: identStr, Action: logAction{Type: "Changed", Data: summary}})
		}
	}
	for identStr := range c.lastPools {
		if _, ok := pools[identStr]; !ok {
			lines = append(lines, logLine{Slot: slot, Pool: identStr, Action: logAction{Type: "Removed"}})
		}
	}

	for key, status := range orders {
		prev, existed := c.lastOrders[key]
		switch {
		case !existed:
			lines = append(lines, logLine{Slot: slot, Order: key, Action: logAction{Type: "Added", Data: status}})
		case !prev.equalIgnoringOutOfRangePrice(status):
			lines = append(lines, logLine{Slot: slot, Order: key, Action: logAction{Type: "Changed", Data: status}})
		}
	}
	for key := range c.lastOrders {
		if _, ok := orders[key]; !ok {
			lines = append(lines, logLine{Slot: slot, Order: key, Action: logAction{Type: "Removed"}})
		}
	}

	c.lastPools = pools
	c.lastOrders = orders

	if len(lines) == 0 {
		return nil
	}
	return c.appendLines(lines)
}

func latestSlot(state *sundaev3.State) uint64 {
	var slot uint64
	for _, p := range state.Pools {
		if p.Slot > slot {
			slot = p.Slot
		}
	}
	for _, o := range state.Orders {
		if o.Slot > slot {
			slot = o.Slot
		}
	}
	if state.Settings != nil && state.Settings.Slot > slot {
		slot = state.Settings.Slot
	}
	return slot
}

func (c *Consumer) appendLines(lines []logLine) error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("scooplog: creating log directory: %w", err)
	}
	path := filepath.Join(c.dir, time.Now().UTC().Format("2006-01-02")+".jsonl")
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("scooplog: opening %s: %w", path, err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	for _, line := range lines {
		if err := enc.Encode(line); err != nil {
			return fmt.Errorf("scooplog: writing %s: %w", path, err)
		}
	}
	return nil
}
