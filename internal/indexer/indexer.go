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

// Package indexer wires a block-sync pipeline to a reducer: it resolves
// where to start chain-sync from (a persisted cursor, or a caller-given
// point), drives decoded transaction and rollback events into the
// reducer, and persists the cursor as sync progresses.
package indexer

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/blinklabs-io/adder/event"
	input_chainsync "github.com/blinklabs-io/adder/input/chainsync"
	output_embedded "github.com/blinklabs-io/adder/output/embedded"
	"github.com/blinklabs-io/adder/pipeline"
	ocommon "github.com/blinklabs-io/gouroboros/protocol/common"

	"github.com/blinklabs-io/sundaescoop/internal/logging"
	"github.com/blinklabs-io/sundaescoop/internal/reducer"
	"github.com/blinklabs-io/sundaescoop/internal/storage"
)

const (
	syncStatusLogInterval = 30 * time.Second
	cursorID              = "sundae-indexer"
)

// Point names a chain-sync intersection: either the origin, or a specific
// slot/block-hash pair -- the wire shape of spec §3's Cursor.point.
type Point struct {
	Origin bool
	Slot   uint64
	Hash   string
}

// EventFunc is a callback invoked for every decoded chain-sync event, in
// registration order.
type EventFunc func(event.Event) error

// Indexer drives a block-sync pipeline into a Reducer and persists
// chain-sync progress through a DAO.
type Indexer struct {
	pipeline *pipeline.Pipeline
	reducer  *reducer.Reducer
	dao      *storage.DAO
	watches  *WatchManager

	network string
	address string

	cursorSlot   uint64
	cursorHash   string
	tipSlot      uint64
	tipHash      string
	tipReached   bool
	syncLogTimer *time.Timer
	eventFuncs   []EventFunc

	done chan error
}

// Done reports a fatal pipeline error, once, after which this Indexer is
// no longer usable: the supervisor owning it should build a fresh one and
// call Start again after its backoff.
func (i *Indexer) Done() <-chan error {
	return i.done
}

// New returns an Indexer that reduces chain-sync events on network
// (connecting to address, if non-empty, or the network's default relay)
// through red, persisting cursor progress through dao.
func New(red *reducer.Reducer, dao *storage.DAO, network, address string) *Indexer {
	return &Indexer{
		reducer: red,
		dao:     dao,
		watches: NewWatchManager(),
		network: network,
		address: address,
		done:    make(chan error, 1),
	}
}

// Watches returns the indexer's transaction/UTxO watch registry, so admin
// tooling can register a one-shot callback for a specific txId or spent
// input without the reducer itself knowing about it.
func (i *Indexer) Watches() *WatchManager {
	return i.watches
}

// AddEventFunc registers an additional callback to run on every decoded
// chain-sync event, alongside the reducer.
func (i *Indexer) AddEventFunc(f EventFunc) {
	i.eventFuncs = append(i.eventFuncs, f)
}

type cursorValue struct {
	Slot uint64 `json:"slot"`
	Hash string `json:"hash"`
}

// resolveStart picks the point to intersect chain-sync at: a persisted
// cursor takes precedence over the caller-given start, matching §6's
// "the collaborator loads the indexer's cursor from the cursor store and
// begins delivery from there."
func (i *Indexer) resolveStart(start Point) (Point, error) {
	cursors, err := i.dao.LoadCursors()
	if err != nil {
		return Point{}, fmt.Errorf("indexer: loading cursor: %w", err)
	}
	raw, ok := cursors[cursorID]
	if !ok {
		return start, nil
	}
	var stored cursorValue
	if err := json.Unmarshal(raw, &stored); err != nil || stored.Slot == 0 {
		return start, nil
	}
	return Point{Slot: stored.Slot, Hash: stored.Hash}, nil
}

// Start rebuilds the reducer's state from storage, resolves the
// chain-sync starting point, and begins the pipeline. It returns once the
// pipeline has started; sync progress continues on background goroutines
// until the process exits.
func (i *Indexer) Start(start Point) error {
	logger := logging.GetLogger()

	if err := i.reducer.Rebuild(); err != nil {
		return fmt.Errorf("indexer: rebuilding state from storage: %w", err)
	}

	point, err := i.resolveStart(start)
	if err != nil {
		return err
	}
	if !point.Origin {
		logger.Info("starting chain-sync", "slot", point.Slot, "hash", point.Hash)
	} else {
		logger.Info("starting chain-sync from origin")
	}

	i.pipeline = pipeline.New()

	inputOpts := []input_chainsync.ChainSyncOptionFunc{
		input_chainsync.WithBulkMode(true),
		input_chainsync.WithAutoReconnect(true),
		input_chainsync.WithLogger(logger),
		input_chainsync.WithStatusUpdateFunc(i.updateStatus),
		input_chainsync.WithNetwork(i.network),
		input_chainsync.WithIncludeCbor(true),
	}
	if i.address != "" {
		inputOpts = append(inputOpts, input_chainsync.WithAddress(i.address))
	}
	if !point.Origin {
		hashBytes, err := hex.DecodeString(point.Hash)
		if err != nil {
			return fmt.Errorf("indexer: decoding start block hash: %w", err)
		}
		inputOpts = append(
			inputOpts,
			input_chainsync.WithIntersectPoints([]ocommon.Point{
				{Hash: hashBytes, Slot: point.Slot},
			}),
		)
	}
	input := input_chainsync.New(inputOpts...)
	i.pipeline.AddInput(input)

	output := output_embedded.New(
		output_embedded.WithCallbackFunc(func(evt event.Event) error {
			i.watches.CheckEvent(evt)
			for _, f := range i.eventFuncs {
				if err := f(evt); err != nil {
					return err
				}
			}
			return nil
		}),
	)
	i.pipeline.AddOutput(output)

	i.AddEventFunc(i.reducer.HandleChainsyncEvent)

	if err := i.pipeline.Start(); err != nil {
		return fmt.Errorf("indexer: starting pipeline: %w", err)
	}

	go func() {
		err, ok := <-i.pipeline.ErrorChan()
		if ok {
			logger.Error("pipeline failed", "error", err)
			i.done <- err
		}
		close(i.done)
	}()

	i.scheduleSyncStatusLog()
	return nil
}

// Stop releases the watch registry's background goroutine. The pipeline
// itself is expected to run for the life of the process; a supervisor
// restart creates a fresh Indexer rather than reusing a stopped one.
func (i *Indexer) Stop() {
	i.watches.Stop()
	if i.syncLogTimer != nil {
		i.syncLogTimer.Stop()
	}
}

func (i *Indexer) scheduleSyncStatusLog() {
	i.syncLogTimer = time.AfterFunc(syncStatusLogInterval, i.syncStatusLog)
}

func (i *Indexer) syncStatusLog() {
	logger := logging.GetLogger()
	if !i.tipReached {
		logger.Info(
			"catch-up sync in progress",
			"slot", i.cursorSlot,
			"hash", i.cursorHash,
			"tipSlot", i.tipSlot,
		)
	}
	i.scheduleSyncStatusLog()
}

func (i *Indexer) updateStatus(status input_chainsync.ChainSyncStatus) {
	logger := logging.GetLogger()
	if !i.tipReached && status.TipReached {
		if i.syncLogTimer != nil {
			i.syncLogTimer.Stop()
		}
		i.tipReached = true
	}
	i.cursorSlot = status.SlotNumber
	i.cursorHash = status.BlockHash
	i.tipSlot = status.TipSlotNumber
	i.tipHash = status.TipBlockHash

	raw, err := json.Marshal(cursorValue{Slot: status.SlotNumber, Hash: status.BlockHash})
	if err != nil {
		logger.Error("failed to marshal cursor", "error", err)
		return
	}
	if err := i.dao.SaveCursor(map[string][]byte{cursorID: raw}); err != nil {
		logger.Error("failed to update cursor", "error", err)
	}
}
