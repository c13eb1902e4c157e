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

package reducer

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"sort"
	"sync"

	"github.com/blinklabs-io/adder/event"
	"github.com/blinklabs-io/gouroboros/cbor"
	"github.com/blinklabs-io/gouroboros/ledger"

	"github.com/blinklabs-io/sundaescoop/internal/bigint"
	"github.com/blinklabs-io/sundaescoop/internal/common"
	"github.com/blinklabs-io/sundaescoop/internal/historical"
	"github.com/blinklabs-io/sundaescoop/internal/logging"
	"github.com/blinklabs-io/sundaescoop/internal/plutus"
	"github.com/blinklabs-io/sundaescoop/internal/storage"
	"github.com/blinklabs-io/sundaescoop/internal/sundaev3"
	"github.com/blinklabs-io/sundaescoop/internal/sundaev3/builder"
	"github.com/blinklabs-io/sundaescoop/internal/sundaev3/validation"
)

// Txo type tags, stored alongside each classified UTxO so Rebuild knows
// which datum type to decode it as.
const (
	txoTypePool     = "pool"
	txoTypeOrder    = "order"
	txoTypeSettings = "settings"
)

// Reducer folds chain-sync transaction and rollback events into per-slot
// snapshots of every live pool, order, and settings UTxO, persisting every
// classified UTxO through a DAO along the way.
type Reducer struct {
	protocol      ProtocolConfig
	dao           *storage.DAO
	rollbackLimit uint64

	mu      sync.Mutex
	history *historical.State[*sundaev3.State]
	changes chan *sundaev3.State
}

// New returns a Reducer watching the given protocol's script hashes,
// persisting classified UTxOs through dao. rollbackLimit bounds both how
// many per-slot snapshots are kept in memory and, once that bound is hit,
// how far behind the chain tip a spent TXO can be permanently deleted.
func New(protocol ProtocolConfig, dao *storage.DAO, rollbackLimit uint64) *Reducer {
	return &Reducer{
		protocol:      protocol,
		dao:           dao,
		rollbackLimit: rollbackLimit,
		history: historical.New(
			sundaev3.NewState,
			func(s *sundaev3.State) *sundaev3.State { return s.Clone() },
		),
		changes: make(chan *sundaev3.State, 1),
	}
}

// Changes delivers the latest snapshot after every processed event. The
// channel holds at most one pending value: a slow consumer only ever sees
// the most recent state, never a backlog of stale ones.
func (r *Reducer) Changes() <-chan *sundaev3.State {
	return r.changes
}

// Latest returns the most recently reduced snapshot, safe to call
// concurrently with event processing. Admin readers use this instead of
// Changes() when they just need a point-in-time sample.
func (r *Reducer) Latest() *sundaev3.State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.history.Latest()
}

func (r *Reducer) publish(s *sundaev3.State) {
	select {
	case <-r.changes:
	default:
	}
	select {
	case r.changes <- s:
	default:
	}
}

// HandleChainsyncEvent is registered with the indexer pipeline via
// AddEventFunc, dispatching on the adder event payload the same way the
// rest of this codebase's event consumers do.
func (r *Reducer) HandleChainsyncEvent(evt event.Event) error {
	switch payload := evt.Payload.(type) {
	case event.TransactionEvent:
		ctx, ok := evt.Context.(event.TransactionContext)
		if !ok {
			return fmt.Errorf("reducer: unexpected event context type %T", evt.Context)
		}
		return r.handleTransaction(ctx, payload)
	case event.RollbackEvent:
		return r.handleRollback(payload)
	}
	return nil
}

// spentOrder remembers a live order removed from state while walking a
// transaction's inputs, keyed by that input's position in the transaction's
// own (unsorted) input list -- the indexing a pool's Scoop redeemer uses to
// name the orders it settles.
type spentOrder struct {
	input ledger.TransactionInput
	order sundaev3.LiveOrder
}

func (r *Reducer) handleTransaction(ctx event.TransactionContext, txEvt event.TransactionEvent) error {
	logger := logging.GetLogger()
	r.mu.Lock()
	defer r.mu.Unlock()

	state, err := r.history.UpdateSlot(ctx.SlotNumber)
	if err != nil {
		return fmt.Errorf("reducer: %w", err)
	}

	tx := txEvt.Transaction
	spendRedeemers, err := sundaev3.SpendRedeemers(tx.Cbor())
	if err != nil {
		logger.Debug("reducer: decoding spend redeemers", "tx", ctx.TransactionHash, "error", err)
		spendRedeemers = nil
	}

	inputs := tx.Inputs()
	rankOf := sortedInputRank(inputs)

	var changes storage.Changes
	scoopsByPoolIdent := make(map[string]sundaev3.PoolRedeemer)
	poolBefore := make(map[string]sundaev3.Pool)
	ordersByInputIdx := make(map[uint64]spentOrder)

	for i, input := range inputs {
		key := sundaev3.InputKey(input.Id().String(), input.Index())

		if pool, ok := state.PoolByKey(key); ok {
			state.RemovePool(pool.Datum.Ident)
			changes.SpentTxos = append(changes.SpentTxos, spentStamp(input, ctx))
			poolBefore[pool.Datum.Ident.String()] = pool

			rank, hasRank := rankOf[i]
			raw, hasRedeemer := spendRedeemers[rank]
			if !hasRank || !hasRedeemer {
				continue
			}
			var pr sundaev3.PoolRedeemer
			if err := pr.UnmarshalCBOR(raw); err != nil {
				logger.Warn("reducer: decoding pool redeemer", "tx", ctx.TransactionHash, "error", err)
				continue
			}
			if pr.Kind == sundaev3.PoolRedeemerScoop {
				scoopsByPoolIdent[pool.Datum.Ident.String()] = pr
			}
			continue
		}

		if order, ok := state.OrderByKey(key); ok {
			state.RemoveOrderByKey(key)
			changes.SpentTxos = append(changes.SpentTxos, spentStamp(input, ctx))
			ordersByInputIdx[uint64(i)] = spentOrder{input: input, order: order}
			continue
		}

		if state.Settings != nil && state.Settings.Key == key {
			state.Settings = nil
			changes.SpentTxos = append(changes.SpentTxos, spentStamp(input, ctx))
		}
	}

	scoopedInputIdx := make(map[uint64]bool)
	for _, pr := range scoopsByPoolIdent {
		for _, entry := range pr.InputOrder {
			scoopedInputIdx[entry.InputIndex] = true
		}
	}
	for idx, spent := range ordersByInputIdx {
		rank, hasRank := rankOf[int(idx)]
		raw, hasRedeemer := spendRedeemers[rank]
		if !hasRank || !hasRedeemer {
			logger.Warn("reducer: order spent without a redeemer", "tx", ctx.TransactionHash, "inputIndex", idx)
			continue
		}
		var or sundaev3.OrderRedeemer
		if err := or.UnmarshalCBOR(raw); err != nil {
			logger.Warn("reducer: decoding order redeemer", "tx", ctx.TransactionHash, "inputIndex", idx, "error", err)
			continue
		}
		isScoop := or.Kind == sundaev3.OrderRedeemerScoop
		inScoopSet := scoopedInputIdx[idx]
		if isScoop != inScoopSet {
			logger.Warn("reducer: order redeemer contradicts scoop membership",
				"tx", ctx.TransactionHash, "inputIndex", idx, "orderKey", spent.order.Key,
				"redeemerIsScoop", isScoop, "inScoopedSet", inScoopSet)
		}
	}

	txIdBytes, err := hex.DecodeString(ctx.TransactionHash)
	if err != nil {
		return fmt.Errorf("reducer: transaction hash %q is not hex: %w", ctx.TransactionHash, err)
	}

	for _, produced := range tx.Produced() {
		output := produced.Output
		addrBytes, err := output.Address().Bytes()
		if err != nil {
			continue
		}
		hash, isScript, ok := sundaev3.PaymentCredential(addrBytes)
		if !ok || !isScript {
			continue
		}
		datum := output.Datum()
		if datum == nil {
			continue
		}
		value := common.FromOutput(output)
		txoIndex := produced.Id.Index()
		key := sundaev3.InputKey(ctx.TransactionHash, txoIndex)

		switch {
		case bytes.Equal(hash, r.protocol.PoolScriptHash):
			var pd sundaev3.PoolDatum
			if err := pd.UnmarshalCBOR(datum.Cbor()); err != nil {
				logger.Debug("reducer: decoding pool datum", "tx", ctx.TransactionHash, "error", err)
				continue
			}
			if value.Get(common.AssetClass{PolicyId: r.protocol.PoolScriptHash, Name: sundaev3.PoolNFTName(pd.Ident)}).IsZero() {
				logger.Debug("reducer: pool output missing identifying NFT", "tx", ctx.TransactionHash, "ident", pd.Ident.String())
				continue
			}
			pool := sundaev3.NewPool(produced.Id, value, pd, ctx.SlotNumber)
			pool.Key = key
			state.PutPool(pool)
			changes.CreatedTxos = append(changes.CreatedTxos, txoRecord(txIdBytes, txoIndex, txoTypePool, ctx.SlotNumber, output.Cbor(), datum.Cbor()))

		case bytes.Equal(hash, r.protocol.OrderScriptHash):
			var od sundaev3.OrderDatum
			if err := od.UnmarshalCBOR(datum.Cbor()); err != nil {
				logger.Debug("reducer: decoding order datum", "tx", ctx.TransactionHash, "error", err)
				continue
			}
			order := sundaev3.NewLiveOrder(produced.Id, value, od, ctx.SlotNumber)
			order.Key = key
			state.AppendOrder(order)
			changes.CreatedTxos = append(changes.CreatedTxos, txoRecord(txIdBytes, txoIndex, txoTypeOrder, ctx.SlotNumber, output.Cbor(), datum.Cbor()))

		case bytes.Equal(hash, r.protocol.SettingsScriptHash):
			if value.Get(r.protocol.SettingsNFT).IsZero() {
				continue
			}
			var sd sundaev3.SettingsDatum
			if err := sd.UnmarshalCBOR(datum.Cbor()); err != nil {
				logger.Debug("reducer: decoding settings datum", "tx", ctx.TransactionHash, "error", err)
				continue
			}
			settings := sundaev3.NewSettings(produced.Id, sd, ctx.SlotNumber)
			settings.Key = key
			state.Settings = &settings
			changes.CreatedTxos = append(changes.CreatedTxos, txoRecord(txIdBytes, txoIndex, txoTypeSettings, ctx.SlotNumber, output.Cbor(), datum.Cbor()))
		}
	}

	for identStr, pr := range scoopsByPoolIdent {
		poolSnapshot, ok := poolBefore[identStr]
		if !ok {
			continue
		}
		observedPool, ok := state.PoolByIdent(poolSnapshot.Datum.Ident)
		if !ok {
			logger.Warn("reducer: scoop redeemer present but no replacement pool output", "tx", ctx.TransactionHash, "ident", identStr)
			continue
		}
		settings := state.Settings
		if settings == nil {
			logger.Warn("reducer: scoop with no live settings UTxO", "tx", ctx.TransactionHash, "ident", identStr)
			continue
		}

		sb := builder.New(poolSnapshot.Datum, poolSnapshot.Value.Clone(), len(pr.InputOrder), settings.Datum)
		for _, entry := range pr.InputOrder {
			spent, ok := ordersByInputIdx[entry.InputIndex]
			if !ok {
				logger.Warn("reducer: scoop redeemer names an input that is not a spent order",
					"tx", ctx.TransactionHash, "inputIndex", entry.InputIndex)
				continue
			}
			if err := validation.ValidateOrder(spent.order.Datum, spent.order.Value, poolSnapshot.Datum, poolSnapshot.Value); err != nil {
				logger.Warn("reducer: order failed validation at scoop time",
					"tx", ctx.TransactionHash, "error", err)
				continue
			}
			if err := sb.ApplyOrder(spent.order.Datum, spent.order.Value); err != nil {
				logger.Warn("reducer: applying order to scoop builder",
					"tx", ctx.TransactionHash, "error", err)
				continue
			}
		}
		if err := sb.Validate(); err != nil {
			logger.Warn("reducer: scoop batch size mismatch",
				"tx", ctx.TransactionHash, "ident", identStr, "error", err)
		}

		if sb.Pool.CirculatingLP.Cmp(observedPool.Datum.CirculatingLP) != 0 {
			logger.Warn("reducer: pool has incorrect liquidity",
				"tx", ctx.TransactionHash, "ident", identStr,
				"expectedLP", sb.Pool.CirculatingLP.String(), "observedLP", observedPool.Datum.CirculatingLP.String())
		}
		if !sb.Value.Equal(observedPool.Value) {
			logger.Warn("reducer: pool has incorrect value",
				"tx", ctx.TransactionHash, "ident", identStr,
				"expectedValue", sb.Value.Entries(), "observedValue", observedPool.Value.Entries())
		}
	}

	if !changes.IsEmpty() {
		if err := r.dao.ApplyTxChanges(changes); err != nil {
			return fmt.Errorf("reducer: persisting transaction changes: %w", err)
		}
	}

	if r.history.PruneHistory(int(r.rollbackLimit)) && ctx.BlockNumber > r.rollbackLimit {
		if err := r.dao.PruneTxos(ctx.BlockNumber - r.rollbackLimit); err != nil {
			return fmt.Errorf("reducer: pruning txos: %w", err)
		}
	}

	r.publish(state)
	return nil
}

func (r *Reducer) handleRollback(evt event.RollbackEvent) error {
	logger := logging.GetLogger()
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.dao.Rollback(evt.SlotNumber); err != nil {
		return fmt.Errorf("reducer: rollback storage: %w", err)
	}
	r.history.RollbackToSlot(evt.SlotNumber)
	logger.Info("reducer: rolled back", "slot", evt.SlotNumber, "blockHash", evt.BlockHash)
	r.publish(r.history.Latest())
	return nil
}

// Rebuild reconstructs the in-memory snapshot from every unspent TXO the
// DAO has persisted, so a restart doesn't need to replay the chain from
// origin. It seeds history at the highest created_slot found.
func (r *Reducer) Rebuild() error {
	logger := logging.GetLogger()
	r.mu.Lock()
	defer r.mu.Unlock()

	recs, err := r.dao.LoadTxos()
	if err != nil {
		return fmt.Errorf("reducer: loading persisted txos: %w", err)
	}
	if len(recs) == 0 {
		return nil
	}

	state := sundaev3.NewState()
	var latestSlot uint64
	for _, rec := range recs {
		if rec.CreatedSlot > latestSlot {
			latestSlot = rec.CreatedSlot
		}
		_, value, err := decodeTxoValue(rec.Txo)
		if err != nil {
			logger.Warn("reducer: rebuilding txo value", "txId", hex.EncodeToString(rec.TxId), "index", rec.TxoIndex, "error", err)
			continue
		}
		key := sundaev3.InputKey(hex.EncodeToString(rec.TxId), rec.TxoIndex)

		switch rec.TxoType {
		case txoTypePool:
			var datum sundaev3.PoolDatum
			if err := datum.UnmarshalCBOR(rec.Datum); err != nil {
				logger.Warn("reducer: decoding persisted pool datum", "error", err)
				continue
			}
			state.PutPool(sundaev3.Pool{Key: key, Value: value, Datum: datum, Slot: rec.CreatedSlot})
		case txoTypeOrder:
			var datum sundaev3.OrderDatum
			if err := datum.UnmarshalCBOR(rec.Datum); err != nil {
				logger.Warn("reducer: decoding persisted order datum", "error", err)
				continue
			}
			state.AppendOrder(sundaev3.LiveOrder{Key: key, Value: value, Datum: datum, Slot: rec.CreatedSlot})
		case txoTypeSettings:
			var datum sundaev3.SettingsDatum
			if err := datum.UnmarshalCBOR(rec.Datum); err != nil {
				logger.Warn("reducer: decoding persisted settings datum", "error", err)
				continue
			}
			settings := sundaev3.Settings{Key: key, Datum: datum, Slot: rec.CreatedSlot}
			state.Settings = &settings
		}
	}

	r.history.RollbackToOrigin()
	seeded, err := r.history.UpdateSlot(latestSlot)
	if err != nil {
		return fmt.Errorf("reducer: seeding rebuilt state: %w", err)
	}
	*seeded = *state
	r.publish(seeded)
	logger.Info("reducer: rebuilt state from storage", "txos", len(recs), "pools", len(state.Pools), "orders", len(state.Orders))
	return nil
}

func spentStamp(input ledger.TransactionInput, ctx event.TransactionContext) storage.SpentStamp {
	return storage.SpentStamp{
		TxId:        input.Id().Bytes(),
		TxoIndex:    input.Index(),
		SpentSlot:   ctx.SlotNumber,
		SpentHeight: ctx.BlockNumber,
	}
}

func txoRecord(txId []byte, txoIndex uint32, txoType string, slot uint64, txoCbor, datumCbor []byte) storage.TxoRecord {
	return storage.TxoRecord{
		TxId:        txId,
		TxoIndex:    txoIndex,
		TxoType:     txoType,
		CreatedSlot: slot,
		Txo:         txoCbor,
		Datum:       datumCbor,
	}
}

// sortedInputRank maps each input's position in the transaction's own
// (unsorted) input list to its rank in the sorted-by-(tx_id, index) order a
// Spend redeemer's index refers to, per the Cardano ledger rule that
// redeemer indices are positions within the sorted input set rather than
// the transaction's as-decoded input order.
func sortedInputRank(inputs []ledger.TransactionInput) map[int]uint64 {
	type entry struct {
		idx   int
		input ledger.TransactionInput
	}
	entries := make([]entry, len(inputs))
	for i, in := range inputs {
		entries[i] = entry{idx: i, input: in}
	}
	sort.Slice(entries, func(a, b int) bool {
		ai, bi := entries[a].input, entries[b].input
		if c := bytes.Compare(ai.Id().Bytes(), bi.Id().Bytes()); c != 0 {
			return c < 0
		}
		return ai.Index() < bi.Index()
	})
	out := make(map[int]uint64, len(entries))
	for rank, e := range entries {
		out[e.idx] = uint64(rank)
	}
	return out
}

// decodeTxoValue recovers the address bytes and multi-asset value locked
// in a persisted transaction output's raw CBOR, handling both the
// post-Alonzo map-keyed output shape ({0: address, 1: value, ...}) and the
// legacy array shape ([address, value, datum_hash]). No typed gouroboros
// accessor is available for a bare output blob read back out of storage
// (only for one freshly decoded off a live ledger.Transaction), so this
// walks the raw bytes with the same primitives txredeemers.go uses.
func decodeTxoValue(raw []byte) (addrBytes []byte, value *common.Value, err error) {
	major, err := plutus.MajorType(raw)
	if err != nil {
		return nil, nil, err
	}
	switch major {
	case 5: // map form
		pairs, err := plutus.SplitMapPairs(raw)
		if err != nil {
			return nil, nil, err
		}
		for _, kv := range pairs {
			var key uint64
			if _, err := cbor.Decode(kv[0], &key); err != nil {
				continue
			}
			switch key {
			case 0:
				if _, err := cbor.Decode(kv[1], &addrBytes); err != nil {
					return nil, nil, err
				}
			case 1:
				value, err = decodeValue(kv[1])
				if err != nil {
					return nil, nil, err
				}
			}
		}
	case 4: // legacy array form
		items, err := plutus.SplitArrayItems(raw)
		if err != nil {
			return nil, nil, err
		}
		if len(items) < 2 {
			return nil, nil, fmt.Errorf("reducer: malformed legacy transaction output")
		}
		if _, err := cbor.Decode(items[0], &addrBytes); err != nil {
			return nil, nil, err
		}
		value, err = decodeValue(items[1])
		if err != nil {
			return nil, nil, err
		}
	default:
		return nil, nil, fmt.Errorf("reducer: unexpected output major type %d", major)
	}
	if value == nil {
		value = common.NewValue()
	}
	return addrBytes, value, nil
}

// decodeValue decodes a Cardano value: either a bare coin integer, or a
// [coin, multiasset] pair where multiasset is a policy-keyed map of
// asset-name-keyed amounts.
func decodeValue(raw []byte) (*common.Value, error) {
	v := common.NewValue()
	major, err := plutus.MajorType(raw)
	if err != nil {
		return nil, err
	}
	switch major {
	case 0:
		var coin uint64
		if _, err := cbor.Decode(raw, &coin); err != nil {
			return nil, err
		}
		v.Insert(common.Lovelace(), bigint.NewFromUint64(coin))
		return v, nil
	case 4:
		items, err := plutus.SplitArrayItems(raw)
		if err != nil {
			return nil, err
		}
		if len(items) < 1 {
			return nil, fmt.Errorf("reducer: malformed value")
		}
		var coin uint64
		if _, err := cbor.Decode(items[0], &coin); err != nil {
			return nil, err
		}
		v.Insert(common.Lovelace(), bigint.NewFromUint64(coin))
		if len(items) > 1 {
			policies, err := plutus.SplitMapPairs(items[1])
			if err != nil {
				return nil, err
			}
			for _, p := range policies {
				var policy []byte
				if _, err := cbor.Decode(p[0], &policy); err != nil {
					return nil, err
				}
				assets, err := plutus.SplitMapPairs(p[1])
				if err != nil {
					return nil, err
				}
				for _, a := range assets {
					var name []byte
					if _, err := cbor.Decode(a[0], &name); err != nil {
						return nil, err
					}
					var amt uint64
					if _, err := cbor.Decode(a[1], &amt); err != nil {
						return nil, err
					}
					v.Insert(common.AssetClass{PolicyId: policy, Name: name}, bigint.NewFromUint64(amt))
				}
			}
		}
		return v, nil
	default:
		return nil, fmt.Errorf("reducer: unexpected value major type %d", major)
	}
}
