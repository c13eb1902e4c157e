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

// Package storage is the Badger-backed persistence layer: every TXO the
// reducer has ever classified, the raw datum bytes behind it, and the
// chain-sync cursor to resume from.
package storage

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

const (
	txoKeyPrefix     = "txo/"
	txoSlotKeyPrefix = "txo_slot/"
	datumKeyPrefix   = "datum/"
	cursorKeyPrefix  = "cursor/"
)

// TxoRecord is one row of the txos table: a classified output together
// with the slot/height it was spent at, if it has been.
type TxoRecord struct {
	TxId        []byte  `json:"tx_id"`
	TxoIndex    uint32  `json:"txo_index"`
	TxoType     string  `json:"txo_type"`
	CreatedSlot uint64  `json:"created_slot"`
	SpentSlot   *uint64 `json:"spent_slot,omitempty"`
	SpentHeight *uint64 `json:"spent_height,omitempty"`
	Era         uint16  `json:"era"`
	Txo         []byte  `json:"txo"`
	Datum       []byte  `json:"datum,omitempty"`
}

// DatumRecord is one row of the datums table: a datum kept by hash so
// witness-set-only datums (not inline) can still be resolved later.
type DatumRecord struct {
	Hash        []byte `json:"hash"`
	Datum       []byte `json:"datum"`
	CreatedSlot uint64 `json:"created_slot"`
}

// SpentStamp marks a previously-created TXO as spent.
type SpentStamp struct {
	TxId        []byte
	TxoIndex    uint32
	SpentSlot   uint64
	SpentHeight uint64
}

// Changes is the unit of work the reducer hands to ApplyTxChanges: every
// TXO created, spent, or newly-seen-by-hash datum observed in one
// transaction.
type Changes struct {
	CreatedTxos []TxoRecord
	SpentTxos   []SpentStamp
	Datums      []DatumRecord
}

// IsEmpty reports whether this batch of changes has nothing to persist.
func (c Changes) IsEmpty() bool {
	return len(c.CreatedTxos) == 0 && len(c.SpentTxos) == 0 && len(c.Datums) == 0
}

// CursorSaveError reports that one or more cursor IDs could not be saved,
// per the storage error taxonomy.
type CursorSaveError struct {
	Failed []string
}

func (e *CursorSaveError) Error() string {
	return fmt.Sprintf("storage: failed to save cursors: %v", e.Failed)
}

// DAO wraps a Badger database with the txos/datums/cursors schema.
type DAO struct {
	db *badger.DB
}

// Open opens (creating if necessary) a Badger database at dir.
func Open(dir string) (*DAO, error) {
	opts := badger.DefaultOptions(dir).
		WithLogger(NewBadgerLogger()).
		WithLoggingLevel(badger.WARNING)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("storage: open: %w", err)
	}
	return &DAO{db: db}, nil
}

// Close closes the underlying database.
func (d *DAO) Close() error {
	return d.db.Close()
}

func txoKey(txId []byte, txoIndex uint32) []byte {
	return []byte(fmt.Sprintf("%s%s/%d", txoKeyPrefix, hex.EncodeToString(txId), txoIndex))
}

func txoSlotKey(slot uint64, txId []byte, txoIndex uint32) []byte {
	return []byte(fmt.Sprintf("%s%020d/%s/%010d", txoSlotKeyPrefix, slot, hex.EncodeToString(txId), txoIndex))
}

func datumKey(hash []byte) []byte {
	return []byte(datumKeyPrefix + hex.EncodeToString(hash))
}

func cursorKey(id string) []byte {
	return []byte(cursorKeyPrefix + id)
}

func marshalRecord(rec TxoRecord) ([]byte, error) {
	return json.Marshal(rec)
}

func unmarshalRecord(data []byte, rec *TxoRecord) error {
	return json.Unmarshal(data, rec)
}

func marshalDatum(dat DatumRecord) ([]byte, error) {
	return json.Marshal(dat)
}

func unmarshalDatum(data []byte, dat *DatumRecord) error {
	return json.Unmarshal(data, dat)
}

// parseTxoSlotKeySlot extracts the zero-padded slot component out of a
// txo_slot/ index key.
func parseTxoSlotKeySlot(key []byte) (uint64, error) {
	s := string(key)[len(txoSlotKeyPrefix):]
	if len(s) < 20 {
		return 0, fmt.Errorf("storage: malformed slot index key %q", s)
	}
	var slot uint64
	if _, err := fmt.Sscanf(s[:20], "%d", &slot); err != nil {
		return 0, fmt.Errorf("storage: malformed slot index key %q: %w", s, err)
	}
	return slot, nil
}

// ApplyTxChanges commits every created TXO, spent-stamp, and datum upsert
// from one transaction atomically: either all of it lands or none does.
// Inserts are idempotent by (tx_id, txo_index); spent stamps are
// last-write-wins.
func (d *DAO) ApplyTxChanges(changes Changes) error {
	return d.db.Update(func(txn *badger.Txn) error {
		for _, rec := range changes.CreatedTxos {
			data, err := marshalRecord(rec)
			if err != nil {
				return err
			}
			if err := txn.Set(txoKey(rec.TxId, rec.TxoIndex), data); err != nil {
				return err
			}
			if err := txn.Set(txoSlotKey(rec.CreatedSlot, rec.TxId, rec.TxoIndex), txoKey(rec.TxId, rec.TxoIndex)); err != nil {
				return err
			}
		}
		for _, spent := range changes.SpentTxos {
			item, err := txn.Get(txoKey(spent.TxId, spent.TxoIndex))
			if err != nil {
				if err == badger.ErrKeyNotFound {
					continue
				}
				return err
			}
			var rec TxoRecord
			if err := item.Value(func(v []byte) error { return unmarshalRecord(v, &rec) }); err != nil {
				return err
			}
			spentSlot, spentHeight := spent.SpentSlot, spent.SpentHeight
			rec.SpentSlot = &spentSlot
			rec.SpentHeight = &spentHeight
			data, err := marshalRecord(rec)
			if err != nil {
				return err
			}
			if err := txn.Set(txoKey(rec.TxId, rec.TxoIndex), data); err != nil {
				return err
			}
		}
		for _, dat := range changes.Datums {
			data, err := marshalDatum(dat)
			if err != nil {
				return err
			}
			if err := txn.Set(datumKey(dat.Hash), data); err != nil {
				return err
			}
		}
		return nil
	})
}

// Rollback discards everything created after slot, and un-marks as spent
// anything spent after slot.
func (d *DAO) Rollback(slot uint64) error {
	return d.db.Update(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(txoSlotKeyPrefix)
		it := txn.NewIterator(opts)
		var toDelete [][]byte
		var primaryKeys [][]byte
		for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
			item := it.Item()
			slotOfKey, err := parseTxoSlotKeySlot(item.Key())
			if err != nil {
				it.Close()
				return err
			}
			if slotOfKey <= slot {
				continue
			}
			keyCopy := append([]byte{}, item.Key()...)
			var primary []byte
			if err := item.Value(func(v []byte) error {
				primary = append([]byte{}, v...)
				return nil
			}); err != nil {
				it.Close()
				return err
			}
			toDelete = append(toDelete, keyCopy)
			primaryKeys = append(primaryKeys, primary)
		}
		it.Close()
		for i, k := range toDelete {
			if err := txn.Delete(k); err != nil {
				return err
			}
			if err := txn.Delete(primaryKeys[i]); err != nil {
				return err
			}
		}

		// Un-spend anything spent after slot.
		txoOpts := badger.DefaultIteratorOptions
		txoOpts.Prefix = []byte(txoKeyPrefix)
		txoIt := txn.NewIterator(txoOpts)
		var toUnspend []TxoRecord
		for txoIt.Seek(txoOpts.Prefix); txoIt.ValidForPrefix(txoOpts.Prefix); txoIt.Next() {
			item := txoIt.Item()
			var rec TxoRecord
			if err := item.Value(func(v []byte) error { return unmarshalRecord(v, &rec) }); err != nil {
				txoIt.Close()
				return err
			}
			if rec.SpentSlot != nil && *rec.SpentSlot > slot {
				rec.SpentSlot = nil
				rec.SpentHeight = nil
				toUnspend = append(toUnspend, rec)
			}
		}
		txoIt.Close()
		for _, rec := range toUnspend {
			data, err := marshalRecord(rec)
			if err != nil {
				return err
			}
			if err := txn.Set(txoKey(rec.TxId, rec.TxoIndex), data); err != nil {
				return err
			}
		}

		// Drop datums created after slot.
		datumOpts := badger.DefaultIteratorOptions
		datumOpts.Prefix = []byte(datumKeyPrefix)
		datumIt := txn.NewIterator(datumOpts)
		var datumsToDelete [][]byte
		for datumIt.Seek(datumOpts.Prefix); datumIt.ValidForPrefix(datumOpts.Prefix); datumIt.Next() {
			item := datumIt.Item()
			var dat DatumRecord
			if err := item.Value(func(v []byte) error { return unmarshalDatum(v, &dat) }); err != nil {
				datumIt.Close()
				return err
			}
			if dat.CreatedSlot > slot {
				datumsToDelete = append(datumsToDelete, append([]byte{}, item.Key()...))
			}
		}
		datumIt.Close()
		for _, k := range datumsToDelete {
			if err := txn.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}

// LoadTxos returns every unspent TXO, ordered by (created_slot, tx_id,
// txo_index) -- the order the slot index key already sorts by.
func (d *DAO) LoadTxos() ([]TxoRecord, error) {
	var out []TxoRecord
	err := d.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(txoSlotKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
			var primary []byte
			if err := it.Item().Value(func(v []byte) error {
				primary = append([]byte{}, v...)
				return nil
			}); err != nil {
				return err
			}
			item, err := txn.Get(primary)
			if err != nil {
				if err == badger.ErrKeyNotFound {
					continue
				}
				return err
			}
			var rec TxoRecord
			if err := item.Value(func(v []byte) error { return unmarshalRecord(v, &rec) }); err != nil {
				return err
			}
			if rec.SpentSlot != nil {
				continue
			}
			out = append(out, rec)
		}
		return nil
	})
	return out, err
}

// PruneTxos permanently deletes TXOs spent below minHeight.
func (d *DAO) PruneTxos(minHeight uint64) error {
	return d.db.Update(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(txoKeyPrefix)
		it := txn.NewIterator(opts)
		var toDelete []TxoRecord
		for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
			var rec TxoRecord
			if err := it.Item().Value(func(v []byte) error { return unmarshalRecord(v, &rec) }); err != nil {
				it.Close()
				return err
			}
			if rec.SpentHeight != nil && *rec.SpentHeight < minHeight {
				toDelete = append(toDelete, rec)
			}
		}
		it.Close()
		for _, rec := range toDelete {
			if err := txn.Delete(txoKey(rec.TxId, rec.TxoIndex)); err != nil {
				return err
			}
			if err := txn.Delete(txoSlotKey(rec.CreatedSlot, rec.TxId, rec.TxoIndex)); err != nil {
				return err
			}
		}
		return nil
	})
}

// SaveCursor overwrites the whole cursor mapping inside one transaction.
func (d *DAO) SaveCursor(cursors map[string][]byte) error {
	var failed []string
	err := d.db.Update(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(cursorKeyPrefix)
		it := txn.NewIterator(opts)
		var existing [][]byte
		for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
			existing = append(existing, append([]byte{}, it.Item().Key()...))
		}
		it.Close()
		for _, k := range existing {
			if err := txn.Delete(k); err != nil {
				return err
			}
		}
		for id, bytesVal := range cursors {
			if err := txn.Set(cursorKey(id), bytesVal); err != nil {
				failed = append(failed, id)
				return err
			}
		}
		return nil
	})
	if err != nil {
		return &CursorSaveError{Failed: failed}
	}
	return nil
}

// LoadCursors returns the full cursor mapping.
func (d *DAO) LoadCursors() (map[string][]byte, error) {
	out := make(map[string][]byte)
	err := d.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(cursorKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
			item := it.Item()
			id := string(item.Key())[len(cursorKeyPrefix):]
			if err := item.Value(func(v []byte) error {
				out[id] = append([]byte{}, v...)
				return nil
			}); err != nil {
				return err
			}
		}
		return nil
	})
	return out, err
}

