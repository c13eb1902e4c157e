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

package sundaev3

import (
	"fmt"

	"github.com/blinklabs-io/gouroboros/cbor"

	"github.com/blinklabs-io/sundaescoop/internal/plutus"
)

// RedeemerTag is a Plutus redeemer's purpose, per the Conway-era witness set
// schema.
type RedeemerTag uint64

const (
	RedeemerTagSpend RedeemerTag = 0
	RedeemerTagMint  RedeemerTag = 1
	RedeemerTagCert  RedeemerTag = 2
	RedeemerTagVote  RedeemerTag = 3
)

// SpendRedeemers recovers the Plutus data attached to every Spend-purpose
// redeemer in a transaction, keyed by the index of the input it spends.
//
// No typed gouroboros accessor surfaces redeemer payload bytes, only
// whether a purpose/index pair is present, so this walks the transaction's
// raw CBOR directly: a transaction is the 4-tuple
// [body, witness_set, is_valid, auxiliary_data], and the witness set is a
// map whose key 5 holds the redeemers, themselves either the pre-Conway
// array-of-4-tuples form ([[tag, index, data, ex_units], ...]) or the
// Conway map form ({[tag, index]: [data, ex_units]}).
func SpendRedeemers(txCbor []byte) (map[uint64][]byte, error) {
	top, err := plutus.SplitArrayItems(txCbor)
	if err != nil {
		return nil, fmt.Errorf("sundaev3: decode transaction: %w", err)
	}
	if len(top) < 2 {
		return nil, fmt.Errorf("sundaev3: transaction has %d top-level fields, want >= 2", len(top))
	}
	witnessSet := top[1]

	major, err := plutus.MajorType(witnessSet)
	if err != nil {
		return nil, err
	}
	if major != 5 {
		return nil, fmt.Errorf("sundaev3: witness set is not a map (major type %d)", major)
	}
	pairs, err := plutus.SplitMapPairs(witnessSet)
	if err != nil {
		return nil, fmt.Errorf("sundaev3: decode witness set: %w", err)
	}

	var redeemersRaw []byte
	for _, kv := range pairs {
		var key uint64
		if _, err := cbor.Decode(kv[0], &key); err != nil {
			continue
		}
		if key == 5 {
			redeemersRaw = kv[1]
			break
		}
	}
	if redeemersRaw == nil {
		return nil, nil
	}

	result := make(map[uint64][]byte)
	major, err = plutus.MajorType(redeemersRaw)
	if err != nil {
		return nil, err
	}
	switch major {
	case 4: // pre-Conway: array of [tag, index, data, ex_units]
		entries, err := plutus.SplitArrayItems(redeemersRaw)
		if err != nil {
			return nil, err
		}
		for _, entry := range entries {
			fields, err := plutus.SplitArrayItems(entry)
			if err != nil || len(fields) < 3 {
				continue
			}
			tag, index, ok := decodeTagIndex(fields[0], fields[1])
			if !ok || tag != RedeemerTagSpend {
				continue
			}
			result[index] = fields[2]
		}
	case 5: // Conway: map of [tag, index] -> [data, ex_units]
		entries, err := plutus.SplitMapPairs(redeemersRaw)
		if err != nil {
			return nil, err
		}
		for _, kv := range entries {
			keyFields, err := plutus.SplitArrayItems(kv[0])
			if err != nil || len(keyFields) < 2 {
				continue
			}
			tag, index, ok := decodeTagIndex(keyFields[0], keyFields[1])
			if !ok || tag != RedeemerTagSpend {
				continue
			}
			valFields, err := plutus.SplitArrayItems(kv[1])
			if err != nil || len(valFields) < 1 {
				continue
			}
			result[index] = valFields[0]
		}
	default:
		return nil, fmt.Errorf("sundaev3: redeemers field is neither array nor map (major type %d)", major)
	}
	return result, nil
}

func decodeTagIndex(tagRaw, indexRaw []byte) (RedeemerTag, uint64, bool) {
	var tag, index uint64
	if _, err := cbor.Decode(tagRaw, &tag); err != nil {
		return 0, 0, false
	}
	if _, err := cbor.Decode(indexRaw, &index); err != nil {
		return 0, 0, false
	}
	return RedeemerTag(tag), index, true
}
