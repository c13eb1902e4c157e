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

package plutus

import (
	"fmt"

	"github.com/blinklabs-io/gouroboros/cbor"

	"github.com/blinklabs-io/sundaescoop/internal/bigint"
)

// Kind enumerates the five Plutus data shapes.
type Kind uint8

const (
	KindConstr Kind = iota
	KindMap
	KindList
	KindInteger
	KindBytes
)

// Pair is a single Map entry; order is preserved as decoded.
type Pair struct {
	Key   Any
	Value Any
}

// Any is the opaque, verbatim carrier for a parsed Plutus data tree. It
// retains every field of a decoded value -- including ones no concrete
// domain type recognises -- so re-encoding an unmodified Any reproduces
// the exact source bytes, and round-tripping an arbitrary tree preserves
// its semantic shape even when the definite/indefinite length marker is
// normalised.
type Any struct {
	Kind       Kind
	Tag        uint64 // valid when Kind == KindConstr
	Fields     []Any  // valid when Kind == KindConstr or KindList
	Pairs      []Pair // valid when Kind == KindMap
	Int        bigint.Int
	Bytes      []byte
	Indefinite bool

	raw []byte // exact source bytes, set only when decoded verbatim
}

// MarshalCBOR re-emits the exact source bytes when this value came from a
// decode, or reconstructs the wire form structurally otherwise.
func (a Any) MarshalCBOR() ([]byte, error) {
	if a.raw != nil {
		return a.raw, nil
	}
	switch a.Kind {
	case KindInteger:
		return cbor.Encode(a.Int)
	case KindBytes:
		return cbor.Encode(a.Bytes)
	case KindList:
		list := make(cbor.IndefLengthList, len(a.Fields))
		for i, f := range a.Fields {
			enc, err := f.MarshalCBOR()
			if err != nil {
				return nil, err
			}
			list[i] = cbor.RawMessage(enc)
		}
		return cbor.Encode(list)
	case KindConstr:
		list := make(cbor.IndefLengthList, len(a.Fields))
		for i, f := range a.Fields {
			enc, err := f.MarshalCBOR()
			if err != nil {
				return nil, err
			}
			list[i] = cbor.RawMessage(enc)
		}
		return EncodeConstr(a.Tag, list)
	case KindMap:
		return encodeAnyMap(a.Pairs)
	default:
		return nil, fmt.Errorf("plutus: unknown Any kind %d", a.Kind)
	}
}

func encodeAnyMap(pairs []Pair) ([]byte, error) {
	// A Go map has no defined iteration order, so the map is written by
	// hand as an indefinite-length CBOR map (0xbf ... 0xff) whose raw
	// key/value items follow in the given order.
	out := []byte{0xbf}
	for _, p := range pairs {
		k, err := p.Key.MarshalCBOR()
		if err != nil {
			return nil, err
		}
		v, err := p.Value.MarshalCBOR()
		if err != nil {
			return nil, err
		}
		out = append(out, k...)
		out = append(out, v...)
	}
	return append(out, 0xff), nil
}

// UnmarshalCBOR parses any well-formed Plutus/CBOR value into the tree,
// retaining the raw bytes for bit-exact re-encoding.
func (a *Any) UnmarshalCBOR(data []byte) error {
	parsed, err := parseAny(data)
	if err != nil {
		return err
	}
	parsed.raw = append([]byte(nil), data...)
	*a = parsed
	return nil
}

func parseAny(data []byte) (Any, error) {
	if len(data) == 0 {
		return Any{}, decodeErr(0, "empty Plutus data")
	}
	major := data[0] >> 5
	switch major {
	case 0, 1:
		var v bigint.Int
		if _, err := cbor.Decode(data, &v); err != nil {
			return Any{}, decodeErr(0, "integer: %s", err)
		}
		return Any{Kind: KindInteger, Int: v}, nil
	case 2:
		var b []byte
		if _, err := cbor.Decode(data, &b); err != nil {
			return Any{}, decodeErr(0, "bytes: %s", err)
		}
		return Any{Kind: KindBytes, Bytes: b}, nil
	case 4:
		return parseAnyArray(data)
	case 5:
		return parseAnyMap(data)
	case 6:
		// Either a bignum (tags 2/3, decoded as an integer) or a Plutus
		// constructor (tags 121..127, or 102 general form).
		if data[0] == 0xc2 || data[0] == 0xc3 {
			var v bigint.Int
			if _, err := cbor.Decode(data, &v); err != nil {
				return Any{}, decodeErr(0, "bignum: %s", err)
			}
			return Any{Kind: KindInteger, Int: v}, nil
		}
		tag, fields, err := PeekConstrTag(data)
		if err != nil {
			return Any{}, err
		}
		items, indef, err := splitItems(fields)
		if err != nil {
			return Any{}, err
		}
		fieldsAny := make([]Any, len(items))
		for i, item := range items {
			fa, err := parseAny(item)
			if err != nil {
				return Any{}, err
			}
			fieldsAny[i] = fa
		}
		return Any{Kind: KindConstr, Tag: tag, Fields: fieldsAny, Indefinite: indef}, nil
	default:
		return Any{}, decodeErr(0, "unsupported major type %d", major)
	}
}

func parseAnyArray(data []byte) (Any, error) {
	items, indef, err := splitItems(data)
	if err != nil {
		return Any{}, err
	}
	fields := make([]Any, len(items))
	for i, item := range items {
		fa, err := parseAny(item)
		if err != nil {
			return Any{}, err
		}
		fields[i] = fa
	}
	return Any{Kind: KindList, Fields: fields, Indefinite: indef}, nil
}

func parseAnyMap(data []byte) (Any, error) {
	items, indef, err := splitMapItems(data)
	if err != nil {
		return Any{}, err
	}
	pairs := make([]Pair, len(items))
	for i, kv := range items {
		k, err := parseAny(kv[0])
		if err != nil {
			return Any{}, err
		}
		v, err := parseAny(kv[1])
		if err != nil {
			return Any{}, err
		}
		pairs[i] = Pair{Key: k, Value: v}
	}
	return Any{Kind: KindMap, Pairs: pairs, Indefinite: indef}, nil
}

// splitItems walks a CBOR array (definite or indefinite) and returns the
// raw bytes of each element, using cbor.Decode's consumed-length result to
// advance without re-implementing per-item length decoding.
func splitItems(data []byte) ([][]byte, bool, error) {
	hdrLen, count, indefinite, err := cborHeader(data)
	if err != nil {
		return nil, false, err
	}
	rest := data[hdrLen:]
	var items [][]byte
	if indefinite {
		for len(rest) > 0 && rest[0] != 0xFF {
			raw, n, err := decodeOneRaw(rest)
			if err != nil {
				return nil, false, err
			}
			items = append(items, raw)
			rest = rest[n:]
		}
	} else {
		for i := int64(0); i < count; i++ {
			raw, n, err := decodeOneRaw(rest)
			if err != nil {
				return nil, false, err
			}
			items = append(items, raw)
			rest = rest[n:]
		}
	}
	return items, indefinite, nil
}

// splitMapItems is splitItems for maps: each entry yields a [key, value]
// pair of raw byte slices.
func splitMapItems(data []byte) ([][2][]byte, bool, error) {
	hdrLen, count, indefinite, err := cborHeader(data)
	if err != nil {
		return nil, false, err
	}
	rest := data[hdrLen:]
	var items [][2][]byte
	readPair := func() error {
		k, n, err := decodeOneRaw(rest)
		if err != nil {
			return err
		}
		rest = rest[n:]
		v, n2, err := decodeOneRaw(rest)
		if err != nil {
			return err
		}
		rest = rest[n2:]
		items = append(items, [2][]byte{k, v})
		return nil
	}
	if indefinite {
		for len(rest) > 0 && rest[0] != 0xFF {
			if err := readPair(); err != nil {
				return nil, false, err
			}
		}
	} else {
		for i := int64(0); i < count; i++ {
			if err := readPair(); err != nil {
				return nil, false, err
			}
		}
	}
	return items, indefinite, nil
}

func decodeOneRaw(data []byte) ([]byte, int, error) {
	var raw cbor.RawMessage
	n, err := cbor.Decode(data, &raw)
	if err != nil {
		return nil, 0, decodeErr(0, "item: %s", err)
	}
	return append([]byte(nil), raw...), n, nil
}

// SplitArrayItems walks a CBOR array (definite or indefinite) and returns
// the raw bytes of each element. Exported for callers outside this package
// that need to walk a generic CBOR array without a known Go element type --
// e.g. decoding a transaction's witness-set redeemers, which gouroboros/cbor
// has no typed accessor for.
func SplitArrayItems(data []byte) ([][]byte, error) {
	items, _, err := splitItems(data)
	return items, err
}

// SplitMapPairs is SplitArrayItems for maps: each entry yields a raw
// (key, value) byte-slice pair, in wire order.
func SplitMapPairs(data []byte) ([][2][]byte, error) {
	items, _, err := splitMapItems(data)
	return items, err
}

// MajorType returns the CBOR major type (0-7) of the first byte of data.
func MajorType(data []byte) (byte, error) {
	if len(data) == 0 {
		return 0, decodeErr(0, "empty CBOR item")
	}
	return data[0] >> 5, nil
}

// cborHeader parses the initial-byte/argument of a CBOR item, returning
// how many bytes the header occupies, the count it encodes (array/map
// length; meaningless when indefinite), and whether the 0x1f ("indefinite
// length") additional-info value was used.
func cborHeader(data []byte) (headerLen int, count int64, indefinite bool, err error) {
	if len(data) == 0 {
		return 0, 0, false, decodeErr(0, "empty header")
	}
	ai := data[0] & 0x1f
	switch {
	case ai < 24:
		return 1, int64(ai), false, nil
	case ai == 24:
		if len(data) < 2 {
			return 0, 0, false, decodeErr(0, "truncated 1-byte length")
		}
		return 2, int64(data[1]), false, nil
	case ai == 25:
		if len(data) < 3 {
			return 0, 0, false, decodeErr(0, "truncated 2-byte length")
		}
		return 3, int64(data[1])<<8 | int64(data[2]), false, nil
	case ai == 26:
		if len(data) < 5 {
			return 0, 0, false, decodeErr(0, "truncated 4-byte length")
		}
		v := int64(data[1])<<24 | int64(data[2])<<16 | int64(data[3])<<8 | int64(data[4])
		return 5, v, false, nil
	case ai == 27:
		if len(data) < 9 {
			return 0, 0, false, decodeErr(0, "truncated 8-byte length")
		}
		var v int64
		for i := 0; i < 8; i++ {
			v = v<<8 | int64(data[1+i])
		}
		return 9, v, false, nil
	case ai == 31:
		return 1, 0, true, nil
	default:
		return 0, 0, false, decodeErr(0, "reserved additional info %d", ai)
	}
}
