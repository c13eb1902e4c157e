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

import "github.com/blinklabs-io/gouroboros/cbor"

// Option is the generic derivation of Plutus's `Option<T>`: Constr(0,[x])
// for Some, Constr(1,[]) for None.
type Option[T any] struct {
	Valid bool
	Value T
}

// Some wraps a present value.
func Some[T any](v T) Option[T] {
	return Option[T]{Valid: true, Value: v}
}

// None returns an absent Option.
func None[T any]() Option[T] {
	return Option[T]{}
}

type optionWrapper struct {
	cbor.StructAsArray
	V cbor.RawMessage
}

// DecodeOption decodes a Plutus Option<T>, using decodeInner to decode the
// wrapped value's raw CBOR when present.
func DecodeOption[T any](data []byte, decodeInner func([]byte) (T, error)) (Option[T], error) {
	tag, fields, err := PeekConstrTag(data)
	if err != nil {
		return Option[T]{}, err
	}
	switch tag {
	case 0:
		var wrapper optionWrapper
		if err := DecodeFields(fields, &wrapper); err != nil {
			return Option[T]{}, err
		}
		v, err := decodeInner(wrapper.V)
		if err != nil {
			return Option[T]{}, err
		}
		return Some(v), nil
	case 1:
		return None[T](), nil
	default:
		return Option[T]{}, decodeErr(0, "option: unexpected constructor index %d", tag)
	}
}

// EncodeOption encodes a Plutus Option<T>, using encodeInner to encode the
// wrapped value when present.
func EncodeOption[T any](o Option[T], encodeInner func(T) ([]byte, error)) ([]byte, error) {
	if !o.Valid {
		return EncodeConstr(1, cbor.IndefLengthList{})
	}
	inner, err := encodeInner(o.Value)
	if err != nil {
		return nil, err
	}
	return EncodeConstr(0, cbor.IndefLengthList{cbor.RawMessage(inner)})
}
