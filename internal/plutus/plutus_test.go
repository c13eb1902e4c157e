package plutus

import (
	"testing"

	"github.com/blinklabs-io/gouroboros/cbor"
	"github.com/stretchr/testify/require"

	"github.com/blinklabs-io/sundaescoop/internal/bigint"
)

type pairProduct struct {
	cbor.StructAsArray
	A []byte
	B []byte
}

func TestDecodeEncodeConstrRoundTrip(t *testing.T) {
	encoded, err := EncodeConstr(0, cbor.IndefLengthList{
		[]byte("policy"),
		[]byte("name"),
	})
	require.NoError(t, err)

	var out pairProduct
	require.NoError(t, DecodeConstr(encoded, 0, &out))
	require.Equal(t, []byte("policy"), out.A)
	require.Equal(t, []byte("name"), out.B)

	reencoded, err := EncodeConstr(0, cbor.IndefLengthList{out.A, out.B})
	require.NoError(t, err)
	require.Equal(t, encoded, reencoded)
}

func TestDecodeConstrWrongTag(t *testing.T) {
	encoded, err := EncodeConstr(1, cbor.IndefLengthList{[]byte("x")})
	require.NoError(t, err)
	var out struct {
		cbor.StructAsArray
		X []byte
	}
	err = DecodeConstr(encoded, 0, &out)
	require.Error(t, err)
	var de *DecodeError
	require.ErrorAs(t, err, &de)
}

func TestConstructorTagAboveSix(t *testing.T) {
	// constructor index 8 must round-trip through the general [index,
	// fields] (tag 102) form.
	encoded, err := EncodeConstr(8, cbor.IndefLengthList{[]byte("x")})
	require.NoError(t, err)
	tag, fields, err := PeekConstrTag(encoded)
	require.NoError(t, err)
	require.Equal(t, uint64(8), tag)
	var out struct {
		cbor.StructAsArray
		X []byte
	}
	require.NoError(t, DecodeFields(fields, &out))
	require.Equal(t, []byte("x"), out.X)
}

func TestOptionRoundTrip(t *testing.T) {
	enc := func(v []byte) ([]byte, error) { return cbor.Encode(v) }
	dec := func(d []byte) ([]byte, error) {
		var b []byte
		_, err := cbor.Decode(d, &b)
		return b, err
	}

	some := Some([]byte("hello"))
	data, err := EncodeOption(some, enc)
	require.NoError(t, err)
	got, err := DecodeOption(data, dec)
	require.NoError(t, err)
	require.True(t, got.Valid)
	require.Equal(t, []byte("hello"), got.Value)

	none := None[[]byte]()
	data, err = EncodeOption(none, enc)
	require.NoError(t, err)
	got, err = DecodeOption(data, dec)
	require.NoError(t, err)
	require.False(t, got.Valid)
}

func TestAnyDataPreservesUnknownShape(t *testing.T) {
	// A constructor with a nested list and big integer -- nothing here
	// matches a known domain type, so Any must round-trip it verbatim.
	inner, err := cbor.Encode(cbor.IndefLengthList{bigint.New(1), bigint.New(2)})
	require.NoError(t, err)
	encoded, err := EncodeConstr(3, cbor.IndefLengthList{
		cbor.RawMessage(inner),
		[]byte("tail"),
	})
	require.NoError(t, err)

	var any Any
	require.NoError(t, any.UnmarshalCBOR(encoded))
	require.Equal(t, KindConstr, any.Kind)
	require.Equal(t, uint64(3), any.Tag)
	require.Len(t, any.Fields, 2)
	require.Equal(t, KindList, any.Fields[0].Kind)
	require.Len(t, any.Fields[0].Fields, 2)
	require.Equal(t, KindBytes, any.Fields[1].Kind)
	require.Equal(t, []byte("tail"), any.Fields[1].Bytes)

	reencoded, err := any.MarshalCBOR()
	require.NoError(t, err)
	require.Equal(t, encoded, reencoded)
}

func TestAnyDataMapPreservesOrder(t *testing.T) {
	// Hand-assembled definite CBOR map {h'7a': 1, h'61': 2} -- Plutus datum
	// maps preserve insertion order rather than sorting keys, so we
	// build the bytes directly instead of going through a Go map (which
	// has no defined iteration order).
	encoded := []byte{
		0xA2,             // map, 2 entries
		0x41, 'z', 0x01, // bytes "z": 1
		0x41, 'a', 0x02, // bytes "a": 2
	}

	var any Any
	require.NoError(t, any.UnmarshalCBOR(encoded))
	require.Equal(t, KindMap, any.Kind)
	require.Len(t, any.Pairs, 2)
	require.Equal(t, []byte("z"), any.Pairs[0].Key.Bytes)
	require.Equal(t, []byte("a"), any.Pairs[1].Key.Bytes)

	reencoded, err := any.MarshalCBOR()
	require.NoError(t, err)
	require.Equal(t, encoded, reencoded)
}
