package bigint

import (
	"math/big"
	"testing"

	"github.com/blinklabs-io/gouroboros/cbor"
	"github.com/stretchr/testify/require"
)

func TestRoundTripSmall(t *testing.T) {
	i := New(42)
	data, err := cbor.Encode(i)
	require.NoError(t, err)
	var out Int
	_, err = cbor.Decode(data, &out)
	require.NoError(t, err)
	require.True(t, i.Equal(out))
}

func TestRoundTripLargePositive(t *testing.T) {
	big2to128 := new(big.Int).Lsh(big.NewInt(1), 128)
	i := NewFromBig(big2to128)
	data, err := cbor.Encode(i)
	require.NoError(t, err)
	var out Int
	_, err = cbor.Decode(data, &out)
	require.NoError(t, err)
	require.True(t, i.Equal(out))
	require.Equal(t, 0, out.Cmp(NewFromBig(big2to128)))
}

func TestRoundTripLargeNegative(t *testing.T) {
	big2to128 := new(big.Int).Lsh(big.NewInt(1), 128)
	neg := new(big.Int).Neg(big2to128)
	i := NewFromBig(neg)
	data, err := cbor.Encode(i)
	require.NoError(t, err)
	var out Int
	_, err = cbor.Decode(data, &out)
	require.NoError(t, err)
	require.True(t, i.Equal(out))
}

func TestCeilDiv(t *testing.T) {
	require.Equal(t, int64(4), CeilDiv(New(332_000), New(100_000)).Int64())
	require.Equal(t, int64(1), CeilDiv(New(1), New(1)).Int64())
	require.Equal(t, int64(0), CeilDiv(New(0), New(5)).Int64())
}

func TestArithmeticInverses(t *testing.T) {
	a := New(100)
	b := New(37)
	require.True(t, a.Add(b).Sub(b).Equal(a))
	require.True(t, a.Sub(b).Add(b).Equal(a))
}

func TestDivFloorNegative(t *testing.T) {
	// floor(-7/2) == -4
	require.Equal(t, int64(-4), New(-7).DivFloor(New(2)).Int64())
	require.Equal(t, int64(3), New(7).DivFloor(New(2)).Int64())
}
