package varint

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAppendReadRoundTrip(t *testing.T) {
	values := []uint64{
		0, 1, 127, 128, 129, 16383, 16384,
		1 << 21, 1<<21 - 1, 1 << 28,
		1 << 35, 1 << 42, 1 << 49, 1 << 56, 1 << 63,
		^uint64(0),
	}

	for _, v := range values {
		buf := Append(nil, v)
		require.LessOrEqual(t, len(buf), MaxLen)

		got, n, err := Read(buf)
		require.NoError(t, err)
		require.Equal(t, len(buf), n)
		require.Equal(t, v, got)
	}
}

func TestReadTruncated(t *testing.T) {
	_, _, err := Read([]byte{0x80, 0x80})
	require.Error(t, err)
}

func TestReadOverflow(t *testing.T) {
	// 10 continuation bytes push shift to 70 before any terminal byte.
	buf := make([]byte, 11)
	for i := range buf {
		buf[i] = 0x80
	}
	buf[10] = 0x01

	_, _, err := Read(buf)
	require.Error(t, err)
}

func TestZigZagRoundTrip(t *testing.T) {
	values := []int64{0, 1, -1, 2, -2, 1 << 40, -(1 << 40), 1<<63 - 1, -(1 << 62)}
	for _, v := range values {
		require.Equal(t, v, ZigZagDecode(ZigZagEncode(v)))
	}
}

func TestZigZagSmallMagnitudesAreSmall(t *testing.T) {
	require.Equal(t, uint64(0), ZigZagEncode(0))
	require.Equal(t, uint64(1), ZigZagEncode(-1))
	require.Equal(t, uint64(2), ZigZagEncode(1))
	require.Equal(t, uint64(3), ZigZagEncode(-2))
}
