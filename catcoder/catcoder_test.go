package catcoder

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fesh-project/fesh/internal/category"
)

func TestEncodeDecodeAllRoundTrip(t *testing.T) {
	var streams [category.Count][]byte
	streams[category.Other] = []byte("assorted bytes that are not otherwise categorized\x00\x01\x02")
	streams[category.Code] = []byte{0x90, 0x90, 0xE8, 0x10, 0x20, 0x30, 0x40, 0xC3}
	streams[category.Str] = []byte("hello\x00world\x00foo\x00bar\x00")
	streams[category.EH] = []byte{0x01, 0x1b, 0x03, 0x3b, 0, 0, 0, 0, 2, 0, 0, 0}

	s4 := make([]byte, 0, 16)
	for i := 0; i < 4; i++ {
		s4 = append(s4, byte(i), byte(i), byte(i), byte(i))
	}
	streams[category.S4] = s4

	s8 := make([]byte, 0, 32)
	for i := 0; i < 4; i++ {
		s8 = append(s8, 1, 2, 3, 4, 5, 6, 7, byte(i))
	}
	streams[category.S8] = s8

	var streamLen [category.Count]int
	for i, s := range streams {
		streamLen[i] = len(s)
	}

	encoded, err := EncodeAll(context.Background(), streams)
	require.NoError(t, err)

	require.Empty(t, encoded[category.Rel16])
	require.NotEmpty(t, encoded[category.Other])

	decoded, err := DecodeAll(context.Background(), encoded, streamLen)
	require.NoError(t, err)

	for i := range streams {
		require.Equal(t, streams[i], decoded[i], "category %s", category.Category(i))
	}
}

func TestFilterRoundTrip(t *testing.T) {
	data := make([]byte, 40)
	for i := range data {
		data[i] = byte(i)
	}

	filtered, release := filterForEncode(category.S8, data)
	defer release()
	require.NotEqual(t, data, filtered)

	back := unfilterForDecode(category.S8, filtered)
	require.Equal(t, data, back)
}

func TestFilterNoOpCategories(t *testing.T) {
	data := []byte("plain string data")
	for _, cat := range []category.Category{category.Other, category.Code, category.Str, category.EH} {
		out, release := filterForEncode(cat, data)
		require.Equal(t, data, out, "category %s", cat)
		release()
	}
}

func TestPositionBitsTable(t *testing.T) {
	require.Equal(t, 2, positionBits(category.Code))
	require.Equal(t, 2, positionBits(category.EH))
	require.Equal(t, 2, positionBits(category.Other))
	require.Equal(t, 0, positionBits(category.S8))
	require.Equal(t, 0, positionBits(category.Str))
}

func TestTwoPassLCTable(t *testing.T) {
	require.False(t, twoPassLC(category.Code))
	require.False(t, twoPassLC(category.EH))
	require.False(t, twoPassLC(category.Other))
	require.True(t, twoPassLC(category.Str))
	require.True(t, twoPassLC(category.S4))
	require.True(t, twoPassLC(category.JT4))
}

func TestDecodeAllEmptyStreamsAreNil(t *testing.T) {
	var compressed [category.Count][]byte
	var lens [category.Count]int

	out, err := DecodeAll(context.Background(), compressed, lens)
	require.NoError(t, err)
	for i := range out {
		require.Empty(t, out[i])
	}
}
