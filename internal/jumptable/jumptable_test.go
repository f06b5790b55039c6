package jumptable

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fesh-project/fesh/internal/objectimage"
	"github.com/fesh-project/fesh/internal/testutil"
)

// buildRodataFixture lays out a .text section and a .rodata section
// containing one run of n self-relative jump-table entries, each pointing
// somewhere inside .text, followed by a trailing non-table word.
func buildRodataFixture(t *testing.T, imageBase, textVA, rodataVA uint64, n int) ([]byte, *objectimage.Image) {
	t.Helper()

	textData := make([]byte, 0x40)

	rodata := make([]byte, n*4+4)
	for i := 0; i < n; i++ {
		entryVA := rodataVA + uint64(i*4)
		target := textVA + uint64(i*4%0x40)
		rel := int32(int64(target) - int64(entryVA))
		binary.LittleEndian.PutUint32(rodata[i*4:i*4+4], uint32(rel))
	}
	// Trailing word that does not point into .text.
	binary.LittleEndian.PutUint32(rodata[n*4:n*4+4], 0xDEADBEEF)

	raw := testutil.ELFBuilder{
		ImageBase: imageBase,
		Sections: []testutil.ELFSection{
			{Name: ".text", Flags: 0x6, Addr: textVA, Data: textData},
			{Name: ".rodata", Flags: 0x2, Addr: rodataVA, Data: rodata},
		},
	}.Build()

	img, ok := objectimage.Parse(raw)
	require.True(t, ok)
	require.True(t, img.IsTarget)

	return raw, img
}

func TestDetectFindsRunEndingAtNonTableWord(t *testing.T) {
	const imageBase = 0x400000
	const textVA = 0x401000
	const rodataVA = 0x402000

	raw, img := buildRodataFixture(t, imageBase, textVA, rodataVA, 6)

	tables := Detect(raw, img)
	require.Len(t, tables, 1)
	require.Equal(t, 6, tables[0].Count)

	for _, sec := range img.Sections {
		if sec.Name == ".rodata" {
			require.Equal(t, sec.FileOffset, tables[0].FileOffset)
		}
	}
}

func TestDetectRequiresMinimumRunLength(t *testing.T) {
	const imageBase = 0x400000
	const textVA = 0x401000
	const rodataVA = 0x402000

	raw, img := buildRodataFixture(t, imageBase, textVA, rodataVA, 3)

	tables := Detect(raw, img)
	require.Empty(t, tables)
}

func TestApplyRoundTrip(t *testing.T) {
	const imageBase = 0x400000
	const textVA = 0x401000
	const rodataVA = 0x402000

	raw, img := buildRodataFixture(t, imageBase, textVA, rodataVA, 6)
	tables := Detect(raw, img)
	require.Len(t, tables, 1)

	orig := append([]byte(nil), raw...)

	Apply(raw, img, tables, false, true)
	require.NotEqual(t, orig, raw)

	Apply(raw, img, tables, false, false)
	require.Equal(t, orig, raw)
}

func TestApplyRoundTripBigEndian(t *testing.T) {
	const imageBase = 0x400000
	const textVA = 0x401000
	const rodataVA = 0x402000

	raw, img := buildRodataFixture(t, imageBase, textVA, rodataVA, 8)
	tables := Detect(raw, img)
	require.Len(t, tables, 1)

	orig := append([]byte(nil), raw...)

	Apply(raw, img, tables, true, true)
	Apply(raw, img, tables, true, false)
	require.Equal(t, orig, raw)
}

// TestScanSectionHalfOpenUpperBound locks down the exact boundary value
// from spec.md §8: a target equal to text_va+text_size lands just past
// the last valid .text byte and must not count toward a run, while a
// target one byte below that bound is still inside .text.
func TestScanSectionHalfOpenUpperBound(t *testing.T) {
	const sectionVA = 0x402000
	const fileOffset = 0x2000
	const textVA = 0x401000
	const textSize = 0x40

	entry := func(targetVA uint64, entryOffset int) []byte {
		entryVA := sectionVA + uint64(entryOffset)
		rel := int32(int64(targetVA) - int64(entryVA))
		b := make([]byte, 4)
		binary.LittleEndian.PutUint32(b, uint32(rel))
		return b
	}

	// Four entries landing exactly on textVA+textSize-1 (inside .text):
	// a valid run of minRunLength.
	data := make([]byte, 0, 16)
	for i := 0; i < minRunLength; i++ {
		data = append(data, entry(textVA+textSize-1, i*4)...)
	}
	tables := scanSection(data, sectionVA, fileOffset, textVA, textSize)
	require.Len(t, tables, 1)
	require.Equal(t, minRunLength, tables[0].Count)

	// The same four entries, but landing exactly on textVA+textSize: the
	// half-open upper bound excludes this target, so no run is recorded.
	dataAtBound := make([]byte, 0, 16)
	for i := 0; i < minRunLength; i++ {
		dataAtBound = append(dataAtBound, entry(textVA+textSize, i*4)...)
	}
	require.Empty(t, scanSection(dataAtBound, sectionVA, fileOffset, textVA, textSize))
}

func TestEncodeDecodeMetaRoundTrip(t *testing.T) {
	tables := []Table{
		{FileOffset: 0x100, Count: 4},
		{FileOffset: 0x200, Count: 12},
		{FileOffset: 0x500, Count: 5},
	}

	meta := EncodeMeta(tables)
	got, err := DecodeMeta(meta)
	require.NoError(t, err)
	require.Equal(t, tables, got)
}

func TestDecodeMetaEmpty(t *testing.T) {
	meta := EncodeMeta(nil)
	got, err := DecodeMeta(meta)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestDecodeMetaTruncated(t *testing.T) {
	meta := EncodeMeta([]Table{{FileOffset: 0x10, Count: 4}})
	_, err := DecodeMeta(meta[:1])
	require.Error(t, err)
}
