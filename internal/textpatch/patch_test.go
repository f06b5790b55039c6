package textpatch

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fesh-project/fesh/internal/objectimage"
	"github.com/fesh-project/fesh/internal/testutil"
)

// callNear32 builds a 5-byte `call rel32` instruction whose target is the
// given virtual address, when placed at ip.
func callNear32(ip uint64, target uint64) []byte {
	nextIP := ip + 5
	rel := int32(int64(target) - int64(nextIP))
	b := make([]byte, 5)
	b[0] = 0xE8
	binary.LittleEndian.PutUint32(b[1:], uint32(rel))
	return b
}

func buildTextFixture(t *testing.T, imageBase, textVA uint64) ([]byte, *objectimage.Image) {
	t.Helper()

	inst := callNear32(textVA+2, textVA+0x50)
	// Pad with NOPs so the section isn't a single instruction.
	data := append(append([]byte{0x90, 0x90}, inst...), 0x90, 0x90)

	raw := testutil.ELFBuilder{
		ImageBase: imageBase,
		Sections: []testutil.ELFSection{
			{Name: ".text", Flags: 0x6, Addr: textVA, Data: data},
		},
	}.Build()

	img, ok := objectimage.Parse(raw)
	require.True(t, ok)
	require.True(t, img.IsTarget)

	return raw, img
}

func TestPatchRoundTrip(t *testing.T) {
	const imageBase = 0x400000
	const textVA = 0x401000

	raw, img := buildTextFixture(t, imageBase, textVA)
	orig := append([]byte(nil), raw...)

	Apply(raw, img, false, true)
	require.NotEqual(t, orig, raw, "compress should have changed the call's displacement field")

	Apply(raw, img, false, false)
	require.Equal(t, orig, raw)
}

func TestPatchRoundTripBigEndianMode(t *testing.T) {
	const imageBase = 0x400000
	const textVA = 0x401000

	raw, img := buildTextFixture(t, imageBase, textVA)
	orig := append([]byte(nil), raw...)

	Apply(raw, img, true, true)
	Apply(raw, img, true, false)
	require.Equal(t, orig, raw)
}

func TestPatchNoOpOnNonTarget(t *testing.T) {
	data := []byte{0xDE, 0xAD, 0xBE, 0xEF, 0x00, 0x00, 0x00, 0x00}
	orig := append([]byte(nil), data...)
	Apply(data, nil, false, true)
	require.Equal(t, orig, data)
}
