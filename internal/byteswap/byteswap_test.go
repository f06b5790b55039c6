package byteswap

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fesh-project/fesh/internal/category"
)

func TestCategoryIsSelfInverse(t *testing.T) {
	for _, cat := range []category.Category{
		category.S4, category.JT4, category.S8, category.RelR8,
		category.S16, category.Rel16, category.Dynamic16,
		category.S24, category.Rela24, category.Sym24,
	} {
		stride, _ := cat.Stride()
		n := stride * 3
		data := make([]byte, n)
		for i := range data {
			data[i] = byte(i + 1)
		}

		orig := append([]byte(nil), data...)
		Category(data, cat)
		require.NotEqual(t, orig, data, cat.String())
		Category(data, cat)
		require.Equal(t, orig, data, cat.String())
	}
}

func TestUntouchedCategories(t *testing.T) {
	for _, cat := range []category.Category{category.Other, category.Code, category.Str, category.EH, category.S2} {
		data := []byte{1, 2, 3, 4, 5, 6, 7, 8}
		orig := append([]byte(nil), data...)
		Category(data, cat)
		require.Equal(t, orig, data, cat.String())
	}
}

func TestSym24LeavesMiddleBytesAlone(t *testing.T) {
	rec := make([]byte, 24)
	for i := range rec {
		rec[i] = byte(i + 1)
	}
	middle := append([]byte(nil), rec[4:8]...)

	Category(rec, category.Sym24)
	require.Equal(t, middle, rec[4:8])
	require.Equal(t, []byte{4, 3, 2, 1}, rec[0:4])
	require.Equal(t, []byte{16, 15, 14, 13, 12, 11, 10, 9}, rec[8:16])
	require.Equal(t, []byte{24, 23, 22, 21, 20, 19, 18, 17}, rec[16:24])
}
