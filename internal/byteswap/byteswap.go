// Package byteswap implements the per-category big-endian/little-endian
// swap of integer subfields described in spec.md §4.3. It is applied once
// before transposition on compress and once after inverse-transposition on
// decompress; both directions are the same operation since byte-swapping a
// word is its own inverse.
package byteswap

import (
	"github.com/fesh-project/fesh/internal/category"
)

// Category swaps the byte order of every integer subfield of data in place,
// according to cat's record layout. Categories without a numeric layout
// (OTHER, CODE, STR, EH) are left untouched. Only whole words (whole
// records for SYM24) are swapped; trailing bytes past the last complete one
// are left as they are, so the operation stays its own inverse for any
// length of data.
func Category(data []byte, cat category.Category) {
	switch cat {
	case category.S4, category.JT4:
		swapWords(data, 4)
	case category.S8, category.RelR8:
		swapWords(data, 8)
	case category.S16, category.Rel16, category.Dynamic16:
		swapWords(data, 8)
	case category.S24, category.Rela24:
		swapWords(data, 8)
	case category.Sym24:
		swapSym24(data)
	default:
		// OTHER, CODE, STR, EH, S2: untouched. S2's 2-byte fields are
		// .gnu.version entries, which spec.md §4.3 does not list among the
		// swapped categories.
	}
}

// swapWords reverses the byte order of every w-byte little/big-endian word
// in data. It operates on as many full w-byte words as fit and leaves any
// trailing partial word untouched.
func swapWords(data []byte, w int) {
	for off := 0; off+w <= len(data); off += w {
		reverse(data[off : off+w])
	}
}

// swapSym24 swaps the 4-byte name field at offset 0 and the two 8-byte
// fields at offsets 8 and 16 of each 24-byte ELF symbol record, leaving
// bytes 4..8 (info, other, shndx) untouched.
func swapSym24(data []byte) {
	const recSize = 24
	for off := 0; off+recSize <= len(data); off += recSize {
		reverse(data[off : off+4])
		reverse(data[off+8 : off+16])
		reverse(data[off+16 : off+24])
	}
}

func reverse(b []byte) {
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
}
