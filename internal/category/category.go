// Package category defines the closed set of byte-stream categories the
// router labels every image byte with, and the per-category record stride
// the numeric transforms operate on.
package category

// Category labels one byte of the transformed image. The numeric value of
// each constant is part of the wire format: it is packed into the low 4
// bits of every run-length control-stream varint and used as the
// category-stream index in the container, so the ordering below must never
// change.
type Category uint8

const (
	Other     Category = 0
	Code      Category = 1
	Str       Category = 2
	S2        Category = 3
	S4        Category = 4
	S8        Category = 5
	RelR8     Category = 6
	S16       Category = 7
	Rel16     Category = 8
	Dynamic16 Category = 9
	S24       Category = 10
	Rela24    Category = 11
	Sym24     Category = 12
	EH        Category = 13
	JT4       Category = 14
)

// Count is the number of distinct categories, and the number of
// varint-length-prefixed compressed streams the container carries.
const Count = 15

func (c Category) String() string {
	switch c {
	case Other:
		return "OTHER"
	case Code:
		return "CODE"
	case Str:
		return "STR"
	case S2:
		return "S2"
	case S4:
		return "S4"
	case S8:
		return "S8"
	case RelR8:
		return "RELR8"
	case S16:
		return "S16"
	case Rel16:
		return "REL16"
	case Dynamic16:
		return "DYNAMIC16"
	case S24:
		return "S24"
	case Rela24:
		return "RELA24"
	case Sym24:
		return "SYM24"
	case EH:
		return "EH"
	case JT4:
		return "JT4"
	default:
		return "UNKNOWN"
	}
}

// Stride returns the record size in bytes for a numeric category, and
// (0, false) for the four byte-granular categories (OTHER, CODE, STR, EH)
// that are never byte-swapped or transposed.
func (c Category) Stride() (int, bool) {
	switch c {
	case S2:
		return 2, true
	case S4, JT4:
		return 4, true
	case S8, RelR8:
		return 8, true
	case S16, Rel16, Dynamic16:
		return 16, true
	case S24, Rela24, Sym24:
		return 24, true
	default:
		return 0, false
	}
}

// Valid reports whether c is one of the Count defined categories.
func (c Category) Valid() bool {
	return c < Count
}
