// Package elftables implements spec.md §4.7: delta-coding the fixed-stride
// relocation, symbol, and dynamic-tag tables ELF carries, so their mostly
// monotonic or repetitive fields compress better downstream.
package elftables

import (
	"encoding/binary"

	"github.com/fesh-project/fesh/internal/objectimage"
	"github.com/fesh-project/fesh/internal/varint"
)

// Apply walks every section of img and delta-codes the ones whose name
// matches a known ELF table in place, based purely on section name — the
// same signal both compress and decompress can see. A parse failure
// upstream (img == nil) disables the transform entirely.
func Apply(buf []byte, img *objectimage.Image, compress bool) {
	if img == nil || !img.IsTarget {
		return
	}

	for _, sec := range img.Sections {
		if !sec.HasFileRange {
			continue
		}

		size := uint64(len(sec.Data))
		if sec.FileOffset+size > uint64(len(buf)) {
			continue
		}

		applyByName(sec.Name, buf[sec.FileOffset:sec.FileOffset+size], compress)
	}
}

func applyByName(name string, buf []byte, compress bool) {
	switch {
	case hasPrefix(name, ".rela"):
		transformRela24(buf, compress)
	case hasPrefix(name, ".relr"):
		transformRelr8(buf, compress)
	case hasPrefix(name, ".rel"):
		transformRel16(buf, compress)
	case name == ".dynsym" || name == ".symtab":
		transformSym24(buf, compress)
	case name == ".dynamic":
		transformDynamic16(buf, compress)
	}
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}

// transformRela24 delta-codes Elf64_Rela records (r_offset, r_info,
// r_addend): r_offset and the symbol half of r_info as plain wrapping
// deltas, r_addend as a zigzag-mapped wrapping delta so its sign doesn't
// blow up the varint-friendly byte pattern once it hits the entropy coder.
// The relocation type half of r_info is never touched.
func transformRela24(buf []byte, compress bool) {
	const stride = 24
	if len(buf)%stride != 0 {
		return
	}
	n := len(buf) / stride

	var prevOff uint64
	var prevSym uint32
	var prevAdd int64

	for i := 0; i < n; i++ {
		p := i * stride
		off := binary.LittleEndian.Uint64(buf[p : p+8])
		info := binary.LittleEndian.Uint64(buf[p+8 : p+16])
		add := int64(binary.LittleEndian.Uint64(buf[p+16 : p+24]))
		sym := uint32(info >> 32)
		typ := uint32(info)

		if compress {
			offD := off
			symD := sym
			addD := add
			if i != 0 {
				offD = off - prevOff
				symD = sym - prevSym
				addD = add - prevAdd
			}

			binary.LittleEndian.PutUint64(buf[p:p+8], offD)
			binary.LittleEndian.PutUint64(buf[p+8:p+16], (uint64(symD)<<32)|uint64(typ))
			binary.LittleEndian.PutUint64(buf[p+16:p+24], varint.ZigZagEncode(addD))

			prevOff, prevSym, prevAdd = off, sym, add
		} else {
			symD := uint32(info >> 32)
			addD := varint.ZigZagDecode(uint64(add))

			offV := off
			symV := symD
			addV := addD
			if i != 0 {
				offV = prevOff + off
				symV = prevSym + symD
				addV = prevAdd + addD
			}

			binary.LittleEndian.PutUint64(buf[p:p+8], offV)
			binary.LittleEndian.PutUint64(buf[p+8:p+16], (uint64(symV)<<32)|uint64(typ))
			binary.LittleEndian.PutUint64(buf[p+16:p+24], uint64(addV))

			prevOff, prevSym, prevAdd = offV, symV, addV
		}
	}
}

// transformRel16 delta-codes Elf64_Rel records (r_offset, r_info), the same
// way as transformRela24 minus the addend.
func transformRel16(buf []byte, compress bool) {
	const stride = 16
	if len(buf)%stride != 0 {
		return
	}
	n := len(buf) / stride

	var prevOff uint64
	var prevSym uint32

	for i := 0; i < n; i++ {
		p := i * stride
		off := binary.LittleEndian.Uint64(buf[p : p+8])
		info := binary.LittleEndian.Uint64(buf[p+8 : p+16])
		sym := uint32(info >> 32)
		typ := uint32(info)

		if compress {
			offD := off
			symD := sym
			if i != 0 {
				offD = off - prevOff
				symD = sym - prevSym
			}

			binary.LittleEndian.PutUint64(buf[p:p+8], offD)
			binary.LittleEndian.PutUint64(buf[p+8:p+16], (uint64(symD)<<32)|uint64(typ))

			prevOff, prevSym = off, sym
		} else {
			symD := uint32(info >> 32)

			offV := off
			symV := symD
			if i != 0 {
				offV = prevOff + off
				symV = prevSym + symD
			}

			binary.LittleEndian.PutUint64(buf[p:p+8], offV)
			binary.LittleEndian.PutUint64(buf[p+8:p+16], (uint64(symV)<<32)|uint64(typ))

			prevOff, prevSym = offV, symV
		}
	}
}

// transformSym24 delta-codes Elf64_Sym records' st_name, st_value, and
// st_size fields. st_info/st_other/st_shndx (buf[4:8]) are never touched.
func transformSym24(buf []byte, compress bool) {
	const stride = 24
	if len(buf)%stride != 0 {
		return
	}
	n := len(buf) / stride

	var prevName uint32
	var prevVal, prevSz uint64

	for i := 0; i < n; i++ {
		p := i * stride
		name := binary.LittleEndian.Uint32(buf[p : p+4])
		val := binary.LittleEndian.Uint64(buf[p+8 : p+16])
		sz := binary.LittleEndian.Uint64(buf[p+16 : p+24])

		if compress {
			nameD, valD, szD := name, val, sz
			if i != 0 {
				nameD = name - prevName
				valD = val - prevVal
				szD = sz - prevSz
			}

			binary.LittleEndian.PutUint32(buf[p:p+4], nameD)
			binary.LittleEndian.PutUint64(buf[p+8:p+16], valD)
			binary.LittleEndian.PutUint64(buf[p+16:p+24], szD)

			prevName, prevVal, prevSz = name, val, sz
		} else {
			nameV, valV, szV := name, val, sz
			if i != 0 {
				nameV = prevName + name
				valV = prevVal + val
				szV = prevSz + sz
			}

			binary.LittleEndian.PutUint32(buf[p:p+4], nameV)
			binary.LittleEndian.PutUint64(buf[p+8:p+16], valV)
			binary.LittleEndian.PutUint64(buf[p+16:p+24], szV)

			prevName, prevVal, prevSz = nameV, valV, szV
		}
	}
}

// transformRelr8 delta-codes only the base-address entries of an RELR
// relocation table (low bit clear); bitmap entries (low bit set) encode no
// address and are left untouched, matching the RELR format itself.
func transformRelr8(buf []byte, compress bool) {
	const stride = 8
	if len(buf)%stride != 0 {
		return
	}
	n := len(buf) / stride

	var prevBase uint64

	for i := 0; i < n; i++ {
		p := i * stride
		val := binary.LittleEndian.Uint64(buf[p : p+8])
		if val&1 != 0 {
			continue
		}

		if compress {
			delta := val
			if i != 0 {
				delta = val - prevBase
			}
			binary.LittleEndian.PutUint64(buf[p:p+8], delta)
			prevBase = val
		} else {
			base := val
			if i != 0 {
				base = prevBase + val
			}
			binary.LittleEndian.PutUint64(buf[p:p+8], base)
			prevBase = base
		}
	}
}

// transformDynamic16 delta-codes Elf64_Dyn records (d_tag, d_val/d_ptr).
func transformDynamic16(buf []byte, compress bool) {
	const stride = 16
	if len(buf)%stride != 0 {
		return
	}
	n := len(buf) / stride

	var prevTag, prevVal uint64

	for i := 0; i < n; i++ {
		p := i * stride
		tag := binary.LittleEndian.Uint64(buf[p : p+8])
		val := binary.LittleEndian.Uint64(buf[p+8 : p+16])

		if compress {
			tagD, valD := tag, val
			if i != 0 {
				tagD = tag - prevTag
				valD = val - prevVal
			}
			binary.LittleEndian.PutUint64(buf[p:p+8], tagD)
			binary.LittleEndian.PutUint64(buf[p+8:p+16], valD)
			prevTag, prevVal = tag, val
		} else {
			tagV, valV := tag, val
			if i != 0 {
				tagV = prevTag + tag
				valV = prevVal + val
			}
			binary.LittleEndian.PutUint64(buf[p:p+8], tagV)
			binary.LittleEndian.PutUint64(buf[p+8:p+16], valV)
			prevTag, prevVal = tagV, valV
		}
	}
}
