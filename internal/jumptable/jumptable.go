// Package jumptable implements spec.md §4.6: discovering compiler-emitted
// rodata jump tables, normalizing their entries, and serializing/parsing
// the side table the container carries for a deterministic inverse.
package jumptable

import (
	"encoding/binary"
	"fmt"

	"github.com/fesh-project/fesh/internal/objectimage"
	"github.com/fesh-project/fesh/internal/varint"
)

// Table is one run of consecutive 4-byte self-relative entries, all
// pointing into .text, found in a .rodata or .data.rel.ro section.
type Table struct {
	FileOffset uint64
	Count      int
}

const minRunLength = 4

// Detect scans every .rodata and .data.rel.ro section of buf for runs of
// 4-byte entries whose self-relative target lands inside .text. Runs
// shorter than minRunLength are not recorded. It returns nil if the image
// has no architecture match or no .text section (spec.md §4.6:
// "`.text` absence disables jump-table processing").
func Detect(buf []byte, img *objectimage.Image) []Table {
	if img == nil || !img.IsTarget {
		return nil
	}

	textVA, textSize, ok := img.TextRange()
	if !ok || textSize == 0 {
		return nil
	}

	var tables []Table

	for _, sec := range img.Sections {
		if sec.Name != ".rodata" && sec.Name != ".data.rel.ro" {
			continue
		}
		if !sec.HasFileRange {
			continue
		}

		size := uint64(len(sec.Data))
		if sec.FileOffset+size > uint64(len(buf)) {
			continue
		}

		data := buf[sec.FileOffset : sec.FileOffset+size]
		tables = append(tables, scanSection(data, sec.Addr, sec.FileOffset, textVA, textSize)...)
	}

	return tables
}

func scanSection(data []byte, sectionVA, fileOffset, textVA, textSize uint64) []Table {
	var tables []Table

	runStart := uint64(0)
	runLen := 0

	flush := func() {
		if runLen >= minRunLength {
			tables = append(tables, Table{FileOffset: runStart, Count: runLen})
		}
		runLen = 0
	}

	for i := 0; i+4 <= len(data); i += 4 {
		val := int32(binary.LittleEndian.Uint32(data[i : i+4]))
		entryVA := sectionVA + uint64(i)
		targetVA := entryVA + uint64(int64(val))

		if targetVA >= textVA && targetVA < textVA+textSize {
			if runLen == 0 {
				runStart = fileOffset + uint64(i)
			}
			runLen++
		} else {
			flush()
		}
	}
	flush()

	return tables
}

// Apply rewrites every entry of every table in place: on compress,
// (entryVA + value) - imageBase; on decompress, the inverse. entryVA for
// each field is resolved from img's section metadata, which is identical
// on both sides since the ELF section headers are never transformed.
func Apply(buf []byte, img *objectimage.Image, tables []Table, useBE, compress bool) {
	if img == nil {
		return
	}

	for _, tbl := range tables {
		for i := 0; i < tbl.Count; i++ {
			p := tbl.FileOffset + uint64(i*4)
			if p+4 > uint64(len(buf)) {
				continue
			}

			entryVA, ok := img.FileOffsetToVA(p)
			if !ok {
				continue
			}

			field := buf[p : p+4]
			if compress {
				val := int32(binary.LittleEndian.Uint32(field))
				targetVA := entryVA + uint64(int64(val))
				norm := uint32(targetVA - img.ImageBase)
				if useBE {
					binary.BigEndian.PutUint32(field, norm)
				} else {
					binary.LittleEndian.PutUint32(field, norm)
				}
			} else {
				var norm uint32
				if useBE {
					norm = binary.BigEndian.Uint32(field)
				} else {
					norm = binary.LittleEndian.Uint32(field)
				}
				targetVA := uint64(norm) + img.ImageBase
				origRel := uint32(targetVA - entryVA)
				binary.LittleEndian.PutUint32(field, origRel)
			}
		}
	}
}

// EncodeMeta serializes tables as: count, then per-table (delta file
// offset from the previous table's offset, entry count), all varints.
func EncodeMeta(tables []Table) []byte {
	out := varint.Append(nil, uint64(len(tables)))

	prev := uint64(0)
	for _, t := range tables {
		out = varint.Append(out, t.FileOffset-prev)
		out = varint.Append(out, uint64(t.Count))
		prev = t.FileOffset
	}

	return out
}

// DecodeMeta parses the side table produced by EncodeMeta.
func DecodeMeta(meta []byte) ([]Table, error) {
	pos := 0

	count, n, err := varint.Read(meta[pos:])
	if err != nil {
		return nil, fmt.Errorf("jumptable meta: table count: %w", err)
	}
	pos += n

	tables := make([]Table, 0, count)
	prev := uint64(0)

	for i := uint64(0); i < count; i++ {
		deltaFO, n, err := varint.Read(meta[pos:])
		if err != nil {
			return nil, fmt.Errorf("jumptable meta: table %d offset: %w", i, err)
		}
		pos += n

		cnt, n, err := varint.Read(meta[pos:])
		if err != nil {
			return nil, fmt.Errorf("jumptable meta: table %d count: %w", i, err)
		}
		pos += n

		fo := prev + deltaFO
		prev = fo
		tables = append(tables, Table{FileOffset: fo, Count: int(cnt)})
	}

	return tables, nil
}
