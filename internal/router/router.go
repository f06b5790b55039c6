// Package router implements spec.md §4.8: classifying every byte of the
// transformed skeleton into one of the fifteen categories, folding that
// label vector into a run-length control stream, and splitting/merging the
// per-category byte streams the entropy coder sees.
package router

import (
	"fmt"

	"github.com/fesh-project/fesh/internal/category"
	"github.com/fesh-project/fesh/internal/jumptable"
	"github.com/fesh-project/fesh/internal/objectimage"
	"github.com/fesh-project/fesh/internal/varint"
)

// ptrPrefixes names the section-name prefixes that carry raw pointer-sized
// (8-byte) entries: GOT slots, PLT GOT stubs, relro data, and init/fini
// function-pointer arrays.
var ptrPrefixes = []string{".got", ".got.plt", ".data.rel.ro", ".init_array", ".fini_array", ".plt.got"}

// Label classifies every byte of buf, in priority order: section kind
// (code) first, then section-name substring/prefix rules, then a jump-table
// override that always wins regardless of what section a table landed in.
// Bytes not covered by any section default to category.Other.
func Label(buf []byte, img *objectimage.Image, tables []jumptable.Table) []category.Category {
	labels := make([]category.Category, len(buf))

	if img != nil {
		for _, sec := range img.Sections {
			if !sec.HasFileRange {
				continue
			}
			size := uint64(len(sec.Data))
			if sec.FileOffset+size > uint64(len(buf)) {
				continue
			}

			cat := classifySection(sec)
			for i := sec.FileOffset; i < sec.FileOffset+size; i++ {
				labels[i] = cat
			}
		}
	}

	for _, t := range tables {
		end := t.FileOffset + uint64(t.Count)*4
		for i := t.FileOffset; i < end && i < uint64(len(labels)); i++ {
			labels[i] = category.JT4
		}
	}

	return labels
}

func classifySection(sec objectimage.Section) category.Category {
	name := sec.Name

	switch {
	case sec.Kind == objectimage.KindText:
		return category.Code
	case name == ".strtab" || name == ".dynstr" || contains(name, "str"):
		return category.Str
	case contains(name, "eh_frame") || contains(name, "gcc_except"):
		return category.EH
	case hasPrefix(name, ".relr"):
		return category.RelR8
	case hasPrefix(name, ".rela"):
		return category.Rela24
	case name == ".symtab" || name == ".dynsym":
		return category.Sym24
	case hasPrefix(name, ".rel"):
		return category.Rel16
	case name == ".dynamic":
		return category.Dynamic16
	case contains(name, "cst16"):
		return category.S16
	case name == ".gnu.version":
		return category.S2
	case prefixedByAny(name, ptrPrefixes) || contains(name, "array") || contains(name, "cst8"):
		return category.S8
	case contains(name, "hash") || contains(name, "cst4"):
		return category.S4
	default:
		return category.Other
	}
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}

func prefixedByAny(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if hasPrefix(s, p) {
			return true
		}
	}
	return false
}

func contains(s, substr string) bool {
	if len(substr) == 0 {
		return true
	}
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}

// BuildRuns folds a label vector into the run-length control stream:
// consecutive bytes sharing a category collapse into one
// varint((count<<4)|category) entry.
func BuildRuns(labels []category.Category) []byte {
	if len(labels) == 0 {
		return nil
	}

	var out []byte
	cur := labels[0]
	count := uint64(1)

	flush := func() {
		out = varint.Append(out, (count<<4)|uint64(cur))
	}

	for _, c := range labels[1:] {
		if c == cur {
			count++
			continue
		}
		flush()
		cur = c
		count = 1
	}
	flush()

	return out
}

// Split partitions buf's bytes into the fifteen per-category streams named
// by labels, in file order.
func Split(buf []byte, labels []category.Category) [category.Count][]byte {
	var streams [category.Count][]byte

	counts := [category.Count]int{}
	for _, c := range labels {
		counts[c]++
	}
	for c := range streams {
		if counts[c] > 0 {
			streams[c] = make([]byte, 0, counts[c])
		}
	}

	for i, c := range labels {
		streams[c] = append(streams[c], buf[i])
	}

	return streams
}

// RunCounts walks the run-length control stream and sums each category's
// total byte count, without materializing the reconstructed buffer. The
// pipeline uses this to tell the category coder how many decompressed
// bytes to expect per category before it has anything to merge them into.
func RunCounts(runs []byte) ([category.Count]int, error) {
	var counts [category.Count]int

	pos := 0
	for pos < len(runs) {
		val, n, err := varint.Read(runs[pos:])
		if err != nil {
			return counts, fmt.Errorf("router: run stream: %w", err)
		}
		pos += n

		cat := category.Category(val & 0xF)
		if !cat.Valid() {
			return counts, fmt.Errorf("router: run references unknown category %d", cat)
		}

		counts[cat] += int(val >> 4)
	}

	return counts, nil
}

// Merge reconstructs the original byte sequence of length origLen from the
// run-length control stream and the fifteen decoded per-category streams,
// consuming each stream's bytes in order as its category's runs occur.
func Merge(runs []byte, streams [category.Count][]byte, origLen int) ([]byte, error) {
	out := make([]byte, origLen)
	cursors := [category.Count]int{}

	pos := 0
	outPos := 0

	for pos < len(runs) {
		val, n, err := varint.Read(runs[pos:])
		if err != nil {
			return nil, fmt.Errorf("router: run stream: %w", err)
		}
		pos += n

		cat := category.Category(val & 0xF)
		count := int(val >> 4)

		if !cat.Valid() {
			return nil, fmt.Errorf("router: run references unknown category %d", cat)
		}
		if outPos+count > len(out) {
			return nil, fmt.Errorf("router: runs exceed declared output length")
		}

		c := cursors[cat]
		if c+count > len(streams[cat]) {
			return nil, fmt.Errorf("router: category %s stream underflow", cat)
		}

		copy(out[outPos:outPos+count], streams[cat][c:c+count])
		cursors[cat] += count
		outPos += count
	}

	if outPos != origLen {
		return nil, fmt.Errorf("router: runs cover %d bytes, want %d", outPos, origLen)
	}

	for c := range streams {
		if cursors[c] != len(streams[c]) {
			return nil, fmt.Errorf("router: category %s stream has %d unused trailing bytes", category.Category(c), len(streams[c])-cursors[c])
		}
	}

	return out, nil
}
