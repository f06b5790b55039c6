// Package objectimage is the thin wrapper around debug/elf this module
// uses as its "object-file parser" collaborator (spec.md §6): it enumerates
// sections and segments, resolves file offsets and virtual addresses,
// classifies sections by kind and name, and reports architecture,
// endianness, and word size.
//
// No third-party ELF-parsing package appears anywhere in the retrieved
// reference corpus; debug/elf is both the idiomatic and the only available
// choice for this role (see DESIGN.md).
package objectimage

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
)

// SectionKind distinguishes executable ("Text-kind") sections from
// everything else, mirroring the two-valued classification spec.md's
// router needs.
type SectionKind int

const (
	KindOther SectionKind = iota
	KindText
)

// Section describes one ELF section as the transform passes need it: its
// name, kind, virtual address, and its file range when it occupies one
// (SHT_NOBITS sections such as .bss have none).
type Section struct {
	Name         string
	Kind         SectionKind
	Addr         uint64
	Size         uint64
	FileOffset   uint64
	HasFileRange bool
	Data         []byte
}

// FileRange returns the section's (offset, size) file range and whether it
// has one at all.
func (s Section) FileRange() (offset, size uint64, ok bool) {
	return s.FileOffset, uint64(len(s.Data)), s.HasFileRange
}

// Image is the parsed result of an object file: its sections, its image
// base (the minimum virtual address across loadable segments), and whether
// its architecture/endianness/word size match this module's native
// transform target (64-bit little-endian x86-64).
type Image struct {
	Sections  []Section
	ImageBase uint64
	IsTarget  bool
}

// Parse parses file data as an ELF object. A parse failure is not an error
// from the caller's point of view: per spec.md §4 invariant 4 and §7, it
// silently disables every binary-aware transform, so Parse returns
// (nil, false) rather than an error and leaves the caller to fall back to
// the identity path.
func Parse(data []byte) (*Image, bool) {
	f, err := elf.NewFile(bytes.NewReader(data))
	if err != nil {
		return nil, false
	}
	defer f.Close()

	img := &Image{}

	for _, sec := range f.Sections {
		s := Section{
			Name: sec.Name,
			Addr: sec.Addr,
			Size: sec.Size,
		}
		if sec.Flags&elf.SHF_EXECINSTR != 0 {
			s.Kind = KindText
		}

		if sec.Type != elf.SHT_NOBITS && sec.Size > 0 {
			off := sec.Offset
			end := off + sec.Size
			if end <= uint64(len(data)) {
				s.FileOffset = off
				s.Data = data[off:end]
				s.HasFileRange = true
			}
		}

		img.Sections = append(img.Sections, s)
	}

	imageBase := ^uint64(0)
	for _, prog := range f.Progs {
		if prog.Type != elf.PT_LOAD {
			continue
		}
		if prog.Vaddr < imageBase {
			imageBase = prog.Vaddr
		}
	}
	if imageBase == ^uint64(0) {
		imageBase = 0
	}
	img.ImageBase = imageBase

	img.IsTarget = f.Machine == elf.EM_X86_64 &&
		f.Class == elf.ELFCLASS64 &&
		f.ByteOrder == binary.LittleEndian

	return img, true
}

// TextRange returns the virtual-address range of the first section named
// ".text", and false if no such section exists.
func (img *Image) TextRange() (va, size uint64, ok bool) {
	for _, s := range img.Sections {
		if s.Name == ".text" {
			return s.Addr, s.Size, true
		}
	}

	return 0, 0, false
}

// FileOffsetToVA resolves a file offset to the virtual address of the
// section containing it, the same lookup the Rust original's
// process_jump_tables does when inverting jump-table entries.
func (img *Image) FileOffsetToVA(offset uint64) (uint64, bool) {
	for _, s := range img.Sections {
		if !s.HasFileRange {
			continue
		}
		if offset >= s.FileOffset && offset < s.FileOffset+uint64(len(s.Data)) {
			return s.Addr + (offset - s.FileOffset), true
		}
	}

	return 0, false
}
