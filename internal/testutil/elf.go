// Package testutil builds minimal, hand-assembled ELF64 little-endian
// x86-64 object files for the transform test suites, so each package can
// exercise real section/segment metadata without shelling out to a real
// linker.
package testutil

import (
	"encoding/binary"
)

// ELFSection describes one section to place in a synthetic ELF image.
type ELFSection struct {
	Name  string
	Flags uint64
	Data  []byte
	Addr  uint64
}

// ELFBuilder assembles a minimal, valid ELF64 LE x86-64 relocatable image
// containing exactly the sections given, each backed by real file bytes;
// section data is packed back to back in the given order with no padding.
// It is intentionally small: just enough for debug/elf.NewFile to parse
// section names, flags, addresses, and file ranges.
type ELFBuilder struct {
	Sections []ELFSection
	// ImageBase is the virtual address of the single PT_LOAD segment, which
	// starts at file offset 0 and spans everything before the section header
	// table. The segment is emitted whenever SkipSegment is false, even if
	// ImageBase is zero.
	ImageBase uint64
	// SkipSegment omits the PT_LOAD segment entirely (image base 0).
	SkipSegment bool
}

const (
	ehdrSize = 64
	shdrSize = 64
)

// Build returns the serialized ELF image.
func (b ELFBuilder) Build() []byte {
	// Section 0 is the reserved null section; section 1..n are the caller's
	// sections; the last section is .shstrtab.
	shstrtab := []byte{0x00}
	nameOff := make([]uint32, len(b.Sections))
	for i, s := range b.Sections {
		nameOff[i] = uint32(len(shstrtab))
		shstrtab = append(shstrtab, []byte(s.Name)...)
		shstrtab = append(shstrtab, 0x00)
	}
	shstrtabNameOff := uint32(len(shstrtab))
	shstrtab = append(shstrtab, []byte(".shstrtab")...)
	shstrtab = append(shstrtab, 0x00)

	var phdrSize int
	if !b.SkipSegment {
		phdrSize = 56
	}

	// Lay out file content: ehdr, [phdr], section data (each at its own
	// offset), shstrtab, then the section header table.
	cursor := uint64(ehdrSize + phdrSize)

	dataOffsets := make([]uint64, len(b.Sections))
	buf := make([]byte, cursor)

	for i, s := range b.Sections {
		dataOffsets[i] = cursor
		buf = append(buf, s.Data...)
		cursor += uint64(len(s.Data))
	}

	shstrtabOffset := cursor
	buf = append(buf, shstrtab...)
	cursor += uint64(len(shstrtab))

	numSections := 2 + len(b.Sections) // null + caller sections + shstrtab
	shoff := cursor

	// Section header 0: null.
	shdrs := make([]byte, 0, numSections*shdrSize)
	shdrs = append(shdrs, make([]byte, shdrSize)...)

	for i, s := range b.Sections {
		shdrs = append(shdrs, sectionHeader(nameOff[i], 1 /*SHT_PROGBITS*/, s.Flags, s.Addr, dataOffsets[i], uint64(len(s.Data)))...)
	}

	shdrs = append(shdrs, sectionHeader(shstrtabNameOff, 3 /*SHT_STRTAB*/, 0, 0, shstrtabOffset, uint64(len(shstrtab)))...)

	buf = append(buf, shdrs...)

	ehdr := make([]byte, ehdrSize)
	copy(ehdr[0:4], []byte{0x7f, 'E', 'L', 'F'})
	ehdr[4] = 2 // ELFCLASS64
	ehdr[5] = 1 // ELFDATA2LSB
	ehdr[6] = 1 // EV_CURRENT
	binary.LittleEndian.PutUint16(ehdr[16:18], 1)      // e_type = ET_REL
	binary.LittleEndian.PutUint16(ehdr[18:20], 0x3e)   // e_machine = EM_X86_64
	binary.LittleEndian.PutUint32(ehdr[20:24], 1)      // e_version
	if !b.SkipSegment {
		binary.LittleEndian.PutUint64(ehdr[32:40], ehdrSize) // e_phoff
	}
	binary.LittleEndian.PutUint64(ehdr[40:48], shoff)  // e_shoff
	binary.LittleEndian.PutUint16(ehdr[52:54], ehdrSize)
	binary.LittleEndian.PutUint16(ehdr[54:56], uint16(phdrSize))
	if !b.SkipSegment {
		binary.LittleEndian.PutUint16(ehdr[56:58], 1)
	}
	binary.LittleEndian.PutUint16(ehdr[58:60], shdrSize)
	binary.LittleEndian.PutUint16(ehdr[60:62], uint16(numSections))
	binary.LittleEndian.PutUint16(ehdr[62:64], uint16(numSections-1)) // e_shstrndx

	copy(buf[0:ehdrSize], ehdr)

	if !b.SkipSegment {
		phdr := make([]byte, 56)
		binary.LittleEndian.PutUint32(phdr[0:4], 1) // PT_LOAD
		binary.LittleEndian.PutUint32(phdr[4:8], 7) // PF_R|PF_W|PF_X
		binary.LittleEndian.PutUint64(phdr[8:16], 0)
		binary.LittleEndian.PutUint64(phdr[16:24], b.ImageBase)
		binary.LittleEndian.PutUint64(phdr[24:32], b.ImageBase)
		binary.LittleEndian.PutUint64(phdr[32:40], cursor)
		binary.LittleEndian.PutUint64(phdr[40:48], cursor)
		binary.LittleEndian.PutUint64(phdr[48:56], 0x1000)
		copy(buf[ehdrSize:ehdrSize+56], phdr)
	}

	return buf
}

func sectionHeader(nameOff uint32, typ uint32, flags, addr, offset, size uint64) []byte {
	h := make([]byte, shdrSize)
	binary.LittleEndian.PutUint32(h[0:4], nameOff)
	binary.LittleEndian.PutUint32(h[4:8], typ)
	binary.LittleEndian.PutUint64(h[8:16], flags)
	binary.LittleEndian.PutUint64(h[16:24], addr)
	binary.LittleEndian.PutUint64(h[24:32], offset)
	binary.LittleEndian.PutUint64(h[32:40], size)

	return h
}
