// Package ehpatch implements spec.md §4.5: normalizing the binary-search
// table pointers in a .eh_frame_hdr section.
package ehpatch

import (
	"encoding/binary"

	"github.com/fesh-project/fesh/internal/objectimage"
)

const (
	tableEncPCRel   = 0x1b // sdata4 | DW_EH_PE_pcrel
	tableEncDataRel = 0x3b // sdata4 | DW_EH_PE_datarel
	ptrEncOmit      = 0xFF
)

// fixedSize returns the byte width of an EH pointer-encoding byte for a
// fixed-size (non-uleb128) encoding, per the standard DW_EH_PE table, and
// false for variable-width or unsupported encodings.
func fixedSize(enc byte, ptrSize int) (int, bool) {
	if enc == ptrEncOmit {
		return 0, true
	}

	switch enc & 0x0F {
	case 0x00:
		return ptrSize, true
	case 0x02, 0x0A: // sdata2 / udata2
		return 2, true
	case 0x03, 0x0B: // sdata4 / udata4
		return 4, true
	case 0x04, 0x0C: // sdata8 / udata8
		return 8, true
	default: // uleb128 and friends
		return 0, false
	}
}

type patch struct {
	fileOffset uint64
	baseVA     uint64
}

// Apply rewrites every table entry of the image's .eh_frame_hdr section in
// place. On compress it stores abs = baseVA + field - imageBase (when that
// fits in 32 bits); on decompress it inverts that. Sections whose header
// doesn't match version 1 / a supported table encoding / a 4-byte
// fde_count are left untouched, since that decision depends only on header
// bytes both sides can see identically.
func Apply(buf []byte, img *objectimage.Image, useBE, compress bool) {
	if img == nil {
		return
	}

	for _, sec := range img.Sections {
		if sec.Name != ".eh_frame_hdr" || !sec.HasFileRange {
			continue
		}

		size := uint64(len(sec.Data))
		if sec.FileOffset+size > uint64(len(buf)) || size < 8 {
			continue
		}

		window := buf[sec.FileOffset : sec.FileOffset+size]

		patches, ok := discoverPatches(window, sec.Addr, sec.FileOffset)
		if !ok {
			continue
		}

		for _, p := range patches {
			applyPatch(buf, p, img.ImageBase, useBE, compress)
		}
	}
}

func discoverPatches(data []byte, sectionVA, fileOffset uint64) ([]patch, bool) {
	version := data[0]
	ehFramePtrEnc := data[1]
	fdeCountEnc := data[2]
	tableEnc := data[3]

	if version != 1 {
		return nil, false
	}
	if tableEnc != tableEncPCRel && tableEnc != tableEncDataRel {
		return nil, false
	}

	pos := 4
	skipSz, ok := fixedSize(ehFramePtrEnc, 8)
	if !ok {
		return nil, false
	}
	pos += skipSz

	fdeCountSz, ok := fixedSize(fdeCountEnc, 8)
	if !ok {
		return nil, false
	}
	if fdeCountSz != 4 {
		return nil, false
	}
	if pos+4 > len(data) {
		return nil, false
	}

	fdeCount := int(binary.LittleEndian.Uint32(data[pos : pos+4]))
	pos += 4

	tableBytes := fdeCount * 8
	if pos+tableBytes > len(data) {
		return nil, false
	}

	patches := make([]patch, 0, fdeCount*2)
	for i := 0; i < fdeCount*2; i++ {
		fieldPos := pos + i*4
		fieldVA := sectionVA + uint64(fieldPos)

		baseVA := sectionVA
		if tableEnc == tableEncPCRel {
			baseVA = fieldVA
		}

		patches = append(patches, patch{
			fileOffset: fileOffset + uint64(fieldPos),
			baseVA:     baseVA,
		})
	}

	return patches, true
}

func applyPatch(buf []byte, p patch, imageBase uint64, useBE, compress bool) {
	if p.fileOffset+4 > uint64(len(buf)) {
		return
	}
	field := buf[p.fileOffset : p.fileOffset+4]

	if compress {
		curRel := int32(binary.LittleEndian.Uint32(field))
		absVA := p.baseVA + uint64(curRel) - imageBase
		if absVA > 0xFFFFFFFF {
			return
		}
		if useBE {
			binary.BigEndian.PutUint32(field, uint32(absVA))
		} else {
			binary.LittleEndian.PutUint32(field, uint32(absVA))
		}
	} else {
		var absVA32 uint32
		if useBE {
			absVA32 = binary.BigEndian.Uint32(field)
		} else {
			absVA32 = binary.LittleEndian.Uint32(field)
		}
		origRel := uint32(uint64(absVA32) + imageBase - p.baseVA)
		binary.LittleEndian.PutUint32(field, origRel)
	}
}
