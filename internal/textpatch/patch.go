// Package textpatch implements spec.md §4.4: normalizing IP-relative
// 32-bit displacements and near-branch immediates found in every
// .text-kind section of the image.
package textpatch

import (
	"encoding/binary"

	"github.com/fesh-project/fesh/internal/objectimage"
	"github.com/fesh-project/fesh/internal/xinstr"
)

// Apply rewrites every PC-relative 32-bit field in buf's .text-kind
// sections in place. When compress is true it computes
// normalized = (original + nextIP) - imageBase; when false it inverts
// that: original = (normalized + imageBase) - nextIP. useBE selects the
// byte order the normalized 32-bit value is stored in, matching the outer
// endian-mode probe (spec.md §4.4 "Endian-mode flag").
//
// If img is nil or its architecture doesn't match the native transform
// target, Apply is a no-op: the pipeline degrades to the identity path for
// this transform, per spec.md §4 invariant 4.
func Apply(buf []byte, img *objectimage.Image, useBE bool, compress bool) {
	if img == nil || !img.IsTarget {
		return
	}

	for _, sec := range img.Sections {
		if sec.Kind != objectimage.KindText || !sec.HasFileRange {
			continue
		}

		size := uint64(len(sec.Data))
		if sec.FileOffset+size > uint64(len(buf)) {
			continue
		}

		window := buf[sec.FileOffset : sec.FileOffset+size]

		var hits []xinstr.PCRelHit
		xinstr.ScanPCRel32(window, sec.Addr, sec.FileOffset, func(hit xinstr.PCRelHit) {
			hits = append(hits, hit)
		})

		for _, hit := range hits {
			patchField(buf, hit.FieldFileOffset, hit.NextIP, img.ImageBase, useBE, compress)
		}
	}
}

func patchField(buf []byte, fieldOffset uint64, nextIP uint32, imageBase uint64, useBE, compress bool) {
	if fieldOffset+4 > uint64(len(buf)) {
		return
	}
	field := buf[fieldOffset : fieldOffset+4]

	if compress {
		cur := binary.LittleEndian.Uint32(field)
		dest := cur + nextIP
		norm := dest - uint32(imageBase)
		writeU32(field, norm, useBE)
	} else {
		norm := readU32(field, useBE)
		dest := norm + uint32(imageBase)
		orig := dest - nextIP
		binary.LittleEndian.PutUint32(field, orig)
	}
}

func readU32(b []byte, be bool) uint32 {
	if be {
		return binary.BigEndian.Uint32(b)
	}

	return binary.LittleEndian.Uint32(b)
}

func writeU32(b []byte, v uint32, be bool) {
	if be {
		binary.BigEndian.PutUint32(b, v)
	} else {
		binary.LittleEndian.PutUint32(b, v)
	}
}
