// Package xinstr wraps golang.org/x/arch/x86/x86asm as this module's
// "x86-64 instruction decoder" collaborator (spec.md §6): a streaming
// decode that reports each instruction's length and the byte offset/size
// of any PC-relative constant field it carries.
package xinstr

import "golang.org/x/arch/x86/x86asm"

// PCRelHit is one PC-relative 32-bit field found while scanning a .text
// section: the file offset of the field, and the "next-IP" (the virtual
// address immediately after the owning instruction, truncated to 32 bits)
// that spec.md §4.4's patch arithmetic is relative to.
type PCRelHit struct {
	FieldFileOffset uint64
	NextIP          uint32
}

// ScanPCRel32 decodes data (the raw bytes of a .text-kind section) as a
// stream of x86-64 instructions starting at virtual address va, and calls
// fn for every instruction that carries a 4-byte PC-relative field.
//
// x86asm computes PCRel/PCRelOff uniformly for every PC-relative encoding:
// RIP-relative memory operands and the displacement of near calls, near
// jumps, and short-or-near conditional jumps alike. A single PCRel == 4
// check therefore covers every field spec.md §4.4 names without needing a
// separate per-instruction-kind classification, and decompression can
// reproduce the exact same predicate from the same (reconstructed) bytes,
// satisfying the reversibility rule in spec.md §9.
//
// fileBase is the file offset corresponding to data[0]; a malformed or
// undecodable byte is skipped one byte at a time, same as any disassembler
// resynchronizing after a decode failure.
func ScanPCRel32(data []byte, va uint64, fileBase uint64, fn func(hit PCRelHit)) {
	pos := 0
	for pos < len(data) {
		inst, err := x86asm.Decode(data[pos:], 64)
		if err != nil || inst.Len == 0 {
			pos++
			continue
		}

		if inst.PCRel == 4 {
			fieldOff := pos + inst.PCRelOff
			if fieldOff >= 0 && fieldOff+4 <= len(data) {
				nextIP := uint32(va + uint64(pos) + uint64(inst.Len))
				fn(PCRelHit{
					FieldFileOffset: fileBase + uint64(fieldOff),
					NextIP:          nextIP,
				})
			}
		}

		pos += inst.Len
	}
}
