package compress

import (
	"bytes"
	"fmt"
	"io"

	"github.com/ulikunitz/xz/lzma"

	"github.com/fesh-project/fesh/internal/pool"
)

// MaxDictCap is the largest dictionary capacity a decoder ever needs:
// decode only requires DictCap to upper-bound whatever capacity the
// encoder chose, so Decompress always requests it regardless of what
// Params.DictCap the matching Compress call used.
const MaxDictCap = 1 << 26

// MinDictCap and MaxTunedDictCap bound the per-stream dictionary capacity
// spec.md §4.9 derives from stream length ("next power of two ≥ stream
// length, clamped to [2^16, 2^26]").
const (
	MinDictCap      = 1 << 16
	MaxTunedDictCap = 1 << 26
)

// defaultLC is the literal-context-bits value an unspecified Params.LC
// falls back to: LZMA's own conventional default, used for the categories
// spec.md §4.9 compresses once rather than running the two-pass selector.
const defaultLC = 3

// Params tunes one LZMA2 encode: literal-context-bits, position-bits, and
// dictionary capacity, per spec.md §4.9. LC of zero is a valid tuning
// choice (the two-pass selector's second pass), so UseDefaultLC picks
// defaultLC instead of relying on the zero value.
type Params struct {
	LC           int
	UseDefaultLC bool
	PB           int
	DictCap      int
}

// DictSize returns the next power of two at or above n, clamped to
// [MinDictCap, MaxTunedDictCap].
func DictSize(n int) int {
	d := MinDictCap
	for d < n && d < MaxTunedDictCap {
		d <<= 1
	}
	return d
}

// Compress encodes data as a single self-contained LZMA2 stream. An empty
// input produces an empty stream; callers are expected to skip compressing
// (and later decompressing) empty category streams entirely.
func Compress(data []byte, p Params) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	lc := p.LC
	if p.UseDefaultLC {
		lc = defaultLC
	}

	props := lzma.Properties{LC: lc, LP: 0, PB: p.PB}

	cfg := lzma.Writer2Config{
		Properties: &props,
		DictCap:    p.DictCap,
	}

	buf := pool.GetStreamBuffer()
	defer pool.PutStreamBuffer(buf)

	w, err := cfg.NewWriter2(buf)
	if err != nil {
		return nil, fmt.Errorf("lzma2 writer: %w", err)
	}

	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("lzma2 compress: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("lzma2 compress: close: %w", err)
	}

	return append([]byte(nil), buf.Bytes()...), nil
}

// Decompress decodes an LZMA2 stream produced by Compress. It always
// requests MaxDictCap: decode only needs an upper bound on the encoder's
// dictionary capacity, never the exact value, so the per-stream tuning
// Compress applied does not need to be persisted anywhere for decode to
// work.
func Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	cfg := lzma.Reader2Config{DictCap: MaxDictCap}
	r, err := cfg.NewReader2(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("lzma2 reader: %w", err)
	}

	out := pool.GetStreamBuffer()
	defer pool.PutStreamBuffer(out)

	if _, err := io.Copy(out, r); err != nil {
		return nil, fmt.Errorf("lzma2 decompress: %w", err)
	}

	return append([]byte(nil), out.Bytes()...), nil
}
