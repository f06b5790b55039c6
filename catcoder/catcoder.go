// Package catcoder implements spec.md §4.9: applying the per-category
// byte-swap and transposition filters to the numeric categories, then
// entropy-coding all fifteen category streams, with the tuned
// position-bits/dictionary-size/two-pass-literal-context-bits selection
// the spec describes, run concurrently via internal/fanout.
package catcoder

import (
	"context"
	"fmt"

	"github.com/fesh-project/fesh/compress"
	"github.com/fesh-project/fesh/internal/byteswap"
	"github.com/fesh-project/fesh/internal/category"
	"github.com/fesh-project/fesh/internal/fanout"
	"github.com/fesh-project/fesh/internal/pool"
	"github.com/fesh-project/fesh/internal/transpose"
)

// positionBits returns the tuned pb for a category: 2 for CODE/EH/OTHER,
// 0 for everything else.
func positionBits(cat category.Category) int {
	switch cat {
	case category.Code, category.EH, category.Other:
		return 2
	default:
		return 0
	}
}

// twoPassLC reports whether a category's compression should trial both
// literal-context-bits = 3 and = 0 and keep the smaller output. CODE, EH,
// and OTHER instead compress once with the encoder's default.
func twoPassLC(cat category.Category) bool {
	return cat != category.Code && cat != category.EH && cat != category.Other
}

// filterForEncode applies the category's byte-swap and transpose filters
// (a no-op for OTHER/CODE/STR/EH) to a fresh copy of data, leaving data
// itself untouched. Both the no-op copy and the pre-transpose swap scratch
// come from the byte-slice pool: the caller must invoke the returned
// release func once it is done with the returned slice (after the entropy
// coder has read it).
func filterForEncode(cat category.Category, data []byte) ([]byte, func()) {
	stride, ok := cat.Stride()
	if !ok {
		out, release := pool.GetByteSlice(len(data))
		copy(out, data)
		return out, release
	}

	swapped, releaseSwap := pool.GetByteSlice(len(data))
	copy(swapped, data)
	byteswap.Category(swapped, cat)

	out := transpose.Forward(swapped, stride)
	releaseSwap()

	return out, func() {}
}

// unfilterForDecode inverts filterForEncode: transpose.Inverse, then the
// same byte-swap (its own inverse). Unlike filterForEncode's scratch
// copies, the returned slice becomes the decoded category stream the
// router merges back into the skeleton, so it is never pool-backed: data
// itself (compress.Decompress's own fresh, exclusively-owned output) is
// returned directly in the no-op case rather than copied again.
func unfilterForDecode(cat category.Category, data []byte) []byte {
	stride, ok := cat.Stride()
	if !ok {
		return data
	}

	untransposed := transpose.Inverse(data, stride)
	byteswap.Category(untransposed, cat)

	return untransposed
}

// EncodeAll filters and compresses all fifteen category streams
// concurrently, returning one compressed byte slice per category (nil for
// an empty stream).
func EncodeAll(ctx context.Context, streams [category.Count][]byte) ([category.Count][]byte, error) {
	results, err := fanout.Map(ctx, category.Count, func(_ context.Context, i int) ([]byte, error) {
		cat := category.Category(i)
		return encodeOne(cat, streams[i])
	})
	if err != nil {
		return [category.Count][]byte{}, err
	}

	var out [category.Count][]byte
	for i, r := range results {
		out[i] = r
	}
	return out, nil
}

func encodeOne(cat category.Category, data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	filtered, release := filterForEncode(cat, data)
	defer release()

	pb := positionBits(cat)
	dict := compress.DictSize(len(filtered))

	if !twoPassLC(cat) {
		out, err := compress.Compress(filtered, compress.Params{UseDefaultLC: true, PB: pb, DictCap: dict})
		if err != nil {
			return nil, fmt.Errorf("catcoder: encode %s: %w", cat, err)
		}
		return out, nil
	}

	c3, err := compress.Compress(filtered, compress.Params{LC: 3, PB: pb, DictCap: dict})
	if err != nil {
		return nil, fmt.Errorf("catcoder: encode %s (lc=3): %w", cat, err)
	}
	c0, err := compress.Compress(filtered, compress.Params{LC: 0, PB: pb, DictCap: dict})
	if err != nil {
		return nil, fmt.Errorf("catcoder: encode %s (lc=0): %w", cat, err)
	}

	if len(c0) < len(c3) {
		return c0, nil
	}
	return c3, nil
}

// DecodeAll decompresses and unfilters all fifteen category streams
// concurrently. streamLen gives each category's expected decompressed
// length (zero for a category with no bytes at all), so a compressed nil
// entry can be distinguished from "decompress to empty".
func DecodeAll(ctx context.Context, compressed [category.Count][]byte, streamLen [category.Count]int) ([category.Count][]byte, error) {
	results, err := fanout.Map(ctx, category.Count, func(_ context.Context, i int) ([]byte, error) {
		cat := category.Category(i)
		return decodeOne(cat, compressed[i], streamLen[i])
	})
	if err != nil {
		return [category.Count][]byte{}, err
	}

	var out [category.Count][]byte
	for i, r := range results {
		out[i] = r
	}
	return out, nil
}

func decodeOne(cat category.Category, data []byte, wantLen int) ([]byte, error) {
	if wantLen == 0 {
		return nil, nil
	}

	filtered, err := compress.Decompress(data)
	if err != nil {
		return nil, fmt.Errorf("catcoder: decode %s: %w", cat, err)
	}
	if len(filtered) != wantLen {
		return nil, fmt.Errorf("catcoder: decode %s: got %d bytes, want %d", cat, len(filtered), wantLen)
	}

	return unfilterForDecode(cat, filtered), nil
}
