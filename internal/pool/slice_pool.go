package pool

import "sync"

// Slice pools for efficient reuse of typed byte slices. This backs the
// category coder's pre-encode scratch copies in filterForEncode: the
// no-op copy and the pre-transpose byte-swap buffer, both consumed
// entirely within one encodeOne call and released immediately after.
var (
	byteSlicePool = sync.Pool{
		New: func() any { return &[]byte{} },
	}
)

// GetByteSlice retrieves a byte slice of exact length size from the pool.
// If the pooled slice has insufficient capacity, a new one is allocated.
// The caller must invoke the returned cleanup function (typically via
// defer) to return the slice to the pool.
func GetByteSlice(size int) ([]byte, func()) {
	ptr, _ := byteSlicePool.Get().(*[]byte)
	slice := (*ptr)[:0]

	if cap(slice) < size {
		slice = make([]byte, size)
		*ptr = slice
	} else {
		slice = slice[:size]
		*ptr = slice
	}

	return slice, func() { byteSlicePool.Put(ptr) }
}
