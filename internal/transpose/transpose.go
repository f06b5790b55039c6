// Package transpose implements the in-place-safe byte transposition used
// to group same-offset record fields together before entropy coding, and
// its inverse.
package transpose

// Forward places byte in[i*stride+j] at out[j*n+i] for i in [0,n) and
// j in [0,stride), where n = len(in)/stride, and copies the len(in)-n*stride
// trailing bytes unchanged. Stride values below 2, and empty input, are the
// identity.
func Forward(in []byte, stride int) []byte {
	return permute(in, stride, false)
}

// Inverse reverses Forward.
func Inverse(in []byte, stride int) []byte {
	return permute(in, stride, true)
}

func permute(in []byte, stride int, inverse bool) []byte {
	if len(in) == 0 || stride < 2 {
		out := make([]byte, len(in))
		copy(out, in)
		return out
	}

	n := len(in) / stride
	end := n * stride
	out := make([]byte, len(in))

	for i := 0; i < n; i++ {
		for j := 0; j < stride; j++ {
			if inverse {
				out[i*stride+j] = in[j*n+i]
			} else {
				out[j*n+i] = in[i*stride+j]
			}
		}
	}

	copy(out[end:], in[end:])

	return out
}
