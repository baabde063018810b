package backend

import (
	"math"
	"strings"
)

// collect copies a native-allocated array of count elements into Go memory
// and then releases the native array exactly once through free.
//
// A null array with a zero count is an empty result and free is not called.
// A null array with a non-zero count is a contract violation and is reported
// as KindProtocol; the array is not touched and free is not called.
func collect[R any](op string, null bool, count uint64, at func(i int) R, free func()) ([]R, error) {
	if null {
		if count == 0 {
			return []R{}, nil
		}
		return nil, newError(op, KindProtocol, "null buffer with %d elements", count)
	}
	if count > math.MaxInt32 {
		// The array is live but its length cannot be trusted; releasing it
		// with this count could free memory that was never allocated.
		return nil, newError(op, KindProtocol, "element count %d out of range", count)
	}

	out := make([]R, int(count))
	for i := range out {
		out[i] = at(i)
	}
	free()
	return out, nil
}

// encodeText rejects strings that cannot cross as NUL-terminated text.
func encodeText(op, s string) error {
	if i := strings.IndexByte(s, 0); i >= 0 {
		return newError(op, KindEncoding, "embedded NUL byte at offset %d", i)
	}
	return nil
}

// checkDimension validates a dimension reported by the engine before it is
// used to size a buffer the engine will write into.
func checkDimension(op string, dim int64) (int, error) {
	if dim <= 0 || dim > math.MaxInt32 {
		return 0, newError(op, KindProtocol, "engine reported dimension %d", dim)
	}
	return int(dim), nil
}
