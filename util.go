package graphcodec

import (
	"encoding/binary"
	"io"

	"golang.org/x/exp/constraints"
)

var (
	BE = binary.BigEndian
	LE = binary.LittleEndian
	// Order is the byte order of every prefix and primitive on the wire.
	Order = BE
)

const (
	// PoolSize is the initial capacity of pooled Output and Input buffers.
	PoolSize = 2048 * 4

	// MaxStack is how many nested invocations of one object codec a single
	// call may make before the cycle guard trips.
	MaxStack = 32

	// MaxFrameSize bounds the body of one frame, on both sides of the wire.
	MaxFrameSize = 1 << 30

	// NullSize takes the place of a size prefix to encode a nil reference.
	NullSize = ^uint32(0)

	// maxRetainedBuffer is the largest buffer a pool keeps after release.
	maxRetainedBuffer = 1 << 20
)

// Ptr returns a pointer to a copy of v.
func Ptr[T any](v T) *T { return &v }

// Discard reads and drops exactly n bytes from r.
func Discard(r io.Reader, n int64) (int64, error) {
	if n == 0 {
		return 0, nil
	}
	if n < 0 {
		return 0, ErrDiscardNegative
	}
	skipped, err := io.CopyN(io.Discard, r, n)
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return skipped, err
}

// Roundup rounds n up to the nearest multiple of align.
func Roundup[T constraints.Integer](n, align T) T { return (n + (align - 1)) &^ (align - 1) }
