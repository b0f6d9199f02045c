package graphcodec

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"io"
	"math"
	"unsafe"
)

// ReaderPro is the source a Reader drives.
type ReaderPro interface {
	io.Reader
	io.ByteReader
	Size() int
}

// Reader reads fixed-width values in a configurable byte order. The first
// error is latched: later reads leave their destination untouched.
type Reader struct {
	r       ReaderPro
	count   int64
	err     error
	order   binary.ByteOrder
	scratch [8]byte
}

var _ ReaderPro = (*Reader)(nil)

// wrapReader picks the cheapest ReaderPro for r. In-memory sources are read
// directly; anything else goes through br after a Reset.
func wrapReader(r io.Reader, br *bufio.Reader) ReaderPro {
	switch src := r.(type) {
	case *Reader:
		return src.r
	case *bufio.Reader:
		return src
	case *BytesReader:
		return src
	case *bytes.Reader:
		return &bytesReaderAdapter{src}
	case *bytes.Buffer:
		return &bytesBufferReaderAdapter{src}
	}
	br.Reset(r)
	return br
}

// NewReaderSize creates a Reader over r, buffering it with at least size
// bytes when it is not already in memory.
func NewReaderSize(r io.Reader, size int) (*Reader, error) {
	if r == nil {
		return nil, ErrNilIO
	}
	return &Reader{
		r:     wrapReader(r, bufio.NewReaderSize(nil, max(size, 16))),
		order: Order,
	}, nil
}

func NewReader(r io.Reader) (*Reader, error) { return NewReaderSize(r, 4096) }

// WithByteOrder changes the byte order of later reads.
func (r *Reader) WithByteOrder(order binary.ByteOrder) *Reader {
	r.order = order
	return r
}

// reset rebinds the reader to src and clears the count and latched error.
func (r *Reader) reset(src ReaderPro) {
	r.r, r.count, r.err = src, 0, nil
	if r.order == nil {
		r.order = Order
	}
}

func (r *Reader) Read(p []byte) (int, error) {
	if r.err != nil {
		return 0, r.err
	}
	n, err := r.r.Read(p)
	r.count += int64(n)
	r.setError(err)
	return n, r.err
}

func (r *Reader) ReadByte() (byte, error) {
	if r.err != nil {
		return 0, r.err
	}
	b, err := r.r.ReadByte()
	if err != nil {
		r.err = err
		return 0, err
	}
	r.count++
	return b, nil
}

func (r *Reader) Size() int    { return r.r.Size() }
func (r *Reader) Count() int64 { return r.count }
func (r *Reader) Err() error   { return r.err }

// IsEOF reports whether the reader stopped at a clean end of stream.
func (r *Reader) IsEOF() bool { return r.err == io.EOF }

func (r *Reader) setError(err error) {
	if r.err == nil && err != nil {
		r.err = err
	}
}

// Result returns the byte count and the latched error.
func (r *Reader) Result() (int64, error) { return r.count, r.err }

// ReadBytesTo fills dest. Running out of input part way is ErrUnexpectedEOF.
func (r *Reader) ReadBytesTo(dest []byte) {
	if r.err != nil || len(dest) == 0 {
		return
	}
	if _, err := io.ReadFull(r, dest); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		r.err = err
	}
}

// ReadBytes reads n bytes into a new slice. It returns nil on error.
func (r *Reader) ReadBytes(n int) []byte {
	if n <= 0 || r.err != nil {
		return nil
	}
	buf := make([]byte, n)
	if r.ReadBytesTo(buf); r.err != nil {
		return nil
	}
	return buf
}

// ReadString reads n bytes as a string without copying them twice.
func (r *Reader) ReadString(n int) string {
	buf := r.ReadBytes(n)
	if len(buf) == 0 {
		return ""
	}
	return unsafe.String(unsafe.SliceData(buf), len(buf))
}

// fixed reads n ≤ 8 bytes into the scratch buffer, or returns nil.
func (r *Reader) fixed(n int) []byte {
	r.ReadBytesTo(r.scratch[:n])
	if r.err != nil {
		return nil
	}
	return r.scratch[:n]
}

func (r *Reader) ReadBool(dest *bool) {
	if b, err := r.ReadByte(); err == nil {
		*dest = b != 0
	}
}

func (r *Reader) ReadUint8(dest *uint8) {
	if b, err := r.ReadByte(); err == nil {
		*dest = b
	}
}

func (r *Reader) ReadInt8(dest *int8) {
	if b, err := r.ReadByte(); err == nil {
		*dest = int8(b)
	}
}

func (r *Reader) ReadUint16(dest *uint16) {
	if b := r.fixed(2); b != nil {
		*dest = r.order.Uint16(b)
	}
}

func (r *Reader) ReadUint32(dest *uint32) {
	if b := r.fixed(4); b != nil {
		*dest = r.order.Uint32(b)
	}
}

func (r *Reader) ReadUint64(dest *uint64) {
	if b := r.fixed(8); b != nil {
		*dest = r.order.Uint64(b)
	}
}

func (r *Reader) ReadInt16(dest *int16) {
	if b := r.fixed(2); b != nil {
		*dest = int16(r.order.Uint16(b))
	}
}

func (r *Reader) ReadInt32(dest *int32) {
	if b := r.fixed(4); b != nil {
		*dest = int32(r.order.Uint32(b))
	}
}

func (r *Reader) ReadInt64(dest *int64) {
	if b := r.fixed(8); b != nil {
		*dest = int64(r.order.Uint64(b))
	}
}

func (r *Reader) ReadFloat32(dest *float32) {
	if b := r.fixed(4); b != nil {
		*dest = math.Float32frombits(r.order.Uint32(b))
	}
}

func (r *Reader) ReadFloat64(dest *float64) {
	if b := r.fixed(8); b != nil {
		*dest = math.Float64frombits(r.order.Uint64(b))
	}
}
