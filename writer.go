package graphcodec

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"io"
	"math"
)

// WriterPro is the sink a Writer drives.
type WriterPro interface {
	io.Writer
	io.ByteWriter
	io.StringWriter
	Size() int
	Flush() error
}

// Writer writes fixed-width values in a configurable byte order. The first
// error is latched: every later write is a no-op and Err keeps reporting it.
type Writer struct {
	w       WriterPro
	count   int64
	err     error
	nested  bool // shares the sink of an outer Writer, which owns Flush
	order   binary.ByteOrder
	scratch [8]byte
}

var _ WriterPro = (*Writer)(nil)

// NewWriterSize creates a Writer over w. In-memory sinks are written
// directly; other sinks get a bufio.Writer of at least size bytes.
func NewWriterSize(w io.Writer, size int) (*Writer, error) {
	if w == nil {
		return nil, ErrNilIO
	}
	out := &Writer{order: Order}
	switch sink := w.(type) {
	case *Writer:
		if sink.w.Size() >= size {
			out.w, out.nested, out.order = sink.w, true, sink.order
			return out, nil
		}
		out.w = bufio.NewWriterSize(sink, size)
	case *bufio.Writer:
		out.w = sink
	case *BytesWriter:
		out.w = sink
	case *bytes.Buffer:
		out.w = &bytesBufferWriterAdapter{sink}
	default:
		out.w = bufio.NewWriterSize(w, size)
	}
	return out, nil
}

func NewWriter(w io.Writer) (*Writer, error) { return NewWriterSize(w, 0) }

// WithByteOrder changes the byte order of later writes.
func (w *Writer) WithByteOrder(order binary.ByteOrder) *Writer {
	w.order = order
	return w
}

// reset rebinds the writer to sink and clears the count and latched error.
func (w *Writer) reset(sink WriterPro) {
	w.w, w.count, w.err, w.nested = sink, 0, nil, false
	if w.order == nil {
		w.order = Order
	}
}

func (w *Writer) Write(p []byte) (int, error) {
	if w.err != nil || len(p) == 0 {
		return 0, w.err
	}
	n, err := w.w.Write(p)
	if n < 0 {
		n, err = 0, ErrInvalidWrite
	}
	w.count += int64(n)
	w.setError(err)
	return n, w.err
}

func (w *Writer) WriteString(s string) (int, error) {
	if w.err != nil || s == "" {
		return 0, w.err
	}
	n, err := w.w.WriteString(s)
	w.count += int64(n)
	w.setError(err)
	return n, w.err
}

func (w *Writer) WriteByte(c byte) error {
	if w.err != nil {
		return w.err
	}
	if err := w.w.WriteByte(c); err != nil {
		w.err = err
		return err
	}
	w.count++
	return nil
}

func (w *Writer) Size() int    { return w.w.Size() }
func (w *Writer) Count() int64 { return w.count }
func (w *Writer) Err() error   { return w.err }

func (w *Writer) setError(err error) {
	if w.err == nil && err != nil {
		w.err = err
	}
}

// Result flushes and returns the byte count and the latched error.
func (w *Writer) Result() (int64, error) {
	_ = w.Flush()
	return w.count, w.err
}

// Flush pushes buffered bytes to the sink. A nested Writer leaves that to
// its owner.
func (w *Writer) Flush() error {
	if w.nested || w.err != nil {
		return w.err
	}
	w.setError(w.w.Flush())
	return w.err
}

func (w *Writer) WriteBytes(p []byte) { _, _ = w.Write(p) }

// writeScratch writes the first n scratch bytes.
func (w *Writer) writeScratch(n int) { _, _ = w.Write(w.scratch[:n]) }

func (w *Writer) WriteBool(v bool) {
	var b byte
	if v {
		b = 1
	}
	_ = w.WriteByte(b)
}

func (w *Writer) WriteUint8(v uint8) { _ = w.WriteByte(v) }
func (w *Writer) WriteInt8(v int8)   { _ = w.WriteByte(byte(v)) }

func (w *Writer) WriteUint16(v uint16) {
	w.order.PutUint16(w.scratch[:2], v)
	w.writeScratch(2)
}

func (w *Writer) WriteUint32(v uint32) {
	w.order.PutUint32(w.scratch[:4], v)
	w.writeScratch(4)
}

func (w *Writer) WriteUint64(v uint64) {
	w.order.PutUint64(w.scratch[:8], v)
	w.writeScratch(8)
}

func (w *Writer) WriteInt16(v int16)     { w.WriteUint16(uint16(v)) }
func (w *Writer) WriteInt32(v int32)     { w.WriteUint32(uint32(v)) }
func (w *Writer) WriteInt64(v int64)     { w.WriteUint64(uint64(v)) }
func (w *Writer) WriteFloat32(v float32) { w.WriteUint32(math.Float32bits(v)) }
func (w *Writer) WriteFloat64(v float64) { w.WriteUint64(math.Float64bits(v)) }
