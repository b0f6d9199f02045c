package graphcodec

import (
	"bytes"
	"io"
)

// BytesWriter writes into a caller-owned slice and never grows it. A write
// that does not fit stores what it can and fails with io.ErrShortWrite.
type BytesWriter struct {
	buf []byte
	off int
}

var _ WriterPro = (*BytesWriter)(nil)

// NewBytesWriter writes into the full capacity of p.
func NewBytesWriter(p []byte) *BytesWriter {
	return &BytesWriter{buf: p[:cap(p)]}
}

func (w *BytesWriter) Write(p []byte) (int, error) {
	n := copy(w.buf[w.off:], p)
	w.off += n
	if n < len(p) {
		return n, io.ErrShortWrite
	}
	return n, nil
}

func (w *BytesWriter) WriteString(s string) (int, error) {
	n := copy(w.buf[w.off:], s)
	w.off += n
	if n < len(s) {
		return n, io.ErrShortWrite
	}
	return n, nil
}

func (w *BytesWriter) WriteByte(c byte) error {
	if w.off == len(w.buf) {
		return io.ErrShortWrite
	}
	w.buf[w.off] = c
	w.off++
	return nil
}

func (w *BytesWriter) Flush() error { return nil }

// Reset rewinds the writer so the slice can be filled again.
func (w *BytesWriter) Reset() { w.off = 0 }

// Len returns the number of bytes written.
func (w *BytesWriter) Len() int { return w.off }

// Size returns the capacity of the destination.
func (w *BytesWriter) Size() int { return len(w.buf) }

func (w *BytesWriter) Available() int { return len(w.buf) - w.off }

// Bytes returns the written part of the destination.
func (w *BytesWriter) Bytes() []byte { return w.buf[:w.off] }

// BytesReader reads from a slice without copying it first.
type BytesReader struct {
	buf []byte
	off int
}

var _ ReaderPro = (*BytesReader)(nil)

func NewBytesReader(b []byte) *BytesReader {
	return &BytesReader{buf: b}
}

func (r *BytesReader) Read(p []byte) (int, error) {
	if r.off >= len(r.buf) {
		return 0, io.EOF
	}
	n := copy(p, r.buf[r.off:])
	r.off += n
	return n, nil
}

func (r *BytesReader) ReadByte() (byte, error) {
	if r.off >= len(r.buf) {
		return 0, io.EOF
	}
	r.off++
	return r.buf[r.off-1], nil
}

// Reset rewinds the reader to the start of the slice.
func (r *BytesReader) Reset() { r.off = 0 }

// Len returns the number of bytes consumed.
func (r *BytesReader) Len() int { return r.off }

// Size returns the length of the source slice.
func (r *BytesReader) Size() int { return len(r.buf) }

// Available returns the number of bytes left to read.
func (r *BytesReader) Available() int { return max(len(r.buf)-r.off, 0) }

// The standard in-memory types lack Size or Flush; these adapters let them
// back a Writer or Reader without an extra buffering layer.
type (
	bytesReaderAdapter       struct{ *bytes.Reader }
	bytesBufferWriterAdapter struct{ *bytes.Buffer }
	bytesBufferReaderAdapter struct{ *bytes.Buffer }
)

func (a *bytesReaderAdapter) Size() int { return int(a.Reader.Size()) }

func (a *bytesBufferWriterAdapter) Size() int { return a.Cap() }

func (a *bytesBufferWriterAdapter) Flush() error { return nil }

func (a *bytesBufferReaderAdapter) Size() int { return a.Len() }
