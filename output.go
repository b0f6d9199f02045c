package graphcodec

import (
	"bytes"
	"io"

	"github.com/cockroachdb/errors"
)

// Output is the encode side of a call. Bytes accumulate in memory so frame
// prefixes can be backfilled, and reach the bound stream on Flush.
// An Output is owned by one goroutine between bind and release.
type Output struct {
	*Writer
	buf    *bytes.Buffer
	stream io.Writer
	tracks int // open size tracks
}

// NewOutput creates an unbound Output with the given initial capacity.
func NewOutput(size int) *Output {
	o := &Output{
		Writer: &Writer{order: Order},
		buf:    bytes.NewBuffer(make([]byte, 0, size)),
	}
	o.Writer.reset(&bytesBufferWriterAdapter{o.buf})
	return o
}

// SetStream binds the output to w; nil detaches it. Pending bytes are dropped.
func (o *Output) SetStream(w io.Writer) {
	o.stream = w
	o.buf.Reset()
	o.tracks = 0
	o.Writer.reset(&bytesBufferWriterAdapter{o.buf})
}

// Stream returns the bound stream.
func (o *Output) Stream() io.Writer { return o.stream }

// Len returns the number of bytes waiting to be flushed.
func (o *Output) Len() int { return o.buf.Len() }

// Bytes returns the bytes waiting to be flushed.
func (o *Output) Bytes() []byte { return o.buf.Bytes() }

// WriteNull writes the marker of a nil reference.
func (o *Output) WriteNull() { o.WriteUint32(NullSize) }

// BeginSizeTrack reserves room for a size prefix and returns its position.
func (o *Output) BeginSizeTrack() int {
	mark := o.buf.Len()
	o.WriteUint32(0)
	o.tracks++
	return mark
}

// WriteSizeTrack backfills the prefix reserved at mark with the number of
// bytes written since.
func (o *Output) WriteSizeTrack(mark int) error {
	if err := o.Err(); err != nil {
		return err
	}
	size := o.buf.Len() - mark - 4
	if mark < 0 || size < 0 {
		return errors.AssertionFailedf("size track at %d is past the buffer end %d", mark, o.buf.Len())
	}
	if size > MaxFrameSize {
		return errors.Wrapf(ErrFrameTooLarge, "%d bytes", size)
	}
	o.order.PutUint32(o.buf.Bytes()[mark:], uint32(size))
	o.tracks--
	return nil
}

// truncate drops everything written from mark on, open frames included.
func (o *Output) truncate(mark, tracks int) {
	o.buf.Truncate(mark)
	o.tracks = tracks
}

// Flush writes the completed bytes to the bound stream. It is a no-op while a
// frame is open or when no stream is bound.
func (o *Output) Flush() error {
	if err := o.Err(); err != nil {
		return err
	}
	if o.stream == nil || o.tracks > 0 || o.buf.Len() == 0 {
		return nil
	}
	n, err := o.stream.Write(o.buf.Bytes())
	if err == nil && n < o.buf.Len() {
		err = io.ErrShortWrite
	}
	o.buf.Reset()
	o.setError(err)
	return err
}

// release flushes and detaches the output before it goes back to its pool.
func (o *Output) release() {
	if o.stream != nil {
		_ = o.Flush()
	}
	o.SetStream(nil)
	if o.buf.Cap() > maxRetainedBuffer {
		o.buf = bytes.NewBuffer(make([]byte, 0, PoolSize))
		o.Writer.reset(&bytesBufferWriterAdapter{o.buf})
	}
}
