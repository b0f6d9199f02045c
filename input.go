package graphcodec

import (
	"bufio"
	"io"

	"github.com/cockroachdb/errors"
)

// Input is the decode side of a call. Reads go through a reusable
// bufio.Reader unless the stream is already in memory.
// An Input is owned by one goroutine between bind and release.
type Input struct {
	*Reader
	br     *bufio.Reader
	stream io.Reader
}

// NewInput creates an unbound Input with the given buffer size.
func NewInput(size int) *Input {
	return &Input{
		Reader: &Reader{order: Order},
		br:     bufio.NewReaderSize(nil, size),
	}
}

// SetStream binds the input to r; nil detaches it.
func (in *Input) SetStream(r io.Reader) {
	in.stream = r
	if r == nil {
		in.br.Reset(nil)
		in.Reader.reset(nil)
		return
	}
	in.Reader.reset(wrapReader(r, in.br))
}

// Stream returns the bound stream.
func (in *Input) Stream() io.Reader { return in.stream }

// Position returns the number of bytes consumed since the stream was bound.
func (in *Input) Position() int64 { return in.Count() }

// BeginReadSize reads a size prefix. It returns false when the stream holds a
// null marker instead; otherwise end is the position right after the frame.
func (in *Input) BeginReadSize() (end int64, ok bool, err error) {
	var size uint32
	in.ReadUint32(&size)
	if err := in.Err(); err != nil {
		return 0, false, err
	}
	if size == NullSize {
		return 0, false, nil
	}
	if size > MaxFrameSize {
		return 0, false, errors.Wrapf(ErrCorruptFrame, "frame size %d exceeds %d", size, MaxFrameSize)
	}
	return in.Count() + int64(size), true, nil
}

// EndObject moves the input to end, skipping whatever the frame holds past
// the fields that were read.
func (in *Input) EndObject(end int64) error {
	if err := in.Err(); err != nil {
		return err
	}
	pos := in.Count()
	if pos > end {
		return errors.Wrapf(ErrCorruptFrame, "read %d bytes past the frame end", pos-end)
	}
	if _, err := Discard(in, end-pos); err != nil {
		return corrupt(err, "skipping %d trailing bytes", end-pos)
	}
	return nil
}

// Remaining reports how many bytes of the frame ending at end are left.
func (in *Input) Remaining(end int64) int64 { return end - in.Count() }

// FinishRead drops the bytes buffered ahead of the consumed payload. A
// seekable stream is moved back so it sits right after the payload.
func (in *Input) FinishRead() error {
	if in.stream == nil || in.Reader.r != in.br {
		return nil
	}
	unread := in.br.Buffered()
	if unread == 0 {
		return nil
	}
	_, _ = in.br.Discard(unread)
	if seeker, ok := in.stream.(io.Seeker); ok {
		if _, err := seeker.Seek(-int64(unread), io.SeekCurrent); err != nil {
			return errors.Wrap(err, "rewinding stream")
		}
	}
	return nil
}

// release discards unread bytes and detaches the input before it goes back to its pool.
func (in *Input) release() {
	_ = in.FinishRead()
	in.SetStream(nil)
}
