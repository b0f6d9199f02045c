package graphcodec

import (
	"io"

	"github.com/cockroachdb/errors"
)

var (
	// ErrNilIO indicates that a reader/writer or a buffer was bound to a nil io.Reader/io.Writer.
	ErrNilIO = errors.New("codec: called with a nil io.Reader/io.Writer")

	// ErrInvalidWrite indicates that an io.Writer returned an invalid (negative) count from Write.
	ErrInvalidWrite = errors.New("codec: writer returned invalid count from Write")

	// ErrDiscardNegative indicates a Discard operation was attempted with a negative byte count.
	ErrDiscardNegative = errors.New("codec: cannot discard negative number of bytes")

	// ErrNoSerializer is returned when no provider in the chain accepts a type.
	ErrNoSerializer = errors.New("codec: no serializer for type")

	// ErrConstruction marks a failure to build the field tree of a type,
	// typically because one of its fields has a type no provider accepts.
	// The error is remembered for the type: it is fatal, not retried.
	// It is attached with errors.Mark: match it with errors.Is from
	// github.com/cockroachdb/errors.
	ErrConstruction = errors.New("codec: failed to build field serializers")

	// ErrCircularReference is returned when the recursion-depth guard of an
	// object codec trips. Reference cycles always end here.
	ErrCircularReference = errors.New("codec: circular references are not supported")

	// ErrCorruptFrame is returned when a read finds a size or layout that does
	// not match the field tree being applied.
	ErrCorruptFrame = errors.New("codec: corrupt frame")

	// ErrFrameTooLarge is returned when a frame body exceeds MaxFrameSize on write.
	ErrFrameTooLarge = errors.New("codec: frame exceeds maximum size")

	// ErrNilValue is returned when a top-level call receives an untyped nil.
	ErrNilValue = errors.New("codec: nil value")

	// ErrTypeMismatch is returned when a value does not have the type a helper was built for.
	ErrTypeMismatch = errors.New("codec: type mismatch")
)

// corrupt adds context to an error raised inside a frame. A clean or
// unexpected end of stream there means the frame was truncated, which is
// reported as ErrCorruptFrame with the read error attached as detail.
func corrupt(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	if err == io.EOF || errors.Is(err, io.ErrUnexpectedEOF) {
		return errors.WithSecondaryError(errors.Wrapf(ErrCorruptFrame, format, args...), err)
	}
	return errors.Wrapf(err, format, args...)
}
