package graphcodec

import (
	"bytes"
	"io"
	"reflect"
	"unsafe"

	"github.com/cockroachdb/errors"
)

// The generic helpers run on the Default engine and address the value
// directly, without boxing it in an interface.

// Serialize writes v to w.
func Serialize[T any](w io.Writer, v T) error {
	return Default().serialize(w, reflect.TypeFor[T](), unsafe.Pointer(&v))
}

// Deserialize reads a new T from r.
func Deserialize[T any](r io.Reader) (T, error) {
	var v T
	err := Default().deserialize(r, reflect.TypeFor[T](), unsafe.Pointer(&v))
	return v, err
}

// Populate reads from r into the existing value dst points at.
func Populate[T any](r io.Reader, dst *T) error {
	return Default().populate(r, reflect.TypeFor[*T](), unsafe.Pointer(dst))
}

// Marshal encodes v into a new byte slice.
func Marshal[T any](v T) ([]byte, error) {
	return Default().marshal(reflect.TypeFor[T](), unsafe.Pointer(&v))
}

// MarshalTo encodes v into p and returns the number of bytes written. It
// fails with io.ErrShortWrite when p is too small.
func MarshalTo[T any](p []byte, v T) (int, error) {
	w := NewBytesWriter(p)
	if err := Default().serialize(w, reflect.TypeFor[T](), unsafe.Pointer(&v)); err != nil {
		return w.Len(), err
	}
	return w.Len(), nil
}

// Unmarshal decodes a T from data, which must hold exactly one value.
func Unmarshal[T any](data []byte) (T, error) {
	var v T
	err := Default().unmarshal(data, reflect.TypeFor[T](), unsafe.Pointer(&v))
	return v, err
}

// UnmarshalInto decodes data into the existing value dst points at.
func UnmarshalInto[T any](data []byte, dst *T) error {
	if dst == nil {
		return errors.Wrapf(ErrNilValue, "unmarshaling %s", reflect.TypeFor[T]())
	}
	t := reflect.TypeFor[*T]()
	if isObjectType(t) {
		slot := unsafe.Pointer(dst)
		return Default().unmarshal(data, t, unsafe.Pointer(&slot))
	}
	return Default().unmarshal(data, t.Elem(), unsafe.Pointer(dst))
}

// Marshal encodes v into a new byte slice.
func (e *Engine) Marshal(v any) ([]byte, error) {
	if v == nil {
		return nil, ErrNilValue
	}
	t, ptr := valuePointer(v)
	return e.marshal(t, ptr)
}

// Unmarshal decodes data into dst, which must be a non-nil pointer.
func (e *Engine) Unmarshal(data []byte, dst any) error {
	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return errors.Wrapf(ErrNilValue, "unmarshaling into %T", dst)
	}
	if isObjectType(rv.Type()) {
		slot := rv.UnsafePointer()
		return e.unmarshal(data, rv.Type(), unsafe.Pointer(&slot))
	}
	return e.unmarshal(data, rv.Type().Elem(), rv.UnsafePointer())
}

func (e *Engine) marshal(t reflect.Type, ptr unsafe.Pointer) ([]byte, error) {
	var buf bytes.Buffer
	if err := e.serialize(&buf, t, ptr); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (e *Engine) unmarshal(data []byte, t reflect.Type, ptr unsafe.Pointer) error {
	r := NewBytesReader(data)
	if err := e.deserialize(r, t, ptr); err != nil {
		return err
	}
	if rest := r.Available(); rest > 0 {
		err := errors.Wrapf(ErrCorruptFrame, "%d trailing bytes after %s", rest, t)
		e.logError("codec: %v", err)
		return err
	}
	return nil
}
