package graphcodec

import (
	"io"
	"reflect"
	"unsafe"

	"github.com/cockroachdb/errors"
)

// encode writes one top-level value. On failure the partial value is cut
// from out, so a later Flush never emits a frame with a stale prefix.
func encode(codec DataSerializer, ptr unsafe.Pointer, out *Output, ctx *Context) error {
	mark, tracks := out.Len(), out.tracks
	if err := codec.Write(ptr, out, ctx); err != nil {
		out.truncate(mark, tracks)
		return err
	}
	return out.Err()
}

func (e *Engine) serialize(w io.Writer, t reflect.Type, ptr unsafe.Pointer) (err error) {
	defer e.report("serializing", t, &err)
	codec, err := e.Serializer(t)
	if err != nil {
		return err
	}
	out, h := e.GetOutput(w)
	defer h.Release()
	if err := encode(codec, ptr, out, e.NewContext(nil)); err != nil {
		return err
	}
	return out.Flush()
}

func (e *Engine) deserialize(r io.Reader, t reflect.Type, ptr unsafe.Pointer) (err error) {
	defer e.report("deserializing", t, &err)
	codec, err := e.Serializer(t)
	if err != nil {
		return err
	}
	in, h := e.GetInput(r)
	defer h.Release()
	return codec.Read(ptr, in, e.NewContext(nil))
}

// populate reads into the value dst points at. For a pointer to a struct the
// object codec runs on a slot holding dst, so the existing object is filled
// in place and a null marker leaves it untouched.
func (e *Engine) populate(r io.Reader, t reflect.Type, dst unsafe.Pointer) error {
	if dst == nil {
		return errors.Wrapf(ErrNilValue, "populating %s", t)
	}
	if isObjectType(t) {
		slot := dst
		return e.deserialize(r, t, unsafe.Pointer(&slot))
	}
	return e.deserialize(r, t.Elem(), dst)
}

func (e *Engine) report(op string, t reflect.Type, err *error) {
	if *err != nil {
		e.logError("codec: %s %v: %v", op, t, *err)
	}
}

// valuePointer returns a pointer to a slot holding v.
func valuePointer(v any) (reflect.Type, unsafe.Pointer) {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		p := rv.UnsafePointer()
		return rv.Type(), unsafe.Pointer(&p)
	}
	slot := reflect.New(rv.Type())
	slot.Elem().Set(rv)
	return rv.Type(), slot.UnsafePointer()
}

// Serialize writes v to w with the codec of v's dynamic type.
func (e *Engine) Serialize(w io.Writer, v any) error {
	if v == nil {
		return ErrNilValue
	}
	t, ptr := valuePointer(v)
	return e.serialize(w, t, ptr)
}

// SerializeTo appends v to out without flushing it, for callers that write
// several values to one stream.
func (e *Engine) SerializeTo(out *Output, v any, ctx *Context) error {
	if v == nil {
		return ErrNilValue
	}
	t, ptr := valuePointer(v)
	codec, err := e.Serializer(t)
	if err != nil {
		return err
	}
	if ctx == nil {
		ctx = e.NewContext(nil)
	}
	return encode(codec, ptr, out, ctx)
}

// Populate reads from r into dst, which must be a non-nil pointer.
func (e *Engine) Populate(r io.Reader, dst any) error {
	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return errors.Wrapf(ErrNilValue, "populating %T", dst)
	}
	return e.populate(r, rv.Type(), rv.UnsafePointer())
}

// Deserialize reads a new value of type t from r.
func (e *Engine) Deserialize(r io.Reader, t reflect.Type) (any, error) {
	if t == nil {
		return nil, ErrNilValue
	}
	v := reflect.New(t)
	if err := e.deserialize(r, t, v.UnsafePointer()); err != nil {
		return nil, err
	}
	return v.Elem().Interface(), nil
}

// TypeHelper binds the engine to one type so repeated calls skip resolution.
type TypeHelper struct {
	engine *Engine
	typ    reflect.Type
	codec  DataSerializer
}

// Helper returns a TypeHelper for t, initializing its codec.
func (e *Engine) Helper(t reflect.Type) (*TypeHelper, error) {
	codec, err := e.Serializer(t)
	if err != nil {
		return nil, err
	}
	return &TypeHelper{engine: e, typ: t, codec: codec}, nil
}

func (h *TypeHelper) Type() reflect.Type { return h.typ }

func (h *TypeHelper) check(v any) error {
	if v == nil {
		return ErrNilValue
	}
	if got := reflect.TypeOf(v); got != h.typ {
		return errors.Wrapf(ErrTypeMismatch, "want %s, got %s", h.typ, got)
	}
	return nil
}

// SerializeObject writes v, which must be of the helper's type.
func (h *TypeHelper) SerializeObject(w io.Writer, v any) error {
	if err := h.check(v); err != nil {
		return err
	}
	_, ptr := valuePointer(v)
	return h.engine.serialize(w, h.typ, ptr)
}

// PopulateObject reads into the existing object v. For a pointer type v is
// filled in place; otherwise v must point at a value of the helper's type.
func (h *TypeHelper) PopulateObject(r io.Reader, v any) error {
	rv := reflect.ValueOf(v)
	switch {
	case rv.Kind() != reflect.Pointer || rv.IsNil():
		return errors.Wrapf(ErrNilValue, "populating %s", h.typ)
	case isObjectType(h.typ) && rv.Type() == h.typ:
		return h.engine.populate(r, h.typ, rv.UnsafePointer())
	case rv.Type().Elem() == h.typ:
		return h.engine.deserialize(r, h.typ, rv.UnsafePointer())
	}
	return errors.Wrapf(ErrTypeMismatch, "cannot populate %s from %s", rv.Type(), h.typ)
}

// DeserializeObject reads a new value of the helper's type.
func (h *TypeHelper) DeserializeObject(r io.Reader) (any, error) {
	return h.engine.Deserialize(r, h.typ)
}

// Encode appends v to out.
func (h *TypeHelper) Encode(out *Output, v any, ctx *Context) error {
	if err := h.check(v); err != nil {
		return err
	}
	if ctx == nil {
		ctx = h.engine.NewContext(nil)
	}
	_, ptr := valuePointer(v)
	return encode(h.codec, ptr, out, ctx)
}

// Decode reads the next value of the helper's type from in.
func (h *TypeHelper) Decode(in *Input, ctx *Context) (any, error) {
	if ctx == nil {
		ctx = h.engine.NewContext(nil)
	}
	v := reflect.New(h.typ)
	if err := h.codec.Read(v.UnsafePointer(), in, ctx); err != nil {
		return nil, err
	}
	return v.Elem().Interface(), nil
}
