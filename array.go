package graphcodec

import (
	"reflect"
	"unsafe"

	"github.com/cockroachdb/errors"
)

// Arrays and slices share one frame: a uint32 element count followed by the
// elements. A nil slice is the null marker.

// readCount reads the element count of a frame ending at end. Every element
// takes at least one byte, which bounds the count by the frame size.
func readCount(in *Input, end int64) (int, error) {
	var count uint32
	in.ReadUint32(&count)
	if err := in.Err(); err != nil {
		return 0, corrupt(err, "reading element count")
	}
	if int64(count) > in.Remaining(end) {
		return 0, errors.Wrapf(ErrCorruptFrame, "%d elements in %d bytes", count, in.Remaining(end))
	}
	return int(count), nil
}

type elements struct {
	elem     DataSerializer
	elemSize uintptr
}

func (a *elements) write(data unsafe.Pointer, n int, out *Output, ctx *Context) error {
	for i := 0; i < n; i++ {
		if err := a.elem.Write(unsafe.Add(data, uintptr(i)*a.elemSize), out, ctx); err != nil {
			return errors.Wrapf(err, "writing element %d", i)
		}
	}
	return nil
}

func (a *elements) read(data unsafe.Pointer, n int, in *Input, ctx *Context) error {
	for i := 0; i < n; i++ {
		if err := a.elem.Read(unsafe.Add(data, uintptr(i)*a.elemSize), in, ctx); err != nil {
			return corrupt(err, "reading element %d", i)
		}
	}
	return nil
}

// arraySerializer encodes fixed-length arrays. Reading keeps the first N
// elements of a longer frame and leaves the tail of the array untouched when
// the frame is shorter.
type arraySerializer struct {
	elements
	typ      reflect.Type
	dataType DataType
}

var _ DataSerializer = (*arraySerializer)(nil)

func (a *arraySerializer) DataType() DataType { return a.dataType }

func (a *arraySerializer) Initialize(e *Engine) (err error) {
	a.elemSize = a.typ.Elem().Size()
	a.elem, err = e.resolve(a.typ.Elem())
	return err
}

func (a *arraySerializer) Write(ptr unsafe.Pointer, out *Output, ctx *Context) error {
	ctx, err := guard(ctx, a)
	if err != nil {
		return errors.Wrapf(err, "writing %s", a.typ)
	}
	defer ctx.leave(a)

	track := out.BeginSizeTrack()
	out.WriteUint32(uint32(a.typ.Len()))
	if err := a.write(ptr, a.typ.Len(), out, ctx); err != nil {
		return err
	}
	return out.WriteSizeTrack(track)
}

func (a *arraySerializer) Read(ptr unsafe.Pointer, in *Input, ctx *Context) error {
	end, ok, err := in.BeginReadSize()
	if err != nil || !ok {
		return err
	}
	if ctx, err = guard(ctx, a); err != nil {
		return errors.Wrapf(err, "reading %s", a.typ)
	}
	defer ctx.leave(a)

	count, err := readCount(in, end)
	if err != nil {
		return err
	}
	if err := a.read(ptr, min(count, a.typ.Len()), in, ctx); err != nil {
		return err
	}
	return in.EndObject(end)
}

// listSerializer encodes slices. Reading reuses the existing backing array
// when its capacity suffices, so existing elements are populated in place.
type listSerializer struct {
	elements
	typ      reflect.Type
	dataType DataType
	bytes    bool
}

var _ DataSerializer = (*listSerializer)(nil)

func (l *listSerializer) DataType() DataType { return l.dataType }

func (l *listSerializer) Initialize(e *Engine) error {
	elem, err := e.resolve(l.typ.Elem())
	if err != nil {
		return err
	}
	l.elem = elem
	l.elemSize = l.typ.Elem().Size()
	l.bytes = l.typ.Elem().Kind() == reflect.Uint8 && elem.DataType() == DataTypeUInt8
	return nil
}

func (l *listSerializer) Write(ptr unsafe.Pointer, out *Output, ctx *Context) error {
	slice := reflect.NewAt(l.typ, ptr).Elem()
	if slice.IsNil() {
		out.WriteNull()
		return out.Err()
	}
	ctx, err := guard(ctx, l)
	if err != nil {
		return errors.Wrapf(err, "writing %s", l.typ)
	}
	defer ctx.leave(l)

	n := slice.Len()
	track := out.BeginSizeTrack()
	out.WriteUint32(uint32(n))
	if l.bytes {
		out.WriteBytes(slice.Bytes())
	} else if err := l.write(slice.UnsafePointer(), n, out, ctx); err != nil {
		return err
	}
	return out.WriteSizeTrack(track)
}

func (l *listSerializer) Read(ptr unsafe.Pointer, in *Input, ctx *Context) error {
	slice := reflect.NewAt(l.typ, ptr).Elem()
	end, ok, err := in.BeginReadSize()
	if err != nil {
		return err
	}
	if !ok {
		slice.SetZero()
		return nil
	}
	if ctx, err = guard(ctx, l); err != nil {
		return errors.Wrapf(err, "reading %s", l.typ)
	}
	defer ctx.leave(l)

	n, err := readCount(in, end)
	if err != nil {
		return err
	}
	if !slice.IsNil() && slice.Cap() >= n {
		slice.SetLen(n)
	} else {
		grown := reflect.MakeSlice(l.typ, n, n)
		reflect.Copy(grown, slice)
		slice.Set(grown)
	}
	if l.bytes {
		in.ReadBytesTo(slice.Bytes())
		if err := in.Err(); err != nil {
			return corrupt(err, "reading %d bytes", n)
		}
	} else if err := l.read(slice.UnsafePointer(), n, in, ctx); err != nil {
		return err
	}
	return in.EndObject(end)
}

// ArraySerializationProvider accepts fixed-length arrays.
type ArraySerializationProvider struct{}

func (p *ArraySerializationProvider) TryGet(e *Engine, t reflect.Type) (DataSerializer, bool) {
	if t.Kind() != reflect.Array || !e.policy.ShouldSerialize(t) {
		return nil, false
	}
	logic, ok := TryGetLogic[*ArrayDataTypeLogic](e.registry)
	if !ok {
		return nil, false
	}
	return &arraySerializer{typ: t, dataType: logic.Value()}, true
}

// ListSerializationProvider accepts slices.
type ListSerializationProvider struct{}

func (p *ListSerializationProvider) TryGet(e *Engine, t reflect.Type) (DataSerializer, bool) {
	if t.Kind() != reflect.Slice || !e.policy.ShouldSerialize(t) {
		return nil, false
	}
	logic, ok := TryGetLogic[*ArrayDataTypeLogic](e.registry)
	if !ok {
		return nil, false
	}
	return &listSerializer{typ: t, dataType: logic.Value()}, true
}
