package graphcodec

import (
	"reflect"
	"unsafe"

	"github.com/cockroachdb/errors"
)

// structSerializer encodes struct values in place. It shares the object
// framing, so a value and a pointer of the same struct are interchangeable on
// the wire; a null marker decodes as the zero value.
type structSerializer struct {
	typ      reflect.Type
	dataType DataType
	fields   *FieldsSerializer
}

var _ DataSerializer = (*structSerializer)(nil)

func (s *structSerializer) DataType() DataType { return s.dataType }

func (s *structSerializer) Initialize(e *Engine) (err error) {
	s.fields, err = e.fieldsFor(s.typ)
	return err
}

func (s *structSerializer) Write(ptr unsafe.Pointer, out *Output, ctx *Context) error {
	ctx, err := guard(ctx, s)
	if err != nil {
		return errors.Wrapf(err, "writing %s", s.typ)
	}
	defer ctx.leave(s)

	track := out.BeginSizeTrack()
	if err := s.fields.Write(ptr, out, ctx); err != nil {
		return err
	}
	return out.WriteSizeTrack(track)
}

func (s *structSerializer) Read(ptr unsafe.Pointer, in *Input, ctx *Context) error {
	end, ok, err := in.BeginReadSize()
	if err != nil {
		return err
	}
	if !ok {
		reflect.NewAt(s.typ, ptr).Elem().SetZero()
		return nil
	}
	if ctx, err = guard(ctx, s); err != nil {
		return errors.Wrapf(err, "reading %s", s.typ)
	}
	defer ctx.leave(s)

	if err := s.fields.Read(ptr, in, ctx); err != nil {
		return err
	}
	return in.EndObject(end)
}

// StructSerializationProvider accepts struct values.
type StructSerializationProvider struct{}

func (p *StructSerializationProvider) TryGet(e *Engine, t reflect.Type) (DataSerializer, bool) {
	if t.Kind() != reflect.Struct || !e.policy.ShouldSerialize(t) {
		return nil, false
	}
	logic, ok := TryGetLogic[*ObjectDataTypeLogic](e.registry)
	if !ok {
		return nil, false
	}
	return &structSerializer{typ: t, dataType: logic.Value()}, true
}
