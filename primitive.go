package graphcodec

import (
	"reflect"
	"unsafe"

	"github.com/cockroachdb/errors"
)

type primitiveOps struct {
	dataType DataType
	write    func(ptr unsafe.Pointer, out *Output)
	read     func(ptr unsafe.Pointer, in *Input)
}

// int and uint travel as 64 bits so the wire does not depend on the platform.
var primitives = map[reflect.Kind]primitiveOps{
	reflect.Bool: {DataTypeBool,
		func(p unsafe.Pointer, out *Output) { out.WriteBool(*(*bool)(p)) },
		func(p unsafe.Pointer, in *Input) { in.ReadBool((*bool)(p)) }},
	reflect.Int8: {DataTypeInt8,
		func(p unsafe.Pointer, out *Output) { out.WriteInt8(*(*int8)(p)) },
		func(p unsafe.Pointer, in *Input) { in.ReadInt8((*int8)(p)) }},
	reflect.Int16: {DataTypeInt16,
		func(p unsafe.Pointer, out *Output) { out.WriteInt16(*(*int16)(p)) },
		func(p unsafe.Pointer, in *Input) { in.ReadInt16((*int16)(p)) }},
	reflect.Int32: {DataTypeInt32,
		func(p unsafe.Pointer, out *Output) { out.WriteInt32(*(*int32)(p)) },
		func(p unsafe.Pointer, in *Input) { in.ReadInt32((*int32)(p)) }},
	reflect.Int64: {DataTypeInt64,
		func(p unsafe.Pointer, out *Output) { out.WriteInt64(*(*int64)(p)) },
		func(p unsafe.Pointer, in *Input) { in.ReadInt64((*int64)(p)) }},
	reflect.Int: {DataTypeInt64,
		func(p unsafe.Pointer, out *Output) { out.WriteInt64(int64(*(*int)(p))) },
		func(p unsafe.Pointer, in *Input) {
			var v int64
			in.ReadInt64(&v)
			*(*int)(p) = int(v)
		}},
	reflect.Uint8: {DataTypeUInt8,
		func(p unsafe.Pointer, out *Output) { out.WriteUint8(*(*uint8)(p)) },
		func(p unsafe.Pointer, in *Input) { in.ReadUint8((*uint8)(p)) }},
	reflect.Uint16: {DataTypeUInt16,
		func(p unsafe.Pointer, out *Output) { out.WriteUint16(*(*uint16)(p)) },
		func(p unsafe.Pointer, in *Input) { in.ReadUint16((*uint16)(p)) }},
	reflect.Uint32: {DataTypeUInt32,
		func(p unsafe.Pointer, out *Output) { out.WriteUint32(*(*uint32)(p)) },
		func(p unsafe.Pointer, in *Input) { in.ReadUint32((*uint32)(p)) }},
	reflect.Uint64: {DataTypeUInt64,
		func(p unsafe.Pointer, out *Output) { out.WriteUint64(*(*uint64)(p)) },
		func(p unsafe.Pointer, in *Input) { in.ReadUint64((*uint64)(p)) }},
	reflect.Uint: {DataTypeUInt64,
		func(p unsafe.Pointer, out *Output) { out.WriteUint64(uint64(*(*uint)(p))) },
		func(p unsafe.Pointer, in *Input) {
			var v uint64
			in.ReadUint64(&v)
			*(*uint)(p) = uint(v)
		}},
	reflect.Float32: {DataTypeFloat32,
		func(p unsafe.Pointer, out *Output) { out.WriteFloat32(*(*float32)(p)) },
		func(p unsafe.Pointer, in *Input) { in.ReadFloat32((*float32)(p)) }},
	reflect.Float64: {DataTypeFloat64,
		func(p unsafe.Pointer, out *Output) { out.WriteFloat64(*(*float64)(p)) },
		func(p unsafe.Pointer, in *Input) { in.ReadFloat64((*float64)(p)) }},
}

type primitiveSerializer struct {
	typ reflect.Type
	primitiveOps
}

var _ DataSerializer = (*primitiveSerializer)(nil)

func (s *primitiveSerializer) DataType() DataType { return s.dataType }

func (s *primitiveSerializer) Initialize(*Engine) error { return nil }

func (s *primitiveSerializer) Write(ptr unsafe.Pointer, out *Output, _ *Context) error {
	s.write(ptr, out)
	return out.Err()
}

func (s *primitiveSerializer) Read(ptr unsafe.Pointer, in *Input, _ *Context) error {
	s.read(ptr, in)
	if err := in.Err(); err != nil {
		return errors.Wrapf(err, "reading %s", s.typ)
	}
	return nil
}

// PrimitiveSerializationProvider accepts booleans and sized numbers.
type PrimitiveSerializationProvider struct{}

func (p *PrimitiveSerializationProvider) TryGet(e *Engine, t reflect.Type) (DataSerializer, bool) {
	ops, ok := primitives[t.Kind()]
	if !ok || !e.policy.ShouldSerialize(t) {
		return nil, false
	}
	if _, ok := e.registry.ByValue(ops.dataType); !ok {
		return nil, false
	}
	return &primitiveSerializer{typ: t, primitiveOps: ops}, true
}

// stringSerializer writes a uint32 byte length followed by the bytes.
type stringSerializer struct {
	dataType DataType
}

var _ DataSerializer = (*stringSerializer)(nil)

func (s *stringSerializer) DataType() DataType { return s.dataType }

func (s *stringSerializer) Initialize(*Engine) error { return nil }

func (s *stringSerializer) Write(ptr unsafe.Pointer, out *Output, _ *Context) error {
	str := *(*string)(ptr)
	if int64(len(str)) > MaxFrameSize {
		return errors.Wrapf(ErrFrameTooLarge, "string of %d bytes", len(str))
	}
	out.WriteUint32(uint32(len(str)))
	_, _ = out.WriteString(str)
	return out.Err()
}

func (s *stringSerializer) Read(ptr unsafe.Pointer, in *Input, _ *Context) error {
	var n uint32
	in.ReadUint32(&n)
	if err := in.Err(); err != nil {
		return errors.Wrap(err, "reading string length")
	}
	if int64(n) > MaxFrameSize {
		return errors.Wrapf(ErrCorruptFrame, "string of %d bytes", n)
	}
	str := in.ReadString(int(n))
	if err := in.Err(); err != nil {
		return corrupt(err, "reading string of %d bytes", n)
	}
	*(*string)(ptr) = str
	return nil
}

// StringSerializationProvider accepts strings.
type StringSerializationProvider struct{}

func (p *StringSerializationProvider) TryGet(e *Engine, t reflect.Type) (DataSerializer, bool) {
	if t.Kind() != reflect.String || !e.policy.ShouldSerialize(t) {
		return nil, false
	}
	logic, ok := TryGetLogic[*StringDataTypeLogic](e.registry)
	if !ok {
		return nil, false
	}
	return &stringSerializer{dataType: logic.Value()}, true
}
