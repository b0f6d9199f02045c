package graphcodec

import (
	"reflect"
	"unsafe"

	"github.com/cockroachdb/errors"
	"golang.org/x/exp/constraints"
)

// enumSerializer encodes a defined integer type as an int64, whatever its
// underlying width, so an enum can be widened without changing the wire.
type enumSerializer[E constraints.Integer] struct {
	typ      reflect.Type
	dataType DataType
}

func (s *enumSerializer[E]) DataType() DataType { return s.dataType }

func (s *enumSerializer[E]) Initialize(*Engine) error { return nil }

func (s *enumSerializer[E]) Write(ptr unsafe.Pointer, out *Output, _ *Context) error {
	out.WriteInt64(int64(*(*E)(ptr)))
	return out.Err()
}

func (s *enumSerializer[E]) Read(ptr unsafe.Pointer, in *Input, _ *Context) error {
	var v int64
	in.ReadInt64(&v)
	if err := in.Err(); err != nil {
		return errors.Wrapf(err, "reading %s", s.typ)
	}
	if int64(E(v)) != v {
		return errors.Wrapf(ErrCorruptFrame, "%d overflows %s", v, s.typ)
	}
	*(*E)(ptr) = E(v)
	return nil
}

func newEnumSerializer(t reflect.Type, dt DataType) DataSerializer {
	switch t.Kind() {
	case reflect.Int:
		return &enumSerializer[int]{t, dt}
	case reflect.Int8:
		return &enumSerializer[int8]{t, dt}
	case reflect.Int16:
		return &enumSerializer[int16]{t, dt}
	case reflect.Int32:
		return &enumSerializer[int32]{t, dt}
	case reflect.Int64:
		return &enumSerializer[int64]{t, dt}
	case reflect.Uint:
		return &enumSerializer[uint]{t, dt}
	case reflect.Uint8:
		return &enumSerializer[uint8]{t, dt}
	case reflect.Uint16:
		return &enumSerializer[uint16]{t, dt}
	case reflect.Uint32:
		return &enumSerializer[uint32]{t, dt}
	case reflect.Uint64:
		return &enumSerializer[uint64]{t, dt}
	}
	return nil
}

// isEnumType reports whether t is a named integer type declared outside the
// builtin universe, e.g. `type Color int8`.
func isEnumType(t reflect.Type) bool {
	if t.PkgPath() == "" {
		return false
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	}
	return false
}

// EnumSerializationProvider accepts defined integer types.
type EnumSerializationProvider struct{}

func (p *EnumSerializationProvider) TryGet(e *Engine, t reflect.Type) (DataSerializer, bool) {
	if !isEnumType(t) || !e.policy.ShouldSerialize(t) {
		return nil, false
	}
	logic, ok := TryGetLogic[*EnumDataTypeLogic](e.registry)
	if !ok {
		return nil, false
	}
	return newEnumSerializer(t, logic.Value()), true
}
