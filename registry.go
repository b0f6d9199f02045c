package graphcodec

import (
	"reflect"
	"sync"

	"github.com/cockroachdb/errors"
)

// DataTypeLogic is the shared strategy for one wire shape.
type DataTypeLogic interface {
	Value() DataType
	// Skip consumes one encoded value of this shape without decoding it.
	Skip(in *Input) error
}

// ObjectDataTypeLogic is the framing shared by object and struct codecs.
type ObjectDataTypeLogic struct{}

func (*ObjectDataTypeLogic) Value() DataType { return DataTypeObject }

func (*ObjectDataTypeLogic) Skip(in *Input) error { return skipFrame(in) }

// ArrayDataTypeLogic is the framing shared by array and list codecs.
type ArrayDataTypeLogic struct{}

func (*ArrayDataTypeLogic) Value() DataType { return DataTypeArray }

func (*ArrayDataTypeLogic) Skip(in *Input) error { return skipFrame(in) }

// EnumDataTypeLogic describes enums, always eight bytes on the wire.
type EnumDataTypeLogic struct{}

func (*EnumDataTypeLogic) Value() DataType { return DataTypeEnum }

func (*EnumDataTypeLogic) Skip(in *Input) error {
	_, err := Discard(in, 8)
	return err
}

// StringDataTypeLogic describes length-prefixed strings.
type StringDataTypeLogic struct{}

func (*StringDataTypeLogic) Value() DataType { return DataTypeString }

func (*StringDataTypeLogic) Skip(in *Input) error {
	var n uint32
	in.ReadUint32(&n)
	if err := in.Err(); err != nil {
		return err
	}
	_, err := Discard(in, int64(n))
	return err
}

// PrimitiveDataTypeLogic describes a fixed-width primitive.
type PrimitiveDataTypeLogic struct {
	Type  DataType
	Width int
}

func (l *PrimitiveDataTypeLogic) Value() DataType { return l.Type }

func (l *PrimitiveDataTypeLogic) Skip(in *Input) error {
	_, err := Discard(in, int64(l.Width))
	return err
}

func skipFrame(in *Input) error {
	end, ok, err := in.BeginReadSize()
	if err != nil || !ok {
		return err
	}
	return in.EndObject(end)
}

// TypeRegistry maps data types to their singleton logic.
type TypeRegistry struct {
	mu      sync.RWMutex
	byKind  map[reflect.Type]DataTypeLogic
	byValue map[DataType]DataTypeLogic
}

// NewTypeRegistry creates a registry holding the given logics.
func NewTypeRegistry(logics ...DataTypeLogic) *TypeRegistry {
	r := &TypeRegistry{
		byKind:  make(map[reflect.Type]DataTypeLogic),
		byValue: make(map[DataType]DataTypeLogic),
	}
	for _, l := range logics {
		r.Register(l)
	}
	return r
}

// DefaultTypeRegistry holds a logic for every data type the built-in codecs emit.
func DefaultTypeRegistry() *TypeRegistry {
	return NewTypeRegistry(
		&ObjectDataTypeLogic{},
		&ArrayDataTypeLogic{},
		&EnumDataTypeLogic{},
		&StringDataTypeLogic{},
		&PrimitiveDataTypeLogic{Type: DataTypeBool, Width: 1},
		&PrimitiveDataTypeLogic{Type: DataTypeInt8, Width: 1},
		&PrimitiveDataTypeLogic{Type: DataTypeUInt8, Width: 1},
		&PrimitiveDataTypeLogic{Type: DataTypeInt16, Width: 2},
		&PrimitiveDataTypeLogic{Type: DataTypeUInt16, Width: 2},
		&PrimitiveDataTypeLogic{Type: DataTypeInt32, Width: 4},
		&PrimitiveDataTypeLogic{Type: DataTypeUInt32, Width: 4},
		&PrimitiveDataTypeLogic{Type: DataTypeFloat32, Width: 4},
		&PrimitiveDataTypeLogic{Type: DataTypeInt64, Width: 8},
		&PrimitiveDataTypeLogic{Type: DataTypeUInt64, Width: 8},
		&PrimitiveDataTypeLogic{Type: DataTypeFloat64, Width: 8},
	)
}

// Register adds or replaces a logic. The last logic registered for a data
// type answers ByValue; the last one of a Go type answers TryGetLogic.
func (r *TypeRegistry) Register(l DataTypeLogic) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byKind[reflect.TypeOf(l)] = l
	r.byValue[l.Value()] = l
}

// ByValue returns the logic of a data type.
func (r *TypeRegistry) ByValue(dt DataType) (DataTypeLogic, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.byValue[dt]
	return l, ok
}

// TryGetLogic returns the singleton logic of kind L, e.g. *ObjectDataTypeLogic.
func TryGetLogic[L DataTypeLogic](r *TypeRegistry) (L, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.byKind[reflect.TypeFor[L]()].(L)
	return l, ok
}

// Skip consumes one value of data type dt from in.
func (e *Engine) Skip(in *Input, dt DataType) error {
	logic, ok := e.registry.ByValue(dt)
	if !ok {
		return errors.Wrapf(ErrNoSerializer, "no logic for data type %s", dt)
	}
	return logic.Skip(in)
}
