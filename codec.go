package graphcodec

import (
	"reflect"
	"unsafe"
)

// DataType distinguishes the wire shape of an encoded value.
type DataType uint8

const (
	DataTypeNone DataType = iota
	DataTypeBool
	DataTypeInt8
	DataTypeInt16
	DataTypeInt32
	DataTypeInt64
	DataTypeUInt8
	DataTypeUInt16
	DataTypeUInt32
	DataTypeUInt64
	DataTypeFloat32
	DataTypeFloat64
	DataTypeString
	DataTypeObject
	DataTypeArray
	DataTypeEnum
)

var dataTypeNames = [...]string{
	DataTypeNone:    "none",
	DataTypeBool:    "bool",
	DataTypeInt8:    "int8",
	DataTypeInt16:   "int16",
	DataTypeInt32:   "int32",
	DataTypeInt64:   "int64",
	DataTypeUInt8:   "uint8",
	DataTypeUInt16:  "uint16",
	DataTypeUInt32:  "uint32",
	DataTypeUInt64:  "uint64",
	DataTypeFloat32: "float32",
	DataTypeFloat64: "float64",
	DataTypeString:  "string",
	DataTypeObject:  "object",
	DataTypeArray:   "array",
	DataTypeEnum:    "enum",
}

func (d DataType) String() string {
	if int(d) < len(dataTypeNames) {
		return dataTypeNames[d]
	}
	return "unknown"
}

// DataSerializer converts the value stored at a memory location to and from
// the wire. ptr always points at a slot of the serializer's Go type: for an
// object codec that slot holds a *T, for a primitive codec it holds the value.
//
// Initialize is called exactly once, lazily, before the first Write or Read
// that goes through the engine.
type DataSerializer interface {
	DataType() DataType
	Initialize(e *Engine) error
	Write(ptr unsafe.Pointer, out *Output, ctx *Context) error
	Read(ptr unsafe.Pointer, in *Input, ctx *Context) error
}

// SerializationProvider decides whether it can encode a type. Providers must
// reject, not panic on, any type outside their competence.
type SerializationProvider interface {
	TryGet(e *Engine, t reflect.Type) (DataSerializer, bool)
}

// SerializationPolicy decides which types and fields take part in encoding.
type SerializationPolicy interface {
	ShouldSerialize(t reflect.Type) bool
	ShouldSerializeField(f reflect.StructField) bool
}

// SerializationCallbackReceiver is implemented (on the pointer) by types that
// need to prepare before being written or repair after being read.
type SerializationCallbackReceiver interface {
	// OnBeforeSerialize runs before any byte of the object is written.
	OnBeforeSerialize()
	// OnAfterDeserialize runs after every field, nested objects included, is populated.
	OnAfterDeserialize()
}

// Logger is the error sink of the engine.
type Logger interface {
	Error(msg string)
}

var callbackReceiverType = reflect.TypeFor[SerializationCallbackReceiver]()
