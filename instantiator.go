package graphcodec

import (
	"reflect"
	"unsafe"

	"github.com/cockroachdb/errors"
)

// Instantiator allocates an instance of one struct type for decoding.
type Instantiator interface {
	CreateInstance() unsafe.Pointer
}

// InstantiatorFunc adapts a function to Instantiator.
type InstantiatorFunc func() unsafe.Pointer

func (f InstantiatorFunc) CreateInstance() unsafe.Pointer { return f() }

// TypeInstantiator allocates zero-valued instances. No user code runs; any
// invariant a constructor would establish has to come from the decoded fields
// or from OnAfterDeserialize.
type TypeInstantiator struct {
	typ reflect.Type
}

// NewTypeInstantiator creates an instantiator for struct type t.
func NewTypeInstantiator(t reflect.Type) (*TypeInstantiator, error) {
	if t == nil || t.Kind() != reflect.Struct {
		return nil, errors.Wrapf(ErrTypeMismatch, "cannot instantiate %v", t)
	}
	return &TypeInstantiator{typ: t}, nil
}

// Type returns the type of the instances created.
func (i *TypeInstantiator) Type() reflect.Type { return i.typ }

func (i *TypeInstantiator) CreateInstance() unsafe.Pointer {
	return reflect.New(i.typ).UnsafePointer()
}

// instantiatorFor returns the registered factory of struct type t, or a
// TypeInstantiator.
func (e *Engine) instantiatorFor(t reflect.Type) (Instantiator, error) {
	if f, ok := e.factories[t]; ok {
		return f, nil
	}
	return NewTypeInstantiator(t)
}
