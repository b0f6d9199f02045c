package graphcodec

import (
	"reflect"
	"unsafe"

	"github.com/cockroachdb/errors"
)

// objectSerializer encodes pointers to structs. A non-nil object is written
// as one frame holding its fields in tree order; nil is written as the null
// marker. The callback variant runs SerializationCallbackReceiver hooks.
type objectSerializer struct {
	typ          reflect.Type // *T
	elem         reflect.Type // T
	dataType     DataType
	callbacks    bool
	instantiator Instantiator
	fields       *FieldsSerializer
}

var _ DataSerializer = (*objectSerializer)(nil)

func newObjectSerializer(t reflect.Type, dataType DataType, callbacks bool) *objectSerializer {
	return &objectSerializer{
		typ:       t,
		elem:      t.Elem(),
		dataType:  dataType,
		callbacks: callbacks,
	}
}

func (o *objectSerializer) DataType() DataType { return o.dataType }

func (o *objectSerializer) Initialize(e *Engine) error {
	instantiator, err := e.instantiatorFor(o.elem)
	if err != nil {
		return err
	}
	fields, err := e.fieldsFor(o.elem)
	if err != nil {
		return err
	}
	o.instantiator = instantiator
	o.fields = fields
	return nil
}

func (o *objectSerializer) receiver(obj unsafe.Pointer) SerializationCallbackReceiver {
	return reflect.NewAt(o.elem, obj).Interface().(SerializationCallbackReceiver)
}

func (o *objectSerializer) Write(ptr unsafe.Pointer, out *Output, ctx *Context) error {
	obj := *(*unsafe.Pointer)(ptr)
	if obj == nil {
		out.WriteNull()
		return out.Err()
	}
	ctx, err := guard(ctx, o)
	if err != nil {
		return errors.Wrapf(err, "writing %s", o.typ)
	}
	defer ctx.leave(o)

	if o.callbacks {
		o.receiver(obj).OnBeforeSerialize()
	}

	track := out.BeginSizeTrack()
	if err := o.fields.Write(obj, out, ctx); err != nil {
		return err
	}
	return out.WriteSizeTrack(track)
}

func (o *objectSerializer) Read(ptr unsafe.Pointer, in *Input, ctx *Context) error {
	end, ok, err := in.BeginReadSize()
	if err != nil {
		return err
	}
	slot := (*unsafe.Pointer)(ptr)
	if !ok {
		*slot = nil
		return nil
	}
	ctx, err = guard(ctx, o)
	if err != nil {
		return errors.Wrapf(err, "reading %s", o.typ)
	}
	defer ctx.leave(o)

	obj := *slot
	if obj == nil {
		obj = o.instantiator.CreateInstance()
		*slot = obj
	}
	if err := o.fields.Read(obj, in, ctx); err != nil {
		return err
	}
	if err := in.EndObject(end); err != nil {
		return err
	}
	if o.callbacks {
		o.receiver(obj).OnAfterDeserialize()
	}
	return nil
}

func isObjectType(t reflect.Type) bool {
	return t.Kind() == reflect.Pointer && t.Elem().Kind() == reflect.Struct
}

// ObjectSerializationProvider accepts pointers to structs.
type ObjectSerializationProvider struct{}

func (p *ObjectSerializationProvider) TryGet(e *Engine, t reflect.Type) (DataSerializer, bool) {
	if !isObjectType(t) || !e.policy.ShouldSerialize(t) {
		return nil, false
	}
	logic, ok := TryGetLogic[*ObjectDataTypeLogic](e.registry)
	if !ok {
		return nil, false
	}
	return newObjectSerializer(t, logic.Value(), false), true
}

// CallbackObjectSerializationProvider accepts pointers to structs that
// implement SerializationCallbackReceiver.
type CallbackObjectSerializationProvider struct{}

func (p *CallbackObjectSerializationProvider) TryGet(e *Engine, t reflect.Type) (DataSerializer, bool) {
	if !isObjectType(t) || !t.Implements(callbackReceiverType) {
		return nil, false
	}
	logic, ok := TryGetLogic[*ObjectDataTypeLogic](e.registry)
	if !ok {
		return nil, false
	}
	if !e.policy.ShouldSerialize(t) {
		return nil, false
	}
	return newObjectSerializer(t, logic.Value(), true), true
}
