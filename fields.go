package graphcodec

import (
	"reflect"
	"sync"
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
)

// FieldMeta describes one serializable field of a struct.
type FieldMeta struct {
	Name   string
	Index  int
	Offset uintptr
	Type   reflect.Type
}

// GetFields lists the fields of struct type t that policy includes, in
// declaration order.
func GetFields(t reflect.Type, policy SerializationPolicy) []FieldMeta {
	fields := make([]reflect.StructField, t.NumField())
	for i := range fields {
		fields[i] = t.Field(i)
	}
	return lo.FilterMap(fields, func(f reflect.StructField, i int) (FieldMeta, bool) {
		if !policy.ShouldSerializeField(f) {
			return FieldMeta{}, false
		}
		return FieldMeta{Name: f.Name, Index: i, Offset: f.Offset, Type: f.Type}, true
	})
}

type fieldSerializer struct {
	FieldMeta
	codec DataSerializer
}

// FieldsSerializer is the ordered list of per-field codecs of one struct
// type. It is immutable once built and shared by every codec of that type.
type FieldsSerializer struct {
	typ    reflect.Type
	fields []fieldSerializer
}

// newFieldsSerializer resolves a codec for every included field. Resolution
// does not initialize the field codecs, so a type may refer to itself.
func newFieldsSerializer(e *Engine, t reflect.Type) (*FieldsSerializer, error) {
	metas := GetFields(t, e.policy)
	fields := make([]fieldSerializer, 0, len(metas))
	for _, meta := range metas {
		codec, err := e.resolve(meta.Type)
		if err != nil {
			return nil, errors.Mark(
				errors.Wrapf(err, "field %s.%s", t.Name(), meta.Name),
				ErrConstruction,
			)
		}
		fields = append(fields, fieldSerializer{FieldMeta: meta, codec: codec})
	}
	return &FieldsSerializer{typ: t, fields: fields}, nil
}

// Type returns the struct type the tree was built for.
func (s *FieldsSerializer) Type() reflect.Type { return s.typ }

// Fields returns the field metadata in wire order.
func (s *FieldsSerializer) Fields() []FieldMeta {
	return lo.Map(s.fields, func(f fieldSerializer, _ int) FieldMeta { return f.FieldMeta })
}

// Write encodes every field of the struct at base.
func (s *FieldsSerializer) Write(base unsafe.Pointer, out *Output, ctx *Context) error {
	for i := range s.fields {
		f := &s.fields[i]
		if err := f.codec.Write(unsafe.Add(base, f.Offset), out, ctx); err != nil {
			return errors.Wrapf(err, "writing %s", f.Name)
		}
	}
	return out.Err()
}

// Read decodes every field into the struct at base, in the order Write used.
func (s *FieldsSerializer) Read(base unsafe.Pointer, in *Input, ctx *Context) error {
	for i := range s.fields {
		f := &s.fields[i]
		if err := f.codec.Read(unsafe.Add(base, f.Offset), in, ctx); err != nil {
			return corrupt(err, "reading %s", f.Name)
		}
	}
	return nil
}

// fieldsCell builds the tree of one type at most once.
type fieldsCell struct {
	once sync.Once
	tree *FieldsSerializer
	err  error
}

// fieldsFor returns the tree of struct type t, building it on first use.
// Concurrent first uses wait for the single build; a failed build is
// remembered and reported to every caller.
func (e *Engine) fieldsFor(t reflect.Type) (*FieldsSerializer, error) {
	cell, _ := e.trees.LoadOrCompute(t, func() (*fieldsCell, bool) {
		return &fieldsCell{}, false
	})
	cell.once.Do(func() {
		cell.tree, cell.err = newFieldsSerializer(e, t)
	})
	return cell.tree, cell.err
}
