package graphcodec

import (
	"reflect"
	"strings"
)

// TagName is the struct tag read by DefaultPolicy.
const TagName = "codec"

// DefaultPolicy serializes exported fields and unexported fields tagged
// `codec:"include"`. A field tagged `codec:"-"` is always skipped, and so is
// any field whose type ShouldSerialize rejects.
type DefaultPolicy struct{}

var _ SerializationPolicy = DefaultPolicy{}

// ShouldSerialize reports whether t has a wire shape: booleans, sized numbers,
// strings, structs, pointers to structs, and arrays or slices of those.
func (p DefaultPolicy) ShouldSerialize(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64, reflect.String, reflect.Struct:
		return true
	case reflect.Pointer:
		return t.Elem().Kind() == reflect.Struct
	case reflect.Array, reflect.Slice:
		return p.ShouldSerialize(t.Elem())
	default:
		return false
	}
}

func (p DefaultPolicy) ShouldSerializeField(f reflect.StructField) bool {
	tag, _, _ := strings.Cut(f.Tag.Get(TagName), ",")
	switch {
	case tag == "-":
		return false
	case !f.IsExported() && tag != "include":
		return false
	}
	return p.ShouldSerialize(f.Type)
}
