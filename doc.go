// Package graphcodec is a binary codec for graphs of Go structs.
//
// For every type it meets, an Engine builds a plan once: a tree of per-field
// codecs addressed by memory offset. Encoding then walks the plan with direct
// memory access instead of reflecting over values.
//
// Objects (pointers to structs) are written as a uint32 big-endian size
// prefix followed by their fields in declaration order; nil is written as
// the marker 0xFFFFFFFF. Because every object carries its size, a reader
// whose type has fewer trailing fields skips what it does not know:
//
//	type Point struct{ X, Y int32 }
//
//	data, _ := graphcodec.Marshal(&Point{3, 4})
//	// 00 00 00 08 | 00 00 00 03 | 00 00 00 04
//
// Reference cycles are not supported. An object codec that nests within
// itself more than MaxStack times in one call fails with
// ErrCircularReference.
package graphcodec
