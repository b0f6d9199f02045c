package graphcodec

import (
	"reflect"
	"sync"
	"unsafe"
)

type point struct {
	X, Y int32
}

type node struct {
	Name string
	Next *node
}

type link struct {
	ID   int32
	Next *link
}

func chain(n int) *link {
	var head *link
	for i := n; i > 0; i-- {
		head = &link{ID: int32(i), Next: head}
	}
	return head
}

// nest recurses only through slices and struct values.
type nest struct {
	Kids []nest
}

// nestedFrames encodes a *nest whose Kids chain is depth levels deep, one
// kid per level, written outside-in so the sizes need no backfill.
func nestedFrames(depth int) []byte {
	buf := make([]byte, 0, 12*depth+8)
	for k := depth; k > 0; k-- {
		buf = Order.AppendUint32(buf, uint32(12*k+4)) // struct frame
		buf = Order.AppendUint32(buf, uint32(12*k))   // list frame
		buf = Order.AppendUint32(buf, 1)              // count
	}
	buf = Order.AppendUint32(buf, 4)
	return Order.AppendUint32(buf, NullSize)
}

type recordV1 struct {
	A int32
	B string
}

type recordV2 struct {
	A int32
	B string
	C []int64
	D *point
}

type color int8

const (
	red  color = 3
	blue color = -2
)

type shapes struct {
	Fill    color
	Origin  point
	Corners [3]point
	Path    []point
	Tags    []string
	Blob    []byte
	Ratio   float64
	Count   int
	Visible bool
	secret  string
	kept    uint16 `codec:"include"`
	Skipped int32  `codec:"-"`
	Lookup  map[string]int
}

// recorder collects hook events in the order they fire.
type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) add(event string) {
	r.mu.Lock()
	r.events = append(r.events, event)
	r.mu.Unlock()
}

type hooked struct {
	Name     string
	Length   int32
	Child    *hooked
	recorder *recorder
}

func (h *hooked) OnBeforeSerialize() {
	h.Length = int32(len(h.Name))
	h.recorder.add("before " + h.Name)
}

func (h *hooked) OnAfterDeserialize() {
	h.recorder.add("after " + h.Name)
}

type withMap struct {
	ID  int32
	Bad map[string]int
}

// permissivePolicy accepts every type and every exported field.
type permissivePolicy struct{}

func (permissivePolicy) ShouldSerialize(reflect.Type) bool { return true }

func (permissivePolicy) ShouldSerializeField(f reflect.StructField) bool { return f.IsExported() }

type celsius float64

type reading struct {
	Sensor string
	Temp   celsius
}

// tenthsSerializer stores a celsius value as whole tenths of a degree.
type tenthsSerializer struct {
	writes int
}

func (s *tenthsSerializer) DataType() DataType { return DataTypeInt32 }

func (s *tenthsSerializer) Initialize(*Engine) error { return nil }

func (s *tenthsSerializer) Write(ptr unsafe.Pointer, out *Output, _ *Context) error {
	s.writes++
	out.WriteInt32(int32(*(*celsius)(ptr) * 10))
	return out.Err()
}

func (s *tenthsSerializer) Read(ptr unsafe.Pointer, in *Input, _ *Context) error {
	var v int32
	in.ReadInt32(&v)
	*(*celsius)(ptr) = celsius(v) / 10
	return in.Err()
}
