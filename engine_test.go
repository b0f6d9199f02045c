package graphcodec

import (
	"bytes"
	"io"
	"reflect"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type EngineTestSuite struct {
	suite.Suite
	engine *Engine
}

func (s *EngineTestSuite) SetupTest() {
	s.engine = New()
}

func (s *EngineTestSuite) TestPointFrame() {
	data, err := s.engine.Marshal(&point{X: 3, Y: 4})
	s.Require().NoError(err)
	s.Assert().Equal([]byte{
		0x00, 0x00, 0x00, 0x08,
		0x00, 0x00, 0x00, 0x03,
		0x00, 0x00, 0x00, 0x04,
	}, data)

	var p *point
	s.Require().NoError(s.engine.Unmarshal(data, &p))
	s.Assert().Equal(&point{X: 3, Y: 4}, p)
}

func (s *EngineTestSuite) TestNilObject() {
	data, err := s.engine.Marshal((*point)(nil))
	s.Require().NoError(err)
	s.Assert().Equal([]byte{0xFF, 0xFF, 0xFF, 0xFF}, data)

	p := &point{X: 1}
	s.Require().NoError(s.engine.Unmarshal(data, &p))
	s.Assert().Nil(p)
}

func (s *EngineTestSuite) TestNullFieldIsNotInstantiated() {
	created := 0
	e := New(WithFactory(func() *node {
		created++
		return &node{}
	}))

	var buf bytes.Buffer
	s.Require().NoError(e.Serialize(&buf, &node{Name: "tail"}))

	v, err := e.Deserialize(&buf, reflect.TypeFor[*node]())
	s.Require().NoError(err)
	n := v.(*node)
	s.Assert().Equal("tail", n.Name)
	s.Assert().Nil(n.Next)
	s.Assert().Equal(1, created, "only the top-level object is allocated")
}

func (s *EngineTestSuite) TestRoundTripShapes() {
	in := &shapes{
		Fill:    blue,
		Origin:  point{1, 2},
		Corners: [3]point{{1, 1}, {2, 2}, {3, 3}},
		Path:    []point{{5, 6}},
		Tags:    []string{"a", "", "ccc"},
		Blob:    []byte{0xDE, 0xAD},
		Ratio:   0.25,
		Count:   -7,
		Visible: true,
		secret:  "hidden",
		kept:    9,
		Skipped: 11,
		Lookup:  map[string]int{"x": 1},
	}
	data, err := s.engine.Marshal(in)
	s.Require().NoError(err)

	var out *shapes
	s.Require().NoError(s.engine.Unmarshal(data, &out))

	want := *in
	want.secret = ""
	want.Skipped = 0
	want.Lookup = nil
	s.Assert().Equal(&want, out)
}

func (s *EngineTestSuite) TestEnumIsEightBytes() {
	type palette struct{ C color }
	data, err := s.engine.Marshal(&palette{C: red})
	s.Require().NoError(err)
	s.Assert().Equal([]byte{0, 0, 0, 8, 0, 0, 0, 0, 0, 0, 0, 3}, data)

	var out *palette
	overflow := []byte{0, 0, 0, 8, 0, 0, 0, 0, 0, 0, 0x01, 0x2C}
	s.Assert().ErrorIs(s.engine.Unmarshal(overflow, &out), ErrCorruptFrame, "300 does not fit a color")

	negative := []byte{0, 0, 0, 8, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFE}
	s.Require().NoError(s.engine.Unmarshal(negative, &out))
	s.Assert().Equal(blue, out.C)

	codec, err := s.engine.Serializer(reflect.TypeFor[color]())
	s.Require().NoError(err)
	s.Assert().Equal(DataTypeEnum, codec.DataType())
}

func (s *EngineTestSuite) TestSlices() {
	type lists struct {
		Nil   []int32
		Empty []int32
		Bytes []byte
	}
	data, err := s.engine.Marshal(&lists{Empty: []int32{}, Bytes: []byte("xyz")})
	s.Require().NoError(err)

	var out *lists
	s.Require().NoError(s.engine.Unmarshal(data, &out))
	s.Assert().Nil(out.Nil)
	s.Assert().NotNil(out.Empty)
	s.Assert().Empty(out.Empty)
	s.Assert().Equal([]byte("xyz"), out.Bytes)
}

func (s *EngineTestSuite) TestArrayLengthMismatch() {
	type wide struct {
		V    [4]int16
		Tail int16
	}
	type narrow struct {
		V    [2]int16
		Tail int16
	}
	data, err := s.engine.Marshal(&wide{V: [4]int16{1, 2, 3, 4}, Tail: 5})
	s.Require().NoError(err)

	var out *narrow
	s.Require().NoError(s.engine.Unmarshal(data, &out))
	s.Assert().Equal(&narrow{V: [2]int16{1, 2}, Tail: 5}, out, "extra elements are skipped with the array frame")

	data, err = s.engine.Marshal(&narrow{V: [2]int16{7, 8}, Tail: 9})
	s.Require().NoError(err)
	back := &wide{V: [4]int16{1, 2, 3, 4}}
	s.Require().NoError(s.engine.Unmarshal(data, back))
	s.Assert().Equal(&wide{V: [4]int16{7, 8, 3, 4}, Tail: 9}, back, "missing elements keep their value")
}

func (s *EngineTestSuite) TestForwardSkip() {
	var buf bytes.Buffer
	s.Require().NoError(s.engine.Serialize(&buf, &recordV2{A: 1, B: "one", C: []int64{7, 8}, D: Ptr(point{1, 1})}))
	s.Require().NoError(s.engine.Serialize(&buf, &recordV2{A: 2, B: "two"}))

	first, err := s.engine.Deserialize(&buf, reflect.TypeFor[*recordV1]())
	s.Require().NoError(err)
	s.Assert().Equal(&recordV1{A: 1, B: "one"}, first)

	second, err := s.engine.Deserialize(&buf, reflect.TypeFor[*recordV1]())
	s.Require().NoError(err)
	s.Assert().Equal(&recordV1{A: 2, B: "two"}, second)
	s.Assert().Zero(buf.Len())
}

func (s *EngineTestSuite) TestCircularReference() {
	s.T().Run("SelfReference", func(t *testing.T) {
		l := &link{ID: 1}
		l.Next = l

		var buf bytes.Buffer
		err := s.engine.Serialize(&buf, l)
		require.ErrorIs(t, err, ErrCircularReference)
		assert.Zero(t, buf.Len(), "nothing of the failed object reaches the stream")
	})

	s.T().Run("DepthBound", func(t *testing.T) {
		for _, n := range []int{1, MaxStack - 1, MaxStack} {
			_, err := s.engine.Marshal(chain(n))
			assert.NoError(t, err, "chain of %d", n)
		}
		_, err := s.engine.Marshal(chain(MaxStack + 1))
		assert.ErrorIs(t, err, ErrCircularReference)
	})

	s.T().Run("ConfiguredBound", func(t *testing.T) {
		e := New(WithMaxStack(4))
		_, err := e.Marshal(chain(4))
		require.NoError(t, err)
		_, err = e.Marshal(chain(5))
		assert.ErrorIs(t, err, ErrCircularReference)
	})

	s.T().Run("ReadSideBound", func(t *testing.T) {
		deep, err := New(WithMaxStack(64)).Marshal(chain(MaxStack + 1))
		require.NoError(t, err)

		var out *link
		err = s.engine.Unmarshal(deep, &out)
		assert.ErrorIs(t, err, ErrCircularReference)
	})

	s.T().Run("SliceCycle", func(t *testing.T) {
		kids := make([]nest, 1)
		kids[0].Kids = kids

		var buf bytes.Buffer
		err := s.engine.Serialize(&buf, &nest{Kids: kids})
		require.ErrorIs(t, err, ErrCircularReference)
		assert.Zero(t, buf.Len())
	})

	s.T().Run("NestedSlicesWithinBound", func(t *testing.T) {
		var out *nest
		require.NoError(t, s.engine.Unmarshal(nestedFrames(MaxStack-1), &out))
		depth := 0
		for n := out; len(n.Kids) > 0; n = &n.Kids[0] {
			depth++
		}
		assert.Equal(t, MaxStack-1, depth)

		data, err := s.engine.Marshal(out)
		require.NoError(t, err)
		assert.Equal(t, nestedFrames(MaxStack-1), data)
	})

	s.T().Run("DeepSliceFramesFailOnRead", func(t *testing.T) {
		var out *nest
		err := s.engine.Unmarshal(nestedFrames(100_000), &out)
		assert.ErrorIs(t, err, ErrCircularReference)
	})

	s.T().Run("GuardResetsBetweenCalls", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			_, err := s.engine.Marshal(chain(MaxStack))
			require.NoError(t, err)
		}
	})
}

func (s *EngineTestSuite) TestHooks() {
	rec := &recorder{}
	e := New(WithFactory(func() *hooked { return &hooked{recorder: rec} }))

	root := &hooked{Name: "root", recorder: rec, Child: &hooked{Name: "leaf", recorder: rec}}
	data, err := e.Marshal(root)
	s.Require().NoError(err)
	s.Assert().Equal([]string{"before root", "before leaf"}, rec.events)

	rec.events = nil
	var out *hooked
	s.Require().NoError(e.Unmarshal(data, &out))
	s.Assert().Equal([]string{"after leaf", "after root"}, rec.events)
	s.Assert().EqualValues(4, out.Length, "fields set by OnBeforeSerialize are written")
	s.Assert().EqualValues(4, out.Child.Length)

	codec, err := e.Serializer(reflect.TypeFor[*hooked]())
	s.Require().NoError(err)
	s.Assert().True(codec.(*handle).Unwrap().(*objectSerializer).callbacks)
}

func (s *EngineTestSuite) TestPopulateExisting() {
	child := &node{Name: "old child"}
	dst := &node{Name: "old", Next: child}

	data, err := s.engine.Marshal(&node{Name: "new", Next: &node{Name: "new child"}})
	s.Require().NoError(err)

	s.Require().NoError(s.engine.Populate(bytes.NewReader(data), dst))
	s.Assert().Equal("new", dst.Name)
	s.Assert().Same(child, dst.Next, "nested objects are populated in place")
	s.Assert().Equal("new child", child.Name)

	s.T().Run("NullLeavesTargetUntouched", func(t *testing.T) {
		require.NoError(t, s.engine.Populate(bytes.NewReader([]byte{0xFF, 0xFF, 0xFF, 0xFF}), dst))
		assert.Equal(t, "new", dst.Name)
		assert.Same(t, child, dst.Next)
	})

	s.T().Run("ListReusesElements", func(t *testing.T) {
		type group struct{ Members []*node }
		first := &node{Name: "a"}
		g := &group{Members: []*node{first}}

		data, err := s.engine.Marshal(&group{Members: []*node{{Name: "b"}, {Name: "c"}}})
		require.NoError(t, err)
		require.NoError(t, s.engine.Unmarshal(data, g))
		require.Len(t, g.Members, 2)
		assert.Same(t, first, g.Members[0])
		assert.Equal(t, "b", first.Name)
		assert.Equal(t, "c", g.Members[1].Name)
	})

	s.T().Run("NilTarget", func(t *testing.T) {
		assert.ErrorIs(t, s.engine.Populate(bytes.NewReader(data), (*node)(nil)), ErrNilValue)
	})
}

func (s *EngineTestSuite) TestConstructionFailure() {
	e := New(WithPolicy(permissivePolicy{}))

	_, err := e.Marshal(&withMap{ID: 1})
	s.Require().Error(err)
	s.Assert().True(errors.Is(err, ErrConstruction))
	s.Assert().True(errors.Is(err, ErrNoSerializer))

	_, err = e.Serializer(reflect.TypeFor[*withMap]())
	s.Assert().True(errors.Is(err, ErrConstruction), "the failure is remembered for the type")

	data, err := s.engine.Marshal(&withMap{ID: 1, Bad: map[string]int{"a": 1}})
	s.Require().NoError(err, "the default policy leaves the map field out")
	s.Assert().Len(data, 8)
}

func (s *EngineTestSuite) TestNoSerializer() {
	_, err := s.engine.Marshal(make(chan int))
	s.Assert().ErrorIs(err, ErrNoSerializer)

	_, ok := s.engine.TryGet(reflect.TypeFor[map[string]int]())
	s.Assert().False(ok)

	s.Assert().ErrorIs(s.engine.Serialize(io.Discard, nil), ErrNilValue)
}

func (s *EngineTestSuite) TestCorruptFrames() {
	data, err := s.engine.Marshal(&point{X: 3, Y: 4})
	s.Require().NoError(err)

	cases := map[string][]byte{
		"TruncatedField":  data[:9],
		"TruncatedPrefix": data[:2],
		"OversizedFrame":  {0x7F, 0xFF, 0xFF, 0xFF, 0, 0, 0, 0},
		"FieldsPastFrame": {0x00, 0x00, 0x00, 0x04, 0, 0, 0, 3, 0, 0, 0, 4},
	}
	for name, input := range cases {
		s.T().Run(name, func(t *testing.T) {
			var p *point
			err := s.engine.Unmarshal(input, &p)
			require.Error(t, err)
			if name != "TruncatedPrefix" {
				assert.ErrorIs(t, err, ErrCorruptFrame)
			}
		})
	}

	s.T().Run("ImpossibleCount", func(t *testing.T) {
		type ints struct{ V []int32 }
		bad := []byte{0, 0, 0, 12, 0, 0, 0, 8, 0xFF, 0xFF, 0, 0, 0, 0, 0, 0}
		var out *ints
		assert.ErrorIs(t, s.engine.Unmarshal(bad, &out), ErrCorruptFrame)
	})

	s.T().Run("TrailingBytes", func(t *testing.T) {
		var p *point
		assert.ErrorIs(t, s.engine.Unmarshal(append(data, 0), &p), ErrCorruptFrame)
	})
}

func (s *EngineTestSuite) TestCustomSerializer() {
	codec := &tenthsSerializer{}
	e := New(WithCustomSerializer(reflect.TypeFor[celsius](), func() DataSerializer { return codec }))

	data, err := e.Marshal(&reading{Sensor: "t1", Temp: 21.5})
	s.Require().NoError(err)
	s.Assert().Equal(1, codec.writes)
	s.Assert().Equal([]byte{0, 0, 0, 10, 0, 0, 0, 2, 't', '1', 0, 0, 0, 215}, data)

	var out *reading
	s.Require().NoError(e.Unmarshal(data, &out))
	s.Assert().Equal(&reading{Sensor: "t1", Temp: 21.5}, out)
}

func (s *EngineTestSuite) TestHelperAndSkip() {
	h, err := s.engine.Helper(reflect.TypeFor[*point]())
	s.Require().NoError(err)

	out := NewOutput(64)
	s.Require().NoError(s.engine.SerializeTo(out, &recordV1{A: 1, B: "skip me"}, nil))
	s.Require().NoError(h.Encode(out, &point{X: 5, Y: 6}, nil))
	s.Assert().ErrorIs(h.Encode(out, point{}, nil), ErrTypeMismatch)

	in, release := s.engine.GetInput(bytes.NewReader(out.Bytes()))
	defer release.Release()

	s.Require().NoError(s.engine.Skip(in, DataTypeObject))
	v, err := h.Decode(in, nil)
	s.Require().NoError(err)
	s.Assert().Equal(&point{X: 5, Y: 6}, v)
	s.Assert().EqualValues(len(out.Bytes()), in.Position())
}

func (s *EngineTestSuite) TestHelperStreams() {
	h, err := s.engine.Helper(reflect.TypeFor[*node]())
	s.Require().NoError(err)
	s.Assert().Equal(reflect.TypeFor[*node](), h.Type())

	var buf bytes.Buffer
	s.Require().NoError(h.SerializeObject(&buf, &node{Name: "x"}))
	s.Assert().ErrorIs(h.SerializeObject(&buf, &point{}), ErrTypeMismatch)

	dst := &node{Name: "y"}
	s.Require().NoError(h.PopulateObject(bytes.NewReader(buf.Bytes()), dst))
	s.Assert().Equal("x", dst.Name)

	v, err := h.DeserializeObject(&buf)
	s.Require().NoError(err)
	s.Assert().Equal(&node{Name: "x"}, v)
}

func TestEngine(t *testing.T) {
	suite.Run(t, new(EngineTestSuite))
}

func TestGenericHelpers(t *testing.T) {
	data, err := Marshal(&point{X: 3, Y: 4})
	require.NoError(t, err)
	assert.Len(t, data, 12)

	p, err := Unmarshal[*point](data)
	require.NoError(t, err)
	assert.Equal(t, &point{X: 3, Y: 4}, p)

	v, err := Unmarshal[point](data)
	require.NoError(t, err, "a struct value shares the object framing")
	assert.Equal(t, point{X: 3, Y: 4}, v)

	dst := &point{X: 9, Y: 9}
	require.NoError(t, UnmarshalInto(data, dst))
	assert.Equal(t, &point{X: 3, Y: 4}, dst)

	buf := make([]byte, 12)
	n, err := MarshalTo(buf, &point{X: 3, Y: 4})
	require.NoError(t, err)
	assert.Equal(t, 12, n)
	assert.Equal(t, data, buf)

	_, err = MarshalTo(make([]byte, 5), &point{})
	assert.ErrorIs(t, err, io.ErrShortWrite)

	var stream bytes.Buffer
	require.NoError(t, Serialize(&stream, []string{"a", "b"}))
	strs, err := Deserialize[[]string](&stream)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, strs)

	require.NoError(t, Serialize(&stream, int32(-5)))
	i := int32(0)
	require.NoError(t, Populate(&stream, &i))
	assert.EqualValues(t, -5, i)
}
