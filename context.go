package graphcodec

import "github.com/cockroachdb/errors"

// Context carries the state of one Serialize or Deserialize call through the
// recursive write/read. It must not be shared between concurrent calls.
type Context struct {
	// Value is passed untouched to every serializer of the call.
	Value any

	maxStack int
	stacks   map[DataSerializer]int
}

// NewContext creates a call context whose cycle guard trips after maxStack
// nested invocations of one codec. A non-positive maxStack means MaxStack.
func NewContext(value any, maxStack int) *Context {
	if maxStack <= 0 {
		maxStack = MaxStack
	}
	return &Context{Value: value, maxStack: maxStack}
}

// guard enters codec on ctx, creating a context when the caller passed none.
// Every framed codec goes through it, so nesting is bounded whether it runs
// through pointers, slices or struct values.
func guard(ctx *Context, codec DataSerializer) (*Context, error) {
	if ctx == nil {
		ctx = NewContext(nil, MaxStack)
	}
	return ctx, ctx.enter(codec)
}

// enter records one more live invocation of codec, failing once the guard's
// bound is reached.
func (c *Context) enter(codec DataSerializer) error {
	if c.stacks == nil {
		c.stacks = make(map[DataSerializer]int, 4)
	}
	depth := c.stacks[codec]
	if depth >= c.maxStack {
		return errors.Wrapf(ErrCircularReference, "%d nested invocations", depth)
	}
	c.stacks[codec] = depth + 1
	return nil
}

func (c *Context) leave(codec DataSerializer) {
	if depth := c.stacks[codec]; depth > 1 {
		c.stacks[codec] = depth - 1
	} else {
		delete(c.stacks, codec)
	}
}

// Depth returns the number of live invocations of codec.
func (c *Context) Depth(codec DataSerializer) int { return c.stacks[codec] }
