package graphcodec

import (
	"io"
	"sync"
)

// ObjectPool is a mutex-guarded free list. The lock is held only around the
// list itself, never while creating or cleaning an item.
type ObjectPool[T any] struct {
	mu      sync.Mutex
	objects []T
	newFn   func() T
	cleanFn func(T)
}

// NewObjectPool creates a pool that builds items with newFn and resets them
// with cleanFn, which may be nil, when they are returned.
func NewObjectPool[T any](newFn func() T, cleanFn func(T)) *ObjectPool[T] {
	if newFn == nil {
		panic("codec: NewObjectPool called with a nil constructor")
	}
	return &ObjectPool[T]{
		objects: make([]T, 0, 32),
		newFn:   newFn,
		cleanFn: cleanFn,
	}
}

// GetObject returns an idle item or a new one.
func (p *ObjectPool[T]) GetObject() T {
	p.mu.Lock()
	if n := len(p.objects); n > 0 {
		item := p.objects[n-1]
		var zero T
		p.objects[n-1] = zero
		p.objects = p.objects[:n-1]
		p.mu.Unlock()
		return item
	}
	p.mu.Unlock()
	return p.newFn()
}

// PutObject cleans item and makes it available again.
func (p *ObjectPool[T]) PutObject(item T) {
	if p.cleanFn != nil {
		p.cleanFn(item)
	}
	p.mu.Lock()
	p.objects = append(p.objects, item)
	p.mu.Unlock()
}

// Idle returns the number of items waiting in the pool.
func (p *ObjectPool[T]) Idle() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.objects)
}

// Get acquires an item together with the handle that returns it.
func (p *ObjectPool[T]) Get() (T, *PooledHandle[T]) {
	item := p.GetObject()
	return item, &PooledHandle[T]{pool: p, item: item}
}

// PooledHandle returns its item to the pool on Release. Release is meant to
// be deferred and is safe to call more than once.
type PooledHandle[T any] struct {
	pool *ObjectPool[T]
	item T
}

// Release returns the item to its pool.
func (h *PooledHandle[T]) Release() {
	if h == nil || h.pool == nil {
		return
	}
	h.pool.PutObject(h.item)
	h.pool = nil
	var zero T
	h.item = zero
}

// bufferPools holds the Output and Input free lists of one engine.
type bufferPools struct {
	outputs *ObjectPool[*Output]
	inputs  *ObjectPool[*Input]
}

func newBufferPools(size int) bufferPools {
	return bufferPools{
		outputs: NewObjectPool(func() *Output { return NewOutput(size) }, (*Output).release),
		inputs:  NewObjectPool(func() *Input { return NewInput(size) }, (*Input).release),
	}
}

// GetOutput acquires an Output bound to w. Release the handle to flush the
// pending bytes and return the Output to the pool.
func (e *Engine) GetOutput(w io.Writer) (*Output, *PooledHandle[*Output]) {
	out, h := e.pools.outputs.Get()
	out.SetStream(w)
	return out, h
}

// GetInput acquires an Input bound to r. Release the handle to discard the
// unread bytes and return the Input to the pool.
func (e *Engine) GetInput(r io.Reader) (*Input, *PooledHandle[*Input]) {
	in, h := e.pools.inputs.Get()
	in.SetStream(r)
	return in, h
}
