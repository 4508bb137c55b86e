package misc

import (
	"bytes"
	"sync"
)

// Resetter is implemented by values that can be cleared for reuse.
type Resetter interface {
	Reset()
}

// Pool is a typed sync.Pool for Resetter values. Values rejected by the keep
// predicate are dropped instead of being returned to the pool.
type Pool[T Resetter] struct {
	p    sync.Pool
	keep func(T) bool
}

// NewPool creates a Pool; keep may be nil to retain every value.
func NewPool[T Resetter](newFn func() T, keep func(T) bool) *Pool[T] {
	pl := &Pool[T]{keep: keep}
	pl.p.New = func() any { return newFn() }
	return pl
}

// Get returns a pooled value or a fresh one.
func (pl *Pool[T]) Get() T {
	if v, ok := pl.p.Get().(T); ok {
		return v
	}
	var zero T
	return zero
}

// Put resets v and hands it back to the pool.
func (pl *Pool[T]) Put(v T) {
	if pl.keep != nil && !pl.keep(v) {
		return
	}
	v.Reset()
	pl.p.Put(v)
}

// MaxPooledBuffer caps the capacity of buffers kept by NewBufferPool.
const MaxPooledBuffer = 1 << 20

// NewBufferPool pools byte buffers, discarding ones that grew past MaxPooledBuffer.
func NewBufferPool() *Pool[*bytes.Buffer] {
	return NewPool(
		func() *bytes.Buffer { return new(bytes.Buffer) },
		func(b *bytes.Buffer) bool { return b != nil && b.Cap() <= MaxPooledBuffer },
	)
}
