// Package databatch implements the unit of dataflow exchanged between
// operators: a tagged, sequenced, refcounted MicroBatch, backed by a
// per-worker BufferPool (spec.md §4.2).
package databatch

import (
	"sync"

	"go.uber.org/atomic"
)

// WriteBuffer is a fixed-capacity, append-only buffer handed out by a
// BufferPool. Only the owning operator writes to it; once Finalize is
// called it becomes an immutable, shareable ReadBuffer.
type WriteBuffer[T any] struct {
	pool *BufferPool[T]
	data []T
}

// Push appends one item. It panics if the buffer is already at capacity
// — callers must check Len against the configured batch_size before
// pushing, exactly as the Session in package operator does.
func (w *WriteBuffer[T]) Push(item T) {
	if cap(w.data) > 0 && len(w.data) >= cap(w.data) {
		panic("databatch: WriteBuffer push past capacity")
	}
	w.data = append(w.data, item)
}

// Len returns the number of items currently buffered.
func (w *WriteBuffer[T]) Len() int { return len(w.data) }

// Cap returns the buffer's configured capacity.
func (w *WriteBuffer[T]) Cap() int { return cap(w.data) }

// Finalize freezes the buffer into a ReadBuffer with one outstanding
// share. The WriteBuffer must not be used again afterward.
func (w *WriteBuffer[T]) Finalize() *ReadBuffer[T] {
	rb := &ReadBuffer[T]{pool: w.pool, data: w.data}
	rb.shares.Store(1)
	return rb
}

// ReadBuffer is an immutable, refcounted slice of items. Cloning a share
// (Share) increments the refcount instead of copying the backing array;
// once the last share is released the backing array returns to the pool
// that issued it (spec.md §4.2's contract).
type ReadBuffer[T any] struct {
	pool   *BufferPool[T]
	data   []T
	shares atomic.Int32
}

// Len reports how many items the buffer holds. An end-of-scope-only
// batch has Len() == 0.
func (r *ReadBuffer[T]) Len() int {
	if r == nil {
		return 0
	}
	return len(r.data)
}

// Drain consumes the buffer by value, calling f once per item in order.
// Drain is exclusive to the owning share and must be called at most once
// per Share; subsequent Iter/Drain calls on the exhausted buffer still
// see the same backing data since Drain never mutates it — spec.md
// draws the drain/iter distinction only to document intent, not to gate
// repeat reads.
func (r *ReadBuffer[T]) Drain(f func(T)) {
	if r == nil {
		return
	}
	for _, item := range r.data {
		f(item)
	}
}

// Iter borrows the buffer's items without consuming it.
func (r *ReadBuffer[T]) Iter() []T {
	if r == nil {
		return nil
	}
	return r.data
}

// Share increments the share count and returns another handle onto the
// same backing bytes. Each Share must be balanced by exactly one
// Release.
func (r *ReadBuffer[T]) Share() *ReadBuffer[T] {
	if r == nil {
		return nil
	}
	r.shares.Inc()
	return r
}

// Release decrements the share count; when it reaches zero the backing
// array is returned to the pool for reuse.
func (r *ReadBuffer[T]) Release() {
	if r == nil {
		return
	}
	if r.shares.Dec() == 0 && r.pool != nil {
		r.pool.put(r.data)
	}
}

// BufferPool hands out fixed-capacity WriteBuffers and recycles the
// backing arrays of ReadBuffers whose last share was released. It is
// per-worker and single-threaded in the steady case, but Put/Get take a
// lock because buffer release can be triggered from a different
// operator's Session than the one that allocated it (e.g. a Tee handing
// shares to several downstream channels drained at different times).
type BufferPool[T any] struct {
	capacity int

	mu    sync.Mutex
	spare [][]T
}

// NewBufferPool creates a pool that hands out write buffers of the given
// capacity (spec.md's batch_size).
func NewBufferPool[T any](capacity int) *BufferPool[T] {
	if capacity <= 0 {
		panic("databatch: BufferPool capacity must be positive")
	}
	return &BufferPool[T]{capacity: capacity}
}

// Get returns a fresh WriteBuffer, reusing a recycled backing array when
// one is available.
func (p *BufferPool[T]) Get() *WriteBuffer[T] {
	p.mu.Lock()
	var data []T
	if n := len(p.spare); n > 0 {
		data = p.spare[n-1][:0]
		p.spare = p.spare[:n-1]
	} else {
		data = make([]T, 0, p.capacity)
	}
	p.mu.Unlock()
	return &WriteBuffer[T]{pool: p, data: data}
}

func (p *BufferPool[T]) put(data []T) {
	if cap(data) != p.capacity {
		return // foreign-sized slice (e.g. a merge result); let the GC take it
	}
	p.mu.Lock()
	p.spare = append(p.spare, data[:0])
	p.mu.Unlock()
}
