// Package fake
// Author: momentics <momentics@gmail.com>
//
// Fake buffer and buffer pool implementations for testing, implementing
// api.Buffer/api.BufferPool's reference-counted, fixed-capacity
// contract directly rather than NUMA-sized allocation.

package fake

import (
	"sync"

	"github.com/RLBot/cpp-interface/api"
)

// Buffer is a fake, reference-counted implementation of api.Buffer.
type Buffer struct {
	mu    sync.Mutex
	data  []byte
	refs  int
	pref  bool
	owner *BufferPool
}

// NewBuffer allocates a standalone fake buffer not tied to any pool;
// Release on the last reference simply drops it.
func NewBuffer(size int, preferred bool) *Buffer {
	return &Buffer{data: make([]byte, size), refs: 1, pref: preferred}
}

func (b *Buffer) Bytes() []byte { return b.data }

func (b *Buffer) Slice(from, to int) api.Buffer {
	b.mu.Lock()
	b.refs++
	b.mu.Unlock()
	return &slicedBuffer{parent: b, data: b.data[from:to]}
}

func (b *Buffer) Retain() {
	b.mu.Lock()
	b.refs++
	b.mu.Unlock()
}

func (b *Buffer) Release() {
	b.mu.Lock()
	b.refs--
	zero := b.refs == 0
	b.mu.Unlock()
	if zero && b.owner != nil {
		b.owner.recycle(b)
	}
}

func (b *Buffer) Copy() []byte {
	out := make([]byte, len(b.data))
	copy(out, b.data)
	return out
}

func (b *Buffer) Preferred() bool { return b.pref }

// RefCount exposes the current reference count, for assertions in
// pool-lifecycle tests.
func (b *Buffer) RefCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.refs
}

var _ api.Buffer = (*Buffer)(nil)

// slicedBuffer is an O(1) sub-view sharing its parent's reference count.
type slicedBuffer struct {
	parent *Buffer
	data   []byte
}

func (s *slicedBuffer) Bytes() []byte { return s.data }
func (s *slicedBuffer) Slice(from, to int) api.Buffer {
	s.parent.Retain()
	return &slicedBuffer{parent: s.parent, data: s.data[from:to]}
}
func (s *slicedBuffer) Retain()         { s.parent.Retain() }
func (s *slicedBuffer) Release()        { s.parent.Release() }
func (s *slicedBuffer) Preferred() bool { return s.parent.Preferred() }
func (s *slicedBuffer) Copy() []byte {
	out := make([]byte, len(s.data))
	copy(out, s.data)
	return out
}

var _ api.Buffer = (*slicedBuffer)(nil)

// BufferPool is a fake api.BufferPool that always allocates a fresh
// api.BufferCapacity-sized buffer, tracking simple accounting for tests
// that assert on Stats() rather than exercising the real free-lists.
type BufferPool struct {
	mu    sync.Mutex
	alloc int64
	freed int64
	inUse int64
}

// NewBufferPool constructs an empty fake pool.
func NewBufferPool() *BufferPool { return &BufferPool{} }

func (p *BufferPool) Get() api.Buffer {
	p.mu.Lock()
	p.alloc++
	p.inUse++
	p.mu.Unlock()

	b := NewBuffer(api.BufferCapacity, false)
	b.owner = p
	return b
}

func (p *BufferPool) Put(b api.Buffer) { b.Release() }

func (p *BufferPool) recycle(*Buffer) {
	p.mu.Lock()
	p.freed++
	p.inUse--
	p.mu.Unlock()
}

func (p *BufferPool) Stats() api.BufferPoolStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return api.BufferPoolStats{
		TotalAlloc: p.alloc,
		TotalFree:  p.freed,
		InUse:      p.inUse,
	}
}

var _ api.BufferPool = (*BufferPool)(nil)
