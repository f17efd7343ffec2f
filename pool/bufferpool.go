// File: pool/bufferpool.go
// Package pool implements a reference-counted fixed-size buffer pool,
// translating the original library's Pool<T> template (library/Pool.h)
// and adapting a lock-free slab allocator to a preferred/fallback
// split instead of NUMA size-classing.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package pool

import (
	"sync/atomic"

	"github.com/RLBot/cpp-interface/api"
	"github.com/RLBot/cpp-interface/core/concurrency"
)

// cell is one buffer's shared state: the backing array, a reference
// count, whether it is a kernel-registered ("preferred") cell, and the
// pool it returns to on release. Mirrors Pool<T>::Ref's
// shared_ptr<pair<atomic_uint,T>> in library/Pool.h.
type cell struct {
	data      []byte
	refs      atomic.Int32
	preferred bool
	owner     *BufferPool
}

func (c *cell) Bytes() []byte { return c.data }

func (c *cell) Slice(from, to int) api.Buffer {
	c.refs.Add(1)
	return &slicedBuffer{cell: c, data: c.data[from:to]}
}

func (c *cell) Retain() { c.refs.Add(1) }

func (c *cell) Release() {
	if c.refs.Add(-1) == 0 {
		c.owner.recycle(c)
	}
}

func (c *cell) Copy() []byte {
	out := make([]byte, len(c.data))
	copy(out, c.data)
	return out
}

func (c *cell) Preferred() bool { return c.preferred }

var _ api.Buffer = (*cell)(nil)

// slicedBuffer is an O(1) sub-view of a cell sharing its reference
// count; Release/Retain forward to the parent cell.
type slicedBuffer struct {
	cell *cell
	data []byte
}

func (s *slicedBuffer) Bytes() []byte { return s.data }
func (s *slicedBuffer) Slice(from, to int) api.Buffer {
	s.cell.refs.Add(1)
	return &slicedBuffer{cell: s.cell, data: s.data[from:to]}
}
func (s *slicedBuffer) Retain()      { s.cell.Retain() }
func (s *slicedBuffer) Release()     { s.cell.Release() }
func (s *slicedBuffer) Preferred() bool { return s.cell.Preferred() }
func (s *slicedBuffer) Copy() []byte {
	out := make([]byte, len(s.data))
	copy(out, s.data)
	return out
}

var _ api.Buffer = (*slicedBuffer)(nil)

// defaultPoolCapacity bounds the lock-free free-lists; beyond this,
// released cells are simply dropped (garbage collected) rather than
// queued.
const defaultPoolCapacity = 4096

// BufferPool hands out fixed-capacity api.BufferCapacity buffers,
// preferring a "preferred" (kernel-registered) free-list over the
// general one when available.
type BufferPool struct {
	preferredList *concurrency.LockFreeQueue[*cell]
	generalList   *concurrency.LockFreeQueue[*cell]

	totalAlloc atomic.Int64
	totalFree  atomic.Int64
	inUse      atomic.Int64
	watermark  atomic.Int64
	preferCnt  atomic.Int64
}

// NewBufferPool constructs an empty pool. preferredCapacity should
// match the number of buffers registered with the kernel I/O backend
// (the "PREALLOCATED_BUFFERS" count from the original Connection.cpp).
func NewBufferPool(preferredCapacity int) *BufferPool {
	if preferredCapacity <= 0 {
		preferredCapacity = 32
	}
	return &BufferPool{
		preferredList: concurrency.NewLockFreeQueue[*cell](preferredCapacity),
		generalList:   concurrency.NewLockFreeQueue[*cell](defaultPoolCapacity),
	}
}

// RegisterPreferred seeds the preferred free-list with n freshly
// allocated, kernel-registerable cells. The Linux io_uring backend
// calls this once at startup with its fixed-buffer registration count.
func (p *BufferPool) RegisterPreferred(n int) {
	for i := 0; i < n; i++ {
		c := &cell{data: make([]byte, api.BufferCapacity), preferred: true, owner: p}
		p.preferredList.Enqueue(c)
	}
}

// Get returns a buffer with its reference count at one, preferring a
// kernel-registered cell when one is free.
func (p *BufferPool) Get() api.Buffer {
	if c, ok := p.preferredList.Dequeue(); ok {
		c.refs.Store(1)
		p.afterAcquire()
		return c
	}
	if c, ok := p.generalList.Dequeue(); ok {
		c.refs.Store(1)
		p.afterAcquire()
		return c
	}
	c := &cell{data: make([]byte, api.BufferCapacity), owner: p}
	c.refs.Store(1)
	p.totalAlloc.Add(1)
	p.afterAcquire()
	return c
}

func (p *BufferPool) afterAcquire() {
	inUse := p.inUse.Add(1)
	for {
		cur := p.watermark.Load()
		if inUse <= cur || p.watermark.CompareAndSwap(cur, inUse) {
			break
		}
	}
}

// Put is equivalent to calling Release on b directly.
func (p *BufferPool) Put(b api.Buffer) { b.Release() }

func (p *BufferPool) recycle(c *cell) {
	p.inUse.Add(-1)
	p.totalFree.Add(1)
	var ok bool
	if c.preferred {
		ok = p.preferredList.Enqueue(c)
	} else {
		ok = p.generalList.Enqueue(c)
	}
	if !ok {
		// free-list full: drop the cell, let GC reclaim it.
		return
	}
}

// Stats reports pool accounting for diagnostics.
func (p *BufferPool) Stats() api.BufferPoolStats {
	return api.BufferPoolStats{
		TotalAlloc: p.totalAlloc.Load(),
		TotalFree:  p.totalFree.Load(),
		InUse:      p.inUse.Load(),
		Watermark:  p.watermark.Load(),
		Preferred:  int64(p.preferredList.Len()),
	}
}

var _ api.BufferPool = (*BufferPool)(nil)
