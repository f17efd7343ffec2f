// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT
//
// SyncPool backs pools like a flatbuffer-builder pool: Get resets the
// instance via the supplied reset function (the builder's Clear()
// equivalent) before handing it out.

package pool

import "sync"

// SyncPool wraps sync.Pool for generic, reset-on-acquire usage.
type SyncPool[T any] struct {
	pool  *sync.Pool
	reset func(T)
}

// NewSyncPool creates a new SyncPool with a creator function and an
// optional reset function run on every Get (nil disables resetting).
func NewSyncPool[T any](creator func() T, reset func(T)) *SyncPool[T] {
	return &SyncPool[T]{
		pool:  &sync.Pool{New: func() any { return creator() }},
		reset: reset,
	}
}

func (sp *SyncPool[T]) Get() T {
	v := sp.pool.Get().(T)
	if sp.reset != nil {
		sp.reset(v)
	}
	return v
}

func (sp *SyncPool[T]) Put(obj T) {
	sp.pool.Put(obj)
}
