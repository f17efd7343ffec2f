// File: api/pool.go
// Author: momentics <momentics@gmail.com>
//
// Defines the generic recyclable-cell pool contract, translating
// Pool<T>'s counted-ref model from the original C++ library: a cell is
// either resident in the pool with count == 0, or handed out with
// count >= 1.

package api

// ObjectPool provides generic pooling of Go objects allocated
// transiently, e.g. a flatbuffer-builder pool where Get resets the
// builder (its Clear() equivalent) before returning it.
type ObjectPool[T any] interface {
	// Get returns an available instance from pool, resetting it first.
	Get() T

	// Put returns an instance for reuse.
	Put(obj T)
}
