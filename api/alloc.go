package api

import "unsafe"

// Affinity classifies an allocation by its expected life-cycle and
// access pattern. Every affinity class is serviced by its own set of
// memory blocks, tuned independently via SetBlocksize, so that objects
// with similar behaviour stay co-located and classes never contend
// with each other.
//
// The enumeration is open, applications can define further classes:
//
//	const Texture = api.Affinity(100)
type Affinity uint32

const (
	// General short-lived objects without a more specific class.
	General Affinity = iota

	// Node long-lived graph-structure nodes.
	Node

	// Bulk large bulk-data arrays.
	Bulk
)

// Mallocer interface for custom memory management. Memory chunks
// issued by a Mallocer are always aligned to the configured global
// alignment.
type Mallocer interface {
	// Alloc allocate a chunk of `n` bytes from the block set servicing
	// `class`. Never returns nil, allocation failure panics with
	// ErrorOutofMemory.
	Alloc(n int64, class Affinity) unsafe.Pointer

	// Free chunk back to the block that issued it. `class` shall be
	// the same affinity class used at allocation time, mismatch is a
	// caller contract violation and fails fast.
	Free(ptr unsafe.Pointer, class Affinity)

	// SetBlocksize override the default block size for `class`. Valid
	// only while the class has no blocks allocated.
	SetBlocksize(class Affinity, size int64)

	// Info return memory accounting across all block sets:
	// `available` bytes free within reserved blocks, `reserved` bytes
	// handed out to live allocations, `total` bytes obtained from the
	// runtime.
	Info() (available, reserved, total int64)

	// Trim release fully-empty blocks back to the runtime and return
	// the number of bytes released. Never automatic, applications call
	// this at explicit low-water points.
	Trim() (freed int64)

	// Release the mallocer and all its blocks. Mallocer is unusable
	// after this call.
	Release()
}
