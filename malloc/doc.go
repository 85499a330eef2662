// Package malloc supplies pooled memory management for managed
// objects, with a limited scope:
//
//   - Memory is reserved from the runtime in blocks, typically several
//     Megabytes, where each block is carved into chunks of one slab
//     size.
//   - Blocks are partitioned by affinity class. Chunks of the same
//     class stay co-located and classes never share blocks or locks.
//   - Once a block is reserved it is not automatically given back to
//     the runtime. Blocks are released only by an explicit Trim() call,
//     or when the entire arena is Released.
//   - There is no pointer re-write and no coalescing across slab
//     sizes.
//   - Chunks issued by this package are always aligned to the
//     configured alignment, 8-byte by default.
//
// Arena is the process-wide allocator. Applications normally reach it
// through the lazily initialized Default() mallocer, which can be
// configured, or swapped for the pass-through variant, only before the
// first allocation goes through it.
package malloc
