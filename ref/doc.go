// Package ref implements intrusively reference-counted objects backed
// by the malloc pooled allocator.
//
// Managed objects carry their count in a small header placed in the
// same memory chunk as the payload, so an owning handle Ref[T] costs
// exactly one pointer and no separate control block. Weak[T] observes
// an object without owning it: once the last Ref is released the
// object is finalized, every registered Weak is expired, and the chunk
// goes back to the block that issued it.
//
// Payloads live inside allocator blocks, which the garbage collector
// does not scan. Payload types must therefore not hold references to
// garbage collected memory; associate such values through named values
// instead, see SetValue.
package ref
