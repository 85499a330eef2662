// Package gomem implements an intrusively reference-counted object
// model over a pooled, affinity-partitioned block allocator.
//
// api:
//
// Interface specification and shared definitions: the Mallocer
// interface, affinity classes and exported error values.
//
// lib:
//
// Helper functions and types used across the module.
//
// malloc:
//
// Pooled memory management. Memory is reserved from the runtime in
// blocks, carved into slab sized chunks and partitioned by affinity
// class. Includes the process-wide mallocer singleton and a
// pass-through fall-back variant.
//
// ref:
//
// Managed objects: the Ref owning handle, the Weak observer handle,
// per-object auxiliary records with named values, and managed bulk
// data buffers.
package gomem
