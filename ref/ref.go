package ref

import "sync/atomic"

// Ref is an owning handle to a managed object. It is exactly one
// pointer wide. The zero value is a valid nil handle.
//
// Every Ref contributes one unit to its target's reference count.
// Handles are duplicated with Clone, transferred with Move and dropped
// with Release; the Release observing the count reach zero destroys
// the object synchronously.
type Ref[T any] struct {
	obj *T
}

// IsNil report whether the handle is empty.
func (r Ref[T]) IsNil() bool {
	return r.obj == nil
}

// Get the payload. Valid only while the handle is live.
func (r Ref[T]) Get() *T {
	return r.obj
}

// Clone duplicate the handle, incrementing the target's reference
// count before the pointer is copied.
func (r Ref[T]) Clone() Ref[T] {
	if r.obj == nil {
		return Ref[T]{}
	}
	atomic.AddInt64(&header(r.obj).refcount, 1)
	return Ref[T]{obj: r.obj}
}

// Move transfer ownership out of this handle, leaving it nil. The
// reference count is untouched.
func (r *Ref[T]) Move() Ref[T] {
	obj := r.obj
	r.obj = nil
	return Ref[T]{obj: obj}
}

// Release drop the handle. The decrement that observes the count
// transition to zero finalizes the object, expires its observers and
// returns the chunk to the block that issued it. Safe on nil handles.
func (r *Ref[T]) Release() {
	obj := r.obj
	if obj == nil {
		return
	}
	r.obj = nil
	h := header(obj)
	if atomic.AddInt64(&h.refcount, -1) == 0 {
		destroy(obj, h)
	}
}

// Reset replace this handle's target with other's. The new target is
// retained before the old one is released, so resetting a handle to
// itself never drops the count through zero.
func (r *Ref[T]) Reset(other Ref[T]) {
	next := other.Clone()
	old := Ref[T]{obj: r.obj}
	r.obj = next.obj
	old.Release()
}

// Refcount current reference count, a diagnostic snapshot.
func (r Ref[T]) Refcount() int64 {
	if r.obj == nil {
		return 0
	}
	return atomic.LoadInt64(&header(r.obj).refcount)
}
