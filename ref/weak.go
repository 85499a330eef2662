package ref

import "sync/atomic"
import "unsafe"

// Weak is an observer handle: it can resolve its target while the
// target lives and reports expired once the target is destroyed, but
// never contributes to the reference count and never delays or
// prevents destruction. The zero value is an expired handle.
//
// Weak handles are registered in the target's auxiliary record and
// expired under the registry shard lock during destruction, before the
// chunk is reclaimed, so a Weak never dereferences reclaimed memory.
type Weak[T any] struct {
	p atomic.Pointer[T]
}

// NewWeak register a new observer of r's target. A nil handle yields
// an already expired observer.
func NewWeak[T any](r Ref[T]) *Weak[T] {
	w := &Weak[T]{}
	if r.obj == nil {
		return w
	}
	h := header(r.obj)
	addr := uintptr(unsafe.Pointer(h))
	reg := regshard(addr)
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.getaux(addr, h).observers.Add(w)
	w.p.Store(r.obj)
	return w
}

// Expired report whether the target has been destroyed.
func (w *Weak[T]) Expired() bool {
	return w.p.Load() == nil
}

// Ref resolve the observer into an owning handle. Returns an empty
// handle when the target is destroyed or mid-destruction. The count is
// incremented only while it is observably greater than zero, so a
// destruction already decided can never be resurrected.
func (w *Weak[T]) Ref() Ref[T] {
	obj := w.p.Load()
	if obj == nil {
		return Ref[T]{}
	}
	h := header(obj)
	reg := regshard(uintptr(unsafe.Pointer(h)))
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if w.p.Load() == nil { // expired while acquiring the shard
		return Ref[T]{}
	}
	for {
		rc := atomic.LoadInt64(&h.refcount)
		if rc <= 0 {
			return Ref[T]{}
		}
		if atomic.CompareAndSwapInt64(&h.refcount, rc, rc+1) {
			return Ref[T]{obj: obj}
		}
	}
}

// Clone register another observer of the same target. Cloning an
// expired handle yields an expired handle.
func (w *Weak[T]) Clone() *Weak[T] {
	obj := w.p.Load()
	if obj == nil {
		return &Weak[T]{}
	}
	h := header(obj)
	addr := uintptr(unsafe.Pointer(h))
	reg := regshard(addr)
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if w.p.Load() == nil {
		return &Weak[T]{}
	}
	nw := &Weak[T]{}
	reg.getaux(addr, h).observers.Add(nw)
	nw.p.Store(obj)
	return nw
}

// Forget deregister the observer without waiting for the target to
// die. Safe on expired handles.
func (w *Weak[T]) Forget() {
	obj := w.p.Load()
	if obj == nil {
		return
	}
	addr := uintptr(unsafe.Pointer(header(obj)))
	reg := regshard(addr)
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if w.p.Load() == nil {
		return
	}
	if rec, ok := reg.recs[addr]; ok {
		rec.observers.Remove(w)
	}
	w.p.Store(nil)
}

func (w *Weak[T]) expire() {
	w.p.Store(nil)
}
