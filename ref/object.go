package ref

import "sync/atomic"
import "unsafe"

import "github.com/bnclabs/gomem/api"
import "github.com/bnclabs/gomem/malloc"

// hdr precedes every managed payload within its memory chunk. Scalars
// only, allocator blocks are invisible to the garbage collector.
type hdr struct {
	refcount int64
	flags    uint32 // flagaux when an auxiliary record exists
	class    uint32 // affinity class recorded for Free
}

const hdrsize = int64(unsafe.Sizeof(hdr{}))

const flagaux = uint32(1)

// Finalizer payloads implementing this interface get their cleanup
// logic invoked exactly once, when the last owning handle is released
// and before the chunk is reclaimed.
type Finalizer interface {
	Finalize()
}

// New construct a managed object of type T under the given affinity
// class and return the first owning handle to it. The payload is
// zeroed, `init` (optional) runs before the object becomes visible,
// so no window exists where the object is live but unreferenced.
func New[T any](class api.Affinity, init func(*T)) Ref[T] {
	var zero T
	size := hdrsize + int64(unsafe.Sizeof(zero))
	ptr := malloc.Default().Alloc(size, class)

	h := (*hdr)(ptr)
	h.refcount, h.flags, h.class = 0, 0, uint32(class)
	obj := (*T)(unsafe.Add(ptr, hdrsize))
	*obj = zero
	if init != nil {
		init(obj)
	}
	atomic.StoreInt64(&h.refcount, 1)
	return Ref[T]{obj: obj}
}

func header[T any](obj *T) *hdr {
	return (*hdr)(unsafe.Add(unsafe.Pointer(obj), -hdrsize))
}

// destroy is reached by exactly one releasing handle, the one whose
// decrement observed zero. Cleanup runs first, then observers expire,
// then the chunk is reclaimed, in that order.
func destroy[T any](obj *T, h *hdr) {
	if f, ok := any(obj).(Finalizer); ok {
		f.Finalize()
	}
	ptr := unsafe.Pointer(h)
	if atomic.LoadUint32(&h.flags)&flagaux != 0 {
		dropaux(uintptr(ptr))
	}
	malloc.Default().Free(ptr, api.Affinity(h.class))
}
