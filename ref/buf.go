package ref

import "sync/atomic"
import "unsafe"

import "github.com/bnclabs/gomem/api"
import "github.com/bnclabs/gomem/lib"
import "github.com/bnclabs/gomem/malloc"

// Buf is a managed bulk-data buffer. Header and bytes live in a single
// allocator chunk under the Bulk affinity class.
type Buf struct {
	data unsafe.Pointer
	size int64
}

const bufsize = int64(unsafe.Sizeof(Buf{}))

// NewBytes construct a managed buffer of `n` bytes and return the
// first owning handle to it.
func NewBytes(n int64) Ref[Buf] {
	if n < 0 {
		panic("NewBytes: negative size")
	}
	ptr := malloc.Default().Alloc(hdrsize+bufsize+n, api.Bulk)
	h := (*hdr)(ptr)
	h.refcount, h.flags, h.class = 0, 0, uint32(api.Bulk)
	buf := (*Buf)(unsafe.Add(ptr, hdrsize))
	buf.data = unsafe.Add(ptr, hdrsize+bufsize)
	buf.size = n
	atomic.StoreInt64(&h.refcount, 1)
	return Ref[Buf]{obj: buf}
}

// Size of the buffer.
func (b *Buf) Size() int64 {
	return b.size
}

// Bytes view over the buffer. The slice aliases managed memory and
// shall not outlive the owning handle.
func (b *Buf) Bytes() []byte {
	if b.size == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(b.data), b.size)
}

// CopyFrom copy src into the buffer, truncating at the buffer size.
// Returns the number of bytes copied.
func (b *Buf) CopyFrom(src []byte) int {
	n := len(src)
	if int64(n) > b.size {
		n = int(b.size)
	}
	if n == 0 {
		return 0
	}
	return lib.Memcpy(b.data, unsafe.Pointer(&src[0]), n)
}
