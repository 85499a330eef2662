package malloc

import "sync"
import "unsafe"

import "github.com/bnclabs/gomem/api"

type passchunk struct {
	buf   []byte
	class api.Affinity
}

// Passthru is the fall-back mallocer, forwarding every request to the
// Go runtime and bypassing pooling altogether. Select it at process
// start via SetMallocer() to debug allocator related memory corruption
// with external tooling.
type Passthru struct {
	mu       sync.Mutex
	chunks   map[unsafe.Pointer]passchunk
	reserved int64
}

// NewPassthru create a pass-through mallocer.
func NewPassthru() *Passthru {
	return &Passthru{chunks: make(map[unsafe.Pointer]passchunk)}
}

// Alloc implement api.Mallocer{} interface.
func (pt *Passthru) Alloc(n int64, class api.Affinity) unsafe.Pointer {
	if n <= 0 {
		panicerr("Alloc: invalid size %v", n)
	}
	buf := make([]byte, n)
	ptr := unsafe.Pointer(&buf[0])
	pt.mu.Lock()
	defer pt.mu.Unlock()
	if pt.chunks == nil {
		panicerr("mallocer released")
	}
	pt.chunks[ptr] = passchunk{buf: buf, class: class}
	pt.reserved += n
	return ptr
}

// Free implement api.Mallocer{} interface.
func (pt *Passthru) Free(ptr unsafe.Pointer, class api.Affinity) {
	pt.mu.Lock()
	defer pt.mu.Unlock()
	chunk, ok := pt.chunks[ptr]
	if !ok {
		panicerr("Free: pointer %p not allocated here", ptr)
	} else if chunk.class != class {
		panicerr("Free: class %v, allocated as %v", class, chunk.class)
	}
	delete(pt.chunks, ptr)
	pt.reserved -= int64(len(chunk.buf))
}

// SetBlocksize implement api.Mallocer{} interface. No blocks here,
// hence a no-op.
func (pt *Passthru) SetBlocksize(class api.Affinity, size int64) {
}

// Info implement api.Mallocer{} interface.
func (pt *Passthru) Info() (available, reserved, total int64) {
	pt.mu.Lock()
	defer pt.mu.Unlock()
	return 0, pt.reserved, pt.reserved
}

// Trim implement api.Mallocer{} interface. Nothing is pooled, hence
// nothing to release.
func (pt *Passthru) Trim() (freed int64) {
	return 0
}

// Release implement api.Mallocer{} interface.
func (pt *Passthru) Release() {
	pt.mu.Lock()
	defer pt.mu.Unlock()
	pt.chunks, pt.reserved = nil, 0
}
