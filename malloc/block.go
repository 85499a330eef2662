package malloc

import "unsafe"

// memblock is one contiguous reservation from the runtime, carved into
// chunks of a single slab size. The backing buffer is a plain byte
// slice, releasing the block is dropping the reference.
type memblock struct {
	buf       []byte
	base      unsafe.Pointer // aligned into buf
	capacity  int64          // bytes accounted against the runtime
	slab      int64          // chunk size served by this block
	nslots    int64
	allocated int64 // number of live chunks
	slots     slotter
}

func newmemblock(slab, blocksize, alignment int64, allocator string) *memblock {
	capacity := blocksize
	if slab > capacity {
		capacity = slab
	}
	nslots := capacity / slab
	buf := make([]byte, capacity+alignment)
	base := unsafe.Pointer(&buf[0])
	if off := uintptr(base) & uintptr(alignment-1); off != 0 {
		base = unsafe.Add(base, uintptr(alignment)-off)
	}
	blk := &memblock{
		buf: buf, base: base, capacity: capacity,
		slab: slab, nslots: nslots,
	}
	switch allocator {
	case "fbit":
		blk.slots = newbitslots(nslots)
	default:
		blk.slots = newlistslots(nslots)
	}
	return blk
}

func (blk *memblock) allocchunk() (unsafe.Pointer, bool) {
	nth, ok := blk.slots.allocslot()
	if !ok {
		return nil, false
	}
	ptr := unsafe.Add(blk.base, nth*blk.slab)
	initblock(ptr, blk.slab)
	blk.allocated++
	return ptr, true
}

func (blk *memblock) freechunk(ptr unsafe.Pointer) {
	diff := int64(uintptr(ptr) - uintptr(blk.base))
	if (diff % blk.slab) != 0 {
		panicerr("memblock.freechunk(): unaligned pointer %x/%v", diff, blk.slab)
	}
	blk.slots.freeslot(diff / blk.slab)
	blk.allocated--
}

func (blk *memblock) contains(ptr unsafe.Pointer) bool {
	p := uintptr(ptr)
	start := uintptr(blk.base)
	return p >= start && p < start+uintptr(blk.nslots*blk.slab)
}

func (blk *memblock) available() int64 {
	return blk.slots.freeslots() * blk.slab
}

func (blk *memblock) release() {
	blk.buf, blk.base, blk.slots = nil, nil, nil
	blk.capacity, blk.nslots, blk.allocated = 0, 0, 0
}
