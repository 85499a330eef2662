package malloc

import "github.com/bnclabs/gomem/lib"

// slotter tracks which chunks of a memory block are free. Two
// implementations are available, selected by the "allocator" setting:
// "flist" keeps an explicit stack of free slots, "fbit" keeps a bitmap
// with a rolling first-free hint.
type slotter interface {
	// allocslot pick a free slot, returns false when the block is full.
	allocslot() (nth int64, ok bool)

	// freeslot return slot `nth` to the block.
	freeslot(nth int64)

	// freeslots number of slots currently free.
	freeslots() int64

	// overhead book-keeping bytes used by this slotter.
	overhead() int64
}

// listslots free slots as a LIFO stack.
type listslots struct {
	free []int32
}

func newlistslots(n int64) *listslots {
	slots := &listslots{free: make([]int32, n)}
	for i := int64(0); i < n; i++ {
		slots.free[i] = int32(i)
	}
	return slots
}

func (slots *listslots) allocslot() (int64, bool) {
	if len(slots.free) == 0 {
		return 0, false
	}
	nth := slots.free[len(slots.free)-1]
	slots.free = slots.free[:len(slots.free)-1]
	return int64(nth), true
}

func (slots *listslots) freeslot(nth int64) {
	slots.free = append(slots.free, int32(nth))
}

func (slots *listslots) freeslots() int64 {
	return int64(len(slots.free))
}

func (slots *listslots) overhead() int64 {
	return int64(cap(slots.free)) * 4
}

// bitslots free slots as a bitmap, a set bit marks a free slot. The
// freeoff hint remembers the lowest byte that can contain a set bit,
// so allocation scans skip the fully occupied prefix.
type bitslots struct {
	nslots  int64
	freeoff int64
	bitmap  []uint8
}

func newbitslots(n int64) *bitslots {
	bitmap := make([]uint8, (n+7)>>3)
	for i := int64(0); i < (n >> 3); i++ {
		bitmap[i] = 0xff
	}
	if x := n & 0x7; x > 0 {
		byt := uint8(0)
		for i := int64(0); i < x; i++ {
			byt = lib.Bit8(byt).Setbit(uint8(i))
		}
		bitmap[len(bitmap)-1] = byt
	}
	return &bitslots{nslots: n, bitmap: bitmap}
}

func (slots *bitslots) allocslot() (int64, bool) {
	for i := slots.freeoff; i < int64(len(slots.bitmap)); i++ {
		byt := slots.bitmap[i]
		if byt == 0 {
			continue
		}
		n := lib.Bit8(byt).Findfirstset()
		slots.bitmap[i] = lib.Bit8(byt).Clearbit(uint8(n))
		slots.freeoff = i
		return (i << 3) + int64(n), true
	}
	return 0, false
}

func (slots *bitslots) freeslot(nth int64) {
	q, r := nth>>3, nth&0x7
	slots.bitmap[q] = lib.Bit8(slots.bitmap[q]).Setbit(uint8(r))
	if q < slots.freeoff {
		slots.freeoff = q
	}
}

func (slots *bitslots) freeslots() (n int64) {
	for _, byt := range slots.bitmap {
		n += int64(lib.Bit8(byt).Ones())
	}
	return n
}

func (slots *bitslots) overhead() int64 {
	return int64(cap(slots.bitmap))
}
