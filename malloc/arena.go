package malloc

import "sort"
import "sync"
import "sync/atomic"
import "unsafe"

import "github.com/bnclabs/gomem/api"
import "github.com/bnclabs/golog"
import s "github.com/bnclabs/gosettings"
import humanize "github.com/dustin/go-humanize"

// Arena is the pooled mallocer. Memory is reserved from the runtime in
// blocks and carved into slab sized chunks, with one set of blocks per
// affinity class. Allocate and free on the same class serialize on the
// class's mutex, different classes never contend.
type Arena struct {
	total int64 // 64-bit aligned, bytes reserved from the runtime

	// configuration, read-only after NewArena
	blocksize int64   // default block size for new classes
	capacity  int64   // maximum reservable across all classes
	minslab   int64   // minimum slab size
	maxslab   int64   // maximum ladder slab size
	alignment int64   // chunk alignment
	allocator string  // slot book-keeping algorithm
	slabs     []int64 // slab ladder

	rw      sync.RWMutex
	classes map[api.Affinity]*blockset
}

// NewArena create a new pooled mallocer. Missing settings default to
// Defaultsettings().
func NewArena(setts s.Settings) *Arena {
	setts = Defaultsettings().Mixin(setts)
	validatesettings(setts)
	arena := &Arena{
		blocksize: setts.Int64("blocksize"),
		capacity:  setts.Int64("capacity"),
		minslab:   setts.Int64("minslab"),
		maxslab:   setts.Int64("maxslab"),
		alignment: setts.Int64("alignment"),
		allocator: setts.String("allocator"),
		classes:   make(map[api.Affinity]*blockset),
	}
	arena.slabs = Slabsizes(arena.minslab, arena.maxslab, arena.alignment)
	return arena
}

//---- operations

// Alloc implement api.Mallocer{} interface.
func (arena *Arena) Alloc(n int64, class api.Affinity) unsafe.Pointer {
	if n <= 0 {
		panicerr("Alloc: invalid size %v", n)
	}
	return arena.getset(class).alloc(n)
}

// Free implement api.Mallocer{} interface.
func (arena *Arena) Free(ptr unsafe.Pointer, class api.Affinity) {
	if ptr == nil {
		panicerr("Free: nil pointer")
	}
	arena.rw.RLock()
	bset, ok := arena.classes[class]
	arena.rw.RUnlock()
	if !ok {
		panicerr("Free: no blocks for class %v", class)
	}
	bset.free(ptr)
}

// SetBlocksize implement api.Mallocer{} interface. Valid only while
// `class` has no blocks.
func (arena *Arena) SetBlocksize(class api.Affinity, size int64) {
	if size < arena.minslab {
		panicerr("SetBlocksize: %v less than minslab %v", size, arena.minslab)
	}
	bset := arena.getset(class)
	bset.mu.Lock()
	defer bset.mu.Unlock()
	if len(bset.blocks) > 0 {
		panicerr("SetBlocksize: class %v already has blocks", class)
	}
	bset.blocksize = size
}

// Release implement api.Mallocer{} interface.
func (arena *Arena) Release() {
	arena.rw.Lock()
	defer arena.rw.Unlock()
	for _, bset := range arena.classes {
		bset.releaseall()
	}
	arena.classes = nil
	atomic.StoreInt64(&arena.total, 0)
	log.Infof("malloc: arena released\n")
}

//---- statistics and maintenance

// Info implement api.Mallocer{} interface.
func (arena *Arena) Info() (available, reserved, total int64) {
	arena.rw.RLock()
	defer arena.rw.RUnlock()
	for _, bset := range arena.classes {
		a, r, t := bset.info()
		available, reserved, total = available+a, reserved+r, total+t
	}
	return
}

// ClassInfo memory accounting for one affinity class.
func (arena *Arena) ClassInfo(class api.Affinity) (available, reserved, total int64) {
	arena.rw.RLock()
	defer arena.rw.RUnlock()
	if bset, ok := arena.classes[class]; ok {
		return bset.info()
	}
	return 0, 0, 0
}

// Trim implement api.Mallocer{} interface. Blocks with at least one
// live chunk are never touched.
func (arena *Arena) Trim() (freed int64) {
	arena.rw.RLock()
	defer arena.rw.RUnlock()
	for _, bset := range arena.classes {
		freed += bset.trim()
	}
	if freed > 0 {
		atomic.AddInt64(&arena.total, -freed)
		log.Infof("malloc: trim released %v\n", humanize.Bytes(uint64(freed)))
	}
	return freed
}

// Utilization map of slab-size and its utilization across all classes.
func (arena *Arena) Utilization() ([]int64, []float64) {
	arena.rw.RLock()
	defer arena.rw.RUnlock()

	caps, allocs := map[int64]int64{}, map[int64]int64{}
	for _, bset := range arena.classes {
		bset.utilization(caps, allocs)
	}
	slabs := make([]int64, 0, len(caps))
	for slab := range caps {
		slabs = append(slabs, slab)
	}
	sort.Slice(slabs, func(i, j int) bool { return slabs[i] < slabs[j] })
	uzs := make([]float64, 0, len(slabs))
	for _, slab := range slabs {
		uzs = append(uzs, (float64(allocs[slab])/float64(caps[slab]))*100)
	}
	return slabs, uzs
}

// Slabs allocatable slab sizes.
func (arena *Arena) Slabs() []int64 {
	return arena.slabs
}

//---- local functions

func (arena *Arena) getset(class api.Affinity) *blockset {
	arena.rw.RLock()
	if arena.classes == nil {
		arena.rw.RUnlock()
		panicerr("arena released")
	}
	bset, ok := arena.classes[class]
	arena.rw.RUnlock()
	if ok {
		return bset
	}

	arena.rw.Lock()
	defer arena.rw.Unlock()
	if arena.classes == nil {
		panicerr("arena released")
	}
	if bset, ok = arena.classes[class]; !ok {
		bset = &blockset{class: class, arena: arena, blocksize: arena.blocksize}
		arena.classes[class] = bset
	}
	return bset
}

// blockset is the collection of memory blocks servicing one affinity
// class. Blocks are kept sorted by base address so that free can
// locate the owning block with a binary search.
type blockset struct {
	class     api.Affinity
	blocksize int64
	arena     *Arena

	mu     sync.Mutex
	blocks []*memblock
}

func (bset *blockset) alloc(n int64) unsafe.Pointer {
	slab := SuitableSlab(bset.arena.slabs, n, bset.arena.alignment)

	bset.mu.Lock()
	defer bset.mu.Unlock()
	// first-fit over blocks serving this slab.
	for _, blk := range bset.blocks {
		if blk.slab != slab {
			continue
		}
		if ptr, ok := blk.allocchunk(); ok {
			return ptr
		}
	}
	blk := bset.grow(slab)
	ptr, _ := blk.allocchunk()
	return ptr
}

func (bset *blockset) grow(slab int64) *memblock {
	arena := bset.arena
	blk := newmemblock(slab, bset.blocksize, arena.alignment, arena.allocator)
	if total := atomic.AddInt64(&arena.total, blk.capacity); total > arena.capacity {
		atomic.AddInt64(&arena.total, -blk.capacity)
		panic(api.ErrorOutofMemory)
	}
	i := sort.Search(len(bset.blocks), func(i int) bool {
		return uintptr(bset.blocks[i].base) >= uintptr(blk.base)
	})
	bset.blocks = append(bset.blocks, nil)
	copy(bset.blocks[i+1:], bset.blocks[i:])
	bset.blocks[i] = blk
	return blk
}

func (bset *blockset) free(ptr unsafe.Pointer) {
	bset.mu.Lock()
	defer bset.mu.Unlock()
	i := sort.Search(len(bset.blocks), func(i int) bool {
		blk := bset.blocks[i]
		return uintptr(ptr) < uintptr(blk.base)+uintptr(blk.nslots*blk.slab)
	})
	if i >= len(bset.blocks) || !bset.blocks[i].contains(ptr) {
		panicerr("free: pointer %p not allocated for class %v", ptr, bset.class)
	}
	bset.blocks[i].freechunk(ptr)
}

func (bset *blockset) info() (available, reserved, total int64) {
	bset.mu.Lock()
	defer bset.mu.Unlock()
	for _, blk := range bset.blocks {
		available += blk.available()
		reserved += blk.allocated * blk.slab
		total += blk.capacity
	}
	return
}

func (bset *blockset) trim() (freed int64) {
	bset.mu.Lock()
	defer bset.mu.Unlock()
	kept := 0
	for _, blk := range bset.blocks {
		if blk.allocated == 0 {
			freed += blk.capacity
			blk.release()
			continue
		}
		bset.blocks[kept] = blk
		kept++
	}
	for i := kept; i < len(bset.blocks); i++ {
		bset.blocks[i] = nil
	}
	bset.blocks = bset.blocks[:kept]
	return freed
}

func (bset *blockset) utilization(caps, allocs map[int64]int64) {
	bset.mu.Lock()
	defer bset.mu.Unlock()
	for _, blk := range bset.blocks {
		caps[blk.slab] += blk.capacity
		allocs[blk.slab] += blk.allocated * blk.slab
	}
}

func (bset *blockset) releaseall() {
	bset.mu.Lock()
	defer bset.mu.Unlock()
	for _, blk := range bset.blocks {
		blk.release()
	}
	bset.blocks = nil
}
