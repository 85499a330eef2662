package malloc

import "fmt"

import s "github.com/bnclabs/gosettings"

// Alignment chunks are aligned to this boundary unless overridden via
// the "alignment" setting. Slab sizes are always multiples of the
// configured alignment.
const Alignment = int64(8)

// MEMUtilization is the worst-case ratio between memory requested by
// the application and the slab size servicing the request.
const MEMUtilization = float64(0.95)

// Maxarenasize maximum size of a memory arena. Can be used as default
// for the "capacity" setting.
const Maxarenasize = int64(1024 * 1024 * 1024 * 1024)

// Defaultblocksize default size of a memory block, per affinity class,
// unless overridden via SetBlocksize.
const Defaultblocksize = int64(1024 * 1024)

// Defaultsettings for an arena.
//
// "blocksize" (int64, default: 1MB)
//	Default size of a memory block, overridable per affinity class
//	via SetBlocksize.
//
// "capacity" (int64, default: Maxarenasize)
//	Maximum memory reservable from the runtime across all affinity
//	classes, exceeding it panics with api.ErrorOutofMemory.
//
// "minslab" (int64, default: 32)
//	Minimum slab size, smaller allocations round up to this.
//
// "maxslab" (int64, default: 8192)
//	Maximum ladder slab size. Larger allocations get a dedicated
//	slab rounded up to the alignment.
//
// "alignment" (int64, default: 8)
//	Alignment for chunks issued by the arena.
//
// "allocator" (string, default: "flist")
//	Slot book-keeping algorithm within a block, can be "flist" or
//	"fbit".
func Defaultsettings() s.Settings {
	return s.Settings{
		"blocksize": Defaultblocksize,
		"capacity":  Maxarenasize,
		"minslab":   int64(32),
		"maxslab":   int64(8192),
		"alignment": Alignment,
		"allocator": "flist",
	}
}

func validatesettings(setts s.Settings) {
	minslab, maxslab := setts.Int64("minslab"), setts.Int64("maxslab")
	alignment := setts.Int64("alignment")
	if minslab > maxslab {
		panic(fmt.Errorf("minslab(%v) > maxslab(%v)", minslab, maxslab))
	} else if alignment <= 0 || (alignment&(alignment-1)) != 0 {
		panic(fmt.Errorf("alignment %v not a power of 2", alignment))
	} else if (minslab % alignment) != 0 {
		panic(fmt.Errorf("minslab %v not multiple of %v", minslab, alignment))
	} else if cp := setts.Int64("capacity"); cp > Maxarenasize {
		panic(fmt.Errorf("capacity %v exceeds %v", cp, Maxarenasize))
	}
	switch setts.String("allocator") {
	case "flist", "fbit":
	default:
		panic(fmt.Errorf("invalid allocator %q", setts.String("allocator")))
	}
}
