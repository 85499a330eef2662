package malloc

import "fmt"

// Slabsizes generate the slab ladder between minslab and maxslab,
// geometrically spaced so that the worst-case slab utilization stays
// close to MEMUtilization. Every size in the ladder is a multiple of
// `alignment`.
func Slabsizes(minslab, maxslab, alignment int64) []int64 {
	if maxslab < minslab {
		panicerr("minslab %v > maxslab %v", minslab, maxslab)
	} else if (minslab % alignment) != 0 {
		panicerr("minslab %v is not multiple of %v", minslab, alignment)
	}

	nextsize := func(from int64) int64 {
		addby := int64(float64(from) * (1.0 - MEMUtilization))
		if addby <= alignment {
			addby = alignment
		} else if (addby % alignment) != 0 {
			addby = (addby / alignment) * alignment
		}
		return from + addby
	}

	sizes := make([]int64, 0, 64)
	for size := minslab; size < maxslab; size = nextsize(size) {
		sizes = append(sizes, size)
	}
	if (maxslab % alignment) != 0 {
		maxslab = alignup(maxslab, alignment)
	}
	return append(sizes, maxslab)
}

// SuitableSlab picks the smallest slab size in the ladder that can
// hold `size` bytes. Sizes beyond the ladder get a dedicated slab
// rounded up to the alignment.
func SuitableSlab(slabs []int64, size, alignment int64) int64 {
	if size > slabs[len(slabs)-1] {
		return alignup(size, alignment)
	}
	for {
		switch len(slabs) {
		case 1:
			return slabs[0]

		case 2:
			if size <= slabs[0] {
				return slabs[0]
			}
			return slabs[1]

		default:
			pivot := len(slabs) / 2
			if slabs[pivot] < size {
				slabs = slabs[pivot+1:]
			} else {
				slabs = slabs[0 : pivot+1]
			}
		}
	}
}

func alignup(size, alignment int64) int64 {
	if mod := size % alignment; mod != 0 {
		return size + (alignment - mod)
	}
	return size
}

func panicerr(fmsg string, args ...interface{}) {
	panic(fmt.Errorf(fmsg, args...))
}

var poolblkinit = make([]byte, 1024)

func init() {
	for i := 0; i < len(poolblkinit); i++ {
		poolblkinit[i] = 0xff
	}
}
