package malloc

import "testing"

func TestSlabsizes(t *testing.T) {
	slabs := Slabsizes(32, 8192, 8)
	if slabs[0] != 32 {
		t.Errorf("expected %v, got %v", 32, slabs[0])
	} else if last := slabs[len(slabs)-1]; last != 8192 {
		t.Errorf("expected %v, got %v", 8192, last)
	}
	for i := 1; i < len(slabs); i++ {
		if slabs[i] <= slabs[i-1] {
			t.Errorf("ladder not increasing at %v: %v", i, slabs)
		}
		if (slabs[i] % 8) != 0 {
			t.Errorf("slab %v not aligned", slabs[i])
		}
	}

	// panic case
	func() {
		defer func() {
			if r := recover(); r == nil {
				t.Errorf("expected panic")
			}
		}()
		Slabsizes(8192, 32, 8)
	}()
}

func TestSuitableSlab(t *testing.T) {
	slabs := Slabsizes(32, 8192, 8)
	for _, size := range []int64{1, 32, 33, 100, 1024, 8191, 8192} {
		slab := SuitableSlab(slabs, size, 8)
		if slab < size {
			t.Errorf("slab %v smaller than size %v", slab, size)
		}
		// smallest suitable slab in the ladder.
		for _, x := range slabs {
			if x >= size && x < slab {
				t.Errorf("size %v got %v, ladder has %v", size, slab, x)
			}
		}
	}
	// beyond the ladder, dedicated slab rounded to alignment.
	if slab := SuitableSlab(slabs, 100000, 8); slab != 100000 {
		t.Errorf("expected %v, got %v", 100000, slab)
	}
	if slab := SuitableSlab(slabs, 100001, 8); slab != 100008 {
		t.Errorf("expected %v, got %v", 100008, slab)
	}
}

func TestAlignup(t *testing.T) {
	if x := alignup(100, 8); x != 104 {
		t.Errorf("expected %v, got %v", 104, x)
	} else if x = alignup(104, 8); x != 104 {
		t.Errorf("expected %v, got %v", 104, x)
	}
}
