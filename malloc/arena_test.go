package malloc

import "math/rand"
import "testing"
import "unsafe"

import "github.com/bnclabs/gomem/api"
import s "github.com/bnclabs/gosettings"

func TestNewarena(t *testing.T) {
	arena := NewArena(nil)
	if len(arena.slabs) == 0 {
		t.Errorf("empty slab ladder")
	} else if arena.blocksize != Defaultblocksize {
		t.Errorf("expected %v, got %v", Defaultblocksize, arena.blocksize)
	}
	arena.Release()

	// panic cases
	func() {
		defer func() {
			if r := recover(); r == nil {
				t.Errorf("expected panic")
			}
		}()
		NewArena(s.Settings{"allocator": "bump"})
	}()
	func() {
		defer func() {
			if r := recover(); r == nil {
				t.Errorf("expected panic")
			}
		}()
		NewArena(s.Settings{"capacity": Maxarenasize + 1})
	}()
	func() {
		defer func() {
			if r := recover(); r == nil {
				t.Errorf("expected panic")
			}
		}()
		NewArena(s.Settings{"alignment": int64(24)})
	}()
}

func TestArenaAlloc(t *testing.T) {
	for _, allocator := range []string{"flist", "fbit"} {
		arena := NewArena(s.Settings{"allocator": allocator})
		slab := SuitableSlab(arena.Slabs(), 1024, 8)
		ptrs := make([]unsafe.Pointer, 1024)
		for i := 0; i < 1024; i++ {
			ptrs[i] = arena.Alloc(1024, api.General)
			if ptrs[i] == nil {
				t.Errorf("unexpected allocation failure")
			} else if (uintptr(ptrs[i]) & 7) != 0 {
				t.Errorf("pointer %p not 8-byte aligned", ptrs[i])
			}
		}
		available, reserved, total := arena.Info()
		if x := int64(1024) * slab; reserved != x {
			t.Errorf("expected %v, got %v", x, reserved)
		} else if total == 0 {
			t.Errorf("expected non-zero total")
		} else if available+reserved > total {
			t.Errorf("accounting broken: %v+%v > %v", available, reserved, total)
		}

		slabs, uzs := arena.Utilization()
		if len(slabs) != 1 {
			t.Errorf("expected %v, got %v", 1, len(slabs))
		} else if slabs[0] != slab {
			t.Errorf("expected %v, got %v", slab, slabs[0])
		} else if len(uzs) != 1 {
			t.Errorf("expected %v, got %v", 1, len(uzs))
		}

		for _, ptr := range ptrs {
			arena.Free(ptr, api.General)
		}
		if _, reserved, _ := arena.Info(); reserved != 0 {
			t.Errorf("expected %v, got %v", 0, reserved)
		}
		arena.Release()
	}
}

func TestArenaAllocPanic(t *testing.T) {
	arena := NewArena(nil)
	defer arena.Release()

	func() {
		defer func() {
			if r := recover(); r == nil {
				t.Errorf("expected panic")
			}
		}()
		arena.Alloc(0, api.General)
	}()
}

func TestArenaFreeDrift(t *testing.T) {
	arena := NewArena(nil)
	defer arena.Release()

	sizes := []int64{17, 96, 512, 1000, 4096, 8192, 20000}
	cycle := func() []unsafe.Pointer {
		ptrs := make([]unsafe.Pointer, 0, 200)
		for i := 0; i < 200; i++ {
			ptrs = append(ptrs, arena.Alloc(sizes[i%len(sizes)], api.General))
		}
		return ptrs
	}
	release := func(ptrs []unsafe.Pointer) {
		rand.Shuffle(len(ptrs), func(i, j int) {
			ptrs[i], ptrs[j] = ptrs[j], ptrs[i]
		})
		for _, ptr := range ptrs {
			arena.Free(ptr, api.General)
		}
	}

	release(cycle()) // warm up, blocks stay reserved
	available0, reserved0, total0 := arena.Info()
	if reserved0 != 0 {
		t.Fatalf("expected %v, got %v", 0, reserved0)
	}
	for i := 0; i < 10; i++ {
		release(cycle())
		available, reserved, total := arena.Info()
		if available != available0 || reserved != 0 || total != total0 {
			t.Errorf(
				"drift after cycle %v: %v/%v/%v, expected %v/%v/%v",
				i, available, reserved, total, available0, 0, total0)
		}
	}
}

func TestArenaFreePanic(t *testing.T) {
	arena := NewArena(nil)
	defer arena.Release()

	ptr := arena.Alloc(100, api.General)

	// free on a class that never allocated
	func() {
		defer func() {
			if r := recover(); r == nil {
				t.Errorf("expected panic")
			}
		}()
		arena.Free(ptr, api.Bulk)
	}()
	// free of a foreign pointer
	func() {
		defer func() {
			if r := recover(); r == nil {
				t.Errorf("expected panic")
			}
		}()
		var x int64
		arena.Free(unsafe.Pointer(&x), api.General)
	}()
	arena.Free(ptr, api.General)
}

func TestArenaTrim(t *testing.T) {
	arena := NewArena(nil)
	defer arena.Release()

	blocksize := int64(1048576)
	arena.SetBlocksize(api.Bulk, blocksize)

	// 10 chunks of 100000 fit one block, the 11th forces a second.
	ptrs := make([]unsafe.Pointer, 0, 11)
	for i := 0; i < 11; i++ {
		ptrs = append(ptrs, arena.Alloc(100000, api.Bulk))
	}
	if _, _, total := arena.Info(); total != 2*blocksize {
		t.Fatalf("expected %v, got %v", 2*blocksize, total)
	}

	// a live chunk pins its block.
	for _, ptr := range ptrs[1:] {
		arena.Free(ptr, api.Bulk)
	}
	if freed := arena.Trim(); freed != blocksize {
		t.Errorf("expected %v, got %v", blocksize, freed)
	}

	arena.Free(ptrs[0], api.Bulk)
	if freed := arena.Trim(); freed != blocksize {
		t.Errorf("expected %v, got %v", blocksize, freed)
	}
	if freed := arena.Trim(); freed != 0 {
		t.Errorf("expected %v, got %v", 0, freed)
	}
	if _, _, total := arena.Info(); total != 0 {
		t.Errorf("expected %v, got %v", 0, total)
	}
}

func TestArenaClassIsolation(t *testing.T) {
	arena := NewArena(nil)
	defer arena.Release()

	arena.SetBlocksize(api.Node, 65536)
	nptr := arena.Alloc(128, api.Node)
	navailable, nreserved, ntotal := arena.ClassInfo(api.Node)

	// grow General across several blocks.
	ptrs := make([]unsafe.Pointer, 0, 1000)
	for i := 0; i < 1000; i++ {
		ptrs = append(ptrs, arena.Alloc(8192, api.General))
	}
	if a, r, x := arena.ClassInfo(api.Node); a != navailable || r != nreserved || x != ntotal {
		t.Errorf(
			"class Node perturbed: %v/%v/%v, expected %v/%v/%v",
			a, r, x, navailable, nreserved, ntotal)
	}

	for _, ptr := range ptrs {
		arena.Free(ptr, api.General)
	}
	arena.Free(nptr, api.Node)
}

func TestSetBlocksizeLate(t *testing.T) {
	arena := NewArena(nil)
	defer arena.Release()

	ptr := arena.Alloc(100, api.General)
	defer arena.Free(ptr, api.General)

	func() {
		defer func() {
			if r := recover(); r == nil {
				t.Errorf("expected panic")
			}
		}()
		arena.SetBlocksize(api.General, 65536)
	}()
}

func TestArenaOutofMemory(t *testing.T) {
	arena := NewArena(s.Settings{"capacity": int64(1024 * 1024)})
	defer arena.Release()

	func() {
		defer func() {
			if r := recover(); r != api.ErrorOutofMemory {
				t.Errorf("expected ErrorOutofMemory, got %v", r)
			}
		}()
		for i := 0; i < 10000; i++ {
			arena.Alloc(8192, api.General)
		}
	}()
}

func TestPassthru(t *testing.T) {
	pt := NewPassthru()
	ptr := pt.Alloc(1000, api.General)
	if ptr == nil {
		t.Errorf("unexpected allocation failure")
	}
	if available, reserved, total := pt.Info(); available != 0 {
		t.Errorf("expected %v, got %v", 0, available)
	} else if reserved != 1000 || total != 1000 {
		t.Errorf("expected 1000/1000, got %v/%v", reserved, total)
	}
	if freed := pt.Trim(); freed != 0 {
		t.Errorf("expected %v, got %v", 0, freed)
	}

	// class mismatch fails fast
	func() {
		defer func() {
			if r := recover(); r == nil {
				t.Errorf("expected panic")
			}
		}()
		pt.Free(ptr, api.Bulk)
	}()

	pt.Free(ptr, api.General)
	if _, reserved, _ := pt.Info(); reserved != 0 {
		t.Errorf("expected %v, got %v", 0, reserved)
	}
	pt.Release()
}
