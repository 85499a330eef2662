package ref

import "sync"
import "sync/atomic"
import "unsafe"

import "github.com/bnclabs/gomem/api"
import "github.com/emirpasic/gods/sets/hashset"
import "github.com/pkg/errors"

// expirer is how an auxiliary record reaches its registered observers
// without knowing their payload type.
type expirer interface {
	expire()
}

// auxrec is the lazily created side record of one managed object,
// holding its observer registrations and named ad-hoc values. Records
// live in a sharded registry keyed by the object's chunk address, they
// never hold pointers inside allocator blocks.
type auxrec struct {
	observers *hashset.Set
	values    map[string]interface{}
}

const regshards = 64

type registry struct {
	mu   sync.Mutex
	recs map[uintptr]*auxrec
}

var registries [regshards]registry

func init() {
	for i := range registries {
		registries[i].recs = make(map[uintptr]*auxrec)
	}
}

func regshard(addr uintptr) *registry {
	return &registries[(addr>>4)%regshards]
}

// getaux fetch or create the record for the object at addr. Caller
// holds the shard lock and a live owning handle.
func (reg *registry) getaux(addr uintptr, h *hdr) *auxrec {
	rec, ok := reg.recs[addr]
	if !ok {
		rec = &auxrec{
			observers: hashset.New(),
			values:    make(map[string]interface{}),
		}
		reg.recs[addr] = rec
		atomic.StoreUint32(&h.flags, atomic.LoadUint32(&h.flags)|flagaux)
	}
	return rec
}

// dropaux destroy the record at addr: every registered observer is
// expired under the shard lock, before the chunk is reclaimed.
func dropaux(addr uintptr) {
	reg := regshard(addr)
	reg.mu.Lock()
	defer reg.mu.Unlock()
	rec, ok := reg.recs[addr]
	if !ok {
		return
	}
	delete(reg.recs, addr)
	for _, o := range rec.observers.Values() {
		o.(expirer).expire()
	}
	rec.observers.Clear()
	rec.values = nil
}

//---- named values

// SetValue attach a named value to the target, overwriting any
// existing value for key. Valid only on a live handle.
func (r Ref[T]) SetValue(key string, value interface{}) {
	if r.obj == nil {
		panic("SetValue: nil handle")
	}
	h := header(r.obj)
	addr := uintptr(unsafe.Pointer(h))
	reg := regshard(addr)
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.getaux(addr, h).values[key] = value
}

// Value lookup a named value on the target, api.ErrorValueMissing when
// the key was never set.
func (r Ref[T]) Value(key string) (interface{}, error) {
	if r.obj == nil {
		panic("Value: nil handle")
	}
	addr := uintptr(unsafe.Pointer(header(r.obj)))
	reg := regshard(addr)
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if rec, ok := reg.recs[addr]; ok {
		if value, ok := rec.values[key]; ok {
			return value, nil
		}
	}
	return nil, errors.Wrapf(api.ErrorValueMissing, "key %q", key)
}

// DelValue remove a named value from the target, a no-op when the key
// was never set.
func (r Ref[T]) DelValue(key string) {
	if r.obj == nil {
		panic("DelValue: nil handle")
	}
	addr := uintptr(unsafe.Pointer(header(r.obj)))
	reg := regshard(addr)
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if rec, ok := reg.recs[addr]; ok {
		delete(rec.values, key)
	}
}

// ValueAs lookup a named value of type V, api.ErrorTypeMismatch when
// the key holds a value of a different type.
func ValueAs[V any, T any](r Ref[T], key string) (V, error) {
	var zero V
	value, err := r.Value(key)
	if err != nil {
		return zero, err
	}
	v, ok := value.(V)
	if !ok {
		return zero, errors.Wrapf(api.ErrorTypeMismatch, "key %q holds %T", key, value)
	}
	return v, nil
}
