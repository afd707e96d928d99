package reclaim

import "sync"

// Recycler is an optional, opt-in node-slab reuse path. It is never
// required for correctness — Scope works fine without one — but containers
// that allocate a node per Insert can wire a Recycler keyed by top level to
// cut allocator pressure under high churn. skiplist.WithRecycler wires one
// in via Scope.SetRecycleFunc; Get then returns a drained-and-safe node for
// Insert to overwrite instead of allocating a fresh one.
type Recycler[T any] struct {
	pools sync.Map // map[uint8]*sync.Pool
}

// NewRecycler creates an empty recycler. The caller allocates a fresh T
// whenever Get reports nothing was available for a given level.
func NewRecycler[T any]() *Recycler[T] {
	return &Recycler[T]{}
}

// Get returns a recycled value for the given level, or the zero value if
// none is available.
func (r *Recycler[T]) Get(level uint8) (T, bool) {
	var zero T
	p, ok := r.pools.Load(level)
	if !ok {
		return zero, false
	}
	v := p.(*sync.Pool).Get()
	if v == nil {
		return zero, false
	}
	return v.(T), true
}

// Put returns a value to the recycler for later reuse at the given level.
func (r *Recycler[T]) Put(level uint8, v T) {
	p, _ := r.pools.LoadOrStore(level, &sync.Pool{})
	p.(*sync.Pool).Put(v)
}
