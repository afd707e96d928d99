// Package reclaim implements the deferred-reclamation arena used by the
// skiplist container (lockfree relies on the GC alone and does not use
// it): a small epoch-like bookkeeping layer
// that lets a container detach a node from its forward-link graph while a
// concurrent reader still holds a checkout (an iterator) that may be
// traversing through it.
//
// Go's garbage collector means reclaim never frees memory directly — a
// retired node is simply dropped from the structure's own references and
// left for the GC once nothing else points to it. What reclaim actually
// guarantees is narrower and still load-bearing: a node that a live
// checkout has already observed stays reachable and in a consistent state
// (its forward links keep pointing somewhere valid) until that checkout is
// released, because retirement only ever appends the node to a pending
// list instead of mutating it further.
package reclaim

import (
	"sync"
	"sync/atomic"
)

// Retirable is anything a Scope can hold in its pending-retirement list.
// Containers pass their internal node type.
type Retirable any

// Scope is one deferred-reclamation arena, owned by a single container
// instance (one skiplist.Map).
type Scope struct {
	checkouts atomic.Int32

	mu       sync.Mutex
	pending  []Retirable
	hasNodes atomic.Bool
	recycle  func(Retirable)
}

// NewScope creates a fresh, empty reclamation scope.
func NewScope() *Scope {
	return &Scope{}
}

// SetRecycleFunc installs a callback that receives each retired node once
// a drain proves no checkout can still observe it, instead of letting the
// node simply fall out of scope for the GC. A container wires this to a
// Recycler's Put so retired nodes feed an allocation-free reuse path on
// the next Insert; without a callback, draining is just dropping the
// scope's own reference.
func (s *Scope) SetRecycleFunc(fn func(Retirable)) {
	s.recycle = fn
}

// AcquireCheckout registers a new live reader (typically an iterator). It
// must be paired with exactly one ReleaseCheckout.
func (s *Scope) AcquireCheckout() {
	s.checkouts.Add(1)
}

// ReleaseCheckout unregisters a reader. If this brings the checkout count
// to zero and there are retired nodes waiting, this call drains and
// forgets them so the GC can collect them.
func (s *Scope) ReleaseCheckout() {
	remaining := s.checkouts.Add(-1)
	if remaining <= 0 {
		s.drain()
	}
}

// DeferDestroy appends a logically-removed node to the pending list. It
// never touches the node itself and never blocks on readers. If no
// checkout happens to be outstanding at the moment of the call, it drains
// immediately rather than waiting for some future ReleaseCheckout that
// may never come (a container with no iterator ever in flight still
// retires nodes on every Erase).
func (s *Scope) DeferDestroy(n Retirable) {
	s.mu.Lock()
	s.pending = append(s.pending, n)
	s.hasNodes.Store(true)
	s.mu.Unlock()

	if s.checkouts.Load() <= 0 {
		s.drain()
	}
}

// drain forgets every pending node, provided no checkout is outstanding at
// the instant it takes the lock, handing each to the recycle callback if
// one is installed.
func (s *Scope) drain() {
	if !s.hasNodes.Load() {
		return
	}

	var toForget []Retirable
	s.mu.Lock()
	if len(s.pending) > 0 && s.checkouts.Load() <= 0 {
		toForget = s.pending
		s.pending = nil
		s.hasNodes.Store(false)
	}
	s.mu.Unlock()

	if s.recycle == nil {
		return // dropping the last reference is the "destruction"
	}
	for _, n := range toForget {
		s.recycle(n)
	}
}

// ForceDestroy bypasses deferral entirely, for teardown at a point where
// no checkout can still be live. No container in this module calls it.
func (s *Scope) ForceDestroy(Retirable) {
	// Nothing to do under GC: the caller drops its own reference.
}

// Checkouts reports the number of currently live checkouts. Intended for
// tests and assertions, not for control flow.
func (s *Scope) Checkouts() int32 {
	return s.checkouts.Load()
}
