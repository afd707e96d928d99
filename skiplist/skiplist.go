// Package skiplist implements the lock-coupled (hand-over-hand) concurrent
// ordered map/set, grounded on stk::lazy_concurrent_skip_list from the
// original C++ source. Height is fixed at construction and bounded to 32
// levels. Readers never block; writers lock only the predecessors they
// touch, bottom-up on both insert and erase, validating under lock before
// committing.
package skiplist

import (
	"runtime"
	"sync/atomic"

	"github.com/go-foundations/concurrent-substrate/reclaim"
)

// DefaultMaxHeight is the default ceiling on a node's top level
// (top level ∈ [0, MaxLevel]).
const DefaultMaxHeight = 32

// Option configures a Map or Set at construction.
type Option func(*config)

type config struct {
	maxHeight uint8
	seed      uint64
	recycle   bool
}

// WithMaxHeight overrides the default max height. Must be in [1, 32].
func WithMaxHeight(h uint8) Option {
	return func(c *config) {
		if h >= 1 && h <= DefaultMaxHeight {
			c.maxHeight = h
		}
	}
}

// WithSeed fixes the level-selection PRNG seed, useful for reproducible
// tests.
func WithSeed(seed uint64) Option {
	return func(c *config) { c.seed = seed }
}

// WithRecycler enables node-slab reuse: a retired node is handed to a
// reclaim.Recycler instead of simply falling out of scope, and Insert
// draws from that recycler before allocating a fresh node. Purely a
// throughput knob under high insert/erase churn; never required for
// correctness, and off by default.
func WithRecycler() Option {
	return func(c *config) { c.recycle = true }
}

func newConfig(opts []Option) config {
	c := config{maxHeight: DefaultMaxHeight}
	for _, o := range opts {
		o(&c)
	}
	return c
}

// Map is a concurrent ordered map built on a lock-coupled skip-list.
type Map[K any, V any] struct {
	cmp      func(a, b K) int
	selector *levelSelector
	scope    *reclaim.Scope
	recycler *reclaim.Recycler[*node[K, V]]

	head atomic.Pointer[node[K, V]]
	size atomic.Int64
}

// NewMap creates an empty concurrent ordered map. cmp must be a strict weak
// order, consistent across goroutines.
func NewMap[K any, V any](cmp func(a, b K) int, opts ...Option) *Map[K, V] {
	c := newConfig(opts)
	var zeroK K
	var zeroV V
	m := &Map[K, V]{
		cmp:      cmp,
		selector: newLevelSelector(c.seed, c.maxHeight-1),
		scope:    reclaim.NewScope(),
	}
	if c.recycle {
		m.recycler = reclaim.NewRecycler[*node[K, V]]()
		m.scope.SetRecycleFunc(func(r reclaim.Retirable) {
			n := r.(*node[K, V])
			m.recycler.Put(n.topLevel, n)
		})
	}
	head := newNode[K, V](zeroK, zeroV, c.maxHeight-1, true)
	m.head.Store(head)
	return m
}

// newOrRecycledNode returns a fresh node for key/value at topLevel,
// drawing from the recycler when one is configured and it has a retired
// node of the same level on hand.
func (m *Map[K, V]) newOrRecycledNode(key K, value V, topLevel uint8) *node[K, V] {
	if m.recycler != nil {
		if n, ok := m.recycler.Get(topLevel); ok {
			n.reuse(key, value)
			return n
		}
	}
	return newNode[K, V](key, value, topLevel, false)
}

func (m *Map[K, V]) less(n *node[K, V], key K) bool {
	return n.isHead() || m.cmp(n.key, key) < 0
}

func (m *Map[K, V]) equal(n *node[K, V], key K) bool {
	return !n.isHead() && m.cmp(n.key, key) == 0
}

// Len returns the current size. Relaxed: may be stale under concurrent
// writers observed from another goroutine.
func (m *Map[K, V]) Len() int { return int(m.size.Load()) }

// IsEmpty reports whether Len() == 0.
func (m *Map[K, V]) IsEmpty() bool { return m.Len() == 0 }

// find descends from the head, recording predecessors/successors at every
// level, and returns the highest level at which an equal key was observed
// (the first one met while descending), or -1.
func (m *Map[K, V]) find(key K, preds, succs []*node[K, V]) int {
	found := -1
	pred := m.head.Load()
	for level := int(pred.topLevel); level >= 0; level-- {
		curr := pred.next_(uint8(level))
		for curr != nil && m.less(curr, key) {
			pred = curr
			curr = pred.next_(uint8(level))
		}
		if found == -1 && curr != nil && m.equal(curr, key) {
			found = level
		}
		preds[level] = pred
		succs[level] = curr
	}
	return found
}

// Find returns the value stored for key and whether it is present. A
// found-but-not-yet-fully-linked node is treated as absent, matching the
// spec's lock-free read contract.
func (m *Map[K, V]) Find(key K) (V, bool) {
	var zero V
	preds := make([]*node[K, V], DefaultMaxHeight)
	succs := make([]*node[K, V], DefaultMaxHeight)
	lvl := m.find(key, preds, succs)
	if lvl == -1 {
		return zero, false
	}
	n := succs[lvl]
	if n != nil && n.isFullyLinked() && !n.isMarkedForRemoval() {
		return n.value, true
	}
	return zero, false
}

// Contains reports whether key is present.
func (m *Map[K, V]) Contains(key K) bool {
	_, ok := m.Find(key)
	return ok
}

// Insert adds key/value if key is absent, returning (existing value,
// false) if it was already present, or (value, true) on a fresh insert.
//
// Algorithm (spec §4.2):
//  1. pick a random top level
//  2. search, recording preds/succs
//  3. if found and not marked: spin until fully linked, return existing
//  4. lock distinct predecessors bottom-up, validate, retry on failure
//  5. link the new node bottom-up, publish via FullyLinked, bump size
func (m *Map[K, V]) Insert(key K, value V) (V, bool) {
	topLevel := m.selector.next()
	preds := make([]*node[K, V], DefaultMaxHeight)
	succs := make([]*node[K, V], DefaultMaxHeight)

	for {
		lvl := m.find(key, preds, succs)
		if lvl != -1 {
			found := succs[lvl]
			if !found.isMarkedForRemoval() {
				for !found.isFullyLinked() {
					runtime.Gosched()
				}
				return found.value, false
			}
			continue
		}

		var (
			valid     = true
			prevPred  *node[K, V]
			locked    []*node[K, V]
			predAtLvl *node[K, V]
			succAtLvl *node[K, V]
		)
		for level := uint8(0); valid && int(level) <= int(topLevel); level++ {
			predAtLvl = preds[level]
			succAtLvl = succs[level]
			if prevPred != predAtLvl {
				predAtLvl.mu.Lock()
				locked = append(locked, predAtLvl)
				prevPred = predAtLvl
			}
			valid = !predAtLvl.isMarkedForRemoval() &&
				(succAtLvl == nil || !succAtLvl.isMarkedForRemoval()) &&
				predAtLvl.next_(level) == succAtLvl
		}

		if !valid {
			unlockAll(locked)
			continue
		}

		newNode_ := m.newOrRecycledNode(key, value, topLevel)
		for level := uint8(0); int(level) <= int(topLevel); level++ {
			newNode_.setNext(level, succs[level])
		}
		for level := uint8(0); int(level) <= int(topLevel); level++ {
			preds[level].setNext(level, newNode_)
		}
		newNode_.setFullyLinked()
		m.size.Add(1)
		unlockAll(locked)
		return value, true
	}
}

// Erase removes key if present, returning the removed value and true, or
// the zero value and false if key was absent (no error, matching spec
// §7's "erasing a key not present ... no error").
//
// Algorithm (spec §4.2): find; mark the victim under its own lock; lock all
// distinct predecessors bottom-up (the same order Insert uses), validate;
// unlink top-down; defer destroy.
func (m *Map[K, V]) Erase(key K) (V, bool) {
	var zero V
	preds := make([]*node[K, V], DefaultMaxHeight)
	succs := make([]*node[K, V], DefaultMaxHeight)

	var victim *node[K, V]
	marked := false
	topLevel := -1

	for {
		lvl := m.find(key, preds, succs)
		if lvl != -1 {
			victim = succs[lvl]
		}

		ready := marked || (lvl != -1 && victim.isFullyLinked() && int(victim.topLevel) == lvl && !victim.isMarkedForRemoval())
		if !ready {
			return zero, false
		}

		if !marked {
			if victim.isMarkedForRemoval() {
				return zero, false
			}
			topLevel = int(victim.topLevel)
			victim.mu.Lock()
			victim.setMarkedForRemoval()
			marked = true
		}

		var (
			valid    = true
			prevPred *node[K, V]
			locked   []*node[K, V]
		)
		for level := 0; valid && level <= topLevel; level++ {
			pred := preds[level]
			if prevPred != pred {
				pred.mu.Lock()
				locked = append(locked, pred)
				prevPred = pred
			}
			valid = !pred.isMarkedForRemoval() && pred.next_(uint8(level)) == victim
		}

		if !valid {
			unlockAll(locked)
			continue
		}

		for level := topLevel; level >= 0; level-- {
			preds[level].setNext(uint8(level), victim.next_(uint8(level)))
		}
		m.size.Add(-1)
		value := victim.value

		unlockAll(locked)
		victim.mu.Unlock()
		m.scope.DeferDestroy(victim)
		return value, true
	}
}

func unlockAll[K any, V any](locked []*node[K, V]) {
	for _, n := range locked {
		n.mu.Unlock()
	}
}

// Clear removes all keys. Best-effort and not atomic with respect to other
// writers — Open Question (ii) from spec §9 is answered by keeping this
// relaxed rather than inventing an atomic clear.
func (m *Map[K, V]) Clear() {
	for it := m.Begin(); it.Next(); {
		m.Erase(it.Key())
	}
}
