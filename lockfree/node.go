// Package lockfree implements a lock-free concurrent ordered map/set using
// CAS-linked skip-list nodes, grounded on
// stk::lock_free_concurrent_skip_list from the original C++ source (itself
// after Herlihy & Shavit's "The Art of Multiprocessor Programming" and
// folly's ConcurrentSkipList).
//
// The C++ original represents a node's "marked for logical removal" bit by
// stealing a tag bit inside the successor pointer itself
// (atomic_markable_ptr), so a single CAS can swing the pointer and set the
// mark atomically. Go pointers carry no spare bits and atomic.Pointer only
// CASes a bare pointer, so the mark is instead carried alongside the
// pointer in an immutable markableLink value, and the pair is swapped as a
// unit through atomic.Pointer[markableLink]. A marked link and its
// replacement are always different *markableLink allocations, which keeps
// the CAS meaningful: compare-and-swap on the wrapper address stands in
// for compare-and-swap on the (pointer, mark) pair.
package lockfree

import "sync/atomic"

const (
	flagHead uint32 = 1 << iota
	flagMarkedForRemoval
)

// markableLink is the atomic unit swapped at each level: a successor
// pointer together with the "this link has been logically severed" mark.
type markableLink[K any, V any] struct {
	next   *node[K, V]
	marked bool
}

type node[K any, V any] struct {
	key   K
	value V

	flags    atomic.Uint32
	topLevel uint8
	next     []atomic.Pointer[markableLink[K, V]]
}

func newNode[K any, V any](key K, value V, topLevel uint8, isHead bool) *node[K, V] {
	n := &node[K, V]{
		key:      key,
		value:    value,
		topLevel: topLevel,
		next:     make([]atomic.Pointer[markableLink[K, V]], topLevel+1),
	}
	if isHead {
		n.flags.Store(flagHead)
	}
	for i := range n.next {
		n.next[i].Store(&markableLink[K, V]{})
	}
	return n
}

func (n *node[K, V]) isHead() bool { return n.flags.Load()&flagHead != 0 }

func (n *node[K, V]) isMarkedForRemoval() bool {
	return n.flags.Load()&flagMarkedForRemoval != 0
}

func (n *node[K, V]) setMarkedForRemoval() {
	for {
		old := n.flags.Load()
		if n.flags.CompareAndSwap(old, old|flagMarkedForRemoval) {
			return
		}
	}
}

// loadNext returns the raw successor and whether the link at level is
// marked severed.
func (n *node[K, V]) loadNext(level uint8) (*node[K, V], bool) {
	l := n.next[level].Load()
	return l.next, l.marked
}

// casNext atomically swaps the (successor, mark) pair at level from
// (oldNext, oldMark) to (newNext, newMark), succeeding only if the link
// hasn't changed since it was last observed.
func (n *node[K, V]) casNext(level uint8, oldNext *node[K, V], oldMark bool, newNext *node[K, V], newMark bool) bool {
	old := n.next[level].Load()
	if old.next != oldNext || old.marked != oldMark {
		return false
	}
	return n.next[level].CompareAndSwap(old, &markableLink[K, V]{next: newNext, marked: newMark})
}

// storeNext unconditionally publishes a (successor, mark) pair. Only safe
// before the node is reachable from any other goroutine (i.e. while
// building a new node prior to publishing it).
func (n *node[K, V]) storeNext(level uint8, next *node[K, V], marked bool) {
	n.next[level].Store(&markableLink[K, V]{next: next, marked: marked})
}
