package skiplist

// Iterator walks a Map's keys in ascending order. It holds a checkout on
// the map's reclamation scope from construction until Close (or until it
// is exhausted), so nodes unlinked underneath an in-flight iterator stay
// valid to read even though they are no longer reachable from the head.
type Iterator[K any, V any] struct {
	m       *Map[K, V]
	curr    *node[K, V]
	started bool
	closed  bool
}

// Begin returns an iterator positioned before the first element. Call
// Next to advance onto the first element.
func (m *Map[K, V]) Begin() *Iterator[K, V] {
	m.scope.AcquireCheckout()
	return &Iterator[K, V]{m: m, curr: m.head.Load()}
}

// End returns the iterator's terminal sentinel: an already-closed
// iterator holding no checkout, equivalent to running Next on any other
// iterator over this map until it returns false.
func (m *Map[K, V]) End() *Iterator[K, V] {
	return &Iterator[K, V]{m: m, closed: true}
}

// LowerBound returns an iterator positioned just before the first key not
// less than target, like Begin: the first call to Next moves onto that key,
// or returns false if no such key exists. Positioning is done with the
// map's own stored comparator rather than any operator on K, per the Open
// Question (iv) decision recorded in DESIGN.md.
func (m *Map[K, V]) LowerBound(target K) *Iterator[K, V] {
	m.scope.AcquireCheckout()
	pred := m.head.Load()
	for level := int(pred.topLevel); level >= 0; level-- {
		curr := pred.next_(uint8(level))
		for curr != nil && m.less(curr, target) {
			pred = curr
			curr = pred.next_(uint8(level))
		}
	}

	return &Iterator[K, V]{m: m, curr: pred}
}

// Next advances the iterator and reports whether a valid element is now
// positioned. It skips nodes that are marked for removal or not yet fully
// linked, matching lock-free-read semantics used elsewhere on this type.
func (it *Iterator[K, V]) Next() bool {
	if it.closed {
		return false
	}
	for {
		next := it.curr.next_(0)
		if next == nil {
			it.Close()
			return false
		}
		it.curr = next
		it.started = true
		if it.curr.isFullyLinked() && !it.curr.isMarkedForRemoval() {
			return true
		}
	}
}

// Key returns the key at the iterator's current position. Only valid
// after a call to Next returned true.
func (it *Iterator[K, V]) Key() K { return it.curr.key }

// Value returns the value at the iterator's current position. Only valid
// after a call to Next returned true.
func (it *Iterator[K, V]) Value() V { return it.curr.value }

// Close releases the iterator's checkout. Safe to call more than once and
// safe to skip if the iterator was already exhausted by Next.
func (it *Iterator[K, V]) Close() {
	if it.closed {
		return
	}
	it.closed = true
	it.m.scope.ReleaseCheckout()
}
