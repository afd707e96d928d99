package lockfree

// Iterator walks a Map's keys in ascending order. Unlike the lock-coupled
// sibling, no checkout bookkeeping is needed here: a node observed mid-walk
// stays a valid Go value for as long as the iterator holds a reference to
// it, marked-for-removal or not, since nothing ever frees it manually.
type Iterator[K any, V any] struct {
	m     *Map[K, V]
	curr  *node[K, V]
	ended bool
}

// Begin returns an iterator positioned before the first element.
func (m *Map[K, V]) Begin() *Iterator[K, V] {
	return &Iterator[K, V]{m: m, curr: m.head.Load()}
}

// End returns the iterator's terminal sentinel, equivalent to running
// Next on any other iterator over this map until it returns false.
func (m *Map[K, V]) End() *Iterator[K, V] {
	return &Iterator[K, V]{m: m, ended: true}
}

// LowerBound returns an iterator positioned just before the first key not
// less than target, like Begin: the first call to Next moves onto that key,
// or returns false if no such key exists. Positioning uses the map's own
// stored comparator, not an operator on K, per the Open Question (iv)
// decision recorded in DESIGN.md.
func (m *Map[K, V]) LowerBound(target K) *Iterator[K, V] {
	pred := m.head.Load()
	for level := int(pred.topLevel); level >= 0; level-- {
		curr, _ := pred.loadNext(uint8(level))
		for curr != nil && m.less(curr, target) {
			pred = curr
			curr, _ = pred.loadNext(uint8(level))
		}
	}

	return &Iterator[K, V]{m: m, curr: pred}
}

// Next advances the iterator and reports whether a valid element is now
// positioned, skipping nodes marked for removal.
func (it *Iterator[K, V]) Next() bool {
	if it.ended {
		return false
	}
	for {
		next, _ := it.curr.loadNext(0)
		if next == nil {
			it.ended = true
			return false
		}
		it.curr = next
		if !it.curr.isMarkedForRemoval() {
			return true
		}
	}
}

// Key returns the key at the iterator's current position.
func (it *Iterator[K, V]) Key() K { return it.curr.key }

// Value returns the value at the iterator's current position.
func (it *Iterator[K, V]) Value() V { return it.curr.value }
