package skiplist

type void struct{}

// Set is a concurrent ordered set built directly on Map[K, void].
type Set[K any] struct {
	m *Map[K, void]
}

// NewSet creates an empty concurrent ordered set.
func NewSet[K any](cmp func(a, b K) int, opts ...Option) *Set[K] {
	return &Set[K]{m: NewMap[K, void](cmp, opts...)}
}

// Insert adds key, reporting true if it was newly added.
func (s *Set[K]) Insert(key K) bool {
	_, inserted := s.m.Insert(key, void{})
	return inserted
}

// Erase removes key, reporting true if it was present.
func (s *Set[K]) Erase(key K) bool {
	_, existed := s.m.Erase(key)
	return existed
}

// Contains reports whether key is present.
func (s *Set[K]) Contains(key K) bool {
	return s.m.Contains(key)
}

// Len returns the current size.
func (s *Set[K]) Len() int { return s.m.Len() }

// IsEmpty reports whether Len() == 0.
func (s *Set[K]) IsEmpty() bool { return s.m.IsEmpty() }

// Clear removes all keys.
func (s *Set[K]) Clear() { s.m.Clear() }

// SetIterator walks a Set's keys in ascending order.
type SetIterator[K any] struct {
	inner *Iterator[K, void]
}

// Begin returns a SetIterator positioned before the first element.
func (s *Set[K]) Begin() *SetIterator[K] {
	return &SetIterator[K]{inner: s.m.Begin()}
}

// End returns the SetIterator's terminal sentinel.
func (s *Set[K]) End() *SetIterator[K] {
	return &SetIterator[K]{inner: s.m.End()}
}

// LowerBound returns a SetIterator positioned just before the first key
// not less than target; the first Next moves onto it, or returns false if
// no such key exists.
func (s *Set[K]) LowerBound(target K) *SetIterator[K] {
	return &SetIterator[K]{inner: s.m.LowerBound(target)}
}

// Next advances the iterator and reports whether a valid element is now
// positioned.
func (it *SetIterator[K]) Next() bool { return it.inner.Next() }

// Key returns the key at the iterator's current position.
func (it *SetIterator[K]) Key() K { return it.inner.Key() }

// Close releases the iterator's checkout.
func (it *SetIterator[K]) Close() { it.inner.Close() }
