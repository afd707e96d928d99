package workqueue

import "sync/atomic"

// lockFreeRing is a bounded multi-producer/multi-consumer ring buffer.
// Each slot carries its own sequence number; a CAS against that sequence
// decides who wins the slot, the same compare-and-retry idiom used by the
// Michael & Scott lock-free queue elsewhere in this corpus, specialized
// to a fixed-capacity array instead of a linked list so capacity is known
// up front.
//
// TryPop and TrySteal both dequeue from the same end: a bounded ring
// has no owner-private region to distinguish them, so stealing from this
// implementation is just another consumer racing the owner for the next
// slot.
type lockFreeRing[T any] struct {
	mask uint64
	buf  []ringSlot[T]

	enqueuePos atomic.Uint64
	dequeuePos atomic.Uint64
}

type ringSlot[T any] struct {
	seq  atomic.Uint64
	item T
}

// NewLockFree creates a fixed-capacity, CAS-based Queue. capacity is
// rounded up to the next power of two.
func NewLockFree[T any](capacity int) Queue[T] {
	if capacity <= 0 {
		capacity = 64
	}
	size := nextPowerOfTwo(capacity)
	r := &lockFreeRing[T]{
		mask: uint64(size - 1),
		buf:  make([]ringSlot[T], size),
	}
	for i := range r.buf {
		r.buf[i].seq.Store(uint64(i))
	}
	return r
}

func nextPowerOfTwo(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

func (r *lockFreeRing[T]) TryPush(item T) bool {
	for {
		pos := r.enqueuePos.Load()
		slot := &r.buf[pos&r.mask]
		seq := slot.seq.Load()
		diff := int64(seq) - int64(pos)
		switch {
		case diff == 0:
			if r.enqueuePos.CompareAndSwap(pos, pos+1) {
				slot.item = item
				slot.seq.Store(pos + 1)
				return true
			}
		case diff < 0:
			return false // full
		default:
			// another producer advanced first; reload and retry
		}
	}
}

func (r *lockFreeRing[T]) dequeue() (T, bool) {
	var zero T
	for {
		pos := r.dequeuePos.Load()
		slot := &r.buf[pos&r.mask]
		seq := slot.seq.Load()
		diff := int64(seq) - int64(pos+1)
		switch {
		case diff == 0:
			if r.dequeuePos.CompareAndSwap(pos, pos+1) {
				item := slot.item
				slot.item = zero
				slot.seq.Store(pos + r.mask + 1)
				return item, true
			}
		case diff < 0:
			return zero, false // empty
		default:
			// another consumer advanced first; reload and retry
		}
	}
}

func (r *lockFreeRing[T]) TryPop() (T, bool) { return r.dequeue() }

func (r *lockFreeRing[T]) TrySteal() (T, bool) { return r.dequeue() }

func (r *lockFreeRing[T]) Len() int {
	enq := r.enqueuePos.Load()
	deq := r.dequeuePos.Load()
	if enq < deq {
		return 0
	}
	return int(enq - deq)
}
