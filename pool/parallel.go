package pool

import "github.com/go-foundations/concurrent-substrate/taskcounter"

// ReadyChecker is satisfied by Future[R] for any R; WaitOrWork accepts a
// slice of these so callers can mix futures of different result types in
// one wait.
type ReadyChecker interface {
	Ready() bool
}

// span is a half-open [from, to) range of indices.
type span struct{ from, to int }

// partitionRanges splits [0, count) into up to npartitions near-equal
// contiguous ranges, grounded on partition_work's chunking.
func partitionRanges(count, npartitions int) []span {
	if npartitions <= 0 {
		npartitions = 1
	}
	if npartitions > count {
		npartitions = count
	}
	if npartitions <= 0 {
		return nil
	}

	spans := make([]span, 0, npartitions)
	base := count / npartitions
	rem := count % npartitions
	from := 0
	for i := 0; i < npartitions; i++ {
		size := base
		if i < rem {
			size++
		}
		to := from + size
		if to > from {
			spans = append(spans, span{from: from, to: to})
		}
		from = to
	}
	return spans
}

// defaultPartitions returns N² partitions, over-tiling relative to thread
// count so a single stalled partition doesn't stall the whole pool.
func (p *Pool) defaultPartitions() int {
	n := p.NumberThreads()
	if n == 0 {
		n = 1
	}
	return n * n
}

// ParallelFor runs fn over every element of items, tiled across the pool
// using the default N² partitioning. Go methods cannot carry their own
// type parameters, so this is a free function taking *Pool rather than a
// method on it.
func ParallelFor[T any](p *Pool, items []T, fn func(T)) {
	ParallelForN(p, items, fn, p.defaultPartitions())
}

// ParallelForN runs fn over every element of items, split into npartitions
// tiles (at most one per element) dispatched round-robin across workers.
func ParallelForN[T any](p *Pool, items []T, fn func(T), npartitions int) {
	ranges := partitionRanges(len(items), npartitions)
	if len(ranges) == 0 {
		return
	}

	nthreads := uint32(p.NumberThreads())
	if nthreads == 0 {
		nthreads = 1
	}
	consumed := taskcounter.New(int(nthreads) + 1)
	var njobs uint32

	for _, r := range ranges {
		njobs++
		threadIdx := njobs%nthreads + 1
		from, to := r.from, r.to
		p.SendNoFutureTo(threadIdx, func() {
			defer consumed.Increment(0)
			for i := from; i < to; i++ {
				fn(items[i])
			}
		})
	}

	target := int64(njobs)
	p.waitFor(func() bool { return consumed.Count() == target })
}

// ParallelApply runs fn(i) for every i in [0, count), tiled across the
// pool using the default N² partitioning.
func (p *Pool) ParallelApply(count int, fn func(int)) {
	p.ParallelApplyN(count, fn, p.defaultPartitions())
}

// ParallelApplyN runs fn(i) for every i in [0, count), split into
// npartitions tiles (at most count of them) dispatched round-robin across
// workers.
func (p *Pool) ParallelApplyN(count int, fn func(int), npartitions int) {
	ranges := partitionRanges(count, npartitions)
	if len(ranges) == 0 {
		return
	}

	nthreads := uint32(p.NumberThreads())
	if nthreads == 0 {
		nthreads = 1
	}
	consumed := taskcounter.New(int(nthreads) + 1)
	var njobs uint32

	for _, r := range ranges {
		njobs++
		threadIdx := njobs%nthreads + 1
		from, to := r.from, r.to
		p.SendNoFutureTo(threadIdx, func() {
			defer consumed.Increment(0)
			for i := from; i < to; i++ {
				fn(i)
			}
		})
	}

	target := int64(njobs)
	p.waitFor(func() bool { return consumed.Count() == target })
}

// WaitForAllTasks blocks the calling goroutine until no submitted task
// remains outstanding, helping drain the pool's queues while it waits
// instead of idling.
func (p *Pool) WaitForAllTasks() {
	p.waitFor(func() bool { return !p.HasOutstandingTasks() })
}

// WaitFor blocks until pred reports true, helping drain the pool's queues
// while it waits.
func (p *Pool) WaitFor(pred func() bool) {
	p.waitFor(pred)
}

func (p *Pool) waitFor(pred func() bool) {
	for !pred() {
		p.doWork()
	}
}

// WaitOrWork blocks until every future in fs is ready, helping drain the
// pool's queues while it waits rather than blocking idly. Grounded on
// wait_or_work.
func (p *Pool) WaitOrWork(fs []ReadyChecker) {
	for i := 0; i < len(fs); {
		if !fs[i].Ready() {
			p.doWork()
		} else {
			i++
		}
	}
}

// DoWork performs a single steal-and-run attempt on behalf of the calling
// goroutine. Exposed for callers that want to help drain the pool between
// their own waits without using WaitFor/WaitOrWork.
func (p *Pool) DoWork() {
	p.doWork()
}
