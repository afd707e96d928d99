// Package pool implements a work-stealing thread pool: a fixed set of
// worker goroutines, each with its own local task queue plus a shared
// intake queue, that service their own queue first, fall back to the
// intake queue, and finally steal from a peer before idling.
//
// Grounded on work_stealing_thread_pool.hpp for the algorithm and on the
// teacher repository's workerpool.go / strategies/work_stealing.go for Go
// idiom: generics-first API, functional-option configuration, and a
// steal-after-own-queue worker loop.
//
// Goroutine identity. The original tracks a thread-local "am I a pool
// worker, and which one" id so a task submitted from inside a worker can
// prefer its own local queue and shard its counter updates. Go has no
// goroutine-local storage, and inspecting it is not something any library
// in this module's dependency set does, so this port drops that
// optimization rather than fake it: every call into Send, SendTo,
// ParallelFor, ParallelApply, or WaitForAllTasks from outside a worker's
// own dispatch loop is treated uniformly as coming from submitter slot 0
// (the same slot the original reserves for "the main thread"). Worker
// goroutines still know their own id directly, as a plain function
// parameter passed down from New's startup loop, and use it to decrement
// their own counter shard when a task they popped finishes. Correctness
// is unaffected; only the cache-locality benefit of nested calls from
// inside a worker task is left on the table.
package pool

import (
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/go-foundations/concurrent-substrate/taskcounter"
	"github.com/go-foundations/concurrent-substrate/workqueue"
)

// QueueKind selects the workqueue implementation backing the pool's
// intake and per-worker queues.
type QueueKind int

const (
	// LockedQueue uses workqueue.NewLocked.
	LockedQueue QueueKind = iota
	// LockFreeQueue uses workqueue.NewLockFree.
	LockFreeQueue
)

const defaultQueueCapacity = 1024

// Option configures a Pool at construction.
type Option func(*settings)

type settings struct {
	bindToCores bool
	onStart     func()
	onStop      func()
	queueKind   QueueKind
	capacity    int
}

// WithBindToCores requests that worker goroutines pin themselves to
// specific OS threads/cores. Go's scheduler gives no portable, dependency-
// free way to pin a goroutine to a core the way the original's
// bind_to_processor does, so this is recorded but currently a no-op; it
// exists so callers migrating tuning knobs from the original don't need
// to delete the call site.
func WithBindToCores(v bool) Option {
	return func(s *settings) { s.bindToCores = v }
}

// WithOnStart registers a callback run once by each worker goroutine
// before it begins polling for work.
func WithOnStart(fn func()) Option {
	return func(s *settings) { s.onStart = fn }
}

// WithOnStop registers a callback run once by each worker goroutine after
// it stops polling for work.
func WithOnStop(fn func()) Option {
	return func(s *settings) { s.onStop = fn }
}

// WithQueueKind selects the queue implementation used for the intake
// queue and every worker's local queue.
func WithQueueKind(k QueueKind) Option {
	return func(s *settings) { s.queueKind = k }
}

// WithQueueCapacity overrides the default fixed capacity of every queue.
func WithQueueCapacity(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.capacity = n
		}
	}
}

func newSettings(opts []Option) settings {
	s := settings{queueKind: LockedQueue, capacity: defaultQueueCapacity}
	for _, o := range opts {
		o(&s)
	}
	return s
}

// Pool is a work-stealing thread pool of goroutines.
type Pool struct {
	poolQueue    workqueue.Queue[func()]
	localQueues  []workqueue.Queue[func()]
	outstanding  *taskcounter.Counter
	stopThread   []atomic.Bool
	done         atomic.Bool
	nThreads     atomic.Int32
	active       atomic.Int32
	rndCounter   atomic.Uint64
	bindToCores  bool
	onStart      func()
	onStop       func()
	mu           sync.Mutex
	cond         *sync.Cond
	wg           sync.WaitGroup
}

// New creates a pool of n worker goroutines. n is clamped to at least 1.
func New(n int, opts ...Option) *Pool {
	if n <= 0 {
		n = 1
	}
	s := newSettings(opts)

	factory := func() workqueue.Queue[func()] { return workqueue.NewLocked[func()](s.capacity) }
	if s.queueKind == LockFreeQueue {
		factory = func() workqueue.Queue[func()] { return workqueue.NewLockFree[func()](s.capacity) }
	}

	p := &Pool{
		poolQueue:   factory(),
		localQueues: make([]workqueue.Queue[func()], n),
		outstanding: taskcounter.New(n),
		stopThread:  make([]atomic.Bool, n),
		bindToCores: s.bindToCores,
		onStart:     s.onStart,
		onStop:      s.onStop,
	}
	p.cond = sync.NewCond(&p.mu)
	for i := range p.localQueues {
		p.localQueues[i] = factory()
	}

	for i := 0; i < n; i++ {
		p.wg.Add(1)
		go p.runWorker(uint32(i + 1))
	}

	for p.nThreads.Load() != int32(n) {
		runtime.Gosched()
	}
	return p
}

// Close signals every worker to stop after draining its current task and
// waits for all worker goroutines to exit. Tasks still queued when Close
// is called are not guaranteed to run: a worker woken from its wait may
// still take and run one queued task before it exits.
func (p *Pool) Close() {
	p.mu.Lock()
	p.done.Store(true)
	for i := range p.stopThread {
		p.stopThread[i].Store(true)
	}
	p.cond.Broadcast()
	p.mu.Unlock()
	p.wg.Wait()
}

// NumberThreads returns the number of currently running worker goroutines.
func (p *Pool) NumberThreads() int {
	return int(p.nThreads.Load())
}

// HasOutstandingTasks reports whether any submitted task has not yet
// finished running.
func (p *Pool) HasOutstandingTasks() bool {
	return !p.outstanding.IsZero()
}

// GetThreadID returns the calling goroutine's worker id, which is always
// 0 in this port: see the package doc for why Go drops the original's
// thread-local identity.
func (p *Pool) GetThreadID() uint32 { return 0 }

// GetRndQueueIndex returns a pseudo-random worker index in [1, n], cycling
// through workers round-robin across calls rather than using a real RNG,
// grounded on get_rnd_queue_index's thread-local counter.
func (p *Pool) GetRndQueueIndex() uint32 {
	n := uint64(len(p.localQueues))
	if n == 0 {
		return 0
	}
	c := p.rndCounter.Add(1)
	return uint32(c%n) + 1
}

// dispatch pushes fn onto the intake queue (queueIndex == 0) or a
// specific worker's local queue (queueIndex in [1, n]), falling back to
// running fn inline if the target queue is full or the pool has been
// closed, matching send_impl's push-or-run-inline fallback.
func (p *Pool) dispatch(submitterID uint32, queueIndex uint32, fn func()) {
	if p.done.Load() {
		fn()
		return
	}
	p.outstanding.Increment(submitterID)

	var q workqueue.Queue[func()]
	if queueIndex == 0 {
		q = p.poolQueue
	} else {
		q = p.localQueues[queueIndex-1]
	}

	if !q.TryPush(fn) {
		fn()
		p.outstanding.Decrement(submitterID)
		return
	}

	p.mu.Lock()
	p.cond.Signal()
	p.mu.Unlock()
}

// Send submits fn to the pool's shared intake queue and returns a Future
// for its result. Go methods cannot carry their own type parameters, so
// the generic submission entry points are free functions taking *Pool,
// not methods on it.
func Send[R any](p *Pool, fn func() (R, error)) *Future[R] {
	return SendTo(p, 0, fn)
}

// SendTo submits fn to a specific worker's queue (threadIndex in
// [1, n]) or the shared intake queue (threadIndex == 0), and returns a
// Future for its result.
func SendTo[R any](p *Pool, threadIndex uint32, fn func() (R, error)) *Future[R] {
	future := newFuture[R]()
	wrapped := func() {
		if r := runRecovered(func() {
			v, err := fn()
			future.deliver(v, err)
		}); r != nil {
			future.deliverPanic(r)
		}
	}
	p.dispatch(0, threadIndex, wrapped)
	return future
}

// SendNoFuture submits fn to the pool's shared intake queue without
// tracking a result. A panicking fn is recovered and dropped, matching
// the original worker loop's empty catch(...) handler for non-future
// tasks.
func (p *Pool) SendNoFuture(fn func()) {
	p.SendNoFutureTo(0, fn)
}

// SendNoFutureTo submits fn to a specific worker's queue (threadIndex in
// [1, n]) or the shared intake queue (threadIndex == 0) without tracking
// a result.
func (p *Pool) SendNoFutureTo(threadIndex uint32, fn func()) {
	p.dispatch(0, threadIndex, func() {
		runRecovered(fn)
	})
}

func runRecovered(fn func()) (r any) {
	defer func() { r = recover() }()
	fn()
	return nil
}

