package pool

import "runtime"

// runWorker is a single worker goroutine's main loop: pop from its own
// local queue, fall back to stealing from the shared intake queue, fall
// back to stealing from a peer's local queue, and if nothing is found,
// spin briefly before parking on the condition variable. Grounded on
// work_stealing_thread_pool::worker_thread.
func (p *Pool) runWorker(id uint32) {
	defer p.wg.Done()

	if p.onStart != nil {
		p.onStart()
	}

	p.nThreads.Add(1)
	p.active.Add(1)
	defer func() {
		p.active.Add(-1)
		p.nThreads.Add(-1)
		if p.onStop != nil {
			p.onStop()
		}
	}()

	localIdx := id - 1
	lastStolen := localIdx
	spincount := 0

	task, hasTask := p.poll(localIdx, &lastStolen)
	for {
		if hasTask {
			runRecovered(task)
			p.outstanding.Decrement(id)

			if p.stopThread[localIdx].Load() {
				return
			}
			spincount = 0
			task, hasTask = p.poll(localIdx, &lastStolen)
			continue
		}

		if spincount < 100 {
			spincount++
			backoff := spincount * 10
			for i := 0; i < backoff; i++ {
				runtime.Gosched()
			}
			if p.stopThread[localIdx].Load() {
				return
			}
			task, hasTask = p.poll(localIdx, &lastStolen)
			continue
		}

		p.active.Add(-1)
		p.mu.Lock()
		for {
			task, hasTask = p.poll(localIdx, &lastStolen)
			if hasTask || p.stopThread[localIdx].Load() || p.done.Load() {
				break
			}
			p.cond.Wait()
		}
		p.mu.Unlock()
		p.active.Add(1)
		if !hasTask {
			return
		}
	}
}

// poll tries, in order: this worker's own local queue, the shared intake
// queue, and a round-robin scan of the local queues starting at
// lastStolen.
func (p *Pool) poll(localIdx uint32, lastStolen *uint32) (func(), bool) {
	if t, ok := p.localQueues[localIdx].TryPop(); ok {
		return t, true
	}
	if t, ok := p.poolQueue.TrySteal(); ok {
		return t, true
	}
	return p.trySteal(lastStolen)
}

func (p *Pool) trySteal(lastStolen *uint32) (func(), bool) {
	n := uint32(len(p.localQueues))
	if n == 0 {
		return nil, false
	}
	start := *lastStolen
	for count := uint32(0); count < n; count++ {
		i := (start + count) % n
		if t, ok := p.localQueues[i].TrySteal(); ok {
			*lastStolen = i
			return t, true
		}
	}
	return nil, false
}

// doWork performs a single steal-and-run attempt on behalf of a caller
// that isn't itself a worker goroutine (e.g. a caller blocked in
// waitFor/waitOrWork), grounded on do_work_impl.
func (p *Pool) doWork() {
	if t, ok := p.poolQueue.TrySteal(); ok {
		runRecovered(t)
		p.outstanding.Decrement(0)
		return
	}
	var lastStolen uint32
	if t, ok := p.trySteal(&lastStolen); ok {
		runRecovered(t)
		p.outstanding.Decrement(0)
	}
}
