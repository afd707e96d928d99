package pool

import "golang.org/x/sync/errgroup"

// SubmitAll runs every fn in fns on the pool, waiting for all of them and
// returning the first error encountered (if any), in the same
// fan-out/fan-in shape as errgroup.Group.Go/Wait. Unlike ParallelFor, each
// fn is an independent unit of work rather than a partitioned slice, so
// this is the right tool for "run these N unrelated jobs and report the
// first failure" rather than "tile this range." A failing job does not
// cancel the others: every fn is submitted and awaited.
func (p *Pool) SubmitAll(fns ...func() error) error {
	var g errgroup.Group
	futures := make([]*Future[struct{}], len(fns))
	for i, fn := range fns {
		fn := fn
		futures[i] = SendTo(p, 0, func() (struct{}, error) {
			return struct{}{}, fn()
		})
	}
	for _, f := range futures {
		f := f
		g.Go(func() error {
			_, err := f.Get()
			return err
		})
	}
	return g.Wait()
}
