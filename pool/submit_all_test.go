package pool

import (
	"errors"
	"sync/atomic"
	"testing"
)

func TestSubmitAllRunsEveryTask(t *testing.T) {
	p := New(4)
	defer p.Close()

	var count atomic.Int32
	fns := make([]func() error, 20)
	for i := range fns {
		fns[i] = func() error {
			count.Add(1)
			return nil
		}
	}

	if err := p.SubmitAll(fns...); err != nil {
		t.Fatalf("SubmitAll returned error: %v", err)
	}
	if count.Load() != 20 {
		t.Fatalf("expected 20 tasks to run, got %d", count.Load())
	}
}

func TestSubmitAllPropagatesFirstError(t *testing.T) {
	p := New(4)
	defer p.Close()

	boom := errors.New("boom")
	fns := []func() error{
		func() error { return nil },
		func() error { return boom },
		func() error { return nil },
	}

	err := p.SubmitAll(fns...)
	if err == nil {
		t.Fatal("expected an error from SubmitAll")
	}
}
