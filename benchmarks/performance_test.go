package benchmarks

import (
	"strings"
	"testing"

	"github.com/go-foundations/concurrent-substrate/lockfree"
	"github.com/go-foundations/concurrent-substrate/pool"
	"github.com/go-foundations/concurrent-substrate/skiplist"
)

func intCmp(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func BenchmarkSkipListInsert(b *testing.B) {
	m := skiplist.NewMap[int, int](intCmp)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m.Insert(i, i)
	}
}

func BenchmarkLockFreeInsert(b *testing.B) {
	m := lockfree.NewMap[int, int](intCmp)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m.Insert(i, i)
	}
}

func BenchmarkSkipListConcurrentInsert(b *testing.B) {
	m := skiplist.NewMap[int, int](intCmp)
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			m.Insert(i, i)
			i++
		}
	})
}

func BenchmarkLockFreeConcurrentInsert(b *testing.B) {
	m := lockfree.NewMap[int, int](intCmp)
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			m.Insert(i, i)
			i++
		}
	})
}

func BenchmarkPoolParallelFor(b *testing.B) {
	p := pool.New(4)
	defer p.Close()

	items := make([]int, 10000)
	for i := range items {
		items[i] = i
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		pool.ParallelFor(p, items, func(int) {})
	}
}

func BenchmarkPoolSend(b *testing.B) {
	p := pool.New(4)
	defer p.Close()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		f := pool.Send(p, func() (int, error) { return 0, nil })
		f.Get()
	}
}

func BenchmarkWordSplit(b *testing.B) {
	const line = "the quick brown fox jumps over the lazy dog"
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = strings.Fields(line)
	}
}
