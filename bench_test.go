package orderedindex

import (
	"testing"
)

func BenchmarkInsertUnique(b *testing.B) {
	idx := mustNewBenchIndex(b)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = idx.Insert(i, i)
	}
}

func BenchmarkGetValueHit(b *testing.B) {
	idx := mustNewBenchIndex(b)
	const n = 100_000
	for i := 0; i < n; i++ {
		_ = idx.Insert(i, i)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = idx.GetValue(i % n)
	}
}

func BenchmarkDeleteThenPerformGC(b *testing.B) {
	idx := mustNewBenchIndex(b)
	for i := 0; i < b.N; i++ {
		_ = idx.Insert(i, i)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = idx.Delete(i, 0)
	}
	idx.PerformGC()
}

func BenchmarkConcurrentInsertGetValue(b *testing.B) {
	idx := mustNewBenchIndex(b)
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			_ = idx.Insert(i, i)
			_, _ = idx.GetValue(i)
			i++
		}
	})
}

func mustNewBenchIndex(b *testing.B) *OrderedIndex[int, int] {
	b.Helper()
	idx, err := New[int, int](intLess, true, nil)
	if err != nil {
		b.Fatal(err)
	}
	return idx
}
