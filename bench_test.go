package parmap

import (
	"fmt"
	"testing"
)

var (
	benchData    [128]string
	benchDataInt [128 << 10]int
)

func init() {
	for i := range benchData {
		benchData[i] = fmt.Sprintf("%b", i)
	}
	for i := range benchDataInt {
		benchDataInt[i] = i
	}
}

func BenchmarkMapLoadOrDefault(b *testing.B) {
	b.ReportAllocs()
	m := NewMap[string, int]()
	defer m.Close()
	for i, k := range benchData {
		m.Store(k, i)
	}
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			_ = m.LoadOrDefault(benchData[i], -1)
			i++
			if i >= len(benchData) {
				i = 0
			}
		}
	})
}

func BenchmarkMapStore(b *testing.B) {
	b.ReportAllocs()
	m := NewMap[int, int]()
	defer m.Close()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			m.Store(benchDataInt[i], i)
			i++
			if i >= len(benchDataInt) {
				i = 0
			}
		}
	})
}

func BenchmarkMapStorePresized(b *testing.B) {
	b.ReportAllocs()
	m := NewMap[int, int](WithPresize(len(benchDataInt) * 2))
	defer m.Close()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			m.Store(benchDataInt[i], i)
			i++
			if i >= len(benchDataInt) {
				i = 0
			}
		}
	})
}

func BenchmarkMapMutate(b *testing.B) {
	b.ReportAllocs()
	m := NewMap[string, int]()
	defer m.Close()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			m.Mutate(benchData[i], func(v *int) { *v++ })
			i++
			if i >= len(benchData) {
				i = 0
			}
		}
	})
}

func BenchmarkMapReduceSum(b *testing.B) {
	b.ReportAllocs()
	m := NewMap[int, int]()
	defer m.Close()
	for _, v := range benchDataInt {
		m.Store(v, v)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = MapReduce(m, func(_, v int) int { return v }, Sum, 0)
	}
}

func BenchmarkMapRehash(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		b.StopTimer()
		m := NewMap[int, int]()
		for _, v := range benchDataInt[:64<<10] {
			m.Store(v, v)
		}
		b.StartTimer()
		if err := m.Reserve(1 << 20); err != nil {
			b.Fatal(err)
		}
		b.StopTimer()
		m.Close()
		b.StartTimer()
	}
}

func BenchmarkSetAdd(b *testing.B) {
	b.ReportAllocs()
	s := NewSet[int]()
	defer s.Close()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			s.Add(benchDataInt[i])
			i++
			if i >= len(benchDataInt) {
				i = 0
			}
		}
	})
}
