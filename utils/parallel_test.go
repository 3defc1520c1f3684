package utils

import (
	"sync/atomic"
	"testing"

	"go.viam.com/test"
)

func TestSequentialForEach(t *testing.T) {
	var got []int
	Sequential{}.ForEach(5, func(i int) {
		got = append(got, i)
	})
	test.That(t, got, test.ShouldResemble, []int{0, 1, 2, 3, 4})

	calls := 0
	Sequential{}.ForEach(0, func(int) { calls++ })
	test.That(t, calls, test.ShouldEqual, 0)
}

func TestParallelForEachCoversRange(t *testing.T) {
	for _, factor := range []int{1, 2, 3, 16} {
		counts := make([]int32, 100)
		Parallel{Factor: factor}.ForEach(len(counts), func(i int) {
			atomic.AddInt32(&counts[i], 1)
		})
		for _, c := range counts {
			test.That(t, c, test.ShouldEqual, 1)
		}
	}
}

func TestParallelForEachSmallRange(t *testing.T) {
	// more workers than work
	var visited int32
	Parallel{Factor: 8}.ForEach(3, func(i int) {
		atomic.AddInt32(&visited, 1)
	})
	test.That(t, visited, test.ShouldEqual, 3)

	calls := 0
	Parallel{}.ForEach(0, func(int) { calls++ })
	test.That(t, calls, test.ShouldEqual, 0)
}

func TestParallelMatchesSequential(t *testing.T) {
	sum := func(exec RangeExecutor) int64 {
		var total int64
		exec.ForEach(1000, func(i int) {
			atomic.AddInt64(&total, int64(i*i))
		})
		return total
	}
	test.That(t, sum(Parallel{}), test.ShouldEqual, sum(Sequential{}))
}
