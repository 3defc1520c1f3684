// Package utils contains shared execution helpers for the photovo packages.
package utils

import (
	"math"
	"runtime"
	"sync"

	"go.viam.com/utils"
)

// ParallelFactor controls the default level of parallelization. This might be
// useful to set in tests where too much parallelism actually slows tests down
// in aggregate.
var ParallelFactor = runtime.GOMAXPROCS(0)

func init() {
	if ParallelFactor <= 0 {
		ParallelFactor = 1
	}
}

// A RangeExecutor runs a work function over the index range [0, n). Callers
// rely on every index being visited exactly once and on ForEach not returning
// until all work is done; they make no assumption about visit order, so both
// implementations below are interchangeable.
type RangeExecutor interface {
	ForEach(n int, work func(i int))
}

// Sequential runs the range on the calling goroutine, in order.
type Sequential struct{}

// ForEach visits each index from 0 to n-1.
func (Sequential) ForEach(n int, work func(i int)) {
	for i := 0; i < n; i++ {
		work(i)
	}
}

// Parallel splits the range into contiguous groups, one goroutine per group.
// The zero value uses ParallelFactor workers.
type Parallel struct {
	Factor int
}

// ForEach visits each index from 0 to n-1 across Factor goroutines and waits
// for all of them.
func (p Parallel) ForEach(n int, work func(i int)) {
	factor := p.Factor
	if factor <= 0 {
		factor = ParallelFactor
	}
	if factor > n {
		factor = n
	}
	if factor <= 1 {
		Sequential{}.ForEach(n, work)
		return
	}

	groupSize := int(math.Floor(float64(n) / float64(factor)))
	extra := n % factor

	var wait sync.WaitGroup
	wait.Add(factor)
	for groupNum := 0; groupNum < factor; groupNum++ {
		from := groupSize * groupNum
		to := groupSize * (groupNum + 1)
		if groupNum == factor-1 {
			to += extra
		}
		fromCopy, toCopy := from, to
		utils.PanicCapturingGo(func() {
			defer wait.Done()
			for i := fromCopy; i < toCopy; i++ {
				work(i)
			}
		})
	}
	wait.Wait()
}
