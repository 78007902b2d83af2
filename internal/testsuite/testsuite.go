// Package testsuite holds the shared harness for the concurrency tests: a
// table of worker counts and helpers for running a workload across that
// many goroutines.
package testsuite

import (
	"strconv"
	"testing"

	"golang.org/x/sync/errgroup"
)

var (
	// TestProcs are the worker counts every concurrency test runs under.
	TestProcs = []int{1, 2, 4, 16, 64}
	// BenchProcs are the worker counts used by benchmarks.
	BenchProcs = []int{1, 4, 32}
)

// Concurrently runs fn in procs goroutines, passing each its worker id, and
// waits for all of them. The first error stops nothing but is returned.
func Concurrently(procs int, fn func(id int) error) error {
	var g errgroup.Group
	for id := 0; id < procs; id++ {
		id := id
		g.Go(func() error {
			return fn(id)
		})
	}
	return g.Wait()
}

// RunProcs runs test once per entry in TestProcs, as a subtest named pN.
func RunProcs(t *testing.T, test func(t *testing.T, procs int)) {
	t.Helper()
	for _, procs := range TestProcs {
		procs := procs
		t.Run("p"+strconv.Itoa(procs), func(t *testing.T) {
			test(t, procs)
		})
	}
}

// BenchProcsRun runs bench once per entry in BenchProcs, as a sub-benchmark
// named pN.
func BenchProcsRun(b *testing.B, bench func(b *testing.B, procs int)) {
	b.Helper()
	for _, procs := range BenchProcs {
		procs := procs
		b.Run("p"+strconv.Itoa(procs), func(b *testing.B) {
			bench(b, procs)
		})
	}
}
