package tryupdate

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/crystalcld/atomic-try-update/internal/testsuite"
)

func TestCommitOutcome(t *testing.T) {
	c := NewCell(1)
	out := TryUpdate(c, func(cur int) Decision[int] {
		return Commit(cur * 2)
	})
	val, ok := out.Committed()
	require.True(t, ok)
	require.Equal(t, 2, val)
	require.Equal(t, Committed, out.Kind())
}

func TestAbortOutcome(t *testing.T) {
	c := NewCell(1)
	out := TryUpdate(c, func(int) Decision[int] {
		return Abort[int]()
	})
	require.Equal(t, Aborted, out.Kind())
	_, ok := out.Committed()
	require.False(t, ok)
}

func TestRetryBudgetExhaustion(t *testing.T) {
	c := NewCell(0)

	// The transition defeats its own swap by committing a separate update
	// before returning, so the outer attempt always loses its race.
	out := TryUpdate(c, func(cur int) Decision[int] {
		TryUpdate(c, func(inner int) Decision[int] {
			return Commit(inner + 100)
		})
		return Commit(cur + 1)
	}, WithRetryBudget(3))

	require.Equal(t, ContentionExhausted, out.Kind())

	// The cell holds only the sabotage commits: a consistent state, with
	// one commit per failed attempt plus the first read.
	val, gen := c.Read()
	require.Equal(t, 300, val)
	require.Equal(t, uint64(3), gen)
}

func TestRetryBudgetUnusedWhenUncontended(t *testing.T) {
	c := NewCell(5)
	out := TryUpdate(c, func(cur int) Decision[int] {
		return Commit(cur + 1)
	}, WithRetryBudget(1), WithBackoff())
	require.Equal(t, Committed, out.Kind())
}

func TestConcurrentIncrements(t *testing.T) {
	testsuite.RunProcs(t, func(t *testing.T, procs int) {
		const perProc = 1000

		c := NewCell(0)
		err := testsuite.Concurrently(procs, func(int) error {
			for i := 0; i < perProc; i++ {
				out := TryUpdate(c, func(cur int) Decision[int] {
					return Commit(cur + 1)
				})
				if out.Kind() != Committed {
					t.Errorf("unexpected outcome %v", out.Kind())
				}
			}
			return nil
		})
		require.NoError(t, err)

		val, gen := c.Read()
		require.Equal(t, procs*perProc, val)
		require.Equal(t, uint64(procs*perProc), gen)
	})
}

// Concurrent appends replayed in commit order must preserve each worker's
// own program order, which is what the single-threaded replay argument
// promises.
func TestCommitOrderReplaysProgramOrder(t *testing.T) {
	testsuite.RunProcs(t, func(t *testing.T, procs int) {
		const perProc = 100

		type entry struct {
			worker int
			seq    int
		}
		c := NewCell[[]entry](nil)

		err := testsuite.Concurrently(procs, func(id int) error {
			for i := 0; i < perProc; i++ {
				e := entry{worker: id, seq: i}
				TryUpdate(c, func(cur []entry) Decision[[]entry] {
					// Clone rather than append in place: the observed
					// slice is shared with every snapshot that read it.
					next := make([]entry, len(cur), len(cur)+1)
					copy(next, cur)
					return Commit(append(next, e))
				})
			}
			return nil
		})
		require.NoError(t, err)

		history, gen := c.Read()
		require.Len(t, history, procs*perProc)
		require.Equal(t, uint64(procs*perProc), gen)

		seen := make([]int, procs)
		for _, e := range history {
			require.Equal(t, seen[e.worker], e.seq, "worker %d out of order", e.worker)
			seen[e.worker]++
		}
	})
}

func BenchmarkTryUpdate(b *testing.B) {
	c := NewCell(0)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		TryUpdate(c, func(cur int) Decision[int] {
			return Commit(cur + 1)
		})
	}
}

func BenchmarkTryUpdateParallel(b *testing.B) {
	testsuite.BenchProcsRun(b, func(b *testing.B, procs int) {
		c := NewCell(0)
		b.SetParallelism(procs)
		b.RunParallel(func(pb *testing.PB) {
			for pb.Next() {
				TryUpdate(c, func(cur int) Decision[int] {
					return Commit(cur + 1)
				}, WithBackoff())
			}
		})
	})
}
