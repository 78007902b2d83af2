package vote

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/crystalcld/atomic-try-update/internal/testsuite"
)

func TestVoteSequence(t *testing.T) {
	tally := New(2)
	require.Equal(t, Pending, tally.Outcome())

	require.Equal(t, Pending, tally.Vote())
	require.Equal(t, Committed, tally.Vote())
	require.Equal(t, Committed, tally.Outcome())
	require.Equal(t, uint32(2), tally.Received())

	// Late votes are idempotent: decided outcome, count frozen.
	require.Equal(t, Committed, tally.Vote())
	require.Equal(t, uint32(2), tally.Received())
}

func TestZeroNeededCommitsImmediately(t *testing.T) {
	tally := New(0)
	require.Equal(t, Committed, tally.Outcome())
	require.Equal(t, Committed, tally.Vote())
	require.Equal(t, uint32(0), tally.Received())
}

func TestAbortPendingRound(t *testing.T) {
	tally := New(3)
	require.Equal(t, Pending, tally.Vote())
	require.Equal(t, Aborted, tally.Abort())
	require.Equal(t, Aborted, tally.Outcome())

	// Votes after the abort change nothing.
	require.Equal(t, Aborted, tally.Vote())
	require.Equal(t, uint32(1), tally.Received())

	// And a second abort just reports the decision.
	require.Equal(t, Aborted, tally.Abort())
}

func TestAbortAfterCommitIsNoop(t *testing.T) {
	tally := New(1)
	require.Equal(t, Committed, tally.Vote())
	require.Equal(t, Committed, tally.Abort())
	require.Equal(t, Committed, tally.Outcome())
}

// Three concurrent voters on a threshold of three: exactly one observes the
// transition to Committed, the count lands on exactly three, and the
// outcome never oscillates.
func TestThreeConcurrentVoters(t *testing.T) {
	for round := 0; round < 100; round++ {
		tally := New(3)

		var sawCommit, sawPending atomic.Int64
		err := testsuite.Concurrently(3, func(int) error {
			switch tally.Vote() {
			case Committed:
				sawCommit.Add(1)
			case Pending:
				sawPending.Add(1)
			}
			return nil
		})
		require.NoError(t, err)

		require.Equal(t, int64(1), sawCommit.Load())
		require.Equal(t, int64(2), sawPending.Load())
		require.Equal(t, Committed, tally.Outcome())
		require.Equal(t, uint32(3), tally.Received())
	}
}

// Even with many more votes than the threshold, the count freezes exactly
// at the threshold: every vote past the decision is absorbed as a no-op.
func TestExcessConcurrentVoters(t *testing.T) {
	testsuite.RunProcs(t, func(t *testing.T, procs int) {
		tally := New(3)

		var sawPending atomic.Int64
		err := testsuite.Concurrently(procs, func(int) error {
			for i := 0; i < 10; i++ {
				if tally.Vote() == Pending {
					sawPending.Add(1)
				}
			}
			return nil
		})
		require.NoError(t, err)

		require.Equal(t, Committed, tally.Outcome())
		require.Equal(t, uint32(3), tally.Received())
		require.Equal(t, int64(2), sawPending.Load())
	})
}
