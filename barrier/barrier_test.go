package barrier

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/crystalcld/atomic-try-update/internal/testsuite"
)

func TestSingleWorker(t *testing.T) {
	b := New()

	res, err := b.Done()
	require.NoError(t, err)
	require.True(t, res.Leader())
	require.False(t, res.Cancelled())

	// Waiting after the last worker exited completes immediately.
	require.False(t, b.Wait())
}

func TestSpawnAfterShutdown(t *testing.T) {
	b := New()
	_, err := b.Done()
	require.NoError(t, err)

	require.ErrorIs(t, b.Spawn(), ErrShutdown)
	require.ErrorIs(t, b.Cancel(), ErrShutdown)

	_, err = b.Done()
	require.ErrorIs(t, err, ErrShutdown)
}

func TestWaitBeforeWorkersFinish(t *testing.T) {
	b := New()

	const workers = 8
	for i := 0; i < workers; i++ {
		require.NoError(t, b.Spawn())
	}

	waited := make(chan bool, 1)
	go func() {
		waited <- b.Wait()
	}()

	select {
	case <-waited:
		t.Fatal("wait completed with workers still registered")
	case <-time.After(10 * time.Millisecond):
	}

	var leaders atomic.Int64
	err := testsuite.Concurrently(workers, func(int) error {
		res, err := b.Done()
		if err != nil {
			return err
		}
		if res.Leader() {
			leaders.Add(1)
		}
		return nil
	})
	require.NoError(t, err)

	// The creator's Done releases the waiters.
	res, err := b.Done()
	require.NoError(t, err)

	require.False(t, <-waited)
	require.Equal(t, int64(0), leaders.Load(), "leader must be the final Done")
	require.True(t, res.Leader())
}

func TestCancel(t *testing.T) {
	b := New()
	require.NoError(t, b.Spawn())

	require.NoError(t, b.Cancel())

	// Waiters are released immediately, before the workers retire.
	require.True(t, b.Wait())

	// Workers still owe their Done calls, which report the cancellation
	// and never the leadership.
	for i := 0; i < 2; i++ {
		res, err := b.Done()
		require.NoError(t, err)
		require.True(t, res.Cancelled())
		require.False(t, res.Leader())
	}

	_, err := b.Done()
	require.ErrorIs(t, err, ErrShutdown)
	require.ErrorIs(t, b.Cancel(), ErrShutdown)
}

func TestConcurrentSpawnDone(t *testing.T) {
	testsuite.RunProcs(t, func(t *testing.T, procs int) {
		b := New()

		var leaders atomic.Int64
		err := testsuite.Concurrently(procs, func(int) error {
			for i := 0; i < 100; i++ {
				if err := b.Spawn(); err != nil {
					return err
				}
				res, err := b.Done()
				if err != nil {
					return err
				}
				if res.Leader() {
					leaders.Add(1)
				}
			}
			return nil
		})
		require.NoError(t, err)

		res, err := b.Done()
		require.NoError(t, err)
		require.True(t, res.Leader())
		require.Equal(t, int64(0), leaders.Load())

		require.False(t, b.Wait())
	})
}
