// Package barrier provides a shutdown barrier for a dynamically sized pool
// of workers. It differs from a fixed-count barrier in that workers are
// registered as they spawn, and it handles the two startup and teardown
// races that ad hoc wait-group code tends to get wrong: waiting before the
// first worker starts, and waiting after the last worker has already exited.
package barrier

import (
	"errors"

	tryupdate "github.com/crystalcld/atomic-try-update"
)

// ErrShutdown is returned when the barrier has already completed.
var ErrShutdown = errors.New("barrier: already shut down")

// DoneResult describes how a worker's Done call relates to shutdown.
type DoneResult struct {
	cancelled bool
	leader    bool
}

// Cancelled reports whether the pool was cancelled before completion.
func (r DoneResult) Cancelled() bool { return r.cancelled }

// Leader reports whether this Done call was the one that completed the
// pool. Exactly one Done call per barrier is the leader, which gives
// workers a natural place to hang cleanup logic.
func (r DoneResult) Leader() bool { return r.leader }

// Barrier tracks a pool of workers in a single packed word: the live worker
// count in the value half and the cancelled bit in the flag. The word
// reaching a zero count is the shutdown event, and whichever transition
// takes it there, a cancel or the final Done, closes the broadcast channel
// exactly once.
//
// A new barrier counts its creator as the first worker. Spawn everything,
// then call Done for the creator, so the count cannot spuriously hit zero
// mid-startup.
type Barrier struct {
	state tryupdate.PackedCell
	done  chan struct{}
}

// New returns a barrier with a single registered worker, the caller.
func New() *Barrier {
	b := &Barrier{done: make(chan struct{})}
	b.state.Store(uint64(tryupdate.MakeFlag64(1, false)))
	return b
}

// Spawn registers one more worker. It fails with ErrShutdown once the
// barrier has completed or been cancelled, so a worker can never be added
// to a pool that waiters already believe finished.
func (b *Barrier) Spawn() error {
	out := b.state.TryUpdate(func(word uint64) tryupdate.Decision[uint64] {
		f := tryupdate.Flag64(word)
		if f.Flag() || f.Value() == 0 {
			return tryupdate.Abort[uint64]()
		}
		return tryupdate.Commit(uint64(f.WithValue(f.Value() + 1)))
	})
	if _, ok := out.Committed(); !ok {
		return ErrShutdown
	}
	return nil
}

// Cancel marks the pool cancelled and releases all waiters immediately.
// Workers still owe their Done calls; those report Cancelled. Cancel fails
// with ErrShutdown if the pool already completed.
func (b *Barrier) Cancel() error {
	out := b.state.TryUpdate(func(word uint64) tryupdate.Decision[uint64] {
		f := tryupdate.Flag64(word)
		if f.Flag() || f.Value() == 0 {
			return tryupdate.Abort[uint64]()
		}
		return tryupdate.Commit(uint64(f.WithFlag(true)))
	})
	if _, ok := out.Committed(); !ok {
		return ErrShutdown
	}
	// Only the transition that set the flag reaches here, so the close
	// happens once.
	close(b.done)
	return nil
}

// Done retires one worker. The call that takes the count to zero on an
// uncancelled pool is the shutdown leader and releases the waiters. Done
// fails with ErrShutdown if the count was already zero.
func (b *Barrier) Done() (DoneResult, error) {
	var res DoneResult
	out := b.state.TryUpdate(func(word uint64) tryupdate.Decision[uint64] {
		f := tryupdate.Flag64(word)
		count := f.Value()
		if count == 0 {
			return tryupdate.Abort[uint64]()
		}
		res = DoneResult{
			cancelled: f.Flag(),
			leader:    !f.Flag() && count == 1,
		}
		return tryupdate.Commit(uint64(f.WithValue(count - 1)))
	})
	if _, ok := out.Committed(); !ok {
		return DoneResult{}, ErrShutdown
	}
	if res.leader {
		close(b.done)
	}
	return res, nil
}

// Wait blocks until the pool completes or is cancelled and reports whether
// it was cancelled. Wait may be called at any time, from any number of
// goroutines, before the workers start or after the last one exits.
func (b *Barrier) Wait() (cancelled bool) {
	<-b.done
	// The flag is stable once the channel is closed: every transition that
	// could change it aborts after shutdown.
	return tryupdate.Flag64(b.state.Load()).Flag()
}
