// Package claim implements the claim pattern: atomically taking exclusive
// ownership of work recorded in a shared cell, processing it exactly once,
// and handing the cell back, all without a lock.
package claim

import (
	tryupdate "github.com/crystalcld/atomic-try-update"
)

// Process runs one round of the claim protocol against c.
//
// It first tries to commit the transition from claimable to claimed. When
// several goroutines race for the same unit of work, exactly one of them
// commits; the rest observe an abort and return false without processing
// anything. The winner then runs process with exclusive ownership of the
// claimed payload, which is where side effects belong, and finally commits
// release to make the cell claimable again.
//
// claimable and mark are invoked inside transitions and so must be pure.
// process and release side effects are safe: they run strictly after the
// claim commit, so at most one goroutine executes them per claimed unit.
//
// Options apply to the claim attempt only. The release commit retries
// without a budget, since giving up there would leak the claim.
func Process[T any](
	c *tryupdate.Cell[T],
	claimable func(T) bool,
	mark func(T) T,
	process func(T),
	release func(T) T,
	opts ...tryupdate.Option,
) bool {
	out := tryupdate.TryUpdate(c, func(cur T) tryupdate.Decision[T] {
		if !claimable(cur) {
			return tryupdate.Abort[T]()
		}
		return tryupdate.Commit(mark(cur))
	}, opts...)

	claimed, ok := out.Committed()
	if !ok {
		return false
	}

	process(claimed)

	tryupdate.TryUpdate(c, func(cur T) tryupdate.Decision[T] {
		return tryupdate.Commit(release(cur))
	})
	return true
}
