// Package once provides one-shot initialization cells built on the
// try-update engine: a fake-monotonic initializer for deterministic values
// and a lifecycle cell with explicit set and seal phases.
package once

import (
	"fmt"
	"hash/fnv"

	tryupdate "github.com/crystalcld/atomic-try-update"
)

type monoState[T any] struct {
	done        bool
	val         T
	fingerprint uint64
}

// FakeMonotonic initializes a value exactly once without coordination. The
// trick is fake monotonicity: every racing caller computes the same
// deterministic value from the same globally known inputs, so it does not
// matter which computation wins the race, and losers can treat the winner's
// value as their own.
//
// That only holds if compute genuinely is a pure function of inputs every
// caller agrees on. Because a broken compute silently produces
// nondeterministic programs, the cell records a fingerprint of the winning
// value and InitOnce panics when a loser's computation fingerprints
// differently. The check catches value-level divergence; divergence the
// fingerprint cannot see (distinct pointers to equal data, say) remains the
// caller's contract to uphold.
type FakeMonotonic[T any] struct {
	cell *tryupdate.Cell[monoState[T]]
}

// NewFakeMonotonic returns an uninitialized cell.
func NewFakeMonotonic[T any]() *FakeMonotonic[T] {
	return &FakeMonotonic[T]{cell: tryupdate.NewCell(monoState[T]{})}
}

// InitOnce returns the cell's value, computing and installing it if this is
// the first call. Concurrent callers all receive the identical value and
// every caller may treat its return as success; losing the installation race
// is not an error precisely because the computations were interchangeable.
//
// InitOnce always runs compute, even when the cell is already initialized,
// so that every caller's computation gets checked against the installed
// fingerprint. Callers that only want to read an initialized cell should
// use Get.
func (m *FakeMonotonic[T]) InitOnce(compute func() T) T {
	val := compute()
	fp := fingerprint(val)

	out := tryupdate.TryUpdate(m.cell, func(cur monoState[T]) tryupdate.Decision[monoState[T]] {
		if cur.done {
			return tryupdate.Abort[monoState[T]]()
		}
		return tryupdate.Commit(monoState[T]{done: true, val: val, fingerprint: fp})
	})
	if _, ok := out.Committed(); ok {
		return val
	}

	cur, _ := m.cell.Read()
	if cur.fingerprint != fp {
		panic(fmt.Sprintf(
			"once: racing initializers computed distinct values (fingerprint %#x vs %#x); compute must be deterministic",
			fp, cur.fingerprint))
	}
	return cur.val
}

// Get returns the value and whether the cell has been initialized.
func (m *FakeMonotonic[T]) Get() (T, bool) {
	cur, _ := m.cell.Read()
	return cur.val, cur.done
}

// fingerprint hashes the value's printed form. Crude, but it only has to
// distinguish values that a broken compute produced differently.
func fingerprint(v any) uint64 {
	h := fnv.New64a()
	fmt.Fprintf(h, "%#v", v)
	return h.Sum64()
}
