// Package vote implements a two-phase-commit style vote tally whose entire
// state, counts and decision alike, lives in one cell. Counting the final
// vote and deciding the round happen in the same transition, so there is no
// window where the count is complete but the outcome undecided.
package vote

import (
	tryupdate "github.com/crystalcld/atomic-try-update"
)

// Outcome is the decision state of a tally.
type Outcome int

const (
	// Pending means the round has not reached a decision.
	Pending Outcome = iota
	// Committed means enough votes arrived.
	Committed
	// Aborted means the round was abandoned before the count completed.
	Aborted
)

func (o Outcome) String() string {
	switch o {
	case Pending:
		return "pending"
	case Committed:
		return "committed"
	case Aborted:
		return "aborted"
	}
	return "unknown"
}

type state struct {
	received uint32
	needed   uint32
	outcome  Outcome
}

// Tally counts votes toward a threshold and decides exactly once.
type Tally struct {
	cell *tryupdate.Cell[state]
}

// New returns a pending tally that commits once needed votes arrive.
// A tally with needed zero is committed from the start.
func New(needed uint32) *Tally {
	s := state{needed: needed}
	if needed == 0 {
		s.outcome = Committed
	}
	return &Tally{cell: tryupdate.NewCell(s)}
}

// Vote records one vote and returns the tally's outcome as of the moment
// this vote was linearized. The vote that completes the count observes the
// transition to Committed; earlier votes observe Pending. Votes arriving
// after a decision are idempotent no-ops that report the decided outcome,
// so duplicate and late votes are harmless and the count never exceeds the
// threshold.
func (t *Tally) Vote() Outcome {
	var result Outcome
	tryupdate.TryUpdate(t.cell, func(cur state) tryupdate.Decision[state] {
		if cur.outcome != Pending {
			result = cur.outcome
			return tryupdate.Abort[state]()
		}
		next := state{received: cur.received + 1, needed: cur.needed, outcome: Pending}
		if next.received >= next.needed {
			next.outcome = Committed
		}
		result = next.outcome
		return tryupdate.Commit(next)
	})
	return result
}

// Abort abandons a pending round and returns the tally's final outcome.
// Aborting a decided round changes nothing and reports the existing
// decision.
func (t *Tally) Abort() Outcome {
	var result Outcome
	tryupdate.TryUpdate(t.cell, func(cur state) tryupdate.Decision[state] {
		if cur.outcome != Pending {
			result = cur.outcome
			return tryupdate.Abort[state]()
		}
		result = Aborted
		return tryupdate.Commit(state{received: cur.received, needed: cur.needed, outcome: Aborted})
	})
	return result
}

// Outcome returns the current decision state without voting.
func (t *Tally) Outcome() Outcome {
	s, _ := t.cell.Read()
	return s.outcome
}

// Received returns how many votes have been counted.
func (t *Tally) Received() uint32 {
	s, _ := t.cell.Read()
	return s.received
}
