package tryupdate

import "runtime"

// Decision is what a transition function returns: either a new payload to
// commit, or an abort signaling that no update applies.
type Decision[T any] struct {
	value  T
	commit bool
}

// Commit requests that v replace the observed payload.
func Commit[T any](v T) Decision[T] {
	return Decision[T]{value: v, commit: true}
}

// Abort requests no change. It is a terminal outcome, not an error: the
// transition looked at the current payload and determined there is nothing
// to do (an empty stack pop, an already decided vote).
func Abort[T any]() Decision[T] {
	return Decision[T]{}
}

// OutcomeKind classifies the result of a TryUpdate call.
type OutcomeKind int

const (
	// Committed means the transition's new payload was installed.
	Committed OutcomeKind = iota
	// Aborted means the transition returned Abort against a fresh snapshot.
	Aborted
	// ContentionExhausted means the retry budget ran out before a commit.
	// The cell is untouched and fully consistent; retrying later is always
	// safe.
	ContentionExhausted
)

func (k OutcomeKind) String() string {
	switch k {
	case Committed:
		return "committed"
	case Aborted:
		return "aborted"
	case ContentionExhausted:
		return "contention-exhausted"
	}
	return "unknown"
}

// Outcome is the result of a TryUpdate call.
type Outcome[T any] struct {
	kind  OutcomeKind
	value T
}

// Kind reports how the call ended.
func (o Outcome[T]) Kind() OutcomeKind { return o.kind }

// Committed returns the installed payload and true when the call committed.
func (o Outcome[T]) Committed() (T, bool) {
	return o.value, o.kind == Committed
}

// TryUpdate runs transition against the cell until it either commits,
// aborts, or exhausts the caller's retry budget.
//
// Each iteration reads a fresh snapshot, invokes transition on the observed
// payload, and attempts to install the result with a compare-and-swap that
// bumps the generation. Losing the swap means another writer committed in
// race; the loop re-reads and re-invokes transition against the new state.
// Transition is never retried with stale input, so every commit decision is
// made against the value it replaces. That is what makes the result
// linearizable: commits are totally ordered by the generation counter, and
// replaying them single-threaded in that order reproduces the same states.
//
// Transition must be a pure function of the payload passed to it. It may run
// any number of times, so it must not perform I/O, mutate reachable shared
// state, or otherwise have effects that survive a lost race. Writing results
// to variables local to the caller is fine: the invocation that commits runs
// last, so those variables end up describing the committed attempt. Any real
// side effect belongs after TryUpdate returns a Committed outcome.
//
// It is also fine for transition to read immutable data hanging off the
// payload (stack nodes, for instance). If some other writer commits first,
// the swap fails and whatever was read is discarded, so stale reads can
// never leak into an installed value.
func TryUpdate[T any](c *Cell[T], transition func(T) Decision[T], opts ...Option) Outcome[T] {
	cfg := applyOptions(opts)
	attempts := 0
	for {
		old := c.load()
		dec := transition(old.payload)
		if !dec.commit {
			return Outcome[T]{kind: Aborted}
		}
		next := &versioned[T]{payload: dec.value, generation: old.generation + 1}
		if c.compareAndSwap(old, next) {
			return Outcome[T]{kind: Committed, value: dec.value}
		}
		attempts++
		if cfg.budget > 0 && attempts >= cfg.budget {
			return Outcome[T]{kind: ContentionExhausted}
		}
		if cfg.backoff {
			backoff(attempts)
		}
	}
}

// backoff eases cache-line pressure after a lost race. The first few
// attempts retry immediately, the same way a busy wait would; after that the
// loser yields its processor before trying again.
func backoff(attempts int) {
	if attempts > 8 {
		runtime.Gosched()
	}
}
