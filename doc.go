// Package tryupdate provides a small primitive for building correct
// lock-free algorithms: a versioned atomic cell driven by a retry loop that
// applies pure transition functions.
//
// Callers never touch the cell's storage directly. They describe an update
// as a function from the observed payload to a Decision, and TryUpdate owns
// the read, compare-and-swap, and retry mechanics. A transition either
// commits a new payload or aborts because no update applies; contention is
// absorbed internally and only surfaces when the caller asks for a retry
// budget.
//
// Two rules make algorithms built this way easy to review for
// linearizability:
//
// First, a transition must only depend on the payload it was handed (plus
// data that is immutable while the call runs). If the cell still holds the
// snapshot the loop read, then everything the transition looked at is still
// current, and the commit is indistinguishable from one that ran alone. Data
// structures that need to read through pointers, like the stack in the stack
// subpackage, rely on the cell's generation counter and on node immutability
// to keep that property.
//
// Second, a transition must be free of side effects. It can run any number
// of times before one invocation wins, so effects that survive a lost race
// (I/O, mutation of shared state) break the replay argument. Perform side
// effects after observing a Committed outcome, with exclusive ownership of
// whatever was claimed; the claim subpackage packages that discipline.
//
// A cell holds two machine words of logical state, a payload and a
// generation, which is enough for a surprising amount of machinery: whole
// state machines, counters with claim bits, and heads of linked structures
// all fit. The subpackages are worked examples that double as conformance
// checks for the engine: a claim queue, a lock-free stack, a vote tally
// state machine, once-initialization cells, and a shutdown barrier.
//
// Cells are cheap and independent. The design scales by giving unrelated
// work unrelated cells, not by funneling everything through one location;
// none of this is intended for a single high-contention coordination point.
package tryupdate
