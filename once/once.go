package once

import (
	"errors"

	tryupdate "github.com/crystalcld/atomic-try-update"
)

var (
	// ErrAlreadySet is returned by setters when a value is already present.
	ErrAlreadySet = errors.New("once: value already set")
	// ErrUnset is returned by Get when no value was ever set.
	ErrUnset = errors.New("once: value not set")
	// ErrConcurrentSet means another goroutine holds the prepare phase.
	// Callers are expected to arrange that setters do not race; this error
	// makes such races loud instead of silent.
	ErrConcurrentSet = errors.New("once: concurrent set in progress")
	// ErrUnprepared is returned by SetPrepared without a prior prepare.
	ErrUnprepared = errors.New("once: set without prepare")
)

type phase uint8

const (
	unset phase = iota
	preparing
	set
)

// val is nil in the set phase when the cell was sealed empty by GetOrSeal.
type lifecycle[T any] struct {
	phase phase
	val   *T
}

// Cell is a write-once cell with an explicit lifecycle. Unlike a plain
// once-value it distinguishes "not set yet" from "sealed empty", and it
// exposes a two-phase set so that racing setters surface as errors rather
// than as silently dropped values.
//
// The helpers pair up by use case. To memoize a value: GetOrPrepare, then
// SetPrepared. To publish a value and read it later: Set, then Get or
// GetPoll. To guarantee no setter succeeds after the first read: GetOrSeal.
type Cell[T any] struct {
	inner *tryupdate.Cell[lifecycle[T]]
}

// NewCell returns an empty, unsealed cell.
func NewCell[T any]() *Cell[T] {
	return &Cell[T]{inner: tryupdate.NewCell(lifecycle[T]{})}
}

// Set publishes val. It fails with ErrAlreadySet if a value is present or
// the cell was sealed, and with ErrConcurrentSet if a prepare is pending.
func (c *Cell[T]) Set(val T) error {
	ptr := &val
	var fail error
	tryupdate.TryUpdate(c.inner, func(cur lifecycle[T]) tryupdate.Decision[lifecycle[T]] {
		switch cur.phase {
		case unset:
			fail = nil
			return tryupdate.Commit(lifecycle[T]{phase: set, val: ptr})
		case preparing:
			fail = ErrConcurrentSet
		default:
			fail = ErrAlreadySet
		}
		return tryupdate.Abort[lifecycle[T]]()
	})
	return fail
}

// Get returns the value, sealing the cell empty if nothing was ever set, in
// which case it returns ErrUnset. After Get returns ErrUnset, all future
// setters fail.
func (c *Cell[T]) Get() (T, error) {
	val, ok, err := c.GetOrSeal()
	if err != nil {
		var zero T
		return zero, err
	}
	if !ok {
		var zero T
		return zero, ErrUnset
	}
	return val, nil
}

// GetPoll returns the value if one has been published, without affecting the
// lifecycle. It reports false while the cell is unset, preparing, or sealed
// empty.
func (c *Cell[T]) GetPoll() (T, bool) {
	cur, _ := c.inner.Read()
	if cur.phase == set && cur.val != nil {
		return *cur.val, true
	}
	var zero T
	return zero, false
}

// GetOrSeal returns the value if present. If the cell is unset it seals it
// empty, so no later Set can succeed; ok reports whether a value was
// present. It fails with ErrConcurrentSet while a prepare is pending.
func (c *Cell[T]) GetOrSeal() (val T, ok bool, err error) {
	var out lifecycle[T]
	var fail error
	tryupdate.TryUpdate(c.inner, func(cur lifecycle[T]) tryupdate.Decision[lifecycle[T]] {
		fail = nil
		switch cur.phase {
		case unset:
			out = lifecycle[T]{phase: set}
			return tryupdate.Commit(out)
		case preparing:
			fail = ErrConcurrentSet
		default:
			out = cur
		}
		return tryupdate.Abort[lifecycle[T]]()
	})
	if fail != nil {
		var zero T
		return zero, false, fail
	}
	if out.val == nil {
		var zero T
		return zero, false, nil
	}
	return *out.val, true, nil
}

// GetOrPrepare returns the value if present. If the cell is unset it moves
// it to the preparing phase and reports ok=false, obligating the caller to
// call SetPrepared. A second prepare before SetPrepared fails with
// ErrConcurrentSet, which is how racing memoizers get noticed.
func (c *Cell[T]) GetOrPrepare() (val T, ok bool, err error) {
	var out lifecycle[T]
	var fail error
	tryupdate.TryUpdate(c.inner, func(cur lifecycle[T]) tryupdate.Decision[lifecycle[T]] {
		fail = nil
		switch cur.phase {
		case unset:
			out = lifecycle[T]{}
			return tryupdate.Commit(lifecycle[T]{phase: preparing})
		case preparing:
			fail = ErrConcurrentSet
		default:
			out = cur
		}
		return tryupdate.Abort[lifecycle[T]]()
	})
	if fail != nil {
		var zero T
		return zero, false, fail
	}
	if out.val == nil {
		var zero T
		return zero, false, nil
	}
	return *out.val, true, nil
}

// SetPrepared publishes val after a successful GetOrPrepare. It fails with
// ErrUnprepared if no prepare happened and ErrAlreadySet if a value is
// already present.
func (c *Cell[T]) SetPrepared(val T) error {
	ptr := &val
	var fail error
	tryupdate.TryUpdate(c.inner, func(cur lifecycle[T]) tryupdate.Decision[lifecycle[T]] {
		switch cur.phase {
		case preparing:
			fail = nil
			return tryupdate.Commit(lifecycle[T]{phase: set, val: ptr})
		case unset:
			fail = ErrUnprepared
		default:
			fail = ErrAlreadySet
		}
		return tryupdate.Abort[lifecycle[T]]()
	})
	return fail
}
