package tryupdate

import "sync/atomic"

// versioned is the record a Cell publishes: a payload together with the
// generation that produced it. Records are immutable once stored, so a
// loaded record is always a consistent snapshot of both halves.
type versioned[T any] struct {
	payload    T
	generation uint64
}

// Cell is a single atomically updatable location holding a payload of type T
// and a generation counter. All mutation goes through TryUpdate; there is no
// other write path.
//
// Each Cell is an independent unit with no hidden shared state. The intended
// deployment is many low-contention cells, not one hot singleton; provision
// a cell per independent piece of state.
//
// Go has no portable double-word compare-and-swap, so the cell stores a
// single-word pointer to an immutable versioned record and swaps the
// pointer. Every commit installs a freshly allocated record, and the
// collector cannot reuse a record's memory while any reader still holds it,
// which rules out ABA on the pointer itself. The generation counter is
// carried anyway so that observers can order commits and detect reuse across
// reads.
type Cell[T any] struct {
	inner atomic.Pointer[versioned[T]]
}

// NewCell returns a cell holding initial at generation zero.
func NewCell[T any](initial T) *Cell[T] {
	c := &Cell[T]{}
	c.inner.Store(&versioned[T]{payload: initial})
	return c
}

// Read returns a snapshot of the payload and the generation that wrote it.
// The two halves are never torn: they are always observed exactly as some
// successful commit jointly wrote them.
func (c *Cell[T]) Read() (T, uint64) {
	v := c.inner.Load()
	return v.payload, v.generation
}

func (c *Cell[T]) load() *versioned[T] {
	return c.inner.Load()
}

func (c *Cell[T]) compareAndSwap(old, new *versioned[T]) bool {
	return c.inner.CompareAndSwap(old, new)
}
