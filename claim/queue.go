package claim

import (
	tryupdate "github.com/crystalcld/atomic-try-update"
)

type node[T any] struct {
	val  T
	next *node[T]
}

// state is the whole queue, observed and replaced as one payload: the list
// of pending items, the running weight of everything ever pushed, and the
// claim bit. The invariant is that a non-empty queue is always claimed by
// someone, so the claim only changes hands through Push and Drain.
type state[T any] struct {
	head    *node[T]
	count   uint64
	claimed bool
}

// Queue is a multi-producer claim queue. Any number of goroutines push; the
// push that finds the queue unclaimed becomes responsible for draining it,
// and every item is drained by exactly one goroutine.
//
// Each pushed item carries a weight, and Offset exposes the running total.
// Pushers learn the total as of their own push, which makes the queue useful
// for assigning file or log offsets to concurrent appends: offsets are
// handed out in the same order the drain observes the items.
type Queue[T any] struct {
	head *tryupdate.Cell[state[T]]
}

// NewQueue returns an empty, unclaimed queue.
func NewQueue[T any]() *Queue[T] {
	return &Queue[T]{head: tryupdate.NewCell(state[T]{})}
}

// Push appends val with the given weight. It returns the running weight
// before this push, and whether the caller now holds the claim. A caller
// that receives claimed=true must loop calling Drain until Drain reports
// the claim released.
func (q *Queue[T]) Push(val T, weight uint64) (offset uint64, claimed bool) {
	n := &node[T]{val: val}
	tryupdate.TryUpdate(q.head, func(cur state[T]) tryupdate.Decision[state[T]] {
		n.next = cur.head
		offset = cur.count
		claimed = !cur.claimed
		return tryupdate.Commit(state[T]{
			head:    n,
			count:   cur.count + weight,
			claimed: true,
		})
	})
	return offset, claimed
}

// Drain atomically removes everything from the queue and returns it as a
// batch in push order. If the queue turned out to be empty, Drain releases
// the claim and returns stillClaimed=false; otherwise the caller still holds
// the claim and must call Drain again after consuming the batch.
//
// Only the claim holder may call Drain. Calling it without the claim is a
// protocol bug and panics.
func (q *Queue[T]) Drain() (batch *Batch[T], stillClaimed bool) {
	var head *node[T]
	var hadClaim bool
	tryupdate.TryUpdate(q.head, func(cur state[T]) tryupdate.Decision[state[T]] {
		head = cur.head
		hadClaim = cur.claimed
		return tryupdate.Commit(state[T]{
			head:    nil,
			count:   cur.count,
			claimed: cur.head != nil,
		})
	})
	if !hadClaim {
		panic("claim: Drain called without holding the claim")
	}
	return &Batch[T]{node: reverse(head)}, head != nil
}

// Offset returns the running weight of everything pushed so far.
func (q *Queue[T]) Offset() uint64 {
	s, _ := q.head.Read()
	return s.count
}

// Batch iterates over one drained chunk of the queue in push order. The
// drain owns its nodes exclusively, so iteration needs no synchronization.
type Batch[T any] struct {
	node *node[T]
}

// Next returns the next item, or false when the batch is exhausted.
func (b *Batch[T]) Next() (T, bool) {
	if b.node == nil {
		var zero T
		return zero, false
	}
	val := b.node.val
	b.node = b.node.next
	return val, true
}

// reverse flips a privately owned list from stack order into push order.
func reverse[T any](n *node[T]) *node[T] {
	var prev *node[T]
	for n != nil {
		next := n.next
		n.next = prev
		prev = n
		n = next
	}
	return prev
}
