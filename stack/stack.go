// Package stack implements a lock-free stack on top of a single versioned
// cell holding the top-of-stack pointer.
//
// Nodes are immutable once linked: a node's value and next pointer never
// change after the push that created it commits. Pop reads through the
// observed top node, which is safe even when another pop races it away,
// because a racing commit replaces the cell's record and forces this pop's
// swap to fail and re-read. The classic ABA failure, where a node's address
// is recycled between the read and the swap, cannot occur here: the
// collector keeps a node alive for as long as any raced read still holds it,
// and the cell's generation orders the commits.
package stack

import (
	tryupdate "github.com/crystalcld/atomic-try-update"
)

type node[T any] struct {
	val  T
	next *node[T]
}

// Stack is a lock-free last-in-first-out stack.
type Stack[T any] struct {
	head *tryupdate.Cell[*node[T]]
}

// New returns an empty stack.
func New[T any]() *Stack[T] {
	return &Stack[T]{head: tryupdate.NewCell[*node[T]](nil)}
}

// Push adds val to the top of the stack. Push never aborts; only contention
// makes it retry.
func (s *Stack[T]) Push(val T) {
	n := &node[T]{val: val}
	tryupdate.TryUpdate(s.head, func(top *node[T]) tryupdate.Decision[*node[T]] {
		// n is invisible to other goroutines until the commit, so linking
		// it inside the transition is not a side effect.
		n.next = top
		return tryupdate.Commit(n)
	})
}

// Pop removes and returns the top value. It returns false when the stack is
// empty, which is the transition aborting rather than an error.
func (s *Stack[T]) Pop() (T, bool) {
	var val T
	out := tryupdate.TryUpdate(s.head, func(top *node[T]) tryupdate.Decision[*node[T]] {
		if top == nil {
			return tryupdate.Abort[*node[T]]()
		}
		val = top.val
		return tryupdate.Commit(top.next)
	})
	if _, ok := out.Committed(); !ok {
		var zero T
		return zero, false
	}
	return val, true
}

// PopAll removes every value in one commit and returns a drain over them in
// pop order, newest first. Draining the whole stack reads nothing but the
// cell itself, so it is the cheapest way to consume it under contention.
func (s *Stack[T]) PopAll() *Drain[T] {
	var head *node[T]
	tryupdate.TryUpdate(s.head, func(top *node[T]) tryupdate.Decision[*node[T]] {
		head = top
		return tryupdate.Commit[*node[T]](nil)
	})
	return &Drain[T]{node: head}
}

// Drain iterates over the nodes removed by PopAll. The drain owns its nodes
// exclusively.
type Drain[T any] struct {
	node *node[T]
}

// Next returns the next value, or false when the drain is exhausted.
func (d *Drain[T]) Next() (T, bool) {
	if d.node == nil {
		var zero T
		return zero, false
	}
	val := d.node.val
	d.node = d.node.next
	return val, true
}

// Reverse flips the drain into push order, oldest first.
func (d *Drain[T]) Reverse() *Drain[T] {
	var prev *node[T]
	n := d.node
	for n != nil {
		next := n.next
		n.next = prev
		prev = n
		n = next
	}
	d.node = prev
	return d
}
