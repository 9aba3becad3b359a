// Package book implements the price-ordered doubly-linked level list and
// the per-level order FIFO described in spec sections 3, 4.4 and 9. It is
// the non-trivial data structure of the whole engine: two independent
// sides, each a list of Levels, each Level a FIFO of resting Orders at one
// price.
package book

import "disorderbook/internal/order"

// Level is a single price point on one side of the book, holding the
// time-ordered FIFO of open orders resting there (head = oldest =
// highest priority) plus the level list's own prev/next pointers.
//
// A Level with an empty FIFO must not exist in the book; Side takes care
// of freeing it the moment its last order is removed.
type Level struct {
	Price int64

	head *order.Order
	tail *order.Order
	size int

	prev *Level
	next *Level
}

// Head is the oldest (highest-priority) order resting at this level.
func (l *Level) Head() *order.Order { return l.head }

// Orders returns the level's resting orders in FIFO (arrival) order. Used
// by read-only commands (ORDERBOOK, ORDERBOOK_BINARY, QUOTE); never used
// on a matching hot path.
func (l *Level) Orders() []*order.Order {
	out := make([]*order.Order, 0, l.size)
	for o := l.head; o != nil; o = o.Next {
		out = append(out, o)
	}
	return out
}

// Size is the number of orders resting at this level.
func (l *Level) Size() int { return l.size }

// appendOrder pushes o onto the tail of this level's FIFO.
func (l *Level) appendOrder(o *order.Order) {
	o.Prev = l.tail
	o.Next = nil
	if l.tail != nil {
		l.tail.Next = o
	} else {
		l.head = o
	}
	l.tail = o
	l.size++
}

// removeOrder unlinks o from this level's FIFO, repairing neighbour
// pointers on both sides.
func (l *Level) removeOrder(o *order.Order) {
	if o.Prev != nil {
		o.Prev.Next = o.Next
	} else {
		l.head = o.Next
	}
	if o.Next != nil {
		o.Next.Prev = o.Prev
	} else {
		l.tail = o.Prev
	}
	o.Prev = nil
	o.Next = nil
	l.size--
}

func (l *Level) empty() bool { return l.size == 0 }
