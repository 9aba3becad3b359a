// Package order defines the Order and Fill records and the dense order
// registry that indexes them by id, per spec sections 3 and 4.3.
package order

import "disorderbook/internal/common"

// Fill is one trade event. Immutable once created; referenced by both
// participating orders' Fills slices.
type Fill struct {
	Price int64
	Qty   int64
	TS    string
}

// Order is a single resting or spent order. Orders are never destroyed:
// once registered they remain addressable by ID for the life of the
// process (spec section 3).
//
// Prev/Next are the intrusive doubly-linked FIFO pointers used while the
// order rests in a book Level; they are meaningless (nil) once the order
// closes and is unlinked. They live here, not in a separate node type,
// because the order record's lifetime already exceeds the node's need to
// exist (spec section 9) — wrapping it in a second allocation would only
// add an indirection with no new invariant. Cancellation locates an
// order's level by price/direction (spec section 4.4) rather than via a
// back-pointer, matching the reference implementation's O(FIFO length)
// scan.
type Order struct {
	ID           int64
	Direction    common.Direction
	Kind         common.Kind
	Price        int64
	OriginalQty  int64
	RemainingQty int64
	TotalFilled  int64
	AccountID    int64
	AccountName  string
	TS           string
	Open         bool
	Fills        []Fill

	Prev *Order
	Next *Order
}

// New constructs an order admitted onto the book. remaining_qty starts
// equal to original_qty; the order is open from the moment it exists.
func New(id int64, dir common.Direction, kind common.Kind, price, qty int64, accountID int64, accountName, ts string) *Order {
	return &Order{
		ID:           id,
		Direction:    dir,
		Kind:         kind,
		Price:        price,
		OriginalQty:  qty,
		RemainingQty: qty,
		AccountID:    accountID,
		AccountName:  accountName,
		TS:           ts,
		Open:         true,
	}
}

// AddFill appends a fill to this order's history and advances its
// remaining/total-filled counters. It does not flip Open; the caller
// decides that once it knows both sides' post-fill state (spec section
// 4.4, cross step 5).
func (o *Order) AddFill(f Fill) {
	o.Fills = append(o.Fills, f)
	o.RemainingQty -= f.Qty
	o.TotalFilled += f.Qty
}

// Registry is the dense, append-only array of orders indexed by ID,
// growing in blocks of common.OrderBlockSize (spec section 4.3).
type Registry struct {
	slots  []*Order
	nextID int64
}

// NewRegistry returns an empty registry. IDs start at zero.
func NewRegistry() *Registry {
	return &Registry{}
}

// NextID returns the next unused id, advancing the counter. Once the
// counter reaches common.MaxOrders it is returned without advancing again;
// the caller must treat repeated calls past that point as the
// too-many-orders condition.
func (r *Registry) NextID() int64 {
	if r.nextID >= common.MaxOrders {
		return r.nextID
	}
	id := r.nextID
	r.nextID++
	return id
}

// Register stores o at its ID, growing the backing slice in blocks.
func (r *Registry) Register(o *Order) {
	need := int(o.ID) + 1
	if need > len(r.slots) {
		blocks := (need + common.OrderBlockSize - 1) / common.OrderBlockSize
		grown := make([]*Order, blocks*common.OrderBlockSize)
		copy(grown, r.slots)
		r.slots = grown
	}
	r.slots[o.ID] = o
}

// Get returns the order at id, or nil if id is out of range or unregistered.
func (r *Registry) Get(id int64) *Order {
	if id < 0 || int(id) >= len(r.slots) {
		return nil
	}
	return r.slots[id]
}

// HighestKnownID returns the largest id ever registered, or -1 if none.
func (r *Registry) HighestKnownID() int64 {
	return r.nextID - 1
}
