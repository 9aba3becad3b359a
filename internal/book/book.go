package book

import (
	"disorderbook/internal/common"
	"disorderbook/internal/order"
)

// side selects which level list a price belongs to and how "improves on"
// is defined for it: strictly greater for bids, strictly less for asks
// (spec section 4.4, "outer comparison").
type Side struct {
	head *Level
	tail *Level

	// improves reports whether price is a strictly better resting price
	// than lvl.Price for this side.
	improves func(price, lvlPrice int64) bool
}

func newBidSide() *Side {
	return &Side{improves: func(price, lvlPrice int64) bool { return price > lvlPrice }}
}

func newAskSide() *Side {
	return &Side{improves: func(price, lvlPrice int64) bool { return price < lvlPrice }}
}

// Best returns the head level (best quote) of this side, or nil if empty.
func (s *Side) Best() *Level { return s.head }

// Levels returns the side's levels head-to-tail (best to worst).
func (s *Side) Levels() []*Level {
	var out []*Level
	for l := s.head; l != nil; l = l.next {
		out = append(out, l)
	}
	return out
}

// find locates the level at the given price, or nil if none exists.
func (s *Side) find(price int64) *Level {
	for l := s.head; l != nil; l = l.next {
		if l.Price == price {
			return l
		}
		// Levels are kept in strict priority order, so once we pass the
		// point where price would have improved on l we know it isn't here.
		if s.improves(price, l.Price) {
			return nil
		}
	}
	return nil
}

// insertBefore splices a new level holding price immediately before at
// (or at the tail, if at is nil), returning the new level.
func (s *Side) insertBefore(at *Level, price int64) *Level {
	lvl := &Level{Price: price}
	if at == nil {
		// Append at tail.
		lvl.prev = s.tail
		if s.tail != nil {
			s.tail.next = lvl
		} else {
			s.head = lvl
		}
		s.tail = lvl
		return lvl
	}
	lvl.prev = at.prev
	lvl.next = at
	if at.prev != nil {
		at.prev.next = lvl
	} else {
		s.head = lvl
	}
	at.prev = lvl
	return lvl
}

// insertResting walks the level list from the head (spec section 4.4),
// placing order o: splicing a new level when o's price improves on the
// level under inspection, appending to an existing level's FIFO on an
// exact price match, or advancing otherwise. Runs in O(distinct levels).
func (s *Side) insertResting(o *order.Order) {
	for l := s.head; l != nil; l = l.next {
		if o.Price == l.Price {
			l.appendOrder(o)
			return
		}
		if s.improves(o.Price, l.Price) {
			newLvl := s.insertBefore(l, o.Price)
			newLvl.appendOrder(o)
			return
		}
	}
	// Reached the end: splice a brand new level at the tail.
	newLvl := s.insertBefore(nil, o.Price)
	newLvl.appendOrder(o)
}

// removeLevel unlinks an (assumed empty) level from the list.
func (s *Side) removeLevel(l *Level) {
	if l.prev != nil {
		l.prev.next = l.next
	} else {
		s.head = l.next
	}
	if l.next != nil {
		l.next.prev = l.prev
	} else {
		s.tail = l.prev
	}
	l.prev = nil
	l.next = nil
}

// remove locates order o in level l's FIFO by a linear scan from the head,
// unlinks it, and frees l if it is now empty. Does nothing if o is not
// resting at l. Used by CANCEL (spec section 4.4).
func (s *Side) remove(l *Level, o *order.Order) {
	n := l.head
	for n != nil && n != o {
		n = n.Next
	}
	if n == nil {
		return
	}
	l.removeOrder(n)
	if l.empty() {
		s.removeLevel(l)
	}
}

// cleanupClosed scans this side from the head, freeing order nodes whose
// order has closed (Open == false) and the levels they leave empty,
// stopping at the first still-open order (spec section 4.4, "Post-run
// cleanup"). This is only ever applied to the side that was just matched
// against, by Engine.PlaceOrder immediately after Engine.runOrder finishes
// processing the incoming order.
func (s *Side) cleanupClosed() {
	for l := s.head; l != nil; {
		for o := l.head; o != nil && !o.Open; {
			next := o.Next
			l.removeOrder(o)
			o = next
		}
		if !l.empty() {
			// Surviving head found; spec requires its Prev (already nil,
			// since removeOrder clears it) and the level's own Prev to be
			// cleared.
			l.prev = nil
			s.head = l
			return
		}
		next := l.next
		s.removeLevel(l)
		l = next
	}
	// Side fully drained.
	s.head = nil
	s.tail = nil
}

// OrderBook holds both sides of a single symbol's book: bids
// (price-descending) and asks (price-ascending).
type OrderBook struct {
	Bids *Side
	Asks *Side
}

// New returns an empty order book.
func New() *OrderBook {
	return &OrderBook{Bids: newBidSide(), Asks: newAskSide()}
}

// sideFor returns the resting side for a direction: BUY orders rest as
// bids, SELL orders rest as asks.
func (b *OrderBook) sideFor(dir common.Direction) *Side {
	if dir == common.Buy {
		return b.Bids
	}
	return b.Asks
}

// OppositeSideFor returns the side an incoming order of direction dir
// matches against: a BUY walks the asks, a SELL walks the bids.
func (b *OrderBook) OppositeSideFor(dir common.Direction) *Side {
	if dir == common.Buy {
		return b.Asks
	}
	return b.Bids
}

// BestBid returns the head bid level, or nil.
func (b *OrderBook) BestBid() *Level { return b.Bids.Best() }

// BestAsk returns the head ask level, or nil.
func (b *OrderBook) BestAsk() *Level { return b.Asks.Best() }

// FindLevel locates the level at price on the side matching dir's resting
// side (BUY -> bids, SELL -> asks).
func (b *OrderBook) FindLevel(price int64, dir common.Direction) *Level {
	return b.sideFor(dir).find(price)
}

// InsertResting places a LIMIT order's residual onto its resting side.
func (b *OrderBook) InsertResting(o *order.Order, dir common.Direction) {
	b.sideFor(dir).insertResting(o)
}

// RemoveResting unlinks o (resting at level l on its own side) and frees
// the level if it empties, per CANCEL (spec section 4.4).
func (b *OrderBook) RemoveResting(l *Level, o *order.Order, dir common.Direction) {
	b.sideFor(dir).remove(l, o)
}

// CleanupClosed runs post-run cleanup (spec section 4.4) on the side that
// was just matched against.
func (s *Side) CleanupClosed() { s.cleanupClosed() }

// Head exposes the FIFO head-walk needed for FOK pre-check and matching.
func (s *Side) Head() *Level { return s.head }

// Next exposes level-list traversal for callers outside the package.
func (l *Level) Next() *Level { return l.next }
