package engine

import (
	"disorderbook/internal/book"
	"disorderbook/internal/common"
)

// Quote is the data behind the QUOTE command (spec section 6). Bid/Ask/
// LastTrade/LastSize/Last are only meaningful when the matching HasBid /
// HasAsk / HasTraded flag is set — Go has no null int, so the dispatcher
// checks the flags to decide which JSON fields to emit.
type Quote struct {
	Symbol string
	Venue  string

	HasBid  bool
	Bid     int64
	BidSize int64
	BidDepth int64

	HasAsk  bool
	Ask     int64
	AskSize int64
	AskDepth int64

	HasTraded bool
	LastTrade string
	LastSize  int64
	Last      int64

	QuoteTime string
}

func saturatingAdd(a, b int64) int64 {
	sum := a + b
	if sum > common.Int32Max {
		return common.Int32Max
	}
	return sum
}

// Quote snapshots the current book state. Pure except for its QuoteTime
// field (spec section 8, "QUOTE is pure (modulo its quoteTime field)").
func (e *Engine) Quote() Quote {
	q := Quote{
		Symbol:    e.Symbol,
		Venue:     e.Venue,
		QuoteTime: e.Clock.Now(),
	}

	if bb := e.Book.BestBid(); bb != nil {
		q.HasBid = true
		q.Bid = bb.Price
		q.BidSize = levelQty(bb)
	}
	for lvl := e.Book.BestBid(); lvl != nil; lvl = lvl.Next() {
		q.BidDepth = saturatingAdd(q.BidDepth, levelQty(lvl))
	}

	if ba := e.Book.BestAsk(); ba != nil {
		q.HasAsk = true
		q.Ask = ba.Price
		q.AskSize = levelQty(ba)
	}
	for lvl := e.Book.BestAsk(); lvl != nil; lvl = lvl.Next() {
		q.AskDepth = saturatingAdd(q.AskDepth, levelQty(lvl))
	}

	if e.Market.HasTraded() {
		q.HasTraded = true
		q.LastTrade = e.Market.LastTradeTime
		q.LastSize = e.Market.LastSize
		q.Last = e.Market.LastPrice
	}

	return q
}

// levelQty saturating-sums the remaining quantity of every order resting
// at lvl (spec section 6: "bidSize is the sum of qty at the best bid
// level, saturating to 2^31-1").
func levelQty(lvl *book.Level) int64 {
	var total int64
	for _, o := range lvl.Orders() {
		total = saturatingAdd(total, o.RemainingQty)
	}
	return total
}
