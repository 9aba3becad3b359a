package protocol

import (
	"disorderbook/internal/account"
	"disorderbook/internal/engine"
	ord "disorderbook/internal/order"
)

// fillJSON is one entry of an orderJSON's fills array.
type fillJSON struct {
	Price int64  `json:"price"`
	Qty   int64  `json:"qty"`
	TS    string `json:"ts"`
}

// orderJSON is the Order JSON object of spec section 6. Field order
// matches the reference engine's print_order exactly.
type orderJSON struct {
	OK            bool       `json:"ok"`
	Venue         string     `json:"venue"`
	Symbol        string     `json:"symbol"`
	Direction     string     `json:"direction"`
	OriginalQty   int64      `json:"originalQty"`
	Qty           int64      `json:"qty"`
	Price         int64      `json:"price"`
	OrderType     string     `json:"orderType"`
	ID            int64      `json:"id"`
	Account       string     `json:"account"`
	TS            string     `json:"ts"`
	TotalFilled   int64      `json:"totalFilled"`
	Open          bool       `json:"open"`
	Fills         []fillJSON `json:"fills"`
}

func toOrderJSON(venue, symbol string, o *ord.Order) orderJSON {
	fills := make([]fillJSON, len(o.Fills))
	for i, f := range o.Fills {
		fills[i] = fillJSON{Price: f.Price, Qty: f.Qty, TS: f.TS}
	}
	return orderJSON{
		OK:          true,
		Venue:       venue,
		Symbol:      symbol,
		Direction:   o.Direction.String(),
		OriginalQty: o.OriginalQty,
		Qty:         o.RemainingQty,
		Price:       o.Price,
		OrderType:   o.Kind.String(),
		ID:          o.ID,
		Account:     o.AccountName,
		TS:          o.TS,
		TotalFilled: o.TotalFilled,
		Open:        o.Open,
		Fills:       fills,
	}
}

// errJSON is the shape of every error response (spec section 7).
type errJSON struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

func errorResponse(msg string) errJSON {
	return errJSON{OK: false, Error: msg}
}

// quoteJSON is the Quote JSON object of spec section 6. Optional fields
// use pointers so that omitempty drops them entirely when the underlying
// condition (a resting bid/ask, any trade ever) doesn't hold.
type quoteJSON struct {
	OK        bool    `json:"ok"`
	Symbol    string  `json:"symbol"`
	Venue     string  `json:"venue"`
	Bid       *int64  `json:"bid,omitempty"`
	BidSize   int64   `json:"bidSize"`
	BidDepth  int64   `json:"bidDepth"`
	Ask       *int64  `json:"ask,omitempty"`
	AskSize   int64   `json:"askSize"`
	AskDepth  int64   `json:"askDepth"`
	LastTrade *string `json:"lastTrade,omitempty"`
	LastSize  *int64  `json:"lastSize,omitempty"`
	Last      *int64  `json:"last,omitempty"`
	QuoteTime string  `json:"quoteTime"`
}

func toQuoteJSON(q engine.Quote) quoteJSON {
	out := quoteJSON{
		OK:        true,
		Symbol:    q.Symbol,
		Venue:     q.Venue,
		BidSize:   q.BidSize,
		BidDepth:  q.BidDepth,
		AskSize:   q.AskSize,
		AskDepth:  q.AskDepth,
		QuoteTime: q.QuoteTime,
	}
	if q.HasBid {
		bid := q.Bid
		out.Bid = &bid
	}
	if q.HasAsk {
		ask := q.Ask
		out.Ask = &ask
	}
	if q.HasTraded {
		lt := q.LastTrade
		ls := q.LastSize
		last := q.Last
		out.LastTrade = &lt
		out.LastSize = &ls
		out.Last = &last
	}
	return out
}

// orderbookLevelJSON is one resting order as reported by the textual
// ORDERBOOK command (distinct from ORDERBOOK_BINARY).
type orderbookLevelJSON struct {
	Price int64 `json:"price"`
	Qty   int64 `json:"qty"`
	IsBuy bool  `json:"isBuy"`
}

// orderbookJSON is the ORDERBOOK response: asks first, then bids, each in
// level/FIFO traversal order, matching the reference engine exactly.
type orderbookJSON struct {
	OK     bool                  `json:"ok"`
	Venue  string                `json:"venue"`
	Symbol string                `json:"symbol"`
	TS     string                `json:"ts"`
	Asks   []orderbookLevelJSON  `json:"asks"`
	Bids   []orderbookLevelJSON  `json:"bids"`
}

// statusAllJSON is the STATUSALL response.
type statusAllJSON struct {
	OK     bool        `json:"ok"`
	Venue  string      `json:"venue"`
	Orders []orderJSON `json:"orders"`
}

// debugMemoryJSON is the __DEBUG_MEMORY__ response: simple allocation
// counters, since this project tracks no real heap statistics beyond
// "how many of each long-lived record type exist".
type debugMemoryJSON struct {
	OK       bool  `json:"ok"`
	Orders   int64 `json:"orders"`
	Accounts int64 `json:"accounts"`
	Fills    int64 `json:"fills"`
}

func countFills(accts []*account.Account, orders func(int64) *ord.Order) int64 {
	var total int64
	for _, a := range accts {
		for _, id := range a.Orders {
			if o := orders(id); o != nil {
				total += int64(len(o.Fills))
			}
		}
	}
	// Every fill is referenced by two orders; report distinct trades.
	return total / 2
}
