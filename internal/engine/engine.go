// Package engine is the matcher / state machine: it owns the order book,
// the order and account registries and the global market state, and
// implements the order lifecycle and the four order-type semantics of
// spec section 4.4.
package engine

import (
	"disorderbook/internal/account"
	"disorderbook/internal/book"
	"disorderbook/internal/common"
	ord "disorderbook/internal/order"
	"disorderbook/internal/ticker"
	"disorderbook/internal/timestamp"
)

// Engine ties every component together for one venue/symbol pair. It is
// not safe for concurrent use — the whole design relies on strictly
// sequential command processing (spec section 5).
type Engine struct {
	Venue  string
	Symbol string

	Orders   *ord.Registry
	Accounts *account.Registry
	Book     *book.OrderBook
	Market   Market

	Clock  timestamp.Source
	Ticker ticker.Sink

	// pendingTicker holds events produced by the command currently being
	// processed. They are queued here rather than published straight to
	// Ticker so the dispatcher can flush them only after it has written
	// the command's primary response — spec section 5 requires ticker
	// messages to be observably ordered after that response, not before.
	pendingTicker []ticker.Event
}

// New constructs an empty engine for one venue/symbol.
func New(venue, symbol string, clock timestamp.Source, sink ticker.Sink) *Engine {
	if sink == nil {
		sink = ticker.Discard{}
	}
	return &Engine{
		Venue:    venue,
		Symbol:   symbol,
		Orders:   ord.NewRegistry(),
		Accounts: account.NewRegistry(),
		Book:     book.New(),
		Market:   NewMarket(),
		Clock:    clock,
		Ticker:   sink,
	}
}

// queueTicker defers ev for FlushTicker rather than publishing it
// immediately; see the pendingTicker field comment.
func (e *Engine) queueTicker(ev ticker.Event) {
	e.pendingTicker = append(e.pendingTicker, ev)
}

// FlushTicker publishes every ticker event queued by the command just
// processed, in the order they were produced, and clears the queue. The
// dispatcher calls this once it has written the command's primary
// response, so ticker messages are always observably ordered after it
// (spec section 5).
func (e *Engine) FlushTicker() {
	for _, ev := range e.pendingTicker {
		e.Ticker.Publish(ev)
	}
	e.pendingTicker = e.pendingTicker[:0]
}

func validKind(k common.Kind) bool {
	switch k {
	case common.Limit, common.Market, common.FOK, common.IOC:
		return true
	default:
		return false
	}
}

// PlaceOrder admits, matches and (for LIMIT residuals) rests a new order,
// per the order lifecycle of spec sections 4.4 and 4.5's ORDER command.
// Validation failures return before any order-registry or book mutation
// and are one of common.ErrSillyValue, common.ErrTooManyOrders or
// common.ErrAccountCap — the caller maps these to the wire error codes.
// The account is looked up (and created if new) before the
// too-many-orders check, so that rejection can leave a new, empty account
// in the account registry.
func (e *Engine) PlaceOrder(accountName string, accountID, qty, price int64, dir common.Direction, kind common.Kind) (*ord.Order, error) {
	if price < 0 || qty <= 0 || (dir != common.Buy && dir != common.Sell) || !validKind(kind) {
		return nil, common.ErrSillyValue
	}

	acct, err := e.Accounts.LookupOrCreate(accountID, accountName)
	if err != nil {
		return nil, err
	}

	id := e.Orders.NextID()
	if id >= common.MaxOrders {
		return nil, common.ErrTooManyOrders
	}

	o := ord.New(id, dir, kind, price, qty, accountID, acct.Name, e.Clock.Now())
	e.Orders.Register(o)
	acct.AttachOrder(o.ID)

	ran := false
	if kind == common.FOK {
		var feasible bool
		if dir == common.Buy {
			feasible = e.fokCanBuy(qty, price)
		} else {
			feasible = e.fokCanSell(qty, price)
		}
		if feasible {
			e.runOrder(o)
			ran = true
		} else {
			o.Open = false
			o.RemainingQty = 0
		}
	} else {
		e.runOrder(o)
		ran = true
	}

	if ran {
		e.Book.OppositeSideFor(dir).CleanupClosed()
	}

	if kind == common.Market {
		o.Price = 0
	}

	if o.Open {
		if kind == common.Limit {
			e.Book.InsertResting(o, dir)
		} else {
			o.RemainingQty = 0
			o.Open = false
		}
	}

	return o, nil
}

// priceCompatible reports whether a resting level at levelPrice may trade
// against an incoming LIMIT/IOC/FOK order: a buy can only take asks at or
// below its limit, a sell only bids at or above its limit (spec section
// 4.4).
func priceCompatible(dir common.Direction, limit, levelPrice int64) bool {
	if dir == common.Buy {
		return levelPrice <= limit
	}
	return levelPrice >= limit
}

// runOrder walks the opposite side head-to-tail, crossing the incoming
// order against resting orders until it is filled or the opposite side
// (or its price-compatible prefix) is exhausted. Matched resting orders
// are not unlinked from the book here — only marked closed; the caller
// runs post-run cleanup once the whole incoming order has been processed
// (spec section 4.4, "Matching" and "Post-run cleanup").
func (e *Engine) runOrder(incoming *ord.Order) {
	opp := e.Book.OppositeSideFor(incoming.Direction)
	for lvl := opp.Head(); lvl != nil && incoming.RemainingQty > 0; lvl = lvl.Next() {
		if incoming.Kind != common.Market && !priceCompatible(incoming.Direction, incoming.Price, lvl.Price) {
			break
		}
		for resting := lvl.Head(); resting != nil && incoming.RemainingQty > 0; resting = resting.Next {
			if !resting.Open || resting.RemainingQty == 0 {
				continue
			}
			e.cross(resting, incoming)
		}
	}
}

// cross matches resting against incoming at resting's price (the maker's
// price, always — spec section 4.4), updating both orders' fill history,
// both accounts' positions, and the global market state.
func (e *Engine) cross(resting, incoming *ord.Order) {
	qty := resting.RemainingQty
	if incoming.RemainingQty < qty {
		qty = incoming.RemainingQty
	}
	price := resting.Price
	ts := e.Clock.Now()

	fill := ord.Fill{Price: price, Qty: qty, TS: ts}
	resting.AddFill(fill)
	incoming.AddFill(fill)

	e.Market.LastTradeTime = ts
	e.Market.LastPrice = price
	e.Market.LastSize = qty

	if restingAcct := e.Accounts.Get(resting.AccountID); restingAcct != nil {
		restingAcct.ApplyTrade(qty, price, resting.Direction)
	}
	if incomingAcct := e.Accounts.Get(incoming.AccountID); incomingAcct != nil {
		incomingAcct.ApplyTrade(qty, price, incoming.Direction)
	}

	e.queueTicker(ticker.Event{Type: "trade", Symbol: e.Symbol, Price: price, Qty: qty, TS: ts})

	if resting.RemainingQty == 0 {
		resting.Open = false
	}
	if incoming.RemainingQty == 0 {
		incoming.Open = false
	}
}

// fokCanBuy walks the asks, subtracting resting quantity at each
// price-compatible level from a running target until it would reach zero
// or below (spec section 4.4, "FOK pre-check"). Subtraction only, to
// avoid any risk of the running target overflowing via addition.
func (e *Engine) fokCanBuy(qty, limit int64) bool {
	target := qty
	for lvl := e.Book.Asks.Head(); lvl != nil; lvl = lvl.Next() {
		if lvl.Price > limit {
			break
		}
		for o := lvl.Head(); o != nil; o = o.Next {
			target -= o.RemainingQty
			if target <= 0 {
				return true
			}
		}
	}
	return false
}

// fokCanSell is fokCanBuy's mirror image over the bid side.
func (e *Engine) fokCanSell(qty, limit int64) bool {
	target := qty
	for lvl := e.Book.Bids.Head(); lvl != nil; lvl = lvl.Next() {
		if lvl.Price < limit {
			break
		}
		for o := lvl.Head(); o != nil; o = o.Next {
			target -= o.RemainingQty
			if target <= 0 {
				return true
			}
		}
	}
	return false
}

// Cancel removes a resting LIMIT order from the book. Canceling any other
// kind, or an already-closed order, is a no-op that returns the order
// unchanged (spec section 4.4, "Cancellation").
func (e *Engine) Cancel(id int64) (*ord.Order, error) {
	o := e.Orders.Get(id)
	if o == nil {
		return nil, common.ErrNoSuchID
	}
	if o.Kind != common.Limit || !o.Open {
		return o, nil
	}

	lvl := e.Book.FindLevel(o.Price, o.Direction)
	if lvl != nil {
		e.Book.RemoveResting(lvl, o, o.Direction)
	}
	o.Open = false
	o.RemainingQty = 0

	e.queueTicker(ticker.Event{Type: "cancel", Symbol: e.Symbol, OrderID: o.ID, TS: e.Clock.Now()})
	return o, nil
}

// Status returns the order at id, or common.ErrNoSuchID.
func (e *Engine) Status(id int64) (*ord.Order, error) {
	o := e.Orders.Get(id)
	if o == nil {
		return nil, common.ErrNoSuchID
	}
	return o, nil
}

// StatusAll returns every order ever placed by account id, in arrival
// order, or common.ErrUnknownAccount if the account has never been seen.
func (e *Engine) StatusAll(accountID int64) ([]*ord.Order, error) {
	acct := e.Accounts.Get(accountID)
	if acct == nil {
		return nil, common.ErrUnknownAccount
	}
	out := make([]*ord.Order, 0, len(acct.Orders))
	for _, id := range acct.Orders {
		if o := e.Orders.Get(id); o != nil {
			out = append(out, o)
		}
	}
	return out, nil
}

// AccountName returns the name on file for account id, or false if it has
// never been seen (the __ACC_FROM_ID__ command, spec section 6).
func (e *Engine) AccountName(accountID int64) (string, bool) {
	acct := e.Accounts.Get(accountID)
	if acct == nil {
		return "", false
	}
	return acct.Name, true
}
