// Package account implements the per-account position ledger: share
// count, cash balance and historical extrema, with the saturating 32-bit
// arithmetic spec section 4.2 requires.
package account

import "disorderbook/internal/common"

// Account tracks one trading account's position. Shares and Cents
// saturate at +/- common.Int32Max; PosMin/PosMax track the running
// extrema of Shares since the account was created.
type Account struct {
	ID      int64
	Name    string
	Orders  []int64 // order IDs, append-only, arrival order
	Shares  int64
	Cents   int64
	PosMin  int64
	PosMax  int64
}

// New creates a zeroed account record.
func New(id int64, name string) *Account {
	return &Account{ID: id, Name: name}
}

func clamp32(v int64) int64 {
	if v > common.Int32Max {
		return common.Int32Max
	}
	if v < common.Int32Min {
		return common.Int32Min
	}
	return v
}

// AttachOrder appends an order id to this account's order history.
// Growth is amortized by append; the spec's "blocks of 256" sizing
// concern is Go's own slice-growth heuristic's job, not ours to hand-roll.
func (a *Account) AttachOrder(orderID int64) {
	a.Orders = append(a.Orders, orderID)
}

// ApplyTrade updates Shares and Cents for one fill of qty at price on
// this account's side of the trade, with saturating arithmetic (spec
// section 4.2). A BUY increases Shares and decreases Cents; a SELL is
// the reverse.
func (a *Account) ApplyTrade(qty, price int64, dir common.Direction) {
	notional := price * qty // fits safely in int64 at this toy scale

	var shareDelta, cashDelta int64
	switch dir {
	case common.Buy:
		shareDelta = qty
		cashDelta = -notional
	case common.Sell:
		shareDelta = -qty
		cashDelta = notional
	}

	a.Shares = clamp32(a.Shares + shareDelta)
	a.Cents = clamp32(a.Cents + cashDelta)

	if a.Shares < a.PosMin {
		a.PosMin = a.Shares
	}
	if a.Shares > a.PosMax {
		a.PosMax = a.Shares
	}
}

// NAV is the account's net asset value at the given last trade price:
// shares * lastPrice + cents, computed with 64-bit intermediates and the
// same saturating rule as ApplyTrade (spec section 4.2).
func (a *Account) NAV(lastPrice int64) int64 {
	if lastPrice < 0 {
		lastPrice = 0
	}
	return clamp32(a.Shares*lastPrice + a.Cents)
}
