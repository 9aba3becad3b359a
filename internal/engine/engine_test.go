package engine_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"disorderbook/internal/common"
	"disorderbook/internal/engine"
	"disorderbook/internal/ticker"
	"disorderbook/internal/timestamp"
)

// fixedClock returns a timestamp.Source that always reports the same
// instant, so fill/order timestamps don't need to be sanitized out of
// assertions the way the teacher's tests zero ExchTimestamp before
// comparing.
func fixedClock() timestamp.Source {
	t := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return timestamp.Source{Clock: func() time.Time { return t }}
}

func newTestEngine() *engine.Engine {
	return engine.New("TEST", "STK", fixedClock(), ticker.Discard{})
}

func TestPlaceOrder_SimpleCross(t *testing.T) {
	eng := newTestEngine()

	a, err := eng.PlaceOrder("A", 0, 100, 5000, common.Buy, common.Limit)
	require.NoError(t, err)
	b, err := eng.PlaceOrder("B", 1, 100, 5000, common.Sell, common.Limit)
	require.NoError(t, err)

	assert.False(t, a.Open)
	assert.False(t, b.Open)
	assert.EqualValues(t, 100, a.TotalFilled)
	assert.EqualValues(t, 100, b.TotalFilled)
	assert.Nil(t, eng.Book.BestBid())
	assert.Nil(t, eng.Book.BestAsk())

	acctA := eng.Accounts.Get(0)
	acctB := eng.Accounts.Get(1)
	assert.EqualValues(t, 100, acctA.Shares)
	assert.EqualValues(t, -500000, acctA.Cents)
	assert.EqualValues(t, -100, acctB.Shares)
	assert.EqualValues(t, 500000, acctB.Cents)

	assert.EqualValues(t, 5000, eng.Market.LastPrice)
	assert.EqualValues(t, 100, eng.Market.LastSize)
}

func TestPlaceOrder_PartialFillThenRest(t *testing.T) {
	eng := newTestEngine()

	a, err := eng.PlaceOrder("A", 0, 100, 5000, common.Buy, common.Limit)
	require.NoError(t, err)
	b, err := eng.PlaceOrder("B", 1, 40, 5000, common.Sell, common.Limit)
	require.NoError(t, err)

	assert.EqualValues(t, 60, a.RemainingQty)
	assert.True(t, a.Open)
	assert.EqualValues(t, 40, b.TotalFilled)
	assert.False(t, b.Open)

	bb := eng.Book.BestBid()
	require.NotNil(t, bb)
	assert.EqualValues(t, 5000, bb.Price)
	assert.EqualValues(t, 1, bb.Size())
}

func TestPlaceOrder_PriceTimePriority(t *testing.T) {
	eng := newTestEngine()

	a, err := eng.PlaceOrder("A", 0, 100, 5000, common.Buy, common.Limit)
	require.NoError(t, err)
	b, err := eng.PlaceOrder("B", 1, 50, 5000, common.Buy, common.Limit)
	require.NoError(t, err)
	c, err := eng.PlaceOrder("C", 2, 120, 5000, common.Sell, common.Limit)
	require.NoError(t, err)

	assert.EqualValues(t, 100, a.TotalFilled)
	assert.False(t, a.Open)
	assert.EqualValues(t, 20, b.TotalFilled)
	assert.EqualValues(t, 30, b.RemainingQty)
	assert.True(t, b.Open)
	assert.False(t, c.Open)
	assert.EqualValues(t, 120, c.TotalFilled)
}

func TestPlaceOrder_MarketSweep(t *testing.T) {
	eng := newTestEngine()

	_, err := eng.PlaceOrder("S1", 0, 50, 5000, common.Sell, common.Limit)
	require.NoError(t, err)
	_, err = eng.PlaceOrder("S2", 1, 50, 5100, common.Sell, common.Limit)
	require.NoError(t, err)

	x, err := eng.PlaceOrder("X", 2, 80, 0, common.Buy, common.Market)
	require.NoError(t, err)

	assert.False(t, x.Open)
	assert.EqualValues(t, 0, x.Price)
	require.Len(t, x.Fills, 2)
	assert.EqualValues(t, 5000, x.Fills[0].Price)
	assert.EqualValues(t, 50, x.Fills[0].Qty)
	assert.EqualValues(t, 5100, x.Fills[1].Price)
	assert.EqualValues(t, 30, x.Fills[1].Qty)

	ba := eng.Book.BestAsk()
	require.NotNil(t, ba)
	assert.EqualValues(t, 5100, ba.Price)
	assert.Nil(t, ba.Next())
	require.Len(t, ba.Orders(), 1)
	assert.EqualValues(t, 20, ba.Orders()[0].RemainingQty)
}

func TestPlaceOrder_FOKKill(t *testing.T) {
	eng := newTestEngine()

	_, err := eng.PlaceOrder("S", 0, 50, 5000, common.Sell, common.Limit)
	require.NoError(t, err)

	y, err := eng.PlaceOrder("Y", 1, 100, 5000, common.Buy, common.FOK)
	require.NoError(t, err)

	assert.False(t, y.Open)
	assert.EqualValues(t, 0, y.RemainingQty)
	assert.Empty(t, y.Fills)
	assert.EqualValues(t, -1, eng.Market.LastPrice)

	ba := eng.Book.BestAsk()
	require.NotNil(t, ba)
	assert.EqualValues(t, 50, ba.Orders()[0].RemainingQty)
}

func TestCancel_CollapsesLevel(t *testing.T) {
	eng := newTestEngine()

	o, err := eng.PlaceOrder("A", 0, 10, 100, common.Buy, common.Limit)
	require.NoError(t, err)
	require.NotNil(t, eng.Book.BestBid())

	cancelled, err := eng.Cancel(o.ID)
	require.NoError(t, err)
	assert.False(t, cancelled.Open)
	assert.EqualValues(t, 0, cancelled.RemainingQty)
	assert.Nil(t, eng.Book.BestBid())

	q := eng.Quote()
	assert.False(t, q.HasBid)
}

func TestCancel_NonLimitIsNoOp(t *testing.T) {
	eng := newTestEngine()

	_, err := eng.PlaceOrder("S", 0, 50, 5000, common.Sell, common.Limit)
	require.NoError(t, err)
	m, err := eng.PlaceOrder("M", 1, 10, 0, common.Buy, common.Market)
	require.NoError(t, err)

	before := eng.Book.BestAsk().Orders()[0].RemainingQty

	cancelled, err := eng.Cancel(m.ID)
	require.NoError(t, err)
	assert.False(t, cancelled.Open)

	after := eng.Book.BestAsk().Orders()[0].RemainingQty
	assert.Equal(t, before, after)
}

func TestPlaceOrder_AdmissionErrors(t *testing.T) {
	eng := newTestEngine()

	_, err := eng.PlaceOrder("A", 0, -5, 100, common.Buy, common.Limit)
	assert.ErrorIs(t, err, common.ErrSillyValue)

	_, err = eng.PlaceOrder("A", 0, 10, -1, common.Buy, common.Limit)
	assert.ErrorIs(t, err, common.ErrSillyValue)

	_, err = eng.PlaceOrder("A", 0, 10, 100, common.Direction(9), common.Limit)
	assert.ErrorIs(t, err, common.ErrSillyValue)

	_, err = eng.PlaceOrder("A", common.MaxAccounts, 10, 100, common.Buy, common.Limit)
	assert.ErrorIs(t, err, common.ErrAccountCap)

	// The account-cap rejection must not have consumed an order id: the
	// next valid order should still get id 0.
	ok, err := eng.PlaceOrder("A", 0, 10, 100, common.Buy, common.Limit)
	require.NoError(t, err)
	assert.EqualValues(t, 0, ok.ID)
}

func TestQuote_SizesAndDepths(t *testing.T) {
	eng := newTestEngine()

	_, err := eng.PlaceOrder("A", 0, 100, 99, common.Buy, common.Limit)
	require.NoError(t, err)
	_, err = eng.PlaceOrder("B", 1, 50, 99, common.Buy, common.Limit)
	require.NoError(t, err)
	_, err = eng.PlaceOrder("C", 2, 10, 98, common.Buy, common.Limit)
	require.NoError(t, err)

	q := eng.Quote()
	assert.True(t, q.HasBid)
	assert.EqualValues(t, 99, q.Bid)
	assert.EqualValues(t, 150, q.BidSize)
	assert.EqualValues(t, 160, q.BidDepth)
	assert.False(t, q.HasAsk)
	assert.False(t, q.HasTraded)
}
