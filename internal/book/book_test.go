package book

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"disorderbook/internal/common"
	"disorderbook/internal/order"
)

func mkOrder(id, price, qty int64, dir common.Direction) *order.Order {
	return order.New(id, dir, common.Limit, price, qty, 0, "acct", "ts")
}

func TestBidSide_InsertResting_PriceDescending(t *testing.T) {
	ob := New()

	ob.InsertResting(mkOrder(1, 100, 10, common.Buy), common.Buy)
	ob.InsertResting(mkOrder(2, 102, 10, common.Buy), common.Buy)
	ob.InsertResting(mkOrder(3, 101, 10, common.Buy), common.Buy)

	var prices []int64
	for l := ob.BestBid(); l != nil; l = l.Next() {
		prices = append(prices, l.Price)
	}
	assert.Equal(t, []int64{102, 101, 100}, prices)
}

func TestAskSide_InsertResting_PriceAscending(t *testing.T) {
	ob := New()

	ob.InsertResting(mkOrder(1, 100, 10, common.Sell), common.Sell)
	ob.InsertResting(mkOrder(2, 98, 10, common.Sell), common.Sell)
	ob.InsertResting(mkOrder(3, 99, 10, common.Sell), common.Sell)

	var prices []int64
	for l := ob.BestAsk(); l != nil; l = l.Next() {
		prices = append(prices, l.Price)
	}
	assert.Equal(t, []int64{98, 99, 100}, prices)
}

func TestInsertResting_SamePriceAppendsFIFO(t *testing.T) {
	ob := New()

	a := mkOrder(1, 100, 10, common.Buy)
	b := mkOrder(2, 100, 5, common.Buy)
	ob.InsertResting(a, common.Buy)
	ob.InsertResting(b, common.Buy)

	lvl := ob.BestBid()
	require.NotNil(t, lvl)
	assert.Equal(t, 2, lvl.Size())
	orders := lvl.Orders()
	assert.Equal(t, a.ID, orders[0].ID)
	assert.Equal(t, b.ID, orders[1].ID)
}

func TestFindLevel(t *testing.T) {
	ob := New()
	ob.InsertResting(mkOrder(1, 100, 10, common.Buy), common.Buy)

	lvl := ob.FindLevel(100, common.Buy)
	require.NotNil(t, lvl)
	assert.EqualValues(t, 100, lvl.Price)

	assert.Nil(t, ob.FindLevel(99, common.Buy))
}

func TestRemoveResting_CollapsesEmptyLevel(t *testing.T) {
	ob := New()
	o := mkOrder(1, 100, 10, common.Buy)
	ob.InsertResting(o, common.Buy)

	lvl := ob.FindLevel(100, common.Buy)
	require.NotNil(t, lvl)
	ob.RemoveResting(lvl, o, common.Buy)

	assert.Nil(t, ob.BestBid())
}

func TestRemoveResting_LeavesSiblingsIntact(t *testing.T) {
	ob := New()
	a := mkOrder(1, 100, 10, common.Buy)
	b := mkOrder(2, 100, 5, common.Buy)
	ob.InsertResting(a, common.Buy)
	ob.InsertResting(b, common.Buy)

	lvl := ob.FindLevel(100, common.Buy)
	ob.RemoveResting(lvl, a, common.Buy)

	require.NotNil(t, ob.BestBid())
	assert.Equal(t, 1, ob.BestBid().Size())
	assert.Equal(t, b.ID, ob.BestBid().Head().ID)
}

func TestCleanupClosed_StopsAtFirstOpenOrder(t *testing.T) {
	ob := New()
	a := mkOrder(1, 100, 10, common.Sell)
	b := mkOrder(2, 100, 10, common.Sell)
	c := mkOrder(3, 101, 10, common.Sell)
	ob.InsertResting(a, common.Sell)
	ob.InsertResting(b, common.Sell)
	ob.InsertResting(c, common.Sell)

	a.Open = false
	ob.Asks.CleanupClosed()

	require.NotNil(t, ob.BestAsk())
	assert.EqualValues(t, 100, ob.BestAsk().Price)
	assert.Equal(t, b.ID, ob.BestAsk().Head().ID)
	assert.Nil(t, b.Prev)
}

func TestCleanupClosed_DrainsWholeSide(t *testing.T) {
	ob := New()
	a := mkOrder(1, 100, 10, common.Sell)
	ob.InsertResting(a, common.Sell)
	a.Open = false

	ob.Asks.CleanupClosed()
	assert.Nil(t, ob.BestAsk())
}
