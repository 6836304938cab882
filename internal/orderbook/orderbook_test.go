package orderbook

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketforge/simex/internal/market"
)

func limit(id uint64, side market.Side, price float64, qty uint32) market.Order {
	return market.Order{
		ID:         id,
		Instrument: "ETH-USD",
		Type:       market.OrderTypeLimit,
		Side:       side,
		Price:      price,
		Quantity:   qty,
		Timestamp:  int64(id) * 10,
	}
}

func mkt(id uint64, side market.Side, qty uint32) market.Order {
	return market.Order{
		ID:         id,
		Instrument: "ETH-USD",
		Type:       market.OrderTypeMarket,
		Side:       side,
		Quantity:   qty,
		Timestamp:  int64(id) * 10,
	}
}

func TestSimpleCross(t *testing.T) {
	b := New("ETH-USD", nil)

	trades := b.AddOrder(limit(1, market.SideSell, 100.0, 2))
	require.Empty(t, trades)

	trades = b.AddOrder(limit(2, market.SideBuy, 101.0, 1))
	require.Len(t, trades, 1)
	assert.Equal(t, 100.0, trades[0].Price)
	assert.Equal(t, uint32(1), trades[0].Quantity)
	assert.Equal(t, uint64(2), trades[0].BuyOrderID)
	assert.Equal(t, uint64(1), trades[0].SellOrderID)
	assert.Equal(t, market.SideBuy, trades[0].Side)

	ask, ok := b.BestAsk()
	require.True(t, ok)
	assert.Equal(t, 100.0, ask.Price)
	assert.Equal(t, uint32(1), ask.Quantity)

	_, ok = b.BestBid()
	assert.False(t, ok, "aggressor was fully filled, nothing should rest")
}

func TestNoCross(t *testing.T) {
	b := New("BTC-USD", nil)

	require.Empty(t, b.AddOrder(limit(1, market.SideBuy, 29900, 1)))
	require.Empty(t, b.AddOrder(limit(2, market.SideSell, 30100, 1)))

	bid, ok := b.BestBid()
	require.True(t, ok)
	ask, ok := b.BestAsk()
	require.True(t, ok)
	assert.Less(t, bid.Price, ask.Price)
}

func TestMarketOrderSweep(t *testing.T) {
	b := New("ETH-USD", nil)

	b.AddOrder(limit(1, market.SideSell, 100, 1))
	b.AddOrder(limit(2, market.SideSell, 101, 2))

	trades := b.AddOrder(mkt(3, market.SideBuy, 3))
	require.Len(t, trades, 2)
	assert.Equal(t, 100.0, trades[0].Price)
	assert.Equal(t, uint32(1), trades[0].Quantity)
	assert.Equal(t, 101.0, trades[1].Price)
	assert.Equal(t, uint32(2), trades[1].Quantity)

	_, ok := b.BestAsk()
	assert.False(t, ok, "asks should be swept")
	assert.Empty(t, b.Orders())
}

func TestMarketOrderRemainderDropped(t *testing.T) {
	b := New("ETH-USD", nil)

	b.AddOrder(limit(1, market.SideSell, 100, 1))
	trades := b.AddOrder(mkt(2, market.SideBuy, 5))
	require.Len(t, trades, 1)
	assert.Equal(t, uint32(1), trades[0].Quantity)

	// the unfilled remainder must not rest
	assert.Empty(t, b.Orders())
	_, ok := b.BestBid()
	assert.False(t, ok)
}

func TestCancelIdempotence(t *testing.T) {
	b := New("ETH-USD", nil)

	b.AddOrder(limit(7, market.SideBuy, 50, 5))
	assert.True(t, b.CancelOrder(7))
	assert.Empty(t, b.Orders())
	_, ok := b.BestBid()
	assert.False(t, ok)

	assert.False(t, b.CancelOrder(7))
	assert.Empty(t, b.Orders())
}

func TestCancelUnknownID(t *testing.T) {
	b := New("ETH-USD", nil)
	assert.False(t, b.CancelOrder(42))
}

func TestPriceTimePriority(t *testing.T) {
	b := New("ETH-USD", nil)

	// A rests before B at the same price; A must fill first.
	b.AddOrder(limit(1, market.SideSell, 100, 1))
	b.AddOrder(limit(2, market.SideSell, 100, 1))

	trades := b.AddOrder(mkt(3, market.SideBuy, 1))
	require.Len(t, trades, 1)
	assert.Equal(t, uint64(1), trades[0].SellOrderID)

	trades = b.AddOrder(mkt(4, market.SideBuy, 1))
	require.Len(t, trades, 1)
	assert.Equal(t, uint64(2), trades[0].SellOrderID)
}

func TestSellSweepsBidsFIFOAndRestsResidual(t *testing.T) {
	b := New("ETH-USD", nil)

	b.AddOrder(limit(1, market.SideBuy, 100, 1))
	b.AddOrder(limit(2, market.SideBuy, 100, 1))

	// A sell for more than the level holds fills both bids in arrival order
	// (FIFO), then its residual rests on the ask side.
	trades := b.AddOrder(limit(3, market.SideSell, 100, 3))
	require.Len(t, trades, 2)
	assert.Equal(t, uint64(1), trades[0].BuyOrderID)
	assert.Equal(t, uint64(2), trades[1].BuyOrderID)

	ask, ok := b.BestAsk()
	require.True(t, ok)
	assert.Equal(t, uint32(1), ask.Quantity, "sell residual should rest")
}

func TestPriceImprovement(t *testing.T) {
	b := New("ETH-USD", nil)

	b.AddOrder(limit(1, market.SideSell, 99, 1))
	trades := b.AddOrder(limit(2, market.SideBuy, 105, 1))
	require.Len(t, trades, 1)
	// aggressor pays the resting price, never its own limit
	assert.Equal(t, 99.0, trades[0].Price)
}

func TestLimitStopsAtOwnPrice(t *testing.T) {
	b := New("ETH-USD", nil)

	b.AddOrder(limit(1, market.SideSell, 100, 1))
	b.AddOrder(limit(2, market.SideSell, 103, 1))

	trades := b.AddOrder(limit(3, market.SideBuy, 101, 3))
	require.Len(t, trades, 1)
	assert.Equal(t, 100.0, trades[0].Price)

	// residual rests and the book is uncrossed
	bid, ok := b.BestBid()
	require.True(t, ok)
	ask, ok := b.BestAsk()
	require.True(t, ok)
	assert.Less(t, bid.Price, ask.Price)
	assert.Equal(t, uint32(2), bid.Quantity)
}

func TestConservation(t *testing.T) {
	b := New("ETH-USD", nil)

	b.AddOrder(limit(1, market.SideSell, 100, 4))
	b.AddOrder(limit(2, market.SideSell, 101, 4))

	incoming := limit(3, market.SideBuy, 102, 10)
	trades := b.AddOrder(incoming)

	var filled uint32
	for _, tr := range trades {
		filled += tr.Quantity
	}
	bid, ok := b.BestBid()
	require.True(t, ok)
	assert.Equal(t, incoming.Quantity, filled+bid.Quantity)
}

func TestTradeIDMonotone(t *testing.T) {
	b := New("ETH-USD", nil)

	b.AddOrder(limit(1, market.SideSell, 100, 1))
	b.AddOrder(limit(2, market.SideSell, 101, 1))
	b.AddOrder(limit(3, market.SideSell, 102, 1))

	trades := b.AddOrder(mkt(4, market.SideBuy, 2))
	trades = append(trades, b.AddOrder(mkt(5, market.SideBuy, 1))...)

	require.Len(t, trades, 3)
	last := uint64(0)
	for _, tr := range trades {
		assert.Greater(t, tr.TradeID, last)
		last = tr.TradeID
	}
	assert.Equal(t, uint64(1), trades[0].TradeID)
}

func TestMapCoherence(t *testing.T) {
	b := New("ETH-USD", nil)

	b.AddOrder(limit(1, market.SideBuy, 99, 2))
	b.AddOrder(limit(2, market.SideBuy, 98, 2))
	b.AddOrder(limit(3, market.SideSell, 101, 2))
	b.AddOrder(mkt(4, market.SideSell, 1))
	b.CancelOrder(2)

	orders := b.Orders()
	var depthQty, depthOrders uint64
	for _, side := range []market.Side{market.SideBuy, market.SideSell} {
		for _, lvl := range b.Depth(side, 0) {
			depthQty += lvl.Quantity
			depthOrders += uint64(lvl.Orders)
		}
	}
	var mapQty uint64
	for _, o := range orders {
		mapQty += uint64(o.Quantity)
	}
	assert.Equal(t, uint64(len(orders)), depthOrders)
	assert.Equal(t, mapQty, depthQty)
}

func TestZeroQuantityIsNoOp(t *testing.T) {
	b := New("ETH-USD", nil)

	trades := b.AddOrder(market.Order{
		ID: 9, Instrument: "ETH-USD", Type: market.OrderTypeLimit,
		Side: market.SideBuy, Price: 100,
	})
	assert.Empty(t, trades)
	assert.Empty(t, b.Orders())
}

func TestTradeCallbackOrder(t *testing.T) {
	b := New("ETH-USD", nil)

	b.AddOrder(limit(1, market.SideSell, 100, 1))
	b.AddOrder(limit(2, market.SideSell, 101, 1))

	var seen []uint64
	b.SetTradeCallback(func(tr market.Trade) {
		seen = append(seen, tr.TradeID)
	})

	trades := b.AddOrder(mkt(3, market.SideBuy, 2))
	require.Len(t, trades, 2)
	require.Len(t, seen, 2)
	assert.Equal(t, trades[0].TradeID, seen[0])
	assert.Equal(t, trades[1].TradeID, seen[1])
}

func TestDepth(t *testing.T) {
	b := New("ETH-USD", nil)

	b.AddOrder(limit(1, market.SideBuy, 99, 2))
	b.AddOrder(limit(2, market.SideBuy, 99, 3))
	b.AddOrder(limit(3, market.SideBuy, 98, 1))

	levels := b.Depth(market.SideBuy, 10)
	require.Len(t, levels, 2)
	assert.Equal(t, 99.0, levels[0].Price)
	assert.Equal(t, uint64(5), levels[0].Quantity)
	assert.Equal(t, 2, levels[0].Orders)
	assert.Equal(t, 98.0, levels[1].Price)
}
