package strategy

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketforge/simex/internal/market"
)

type fakeSender struct {
	mu        sync.Mutex
	submitted []market.Order
	canceled  []uint64
}

func (f *fakeSender) SubmitOrder(o market.Order) []market.Trade {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitted = append(f.submitted, o)
	return nil
}

func (f *fakeSender) Cancel(instrument string, id uint64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.canceled = append(f.canceled, id)
	return true
}

func (f *fakeSender) orders() []market.Order {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]market.Order, len(f.submitted))
	copy(out, f.submitted)
	return out
}

type fakeBook struct {
	bid, ask         market.Order
	haveBid, haveAsk bool
}

func (f *fakeBook) BestBid() (market.Order, bool) { return f.bid, f.haveBid }
func (f *fakeBook) BestAsk() (market.Order, bool) { return f.ask, f.haveAsk }

func quotedBook(bid, ask float64) *fakeBook {
	return &fakeBook{
		bid:     market.Order{Side: market.SideBuy, Price: bid, Quantity: 1},
		ask:     market.Order{Side: market.SideSell, Price: ask, Quantity: 1},
		haveBid: true,
		haveAsk: true,
	}
}

func newTestMarketMaker(maxLoss float64, book BookReader) (*MarketMaker, *fakeSender) {
	sender := &fakeSender{}
	cfg := DefaultMarketMakerConfig("ETH-USD", maxLoss)
	return NewMarketMaker(cfg, sender, book, market.NewIDGenerator(), nil), sender
}

func TestMarketMakerQuotesAroundMid(t *testing.T) {
	mm, sender := newTestMarketMaker(-500, quotedBook(99, 101))

	require.True(t, mm.placeQuotes())

	orders := sender.orders()
	require.Len(t, orders, 2)

	// mid 100, half-spread 1
	assert.Equal(t, market.SideBuy, orders[0].Side)
	assert.Equal(t, 99.0, orders[0].Price)
	assert.Equal(t, market.SideSell, orders[1].Side)
	assert.Equal(t, 101.0, orders[1].Price)
	assert.Equal(t, uint32(1), orders[0].Quantity)
	assert.Equal(t, market.OrderTypeLimit, orders[0].Type)

	mm.mu.Lock()
	assert.NotZero(t, mm.currentBidID)
	assert.NotZero(t, mm.currentAskID)
	assert.Len(t, mm.activeOrders, 2)
	assert.Equal(t, uint64(2), mm.totalQuotes)
	mm.mu.Unlock()
}

func TestMarketMakerSkipsOneSidedBook(t *testing.T) {
	book := &fakeBook{
		ask:     market.Order{Side: market.SideSell, Price: 101, Quantity: 1},
		haveAsk: true,
	}
	mm, sender := newTestMarketMaker(-500, book)

	require.True(t, mm.placeQuotes())
	assert.Empty(t, sender.orders())
}

func TestMarketMakerRequotesOnDrift(t *testing.T) {
	book := quotedBook(99, 101)
	mm, sender := newTestMarketMaker(-500, book)

	require.True(t, mm.placeQuotes())
	require.Len(t, sender.orders(), 2)

	// book moves by more than the drift tolerance
	book.bid.Price = 99.5
	book.ask.Price = 101.5
	require.True(t, mm.placeQuotes())

	assert.Len(t, sender.canceled, 2)
	assert.Len(t, sender.orders(), 4)
	fresh := sender.orders()[2:]
	assert.Equal(t, 99.5, fresh[0].Price)
	assert.Equal(t, 101.5, fresh[1].Price)
}

func TestMarketMakerKeepsFreshQuotes(t *testing.T) {
	book := quotedBook(99, 101)
	mm, sender := newTestMarketMaker(-500, book)

	require.True(t, mm.placeQuotes())
	require.True(t, mm.placeQuotes())

	// same prices, within stale age: nothing canceled, nothing re-sent
	assert.Empty(t, sender.canceled)
	assert.Len(t, sender.orders(), 2)
}

func TestMarketMakerRiskBreachOnFills(t *testing.T) {
	mm, _ := newTestMarketMaker(-50, quotedBook(99, 101))

	// two owned buy orders resting
	mm.mu.Lock()
	mm.activeOrders[10] = market.Order{ID: 10, Instrument: "ETH-USD", Side: market.SideBuy, Quantity: 1, Price: 100}
	mm.filled[10] = 0
	mm.activeOrders[11] = market.Order{ID: 11, Instrument: "ETH-USD", Side: market.SideBuy, Quantity: 1, Price: 100}
	mm.filled[11] = 0
	mm.mu.Unlock()

	mm.OnTrade(market.Trade{TradeID: 1, BuyOrderID: 10, SellOrderID: 90, Instrument: "ETH-USD", Price: 100, Quantity: 1, Side: market.SideSell})
	mm.OnTrade(market.Trade{TradeID: 2, BuyOrderID: 11, SellOrderID: 91, Instrument: "ETH-USD", Price: 100, Quantity: 1, Side: market.SideSell})

	assert.Equal(t, -200.0, mm.RealizedPnL())
	assert.Equal(t, int64(2), mm.Inventory())
	assert.True(t, mm.RiskViolated())

	// the quoting loop quiesces on its next tick
	assert.False(t, mm.placeQuotes())
}

func TestMarketMakerInventoryBreach(t *testing.T) {
	mm, _ := newTestMarketMaker(-500, quotedBook(99, 101))

	mm.mu.Lock()
	mm.inventory = 11
	mm.mu.Unlock()

	assert.False(t, mm.placeQuotes())
	assert.True(t, mm.RiskViolated())
}

func TestMarketMakerIgnoresOtherInstruments(t *testing.T) {
	mm, _ := newTestMarketMaker(-500, quotedBook(99, 101))

	mm.OnTrade(market.Trade{TradeID: 1, BuyOrderID: 1, SellOrderID: 2, Instrument: "BTC-USD", Price: 100, Quantity: 1})
	assert.Zero(t, mm.TotalTrades())
	assert.Zero(t, mm.RealizedPnL())
}

func TestMarketMakerSellFillAccounting(t *testing.T) {
	mm, _ := newTestMarketMaker(-500, quotedBook(99, 101))

	mm.mu.Lock()
	mm.activeOrders[20] = market.Order{ID: 20, Instrument: "ETH-USD", Side: market.SideSell, Quantity: 2, Price: 101}
	mm.filled[20] = 0
	mm.currentAskID = 20
	mm.mu.Unlock()

	mm.OnTrade(market.Trade{TradeID: 1, BuyOrderID: 95, SellOrderID: 20, Instrument: "ETH-USD", Price: 101, Quantity: 1, Side: market.SideBuy})
	assert.Equal(t, 101.0, mm.RealizedPnL())
	assert.Equal(t, int64(-1), mm.Inventory())

	// partial fill keeps the order active
	mm.mu.Lock()
	_, active := mm.activeOrders[20]
	askID := mm.currentAskID
	mm.mu.Unlock()
	assert.True(t, active)
	assert.Equal(t, uint64(20), askID)

	mm.OnTrade(market.Trade{TradeID: 2, BuyOrderID: 96, SellOrderID: 20, Instrument: "ETH-USD", Price: 101, Quantity: 1, Side: market.SideBuy})

	// full fill frees the slot
	mm.mu.Lock()
	_, active = mm.activeOrders[20]
	askID = mm.currentAskID
	mm.mu.Unlock()
	assert.False(t, active)
	assert.Zero(t, askID)
	assert.Equal(t, 2.0, mm.AverageTradeSize()*float64(mm.TotalTrades()))
}

func TestMarketMakerSummaryExport(t *testing.T) {
	mm, _ := newTestMarketMaker(-500, quotedBook(99, 101))
	path := filepath.Join(t.TempDir(), "summary.json")

	require.NoError(t, mm.ExportSummary(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, "marketmaker", out["strategy"])
	for _, key := range []string{"run_id", "pnl", "total_trades", "average_trade_size", "max_drawdown", "risk_breached", "inventory_ETH-USD", "total_quotes", "quote_to_trade_ratio"} {
		assert.Contains(t, out, key)
	}
}

func TestMarketMakerTradeLogWritten(t *testing.T) {
	dir := t.TempDir()
	sender := &fakeSender{}
	cfg := DefaultMarketMakerConfig("ETH-USD", -500)
	cfg.LogDir = dir
	mm := NewMarketMaker(cfg, sender, quotedBook(99, 101), market.NewIDGenerator(), nil)

	mm.Start()
	mm.mu.Lock()
	mm.activeOrders[10] = market.Order{ID: 10, Instrument: "ETH-USD", Side: market.SideBuy, Quantity: 1, Price: 100}
	mm.filled[10] = 0
	mm.mu.Unlock()
	mm.OnTrade(market.Trade{TradeID: 1, BuyOrderID: 10, SellOrderID: 90, Instrument: "ETH-USD", Price: 100, Quantity: 1})
	mm.Stop()

	data, err := os.ReadFile(filepath.Join(dir, "market_maker_trades.csv"))
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "trade_id,instrument,price,quantity,pnl,inventory,timestamp,risk_breached")
	assert.Contains(t, content, "1,ETH-USD,100,1,-100,1")
}
