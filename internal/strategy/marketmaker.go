package strategy

import (
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/marketforge/simex/internal/market"
)

// MarketMakerConfig holds configuration for the MarketMaker strategy.
type MarketMakerConfig struct {
	// Symbol is the instrument quoted.
	Symbol string
	// MaxLoss is the realized-PnL floor (negative).
	MaxLoss float64
	// InventoryLimit breaches the risk gate when |inventory| exceeds it.
	InventoryLimit int64
	// QuoteInterval is the pause between quoting ticks.
	QuoteInterval time.Duration
	// StaleAge is how old a resting quote may grow before re-quoting.
	StaleAge time.Duration
	// MaxDrift is how far the target price may move before re-quoting.
	MaxDrift float64
	// Quantity is the size of each quote.
	Quantity uint32
	// LogDir receives the metrics and trade CSV logs; empty disables them.
	LogDir string
}

// DefaultMarketMakerConfig returns a MarketMakerConfig with reasonable
// defaults.
func DefaultMarketMakerConfig(symbol string, maxLoss float64) MarketMakerConfig {
	return MarketMakerConfig{
		Symbol:         symbol,
		MaxLoss:        maxLoss,
		InventoryLimit: 10,
		QuoteInterval:  500 * time.Millisecond,
		StaleAge:       500 * time.Millisecond,
		MaxDrift:       0.02,
		Quantity:       1,
	}
}

// MarketMaker keeps at most one resting bid and one resting ask near the
// mid-price, re-quoting when a quote goes stale or the target drifts.
type MarketMaker struct {
	cfg    MarketMakerConfig
	sender OrderSender
	book   BookReader
	ids    *market.IDGenerator
	logger *log.Logger
	runID  string

	closed    chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup

	mu            sync.Mutex
	risk          riskTracker
	inventory     int64
	activeOrders  map[uint64]market.Order
	filled        map[uint64]uint32
	currentBidID  uint64
	currentAskID  uint64
	totalQuotes   uint64
	totalTrades   uint64
	totalQuantity uint64

	tradeLog   *tradeLog
	metricsLog *tradeLog
}

// NewMarketMaker creates a MarketMaker quoting cfg.Symbol through sender,
// reading the top of book from book and minting order IDs from ids.
func NewMarketMaker(cfg MarketMakerConfig, sender OrderSender, book BookReader, ids *market.IDGenerator, logger *log.Logger) *MarketMaker {
	if cfg.QuoteInterval <= 0 {
		cfg.QuoteInterval = DefaultMarketMakerConfig(cfg.Symbol, cfg.MaxLoss).QuoteInterval
	}
	if cfg.StaleAge <= 0 {
		cfg.StaleAge = DefaultMarketMakerConfig(cfg.Symbol, cfg.MaxLoss).StaleAge
	}
	if cfg.MaxDrift <= 0 {
		cfg.MaxDrift = DefaultMarketMakerConfig(cfg.Symbol, cfg.MaxLoss).MaxDrift
	}
	if cfg.InventoryLimit <= 0 {
		cfg.InventoryLimit = DefaultMarketMakerConfig(cfg.Symbol, cfg.MaxLoss).InventoryLimit
	}
	if cfg.Quantity == 0 {
		cfg.Quantity = 1
	}
	if logger == nil {
		logger = log.Default()
	}
	return &MarketMaker{
		cfg:          cfg,
		sender:       sender,
		book:         book,
		ids:          ids,
		logger:       logger.WithPrefix("marketmaker"),
		runID:        uuid.NewString(),
		closed:       make(chan struct{}),
		risk:         newRiskTracker(cfg.MaxLoss),
		activeOrders: map[uint64]market.Order{},
		filled:       map[uint64]uint32{},
	}
}

// Name implements Strategy.
func (m *MarketMaker) Name() string { return "MarketMaker" }

// Start opens the log sinks and launches the quoting loop.
func (m *MarketMaker) Start() {
	if m.cfg.LogDir != "" {
		var err error
		m.metricsLog, err = newTradeLog(
			filepath.Join(m.cfg.LogDir, "market_maker_metrics.csv"),
			[]string{"timestamp", "inventory", "pnl", "spread", "bid_id", "ask_id"})
		if err != nil {
			m.logger.Error("metrics log disabled", "err", err)
		}
		m.tradeLog, err = newTradeLog(
			filepath.Join(m.cfg.LogDir, "market_maker_trades.csv"),
			[]string{"trade_id", "instrument", "price", "quantity", "pnl", "inventory", "timestamp", "risk_breached"})
		if err != nil {
			m.logger.Error("trade log disabled", "err", err)
		}
	}

	m.wg.Add(1)
	go m.run()
}

// Stop signals the quoting loop, waits for it, and closes the log sinks.
// Outstanding quotes are left on the book.
func (m *MarketMaker) Stop() {
	m.closeOnce.Do(func() {
		close(m.closed)
	})
	m.wg.Wait()
	m.tradeLog.close()
	m.metricsLog.close()

	m.mu.Lock()
	quotes, trades := m.totalQuotes, m.totalTrades
	m.mu.Unlock()
	ratio := 0.0
	if trades > 0 {
		ratio = float64(quotes) / float64(trades)
	}
	m.logger.Info("stopped", "quotes", quotes, "trades", trades, "quote_to_trade_ratio", ratio)
}

func (m *MarketMaker) run() {
	defer m.wg.Done()

	ticker := time.NewTicker(m.cfg.QuoteInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.closed:
			return
		case <-ticker.C:
			if !m.placeQuotes() {
				return
			}
		}
	}
}

// placeQuotes runs one quoting tick. It returns false when the risk gate
// has tripped and the loop should quiesce.
func (m *MarketMaker) placeQuotes() bool {
	m.mu.Lock()
	if m.risk.violated || m.inventoryBreached() {
		m.risk.violated = true
		m.mu.Unlock()
		m.logger.Warn("risk limits exceeded, quoting stopped")
		return false
	}
	m.mu.Unlock()

	bestBid, haveBid := m.book.BestBid()
	bestAsk, haveAsk := m.book.BestAsk()
	if !haveBid || !haveAsk {
		return true // cannot compute mid, skip this tick
	}

	mid := (bestBid.Price + bestAsk.Price) / 2
	halfSpread := math.Max(0.01, (bestAsk.Price-bestBid.Price)/2)
	bidPrice := mid - halfSpread
	askPrice := mid + halfSpread
	now := market.NowMicros()

	var cancels []uint64
	var submits []market.Order

	m.mu.Lock()
	m.refreshSlot(&m.currentBidID, market.SideBuy, bidPrice, now, &cancels, &submits)
	m.refreshSlot(&m.currentAskID, market.SideSell, askPrice, now, &cancels, &submits)
	m.totalQuotes += uint64(len(submits))
	inventory, pnl := m.inventory, m.risk.realizedPnL
	bidID, askID := m.currentBidID, m.currentAskID
	m.mu.Unlock()

	for _, id := range cancels {
		m.sender.Cancel(m.cfg.Symbol, id)
	}
	for _, o := range submits {
		m.sender.SubmitOrder(o)
	}

	m.metricsLog.write([]string{
		time.Now().Format("2006-01-02 15:04:05"),
		strconv.FormatInt(inventory, 10),
		strconv.FormatFloat(pnl, 'f', -1, 64),
		strconv.FormatFloat(halfSpread*2, 'f', -1, 64),
		strconv.FormatUint(bidID, 10),
		strconv.FormatUint(askID, 10),
	})
	return true
}

// refreshSlot cancels a stale or drifted quote and mints a replacement when
// the slot is empty. Callers hold m.mu; the actual sends happen after it is
// released.
func (m *MarketMaker) refreshSlot(slot *uint64, side market.Side, price float64, now int64, cancels *[]uint64, submits *[]market.Order) {
	if *slot != 0 {
		old, ok := m.activeOrders[*slot]
		switch {
		case !ok:
			// already fully filled; just free the slot
			*slot = 0
		case now > old.Timestamp+m.cfg.StaleAge.Microseconds() || math.Abs(old.Price-price) > m.cfg.MaxDrift:
			*cancels = append(*cancels, *slot)
			delete(m.activeOrders, *slot)
			delete(m.filled, *slot)
			*slot = 0
		}
	}

	if *slot == 0 {
		o := market.Order{
			ID:         m.ids.Next(),
			Instrument: m.cfg.Symbol,
			Type:       market.OrderTypeLimit,
			Side:       side,
			Price:      price,
			Quantity:   m.cfg.Quantity,
			Timestamp:  now,
		}
		// register before sending: fills can arrive during SubmitOrder
		m.activeOrders[o.ID] = o
		m.filled[o.ID] = 0
		*slot = o.ID
		*submits = append(*submits, o)
	}
}

func (m *MarketMaker) inventoryBreached() bool {
	inv := m.inventory
	if inv < 0 {
		inv = -inv
	}
	return inv > m.cfg.InventoryLimit
}

// OnMarketData implements Strategy. The market maker quotes off the book,
// not the raw feed, so events are not recorded.
func (m *MarketMaker) OnMarketData(o market.Order) {}

// OnTrade updates inventory and PnL for fills on the strategy's own
// orders, then applies the risk gate.
func (m *MarketMaker) OnTrade(t market.Trade) {
	if t.Instrument != m.cfg.Symbol {
		return
	}

	m.mu.Lock()
	m.totalTrades++
	wasViolated := m.risk.violated

	var pnlDelta float64
	if o, ok := m.activeOrders[t.BuyOrderID]; ok {
		m.filled[t.BuyOrderID] += t.Quantity
		m.inventory += int64(t.Quantity)
		delta := -t.Price * float64(t.Quantity)
		m.risk.add(delta)
		pnlDelta += delta
		m.totalQuantity += uint64(t.Quantity)
		if m.filled[t.BuyOrderID] >= o.Quantity {
			delete(m.activeOrders, t.BuyOrderID)
			delete(m.filled, t.BuyOrderID)
			if m.currentBidID == t.BuyOrderID {
				m.currentBidID = 0
			}
		}
	}
	if o, ok := m.activeOrders[t.SellOrderID]; ok {
		m.filled[t.SellOrderID] += t.Quantity
		m.inventory -= int64(t.Quantity)
		delta := t.Price * float64(t.Quantity)
		m.risk.add(delta)
		pnlDelta += delta
		m.totalQuantity += uint64(t.Quantity)
		if m.filled[t.SellOrderID] >= o.Quantity {
			delete(m.activeOrders, t.SellOrderID)
			delete(m.filled, t.SellOrderID)
			if m.currentAskID == t.SellOrderID {
				m.currentAskID = 0
			}
		}
	}

	if m.inventoryBreached() {
		m.risk.violated = true
	}
	violated := m.risk.violated
	inventory, pnl := m.inventory, m.risk.realizedPnL
	m.mu.Unlock()

	if violated && !wasViolated {
		m.logger.Warn("risk violation detected post-trade", "pnl", pnl, "inventory", inventory)
	}

	m.tradeLog.write([]string{
		strconv.FormatUint(t.TradeID, 10),
		t.Instrument,
		strconv.FormatFloat(t.Price, 'f', -1, 64),
		strconv.FormatUint(uint64(t.Quantity), 10),
		strconv.FormatFloat(pnlDelta, 'f', -1, 64),
		strconv.FormatInt(inventory, 10),
		strconv.FormatInt(t.Timestamp, 10),
		strconv.FormatBool(violated),
	})
}

// Inventory returns the current signed inventory.
func (m *MarketMaker) Inventory() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.inventory
}

// TotalTrades implements Strategy.
func (m *MarketMaker) TotalTrades() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.totalTrades
}

// AverageTradeSize implements Strategy.
func (m *MarketMaker) AverageTradeSize() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return avgTradeSize(m.totalQuantity, m.totalTrades)
}

// MaxDrawdown implements Strategy.
func (m *MarketMaker) MaxDrawdown() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.risk.maxDrawdown
}

// RealizedPnL implements Strategy.
func (m *MarketMaker) RealizedPnL() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.risk.realizedPnL
}

// RiskViolated implements Strategy.
func (m *MarketMaker) RiskViolated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.risk.violated
}

// PrintSummary implements Strategy.
func (m *MarketMaker) PrintSummary() {
	m.mu.Lock()
	defer m.mu.Unlock()
	ratio := 0.0
	if m.totalTrades > 0 {
		ratio = float64(m.totalQuotes) / float64(m.totalTrades)
	}
	fmt.Printf("\n[SUMMARY] Market Maker Strategy\n")
	fmt.Printf("[SUMMARY] Realized PnL: %.2f\n", m.risk.realizedPnL)
	fmt.Printf("[SUMMARY] Inventory [%s]: %d\n", m.cfg.Symbol, m.inventory)
	fmt.Printf("[SUMMARY] Total Quotes: %d\n", m.totalQuotes)
	fmt.Printf("[SUMMARY] Total Trades: %d\n", m.totalTrades)
	fmt.Printf("[SUMMARY] Average Trade Size: %.2f\n", avgTradeSize(m.totalQuantity, m.totalTrades))
	fmt.Printf("[SUMMARY] Quote-to-Trade Ratio: %.2f\n", ratio)
	fmt.Printf("[SUMMARY] Max Drawdown: %.2f\n", m.risk.maxDrawdown)
	fmt.Printf("[SUMMARY] Risk Breached: %v\n", m.risk.violated)
}

// ExportSummary implements Strategy.
func (m *MarketMaker) ExportSummary(path string) error {
	m.mu.Lock()
	ratio := 0.0
	if m.totalTrades > 0 {
		ratio = float64(m.totalQuotes) / float64(m.totalTrades)
	}
	out := map[string]any{
		"strategy":                  "marketmaker",
		"run_id":                    m.runID,
		"pnl":                       m.risk.realizedPnL,
		"inventory_" + m.cfg.Symbol: m.inventory,
		"total_quotes":              m.totalQuotes,
		"total_trades":              m.totalTrades,
		"average_trade_size":        avgTradeSize(m.totalQuantity, m.totalTrades),
		"quote_to_trade_ratio":      ratio,
		"max_drawdown":              m.risk.maxDrawdown,
		"risk_breached":             m.risk.violated,
	}
	m.mu.Unlock()
	return writeSummaryJSON(path, out)
}
