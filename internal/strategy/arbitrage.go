package strategy

import (
	"fmt"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/marketforge/simex/internal/market"
)

// ArbitrageConfig holds configuration for the ArbitrageTrader strategy.
type ArbitrageConfig struct {
	// SymbolA and SymbolB are the two instruments watched for spread.
	SymbolA string
	SymbolB string
	// Spread is the minimum profitable gap between one symbol's bid and
	// the other's ask.
	Spread float64
	// OrderSize is the quantity of each leg.
	OrderSize uint32
	// MaxLoss is the realized-PnL floor (negative).
	MaxLoss float64
	// SubmitInterval is the pause between drains of detected opportunities.
	SubmitInterval time.Duration
	// LogDir receives the trade CSV log; empty disables it.
	LogDir string
}

// DefaultArbitrageConfig returns an ArbitrageConfig with reasonable
// defaults.
func DefaultArbitrageConfig(symbolA, symbolB string, maxLoss float64) ArbitrageConfig {
	return ArbitrageConfig{
		SymbolA:        symbolA,
		SymbolB:        symbolB,
		Spread:         0.02,
		OrderSize:      10,
		MaxLoss:        maxLoss,
		SubmitInterval: 100 * time.Millisecond,
	}
}

// ArbitrageTrader watches the best bid and ask of two instruments and,
// when one symbol's bid exceeds the other's ask by more than the spread,
// queues the two limit legs. The background loop submits queued legs so
// callbacks never re-enter the exchange.
type ArbitrageTrader struct {
	cfg    ArbitrageConfig
	sender OrderSender
	ids    *market.IDGenerator
	logger *log.Logger
	runID  string

	closed    chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup

	mu            sync.Mutex
	risk          riskTracker
	bestBid       map[string]float64
	bestAsk       map[string]float64
	positions     map[string]int64
	pending       []market.Order
	totalTrades   uint64
	totalQuantity uint64

	tradeLog *tradeLog
}

// NewArbitrageTrader creates an ArbitrageTrader submitting through sender.
func NewArbitrageTrader(cfg ArbitrageConfig, sender OrderSender, ids *market.IDGenerator, logger *log.Logger) *ArbitrageTrader {
	def := DefaultArbitrageConfig(cfg.SymbolA, cfg.SymbolB, cfg.MaxLoss)
	if cfg.Spread <= 0 {
		cfg.Spread = def.Spread
	}
	if cfg.OrderSize == 0 {
		cfg.OrderSize = def.OrderSize
	}
	if cfg.SubmitInterval <= 0 {
		cfg.SubmitInterval = def.SubmitInterval
	}
	if logger == nil {
		logger = log.Default()
	}
	return &ArbitrageTrader{
		cfg:       cfg,
		sender:    sender,
		ids:       ids,
		logger:    logger.WithPrefix("arbitrage"),
		runID:     uuid.NewString(),
		closed:    make(chan struct{}),
		risk:      newRiskTracker(cfg.MaxLoss),
		bestBid:   map[string]float64{},
		bestAsk:   map[string]float64{},
		positions: map[string]int64{},
	}
}

// Name implements Strategy.
func (a *ArbitrageTrader) Name() string { return "ArbitrageTrader" }

// Start opens the trade log and launches the submit loop.
func (a *ArbitrageTrader) Start() {
	a.logger.Info("started", "symbol_a", a.cfg.SymbolA, "symbol_b", a.cfg.SymbolB, "spread", a.cfg.Spread)
	if a.cfg.LogDir != "" {
		var err error
		a.tradeLog, err = newTradeLog(
			filepath.Join(a.cfg.LogDir, "arbitrage_trades.csv"),
			[]string{"trade_id", "instrument", "price", "quantity", "pnl",
				"position_" + a.cfg.SymbolA, "position_" + a.cfg.SymbolB,
				"total_pnl", "risk_breached", "timestamp"})
		if err != nil {
			a.logger.Error("trade log disabled", "err", err)
		}
	}

	a.wg.Add(1)
	go a.run()
}

// Stop signals the loop, waits for it, and closes the trade log.
func (a *ArbitrageTrader) Stop() {
	a.closeOnce.Do(func() {
		close(a.closed)
	})
	a.wg.Wait()
	a.tradeLog.close()
	a.logger.Info("stopped")
}

func (a *ArbitrageTrader) run() {
	defer a.wg.Done()

	ticker := time.NewTicker(a.cfg.SubmitInterval)
	defer ticker.Stop()

	for {
		select {
		case <-a.closed:
			return
		case <-ticker.C:
			if !a.drain() {
				return
			}
		}
	}
}

// drain submits all queued opportunity legs. It returns false when the
// risk gate has tripped.
func (a *ArbitrageTrader) drain() bool {
	a.mu.Lock()
	if a.risk.violated {
		a.pending = nil
		a.mu.Unlock()
		a.logger.Warn("risk limits exceeded, trading stopped")
		return false
	}
	batch := a.pending
	a.pending = nil
	a.mu.Unlock()

	for _, o := range batch {
		a.sender.SubmitOrder(o)
	}
	return true
}

// OnMarketData refreshes the per-instrument best bid (max on buys) and
// best ask (min on sells), then checks for an opportunity.
func (a *ArbitrageTrader) OnMarketData(o market.Order) {
	if o.Instrument != a.cfg.SymbolA && o.Instrument != a.cfg.SymbolB {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.risk.violated {
		return
	}

	if o.Side == market.SideBuy {
		if cur, ok := a.bestBid[o.Instrument]; !ok || o.Price > cur {
			a.bestBid[o.Instrument] = o.Price
		}
	} else {
		if cur, ok := a.bestAsk[o.Instrument]; !ok || o.Price < cur {
			a.bestAsk[o.Instrument] = o.Price
		}
	}

	a.checkOpportunity()
}

// checkOpportunity queues the two legs whenever one symbol's bid exceeds
// the other's ask by more than the configured spread. Callers hold a.mu.
func (a *ArbitrageTrader) checkOpportunity() {
	now := market.NowMicros()

	askA, haveAskA := a.bestAsk[a.cfg.SymbolA]
	bidB, haveBidB := a.bestBid[a.cfg.SymbolB]
	if haveAskA && haveBidB && bidB-askA > a.cfg.Spread {
		a.queueLegs(a.cfg.SymbolA, askA, a.cfg.SymbolB, bidB, now)
	}

	askB, haveAskB := a.bestAsk[a.cfg.SymbolB]
	bidA, haveBidA := a.bestBid[a.cfg.SymbolA]
	if haveAskB && haveBidA && bidA-askB > a.cfg.Spread {
		a.queueLegs(a.cfg.SymbolB, askB, a.cfg.SymbolA, bidA, now)
	}
}

func (a *ArbitrageTrader) queueLegs(buySym string, buyPrice float64, sellSym string, sellPrice float64, now int64) {
	a.pending = append(a.pending,
		market.Order{
			ID:         a.ids.Next(),
			Instrument: buySym,
			Type:       market.OrderTypeLimit,
			Side:       market.SideBuy,
			Price:      buyPrice,
			Quantity:   a.cfg.OrderSize,
			Timestamp:  now,
		},
		market.Order{
			ID:         a.ids.Next(),
			Instrument: sellSym,
			Type:       market.OrderTypeLimit,
			Side:       market.SideSell,
			Price:      sellPrice,
			Quantity:   a.cfg.OrderSize,
			Timestamp:  now,
		},
	)
	a.logger.Info("opportunity", "buy", buySym, "buy_price", buyPrice, "sell", sellSym, "sell_price", sellPrice)
}

// OnTrade updates the per-instrument position by the aggressor-signed
// quantity and applies the risk gate.
func (a *ArbitrageTrader) OnTrade(t market.Trade) {
	if t.Instrument != a.cfg.SymbolA && t.Instrument != a.cfg.SymbolB {
		return
	}

	a.mu.Lock()
	qty := int64(t.Quantity)
	if t.Side == market.SideSell {
		qty = -qty
	}
	a.positions[t.Instrument] += qty
	pnl := float64(qty) * t.Price
	a.risk.add(pnl)
	a.totalTrades++
	a.totalQuantity += uint64(t.Quantity)
	posA := a.positions[a.cfg.SymbolA]
	posB := a.positions[a.cfg.SymbolB]
	total := a.risk.realizedPnL
	violated := a.risk.violated
	a.mu.Unlock()

	a.tradeLog.write([]string{
		strconv.FormatUint(t.TradeID, 10),
		t.Instrument,
		strconv.FormatFloat(t.Price, 'f', -1, 64),
		strconv.FormatUint(uint64(t.Quantity), 10),
		strconv.FormatFloat(pnl, 'f', -1, 64),
		strconv.FormatInt(posA, 10),
		strconv.FormatInt(posB, 10),
		strconv.FormatFloat(total, 'f', -1, 64),
		strconv.FormatBool(violated),
		strconv.FormatInt(t.Timestamp, 10),
	})
}

// Position returns the signed position for an instrument.
func (a *ArbitrageTrader) Position(instrument string) int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.positions[instrument]
}

// TotalTrades implements Strategy.
func (a *ArbitrageTrader) TotalTrades() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.totalTrades
}

// AverageTradeSize implements Strategy.
func (a *ArbitrageTrader) AverageTradeSize() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return avgTradeSize(a.totalQuantity, a.totalTrades)
}

// MaxDrawdown implements Strategy.
func (a *ArbitrageTrader) MaxDrawdown() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.risk.maxDrawdown
}

// RealizedPnL implements Strategy.
func (a *ArbitrageTrader) RealizedPnL() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.risk.realizedPnL
}

// RiskViolated implements Strategy.
func (a *ArbitrageTrader) RiskViolated() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.risk.violated
}

// PrintSummary implements Strategy.
func (a *ArbitrageTrader) PrintSummary() {
	a.mu.Lock()
	defer a.mu.Unlock()
	fmt.Printf("\n[SUMMARY] Arbitrage Strategy\n")
	fmt.Printf("[SUMMARY] Realized PnL: %.2f\n", a.risk.realizedPnL)
	fmt.Printf("[SUMMARY] Position [%s]: %d\n", a.cfg.SymbolA, a.positions[a.cfg.SymbolA])
	fmt.Printf("[SUMMARY] Position [%s]: %d\n", a.cfg.SymbolB, a.positions[a.cfg.SymbolB])
	fmt.Printf("[SUMMARY] Total Trades: %d\n", a.totalTrades)
	fmt.Printf("[SUMMARY] Average Trade Size: %.2f\n", avgTradeSize(a.totalQuantity, a.totalTrades))
	fmt.Printf("[SUMMARY] Max Drawdown: %.2f\n", a.risk.maxDrawdown)
	fmt.Printf("[SUMMARY] Risk Breached: %v\n", a.risk.violated)
}

// ExportSummary implements Strategy.
func (a *ArbitrageTrader) ExportSummary(path string) error {
	a.mu.Lock()
	out := map[string]any{
		"strategy":                  "arbitrage",
		"run_id":                    a.runID,
		"pnl":                       a.risk.realizedPnL,
		"position_" + a.cfg.SymbolA: a.positions[a.cfg.SymbolA],
		"position_" + a.cfg.SymbolB: a.positions[a.cfg.SymbolB],
		"total_trades":              a.totalTrades,
		"average_trade_size":        avgTradeSize(a.totalQuantity, a.totalTrades),
		"max_drawdown":              a.risk.maxDrawdown,
		"risk_breached":             a.risk.violated,
	}
	a.mu.Unlock()
	return writeSummaryJSON(path, out)
}
