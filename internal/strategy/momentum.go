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

// MomentumConfig holds configuration for the MomentumTrader strategy.
type MomentumConfig struct {
	// Symbol is the instrument traded.
	Symbol string
	// MaxLoss is the realized-PnL floor (negative).
	MaxLoss float64
	// EvalInterval is the pause between momentum evaluations.
	EvalInterval time.Duration
	// Cooldown is the minimum gap between submitted orders.
	Cooldown time.Duration
	// Window is how many recent prices the sliding window keeps.
	Window int
	// MinSamples is the minimum window fill before trading.
	MinSamples int
	// Quantity is the size of each market order.
	Quantity uint32
	// LogDir receives the trade CSV log; empty disables it.
	LogDir string
}

// DefaultMomentumConfig returns a MomentumConfig with reasonable defaults.
func DefaultMomentumConfig(symbol string, maxLoss float64) MomentumConfig {
	return MomentumConfig{
		Symbol:       symbol,
		MaxLoss:      maxLoss,
		EvalInterval: 200 * time.Millisecond,
		Cooldown:     time.Second,
		Window:       5,
		MinSamples:   3,
		Quantity:     1,
	}
}

// MomentumTrader chases short-term momentum: when the latest observed
// price moves above the average of the earlier prices in the window it
// buys, otherwise it sells, with a cooldown between orders.
type MomentumTrader struct {
	cfg    MomentumConfig
	sender OrderSender
	ids    *market.IDGenerator
	logger *log.Logger
	runID  string

	closed    chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup

	mu            sync.Mutex
	risk          riskTracker
	prices        []float64
	cooldownEnd   int64
	position      int64
	totalTrades   uint64
	totalQuantity uint64

	tradeLog *tradeLog
}

// NewMomentumTrader creates a MomentumTrader submitting through sender.
func NewMomentumTrader(cfg MomentumConfig, sender OrderSender, ids *market.IDGenerator, logger *log.Logger) *MomentumTrader {
	def := DefaultMomentumConfig(cfg.Symbol, cfg.MaxLoss)
	if cfg.EvalInterval <= 0 {
		cfg.EvalInterval = def.EvalInterval
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = def.Cooldown
	}
	if cfg.Window <= 0 {
		cfg.Window = def.Window
	}
	if cfg.MinSamples <= 0 {
		cfg.MinSamples = def.MinSamples
	}
	if cfg.Quantity == 0 {
		cfg.Quantity = 1
	}
	if logger == nil {
		logger = log.Default()
	}
	return &MomentumTrader{
		cfg:    cfg,
		sender: sender,
		ids:    ids,
		logger: logger.WithPrefix("momentum"),
		runID:  uuid.NewString(),
		closed: make(chan struct{}),
		risk:   newRiskTracker(cfg.MaxLoss),
	}
}

// Name implements Strategy.
func (m *MomentumTrader) Name() string { return "MomentumTrader" }

// Start opens the trade log and launches the evaluation loop.
func (m *MomentumTrader) Start() {
	if m.cfg.LogDir != "" {
		var err error
		m.tradeLog, err = newTradeLog(
			filepath.Join(m.cfg.LogDir, "momentum_trades.csv"),
			[]string{"trade_id", "instrument", "price", "quantity", "pnl", "position", "timestamp", "risk_breached"})
		if err != nil {
			m.logger.Error("trade log disabled", "err", err)
		}
	}

	m.wg.Add(1)
	go m.run()
}

// Stop signals the loop, waits for it, and closes the trade log.
func (m *MomentumTrader) Stop() {
	m.closeOnce.Do(func() {
		close(m.closed)
	})
	m.wg.Wait()
	m.tradeLog.close()
}

func (m *MomentumTrader) run() {
	defer m.wg.Done()

	ticker := time.NewTicker(m.cfg.EvalInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.closed:
			return
		case <-ticker.C:
			if !m.evaluate() {
				return
			}
		}
	}
}

// evaluate runs one momentum check. It returns false when the risk gate
// has tripped.
func (m *MomentumTrader) evaluate() bool {
	m.mu.Lock()
	if m.risk.violated {
		m.mu.Unlock()
		m.logger.Warn("risk limits exceeded, trading stopped")
		return false
	}
	if len(m.prices) < m.cfg.MinSamples {
		m.mu.Unlock()
		return true
	}

	current := m.prices[len(m.prices)-1]
	avg := 0.0
	for _, p := range m.prices[:len(m.prices)-1] {
		avg += p
	}
	avg /= float64(len(m.prices) - 1)

	now := market.NowMicros()
	if now < m.cooldownEnd {
		m.mu.Unlock()
		return true
	}
	m.cooldownEnd = now + m.cfg.Cooldown.Microseconds()

	side := market.SideSell
	if current > avg {
		side = market.SideBuy
	}
	o := market.Order{
		ID:         m.ids.Next(),
		Instrument: m.cfg.Symbol,
		Type:       market.OrderTypeMarket,
		Side:       side,
		Price:      current,
		Quantity:   m.cfg.Quantity,
		Timestamp:  now,
	}
	m.mu.Unlock()

	m.sender.SubmitOrder(o)
	return true
}

// OnMarketData records the observed price in the sliding window.
func (m *MomentumTrader) OnMarketData(o market.Order) {
	if o.Instrument != m.cfg.Symbol {
		return
	}
	m.mu.Lock()
	m.prices = append(m.prices, o.Price)
	if len(m.prices) > m.cfg.Window {
		m.prices = m.prices[1:]
	}
	m.mu.Unlock()
}

// OnTrade applies the PnL heuristic and the risk gate. The sign inference
// from the order-id comparison is kept from the original system.
func (m *MomentumTrader) OnTrade(t market.Trade) {
	if t.Instrument != m.cfg.Symbol {
		return
	}

	m.mu.Lock()
	qty := int64(t.Quantity)
	if t.BuyOrderID >= t.SellOrderID {
		qty = -qty
	}
	m.position += qty
	pnl := -float64(qty) * t.Price // sell is +PnL, buy is -PnL
	m.risk.add(pnl)
	m.totalTrades++
	m.totalQuantity += uint64(t.Quantity)
	position, violated := m.position, m.risk.violated
	m.mu.Unlock()

	m.tradeLog.write([]string{
		strconv.FormatUint(t.TradeID, 10),
		t.Instrument,
		strconv.FormatFloat(t.Price, 'f', -1, 64),
		strconv.FormatUint(uint64(t.Quantity), 10),
		strconv.FormatFloat(pnl, 'f', -1, 64),
		strconv.FormatInt(position, 10),
		strconv.FormatInt(t.Timestamp, 10),
		strconv.FormatBool(violated),
	})
}

// Position returns the current signed position.
func (m *MomentumTrader) Position() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.position
}

// TotalTrades implements Strategy.
func (m *MomentumTrader) TotalTrades() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.totalTrades
}

// AverageTradeSize implements Strategy.
func (m *MomentumTrader) AverageTradeSize() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return avgTradeSize(m.totalQuantity, m.totalTrades)
}

// MaxDrawdown implements Strategy.
func (m *MomentumTrader) MaxDrawdown() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.risk.maxDrawdown
}

// RealizedPnL implements Strategy.
func (m *MomentumTrader) RealizedPnL() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.risk.realizedPnL
}

// RiskViolated implements Strategy.
func (m *MomentumTrader) RiskViolated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.risk.violated
}

// PrintSummary implements Strategy.
func (m *MomentumTrader) PrintSummary() {
	m.mu.Lock()
	defer m.mu.Unlock()
	fmt.Printf("\n[SUMMARY] Momentum Strategy\n")
	fmt.Printf("[SUMMARY] Realized PnL: %.2f\n", m.risk.realizedPnL)
	fmt.Printf("[SUMMARY] Position [%s]: %d\n", m.cfg.Symbol, m.position)
	fmt.Printf("[SUMMARY] Total Trades: %d\n", m.totalTrades)
	fmt.Printf("[SUMMARY] Average Trade Size: %.2f\n", avgTradeSize(m.totalQuantity, m.totalTrades))
	fmt.Printf("[SUMMARY] Max Drawdown: %.2f\n", m.risk.maxDrawdown)
	fmt.Printf("[SUMMARY] Risk Breached: %v\n", m.risk.violated)
}

// ExportSummary implements Strategy.
func (m *MomentumTrader) ExportSummary(path string) error {
	m.mu.Lock()
	out := map[string]any{
		"strategy":                 "momentum",
		"run_id":                   m.runID,
		"pnl":                      m.risk.realizedPnL,
		"position_" + m.cfg.Symbol: m.position,
		"total_trades":             m.totalTrades,
		"average_trade_size":       avgTradeSize(m.totalQuantity, m.totalTrades),
		"max_drawdown":             m.risk.maxDrawdown,
		"risk_breached":            m.risk.violated,
	}
	m.mu.Unlock()
	return writeSummaryJSON(path, out)
}
