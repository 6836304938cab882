// Package exchange multiplexes orders across per-instrument books and fans
// trade reports out to registered strategies.
package exchange

import (
	"sort"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/marketforge/simex/internal/market"
	"github.com/marketforge/simex/internal/orderbook"
)

// Strategy is the callback surface the exchange drives. Implementations
// must not call back into the exchange from OnTrade or OnMarketData; they
// record state and submit from their own loops.
type Strategy interface {
	Start()
	Stop()
	OnMarketData(market.Order)
	OnTrade(market.Trade)
}

// bookEntry pairs a book with the submit mutex that serializes matching
// and trade broadcast for that instrument.
type bookEntry struct {
	book     *orderbook.Book
	submitMu sync.Mutex
}

// Exchange routes orders to per-instrument books, created lazily on first
// sight and never destroyed before shutdown.
type Exchange struct {
	cfg     Config
	logger  *log.Logger
	metrics *Metrics
	tape    *tradeTape

	mu         sync.Mutex
	books      map[string]*bookEntry
	strategies []Strategy
}

// New creates an exchange with no books and no strategies.
func New(cfg Config, logger *log.Logger) *Exchange {
	if cfg.TradeTapeSize <= 0 {
		cfg.TradeTapeSize = DefaultConfig().TradeTapeSize
	}
	if cfg.MetricsNamespace == "" {
		cfg.MetricsNamespace = DefaultConfig().MetricsNamespace
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Exchange{
		cfg:     cfg,
		logger:  logger.WithPrefix("exchange"),
		metrics: NewMetrics(cfg.MetricsNamespace),
		tape:    newTradeTape(cfg.TradeTapeSize),
		books:   map[string]*bookEntry{},
	}
}

// RegisterStrategy adds a strategy to the broadcast set.
func (e *Exchange) RegisterStrategy(s Strategy) {
	e.mu.Lock()
	e.strategies = append(e.strategies, s)
	e.mu.Unlock()
}

func (e *Exchange) entryFor(instrument string) *bookEntry {
	e.mu.Lock()
	defer e.mu.Unlock()
	entry, ok := e.books[instrument]
	if !ok {
		entry = &bookEntry{book: orderbook.New(instrument, e.logger)}
		e.books[instrument] = entry
		e.logger.Info("book created", "instrument", instrument)
	}
	return entry
}

func (e *Exchange) strategySnapshot() []Strategy {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Strategy, len(e.strategies))
	copy(out, e.strategies)
	return out
}

// SubmitOrder routes the order to its instrument's book and broadcasts each
// resulting trade to every registered strategy in trade-id order. Per
// instrument, submissions are serialized: a second call observes all
// effects of the first, including its broadcasts.
func (e *Exchange) SubmitOrder(o market.Order) []market.Trade {
	entry := e.entryFor(o.Instrument)

	entry.submitMu.Lock()
	defer entry.submitMu.Unlock()

	trades := entry.book.AddOrder(o)

	e.metrics.ordersSubmitted.Inc()
	e.metrics.restingOrders.WithLabelValues(o.Instrument).Set(float64(len(entry.book.Orders())))

	if len(trades) == 0 {
		return trades
	}

	strategies := e.strategySnapshot()
	for _, t := range trades {
		e.tape.append(t)
		e.metrics.tradesExecuted.Inc()
		for _, s := range strategies {
			s.OnTrade(t)
		}
	}
	return trades
}

// Cancel removes a resting order from the named instrument's book. It
// returns false for unknown instruments or ids.
func (e *Exchange) Cancel(instrument string, id uint64) bool {
	e.mu.Lock()
	entry, ok := e.books[instrument]
	e.mu.Unlock()
	if !ok {
		return false
	}
	if !entry.book.CancelOrder(id) {
		return false
	}
	e.metrics.ordersCanceled.Inc()
	return true
}

// OnMarketData delivers an external market event to every registered
// strategy for informational use.
func (e *Exchange) OnMarketData(o market.Order) {
	for _, s := range e.strategySnapshot() {
		s.OnMarketData(o)
	}
}

// Book returns the book for an instrument, creating it on first sight.
func (e *Exchange) Book(instrument string) *orderbook.Book {
	return e.entryFor(instrument).book
}

// Instruments returns the instruments with live books, sorted.
func (e *Exchange) Instruments() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, 0, len(e.books))
	for sym := range e.books {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}

// RecentTrades returns the last n trades across all books.
func (e *Exchange) RecentTrades(n int) []market.Trade {
	return e.tape.last(n)
}

// Metrics exposes the exchange's Prometheus instrumentation.
func (e *Exchange) Metrics() *Metrics {
	return e.metrics
}

// Start starts every registered strategy.
func (e *Exchange) Start() {
	for _, s := range e.strategySnapshot() {
		s.Start()
	}
}

// Stop stops every registered strategy, sequentially.
func (e *Exchange) Stop() {
	for _, s := range e.strategySnapshot() {
		s.Stop()
	}
}
