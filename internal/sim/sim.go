// Package sim wires the feed, the exchange, and the selected strategy into
// one runnable simulation.
package sim

import (
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/marketforge/simex/internal/exchange"
	"github.com/marketforge/simex/internal/feed"
	"github.com/marketforge/simex/internal/market"
	"github.com/marketforge/simex/internal/strategy"
)

// ErrUnknownStrategy is returned by New for an unrecognized strategy name.
var ErrUnknownStrategy = errors.New("unknown strategy")

// Sim owns the simulation subsystems and manages their lifecycle.
type Sim struct {
	Exchange *exchange.Exchange
	Feed     *feed.Handler
	Strategy strategy.Strategy
	IDs      *market.IDGenerator

	cfg     Config
	logger  *log.Logger
	metrics *http.Server

	mu      sync.Mutex
	started bool
}

// New builds a simulation from the config. The strategy name must be one
// of marketmaker, momentum, or arbitrage.
func New(cfg Config, logger *log.Logger) (*Sim, error) {
	if logger == nil {
		logger = log.Default()
	}

	ids := market.NewIDGenerator()
	ex := exchange.New(exchange.DefaultConfig(), logger)

	var strat strategy.Strategy
	switch cfg.Strategy {
	case "marketmaker":
		mmCfg := strategy.DefaultMarketMakerConfig(cfg.Symbol, cfg.Risk)
		mmCfg.LogDir = cfg.LogDir
		strat = strategy.NewMarketMaker(mmCfg, ex, ex.Book(cfg.Symbol), ids, logger)
	case "momentum":
		moCfg := strategy.DefaultMomentumConfig(cfg.Symbol, cfg.Risk)
		moCfg.LogDir = cfg.LogDir
		strat = strategy.NewMomentumTrader(moCfg, ex, ids, logger)
	case "arbitrage":
		arbCfg := strategy.DefaultArbitrageConfig(cfg.Symbol, cfg.SymbolB, cfg.Risk)
		arbCfg.Spread = cfg.Spread
		arbCfg.OrderSize = uint32(cfg.Size)
		arbCfg.LogDir = cfg.LogDir
		strat = strategy.NewArbitrageTrader(arbCfg, ex, ids, logger)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, cfg.Strategy)
	}
	ex.RegisterStrategy(strat)

	h := feed.New(cfg.File, feed.Config{TickDelay: cfg.TickDelay()}, ids, logger)

	s := &Sim{
		Exchange: ex,
		Feed:     h,
		Strategy: strat,
		IDs:      ids,
		cfg:      cfg,
		logger:   logger.WithPrefix("sim"),
	}
	if cfg.MetricsAddr != "" {
		s.metrics = &http.Server{Addr: cfg.MetricsAddr, Handler: ex.Metrics().Handler()}
	}
	return s, nil
}

// Start launches the strategy and the market-data replay. Each replayed
// event is submitted to the exchange and then delivered to strategies as
// market data.
func (s *Sim) Start() {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.mu.Unlock()

	s.logger.Info("starting",
		"strategy", s.Strategy.Name(), "file", s.cfg.File,
		"spread", s.cfg.Spread, "size", s.cfg.Size, "risk", s.cfg.Risk)

	if s.metrics != nil {
		go func() {
			if err := s.metrics.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				s.logger.Error("metrics listener failed", "err", err)
			}
		}()
	}

	s.Exchange.Start()
	s.Feed.Start(func(o market.Order) {
		s.Exchange.SubmitOrder(o)
		s.Exchange.OnMarketData(o)
	})
}

// Close shuts everything down in reverse dependency order: feed first so
// no new orders arrive, then the strategies.
func (s *Sim) Close() {
	s.Feed.Stop()
	s.Exchange.Stop()
	if s.metrics != nil {
		s.metrics.Close()
	}
	s.logger.Info("shutdown complete")
}
