// Package strategy hosts the trading strategies and the contract they
// implement toward the exchange.
//
// Every strategy owns one background goroutine started by Start and joined
// by Stop. Callbacks (OnMarketData, OnTrade) only record state; order
// submission happens from the background loop, never from inside a
// callback, and never while holding the strategy's own lock.
package strategy

import "github.com/marketforge/simex/internal/market"

// OrderSender submits and cancels orders on behalf of a strategy.
type OrderSender interface {
	SubmitOrder(market.Order) []market.Trade
	Cancel(instrument string, id uint64) bool
}

// BookReader exposes the top of book for quoting decisions.
type BookReader interface {
	BestBid() (market.Order, bool)
	BestAsk() (market.Order, bool)
}

// Strategy is the lifecycle and reporting contract every strategy honors.
type Strategy interface {
	Start()
	Stop()
	OnMarketData(market.Order)
	OnTrade(market.Trade)
	Name() string
	PrintSummary()
	ExportSummary(path string) error

	TotalTrades() uint64
	AverageTradeSize() float64
	MaxDrawdown() float64
	RealizedPnL() float64
	RiskViolated() bool
}
