// Package orderbook implements a price-time-priority central limit order
// book for a single instrument. Each side is a price ladder sorted
// best-first; within a price, resting orders fill in arrival order.
package orderbook

import (
	"sync"

	"github.com/charmbracelet/log"
	"github.com/marketforge/simex/internal/market"
)

// Level is an aggregate view of one price level, for display and logging.
type Level struct {
	Price    float64
	Quantity uint64
	Orders   int
}

// Book is the order book for one instrument. All methods are safe for
// concurrent use. Matching, cancellation, and lookups are total: invalid
// inputs are no-ops rather than errors.
type Book struct {
	instrument string

	mu          sync.Mutex
	bids        *ladder
	asks        *ladder
	orders      map[uint64]*bookOrder // resting only
	nextTradeID uint64

	onTrade func(market.Trade)
	logger  *log.Logger
}

// New creates an empty book for the given instrument.
func New(instrument string, logger *log.Logger) *Book {
	if logger == nil {
		logger = log.Default()
	}
	return &Book{
		instrument:  instrument,
		bids:        newLadder(true),
		asks:        newLadder(false),
		orders:      map[uint64]*bookOrder{},
		nextTradeID: 1,
		logger:      logger.WithPrefix("book " + instrument),
	}
}

// Instrument returns the symbol this book trades.
func (b *Book) Instrument() string { return b.instrument }

// SetTradeCallback registers a callback invoked once per trade, in trade-id
// order, before AddOrder returns.
func (b *Book) SetTradeCallback(fn func(market.Trade)) {
	b.mu.Lock()
	b.onTrade = fn
	b.mu.Unlock()
}

// AddOrder matches the incoming order against the book and rests any limit
// residual. It returns the trades generated, possibly none. Zero-quantity
// orders are ignored.
func (b *Book) AddOrder(o market.Order) []market.Trade {
	if o.Quantity == 0 {
		return nil
	}

	b.mu.Lock()

	remaining := o.Quantity
	var trades []market.Trade
	if b.isAggressive(o) {
		trades = b.match(o, &remaining)
	}

	if o.Type == market.OrderTypeLimit && remaining > 0 {
		b.rest(o, remaining)
		b.logger.Debug("rested", "side", o.Side, "id", o.ID, "price", o.Price, "qty", remaining)
	}
	// market-order residual is dropped: there is no cancel-and-replace

	cb := b.onTrade
	b.mu.Unlock()

	if cb != nil {
		for _, t := range trades {
			cb(t)
		}
	}
	return trades
}

// isAggressive reports whether the order crosses the opposite book. Callers
// hold b.mu.
func (b *Book) isAggressive(o market.Order) bool {
	if o.Type == market.OrderTypeMarket {
		return true
	}
	if o.Side == market.SideBuy {
		best := b.asks.best()
		return best != nil && o.Price >= best.price
	}
	best := b.bids.best()
	return best != nil && o.Price <= best.price
}

// match walks the opposite ladder from the top, front of queue first,
// executing at the resting order's price. Callers hold b.mu.
func (b *Book) match(taker market.Order, remaining *uint32) []market.Trade {
	var trades []market.Trade

	opp := b.asks
	if taker.Side == market.SideSell {
		opp = b.bids
	}

	for *remaining > 0 {
		lv := opp.best()
		if lv == nil {
			break
		}

		if taker.Type == market.OrderTypeLimit {
			if taker.Side == market.SideBuy && lv.price > taker.Price {
				break
			}
			if taker.Side == market.SideSell && lv.price < taker.Price {
				break
			}
		}

		for *remaining > 0 && len(lv.queue) > 0 {
			maker := lv.queue[0]
			traded := *remaining
			if maker.remaining < traded {
				traded = maker.remaining
			}

			*remaining -= traded
			lv.fillFront(traded)

			buyID, sellID := taker.ID, maker.id
			if taker.Side == market.SideSell {
				buyID, sellID = maker.id, taker.ID
			}
			t := market.Trade{
				TradeID:     b.nextTradeID,
				BuyOrderID:  buyID,
				SellOrderID: sellID,
				Instrument:  b.instrument,
				Price:       lv.price,
				Quantity:    traded,
				Timestamp:   taker.Timestamp,
				Side:        taker.Side,
			}
			b.nextTradeID++
			trades = append(trades, t)

			b.logger.Debug("trade",
				"trade_id", t.TradeID, "price", t.Price, "qty", t.Quantity,
				"buy_id", t.BuyOrderID, "sell_id", t.SellOrderID)

			if maker.remaining == 0 {
				delete(b.orders, maker.id)
				lv.popFront()
			}
		}

		if len(lv.queue) == 0 {
			opp.dropBest()
		}
	}

	return trades
}

// rest queues the limit residual behind everything already at its price. A
// resting ID collision is dropped so the id map stays coherent. Callers
// hold b.mu.
func (b *Book) rest(o market.Order, remaining uint32) {
	if _, exists := b.orders[o.ID]; exists {
		b.logger.Warn("duplicate resting order id dropped", "id", o.ID)
		return
	}
	node := &bookOrder{
		id:        o.ID,
		side:      o.Side,
		price:     o.Price,
		remaining: remaining,
		placedAt:  o.Timestamp,
	}
	b.ladderFor(o.Side).place(node)
	b.orders[node.id] = node
}

func (b *Book) ladderFor(side market.Side) *ladder {
	if side == market.SideBuy {
		return b.bids
	}
	return b.asks
}

// CancelOrder removes a resting order. It returns false when the id is not
// resting in this book.
func (b *Book) CancelOrder(id uint64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	node, ok := b.orders[id]
	if !ok {
		return false
	}
	b.ladderFor(node.side).take(node)
	delete(b.orders, id)
	b.logger.Debug("canceled", "id", id)
	return true
}

// BestBid returns the front order of the highest bid level.
func (b *Book) BestBid() (market.Order, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.frontOf(b.bids)
}

// BestAsk returns the front order of the lowest ask level.
func (b *Book) BestAsk() (market.Order, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.frontOf(b.asks)
}

func (b *Book) frontOf(l *ladder) (market.Order, bool) {
	lv := l.best()
	if lv == nil || len(lv.queue) == 0 {
		return market.Order{}, false
	}
	return b.toOrder(lv.queue[0]), true
}

func (b *Book) toOrder(n *bookOrder) market.Order {
	return market.Order{
		ID:         n.id,
		Instrument: b.instrument,
		Type:       market.OrderTypeLimit,
		Side:       n.side,
		Price:      n.price,
		Quantity:   n.remaining,
		Timestamp:  n.placedAt,
	}
}

// Orders returns a snapshot of all resting orders keyed by id.
func (b *Book) Orders() map[uint64]market.Order {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make(map[uint64]market.Order, len(b.orders))
	for id, n := range b.orders {
		out[id] = b.toOrder(n)
	}
	return out
}

// Depth returns up to n aggregate levels for a side, best first.
func (b *Book) Depth(side market.Side, n int) []Level {
	b.mu.Lock()
	defer b.mu.Unlock()

	levels := b.ladderFor(side).levels
	if n <= 0 || n > len(levels) {
		n = len(levels)
	}
	out := make([]Level, 0, n)
	for _, lv := range levels[:n] {
		out = append(out, Level{Price: lv.price, Quantity: lv.open, Orders: len(lv.queue)})
	}
	return out
}
