package orderbook

import (
	"sort"

	"github.com/marketforge/simex/internal/market"
)

// bookOrder is the book's mutable record of one resting order. The public
// API only ever hands out market.Order copies built from it.
type bookOrder struct {
	id        uint64
	side      market.Side
	price     float64
	remaining uint32
	placedAt  int64
}

// priceLevel groups the resting orders at one price. The queue is FIFO:
// index 0 fills first, newcomers go on the end.
type priceLevel struct {
	price float64
	queue []*bookOrder
	open  uint64 // sum of remaining across the queue
}

// ladder is one side of the book: price levels kept sorted best-first,
// descending for bids and ascending for asks. Price count per instrument
// stays small in replay, so ordered-slice insertion beats the bookkeeping
// of a tree here.
type ladder struct {
	desc   bool
	levels []*priceLevel
}

func newLadder(desc bool) *ladder {
	return &ladder{desc: desc}
}

// rank returns the position where price belongs, with better prices first.
// If the price already has a level, rank points at it.
func (l *ladder) rank(price float64) int {
	return sort.Search(len(l.levels), func(i int) bool {
		if l.desc {
			return l.levels[i].price <= price
		}
		return l.levels[i].price >= price
	})
}

// best returns the top level, or nil when the side is empty.
func (l *ladder) best() *priceLevel {
	if len(l.levels) == 0 {
		return nil
	}
	return l.levels[0]
}

// place queues the order at its price, creating the level if needed.
func (l *ladder) place(o *bookOrder) {
	i := l.rank(o.price)
	if i < len(l.levels) && l.levels[i].price == o.price {
		lv := l.levels[i]
		lv.queue = append(lv.queue, o)
		lv.open += uint64(o.remaining)
		return
	}
	lv := &priceLevel{price: o.price, queue: []*bookOrder{o}, open: uint64(o.remaining)}
	l.levels = append(l.levels, nil)
	copy(l.levels[i+1:], l.levels[i:])
	l.levels[i] = lv
}

// fillFront consumes qty from the front order of the level.
func (lv *priceLevel) fillFront(qty uint32) {
	lv.queue[0].remaining -= qty
	lv.open -= uint64(qty)
}

// popFront drops the (exhausted) front order from the level's queue.
func (lv *priceLevel) popFront() {
	lv.queue[0] = nil
	lv.queue = lv.queue[1:]
}

// dropBest removes the top level once its queue has drained.
func (l *ladder) dropBest() {
	l.levels[0] = nil
	l.levels = l.levels[1:]
}

// take removes a specific order from its level, pruning the level when it
// empties. It reports whether the order was found at that price.
func (l *ladder) take(o *bookOrder) bool {
	i := l.rank(o.price)
	if i >= len(l.levels) || l.levels[i].price != o.price {
		return false
	}
	lv := l.levels[i]
	for j, q := range lv.queue {
		if q.id != o.id {
			continue
		}
		lv.queue = append(lv.queue[:j], lv.queue[j+1:]...)
		lv.open -= uint64(o.remaining)
		if len(lv.queue) == 0 {
			l.levels = append(l.levels[:i], l.levels[i+1:]...)
		}
		return true
	}
	return false
}
