package exchange

import (
	"sync"

	"github.com/marketforge/simex/internal/market"
)

// tradeTape keeps the most recent trades across all books, oldest first.
// Capacity is fixed; once full, each new trade shifts the oldest one out.
type tradeTape struct {
	mu     sync.Mutex
	limit  int
	trades []market.Trade
}

func newTradeTape(limit int) *tradeTape {
	if limit < 1 {
		limit = 1
	}
	return &tradeTape{
		limit:  limit,
		trades: make([]market.Trade, 0, limit),
	}
}

func (t *tradeTape) append(tr market.Trade) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.trades) == t.limit {
		copy(t.trades, t.trades[1:])
		t.trades[t.limit-1] = tr
		return
	}
	t.trades = append(t.trades, tr)
}

// last copies out up to n of the newest trades, oldest of those first.
func (t *tradeTape) last(n int) []market.Trade {
	t.mu.Lock()
	defer t.mu.Unlock()
	if n <= 0 || len(t.trades) == 0 {
		return nil
	}
	if n > len(t.trades) {
		n = len(t.trades)
	}
	out := make([]market.Trade, n)
	copy(out, t.trades[len(t.trades)-n:])
	return out
}
