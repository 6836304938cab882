package market

import "sync/atomic"

// IDGenerator mints process-wide unique order IDs, starting at 1. The feed
// and every strategy share one instance; nothing else assigns order IDs.
type IDGenerator struct {
	n atomic.Uint64
}

// NewIDGenerator creates a generator whose first ID is 1.
func NewIDGenerator() *IDGenerator {
	return &IDGenerator{}
}

// Next returns the next order ID.
func (g *IDGenerator) Next() uint64 {
	return g.n.Add(1)
}
