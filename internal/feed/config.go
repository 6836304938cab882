package feed

import "time"

// Config holds configuration for the market-data replay handler.
type Config struct {
	// TickDelay is the pause between replayed rows in Start mode.
	TickDelay time.Duration
}

// DefaultConfig returns a Config with reasonable defaults.
func DefaultConfig() Config {
	return Config{
		TickDelay: 10 * time.Millisecond,
	}
}
