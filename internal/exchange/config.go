package exchange

// Config holds configuration for the exchange dispatcher.
type Config struct {
	// TradeTapeSize is the capacity of the recent-trade tape.
	TradeTapeSize int
	// MetricsNamespace prefixes the Prometheus metric names.
	MetricsNamespace string
}

// DefaultConfig returns a Config with reasonable defaults.
func DefaultConfig() Config {
	return Config{
		TradeTapeSize:    1000,
		MetricsNamespace: "simex",
	}
}
