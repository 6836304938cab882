package sim

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Config aggregates the settings for one simulation run. JSON fields match
// the config file; CLI flags override individual fields.
type Config struct {
	// Strategy selects the hosted strategy: marketmaker, momentum, or
	// arbitrage.
	Strategy string `json:"strategy"`
	// File is the market-data CSV replayed into the exchange.
	File string `json:"file"`
	// Symbol is the primary traded instrument.
	Symbol string `json:"symbol"`
	// SymbolB is the second leg for the arbitrage strategy.
	SymbolB string `json:"symbol_b"`
	// Spread is the arbitrage opportunity threshold.
	Spread float64 `json:"spread"`
	// Size is the arbitrage order size.
	Size int `json:"size"`
	// Risk is the maximum loss threshold (negative).
	Risk float64 `json:"risk"`
	// TickDelayMS is the replay pause between market-data rows.
	TickDelayMS int `json:"tick_delay_ms"`
	// MetricsAddr, when set, serves Prometheus metrics on this address.
	MetricsAddr string `json:"metrics_addr"`
	// LogDir receives the per-strategy CSV logs; empty disables them.
	LogDir string `json:"log_dir"`
	// SummaryPath receives the JSON summary at shutdown.
	SummaryPath string `json:"summary_path"`
}

// DefaultConfig returns a Config with reasonable defaults.
func DefaultConfig() Config {
	return Config{
		Symbol:      "ETH-USD",
		SymbolB:     "BTC-USD",
		Spread:      0.02,
		Size:        10,
		Risk:        -500.0,
		TickDelayMS: 10,
		LogDir:      "logs",
		SummaryPath: "logs/summary.json",
	}
}

// TickDelay returns the replay pause as a duration.
func (c Config) TickDelay() time.Duration {
	return time.Duration(c.TickDelayMS) * time.Millisecond
}

// LoadConfig reads a JSON config file over the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
