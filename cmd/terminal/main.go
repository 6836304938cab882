package main

import (
	"errors"
	"flag"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/marketforge/simex/internal/sim"
	"github.com/marketforge/simex/tui"
)

func main() {
	os.Exit(run())
}

func run() int {
	strategyFlag := flag.String("strategy", "", "strategy to run: marketmaker, momentum, or arbitrage")
	fileFlag := flag.String("file", "", "market data CSV file")
	spreadFlag := flag.Float64("spread", 0.02, "arbitrage spread threshold")
	sizeFlag := flag.Int("size", 10, "arbitrage order size")
	riskFlag := flag.Float64("risk", -500.0, "maximum loss threshold")
	configFlag := flag.String("config", "config.json", "JSON config file")
	flag.Parse()

	// the terminal owns stdout; keep logs on stderr at warn and above
	logger := log.NewWithOptions(os.Stderr, log.Options{Level: log.WarnLevel})

	cfg := sim.DefaultConfig()
	if loaded, err := sim.LoadConfig(*configFlag); err == nil {
		cfg = loaded
	} else if !errors.Is(err, os.ErrNotExist) {
		logger.Warn("config file ignored", "path", *configFlag, "err", err)
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "strategy":
			cfg.Strategy = *strategyFlag
		case "file":
			cfg.File = *fileFlag
		case "spread":
			cfg.Spread = *spreadFlag
		case "size":
			cfg.Size = *sizeFlag
		case "risk":
			cfg.Risk = *riskFlag
		}
	})

	s, err := sim.New(cfg, logger)
	if err != nil {
		logger.Error("cannot start", "err", err)
		return 1
	}

	s.Start()
	defer s.Close()

	symbols := []string{cfg.Symbol}
	if cfg.SymbolB != "" && cfg.SymbolB != cfg.Symbol {
		symbols = append(symbols, cfg.SymbolB)
	}

	p := tea.NewProgram(tui.NewModel(s.Exchange, s.Strategy, symbols), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		logger.Error("terminal UI failed", "err", err)
		return 1
	}
	return 0
}
