package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"

	"github.com/marketforge/simex/internal/sim"
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
	metricsFlag := flag.String("metrics", "", "prometheus listen address, e.g. :9100")
	flag.Parse()

	logger := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true})

	cfg := sim.DefaultConfig()
	if loaded, err := sim.LoadConfig(*configFlag); err == nil {
		cfg = loaded
	} else if !errors.Is(err, os.ErrNotExist) {
		logger.Warn("config file ignored", "path", *configFlag, "err", err)
	}

	// explicit flags win over the config file
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
		case "metrics":
			cfg.MetricsAddr = *metricsFlag
		}
	})

	s, err := sim.New(cfg, logger)
	if err != nil {
		logger.Error("cannot start", "err", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s.Start()
	<-ctx.Done()
	logger.Info("interrupt received, shutting down")
	s.Close()

	s.Strategy.PrintSummary()
	if cfg.SummaryPath != "" {
		if err := s.Strategy.ExportSummary(cfg.SummaryPath); err != nil {
			logger.Error("summary export failed", "err", err)
		}
	}
	return 0
}
