// Package feed replays tick-level market data from a CSV file, minting one
// order per well-formed row.
//
// Format: timestamp,symbol,side,price,quantity,type — with an optional
// header line detected by the literal "timestamp" in the first row.
package feed

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/marketforge/simex/internal/market"
)

// OrderCallback receives each parsed order.
type OrderCallback func(market.Order)

// Handler reads a tick file and emits orders on a background goroutine.
type Handler struct {
	path   string
	cfg    Config
	ids    *market.IDGenerator
	logger *log.Logger

	closed    chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// New creates a Handler replaying the file at path. Orders get their IDs
// from the shared generator.
func New(path string, cfg Config, ids *market.IDGenerator, logger *log.Logger) *Handler {
	if cfg.TickDelay <= 0 {
		cfg.TickDelay = DefaultConfig().TickDelay
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Handler{
		path:   path,
		cfg:    cfg,
		ids:    ids,
		logger: logger.WithPrefix("feed"),
		closed: make(chan struct{}),
	}
}

// Start launches the replay goroutine. Each row is delivered to cb with a
// pause of TickDelay between rows. A file-open failure is logged and the
// feed produces nothing.
func (h *Handler) Start(cb OrderCallback) {
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		h.replay(cb, true)
	}()
}

// Stop signals the replay goroutine and waits for it to exit.
func (h *Handler) Stop() {
	h.closeOnce.Do(func() {
		close(h.closed)
	})
	h.wg.Wait()
}

// Load replays the whole file synchronously with no inter-row delay. Used
// by tests.
func (h *Handler) Load(cb OrderCallback) error {
	return h.replay(cb, false)
}

func (h *Handler) replay(cb OrderCallback, paced bool) error {
	f, err := os.Open(h.path)
	if err != nil {
		h.logger.Error("failed to open market data file", "path", h.path, "err", err)
		return fmt.Errorf("open market data: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // row width is validated below, not by the reader

	first := true
	for {
		select {
		case <-h.closed:
			return nil
		default:
		}

		fields, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			h.logger.Warn("skipping malformed line", "err", err)
			continue
		}

		if first {
			first = false
			if isHeader(fields) {
				continue
			}
		}

		o, err := h.parseRecord(fields)
		if err != nil {
			h.logger.Warn("skipping malformed line", "line", strings.Join(fields, ","), "err", err)
			continue
		}
		cb(o)
		h.logger.Debug("order parsed",
			"instrument", o.Instrument, "side", o.Side, "price", o.Price,
			"qty", o.Quantity, "ts", o.Timestamp)

		if paced {
			select {
			case <-h.closed:
				return nil
			case <-time.After(h.cfg.TickDelay):
			}
		}
	}

	h.logger.Info("finished processing market data file", "path", h.path)
	return nil
}

func isHeader(fields []string) bool {
	for _, f := range fields {
		if strings.Contains(f, "timestamp") {
			return true
		}
	}
	return false
}

func (h *Handler) parseRecord(fields []string) (market.Order, error) {
	if len(fields) != 6 {
		return market.Order{}, fmt.Errorf("invalid field count %d", len(fields))
	}

	ts, err := strconv.ParseInt(strings.TrimSpace(fields[0]), 10, 64)
	if err != nil {
		return market.Order{}, fmt.Errorf("timestamp: %w", err)
	}
	symbol := strings.TrimSpace(fields[1])
	side := market.ParseSide(strings.TrimSpace(fields[2]))
	price, err := strconv.ParseFloat(strings.TrimSpace(fields[3]), 64)
	if err != nil {
		return market.Order{}, fmt.Errorf("price: %w", err)
	}
	qty, err := strconv.ParseUint(strings.TrimSpace(fields[4]), 10, 32)
	if err != nil {
		return market.Order{}, fmt.Errorf("quantity: %w", err)
	}
	typ := market.ParseOrderType(strings.TrimSpace(fields[5]))

	return market.Order{
		ID:         h.ids.Next(),
		Instrument: symbol,
		Type:       typ,
		Side:       side,
		Price:      price,
		Quantity:   uint32(qty),
		Timestamp:  ts,
	}, nil
}
