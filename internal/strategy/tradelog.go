package strategy

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// tradeLog appends rows to a per-strategy CSV file. A nil *tradeLog is a
// valid no-op sink, which is how logging is disabled.
type tradeLog struct {
	mu sync.Mutex
	f  *os.File
	w  *csv.Writer
}

func newTradeLog(path string, header []string) (*tradeLog, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("open trade log: %w", err)
	}
	l := &tradeLog{f: f, w: csv.NewWriter(f)}
	if err := l.w.Write(header); err != nil {
		f.Close()
		return nil, fmt.Errorf("write header: %w", err)
	}
	return l, nil
}

func (l *tradeLog) write(record []string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.w.Write(record)
	l.w.Flush()
}

func (l *tradeLog) close() {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.w.Flush()
	l.f.Close()
}
