package strategy

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// writeSummaryJSON marshals a strategy summary to the given path, creating
// parent directories as needed.
func writeSummaryJSON(path string, v any) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create summary dir: %w", err)
		}
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	return nil
}

func avgTradeSize(totalQuantity, totalTrades uint64) float64 {
	if totalTrades == 0 {
		return 0
	}
	return float64(totalQuantity) / float64(totalTrades)
}
