package panels

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/marketforge/simex/tui/styles"
)

// StrategyStats is a snapshot of one strategy's reporting accessors.
type StrategyStats struct {
	Name         string
	RealizedPnL  float64
	TotalTrades  uint64
	AvgTradeSize float64
	MaxDrawdown  float64
	RiskViolated bool
}

// StatsPanel displays the hosted strategy's performance.
type StatsPanel struct {
	stats StrategyStats
	width int
}

// NewStatsPanel creates a new stats panel.
func NewStatsPanel() *StatsPanel {
	return &StatsPanel{}
}

// Init initializes the panel.
func (p *StatsPanel) Init() tea.Cmd { return nil }

// SetSize sets the panel width.
func (p *StatsPanel) SetSize(w int) {
	p.width = w
}

// SetStats replaces the displayed snapshot.
func (p *StatsPanel) SetStats(s StrategyStats) {
	p.stats = s
}

// View renders the panel.
func (p *StatsPanel) View() string {
	var content strings.Builder

	content.WriteString(styles.RenderTitle("Strategy "+p.stats.Name, false))
	content.WriteString("\n")

	pnl := fmt.Sprintf("%.2f", p.stats.RealizedPnL)
	if p.stats.RealizedPnL >= 0 {
		pnl = styles.BuyStyle.Render(pnl)
	} else {
		pnl = styles.SellStyle.Render(pnl)
	}

	content.WriteString(fmt.Sprintf("PnL: %s   Trades: %d   Avg Size: %.2f   Max Drawdown: %.2f",
		pnl, p.stats.TotalTrades, p.stats.AvgTradeSize, p.stats.MaxDrawdown))
	if p.stats.RiskViolated {
		content.WriteString("   ")
		content.WriteString(styles.WarnStyle.Render("RISK BREACHED"))
	}

	return styles.PanelStyle.Width(p.width).Render(content.String())
}
