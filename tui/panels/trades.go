package panels

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/marketforge/simex/internal/market"
	"github.com/marketforge/simex/tui/styles"
)

// TradesPanel displays the recent-trade tape.
type TradesPanel struct {
	trades  []market.Trade
	width   int
	height  int
	maxRows int
}

// NewTradesPanel creates a new trades panel.
func NewTradesPanel() *TradesPanel {
	return &TradesPanel{maxRows: 12}
}

// Init initializes the panel.
func (p *TradesPanel) Init() tea.Cmd { return nil }

// SetSize sets the panel dimensions.
func (p *TradesPanel) SetSize(w, h int) {
	p.width = w
	p.height = h
}

// SetTrades replaces the displayed tape, newest last.
func (p *TradesPanel) SetTrades(trades []market.Trade) {
	p.trades = trades
}

// View renders the panel.
func (p *TradesPanel) View() string {
	var content strings.Builder

	content.WriteString(styles.RenderTitle("Trades", false))
	content.WriteString("\n")
	content.WriteString(styles.HeaderStyle.Render(
		fmt.Sprintf("%6s %-9s %5s %10s %6s", "ID", "Instr", "Side", "Price", "Qty")))
	content.WriteString("\n")

	trades := p.trades
	if len(trades) > p.maxRows {
		trades = trades[len(trades)-p.maxRows:]
	}
	if len(trades) == 0 {
		content.WriteString(styles.TimeStyle.Render("  (no trades yet)"))
	}

	for _, t := range trades {
		row := fmt.Sprintf("%6d %-9s %5s %10.2f %6d", t.TradeID, t.Instrument, t.Side, t.Price, t.Quantity)
		if t.Side == market.SideBuy {
			content.WriteString(styles.BuyStyle.Render(row))
		} else {
			content.WriteString(styles.SellStyle.Render(row))
		}
		content.WriteString("\n")
	}

	return styles.PanelStyle.Width(p.width).Render(content.String())
}
