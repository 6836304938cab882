package panels

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/marketforge/simex/internal/orderbook"
	"github.com/marketforge/simex/tui/styles"
)

// BookPanel displays aggregate depth for the selected instrument.
type BookPanel struct {
	symbol    string
	bids      []orderbook.Level
	asks      []orderbook.Level
	width     int
	height    int
	maxLevels int
}

// NewBookPanel creates a new book panel.
func NewBookPanel() *BookPanel {
	return &BookPanel{maxLevels: 10}
}

// Init initializes the panel.
func (p *BookPanel) Init() tea.Cmd { return nil }

// SetSize sets the panel dimensions.
func (p *BookPanel) SetSize(w, h int) {
	p.width = w
	p.height = h
}

// SetData replaces the displayed depth.
func (p *BookPanel) SetData(symbol string, bids, asks []orderbook.Level) {
	p.symbol = symbol
	p.bids = bids
	p.asks = asks
}

// View renders the panel.
func (p *BookPanel) View() string {
	var content strings.Builder

	content.WriteString(styles.RenderTitle("Book "+p.symbol, false))
	content.WriteString("\n")

	header := fmt.Sprintf("%8s %10s │ %-10s %-8s", "BidQty", "Bid", "Ask", "AskQty")
	content.WriteString(styles.HeaderStyle.Render(header))
	content.WriteString("\n")

	bids := p.bids
	if len(bids) > p.maxLevels {
		bids = bids[:p.maxLevels]
	}
	asks := p.asks
	if len(asks) > p.maxLevels {
		asks = asks[:p.maxLevels]
	}

	rows := len(bids)
	if len(asks) > rows {
		rows = len(asks)
	}
	if rows == 0 {
		content.WriteString(styles.TimeStyle.Render("  (empty book)"))
	}

	for i := 0; i < rows; i++ {
		bidPart := fmt.Sprintf("%8s %10s", "", "")
		askPart := fmt.Sprintf("%-10s %-8s", "", "")
		if i < len(bids) {
			bidPart = fmt.Sprintf("%8d %10.2f", bids[i].Quantity, bids[i].Price)
		}
		if i < len(asks) {
			askPart = fmt.Sprintf("%-10.2f %-8d", asks[i].Price, asks[i].Quantity)
		}
		content.WriteString(styles.BuyStyle.Render(bidPart))
		content.WriteString(" │ ")
		content.WriteString(styles.SellStyle.Render(askPart))
		content.WriteString("\n")
	}

	return styles.PanelStyle.Width(p.width).Render(content.String())
}
