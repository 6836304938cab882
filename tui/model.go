// Package tui renders a live dashboard over a running simulation: book
// depth, the trade tape, and the hosted strategy's performance.
package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/marketforge/simex/internal/exchange"
	"github.com/marketforge/simex/internal/market"
	"github.com/marketforge/simex/internal/strategy"
	"github.com/marketforge/simex/tui/panels"
	"github.com/marketforge/simex/tui/styles"
)

const refreshInterval = 250 * time.Millisecond

type refreshMsg time.Time

// Model is the dashboard application model. It polls the exchange on a
// refresh tick and never submits or cancels orders; reading the selected
// symbol's book creates that book if the exchange has not seen it yet.
type Model struct {
	exchange *exchange.Exchange
	strat    strategy.Strategy
	symbols  []string
	selected int

	bookPanel   *panels.BookPanel
	tradesPanel *panels.TradesPanel
	statsPanel  *panels.StatsPanel

	width  int
	height int
}

// NewModel creates a dashboard over the given exchange and strategy.
func NewModel(ex *exchange.Exchange, strat strategy.Strategy, symbols []string) *Model {
	if len(symbols) == 0 {
		symbols = []string{"ETH-USD"}
	}
	return &Model{
		exchange:    ex,
		strat:       strat,
		symbols:     symbols,
		bookPanel:   panels.NewBookPanel(),
		tradesPanel: panels.NewTradesPanel(),
		statsPanel:  panels.NewStatsPanel(),
	}
}

// Init initializes the model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		m.bookPanel.Init(),
		m.tradesPanel.Init(),
		m.statsPanel.Init(),
		m.tickRefresh(),
	)
}

func (m *Model) tickRefresh() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return refreshMsg(t)
	})
}

// Update handles messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, key.NewBinding(key.WithKeys("q", "ctrl+c"))):
			return m, tea.Quit
		case key.Matches(msg, key.NewBinding(key.WithKeys("tab", "right", "l"))):
			m.selected = (m.selected + 1) % len(m.symbols)
		case key.Matches(msg, key.NewBinding(key.WithKeys("shift+tab", "left", "h"))):
			m.selected--
			if m.selected < 0 {
				m.selected = len(m.symbols) - 1
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		half := m.width/2 - 2
		m.bookPanel.SetSize(half, m.height-8)
		m.tradesPanel.SetSize(half, m.height-8)
		m.statsPanel.SetSize(m.width - 2)

	case refreshMsg:
		m.refresh()
		return m, m.tickRefresh()
	}

	return m, nil
}

func (m *Model) refresh() {
	sym := m.symbols[m.selected]
	book := m.exchange.Book(sym)
	m.bookPanel.SetData(sym, book.Depth(market.SideBuy, 10), book.Depth(market.SideSell, 10))
	m.tradesPanel.SetTrades(m.exchange.RecentTrades(12))
	m.statsPanel.SetStats(panels.StrategyStats{
		Name:         m.strat.Name(),
		RealizedPnL:  m.strat.RealizedPnL(),
		TotalTrades:  m.strat.TotalTrades(),
		AvgTradeSize: m.strat.AverageTradeSize(),
		MaxDrawdown:  m.strat.MaxDrawdown(),
		RiskViolated: m.strat.RiskViolated(),
	})
}

// View renders the dashboard.
func (m *Model) View() string {
	if m.width == 0 {
		return "loading..."
	}

	top := lipgloss.JoinHorizontal(lipgloss.Top, m.bookPanel.View(), m.tradesPanel.View())
	status := styles.StatusBarStyle.Render(
		styles.StatusBarKeyStyle.Render("tab") + " switch instrument  " +
			styles.StatusBarKeyStyle.Render("q") + " quit")

	return lipgloss.JoinVertical(lipgloss.Left, top, m.statsPanel.View(), status)
}
