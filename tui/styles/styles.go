// Package styles centralizes the dashboard's lipgloss styling.
package styles

import "github.com/charmbracelet/lipgloss"

var (
	bidGreen  = lipgloss.Color("#22C55E")
	askRed    = lipgloss.Color("#F87171")
	steel     = lipgloss.Color("#64748B")
	slate     = lipgloss.Color("#334155")
	ice       = lipgloss.Color("#E2E8F0")
	highlight = lipgloss.Color("#38BDF8")
	amber     = lipgloss.Color("#FBBF24")
)

var (
	PanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(slate).
			Padding(0, 1)

	FocusedPanelStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(highlight).
				Padding(0, 1)

	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(highlight).
			Padding(0, 1)

	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(steel)

	RowStyle = lipgloss.NewStyle().
			Foreground(ice)

	BuyStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(bidGreen)

	SellStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(askRed)

	TimeStyle = lipgloss.NewStyle().
			Foreground(steel)

	WarnStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(amber)

	StatusBarStyle = lipgloss.NewStyle().
			Foreground(steel).
			Padding(0, 1)

	StatusBarKeyStyle = lipgloss.NewStyle().
				Foreground(highlight).
				Bold(true)
)

// RenderTitle renders a panel title, highlighted when focused.
func RenderTitle(title string, focused bool) string {
	if focused {
		return TitleStyle.Foreground(amber).Render(title)
	}
	return TitleStyle.Render(title)
}
