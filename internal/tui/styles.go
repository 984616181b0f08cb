package tui

import "github.com/charmbracelet/lipgloss"

var (
	brand   = lipgloss.Color("#E4572E")
	success = lipgloss.Color("#8BC34A")
	danger  = lipgloss.Color("#E53935")
	muted   = lipgloss.Color("#8A8F98")
)

// Styles groups the lipgloss styles used by the views.
type Styles struct {
	Title     lipgloss.Style
	CartBadge lipgloss.Style
	Tab       lipgloss.Style
	ActiveTab lipgloss.Style
	Selected  lipgloss.Style
	Item      lipgloss.Style
	Muted     lipgloss.Style
	Total     lipgloss.Style
	Success   lipgloss.Style
	Error     lipgloss.Style
	Label     lipgloss.Style
}

// DefaultStyles returns the default theme.
func DefaultStyles() Styles {
	return Styles{
		Title:     lipgloss.NewStyle().Bold(true).Foreground(brand),
		CartBadge: lipgloss.NewStyle().Bold(true).Padding(0, 1).Foreground(lipgloss.Color("#FFFFFF")).Background(brand),
		Tab:       lipgloss.NewStyle().Padding(0, 1).Foreground(muted),
		ActiveTab: lipgloss.NewStyle().Padding(0, 1).Bold(true).Underline(true),
		Selected:  lipgloss.NewStyle().Bold(true).Foreground(brand),
		Item:      lipgloss.NewStyle(),
		Muted:     lipgloss.NewStyle().Foreground(muted),
		Total:     lipgloss.NewStyle().Bold(true),
		Success:   lipgloss.NewStyle().Foreground(success),
		Error:     lipgloss.NewStyle().Foreground(danger),
		Label:     lipgloss.NewStyle().Width(12).Foreground(muted),
	}
}
