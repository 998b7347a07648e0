package tui

import "github.com/charmbracelet/lipgloss"

// Row statuses.
const (
	StatusPending   = "pending"
	StatusComposing = "composing"
	StatusDone      = "done"
	StatusFailed    = "failed"
	StatusError     = "error"
)

var (
	// HeaderStyle styles the column header row.
	HeaderStyle = lipgloss.NewStyle().Bold(true)

	titleStyle = lipgloss.NewStyle().Bold(true).Underline(true)

	statusStyles = map[string]lipgloss.Style{
		StatusDone:      lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		StatusComposing: lipgloss.NewStyle().Foreground(lipgloss.Color("4")),
		StatusFailed:    lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		StatusError:     lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
		StatusPending:   lipgloss.NewStyle().Faint(true),
	}
)

// StatusStyle returns the lipgloss style for the given status string.
func StatusStyle(status string) lipgloss.Style {
	if s, ok := statusStyles[status]; ok {
		return s
	}
	return lipgloss.NewStyle()
}
