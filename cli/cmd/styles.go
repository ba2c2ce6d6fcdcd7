// ABOUTME: Shared lipgloss styles for eonctl output
// ABOUTME: Renders status lines and bordered tables with a consistent palette

package cmd

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	// Colors
	primary   = lipgloss.Color("#7C3AED") // Purple
	secondary = lipgloss.Color("#10B981") // Green
	danger    = lipgloss.Color("#EF4444") // Red
	muted     = lipgloss.Color("#6B7280") // Gray

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primary)

	okStyle = lipgloss.NewStyle().
		Foreground(secondary).
		Bold(true)

	deniedStyle = lipgloss.NewStyle().
			Foreground(danger).
			Bold(true)

	mutedStyle = lipgloss.NewStyle().Foreground(muted)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primary).
			Padding(0, 1)

	cellStyle = lipgloss.NewStyle().Padding(0, 1)
)

// renderTable draws rows under headers with a rounded border.
func renderTable(headers []string, rows [][]string) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(mutedStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	return t.String()
}

// flag renders an action flag for tables.
func flag(granted bool) string {
	if granted {
		return okStyle.Render("yes")
	}
	return mutedStyle.Render("no")
}
