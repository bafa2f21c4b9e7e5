package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/rodaine/table"
)

// NewTable creates a new table with consistent styling.
func NewTable(headers ...interface{}) table.Table {
	tbl := table.New(headers...)

	tbl.WithFirstColumnFormatter(func(format string, vals ...interface{}) string {
		return BoldStyle.Render(fmt.Sprintf(format, vals...))
	})

	tbl.WithPadding(2)

	// lipgloss.Width handles ANSI escape sequences in cell values.
	tbl.WithWidthFunc(lipgloss.Width)

	return tbl
}

// PrintSectionHeader prints a consistent section header.
func PrintSectionHeader(icon string, title string, count int) {
	fmt.Printf("\n%s %s (%d)\n", icon, title, count)
}
