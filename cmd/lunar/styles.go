package main

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	headerStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	leapStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	majorStyle  = lipgloss.NewStyle().Bold(true)
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
)

// pad right-pads s to width display cells. CJK text counts double.
func pad(s string, width int) string {
	if w := lipgloss.Width(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}

// row joins cells padded to the given widths, separated by two spaces.
func row(widths []int, cells ...string) string {
	var b strings.Builder
	for i, c := range cells {
		if i > 0 {
			b.WriteString("  ")
		}
		if i < len(widths) && i < len(cells)-1 {
			c = pad(c, widths[i])
		}
		b.WriteString(c)
	}
	return b.String()
}

// field renders one "label  value" line of a detail view.
func field(label, value string) string {
	return labelStyle.Render(pad(label, 10)) + value
}
