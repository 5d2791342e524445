package main

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Monokai Pro palette, shared with the rest of the terminal tooling.
const (
	Red     = "#FF6188"
	Orange  = "#FC9867"
	Green   = "#A9DC76"
	Cyan    = "#78DCE8"
	Magenta = "#FF6188"
	Comment = "#727072"
)

var (
	SuccessStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(Green))
	ErrorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color(Red))
	WarningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(Orange))
	InfoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color(Cyan))
	DimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color(Comment))
	TitleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(Magenta))
)

// colorDiff styles a unified diff line by line.
func colorDiff(diff string) string {
	lines := strings.Split(strings.TrimRight(diff, "\n"), "\n")
	for i, line := range lines {
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
			lines[i] = TitleStyle.Render(line)
		case strings.HasPrefix(line, "@@"):
			lines[i] = InfoStyle.Render(line)
		case strings.HasPrefix(line, "+"):
			lines[i] = SuccessStyle.Render(line)
		case strings.HasPrefix(line, "-"):
			lines[i] = ErrorStyle.Render(line)
		default:
			lines[i] = DimStyle.Render(line)
		}
	}
	return strings.Join(lines, "\n") + "\n"
}
