package tui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")).
			Padding(0, 0, 1, 2)
	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Padding(0, 0, 0, 2)
	itemStyle = lipgloss.NewStyle().
			Padding(0, 0, 0, 2)
	cursorItemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Padding(0, 0, 0, 2)
	checkedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	partialStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	uncheckedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	lockedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Italic(true)
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Padding(0, 0, 0, 2)
	helpStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Padding(1, 0, 0, 2)
)
