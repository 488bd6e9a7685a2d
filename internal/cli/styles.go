package cli

import "github.com/charmbracelet/lipgloss"

var (
	uiTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	uiMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	uiErrorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
	uiOKStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	uiWarnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	uiPanelStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	uiSelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("230")).Background(lipgloss.Color("62")).Bold(true)
)
