package cli

import "github.com/charmbracelet/lipgloss"

var (
	colorCyan   = lipgloss.Color("36")  // primary
	colorGreen  = lipgloss.Color("35")  // success
	colorYellow = lipgloss.Color("220") // deferred
	colorRed    = lipgloss.Color("167") // failure
	colorDim    = lipgloss.Color("240") // muted
)

var (
	styleTitle    = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	styleLabel    = lipgloss.NewStyle().Foreground(colorDim)
	styleSuccess  = lipgloss.NewStyle().Foreground(colorGreen).Bold(true)
	styleFailure  = lipgloss.NewStyle().Foreground(colorRed).Bold(true)
	styleDeferred = lipgloss.NewStyle().Foreground(colorYellow).Bold(true)
)
