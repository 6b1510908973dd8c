package tui

import "github.com/charmbracelet/lipgloss"

var (
	accent = lipgloss.Color("#5fafd7")
	muted  = lipgloss.AdaptiveColor{Light: "#626262", Dark: "#A49FA5"}
)

var (
	docStyle = lipgloss.NewStyle().Margin(1, 2)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#101820")).
			Background(accent).
			Bold(true).
			Padding(0, 1)

	editHeaderStyle = lipgloss.NewStyle().
			Foreground(accent).
			Padding(0, 1)

	panelStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(accent).
			Padding(0, 1)

	methodStyles = map[string]lipgloss.Style{
		"GET":    lipgloss.NewStyle().Foreground(lipgloss.Color("#56c271")),
		"POST":   lipgloss.NewStyle().Foreground(lipgloss.Color("#e0b34a")),
		"PUT":    lipgloss.NewStyle().Foreground(lipgloss.Color("#5fafd7")),
		"PATCH":  lipgloss.NewStyle().Foreground(lipgloss.Color("#af87d7")),
		"DELETE": lipgloss.NewStyle().Foreground(lipgloss.Color("#ff5f5f")),
	}

	helpTextStyle = lipgloss.NewStyle().Foreground(muted)

	statusMessageStyle   = lipgloss.NewStyle().Foreground(accent).Render
	completeMessageStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#56c271")).Render
	errorMessageStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff5f5f")).Render
)

// methodLabel renders an HTTP method padded to a fixed width.
func methodLabel(method string) string {
	style, ok := methodStyles[method]
	if !ok {
		style = lipgloss.NewStyle()
	}
	return style.Width(6).Render(method)
}
