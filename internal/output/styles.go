package output

import "github.com/charmbracelet/lipgloss"

// Color palette, lime accent.
const (
	ColorLime = "154" // Primary accent
	ColorRed  = "196" // Errors
)

// Styles holds the lipgloss styles used by Writer.
type Styles struct {
	Success  lipgloss.Style
	Error    lipgloss.Style
	Progress lipgloss.Style
}

// DefaultStyles returns the colored styles.
func DefaultStyles() Styles {
	return Styles{
		Success:  lipgloss.NewStyle().Foreground(lipgloss.Color(ColorLime)),
		Error:    lipgloss.NewStyle().Foreground(lipgloss.Color(ColorRed)),
		Progress: lipgloss.NewStyle().Foreground(lipgloss.Color(ColorLime)),
	}
}

// NoColorStyles returns unstyled components for plain mode.
func NoColorStyles() Styles {
	return Styles{
		Success:  lipgloss.NewStyle(),
		Error:    lipgloss.NewStyle(),
		Progress: lipgloss.NewStyle(),
	}
}

// GetStyles returns the appropriate styles based on color preference.
func GetStyles(noColor bool) Styles {
	if noColor {
		return NoColorStyles()
	}
	return DefaultStyles()
}
