package ui

import "github.com/charmbracelet/lipgloss"

// Theme holds the colors and base styles shared by every component. Styles
// are built from Renderer so tests can render without a terminal.
type Theme struct {
	Renderer *lipgloss.Renderer

	Primary   lipgloss.AdaptiveColor
	Secondary lipgloss.AdaptiveColor
	Highlight lipgloss.AdaptiveColor
	Muted     lipgloss.AdaptiveColor
	Subtext   lipgloss.AdaptiveColor
	Border    lipgloss.AdaptiveColor
	Info      lipgloss.AdaptiveColor
	Success   lipgloss.AdaptiveColor
	Warning   lipgloss.AdaptiveColor
	Danger    lipgloss.AdaptiveColor

	Base     lipgloss.Style
	Selected lipgloss.Style
	Dimmed   lipgloss.Style
}

// DefaultTheme returns the Dracula palette with light-terminal fallbacks.
func DefaultTheme(r *lipgloss.Renderer) Theme {
	t := Theme{
		Renderer: r,

		Primary:   lipgloss.AdaptiveColor{Light: "#7D56F4", Dark: "#BD93F9"},
		Secondary: lipgloss.AdaptiveColor{Light: "#5A5A5A", Dark: "#6272A4"},
		Highlight: lipgloss.AdaptiveColor{Light: "#B8006B", Dark: "#FF79C6"},
		Muted:     lipgloss.AdaptiveColor{Light: "#A0A0A0", Dark: "#6272A4"},
		Subtext:   lipgloss.AdaptiveColor{Light: "#555555", Dark: "#BFBFBF"},
		Border:    lipgloss.AdaptiveColor{Light: "#DDDDDD", Dark: "#44475A"},
		Info:      lipgloss.AdaptiveColor{Light: "#006080", Dark: "#8BE9FD"},
		Success:   lipgloss.AdaptiveColor{Light: "#007700", Dark: "#50FA7B"},
		Warning:   lipgloss.AdaptiveColor{Light: "#B36B00", Dark: "#FFB86C"},
		Danger:    lipgloss.AdaptiveColor{Light: "#CC0000", Dark: "#FF5555"},
	}

	t.Base = r.NewStyle().
		Foreground(lipgloss.AdaptiveColor{Light: "#1A1A1A", Dark: "#F8F8F2"})
	t.Selected = r.NewStyle().
		Background(lipgloss.AdaptiveColor{Light: "#EEEEEE", Dark: "#44475A"}).
		Bold(true)
	t.Dimmed = r.NewStyle().
		Foreground(t.Muted).
		Faint(true)
	return t
}
