package styles

import "github.com/charmbracelet/lipgloss"

var (
	// Colors
	PrimaryColor = lipgloss.Color("#A78BFA") // Purple
	GreenColor   = lipgloss.Color("#10B981") // Green
	RedColor     = lipgloss.Color("#F87171") // Red
	YellowColor  = lipgloss.Color("#FBBF24") // Yellow
	BlueColor    = lipgloss.Color("#60A5FA") // Blue
	MutedColor   = lipgloss.Color("#9CA3AF") // Gray
	TextColor    = lipgloss.Color("#F9FAFB") // Light text
	BorderColor  = lipgloss.Color("#6B7280") // Gray

	// Convenience styles
	Primary = lipgloss.NewStyle().Foreground(PrimaryColor)
	Green   = lipgloss.NewStyle().Foreground(GreenColor)
	Red     = lipgloss.NewStyle().Foreground(RedColor)
	Yellow  = lipgloss.NewStyle().Foreground(YellowColor)
	Blue    = lipgloss.NewStyle().Foreground(BlueColor)
	Muted   = lipgloss.NewStyle().Foreground(MutedColor)
	Text    = lipgloss.NewStyle().Foreground(TextColor)

	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(PrimaryColor).
		MarginBottom(1)

	Panel = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(BorderColor).
		Padding(0, 1)
)
