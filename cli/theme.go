package cli

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// --- Kanagawa palette, dark and light variants ---
const (
	kanagawaDarkGreen     = "#98BB6C"
	kanagawaDarkYellow    = "#FF9E3B"
	kanagawaDarkRed       = "#FF5D62"
	kanagawaDarkOrange    = "#FFA066"
	kanagawaDarkCyan      = "#7E9CD8"
	kanagawaDarkBlue      = "#7FB4CA"
	kanagawaDarkViolet    = "#957FB8"
	kanagawaDarkMutedText = "#727169"

	kanagawaLightGreen     = "#4E7C5A"
	kanagawaLightYellow    = "#A68A64"
	kanagawaLightRed       = "#C34043"
	kanagawaLightOrange    = "#CC6B4E"
	kanagawaLightCyan      = "#5B8BBE"
	kanagawaLightBlue      = "#4F7CAC"
	kanagawaLightViolet    = "#674D7A"
	kanagawaLightMutedText = "#6C7086"
)

// Colors is the palette CLI output is drawn with.
type Colors struct {
	Green     lipgloss.TerminalColor
	Yellow    lipgloss.TerminalColor
	Red       lipgloss.TerminalColor
	Orange    lipgloss.TerminalColor
	Cyan      lipgloss.TerminalColor
	Blue      lipgloss.TerminalColor
	Violet    lipgloss.TerminalColor
	MutedText lipgloss.TerminalColor
}

// Theme holds the styles shared by help, error and log output.
type Theme struct {
	Colors Colors

	Success lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	Info    lipgloss.Style
	Muted   lipgloss.Style
	Italic  lipgloss.Style
	Accent  lipgloss.Style
}

// DefaultTheme is selected by SCRIBE_THEME ("kanagawa" or "terminal").
var DefaultTheme = NewTheme(os.Getenv("SCRIBE_THEME"))

// NewTheme builds the named theme, falling back to kanagawa.
func NewTheme(name string) *Theme {
	var colors Colors
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "terminal":
		// ANSI indexes so the terminal's own palette applies
		colors = Colors{
			Green:     lipgloss.Color("2"),
			Yellow:    lipgloss.Color("3"),
			Red:       lipgloss.Color("1"),
			Orange:    lipgloss.Color("9"),
			Cyan:      lipgloss.Color("6"),
			Blue:      lipgloss.Color("4"),
			Violet:    lipgloss.Color("5"),
			MutedText: lipgloss.Color("8"),
		}
	default:
		colors = Colors{
			Green:     lipgloss.AdaptiveColor{Light: kanagawaLightGreen, Dark: kanagawaDarkGreen},
			Yellow:    lipgloss.AdaptiveColor{Light: kanagawaLightYellow, Dark: kanagawaDarkYellow},
			Red:       lipgloss.AdaptiveColor{Light: kanagawaLightRed, Dark: kanagawaDarkRed},
			Orange:    lipgloss.AdaptiveColor{Light: kanagawaLightOrange, Dark: kanagawaDarkOrange},
			Cyan:      lipgloss.AdaptiveColor{Light: kanagawaLightCyan, Dark: kanagawaDarkCyan},
			Blue:      lipgloss.AdaptiveColor{Light: kanagawaLightBlue, Dark: kanagawaDarkBlue},
			Violet:    lipgloss.AdaptiveColor{Light: kanagawaLightViolet, Dark: kanagawaDarkViolet},
			MutedText: lipgloss.AdaptiveColor{Light: kanagawaLightMutedText, Dark: kanagawaDarkMutedText},
		}
	}

	return &Theme{
		Colors:  colors,
		Success: lipgloss.NewStyle().Foreground(colors.Green).Bold(true),
		Error:   lipgloss.NewStyle().Foreground(colors.Red).Bold(true),
		Warning: lipgloss.NewStyle().Foreground(colors.Yellow).Bold(true),
		Info:    lipgloss.NewStyle().Foreground(colors.Cyan).Bold(true),
		Muted:   lipgloss.NewStyle().Faint(true),
		Italic:  lipgloss.NewStyle().Foreground(colors.MutedText).Italic(true),
		Accent:  lipgloss.NewStyle().Foreground(colors.Violet).Bold(true),
	}
}
