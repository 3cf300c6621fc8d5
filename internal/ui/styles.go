// Package ui renders pipeline progress on the terminal: a spinner while an
// LLM call is in flight, markdown panels for stage output and tables for
// run history.
package ui

import (
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	ColorInk    = lipgloss.Color("#101F38")
	ColorPaper  = lipgloss.Color("#f2f2f2")
	ColorLime   = lipgloss.Color("#8BC34A")
	ColorMuted  = lipgloss.Color("#7a8699")
	ColorBorder = lipgloss.Color("#2a3850")

	ColorError   = lipgloss.Color("#e53935")
	ColorWarning = lipgloss.Color("#FFC107")
	ColorInfo    = lipgloss.Color("#2196F3")
)

// Theme is the active palette.
type Theme struct {
	Foreground lipgloss.Color
	Primary    lipgloss.Color
	Muted      lipgloss.Color
	Border     lipgloss.Color
	IsDark     bool
}

// LightTheme is ink on a light background.
func LightTheme() Theme {
	return Theme{Foreground: ColorInk, Primary: ColorInk, Muted: ColorMuted, Border: ColorBorder}
}

// DarkTheme uses lime accents on a dark background.
func DarkTheme() Theme {
	return Theme{Foreground: ColorPaper, Primary: ColorLime, Muted: ColorMuted, Border: ColorLime, IsDark: true}
}

// DetectTheme picks dark mode from COLORFGBG ("fg;bg") or TECHWRITER_DARK_MODE=1.
func DetectTheme() Theme {
	if parts := strings.Split(os.Getenv("COLORFGBG"), ";"); len(parts) == 2 {
		// ANSI 0-6 and 8 are dark backgrounds
		if bg, err := strconv.Atoi(parts[1]); err == nil && ((bg >= 0 && bg <= 6) || bg == 8) {
			return DarkTheme()
		}
	}
	if os.Getenv("TECHWRITER_DARK_MODE") == "1" {
		return DarkTheme()
	}
	return LightTheme()
}

// Styles holds the rendered components.
type Styles struct {
	Theme Theme

	Title   lipgloss.Style
	Body    lipgloss.Style
	Muted   lipgloss.Style
	Bold    lipgloss.Style
	Panel   lipgloss.Style
	Spinner lipgloss.Style

	Success lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	Info    lipgloss.Style
}

// NewStyles builds every style from theme.
func NewStyles(theme Theme) Styles {
	return Styles{
		Theme: theme,

		Title: lipgloss.NewStyle().
			Foreground(theme.Primary).
			Bold(true),

		Body: lipgloss.NewStyle().
			Foreground(theme.Foreground),

		Muted: lipgloss.NewStyle().
			Foreground(theme.Muted),

		Bold: lipgloss.NewStyle().
			Foreground(theme.Foreground).
			Bold(true),

		Panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(theme.Border).
			Padding(0, 1),

		Spinner: lipgloss.NewStyle().
			Foreground(ColorLime),

		Success: lipgloss.NewStyle().
			Foreground(ColorLime).
			Bold(true),

		Error: lipgloss.NewStyle().
			Foreground(ColorError).
			Bold(true),

		Warning: lipgloss.NewStyle().
			Foreground(ColorWarning).
			Bold(true),

		Info: lipgloss.NewStyle().
			Foreground(ColorInfo),
	}
}

// DefaultStyles uses the detected theme.
func DefaultStyles() Styles {
	return NewStyles(DetectTheme())
}
