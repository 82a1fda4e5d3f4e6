// Package tui is the terminal rendition of the body-map quiz: a crosshair
// over a character grid stands in for the pointer, and every command goes
// through the same quiz service as the HTTP API.
package tui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
)

// Palette
var (
	ColorInk     = lipgloss.Color("#1B2A41")
	ColorPaper   = lipgloss.Color("#F4F1EA")
	ColorAccent  = lipgloss.Color("#C0504D")
	ColorActive  = lipgloss.Color("#E9A23B")
	ColorMuted   = lipgloss.Color("#8C8C8C")
	ColorSuccess = lipgloss.Color("#5B8C5A")
	ColorBand    = lipgloss.Color("#D7D2C8")
)

// Styles holds every style the view uses.
type Styles struct {
	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Body     lipgloss.Style
	Muted    lipgloss.Style

	Grid      lipgloss.Style
	Cell      lipgloss.Style
	BandEdge  lipgloss.Style
	Cursor    lipgloss.Style
	Marker    lipgloss.Style
	Active    lipgloss.Style
	Panel     lipgloss.Style
	Option    lipgloss.Style
	Selected  lipgloss.Style
	Focused   lipgloss.Style
	ThemeHead lipgloss.Style
	Error     lipgloss.Style
	Link      lipgloss.Style
}

// DefaultStyles returns the standard styles. NO_COLOR disables colour.
func DefaultStyles() Styles {
	if os.Getenv("NO_COLOR") != "" {
		return PlainStyles()
	}
	return Styles{
		Title:    lipgloss.NewStyle().Bold(true).Foreground(ColorInk).Background(ColorPaper).Padding(0, 1),
		Subtitle: lipgloss.NewStyle().Foreground(ColorMuted).Italic(true),
		Body:     lipgloss.NewStyle(),
		Muted:    lipgloss.NewStyle().Foreground(ColorMuted),

		Grid:      lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(ColorMuted),
		Cell:      lipgloss.NewStyle().Foreground(ColorBand),
		BandEdge:  lipgloss.NewStyle().Foreground(ColorMuted),
		Cursor:    lipgloss.NewStyle().Bold(true).Foreground(ColorInk).Background(ColorActive),
		Marker:    lipgloss.NewStyle().Bold(true).Foreground(ColorAccent),
		Active:    lipgloss.NewStyle().Bold(true).Foreground(ColorActive),
		Panel:     lipgloss.NewStyle().Border(lipgloss.NormalBorder()).BorderForeground(ColorMuted).Padding(0, 1),
		Option:    lipgloss.NewStyle().Foreground(ColorMuted),
		Selected:  lipgloss.NewStyle().Foreground(ColorSuccess),
		Focused:   lipgloss.NewStyle().Bold(true).Underline(true),
		ThemeHead: lipgloss.NewStyle().Bold(true).Foreground(ColorAccent),
		Error:     lipgloss.NewStyle().Foreground(ColorAccent).Bold(true),
		Link:      lipgloss.NewStyle().Foreground(ColorInk).Underline(true),
	}
}

// PlainStyles renders without colour or decoration other than borders.
func PlainStyles() Styles {
	plain := lipgloss.NewStyle()
	return Styles{
		Title:     plain.Bold(true),
		Subtitle:  plain,
		Body:      plain,
		Muted:     plain,
		Grid:      plain.Border(lipgloss.NormalBorder()),
		Cell:      plain,
		BandEdge:  plain,
		Cursor:    plain.Reverse(true),
		Marker:    plain.Bold(true),
		Active:    plain.Bold(true),
		Panel:     plain.Border(lipgloss.NormalBorder()).Padding(0, 1),
		Option:    plain,
		Selected:  plain,
		Focused:   plain.Underline(true),
		ThemeHead: plain.Bold(true),
		Error:     plain.Bold(true),
		Link:      plain.Underline(true),
	}
}
