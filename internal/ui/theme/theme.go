// Package theme holds the terminal styles of the operator CLI.
package theme

import (
	"strings"

	"charm.land/lipgloss/v2"
)

// Palette, matching the LINE rich-menu colours.
var (
	Primary = lipgloss.Color("#06C755") // LINE green
	Accent  = lipgloss.Color("#F59E0B")
	Danger  = lipgloss.Color("#EF4444")
	Text    = lipgloss.Color("#F8FAFC")
	TextDim = lipgloss.Color("#94A3B8")
	Border  = lipgloss.Color("#334155")
	Track   = lipgloss.Color("#1E293B")

	Common    = lipgloss.Color("#9CA3AF")
	Rare      = lipgloss.Color("#3B82F6")
	Epic      = lipgloss.Color("#A855F7")
	Legendary = lipgloss.Color("#F59E0B")
)

var (
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary)

	Label = lipgloss.NewStyle().
		Foreground(TextDim)

	Value = lipgloss.NewStyle().
		Foreground(Text).
		Bold(true)

	Warn = lipgloss.NewStyle().
		Foreground(Danger).
		Bold(true)

	Card = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Border).
		Padding(1, 2)

	BarFilled = lipgloss.NewStyle().Foreground(Primary)
	BarEmpty  = lipgloss.NewStyle().Foreground(Track)
)

// RarityStyle colours a gacha rarity name.
func RarityStyle(rarity string) lipgloss.Style {
	s := lipgloss.NewStyle().Bold(true)
	switch rarity {
	case "rare":
		return s.Foreground(Rare)
	case "epic":
		return s.Foreground(Epic)
	case "legendary":
		return s.Foreground(Legendary)
	}
	return s.Foreground(Common)
}

// Bar renders a progress bar width cells wide. fraction is clamped to [0, 1].
func Bar(width int, fraction float64) string {
	if width <= 0 {
		return ""
	}
	fraction = min(max(fraction, 0), 1)
	filled := int(fraction*float64(width) + 0.5)
	return BarFilled.Render(strings.Repeat("█", filled)) +
		BarEmpty.Render(strings.Repeat("░", width-filled))
}
