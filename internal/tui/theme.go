package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// cssColors covers the names an agent is likely to pick for setThemeColor.
// Anything else is handed to lipgloss as-is (hex or ANSI index).
var cssColors = map[string]string{
	"black":   "#000000",
	"white":   "#ffffff",
	"red":     "#ef4444",
	"orange":  "#f97316",
	"yellow":  "#eab308",
	"green":   "#22c55e",
	"teal":    "#14b8a6",
	"cyan":    "#06b6d4",
	"blue":    "#3b82f6",
	"indigo":  "#6366f1",
	"purple":  "#a855f7",
	"violet":  "#8b5cf6",
	"pink":    "#ec4899",
	"magenta": "#d946ef",
	"gray":    "#6b7280",
	"grey":    "#6b7280",
}

func resolveColor(raw string) lipgloss.Color {
	value := strings.ToLower(strings.TrimSpace(raw))
	value = strings.ReplaceAll(value, " ", "")
	for _, prefix := range []string{"nice", "light", "dark", "deep"} {
		if trimmed, ok := strings.CutPrefix(value, prefix); ok && cssColors[trimmed] != "" {
			value = trimmed
		}
	}
	if hex, ok := cssColors[value]; ok {
		return lipgloss.Color(hex)
	}
	return lipgloss.Color(strings.TrimSpace(raw))
}

type theme struct {
	name   string
	accent lipgloss.Color

	header      lipgloss.Style
	lane        lipgloss.Style
	laneHover   lipgloss.Style
	laneTitle   lipgloss.Style
	card        lipgloss.Style
	cardActive  lipgloss.Style
	cardDrag    lipgloss.Style
	doneTitle   lipgloss.Style
	muted       lipgloss.Style
	danger      lipgloss.Style
	panel       lipgloss.Style
	panelTitle  lipgloss.Style
	chatUser    lipgloss.Style
	chatAgent   lipgloss.Style
	chatTool    lipgloss.Style
	modal       lipgloss.Style
	placeholder lipgloss.Style
}

func newTheme(color string) theme {
	accent := resolveColor(color)
	border := lipgloss.Color("#444444")
	return theme{
		name:   strings.TrimSpace(color),
		accent: accent,
		header: lipgloss.NewStyle().
			Bold(true).
			Foreground(accent),
		lane: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(border).
			Padding(0, 1),
		laneHover: lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(accent).
			Padding(0, 1),
		laneTitle: lipgloss.NewStyle().
			Bold(true).
			Foreground(accent),
		card: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(border).
			Padding(0, 1),
		cardActive: lipgloss.NewStyle().
			Border(lipgloss.ThickBorder()).
			BorderForeground(accent).
			Padding(0, 1),
		cardDrag: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("#666666")).
			Faint(true).
			Padding(0, 1),
		doneTitle:   lipgloss.NewStyle().Strikethrough(true).Foreground(lipgloss.Color("#888888")),
		muted:       lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")),
		danger:      lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")),
		panel:       lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(border).Padding(0, 1),
		panelTitle:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF")),
		chatUser:    lipgloss.NewStyle().Bold(true).Foreground(accent),
		chatAgent:   lipgloss.NewStyle().Foreground(lipgloss.Color("#DDDDDD")),
		chatTool:    lipgloss.NewStyle().Foreground(lipgloss.Color("#AAAAAA")).Italic(true),
		modal:       lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(accent).Padding(1, 2),
		placeholder: lipgloss.NewStyle().Foreground(lipgloss.Color("#666666")).Italic(true),
	}
}
