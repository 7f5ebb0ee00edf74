package widgets

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Meter renders a fixed-width horizontal bar for a value in [0,1].
func Meter(value float64, width int, full, empty rune, color lipgloss.Color) string {
	if width <= 0 {
		return ""
	}
	if value < 0 {
		value = 0
	}
	if value > 1 {
		value = 1
	}
	filled := int(value*float64(width) + 0.5)

	var out strings.Builder
	if filled > 0 {
		bar := strings.Repeat(string(full), filled)
		out.WriteString(lipgloss.NewStyle().Foreground(color).Render(bar))
	}
	if filled < width {
		out.WriteString(strings.Repeat(string(empty), width-filled))
	}
	return out.String()
}

// Swatch renders a colored marker for a hex color like "#E4572E".
func Swatch(hex string) string {
	style := lipgloss.NewStyle().Foreground(lipgloss.Color(hex))
	return style.Render("■")
}

// RenderKeyHelp formats key bindings in a friendly way
func RenderKeyHelp(sections []KeySection) string {
	var lines []string
	for _, sec := range sections {
		if sec.Title != "" {
			lines = append(lines, sec.Title)
		}
		for _, k := range sec.Keys {
			lines = append(lines, fmt.Sprintf("  %-12s %s", k.Key, k.Desc))
		}
	}
	return strings.Join(lines, "\n")
}

// KeySection groups related key bindings
type KeySection struct {
	Title string
	Keys  []KeyBinding
}

// KeyBinding is a single key and its description
type KeyBinding struct {
	Key  string
	Desc string
}
