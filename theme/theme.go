package theme

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

type Theme struct {
	Palette *Palette
	Symbols Symbols
}

type Symbols struct {
	// Transport states
	Playing rune // ▶ clip playing
	Paused  rune // ◫ clip paused
	Stopped rune // ■ clip stopped

	// Meters
	MeterFull  rune // █ filled segment
	MeterEmpty rune // ░ empty segment

	// Scene markers
	SceneActive rune // ● recalled scene
	SceneIdle   rune // ○ stored scene
}

func New(palette *Palette) *Theme {
	return &Theme{
		Palette: palette,
		Symbols: Symbols{
			Playing: '▶',
			Paused:  '◫',
			Stopped: '■',

			MeterFull:  '█',
			MeterEmpty: '░',

			SceneActive: '●',
			SceneIdle:   '○',
		},
	}
}

// Color roles mapped to palette positions (0-1)
const (
	RoleBG      = 0.0 // near black
	RoleSurface = 0.1 // dark violet
	RoleMuted   = 0.25
	RoleFG      = 0.85 // warm bright (readable)
	RoleAccent  = 0.6
	RoleCursor  = 0.7
	RoleActive  = 0.5
	RoleWarning = 0.65
	RoleSuccess = 0.95
)

// Style helpers

func (t *Theme) BG() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleBG))
}

func (t *Theme) FG() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleFG))
}

func (t *Theme) Accent() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleAccent))
}

func (t *Theme) Muted() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleMuted))
}

func (t *Theme) Active() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleActive))
}

func (t *Theme) Cursor() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleCursor))
}

func (t *Theme) Warning() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleWarning))
}

func (t *Theme) Success() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleSuccess))
}

// Color returns lipgloss color for any normalized value 0-1
func (t *Theme) Color(norm float64) lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(norm))
}

// RGB returns raw RGB for any normalized value
func (t *Theme) RGB(norm float64) RGB {
	return t.Palette.Lookup(norm)
}

func rgbToLipgloss(c RGB) lipgloss.Color {
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", c[0], c[1], c[2]))
}
