package widgets

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestMeterFill(t *testing.T) {
	tests := []struct {
		name      string
		value     float64
		wantFull  int
		wantEmpty int
	}{
		{"empty", 0, 0, 10},
		{"half", 0.5, 5, 5},
		{"full", 1, 10, 0},
		{"rounds up", 0.55, 6, 4},
		{"clamps low", -1, 0, 10},
		{"clamps high", 2, 10, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Meter(tt.value, 10, '#', '.', lipgloss.Color("#ffffff"))
			if n := strings.Count(got, "#"); n != tt.wantFull {
				t.Errorf("Meter(%v) full segments = %d, want %d", tt.value, n, tt.wantFull)
			}
			if n := strings.Count(got, "."); n != tt.wantEmpty {
				t.Errorf("Meter(%v) empty segments = %d, want %d", tt.value, n, tt.wantEmpty)
			}
		})
	}
}

func TestMeterZeroWidth(t *testing.T) {
	if got := Meter(0.5, 0, '#', '.', lipgloss.Color("#ffffff")); got != "" {
		t.Errorf("Meter with zero width = %q, want empty", got)
	}
}
