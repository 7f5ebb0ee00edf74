// Package input turns raw key and MIDI events into normalized trigger
// presses for the deck router.
package input

import "strings"

// Press is a single trigger event from any input surface (terminal
// keyboard, MIDI pads). Code is a normalized key code; Layered reports
// whether the layering modifier was held at press time.
type Press struct {
	Code    string
	Layered bool
}

// numpadAliases maps keypad operator codes onto their main-row
// equivalents. Digits are handled separately.
var numpadAliases = map[string]string{
	"NumpadSubtract": "Minus",
	"NumpadAdd":      "Equal",
	"NumpadEnter":    "Enter",
}

// NormalizeCode collapses numeric-keypad codes onto their main-row
// equivalents so a clip keyed to Digit1 fires from either physical key.
// Assignment and lookup both pass through here; if they disagreed,
// bindings would silently become unreachable.
func NormalizeCode(code string) string {
	code = strings.TrimSpace(code)
	if alias, ok := numpadAliases[code]; ok {
		return alias
	}
	if rest, ok := strings.CutPrefix(code, "Numpad"); ok {
		if len(rest) == 1 && rest[0] >= '0' && rest[0] <= '9' {
			return "Digit" + rest
		}
	}
	return code
}

var teaNames = map[string]string{
	" ":     "Space",
	"space": "Space",
	"enter": "Enter",
	"up":    "ArrowUp",
	"down":  "ArrowDown",
	"left":  "ArrowLeft",
	"right": "ArrowRight",
	"-":     "Minus",
	"_":     "Minus",
	"=":     "Equal",
	"+":     "Equal",
}

// FromTerminal translates a bubbletea key string ("a", "alt+1", "up",
// " ") into a Press. The alt prefix is the terminal's layering
// modifier. Returns ok=false for keys that can never be triggers
// (ctrl chords, esc, function keys).
func FromTerminal(key string) (Press, bool) {
	var p Press
	if rest, ok := strings.CutPrefix(key, "alt+"); ok {
		p.Layered = true
		key = rest
	}

	if code, ok := teaNames[key]; ok {
		p.Code = code
		return p, true
	}

	if len(key) == 1 {
		c := key[0]
		switch {
		case c >= '0' && c <= '9':
			p.Code = "Digit" + key
			return p, true
		case c >= 'a' && c <= 'z':
			p.Code = "Key" + strings.ToUpper(key)
			return p, true
		case c >= 'A' && c <= 'Z':
			p.Code = "Key" + key
			return p, true
		}
	}

	return Press{}, false
}

// DisplayName renders a code the way the help line and clip list show
// it: Digit1 -> "1", KeyA -> "A", everything else as-is.
func DisplayName(code string) string {
	if rest, ok := strings.CutPrefix(code, "Digit"); ok && len(rest) == 1 {
		return rest
	}
	if rest, ok := strings.CutPrefix(code, "Key"); ok && len(rest) == 1 {
		return rest
	}
	return code
}
