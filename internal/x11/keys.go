package x11

import (
	"fmt"
	"strings"

	"github.com/1broseidon/scape/internal/keymap"
	"github.com/1broseidon/scape/internal/platform"
)

// X modifier names accepted by keybind, keyed by canonical modifier.
var xModNames = map[keymap.Mods]string{
	keymap.ModCtrl:  "Control",
	keymap.ModAlt:   "Mod1",
	keymap.ModShift: "Shift",
	keymap.ModSuper: "Mod4",
}

// keysym spellings for key names that differ from X's.
var keysymNames = map[string]string{
	"return":    "Return",
	"enter":     "Return",
	"escape":    "Escape",
	"esc":       "Escape",
	"tab":       "Tab",
	"space":     "space",
	"backspace": "BackSpace",
	"delete":    "Delete",
	"insert":    "Insert",
	"home":      "Home",
	"end":       "End",
	"pageup":    "Prior",
	"prior":     "Prior",
	"pagedown":  "Next",
	"next":      "Next",
	"left":      "Left",
	"right":     "Right",
	"up":        "Up",
	"down":      "Down",
	"print":     "Print",
	"minus":     "minus",
	"plus":      "plus",
	"equal":     "equal",
	"comma":     "comma",
	"period":    "period",
	"slash":     "slash",
}

// keysymName maps a binding key to the X keysym name.
func keysymName(key string) (string, error) {
	k := strings.TrimSpace(key)
	if k == "" {
		return "", fmt.Errorf("empty key")
	}
	lower := strings.ToLower(k)
	if name, ok := keysymNames[lower]; ok {
		return name, nil
	}
	if len(lower) >= 2 && lower[0] == 'f' {
		var n int
		if _, err := fmt.Sscanf(lower[1:], "%d", &n); err == nil && n >= 1 && n <= 35 && fmt.Sprint(n) == lower[1:] {
			return fmt.Sprintf("F%d", n), nil
		}
	}
	if len(lower) == 1 {
		return lower, nil
	}
	return k, nil
}

// sequence renders a chord in keybind's "Mod4-Shift-a" form.
func sequence(chord platform.Chord) (string, error) {
	sym, err := keysymName(chord.Key)
	if err != nil {
		return "", err
	}
	mods := keymap.ModsFromNames(chord.Mods)
	parts := make([]string, 0, 5)
	for _, m := range []keymap.Mods{keymap.ModSuper, keymap.ModCtrl, keymap.ModAlt, keymap.ModShift} {
		if mods&m != 0 {
			parts = append(parts, xModNames[m])
		}
	}
	parts = append(parts, sym)
	return strings.Join(parts, "-"), nil
}
