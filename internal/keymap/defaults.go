package keymap

import "fmt"

// Action is a compositor-level operation bound without a script callback.
type Action struct {
	Kind string
	VT   int
}

const (
	ActionQuit     = "quit"
	ActionSwitchVT = "vt_switch"
)

// DefaultChord pairs a chord with its builtin action.
type DefaultChord struct {
	Key    string
	Mods   Mods
	Action Action
}

// Defaults returns the builtin bindings: ctrl+alt+backspace quits and
// ctrl+alt+F1..F12 switch virtual terminals.
func Defaults() []DefaultChord {
	mods := ModCtrl | ModAlt
	out := []DefaultChord{{Key: "BackSpace", Mods: mods, Action: Action{Kind: ActionQuit}}}
	for vt := 1; vt <= 12; vt++ {
		out = append(out, DefaultChord{
			Key:    fmt.Sprintf("F%d", vt),
			Mods:   mods,
			Action: Action{Kind: ActionSwitchVT, VT: vt},
		})
	}
	return out
}
