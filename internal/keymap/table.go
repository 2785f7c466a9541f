// Package keymap holds the key binding table: chords mapped to opaque script
// callback handles.
package keymap

import (
	"sort"
	"strings"

	"github.com/1broseidon/scape/internal/platform"
)

// Chord identifies a binding. Key is stored lowercased.
type Chord struct {
	Key  string
	Mods Mods
}

// NewChord normalises a key name into a chord.
func NewChord(key string, mods Mods) Chord {
	return Chord{Key: strings.ToLower(strings.TrimSpace(key)), Mods: mods}
}

func (c Chord) String() string {
	if c.Mods == 0 {
		return c.Key
	}
	return c.Mods.String() + "+" + c.Key
}

// Binding is one registered chord.
type Binding struct {
	// Key keeps the spelling used at registration, which backends need for
	// keysym lookup.
	Key      string
	Mods     Mods
	Callback platform.CallbackRef
	// Action is set for builtin bindings installed by the compositor; such
	// bindings carry no callback.
	Action Action
}

// Builtin reports whether the binding was installed by the compositor.
func (b Binding) Builtin() bool {
	return b.Action.Kind != ""
}

// Chord returns the normalised chord of the binding.
func (b Binding) Chord() Chord {
	return NewChord(b.Key, b.Mods)
}

// Table maps chords to callbacks. It is owned by the orchestrator goroutine
// and is not safe for concurrent use.
type Table struct {
	bindings map[Chord]Binding
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{bindings: make(map[Chord]Binding)}
}

// Register upserts a binding. The previous binding for the same chord, if any,
// is returned.
func (t *Table) Register(b Binding) (Binding, bool) {
	c := b.Chord()
	prev, ok := t.bindings[c]
	t.bindings[c] = b
	return prev, ok
}

// Dispatch looks up an exact chord match. The modifier set must be equal, not
// a superset.
func (t *Table) Dispatch(key string, mods Mods) (Binding, bool) {
	b, ok := t.bindings[NewChord(key, mods)]
	return b, ok
}

// Len returns the number of bindings.
func (t *Table) Len() int {
	return len(t.bindings)
}

// Bindings returns every binding sorted by chord.
func (t *Table) Bindings() []Binding {
	out := make([]Binding, 0, len(t.bindings))
	for _, b := range t.bindings {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		ci, cj := out[i].Chord(), out[j].Chord()
		if ci.Key != cj.Key {
			return ci.Key < cj.Key
		}
		return ci.Mods < cj.Mods
	})
	return out
}

// Chords converts the table into the platform form used for key grabs.
func (t *Table) Chords() []platform.Chord {
	bindings := t.Bindings()
	out := make([]platform.Chord, 0, len(bindings))
	for _, b := range bindings {
		out = append(out, platform.Chord{Key: b.Key, Mods: b.Mods.Names()})
	}
	return out
}

// Reset removes every binding.
func (t *Table) Reset() {
	t.bindings = make(map[Chord]Binding)
}
