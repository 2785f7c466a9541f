package keymap

import (
	"errors"
	"sort"
	"strings"
)

// ErrUnknownModifier is returned for a binding that names a modifier outside
// KnownModifiers.
var ErrUnknownModifier = errors.New("unknown modifier")

// Mods is a set of keyboard modifiers.
type Mods uint8

const (
	ModShift Mods = 1 << iota
	ModCtrl
	ModAlt
	ModSuper
)

var modNames = map[string]Mods{
	"shift":   ModShift,
	"ctrl":    ModCtrl,
	"control": ModCtrl,
	"alt":     ModAlt,
	"mod1":    ModAlt,
	"super":   ModSuper,
	"logo":    ModSuper,
	"mod4":    ModSuper,
}

// canonical order used by String and Names
var modOrder = []struct {
	mod  Mods
	name string
}{
	{ModCtrl, "ctrl"},
	{ModAlt, "alt"},
	{ModShift, "shift"},
	{ModSuper, "super"},
}

// ParseMods parses a pipe-delimited modifier list such as "super|shift".
// Names are case-insensitive. Unrecognised names are returned separately so
// the caller can report them; an empty string is the empty set.
func ParseMods(s string) (Mods, []string) {
	var (
		m       Mods
		unknown []string
	)
	for _, part := range strings.Split(s, "|") {
		name := strings.ToLower(strings.TrimSpace(part))
		if name == "" {
			continue
		}
		bit, ok := modNames[name]
		if !ok {
			unknown = append(unknown, part)
			continue
		}
		m |= bit
	}
	return m, unknown
}

// ModsFromNames builds a set from individual modifier names, ignoring unknown ones.
func ModsFromNames(names []string) Mods {
	m, _ := ParseMods(strings.Join(names, "|"))
	return m
}

// Names returns the canonical modifier names in m.
func (m Mods) Names() []string {
	var names []string
	for _, e := range modOrder {
		if m&e.mod != 0 {
			names = append(names, e.name)
		}
	}
	return names
}

func (m Mods) String() string {
	return strings.Join(m.Names(), "|")
}

// KnownModifiers lists every accepted modifier spelling, sorted.
func KnownModifiers() []string {
	names := make([]string, 0, len(modNames))
	for name := range modNames {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
