package x11

import (
	"testing"

	"github.com/1broseidon/scape/internal/platform"
)

func TestSequence(t *testing.T) {
	cases := []struct {
		chord platform.Chord
		want  string
	}{
		{platform.Chord{Key: "Return", Mods: []string{"super"}}, "Mod4-Return"},
		{platform.Chord{Key: "q", Mods: []string{"shift", "super"}}, "Mod4-Shift-q"},
		{platform.Chord{Key: "F3", Mods: []string{"ctrl", "alt"}}, "Control-Mod1-F3"},
		{platform.Chord{Key: "f12", Mods: []string{"alt", "ctrl"}}, "Control-Mod1-F12"},
		{platform.Chord{Key: "A"}, "a"},
		{platform.Chord{Key: "pageup", Mods: []string{"logo"}}, "Mod4-Prior"},
		{platform.Chord{Key: "XF86AudioMute"}, "XF86AudioMute"},
	}
	for _, tc := range cases {
		got, err := sequence(tc.chord)
		if err != nil {
			t.Fatalf("%+v: unexpected error: %v", tc.chord, err)
		}
		if got != tc.want {
			t.Fatalf("%+v: expected %q, got %q", tc.chord, tc.want, got)
		}
	}
}

func TestSequenceRejectsEmptyKey(t *testing.T) {
	if _, err := sequence(platform.Chord{Key: "  ", Mods: []string{"super"}}); err == nil {
		t.Fatalf("expected error for empty key")
	}
}

func TestKeysymNameFunctionKeys(t *testing.T) {
	if got, _ := keysymName("f1"); got != "F1" {
		t.Fatalf("expected F1, got %q", got)
	}
	// Not a function key: passed through unchanged.
	if got, _ := keysymName("foo"); got != "foo" {
		t.Fatalf("expected foo, got %q", got)
	}
	if got, _ := keysymName("f01"); got != "f01" {
		t.Fatalf("expected f01 passed through, got %q", got)
	}
}

func TestIgnoreMaskCombinations(t *testing.T) {
	got := ignoreMaskCombinations([]uint16{2, 16})
	seen := make(map[uint16]bool)
	for _, m := range got {
		seen[m] = true
	}
	for _, want := range []uint16{0, 2, 16, 18} {
		if !seen[want] {
			t.Fatalf("expected mask %d in %v", want, got)
		}
	}
	if len(got) != 4 {
		t.Fatalf("expected 4 masks, got %v", got)
	}
}
