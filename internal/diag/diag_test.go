package diag

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/1broseidon/scape/internal/keymap"
	"github.com/1broseidon/scape/internal/output"
	"github.com/1broseidon/scape/internal/window"
	"github.com/1broseidon/scape/internal/zone"
)

func TestClassify(t *testing.T) {
	errLoad := Sentinel(ScriptLoadError, "load failed")
	cases := []struct {
		err  error
		want Kind
	}{
		{fmt.Errorf("move: %w", zone.ErrUnknownZone), UnknownReferenceError},
		{fmt.Errorf("focus: %w", window.ErrUnknownWindow), UnknownReferenceError},
		{output.ErrUnknownOutput, UnknownReferenceError},
		{fmt.Errorf("set zones: %w", zone.ErrMultipleDefaultZones), ConfigurationError},
		{zone.ErrInvalidZoneGeometry, ConfigurationError},
		{fmt.Errorf("key x: %w", keymap.ErrUnknownModifier), ConfigurationError},
		{output.ErrDuplicateConnector, EventError},
		{fmt.Errorf("reload: %w", errLoad), ScriptLoadError},
		{errors.New("something else"), ConfigurationError},
	}
	for _, tc := range cases {
		if got := Classify(tc.err); got != tc.want {
			t.Fatalf("Classify(%v) = %s, want %s", tc.err, got, tc.want)
		}
	}
}

func TestSuggest(t *testing.T) {
	candidates := []string{"left", "mid", "right"}
	if s, ok := Suggest("lfet", candidates); !ok || s != "left" {
		t.Fatalf("expected left, got %q ok=%v", s, ok)
	}
	if _, ok := Suggest("bottom", candidates); ok {
		t.Fatalf("expected no suggestion for a distant name")
	}
	if _, ok := Suggest("x", nil); ok {
		t.Fatalf("expected no suggestion without candidates")
	}
}

func TestWithSuggestionKeepsChain(t *testing.T) {
	err := WithSuggestion(fmt.Errorf("zone %q: %w", "rigth", zone.ErrUnknownZone), "rigth", []string{"left", "right"})
	if !errors.Is(err, zone.ErrUnknownZone) {
		t.Fatalf("expected sentinel preserved, got %v", err)
	}
	if !strings.Contains(err.Error(), `did you mean "right"`) {
		t.Fatalf("expected suggestion in %q", err.Error())
	}
}

func TestChannel_NeverBlocks(t *testing.T) {
	c := NewChannel(1, nil)
	c.Report(Diagnostic{Kind: EventError, Op: "a", Err: errors.New("one")})
	c.Report(Diagnostic{Kind: EventError, Op: "b", Err: errors.New("two")})

	if c.Dropped() != 1 {
		t.Fatalf("expected 1 dropped, got %d", c.Dropped())
	}
	got := c.Drain()
	if len(got) != 1 || got[0].Op != "a" || got[0].Time.IsZero() {
		t.Fatalf("unexpected drained diagnostics %+v", got)
	}
}
