package window

import (
	"errors"
	"testing"

	"github.com/1broseidon/scape/internal/platform"
)

func TestMapUnmapLifecycle(t *testing.T) {
	r := NewRegistry()
	if err := r.Map(Window{ID: 1, AppID: "foot", Space: "main", Zone: "ignored"}); err != nil {
		t.Fatalf("map: %v", err)
	}
	w, ok := r.Get(1)
	if !ok || w.State() != StateMapped || w.Zone != "" {
		t.Fatalf("expected unassigned mapped window, got %+v", w)
	}
	if err := r.Map(Window{ID: 1}); !errors.Is(err, ErrDuplicateWindow) {
		t.Fatalf("expected ErrDuplicateWindow, got %v", err)
	}

	if err := r.Assign(1, "left", platform.Rect{Width: 10, Height: 10}); err != nil {
		t.Fatalf("assign: %v", err)
	}
	w, _ = r.Get(1)
	if w.State() != StateAssigned || w.Zone != "left" {
		t.Fatalf("expected assigned to left, got %+v", w)
	}

	if _, err := r.Unmap(1); err != nil {
		t.Fatalf("unmap: %v", err)
	}
	if _, err := r.Unmap(1); !errors.Is(err, ErrUnknownWindow) {
		t.Fatalf("expected ErrUnknownWindow on second unmap, got %v", err)
	}
}

func TestUnassignWhere_OnlyTouchesSpace(t *testing.T) {
	r := NewRegistry()
	_ = r.Map(Window{ID: 1, Space: "main"})
	_ = r.Map(Window{ID: 2, Space: "main"})
	_ = r.Map(Window{ID: 3, Space: "other"})
	_ = r.Assign(1, "left", platform.Rect{})
	_ = r.Assign(2, "right", platform.Rect{})
	_ = r.Assign(3, "left", platform.Rect{})

	affected := r.UnassignWhere("main", func(zone string) bool { return zone == "left" })
	if len(affected) != 1 || affected[0] != 1 {
		t.Fatalf("expected only window 1 affected, got %v", affected)
	}
	if w, _ := r.Get(3); w.Zone != "left" {
		t.Fatalf("expected window in other space untouched, got %+v", w)
	}
	if w, _ := r.Get(2); w.Zone != "right" {
		t.Fatalf("expected window 2 untouched, got %+v", w)
	}
}

func TestFocusClearedOnUnmap(t *testing.T) {
	r := NewRegistry()
	_ = r.Map(Window{ID: 5})
	if err := r.SetFocus(5); err != nil {
		t.Fatalf("focus: %v", err)
	}
	if _, ok := r.Focused(); !ok {
		t.Fatalf("expected focused window")
	}
	_, _ = r.Unmap(5)
	if _, ok := r.Focused(); ok {
		t.Fatalf("expected focus cleared after unmap")
	}
	if err := r.SetFocus(99); !errors.Is(err, ErrUnknownWindow) {
		t.Fatalf("expected ErrUnknownWindow, got %v", err)
	}
}

func TestFindByAppIDAndMoveToSpace(t *testing.T) {
	r := NewRegistry()
	_ = r.Map(Window{ID: 1, AppID: "firefox", Space: "main"})
	_ = r.Map(Window{ID: 2, AppID: "firefox", Space: "main"})
	w, ok := r.FindByAppID("firefox")
	if !ok || w.ID != 1 {
		t.Fatalf("expected first firefox window, got %+v", w)
	}
	_ = r.Assign(2, "mid", platform.Rect{})
	if err := r.MoveToSpace(2, "play"); err != nil {
		t.Fatalf("move: %v", err)
	}
	w, _ = r.Get(2)
	if w.Space != "play" || w.Zone != "" {
		t.Fatalf("expected unassigned window in play, got %+v", w)
	}
	if got := r.InSpace("main"); len(got) != 1 {
		t.Fatalf("expected 1 window left in main, got %d", len(got))
	}
}
