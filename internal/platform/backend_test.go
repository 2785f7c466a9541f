package platform

import "testing"

func TestRectIntersects(t *testing.T) {
	a := Rect{X: 0, Y: 0, Width: 100, Height: 100}
	cases := []struct {
		name string
		b    Rect
		want bool
	}{
		{"overlap", Rect{X: 50, Y: 50, Width: 100, Height: 100}, true},
		{"touching edge", Rect{X: 100, Y: 0, Width: 10, Height: 10}, false},
		{"inside", Rect{X: 10, Y: 10, Width: 5, Height: 5}, true},
		{"empty", Rect{X: 10, Y: 10}, false},
	}
	for _, tc := range cases {
		if got := a.Intersects(tc.b); got != tc.want {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
}

func TestRectUnionIgnoresEmpty(t *testing.T) {
	a := Rect{X: 0, Y: 0, Width: 1920, Height: 1080}
	b := Rect{X: 1920, Y: 0, Width: 1280, Height: 1024}
	got := a.Union(b)
	want := Rect{X: 0, Y: 0, Width: 3200, Height: 1080}
	if got != want {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if got := (Rect{}).Union(a); got != a {
		t.Fatalf("expected union with empty to be %v, got %v", a, got)
	}
}

func TestRectInsetKeepsMinimumSize(t *testing.T) {
	r := Rect{X: 0, Y: 0, Width: 10, Height: 10}
	got := r.Inset(8)
	if got.Width != 1 || got.Height != 1 {
		t.Fatalf("expected 1x1 after oversized inset, got %v", got)
	}
	if got := r.Inset(2); got != (Rect{X: 2, Y: 2, Width: 6, Height: 6}) {
		t.Fatalf("unexpected inset result %v", got)
	}
}

func TestHeadlessRecordsCalls(t *testing.T) {
	h := NewHeadless(nil)
	h.UpdateWindowGeometry(7, Rect{Width: 10, Height: 10})
	h.Spawn("foot", []string{"-e", "htop"}, nil)
	h.SwitchVT(2)

	if got := h.GeometryUpdates(); len(got) != 1 || got[0].Window != 7 {
		t.Fatalf("unexpected geometry updates: %+v", got)
	}
	if got := h.Spawned(); len(got) != 1 || got[0].Command != "foot" || len(got[0].Args) != 2 {
		t.Fatalf("unexpected spawn records: %+v", got)
	}
	h.Reset()
	if len(h.GeometryUpdates()) != 0 || len(h.VTSwitches()) != 0 {
		t.Fatalf("expected reset to clear recordings")
	}
}
