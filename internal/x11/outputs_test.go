package x11

import (
	"testing"

	"github.com/BurntSushi/xgbutil/ewmh"

	"github.com/1broseidon/scape/internal/platform"
)

func TestApplyStruts(t *testing.T) {
	root := platform.Rect{Width: 3840, Height: 1080}
	left := platform.Rect{X: 0, Y: 0, Width: 1920, Height: 1080}
	right := platform.Rect{X: 1920, Y: 0, Width: 1920, Height: 1080}

	// A 30px top panel spanning only the left monitor.
	panel := ewmh.WmStrutPartial{Top: 30, TopStartX: 0, TopEndX: 1919}

	if got := applyStruts(left, root, []ewmh.WmStrutPartial{panel}); got != (platform.Rect{X: 0, Y: 30, Width: 1920, Height: 1050}) {
		t.Fatalf("unexpected left geometry %v", got)
	}
	if got := applyStruts(right, root, []ewmh.WmStrutPartial{panel}); got != right {
		t.Fatalf("expected right monitor untouched, got %v", got)
	}
}

func TestApplyStrutsFullWidth(t *testing.T) {
	root := platform.Rect{Width: 1920, Height: 1080}
	out := platform.Rect{Width: 1920, Height: 1080}
	dock := fullStrut(&ewmh.WmStrut{Bottom: 40, Left: 64}, root)

	got := applyStruts(out, root, []ewmh.WmStrutPartial{dock})
	want := platform.Rect{X: 64, Y: 0, Width: 1856, Height: 1040}
	if got != want {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestIsNormalType(t *testing.T) {
	cases := []struct {
		types []string
		want  bool
	}{
		{nil, true},
		{[]string{"_NET_WM_WINDOW_TYPE_NORMAL"}, true},
		{[]string{"_NET_WM_WINDOW_TYPE_DOCK"}, false},
		{[]string{"_NET_WM_WINDOW_TYPE_DIALOG"}, false},
		{[]string{"_NET_WM_WINDOW_TYPE_DIALOG", "_NET_WM_WINDOW_TYPE_NORMAL"}, true},
	}
	for _, tc := range cases {
		if got := isNormalType(tc.types); got != tc.want {
			t.Fatalf("%v: expected %v, got %v", tc.types, tc.want, got)
		}
	}
}
