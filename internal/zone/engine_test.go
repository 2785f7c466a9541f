package zone

import (
	"errors"
	"reflect"
	"testing"

	"github.com/1broseidon/scape/internal/platform"
	"github.com/1broseidon/scape/internal/window"
	"pgregory.net/rapid"
)

func threeColumns() []Spec {
	return []Spec{
		{Name: "left", X: 0, Y: 0, Width: 480, Height: 1080},
		{Name: "mid", X: 481, Y: 0, Width: 960, Height: 1080, Default: true},
		{Name: "right", X: 1441, Y: 0, Width: 480, Height: 1080},
	}
}

func TestSetZones_ValidationErrors(t *testing.T) {
	cases := []struct {
		name  string
		specs []Spec
		want  error
	}{
		{"zero width", []Spec{{Name: "a", Width: 0, Height: 10}}, ErrInvalidZoneGeometry},
		{"negative height", []Spec{{Name: "a", Width: 10, Height: -1}}, ErrInvalidZoneGeometry},
		{"empty name", []Spec{{Width: 10, Height: 10}}, ErrInvalidZoneName},
		{"duplicate", []Spec{{Name: "a", Width: 1, Height: 1}, {Name: "a", Width: 2, Height: 2}}, ErrDuplicateZoneName},
		{"two defaults", []Spec{{Name: "a", Width: 1, Height: 1, Default: true}, {Name: "b", Width: 1, Height: 1, Default: true}}, ErrMultipleDefaultZones},
	}
	for _, tc := range cases {
		e := NewEngine(0)
		if _, err := e.SetZones("main", threeColumns()); err != nil {
			t.Fatalf("%s: seed: %v", tc.name, err)
		}
		_, err := e.SetZones("main", tc.specs)
		if !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
		if got := e.Zones("main"); len(got) != 3 {
			t.Fatalf("%s: expected previous zone set retained, got %+v", tc.name, got)
		}
	}
}

func TestSetZones_ReportsRemovedNames(t *testing.T) {
	e := NewEngine(0)
	if _, err := e.SetZones("main", threeColumns()); err != nil {
		t.Fatalf("seed: %v", err)
	}
	removed, err := e.SetZones("main", []Spec{{Name: "mid", Width: 100, Height: 100}})
	if err != nil {
		t.Fatalf("replace: %v", err)
	}
	if !reflect.DeepEqual(removed, []string{"left", "right"}) {
		t.Fatalf("expected left and right removed, got %v", removed)
	}
	if _, ok := e.Default("main"); ok {
		t.Fatalf("expected no default after replacement without one")
	}
}

func TestSetZones_SpacesAreIndependent(t *testing.T) {
	e := NewEngine(0)
	_, _ = e.SetZones("main", threeColumns())
	_, _ = e.SetZones("side", []Spec{{Name: "only", Width: 10, Height: 10}})
	if _, ok := e.Lookup("side", "left"); ok {
		t.Fatalf("expected zone lookup scoped to its space")
	}
	if got := e.Spaces(); !reflect.DeepEqual(got, []string{"main", "side"}) {
		t.Fatalf("unexpected spaces %v", got)
	}
}

func TestResolvePlacement(t *testing.T) {
	e := NewEngine(0)
	_, _ = e.SetZones("main", threeColumns())
	w := window.Window{ID: 1, Space: "main"}
	origin := platform.Rect{X: 100, Y: 0}

	p, err := e.ResolvePlacement(w, "", origin)
	if err != nil {
		t.Fatalf("resolve default: %v", err)
	}
	if !p.Assigned || p.Zone != "mid" {
		t.Fatalf("expected default zone mid, got %+v", p)
	}
	if p.Geometry != (platform.Rect{X: 581, Y: 0, Width: 960, Height: 1080}) {
		t.Fatalf("expected geometry offset by origin, got %v", p.Geometry)
	}

	if _, err := e.ResolvePlacement(w, "nope", origin); !errors.Is(err, ErrUnknownZone) {
		t.Fatalf("expected ErrUnknownZone, got %v", err)
	}

	other := window.Window{ID: 2, Space: "elsewhere", Geometry: platform.Rect{Width: 5, Height: 5}}
	p, err = e.ResolvePlacement(other, "", origin)
	if err != nil {
		t.Fatalf("resolve without zones: %v", err)
	}
	if p.Assigned || p.Geometry != other.Geometry {
		t.Fatalf("expected unassigned placement keeping geometry, got %+v", p)
	}
}

func TestResolvePlacement_GapInset(t *testing.T) {
	e := NewEngine(4)
	_, _ = e.SetZones("main", []Spec{{Name: "a", X: 0, Y: 0, Width: 100, Height: 50, Default: true}})
	p, err := e.ResolvePlacement(window.Window{ID: 1, Space: "main"}, "a", platform.Rect{})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if p.Geometry != (platform.Rect{X: 4, Y: 4, Width: 92, Height: 42}) {
		t.Fatalf("unexpected inset geometry %v", p.Geometry)
	}
}

func TestHosted(t *testing.T) {
	e := NewEngine(0)
	_, _ = e.SetZones("main", threeColumns())
	got := e.Hosted("main", platform.Rect{X: 0, Y: 0, Width: 960, Height: 1080})
	if !reflect.DeepEqual(got, []string{"left", "mid"}) {
		t.Fatalf("expected left and mid hosted, got %v", got)
	}
}

func specGen() *rapid.Generator[Spec] {
	return rapid.Custom(func(t *rapid.T) Spec {
		return Spec{
			Name:    rapid.SampledFrom([]string{"a", "b", "c", "d", "e"}).Draw(t, "name"),
			X:       rapid.IntRange(0, 2000).Draw(t, "x"),
			Y:       rapid.IntRange(0, 2000).Draw(t, "y"),
			Width:   rapid.IntRange(-2, 500).Draw(t, "width"),
			Height:  rapid.IntRange(-2, 500).Draw(t, "height"),
			Default: rapid.Bool().Draw(t, "default"),
		}
	})
}

func TestProperty_AtMostOneDefaultAndAllOrNothing(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		e := NewEngine(0)
		calls := rapid.IntRange(1, 8).Draw(rt, "calls")
		for i := 0; i < calls; i++ {
			before := e.Zones("main")
			specs := rapid.SliceOfN(specGen(), 0, 6).Draw(rt, "specs")
			_, err := e.SetZones("main", specs)
			after := e.Zones("main")

			if err != nil {
				if !reflect.DeepEqual(before, after) {
					rt.Fatalf("rejected call changed zone set: before=%v after=%v", before, after)
				}
				continue
			}
			defaults := 0
			for _, z := range after {
				if z.Default {
					defaults++
				}
			}
			if defaults > 1 {
				rt.Fatalf("expected at most one default, got %d in %v", defaults, after)
			}
		}
	})
}

func TestProperty_DefaultResolutionEquivalence(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		e := NewEngine(rapid.IntRange(0, 8).Draw(rt, "gap"))
		specs := rapid.SliceOfN(specGen(), 1, 6).Draw(rt, "specs")
		if _, err := e.SetZones("main", specs); err != nil {
			rt.Skip("invalid zone set")
		}
		def, ok := e.Default("main")
		if !ok {
			rt.Skip("no default zone")
		}
		w := window.Window{ID: 1, Space: "main"}
		origin := platform.Rect{X: rapid.IntRange(-100, 100).Draw(rt, "ox"), Y: rapid.IntRange(-100, 100).Draw(rt, "oy")}

		implicit, err := e.ResolvePlacement(w, "", origin)
		if err != nil {
			rt.Fatalf("implicit: %v", err)
		}
		explicit, err := e.ResolvePlacement(w, def.Name, origin)
		if err != nil {
			rt.Fatalf("explicit: %v", err)
		}
		if implicit != explicit {
			rt.Fatalf("expected %+v == %+v", implicit, explicit)
		}
	})
}
