package output

import (
	"errors"
	"testing"

	"github.com/1broseidon/scape/internal/platform"
)

func fhd(x int) platform.Rect {
	return platform.Rect{X: x, Y: 0, Width: 1920, Height: 1080}
}

func TestAdd_DuplicateConnector(t *testing.T) {
	r := NewRegistry()
	if err := r.Add(Output{Name: "DP-1", Geometry: fhd(0)}); err != nil {
		t.Fatalf("add: %v", err)
	}
	err := r.Add(Output{Name: "DP-1", Geometry: fhd(0)})
	if !errors.Is(err, ErrDuplicateConnector) {
		t.Fatalf("expected ErrDuplicateConnector, got %v", err)
	}
	if r.Len() != 1 {
		t.Fatalf("expected 1 output, got %d", r.Len())
	}
}

func TestAdd_RejectsNegativeSizeButAllowsOverlap(t *testing.T) {
	r := NewRegistry()
	err := r.Add(Output{Name: "bad", Geometry: platform.Rect{Width: -1, Height: 10}})
	if !errors.Is(err, ErrInvalidGeometry) {
		t.Fatalf("expected ErrInvalidGeometry, got %v", err)
	}
	if err := r.Add(Output{Name: "a", Geometry: fhd(0)}); err != nil {
		t.Fatalf("add a: %v", err)
	}
	if err := r.Add(Output{Name: "mirror", Geometry: fhd(0)}); err != nil {
		t.Fatalf("expected overlapping output to be accepted, got %v", err)
	}
}

func TestAdd_StartsPending(t *testing.T) {
	r := NewRegistry()
	if err := r.Add(Output{Name: "eDP-1", Geometry: fhd(0), Enabled: true, Space: "x"}); err != nil {
		t.Fatalf("add: %v", err)
	}
	o, _ := r.Get("eDP-1")
	if o.State != StatePending || o.Enabled || o.Space != "" {
		t.Fatalf("expected pending unassigned output, got %+v", o)
	}
	if o.Scale != 1 {
		t.Fatalf("expected default scale 1, got %v", o.Scale)
	}
}

func TestRemove_UnknownOutput(t *testing.T) {
	r := NewRegistry()
	_, err := r.Remove("HDMI-A-1")
	if !errors.Is(err, ErrUnknownOutput) {
		t.Fatalf("expected ErrUnknownOutput, got %v", err)
	}
}

func TestList_InsertionOrderSurvivesRemoval(t *testing.T) {
	r := NewRegistry()
	for _, name := range []string{"c", "a", "b"} {
		if err := r.Add(Output{Name: name, Geometry: fhd(0)}); err != nil {
			t.Fatalf("add %s: %v", name, err)
		}
	}
	if _, err := r.Remove("a"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	list := r.List()
	if len(list) != 2 || list[0].Name != "c" || list[1].Name != "b" {
		t.Fatalf("unexpected order: %+v", list)
	}
	if name, ok := r.NameAt(1); !ok || name != "b" {
		t.Fatalf("expected b at index 1, got %q", name)
	}
}

func TestConfigure_ActivatesAndPartitionsSpaces(t *testing.T) {
	r := NewRegistry()
	_ = r.Add(Output{Name: "left", Geometry: fhd(0)})
	_ = r.Add(Output{Name: "right", Geometry: fhd(0)})

	if _, err := r.Configure("work", Config{Name: "left", Geometry: fhd(0)}); err != nil {
		t.Fatalf("configure left: %v", err)
	}
	if _, err := r.Configure("work", Config{Name: "right", Geometry: fhd(1920), Primary: true}); err != nil {
		t.Fatalf("configure right: %v", err)
	}

	o, _ := r.Get("right")
	if o.State != StateActive || !o.Enabled || o.Space != "work" {
		t.Fatalf("expected right active in work, got %+v", o)
	}
	bounds := r.SpaceBounds("work")
	if bounds != (platform.Rect{X: 0, Y: 0, Width: 3840, Height: 1080}) {
		t.Fatalf("unexpected space bounds %v", bounds)
	}
	if space, ok := r.PrimarySpace(); !ok || space != "work" {
		t.Fatalf("expected primary space work, got %q", space)
	}

	// Moving an output to another space removes it from the first one.
	if _, err := r.Configure("play", Config{Name: "left", Geometry: fhd(0)}); err != nil {
		t.Fatalf("configure left into play: %v", err)
	}
	if got := r.SpaceOutputs("work"); len(got) != 1 || got[0].Name != "right" {
		t.Fatalf("expected work to contain only right, got %+v", got)
	}
	if got := r.Spaces(); len(got) != 2 || got[0] != "play" || got[1] != "work" {
		t.Fatalf("unexpected spaces %v", got)
	}
}

func TestConfigure_DisabledStaysPending(t *testing.T) {
	r := NewRegistry()
	_ = r.Add(Output{Name: "DP-2", Geometry: fhd(0)})
	o, err := r.Configure("main", Config{Name: "DP-2", Geometry: fhd(0), Disabled: true})
	if err != nil {
		t.Fatalf("configure: %v", err)
	}
	if o.State != StatePending || o.Enabled || o.Space != "" {
		t.Fatalf("expected disabled output to stay pending, got %+v", o)
	}
	if len(r.Spaces()) != 0 {
		t.Fatalf("expected no spaces, got %v", r.Spaces())
	}
}

func TestConfigure_SinglePrimaryPerSpace(t *testing.T) {
	r := NewRegistry()
	_ = r.Add(Output{Name: "a", Geometry: fhd(0)})
	_ = r.Add(Output{Name: "b", Geometry: fhd(1920)})
	_, _ = r.Configure("main", Config{Name: "a", Geometry: fhd(0), Primary: true})
	_, _ = r.Configure("main", Config{Name: "b", Geometry: fhd(1920), Primary: true})

	a, _ := r.Get("a")
	b, _ := r.Get("b")
	if a.Primary || !b.Primary {
		t.Fatalf("expected only b primary, got a=%v b=%v", a.Primary, b.Primary)
	}
}

func TestUnassign(t *testing.T) {
	r := NewRegistry()
	_ = r.Add(Output{Name: "a", Geometry: fhd(0)})
	_, _ = r.Configure("main", Config{Name: "a", Geometry: fhd(0)})
	if err := r.Unassign("a"); err != nil {
		t.Fatalf("unassign: %v", err)
	}
	o, _ := r.Get("a")
	if o.State != StatePending || o.Space != "" {
		t.Fatalf("expected pending, got %+v", o)
	}
	if err := r.Unassign("zzz"); !errors.Is(err, ErrUnknownOutput) {
		t.Fatalf("expected ErrUnknownOutput, got %v", err)
	}
}
