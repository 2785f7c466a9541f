package platform

import (
	"log/slog"
	"sync"
)

// Headless is a display backend, renderer and spawner that only records what it
// is asked to do. It backs `scape check`, the headless daemon mode and tests.
type Headless struct {
	logger *slog.Logger

	mu         sync.Mutex
	outputs    []OutputConfig
	geometry   []WindowGeometry
	placements []Placement
	closed     []WindowID
	focused    []WindowID
	vts        []int
	spawned    []SpawnRequest
	grabs      []Chord
}

// WindowGeometry is one recorded UpdateWindowGeometry call.
type WindowGeometry struct {
	Window   WindowID
	Geometry Rect
}

// SpawnRequest is one recorded Spawn call.
type SpawnRequest struct {
	Command string
	Args    []string
	Env     map[string]string
}

// NewHeadless creates a recording backend. logger may be nil.
func NewHeadless(logger *slog.Logger) *Headless {
	return &Headless{logger: logger}
}

func (h *Headless) debug(msg string, args ...any) {
	if h.logger != nil {
		h.logger.Debug(msg, args...)
	}
}

func (h *Headless) ApplyOutputConfig(cfg OutputConfig) {
	h.debug("apply output config", "output", cfg.Name, "geometry", cfg.Geometry.String(), "enabled", cfg.Enabled, "space", cfg.Space)
	h.mu.Lock()
	defer h.mu.Unlock()
	h.outputs = append(h.outputs, cfg)
}

func (h *Headless) UpdateWindowGeometry(id WindowID, geometry Rect) {
	h.debug("update window geometry", "window", id, "geometry", geometry.String())
	h.mu.Lock()
	defer h.mu.Unlock()
	h.geometry = append(h.geometry, WindowGeometry{Window: id, Geometry: geometry})
}

func (h *Headless) UpdatePlacement(p Placement) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.placements = append(h.placements, p)
}

func (h *Headless) CloseWindow(id WindowID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = append(h.closed, id)
}

func (h *Headless) FocusWindow(id WindowID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.focused = append(h.focused, id)
}

func (h *Headless) SwitchVT(vt int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.vts = append(h.vts, vt)
}

func (h *Headless) Spawn(command string, args []string, env map[string]string) {
	h.debug("spawn", "command", command, "args", args)
	h.mu.Lock()
	defer h.mu.Unlock()
	h.spawned = append(h.spawned, SpawnRequest{Command: command, Args: append([]string(nil), args...), Env: env})
}

func (h *Headless) GrabKeys(chords []Chord) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.grabs = append([]Chord(nil), chords...)
}

// OutputConfigs returns recorded output configurations in call order.
func (h *Headless) OutputConfigs() []OutputConfig {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]OutputConfig(nil), h.outputs...)
}

// GeometryUpdates returns recorded geometry updates in call order.
func (h *Headless) GeometryUpdates() []WindowGeometry {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]WindowGeometry(nil), h.geometry...)
}

// Placements returns recorded renderer updates in call order.
func (h *Headless) Placements() []Placement {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Placement(nil), h.placements...)
}

// Closed returns windows the backend was asked to close.
func (h *Headless) Closed() []WindowID {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]WindowID(nil), h.closed...)
}

// Focused returns windows the backend was asked to focus.
func (h *Headless) Focused() []WindowID {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]WindowID(nil), h.focused...)
}

// VTSwitches returns requested virtual terminal switches.
func (h *Headless) VTSwitches() []int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]int(nil), h.vts...)
}

// Spawned returns recorded spawn requests.
func (h *Headless) Spawned() []SpawnRequest {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]SpawnRequest(nil), h.spawned...)
}

// Grabs returns the last set of grabbed chords.
func (h *Headless) Grabs() []Chord {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Chord(nil), h.grabs...)
}

// Reset drops everything recorded so far.
func (h *Headless) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.outputs = nil
	h.geometry = nil
	h.placements = nil
	h.closed = nil
	h.focused = nil
	h.vts = nil
	h.spawned = nil
}
