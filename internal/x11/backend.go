package x11

import (
	"context"
	"log/slog"
	"sync"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"
	"github.com/BurntSushi/xgbutil/xevent"

	"github.com/1broseidon/scape/internal/compositor"
	"github.com/1broseidon/scape/internal/daemon"
	"github.com/1broseidon/scape/internal/keymap"
	"github.com/1broseidon/scape/internal/platform"
)

// EventSink receives key events from the X event loop. It must not block.
type EventSink interface {
	TryPost(ev compositor.Event) error
}

// Backend drives an existing X11 session. It is the display backend,
// renderer and key grabber for the orchestrator and the observation source
// for the reconciler.
type Backend struct {
	conn   *Connection
	logger *slog.Logger

	sinkMu sync.RWMutex
	sink   EventSink

	mu      sync.Mutex
	grabbed []string
}

// NewBackend wraps an open connection. logger may be nil.
func NewBackend(conn *Connection, logger *slog.Logger) *Backend {
	if logger == nil {
		logger = slog.Default()
	}
	return &Backend{conn: conn, logger: logger.With("component", "x11")}
}

// SetSink sets where grabbed key presses are delivered.
func (b *Backend) SetSink(sink EventSink) {
	b.sinkMu.Lock()
	defer b.sinkMu.Unlock()
	b.sink = sink
}

// Run processes X events until ctx is cancelled.
func (b *Backend) Run(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		b.conn.EventLoop()
	}()
	select {
	case <-ctx.Done():
		b.conn.Quit()
		<-done
	case <-done:
	}
}

// Snapshot implements daemon.Source.
func (b *Backend) Snapshot() (daemon.State, error) {
	outputs, err := b.conn.Outputs()
	if err != nil {
		return daemon.State{}, err
	}
	windows, err := b.conn.Clients()
	if err != nil {
		return daemon.State{}, err
	}
	return daemon.State{
		Outputs: outputs,
		Windows: windows,
		Focused: b.conn.ActiveWindow(),
	}, nil
}

// ApplyOutputConfig is logged only; X11 outputs are owned by the session.
func (b *Backend) ApplyOutputConfig(cfg platform.OutputConfig) {
	b.logger.Info("output config not applied on X11",
		"output", cfg.Name, "geometry", cfg.Geometry.String(), "enabled", cfg.Enabled, "space", cfg.Space)
}

// UpdateWindowGeometry moves and resizes a client window.
func (b *Backend) UpdateWindowGeometry(id platform.WindowID, geometry platform.Rect) {
	b.logger.Debug("move window", "window", id, "geometry", geometry.String())
	b.conn.MoveResizeWindow(xproto.Window(id), geometry)
}

// CloseWindow asks the client to close through EWMH.
func (b *Backend) CloseWindow(id platform.WindowID) {
	if err := b.conn.CloseWindow(xproto.Window(id)); err != nil {
		b.logger.Warn("close window failed", "window", id, "error", err)
	}
}

// FocusWindow activates the window through the window manager.
func (b *Backend) FocusWindow(id platform.WindowID) {
	if err := b.conn.ActivateWindow(xproto.Window(id)); err != nil {
		b.logger.Warn("focus window failed", "window", id, "error", err)
	}
}

// SwitchVT is unsupported inside an X session.
func (b *Backend) SwitchVT(vt int) {
	b.logger.Warn("vt switch ignored on X11", "vt", vt)
}

// UpdatePlacement implements platform.Renderer. Geometry is already pushed
// through UpdateWindowGeometry, so placements are only traced.
func (b *Backend) UpdatePlacement(p platform.Placement) {
	b.logger.Debug("placement", "window", p.Window, "space", p.Space, "zone", p.Zone,
		"geometry", p.Geometry.String(), "visible", p.Visible)
}

// GrabKeys replaces every passive grab on the root window with chords.
func (b *Backend) GrabKeys(chords []platform.Chord) {
	xu := b.conn.XUtil
	root := b.conn.Root

	b.mu.Lock()
	defer b.mu.Unlock()

	keybind.Detach(xu, root)
	b.grabbed = b.grabbed[:0]

	for _, chord := range chords {
		seq, err := sequence(chord)
		if err != nil {
			b.logger.Warn("skipping key binding", "key", chord.Key, "mods", chord.Mods, "error", err)
			continue
		}
		ev := compositor.KeyEvent{Key: chord.Key, Mods: keymap.ModsFromNames(chord.Mods)}
		err = keybind.KeyPressFun(func(_ *xgbutil.XUtil, _ xevent.KeyPressEvent) {
			b.deliver(ev)
		}).Connect(xu, root, seq, true)
		if err != nil {
			b.logger.Warn("key grab failed", "sequence", seq, "error", err)
			continue
		}
		b.grabbed = append(b.grabbed, seq)
	}
	b.logger.Debug("key grabs updated", "count", len(b.grabbed))
}

// Grabbed returns the key sequences currently grabbed.
func (b *Backend) Grabbed() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.grabbed...)
}

func (b *Backend) deliver(ev compositor.KeyEvent) {
	b.sinkMu.RLock()
	sink := b.sink
	b.sinkMu.RUnlock()
	if sink == nil {
		return
	}
	if err := sink.TryPost(ev); err != nil {
		b.logger.Warn("dropped key event", "key", ev.Key, "mods", ev.Mods.String(), "error", err)
	}
}
