package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/BurntSushi/xgbutil/xwindow"

	"github.com/1broseidon/scape/internal/daemon"
	"github.com/1broseidon/scape/internal/platform"
)

// Clients returns the normal application windows in the EWMH client list.
func (c *Connection) Clients() ([]daemon.WindowState, error) {
	clients, err := ewmh.ClientListGet(c.XUtil)
	if err != nil {
		return nil, fmt.Errorf("failed to get client list: %w", err)
	}

	windows := make([]daemon.WindowState, 0, len(clients))
	for _, win := range clients {
		if !c.IsNormalWindow(win) {
			continue
		}
		ws := daemon.WindowState{
			ID:    platform.WindowID(win),
			AppID: c.appID(win),
			Title: c.title(win),
		}
		if geom, err := xwindow.New(c.XUtil, win).DecorGeometry(); err == nil {
			ws.Geometry = platform.Rect{X: geom.X(), Y: geom.Y(), Width: geom.Width(), Height: geom.Height()}
		}
		windows = append(windows, ws)
	}
	return windows, nil
}

// ActiveWindow returns _NET_ACTIVE_WINDOW, or 0 when nothing has focus.
func (c *Connection) ActiveWindow() platform.WindowID {
	win, err := ewmh.ActiveWindowGet(c.XUtil)
	if err != nil {
		return 0
	}
	return platform.WindowID(win)
}

// appID uses the WM_CLASS class, falling back to the instance name.
func (c *Connection) appID(win xproto.Window) string {
	class, err := icccm.WmClassGet(c.XUtil, win)
	if err != nil || class == nil {
		return ""
	}
	if class.Class != "" {
		return class.Class
	}
	return class.Instance
}

func (c *Connection) title(win xproto.Window) string {
	if name, err := ewmh.WmNameGet(c.XUtil, win); err == nil && name != "" {
		return name
	}
	name, _ := icccm.WmNameGet(c.XUtil, win)
	return name
}

// IsNormalWindow checks if a window is a normal application window
func (c *Connection) IsNormalWindow(windowID xproto.Window) bool {
	types, err := ewmh.WmWindowTypeGet(c.XUtil, windowID)
	if err != nil {
		// If we can't determine type, assume it's normal
		return true
	}
	return isNormalType(types)
}

func isNormalType(types []string) bool {
	for _, t := range types {
		switch t {
		case "_NET_WM_WINDOW_TYPE_NORMAL":
			return true
		case "_NET_WM_WINDOW_TYPE_DESKTOP",
			"_NET_WM_WINDOW_TYPE_DOCK",
			"_NET_WM_WINDOW_TYPE_SPLASH",
			"_NET_WM_WINDOW_TYPE_NOTIFICATION":
			return false
		}
	}
	return len(types) == 0
}

// MoveResizeWindow moves and resizes a window, clearing any maximized state first.
func (c *Connection) MoveResizeWindow(windowID xproto.Window, r platform.Rect) {
	c.unmaximizeWindow(windowID)

	if err := ewmh.MoveresizeWindow(c.XUtil, windowID, r.X, r.Y, r.Width, r.Height); err != nil {
		// Fallback to direct window manipulation
		xwindow.New(c.XUtil, windowID).MoveResize(r.X, r.Y, r.Width, r.Height)
	}
}

func (c *Connection) unmaximizeWindow(windowID xproto.Window) {
	states, err := ewmh.WmStateGet(c.XUtil, windowID)
	if err != nil {
		return
	}
	for _, state := range states {
		if state == "_NET_WM_STATE_MAXIMIZED_HORZ" || state == "_NET_WM_STATE_MAXIMIZED_VERT" {
			ewmh.WmStateReq(c.XUtil, windowID, ewmh.StateRemove, state)
		}
	}
}

// ActivateWindow activates and raises a window using _NET_ACTIVE_WINDOW.
// The message is built by hand because the xgbutil helper panics on this
// library version.
func (c *Connection) ActivateWindow(windowID xproto.Window) error {
	atomReply, err := xproto.InternAtom(c.XUtil.Conn(), false,
		uint16(len("_NET_ACTIVE_WINDOW")), "_NET_ACTIVE_WINDOW").Reply()
	if err != nil {
		return fmt.Errorf("failed to intern _NET_ACTIVE_WINDOW: %w", err)
	}

	const sourceIndication = 2 // pager/direct action
	ev := xproto.ClientMessageEvent{
		Format: 32,
		Window: windowID,
		Type:   atomReply.Atom,
		Data:   xproto.ClientMessageDataUnionData32New([]uint32{sourceIndication, 0, 0, 0, 0}),
	}

	return xproto.SendEventChecked(
		c.XUtil.Conn(),
		false,
		c.Root,
		xproto.EventMaskSubstructureRedirect|xproto.EventMaskSubstructureNotify,
		string(ev.Bytes()),
	).Check()
}

// CloseWindow asks the window manager to close a window via _NET_CLOSE_WINDOW.
func (c *Connection) CloseWindow(windowID xproto.Window) error {
	return ewmh.CloseWindow(c.XUtil, windowID)
}
