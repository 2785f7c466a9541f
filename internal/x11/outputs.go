package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"

	"github.com/1broseidon/scape/internal/daemon"
	"github.com/1broseidon/scape/internal/platform"
)

// Outputs returns every active RandR CRTC as an output. Geometry excludes
// the area reserved by dock struts.
func (c *Connection) Outputs() ([]daemon.OutputState, error) {
	resources, err := randr.GetScreenResources(c.XUtil.Conn(), c.Root).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get screen resources: %w", err)
	}

	var outputs []daemon.OutputState
	for i, crtc := range resources.Crtcs {
		info, err := randr.GetCrtcInfo(c.XUtil.Conn(), crtc, resources.ConfigTimestamp).Reply()
		if err != nil {
			continue
		}
		if info.Width == 0 || info.Height == 0 || len(info.Outputs) == 0 {
			continue
		}

		name := fmt.Sprintf("CRTC-%d", i)
		description := ""
		if oi, err := randr.GetOutputInfo(c.XUtil.Conn(), info.Outputs[0], resources.ConfigTimestamp).Reply(); err == nil {
			name = string(oi.Name)
			if oi.MmWidth > 0 && oi.MmHeight > 0 {
				description = fmt.Sprintf("%dmm x %dmm", oi.MmWidth, oi.MmHeight)
			}
		}

		outputs = append(outputs, daemon.OutputState{
			Name:        name,
			Description: description,
			Geometry: platform.Rect{
				X:      int(info.X),
				Y:      int(info.Y),
				Width:  int(info.Width),
				Height: int(info.Height),
			},
			Scale: 1,
		})
	}

	if struts, root, ok := c.dockStruts(); ok {
		for i := range outputs {
			outputs[i].Geometry = applyStruts(outputs[i].Geometry, root, struts)
		}
	}
	return outputs, nil
}

// dockStruts collects the strut reservations of every dock window.
func (c *Connection) dockStruts() ([]ewmh.WmStrutPartial, platform.Rect, bool) {
	rootGeom, err := xproto.GetGeometry(c.XUtil.Conn(), xproto.Drawable(c.Root)).Reply()
	if err != nil {
		return nil, platform.Rect{}, false
	}
	root := platform.Rect{Width: int(rootGeom.Width), Height: int(rootGeom.Height)}

	clients, err := ewmh.ClientListGet(c.XUtil)
	if err != nil {
		return nil, root, false
	}

	var struts []ewmh.WmStrutPartial
	for _, win := range clients {
		types, err := ewmh.WmWindowTypeGet(c.XUtil, win)
		if err != nil || !hasType(types, "_NET_WM_WINDOW_TYPE_DOCK") {
			continue
		}
		if sp, err := ewmh.WmStrutPartialGet(c.XUtil, win); err == nil {
			struts = append(struts, *sp)
			continue
		}
		// Some docks only set _NET_WM_STRUT (no partial ranges).
		if s, err := ewmh.WmStrutGet(c.XUtil, win); err == nil {
			struts = append(struts, fullStrut(s, root))
		}
	}
	return struts, root, len(struts) > 0
}

func fullStrut(s *ewmh.WmStrut, root platform.Rect) ewmh.WmStrutPartial {
	return ewmh.WmStrutPartial{
		Left:       s.Left,
		Right:      s.Right,
		Top:        s.Top,
		Bottom:     s.Bottom,
		LeftEndY:   uint(root.Height - 1),
		RightEndY:  uint(root.Height - 1),
		TopEndX:    uint(root.Width - 1),
		BottomEndX: uint(root.Width - 1),
	}
}

type insets struct {
	left, right, top, bottom int
}

// applyStruts shrinks out by the largest strut overlapping each of its edges.
func applyStruts(out platform.Rect, root platform.Rect, struts []ewmh.WmStrutPartial) platform.Rect {
	var acc insets
	for _, sp := range struts {
		if sp.Top > 0 {
			r := platform.Rect{X: int(sp.TopStartX), Y: 0, Width: int(sp.TopEndX) - int(sp.TopStartX) + 1, Height: int(sp.Top)}
			acc.top = max(acc.top, overlap(out, r).Height)
		}
		if sp.Bottom > 0 {
			r := platform.Rect{X: int(sp.BottomStartX), Y: root.Height - int(sp.Bottom), Width: int(sp.BottomEndX) - int(sp.BottomStartX) + 1, Height: int(sp.Bottom)}
			acc.bottom = max(acc.bottom, overlap(out, r).Height)
		}
		if sp.Left > 0 {
			r := platform.Rect{X: 0, Y: int(sp.LeftStartY), Width: int(sp.Left), Height: int(sp.LeftEndY) - int(sp.LeftStartY) + 1}
			acc.left = max(acc.left, overlap(out, r).Width)
		}
		if sp.Right > 0 {
			r := platform.Rect{X: root.Width - int(sp.Right), Y: int(sp.RightStartY), Width: int(sp.Right), Height: int(sp.RightEndY) - int(sp.RightStartY) + 1}
			acc.right = max(acc.right, overlap(out, r).Width)
		}
	}

	out.X += acc.left
	out.Y += acc.top
	out.Width -= acc.left + acc.right
	out.Height -= acc.top + acc.bottom
	if out.Width < 1 {
		out.Width = 1
	}
	if out.Height < 1 {
		out.Height = 1
	}
	return out
}

func overlap(a, b platform.Rect) platform.Rect {
	if !a.Intersects(b) {
		return platform.Rect{}
	}
	x1 := max(a.X, b.X)
	y1 := max(a.Y, b.Y)
	x2 := min(a.X+a.Width, b.X+b.Width)
	y2 := min(a.Y+a.Height, b.Y+b.Height)
	return platform.Rect{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1}
}

func hasType(types []string, want string) bool {
	for _, t := range types {
		if t == want {
			return true
		}
	}
	return false
}
