package preview

import (
	"fmt"

	"github.com/gdamore/tcell/v2"

	"github.com/1broseidon/scape/internal/compositor"
	"github.com/1broseidon/scape/internal/platform"
	"github.com/1broseidon/scape/internal/window"
)

var (
	statusStyle  = tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorLightGray)
	contentStyle = tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorBlack)
	tabStyle     = tcell.StyleDefault.Foreground(tcell.ColorGray).Background(tcell.ColorBlack)
	activeTab    = tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorYellow).Bold(true)
	zoneStyle    = tcell.StyleDefault.Foreground(tcell.ColorTeal).Background(tcell.ColorBlack)
	defaultZone  = tcell.StyleDefault.Foreground(tcell.ColorYellow).Background(tcell.ColorBlack)
	focusStyle   = tcell.StyleDefault.Foreground(tcell.ColorGreen).Background(tcell.ColorBlack).Bold(true)
)

func draw(screen tcell.Screen, st state) {
	screen.Clear()
	width, height := screen.Size()
	if width <= 0 || height <= 0 {
		screen.Show()
		return
	}

	drawTabs(screen, width, st)

	top := 1
	bottom := height - 1
	if bottom-top > 2 {
		if sp, ok := st.currentSpace(); ok {
			drawSpace(screen, 0, top, width, bottom, sp, st.snap)
		} else {
			msg := "no spaces"
			if st.snap == nil {
				msg = "no snapshot"
			}
			drawCentered(screen, 0, top, width, bottom-top, contentStyle, msg)
		}
	}

	if height > 1 {
		drawText(screen, 0, height-1, width, statusLine(st), statusStyle)
	}
	screen.Show()
}

func drawTabs(screen tcell.Screen, width int, st state) {
	drawText(screen, 0, 0, width, "", contentStyle)
	if st.snap == nil {
		return
	}
	x := 0
	for i, sp := range st.snap.Spaces {
		label := fmt.Sprintf(" %s ", sp.Name)
		style := tabStyle
		if i == st.space {
			style = activeTab
		}
		if x+len(label) > width {
			break
		}
		drawText(screen, x, 0, len(label), label, style)
		x += len(label) + 1
	}
}

// drawSpace scales the space onto the region [x0,x1)x[y0,y1) and draws each
// zone with the windows assigned to it.
func drawSpace(screen tcell.Screen, x0, y0, x1, y1 int, sp compositor.SpaceState, snap *compositor.Snapshot) {
	if len(sp.Zones) == 0 {
		drawCentered(screen, x0, y0, x1-x0, y1-y0, contentStyle, fmt.Sprintf("space %q has no zones", sp.Name))
		return
	}
	byZone := windowsByZone(snap.Windows, sp.Name)
	for _, z := range sp.Zones {
		zx0, zy0, zx1, zy1 := scaleRect(z.Geometry, sp.Bounds, x0, y0, x1-x0, y1-y0)
		style := zoneStyle
		title := z.Name
		if z.Default {
			style = defaultZone
			title += " *"
		}
		drawBox(screen, zx0, zy0, zx1, zy1, style)
		w := zx1 - zx0 - 2
		if w <= 0 || zy1-zy0 <= 2 {
			continue
		}
		drawText(screen, zx0+1, zy0+1, w, title, style.Bold(true))
		for i, win := range byZone[z.Name] {
			row := zy0 + 2 + i
			if row >= zy1-1 {
				break
			}
			ws := contentStyle
			if win.ID == snap.Focused {
				ws = focusStyle
			}
			drawText(screen, zx0+1, row, w, windowLabel(win), ws)
		}
	}
}

func windowsByZone(windows []window.Window, space string) map[string][]window.Window {
	out := make(map[string][]window.Window)
	for _, w := range windows {
		if w.Space != space || w.Zone == "" {
			continue
		}
		out[w.Zone] = append(out[w.Zone], w)
	}
	return out
}

func windowLabel(w window.Window) string {
	name := w.AppID
	if name == "" {
		name = "?"
	}
	if w.Title != "" {
		name += " " + w.Title
	}
	return fmt.Sprintf("%d %s", w.ID, name)
}

// scaleRect maps r, relative to the origin of bounds, onto a w x h cell area at (ox, oy).
// The result always spans at least two cells in each direction.
func scaleRect(r, bounds platform.Rect, ox, oy, w, h int) (int, int, int, int) {
	bw, bh := bounds.Width, bounds.Height
	if bw <= 0 || bh <= 0 {
		return ox, oy, ox + w, oy + h
	}
	x0 := ox + r.X*w/bw
	y0 := oy + r.Y*h/bh
	x1 := ox + (r.X+r.Width)*w/bw
	y1 := oy + (r.Y+r.Height)*h/bh

	x0 = clamp(x0, ox, ox+w)
	x1 = clamp(x1, ox, ox+w)
	y0 = clamp(y0, oy, oy+h)
	y1 = clamp(y1, oy, oy+h)
	if x1-x0 < 2 {
		x1 = min(x0+2, ox+w)
		x0 = x1 - 2
	}
	if y1-y0 < 2 {
		y1 = min(y0+2, oy+h)
		y0 = y1 - 2
	}
	return x0, y0, x1, y1
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func drawBox(screen tcell.Screen, x0, y0, x1, y1 int, style tcell.Style) {
	w := x1 - x0
	h := y1 - y0
	if w <= 1 || h <= 1 {
		return
	}
	for x := x0; x < x1; x++ {
		screen.SetContent(x, y0, '-', nil, style)
		screen.SetContent(x, y1-1, '-', nil, style)
	}
	for y := y0; y < y1; y++ {
		screen.SetContent(x0, y, '|', nil, style)
		screen.SetContent(x1-1, y, '|', nil, style)
	}
	screen.SetContent(x0, y0, '+', nil, style)
	screen.SetContent(x1-1, y0, '+', nil, style)
	screen.SetContent(x0, y1-1, '+', nil, style)
	screen.SetContent(x1-1, y1-1, '+', nil, style)
}

func drawText(screen tcell.Screen, x, y, width int, text string, style tcell.Style) {
	if width <= 0 {
		return
	}
	runes := []rune(text)
	if len(runes) > width {
		runes = runes[:width]
	}
	for i := 0; i < width; i++ {
		ch := ' '
		if i < len(runes) {
			ch = runes[i]
		}
		screen.SetContent(x+i, y, ch, nil, style)
	}
}

func drawCentered(screen tcell.Screen, x0, y0, width, height int, style tcell.Style, text string) {
	if width <= 0 || height <= 0 {
		return
	}
	y := y0 + height/2
	x := x0 + (width-len(text))/2
	if x < x0 {
		x = x0
	}
	drawText(screen, x, y, width-(x-x0), text, style)
}
