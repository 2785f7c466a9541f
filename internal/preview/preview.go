// Package preview draws the running daemon's spaces, zones and window
// assignments in the terminal.
package preview

import (
	"context"
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/1broseidon/scape/internal/compositor"
)

// Source provides orchestrator snapshots. *ipc.Client satisfies it.
type Source interface {
	GetSnapshot() (*compositor.Snapshot, error)
}

// Config controls the preview loop.
type Config struct {
	Interval time.Duration
}

// DefaultConfig returns the default preview configuration.
func DefaultConfig() Config {
	return Config{Interval: time.Second}
}

type state struct {
	snap    *compositor.Snapshot
	space   int
	lastErr string
}

// Run draws snapshots from src on screen until q/Esc is pressed or ctx ends.
// The screen must already be initialized; Run does not call Fini.
func Run(ctx context.Context, screen tcell.Screen, src Source, cfg Config) error {
	if cfg.Interval < 200*time.Millisecond {
		cfg.Interval = 200 * time.Millisecond
	}

	events := make(chan tcell.Event, 16)
	go func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				close(events)
				return
			}
			events <- ev
		}
	}()

	var st state
	refresh := func() {
		st.refresh(src)
		draw(screen, st)
	}

	refresh()
	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			refresh()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			switch tev := ev.(type) {
			case *tcell.EventResize:
				screen.Sync()
				draw(screen, st)
			case *tcell.EventKey:
				switch handleKey(&st, tev) {
				case actionQuit:
					return nil
				case actionRefresh:
					refresh()
				case actionRedraw:
					draw(screen, st)
				}
			}
		}
	}
}

func (st *state) refresh(src Source) {
	snap, err := src.GetSnapshot()
	if err != nil {
		st.lastErr = err.Error()
		return
	}
	st.lastErr = ""
	st.snap = snap
	if st.space >= len(snap.Spaces) {
		st.space = 0
	}
}

type action int

const (
	actionNone action = iota
	actionQuit
	actionRefresh
	actionRedraw
)

func handleKey(st *state, ev *tcell.EventKey) action {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return actionQuit
	case tcell.KeyTab:
		st.cycle(1)
		return actionRedraw
	case tcell.KeyBacktab:
		st.cycle(-1)
		return actionRedraw
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'q':
			return actionQuit
		case 'r':
			return actionRefresh
		case 'n', 'l':
			st.cycle(1)
			return actionRedraw
		case 'p', 'h':
			st.cycle(-1)
			return actionRedraw
		}
	}
	return actionNone
}

func (st *state) cycle(delta int) {
	if st.snap == nil || len(st.snap.Spaces) == 0 {
		return
	}
	n := len(st.snap.Spaces)
	st.space = ((st.space+delta)%n + n) % n
}

func (st state) currentSpace() (compositor.SpaceState, bool) {
	if st.snap == nil || st.space < 0 || st.space >= len(st.snap.Spaces) {
		return compositor.SpaceState{}, false
	}
	return st.snap.Spaces[st.space], true
}

func statusLine(st state) string {
	if st.lastErr != "" {
		return fmt.Sprintf("error: %s", st.lastErr)
	}
	if st.snap == nil {
		return "waiting for daemon"
	}
	return fmt.Sprintf("spaces:%d | windows:%d | outputs:%d | tab:next space r:refresh q:quit",
		len(st.snap.Spaces), len(st.snap.Windows), len(st.snap.Outputs))
}
