package ipc

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/1broseidon/scape/internal/compositor"
	"github.com/1broseidon/scape/internal/diag"
	"github.com/1broseidon/scape/internal/platform"
	"github.com/1broseidon/scape/internal/zone"
)

const zonesScript = `
local scape = require("scape")
scape.set_zones({
  { name = "left",  x = 0,   y = 0, width = 960, height = 1080 },
  { name = "right", x = 960, y = 0, width = 960, height = 1080, default = true },
})
scape.map_key("Left", "super", function() scape.move_to_zone("left") end)
`

type fixture struct {
	backend *platform.Headless
	comp    *compositor.Compositor
	client  *Client
	reloads atomic.Int32
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)
	backend := platform.NewHeadless(nil)
	comp, err := compositor.New(compositor.Options{
		Logger:      logger,
		Backend:     backend,
		Diagnostics: diag.NewChannel(64, logger),
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = comp.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-comp.Done()
	})

	f := &fixture{backend: backend, comp: comp}
	socket := filepath.Join(t.TempDir(), "scape.sock")
	srv, err := NewServer(socket, comp, func(ctx context.Context) error {
		f.reloads.Add(1)
		return comp.LoadScript(ctx, "init.lua", zonesScript)
	}, logger)
	require.NoError(t, err)
	require.NoError(t, srv.Start())
	t.Cleanup(srv.Stop)

	f.client = NewClient(socket)
	return f
}

func TestServer_ReloadAndQueries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.client.Reload())
	require.Equal(t, int32(1), f.reloads.Load())

	require.NoError(t, f.comp.Post(ctx, compositor.OutputAdded{Output: "DP-1", Geometry: platform.Rect{Width: 1920, Height: 1080}}))
	require.NoError(t, f.comp.Post(ctx, compositor.SurfaceMapped{Window: 7, AppID: "foot"}))

	status, err := f.client.GetStatus()
	require.NoError(t, err)
	require.True(t, status.DaemonRunning)
	require.True(t, status.ScriptLoaded)
	require.Equal(t, 1, status.Outputs)
	require.Equal(t, 1, status.Windows)
	require.Equal(t, 1, status.Bindings)

	outputs, err := f.client.GetOutputs()
	require.NoError(t, err)
	require.Len(t, outputs.Outputs, 1)
	require.Equal(t, "DP-1", outputs.Outputs[0].Name)

	windows, err := f.client.GetWindows()
	require.NoError(t, err)
	require.Len(t, windows.Windows, 1)
	require.Equal(t, "right", windows.Windows[0].Zone)

	zones, err := f.client.GetZones()
	require.NoError(t, err)
	require.Len(t, zones.Spaces, 1)
	require.Equal(t, "main", zones.Spaces[0].Name)
	require.Len(t, zones.Spaces[0].Zones, 2)

	bindings, err := f.client.GetBindings()
	require.NoError(t, err)
	require.Equal(t, "super+left", bindings.Bindings[0].Chord)

	snap, err := f.client.GetSnapshot()
	require.NoError(t, err)
	require.Len(t, snap.Windows, 1)
}

func TestServer_Commands(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.client.Reload())
	require.NoError(t, f.comp.Post(ctx, compositor.SurfaceMapped{Window: 7}))
	require.NoError(t, f.comp.Post(ctx, compositor.SurfaceMapped{Window: 8}))

	require.NoError(t, f.client.MoveToZone(7, "left"))
	require.NoError(t, f.client.Focus(8))
	require.NoError(t, f.client.MoveToZone(0, "left"))

	windows, err := f.client.GetWindows()
	require.NoError(t, err)
	require.Equal(t, platform.WindowID(8), windows.Windows[1].ID)
	require.Equal(t, "left", windows.Windows[0].Zone)
	require.Equal(t, "left", windows.Windows[1].Zone)
	require.Equal(t, platform.WindowID(8), windows.Focused)

	require.NoError(t, f.client.SetZones("main", []zone.Spec{{Name: "full", Width: 1920, Height: 1080, Default: true}}))
	windows, err = f.client.GetWindows()
	require.NoError(t, err)
	for _, w := range windows.Windows {
		require.Empty(t, w.Zone, "window %d should be unassigned after its zone vanished", w.ID)
	}

	require.NoError(t, f.client.Spawn("foot", []string{"-e", "htop"}))
	require.Eventually(t, func() bool { return len(f.backend.Spawned()) == 1 }, time.Second, 10*time.Millisecond)
	require.Equal(t, "foot", f.backend.Spawned()[0].Command)
}

func TestServer_CommandErrors(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.client.Reload())

	err := f.client.MoveToZone(42, "left")
	var derr *Error
	require.True(t, errors.As(err, &derr))
	require.Equal(t, string(diag.UnknownReferenceError), derr.Kind)

	err = f.client.SetZones("main", []zone.Spec{{Name: "a", Width: 0, Height: 10}})
	require.True(t, errors.As(err, &derr))
	require.Equal(t, string(diag.ConfigurationError), derr.Kind)

	require.ErrorContains(t, f.client.MoveToZone(0, ""), "zone is required")
	require.ErrorContains(t, f.client.Spawn(" ", nil), "command is required")
	require.ErrorContains(t, f.client.Focus(0), "window is required")

	_, err = f.client.sendRequest("BOGUS", nil)
	require.ErrorContains(t, err, "Unknown command")
}

func TestServer_SocketPermissionsAndCleanup(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)
	socket := filepath.Join(t.TempDir(), "scape.sock")
	require.NoError(t, os.WriteFile(socket, []byte("stale"), 0644))

	srv, err := NewServer(socket, nil, nil, logger)
	require.NoError(t, err)
	require.NoError(t, srv.Start())

	info, err := os.Stat(socket)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0600), info.Mode().Perm())

	require.ErrorContains(t, NewClient(socket).Reload(), "reload is not supported")

	srv.Stop()
	_, err = os.Stat(socket)
	require.True(t, os.IsNotExist(err))
}

func TestClient_NoDaemon(t *testing.T) {
	c := NewClient(filepath.Join(t.TempDir(), "missing.sock"))
	require.ErrorContains(t, c.Ping(), "is the daemon running?")
}
