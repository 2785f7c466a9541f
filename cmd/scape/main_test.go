package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/1broseidon/scape/internal/compositor"
	"github.com/1broseidon/scape/internal/config"
	"github.com/1broseidon/scape/internal/output"
	"github.com/1broseidon/scape/internal/platform"
	"github.com/1broseidon/scape/internal/zone"
)

func TestParseOutputFlags(t *testing.T) {
	outs, err := parseOutputFlags([]string{"DP-1:2560x1440", "HDMI-A-1:1920x1080", "eDP-1:1280x800+0+1440"})
	require.NoError(t, err)
	require.Len(t, outs, 3)

	require.Equal(t, "DP-1", outs[0].Output)
	require.Equal(t, platform.Rect{X: 0, Y: 0, Width: 2560, Height: 1440}, outs[0].Geometry)
	require.Equal(t, platform.Rect{X: 2560, Y: 0, Width: 1920, Height: 1080}, outs[1].Geometry)
	require.Equal(t, platform.Rect{X: 0, Y: 1440, Width: 1280, Height: 800}, outs[2].Geometry)
	require.Equal(t, 1.0, outs[2].Scale)
}

func TestParseOutputFlagsDefault(t *testing.T) {
	outs, err := parseOutputFlags(nil)
	require.NoError(t, err)
	require.Len(t, outs, 1)
	require.Equal(t, "Virtual-1", outs[0].Output)
	require.Equal(t, 1920, outs[0].Geometry.Width)
}

func TestParseOutputFlagsInvalid(t *testing.T) {
	for _, v := range []string{"DP-1", ":1920x1080", "DP-1:1920", "DP-1:0x1080", "DP-1:axb", "DP-1:1920x1080+5", "DP-1:1920x1080+a+b"} {
		_, err := parseOutputFlags([]string{v})
		require.Error(t, err, v)
	}
}

func TestParseZones(t *testing.T) {
	list := []byte(`
- name: left
  x: 0
  y: 0
  width: 960
  height: 1080
  default: true
- name: right
  x: 960
  y: 0
  width: 960
  height: 1080
`)
	specs, err := parseZones(list)
	require.NoError(t, err)
	require.Equal(t, []zone.Spec{
		{Name: "left", Width: 960, Height: 1080, Default: true},
		{Name: "right", X: 960, Width: 960, Height: 1080},
	}, specs)

	wrapped := []byte("zones:\n  - {name: only, x: 0, y: 0, width: 10, height: 10}\n")
	specs, err = parseZones(wrapped)
	require.NoError(t, err)
	require.Len(t, specs, 1)
	require.Equal(t, "only", specs[0].Name)

	_, err = parseZones([]byte("zones: [unclosed"))
	require.Error(t, err)
}

const checkScript = `
local scape = require("scape")

scape.on_connector_change(function(outputs)
  local cfg = {}
  for _, o in ipairs(outputs) do
    o.x = (o.index - 1) * 1920
    o.default = o.index == 1
    table.insert(cfg, o)
  end
  scape.set_layout({ main = cfg })
  scape.set_zones({
    { name = "left", x = 0, y = 0, width = 1920, height = 1080, default = true },
    { name = "right", x = 1920, y = 0, width = 1920, height = 1080 },
  }, "main")
end)

scape.on_startup(function() scape.spawn("waybar") end)

scape.map_key({ key = "Return", mods = "super", callback = function() scape.spawn("foot") end })
`

func writeScript(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "init.lua")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

func TestRunCheck(t *testing.T) {
	path := writeScript(t, checkScript)
	outs, err := parseOutputFlags([]string{"DP-1:1920x1080", "DP-2:1920x1080"})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, runCheck(context.Background(), config.DefaultConfig(), path, outs, &buf))

	var report checkReport
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &report))
	require.True(t, report.Loaded)
	require.Empty(t, report.Error)
	require.Len(t, report.Outputs, 2)
	for _, o := range report.Outputs {
		require.Equal(t, output.StateActive, o.State)
		require.Equal(t, "main", o.Space)
	}

	var main *compositor.SpaceState
	for i := range report.Spaces {
		if report.Spaces[i].Name == "main" {
			main = &report.Spaces[i]
		}
	}
	require.NotNil(t, main)
	require.Len(t, main.Zones, 2)
	require.Equal(t, "left", main.Zones[0].Name)
	require.True(t, main.Zones[0].Default)

	var chords []string
	for _, b := range report.Bindings {
		chords = append(chords, b.Chord)
	}
	require.Contains(t, strings.ToLower(strings.Join(chords, " ")), "super+return")
	require.Equal(t, []string{"waybar"}, report.Spawned)
}

func TestRunCheckLoadError(t *testing.T) {
	path := writeScript(t, `local scape = require("scape") scape.map_key(`)

	var buf bytes.Buffer
	err := runCheck(context.Background(), config.DefaultConfig(), path, nil, &buf)
	require.Error(t, err)

	var report checkReport
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &report))
	require.False(t, report.Loaded)
	require.NotEmpty(t, report.Error)
	require.NotEmpty(t, report.Diagnostics)
}

func TestRunCheckMissingScript(t *testing.T) {
	var buf bytes.Buffer
	err := runCheck(context.Background(), config.DefaultConfig(), filepath.Join(t.TempDir(), "nope.lua"), nil, &buf)
	require.Error(t, err)
	require.Contains(t, buf.String(), "loaded: false")
}

func TestRenderTables(t *testing.T) {
	outs := renderOutputs([]output.Output{{Name: "DP-1", State: output.StateActive, Space: "main", Geometry: platform.Rect{Width: 1920, Height: 1080}, Scale: 1, Primary: true}})
	require.Contains(t, outs, "DP-1")
	require.Contains(t, outs, "1920x1080+0+0")
	require.Contains(t, outs, "active")

	zones := renderZones([]compositor.SpaceState{{
		Name:    "main",
		Outputs: []string{"DP-1"},
		Zones:   []zone.Zone{{Name: "left", Geometry: platform.Rect{Width: 960, Height: 1080}, Default: true}},
	}})
	require.Contains(t, zones, "left")
	require.Contains(t, zones, "main")

	require.Contains(t, renderBindings(nil), "no bindings")
	require.Contains(t, renderBindings([]compositor.BindingState{{Chord: "ctrl|alt+F1", Builtin: true, Action: "vt_switch 1"}}), "vt_switch 1")
}

func TestFilterSpaces(t *testing.T) {
	spaces := []compositor.SpaceState{{Name: "main"}, {Name: "side"}}
	require.Len(t, filterSpaces(spaces, "side"), 1)
	require.Empty(t, filterSpaces(spaces, "nope"))
}

func TestTruncate(t *testing.T) {
	require.Equal(t, "short", truncate("short", 10))
	require.Equal(t, "abcd…", truncate("abcdefgh", 5))
}

func TestApplyRunFlags(t *testing.T) {
	t.Cleanup(func() {
		runBackend, runScript, runNoWatch, runLogLevel, socketFlag = "", "", false, "", ""
	})

	cfg := config.DefaultConfig()
	runBackend = config.BackendHeadless
	runScript = "init.lua"
	runNoWatch = true
	runLogLevel = "debug"
	socketFlag = "/tmp/scape-test.sock"
	require.NoError(t, applyRunFlags(cfg))
	require.Equal(t, config.BackendHeadless, cfg.Backend)
	require.True(t, filepath.IsAbs(cfg.Script))
	require.False(t, cfg.Watch)
	require.Equal(t, "debug", cfg.Log.Level)
	require.Equal(t, "/tmp/scape-test.sock", cfg.Socket)

	runBackend = "wayland"
	require.Error(t, applyRunFlags(config.DefaultConfig()))
}
