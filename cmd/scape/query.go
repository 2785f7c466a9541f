package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/1broseidon/scape/internal/compositor"
	"github.com/1broseidon/scape/internal/ipc"
	"github.com/1broseidon/scape/internal/output"
	"github.com/1broseidon/scape/internal/platform"
	"github.com/1broseidon/scape/internal/window"
)

var jsonOut bool

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	cellStyle   = lipgloss.NewStyle().PaddingRight(1)
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon status",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		status, err := client.GetStatus()
		if err != nil {
			return err
		}
		if jsonOut {
			return writeJSON(os.Stdout, status)
		}
		renderStatus(os.Stdout, status)
		return nil
	},
}

var outputsCmd = &cobra.Command{
	Use:   "outputs",
	Short: "List outputs",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		data, err := client.GetOutputs()
		if err != nil {
			return err
		}
		if jsonOut {
			return writeJSON(os.Stdout, data)
		}
		fmt.Fprintln(os.Stdout, renderOutputs(data.Outputs))
		return nil
	},
}

var windowsCmd = &cobra.Command{
	Use:   "windows",
	Short: "List windows and their zones",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		data, err := client.GetWindows()
		if err != nil {
			return err
		}
		if jsonOut {
			return writeJSON(os.Stdout, data)
		}
		fmt.Fprintln(os.Stdout, renderWindows(data.Windows, data.Focused))
		return nil
	},
}

var zonesCmd = &cobra.Command{
	Use:   "zones [space]",
	Short: "List spaces and their zones",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		data, err := client.GetZones()
		if err != nil {
			return err
		}
		spaces := data.Spaces
		if len(args) == 1 {
			spaces = filterSpaces(spaces, args[0])
			if len(spaces) == 0 {
				return fmt.Errorf("unknown space %q", args[0])
			}
		}
		if jsonOut {
			return writeJSON(os.Stdout, ipc.ZonesData{Spaces: spaces})
		}
		fmt.Fprintln(os.Stdout, renderZones(spaces))
		return nil
	},
}

var bindingsCmd = &cobra.Command{
	Use:   "bindings",
	Short: "List key bindings",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		data, err := client.GetBindings()
		if err != nil {
			return err
		}
		if jsonOut {
			return writeJSON(os.Stdout, data)
		}
		fmt.Fprintln(os.Stdout, renderBindings(data.Bindings))
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{statusCmd, outputsCmd, windowsCmd, zonesCmd, bindingsCmd} {
		c.Flags().BoolVar(&jsonOut, "json", false, "print JSON instead of a table")
		rootCmd.AddCommand(c)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(dimStyle).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

func renderStatus(w io.Writer, s *ipc.StatusData) {
	fmt.Fprintf(w, "daemon_running:   %v\n", s.DaemonRunning)
	fmt.Fprintf(w, "script_loaded:    %v (%d loads)\n", s.ScriptLoaded, s.ScriptLoads)
	fmt.Fprintf(w, "outputs:          %d\n", s.Outputs)
	fmt.Fprintf(w, "spaces:           %d\n", s.Spaces)
	fmt.Fprintf(w, "windows:          %d\n", s.Windows)
	fmt.Fprintf(w, "bindings:         %d\n", s.Bindings)
	if s.Focused != 0 {
		fmt.Fprintf(w, "focused:          %d\n", s.Focused)
	}
	fmt.Fprintf(w, "events_processed: %d\n", s.EventsProcessed)
	if s.DiagnosticsDropped > 0 {
		fmt.Fprintf(w, "diagnostics_dropped: %d\n", s.DiagnosticsDropped)
	}
	fmt.Fprintf(w, "uptime:           %s\n", time.Duration(s.UptimeSeconds)*time.Second)
}

func renderOutputs(outputs []output.Output) string {
	if len(outputs) == 0 {
		return dimStyle.Render("no outputs")
	}
	t := newTable("NAME", "STATE", "SPACE", "GEOMETRY", "SCALE", "PRIMARY")
	for _, o := range outputs {
		t.Row(o.Name, string(o.State), dash(o.Space), o.Geometry.String(),
			fmt.Sprintf("%.2g", o.Scale), yesNo(o.Primary))
	}
	return t.String()
}

func renderWindows(windows []window.Window, focused platform.WindowID) string {
	if len(windows) == 0 {
		return dimStyle.Render("no windows")
	}
	t := newTable("", "ID", "APP", "TITLE", "SPACE", "ZONE", "GEOMETRY")
	for _, win := range windows {
		mark := ""
		if win.ID == focused {
			mark = "*"
		}
		t.Row(mark, fmt.Sprint(win.ID), dash(win.AppID), truncate(win.Title, 40),
			dash(win.Space), dash(win.Zone), win.Geometry.String())
	}
	return t.String()
}

func renderZones(spaces []compositor.SpaceState) string {
	if len(spaces) == 0 {
		return dimStyle.Render("no spaces")
	}
	t := newTable("SPACE", "OUTPUTS", "ZONE", "GEOMETRY", "DEFAULT")
	for _, sp := range spaces {
		outs := dash(strings.Join(sp.Outputs, ","))
		if len(sp.Zones) == 0 {
			t.Row(sp.Name, outs, "-", "-", "")
			continue
		}
		for i, z := range sp.Zones {
			name, o := sp.Name, outs
			if i > 0 {
				name, o = "", ""
			}
			t.Row(name, o, z.Name, z.Geometry.String(), yesNo(z.Default))
		}
	}
	return t.String()
}

func renderBindings(bindings []compositor.BindingState) string {
	if len(bindings) == 0 {
		return dimStyle.Render("no bindings")
	}
	t := newTable("CHORD", "ACTION")
	for _, b := range bindings {
		action := "script"
		if b.Builtin {
			action = b.Action
		}
		t.Row(b.Chord, action)
	}
	return t.String()
}

func filterSpaces(spaces []compositor.SpaceState, name string) []compositor.SpaceState {
	for _, sp := range spaces {
		if sp.Name == name {
			return []compositor.SpaceState{sp}
		}
	}
	return nil
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return ""
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
