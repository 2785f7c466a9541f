package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/1broseidon/scape/internal/platform"
	"github.com/1broseidon/scape/internal/zone"
)

var moveWindow uint32

var moveCmd = &cobra.Command{
	Use:   "move <zone>",
	Short: "Move a window into a zone of its space",
	Long: `Move a window into a named zone of its space. Without --window the
focused window is moved.`,
	Args: cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		return client.MoveToZone(platform.WindowID(moveWindow), args[0])
	},
}

var (
	setZonesSpace string
	setZonesFile  string
)

var setZonesCmd = &cobra.Command{
	Use:   "set-zones",
	Short: "Replace the zones of a space",
	Long: `Replace the zone set of a space from a YAML file ("-" reads stdin).
The file is a list of zones:

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

The set is validated as a whole; on error the previous zones stay.`,
	Args: cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		specs, err := readZoneFile(setZonesFile)
		if err != nil {
			return err
		}
		client, err := newClient()
		if err != nil {
			return err
		}
		return client.SetZones(setZonesSpace, specs)
	},
}

var spawnCmd = &cobra.Command{
	Use:   "spawn <command> [args...]",
	Short: "Launch a program through the daemon",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		return client.Spawn(args[0], args[1:])
	},
}

var focusCmd = &cobra.Command{
	Use:   "focus <window-id>",
	Short: "Focus a window",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		id, err := strconv.ParseUint(args[0], 0, 32)
		if err != nil {
			return fmt.Errorf("invalid window id %q", args[0])
		}
		client, err := newClient()
		if err != nil {
			return err
		}
		return client.Focus(platform.WindowID(id))
	},
}

var reloadCmd = &cobra.Command{
	Use:   "reload",
	Short: "Reload the user script",
	Long:  "Reload the user script. On failure the previous configuration stays active.",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		if err := client.Reload(); err != nil {
			return err
		}
		fmt.Fprintln(os.Stdout, "reloaded")
		return nil
	},
}

func init() {
	moveCmd.Flags().Uint32VarP(&moveWindow, "window", "w", 0, "window id (default: focused window)")

	setZonesCmd.Flags().StringVarP(&setZonesSpace, "space", "s", "", "space name (default: the focused window's space)")
	setZonesCmd.Flags().StringVarP(&setZonesFile, "file", "f", "", "YAML zone list, or - for stdin")
	_ = setZonesCmd.MarkFlagRequired("file")

	// Flags after the command belong to the spawned program.
	spawnCmd.Flags().SetInterspersed(false)

	rootCmd.AddCommand(moveCmd, setZonesCmd, spawnCmd, focusCmd, reloadCmd)
}

func readZoneFile(path string) ([]zone.Spec, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("reading zones: %w", err)
	}
	return parseZones(data)
}

// parseZones accepts either a bare list or a map with a zones key.
func parseZones(data []byte) ([]zone.Spec, error) {
	var specs []zone.Spec
	if err := yaml.Unmarshal(data, &specs); err == nil {
		return specs, nil
	}
	var doc struct {
		Zones []zone.Spec `yaml:"zones"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing zones: %w", err)
	}
	return doc.Zones, nil
}
