package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/1broseidon/scape/internal/compositor"
	"github.com/1broseidon/scape/internal/config"
	"github.com/1broseidon/scape/internal/diag"
	"github.com/1broseidon/scape/internal/output"
	"github.com/1broseidon/scape/internal/platform"
	"github.com/1broseidon/scape/internal/script"
)

var checkOutputs []string

var checkCmd = &cobra.Command{
	Use:   "check [script]",
	Short: "Load a script against simulated outputs and print the result",
	Long: `Load a script without a display. Simulated outputs are connected first
(--output name:WxH[+X+Y], repeatable; default one 1920x1080 output), then the
script runs with its startup and connector-change hooks. The resulting spaces,
zones and bindings are printed as YAML. Exits non-zero if the script fails to load.

Example:
  scape check ~/.config/scape/init.lua --output DP-1:2560x1440 --output HDMI-A-1:1920x1080`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := loadConfig()
		if err != nil {
			return fmt.Errorf("loading configuration: %w", err)
		}
		path := res.Config.Script
		if len(args) == 1 {
			if path, err = filepath.Abs(args[0]); err != nil {
				return err
			}
		}
		outputs, err := parseOutputFlags(checkOutputs)
		if err != nil {
			return err
		}
		return runCheck(cmd.Context(), res.Config, path, outputs, os.Stdout)
	},
}

func init() {
	checkCmd.Flags().StringArrayVarP(&checkOutputs, "output", "o", nil, "simulated output name:WxH[+X+Y] (repeatable)")
	rootCmd.AddCommand(checkCmd)
}

// checkReport is what `scape check` prints.
type checkReport struct {
	Script      string                    `yaml:"script"`
	Loaded      bool                      `yaml:"loaded"`
	Error       string                    `yaml:"error,omitempty"`
	Outputs     []output.Output           `yaml:"outputs"`
	Spaces      []compositor.SpaceState   `yaml:"spaces"`
	Bindings    []compositor.BindingState `yaml:"bindings"`
	Rules       []compositor.WindowRule   `yaml:"rules,omitempty"`
	Spawned     []string                  `yaml:"spawned,omitempty"`
	Diagnostics []string                  `yaml:"diagnostics,omitempty"`
}

func runCheck(ctx context.Context, cfg *config.Config, path string, outputs []compositor.OutputAdded, w io.Writer) error {
	logger := slog.New(slog.DiscardHandler)
	backend := platform.NewHeadless(logger)
	comp, err := compositor.New(compositor.Options{
		Logger:  logger,
		Backend: backend,
		Bridge: script.New(script.Options{
			Logger:    logger,
			Timeout:   cfg.CallbackTimeout,
			ModuleDir: filepath.Dir(path),
		}),
		Diagnostics:    diag.NewChannel(256, logger),
		DefaultSpace:   cfg.DefaultSpace,
		Gap:            cfg.Gap,
		DefaultKeymaps: cfg.DefaultKeymaps,
		Env:            cfg.Env,
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() { _ = comp.Run(ctx) }()

	for _, o := range outputs {
		if err := comp.Post(ctx, o); err != nil {
			return err
		}
	}
	loadErr := comp.LoadScriptFile(ctx, path)

	snap, err := comp.Snapshot(ctx)
	if err != nil && loadErr == nil {
		// The script may have asked to quit during startup.
		return fmt.Errorf("reading state: %w", err)
	}

	report := checkReport{
		Script:   path,
		Loaded:   loadErr == nil,
		Outputs:  snap.Outputs,
		Spaces:   snap.Spaces,
		Bindings: snap.Bindings,
		Rules:    snap.Rules,
	}
	if loadErr != nil {
		report.Error = loadErr.Error()
	}
	for _, s := range backend.Spawned() {
		report.Spawned = append(report.Spawned, strings.TrimSpace(s.Command+" "+strings.Join(s.Args, " ")))
	}
	for _, d := range comp.Diagnostics().Drain() {
		report.Diagnostics = append(report.Diagnostics, d.String())
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(report); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	if loadErr != nil {
		return fmt.Errorf("script %s failed to load: %w", path, loadErr)
	}
	return nil
}

// parseOutputFlags parses name:WxH[+X+Y] values. Outputs without a position
// are placed left to right after the previous one.
func parseOutputFlags(values []string) ([]compositor.OutputAdded, error) {
	if len(values) == 0 {
		values = []string{"Virtual-1:1920x1080"}
	}
	out := make([]compositor.OutputAdded, 0, len(values))
	nextX := 0
	for _, v := range values {
		o, positioned, err := parseOutputFlag(v)
		if err != nil {
			return nil, err
		}
		if !positioned {
			o.Geometry.X = nextX
		}
		nextX = o.Geometry.X + o.Geometry.Width
		out = append(out, o)
	}
	return out, nil
}

func parseOutputFlag(v string) (compositor.OutputAdded, bool, error) {
	name, spec, ok := strings.Cut(v, ":")
	if !ok || name == "" || spec == "" {
		return compositor.OutputAdded{}, false, fmt.Errorf("invalid output %q: want name:WxH[+X+Y]", v)
	}

	var (
		x, y       int
		positioned bool
	)
	size := spec
	if i := strings.IndexByte(spec, '+'); i >= 0 {
		size = spec[:i]
		pos := strings.Split(spec[i+1:], "+")
		if len(pos) != 2 {
			return compositor.OutputAdded{}, false, fmt.Errorf("invalid output position in %q", v)
		}
		var err1, err2 error
		x, err1 = strconv.Atoi(pos[0])
		y, err2 = strconv.Atoi(pos[1])
		if err1 != nil || err2 != nil {
			return compositor.OutputAdded{}, false, fmt.Errorf("invalid output position in %q", v)
		}
		positioned = true
	}

	ws, hs, ok := strings.Cut(size, "x")
	if !ok {
		return compositor.OutputAdded{}, false, fmt.Errorf("invalid output size in %q", v)
	}
	width, err1 := strconv.Atoi(ws)
	height, err2 := strconv.Atoi(hs)
	if err1 != nil || err2 != nil || width <= 0 || height <= 0 {
		return compositor.OutputAdded{}, false, fmt.Errorf("invalid output size in %q", v)
	}

	return compositor.OutputAdded{
		Output:      name,
		Description: "simulated",
		Geometry:    platform.Rect{X: x, Y: y, Width: width, Height: height},
		Scale:       1,
	}, positioned, nil
}
