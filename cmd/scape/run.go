package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/1broseidon/scape/internal/compositor"
	"github.com/1broseidon/scape/internal/config"
	"github.com/1broseidon/scape/internal/daemon"
	"github.com/1broseidon/scape/internal/diag"
	"github.com/1broseidon/scape/internal/ipc"
	"github.com/1broseidon/scape/internal/logging"
	"github.com/1broseidon/scape/internal/platform"
	"github.com/1broseidon/scape/internal/runtimepath"
	"github.com/1broseidon/scape/internal/script"
	"github.com/1broseidon/scape/internal/spawn"
	"github.com/1broseidon/scape/internal/tracing"
	"github.com/1broseidon/scape/internal/watcher"
	"github.com/1broseidon/scape/internal/x11"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the daemon (foreground)",
	Long: `Start the daemon in the foreground.

With the x11 backend the daemon attaches to the running X session: outputs come
from RandR, windows from the EWMH client list, and key bindings are grabbed on
the root window. The headless backend has no display and is driven only through
the control socket.

Example:
  scape run
  scape run --backend headless --script ./init.lua`,
	Args: cobra.NoArgs,
	RunE: runDaemon,
}

var (
	runBackend  string
	runScript   string
	runNoWatch  bool
	runLogLevel string
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&runBackend, "backend", "", "display backend: x11 or headless (overrides config)")
	runCmd.Flags().StringVar(&runScript, "script", "", "Lua script to load (overrides config)")
	runCmd.Flags().BoolVar(&runNoWatch, "no-watch", false, "do not reload the script when it changes")
	runCmd.Flags().StringVar(&runLogLevel, "log-level", "", "log level: debug, info, warn, error (overrides config)")
}

// applyRunFlags copies command line overrides onto cfg and revalidates it.
func applyRunFlags(cfg *config.Config) error {
	if runBackend != "" {
		cfg.Backend = runBackend
	}
	if runScript != "" {
		abs, err := filepath.Abs(runScript)
		if err != nil {
			return fmt.Errorf("resolve script path: %w", err)
		}
		cfg.Script = abs
	}
	if runNoWatch {
		cfg.Watch = false
	}
	if runLogLevel != "" {
		cfg.Log.Level = runLogLevel
	}
	if socketFlag != "" {
		cfg.Socket = socketFlag
	}
	return cfg.Validate()
}

func runDaemon(_ *cobra.Command, _ []string) error {
	res, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	cfg := res.Config
	if err := applyRunFlags(cfg); err != nil {
		return err
	}

	logger, err := logging.New(cfg.Log, os.Stderr)
	if err != nil {
		return fmt.Errorf("initializing logging: %w", err)
	}
	slog.SetDefault(logger)
	if res.File != "" {
		logger.Info("configuration loaded", "file", res.File)
	}

	tp, err := tracing.NewProvider(cfg.Tracing)
	if err != nil {
		return fmt.Errorf("initializing tracing: %w", err)
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			logger.Warn("tracing shutdown failed", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	spawner := spawn.New(logger)

	var (
		backend platform.DisplayBackend
		xb      *x11.Backend
	)
	switch cfg.Backend {
	case config.BackendX11:
		conn, err := x11.NewConnection("")
		if err != nil {
			return fmt.Errorf("connecting to display: %w", err)
		}
		defer conn.Close()
		xb = x11.NewBackend(conn, logger)
		backend = xb
		spawner.Display = os.Getenv("DISPLAY")
	case config.BackendHeadless:
		backend = platform.NewHeadless(logger)
	default:
		return fmt.Errorf("unknown backend %q", cfg.Backend)
	}

	bridge := script.New(script.Options{
		Logger:    logger,
		Timeout:   cfg.CallbackTimeout,
		ModuleDir: filepath.Dir(cfg.Script),
	})
	comp, err := compositor.New(compositor.Options{
		Logger:         logger,
		Backend:        backend,
		Spawner:        spawner,
		Bridge:         bridge,
		Tracer:         tp.Tracer(),
		DefaultSpace:   cfg.DefaultSpace,
		Gap:            cfg.Gap,
		DefaultKeymaps: cfg.DefaultKeymaps,
		QueueSize:      cfg.QueueSize,
		Env:            cfg.Env,
	})
	if err != nil {
		return err
	}

	runErr := make(chan error, 1)
	go func() {
		runErr <- comp.Run(ctx)
	}()
	go drainDiagnostics(ctx, comp.Diagnostics())

	if err := comp.LoadScriptFile(ctx, cfg.Script); err != nil {
		// The daemon keeps running with built-in defaults so the script can be fixed and reloaded.
		logger.Error("initial script load failed", "script", cfg.Script, "error", err)
	} else {
		logger.Info("script loaded", "script", cfg.Script)
	}

	if xb != nil {
		xb.SetSink(comp)
		go xb.Run(ctx)
		rec := daemon.NewReconciler(daemon.ReconcilerConfig{
			Interval: cfg.PollInterval,
			Logger:   logger,
		}, xb, comp)
		go func() {
			if err := rec.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("reconciler stopped", "error", err)
			}
		}()
	}

	reload := func(ctx context.Context) error {
		return comp.LoadScriptFile(ctx, cfg.Script)
	}

	socket, err := runtimepath.ResolveSocket(cfg.Socket)
	if err != nil {
		return fmt.Errorf("resolving socket path: %w", err)
	}
	srv, err := ipc.NewServer(socket, comp, reload, logger)
	if err != nil {
		return err
	}
	if err := srv.Start(); err != nil {
		return fmt.Errorf("starting IPC server: %w", err)
	}
	defer srv.Stop()
	logger.Info("scape daemon started", "backend", cfg.Backend, "socket", socket)

	if cfg.Watch {
		w, err := watcher.New(watcher.Config{
			ScriptPath:  cfg.Script,
			DebounceDur: watcher.DefaultConfig(cfg.Script).DebounceDur,
			Logger:      logger,
		})
		if err != nil {
			logger.Warn("script watching disabled", "error", err)
		} else if changes, err := w.Start(); err != nil {
			logger.Warn("script watching disabled", "error", err)
		} else {
			defer func() { _ = w.Stop() }()
			go watchReloads(ctx, changes, reload, logger)
		}
	}

	err = <-runErr
	if errors.Is(err, context.Canceled) {
		logger.Info("scape daemon stopped")
		return nil
	}
	return err
}

func watchReloads(ctx context.Context, changes <-chan struct{}, reload ipc.ReloadFunc, logger *slog.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-changes:
			if !ok {
				return
			}
			if err := reload(ctx); err != nil {
				logger.Error("script reload failed; keeping previous configuration", "error", err)
				continue
			}
			logger.Info("script reloaded")
		}
	}
}

// drainDiagnostics keeps the channel from filling up. Every diagnostic has
// already been logged by the time it arrives here.
func drainDiagnostics(ctx context.Context, ch *diag.Channel) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-ch.C():
		}
	}
}
