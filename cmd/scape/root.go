package main

import (
	"github.com/spf13/cobra"

	"github.com/1broseidon/scape/internal/config"
	"github.com/1broseidon/scape/internal/ipc"
	"github.com/1broseidon/scape/internal/runtimepath"
)

var (
	version    = "dev"
	cfgFile    string
	socketFlag string
)

var rootCmd = &cobra.Command{
	Use:   "scape",
	Short: "A scriptable zone-based window placement daemon",
	Long: `scape places windows into named zones on spaces spanning one or more outputs.
Policy lives in a Lua script (default: ~/.config/scape/init.lua); the daemon
applies it to display events and exposes a control socket for the CLI.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: ~/.config/scape/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&socketFlag, "socket", "",
		"IPC socket path (overrides config)")
}

func loadConfig() (*config.LoadResult, error) {
	return config.LoadFromPath(cfgFile)
}

// newClient resolves the socket from --socket, then the config file, then
// the runtime directory.
func newClient() (*ipc.Client, error) {
	socket := socketFlag
	if socket == "" {
		if res, err := loadConfig(); err == nil {
			socket = res.Config.Socket
		}
	}
	path, err := runtimepath.ResolveSocket(socket)
	if err != nil {
		return nil, err
	}
	return ipc.NewClient(path), nil
}
