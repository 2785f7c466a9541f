package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/1broseidon/scape/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect or create the daemon configuration",
}

var configPrintCmd = &cobra.Command{
	Use:   "print",
	Short: "Print the effective configuration (defaults, file and SCAPE_* environment)",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		res, err := loadConfig()
		if err != nil {
			return err
		}
		out, err := res.Config.YAML()
		if err != nil {
			return err
		}
		if res.File != "" {
			fmt.Fprintf(os.Stdout, "# %s\n", res.File)
		} else {
			fmt.Fprintln(os.Stdout, "# defaults (no config file)")
		}
		_, err = os.Stdout.Write(out)
		return err
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a default configuration file (never overwrites)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		path := cfgFile
		if len(args) == 1 {
			path = args[0]
		}
		if path == "" {
			p, err := config.DefaultConfigPath()
			if err != nil {
				return err
			}
			path = p
		}
		if err := config.WriteDefault(path); err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "wrote %s\n", path)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configPrintCmd, configInitCmd)
	rootCmd.AddCommand(configCmd)
}
