package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/spf13/cobra"

	"github.com/1broseidon/scape/internal/preview"
)

var previewInterval time.Duration

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Show spaces, zones and windows of the running daemon in the terminal",
	Long: `Draw the running daemon's spaces, zones and window assignments, refreshed
from the control socket. Tab switches space, r refreshes, q or Esc quits.`,
	Args: cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		screen, err := tcell.NewScreen()
		if err != nil {
			return fmt.Errorf("failed to create screen: %w", err)
		}
		if err := screen.Init(); err != nil {
			return fmt.Errorf("failed to init screen: %w", err)
		}
		defer screen.Fini()

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
		defer stop()
		return preview.Run(ctx, screen, client, preview.Config{Interval: previewInterval})
	},
}

func init() {
	previewCmd.Flags().DurationVar(&previewInterval, "interval", preview.DefaultConfig().Interval, "refresh interval")
	rootCmd.AddCommand(previewCmd)
}
