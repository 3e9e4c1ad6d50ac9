package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"yodel/internal/daemon"
	"yodel/internal/daemonrun"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var logLevel string
	var development bool
	var quiet bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the download worker in the foreground",
		Long: "Run the download worker in the foreground until interrupted.\n\n" +
			"Pending tracks are downloaded in insertion order. Tracks added from another\n" +
			"shell are picked up automatically.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			opts := daemonrun.Options{LogLevel: logLevel, Development: development}
			if !quiet && shouldColorize(os.Stderr) {
				opts.Progress = os.Stderr
			}
			err = daemonrun.Run(cmd.Context(), cfg, opts)
			if errors.Is(err, daemon.ErrAlreadyRunning) {
				return fmt.Errorf("another yodel worker is already running (lock %s)", cfg.LockPath())
			}
			return err
		},
	}

	cmd.Flags().StringVar(&logLevel, "log-level", "", "Override the configured log level")
	cmd.Flags().BoolVar(&development, "dev", false, "Enable development logging")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Disable console progress")
	return cmd
}
