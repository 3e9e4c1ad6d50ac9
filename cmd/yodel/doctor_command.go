package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"yodel/internal/notifications"
	"yodel/internal/preflight"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	var notify bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check directories, external tools and notifications",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			results := preflight.RunAll(cmd.Context(), cfg)
			for _, line := range renderSectionHeader("Preflight", colorize) {
				fmt.Fprintln(out, line)
			}
			fmt.Fprintln(out, renderStatusLine("Config", statusInfo, ctx.configPath, colorize))
			for _, result := range results {
				kind := statusOK
				if !result.Passed {
					kind = statusError
				}
				fmt.Fprintln(out, renderStatusLine(result.Name, kind, result.Detail, colorize))
			}

			if notify {
				if cfg.Notifications.NtfyTopic == "" {
					return errors.New("ntfy_topic is not configured")
				}
				service := notifications.NewService(cfg)
				if err := service.Publish(cmd.Context(), notifications.EventTest, nil); err != nil {
					fmt.Fprintln(out, renderStatusLine("Test notification", statusError, err.Error(), colorize))
					return err
				}
				fmt.Fprintln(out, renderStatusLine("Test notification", statusOK, "sent", colorize))
			}

			if failed := preflight.Failed(results); len(failed) > 0 {
				return fmt.Errorf("%s failed", plural(len(failed), "check"))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&notify, "notify", false, "Send a test notification")
	return cmd
}
