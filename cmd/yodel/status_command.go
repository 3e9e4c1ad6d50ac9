package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"yodel/internal/config"
	"yodel/internal/daemon"
	"yodel/internal/track"
)

type statusView struct {
	DaemonRunning bool           `json:"daemon_running"`
	DatabasePath  string         `json:"database_path"`
	Total         int            `json:"total"`
	Counts        map[string]int `json:"counts"`
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show queue and daemon status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *track.Store) error {
				stats, err := store.Stats(cmd.Context())
				if err != nil {
					return err
				}
				running, err := daemon.LockHeld(cfg.LockPath())
				if err != nil {
					return fmt.Errorf("check daemon lock: %w", err)
				}

				view := statusView{
					DaemonRunning: running,
					DatabasePath:  store.Path(),
					Counts:        make(map[string]int, len(stats)),
				}
				for _, status := range track.AllStatuses() {
					view.Counts[string(status)] = stats[status]
					view.Total += stats[status]
				}
				if jsonOutput {
					return writeJSON(cmd, view)
				}

				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				for _, line := range renderSectionHeader("Daemon", colorize) {
					fmt.Fprintln(out, line)
				}
				daemonKind, daemonMsg := statusWarn, "Not running"
				if running {
					daemonKind, daemonMsg = statusOK, "Running"
				}
				fmt.Fprintln(out, renderStatusLine("Daemon", daemonKind, daemonMsg, colorize))
				fmt.Fprintln(out, renderStatusLine("Database", statusInfo, view.DatabasePath, colorize))
				fmt.Fprintln(out)

				for _, line := range renderSectionHeader("Queue", colorize) {
					fmt.Fprintln(out, line)
				}
				rows := make([][]string, 0, len(stats)+1)
				for _, status := range track.AllStatuses() {
					rows = append(rows, []string{colorStatus(status, colorize), strconv.Itoa(stats[status])})
				}
				rows = append(rows, []string{"Total", strconv.Itoa(view.Total)})
				fmt.Fprintln(out, renderTable([]string{"Status", "Tracks"}, rows, []columnAlignment{alignLeft, alignRight}))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output JSON")
	return cmd
}
