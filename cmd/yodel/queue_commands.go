package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"yodel/internal/config"
	"yodel/internal/daemon"
	"yodel/internal/logging"
	"yodel/internal/storagekey"
	"yodel/internal/track"
)

func newRetryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry [id...]",
		Short: "Requeue failed or missing tracks",
		Long: "Requeue failed or missing tracks.\n\n" +
			"Without arguments every failed and file-missing track is reset to pending.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := normalizeIDs(args)
			if err != nil {
				return err
			}
			return ctx.withStore(func(_ *config.Config, store *track.Store) error {
				count, err := store.Retry(cmd.Context(), ids...)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s requeued\n", plural(int(count), "track"))
				return nil
			})
		},
	}
}

func newRemoveCommand(ctx *commandContext) *cobra.Command {
	var statusFlags []string

	cmd := &cobra.Command{
		Use:   "remove [id...]",
		Short: "Remove tracks from the database",
		Long: "Remove tracks from the database.\n\n" +
			"Downloaded files are left in place. Use --status to remove every track with a status.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := normalizeIDs(args)
			if err != nil {
				return err
			}
			statuses, err := parseStatuses(statusFlags)
			if err != nil {
				return err
			}
			if len(ids) == 0 && len(statuses) == 0 {
				return errors.New("specify track ids or --status")
			}
			return ctx.withStore(func(_ *config.Config, store *track.Store) error {
				if len(statuses) > 0 {
					matched, err := store.List(cmd.Context(), statuses...)
					if err != nil {
						return err
					}
					for _, t := range matched {
						ids = append(ids, t.ID)
					}
				}
				if len(ids) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No matching tracks")
					return nil
				}
				count, err := store.Remove(cmd.Context(), ids...)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s removed\n", plural(int(count), "track"))
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVarP(&statusFlags, "status", "s", nil, "Remove every track with this status")
	return cmd
}

func newReconcileCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Mark downloaded tracks whose files are gone",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(_ *config.Config, store *track.Store) error {
				missing, err := daemon.Reconcile(cmd.Context(), store, storagekey.Codec{}, logging.NewNop())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(missing) == 0 {
					fmt.Fprintln(out, "All downloaded files present")
					return nil
				}
				for _, id := range missing {
					fmt.Fprintf(out, "Missing: %s\n", id)
				}
				fmt.Fprintf(out, "%s marked file missing\n", plural(len(missing), "track"))
				return nil
			})
		},
	}
}

// normalizeIDs accepts links as well as bare ids.
func normalizeIDs(args []string) ([]string, error) {
	ids := make([]string, 0, len(args))
	for _, arg := range args {
		id, ok := track.ExtractID(arg)
		if !ok {
			return nil, fmt.Errorf("no track id in %q", arg)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
