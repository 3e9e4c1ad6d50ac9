package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"yodel/internal/config"
	"yodel/internal/track"
)

func newBackupCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "backup <file>",
		Short: "Export the track database as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}
			return ctx.withStore(func(_ *config.Config, store *track.Store) error {
				backup, err := store.Export(cmd.Context())
				if err != nil {
					return err
				}
				file, err := os.Create(target)
				if err != nil {
					return fmt.Errorf("create backup file: %w", err)
				}
				if err := track.WriteBackup(file, backup); err != nil {
					file.Close()
					return err
				}
				if err := file.Close(); err != nil {
					return fmt.Errorf("close backup file: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Exported %s to %s\n", plural(len(backup.Tracks), "track"), target)
				return nil
			})
		},
	}
}

func newRestoreCommand(ctx *commandContext) *cobra.Command {
	var replace bool

	cmd := &cobra.Command{
		Use:   "restore <file>",
		Short: "Import tracks from a JSON backup",
		Long: "Import tracks from a JSON backup.\n\n" +
			"Existing tracks are kept unless --replace is given.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}
			file, err := os.Open(source)
			if err != nil {
				return fmt.Errorf("open backup file: %w", err)
			}
			defer file.Close()
			tracks, err := track.ReadBackup(file)
			if err != nil {
				return err
			}
			return ctx.withStore(func(_ *config.Config, store *track.Store) error {
				restored, err := store.Restore(cmd.Context(), tracks, replace)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Restored %s of %d\n", plural(restored, "track"), len(tracks))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&replace, "replace", false, "Overwrite tracks that already exist")
	return cmd
}
