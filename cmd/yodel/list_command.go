package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"yodel/internal/config"
	"yodel/internal/storagekey"
	"yodel/internal/track"
)

func newListCommand(ctx *commandContext) *cobra.Command {
	var statusFlags []string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tracks",
		RunE: func(cmd *cobra.Command, args []string) error {
			statuses, err := parseStatuses(statusFlags)
			if err != nil {
				return err
			}
			return ctx.withStore(func(_ *config.Config, store *track.Store) error {
				tracks, err := store.List(cmd.Context(), statuses...)
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, trackViews(tracks))
				}
				out := cmd.OutOrStdout()
				if len(tracks) == 0 {
					fmt.Fprintln(out, "No tracks")
					return nil
				}
				printTrackTable(out, tracks, shouldColorize(out))
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVarP(&statusFlags, "status", "s", nil, "Filter by status (pending, downloading, downloaded, failed, file_missing)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output JSON")
	return cmd
}

func parseStatuses(values []string) ([]track.Status, error) {
	statuses := make([]track.Status, 0, len(values))
	for _, value := range values {
		status, ok := track.ParseStatus(value)
		if !ok {
			return nil, fmt.Errorf("unknown status %q", value)
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

type trackView struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Artist      string `json:"artist,omitempty"`
	Album       string `json:"album,omitempty"`
	ReleaseDate string `json:"release_date,omitempty"`
	Duration    string `json:"duration,omitempty"`
	Status      string `json:"status"`
	AudioFile   string `json:"audio_file,omitempty"`
	CoverFile   string `json:"cover_file,omitempty"`
	AddedAt     string `json:"added_at"`
}

func trackViews(tracks []*track.Track) []trackView {
	codec := storagekey.Codec{}
	views := make([]trackView, 0, len(tracks))
	for _, t := range tracks {
		view := trackView{
			ID:      t.ID,
			Title:   t.Title,
			Artist:  t.Artist,
			Album:   t.AlbumName,
			Status:  string(t.Status),
			AddedAt: t.FirstAddedAt.Format("2006-01-02T15:04:05Z07:00"),
		}
		if !t.ReleaseDate.IsZero() {
			view.ReleaseDate = t.ReleaseDate.Format("2006-01-02")
		}
		if t.Duration > 0 {
			view.Duration = formatDuration(t.Duration.Seconds())
		}
		view.AudioFile, _ = codec.Decode(t.AudioFileKey)
		view.CoverFile, _ = codec.Decode(t.CoverFileKey)
		views = append(views, view)
	}
	return views
}

func printTrackTable(out io.Writer, tracks []*track.Track, colorize bool) {
	rows := make([][]string, 0, len(tracks))
	for _, view := range trackViews(tracks) {
		rows = append(rows, []string{
			view.ID,
			truncate(view.Title, 48),
			truncate(view.Artist, 24),
			fallbackDash(view.Duration),
			colorStatus(track.Status(view.Status), colorize),
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"ID", "Title", "Artist", "Length", "Status"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
	))
}

func formatDuration(seconds float64) string {
	total := int(seconds + 0.5)
	if total >= 3600 {
		return fmt.Sprintf("%d:%02d:%02d", total/3600, (total%3600)/60, total%60)
	}
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

func truncate(value string, limit int) string {
	runes := []rune(strings.TrimSpace(value))
	if len(runes) <= limit {
		return string(runes)
	}
	return string(runes[:limit-1]) + "…"
}

func fallbackDash(value string) string {
	if value == "" {
		return "-"
	}
	return value
}
