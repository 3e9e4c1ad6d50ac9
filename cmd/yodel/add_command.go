package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"yodel/internal/config"
	"yodel/internal/fetcher"
	"yodel/internal/logging"
	"yodel/internal/track"
)

const lookupRetries = 2

type addOptions struct {
	playlist bool
	replace  bool
	lookup   bool
	title    string
}

type addCandidate struct {
	id    string
	title string
}

func newAddCommand(ctx *commandContext) *cobra.Command {
	var opts addOptions

	cmd := &cobra.Command{
		Use:   "add <url-or-id>...",
		Short: "Queue tracks for download",
		Long: "Queue tracks for download.\n\n" +
			"Accepts watch links, short links and bare 11-character ids. With --playlist each\n" +
			"argument is a playlist link whose entries are queued in playlist order.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.title != "" && (len(args) != 1 || opts.playlist) {
				return errors.New("--title applies to a single track")
			}
			return ctx.withStore(func(cfg *config.Config, store *track.Store) error {
				candidates, err := resolveAddCandidates(cmd.Context(), args, opts)
				if err != nil {
					return err
				}
				if opts.lookup {
					lookupTitles(cmd.Context(), cfg, candidates, cmd.ErrOrStderr())
				}
				return addTracks(cmd.Context(), store, candidates, opts.replace, cmd.OutOrStdout())
			})
		},
	}

	cmd.Flags().BoolVar(&opts.playlist, "playlist", false, "Treat arguments as playlist links and queue every entry")
	cmd.Flags().BoolVar(&opts.replace, "replace", false, "Replace tracks that already exist instead of skipping them")
	cmd.Flags().BoolVar(&opts.lookup, "lookup", false, "Fetch titles with yt-dlp before queueing")
	cmd.Flags().StringVar(&opts.title, "title", "", "Display title for the queued track")
	return cmd
}

func resolveAddCandidates(ctx context.Context, args []string, opts addOptions) ([]addCandidate, error) {
	var candidates []addCandidate
	if opts.playlist {
		lister := fetcher.NewPlaylistLister(0)
		for _, arg := range args {
			playlistID, ok := track.ExtractPlaylistID(arg)
			if !ok {
				return nil, fmt.Errorf("no playlist id in %q", arg)
			}
			entries, err := lister.List(ctx, playlistID)
			if err != nil {
				return nil, err
			}
			for _, entry := range entries {
				candidates = append(candidates, addCandidate{id: entry.ID, title: entry.Title})
			}
		}
		return candidates, nil
	}

	for _, arg := range args {
		id, ok := track.ExtractID(arg)
		if !ok {
			return nil, fmt.Errorf("no track id in %q", arg)
		}
		candidates = append(candidates, addCandidate{id: id, title: strings.TrimSpace(opts.title)})
	}
	return candidates, nil
}

func lookupTitles(ctx context.Context, cfg *config.Config, candidates []addCandidate, errOut io.Writer) {
	ytdlp := fetcher.New(cfg.DownloaderBinary(), logging.NewNop())
	for i := range candidates {
		if candidates[i].title != "" {
			continue
		}
		info, err := ytdlp.GetInfo(ctx, candidates[i].id, lookupRetries)
		if err != nil {
			fmt.Fprintf(errOut, "warn: title lookup for %s failed: %v\n", candidates[i].id, err)
			continue
		}
		candidates[i].title = info.Title
	}
}

func addTracks(ctx context.Context, store *track.Store, candidates []addCandidate, replace bool, out io.Writer) error {
	added, skipped := 0, 0
	seen := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		if _, ok := seen[c.id]; ok {
			continue
		}
		seen[c.id] = struct{}{}

		t := track.New(c.id, c.title)
		err := store.Insert(ctx, t)
		if errors.Is(err, track.ErrDuplicate) && replace {
			if _, err = store.Remove(ctx, c.id); err != nil {
				return err
			}
			err = store.Insert(ctx, t)
		}
		switch {
		case errors.Is(err, track.ErrDuplicate):
			fmt.Fprintf(out, "Track %s already exists (use --replace to queue it again)\n", c.id)
			skipped++
		case err != nil:
			return fmt.Errorf("add %s: %w", c.id, err)
		default:
			fmt.Fprintf(out, "Queued %s (%s)\n", c.id, t.Title)
			added++
		}
	}
	fmt.Fprintf(out, "%s queued, %d skipped\n", plural(added, "track"), skipped)
	return nil
}
