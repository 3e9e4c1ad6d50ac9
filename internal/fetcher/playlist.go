package fetcher

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ytget/ytdlp/v2"
)

const defaultPlaylistTimeout = 60 * time.Second

// PlaylistEntry is one item of an expanded playlist.
type PlaylistEntry struct {
	ID    string
	Title string
}

// PlaylistLister expands playlists without invoking the external tool.
type PlaylistLister struct {
	timeout time.Duration
}

// NewPlaylistLister returns a lister with the given timeout (0 uses the default).
func NewPlaylistLister(timeout time.Duration) *PlaylistLister {
	if timeout <= 0 {
		timeout = defaultPlaylistTimeout
	}
	return &PlaylistLister{timeout: timeout}
}

// List returns every entry of playlistID in playlist order.
func (p *PlaylistLister) List(ctx context.Context, playlistID string) ([]PlaylistEntry, error) {
	playlistID = strings.TrimSpace(playlistID)
	if playlistID == "" {
		return nil, fmt.Errorf("playlist id is empty")
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	items, err := ytdlp.New().GetPlaylistItemsAll(ctx, playlistID, 0)
	if err != nil {
		return nil, fmt.Errorf("get playlist items: %w", err)
	}
	entries := make([]PlaylistEntry, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		if item.VideoID == "" {
			continue
		}
		if _, ok := seen[item.VideoID]; ok {
			continue
		}
		seen[item.VideoID] = struct{}{}
		entries = append(entries, PlaylistEntry{ID: item.VideoID, Title: strings.TrimSpace(item.Title)})
	}
	return entries, nil
}
