// Package fetcher wraps the external yt-dlp tool.
//
// YTDLP performs one fetch attempt per call (audio, info JSON sidecar and
// thumbnail) and reports progress as a 0..1 fraction with an ETA in seconds.
// Retrying is the caller's concern. PlaylistLister expands playlist links
// into track ids for the add command.
package fetcher
