// Package deps checks for the external executables a download needs.
package deps

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Status reports whether an external executable can be run.
type Status struct {
	Name        string
	Description string
	// Command is the resolved path when available, the configured name otherwise.
	Command   string
	Available bool
	Detail    string
}

// CheckFetcher resolves the yt-dlp executable.
func CheckFetcher(command string) Status {
	return lookup(Status{Name: "yt-dlp", Description: "Fetches audio and metadata"}, command)
}

// CheckFFmpegForFetcher resolves the ffmpeg executable yt-dlp will use for
// audio extraction: one next to the yt-dlp binary first, then ffmpegName on
// PATH.
func CheckFFmpegForFetcher(fetcherCommand, ffmpegName string) Status {
	status := Status{Name: "FFmpeg", Description: "Extracts and converts audio for yt-dlp"}
	ffmpegName = strings.TrimSpace(ffmpegName)
	if ffmpegName == "" {
		ffmpegName = "ffmpeg"
	}
	if fetcher, err := exec.LookPath(strings.TrimSpace(fetcherCommand)); err == nil {
		sibling := filepath.Join(filepath.Dir(fetcher), filepath.Base(ffmpegName))
		if isExecutable(sibling) {
			status.Command = sibling
			status.Available = true
			return status
		}
	}
	return lookup(status, ffmpegName)
}

func lookup(status Status, command string) Status {
	command = strings.TrimSpace(command)
	status.Command = command
	if command == "" {
		status.Detail = "command not configured"
		return status
	}
	resolved, err := exec.LookPath(command)
	if err != nil {
		status.Detail = fmt.Sprintf("binary %q not found", command)
		return status
	}
	status.Command = resolved
	status.Available = true
	return status
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir() && info.Mode().Perm()&0o111 != 0
}
