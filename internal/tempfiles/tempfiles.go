// Package tempfiles names and cleans up the scratch files of one download
// attempt.
package tempfiles

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"yodel/internal/textutil"
)

const (
	rawPrefix     = "dl_"
	randomLength  = 32
	sidecarSuffix = ".info.json"
)

// thumbnailExtensions is probed in order; the fetch tool does not report
// which image format it wrote.
var thumbnailExtensions = []string{".webp", ".webm", ".jpg", ".jpeg", ".png"}

// Set is owned by a single pipeline execution and never persisted.
type Set struct {
	raw       string
	converted string
}

// New names the scratch files for trackID inside dir. The random suffix keeps
// names unique across attempts so leftovers of an interrupted attempt never
// collide.
func New(dir, trackID, ext string) *Set {
	raw := filepath.Join(dir, rawPrefix+textutil.SanitizeToken(trackID)+textutil.RandomAlphanumeric(randomLength))
	ext = strings.TrimPrefix(strings.TrimSpace(ext), ".")
	converted := raw
	if ext != "" {
		converted = raw + "." + ext
	}
	return &Set{raw: raw, converted: converted}
}

// Raw returns the path the fetch tool writes to.
func (s *Set) Raw() string { return s.raw }

// Converted returns the path of the format-converted audio file.
func (s *Set) Converted() string { return s.converted }

// Audio returns the converted file if it exists, else the raw file.
func (s *Set) Audio() string {
	if exists(s.converted) {
		return s.converted
	}
	return s.raw
}

// MetadataSidecar returns the JSON metadata path written next to the raw file.
func (s *Set) MetadataSidecar() string {
	return s.raw + sidecarSuffix
}

// Thumbnail returns the first existing thumbnail candidate, or "" when none exist.
func (s *Set) Thumbnail() string {
	for _, ext := range thumbnailExtensions {
		candidate := s.raw + ext
		if exists(candidate) {
			return candidate
		}
	}
	return ""
}

// Candidates lists every path the attempt may have produced.
func (s *Set) Candidates() []string {
	paths := []string{s.raw}
	if s.converted != s.raw {
		paths = append(paths, s.converted)
	}
	paths = append(paths, s.MetadataSidecar())
	for _, ext := range thumbnailExtensions {
		paths = append(paths, s.raw+ext)
	}
	return paths
}

// DeleteAll removes every existing scratch file. Files that were never
// created are not an error. It reports whether all existing files were
// removed.
func (s *Set) DeleteAll() bool {
	ok := true
	for _, path := range s.Candidates() {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			ok = false
		}
	}
	return ok
}

// Existing returns the scratch files currently on disk.
func (s *Set) Existing() []string {
	var out []string
	for _, path := range s.Candidates() {
		if exists(path) {
			out = append(out, path)
		}
	}
	return out
}

func exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
