package track

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Status represents the lifecycle of a track.
type Status string

const (
	StatusPending     Status = "pending"
	StatusDownloading Status = "downloading"
	StatusDownloaded  Status = "downloaded"
	StatusFailed      Status = "failed"
	StatusFileMissing Status = "file_missing"
)

var allStatuses = []Status{
	StatusPending,
	StatusDownloading,
	StatusDownloaded,
	StatusFailed,
	StatusFileMissing,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// transitions lists every allowed status change. Downloading→Pending is the
// crash recovery path taken at worker startup.
var transitions = map[Status][]Status{
	StatusPending:     {StatusDownloading},
	StatusDownloading: {StatusDownloaded, StatusFailed, StatusPending},
	StatusDownloaded:  {StatusFileMissing},
	StatusFailed:      {StatusPending},
	StatusFileMissing: {StatusPending},
}

// ErrInvalidTransition is returned when a status change is not part of the lifecycle.
var ErrInvalidTransition = errors.New("invalid status transition")

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// CanTransition reports whether from → to is an allowed lifecycle step.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Retryable reports whether the user retry action applies to the status.
func (s Status) Retryable() bool {
	return s == StatusFailed || s == StatusFileMissing
}

// Label returns the display name of the status.
func (s Status) Label() string {
	switch s {
	case StatusPending:
		return "Pending"
	case StatusDownloading:
		return "Downloading"
	case StatusDownloaded:
		return "Downloaded"
	case StatusFailed:
		return "Failed"
	case StatusFileMissing:
		return "File missing"
	default:
		return string(s)
	}
}

// Track is one audio item fetched and stored by the pipeline.
type Track struct {
	ID           string
	FirstAddedAt time.Time
	Title        string
	Artist       string
	ReleaseDate  time.Time
	Duration     time.Duration
	AlbumName    string
	AudioFileKey string
	CoverFileKey string
	Status       Status
	UpdatedAt    time.Time
}

// New returns a pending track whose title defaults to its id.
func New(id, title string) *Track {
	title = strings.TrimSpace(title)
	if title == "" {
		title = id
	}
	return &Track{
		ID:           id,
		FirstAddedAt: time.Now().UTC(),
		Title:        title,
		Status:       StatusPending,
	}
}

// TransitionTo moves the track to next if the lifecycle allows it.
func (t *Track) TransitionTo(next Status) error {
	if !CanTransition(t.Status, next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, t.Status, next)
	}
	t.Status = next
	return nil
}

// Validate checks the invariants enforced before a track is persisted.
func (t *Track) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return errors.New("track id is required")
	}
	if _, ok := statusSet[t.Status]; !ok {
		return fmt.Errorf("track %s: unknown status %q", t.ID, t.Status)
	}
	hasKey := strings.TrimSpace(t.AudioFileKey) != ""
	if t.Status == StatusDownloaded && !hasKey {
		return fmt.Errorf("track %s: downloaded without audio file key", t.ID)
	}
	if t.Status != StatusDownloaded && hasKey {
		return fmt.Errorf("track %s: audio file key set while %s", t.ID, t.Status)
	}
	return nil
}

// ReleaseYear returns the release year or 0 when the date is unknown.
func (t *Track) ReleaseYear() int {
	if t.ReleaseDate.IsZero() {
		return 0
	}
	return t.ReleaseDate.Year()
}

// Clone returns a copy of the track.
func (t *Track) Clone() *Track {
	if t == nil {
		return nil
	}
	cp := *t
	return &cp
}
