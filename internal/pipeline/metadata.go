package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"yodel/internal/track"
)

const uploadDateLayout = "20060102"

// Sidecar is the subset of the fetch tool's info JSON the pipeline reads.
type Sidecar struct {
	Title      string   `json:"title"`
	AltTitle   string   `json:"alt_title"`
	UploadDate string   `json:"upload_date"`
	Channel    string   `json:"channel"`
	Uploader   string   `json:"uploader"`
	Duration   *float64 `json:"duration"`
	Track      string   `json:"track"`
	Creator    string   `json:"creator"`
	Artist     string   `json:"artist"`
	Album      string   `json:"album"`
	Categories []string `json:"categories"`
	Tags       []string `json:"tags"`
	ViewCount  *int64   `json:"view_count"`
	LikeCount  *int64   `json:"like_count"`
}

// ReadSidecar decodes the info JSON at path.
func ReadSidecar(path string) (*Sidecar, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read metadata sidecar: %w", err)
	}
	var meta Sidecar
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("decode metadata sidecar: %w", err)
	}
	return &meta, nil
}

// TrackTitle returns the first non-blank of track, alt_title and title.
func (s *Sidecar) TrackTitle() string {
	return firstNonBlank(s.Track, s.AltTitle, s.Title)
}

// ArtistName returns the first entry of artist or creator, falling back to
// the channel and then the uploader.
func (s *Sidecar) ArtistName() string {
	if artist := firstOfList(s.Artist); artist != "" {
		return artist
	}
	if creator := firstOfList(s.Creator); creator != "" {
		return creator
	}
	return firstNonBlank(s.Channel, s.Uploader)
}

// ReleaseDate parses upload_date; unparsable values yield the zero time.
func (s *Sidecar) ReleaseDate() time.Time {
	value := strings.TrimSpace(s.UploadDate)
	if value == "" {
		return time.Time{}
	}
	date, err := time.Parse(uploadDateLayout, value)
	if err != nil {
		return time.Time{}
	}
	return date
}

// DurationValue returns the duration, or zero when absent.
func (s *Sidecar) DurationValue() time.Duration {
	if s.Duration == nil || *s.Duration <= 0 {
		return 0
	}
	return time.Duration(*s.Duration * float64(time.Second))
}

// Apply refines t with every field the sidecar provides; absent fields keep
// their current value.
func (s *Sidecar) Apply(t *track.Track) {
	if title := s.TrackTitle(); title != "" {
		t.Title = title
	}
	if artist := s.ArtistName(); artist != "" {
		t.Artist = artist
	}
	if date := s.ReleaseDate(); !date.IsZero() {
		t.ReleaseDate = date
	}
	if d := s.DurationValue(); d > 0 {
		t.Duration = d
	}
	if album := strings.TrimSpace(s.Album); album != "" {
		t.AlbumName = album
	}
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func firstOfList(value string) string {
	value = strings.TrimSpace(value)
	if i := strings.IndexByte(value, ','); i > 0 {
		value = value[:i]
	}
	return strings.TrimSpace(value)
}
