package track

import (
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

const trackColumns = "id, first_added_at, title, artist, release_date, duration_seconds, album_name, audio_file_key, cover_file_key, status, updated_at"

const releaseDateLayout = "2006-01-02"

// timestampLayout is fixed width so stored timestamps sort lexically.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

func scanTrack(scanner interface{ Scan(dest ...any) error }) (*Track, error) {
	var (
		id         string
		addedRaw   string
		title      string
		artist     sql.NullString
		releaseRaw sql.NullString
		duration   sql.NullFloat64
		album      sql.NullString
		audioKey   sql.NullString
		coverKey   sql.NullString
		statusRaw  string
		updatedRaw sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&addedRaw,
		&title,
		&artist,
		&releaseRaw,
		&duration,
		&album,
		&audioKey,
		&coverKey,
		&statusRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	status, ok := ParseStatus(statusRaw)
	if !ok {
		return nil, fmt.Errorf("track %s: unknown status %q", id, statusRaw)
	}

	t := &Track{
		ID:           id,
		Title:        title,
		Artist:       artist.String,
		AlbumName:    album.String,
		AudioFileKey: audioKey.String,
		CoverFileKey: coverKey.String,
		Status:       status,
	}
	if added, err := parseTimeString(addedRaw); err == nil {
		t.FirstAddedAt = added
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		t.UpdatedAt = updated
	}
	if releaseRaw.Valid {
		if date, err := time.Parse(releaseDateLayout, releaseRaw.String); err == nil {
			t.ReleaseDate = date
		}
	}
	if duration.Valid && duration.Float64 > 0 {
		t.Duration = time.Duration(math.Round(duration.Float64 * float64(time.Second)))
	}
	return t, nil
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}

func nullableDate(value time.Time) any {
	if value.IsZero() {
		return nil
	}
	return value.Format(releaseDateLayout)
}

func nullableDuration(value time.Duration) any {
	if value <= 0 {
		return nil
	}
	return value.Seconds()
}

func formatTime(value time.Time) string {
	return value.UTC().Format(timestampLayout)
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}

func statusArgs(statuses []Status) []any {
	args := make([]any, len(statuses))
	for i, status := range statuses {
		args[i] = string(status)
	}
	return args
}

func stringArgs(values []string) []any {
	args := make([]any, len(values))
	for i, value := range values {
		args[i] = value
	}
	return args
}
