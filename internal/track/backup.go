package track

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"
)

// Backup is the portable JSON export of the track table.
type Backup struct {
	BackupTime time.Time     `json:"backup_time"`
	Tracks     []BackupTrack `json:"tracks"`
}

// BackupTrack is one exported track row.
type BackupTrack struct {
	ID              string  `json:"id"`
	FirstAddedAt    string  `json:"first_added_at"`
	Title           string  `json:"title"`
	Artist          string  `json:"artist,omitempty"`
	ReleaseDate     string  `json:"release_date,omitempty"`
	DurationSeconds float64 `json:"duration_seconds,omitempty"`
	AlbumName       string  `json:"album_name,omitempty"`
	AudioFileKey    string  `json:"audio_file_key,omitempty"`
	CoverFileKey    string  `json:"cover_file_key,omitempty"`
	Status          string  `json:"status"`
}

// Export snapshots every track into a Backup.
func (s *Store) Export(ctx context.Context) (*Backup, error) {
	tracks, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	backup := &Backup{BackupTime: time.Now().UTC(), Tracks: make([]BackupTrack, 0, len(tracks))}
	for _, t := range tracks {
		entry := BackupTrack{
			ID:              t.ID,
			FirstAddedAt:    formatTime(t.FirstAddedAt),
			Title:           t.Title,
			Artist:          t.Artist,
			DurationSeconds: t.Duration.Seconds(),
			AlbumName:       t.AlbumName,
			AudioFileKey:    t.AudioFileKey,
			CoverFileKey:    t.CoverFileKey,
			Status:          string(t.Status),
		}
		if !t.ReleaseDate.IsZero() {
			entry.ReleaseDate = t.ReleaseDate.Format(releaseDateLayout)
		}
		backup.Tracks = append(backup.Tracks, entry)
	}
	return backup, nil
}

// WriteBackup encodes b as indented JSON.
func WriteBackup(w io.Writer, b *Backup) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(b); err != nil {
		return fmt.Errorf("encode backup: %w", err)
	}
	return nil
}

// ReadBackup decodes a backup and converts every entry, rejecting the whole
// document when any entry is invalid.
func ReadBackup(r io.Reader) ([]*Track, error) {
	var b Backup
	if err := json.NewDecoder(r).Decode(&b); err != nil {
		return nil, fmt.Errorf("decode backup: %w", err)
	}
	tracks := make([]*Track, 0, len(b.Tracks))
	for i, entry := range b.Tracks {
		t, err := entry.toTrack()
		if err != nil {
			return nil, fmt.Errorf("backup entry %d: %w", i, err)
		}
		tracks = append(tracks, t)
	}
	return tracks, nil
}

func (e BackupTrack) toTrack() (*Track, error) {
	status, ok := ParseStatus(e.Status)
	if !ok {
		return nil, fmt.Errorf("unknown status %q", e.Status)
	}
	if status == StatusDownloading {
		status = StatusPending
	}
	t := &Track{
		ID:           e.ID,
		Title:        e.Title,
		Artist:       e.Artist,
		AlbumName:    e.AlbumName,
		AudioFileKey: e.AudioFileKey,
		CoverFileKey: e.CoverFileKey,
		Status:       status,
	}
	if status != StatusDownloaded {
		t.AudioFileKey = ""
	}
	if t.Title == "" {
		t.Title = t.ID
	}
	if added, err := parseTimeString(e.FirstAddedAt); err == nil {
		t.FirstAddedAt = added
	}
	if e.ReleaseDate != "" {
		if date, err := time.Parse(releaseDateLayout, e.ReleaseDate); err == nil {
			t.ReleaseDate = date
		}
	}
	if e.DurationSeconds > 0 {
		t.Duration = time.Duration(e.DurationSeconds * float64(time.Second))
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Restore loads tracks into the store. With replace every existing track is
// deleted first; otherwise tracks whose id already exists are skipped.
// Downloading tracks are restored as pending. It returns the number of inserted tracks.
func (s *Store) Restore(ctx context.Context, tracks []*Track, replace bool) (int, error) {
	ctx = ensureContext(ctx)
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin restore: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if replace {
		if _, err := tx.ExecContext(ctx, `DELETE FROM tracks`); err != nil {
			return 0, fmt.Errorf("clear tracks: %w", err)
		}
	}

	now := formatTime(time.Now())
	inserted := 0
	for _, t := range tracks {
		if t == nil {
			return 0, errors.New("restore: nil track")
		}
		added := t.FirstAddedAt
		if added.IsZero() {
			added = time.Now()
		}
		status := t.Status
		if status == StatusDownloading {
			status = StatusPending
		}
		res, err := tx.ExecContext(
			ctx,
			`INSERT OR IGNORE INTO tracks (`+trackColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			t.ID,
			formatTime(added),
			t.Title,
			nullableString(t.Artist),
			nullableDate(t.ReleaseDate),
			nullableDuration(t.Duration),
			nullableString(t.AlbumName),
			nullableString(t.AudioFileKey),
			nullableString(t.CoverFileKey),
			string(status),
			now,
		)
		if err != nil {
			return 0, fmt.Errorf("restore track %s: %w", t.ID, err)
		}
		if affected, _ := res.RowsAffected(); affected > 0 {
			inserted++
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit restore: %w", err)
	}
	if inserted > 0 || replace {
		s.notifyChanged()
	}
	return inserted, nil
}
