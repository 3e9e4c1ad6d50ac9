package track

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Insert stores a new track. It returns ErrDuplicate when the id exists.
func (s *Store) Insert(ctx context.Context, t *Track) error {
	if t == nil {
		return errors.New("track is nil")
	}
	if err := t.Validate(); err != nil {
		return err
	}
	now := time.Now().UTC()
	if t.FirstAddedAt.IsZero() {
		t.FirstAddedAt = now
	}
	t.UpdatedAt = now

	if _, err := s.execWithRetry(
		ctx,
		`INSERT INTO tracks (`+trackColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID,
		formatTime(t.FirstAddedAt),
		t.Title,
		nullableString(t.Artist),
		nullableDate(t.ReleaseDate),
		nullableDuration(t.Duration),
		nullableString(t.AlbumName),
		nullableString(t.AudioFileKey),
		nullableString(t.CoverFileKey),
		string(t.Status),
		formatTime(t.UpdatedAt),
	); err != nil {
		if isConstraintViolation(err) {
			return fmt.Errorf("insert track %s: %w", t.ID, ErrDuplicate)
		}
		return fmt.Errorf("insert track: %w", err)
	}
	s.notifyChanged()
	return nil
}

// Update persists every mutable field of an existing track. The first-added
// timestamp is never rewritten.
func (s *Store) Update(ctx context.Context, t *Track) error {
	if t == nil {
		return errors.New("track is nil")
	}
	if err := t.Validate(); err != nil {
		return err
	}
	t.UpdatedAt = time.Now().UTC()
	res, err := s.execWithRetry(
		ctx,
		`UPDATE tracks
         SET title = ?, artist = ?, release_date = ?, duration_seconds = ?, album_name = ?,
             audio_file_key = ?, cover_file_key = ?, status = ?, updated_at = ?
         WHERE id = ?`,
		t.Title,
		nullableString(t.Artist),
		nullableDate(t.ReleaseDate),
		nullableDuration(t.Duration),
		nullableString(t.AlbumName),
		nullableString(t.AudioFileKey),
		nullableString(t.CoverFileKey),
		string(t.Status),
		formatTime(t.UpdatedAt),
		t.ID,
	)
	if err != nil {
		return fmt.Errorf("update track: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("update track %s: %w", t.ID, ErrNotFound)
	}
	s.notifyChanged()
	return nil
}

// Get fetches a track by id. A missing track yields (nil, nil).
func (s *Store) Get(ctx context.Context, id string) (*Track, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+trackColumns+` FROM tracks WHERE id = ?`, id)
	t, err := scanTrack(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get track: %w", err)
	}
	return t, nil
}

// List returns tracks filtered by status set (or all tracks when no status is
// provided), oldest first.
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Track, error) {
	ctx = ensureContext(ctx)
	var (
		rows *sql.Rows
		err  error
	)

	baseQuery := `SELECT ` + trackColumns + ` FROM tracks`
	orderClause := ` ORDER BY first_added_at, rowid`

	if len(statuses) == 0 {
		rows, err = s.db.QueryContext(ctx, baseQuery+orderClause)
	} else {
		query := baseQuery + ` WHERE status IN (` + makePlaceholders(len(statuses)) + `)` + orderClause
		rows, err = s.db.QueryContext(ctx, query, statusArgs(statuses)...)
	}
	if err != nil {
		return nil, fmt.Errorf("list tracks: %w", err)
	}
	defer rows.Close()

	var tracks []*Track
	for rows.Next() {
		t, err := scanTrack(rows)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, t)
	}
	return tracks, rows.Err()
}

// Remove deletes tracks by id and returns how many rows were removed.
func (s *Store) Remove(ctx context.Context, ids ...string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := s.execWithRetry(ctx, `DELETE FROM tracks WHERE id IN (`+makePlaceholders(len(ids))+`)`, stringArgs(ids)...)
	if err != nil {
		return 0, fmt.Errorf("delete tracks: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	if affected > 0 {
		s.notifyChanged()
	}
	return affected, nil
}
