package track

import (
	"context"
	"fmt"
	"time"
)

// ResetDownloadingToPending returns every track left mid-attempt by a crash or
// kill to the pending state.
func (s *Store) ResetDownloadingToPending(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE tracks SET status = ?, audio_file_key = NULL, updated_at = ? WHERE status = ?`,
		string(StatusPending),
		formatTime(time.Now()),
		string(StatusDownloading),
	)
	if err != nil {
		return 0, fmt.Errorf("reset downloading tracks: %w", err)
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

// Retry moves failed or missing tracks back to pending and clears their
// storage keys. With no ids every retryable track is moved.
func (s *Store) Retry(ctx context.Context, ids ...string) (int64, error) {
	args := []any{string(StatusPending), formatTime(time.Now()), string(StatusFailed), string(StatusFileMissing)}
	query := `UPDATE tracks
        SET status = ?, audio_file_key = NULL, cover_file_key = NULL, updated_at = ?
        WHERE status IN (?, ?)`
	if len(ids) > 0 {
		query += ` AND id IN (` + makePlaceholders(len(ids)) + `)`
		args = append(args, stringArgs(ids)...)
	}
	res, err := s.execWithRetry(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("retry tracks: %w", err)
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

// MarkMissing moves downloaded tracks whose audio key no longer resolves to
// FileMissing. The audio key is cleared so the key/status invariant holds;
// the cover key is kept.
func (s *Store) MarkMissing(ctx context.Context, exists func(key string) bool) ([]string, error) {
	if exists == nil {
		return nil, fmt.Errorf("mark missing: exists func is nil")
	}
	downloaded, err := s.List(ctx, StatusDownloaded)
	if err != nil {
		return nil, err
	}
	var missing []string
	for _, t := range downloaded {
		if exists(t.AudioFileKey) {
			continue
		}
		if err := t.TransitionTo(StatusFileMissing); err != nil {
			return missing, err
		}
		res, err := s.execWithRetry(
			ctx,
			`UPDATE tracks SET status = ?, audio_file_key = NULL, updated_at = ? WHERE id = ? AND status = ?`,
			string(StatusFileMissing),
			formatTime(time.Now()),
			t.ID,
			string(StatusDownloaded),
		)
		if err != nil {
			return missing, fmt.Errorf("mark %s missing: %w", t.ID, err)
		}
		if affected, _ := res.RowsAffected(); affected > 0 {
			missing = append(missing, t.ID)
		}
	}
	if len(missing) > 0 {
		s.notifyChanged()
	}
	return missing, nil
}
