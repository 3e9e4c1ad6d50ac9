package track

import (
	"context"
	"fmt"
)

// Stats returns a count of tracks grouped by status.
func (s *Store) Stats(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), `SELECT status, COUNT(1) FROM tracks GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("track stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[Status]int)
	for rows.Next() {
		var raw string
		var count int
		if err := rows.Scan(&raw, &count); err != nil {
			return nil, err
		}
		status, ok := ParseStatus(raw)
		if !ok {
			return nil, fmt.Errorf("track stats: unknown status %q", raw)
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

// Count returns the total number of tracks.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ensureContext(ctx), `SELECT COUNT(1) FROM tracks`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count tracks: %w", err)
	}
	return count, nil
}
