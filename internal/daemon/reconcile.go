package daemon

import (
	"context"
	"log/slog"

	"yodel/internal/logging"
)

// MissingMarker flags downloaded tracks whose audio key no longer resolves.
type MissingMarker interface {
	MarkMissing(ctx context.Context, exists func(key string) bool) ([]string, error)
}

// KeyResolver checks whether a storage key still points at a file.
type KeyResolver interface {
	Exists(key string) bool
}

// Reconcile runs one sweep and returns the ids that moved to file missing.
func Reconcile(ctx context.Context, store MissingMarker, keys KeyResolver, logger *slog.Logger) ([]string, error) {
	missing, err := store.MarkMissing(ctx, keys.Exists)
	if err != nil {
		return nil, err
	}
	if len(missing) > 0 && logger != nil {
		logger.Info("marked tracks with missing files",
			logging.String(logging.FieldEventType, "reconcile_missing"),
			logging.Int("count", len(missing)),
			logging.Any("track_ids", missing),
		)
	}
	return missing, nil
}
