package testsupport

import (
	"context"
	"testing"

	"yodel/internal/config"
	"yodel/internal/track"
)

// MustOpenStore opens a track.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *track.Store {
	t.Helper()

	store, err := track.Open(cfg)
	if err != nil {
		t.Fatalf("track.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewTrack inserts a pending track for tests using the provided store.
func NewTrack(t testing.TB, store *track.Store, id, title string) *track.Track {
	t.Helper()

	tr := track.New(id, title)
	if err := store.Insert(context.Background(), tr); err != nil {
		t.Fatalf("store.Insert: %v", err)
	}
	return tr
}
