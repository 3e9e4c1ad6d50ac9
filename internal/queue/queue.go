package queue

import (
	"context"
	"sync"

	"yodel/internal/track"
)

// TrackQueue is a FIFO, deduplicated backlog of pending tracks.
type TrackQueue struct {
	mu      sync.Mutex
	items   []*track.Track
	queued  map[string]struct{}
	wake    chan struct{}
	dropped int
}

// New returns an empty queue.
func New() *TrackQueue {
	return &TrackQueue{
		queued: make(map[string]struct{}),
		wake:   make(chan struct{}, 1),
	}
}

// OnPendingSnapshot appends every pending track that is not already queued and
// returns how many were added. The worker is woken only when the backlog goes
// from empty to non-empty.
func (q *TrackQueue) OnPendingSnapshot(tracks []*track.Track) int {
	q.mu.Lock()
	wasEmpty := len(q.items) == 0
	added := 0
	for _, t := range tracks {
		if t == nil || t.Status != track.StatusPending {
			continue
		}
		if _, ok := q.queued[t.ID]; ok {
			q.dropped++
			continue
		}
		q.queued[t.ID] = struct{}{}
		q.items = append(q.items, t.Clone())
		added++
	}
	q.mu.Unlock()

	if added > 0 && wasEmpty {
		select {
		case q.wake <- struct{}{}:
		default:
		}
	}
	return added
}

// TryNext pops the head without blocking.
func (q *TrackQueue) TryNext() (*track.Track, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return nil, false
	}
	head := q.items[0]
	q.items[0] = nil
	q.items = q.items[1:]
	delete(q.queued, head.ID)
	return head, true
}

// Next pops the head, blocking until an item is available or ctx is done.
func (q *TrackQueue) Next(ctx context.Context) (*track.Track, error) {
	for {
		if t, ok := q.TryNext(); ok {
			return t, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-q.wake:
		}
	}
}

// Len returns the number of queued tracks.
func (q *TrackQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Contains reports whether id is queued.
func (q *TrackQueue) Contains(id string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	_, ok := q.queued[id]
	return ok
}

// Snapshot returns the queued ids in processing order.
func (q *TrackQueue) Snapshot() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	ids := make([]string, len(q.items))
	for i, t := range q.items {
		ids[i] = t.ID
	}
	return ids
}

// Duplicates returns how many snapshot entries were ignored because their id
// was already queued.
func (q *TrackQueue) Duplicates() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}
