package track

import (
	"context"
	"strings"
	"time"

	"yodel/internal/logging"
)

// ObservePending emits the ordered set of pending tracks: once immediately,
// then whenever it changes. Changes made through this Store are seen at once;
// writes by other processes are picked up by polling every interval (no
// polling when interval <= 0). The channel holds only the latest snapshot and
// is closed when ctx is done.
func (s *Store) ObservePending(ctx context.Context, interval time.Duration) <-chan []*Track {
	ctx = ensureContext(ctx)
	out := make(chan []*Track, 1)
	changed := s.subscribe()

	go func() {
		defer close(out)
		defer s.unsubscribe(changed)

		var tick <-chan time.Time
		if interval > 0 {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			tick = ticker.C
		}

		last := ""
		emitted := false
		failing := false
		emit := func() {
			tracks, err := s.List(ctx, StatusPending)
			if err != nil {
				if !failing && ctx.Err() == nil {
					logging.WarnWithContext(s.logger, "pending snapshot failed", "pending_observe_failed",
						logging.Error(err),
						logging.String(logging.FieldImpact, "new pending tracks are not queued until the database recovers"),
						logging.String(logging.FieldErrorHint, "check the track database"),
					)
				}
				failing = true
				return
			}
			if failing {
				s.logger.Info("pending snapshot recovered", logging.String(logging.FieldEventType, "pending_observe_recovered"))
				failing = false
			}
			sig := pendingSignature(tracks)
			if emitted && sig == last {
				return
			}
			emitted = true
			last = sig
			select {
			case out <- tracks:
			default:
				select {
				case <-out:
				default:
				}
				out <- tracks
			}
		}

		emit()
		for {
			select {
			case <-ctx.Done():
				return
			case <-changed:
				emit()
			case <-tick:
				emit()
			}
		}
	}()

	return out
}

// pendingSignature identifies a snapshot by id and last update so a track that
// left and re-entered the pending set between two reads is emitted again.
func pendingSignature(tracks []*Track) string {
	var b strings.Builder
	for _, t := range tracks {
		b.WriteString(t.ID)
		b.WriteByte('@')
		b.WriteString(formatTime(t.UpdatedAt))
		b.WriteByte(';')
	}
	return b.String()
}

func (s *Store) subscribe() chan struct{} {
	ch := make(chan struct{}, 1)
	s.subMu.Lock()
	s.subscribers[ch] = struct{}{}
	s.subMu.Unlock()
	return ch
}

func (s *Store) unsubscribe(ch chan struct{}) {
	s.subMu.Lock()
	delete(s.subscribers, ch)
	s.subMu.Unlock()
}

func (s *Store) notifyChanged() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for ch := range s.subscribers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
