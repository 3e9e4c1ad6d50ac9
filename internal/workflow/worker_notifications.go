package workflow

import (
	"context"
	"errors"
	"sync"
	"time"

	"yodel/internal/logging"
	"yodel/internal/notifications"
)

// batchState counts the tracks handled since the queue last went idle.
type batchState struct {
	mu         sync.Mutex
	active     bool
	start      time.Time
	downloaded int
	failed     int
}

func (b *batchState) begin() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.active {
		return
	}
	b.active = true
	b.start = time.Now()
	b.downloaded = 0
	b.failed = 0
}

func (b *batchState) add(ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ok {
		b.downloaded++
	} else {
		b.failed++
	}
}

// finish closes the batch and reports what it did. ok is false when no batch
// was active.
func (b *batchState) finish() (downloaded, failed int, elapsed time.Duration, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.active {
		return 0, 0, 0, false
	}
	b.active = false
	return b.downloaded, b.failed, time.Since(b.start), true
}

func (w *Worker) checkQueueCompletion(ctx context.Context) {
	downloaded, failed, elapsed, ok := w.batch.finish()
	if !ok || downloaded+failed == 0 {
		return
	}
	w.logger.Info("queue drained",
		logging.String(logging.FieldEventType, "queue_drained"),
		logging.Int("downloaded", downloaded),
		logging.Int("failed", failed),
		logging.Duration("elapsed", elapsed),
	)
	if w.notifier == nil {
		return
	}
	if err := w.notifier.Publish(ctx, notifications.EventQueueCompleted, notifications.Payload{
		"processed": downloaded,
		"failed":    failed,
		"duration":  elapsed,
	}); err != nil {
		// Check if this is a context cancellation (normal shutdown)
		if errors.Is(err, context.Canceled) {
			w.logger.Debug("daemon shutting down, could not send queue completion notification")
		} else {
			w.logger.Debug("queue completion notification failed", logging.Error(err))
		}
	}
}
