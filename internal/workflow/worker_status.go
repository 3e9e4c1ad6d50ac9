package workflow

import (
	"context"

	"yodel/internal/logging"
	"yodel/internal/track"
)

// StatusSummary represents lightweight worker diagnostics.
type StatusSummary struct {
	Running      bool
	CurrentTrack string
	QueueDepth   int
	Processed    int
	Failed       int
	LastError    string
	LastTrack    *track.Track
	TrackStats   map[track.Status]int
}

// Status returns the latest worker information.
func (w *Worker) Status(ctx context.Context) StatusSummary {
	w.mu.RLock()
	summary := StatusSummary{
		Running:      w.running,
		CurrentTrack: w.current,
		Processed:    w.processed,
		Failed:       w.failed,
		LastTrack:    w.lastTrack.Clone(),
	}
	if w.lastErr != nil {
		summary.LastError = w.lastErr.Error()
	}
	w.mu.RUnlock()

	summary.QueueDepth = w.queue.Len()
	stats, err := w.store.Stats(ctx)
	if err != nil {
		w.logger.Warn("failed to read track stats", logging.Error(err))
	}
	summary.TrackStats = stats
	return summary
}

func (w *Worker) setCurrent(id string) {
	w.mu.Lock()
	w.current = id
	w.mu.Unlock()
}

func (w *Worker) setLastError(err error) {
	w.mu.Lock()
	w.lastErr = err
	w.mu.Unlock()
}

func (w *Worker) record(t *track.Track, err error, failed bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t != nil {
		w.lastTrack = t.Clone()
	}
	if failed {
		w.failed++
		w.lastErr = err
		return
	}
	w.processed++
}
