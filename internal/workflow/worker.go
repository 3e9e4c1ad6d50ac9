package workflow

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"yodel/internal/config"
	"yodel/internal/logging"
	"yodel/internal/notifications"
	"yodel/internal/pipeline"
	"yodel/internal/queue"
	"yodel/internal/track"
)

// skipRetryDelay is how long a track whose run was skipped by a store error
// waits before it is queued again.
const skipRetryDelay = time.Second

// Store is the slice of the track store the worker needs.
type Store interface {
	ResetDownloadingToPending(ctx context.Context) (int64, error)
	ObservePending(ctx context.Context, interval time.Duration) <-chan []*track.Track
	Stats(ctx context.Context) (map[track.Status]int, error)
}

// Runner executes the download pipeline for one track.
type Runner interface {
	Run(ctx context.Context, id string) pipeline.Outcome
}

// Hider clears the progress surface when the worker goes idle.
type Hider interface {
	Hide()
}

// Worker drains the track queue through the pipeline, one track at a time.
type Worker struct {
	store        Store
	queue        *queue.TrackQueue
	runner       Runner
	reporter     Hider
	notifier     notifications.Service
	logger       *slog.Logger
	pollInterval time.Duration

	mu        sync.RWMutex
	running   bool
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	current   string
	lastErr   error
	lastTrack *track.Track
	processed int
	failed    int

	batch batchState
}

// NewWorker constructs a worker. A nil notifier disables notifications.
func NewWorker(cfg *config.Config, store Store, q *queue.TrackQueue, runner Runner, reporter Hider, notifier notifications.Service, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = logging.NewNop()
	}
	if q == nil {
		q = queue.New()
	}
	return &Worker{
		store:        store,
		queue:        q,
		runner:       runner,
		reporter:     reporter,
		notifier:     notifier,
		logger:       logging.NewComponentLogger(logger, "workflow-worker"),
		pollInterval: time.Duration(cfg.Workflow.PendingPollInterval) * time.Second,
	}
}

// Start resets interrupted downloads, subscribes to the pending set and
// begins draining. It returns once the background goroutines are running.
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return errors.New("worker already running")
	}
	w.running = true
	w.mu.Unlock()

	reset, err := w.store.ResetDownloadingToPending(ctx)
	if err != nil {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		return err
	}
	if reset > 0 {
		w.logger.Info("reset interrupted downloads to pending",
			logging.Int64("count", reset),
			logging.String(logging.FieldEventType, "downloading_reset"),
		)
	}

	runCtx, cancel := context.WithCancel(ctx)
	w.mu.Lock()
	w.cancel = cancel
	w.mu.Unlock()

	snapshots := w.store.ObservePending(runCtx, w.pollInterval)
	w.wg.Add(2)
	go w.pump(runCtx, snapshots)
	go w.drain(runCtx)
	w.logger.Info("worker started", logging.String(logging.FieldEventType, "worker_start"))
	return nil
}

// Stop interrupts the worker and waits for it to exit. A pipeline that is
// mid-stage finishes that stage first and is then abandoned.
func (w *Worker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	cancel := w.cancel
	w.running = false
	w.cancel = nil
	w.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	w.wg.Wait()
	w.logger.Info("worker stopped", logging.String(logging.FieldEventType, "worker_stop"))
}

// Wait blocks until the worker goroutines have exited.
func (w *Worker) Wait() {
	w.wg.Wait()
}

func (w *Worker) pump(ctx context.Context, snapshots <-chan []*track.Track) {
	defer w.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case tracks, ok := <-snapshots:
			if !ok {
				return
			}
			if added := w.queue.OnPendingSnapshot(tracks); added > 0 {
				w.logger.Debug("queued pending tracks",
					logging.Int("added", added),
					logging.Int("queue_depth", w.queue.Len()),
				)
			}
		}
	}
}

func (w *Worker) drain(ctx context.Context) {
	defer w.wg.Done()
	for {
		next, ok := w.queue.TryNext()
		if !ok {
			w.onIdle(ctx)
			var err error
			next, err = w.queue.Next(ctx)
			if err != nil {
				return
			}
		}
		if ctx.Err() != nil {
			return
		}
		w.process(ctx, next)
	}
}

func (w *Worker) process(ctx context.Context, t *track.Track) {
	w.setCurrent(t.ID)
	w.batch.begin()
	outcome := w.runner.Run(ctx, t.ID)
	w.setCurrent("")

	switch outcome.Result {
	case pipeline.ResultDownloaded:
		w.record(outcome.Track, nil, false)
		w.batch.add(true)
	case pipeline.ResultFailed:
		w.record(outcome.Track, outcome.Err, true)
		w.batch.add(false)
	case pipeline.ResultSkipped:
		if outcome.Err != nil {
			w.setLastError(outcome.Err)
			if outcome.Track == nil || outcome.Track.Status == track.StatusPending {
				w.requeueLater(ctx, t)
			}
		}
	case pipeline.ResultAbandoned:
		w.logger.Info("download interrupted by shutdown",
			logging.String(logging.FieldTrackID, t.ID),
			logging.String(logging.FieldEventType, "download_interrupted"),
		)
	}
}

// requeueLater offers t to the queue again after skipRetryDelay. The pending
// observer only emits on change, so a track that is still pending after a
// failed store write would otherwise never come back.
func (w *Worker) requeueLater(ctx context.Context, t *track.Track) {
	w.logger.Warn("track still pending after store error, requeueing",
		logging.String(logging.FieldTrackID, t.ID),
		logging.Duration("delay", skipRetryDelay),
		logging.String(logging.FieldEventType, "track_requeue"),
	)
	pending := t.Clone()
	pending.Status = track.StatusPending
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		timer := time.NewTimer(skipRetryDelay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
		case <-timer.C:
			w.queue.OnPendingSnapshot([]*track.Track{pending})
		}
	}()
}

func (w *Worker) onIdle(ctx context.Context) {
	if w.reporter != nil {
		w.reporter.Hide()
	}
	w.checkQueueCompletion(ctx)
}
