package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"
	"golang.org/x/sync/errgroup"

	"yodel/internal/config"
	"yodel/internal/logging"
	"yodel/internal/storagekey"
	"yodel/internal/track"
	"yodel/internal/workflow"
)

// ErrAlreadyRunning is returned when another process holds the daemon lock.
var ErrAlreadyRunning = errors.New("another yodel daemon instance is already running")

// Daemon runs the download worker and the reconciliation sweep under a
// single-instance lock.
type Daemon struct {
	cfg    *config.Config
	logger *slog.Logger
	store  *track.Store
	worker *workflow.Worker
	codec  storagekey.Codec

	lockPath string
	lock     *flock.Flock

	mu      sync.Mutex
	running atomic.Bool
	cancel  context.CancelFunc
	group   *errgroup.Group
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	Worker       workflow.StatusSummary
	DatabasePath string
	LockFilePath string
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *track.Store, logger *slog.Logger, worker *workflow.Worker) (*Daemon, error) {
	if cfg == nil || store == nil || worker == nil {
		return nil, errors.New("daemon requires config, store, and worker")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	lockPath := cfg.LockPath()
	return &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		store:    store,
		worker:   worker,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Start acquires the daemon lock and launches the worker and reconciler.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return ErrAlreadyRunning
	}

	if err := d.worker.Start(ctx); err != nil {
		_ = d.lock.Unlock()
		return fmt.Errorf("start worker: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	group, groupCtx := errgroup.WithContext(runCtx)
	group.Go(func() error {
		<-groupCtx.Done()
		d.worker.Stop()
		return nil
	})
	group.Go(func() error {
		d.reconcileLoop(groupCtx)
		return nil
	})

	d.cancel = cancel
	d.group = group
	d.running.Store(true)
	d.logger.Info("yodel daemon started",
		logging.String("lock", d.lockPath),
		logging.String(logging.FieldEventType, "daemon_start"),
	)
	return nil
}

// Stop stops background processing and releases the daemon lock.
func (d *Daemon) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.running.Load() {
		return
	}

	d.cancel()
	if err := d.group.Wait(); err != nil {
		d.logger.Warn("daemon goroutine failed", logging.Error(err))
	}
	d.cancel = nil
	d.group = nil
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("yodel daemon stopped", logging.String(logging.FieldEventType, "daemon_stop"))
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	return Status{
		Running:      d.running.Load(),
		Worker:       d.worker.Status(ctx),
		DatabasePath: d.cfg.DatabasePath(),
		LockFilePath: d.lockPath,
	}
}

// Reconcile runs one sweep and returns the ids marked as file missing.
func (d *Daemon) Reconcile(ctx context.Context) ([]string, error) {
	return Reconcile(ctx, d.store, d.codec, d.logger)
}

func (d *Daemon) reconcileLoop(ctx context.Context) {
	interval := time.Duration(d.cfg.Workflow.ReconcileInterval) * time.Second
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if _, err := d.Reconcile(ctx); err != nil && ctx.Err() == nil {
			logging.WarnWithContext(d.logger, "reconciliation sweep failed", "reconcile_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check track database access"),
			)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// LockHeld reports whether a daemon currently holds the lock at path.
func LockHeld(path string) (bool, error) {
	probe := flock.New(path)
	ok, err := probe.TryLock()
	if err != nil {
		return false, err
	}
	if ok {
		return false, probe.Unlock()
	}
	return true, nil
}
