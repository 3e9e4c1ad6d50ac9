package daemonrun

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/google/uuid"

	"yodel/internal/config"
	"yodel/internal/cover"
	"yodel/internal/daemon"
	"yodel/internal/fetcher"
	"yodel/internal/logging"
	"yodel/internal/logs"
	"yodel/internal/notifications"
	"yodel/internal/pipeline"
	"yodel/internal/preflight"
	"yodel/internal/progress"
	"yodel/internal/queue"
	"yodel/internal/storagekey"
	"yodel/internal/tagging"
	"yodel/internal/track"
	"yodel/internal/workflow"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
	// Progress receives console progress rendering; nil disables it.
	Progress *os.File
}

// Run starts the yodel daemon and blocks until SIGINT/SIGTERM or ctx ends.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	runID := time.Now().UTC().Format("20060102T150405.000Z")
	logPath := filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("yodel-%s.log", runID))
	level := opts.LogLevel
	if level == "" {
		level = cfg.Logging.Level
	}
	logger, err := logging.New(logging.Options{
		Level:       level,
		Format:      cfg.Logging.Format,
		Outputs:     []string{"stdout", logPath},
		Development: opts.Development,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	sessionID := uuid.NewString()
	logger = logger.With(logging.String("session_id", sessionID))
	if err := ensureCurrentLogPointer(cfg.Paths.LogDir, logPath); err != nil {
		fmt.Fprintf(os.Stderr, "warn: unable to update yodel.log link: %v\n", err)
	}

	logPreflight(signalCtx, logger, cfg)

	pidPath := filepath.Join(cfg.Paths.StateDir, "yodel.pid")
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	store, err := track.Open(cfg, track.WithLogger(logger))
	if err != nil {
		logger.Error("open track store", logging.Error(err))
		return err
	}

	d, err := Assemble(cfg, store, logger, opts.Progress)
	if err != nil {
		store.Close()
		return err
	}
	defer d.Close()

	if err := d.Start(signalCtx); err != nil {
		if errors.Is(err, daemon.ErrAlreadyRunning) {
			return err
		}
		logger.Error("daemon start failed",
			logging.Error(err),
			logging.String(logging.FieldEventType, "daemon_start_failed"),
			logging.String(logging.FieldErrorHint, "check configuration and track database access"),
		)
		return err
	}

	<-signalCtx.Done()
	logger.Info("yodel daemon shutting down")
	return nil
}

// Assemble wires the pipeline, worker and daemon around an open store.
func Assemble(cfg *config.Config, store *track.Store, logger *slog.Logger, progressOut *os.File) (*daemon.Daemon, error) {
	opts, err := pipeline.OptionsFromConfig(cfg)
	if err != nil {
		return nil, err
	}

	surfaces := progress.Tee{progress.NewLogSurface(logger)}
	if progressOut != nil {
		surfaces = append(surfaces, progress.NewConsoleSurface(progressOut))
	}
	reporter := progress.NewReporter(surfaces, cfg.Progress.UpdatesPerSecond)
	notifier := notifications.NewService(cfg)

	pipe := pipeline.New(pipeline.Deps{
		Store:    store,
		Fetcher:  fetcher.New(cfg.DownloaderBinary(), logger),
		Tagger:   tagging.ID3Tagger{},
		Codec:    storagekey.Codec{},
		Covers:   cover.Converter{MaxSize: cfg.Download.CoverMaxSize},
		Reporter: reporter,
		Notifier: notifier,
		Logger:   logger,
	}, opts)

	worker := workflow.NewWorker(cfg, store, queue.New(), pipe, reporter, notifier, logger)
	d, err := daemon.New(cfg, store, logger, worker)
	if err != nil {
		return nil, fmt.Errorf("create daemon: %w", err)
	}
	return d, nil
}

func logPreflight(ctx context.Context, logger *slog.Logger, cfg *config.Config) {
	results := preflight.RunAll(ctx, cfg)
	for _, r := range preflight.Failed(results) {
		logging.WarnWithContext(logger, "preflight check failed", "preflight_failed",
			logging.String("check", r.Name),
			logging.String("detail", r.Detail),
			logging.String(logging.FieldErrorHint, "run 'yodel doctor' for details"),
		)
	}
	logger.Info("preflight complete",
		logging.String(logging.FieldEventType, "preflight_complete"),
		logging.Int("checks", len(results)),
		logging.Int("failed", len(preflight.Failed(results))),
	)
}

func ensureCurrentLogPointer(logDir, target string) error {
	if logDir == "" || target == "" {
		return nil
	}
	current := logs.CurrentPath(logDir)
	if err := os.Remove(current); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing log pointer: %w", err)
	}
	if err := os.Symlink(target, current); err == nil {
		return nil
	}
	if err := os.Link(target, current); err != nil {
		return fmt.Errorf("link log pointer: %w", err)
	}
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}
