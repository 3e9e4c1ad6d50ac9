package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	"yodel/internal/config"
	"yodel/internal/fetcher"
	"yodel/internal/logging"
	"yodel/internal/notifications"
	"yodel/internal/services"
	"yodel/internal/tagging"
	"yodel/internal/track"
)

// Store is the slice of the track store the pipeline needs.
type Store interface {
	Get(ctx context.Context, id string) (*track.Track, error)
	Update(ctx context.Context, t *track.Track) error
}

// Fetcher performs one fetch attempt.
type Fetcher interface {
	Fetch(ctx context.Context, req fetcher.Request, progress fetcher.ProgressFunc) error
}

// Tagger writes embedded metadata into an audio file.
type Tagger interface {
	WriteTags(path string, fields tagging.Fields) error
}

// KeyCodec turns final file paths into storage keys.
type KeyCodec interface {
	Encode(path string) string
}

// CoverStore converts thumbnails into cover art.
type CoverStore interface {
	ConvertFile(path string) ([]byte, error)
	Store(thumbnail, coverDir, trackID string) (string, error)
}

// Reporter receives user-visible status and progress.
type Reporter interface {
	Status(title, label string)
	Progress(title string, fraction float64, etaSeconds int)
}

// Options holds the settings read once per execution.
type Options struct {
	Format        Format
	Retries       int
	EnableTagging bool
	OnlyVideoID   bool
	NonSSL        bool
	Verbose       bool
	VerifyCopy    bool
	CacheDir      string
	FetchCacheDir string
	DownloadsDir  string
	CoverDir      string
}

// OptionsFromConfig derives pipeline options from cfg.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	format, err := FormatByName(cfg.Download.Format)
	if err != nil {
		return Options{}, services.Wrap(services.ErrConfiguration, "pipeline", "format", "", err)
	}
	return Options{
		Format:        format,
		Retries:       cfg.Download.Retries,
		EnableTagging: cfg.Download.EnableTagging,
		OnlyVideoID:   cfg.Download.OnlyVideoID,
		NonSSL:        cfg.Download.NonSSL,
		Verbose:       cfg.Download.Verbose,
		VerifyCopy:    cfg.Download.VerifyCopy,
		CacheDir:      cfg.Paths.CacheDir,
		FetchCacheDir: cfg.FetchCacheDir(),
		DownloadsDir:  cfg.Paths.DownloadsDir,
		CoverDir:      cfg.Paths.CoverDir,
	}, nil
}

type nopReporter struct{}

func (nopReporter) Status(string, string)         {}
func (nopReporter) Progress(string, float64, int) {}

// Result is the terminal classification of one Run.
type Result int

const (
	// ResultSkipped means the track was not pending when re-read.
	ResultSkipped Result = iota
	// ResultDownloaded means the audio file was finalized.
	ResultDownloaded
	// ResultFailed means a fatal stage failed; the track is marked failed.
	ResultFailed
	// ResultAbandoned means the context was cancelled between stages. The
	// track stays downloading until the next startup reset.
	ResultAbandoned
)

func (r Result) String() string {
	switch r {
	case ResultSkipped:
		return "skipped"
	case ResultDownloaded:
		return "downloaded"
	case ResultFailed:
		return "failed"
	case ResultAbandoned:
		return "abandoned"
	default:
		return fmt.Sprintf("result(%d)", int(r))
	}
}

// Outcome reports what Run did.
type Outcome struct {
	Result   Result
	Track    *track.Track
	Err      error
	Warnings []error
}

var errAbandoned = errors.New("pipeline abandoned")

// StageError records which stage produced a failure.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string { return e.Stage + ": " + e.Err.Error() }

func (e *StageError) Unwrap() error { return e.Err }

// Pipeline executes the stage sequence for one track at a time.
type Pipeline struct {
	store    Store
	fetcher  Fetcher
	tagger   Tagger
	codec    KeyCodec
	covers   CoverStore
	reporter Reporter
	notifier notifications.Service
	opts     Options
	logger   *slog.Logger
}

// Deps groups the collaborators of a Pipeline.
type Deps struct {
	Store    Store
	Fetcher  Fetcher
	Tagger   Tagger
	Codec    KeyCodec
	Covers   CoverStore
	Reporter Reporter
	Notifier notifications.Service
	Logger   *slog.Logger
}

// New constructs a pipeline.
func New(deps Deps, opts Options) *Pipeline {
	logger := deps.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	reporter := deps.Reporter
	if reporter == nil {
		reporter = nopReporter{}
	}
	notifier := deps.Notifier
	if notifier == nil {
		notifier = notifications.NewService(&config.Config{})
	}
	return &Pipeline{
		store:    deps.Store,
		fetcher:  deps.Fetcher,
		tagger:   deps.Tagger,
		codec:    deps.Codec,
		covers:   deps.Covers,
		reporter: reporter,
		notifier: notifier,
		opts:     opts,
		logger:   logging.NewComponentLogger(logger, "pipeline"),
	}
}

// Run downloads the track identified by id if it is still pending.
func (p *Pipeline) Run(ctx context.Context, id string) Outcome {
	ctx = services.WithTrackID(ctx, id)
	ctx = services.WithRequestID(ctx, uuid.NewString())
	logger := logging.WithContext(ctx, p.logger)

	current, err := p.store.Get(ctx, id)
	if err != nil {
		logging.WarnWithContext(logger, "track lookup failed", "track_lookup_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the track database"),
		)
		return Outcome{Result: ResultSkipped, Err: err}
	}
	if current == nil || current.Status != track.StatusPending {
		status := "missing"
		if current != nil {
			status = string(current.Status)
		}
		logger.Debug("track no longer pending, skipping", logging.String("status", status))
		return Outcome{Result: ResultSkipped, Track: current}
	}

	t := current.Clone()
	if err := t.TransitionTo(track.StatusDownloading); err != nil {
		return Outcome{Result: ResultSkipped, Track: current, Err: err}
	}
	if err := p.store.Update(ctx, t); err != nil {
		logging.WarnWithContext(logger, "mark downloading failed", "track_update_failed", logging.Error(err))
		return Outcome{Result: ResultSkipped, Track: current, Err: err}
	}

	start := time.Now()
	logger.Info("download started",
		logging.String(logging.FieldEventType, "download_start"),
		logging.String("title", t.Title),
		logging.String("format", p.opts.Format.Name),
	)

	r := &run{track: t}
	runErr := p.safeExecute(ctx, r)
	if errors.Is(runErr, errAbandoned) {
		logger.Info("download abandoned",
			logging.String(logging.FieldEventType, "download_abandoned"),
			logging.Duration("elapsed", time.Since(start)),
		)
		return Outcome{Result: ResultAbandoned, Track: t, Warnings: r.warnings}
	}

	// The result is recorded even when shutdown began after the last stage.
	persistCtx := context.WithoutCancel(ctx)
	if runErr != nil {
		p.removeFinals(persistCtx, r.finals)
		return p.fail(persistCtx, t, runErr, r.warnings)
	}
	return p.complete(persistCtx, r, time.Since(start))
}

func (p *Pipeline) safeExecute(ctx context.Context, r *run) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logging.ErrorWithContext(logging.WithContext(ctx, p.logger), "pipeline panic", "pipeline_panic",
				logging.Any("panic", r),
				logging.String("stack", string(debug.Stack())),
			)
			err = services.Fatal("pipeline", "panic", fmt.Sprint(r), nil)
		}
	}()
	return p.execute(ctx, r)
}

func (p *Pipeline) complete(ctx context.Context, r *run, elapsed time.Duration) Outcome {
	logger := logging.WithContext(ctx, p.logger)
	t, warnings := r.track, r.warnings
	if err := t.TransitionTo(track.StatusDownloaded); err != nil {
		p.removeFinals(ctx, r.finals)
		return p.fail(ctx, t, services.Fatal("pipeline", "complete", "", err), warnings)
	}
	if err := p.store.Update(ctx, t); err != nil {
		logging.ErrorWithContext(logger, "record download failed", "track_update_failed",
			logging.Error(err),
			logging.String("audio_file_key", t.AudioFileKey),
		)
		p.removeFinals(ctx, r.finals)
		return p.fail(ctx, t, services.Fatal("pipeline", "record download", "", err), warnings)
	}
	logger.Info("download completed",
		logging.String(logging.FieldEventType, "download_complete"),
		logging.String("title", t.Title),
		logging.String("artist", t.Artist),
		logging.Bool("has_cover", t.CoverFileKey != ""),
		logging.Int("warnings", len(warnings)),
		logging.Duration("elapsed", elapsed),
	)
	p.publish(ctx, notifications.EventDownloadCompleted, notifications.Payload{
		"title":    t.Title,
		"duration": elapsed,
	})
	return Outcome{Result: ResultDownloaded, Track: t, Warnings: warnings}
}

func (p *Pipeline) fail(ctx context.Context, t *track.Track, cause error, warnings []error) Outcome {
	logger := logging.WithContext(ctx, p.logger)
	stage := "pipeline"
	var stageErr *StageError
	if errors.As(cause, &stageErr) {
		stage = stageErr.Stage
	}
	logging.ErrorWithContext(logger, "download failed", "download_failed",
		logging.Error(cause),
		logging.String(logging.FieldStage, stage),
		logging.String(logging.FieldErrorKind, services.Kind(cause)),
		logging.String(logging.FieldErrorHint, "run 'yodel retry' once the cause is fixed"),
		logging.String("title", t.Title),
	)

	t.AudioFileKey = ""
	t.CoverFileKey = ""
	if t.Status == track.StatusDownloading {
		_ = t.TransitionTo(track.StatusFailed)
	} else {
		t.Status = track.StatusFailed
	}
	if err := p.store.Update(ctx, t); err != nil {
		logging.ErrorWithContext(logger, "record failure failed", "track_update_failed", logging.Error(err))
	}
	p.publish(ctx, notifications.EventDownloadFailed, notifications.Payload{
		"title": t.Title,
		"stage": stage,
		"error": cause,
	})
	return Outcome{Result: ResultFailed, Track: t, Err: cause, Warnings: warnings}
}

// removeFinals deletes finalized files of a run whose download is not being
// recorded, so a later attempt does not leave a numbered duplicate behind.
func (p *Pipeline) removeFinals(ctx context.Context, paths []string) {
	for _, path := range paths {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			logging.WarnWithContext(logging.WithContext(ctx, p.logger), "remove finalized file failed", "final_cleanup_failed",
				logging.Error(err),
				logging.String("path", path),
			)
		}
	}
}

func (p *Pipeline) publish(ctx context.Context, event notifications.Event, payload notifications.Payload) {
	if err := p.notifier.Publish(ctx, event, payload); err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, p.logger), "notification failed", "notification_failed",
			logging.Error(err),
			logging.String("event", string(event)),
			logging.String(logging.FieldErrorHint, "check ntfy topic and network"),
		)
	}
}
