package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"yodel/internal/fetcher"
	"yodel/internal/fileutil"
	"yodel/internal/logging"
	"yodel/internal/notifications"
	"yodel/internal/services"
	"yodel/internal/tagging"
	"yodel/internal/tempfiles"
	"yodel/internal/textutil"
	"yodel/internal/track"
)

const (
	stageResolve       = "resolve"
	stageSession       = "session"
	stageFetch         = "fetch"
	stageParse         = "parse"
	stageTag           = "tag"
	stageFinalizeAudio = "finalize_audio"
	stageFinalizeCover = "finalize_cover"
)

const (
	labelStarting   = "Starting download"
	labelProcessing = "Processing metadata"
	labelTagging    = "Writing tags"
	labelFinishing  = "Finishing"
)

// maxNameCollisions bounds the " (n)" suffix search for a free final name.
const maxNameCollisions = 10000

// run holds the mutable state of one execution.
type run struct {
	track    *track.Track
	locator  string
	files    *tempfiles.Set
	warnings []error
	// finals lists files written outside the cache directory.
	finals []string
}

func (p *Pipeline) execute(ctx context.Context, r *run) error {
	t := r.track
	defer func() {
		if r.files != nil && !r.files.DeleteAll() {
			logging.WarnWithContext(logging.WithContext(ctx, p.logger), "scratch cleanup incomplete", "tempfile_cleanup_failed",
				logging.Any("remaining", r.files.Existing()),
				logging.String(logging.FieldErrorHint, "remove leftover dl_ files from the cache directory"),
			)
		}
	}()

	stages := []struct {
		name  string
		label string
		fn    func(context.Context, *run) error
	}{
		{stageResolve, labelStarting, p.resolve},
		{stageSession, labelStarting, p.session},
		{stageFetch, "", p.fetch},
		{stageParse, labelProcessing, p.parse},
		{stageTag, labelTagging, p.tag},
		{stageFinalizeAudio, labelFinishing, p.finalizeAudio},
		{stageFinalizeCover, labelFinishing, p.finalizeCover},
	}
	for _, stage := range stages {
		if ctx.Err() != nil {
			return errAbandoned
		}
		if stage.label != "" {
			p.reporter.Status(t.Title, stage.label)
		}
		if err := p.runStage(ctx, stage.name, r, stage.fn); err != nil {
			if errors.Is(err, errAbandoned) {
				return err
			}
			if services.IsFatal(err) {
				return &StageError{Stage: stage.name, Err: err}
			}
			r.warnings = append(r.warnings, err)
			p.publish(ctx, notifications.EventStageWarning, notifications.Payload{
				"title": t.Title,
				"stage": stage.name,
				"error": err,
			})
		}
	}
	return nil
}

func (p *Pipeline) runStage(ctx context.Context, name string, r *run, fn func(context.Context, *run) error) error {
	stageCtx := services.WithStage(ctx, name)
	logger := logging.WithContext(stageCtx, p.logger)
	start := time.Now()
	logger.Debug("stage started", logging.String(logging.FieldEventType, "stage_start"))

	err := fn(stageCtx, r)
	switch {
	case err == nil:
		logger.Debug("stage completed",
			logging.String(logging.FieldEventType, "stage_complete"),
			logging.Duration("stage_duration", time.Since(start)),
		)
	case errors.Is(err, errAbandoned):
	case services.IsFatal(err):
		logger.Debug("stage failed",
			logging.String(logging.FieldEventType, "stage_failure"),
			logging.Error(err),
			logging.Duration("stage_duration", time.Since(start)),
		)
	default:
		logging.WarnWithContext(logger, "stage failed, continuing", "stage_warning",
			logging.Error(err),
			logging.String(logging.FieldErrorKind, services.Kind(err)),
			logging.String(logging.FieldErrorHint, "the download continues without this step"),
		)
	}
	return err
}

func (p *Pipeline) resolve(_ context.Context, r *run) error {
	locator, err := ResolveLocator(r.track.ID, p.opts.OnlyVideoID, p.opts.NonSSL)
	if err != nil {
		return services.Fatal(stageResolve, "locator", "", err)
	}
	r.locator = locator
	return nil
}

func (p *Pipeline) session(_ context.Context, r *run) error {
	for _, dir := range []string{p.opts.CacheDir, p.opts.FetchCacheDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return services.Fatal(stageSession, "create cache directory", dir, err)
		}
	}
	r.files = tempfiles.New(p.opts.CacheDir, r.track.ID, p.opts.Format.Extension)
	return nil
}

// fetch runs up to 1+retries attempts back to back. Each attempt gets a
// context that is never cancelled: a started attempt always runs to
// completion and shutdown is honored between attempts.
func (p *Pipeline) fetch(ctx context.Context, r *run) error {
	logger := logging.WithContext(ctx, p.logger)
	r.files.DeleteAll()

	req := fetcher.Request{
		Locator:     r.locator,
		Output:      r.files.Raw(),
		CacheDir:    p.opts.FetchCacheDir,
		AudioFormat: p.opts.Format.Name,
		NonSSL:      p.opts.NonSSL,
		Verbose:     p.opts.Verbose,
	}
	title := r.track.Title
	onProgress := func(fraction float64, etaSeconds int) {
		p.reporter.Progress(title, fraction, etaSeconds)
	}

	attempts := 1 + max(p.opts.Retries, 0)
	fetchCtx := context.WithoutCancel(ctx)
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			if ctx.Err() != nil {
				return errAbandoned
			}
			p.reporter.Status(title, labelStarting)
		}
		err := p.fetcher.Fetch(fetchCtx, req, onProgress)
		if err == nil {
			if !fileExists(r.files.Audio()) {
				err = errors.New("audio file missing after fetch")
			} else if !fileExists(r.files.MetadataSidecar()) {
				err = errors.New("metadata sidecar missing after fetch")
			}
		}
		if err == nil {
			logger.Debug("fetch attempt succeeded", logging.Int("attempt", attempt))
			return nil
		}
		lastErr = err
		logging.WarnWithContext(logger, "fetch attempt failed", "fetch_attempt_failed",
			logging.Int("attempt", attempt),
			logging.Int("attempts", attempts),
			logging.Error(err),
		)
	}
	return services.Fatal(stageFetch, "download", fmt.Sprintf("giving up after %d attempts", attempts), lastErr)
}

func (p *Pipeline) parse(_ context.Context, r *run) error {
	meta, err := ReadSidecar(r.files.MetadataSidecar())
	if err != nil {
		return services.Fatal(stageParse, "metadata sidecar", "", err)
	}
	meta.Apply(r.track)
	return nil
}

func (p *Pipeline) tag(ctx context.Context, r *run) error {
	if !p.opts.Format.SupportsID3 || !p.opts.EnableTagging {
		return nil
	}
	fields := tagging.Fields{
		Title:  r.track.Title,
		Artist: r.track.Artist,
		Album:  r.track.AlbumName,
		Year:   r.track.ReleaseYear(),
	}
	if thumb := r.files.Thumbnail(); thumb != "" {
		data, err := p.covers.ConvertFile(thumb)
		if err != nil {
			logging.WarnWithContext(logging.WithContext(ctx, p.logger), "embedded cover skipped", "cover_convert_failed",
				logging.Error(err),
				logging.String("thumbnail", thumb),
			)
		} else {
			fields.Cover = data
		}
	}
	if err := p.tagger.WriteTags(r.files.Audio(), fields); err != nil {
		return services.NonFatal(stageTag, "write id3", "", err)
	}
	return nil
}

func (p *Pipeline) finalizeAudio(ctx context.Context, r *run) error {
	src := r.files.Audio()
	if !fileExists(src) {
		return services.Fatal(stageFinalizeAudio, "locate audio", src, fs.ErrNotExist)
	}
	if err := os.MkdirAll(p.opts.DownloadsDir, 0o755); err != nil {
		return services.Fatal(stageFinalizeAudio, "create downloads directory", p.opts.DownloadsDir, err)
	}
	base := textutil.SanitizeFileName(r.track.Title)
	if base == "" {
		base = textutil.SanitizeFileName(r.track.ID)
	}
	dst, err := UniqueFinalPath(p.opts.DownloadsDir, base, p.opts.Format.Extension)
	if err != nil {
		return services.Fatal(stageFinalizeAudio, "choose file name", "", err)
	}

	copyFn := fileutil.CopyFile
	if p.opts.VerifyCopy {
		copyFn = fileutil.CopyFileVerified
	}
	if err := copyFn(src, dst); err != nil {
		if removeErr := os.Remove(dst); removeErr != nil && !errors.Is(removeErr, fs.ErrNotExist) {
			err = errors.Join(err, removeErr)
		}
		return services.Fatal(stageFinalizeAudio, "copy audio", dst, err)
	}
	r.finals = append(r.finals, dst)
	r.track.AudioFileKey = p.codec.Encode(dst)
	logging.WithContext(ctx, p.logger).Info("audio finalized",
		logging.String("path", dst),
		logging.String("mime_type", p.opts.Format.MimeType),
	)
	return nil
}

func (p *Pipeline) finalizeCover(ctx context.Context, r *run) error {
	thumb := r.files.Thumbnail()
	if thumb == "" {
		return services.NonFatal(stageFinalizeCover, "locate thumbnail", "", fs.ErrNotExist)
	}
	path, err := p.covers.Store(thumb, p.opts.CoverDir, r.track.ID)
	if err != nil {
		return services.NonFatal(stageFinalizeCover, "store cover", "", err)
	}
	r.finals = append(r.finals, path)
	r.track.CoverFileKey = p.codec.Encode(path)
	logging.WithContext(ctx, p.logger).Debug("cover finalized", logging.String("path", path))
	return nil
}

// ResolveLocator turns a track id into the locator handed to the fetch tool.
// With onlyID the bare id is used; otherwise a watch URL is built, over plain
// http when nonSSL is set.
func ResolveLocator(id string, onlyID, nonSSL bool) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", services.Wrap(services.ErrValidation, stageResolve, "locator", "empty track id", nil)
	}
	if onlyID {
		return id, nil
	}
	scheme := "https"
	if nonSSL {
		scheme = "http"
	}
	return scheme + "://www.youtube.com/watch?v=" + id, nil
}

// UniqueFinalPath returns dir/base.ext, or the first dir/base (n).ext that
// does not exist yet.
func UniqueFinalPath(dir, base, ext string) (string, error) {
	ext = strings.TrimPrefix(ext, ".")
	candidate := filepath.Join(dir, base+"."+ext)
	for n := 1; n <= maxNameCollisions; n++ {
		if _, err := os.Lstat(candidate); errors.Is(err, fs.ErrNotExist) {
			return candidate, nil
		} else if err != nil {
			return "", err
		}
		candidate = filepath.Join(dir, fmt.Sprintf("%s (%d).%s", base, n, ext))
	}
	return "", fmt.Errorf("no free file name for %q after %d attempts", base, maxNameCollisions)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
