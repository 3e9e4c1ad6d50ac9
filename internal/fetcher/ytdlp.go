package fetcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lrstanley/go-ytdlp"

	"yodel/internal/logging"
	"yodel/internal/services"
)

const progressInterval = 250 * time.Millisecond

// Request describes one fetch attempt.
type Request struct {
	Locator     string
	Output      string
	CacheDir    string
	AudioFormat string
	NonSSL      bool
	Verbose     bool
}

// ProgressFunc receives download progress as a fraction and remaining seconds.
type ProgressFunc func(fraction float64, etaSeconds int)

// Info is the best-effort metadata hint returned by GetInfo.
type Info struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Channel  string  `json:"channel"`
	Uploader string  `json:"uploader"`
	Duration float64 `json:"duration"`
}

// YTDLP runs yt-dlp through go-ytdlp.
type YTDLP struct {
	binary string
	logger *slog.Logger
}

// New returns a fetcher invoking binary ("" uses yt-dlp from PATH).
func New(binary string, logger *slog.Logger) *YTDLP {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &YTDLP{binary: strings.TrimSpace(binary), logger: logging.NewComponentLogger(logger, "fetcher")}
}

func (y *YTDLP) command() *ytdlp.Command {
	cmd := ytdlp.New()
	if y.binary != "" && y.binary != "yt-dlp" {
		cmd.SetExecutable(y.binary)
	}
	return cmd
}

// Fetch performs a single download attempt.
func (y *YTDLP) Fetch(ctx context.Context, req Request, progress ProgressFunc) error {
	if strings.TrimSpace(req.Locator) == "" {
		return services.Wrap(services.ErrValidation, "fetch", "validate request", "locator is empty", nil)
	}
	if strings.TrimSpace(req.Output) == "" {
		return services.Wrap(services.ErrValidation, "fetch", "validate request", "output path is empty", nil)
	}

	cmd := y.command().
		Format("bestaudio").
		ExtractAudio().
		AudioFormat(req.AudioFormat).
		AudioQuality("0").
		WriteInfoJSON().
		WriteThumbnail().
		Output(req.Output)
	if req.CacheDir != "" {
		cmd.CacheDir(req.CacheDir)
	}
	if req.NonSSL {
		cmd.NoCheckCertificates().PreferInsecure()
	}
	if req.Verbose {
		cmd.Verbose()
	}
	if progress != nil {
		cmd.ProgressFunc(progressInterval, func(update ytdlp.ProgressUpdate) {
			eta := int(update.ETA().Seconds())
			progress(update.Percent()/100, eta)
		})
	}

	result, err := cmd.Run(ctx, req.Locator)
	if result != nil && req.Verbose {
		y.logger.Debug("yt-dlp finished",
			logging.String("locator", req.Locator),
			logging.Int("exit_code", result.ExitCode),
			logging.String("stderr", tail(result.Stderr, 2048)),
		)
	}
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return services.Wrap(services.ErrTransient, "fetch", "run yt-dlp", "download attempt failed", err)
	}
	return nil
}

// GetInfo queries metadata without downloading, trying up to 1+retries times.
func (y *YTDLP) GetInfo(ctx context.Context, locator string, retries int) (*Info, error) {
	if retries < 0 {
		retries = 0
	}
	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		result, err := y.command().SkipDownload().DumpJSON().Run(ctx, locator)
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			continue
		}
		info, err := parseInfo(result.Stdout)
		if err != nil {
			lastErr = err
			continue
		}
		return info, nil
	}
	return nil, services.Wrap(services.ErrExternalTool, "info", "run yt-dlp", fmt.Sprintf("no metadata after %d attempts", retries+1), lastErr)
}

func parseInfo(stdout string) (*Info, error) {
	for _, line := range strings.Split(stdout, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "{") {
			continue
		}
		var info Info
		if err := json.Unmarshal([]byte(line), &info); err != nil {
			return nil, fmt.Errorf("decode info json: %w", err)
		}
		return &info, nil
	}
	return nil, errors.New("yt-dlp printed no info json")
}

func tail(value string, limit int) string {
	if len(value) <= limit {
		return value
	}
	return value[len(value)-limit:]
}
