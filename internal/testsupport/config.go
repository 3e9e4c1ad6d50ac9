package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"yodel/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DownloadsDir = filepath.Join(base, "downloads")
	cfgVal.Paths.CoverDir = filepath.Join(base, "covers")
	cfgVal.Paths.CacheDir = filepath.Join(base, "cache")
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Progress.UpdatesPerSecond = 0
	cfgVal.Workflow.PendingPollInterval = 1

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithFormat overrides the download format on the test config.
func WithFormat(format string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Download.Format = format
	}
}

// WithRetries overrides the fetch retry budget on the test config.
func WithRetries(retries int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Download.Retries = retries
	}
}

// WithStubbedBinaries puts no-op executables for names (yt-dlp and ffmpeg by
// default) in a bin directory at the front of PATH for the test.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"yt-dlp", "ffmpeg"}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		for _, name := range names {
			WriteExecutable(b.t, filepath.Join(binDir, name))
		}
		b.t.Setenv("PATH", binDir+string(os.PathListSeparator)+os.Getenv("PATH"))
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
