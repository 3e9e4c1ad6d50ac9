package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DownloadsDir string `toml:"downloads_dir"`
	CoverDir     string `toml:"cover_dir"`
	CacheDir     string `toml:"cache_dir"`
	StateDir     string `toml:"state_dir"`
	LogDir       string `toml:"log_dir"`
}

// Download controls how tracks are fetched and finalized.
type Download struct {
	Format        string `toml:"format"`
	Retries       int    `toml:"retries"`
	EnableTagging bool   `toml:"enable_tagging"`
	OnlyVideoID   bool   `toml:"only_video_id"`
	NonSSL        bool   `toml:"non_ssl"`
	Verbose       bool   `toml:"verbose"`
	YTDLPPath     string `toml:"ytdlp_path"`
	CoverMaxSize  int    `toml:"cover_max_size"`
	VerifyCopy    bool   `toml:"verify_copy"`
}

// Progress controls the progress surface.
type Progress struct {
	// UpdatesPerSecond caps determinate progress updates. Zero disables throttling.
	UpdatesPerSecond float64 `toml:"updates_per_second"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	Errors         bool   `toml:"errors"`
	Completed      bool   `toml:"completed"`
}

// Workflow contains configuration for daemon timing and intervals.
type Workflow struct {
	ReconcileInterval   int `toml:"reconcile_interval"`
	PendingPollInterval int `toml:"pending_poll_interval"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for yodel.
//
// Configuration sections by subsystem:
//   - Paths: downloads, cover store, scratch cache, state and log directories
//   - Download: output format, retry budget, tagging and fetch tool flags
//   - Progress: progress surface throttling
//   - Notifications: ntfy push notification settings
//   - Workflow: reconciliation and pending observer intervals
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Download      Download      `toml:"download"`
	Progress      Progress      `toml:"progress"`
	Notifications Notifications `toml:"notifications"`
	Workflow      Workflow      `toml:"workflow"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path of the per-user config file.
func DefaultConfigPath() (string, error) {
	if xdg := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME")); xdg != "" {
		return expandPath(filepath.Join(xdg, "yodel", "config.toml"))
	}
	return expandPath(defaultConfigPathValue)
}

// Load reads the config at path, or the first existing default location when
// path is empty, on top of Default. It returns the config, the path that was
// used and whether that file existed. Unknown keys are rejected.
func Load(path string) (*Config, string, bool, error) {
	resolved, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	cfg := Default()
	if exists {
		data, err := os.ReadFile(resolved)
		if err != nil {
			return nil, "", false, fmt.Errorf("read config: %w", err)
		}
		decoder := toml.NewDecoder(bytes.NewReader(data))
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			var strict *toml.StrictMissingError
			if errors.As(err, &strict) {
				return nil, "", false, fmt.Errorf("parse config %s: %s", resolved, strict.String())
			}
			return nil, "", false, fmt.Errorf("parse config %s: %w", resolved, err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolved, exists, nil
}

// resolveConfigPath honours an explicit path even when it does not exist.
// Otherwise the user config wins over yodel.toml in the working directory.
func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		exists, err := isFile(expanded)
		return expanded, exists, err
	}

	userPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs(projectConfigFileName)
	if err != nil {
		return "", false, err
	}
	for _, candidate := range []string{userPath, projectPath} {
		exists, err := isFile(candidate)
		if err != nil {
			return "", false, err
		}
		if exists {
			return candidate, true, nil
		}
	}
	return userPath, false, nil
}

func isFile(path string) (bool, error) {
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("stat config: %w", err)
	case info.IsDir():
		return false, fmt.Errorf("config path %s is a directory", path)
	}
	return true, nil
}

// DatabasePath returns the location of the track database.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.StateDir, "tracks.db")
}

// LockPath returns the location of the daemon single-instance lock.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "yodel.lock")
}

// FetchCacheDir returns the cache directory handed to the fetch tool.
func (c *Config) FetchCacheDir() string {
	return filepath.Join(c.Paths.CacheDir, "youtube-dl_cache")
}

// DownloaderBinary returns the fetch tool executable name or configured path.
func (c *Config) DownloaderBinary() string {
	if path := strings.TrimSpace(c.Download.YTDLPPath); path != "" {
		return path
	}
	return defaultDownloaderExecutable
}

// TranscoderBinary returns the executable the fetch tool uses for audio extraction.
func (c *Config) TranscoderBinary() string {
	return defaultTranscoderExecutable
}

// EnsureDirectories creates required directories for daemon operation.
// The downloads directory is created on a best-effort basis so the CLI keeps
// working when external storage is temporarily unavailable.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.LogDir, c.Paths.CacheDir, c.Paths.CoverDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if strings.TrimSpace(c.Paths.DownloadsDir) != "" {
		_ = os.MkdirAll(c.Paths.DownloadsDir, 0o755)
	}
	return nil
}

func expandPath(value string) (string, error) {
	if value == "" {
		return "", nil
	}
	if value == "~" || strings.HasPrefix(value, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		value = filepath.Join(home, strings.TrimPrefix(value[1:], "/"))
	}
	absolute, err := filepath.Abs(value)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", value, err)
	}
	return absolute, nil
}

// ExpandPath resolves a leading ~ and makes value absolute.
func ExpandPath(value string) (string, error) {
	return expandPath(value)
}

// SampleConfig returns the embedded sample configuration.
func SampleConfig() string {
	return sampleConfig
}

// CreateSample writes the sample configuration to path, creating its
// directory.
func CreateSample(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
