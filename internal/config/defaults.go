package config

const (
	defaultDownloadsDir          = "~/Music/yodel"
	defaultCoverDir              = "~/.local/share/yodel/cover_store"
	defaultCacheDir              = "~/.cache/yodel"
	defaultStateDir              = "~/.local/share/yodel"
	defaultLogDir                = "~/.local/share/yodel/logs"
	defaultDownloadFormat        = "mp3"
	defaultDownloadRetries       = 10
	defaultCoverMaxSize          = 1024
	defaultProgressUpdatesPerSec = 2
	defaultNotifyRequestTimeout  = 10
	defaultReconcileInterval     = 300
	defaultPendingPollInterval   = 2
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
	downloadsDirEnv              = "YODEL_DOWNLOADS_DIR"
	defaultConfigPathValue       = "~/.config/yodel/config.toml"
	projectConfigFileName        = "yodel.toml"
	maxDownloadRetries           = 100
	minCoverSize                 = 64
	defaultDownloaderExecutable  = "yt-dlp"
	defaultTranscoderExecutable  = "ffmpeg"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DownloadsDir: defaultDownloadsDir,
			CoverDir:     defaultCoverDir,
			CacheDir:     defaultCacheDir,
			StateDir:     defaultStateDir,
			LogDir:       defaultLogDir,
		},
		Download: Download{
			Format:        defaultDownloadFormat,
			Retries:       defaultDownloadRetries,
			EnableTagging: true,
			CoverMaxSize:  defaultCoverMaxSize,
			VerifyCopy:    true,
		},
		Progress: Progress{
			UpdatesPerSecond: defaultProgressUpdatesPerSec,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			Errors:         true,
		},
		Workflow: Workflow{
			ReconcileInterval:   defaultReconcileInterval,
			PendingPollInterval: defaultPendingPollInterval,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
