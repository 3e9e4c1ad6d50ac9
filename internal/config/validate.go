package config

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"
)

var supportedFormats = []string{"mp3", "aac", "weba", "ogg", "flac", "wav"}

var supportedLogLevels = []string{"debug", "info", "warn", "error"}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateDownload(); err != nil {
		return err
	}
	if err := c.validateProgress(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.DownloadsDir) == "" {
		return errors.New("paths.downloads_dir must be set")
	}
	if c.Paths.CacheDir == c.Paths.DownloadsDir {
		return errors.New("paths.cache_dir must differ from paths.downloads_dir")
	}
	return nil
}

func (c *Config) validateDownload() error {
	if !slices.Contains(supportedFormats, c.Download.Format) {
		return fmt.Errorf("download.format: unsupported value %q (expected one of %s)",
			c.Download.Format, strings.Join(supportedFormats, ", "))
	}
	if c.Download.Retries < 0 || c.Download.Retries > maxDownloadRetries {
		return fmt.Errorf("download.retries must be between 0 and %d", maxDownloadRetries)
	}
	if c.Download.CoverMaxSize < minCoverSize {
		return fmt.Errorf("download.cover_max_size must be at least %d", minCoverSize)
	}
	return nil
}

func (c *Config) validateProgress() error {
	if c.Progress.UpdatesPerSecond < 0 {
		return errors.New("progress.updates_per_second must be >= 0")
	}
	return nil
}

func (c *Config) validateNotifications() error {
	topic := c.Notifications.NtfyTopic
	if topic == "" {
		return nil
	}
	parsed, err := url.Parse(topic)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("notifications.ntfy_topic must be a full URL, got %q", topic)
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if c.Workflow.ReconcileInterval < 0 {
		return errors.New("workflow.reconcile_interval must be >= 0")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	if !slices.Contains(supportedLogLevels, c.Logging.Level) {
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
