package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeDownload()
	c.normalizeNotifications()
	c.normalizeWorkflow()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	if value, ok := os.LookupEnv(downloadsDirEnv); ok && strings.TrimSpace(value) != "" {
		c.Paths.DownloadsDir = strings.TrimSpace(value)
	}
	if strings.TrimSpace(c.Paths.CoverDir) == "" {
		c.Paths.CoverDir = defaultCoverDir
	}
	if strings.TrimSpace(c.Paths.CacheDir) == "" {
		c.Paths.CacheDir = defaultCacheDir
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}

	var err error
	if c.Paths.DownloadsDir, err = expandPath(strings.TrimSpace(c.Paths.DownloadsDir)); err != nil {
		return fmt.Errorf("paths.downloads_dir: %w", err)
	}
	if c.Paths.CoverDir, err = expandPath(c.Paths.CoverDir); err != nil {
		return fmt.Errorf("paths.cover_dir: %w", err)
	}
	if c.Paths.CacheDir, err = expandPath(c.Paths.CacheDir); err != nil {
		return fmt.Errorf("paths.cache_dir: %w", err)
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeDownload() {
	c.Download.Format = strings.ToLower(strings.TrimSpace(c.Download.Format))
	if c.Download.Format == "" {
		c.Download.Format = defaultDownloadFormat
	}
	c.Download.YTDLPPath = strings.TrimSpace(c.Download.YTDLPPath)
	if c.Download.CoverMaxSize == 0 {
		c.Download.CoverMaxSize = defaultCoverMaxSize
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyRequestTimeout
	}
}

func (c *Config) normalizeWorkflow() {
	if c.Workflow.PendingPollInterval <= 0 {
		c.Workflow.PendingPollInterval = defaultPendingPollInterval
	}
}

func (c *Config) normalizeLogging() {
	format := strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch format {
	case "", "console", "text":
		c.Logging.Format = "console"
	case "json":
		c.Logging.Format = "json"
	default:
		c.Logging.Format = format
	}
	level := strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if level == "" {
		level = defaultLogLevel
	}
	c.Logging.Level = level
}
