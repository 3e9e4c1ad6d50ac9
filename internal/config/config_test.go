package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"yodel/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("XDG_CONFIG_HOME", "")
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	if want := filepath.Join(tempHome, "Music", "yodel"); cfg.Paths.DownloadsDir != want {
		t.Fatalf("unexpected downloads dir: got %q want %q", cfg.Paths.DownloadsDir, want)
	}
	if want := filepath.Join(tempHome, ".local", "share", "yodel", "cover_store"); cfg.Paths.CoverDir != want {
		t.Fatalf("unexpected cover dir: got %q want %q", cfg.Paths.CoverDir, want)
	}
	if cfg.Download.Format != "mp3" {
		t.Fatalf("unexpected default format %q", cfg.Download.Format)
	}
	if cfg.Download.Retries != 10 {
		t.Fatalf("unexpected default retries %d", cfg.Download.Retries)
	}
	if !cfg.Download.EnableTagging {
		t.Fatal("expected tagging enabled by default")
	}
	if !cfg.Notifications.Errors {
		t.Fatal("expected error notifications enabled by default")
	}
	if cfg.DatabasePath() != filepath.Join(cfg.Paths.StateDir, "tracks.db") {
		t.Fatalf("unexpected database path %q", cfg.DatabasePath())
	}
}

func TestLoadCustomConfigOverrides(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("XDG_CONFIG_HOME", "")

	configPath := filepath.Join(t.TempDir(), "config.toml")
	content := `
[paths]
downloads_dir = "~/tracks"

[download]
format = "FLAC"
retries = 3
only_video_id = true

[logging]
format = "json"
level = "DEBUG"
`
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("expected explicit config to be used, got %q exists=%v", resolved, exists)
	}
	if cfg.Paths.DownloadsDir != filepath.Join(tempHome, "tracks") {
		t.Fatalf("unexpected downloads dir %q", cfg.Paths.DownloadsDir)
	}
	if cfg.Download.Format != "flac" {
		t.Fatalf("expected normalized format, got %q", cfg.Download.Format)
	}
	if cfg.Download.Retries != 3 || !cfg.Download.OnlyVideoID {
		t.Fatalf("unexpected download section %+v", cfg.Download)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("unexpected logging section %+v", cfg.Logging)
	}
}

func TestDownloadsDirEnvOverride(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", "")
	override := t.TempDir()
	t.Setenv("YODEL_DOWNLOADS_DIR", override)

	cfg, _, _, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Paths.DownloadsDir != override {
		t.Fatalf("expected env override %q, got %q", override, cfg.Paths.DownloadsDir)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"format", func(c *config.Config) { c.Download.Format = "opus" }, "download.format"},
		{"negative retries", func(c *config.Config) { c.Download.Retries = -1 }, "download.retries"},
		{"cover size", func(c *config.Config) { c.Download.CoverMaxSize = 8 }, "download.cover_max_size"},
		{"ntfy topic", func(c *config.Config) { c.Notifications.NtfyTopic = "my-topic" }, "notifications.ntfy_topic"},
		{"log level", func(c *config.Config) { c.Logging.Level = "trace" }, "logging.level"},
		{"progress rate", func(c *config.Config) { c.Progress.UpdatesPerSecond = -1 }, "progress.updates_per_second"},
		{"downloads dir", func(c *config.Config) { c.Paths.DownloadsDir = "" }, "paths.downloads_dir"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Paths.DownloadsDir = "/tmp/yodel-downloads"
			cfg.Paths.CacheDir = "/tmp/yodel-cache"
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected %q in error, got %v", tc.want, err)
			}
		})
	}
}

func TestSampleConfigParsesIntoDefaults(t *testing.T) {
	var cfg config.Config
	if err := toml.Unmarshal([]byte(config.SampleConfig()), &cfg); err != nil {
		t.Fatalf("sample config does not parse: %v", err)
	}
	def := config.Default()
	if cfg.Download != def.Download {
		t.Fatalf("sample download section drifted from defaults: %+v vs %+v", cfg.Download, def.Download)
	}
	if cfg.Workflow != def.Workflow {
		t.Fatalf("sample workflow section drifted from defaults: %+v vs %+v", cfg.Workflow, def.Workflow)
	}
}

func TestCreateSampleWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[download]") {
		t.Fatalf("sample missing download section: %s", data)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[download]\nformat = \"mp3\"\nbitrate = 320\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	_, _, _, err := config.Load(path)
	if err == nil {
		t.Fatal("expected unknown key to be rejected")
	}
	if !strings.Contains(err.Error(), "bitrate") {
		t.Fatalf("expected error to name the key, got %v", err)
	}
}

func TestLoadMissingExplicitPathUsesDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "absent.toml")
	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists || resolved != path {
		t.Fatalf("expected missing explicit path to be reported, got %q exists=%v", resolved, exists)
	}
	if cfg.Download.Format != "mp3" {
		t.Fatalf("expected default format, got %q", cfg.Download.Format)
	}
}

func TestExpandPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	tests := map[string]string{
		"~":             home,
		"~/Music/yodel": filepath.Join(home, "Music", "yodel"),
		"/srv/music/":   "/srv/music",
		"":              "",
	}
	for input, want := range tests {
		got, err := config.ExpandPath(input)
		if err != nil {
			t.Fatalf("ExpandPath(%q): %v", input, err)
		}
		if got != want {
			t.Fatalf("ExpandPath(%q) = %q, want %q", input, got, want)
		}
	}
}
