package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"subgrab/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("SUBGRAB_UPSTREAM", "")
	t.Setenv("SUBGRAB_API_TOKEN", "")
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

	wantState := filepath.Join(tempHome, ".local", "share", "subgrab")
	if cfg.Paths.StateDir != wantState {
		t.Fatalf("unexpected state dir: got %q want %q", cfg.Paths.StateDir, wantState)
	}
	if cfg.Paths.OutputDir != filepath.Join(tempHome, "Downloads", "subtitles") {
		t.Fatalf("unexpected output dir: %q", cfg.Paths.OutputDir)
	}
	if cfg.Proxy.DeliveryFormat != "webvtt-lssdh-ios8" {
		t.Fatalf("unexpected delivery format: %q", cfg.Proxy.DeliveryFormat)
	}
	if cfg.PollInterval() != 500*time.Millisecond {
		t.Fatalf("unexpected poll interval: %s", cfg.PollInterval())
	}
	if cfg.Download.FilenamePrefix != "netflix_subtitle" {
		t.Fatalf("unexpected filename prefix: %q", cfg.Download.FilenamePrefix)
	}
	if !cfg.Download.BidiFix {
		t.Fatal("expected bidi fix enabled by default")
	}
	if cfg.Download.NormalizeTiming {
		t.Fatal("expected timing normalization disabled by default")
	}
	if cfg.API.Token != "" {
		t.Fatalf("expected empty API token, got %q", cfg.API.Token)
	}
	if cfg.HistoryPath() != filepath.Join(wantState, "history.db") {
		t.Fatalf("unexpected history path: %q", cfg.HistoryPath())
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.StateDir, cfg.Paths.LogDir, cfg.Paths.OutputDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "subgrab.toml")
	t.Setenv("SUBGRAB_UPSTREAM", "")
	t.Setenv("SUBGRAB_API_TOKEN", "")

	type payload struct {
		Proxy struct {
			Upstream       string   `toml:"upstream"`
			InterceptPaths []string `toml:"intercept_paths"`
		} `toml:"proxy"`
		Session struct {
			PollIntervalMS int    `toml:"poll_interval_ms"`
			PageSource     string `toml:"page_source"`
		} `toml:"session"`
		Download struct {
			FilenamePrefix string `toml:"filename_prefix"`
		} `toml:"download"`
	}
	custom := payload{}
	custom.Proxy.Upstream = "https://api.example.com/"
	custom.Proxy.InterceptPaths = []string{"nq/msl", " /playapi ", "/nq/msl", ""}
	custom.Session.PollIntervalMS = 250
	custom.Session.PageSource = "http://127.0.0.1:9000/page.html"
	custom.Download.FilenamePrefix = "subs"
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.Proxy.Upstream != "https://api.example.com" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.Proxy.Upstream)
	}
	wantPaths := []string{"/nq/msl", "/playapi"}
	if strings.Join(cfg.Proxy.InterceptPaths, ",") != strings.Join(wantPaths, ",") {
		t.Fatalf("unexpected intercept paths: %v", cfg.Proxy.InterceptPaths)
	}
	if cfg.PollInterval() != 250*time.Millisecond {
		t.Fatalf("unexpected poll interval: %s", cfg.PollInterval())
	}
	if !cfg.IsPageURL() || cfg.Session.PageSource != "http://127.0.0.1:9000/page.html" {
		t.Fatalf("expected URL page source kept verbatim, got %q", cfg.Session.PageSource)
	}
	if cfg.Download.FilenamePrefix != "subs" {
		t.Fatalf("unexpected prefix: %q", cfg.Download.FilenamePrefix)
	}
}

func TestEnvVarOverridesConfigFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "subgrab.toml")
	contents := "[proxy]\nupstream = \"https://file.example.com\"\n\n[api]\ntoken = \"file-token\"\n"
	if err := os.WriteFile(configPath, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("SUBGRAB_UPSTREAM", "http://127.0.0.1:9999")
	t.Setenv("SUBGRAB_API_TOKEN", "env-token")

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Proxy.Upstream != "http://127.0.0.1:9999" {
		t.Errorf("expected upstream from env, got %q", cfg.Proxy.Upstream)
	}
	if cfg.API.Token != "env-token" {
		t.Errorf("expected token from env, got %q", cfg.API.Token)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}

	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	if cfg.Proxy.DeliveryFormat != config.Default().Proxy.DeliveryFormat {
		t.Fatalf("sample delivery format drifted from defaults: %q", cfg.Proxy.DeliveryFormat)
	}
	if cfg.Session.PollIntervalMS != config.Default().Session.PollIntervalMS {
		t.Fatalf("sample poll interval drifted from defaults: %d", cfg.Session.PollIntervalMS)
	}
	if !strings.Contains(cfg.Paths.StateDir, "subgrab") {
		t.Fatalf("expected state dir to contain subgrab, got %q", cfg.Paths.StateDir)
	}
}

func TestEncodeRedactsToken(t *testing.T) {
	cfg := config.Default()
	cfg.API.Token = "secret"
	out, err := cfg.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if strings.Contains(string(out), "secret") {
		t.Fatalf("token leaked into encoded config: %s", out)
	}
	if cfg.API.Token != "secret" {
		t.Fatal("Encode must not mutate the receiver")
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"non-http upstream", func(c *config.Config) { c.Proxy.Upstream = "ftp://example.com" }},
		{"upstream without host", func(c *config.Config) { c.Proxy.Upstream = "https://" }},
		{"listen without port", func(c *config.Config) { c.Proxy.Listen = "localhost" }},
		{"negative body cap", func(c *config.Config) { c.Proxy.MaxBodyBytes = -1 }},
		{"zero poll interval", func(c *config.Config) { c.Session.PollIntervalMS = 0 }},
		{"watch with url source", func(c *config.Config) {
			c.Session.Watch = true
			c.Session.PageSource = "https://example.com/page"
		}},
		{"prefix with separator", func(c *config.Config) { c.Download.FilenamePrefix = "a/b" }},
		{"api collides with proxy", func(c *config.Config) { c.API.Bind = c.Proxy.Listen }},
		{"negative retention", func(c *config.Config) { c.History.RetentionDays = -1 }},
		{"ntfy topic without scheme", func(c *config.Config) { c.Notifications.NtfyTopic = "ntfy.sh/topic" }},
		{"negative ntfy timeout", func(c *config.Config) { c.Notifications.RequestTimeoutSeconds = -1 }},
		{"unknown log level", func(c *config.Config) { c.Logging.Level = "verbose" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}

	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}
