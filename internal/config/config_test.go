package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoad_MissingConfigFallsBackToDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv(EnvOverride, "")

	cfg, err := Load(filepath.Join(home, "does-not-exist.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.APIURL != defaultAPIURL {
		t.Fatalf("APIURL = %q, want %q", cfg.APIURL, defaultAPIURL)
	}
	if cfg.ApplicationID != "forgetest-studio" {
		t.Fatalf("ApplicationID = %q, want forgetest-studio", cfg.ApplicationID)
	}
	if !cfg.AutoApply {
		t.Fatalf("AutoApply = false, want true")
	}
	if cfg.PollInterval != 30*time.Second {
		t.Fatalf("PollInterval = %v, want 30s", cfg.PollInterval)
	}
	if cfg.Limit != 50 {
		t.Fatalf("Limit = %d, want 50", cfg.Limit)
	}
	if cfg.ReportStatus {
		t.Fatalf("ReportStatus = true, want false")
	}
	if cfg.Server.Listen != defaultListen {
		t.Fatalf("Server.Listen = %q, want %q", cfg.Server.Listen, defaultListen)
	}
	if !cfg.Browser.Headless || cfg.Browser.PageURL != "" {
		t.Fatalf("Browser = %+v, want headless with no page", cfg.Browser)
	}
}

func TestLoad_ParsesAndTrimsConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv(EnvOverride, "")

	path := writeConfig(t, `
api_url = "  https://fixes.example.com  "
application_id = "shop"
auto_apply = false
poll_interval_ms = 5000
limit = 10
report_status = true

[server]
listen = "0.0.0.0:9000"

[browser]
page_url = "http://localhost:3000"
remote_url = "ws://127.0.0.1:9222"
headless = false

[log]
level = "DEBUG"
file = "~/logs/stylefix.log"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.APIURL != "https://fixes.example.com" {
		t.Fatalf("APIURL = %q", cfg.APIURL)
	}
	if cfg.ApplicationID != "shop" || cfg.AutoApply || !cfg.ReportStatus {
		t.Fatalf("engine fields = %+v", cfg)
	}
	if cfg.PollInterval != 5*time.Second || cfg.Limit != 10 {
		t.Fatalf("PollInterval/Limit = %v/%d, want 5s/10", cfg.PollInterval, cfg.Limit)
	}
	if cfg.Server.Listen != "0.0.0.0:9000" {
		t.Fatalf("Server.Listen = %q", cfg.Server.Listen)
	}
	if cfg.Browser.PageURL != "http://localhost:3000" || cfg.Browser.RemoteURL != "ws://127.0.0.1:9222" || cfg.Browser.Headless {
		t.Fatalf("Browser = %+v", cfg.Browser)
	}
	if cfg.SlogLevel() != slog.LevelDebug {
		t.Fatalf("SlogLevel = %v, want debug", cfg.SlogLevel())
	}
	if cfg.LogPath() != filepath.Join(home, "logs/stylefix.log") {
		t.Fatalf("LogPath = %q", cfg.LogPath())
	}
	if cfg.Path != path {
		t.Fatalf("Path = %q, want %q", cfg.Path, path)
	}
}

func TestLoad_EmptyValuesUseDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv(EnvOverride, "")

	path := writeConfig(t, `
api_url = "   "
application_id = ""
poll_interval_ms = 0
limit = -1
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.APIURL != defaultAPIURL || cfg.ApplicationID != defaultApplication {
		t.Fatalf("APIURL/ApplicationID = %q/%q, want defaults", cfg.APIURL, cfg.ApplicationID)
	}
	if cfg.PollInterval != defaultPollInterval || cfg.Limit != defaultLimit {
		t.Fatalf("PollInterval/Limit = %v/%d, want defaults", cfg.PollInterval, cfg.Limit)
	}
	if !cfg.AutoApply {
		t.Fatalf("AutoApply = false, want default true")
	}
}

func TestLoad_EnvOverrideWinsOverFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv(EnvOverride, `{"apiUrl":"http://env:1","autoApply":false,"pollInterval":1500}`)

	path := writeConfig(t, `
api_url = "http://file:2"
application_id = "from-file"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.APIURL != "http://env:1" {
		t.Fatalf("APIURL = %q, want env value", cfg.APIURL)
	}
	if cfg.ApplicationID != "from-file" {
		t.Fatalf("ApplicationID = %q, want file value", cfg.ApplicationID)
	}
	if cfg.AutoApply {
		t.Fatalf("AutoApply = true, want env false")
	}
	if cfg.PollInterval != 1500*time.Millisecond {
		t.Fatalf("PollInterval = %v, want 1.5s", cfg.PollInterval)
	}
}

func TestLoad_InvalidEnvFails(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv(EnvOverride, `{"apiUrl":`)

	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err == nil || !strings.Contains(err.Error(), EnvOverride) {
		t.Fatalf("Load error = %v, want it to mention %s", err, EnvOverride)
	}
}

func TestLoad_InvalidTOMLFails(t *testing.T) {
	t.Setenv(EnvOverride, "")
	path := writeConfig(t, `api_url = [`)
	_, err := Load(path)
	if err == nil {
		t.Fatalf("Load returned nil error, want parse error")
	}
	if !strings.Contains(err.Error(), "parse config") {
		t.Fatalf("Load error = %q, want it to mention parse config", err.Error())
	}
}

func TestSlogLevel_UnknownDefaultsToInfo(t *testing.T) {
	cfg := Config{Log: LogConfig{Level: "chatty"}}
	if cfg.SlogLevel() != slog.LevelInfo {
		t.Fatalf("SlogLevel = %v, want info", cfg.SlogLevel())
	}
}

func TestExpandPath_ExpandsTildeAndReturnsAbs(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got, err := expandPath("~/a/b")
	if err != nil {
		t.Fatalf("expandPath returned error: %v", err)
	}
	want := filepath.Join(home, "a/b")
	if got != want {
		t.Fatalf("expandPath = %q, want %q", got, want)
	}
}

func TestExpandPath_EmptyErrors(t *testing.T) {
	if _, err := expandPath("   "); err == nil {
		t.Fatalf("expandPath returned nil error, want error")
	}
}

func TestLogPath_DefaultsWhenFileEmpty(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	var cfg Config
	got := cfg.LogPath()
	if !strings.HasPrefix(got, home) {
		t.Fatalf("LogPath = %q, want it under HOME %q", got, home)
	}
	if !strings.HasSuffix(got, filepath.FromSlash("/stylefix.log")) {
		t.Fatalf("LogPath = %q, want it to end with /stylefix.log", got)
	}
}
