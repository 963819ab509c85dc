package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// EnvOverride names the environment variable a host uses to override
// engine settings with a JSON object.
const EnvOverride = "FORGE_EXPERIENCE_DESIGN_CONFIG"

const (
	defaultConfigPath   = "~/.config/stylefix/config.toml"
	defaultLogPath      = "~/.local/state/stylefix/stylefix.log"
	defaultAPIURL       = "http://localhost:8003"
	defaultApplication  = "forgetest-studio"
	defaultPollInterval = 30 * time.Second
	defaultLimit        = 50
	defaultListen       = "127.0.0.1:8787"
	defaultLogLevel     = "info"
)

// Config is the resolved stylefix configuration.
type Config struct {
	APIURL        string
	ApplicationID string
	AutoApply     bool
	PollInterval  time.Duration
	Limit         int
	ReportStatus  bool

	Server  ServerConfig
	Browser BrowserConfig
	Log     LogConfig

	// Path is the config file that was read, or would have been.
	Path string
}

// ServerConfig controls the bridge HTTP listener.
type ServerConfig struct {
	Listen string
}

// BrowserConfig selects the page fixes are injected into. An empty PageURL
// runs without a browser.
type BrowserConfig struct {
	PageURL   string
	RemoteURL string
	Headless  bool
}

// LogConfig controls slog output.
type LogConfig struct {
	Level string
	File  string
}

type rawConfig struct {
	APIURL         string `toml:"api_url"`
	ApplicationID  string `toml:"application_id"`
	AutoApply      *bool  `toml:"auto_apply"`
	PollIntervalMS int64  `toml:"poll_interval_ms"`
	Limit          int    `toml:"limit"`
	ReportStatus   bool   `toml:"report_status"`
	Server         struct {
		Listen string `toml:"listen"`
	} `toml:"server"`
	Browser struct {
		PageURL   string `toml:"page_url"`
		RemoteURL string `toml:"remote_url"`
		Headless  *bool  `toml:"headless"`
	} `toml:"browser"`
	Log struct {
		Level string `toml:"level"`
		File  string `toml:"file"`
	} `toml:"log"`
}

// envConfig mirrors the keys a host page would put in its global config.
type envConfig struct {
	APIURL        *string `json:"apiUrl"`
	ApplicationID *string `json:"applicationId"`
	AutoApply     *bool   `json:"autoApply"`
	PollInterval  *int64  `json:"pollInterval"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		APIURL:        defaultAPIURL,
		ApplicationID: defaultApplication,
		AutoApply:     true,
		PollInterval:  defaultPollInterval,
		Limit:         defaultLimit,
		Server:        ServerConfig{Listen: defaultListen},
		Browser:       BrowserConfig{Headless: true},
		Log:           LogConfig{Level: defaultLogLevel},
	}
}

// Load reads the TOML file at path (the default location when empty),
// falls back to defaults when it is missing, then applies EnvOverride.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()
	cfg.Path = resolved

	file, err := os.Open(resolved)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return Config{}, fmt.Errorf("open config: %w", err)
	default:
		defer file.Close()
		bytes, err := io.ReadAll(file)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		var raw rawConfig
		if err := toml.Unmarshal(bytes, &raw); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
		cfg.merge(raw)
	}

	if err := cfg.applyEnv(os.Getenv(EnvOverride)); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) merge(raw rawConfig) {
	if v := strings.TrimSpace(raw.APIURL); v != "" {
		c.APIURL = v
	}
	if v := strings.TrimSpace(raw.ApplicationID); v != "" {
		c.ApplicationID = v
	}
	if raw.AutoApply != nil {
		c.AutoApply = *raw.AutoApply
	}
	if raw.PollIntervalMS > 0 {
		c.PollInterval = time.Duration(raw.PollIntervalMS) * time.Millisecond
	}
	if raw.Limit > 0 {
		c.Limit = raw.Limit
	}
	c.ReportStatus = raw.ReportStatus

	if v := strings.TrimSpace(raw.Server.Listen); v != "" {
		c.Server.Listen = v
	}
	c.Browser.PageURL = strings.TrimSpace(raw.Browser.PageURL)
	c.Browser.RemoteURL = strings.TrimSpace(raw.Browser.RemoteURL)
	if raw.Browser.Headless != nil {
		c.Browser.Headless = *raw.Browser.Headless
	}
	if v := strings.TrimSpace(raw.Log.Level); v != "" {
		c.Log.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(raw.Log.File); v != "" {
		c.Log.File = mustExpand(v)
	}
}

func (c *Config) applyEnv(value string) error {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	var env envConfig
	if err := json.Unmarshal([]byte(value), &env); err != nil {
		return fmt.Errorf("parse %s: %w", EnvOverride, err)
	}
	if env.APIURL != nil && strings.TrimSpace(*env.APIURL) != "" {
		c.APIURL = strings.TrimSpace(*env.APIURL)
	}
	if env.ApplicationID != nil && strings.TrimSpace(*env.ApplicationID) != "" {
		c.ApplicationID = strings.TrimSpace(*env.ApplicationID)
	}
	if env.AutoApply != nil {
		c.AutoApply = *env.AutoApply
	}
	if env.PollInterval != nil && *env.PollInterval > 0 {
		c.PollInterval = time.Duration(*env.PollInterval) * time.Millisecond
	}
	return nil
}

// SlogLevel parses Log.Level, defaulting to info.
func (c Config) SlogLevel() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

// LogPath returns the log file, or the default location when unset.
func (c Config) LogPath() string {
	if strings.TrimSpace(c.Log.File) == "" {
		return mustExpand(defaultLogPath)
	}
	return c.Log.File
}

// DefaultPath returns the default config file location, unexpanded.
func DefaultPath() string {
	return defaultConfigPath
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
