package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/five82/regsync/internal/endpoints"
	"github.com/five82/regsync/internal/portal"
)

// Config captures regsync's runtime settings.
type Config struct {
	BaseURL   string // empty means endpoints.DefaultBaseURL; a prefs override wins over both
	UserAgent string
	Timeouts  portal.Timeouts
	LogFile   string
	LogLevel  string
	PrefsPath string
}

const (
	defaultConfigPath = "~/.config/regsync/config.toml"
	defaultLogFile    = "~/.local/state/regsync/regsync.log"
	defaultLogLevel   = "info"
)

// DefaultPath returns the default config file path.
func DefaultPath() string {
	return defaultConfigPath
}

func defaults() Config {
	return Config{
		Timeouts: portal.DefaultTimeouts(),
		LogFile:  mustExpand(defaultLogFile),
		LogLevel: defaultLogLevel,
	}
}

// Load locates and parses the regsync config, falling back to defaults when missing.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := defaults()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		BaseURL       string `toml:"base_url"`
		UserAgent     string `toml:"user_agent"`
		ProbeTimeout  string `toml:"probe_timeout"`
		LoginTimeout  string `toml:"login_timeout"`
		ListTimeout   string `toml:"list_timeout"`
		DetailTimeout string `toml:"detail_timeout"`
		SubmitTimeout string `toml:"submit_timeout"`
		LogFile       string `toml:"log_file"`
		LogLevel      string `toml:"log_level"`
		PrefsPath     string `toml:"prefs_path"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	cfg.BaseURL = endpoints.NormalizeBaseURL(raw.BaseURL)
	if cfg.BaseURL != "" {
		if err := endpoints.ValidateBaseURL(cfg.BaseURL); err != nil {
			return Config{}, fmt.Errorf("invalid config: %w", err)
		}
	}
	cfg.UserAgent = strings.TrimSpace(raw.UserAgent)

	durations := []struct {
		name string
		raw  string
		dest *time.Duration
	}{
		{"probe_timeout", raw.ProbeTimeout, &cfg.Timeouts.Probe},
		{"login_timeout", raw.LoginTimeout, &cfg.Timeouts.Login},
		{"list_timeout", raw.ListTimeout, &cfg.Timeouts.List},
		{"detail_timeout", raw.DetailTimeout, &cfg.Timeouts.Detail},
		{"submit_timeout", raw.SubmitTimeout, &cfg.Timeouts.Submit},
	}
	for _, d := range durations {
		value := strings.TrimSpace(d.raw)
		if value == "" {
			continue
		}
		parsed, err := time.ParseDuration(value)
		if err != nil || parsed <= 0 {
			return Config{}, fmt.Errorf("invalid config: %s %q is not a positive duration", d.name, value)
		}
		*d.dest = parsed
	}

	if logFile := strings.TrimSpace(raw.LogFile); logFile != "" {
		cfg.LogFile = mustExpand(logFile)
	}
	if level := strings.ToLower(strings.TrimSpace(raw.LogLevel)); level != "" {
		cfg.LogLevel = level
	}
	if prefsPath := strings.TrimSpace(raw.PrefsPath); prefsPath != "" {
		cfg.PrefsPath = mustExpand(prefsPath)
	}

	return cfg, nil
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
