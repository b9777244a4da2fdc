package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds all codecoach configuration.
type Config struct {
	UserID      string `toml:"user_id"`
	ProfilePath string `toml:"profile_path"`

	Service ServiceConfig `toml:"service"`
	Engine  EngineConfig  `toml:"engine"`
	Journal JournalConfig `toml:"journal"`
	Watch   WatchConfig   `toml:"watch"`
}

type ServiceConfig struct {
	Enabled        bool   `toml:"enabled"`
	BaseURL        string `toml:"base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

type EngineConfig struct {
	SamplingSeconds      int `toml:"sampling_seconds"`
	IdleThresholdSeconds int `toml:"idle_threshold_seconds"`
	CooldownSeconds      int `toml:"cooldown_seconds"`
	RateFloorSeconds     int `toml:"rate_floor_seconds"`
}

type JournalConfig struct {
	Enabled       bool   `toml:"enabled"`
	Path          string `toml:"path"`
	RetentionDays int    `toml:"retention_days"`
}

type WatchConfig struct {
	Extensions []string `toml:"extensions"`
}

// DefaultConfig returns config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Service: ServiceConfig{
			Enabled:        true,
			BaseURL:        "http://localhost:8400",
			TimeoutSeconds: 10,
		},
		Engine: EngineConfig{
			SamplingSeconds:      20,
			IdleThresholdSeconds: 60,
			CooldownSeconds:      15,
			RateFloorSeconds:     60,
		},
		Journal: JournalConfig{
			Enabled:       true,
			Path:          "", // resolved via JournalPath
			RetentionDays: 14,
		},
		Watch: WatchConfig{
			Extensions: []string{".py", ".js", ".go"},
		},
	}
}

// Load reads config from the standard path, falling back to defaults.
func Load() (Config, error) {
	cfg := DefaultConfig()

	for _, p := range configPaths() {
		if _, err := os.Stat(p); err == nil {
			if _, err := toml.DecodeFile(p, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config %s: %w", p, err)
			}
			break
		}
	}

	cfg.ProfilePath = expandHome(cfg.ProfilePath)
	cfg.Journal.Path = expandHome(cfg.Journal.Path)

	return cfg, nil
}

func configPaths() []string {
	var paths []string

	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		paths = append(paths, filepath.Join(xdg, "codecoach", "config.toml"))
	}

	home, _ := os.UserHomeDir()
	if home != "" {
		paths = append(paths, filepath.Join(home, ".config", "codecoach", "config.toml"))
	}

	return paths
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}

// SamplingPeriod returns the scheduler tick period.
func (e EngineConfig) SamplingPeriod() time.Duration {
	return time.Duration(e.SamplingSeconds) * time.Second
}

// IdleThreshold returns the stuck-detection idle gap.
func (e EngineConfig) IdleThreshold() time.Duration {
	return time.Duration(e.IdleThresholdSeconds) * time.Second
}

// Cooldown returns the minimum gap between observation attempts.
func (e EngineConfig) Cooldown() time.Duration {
	return time.Duration(e.CooldownSeconds) * time.Second
}

// RateFloor returns the minimum denominator for the edits-per-minute rate.
func (e EngineConfig) RateFloor() time.Duration {
	return time.Duration(e.RateFloorSeconds) * time.Second
}

// Timeout returns the remote call timeout.
func (s ServiceConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutSeconds) * time.Second
}

// JournalPath resolves the journal database location, defaulting to the
// state directory when unset.
func (c Config) JournalPath() string {
	if c.Journal.Path != "" {
		return c.Journal.Path
	}
	return filepath.Join(StateDir(), "journal.db")
}

// StateDir returns the codecoach state directory.
// Uses $XDG_STATE_HOME/codecoach if set, otherwise ~/.local/state/codecoach.
func StateDir() string {
	if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
		return filepath.Join(xdg, "codecoach")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "state", "codecoach")
}
