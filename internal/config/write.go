package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// ConfigDir returns the codecoach config directory path.
// Uses $XDG_CONFIG_HOME/codecoach if set, otherwise ~/.config/codecoach.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "codecoach")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "codecoach")
}

// WriteDefault writes a default config.toml for the given service URL.
// Returns the config file path. Skips if config.toml already exists.
func WriteDefault(baseURL string) (string, error) {
	dir := ConfigDir()
	path := filepath.Join(dir, "config.toml")

	if _, err := os.Stat(path); err == nil {
		return path, nil // already exists
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create config dir: %w", err)
	}

	if baseURL == "" {
		baseURL = DefaultConfig().Service.BaseURL
	}

	content := fmt.Sprintf(`user_id = ""
profile_path = ""

[service]
enabled = true
base_url = %q
timeout_seconds = 10

[engine]
sampling_seconds = 20
idle_threshold_seconds = 60
cooldown_seconds = 15
rate_floor_seconds = 60

[journal]
enabled = true
path = ""
retention_days = 14

[watch]
extensions = [".py", ".js", ".go"]
`, baseURL)

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write config: %w", err)
	}

	return path, nil
}
