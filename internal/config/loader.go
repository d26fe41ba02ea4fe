package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// FileName is the config file's name within the app data directory.
const FileName = "proxy-config.json"

// AppDataDir resolves (and creates) the directory balance-proxy stores its
// config and MCP helper script in: $XDG_CONFIG_HOME/balance-proxy, or
// ~/.config/balance-proxy when XDG_CONFIG_HOME is unset, mirroring the
// app-data directory the original Tauri core resolved via its platform
// bindings.
func AppDataDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve app data dir: %w", err)
	}
	dir := filepath.Join(base, "balance-proxy")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create app data dir: %w", err)
	}
	return dir, nil
}

// Path returns the full path to the on-disk config file.
func Path() (string, error) {
	dir, err := AppDataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, FileName), nil
}

// LoadOrInit loads the config at path, writing and returning Default() if
// the file does not yet exist. The returned config is always normalized.
func LoadOrInit(path string) (Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := Default().Normalize()
		if err := writeAtomic(path, cfg); err != nil {
			return Config{}, fmt.Errorf("failed to write default config: %w", err)
		}
		return cfg, nil
	}

	raw, err := os.ReadFile(path) //nolint:gosec // path is operator-controlled app-data location
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	return cfg.Normalize(), nil
}

// Save normalizes and validates cfg, writes it atomically to path, and
// returns the normalized config so the caller can swap its in-memory
// snapshot. Save never mutates a running listener.
func Save(path string, cfg Config) (Config, error) {
	normalized := cfg.Normalize()
	if err := normalized.Validate(); err != nil {
		return Config{}, err
	}
	if err := writeAtomic(path, normalized); err != nil {
		return Config{}, fmt.Errorf("failed to write config: %w", err)
	}
	return normalized, nil
}

// writeAtomic serializes cfg as pretty JSON and writes it with a
// write-temp-then-rename so readers never observe a partially written file.
func writeAtomic(path string, cfg Config) error {
	text, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".proxy-config-*.json.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp config file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(text); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write temp config file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp config file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp config file into place: %w", err)
	}
	return nil
}
