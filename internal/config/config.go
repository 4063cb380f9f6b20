package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/runegard/runegard/internal/platform"
)

// AppName is the application name used for notification titles, the tray
// tooltip and the per-user config directory.
const AppName = "Runegard"

const (
	DefaultPort                  = 65432
	DefaultNetworkTimeoutSeconds = 300
	DefaultHistoryLimit          = 100
	configFileName               = "listener_config.json"
	logFileName                  = "runegard.log"
	historyFileName              = "history.db"
)

// ErrMalformedConfig is returned alongside the default config when the file
// exists but cannot be parsed. A missing file is not an error.
var ErrMalformedConfig = errors.New("malformed config file")

// Config is the persisted settings record
type Config struct {
	StartInTray           bool    `json:"start_in_tray"`
	Port                  int     `json:"port"`
	StartOnLogin          bool    `json:"start_on_login"`
	WaitForNetwork        *bool   `json:"wait_for_network,omitempty"`        // nil = true
	NetworkTimeoutSeconds int     `json:"network_timeout_seconds,omitempty"` // 0 = default (300)
	Sound                 string  `json:"sound,omitempty"`                   // chime played after each notification; empty = silent
	Volume                float64 `json:"volume,omitempty"`                  // 0.0-1.0, 0 = default (1.0)
	SettingsPort          int     `json:"settings_port,omitempty"`           // loopback port of the settings page; 0 = ephemeral
	HistoryLimit          int     `json:"history_limit,omitempty"`           // 0 = default (100)
}

// boolPtr returns a pointer to the given bool value
func boolPtr(v bool) *bool {
	return &v
}

// DefaultConfig returns a config with the platform defaults. Windows starts
// with the settings window visible; Linux and macOS start in the tray.
func DefaultConfig() *Config {
	return &Config{
		StartInTray:           !platform.IsWindows(),
		Port:                  DefaultPort,
		WaitForNetwork:        boolPtr(true),
		NetworkTimeoutSeconds: DefaultNetworkTimeoutSeconds,
		Volume:                1.0,
		HistoryLimit:          DefaultHistoryLimit,
	}
}

// Dir returns the per-user config directory (~/.config/Runegard, %APPDATA%\Runegard).
func Dir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine config directory: %w", err)
	}
	return filepath.Join(base, AppName), nil
}

// DefaultPath returns the config file path inside Dir.
func DefaultPath() (string, error) {
	return inDir(configFileName)
}

// LogPath returns the rotating log file path inside Dir.
func LogPath() (string, error) {
	return inDir(logFileName)
}

// HistoryPath returns the message history database path inside Dir.
func HistoryPath() (string, error) {
	return inDir(historyFileName)
}

func inDir(name string) (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

// Load loads configuration from a file.
// A missing file yields the default config and no error. A file that cannot
// be parsed yields the default config and an error wrapping ErrMalformedConfig,
// so callers can warn and carry on.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return DefaultConfig(), fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("%w %s: %v", ErrMalformedConfig, path, err)
	}
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return DefaultConfig(), fmt.Errorf("%w %s: %v", ErrMalformedConfig, path, err)
	}

	return cfg, nil
}

// Save persists the whole record, replacing any previous file.
// Uses temp file + rename in the same directory for an atomic write.
func Save(path string, cfg *Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Temp file in the same dir so os.Rename stays on one filesystem
	tmpFile, err := os.CreateTemp(dir, "config-*.json.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp config: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer os.Remove(tmpPath) // cleanup on any error path

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write config: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to sync config: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close config: %w", err)
	}
	if err := os.Chmod(tmpPath, 0600); err != nil {
		return fmt.Errorf("failed to set config permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to replace config: %w", err)
	}
	return nil
}

// ApplyDefaults fills in missing fields with default values
func (c *Config) ApplyDefaults() {
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.WaitForNetwork == nil {
		c.WaitForNetwork = boolPtr(true)
	}
	if c.NetworkTimeoutSeconds == 0 {
		c.NetworkTimeoutSeconds = DefaultNetworkTimeoutSeconds
	}
	if c.Volume == 0 {
		c.Volume = 1.0
	}
	if c.HistoryLimit == 0 {
		c.HistoryLimit = DefaultHistoryLimit
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535 (got %d)", c.Port)
	}
	if c.SettingsPort < 0 || c.SettingsPort > 65535 {
		return fmt.Errorf("settings_port must be between 0 and 65535 (got %d)", c.SettingsPort)
	}
	if c.SettingsPort != 0 && c.SettingsPort == c.Port {
		return fmt.Errorf("settings_port must differ from port (%d)", c.Port)
	}
	if c.NetworkTimeoutSeconds < 0 {
		return fmt.Errorf("network_timeout_seconds must be >= 0")
	}
	if c.Volume < 0.0 || c.Volume > 1.0 {
		return fmt.Errorf("volume must be between 0.0 and 1.0 (got %.2f)", c.Volume)
	}
	if c.HistoryLimit < 0 {
		return fmt.Errorf("history_limit must be >= 0")
	}
	return nil
}

// ShouldWaitForNetwork returns true if startup waits for network reachability (default: true)
func (c *Config) ShouldWaitForNetwork() bool {
	if c.WaitForNetwork == nil {
		return true
	}
	return *c.WaitForNetwork
}

// Clone returns a copy that shares no pointers with c.
func (c *Config) Clone() *Config {
	out := *c
	if c.WaitForNetwork != nil {
		out.WaitForNetwork = boolPtr(*c.WaitForNetwork)
	}
	return &out
}
