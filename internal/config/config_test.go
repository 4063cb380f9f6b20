package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 65432, cfg.Port)
	assert.Equal(t, runtime.GOOS != "windows", cfg.StartInTray)
	assert.False(t, cfg.StartOnLogin)
	assert.True(t, cfg.ShouldWaitForNetwork())
	assert.Equal(t, 300, cfg.NetworkTimeoutSeconds)
	assert.Equal(t, 1.0, cfg.Volume)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.json")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoad_MalformedFileReturnsDefaultsAndError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "listener_config.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	cfg, err := Load(path)
	require.ErrorIs(t, err, ErrMalformedConfig)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoad_OutOfRangePortIsMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "listener_config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"start_in_tray": true, "port": 70000}`), 0600))

	cfg, err := Load(path)
	require.ErrorIs(t, err, ErrMalformedConfig)
	assert.Equal(t, DefaultPort, cfg.Port)
}

func TestLoad_MinimalFile(t *testing.T) {
	// Files written by earlier versions carry only these two keys.
	path := filepath.Join(t.TempDir(), "listener_config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"start_in_tray": false, "port": 5000}`), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.False(t, cfg.StartInTray)
	assert.Equal(t, 5000, cfg.Port)
	assert.True(t, cfg.ShouldWaitForNetwork())
	assert.Equal(t, DefaultHistoryLimit, cfg.HistoryLimit)
}

func TestLoad_ExplicitWaitForNetworkFalse(t *testing.T) {
	path := filepath.Join(t.TempDir(), "listener_config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"port": 5000, "wait_for_network": false}`), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.False(t, cfg.ShouldWaitForNetwork())
}

func TestSave_RoundTripAndPermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "listener_config.json")

	cfg := DefaultConfig()
	cfg.Port = 4242
	cfg.StartInTray = true
	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)

	if runtime.GOOS != "windows" {
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
	}

	var raw map[string]interface{}
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, true, raw["start_in_tray"])
	assert.Equal(t, float64(4242), raw["port"])
}

func TestSave_RepeatedSavesAreStable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "listener_config.json")
	cfg := DefaultConfig()

	require.NoError(t, Save(path, cfg))
	first, err := os.ReadFile(path)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		loaded, err := Load(path)
		require.NoError(t, err)
		require.NoError(t, Save(path, loaded))
	}

	last, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, string(first), string(last))
}

func TestSave_RejectsInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "listener_config.json")
	cfg := DefaultConfig()
	cfg.Port = 0

	assert.Error(t, Save(path, cfg))
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(c *Config) {}},
		{name: "lowest port", mutate: func(c *Config) { c.Port = 1 }},
		{name: "highest port", mutate: func(c *Config) { c.Port = 65535 }},
		{name: "port zero", mutate: func(c *Config) { c.Port = 0 }, wantErr: true},
		{name: "port too high", mutate: func(c *Config) { c.Port = 65536 }, wantErr: true},
		{name: "settings port clash", mutate: func(c *Config) { c.SettingsPort = c.Port }, wantErr: true},
		{name: "settings port negative", mutate: func(c *Config) { c.SettingsPort = -1 }, wantErr: true},
		{name: "volume too high", mutate: func(c *Config) { c.Volume = 1.5 }, wantErr: true},
		{name: "negative timeout", mutate: func(c *Config) { c.NetworkTimeoutSeconds = -1 }, wantErr: true},
		{name: "negative history", mutate: func(c *Config) { c.HistoryLimit = -1 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestClone_IsIndependent(t *testing.T) {
	cfg := DefaultConfig()
	clone := cfg.Clone()

	*clone.WaitForNetwork = false
	clone.Port = 1

	assert.True(t, cfg.ShouldWaitForNetwork())
	assert.Equal(t, DefaultPort, cfg.Port)
}

func TestDefaultPath_UsesUserConfigDir(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG_CONFIG_HOME only applies on Linux")
	}
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")

	path, err := DefaultPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/tmp/xdg", "Runegard", "listener_config.json"), path)
}
