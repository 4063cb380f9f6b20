package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    zapcore.Level
		wantErr bool
	}{
		{name: "empty defaults to info", input: "", want: zapcore.InfoLevel},
		{name: "debug", input: "debug", want: zapcore.DebugLevel},
		{name: "mixed case", input: "WARN", want: zapcore.WarnLevel},
		{name: "warning alias", input: "warning", want: zapcore.WarnLevel},
		{name: "error", input: " error ", want: zapcore.ErrorLevel},
		{name: "unknown", input: "loud", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLevel(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInit_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runegard.log")

	require.NoError(t, Init(Options{Level: "debug", FilePath: path}))
	t.Cleanup(func() {
		Sync()
		_ = Init(Options{Console: true})
	})

	Info("listening on port %d", 65432)
	Debug("debug line")
	Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)
	assert.True(t, strings.Contains(content, "listening on port 65432"), content)
	assert.True(t, strings.Contains(content, "debug line"), content)
}

func TestInit_LevelFiltersOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runegard.log")

	require.NoError(t, Init(Options{Level: "warn", FilePath: path}))
	t.Cleanup(func() {
		Sync()
		_ = Init(Options{Console: true})
	})

	Info("should be dropped")
	Warn("should be kept")
	Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "should be dropped")
	assert.Contains(t, string(data), "should be kept")
}

func TestInit_RejectsUnknownLevel(t *testing.T) {
	assert.Error(t, Init(Options{Level: "verbose"}))
}
