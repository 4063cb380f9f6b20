//go:build linux

package autostart

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewApp(t *testing.T) {
	tests := []struct {
		name        string
		appName     string
		command     []string
		wantName    string
		wantDisplay string
		wantExec    []string
	}{
		{
			name:        "plain",
			appName:     "Runegard",
			command:     []string{"/usr/bin/runegard"},
			wantName:    "runegard",
			wantDisplay: "Runegard",
			wantExec:    []string{"/usr/bin/runegard"},
		},
		{
			name:        "percent in path",
			appName:     "Runegard",
			command:     []string{"/opt/100%/runegard", "--config", "/tmp/a%b.json"},
			wantName:    "runegard",
			wantDisplay: "Runegard",
			wantExec:    []string{"/opt/100%%/runegard", "--config", "/tmp/a%%b.json"},
		},
		{
			name:        "line break in name",
			appName:     "Rune\nExec=/bin/evil",
			command:     []string{"/usr/bin/runegard"},
			wantName:    "runeexec=binevil",
			wantDisplay: `Rune\nExec=/bin/evil`,
			wantExec:    []string{"/usr/bin/runegard"},
		},
		{
			name:        "backslash in name",
			appName:     `Rune\gard`,
			command:     []string{"/usr/bin/runegard"},
			wantName:    `rune\gard`,
			wantDisplay: `Rune\\gard`,
			wantExec:    []string{"/usr/bin/runegard"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			original := append([]string(nil), tt.command...)
			app := newApp(tt.appName, tt.command)

			assert.Equal(t, tt.wantName, app.Name)
			assert.Equal(t, tt.wantDisplay, app.DisplayName)
			assert.Equal(t, tt.wantExec, app.Exec)
			assert.NotContains(t, app.DisplayName, "\n")
			assert.Equal(t, original, tt.command, "command is not modified")
		})
	}
}
