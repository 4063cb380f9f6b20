//go:build linux || darwin

package autostart

import (
	"errors"
	"fmt"
	"os"

	goautostart "github.com/emersion/go-autostart"
)

// appEntry is an XDG desktop entry or a LaunchAgent, depending on the OS.
type appEntry struct {
	app *goautostart.App
}

func newEntry(name string, command []string) entry {
	return &appEntry{app: newApp(name, command)}
}

func (e *appEntry) Enabled() (bool, error) {
	return e.app.IsEnabled(), nil
}

func (e *appEntry) Enable() error {
	return e.app.Enable()
}

func (e *appEntry) Disable() error {
	if !e.app.IsEnabled() {
		return nil
	}
	if err := e.app.Disable(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove login item: %w", err)
	}
	return nil
}
