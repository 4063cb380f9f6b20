// ABOUTME: Start-on-login registration for the relay executable.
// ABOUTME: XDG autostart entry on Linux and LaunchAgent on macOS via go-autostart, HKCU Run key on Windows.
package autostart

import (
	"errors"
	"fmt"
	"os"
)

// ErrUnsupported is returned on platforms without a login-item mechanism.
var ErrUnsupported = errors.New("start on login is not supported on this platform")

// entry is one platform login item.
type entry interface {
	Enabled() (bool, error)
	Enable() error
	Disable() error
}

// Manager registers one executable to start on login.
type Manager struct {
	name    string
	command []string // executable followed by its arguments
	entry   entry
}

// New creates a manager for executable. An empty executable means the
// running binary.
func New(name, executable string, args ...string) (*Manager, error) {
	if executable == "" {
		exe, err := os.Executable()
		if err != nil {
			return nil, fmt.Errorf("failed to locate executable: %w", err)
		}
		executable = exe
	}
	command := append([]string{executable}, args...)
	return &Manager{name: name, command: command, entry: newEntry(name, command)}, nil
}

// Enabled reports whether the login item is registered.
func (m *Manager) Enabled() (bool, error) {
	return m.entry.Enabled()
}

// Enable registers the login item.
func (m *Manager) Enable() error {
	if err := m.entry.Enable(); err != nil {
		return fmt.Errorf("failed to enable start on login: %w", err)
	}
	return nil
}

// Disable removes the login item. A missing item is not an error.
func (m *Manager) Disable() error {
	if err := m.entry.Disable(); err != nil {
		return fmt.Errorf("failed to disable start on login: %w", err)
	}
	return nil
}

// Set enables or disables start on login.
func (m *Manager) Set(enabled bool) error {
	if enabled {
		return m.Enable()
	}
	return m.Disable()
}

// Sync makes the system state match want and reports whether it changed.
func (m *Manager) Sync(want bool) (bool, error) {
	current, err := m.Enabled()
	if err != nil {
		return false, fmt.Errorf("failed to read start-on-login state: %w", err)
	}
	if current == want {
		return false, nil
	}
	if err := m.Set(want); err != nil {
		return false, err
	}
	return true, nil
}
