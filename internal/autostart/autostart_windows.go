//go:build windows

package autostart

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sys/windows/registry"
)

const runKey = `Software\Microsoft\Windows\CurrentVersion\Run`

// registryEntry is a value under the HKCU Run key.
type registryEntry struct {
	name    string
	command []string
}

func newEntry(name string, command []string) entry {
	return &registryEntry{name: name, command: command}
}

// Enabled reports whether the HKCU Run value exists.
func (e *registryEntry) Enabled() (bool, error) {
	key, err := registry.OpenKey(registry.CURRENT_USER, runKey, registry.QUERY_VALUE)
	if err != nil {
		return false, fmt.Errorf("failed to open Run key: %w", err)
	}
	defer key.Close()

	_, _, err = key.GetStringValue(e.name)
	if errors.Is(err, registry.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read Run value: %w", err)
	}
	return true, nil
}

// Enable stores the command line under the HKCU Run key.
func (e *registryEntry) Enable() error {
	key, _, err := registry.CreateKey(registry.CURRENT_USER, runKey, registry.SET_VALUE)
	if err != nil {
		return fmt.Errorf("failed to open Run key: %w", err)
	}
	defer key.Close()

	if err := key.SetStringValue(e.name, e.commandLine()); err != nil {
		return fmt.Errorf("failed to write Run value: %w", err)
	}
	return nil
}

// Disable deletes the Run value. A missing value is not an error.
func (e *registryEntry) Disable() error {
	key, err := registry.OpenKey(registry.CURRENT_USER, runKey, registry.SET_VALUE)
	if err != nil {
		return fmt.Errorf("failed to open Run key: %w", err)
	}
	defer key.Close()

	if err := key.DeleteValue(e.name); err != nil && !errors.Is(err, registry.ErrNotExist) {
		return fmt.Errorf("failed to delete Run value: %w", err)
	}
	return nil
}

func (e *registryEntry) commandLine() string {
	parts := make([]string, 0, len(e.command))
	for _, p := range e.command {
		parts = append(parts, `"`+p+`"`)
	}
	return strings.Join(parts, " ")
}
