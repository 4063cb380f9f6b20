//go:build !linux && !darwin && !windows

package autostart

type unsupportedEntry struct{}

func newEntry(name string, command []string) entry { return unsupportedEntry{} }

func (unsupportedEntry) Enabled() (bool, error) { return false, nil }
func (unsupportedEntry) Enable() error          { return ErrUnsupported }
func (unsupportedEntry) Disable() error         { return nil }
