package autostart

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEntry struct {
	enabled  bool
	fail     error
	enables  int
	disables int
}

func (e *fakeEntry) Enabled() (bool, error) { return e.enabled, nil }

func (e *fakeEntry) Enable() error {
	e.enables++
	if e.fail != nil {
		return e.fail
	}
	e.enabled = true
	return nil
}

func (e *fakeEntry) Disable() error {
	e.disables++
	if e.fail != nil {
		return e.fail
	}
	e.enabled = false
	return nil
}

func TestNew_DefaultsToRunningBinary(t *testing.T) {
	m, err := New("Runegard", "")
	require.NoError(t, err)
	require.NotEmpty(t, m.command)
	assert.NotEmpty(t, m.command[0])
	assert.NotNil(t, m.entry)
}

func TestNew_KeepsArguments(t *testing.T) {
	m, err := New("Runegard", "/usr/bin/runegard", "--config", "/etc/runegard.json")
	require.NoError(t, err)
	assert.Equal(t, []string{"/usr/bin/runegard", "--config", "/etc/runegard.json"}, m.command)
}

func TestManager_Sync(t *testing.T) {
	e := &fakeEntry{}
	m := &Manager{name: "Runegard", command: []string{"/usr/bin/runegard"}, entry: e}

	changed, err := m.Sync(true)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = m.Sync(true)
	require.NoError(t, err)
	assert.False(t, changed, "repeated sync is a no-op")
	assert.Equal(t, 1, e.enables)

	changed, err = m.Sync(false)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, 1, e.disables)
}

func TestManager_SyncFailure(t *testing.T) {
	e := &fakeEntry{fail: errors.New("read-only home")}
	m := &Manager{name: "Runegard", entry: e}

	changed, err := m.Sync(true)
	assert.False(t, changed)
	assert.ErrorIs(t, err, e.fail)
	assert.Contains(t, err.Error(), "failed to enable start on login")
}
