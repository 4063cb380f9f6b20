package sounds

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func writeSounds(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
}

func TestDiscoverUserDir(t *testing.T) {
	dir := t.TempDir()
	writeSounds(t, dir, "ding.wav", "bell.MP3", "notes.txt", "chord.aiff")
	if err := os.Mkdir(filepath.Join(dir, "nested.wav"), 0o755); err != nil {
		t.Fatal(err)
	}

	sounds := Discover(DiscoverOptions{UserDir: dir})

	if len(sounds) != 3 {
		t.Fatalf("expected 3 user sounds, got %d: %+v", len(sounds), sounds)
	}
	wantNames := []string{"bell", "chord", "ding"}
	wantFormats := []string{"mp3", "aiff", "wav"}
	for i, s := range sounds {
		if s.Name != wantNames[i] {
			t.Errorf("sound %d: expected name %q, got %q", i, wantNames[i], s.Name)
		}
		if s.Format != wantFormats[i] {
			t.Errorf("sound %s: expected format=%s, got %s", s.Name, wantFormats[i], s.Format)
		}
		if s.Source != SourceUser {
			t.Errorf("sound %s: expected source=user, got %s", s.Name, s.Source)
		}
	}
}

func TestDiscoverMissingUserDir(t *testing.T) {
	sounds := Discover(DiscoverOptions{UserDir: "/nonexistent/path/that/does/not/exist"})
	if len(sounds) != 0 {
		t.Errorf("expected no sounds, got %d", len(sounds))
	}
}

func TestListSystem(t *testing.T) {
	sounds := Discover(DiscoverOptions{IncludeSystem: true})

	for _, s := range sounds {
		if s.Source != SourceSystem {
			t.Errorf("expected source=system, got %s", s.Source)
		}
		if !IsPlayable(s.Path) {
			t.Errorf("system sound %s is not playable", s.Path)
		}
	}

	switch runtime.GOOS {
	case "darwin":
		if len(sounds) == 0 {
			t.Error("expected system sounds on macOS, got none")
		}
	default:
		t.Logf("found %d system sounds on %s", len(sounds), runtime.GOOS)
	}
}

func TestDiscoverLinuxSounds_DepthLimit(t *testing.T) {
	base := t.TempDir()
	deep := filepath.Join(base, "theme", "stereo", "extra")
	if err := os.MkdirAll(deep, 0o755); err != nil {
		t.Fatal(err)
	}
	writeSounds(t, filepath.Join(base, "theme", "stereo"), "complete.oga", "bell.ogg", "skip.mp3")
	writeSounds(t, deep, "too-deep.wav")

	sounds := discoverLinuxSounds(base, 3)
	if len(sounds) != 2 {
		t.Fatalf("expected 2 sounds, got %d: %+v", len(sounds), sounds)
	}
	for _, s := range sounds {
		if s.Name == "too-deep" {
			t.Error("depth limit not applied")
		}
	}
	if discoverLinuxSounds(filepath.Join(base, "missing"), 5) != nil {
		t.Error("missing base dir should yield nil")
	}
}

func TestFindByName_Levels(t *testing.T) {
	list := []SoundInfo{
		{Name: "Glass", Source: SourceSystem, Path: "/sys/Glass.aiff"},
		{Name: "doorbell", Source: SourceUser, Path: "/user/doorbell.wav"},
	}

	tests := []struct {
		input    string
		expected string
	}{
		{"Glass", "Glass"},
		{"glass", "Glass"},
		{"DOORBELL", "doorbell"},
		{"door", "doorbell"},
		{"gl", "Glass"},
	}

	for _, tc := range tests {
		s, found := FindByName(tc.input, list)
		if !found {
			t.Errorf("FindByName(%q): not found", tc.input)
			continue
		}
		if s.Name != tc.expected {
			t.Errorf("FindByName(%q): expected %q, got %q", tc.input, tc.expected, s.Name)
		}
	}
}

func TestFindByName_PrioritizeUser(t *testing.T) {
	// System first in slice, user second: user should still win at every level
	list := []SoundInfo{
		{Name: "test-sound", Source: SourceSystem, Path: "/sys/test.aiff"},
		{Name: "test-sound", Source: SourceUser, Path: "/user/test.mp3"},
	}

	for _, input := range []string{"test-sound", "Test-Sound", "test-so"} {
		s, found := FindByName(input, list)
		if !found {
			t.Fatalf("FindByName(%q): should find sound", input)
		}
		if s.Source != SourceUser {
			t.Errorf("FindByName(%q): should prefer user, got source=%s", input, s.Source)
		}
	}
}

func TestFindByName_NotFound(t *testing.T) {
	list := []SoundInfo{{Name: "ding", Source: SourceUser}}

	if _, found := FindByName("nonexistent-sound-xyz", list); found {
		t.Error("FindByName should return false for nonexistent sound")
	}
	if _, found := FindByName("", list); found {
		t.Error("FindByName should return false for empty name")
	}
	if _, found := FindByName("any", []SoundInfo{}); found {
		t.Error("should not find in empty list")
	}
}

func TestResolve(t *testing.T) {
	dir := t.TempDir()
	writeSounds(t, dir, "ding.wav")
	path := filepath.Join(dir, "ding.wav")
	available := Discover(DiscoverOptions{UserDir: dir})

	tests := []struct {
		name  string
		value string
		want  string
	}{
		{"empty disables chime", "", ""},
		{"existing path", path, path},
		{"by name", "ding", path},
		{"by prefix", "di", path},
		{"unknown", "nope", ""},
		{"directory is not a sound", dir, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Resolve(tt.value, available); got != tt.want {
				t.Errorf("Resolve(%q) = %q, want %q", tt.value, got, tt.want)
			}
		})
	}
}
