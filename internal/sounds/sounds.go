// ABOUTME: Chime discovery for the notification sound setting.
// ABOUTME: Scans the user's sounds directory and platform system sounds; no audio dependencies.

package sounds

import (
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
)

const (
	SourceUser   = "user"
	SourceSystem = "system"
)

// SoundInfo represents a discovered sound file.
type SoundInfo struct {
	Name        string `json:"name"`
	Path        string `json:"path"`
	Format      string `json:"format"`
	Source      string `json:"source"`
	Description string `json:"description,omitempty"`
}

// DiscoverOptions controls which sound sources to scan.
type DiscoverOptions struct {
	UserDir        string // directory of user-supplied chimes (optional)
	IncludeSystem  bool
	MaxSystemDepth int // Max directory depth for Linux system sounds (default 5)
}

// playable lists the extensions the audio player can decode.
var playable = map[string]bool{
	".mp3":  true,
	".wav":  true,
	".flac": true,
	".ogg":  true,
	".oga":  true,
	".aiff": true,
	".aif":  true,
}

// descriptions maps well-known system sound names to human-readable descriptions.
var descriptions = map[string]string{
	// macOS
	"Glass":     "Crisp, clean chime",
	"Hero":      "Triumphant fanfare",
	"Ping":      "Subtle ping sound",
	"Pop":       "Quick pop sound",
	"Purr":      "Gentle purr",
	"Funk":      "Distinctive funk groove",
	"Sosumi":    "Pleasant notification",
	"Basso":     "Deep bass sound",
	"Blow":      "Breeze-like whoosh",
	"Frog":      "Unique ribbit sound",
	"Submarine": "Sonar-like ping",
	"Bottle":    "Cork pop sound",
	"Morse":     "Morse code beeps",
	"Tink":      "Light metallic sound",
	// freedesktop sound theme
	"message-new-instant": "Incoming message",
	"complete":            "Task complete",
	"bell":                "Terminal bell",
	// Windows
	"Windows Notify System Generic": "Default notification",
	"Windows Background":            "Soft background chime",
}

// IsPlayable reports whether path has an extension the player can decode.
func IsPlayable(path string) bool {
	return playable[strings.ToLower(filepath.Ext(path))]
}

// Discover scans for available sounds. User sounds are listed first, then
// system sounds, each group sorted by name.
func Discover(opts DiscoverOptions) []SoundInfo {
	var result []SoundInfo

	if opts.UserDir != "" {
		result = append(result, discoverDir(opts.UserDir, SourceUser)...)
	}

	if opts.IncludeSystem {
		depth := opts.MaxSystemDepth
		if depth <= 0 {
			depth = 5
		}
		result = append(result, discoverSystem(depth)...)
	}

	sort.SliceStable(result, func(i, j int) bool {
		if result[i].Source != result[j].Source {
			return result[i].Source == SourceUser
		}
		return result[i].Name < result[j].Name
	})

	return result
}

// FindByName searches for a sound by name with 3-level matching:
// 1. Exact match
// 2. Case-insensitive match
// 3. Prefix match (case-insensitive)
// User sounds are prioritized over system sounds at every level.
func FindByName(name string, available []SoundInfo) (SoundInfo, bool) {
	if name == "" {
		return SoundInfo{}, false
	}
	nameLower := strings.ToLower(name)

	if s, ok := findPreferUser(available, func(s SoundInfo) bool {
		return s.Name == name
	}); ok {
		return s, true
	}

	if s, ok := findPreferUser(available, func(s SoundInfo) bool {
		return strings.ToLower(s.Name) == nameLower
	}); ok {
		return s, true
	}

	if s, ok := findPreferUser(available, func(s SoundInfo) bool {
		return strings.HasPrefix(strings.ToLower(s.Name), nameLower)
	}); ok {
		return s, true
	}

	return SoundInfo{}, false
}

// Resolve turns the configured sound value into a file path. The value may be
// a path to an existing file or the name of a discovered sound. An empty
// result means no chime.
func Resolve(value string, available []SoundInfo) string {
	if value == "" {
		return ""
	}
	if info, err := os.Stat(value); err == nil && !info.IsDir() {
		return value
	}
	if s, ok := FindByName(value, available); ok {
		return s.Path
	}
	return ""
}

// findPreferUser finds the first match, preferring user over system sources.
func findPreferUser(available []SoundInfo, match func(SoundInfo) bool) (SoundInfo, bool) {
	var firstSystem *SoundInfo
	for i, s := range available {
		if match(s) {
			if s.Source == SourceUser {
				return s, true
			}
			if firstSystem == nil {
				firstSystem = &available[i]
			}
		}
	}
	if firstSystem != nil {
		return *firstSystem, true
	}
	return SoundInfo{}, false
}

// discoverDir lists playable files directly inside dir.
func discoverDir(dir, source string) []SoundInfo {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	var result []SoundInfo
	for _, e := range entries {
		if e.IsDir() || !IsPlayable(e.Name()) {
			continue
		}
		result = append(result, newInfo(filepath.Join(dir, e.Name()), source))
	}
	return result
}

func newInfo(path, source string) SoundInfo {
	ext := filepath.Ext(path)
	name := strings.TrimSuffix(filepath.Base(path), ext)
	return SoundInfo{
		Name:        name,
		Path:        path,
		Format:      strings.ToLower(ext[1:]),
		Source:      source,
		Description: descriptions[name],
	}
}

// discoverSystem scans platform-specific system sound directories.
func discoverSystem(maxDepth int) []SoundInfo {
	switch runtime.GOOS {
	case "darwin":
		return discoverDir("/System/Library/Sounds", SourceSystem)
	case "linux":
		return discoverLinuxSounds("/usr/share/sounds", maxDepth)
	case "windows":
		sysRoot := os.Getenv("SYSTEMROOT")
		if sysRoot == "" {
			sysRoot = `C:\Windows`
		}
		return discoverDir(filepath.Join(sysRoot, "Media"), SourceSystem)
	default:
		return nil
	}
}

// discoverLinuxSounds walks baseDir for OGG and WAV files up to maxDepth.
func discoverLinuxSounds(baseDir string, maxDepth int) []SoundInfo {
	if _, err := os.Stat(baseDir); err != nil {
		return nil
	}

	var result []SoundInfo
	baseDepth := strings.Count(baseDir, string(os.PathSeparator))

	_ = filepath.WalkDir(baseDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // skip errors silently
		}

		currentDepth := strings.Count(path, string(os.PathSeparator)) - baseDepth
		if d.IsDir() && currentDepth >= maxDepth {
			return filepath.SkipDir
		}
		if d.IsDir() {
			return nil
		}

		ext := strings.ToLower(filepath.Ext(path))
		if ext != ".ogg" && ext != ".oga" && ext != ".wav" {
			return nil
		}
		result = append(result, newInfo(path, SourceSystem))
		return nil
	})

	return result
}
