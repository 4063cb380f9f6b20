// ABOUTME: Small OS helpers shared across packages: file checks and OS detection.
// ABOUTME: Anything that needs a build tag lives in the package that uses it instead.
package platform

import (
	"os"
	"runtime"
)

// FileExists reports whether path exists and is not a directory.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// IsWindows returns true on Windows
func IsWindows() bool { return runtime.GOOS == "windows" }
