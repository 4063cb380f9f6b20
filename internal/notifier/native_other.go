//go:build !linux

package notifier

// newPlatformBackend returns nil: beeep is the native path on macOS and Windows.
func newPlatformBackend(appName string) backend {
	return nil
}
