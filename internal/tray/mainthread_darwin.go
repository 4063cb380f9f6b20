//go:build darwin && !stub

package tray

import "runtime"

// Cocoa only runs its event loop on the main thread.
func init() {
	runtime.LockOSThread()
}

// Main runs body while keeping the main goroutine free for the tray loop.
// It must be called from main.
func Main(body func()) {
	uiThread.serve(body)
}
