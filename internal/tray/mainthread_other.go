//go:build !darwin || stub

package tray

// Main runs body. The tray loop has no thread requirement here.
func Main(body func()) {
	body()
}
