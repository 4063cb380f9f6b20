// ABOUTME: System tray presence for the relay: an icon with Settings and Exit entries.
// ABOUTME: Platform code lives in tray_systray.go; the stub build tag swaps in a headless tray.
package tray

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/runegard/runegard/internal/lifecycle"
	"github.com/runegard/runegard/internal/logging"
	"github.com/runegard/runegard/internal/platform"
)

var (
	//go:embed assets/icon.png
	iconPNG []byte
	//go:embed assets/icon.ico
	iconICO []byte
)

// Icon returns the tray icon in the format the platform expects.
func Icon() []byte {
	if platform.IsWindows() {
		return iconICO
	}
	return iconPNG
}

// WriteIconFile stores the PNG icon in dir (for notification icons) and
// returns its path. An existing file with the same content is left alone.
func WriteIconFile(dir string) (string, error) {
	path := filepath.Join(dir, "icon.png")
	if existing, err := os.ReadFile(path); err == nil && string(existing) == string(iconPNG) {
		return path, nil
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("failed to create icon directory: %w", err)
	}
	if err := os.WriteFile(path, iconPNG, 0644); err != nil {
		return "", fmt.Errorf("failed to write icon: %w", err)
	}
	return path, nil
}

// Options configures the tray icon.
type Options struct {
	Title   string // menu title (macOS menu bar)
	Tooltip string
	Icon    []byte // default Icon()
}

// Presenter owns the tray icon for the life of one Run call.
type Presenter struct {
	opts Options

	quit     chan struct{}
	stopOnce sync.Once

	mu    sync.Mutex
	ready bool
}

// New creates a tray presenter.
func New(opts Options) *Presenter {
	if opts.Title == "" {
		opts.Title = "Runegard"
	}
	if opts.Tooltip == "" {
		opts.Tooltip = opts.Title
	}
	if len(opts.Icon) == 0 {
		opts.Icon = Icon()
	}
	return &Presenter{
		opts: opts,
		quit: make(chan struct{}),
	}
}

// Run shows the icon and blocks until Stop.
func (p *Presenter) Run(menu lifecycle.Menu) error {
	logging.Debug("[tray] starting")
	err := p.run(menu)
	logging.Debug("[tray] stopped")
	return err
}

// Stop removes the icon and ends Run. Safe to call more than once.
func (p *Presenter) Stop() {
	p.stopOnce.Do(func() {
		close(p.quit)
		p.mu.Lock()
		ready := p.ready
		p.mu.Unlock()
		if ready {
			p.quitPlatform()
		}
	})
}

// markReady records that the platform loop is up. It reports false when Stop
// already ran, in which case the caller should tear the loop down itself.
func (p *Presenter) markReady() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	select {
	case <-p.quit:
		return false
	default:
		p.ready = true
		return true
	}
}

// listen dispatches menu clicks until Stop
func (p *Presenter) listen(menu lifecycle.Menu, openCh, exitCh <-chan struct{}) {
	for {
		select {
		case <-p.quit:
			return
		case <-openCh:
			logging.Debug("[tray] settings requested")
			if menu.OnOpen != nil {
				menu.OnOpen()
			}
		case <-exitCh:
			logging.Info("[tray] exit requested")
			if menu.OnExit != nil {
				menu.OnExit()
			}
		}
	}
}
