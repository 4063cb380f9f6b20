package notifier

import (
	"fmt"
	"sync"

	"github.com/gen2brain/beeep"

	"github.com/runegard/runegard/internal/audio"
	"github.com/runegard/runegard/internal/errorhandler"
	"github.com/runegard/runegard/internal/logging"
	"github.com/runegard/runegard/internal/platform"
)

// backend delivers one notification
type backend interface {
	send(title, body, icon string) error
	close() error
}

// player plays a sound file to completion
type player interface {
	Play(path string) error
	Close() error
}

// Options configures a Notifier.
type Options struct {
	AppName     string  // notification application name
	Icon        string  // path to the notification icon (optional)
	Sound       string  // chime played after each notification (optional)
	Volume      float64 // chime volume 0.0-1.0
	AudioDevice string  // output device name (empty = system default)
}

// Notifier sends desktop notifications
type Notifier struct {
	opts     Options
	platform backend // native path (D-Bus on Linux); nil elsewhere
	fallback backend // beeep

	newPlayer  func() (player, error)
	player     player
	playerInit sync.Once
	playerErr  error

	mu      sync.Mutex
	wg      sync.WaitGroup
	closing bool // Prevents new sounds from being enqueued after Close() is called
}

// New creates a new notifier
func New(opts Options) *Notifier {
	if opts.AppName == "" {
		opts.AppName = "Runegard"
	}
	if opts.Icon != "" && !platform.FileExists(opts.Icon) {
		logging.Warn("[notifier] app icon not found: %s, using default", opts.Icon)
		opts.Icon = ""
	}

	n := &Notifier{
		opts:     opts,
		platform: newPlatformBackend(opts.AppName),
		fallback: &beeepBackend{appName: opts.AppName},
	}
	n.newPlayer = func() (player, error) {
		return audio.NewPlayer(opts.AudioDevice, opts.Volume)
	}
	return n
}

// Notify shows a notification. The native backend is tried first; beeep is the
// fallback. The chime (if configured) plays in the background.
func (n *Notifier) Notify(title, body string) error {
	var err error
	if n.platform != nil {
		err = n.platform.send(title, body, n.opts.Icon)
		if err != nil {
			logging.Warn("[notifier] native notification failed, falling back to beeep: %v", err)
		}
	}
	if n.platform == nil || err != nil {
		if err = n.fallback.send(title, body, n.opts.Icon); err != nil {
			logging.Error("[notifier] failed to send desktop notification: %v", err)
			return fmt.Errorf("failed to send notification: %w", err)
		}
	}

	logging.Debug("[notifier] notification sent: title=%s", title)
	n.playSoundAsync(n.opts.Sound)
	return nil
}

// playSoundAsync plays sound asynchronously if enabled
func (n *Notifier) playSoundAsync(sound string) {
	if sound == "" {
		return
	}

	// Check if notifier is closing to prevent WaitGroup race
	n.mu.Lock()
	if n.closing {
		n.mu.Unlock()
		logging.Debug("[notifier] skipping sound playback: notifier is closing")
		return
	}
	n.wg.Add(1)
	n.mu.Unlock()

	errorhandler.SafeGo(func() {
		defer n.wg.Done()
		n.playSound(sound)
	})
}

// initPlayer initializes the audio player once
func (n *Notifier) initPlayer() error {
	n.playerInit.Do(func() {
		p, err := n.newPlayer()
		if err != nil {
			n.playerErr = err
			return
		}
		n.mu.Lock()
		n.player = p
		n.mu.Unlock()
	})
	return n.playerErr
}

// playSound plays a sound file; sounds are serialized through the single player
func (n *Notifier) playSound(path string) {
	if !platform.FileExists(path) {
		logging.Warn("[notifier] sound file not found: %s", path)
		return
	}
	if err := n.initPlayer(); err != nil {
		logging.Error("[notifier] failed to initialize audio player: %v", err)
		return
	}

	n.mu.Lock()
	p := n.player
	n.mu.Unlock()
	if p == nil {
		return
	}

	if err := p.Play(path); err != nil {
		logging.Error("[notifier] failed to play sound %s: %v", path, err)
	}
}

// Close waits for all sounds to finish playing and cleans up resources
func (n *Notifier) Close() error {
	n.mu.Lock()
	n.closing = true
	n.mu.Unlock()

	n.wg.Wait()

	n.mu.Lock()
	if n.player != nil {
		if err := n.player.Close(); err != nil {
			logging.Warn("[notifier] failed to close audio player: %v", err)
		}
		n.player = nil
	}
	n.mu.Unlock()

	if n.platform != nil {
		if err := n.platform.close(); err != nil {
			logging.Warn("[notifier] failed to close native backend: %v", err)
		}
	}
	return nil
}

// beeepBackend sends notifications via beeep (cross-platform)
type beeepBackend struct {
	appName string
	mu      sync.Mutex
}

func (b *beeepBackend) send(title, body, icon string) error {
	// beeep.AppName is package-global; Windows keys notification settings on it,
	// so keep it fixed rather than unique per message.
	b.mu.Lock()
	defer b.mu.Unlock()

	originalAppName := beeep.AppName
	beeep.AppName = b.appName
	defer func() {
		beeep.AppName = originalAppName
	}()

	return beeep.Notify(title, body, icon)
}

func (b *beeepBackend) close() error { return nil }
