// ABOUTME: Lifecycle controller that sequences startup and shutdown of the relay.
// ABOUTME: Owns the shared running flag and coordinates window, tray and listener.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/runegard/runegard/internal/errorhandler"
	"github.com/runegard/runegard/internal/listener"
	"github.com/runegard/runegard/internal/logging"
	"github.com/runegard/runegard/internal/readiness"
)

// NetworkWarning is shown when the readiness gate times out.
const NetworkWarning = "Network not detected after timeout. Starting anyway."

// Window is the foreground settings surface.
type Window interface {
	Show()
	Hide()
	// Warn reports a non-fatal problem to the user.
	Warn(title, message string)
	// Run drives the foreground event loop until Quit.
	Run() error
	Quit()
}

// Menu holds the tray menu callbacks.
type Menu struct {
	OnOpen func()
	OnExit func()
}

// Tray is the background tray icon.
type Tray interface {
	// Run blocks until Stop.
	Run(menu Menu) error
	Stop()
}

// Listener is the message listener service.
type Listener interface {
	Listen() error
	Serve(running *atomic.Bool)
	Done() <-chan struct{}
}

// Waiter blocks until the network is reachable (true) or gives up (false).
type Waiter func(ctx context.Context) bool

// Options configures a Controller.
type Options struct {
	Title          string        // dialog title (default "Runegard")
	StartInTray    bool          // start with the window hidden
	WaitForNetwork bool          // run the readiness gate before starting
	NetworkTimeout time.Duration // readiness timeout (default 300s)
	PollInterval   time.Duration // listener poll interval, bounds the shutdown drain (default 2s)
	Waiter         Waiter        // default readiness.Wait
}

// Controller sequences startup and shutdown.
type Controller struct {
	opts     Options
	window   Window
	tray     Tray
	listener Listener

	running atomic.Bool

	mu              sync.Mutex
	exited          chan struct{}
	exitOnce        sync.Once
	trayStarted     bool
	listenerStarted bool
	listenErr       error
}

// New creates a controller.
func New(opts Options, window Window, tray Tray, l Listener) *Controller {
	if opts.Title == "" {
		opts.Title = listener.DefaultTitle
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = listener.DefaultPollInterval
	}
	if opts.Waiter == nil {
		timeout := opts.NetworkTimeout
		opts.Waiter = func(ctx context.Context) bool {
			return readiness.Wait(ctx, readiness.Options{Timeout: timeout})
		}
	}
	return &Controller{
		opts:     opts,
		window:   window,
		tray:     tray,
		listener: l,
		exited:   make(chan struct{}),
	}
}

// Run starts the relay and blocks in the window's event loop until Exit is
// requested (tray, window or ctx cancellation).
func (c *Controller) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		select {
		case <-ctx.Done():
			logging.Info("[lifecycle] context cancelled, shutting down")
			c.Exit()
		case <-c.exited:
		}
	}()

	if c.opts.StartInTray {
		c.window.Hide()
	} else {
		c.window.Show()
	}

	startupDone := make(chan struct{})
	errorhandler.SafeGo(func() {
		defer close(startupDone)
		c.startBackground(ctx)
	})

	err := c.window.Run()
	if err != nil {
		logging.Error("[lifecycle] window loop ended with error: %v", err)
	}

	// The foreground loop is gone; nothing is left to drive the UI.
	c.Exit()
	<-startupDone
	c.drain()

	logging.Info("[lifecycle] stopped")
	return err
}

// startBackground runs the readiness gate, then starts tray and listener
func (c *Controller) startBackground(ctx context.Context) {
	if c.opts.WaitForNetwork {
		waitCtx, cancel := context.WithCancel(ctx)
		go func() {
			select {
			case <-c.exited:
				cancel()
			case <-waitCtx.Done():
			}
		}()
		ready := c.opts.Waiter(waitCtx)
		cancel()

		if c.isExiting() {
			return
		}
		if !ready {
			logging.Warn("[lifecycle] %s", NetworkWarning)
			c.window.Warn(c.opts.Title, NetworkWarning)
		}
	}

	c.startTray()
	if msg := c.startListener(); msg != "" {
		c.window.Warn(c.opts.Title, msg)
	}
}

func (c *Controller) startTray() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.isExiting() || c.tray == nil {
		return
	}
	c.trayStarted = true

	menu := Menu{
		OnOpen: c.window.Show,
		OnExit: c.Exit,
	}
	errorhandler.SafeGo(func() {
		if err := c.tray.Run(menu); err != nil {
			logging.Error("[lifecycle] tray stopped with error: %v", err)
		}
	})
}

// startListener binds and starts the accept loop. It returns a user-facing
// message when the listener could not start.
func (c *Controller) startListener() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.isExiting() {
		return ""
	}

	c.running.Store(true)
	if err := c.listener.Listen(); err != nil {
		c.running.Store(false)
		c.listenErr = err
		logging.Error("[lifecycle] listener not started: %v", err)

		msg := fmt.Sprintf("The message listener could not start: %v", err)
		var bindErr *listener.BindError
		if errors.As(err, &bindErr) {
			msg = fmt.Sprintf("Port %d is unavailable (%v). Choose another port in Settings and restart.", bindErr.Port, bindErr.Err)
		}
		return msg
	}

	c.listenerStarted = true
	errorhandler.SafeGo(func() {
		c.listener.Serve(&c.running)
	})
	return ""
}

// Exit requests shutdown: clear the running flag, stop the tray, and end
// the window loop. The listener drains on its own within one poll interval.
// Safe to call from any goroutine, any number of times.
func (c *Controller) Exit() {
	c.exitOnce.Do(func() {
		logging.Info("[lifecycle] exit requested")

		c.mu.Lock()
		c.running.Store(false)
		close(c.exited)
		trayStarted := c.trayStarted
		c.mu.Unlock()

		if trayStarted {
			c.tray.Stop()
		}
		c.window.Quit()
	})
}

// drain gives the accept loop one poll interval (plus slack) to release the socket
func (c *Controller) drain() {
	c.mu.Lock()
	started := c.listenerStarted
	c.mu.Unlock()
	if !started {
		return
	}

	select {
	case <-c.listener.Done():
	case <-time.After(c.opts.PollInterval + time.Second):
		logging.Warn("[lifecycle] listener still draining, leaving it to exit on its own")
	}
}

func (c *Controller) isExiting() bool {
	select {
	case <-c.exited:
		return true
	default:
		return false
	}
}

// Running reports whether the listener is (meant to be) accepting messages.
func (c *Controller) Running() bool {
	return c.running.Load()
}

// ListenErr returns the error that prevented the listener from starting, if any.
func (c *Controller) ListenErr() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.listenErr
}
