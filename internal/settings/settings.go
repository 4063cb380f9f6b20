// ABOUTME: Settings surface served as a loopback web page and opened in the default browser.
// ABOUTME: Acts as the relay's foreground window: Show/Hide/Warn/Run/Quit plus save, hide and exit actions.
package settings

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pkg/browser"

	"github.com/runegard/runegard/internal/config"
	"github.com/runegard/runegard/internal/listener"
	"github.com/runegard/runegard/internal/logging"
	"github.com/runegard/runegard/internal/sounds"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	historyRows     = 20
	shutdownTimeout = 2 * time.Second
	savedMessage    = "Settings saved."
)

// Autostart reads and applies the start-on-login state.
type Autostart interface {
	Enabled() (bool, error)
	Sync(want bool) (bool, error)
}

// History lists and clears relayed messages.
type History interface {
	Recent(ctx context.Context, n int) ([]listener.Message, error)
	Count(ctx context.Context) (int, error)
	Clear(ctx context.Context) error
}

// Notifier surfaces warnings while the page is not open.
type Notifier interface {
	Notify(title, body string) error
}

// Options configures a Surface.
type Options struct {
	Title      string         // page and warning title (default "Runegard")
	Host       string         // bind host (default 127.0.0.1)
	Port       int            // bind port; 0 picks a free port
	ConfigPath string         // where Save persists
	Config     *config.Config // settings as loaded at startup
	ActivePort int            // port the listener actually uses (may differ from Config.Port via --port)
	Autostart  Autostart      // optional
	History    History        // optional
	Notifier   Notifier       // optional
	Sounds     []sounds.SoundInfo
	Open       func(url string) error // default browser.OpenURL
}

// Surface is the settings page and the relay's foreground loop.
type Surface struct {
	opts   Options
	token  string
	ln     net.Listener
	server *http.Server
	engine *gin.Engine

	mu       sync.Mutex
	cfg      *config.Config
	visible  bool
	warnings []string
	onExit   func()
	status   func() error

	quit     chan struct{}
	quitOnce sync.Once
}

// New binds the settings page on a loopback address. The page is served once
// Run is called.
func New(opts Options) (*Surface, error) {
	if opts.Title == "" {
		opts.Title = config.AppName
	}
	if opts.Host == "" {
		opts.Host = "127.0.0.1"
	}
	if opts.Config == nil {
		opts.Config = config.DefaultConfig()
	}
	if opts.ActivePort == 0 {
		opts.ActivePort = opts.Config.Port
	}
	if opts.Open == nil {
		opts.Open = browser.OpenURL
	}

	ln, err := net.Listen("tcp", net.JoinHostPort(opts.Host, strconv.Itoa(opts.Port)))
	if err != nil {
		return nil, fmt.Errorf("failed to bind settings page: %w", err)
	}

	s := &Surface{
		opts:  opts,
		token: uuid.NewString(),
		ln:    ln,
		cfg:   opts.Config.Clone(),
		quit:  make(chan struct{}),
	}
	if err := s.setupRoutes(); err != nil {
		ln.Close()
		return nil, err
	}
	s.server = &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logging.Info("[settings] page at %s", s.URL())
	return s, nil
}

func (s *Surface) setupRoutes() error {
	tmpl, err := template.New("").Funcs(template.FuncMap{
		"percent": func(v float64) int { return int(math.Round(v * 100)) },
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return fmt.Errorf("failed to parse settings templates: %w", err)
	}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(), loopbackOnly())
	r.SetHTMLTemplate(tmpl)

	r.GET("/", s.handleIndex)
	r.POST("/settings", s.requireToken, s.handleSave)
	r.POST("/hide", s.requireToken, s.handleHide)
	r.POST("/exit", s.requireToken, s.handleExit)
	r.POST("/history/clear", s.requireToken, s.handleClearHistory)

	api := r.Group("/api")
	api.GET("/settings", s.handleGetSettings)
	api.GET("/history", s.handleGetHistory)

	s.engine = r
	return nil
}

// URL returns the address of the settings page.
func (s *Surface) URL() string {
	return "http://" + s.ln.Addr().String() + "/"
}

// OnExit sets the callback run by the page's Exit button.
func (s *Surface) OnExit(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onExit = fn
}

// ListenerStatus sets the source of the listener's start-up error, reported
// on the page and by the settings API.
func (s *Surface) ListenerStatus(fn func() error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = fn
}

// listenerError returns the listener's start-up error text, or "".
func (s *Surface) listenerError() string {
	s.mu.Lock()
	status := s.status
	s.mu.Unlock()
	if status == nil {
		return ""
	}
	if err := status(); err != nil {
		return err.Error()
	}
	return ""
}

// Show opens the page in the default browser.
func (s *Surface) Show() {
	s.mu.Lock()
	s.visible = true
	s.mu.Unlock()

	if err := s.opts.Open(s.URL()); err != nil {
		logging.Warn("[settings] failed to open browser: %v", err)
	}
}

// Hide marks the page hidden. The relay keeps running in the tray.
func (s *Surface) Hide() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.visible = false
}

// Visible reports whether the page was last shown rather than hidden.
func (s *Surface) Visible() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.visible
}

// Warn records a warning for the page banner and raises a desktop
// notification so the user sees it while the page is closed.
func (s *Surface) Warn(title, message string) {
	s.mu.Lock()
	s.warnings = append(s.warnings, message)
	s.mu.Unlock()

	logging.Warn("[settings] %s: %s", title, message)
	if s.opts.Notifier != nil {
		if err := s.opts.Notifier.Notify(title, message); err != nil {
			logging.Warn("[settings] failed to notify warning: %v", err)
		}
	}
}

// Warnings returns the warnings raised so far.
func (s *Surface) Warnings() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.warnings...)
}

// Config returns the current settings.
func (s *Surface) Config() *config.Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.Clone()
}

// Run serves the page until Quit.
func (s *Surface) Run() error {
	if s.opts.ConfigPath != "" {
		stop, err := s.watchConfig(s.opts.ConfigPath)
		if err != nil {
			logging.Warn("[settings] not watching config file: %v", err)
		} else {
			defer stop()
		}
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.server.Serve(s.ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("settings page stopped: %w", err)
	case <-s.quit:
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.server.Shutdown(ctx); err != nil {
		logging.Warn("[settings] shutdown: %v", err)
	}
	<-errCh
	return nil
}

// Quit ends Run. Safe to call more than once and before Run.
func (s *Surface) Quit() {
	s.quitOnce.Do(func() {
		close(s.quit)
	})
}

// setConfig replaces the current settings (after a save or an external edit)
func (s *Surface) setConfig(cfg *config.Config) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg = cfg.Clone()
}
