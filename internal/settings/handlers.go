package settings

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/runegard/runegard/internal/config"
	"github.com/runegard/runegard/internal/logging"
	"github.com/runegard/runegard/internal/sounds"
)

// historyEntry is a message formatted for the page
type historyEntry struct {
	Time   string `json:"time"`
	ID     string `json:"id"`
	Remote string `json:"remote"`
	Body   string `json:"body"`
}

type pageData struct {
	Title        string
	Token        string
	Config       *config.Config
	ActivePort   int
	StartOnLogin bool
	Sounds       []sounds.SoundInfo
	History      []historyEntry
	HistoryTotal int
	ListenErr    string
	Warnings     []string
	Flash        string
	Error        string
	Hidden       bool
}

// requestLogger logs each request at debug level
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logging.Debug("[settings] %s %s -> %d (%v)", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}

// loopbackOnly rejects requests whose Host is not a loopback name, so other
// sites cannot reach the page through DNS rebinding.
func loopbackOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		host := c.Request.Host
		if h, _, err := net.SplitHostPort(host); err == nil {
			host = h
		}
		host = strings.Trim(host, "[]")
		if host != "localhost" {
			if ip := net.ParseIP(host); ip == nil || !ip.IsLoopback() {
				c.AbortWithStatus(http.StatusForbidden)
				return
			}
		}
		c.Next()
	}
}

// requireToken rejects form posts that did not come from the rendered page
func (s *Surface) requireToken(c *gin.Context) {
	if c.PostForm("token") != s.token {
		c.AbortWithStatus(http.StatusForbidden)
		return
	}
	c.Next()
}

func (s *Surface) page(c *gin.Context) pageData {
	cfg := s.Config()

	startOnLogin := cfg.StartOnLogin
	if s.opts.Autostart != nil {
		if enabled, err := s.opts.Autostart.Enabled(); err == nil {
			startOnLogin = enabled
		} else {
			logging.Warn("[settings] failed to read start-on-login state: %v", err)
		}
	}

	return pageData{
		Title:        s.opts.Title,
		Token:        s.token,
		Config:       cfg,
		ActivePort:   s.opts.ActivePort,
		StartOnLogin: startOnLogin,
		Sounds:       s.opts.Sounds,
		History:      s.recent(c.Request.Context(), historyRows),
		HistoryTotal: s.historyTotal(c.Request.Context()),
		ListenErr:    s.listenerError(),
		Warnings:     s.Warnings(),
		Hidden:       !s.Visible(),
	}
}

func (s *Surface) recent(ctx context.Context, n int) []historyEntry {
	if s.opts.History == nil {
		return nil
	}
	msgs, err := s.opts.History.Recent(ctx, n)
	if err != nil {
		logging.Warn("[settings] failed to load history: %v", err)
		return nil
	}
	out := make([]historyEntry, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, historyEntry{
			Time:   m.ReceivedAt.Local().Format("2006-01-02 15:04:05"),
			ID:     m.ID,
			Remote: m.Remote,
			Body:   m.Body,
		})
	}
	return out
}

func (s *Surface) historyTotal(ctx context.Context) int {
	if s.opts.History == nil {
		return 0
	}
	n, err := s.opts.History.Count(ctx)
	if err != nil {
		logging.Warn("[settings] failed to count history: %v", err)
		return 0
	}
	return n
}

func (s *Surface) handleIndex(c *gin.Context) {
	s.mu.Lock()
	s.visible = true
	s.mu.Unlock()
	c.HTML(http.StatusOK, "settings.html", s.page(c))
}

// parseForm builds the new settings from the submitted form on top of the
// current ones
func (s *Surface) parseForm(c *gin.Context) (*config.Config, error) {
	cfg := s.Config()

	port, err := strconv.Atoi(strings.TrimSpace(c.PostForm("port")))
	if err != nil {
		return nil, errors.New("port must be a number")
	}
	cfg.Port = port
	cfg.StartInTray = c.PostForm("start_in_tray") == "on"
	cfg.StartOnLogin = c.PostForm("start_on_login") == "on"

	if sound, ok := c.GetPostForm("sound"); ok {
		cfg.Sound = strings.TrimSpace(sound)
	}
	if raw := strings.TrimSpace(c.PostForm("volume")); raw != "" {
		pct, err := strconv.Atoi(raw)
		if err != nil || pct < 1 || pct > 100 {
			return nil, errors.New("volume must be between 1 and 100")
		}
		cfg.Volume = float64(pct) / 100
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (s *Surface) handleSave(c *gin.Context) {
	cfg, err := s.parseForm(c)
	if err != nil {
		data := s.page(c)
		data.Error = "Invalid settings: " + err.Error()
		c.HTML(http.StatusBadRequest, "settings.html", data)
		return
	}

	if err := s.apply(cfg); err != nil {
		logging.Error("[settings] save failed: %v", err)
		data := s.page(c)
		data.Error = "Could not save settings: " + err.Error()
		c.HTML(http.StatusInternalServerError, "settings.html", data)
		return
	}

	data := s.page(c)
	data.Flash = savedMessage
	if cfg.Port != s.opts.ActivePort {
		data.Flash = fmt.Sprintf("%s Restart %s to listen on port %d.", savedMessage, s.opts.Title, cfg.Port)
	}
	c.HTML(http.StatusOK, "settings.html", data)
}

// apply persists cfg and the start-on-login state. On failure nothing changes.
func (s *Surface) apply(cfg *config.Config) error {
	previous := s.Config()

	var autostartChanged bool
	if s.opts.Autostart != nil {
		changed, err := s.opts.Autostart.Sync(cfg.StartOnLogin)
		if err != nil {
			return fmt.Errorf("failed to update start on login: %w", err)
		}
		autostartChanged = changed
	}

	if err := config.Save(s.opts.ConfigPath, cfg); err != nil {
		if autostartChanged {
			if _, rerr := s.opts.Autostart.Sync(previous.StartOnLogin); rerr != nil {
				logging.Warn("[settings] failed to restore start on login: %v", rerr)
			}
		}
		return err
	}

	s.setConfig(cfg)
	logging.Info("[settings] saved %s", s.opts.ConfigPath)
	return nil
}

func (s *Surface) handleHide(c *gin.Context) {
	s.Hide()
	c.HTML(http.StatusOK, "settings.html", s.page(c))
}

func (s *Surface) handleExit(c *gin.Context) {
	s.mu.Lock()
	onExit := s.onExit
	s.mu.Unlock()

	c.Data(http.StatusOK, "text/html; charset=utf-8",
		[]byte("<!DOCTYPE html><html><body><p>"+s.opts.Title+" has stopped.</p></body></html>"))

	logging.Info("[settings] exit requested from the settings page")
	if onExit != nil {
		// Exit shuts the server down; let this response finish first.
		go onExit()
	}
}

func (s *Surface) handleClearHistory(c *gin.Context) {
	if s.opts.History == nil {
		c.HTML(http.StatusOK, "settings.html", s.page(c))
		return
	}
	if err := s.opts.History.Clear(c.Request.Context()); err != nil {
		logging.Error("[settings] clear history failed: %v", err)
		data := s.page(c)
		data.Error = "Could not clear history: " + err.Error()
		c.HTML(http.StatusInternalServerError, "settings.html", data)
		return
	}
	logging.Info("[settings] message history cleared")
	data := s.page(c)
	data.Flash = "History cleared."
	c.HTML(http.StatusOK, "settings.html", data)
}

func (s *Surface) handleGetSettings(c *gin.Context) {
	data := s.page(c)
	c.JSON(http.StatusOK, gin.H{
		"config":         data.Config,
		"start_on_login": data.StartOnLogin,
		"active_port":    data.ActivePort,
		"listener_error": data.ListenErr,
		"history_total":  data.HistoryTotal,
		"warnings":       data.Warnings,
	})
}

func (s *Surface) handleGetHistory(c *gin.Context) {
	limit := historyRows
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive number"})
			return
		}
		limit = n
	}
	entries := s.recent(c.Request.Context(), limit)
	if entries == nil {
		entries = []historyEntry{}
	}
	c.JSON(http.StatusOK, entries)
}
