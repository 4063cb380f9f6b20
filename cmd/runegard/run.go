package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/runegard/runegard/internal/autostart"
	"github.com/runegard/runegard/internal/config"
	"github.com/runegard/runegard/internal/history"
	"github.com/runegard/runegard/internal/lifecycle"
	"github.com/runegard/runegard/internal/listener"
	"github.com/runegard/runegard/internal/logging"
	"github.com/runegard/runegard/internal/notifier"
	"github.com/runegard/runegard/internal/settings"
	"github.com/runegard/runegard/internal/sounds"
	"github.com/runegard/runegard/internal/tray"
)

// configPath returns --config or the per-user default
func configPath() (string, error) {
	if cfgFile != "" {
		return cfgFile, nil
	}
	return config.DefaultPath()
}

// loadConfig loads the config, reporting (but surviving) a malformed file
func loadConfig(path string) *config.Config {
	cfg, err := config.Load(path)
	if err != nil {
		if errors.Is(err, config.ErrMalformedConfig) {
			logging.Warn("[main] %v; using defaults", err)
		} else {
			logging.Warn("[main] failed to read config: %v; using defaults", err)
		}
	}
	return cfg
}

func discoverSounds() []sounds.SoundInfo {
	opts := sounds.DiscoverOptions{IncludeSystem: true}
	if dir, err := config.Dir(); err == nil {
		opts.UserDir = filepath.Join(dir, "sounds")
	}
	return sounds.Discover(opts)
}

// runRelay wires every component and blocks until the user exits
func runRelay(cmd *cobra.Command) error {
	logOpts := logging.Options{Level: logLevel, Console: true}
	if path, err := config.LogPath(); err == nil {
		logOpts.FilePath = path
	}
	if err := logging.Init(logOpts); err != nil {
		return err
	}
	defer logging.Sync()

	path, err := configPath()
	if err != nil {
		return fmt.Errorf("failed to locate config: %w", err)
	}
	cfg := loadConfig(path)

	port := cfg.Port
	if cmd.Flags().Changed("port") {
		if portFlag < 1 || portFlag > 65535 {
			return fmt.Errorf("--port must be between 1 and 65535 (got %d)", portFlag)
		}
		port = portFlag
	}
	logging.Info("[main] Runegard %s starting (config %s, port %d)", version, path, port)

	var iconPath string
	if dir, err := config.Dir(); err == nil {
		if iconPath, err = tray.WriteIconFile(dir); err != nil {
			logging.Warn("[main] %v", err)
		}
	}

	available := discoverSounds()
	sound := sounds.Resolve(cfg.Sound, available)
	if cfg.Sound != "" && sound == "" {
		logging.Warn("[main] chime %q not found, notifications will be silent", cfg.Sound)
	}

	n := notifier.New(notifier.Options{
		AppName: config.AppName,
		Icon:    iconPath,
		Sound:   sound,
		Volume:  cfg.Volume,
	})
	defer n.Close()

	listenerOpts := listener.Options{Port: port, Title: config.AppName}
	settingsOpts := settings.Options{
		Port:       cfg.SettingsPort,
		ConfigPath: path,
		Config:     cfg,
		ActivePort: port,
		Notifier:   n,
		Sounds:     available,
	}

	if histPath, err := config.HistoryPath(); err == nil {
		store, err := history.Open(histPath, cfg.HistoryLimit)
		if err != nil {
			logging.Warn("[main] message history disabled: %v", err)
		} else {
			defer store.Close()
			listenerOpts.Recorder = store
			settingsOpts.History = store
		}
	}

	if auto, err := autostart.New(config.AppName, ""); err != nil {
		logging.Warn("[main] start on login unavailable: %v", err)
	} else {
		settingsOpts.Autostart = auto
	}

	gin.SetMode(gin.ReleaseMode)
	surface, err := settings.New(settingsOpts)
	if err != nil {
		return err
	}

	svc := listener.New(listenerOpts, n)
	presenter := tray.New(tray.Options{Title: config.AppName})

	ctrl := lifecycle.New(lifecycle.Options{
		Title:          config.AppName,
		StartInTray:    cfg.StartInTray,
		WaitForNetwork: cfg.ShouldWaitForNetwork(),
		NetworkTimeout: time.Duration(cfg.NetworkTimeoutSeconds) * time.Second,
	}, surface, presenter, svc)
	surface.OnExit(ctrl.Exit)
	surface.ListenerStatus(ctrl.ListenErr)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return ctrl.Run(ctx)
}
