package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/runegard/runegard/internal/autostart"
	"github.com/runegard/runegard/internal/config"
)

func newSettingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change settings without the settings page",
	}
	cmd.AddCommand(newSettingsShowCmd(), newSettingsSetCmd())
	return cmd
}

func newSettingsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective settings as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := configPath()
			if err != nil {
				return err
			}
			cfg, err := config.Load(path)
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
			}
			data, err := json.MarshalIndent(cfg, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
}

func newSettingsSetCmd() *cobra.Command {
	var (
		port         int
		startInTray  bool
		startOnLogin bool
		sound        string
		volume       float64
	)

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Change settings and save them",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := configPath()
			if err != nil {
				return err
			}
			cfg, err := config.Load(path)
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
			}

			flags := cmd.Flags()
			if flags.Changed("port") {
				cfg.Port = port
			}
			if flags.Changed("start-in-tray") {
				cfg.StartInTray = startInTray
			}
			if flags.Changed("sound") {
				cfg.Sound = sound
			}
			if flags.Changed("volume") {
				cfg.Volume = volume
			}
			if flags.Changed("start-on-login") {
				auto, err := autostart.New(config.AppName, "")
				if err != nil {
					return err
				}
				if _, err := auto.Sync(startOnLogin); err != nil {
					return err
				}
				cfg.StartOnLogin = startOnLogin
			}

			if err := config.Save(path, cfg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Settings saved to %s\n", path)
			return nil
		},
	}

	cmd.Flags().IntVar(&port, "port", config.DefaultPort, "TCP port to listen on (applies after restart)")
	cmd.Flags().BoolVar(&startInTray, "start-in-tray", true, "start minimized to the tray")
	cmd.Flags().BoolVar(&startOnLogin, "start-on-login", false, "start when the user logs in")
	cmd.Flags().StringVar(&sound, "sound", "", "chime name or file path (empty for none)")
	cmd.Flags().Float64Var(&volume, "volume", 1.0, "chime volume 0.0-1.0")
	return cmd
}
