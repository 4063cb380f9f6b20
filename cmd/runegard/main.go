// ABOUTME: Entry point for the Runegard relay: listens on TCP and turns each message into a desktop notification.
// ABOUTME: Subcommands send a test message, inspect or change settings, and list chime sounds.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/runegard/runegard/internal/tray"
)

var (
	version  = "dev"
	cfgFile  string
	logLevel string
	portFlag int
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "runegard",
		Short: "Relay TCP messages to desktop notifications",
		Long: `Runegard listens on a TCP port and shows every message it receives as a
desktop notification. It lives in the system tray; settings are edited in
a small local web page.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRelay(cmd)
		},
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is <user config dir>/Runegard/listener_config.json)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	root.Flags().IntVar(&portFlag, "port", 0, "listen on this port for this run only (not saved)")

	root.AddCommand(
		newVersionCmd(),
		newSendCmd(),
		newSettingsCmd(),
		newSoundsCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "Runegard %s\n", version)
		},
	}
}

func main() {
	var err error
	tray.Main(func() {
		err = newRootCmd().Execute()
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
