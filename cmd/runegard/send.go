package main

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/runegard/runegard/internal/config"
	"github.com/runegard/runegard/internal/listener"
)

func newSendCmd() *cobra.Command {
	var (
		addr    string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "send <message>",
		Short: "Send a message to a running relay",
		Long: `Send one message to a Runegard relay. Without --addr the message goes to
the local relay on the configured port.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := addr
			if target == "" {
				path, err := configPath()
				if err != nil {
					return err
				}
				cfg, _ := config.Load(path)
				target = net.JoinHostPort("127.0.0.1", strconv.Itoa(cfg.Port))
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			message := strings.Join(args, " ")
			if err := listener.Send(ctx, target, message); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Sent %d bytes to %s\n", len(message), target)
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "relay address host:port (default 127.0.0.1:<configured port>)")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "give up after this long")
	return cmd
}
