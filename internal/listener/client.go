// ABOUTME: Client side of the relay protocol: connect, write one message, close.
// ABOUTME: Used by the `send` command and by tests.
package listener

import (
	"context"
	"fmt"
	"net"
	"time"
)

const dialTimeout = 5 * time.Second

// Send delivers one message to a running relay at addr (host:port).
func Send(ctx context.Context, addr, message string) error {
	dialer := net.Dialer{Timeout: dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to connect to relay: %w", err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetWriteDeadline(deadline); err != nil {
			return fmt.Errorf("failed to set deadline: %w", err)
		}
	}

	if _, err := conn.Write([]byte(message)); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}
