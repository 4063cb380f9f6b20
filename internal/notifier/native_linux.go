//go:build linux

// ABOUTME: Linux notification backend over the D-Bus session bus (org.freedesktop.Notifications).
// ABOUTME: Connects lazily and reconnects after a failed send; beeep remains the fallback.
package notifier

import (
	"fmt"
	"sync"
	"time"

	"github.com/esiqveland/notify"
	"github.com/godbus/dbus/v5"

	"github.com/runegard/runegard/internal/logging"
)

const notificationTimeout = 10 * time.Second

// dbusBackend holds a session bus connection for the life of the process
type dbusBackend struct {
	appName string

	mu       sync.Mutex
	conn     *dbus.Conn
	notifier notify.Notifier
}

func newPlatformBackend(appName string) backend {
	return &dbusBackend{appName: appName}
}

// connect opens the session bus and the notifications proxy if needed
func (b *dbusBackend) connect() error {
	if b.notifier != nil {
		return nil
	}

	conn, err := dbus.SessionBusPrivate()
	if err != nil {
		return fmt.Errorf("failed to connect to D-Bus session bus: %w", err)
	}
	if err := conn.Auth(nil); err != nil {
		conn.Close()
		return fmt.Errorf("failed to authenticate on D-Bus: %w", err)
	}
	if err := conn.Hello(); err != nil {
		conn.Close()
		return fmt.Errorf("failed to register on D-Bus: %w", err)
	}

	n, err := notify.New(conn)
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to create notifier: %w", err)
	}

	b.conn = conn
	b.notifier = n
	return nil
}

func (b *dbusBackend) send(title, body, icon string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.connect(); err != nil {
		return err
	}

	id, err := b.notifier.SendNotification(notify.Notification{
		AppName:       b.appName,
		AppIcon:       icon,
		Summary:       title,
		Body:          body,
		ExpireTimeout: notificationTimeout,
	})
	if err != nil {
		// Drop the connection so the next message reconnects (e.g. after a
		// notification daemon restart).
		b.reset()
		return fmt.Errorf("failed to send notification: %w", err)
	}

	logging.Debug("[notifier] D-Bus notification sent: ID=%d", id)
	return nil
}

func (b *dbusBackend) reset() {
	if b.notifier != nil {
		_ = b.notifier.Close()
		b.notifier = nil
	}
	if b.conn != nil {
		_ = b.conn.Close()
		b.conn = nil
	}
}

func (b *dbusBackend) close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.reset()
	return nil
}
