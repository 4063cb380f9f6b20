// ABOUTME: Startup gate that waits for network reachability before the relay starts.
// ABOUTME: Polls a probe at a fixed interval until it succeeds or the timeout elapses.
package readiness

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	psnet "github.com/shirou/gopsutil/v3/net"

	"github.com/runegard/runegard/internal/logging"
)

const (
	DefaultInterval = 3 * time.Second
	DefaultTimeout  = 300 * time.Second
	// DefaultHost is resolved by the default probe.
	DefaultHost = "dns.google"
)

// ErrNoInterface means no non-loopback interface is up with an address.
var ErrNoInterface = errors.New("no active network interface")

// Probe reports nil once the network is usable.
type Probe func(ctx context.Context) error

// Options configures Wait.
type Options struct {
	Interval time.Duration // default 3s
	Timeout  time.Duration // default 300s
	Probe    Probe         // default DefaultProbe(DefaultHost)
}

// Wait polls the probe until it succeeds (true), or until the timeout elapses
// or ctx is cancelled (false).
func Wait(ctx context.Context, opts Options) bool {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Probe == nil {
		opts.Probe = DefaultProbe(DefaultHost)
	}

	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	ticker := time.NewTicker(opts.Interval)
	defer ticker.Stop()

	attempt := 0
	for {
		attempt++
		err := opts.Probe(ctx)
		if err == nil {
			logging.Info("[readiness] network ready after %d attempt(s)", attempt)
			return true
		}
		logging.Debug("[readiness] network not ready (attempt %d): %v", attempt, err)

		select {
		case <-ctx.Done():
			logging.Warn("[readiness] network not detected: %v", ctx.Err())
			return false
		case <-ticker.C:
		}
	}
}

// DefaultProbe requires an active interface and a successful DNS lookup of host.
func DefaultProbe(host string) Probe {
	return func(ctx context.Context) error {
		if err := InterfaceProbe(ctx); err != nil {
			return err
		}
		return ResolveProbe(host)(ctx)
	}
}

// InterfaceProbe succeeds when at least one non-loopback interface is up and
// carries an address.
func InterfaceProbe(ctx context.Context) error {
	ifaces, err := psnet.InterfacesWithContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to list interfaces: %w", err)
	}
	if !hasActiveInterface(ifaces) {
		return ErrNoInterface
	}
	return nil
}

func hasActiveInterface(ifaces psnet.InterfaceStatList) bool {
	for _, iface := range ifaces {
		up, loopback := false, false
		for _, flag := range iface.Flags {
			switch strings.ToLower(flag) {
			case "up":
				up = true
			case "loopback":
				loopback = true
			}
		}
		if up && !loopback && len(iface.Addrs) > 0 {
			return true
		}
	}
	return false
}

// ResolveProbe succeeds when host resolves to at least one address.
func ResolveProbe(host string) Probe {
	return func(ctx context.Context) error {
		addrs, err := net.DefaultResolver.LookupHost(ctx, host)
		if err != nil {
			return fmt.Errorf("failed to resolve %s: %w", host, err)
		}
		if len(addrs) == 0 {
			return fmt.Errorf("no addresses for %s", host)
		}
		return nil
	}
}
