// ABOUTME: TCP listener that turns each inbound connection into one desktop notification.
// ABOUTME: Accept is bounded by a poll deadline so a shared running flag can stop the loop.
package listener

import (
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/runegard/runegard/internal/errorhandler"
	"github.com/runegard/runegard/internal/logging"
)

const (
	// DefaultPollInterval bounds each Accept so the running flag is rechecked.
	DefaultPollInterval = 2 * time.Second
	// DefaultBufferSize is the single read size; longer messages are truncated.
	DefaultBufferSize = 1024
	// DefaultTitle is the notification title used for every message.
	DefaultTitle = "Runegard"

	acceptBackoff = 100 * time.Millisecond
)

// Sink displays a notification. Errors are logged by the listener and never
// stop the accept loop.
type Sink interface {
	Notify(title, body string) error
}

// Recorder receives every dispatched message (e.g. history). Optional.
type Recorder interface {
	Record(msg Message) error
}

// Message is one received message.
type Message struct {
	ID         string
	ReceivedAt time.Time
	Remote     string
	Body       string
}

// BindError reports that the listening socket could not be bound.
type BindError struct {
	Port int
	Err  error
}

func (e *BindError) Error() string {
	return fmt.Sprintf("failed to bind port %d: %v", e.Port, e.Err)
}

func (e *BindError) Unwrap() error { return e.Err }

// Options configures a Service.
type Options struct {
	Host         string        // bind host (default 0.0.0.0)
	Port         int           // 0 picks an ephemeral port
	PollInterval time.Duration // default 2s
	BufferSize   int           // default 1024
	Title        string        // default "Runegard"
	Recorder     Recorder
}

// Service owns the bound socket and the accept loop.
type Service struct {
	opts Options
	sink Sink

	mu       sync.Mutex
	listener *net.TCPListener
	done     chan struct{}
	doneOnce sync.Once
	served   atomic.Bool
}

// New creates a listener service. Call Listen, then Serve.
func New(opts Options, sink Sink) *Service {
	if opts.Host == "" {
		opts.Host = "0.0.0.0"
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.BufferSize <= 0 {
		opts.BufferSize = DefaultBufferSize
	}
	if opts.Title == "" {
		opts.Title = DefaultTitle
	}
	return &Service{
		opts: opts,
		sink: sink,
		done: make(chan struct{}),
	}
}

// Listen binds the socket. Failures are returned as *BindError and are
// never retried.
func (s *Service) Listen() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener != nil {
		return nil
	}

	addr := net.JoinHostPort(s.opts.Host, fmt.Sprint(s.opts.Port))
	ln, err := net.Listen("tcp4", addr)
	if err != nil {
		return &BindError{Port: s.opts.Port, Err: err}
	}
	s.listener = ln.(*net.TCPListener)

	logging.Info("[listener] listening for messages on %s", s.listener.Addr())
	return nil
}

// Addr returns the bound address, or nil before Listen.
func (s *Service) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Done is closed once the socket has been released.
func (s *Service) Done() <-chan struct{} {
	return s.done
}

// Serve runs the accept loop until running becomes false, then closes the
// socket. Connections are handled one at a time, in accept order.
func (s *Service) Serve(running *atomic.Bool) {
	s.mu.Lock()
	ln := s.listener
	s.mu.Unlock()

	if ln == nil || !s.served.CompareAndSwap(false, true) {
		logging.Error("[listener] Serve called without a bound socket or twice")
		return
	}
	defer s.release()

	for running.Load() {
		if err := ln.SetDeadline(time.Now().Add(s.opts.PollInterval)); err != nil {
			logging.Error("[listener] failed to set accept deadline: %v", err)
			return
		}

		conn, err := ln.Accept()
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			logging.Error("[listener] accept error: %v", err)
			time.Sleep(acceptBackoff)
			continue
		}

		s.handleConnection(conn)
	}

	logging.Info("[listener] stop observed, closing socket")
}

// Close releases the socket when Serve was never started.
func (s *Service) Close() error {
	if s.served.Load() {
		return nil
	}
	s.release()
	return nil
}

func (s *Service) release() {
	s.doneOnce.Do(func() {
		s.mu.Lock()
		if s.listener != nil {
			if err := s.listener.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
				logging.Warn("[listener] failed to close socket: %v", err)
			}
		}
		s.mu.Unlock()
		close(s.done)
	})
}

// handleConnection reads a single chunk, dispatches it and closes the connection
func (s *Service) handleConnection(conn net.Conn) {
	defer conn.Close()

	msg := Message{
		ID:         uuid.NewString(),
		ReceivedAt: time.Now(),
		Remote:     conn.RemoteAddr().String(),
	}
	logging.Info("[listener] connection from %s (id=%s)", msg.Remote, msg.ID)

	buf := make([]byte, s.opts.BufferSize)
	n, err := conn.Read(buf)
	if err != nil && !errors.Is(err, io.EOF) {
		logging.Warn("[listener] read from %s failed: %v", msg.Remote, err)
	}
	msg.Body = decode(buf[:n])

	logging.Info("[listener] message received (id=%s): %s", msg.ID, msg.Body)
	s.dispatch(msg)
}

// dispatch forwards to the sink and the recorder; failures stay local to this message
func (s *Service) dispatch(msg Message) {
	err := errorhandler.SafeCall("notify", func() error {
		return s.sink.Notify(s.opts.Title, msg.Body)
	})
	if err != nil {
		logging.Error("[listener] notification failed (id=%s): %v", msg.ID, err)
	}

	if s.opts.Recorder != nil {
		err := errorhandler.SafeCall("record", func() error {
			return s.opts.Recorder.Record(msg)
		})
		if err != nil {
			logging.Warn("[listener] failed to record message (id=%s): %v", msg.ID, err)
		}
	}
}

// decode converts raw bytes to trimmed text. Invalid UTF-8, including a rune
// cut by truncation, becomes U+FFFD.
func decode(b []byte) string {
	return strings.TrimSpace(strings.ToValidUTF8(string(b), "\uFFFD"))
}
