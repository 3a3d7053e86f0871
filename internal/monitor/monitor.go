// Package monitor reports session progress to a socket.io endpoint so that
// an experimenter can follow several sessions from one dashboard.
//
// Events are fire-and-forget: a missing or slow monitor never blocks the
// participant.
package monitor

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/vk/palila/internal/ctxlog"
	"github.com/vk/palila/internal/navigation"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

// Event names emitted by the Reporter.
const (
	EventSessionStart  = "session:start"
	EventScreenEnter   = "screen:enter"
	EventSessionFinish = "session:finish"
)

// DefaultConnectTimeout bounds the wait for the initial connection.
const DefaultConnectTimeout = 15 * time.Second

// Config locates the monitor.
type Config struct {
	URL                string
	Namespace          string
	InsecureSkipVerify bool
	// ConnectTimeout defaults to DefaultConnectTimeout.
	ConnectTimeout time.Duration
}

// Emitter sends one event. It is the part of a socket.io client the
// Reporter needs.
type Emitter interface {
	Emit(event string, payload any)
	Close()
}

// Reporter implements navigation.Observer by emitting events.
type Reporter struct {
	emitter   Emitter
	sessionID string
	logger    *slog.Logger
}

// NewReporter creates a reporter emitting through e under a fresh session id.
func NewReporter(ctx context.Context, e Emitter) *Reporter {
	id := uuid.NewString()
	return &Reporter{
		emitter:   e,
		sessionID: id,
		logger:    ctxlog.FromContext(ctx).With("monitor_session", id),
	}
}

// SessionID identifies this session in every event.
func (r *Reporter) SessionID() string {
	return r.sessionID
}

func (r *Reporter) SessionStarted(ctx context.Context, p navigation.Progress) {
	r.emit(EventSessionStart, p)
}

func (r *Reporter) ScreenEntered(ctx context.Context, p navigation.Progress) {
	r.emit(EventScreenEnter, p)
}

func (r *Reporter) SessionFinished(ctx context.Context, p navigation.Progress) {
	r.emit(EventSessionFinish, p)
}

// Close disconnects from the monitor.
func (r *Reporter) Close() {
	r.logger.Debug("Closing monitor connection.")
	r.emitter.Close()
}

func (r *Reporter) emit(event string, p navigation.Progress) {
	payload := Payload(r.sessionID, p)
	r.logger.Debug("Emitting monitor event.", "event", event, "screen", p.Screen)
	r.emitter.Emit(event, payload)
}

// Payload is the event body for a progress snapshot.
func Payload(sessionID string, p navigation.Progress) map[string]any {
	percent := 0.0
	if p.Total > 0 && p.Position >= 0 {
		percent = float64(p.Position+1) / float64(p.Total) * 100
	}
	payload := map[string]any{
		"session":     sessionID,
		"participant": p.Participant,
		"screen":      p.Screen,
		"kind":        p.Kind,
		"position":    p.Position,
		"total":       p.Total,
		"progress":    percent,
	}
	if p.Path != "" {
		payload["path"] = p.Path
	}
	return payload
}

// report delivers the first connection outcome; later ones are dropped.
func report(ch chan<- error, err error) {
	select {
	case ch <- err:
	default:
	}
}

// socketEmitter adapts a connected socket.io client.
type socketEmitter struct {
	io *socket.Socket
}

func (s socketEmitter) Emit(event string, payload any) {
	s.io.Emit(event, payload)
}

func (s socketEmitter) Close() {
	s.io.Disconnect()
}

// Connect opens a websocket-only socket.io connection and returns a Reporter
// using it.
func Connect(ctx context.Context, cfg Config) (*Reporter, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("monitor URL cannot be empty")
	}
	logger := ctxlog.FromContext(ctx).With("monitor", cfg.URL)
	logger.Info("Connecting to monitor...")

	parsedURL, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse monitor URL: %w", err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, fmt.Errorf("monitor URL %q needs a scheme and a host", cfg.URL)
	}
	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = DefaultConnectTimeout
	}

	opts := socket.DefaultOptions()
	opts.SetPath(parsedURL.Path)
	if cfg.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		opts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	connectChan := make(chan error, 1)

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket(cfg.Namespace, opts)

	io.Once(types.EventName("connect"), func(...any) {
		logger.Info("Connected to monitor.", "sid", io.Id())
		report(connectChan, nil)
	})
	io.Once(types.EventName("connect_error"), func(errs ...any) {
		err := fmt.Errorf("connect_error: %v", errs)
		if len(errs) > 0 {
			if e, ok := errs[0].(error); ok {
				err = e
			}
		}
		report(connectChan, err)
	})

	io.Connect()

	select {
	case err := <-connectChan:
		if err != nil {
			io.Disconnect()
			return nil, fmt.Errorf("socket.io connection failed: %w", err)
		}
		return NewReporter(ctx, socketEmitter{io: io}), nil
	case <-ctx.Done():
		io.Disconnect()
		return nil, fmt.Errorf("context cancelled while waiting for socket.io connection")
	case <-time.After(timeout):
		io.Disconnect()
		return nil, fmt.Errorf("timed out after %v waiting for socket.io connection", timeout)
	}
}
