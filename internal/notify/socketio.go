package notify

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/url"
	"time"

	"github.com/vk/pylaunch/internal/ctxlog"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

// EventName is the socket.io event every run event is emitted under.
const EventName = "run_event"

// DialTimeout bounds the wait for the initial connection.
const DialTimeout = 15 * time.Second

// SocketIOOptions configures the socket.io notifier. An empty Namespace
// means the main namespace "/".
type SocketIOOptions struct {
	URL                string
	Namespace          string
	InsecureSkipVerify bool
}

// SocketIO emits run events to a socket.io server.
type SocketIO struct {
	client *socket.Socket
}

// DialSocketIO connects to the server and waits for the connect event.
func DialSocketIO(ctx context.Context, opts SocketIOOptions) (*SocketIO, error) {
	logger := ctxlog.FromContext(ctx).With("notifier", "socketio", "url", opts.URL)
	logger.Debug("Connecting notifier...")

	parsedURL, err := url.Parse(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse notify URL: %w", err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, fmt.Errorf("notify URL %q must include scheme and host", opts.URL)
	}

	sopts := socket.DefaultOptions()
	if parsedURL.Path != "" {
		sopts.SetPath(parsedURL.Path)
	}
	if opts.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		sopts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	sopts.SetTransports(types.NewSet(transports.WebSocket))

	connectChan := make(chan error, 1)

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	manager := socket.NewManager(baseURL, sopts)
	namespace := opts.Namespace
	if namespace == "" {
		namespace = "/"
	}
	io := manager.Socket(namespace, sopts)

	io.Once(types.EventName("connect"), func(...any) {
		logger.Info("Notifier connected", "sid", io.Id())
		connectChan <- nil
	})
	io.Once(types.EventName("connect_error"), func(errs ...any) {
		var cerr error = fmt.Errorf("connect_error")
		if len(errs) > 0 {
			if e, ok := errs[0].(error); ok {
				cerr = e
			}
		}
		connectChan <- cerr
	})

	io.Connect()

	select {
	case err := <-connectChan:
		if err != nil {
			io.Disconnect()
			return nil, fmt.Errorf("socket.io connection failed: %w", err)
		}
		return &SocketIO{client: io}, nil
	case <-ctx.Done():
		io.Disconnect()
		return nil, fmt.Errorf("context cancelled while waiting for socket.io connection")
	case <-time.After(DialTimeout):
		io.Disconnect()
		return nil, fmt.Errorf("timed out after %s waiting for socket.io connection", DialTimeout)
	}
}

// Notify implements Notifier. Events emitted while disconnected are dropped.
func (s *SocketIO) Notify(ctx context.Context, ev Event) {
	if s == nil || s.client == nil {
		return
	}
	if !s.client.Connected() {
		ctxlog.FromContext(ctx).Warn("Notifier disconnected, dropping event.", "run_id", ev.RunID, "phase", ev.Phase)
		return
	}
	s.client.Emit(EventName, ev.Payload())
}

// Close disconnects from the server.
func (s *SocketIO) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	s.client.Disconnect()
	return nil
}
