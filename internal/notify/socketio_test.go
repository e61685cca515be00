package notify

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/zishang520/socket.io/v2/socket"
)

// newEventServer starts a socket.io server that forwards every run_event
// payload received on namespace to the returned channel.
func newEventServer(t *testing.T, namespace string) (string, <-chan map[string]any) {
	t.Helper()

	payloads := make(chan map[string]any, 8)
	io := socket.NewServer(nil, nil)
	onConnection := func(clients ...any) {
		client := clients[0].(*socket.Socket)
		client.On(EventName, func(args ...any) {
			if len(args) == 0 {
				return
			}
			if p, ok := args[0].(map[string]any); ok {
				select {
				case payloads <- p:
				default:
				}
			}
		})
	}
	if namespace == "" {
		require.NoError(t, io.On("connection", onConnection))
	} else {
		require.NoError(t, io.Of(namespace, nil).On("connection", onConnection))
	}

	srv := httptest.NewServer(io.ServeHandler(nil))
	t.Cleanup(func() {
		io.Close(nil)
		srv.Close()
	})
	return srv.URL + "/socket.io/", payloads
}

func dialForTest(t *testing.T, opts SocketIOOptions) *SocketIO {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	n, err := DialSocketIO(ctx, opts)
	require.NoError(t, err, "dial")
	t.Cleanup(func() { _ = n.Close() })
	return n
}

// deliver notifies until the server has seen one payload; the server may
// still be registering its handlers right after the client connects.
func deliver(t *testing.T, n *SocketIO, ev Event, payloads <-chan map[string]any) map[string]any {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		n.Notify(context.Background(), ev)
		select {
		case p := <-payloads:
			return p
		case <-time.After(100 * time.Millisecond):
		case <-deadline:
			t.Fatal("run_event did not reach the server")
			return nil
		}
	}
}

func TestSocketIO_DefaultNamespaceDeliversEvents(t *testing.T) {
	// --- Arrange ---
	url, payloads := newEventServer(t, "")
	n := dialForTest(t, SocketIOOptions{URL: url})

	// --- Act ---
	p := deliver(t, n, Event{
		RunID:    "r1",
		Project:  "foo",
		Phase:    PhaseFinished,
		ExitCode: 3,
		Duration: 1500 * time.Millisecond,
		Time:     time.Now(),
	}, payloads)

	// --- Assert ---
	require.Equal(t, "r1", p["run_id"])
	require.Equal(t, "foo", p["project"])
	require.Equal(t, PhaseFinished, p["phase"])
	require.EqualValues(t, 3, p["exit_code"])
	require.EqualValues(t, 1500, p["duration_ms"])
}

func TestSocketIO_CustomNamespace(t *testing.T) {
	url, payloads := newEventServer(t, "/runs")
	n := dialForTest(t, SocketIOOptions{URL: url, Namespace: "/runs"})

	p := deliver(t, n, Event{RunID: "r2", Project: "bar", Phase: PhaseFailed, Err: errors.New("uv missing"), Time: time.Now()}, payloads)

	require.Equal(t, "r2", p["run_id"])
	require.Equal(t, PhaseFailed, p["phase"])
	require.Equal(t, "uv missing", p["error"])
}

func TestDialSocketIO_RejectsURLWithoutHost(t *testing.T) {
	t.Parallel()

	_, err := DialSocketIO(context.Background(), SocketIOOptions{URL: "/socket.io/"})

	require.ErrorContains(t, err, "must include scheme and host")
}
