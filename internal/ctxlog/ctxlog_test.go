package ctxlog

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFromContext_ReturnsEmbeddedLogger(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	logger := slog.New(slog.NewTextHandler(buf, nil))
	ctx := WithLogger(context.Background(), logger)

	FromContext(ctx).Info("hello")

	require.Contains(t, buf.String(), "msg=hello")
}

func TestFromContext_FallsBackToDefault(t *testing.T) {
	t.Parallel()

	require.Same(t, slog.Default(), FromContext(context.Background()))
}

func TestDetach_KeepsLoggerDropsCancellation(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	parent, cancel := context.WithCancel(WithLogger(context.Background(), logger))
	detached := Detach(parent)
	cancel()

	require.Error(t, parent.Err())
	require.NoError(t, detached.Err(), "detached context must survive the parent's cancellation")
	require.Same(t, logger, FromContext(detached))
}
