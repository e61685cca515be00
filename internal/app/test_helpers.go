package app

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/pylaunch/internal/config"
	"github.com/vk/pylaunch/internal/testutil"
)

// SetupAppTest creates an App for system testing. The config record lives
// in a temporary folder unless appConfig names one, colour is off, and the
// shell reads from input. It returns the App with its result and log buffers.
func SetupAppTest(t *testing.T, appConfig *Config, input io.Reader, opts ...Option) (*App, *testutil.SafeBuffer, *testutil.SafeBuffer) {
	t.Helper()

	if appConfig.ConfigPath == "" {
		appConfig.ConfigPath = filepath.Join(t.TempDir(), config.FileName)
	}
	appConfig.LogLevel = "debug"
	if input == nil {
		input = strings.NewReader("")
	}

	outBuffer := &testutil.SafeBuffer{}
	logBuffer := &testutil.SafeBuffer{}
	opts = append([]Option{WithColor(false)}, opts...)

	testApp, err := NewApp(context.Background(), outBuffer, logBuffer, input, appConfig, opts...)
	require.NoError(t, err, "app setup failed")

	t.Cleanup(func() {
		_ = testApp.Close()
		if os.Getenv("PYLAUNCH_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
		}
	})

	return testApp, outBuffer, logBuffer
}
