package proc

import (
	"context"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

func requirePOSIXShell(t *testing.T) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
	sh, err := NewOSRunner().LookPath("sh")
	if err != nil {
		t.Skip("sh not available on PATH")
	}
	return sh
}

func TestOSRunner_CapturesStreamsAndExitCode(t *testing.T) {
	t.Parallel()
	sh := requirePOSIXShell(t)

	res, err := NewOSRunner().Run(context.Background(), Command{
		Path: sh,
		Args: []string{"-c", "echo out; echo err 1>&2; exit 3"},
	})

	require.NoError(t, err, "a non-zero exit is not a launch failure")
	require.Equal(t, "out\n", res.Stdout)
	require.Equal(t, "err\n", res.Stderr)
	require.Equal(t, 3, res.ExitCode)
}

func TestOSRunner_UsesWorkingDirectory(t *testing.T) {
	t.Parallel()
	sh := requirePOSIXShell(t)
	dir := t.TempDir()

	res, err := NewOSRunner().Run(context.Background(), Command{
		Path: sh,
		Args: []string{"-c", "touch marker && ls"},
		Dir:  dir,
	})

	require.NoError(t, err)
	require.Equal(t, 0, res.ExitCode)
	require.Contains(t, res.Stdout, "marker")
}

func TestOSRunner_MissingExecutable(t *testing.T) {
	t.Parallel()

	_, err := NewOSRunner().LookPath("definitely-not-a-real-binary-8c1f")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = NewOSRunner().Run(context.Background(), Command{Path: "definitely-not-a-real-binary-8c1f"})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestResult_Combined(t *testing.T) {
	t.Parallel()

	require.Equal(t, "a\nb", Result{Stdout: "a\n", Stderr: "b\n"}.Combined())
	require.Equal(t, "b", Result{Stderr: "b"}.Combined())
	require.Equal(t, "a", Result{Stdout: "a"}.Combined())
}

func TestCommand_String(t *testing.T) {
	t.Parallel()

	require.Equal(t, "uv pip install -r requirements.txt",
		Command{Path: "uv", Args: []string{"pip", "install", "-r", "requirements.txt"}}.String())
	require.Equal(t, "uv", Command{Path: "uv"}.String())
}
