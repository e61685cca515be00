package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/vk/pylaunch/internal/app"
	"github.com/vk/pylaunch/internal/cli"
)

// main is the entrypoint for the pylaunch application.
func main() {
	// Use a minimal logger until the full one is configured.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	})))

	os.Exit(exitCode(os.Stderr, run(os.Stdout, os.Stderr, os.Stdin, os.Args[1:])))
}

// run encapsulates the main application logic for easier testing and error handling.
func run(outW, errW io.Writer, inR io.Reader, args []string) error {
	appConfig, shouldExit, err := cli.Parse(args, outW)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	ctx := context.Background()
	launcher, err := app.NewApp(ctx, outW, errW, inR, appConfig)
	if err != nil {
		return fmt.Errorf("startup failed: %w", err)
	}

	runErr := launcher.Run(ctx)
	if err := launcher.Close(); err != nil {
		slog.Debug("Shutdown reported an error.", "error", err)
	}
	return runErr
}

// exitCode maps run's error to a process exit code, printing it unless it
// was already shown.
func exitCode(errW io.Writer, err error) int {
	var (
		exitErr     *cli.ExitError
		statusErr   *app.ExitStatusError
		reportedErr *app.ReportedError
	)
	switch {
	case err == nil:
		return 0
	case errors.As(err, &exitErr):
		if exitErr.Message != "" {
			fmt.Fprintln(errW, exitErr.Message)
		}
		return exitErr.Code
	case errors.As(err, &statusErr):
		return statusErr.Code
	case errors.As(err, &reportedErr):
		return 1
	default:
		fmt.Fprintln(errW, "Error:", err)
		return 1
	}
}
