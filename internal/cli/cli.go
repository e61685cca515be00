package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/vk/pylaunch/internal/app"
)

// Environment variables consulted when the matching flag is not given.
const (
	EnvConfig          = "LAUNCHER_CONFIG"
	EnvRoot            = "LAUNCHER_ROOT"
	EnvTool            = "LAUNCHER_TOOL"
	EnvLogLevel        = "LAUNCHER_LOG_LEVEL"
	EnvLogFormat       = "LAUNCHER_LOG_FORMAT"
	EnvNotifyURL       = "LAUNCHER_NOTIFY_URL"
	EnvNotifyNamespace = "LAUNCHER_NOTIFY_NAMESPACE"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse loads an optional .env file from the working directory and then
// parses args against the process environment.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Debug("Ignoring unreadable .env file.", "error", err)
	}
	return ParseWithEnv(args, output, os.Getenv)
}

// ParseWithEnv processes command-line arguments. It returns a populated
// Config, a boolean indicating if the program should exit cleanly, or an
// ExitError. getenv supplies defaults for flags that were not given.
func ParseWithEnv(args []string, output io.Writer, getenv func(string) string) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("pylaunch", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
pylaunch - Run Python apps in isolated, auto-provisioned uv environments.

Usage:
  pylaunch [options] [COMMAND] [ARGS]

Commands:
  list              Show the apps found in the projects folder (default).
  run NAME          Provision and run an app; exits with the app's exit code.
  export NAME       Write run.sh and run.bat launchers into the app folder.
  set-root PATH     Change the projects folder and remember it.
  init              Write a config record listing the analyzer defaults.
  shell             Interactive mode; runs proceed concurrently.

NAME may also be the app's number from 'list'.

Options:
`)
		flagSet.PrintDefaults()
	}

	configFlag := flagSet.String("config", getenv(EnvConfig), "Path to the config record. Defaults to .launcher.hcl next to the executable.")
	rootFlag := flagSet.String("root", getenv(EnvRoot), "Projects folder for this invocation, without saving it.")
	toolFlag := flagSet.String("tool", getenv(EnvTool), "Isolation tool executable.")
	logFormatFlag := flagSet.String("log-format", envOr(getenv, EnvLogFormat, "text"), "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", envOr(getenv, EnvLogLevel, "warn"), "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	notifyURLFlag := flagSet.String("notify-url", getenv(EnvNotifyURL), "socket.io server receiving run events.")
	notifyNSFlag := flagSet.String("notify-namespace", getenv(EnvNotifyNamespace), "socket.io namespace for run events.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	var command string
	var rest []string
	if flagSet.NArg() > 0 {
		command = strings.ToLower(flagSet.Arg(0))
	}
	if flagSet.NArg() > 1 {
		rest = flagSet.Args()[1:]
	}
	if command == "help" {
		flagSet.Usage()
		return nil, true, nil
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}
	slog.Debug("CLI parameter validation complete.")

	config, err := app.NewConfig(app.Config{
		Command:         command,
		Args:            rest,
		ConfigPath:      *configFlag,
		Root:            *rootFlag,
		Tool:            *toolFlag,
		LogFormat:       logFormat,
		LogLevel:        logLevel,
		NotifyURL:       *notifyURLFlag,
		NotifyNamespace: *notifyNSFlag,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "command", config.Command)
	return config, false, nil
}

func envOr(getenv func(string) string, key, def string) string {
	if v := getenv(key); v != "" {
		return v
	}
	return def
}
