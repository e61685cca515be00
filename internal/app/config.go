package app

import (
	"errors"
	"fmt"
	"slices"
)

// Commands lists every command the App understands.
var Commands = []string{CmdList, CmdRun, CmdExport, CmdSetRoot, CmdInit, CmdShell}

const (
	CmdList    = "list"
	CmdRun     = "run"
	CmdExport  = "export"
	CmdSetRoot = "set-root"
	CmdInit    = "init"
	CmdShell   = "shell"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	Command string
	Args    []string

	ConfigPath string // record path; empty means next to the executable
	Root       string // projects folder for this invocation only
	Tool       string

	LogFormat string
	LogLevel  string

	NotifyURL       string
	NotifyNamespace string
}

func NewConfig(cfg Config) (*Config, error) {
	if cfg.Command == "" {
		cfg.Command = CmdList
	}
	if !slices.Contains(Commands, cfg.Command) {
		return nil, fmt.Errorf("unknown command %q", cfg.Command)
	}

	switch cfg.Command {
	case CmdRun, CmdExport:
		if len(cfg.Args) != 1 {
			return nil, fmt.Errorf("%s requires exactly one app name or number", cfg.Command)
		}
	case CmdSetRoot:
		if len(cfg.Args) != 1 || cfg.Args[0] == "" {
			return nil, errors.New("set-root requires exactly one folder path")
		}
	default:
		if len(cfg.Args) > 0 {
			return nil, fmt.Errorf("%s takes no arguments", cfg.Command)
		}
	}

	return &cfg, nil
}
