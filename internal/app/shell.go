package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"
)

const (
	shellPrompt = "pylaunch> "
	shellHelp   = `Commands:
  list, ls             show the apps found in the projects folder
  refresh              rescan the projects folder and show the apps
  run NAME|NUMBER      start an app; its output is shown when it finishes
  export NAME|NUMBER   write run.sh and run.bat launchers into the app folder
  root [PATH]          show or change the projects folder
  help                 show this help
  quit, exit           wait for running apps and leave
`
)

// Shell reads commands from the App's input until quit or end of input.
// Runs started from the shell proceed concurrently and report as they
// finish; leaving the shell waits for all of them.
func (a *App) Shell(ctx context.Context) error {
	a.setAnnounce(true)
	defer a.setAnnounce(false)

	interactive := isTerminal(a.inR)
	a.write(a.renderCatalog(a.refresh(ctx)))
	a.write("\nType 'help' for commands.\n")

	started := make(map[string]struct{})
	input := bufio.NewScanner(a.inR)
	for ctx.Err() == nil {
		if interactive {
			a.write(shellPrompt)
		}
		if !input.Scan() {
			break
		}
		quit, err := a.shellCommand(ctx, input.Text(), started)
		if err != nil {
			a.write(fmt.Sprintf("Error: %v\n", err))
		}
		if quit {
			break
		}
	}

	if n := a.supervisor.InFlight(); n > 0 {
		a.write(fmt.Sprintf("Waiting for %d running app(s) to finish...\n", n))
	}
	a.supervisor.Wait()
	return input.Err()
}

func (a *App) shellCommand(ctx context.Context, line string, started map[string]struct{}) (quit bool, err error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]
	a.logger.Debug("Shell command received.", "command", cmd, "args", args)

	switch cmd {
	case "quit", "exit", "q":
		return true, nil
	case "help", "?":
		a.write(shellHelp)
	case "list", "ls":
		a.mu.Lock()
		cat := a.catalog
		a.mu.Unlock()
		a.write(a.renderCatalog(cat))
	case "refresh":
		a.write(a.renderCatalog(a.refresh(ctx)))
	case "run":
		if len(args) != 1 {
			return false, errors.New("usage: run NAME|NUMBER")
		}
		d, err := a.lookup(ctx, args[0])
		if err != nil {
			return false, err
		}
		h := a.supervisor.Start(ctx, d)
		if _, dup := started[h.ID]; dup {
			a.write(fmt.Sprintf("%s is already running; its result will be shown once.\n", d.Name))
			return false, nil
		}
		started[h.ID] = struct{}{}
		a.write(fmt.Sprintf("Running %s...\n", d.Name))
	case "export":
		if len(args) != 1 {
			return false, errors.New("usage: export NAME|NUMBER")
		}
		return false, a.export(ctx, args[0])
	case "root":
		if len(args) == 0 {
			a.write(fmt.Sprintf("Projects folder: %s\n", a.Root()))
			return false, nil
		}
		if err := a.setRoot(ctx, strings.Join(args, " ")); err != nil {
			return false, err
		}
		a.write(a.renderCatalog(a.refresh(ctx)))
	default:
		return false, fmt.Errorf("unknown command %q (type 'help')", cmd)
	}
	return false, nil
}

func (a *App) setAnnounce(on bool) {
	a.mu.Lock()
	a.announce = on
	a.mu.Unlock()
}
