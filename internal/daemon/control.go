package daemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"syscall"

	"github.com/joescharf/procd/internal/console"
	"github.com/joescharf/procd/internal/output"
)

// stop sends SIGTERM to the PID in the PID file and waits until the zero
// signal check fails. TERM is sent once and not repeated on every poll.
// The wait has no timeout; only ctx cancellation ends it early. A process
// that is already gone counts as stopped.
func (c *Controller) stop(ctx context.Context, in console.Input, out *output.UI) (int, error) {
	path, err := c.PIDFilePath(in)
	if err != nil {
		return 0, err
	}
	pf := NewPIDFile(path)

	pid, err := pf.Signal(c.proc, syscall.SIGTERM)
	switch {
	case errors.Is(err, ErrInvalidPID):
		out.Warning("PID file '%s' does not contain a valid PID.", pf.Path)
		return 0, nil
	case err != nil && pid == 0:
		return 0, fmt.Errorf("%w '%s': %w", ErrPIDFileMissing, pf.Path, err)
	case err != nil && !processGone(err):
		return 0, fmt.Errorf("failed to signal process %d: %w", pid, err)
	}
	out.VerboseLog("Sent %s to process %d.", syscall.SIGTERM, pid)

	for {
		if err := c.sleep(ctx, c.pollInterval); err != nil {
			return 0, fmt.Errorf("waiting for process %d to exit: %w", pid, err)
		}
		if !alive(c.proc, pid) {
			break
		}
		out.VerboseLog("Process %d still running.", pid)
	}

	if pf.Exists() {
		if err := pf.Remove(); err != nil {
			out.Warning("Failed to remove stale PID file '%s': %v", pf.Path, err)
		} else {
			out.VerboseLog("Removed stale PID file '%s'.", pf.Path)
		}
	}

	out.Success("Stopped (PID: %d)", pid)
	return 0, nil
}

// status reports whether the process named by the PID file is alive. It
// never fails because the process is gone.
func (c *Controller) status(in console.Input, out *output.UI) (int, error) {
	path, err := c.PIDFilePath(in)
	if err != nil {
		return 0, err
	}
	pf := NewPIDFile(path)

	if !pf.Exists() {
		out.Println("Not running")
		c.statusTable(out, pf, 0, "not running")
		return 0, nil
	}

	pid, running, err := pf.IsRunning(c.proc)
	if err != nil {
		if errors.Is(err, ErrInvalidPID) {
			out.Warning("PID file '%s' does not contain a valid PID.", pf.Path)
		} else {
			out.Warning("PID file exists but is not readable.")
		}
	}

	if running {
		out.Println("Running (PID: %d)", pid)
		c.statusTable(out, pf, pid, "running")
		return 0, nil
	}

	out.Println("Not running")
	c.statusTable(out, pf, pid, "stale")
	return 0, nil
}

func (c *Controller) statusTable(out *output.UI, pf *PIDFile, pid int, state string) {
	if !out.Verbose || out.Quiet {
		return
	}
	pidCell := "-"
	if pid > 0 {
		pidCell = strconv.Itoa(pid)
	}
	table := out.Table([]string{"Command", "PID File", "PID", "State"})
	table.Append([]string{c.runner.Name(), pf.Path, pidCell, output.StateColor(state)})
	if err := table.Render(); err != nil {
		out.Warning("Failed to render status table: %v", err)
	}
}

func processGone(err error) bool {
	return errors.Is(err, syscall.ESRCH) || errors.Is(err, os.ErrProcessDone)
}
