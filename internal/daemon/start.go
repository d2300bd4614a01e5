package daemon

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/joescharf/procd/internal/console"
	"github.com/joescharf/procd/internal/output"
)

func (c *Controller) start(ctx context.Context, in console.Input, out *output.UI) (int, error) {
	if !in.Flag(OptDaemonize) {
		return c.runLoop(ctx, in, out)
	}
	if c.isChild() {
		return c.startChild(ctx, in, out)
	}
	return c.startParent(ctx, in, out)
}

// startParent validates everything the child will need, spawns it and
// returns. The parent never runs the loop.
func (c *Controller) startParent(ctx context.Context, in console.Input, out *output.UI) (int, error) {
	path, err := c.PIDFilePath(in)
	if err != nil {
		return 0, err
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}

	pf := NewPIDFile(path)
	if pf.Exists() {
		return 0, fmt.Errorf("%w: '%s'", ErrPIDFileExists, pf.Path)
	}
	if err := pf.checkWritableDir(); err != nil {
		return 0, err
	}
	if logPath := in.Option(OptChildLog); logPath != "" {
		if err := validateChildLog(logPath); err != nil {
			return 0, err
		}
	}

	if c.hooks.BeforeDaemonize != nil {
		c.hooks.BeforeDaemonize(in, out)
	}

	pid, err := c.spawner.Spawn(ctx, []string{ChildEnv + "=1", PIDFileEnv + "=" + pf.Path})
	if err != nil {
		return 0, fmt.Errorf("failed to fork the daemon: %w", err)
	}

	out.VerboseLog("Spawned child process %d.", pid)
	out.VerboseLog("Parent process completing.")
	if c.hooks.AfterDaemonizeParent != nil {
		c.hooks.AfterDaemonizeParent(in, out)
	}
	return 0, nil
}

// startChild runs in the re-executed child: new session, own input and
// output, PID file for the lifetime of the loop.
func (c *Controller) startChild(ctx context.Context, in console.Input, out *output.UI) (int, error) {
	path, ok := c.lookupEnv(PIDFileEnv)
	if !ok || path == "" {
		resolved, err := c.PIDFilePath(in)
		if err != nil {
			return 0, err
		}
		path = resolved
	}
	_ = c.unsetenv(ChildEnv)
	_ = c.unsetenv(PIDFileEnv)

	c.proc.Umask(0)
	if err := c.proc.Setsid(); err != nil {
		return 0, fmt.Errorf("failed to become a daemon: %w", err)
	}

	in = in.Clone()
	childOut, closer, err := c.childOutput(in, out)
	if err != nil {
		return 0, err
	}
	if closer != nil {
		defer closer.Close()
	}

	childOut.VerboseLog("Child process forked.")
	if c.hooks.AfterDaemonizeChild != nil {
		c.hooks.AfterDaemonizeChild(in, childOut)
	}

	pf := NewPIDFile(path)
	if err := pf.Create(c.proc.Pid()); err != nil {
		return 0, err
	}
	defer func() {
		if rmErr := pf.Remove(); rmErr != nil {
			childOut.Warning("Failed to remove PID file '%s': %v", pf.Path, rmErr)
		}
	}()
	childOut.VerboseLog("PID file written to '%s'.", pf.Path)

	return c.runLoop(ctx, in, childOut)
}

func (c *Controller) runLoop(ctx context.Context, in console.Input, out *output.UI) (int, error) {
	out.VerboseLog("Daemon executing main process.")
	code, err := c.runner.Run(ctx, in, out)
	if err != nil {
		return code, err
	}
	out.VerboseLog("Daemon process shutting down.")
	return code, nil
}

// childOutput builds the child's sink. It never shares the parent's writers.
func (c *Controller) childOutput(in console.Input, parent *output.UI) (*output.UI, io.Closer, error) {
	if c.hooks.ChildOutput != nil {
		return c.hooks.ChildOutput(in, parent)
	}
	return DefaultChildOutput(in, parent)
}

// DefaultChildOutput discards everything unless --child-log names a file,
// in which case output is appended there. Verbosity follows the parent.
func DefaultChildOutput(in console.Input, parent *output.UI) (*output.UI, io.Closer, error) {
	logPath := in.Option(OptChildLog)
	if logPath == "" {
		return parent.Child(io.Discard), nil, nil
	}
	if err := validateChildLog(logPath); err != nil {
		return nil, nil, err
	}
	fileUI, f, err := output.NewFile(logPath)
	if err != nil {
		return nil, nil, err
	}
	return parent.Child(fileUI.Out), f, nil
}

// validateChildLog accepts an existing writable regular file, or a missing
// file whose directory is writable.
func validateChildLog(path string) error {
	info, err := os.Stat(path)
	switch {
	case err == nil:
		if !info.Mode().IsRegular() {
			return fmt.Errorf("child log '%s' is not a regular file: %w", path, ErrNotWritable)
		}
		if err := writable(path); err != nil {
			return fmt.Errorf("cannot write to child log '%s': %w", path, ErrNotWritable)
		}
		return nil
	case errors.Is(err, os.ErrNotExist):
		if err := writable(filepath.Dir(path)); err != nil {
			return fmt.Errorf("cannot create child log '%s': %w", path, ErrNotWritable)
		}
		return nil
	default:
		return fmt.Errorf("check child log '%s': %w", path, err)
	}
}
