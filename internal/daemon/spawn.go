package daemon

import (
	"context"
	"fmt"
	"os"
	"os/exec"
)

const (
	// ChildEnv marks a process as the detached child of a daemonized start.
	ChildEnv = "PROCD_DAEMON_CHILD"
	// PIDFileEnv passes the parent's resolved PID file path to the child.
	PIDFileEnv = "PROCD_PID_FILE"
)

// Spawner starts the detached copy of the current program and returns its
// PID without waiting for it.
type Spawner interface {
	Spawn(ctx context.Context, env []string) (int, error)
}

// execSpawner re-executes the running binary with the same arguments. The
// child gets no stdio from the parent; it builds its own output.
type execSpawner struct{}

func (execSpawner) Spawn(_ context.Context, env []string) (int, error) {
	executable, err := os.Executable()
	if err != nil {
		return 0, fmt.Errorf("failed to get executable path: %w", err)
	}

	// Not CommandContext: the child must outlive the parent's context.
	cmd := exec.Command(executable, os.Args[1:]...)
	cmd.Env = append(os.Environ(), env...)
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil

	if err := cmd.Start(); err != nil {
		return 0, err
	}
	pid := cmd.Process.Pid
	if err := cmd.Process.Release(); err != nil {
		return pid, fmt.Errorf("release child %d: %w", pid, err)
	}
	return pid, nil
}
