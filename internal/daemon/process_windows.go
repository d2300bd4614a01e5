//go:build windows

package daemon

import (
	"errors"
	"fmt"
	"os"
	"syscall"
)

// osProcess on Windows can check and kill but has no sessions, so
// daemonized start fails at Setsid.
type osProcess struct{}

func (osProcess) Pid() int { return os.Getpid() }

func (osProcess) Setsid() error { return errors.ErrUnsupported }

func (osProcess) Umask(mask int) int { return 0 }

func (osProcess) Kill(pid int, sig syscall.Signal) error {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("find process %d: %w", pid, err)
	}
	return proc.Signal(sig)
}

// writable checks that path exists; Windows ACLs aren't inspected.
func writable(path string) error {
	_, err := os.Stat(path)
	return err
}
