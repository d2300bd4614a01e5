//go:build !windows

package daemon

import (
	"os"
	"syscall"

	"golang.org/x/sys/unix"
)

// osProcess is the real Process backed by x/sys/unix.
type osProcess struct{}

func (osProcess) Pid() int { return os.Getpid() }

func (osProcess) Setsid() error {
	_, err := unix.Setsid()
	return err
}

func (osProcess) Umask(mask int) int { return unix.Umask(mask) }

func (osProcess) Kill(pid int, sig syscall.Signal) error {
	return unix.Kill(pid, sig)
}

// writable reports whether path can be written by this process.
func writable(path string) error {
	return unix.Access(path, unix.W_OK)
}
