package daemon

import (
	"syscall"
)

// Process is the slice of the OS the controller needs: its own identity,
// session creation and signal delivery.
type Process interface {
	Pid() int
	Setsid() error
	Umask(mask int) int
	Kill(pid int, sig syscall.Signal) error
}

// alive sends the zero signal to pid. The check succeeds only if the
// process exists and this process may signal it.
func alive(p Process, pid int) bool {
	return p.Kill(pid, syscall.Signal(0)) == nil
}
