package daemon

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
)

var (
	// ErrPIDFileExists is returned when starting over an existing PID file.
	ErrPIDFileExists = errors.New("PID file already exists")
	// ErrPIDFileMissing is returned by stop when there is no PID file to read.
	ErrPIDFileMissing = errors.New("PID file doesn't exist")
	// ErrNotWritable is returned when a PID or log file location can't be written.
	ErrNotWritable = errors.New("not writable")
	// ErrInvalidPID is returned when the PID file holds something other than a number.
	ErrInvalidPID = errors.New("invalid PID file content")
)

// PIDFile manages a PID file for daemon process tracking.
type PIDFile struct {
	Path string
}

// NewPIDFile creates a PIDFile manager for the given path.
func NewPIDFile(path string) *PIDFile {
	return &PIDFile{Path: path}
}

// PIDFileName derives the default PID file name for a command:
// lower-cased, spaces replaced by dashes, with a .pid suffix.
func PIDFileName(command string) string {
	return strings.ReplaceAll(strings.ToLower(command), " ", "-") + ".pid"
}

// Exists reports whether something is present at the PID file path.
func (p *PIDFile) Exists() bool {
	_, err := os.Lstat(p.Path)
	return err == nil
}

// Create writes pid to a file that must not already exist. Two daemons
// racing for the same path can't both succeed.
func (p *PIDFile) Create(pid int) error {
	f, err := os.OpenFile(p.Path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%w: '%s'", ErrPIDFileExists, p.Path)
		}
		return fmt.Errorf("failed to write PID file '%s': %w", p.Path, err)
	}
	if _, err := f.WriteString(strconv.Itoa(pid) + "\n"); err != nil {
		_ = f.Close()
		_ = os.Remove(p.Path)
		return fmt.Errorf("failed to write PID file '%s': %w", p.Path, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(p.Path)
		return fmt.Errorf("failed to write PID file '%s': %w", p.Path, err)
	}
	return nil
}

// Read reads the PID from the file. Anything but a positive integer is
// ErrInvalidPID: signalling 0 or a negative PID would reach a whole process
// group.
func (p *PIDFile) Read() (int, error) {
	data, err := os.ReadFile(p.Path)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidPID, err)
	}
	if pid <= 0 {
		return 0, fmt.Errorf("%w: non-positive PID %d", ErrInvalidPID, pid)
	}
	return pid, nil
}

// IsRunning reads the PID and checks it with the zero signal. A read
// error is returned as is and the process counts as not running.
func (p *PIDFile) IsRunning(proc Process) (int, bool, error) {
	pid, err := p.Read()
	if err != nil {
		return 0, false, err
	}
	return pid, alive(proc, pid), nil
}

// Signal sends sig to the PID in the file and returns that PID. Read
// errors come back with a zero PID; a failed delivery comes back with the
// PID it was meant for.
func (p *PIDFile) Signal(proc Process, sig syscall.Signal) (int, error) {
	pid, err := p.Read()
	if err != nil {
		return 0, err
	}
	if err := proc.Kill(pid, sig); err != nil {
		return pid, err
	}
	return pid, nil
}

// Remove deletes the PID file. A file that is already gone is not an error.
func (p *PIDFile) Remove() error {
	err := os.Remove(p.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// checkWritableDir reports an error unless the PID file's directory exists
// and is writable by this process.
func (p *PIDFile) checkWritableDir() error {
	dir := filepath.Dir(p.Path)
	if err := writable(dir); err != nil {
		return fmt.Errorf("cannot write to PID file '%s': %w", p.Path, ErrNotWritable)
	}
	return nil
}
