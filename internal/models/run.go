package models

import "time"

// RunMode is how a run was started.
type RunMode string

const (
	RunModeForeground RunMode = "foreground"
	RunModeDaemon     RunMode = "daemon"
)

// Run is one journaled execution of a background command, from the first
// iteration until the loop stopped.
type Run struct {
	ID         string
	Command    string
	PID        int
	Mode       RunMode
	StartedAt  time.Time
	StoppedAt  *time.Time
	Iterations int
	ExitCode   int
	Reason     string
	Error      string
}

// Running reports whether the run has not been finished yet.
func (r *Run) Running() bool {
	return r.StoppedAt == nil
}

// Duration is the run's elapsed time, measured to now when still running.
func (r *Run) Duration(now time.Time) time.Duration {
	if r.StoppedAt != nil {
		return r.StoppedAt.Sub(r.StartedAt)
	}
	return now.Sub(r.StartedAt)
}
