// Package journal records background runs into the run store.
package journal

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/joescharf/procd/internal/background"
	"github.com/joescharf/procd/internal/models"
	"github.com/joescharf/procd/internal/output"
	"github.com/joescharf/procd/internal/store"
)

const writeTimeout = 5 * time.Second

// Recorder is a background.Observer that opens a run record when a loop
// starts and finishes it when the loop stops. Store failures are reported
// as warnings and never interrupt the loop.
type Recorder struct {
	store store.Store
	mode  models.RunMode
	ui    *output.UI
	pid   func() int

	mu   sync.Mutex
	runs map[string]*models.Run
}

var _ background.Observer = (*Recorder)(nil)

// NewRecorder creates a Recorder writing to s. ui receives warnings.
func NewRecorder(s store.Store, mode models.RunMode, ui *output.UI) *Recorder {
	return &Recorder{
		store: s,
		mode:  mode,
		ui:    ui,
		pid:   os.Getpid,
		runs:  make(map[string]*models.Run),
	}
}

// SetOutput redirects warnings, e.g. to a daemon child's sink.
func (r *Recorder) SetOutput(ui *output.UI) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ui = ui
}

// SetMode changes the mode recorded for runs started after the call.
func (r *Recorder) SetMode(mode models.RunMode) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mode = mode
}

// Current returns the open run for name, if any.
func (r *Recorder) Current(name string) (*models.Run, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	run, ok := r.runs[name]
	return run, ok
}

func (r *Recorder) RunStarted(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	run := &models.Run{Command: name, PID: r.pid(), Mode: r.mode}
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if err := r.store.CreateRun(ctx, run); err != nil {
		r.ui.Warning("Failed to record run start: %v", err)
		return
	}
	r.runs[name] = run
	r.ui.VerboseLog("Recorded run %s.", run.ID)
}

func (r *Recorder) IterationFinished(name string, exitCode int, elapsed time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if run, ok := r.runs[name]; ok {
		run.Iterations++
		run.ExitCode = exitCode
	}
}

func (r *Recorder) SignalReceived(string, os.Signal) {}

func (r *Recorder) RunStopped(name string, reason background.StopReason, exitCode, iterations int, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	run, ok := r.runs[name]
	if !ok {
		return
	}
	delete(r.runs, name)

	run.Iterations = iterations
	run.ExitCode = exitCode
	run.Reason = string(reason)
	if err != nil {
		run.Error = err.Error()
	}

	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if ferr := r.store.FinishRun(ctx, run); ferr != nil {
		r.ui.Warning("Failed to record run %s: %v", run.ID, ferr)
	}
}
