// Package background runs a unit of work repeatedly on a fixed cadence until
// it is told to stop, either by the work itself, by a positive exit code or
// by a signal. Signals are only acted on between iterations.
package background

import (
	"context"
	"os"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/joescharf/procd/internal/console"
	"github.com/joescharf/procd/internal/output"
)

// DefaultDelay is the pause between iterations.
const DefaultDelay = 500 * time.Millisecond

// WorkFunc is one iteration of work. A positive code stops the loop and
// becomes the command's exit status; 0 (or negative) continues. A non-nil
// error stops the loop and is returned from Run.
type WorkFunc func(ctx context.Context, in console.Input, out *output.UI) (int, error)

// Hooks are optional lifecycle callbacks. Nil hooks are skipped.
type Hooks struct {
	OnStart     func(in console.Input, out *output.UI)
	OnShutdown  func(in console.Input, out *output.UI)
	OnException func(err error, in console.Input, out *output.UI)
}

// StopReason records why a run ended.
type StopReason string

const (
	ReasonNone     StopReason = ""
	ReasonExitCode StopReason = "exit-code"
	ReasonSignal   StopReason = "signal"
	ReasonShutdown StopReason = "shutdown"
	ReasonError    StopReason = "error"
)

// Runner drives a WorkFunc until shut down. A Runner is single-use per
// process: once Shutdown is called it never runs again.
type Runner struct {
	name  string
	work  WorkFunc
	delay time.Duration
	hooks Hooks

	observers []Observer
	signals   *signalTable

	running    atomic.Bool
	inSignal   bool
	iterations int
	reason     StopReason

	sleep  func(time.Duration)
	notify func(c chan<- os.Signal, sig ...os.Signal)
	stop   func(c chan<- os.Signal)
}

// New creates a Runner with a no-op work function, DefaultDelay, and
// SIGTERM/SIGINT bound to Shutdown.
func New(name string, opts ...Option) *Runner {
	r := &Runner{
		name:    name,
		work:    noop,
		delay:   DefaultDelay,
		signals: newSignalTable(),
		sleep:   time.Sleep,
		notify:  signalNotify,
		stop:    signalStop,
	}
	r.running.Store(true)
	r.HandleSignal(syscall.SIGTERM, r.Shutdown)
	r.HandleSignal(syscall.SIGINT, r.Shutdown)

	for _, opt := range opts {
		opt(r)
	}
	return r
}

func noop(context.Context, console.Input, *output.UI) (int, error) { return 0, nil }

// Name returns the command name the runner was created with.
func (r *Runner) Name() string { return r.name }

// Delay returns the pause between iterations.
func (r *Runner) Delay() time.Duration { return r.delay }

// Configure replaces the work function and, if given, the delay.
func (r *Runner) Configure(work WorkFunc, delay ...time.Duration) {
	if work != nil {
		r.work = work
	}
	if len(delay) > 0 {
		r.delay = delay[0]
	}
}

// SetHooks replaces the lifecycle hooks.
func (r *Runner) SetHooks(h Hooks) { r.hooks = h }

// AddObserver registers an observer for run events.
func (r *Runner) AddObserver(o Observer) { r.observers = append(r.observers, o) }

// HandleSignal adds fn to the callbacks for sig. Callbacks for the same
// signal fire in registration order.
func (r *Runner) HandleSignal(sig os.Signal, fn func()) {
	r.signals.add(sig, fn)
}

// Shutdown stops the loop before its next iteration. Safe to call from the
// work function, a signal callback or a hook, and more than once.
func (r *Runner) Shutdown() {
	if r.inSignal {
		r.stopWith(ReasonSignal)
		return
	}
	r.stopWith(ReasonShutdown)
}

func (r *Runner) stopWith(reason StopReason) {
	if r.running.CompareAndSwap(true, false) {
		r.reason = reason
	}
}

// Running reports whether the loop will run another iteration.
func (r *Runner) Running() bool { return r.running.Load() }

// Iterations returns how many times the work function has been called.
func (r *Runner) Iterations() int { return r.iterations }

// StopReason returns why the loop stopped, or ReasonNone while running.
func (r *Runner) StopReason() StopReason { return r.reason }

// Run executes the loop. OnStart fires once before the first iteration and
// OnShutdown once after the loop ends on a positive exit code, a Shutdown
// call or a signal. When the work function returns an error the runner
// shuts down, calls OnException and returns the error without OnShutdown.
func (r *Runner) Run(ctx context.Context, in console.Input, out *output.UI) (int, error) {
	sigCh := r.subscribe()
	defer r.unsubscribe(sigCh)
	out.VerboseLog("Background signal handlers registered.")

	r.emitStarted()
	if r.hooks.OnStart != nil {
		r.hooks.OnStart(in, out)
	}

	exitCode := 0
	for r.Running() {
		started := time.Now()
		code, err := r.work(ctx, in, out)
		r.iterations++
		r.emitIteration(code, time.Since(started))

		if err != nil {
			r.running.Store(false)
			r.reason = ReasonError
			if r.hooks.OnException != nil {
				r.hooks.OnException(err, in, out)
			}
			r.emitStopped(code, err)
			return code, err
		}

		exitCode = code
		if code > 0 {
			r.stopWith(ReasonExitCode)
			break
		}

		r.dispatch(sigCh, out)
		r.sleep(r.delay)
	}

	out.VerboseLog("Background process shutting down.")
	if r.hooks.OnShutdown != nil {
		r.hooks.OnShutdown(in, out)
	}
	r.emitStopped(exitCode, nil)
	return exitCode, nil
}
