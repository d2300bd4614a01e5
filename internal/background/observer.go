package background

import (
	"os"
	"time"
)

// Observer receives run events. Methods are called on the loop goroutine and
// must not block.
type Observer interface {
	RunStarted(name string)
	IterationFinished(name string, exitCode int, elapsed time.Duration)
	SignalReceived(name string, sig os.Signal)
	RunStopped(name string, reason StopReason, exitCode, iterations int, err error)
}

func (r *Runner) emitStarted() {
	for _, o := range r.observers {
		o.RunStarted(r.name)
	}
}

func (r *Runner) emitIteration(code int, elapsed time.Duration) {
	for _, o := range r.observers {
		o.IterationFinished(r.name, code, elapsed)
	}
}

func (r *Runner) emitSignal(sig os.Signal) {
	for _, o := range r.observers {
		o.SignalReceived(r.name, sig)
	}
}

func (r *Runner) emitStopped(code int, err error) {
	for _, o := range r.observers {
		o.RunStopped(r.name, r.reason, code, r.iterations, err)
	}
}
