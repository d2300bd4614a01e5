package background

import (
	"os"
	"time"
)

// Option configures a Runner.
type Option func(*Runner)

// WithWork sets the work function.
func WithWork(fn WorkFunc) Option {
	return func(r *Runner) {
		if fn != nil {
			r.work = fn
		}
	}
}

// WithDelay sets the pause between iterations.
func WithDelay(d time.Duration) Option {
	return func(r *Runner) {
		r.delay = d
	}
}

// WithHooks sets the lifecycle hooks.
func WithHooks(h Hooks) Option {
	return func(r *Runner) {
		r.hooks = h
	}
}

// WithObserver adds an observer. May be given more than once.
func WithObserver(o Observer) Option {
	return func(r *Runner) {
		if o != nil {
			r.observers = append(r.observers, o)
		}
	}
}

// WithSignal adds a callback for sig on top of the defaults.
func WithSignal(sig os.Signal, fn func()) Option {
	return func(r *Runner) {
		r.HandleSignal(sig, fn)
	}
}

// WithSleep replaces the pause implementation.
func WithSleep(fn func(time.Duration)) Option {
	return func(r *Runner) {
		if fn != nil {
			r.sleep = fn
		}
	}
}
