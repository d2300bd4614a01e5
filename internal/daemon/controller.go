// Package daemon turns a background.Runner into a start/stop/status daemon:
// detaching into a new session, tracking the running instance in a PID file,
// and stopping it with SIGTERM from another invocation.
package daemon

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/joescharf/procd/internal/background"
	"github.com/joescharf/procd/internal/console"
	"github.com/joescharf/procd/internal/output"
)

// Input names the controller reads.
const (
	ArgAction    = "action"
	OptPIDFile   = "pid-file"
	OptDaemonize = "daemonize"
	OptChildLog  = "child-log"
)

// DefaultPollInterval is the spacing of liveness checks while stopping.
const DefaultPollInterval = 500 * time.Millisecond

// Hooks are optional callbacks around daemonization. Nil hooks are skipped.
// ChildOutput, when set, replaces the default child sink (discard, or the
// --child-log file); the returned Closer may be nil.
type Hooks struct {
	BeforeDaemonize      func(in console.Input, out *output.UI)
	AfterDaemonizeParent func(in console.Input, out *output.UI)
	AfterDaemonizeChild  func(in console.Input, out *output.UI)
	ChildOutput          func(in console.Input, parent *output.UI) (*output.UI, io.Closer, error)
}

// Controller runs a background.Runner behind the start, stop and status
// actions.
type Controller struct {
	runner       *background.Runner
	hooks        Hooks
	proc         Process
	spawner      Spawner
	pollInterval time.Duration

	getwd     func() (string, error)
	lookupEnv func(string) (string, bool)
	unsetenv  func(string) error
	sleep     func(ctx context.Context, d time.Duration) error
}

// Option configures a Controller.
type Option func(*Controller)

// WithHooks sets the daemonization hooks.
func WithHooks(h Hooks) Option {
	return func(c *Controller) { c.hooks = h }
}

// WithProcess replaces the OS process primitives.
func WithProcess(p Process) Option {
	return func(c *Controller) { c.proc = p }
}

// WithSpawner replaces how the detached child is started.
func WithSpawner(s Spawner) Option {
	return func(c *Controller) { c.spawner = s }
}

// WithPollInterval sets the spacing of liveness checks during stop.
func WithPollInterval(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.pollInterval = d
		}
	}
}

// WithGetwd replaces the working directory lookup used for default PID paths.
func WithGetwd(fn func() (string, error)) Option {
	return func(c *Controller) { c.getwd = fn }
}

// New creates a Controller around runner.
func New(runner *background.Runner, opts ...Option) *Controller {
	c := &Controller{
		runner:       runner,
		proc:         osProcess{},
		spawner:      execSpawner{},
		pollInterval: DefaultPollInterval,
		getwd:        os.Getwd,
		lookupEnv:    os.LookupEnv,
		unsetenv:     os.Unsetenv,
		sleep:        sleepContext,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetPollInterval changes the spacing of liveness checks during stop.
// Non-positive values are ignored.
func (c *Controller) SetPollInterval(d time.Duration) {
	if d > 0 {
		c.pollInterval = d
	}
}

// SetHooks replaces the daemonization hooks.
func (c *Controller) SetHooks(h Hooks) { c.hooks = h }

// Runner returns the wrapped runner.
func (c *Controller) Runner() *background.Runner { return c.runner }

// Execute parses the action argument and performs it. An invalid action is
// rejected before any file or process is touched.
func (c *Controller) Execute(ctx context.Context, in console.Input, out *output.UI) (int, error) {
	action, err := ParseAction(in.Argument(ArgAction))
	if err != nil {
		return 0, err
	}

	switch action {
	case Start:
		return c.start(ctx, in, out)
	case Stop:
		return c.stop(ctx, in, out)
	default:
		return c.status(in, out)
	}
}

// PIDFilePath resolves the PID file: --pid-file if given, otherwise
// <cwd>/<command-name>.pid.
func (c *Controller) PIDFilePath(in console.Input) (string, error) {
	if path := in.Option(OptPIDFile); path != "" {
		return path, nil
	}
	wd, err := c.getwd()
	if err != nil {
		return "", fmt.Errorf("resolve working directory: %w", err)
	}
	return filepath.Join(wd, PIDFileName(c.runner.Name())), nil
}

func (c *Controller) isChild() bool {
	v, ok := c.lookupEnv(ChildEnv)
	return ok && v == "1"
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
