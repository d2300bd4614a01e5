package cmd

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/joescharf/procd/internal/background"
	"github.com/joescharf/procd/internal/console"
	"github.com/joescharf/procd/internal/journal"
	"github.com/joescharf/procd/internal/metrics"
	"github.com/joescharf/procd/internal/models"
	"github.com/joescharf/procd/internal/output"
)

// observability holds the journal recorder and metrics server attached to
// one runner. The metrics server is only started by the process that runs
// the loop, so a daemonizing parent never binds the port.
type observability struct {
	recorder *journal.Recorder
	registry *prometheus.Registry
	addr     string
	server   *metrics.Server
}

// attachObservers registers the journal and metrics observers on r according
// to the journal.enabled and metrics.addr settings. A journal that cannot be
// opened is reported and skipped.
func attachObservers(r *background.Runner, mode models.RunMode, out *output.UI) *observability {
	o := &observability{}

	if viper.GetBool("journal.enabled") {
		s, err := getStore()
		if err != nil {
			out.Warning("Run journal disabled: %v", err)
		} else {
			o.recorder = journal.NewRecorder(s, mode, out)
			r.AddObserver(o.recorder)
		}
	}

	if addr := viper.GetString("metrics.addr"); addr != "" {
		o.addr = addr
		o.registry = prometheus.NewRegistry()
		o.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		r.AddObserver(metrics.NewCollectorWithRegistry(o.registry))
	}

	return o
}

// detached points the journal at the daemon child's output.
func (o *observability) detached(out *output.UI) {
	if o.recorder != nil {
		o.recorder.SetOutput(out)
		o.recorder.SetMode(models.RunModeDaemon)
	}
}

func (o *observability) startMetrics(out *output.UI) {
	if o.registry == nil || o.server != nil {
		return
	}
	srv := metrics.NewServer(o.addr, o.registry, out)
	if err := srv.Start(); err != nil {
		out.Warning("Metrics disabled: %v", err)
		return
	}
	o.server = srv
}

func (o *observability) close() {
	if o.server == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = o.server.Shutdown(ctx)
	o.server = nil
}

// loopHooks are the lifecycle hooks shared by the example commands.
func loopHooks(r *background.Runner, obs func() *observability) background.Hooks {
	return background.Hooks{
		OnStart: func(_ console.Input, out *output.UI) {
			if o := obs(); o != nil {
				o.startMetrics(out)
			}
			out.VerboseLog("Looping every %s.", r.Delay())
		},
		OnShutdown: func(_ console.Input, out *output.UI) {
			out.Info("Stopped after %d iterations.", r.Iterations())
		},
		OnException: func(err error, _ console.Input, out *output.UI) {
			out.Error("Iteration %d failed: %v", r.Iterations(), err)
		},
	}
}

// closeAfterRun wraps cmd.RunE so resources are released on every exit path,
// including errors, where PostRun would be skipped.
func closeAfterRun(cmd *cobra.Command, cleanup func()) {
	run := cmd.RunE
	cmd.RunE = func(c *cobra.Command, args []string) error {
		defer cleanup()
		return run(c, args)
	}
}
