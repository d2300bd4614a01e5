// Package metrics exposes background runner activity as Prometheus metrics.
package metrics

import (
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/joescharf/procd/internal/background"
)

const namespace = "procd"

// Collector implements background.Observer and records every event into
// Prometheus metrics labelled by command name.
type Collector struct {
	runsStarted       *prometheus.CounterVec
	runsActive        *prometheus.GaugeVec
	iterations        *prometheus.CounterVec
	iterationDuration *prometheus.HistogramVec
	signals           *prometheus.CounterVec
	stops             *prometheus.CounterVec
	lastExitCode      *prometheus.GaugeVec
}

var _ background.Observer = (*Collector)(nil)

// NewCollectorWithRegistry creates a Collector registered with reg. Each
// run gets its own registry so repeated runs in one process don't collide.
func NewCollectorWithRegistry(reg prometheus.Registerer) *Collector {
	c := &Collector{
		runsStarted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_started_total",
				Help:      "Runs started",
			},
			[]string{"command"},
		),
		runsActive: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "runs_active",
				Help:      "Runs currently looping",
			},
			[]string{"command"},
		),
		iterations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "iterations_total",
				Help:      "Completed work iterations",
			},
			[]string{"command"},
		),
		iterationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "iteration_duration_seconds",
				Help:      "Time spent in one work iteration, excluding the delay",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10},
			},
			[]string{"command"},
		),
		signals: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "signals_received_total",
				Help:      "Signals dispatched to registered callbacks",
			},
			[]string{"command", "signal"},
		),
		stops: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_stopped_total",
				Help:      "Runs stopped, by reason",
			},
			[]string{"command", "reason"},
		),
		lastExitCode: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_exit_code",
				Help:      "Exit code returned by the most recent iteration",
			},
			[]string{"command"},
		),
	}

	reg.MustRegister(
		c.runsStarted,
		c.runsActive,
		c.iterations,
		c.iterationDuration,
		c.signals,
		c.stops,
		c.lastExitCode,
	)
	return c
}

func (c *Collector) RunStarted(name string) {
	c.runsStarted.WithLabelValues(name).Inc()
	c.runsActive.WithLabelValues(name).Inc()
}

func (c *Collector) IterationFinished(name string, exitCode int, elapsed time.Duration) {
	c.iterations.WithLabelValues(name).Inc()
	c.iterationDuration.WithLabelValues(name).Observe(elapsed.Seconds())
	c.lastExitCode.WithLabelValues(name).Set(float64(exitCode))
}

func (c *Collector) SignalReceived(name string, sig os.Signal) {
	c.signals.WithLabelValues(name, signalLabel(sig)).Inc()
}

func (c *Collector) RunStopped(name string, reason background.StopReason, exitCode, iterations int, err error) {
	r := string(reason)
	if r == "" {
		r = "unknown"
	}
	c.stops.WithLabelValues(name, r).Inc()
	c.runsActive.WithLabelValues(name).Dec()
}

func signalLabel(sig os.Signal) string {
	if sig == nil {
		return "unknown"
	}
	return sig.String()
}
