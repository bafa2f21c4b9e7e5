// Package metrics provides Prometheus instrumentation for the runtime
// session engine.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels for executed commands.
const (
	OutcomeOK      = "ok"
	OutcomeFailed  = "failed"
	OutcomeTimeout = "timeout"
)

// Collector bundles the engine's metrics. A nil *Collector is valid and
// records nothing, so components can be wired without metrics in tests.
type Collector struct {
	commandsTotal   *prometheus.CounterVec
	commandDuration *prometheus.HistogramVec
	sessionsActive  prometheus.Gauge
	sessionsStarted prometheus.Counter
	idleReapsTotal  prometheus.Counter
}

// NewCollector registers the engine metrics with the default registerer.
func NewCollector() *Collector {
	return NewCollectorWithRegistry(prometheus.DefaultRegisterer)
}

// NewCollectorWithRegistry registers the engine metrics with the given
// registerer. Tests pass a fresh prometheus.NewRegistry.
func NewCollectorWithRegistry(registry prometheus.Registerer) *Collector {
	c := &Collector{
		commandsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "runpad_commands_total",
				Help: "Commands executed, by language and outcome",
			},
			[]string{"language", "outcome"},
		),
		commandDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "runpad_command_duration_seconds",
				Help:    "Wall-clock command execution time",
				Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
			},
			[]string{"language"},
		),
		sessionsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "runpad_sessions_active",
				Help: "Currently live runtime sessions",
			},
		),
		sessionsStarted: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "runpad_sessions_started_total",
				Help: "Runtime sessions created",
			},
		),
		idleReapsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "runpad_session_idle_reaps_total",
				Help: "Sessions terminated by the idle watchdog",
			},
		),
	}

	registry.MustRegister(
		c.commandsTotal,
		c.commandDuration,
		c.sessionsActive,
		c.sessionsStarted,
		c.idleReapsTotal,
	)
	return c
}

// ObserveCommand records one executed command.
func (c *Collector) ObserveCommand(language, outcome string, duration time.Duration) {
	if c == nil {
		return
	}
	c.commandsTotal.WithLabelValues(language, outcome).Inc()
	c.commandDuration.WithLabelValues(language).Observe(duration.Seconds())
}

// SessionStarted records a new live session.
func (c *Collector) SessionStarted() {
	if c == nil {
		return
	}
	c.sessionsStarted.Inc()
	c.sessionsActive.Inc()
}

// SessionEnded records a session leaving the registry.
func (c *Collector) SessionEnded() {
	if c == nil {
		return
	}
	c.sessionsActive.Dec()
}

// SessionIdleReaped records a watchdog-triggered termination.
func (c *Collector) SessionIdleReaped() {
	if c == nil {
		return
	}
	c.idleReapsTotal.Inc()
}
