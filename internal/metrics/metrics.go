package metrics

import (
	"errors"
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Package-level Prometheus collectors. They are registered via Register.
var (
	regOK atomic.Bool

	cycles = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "dormant",
			Subsystem: "monitor",
			Name:      "cycles_total",
			Help:      "Number of completed decision cycles.",
		},
	)
	transitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dormant",
			Subsystem: "monitor",
			Name:      "transitions_total",
			Help:      "Number of confirmed suspend/resume transitions.",
		}, []string{"action"},
	)
	signalFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dormant",
			Subsystem: "monitor",
			Name:      "signal_failures_total",
			Help:      "Number of suspend/resume attempts the OS rejected.",
		}, []string{"action"},
	)
	runState = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "dormant",
			Subsystem: "monitor",
			Name:      "run_state",
			Help:      "Persisted run state (1 = active, 0 = suspended).",
		},
	)
	idleSeconds = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "dormant",
			Subsystem: "monitor",
			Name:      "idle_seconds",
			Help:      "Seconds since activity was last observed.",
		},
	)
	probeActive = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "dormant",
			Subsystem: "probe",
			Name:      "active",
			Help:      "Last observation per probe (1 = activity observed).",
		}, []string{"probe"},
	)
)

// Register registers all metrics with the provided registerer.
// It is safe to call multiple times; subsequent calls after success are no-ops.
func Register(r prometheus.Registerer) error {
	if regOK.Load() {
		return nil
	}
	cs := []prometheus.Collector{cycles, transitions, signalFailures, runState, idleSeconds, probeActive}
	for _, c := range cs {
		if err := r.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	regOK.Store(true)
	return nil
}

// Handler returns an http.Handler serving Prometheus metrics for the
// DefaultGatherer. The caller wires it into a server.
func Handler() http.Handler { return promhttp.Handler() }

func IncCycle() { cycles.Inc() }

func IncTransition(action string) { transitions.WithLabelValues(action).Inc() }

func IncSignalFailure(action string) { signalFailures.WithLabelValues(action).Inc() }

func SetRunStateActive(active bool) {
	if active {
		runState.Set(1)
	} else {
		runState.Set(0)
	}
}

func SetIdleSeconds(v float64) { idleSeconds.Set(v) }

func SetProbeActive(probe string, active bool) {
	if active {
		probeActive.WithLabelValues(probe).Set(1)
	} else {
		probeActive.WithLabelValues(probe).Set(0)
	}
}
