// Package metrics exposes the controller's Prometheus collectors behind a
// private registry, mounted at /metrics by pkg/router.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Collectors groups every metric the control loop updates.
type Collectors struct {
	Registry *prometheus.Registry

	FSMMode           *prometheus.GaugeVec
	ProbeTotal        *prometheus.CounterVec
	DiscoveryRuns     prometheus.Counter
	DiscoveryFound    prometheus.Counter
	DiscoveryDuration prometheus.Histogram
	BrowserRestarts   *prometheus.CounterVec
}

// New constructs and registers all collectors on a fresh registry.
func New() *Collectors {
	reg := prometheus.NewRegistry()

	c := &Collectors{
		Registry: reg,
		FSMMode: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "kiosk_fsm_mode",
			Help: "Current availability FSM mode (1 for the active mode, 0 otherwise), labeled by mode.",
		}, []string{"mode"}),
		ProbeTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kiosk_probe_total",
			Help: "Health probes performed, labeled by result (ok/fail).",
		}, []string{"result"}),
		DiscoveryRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kiosk_discovery_runs_total",
			Help: "Discovery sweeps started.",
		}),
		DiscoveryFound: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kiosk_discovery_found_total",
			Help: "Discovery sweeps that found a responsive host.",
		}),
		DiscoveryDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "kiosk_discovery_duration_seconds",
			Help:    "Discovery sweep duration.",
			Buckets: prometheus.DefBuckets,
		}),
		BrowserRestarts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kiosk_browser_restarts_total",
			Help: "Browser restarts performed, labeled by reason.",
		}, []string{"reason"}),
	}

	reg.MustRegister(c.FSMMode, c.ProbeTotal, c.DiscoveryRuns, c.DiscoveryFound, c.DiscoveryDuration, c.BrowserRestarts)
	return c
}

// SetMode records the current FSM mode as a one-hot gauge pair.
func (c *Collectors) SetMode(mode string) {
	for _, m := range []string{"UP", "DOWN"} {
		v := 0.0
		if m == mode {
			v = 1.0
		}
		c.FSMMode.WithLabelValues(m).Set(v)
	}
}

// RecordProbe increments the probe counter for the given result.
func (c *Collectors) RecordProbe(ok bool) {
	if ok {
		c.ProbeTotal.WithLabelValues("ok").Inc()
	} else {
		c.ProbeTotal.WithLabelValues("fail").Inc()
	}
}
