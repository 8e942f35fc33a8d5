package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the dashboard's Prometheus collectors.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	Submissions   *prometheus.CounterVec
	Rejected      prometheus.Counter
	DeviceLatency prometheus.Histogram
	InFlight      prometheus.Gauge
	Lights        *prometheus.GaugeVec

	registry *prometheus.Registry
}

// New creates a Metrics instance backed by its own registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Submissions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "qr_dashboard_submissions_total",
				Help: "Completed classification attempts by outcome",
			},
			[]string{"outcome"},
		),
		Rejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "qr_dashboard_blank_submissions_total",
			Help: "Submissions rejected before calling the device because the QR code was blank",
		}),
		DeviceLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "qr_dashboard_device_request_seconds",
			Help:    "Duration of classification requests to the device",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 3},
		}),
		InFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "qr_dashboard_device_requests_in_flight",
			Help: "1 while a classification request is outstanding",
		}),
		Lights: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "qr_dashboard_indicator_on",
				Help: "Inferred indicator light state (1 = on)",
			},
			[]string{"light"},
		),
	}

	m.registry.MustRegister(m.Submissions, m.Rejected, m.DeviceLatency, m.InFlight, m.Lights)

	return m
}

// ObserveAttempt records a completed device call
func (m *Metrics) ObserveAttempt(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.Submissions.WithLabelValues(outcome).Inc()
	m.DeviceLatency.Observe(elapsed.Seconds())
}

// ObserveRejected records a blank submission
func (m *Metrics) ObserveRejected() {
	if m == nil {
		return
	}
	m.Rejected.Inc()
}

// SetInFlight marks whether a device call is outstanding
func (m *Metrics) SetInFlight(active bool) {
	if m == nil {
		return
	}
	if active {
		m.InFlight.Set(1)
	} else {
		m.InFlight.Set(0)
	}
}

// SetLight exports one indicator's state
func (m *Metrics) SetLight(name string, on bool) {
	if m == nil {
		return
	}
	v := 0.0
	if on {
		v = 1
	}
	m.Lights.WithLabelValues(name).Set(v)
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
