package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the collectors exported by the reminder pipeline.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	checks        *prometheus.CounterVec
	checkDuration prometheus.Histogram
	dispatches    *prometheus.CounterVec
	skipped       prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		checks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "focus_checks_total",
				Help: "Total number of scheduled checks",
			},
			[]string{"status"}, // ok, error
		),
		checkDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "focus_check_duration_seconds",
				Help:    "Duration of scheduled checks",
				Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
		),
		dispatches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "focus_dispatches_total",
				Help: "Total number of notification dispatch attempts",
			},
			[]string{"result"}, // notified, no_subscription, delivery_error, ...
		),
		skipped: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "focus_tasks_skipped_total",
				Help: "Recurring tasks skipped because of malformed schedules",
			},
		),
	}
	reg.MustRegister(m.checks, m.checkDuration, m.dispatches, m.skipped)
	return m
}

func (m *Metrics) ObserveCheck(took time.Duration, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.checks.WithLabelValues(status).Inc()
	m.checkDuration.Observe(took.Seconds())
}

func (m *Metrics) ObserveDispatch(result string) {
	if m == nil {
		return
	}
	m.dispatches.WithLabelValues(result).Inc()
}

func (m *Metrics) AddSkipped(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.skipped.Add(float64(n))
}
