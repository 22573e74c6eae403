// Package metrics exposes the screen-controller retry executor to Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder counts executor attempts, retries and final outcomes per
// operation label.
type PrometheusRecorder struct {
	attempts *prometheus.CounterVec
	retries  *prometheus.CounterVec
	backoff  *prometheus.HistogramVec
	outcomes *prometheus.CounterVec
}

// NewPrometheusRecorder creates the collectors and registers them on reg.
func NewPrometheusRecorder(reg prometheus.Registerer) (*PrometheusRecorder, error) {
	r := &PrometheusRecorder{
		attempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shelflife_operation_attempts_total",
				Help: "Attempts made by the retry executor",
			},
			[]string{"operation"},
		),
		retries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shelflife_operation_retries_total",
				Help: "Retries scheduled after a retriable failure",
			},
			[]string{"operation"},
		),
		backoff: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "shelflife_operation_backoff_seconds",
				Help:    "Backoff delay before a retry",
				Buckets: prometheus.ExponentialBuckets(0.5, 2, 4),
			},
			[]string{"operation"},
		),
		outcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shelflife_operation_outcomes_total",
				Help: "Final outcome of executor calls",
			},
			[]string{"operation", "outcome"},
		),
	}

	for _, c := range []prometheus.Collector{r.attempts, r.retries, r.backoff, r.outcomes} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *PrometheusRecorder) Attempt(operation string) {
	r.attempts.WithLabelValues(operation).Inc()
}

func (r *PrometheusRecorder) Retry(operation string, delay time.Duration) {
	r.retries.WithLabelValues(operation).Inc()
	r.backoff.WithLabelValues(operation).Observe(delay.Seconds())
}

func (r *PrometheusRecorder) Outcome(operation, outcome string) {
	r.outcomes.WithLabelValues(operation, outcome).Inc()
}
