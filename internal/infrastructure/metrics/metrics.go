// Package metrics exposes Prometheus instruments for submissions.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/doeshing/datatalk/internal/domain"
	"github.com/doeshing/datatalk/internal/ports"
)

var (
	SubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "datatalk_submissions_total",
			Help: "Total number of questions sent, by outcome",
		},
		[]string{"status"},
	)

	SubmissionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "datatalk_submission_duration_seconds",
			Help:    "Time from submit to rendered result",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"status"},
	)

	RenderedRows = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "datatalk_rendered_rows",
			Help:    "Rows rendered per successful answer",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		},
	)

	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "datatalk_cache_lookups_total",
			Help: "Response cache lookups, by result",
		},
		[]string{"result"},
	)

	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "datatalk_web_sessions",
			Help: "Chat sessions held by the web front end",
		},
	)
)

// Prometheus records submission outcomes into the default registry.
type Prometheus struct{}

// NewPrometheus returns the recorder.
func NewPrometheus() Prometheus {
	return Prometheus{}
}

func (Prometheus) ObserveSubmission(status domain.ExchangeStatus, elapsed time.Duration) {
	SubmissionsTotal.WithLabelValues(string(status)).Inc()
	SubmissionDuration.WithLabelValues(string(status)).Observe(elapsed.Seconds())
}

func (Prometheus) ObserveRows(count int) {
	RenderedRows.Observe(float64(count))
}

func (Prometheus) ObserveCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	CacheLookups.WithLabelValues(result).Inc()
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

var _ ports.Recorder = Prometheus{}
