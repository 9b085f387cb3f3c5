// Package metrics exposes analytics observations as Prometheus series.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/soaringjerry/obe-survey/internal/services"
)

// PrometheusMetrics implements services.Metrics.
type PrometheusMetrics struct {
	aggregationLatency *prometheus.HistogramVec
	summaryLatency     prometheus.Histogram
	summaryQuestions   prometheus.Histogram
	dataWarnings       *prometheus.CounterVec
}

// NewPrometheusMetrics registers the analytics series on reg. Pass
// prometheus.DefaultRegisterer to expose them through promhttp.Handler.
func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	factory := promauto.With(reg)
	return &PrometheusMetrics{
		aggregationLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "obe_aggregation_duration_seconds",
				Help:    "Time spent aggregating a single question, by aggregate kind.",
				Buckets: prometheus.ExponentialBuckets(0.00005, 4, 8),
			},
			[]string{"kind"},
		),
		summaryLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "obe_summary_duration_seconds",
			Help:    "Time spent building a survey analytics summary.",
			Buckets: prometheus.DefBuckets,
		}),
		summaryQuestions: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "obe_summary_questions",
			Help:    "Number of questions aggregated per summary.",
			Buckets: []float64{1, 5, 10, 25, 50, 100},
		}),
		dataWarnings: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "obe_response_data_warnings_total",
				Help: "Responses excluded from aggregate counts, by reason.",
			},
			[]string{"reason"},
		),
	}
}

func (pm *PrometheusMetrics) ObserveAggregation(kind services.AggregateKind, d time.Duration) {
	pm.aggregationLatency.WithLabelValues(string(kind)).Observe(d.Seconds())
}

func (pm *PrometheusMetrics) ObserveSummary(questions int, d time.Duration) {
	pm.summaryLatency.Observe(d.Seconds())
	pm.summaryQuestions.Observe(float64(questions))
}

func (pm *PrometheusMetrics) AddDataWarnings(invalid, unmatched int) {
	if invalid > 0 {
		pm.dataWarnings.WithLabelValues("invalid").Add(float64(invalid))
	}
	if unmatched > 0 {
		pm.dataWarnings.WithLabelValues("unmatched").Add(float64(unmatched))
	}
}

var _ services.Metrics = (*PrometheusMetrics)(nil)
