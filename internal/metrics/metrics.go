// internal/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	DeductionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deductions_total",
			Help: "Total number of recorded deductions",
		},
		[]string{"class"},
	)

	DeductionPoints = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "deduction_points",
			Help:    "Distribution of points taken per deduction",
			Buckets: prometheus.LinearBuckets(0, 5, 10),
		},
		[]string{"class"},
	)

	DeductionsRejectedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "deductions_rejected_total",
			Help: "Submitted deductions that failed validation",
		},
	)

	ClassScore = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "class_score",
			Help: "Last computed score of a class for the current week",
		},
		[]string{"class"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method", "status"},
	)
)
